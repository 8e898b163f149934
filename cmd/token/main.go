// Command token signs a bearer token with JWT_SECRET for local development
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/auth"
	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel)
	log := logger.Get()

	email := flag.String("email", "", "Email claim of the token")
	userID := flag.String("user-id", "", "Subject of the token (random when empty)")
	name := flag.String("name", "", "full_name user metadata")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if cfg.Auth.JWTSecret == "" {
		log.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	if *email == "" {
		log.Error("-email is required")
		os.Exit(1)
	}

	id := uuid.New()
	if *userID != "" {
		parsed, err := uuid.Parse(*userID)
		if err != nil {
			log.Error("Invalid -user-id", "error", err)
			os.Exit(1)
		}
		id = parsed
	}

	identity := &profile.Identity{UserID: id, Email: *email}
	if *name != "" {
		identity.Metadata = map[string]any{"full_name": *name}
	}

	token, err := auth.NewVerifier(cfg).Issue(identity, *ttl)
	if err != nil {
		log.Error("Failed to sign token", "error", err)
		os.Exit(1)
	}

	log.Info("Token issued", "user_id", id, "email", *email, "expires_in", ttl.String())
	fmt.Println(token)
}
