// Package auth provides bearer authentication and role guards for gin routes
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	tokens "github.com/gravadigital/posterjudge-api/internal/auth"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/response"
)

const (
	actorKey    = "actor"
	identityKey = "identity"
)

// TokenVerifier turns a bearer token into an identity
type TokenVerifier interface {
	Verify(token string) (*profile.Identity, error)
}

// ActorResolver loads the application view of an identity
type ActorResolver interface {
	ResolveActor(ctx context.Context, id *profile.Identity) (*profile.Actor, error)
}

// Authenticate verifies the bearer token and stores the resolved actor in the context
func Authenticate(verifier TokenVerifier, users ActorResolver) gin.HandlerFunc {
	log := logger.Handler("auth")

	return func(c *gin.Context) {
		token, err := tokens.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.ErrorWithKind(c, http.StatusUnauthorized, "missing_authorization", "Authorization header with a bearer token is required", nil)
			c.Abort()
			return
		}

		id, err := verifier.Verify(token)
		if err != nil {
			message := "Token is invalid"
			if errors.Is(err, tokens.ErrTokenExpired) {
				message = "Token has expired"
			}
			log.Debug("Token rejected", "error", err)
			response.ErrorWithKind(c, http.StatusUnauthorized, "invalid_token", message, nil)
			c.Abort()
			return
		}

		actor, err := users.ResolveActor(c.Request.Context(), id)
		if err != nil {
			log.Error("Failed to resolve actor", "user_id", id.UserID, "error", err)
			response.InternalServerError(c, "Failed to load user")
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole lets the request through when the actor holds one of roles.
// Admins always pass.
func RequireRole(roles ...profile.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		if actor == nil {
			response.UnauthorizedError(c, "Authentication required")
			c.Abort()
			return
		}

		if actor.IsAdmin() {
			c.Next()
			return
		}
		for _, r := range roles {
			if actor.HasRole(r) {
				c.Next()
				return
			}
		}

		response.ErrorWithKind(c, http.StatusForbidden, "forbidden", "Insufficient role", gin.H{"required": roles})
		c.Abort()
	}
}

// Actor returns the authenticated actor, or nil on unauthenticated routes
func Actor(c *gin.Context) *profile.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*profile.Actor)
	return actor
}

// Identity returns the verified token identity, or nil
func Identity(c *gin.Context) *profile.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*profile.Identity)
	return id
}

// SetActor stores an actor in the context; handler tests use it to skip token checks
func SetActor(c *gin.Context, actor *profile.Actor) {
	c.Set(actorKey, actor)
}
