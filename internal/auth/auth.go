// Package auth verifies bearer tokens minted by the external identity provider.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
)

var (
	ErrTokenMissing = errors.New("missing bearer token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carried by provider access tokens. sub is the auth user id.
type Claims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwtv5.RegisteredClaims
}

// Verifier checks HS256 tokens against the shared secret
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier creates a verifier from the auth configuration
func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{
		secret:   []byte(cfg.Auth.JWTSecret),
		issuer:   cfg.Auth.Issuer,
		audience: cfg.Auth.Audience,
		now:      time.Now,
	}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrTokenMissing
	}
	return strings.TrimSpace(parts[1]), nil
}

// Verify parses the token and returns the identity it asserts
func (v *Verifier) Verify(token string) (*profile.Identity, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: verifier has no secret", ErrTokenInvalid)
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwtv5.WithAudience(v.audience))
	}

	parsed, err := jwtv5.ParseWithClaims(token, &Claims{}, func(t *jwtv5.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrTokenInvalid)
	}

	return &profile.Identity{
		UserID:   userID,
		Email:    strings.ToLower(strings.TrimSpace(claims.Email)),
		Metadata: claims.UserMetadata,
	}, nil
}

// Issue signs a token for id. Used by tests and the local dev token command.
func (v *Verifier) Issue(id *profile.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Email:        id.Email,
		UserMetadata: id.Metadata,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   id.UserID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwtv5.ClaimStrings{v.audience}
	}

	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(v.secret)
}
