package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	tokens "github.com/gravadigital/posterjudge-api/internal/auth"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/middleware/auth"
	"github.com/gravadigital/posterjudge-api/internal/services"
)

// CORS headers sent on every grant-admin response
const (
	grantAllowOrigin  = "*"
	grantAllowHeaders = "authorization, x-client-info, apikey, content-type"
	grantAllowMethods = "POST, OPTIONS"
)

// GrantAdminHandler serves the admin bootstrap function. Its responses are
// plain JSON objects, not the API envelope.
type GrantAdminHandler struct {
	verifier auth.TokenVerifier
	grants   *services.AdminGrantService
	log      *log.Logger
}

func NewGrantAdminHandler(verifier auth.TokenVerifier, grants *services.AdminGrantService) *GrantAdminHandler {
	return &GrantAdminHandler{
		verifier: verifier,
		grants:   grants,
		log:      logger.Handler("grant-admin"),
	}
}

// GrantAdminCORS sets the function's CORS headers and answers preflight requests
func GrantAdminCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", grantAllowOrigin)
		c.Header("Access-Control-Allow-Headers", grantAllowHeaders)
		c.Header("Access-Control-Allow-Methods", grantAllowMethods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Grant handles ANY /functions/grant-admin
func (h *GrantAdminHandler) Grant(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method_not_allowed"})
		return
	}

	token, err := tokens.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_authorization"})
		return
	}

	id, err := h.verifier.Verify(token)
	if err != nil {
		h.log.Debug("Token rejected", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	err = h.grants.Grant(c.Request.Context(), id)
	var grantErr *services.GrantError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, services.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_allowed"})
	case errors.As(err, &grantErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": grantErr.Kind})
	default:
		h.log.Error("Admin grant failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
