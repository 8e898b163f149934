package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/response"
	"github.com/gravadigital/posterjudge-api/internal/storage"
)

type DiagnosticsHandler struct {
	store storage.Container
	log   *log.Logger
}

func NewDiagnosticsHandler(store storage.Container) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		store: store,
		log:   logger.Handler("diagnostics"),
	}
}

// Ping handles GET /ping
func (h *DiagnosticsHandler) Ping(c *gin.Context) {
	if err := h.store.Health(c.Request.Context()); err != nil {
		h.log.Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "Poster judging API is degraded",
			"status":  "unhealthy",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Poster judging API is running",
		"status":  "healthy",
	})
}

// Diagnostics handles GET /api/admin/diagnostics
func (h *DiagnosticsHandler) Diagnostics(c *gin.Context) {
	data := gin.H{"storage": h.store.Info()}

	if d, ok := h.store.(storage.Diagnoser); ok {
		report, err := d.Diagnostics(c.Request.Context())
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		data["database"] = report
	}

	response.OK(c, data)
}
