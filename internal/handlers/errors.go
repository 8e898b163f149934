package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/middleware/auth"
	"github.com/gravadigital/posterjudge-api/internal/response"
)

// Error kinds reported in the "kind" field of error responses
const (
	KindInvalidInput      = "invalid_input"
	KindOutOfRangeScore   = "out_of_range_score"
	KindNotFound          = "not_found"
	KindForbidden         = "forbidden"
	KindNoCriteriaDefined = "no_criteria_defined"
	KindSessionFull       = "session_full"
	KindConflict          = "conflict"
	KindInternal          = "internal"
)

// respondError translates a domain error into an HTTP response
func respondError(c *gin.Context, log *log.Logger, err error) {
	var outOfRange *common.OutOfRangeScoreError
	var invalid *common.ValidationError
	var notFound *common.NotFoundError

	switch {
	case errors.As(err, &outOfRange):
		response.ErrorWithKind(c, http.StatusBadRequest, KindOutOfRangeScore, err.Error(), gin.H{
			"score": outOfRange.Score,
			"min":   outOfRange.Min,
			"max":   outOfRange.Max,
		})
	case errors.Is(err, common.ErrOutOfRangeScore):
		response.ErrorWithKind(c, http.StatusBadRequest, KindOutOfRangeScore, err.Error(), nil)
	case errors.As(err, &invalid):
		var details any
		if invalid.Field != "" {
			details = gin.H{"field": invalid.Field}
		}
		response.ErrorWithKind(c, http.StatusBadRequest, KindInvalidInput, err.Error(), details)
	case errors.Is(err, common.ErrInvalidInput):
		response.ErrorWithKind(c, http.StatusBadRequest, KindInvalidInput, err.Error(), nil)
	case errors.As(err, &notFound):
		response.ErrorWithKind(c, http.StatusNotFound, KindNotFound, err.Error(), gin.H{"entity": notFound.Entity})
	case errors.Is(err, common.ErrNotFound):
		response.ErrorWithKind(c, http.StatusNotFound, KindNotFound, err.Error(), nil)
	case errors.Is(err, common.ErrForbidden):
		response.ErrorWithKind(c, http.StatusForbidden, KindForbidden, err.Error(), nil)
	case errors.Is(err, common.ErrNoCriteriaDefined):
		response.ErrorWithKind(c, http.StatusUnprocessableEntity, KindNoCriteriaDefined, err.Error(), nil)
	case errors.Is(err, common.ErrSessionFull):
		response.ErrorWithKind(c, http.StatusConflict, KindSessionFull, err.Error(), nil)
	case errors.Is(err, common.ErrConflict):
		response.ErrorWithKind(c, http.StatusConflict, KindConflict, err.Error(), nil)
	default:
		log.Error("Request failed", "path", c.FullPath(), "error", err)
		var details any
		if gin.IsDebugging() {
			details = gin.H{"error": err.Error()}
		}
		response.ErrorWithKind(c, http.StatusInternalServerError, KindInternal, "Internal server error", details)
	}
}

// bindJSON decodes the body into req, answering 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithKind(c, http.StatusBadRequest, KindInvalidInput, "Invalid request payload", gin.H{"error": err.Error()})
		return false
	}
	return true
}

// uuidParam parses a path parameter, answering 400 when it is not a UUID
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.ErrorWithKind(c, http.StatusBadRequest, KindInvalidInput, name+" must be a valid UUID", gin.H{"field": name})
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the authenticated caller; the auth middleware guarantees one
// on every route that calls it
func actor(c *gin.Context) *profile.Actor {
	return auth.Actor(c)
}
