package handlers

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/response"
	"github.com/gravadigital/posterjudge-api/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ConferenceHandler struct {
	conferences *services.ConferenceService
	exports     *services.ExportService
	log         *log.Logger
}

func NewConferenceHandler(conferences *services.ConferenceService, exports *services.ExportService) *ConferenceHandler {
	return &ConferenceHandler{
		conferences: conferences,
		exports:     exports,
		log:         logger.Handler("conferences"),
	}
}

// CreateConference handles POST /api/conferences
func (h *ConferenceHandler) CreateConference(c *gin.Context) {
	var req services.CreateConferenceRequest
	if !bindJSON(c, &req) {
		return
	}

	conf, err := h.conferences.CreateConference(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Conference created successfully", conf)
}

// ListConferences handles GET /api/conferences
func (h *ConferenceHandler) ListConferences(c *gin.Context) {
	confs, err := h.conferences.ListConferences(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, confs)
}

// GetConference handles GET /api/conferences/:id
func (h *ConferenceHandler) GetConference(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	conf, err := h.conferences.GetConference(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, conf)
}

// GetActiveConference handles GET /api/conferences/active
func (h *ConferenceHandler) GetActiveConference(c *gin.Context) {
	conf, err := h.conferences.GetActiveConference(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, conf)
}

// ActivateConference handles POST /api/conferences/:id/activate
func (h *ConferenceHandler) ActivateConference(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	conf, err := h.conferences.ActivateConference(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Conference activated", conf)
}

// CreateSession handles POST /api/conferences/:id/sessions
func (h *ConferenceHandler) CreateSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.conferences.CreateSession(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Session created successfully", session)
}

// ListSessions handles GET /api/conferences/:id/sessions
func (h *ConferenceHandler) ListSessions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	sessions, err := h.conferences.ListSessions(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, sessions)
}

// GetSession handles GET /api/sessions/:id
func (h *ConferenceHandler) GetSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	session, err := h.conferences.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, session)
}

// SessionCapacity handles GET /api/sessions/:id/capacity
func (h *ConferenceHandler) SessionCapacity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	occ, err := h.conferences.SessionCapacity(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, occ)
}

// CreateSpecialization handles POST /api/specializations
func (h *ConferenceHandler) CreateSpecialization(c *gin.Context) {
	var req services.CreateSpecializationRequest
	if !bindJSON(c, &req) {
		return
	}

	spec, err := h.conferences.CreateSpecialization(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Specialization created successfully", spec)
}

// ListSpecializations handles GET /api/specializations
func (h *ConferenceHandler) ListSpecializations(c *gin.Context) {
	specs, err := h.conferences.ListSpecializations(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, specs)
}

// CreateCriterion handles POST /api/conferences/:id/criteria
func (h *ConferenceHandler) CreateCriterion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.CreateCriterionRequest
	if !bindJSON(c, &req) {
		return
	}

	criterion, err := h.conferences.CreateCriterion(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Criterion created successfully", criterion)
}

// ListCriteria handles GET /api/conferences/:id/criteria
func (h *ConferenceHandler) ListCriteria(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	criteria, err := h.conferences.ListCriteria(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, criteria)
}

// Standings handles GET /api/conferences/:id/standings
func (h *ConferenceHandler) Standings(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	standings, err := h.conferences.Standings(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, standings)
}

// ExportConference handles GET /api/conferences/:id/export.xlsx
func (h *ConferenceHandler) ExportConference(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	buf, filename, err := h.exports.ExportConference(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
