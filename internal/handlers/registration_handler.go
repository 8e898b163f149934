package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/response"
	"github.com/gravadigital/posterjudge-api/internal/services"
)

const calendarContentType = "text/calendar; charset=utf-8"

type RegistrationHandler struct {
	registration *services.RegistrationService
	calendar     *services.CalendarService
	log          *log.Logger
}

func NewRegistrationHandler(registration *services.RegistrationService, calendar *services.CalendarService) *RegistrationHandler {
	return &RegistrationHandler{
		registration: registration,
		calendar:     calendar,
		log:          logger.Handler("registration"),
	}
}

// Register handles POST /api/sessions/:id/judges
func (h *RegistrationHandler) Register(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	js, err := h.registration.Register(c.Request.Context(), actor(c), sessionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Registered for session", js)
}

// Unregister handles DELETE /api/sessions/:id/judges
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.registration.Unregister(c.Request.Context(), actor(c), sessionID); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Unregistered from session", nil)
}

// Confirm handles PATCH /api/sessions/:id/judges/:judge_id/confirm.
// An empty body confirms.
func (h *RegistrationHandler) Confirm(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	judgeID, ok := uuidParam(c, "judge_id")
	if !ok {
		return
	}

	var req services.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorWithKind(c, http.StatusBadRequest, KindInvalidInput, "Invalid request payload", gin.H{"error": err.Error()})
		return
	}

	js, err := h.registration.Confirm(c.Request.Context(), sessionID, judgeID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Registration updated", js)
}

// MySessions handles GET /api/me/sessions
func (h *RegistrationHandler) MySessions(c *gin.Context) {
	sessions, err := h.registration.MySessions(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, sessions)
}

// MyReminders handles GET /api/me/reminders
func (h *RegistrationHandler) MyReminders(c *gin.Context) {
	reminders, err := h.registration.MyReminders(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, reminders)
}

// MyCalendar handles GET /api/me/sessions.ics
func (h *RegistrationHandler) MyCalendar(c *gin.Context) {
	feed, err := h.calendar.JudgeCalendar(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="judging-sessions.ics"`)
	c.Data(http.StatusOK, calendarContentType, []byte(feed))
}
