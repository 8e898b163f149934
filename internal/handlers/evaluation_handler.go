package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/response"
	"github.com/gravadigital/posterjudge-api/internal/services"
)

type EvaluationHandler struct {
	evaluations *services.EvaluationService
	log         *log.Logger
}

func NewEvaluationHandler(evaluations *services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{
		evaluations: evaluations,
		log:         logger.Handler("evaluations"),
	}
}

// TotalResponse is the current total of an evaluation
type TotalResponse struct {
	evaluation.Result
	Percent *float64 `json:"total_percent"`
}

// StartEvaluation handles POST /api/projects/:id/evaluations
func (h *EvaluationHandler) StartEvaluation(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ev, err := h.evaluations.Start(c.Request.Context(), actor(c), projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Evaluation started", ev)
}

// ListProjectEvaluations handles GET /api/projects/:id/evaluations
func (h *EvaluationHandler) ListProjectEvaluations(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	evs, err := h.evaluations.ForProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, evs)
}

// ScoreProject handles PUT /api/projects/:id/evaluation/scores/:criterion_id
func (h *EvaluationHandler) ScoreProject(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	criterionID, ok := uuidParam(c, "criterion_id")
	if !ok {
		return
	}
	var req services.ScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	ev, err := h.evaluations.ScoreProject(c.Request.Context(), actor(c), projectID, criterionID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Score saved", ev)
}

// GetEvaluation handles GET /api/evaluations/:id
func (h *EvaluationHandler) GetEvaluation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ev, err := h.evaluations.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, ev)
}

// SubmitScore handles PUT /api/evaluations/:id/scores/:criterion_id
func (h *EvaluationHandler) SubmitScore(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	criterionID, ok := uuidParam(c, "criterion_id")
	if !ok {
		return
	}
	var req services.ScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	ev, err := h.evaluations.Submit(c.Request.Context(), actor(c), id, criterionID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Score saved", ev)
}

// RemoveScore handles DELETE /api/evaluations/:id/scores/:criterion_id
func (h *EvaluationHandler) RemoveScore(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	criterionID, ok := uuidParam(c, "criterion_id")
	if !ok {
		return
	}

	ev, err := h.evaluations.RemoveScore(c.Request.Context(), actor(c), id, criterionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Score removed", ev)
}

// GetTotal handles GET /api/evaluations/:id/total
func (h *EvaluationHandler) GetTotal(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.evaluations.Total(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, TotalResponse{Result: result, Percent: result.Percent()})
}

// Recalculate handles POST /api/evaluations/:id/recalculate
func (h *EvaluationHandler) Recalculate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ev, err := h.evaluations.Recalculate(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Evaluation recalculated", ev)
}

// UpdateComments handles PATCH /api/evaluations/:id/comments
func (h *EvaluationHandler) UpdateComments(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.CommentsRequest
	if !bindJSON(c, &req) {
		return
	}

	ev, err := h.evaluations.UpdateComments(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Comments updated", ev)
}

// MyEvaluations handles GET /api/me/evaluations
func (h *EvaluationHandler) MyEvaluations(c *gin.Context) {
	evs, err := h.evaluations.Mine(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, evs)
}
