package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/posterjudge-api/internal/domain/project"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/response"
	"github.com/gravadigital/posterjudge-api/internal/services"
)

type ProjectHandler struct {
	projects *services.ProjectService
	log      *log.Logger
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		log:      logger.Handler("projects"),
	}
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.projects.CreateProject(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Project created successfully", p)
}

// ListProjects handles GET /api/projects?conference_id=&session_id=&status=
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var req services.ListProjectsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithKind(c, http.StatusBadRequest, KindInvalidInput, "Invalid query parameters", gin.H{"error": err.Error()})
		return
	}

	projects, err := h.projects.ListProjects(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	response.OK(c, projects)
}

// GetProject handles GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	p, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, p)
}

// UpdateStatus handles PATCH /api/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.projects.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Project status updated", p)
}

// AssignSession handles PATCH /api/projects/:id/session
func (h *ProjectHandler) AssignSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.AssignSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.projects.AssignSession(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Project session updated", p)
}

// UploadPoster handles POST /api/projects/:id/poster (multipart field "file")
func (h *ProjectHandler) UploadPoster(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.ErrorWithKind(c, http.StatusBadRequest, KindInvalidInput, "No file provided", gin.H{"field": "file", "error": err.Error()})
		return
	}
	defer file.Close()

	p, err := h.projects.UploadPoster(c.Request.Context(), id, services.PosterUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Created(c, "Poster uploaded successfully", p)
}
