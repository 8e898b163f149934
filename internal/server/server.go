package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	tokens "github.com/gravadigital/posterjudge-api/internal/auth"
	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/handlers"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/middleware/auth"
	"github.com/gravadigital/posterjudge-api/internal/middleware/ratelimit"
	"github.com/gravadigital/posterjudge-api/internal/middleware/requestlog"
	limiter "github.com/gravadigital/posterjudge-api/internal/ratelimit"
	"github.com/gravadigital/posterjudge-api/internal/services"
	"github.com/gravadigital/posterjudge-api/internal/storage"
	"github.com/gravadigital/posterjudge-api/internal/storage/objects"
)

const grantAdminPath = "/functions/grant-admin"

// Dependencies are the collaborators the router is built from
type Dependencies struct {
	Store    storage.Container
	Posters  objects.Store
	Services *services.Services
	Verifier *tokens.Verifier
	// Limiter guards the admin grant function; nil disables limiting
	Limiter limiter.Limiter
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	deps       Dependencies
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router := s.Router()

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router builds the HTTP router with middleware and routes
func (s *Server) Router() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(requestlog.Middleware())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.config.CORS.AllowOrigins
	corsConfig.AllowMethods = s.config.CORS.AllowMethods
	corsConfig.AllowHeaders = s.config.CORS.AllowHeaders
	corsConfig.ExposeHeaders = []string{requestlog.HeaderRequestID, "Content-Disposition"}
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}

	// The grant function carries its own CORS policy
	appCORS := cors.New(corsConfig)
	router.Use(func(c *gin.Context) {
		if c.Request.URL.Path == grantAdminPath {
			c.Next()
			return
		}
		appCORS(c)
	})

	diagnostics := handlers.NewDiagnosticsHandler(s.deps.Store)
	router.GET("/ping", diagnostics.Ping)

	if disk, ok := s.deps.Posters.(*objects.DiskStore); ok {
		router.Static(disk.URLPrefix(), disk.Dir())
	}

	grant := handlers.NewGrantAdminHandler(s.deps.Verifier, s.deps.Services.AdminGrant)
	router.Any(grantAdminPath,
		handlers.GrantAdminCORS(),
		ratelimit.Limit(s.deps.Limiter),
		grant.Grant,
	)

	api := router.Group("/api")
	api.Use(auth.Authenticate(s.deps.Verifier, s.deps.Services.Users))
	s.setupAPIRoutes(api, diagnostics)

	return router
}

// setupAPIRoutes configures all authenticated routes
func (s *Server) setupAPIRoutes(api *gin.RouterGroup, diagnostics *handlers.DiagnosticsHandler) {
	svc := s.deps.Services

	conferenceHandler := handlers.NewConferenceHandler(svc.Conferences, svc.Exports)
	projectHandler := handlers.NewProjectHandler(svc.Projects)
	evaluationHandler := handlers.NewEvaluationHandler(svc.Evaluations)
	registrationHandler := handlers.NewRegistrationHandler(svc.Registration, svc.Calendar)
	userHandler := handlers.NewUserHandler(svc.Users)

	admin := auth.RequireRole(profile.RoleAdmin)
	judge := auth.RequireRole(profile.RoleJudge)

	me := api.Group("/me")
	{
		me.GET("", userHandler.Me)
		me.PUT("/profile", userHandler.UpdateProfile)
		me.GET("/sessions", registrationHandler.MySessions)
		me.GET("/sessions.ics", registrationHandler.MyCalendar)
		me.GET("/reminders", registrationHandler.MyReminders)
		me.GET("/evaluations", evaluationHandler.MyEvaluations)
	}

	conferences := api.Group("/conferences")
	{
		conferences.GET("", conferenceHandler.ListConferences)
		conferences.POST("", admin, conferenceHandler.CreateConference)
		conferences.GET("/active", conferenceHandler.GetActiveConference)
		conferences.GET("/:id", conferenceHandler.GetConference)
		conferences.POST("/:id/activate", admin, conferenceHandler.ActivateConference)
		conferences.GET("/:id/sessions", conferenceHandler.ListSessions)
		conferences.POST("/:id/sessions", admin, conferenceHandler.CreateSession)
		conferences.GET("/:id/criteria", conferenceHandler.ListCriteria)
		conferences.POST("/:id/criteria", admin, conferenceHandler.CreateCriterion)
		conferences.GET("/:id/standings", conferenceHandler.Standings)
		conferences.GET("/:id/export.xlsx", admin, conferenceHandler.ExportConference)
	}

	specializations := api.Group("/specializations")
	{
		specializations.GET("", conferenceHandler.ListSpecializations)
		specializations.POST("", admin, conferenceHandler.CreateSpecialization)
	}

	sessions := api.Group("/sessions")
	{
		sessions.GET("/:id", conferenceHandler.GetSession)
		sessions.GET("/:id/capacity", conferenceHandler.SessionCapacity)
		sessions.POST("/:id/judges", judge, registrationHandler.Register)
		sessions.DELETE("/:id/judges", judge, registrationHandler.Unregister)
		sessions.PATCH("/:id/judges/:judge_id/confirm", admin, registrationHandler.Confirm)
	}

	projects := api.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", admin, projectHandler.CreateProject)
		projects.GET("/:id", projectHandler.GetProject)
		projects.PATCH("/:id/status", admin, projectHandler.UpdateStatus)
		projects.PATCH("/:id/session", admin, projectHandler.AssignSession)
		projects.POST("/:id/poster", admin, projectHandler.UploadPoster)
		projects.POST("/:id/evaluations", judge, evaluationHandler.StartEvaluation)
		projects.GET("/:id/evaluations", admin, evaluationHandler.ListProjectEvaluations)
		projects.PUT("/:id/evaluation/scores/:criterion_id", judge, evaluationHandler.ScoreProject)
	}

	evaluations := api.Group("/evaluations")
	{
		evaluations.GET("/:id", evaluationHandler.GetEvaluation)
		evaluations.PATCH("/:id/comments", judge, evaluationHandler.UpdateComments)
		evaluations.PUT("/:id/scores/:criterion_id", judge, evaluationHandler.SubmitScore)
		evaluations.DELETE("/:id/scores/:criterion_id", judge, evaluationHandler.RemoveScore)
		evaluations.GET("/:id/total", evaluationHandler.GetTotal)
		evaluations.POST("/:id/recalculate", admin, evaluationHandler.Recalculate)
	}

	adminGroup := api.Group("/admin", admin)
	{
		adminGroup.GET("/users", userHandler.ListUsers)
		adminGroup.POST("/users/:user_id/roles", userHandler.AddRole)
		adminGroup.DELETE("/users/:user_id/roles/:role", userHandler.RemoveRole)
		adminGroup.GET("/diagnostics", diagnostics.Diagnostics)
	}
}
