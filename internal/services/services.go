package services

import (
	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/storage"
	"github.com/gravadigital/posterjudge-api/internal/storage/objects"
)

// Services bundles the application services the handlers depend on
type Services struct {
	Conferences  *ConferenceService
	Projects     *ProjectService
	Users        *UserService
	Registration *RegistrationService
	Evaluations  *EvaluationService
	AdminGrant   *AdminGrantService
	Exports      *ExportService
	Calendar     *CalendarService
}

// New wires every service over one storage container
func New(store storage.Container, posters objects.Store, cfg *config.Config) *Services {
	engine := storage.NewEngine(store)
	conferences := NewConferenceService(store, engine)

	return &Services{
		Conferences:  conferences,
		Projects:     NewProjectService(store, engine, posters, cfg.Objects.MaxPosterSize),
		Users:        NewUserService(store),
		Registration: NewRegistrationService(store, engine),
		Evaluations:  NewEvaluationService(store, engine),
		AdminGrant:   NewAdminGrantService(store, cfg.IsAdminEmail),
		Exports:      NewExportService(store, conferences),
		Calendar:     NewCalendarService(store),
	}
}
