package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/http/handlers"
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Principals     *handlers.PrincipalsHandler
	Sessions       *handlers.SessionsHandler
	Students       *handlers.StudentsHandler
	Schedules      *handlers.SchedulesHandler
	TrainingSheets *handlers.TrainingSheetsHandler
	Payments       *handlers.PaymentsHandler
	Progress       *handlers.ProgressHandler
	AuthMiddleware *identity.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Everything under /v1 passes through
// authentication; role guards narrow the admin and trainer surfaces.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle, identity.RequireAuthenticated())

	v1.Get("/me", cfg.Principals.Me)

	v1.Post("/sessions", cfg.Sessions.Create)
	v1.Delete("/sessions", cfg.Sessions.Revoke)

	admin := v1.Group("", identity.RequireRole(domain.RoleAdmin))
	admin.Post("/principals", cfg.Principals.Provision)
	admin.Get("/principals", cfg.Principals.List)
	admin.Delete("/principals/:id", cfg.Principals.Deactivate)
	admin.Post("/trainers", cfg.Principals.CreateTrainer)

	staff := identity.RequireRole(domain.RoleAdmin, domain.RoleTrainer)

	v1.Post("/students", staff, cfg.Students.Create)
	v1.Get("/students", staff, cfg.Students.List)
	v1.Get("/students/stats", staff, cfg.Students.Stats)
	v1.Get("/students/:id", cfg.Students.Get)
	v1.Put("/students/:id", staff, cfg.Students.Update)
	v1.Delete("/students/:id", staff, cfg.Students.Deactivate)

	v1.Post("/students/:id/progress", cfg.Progress.Create)
	v1.Get("/students/:id/progress", cfg.Progress.List)

	v1.Post("/schedules", cfg.Schedules.Create)
	v1.Get("/schedules", cfg.Schedules.List)
	v1.Get("/schedules/:id", cfg.Schedules.Get)
	v1.Put("/schedules/:id", cfg.Schedules.Update)
	v1.Post("/schedules/:id/cancel", cfg.Schedules.Cancel)

	v1.Post("/training-sheets", staff, cfg.TrainingSheets.Create)
	v1.Get("/training-sheets", cfg.TrainingSheets.List)
	v1.Get("/training-sheets/:id", cfg.TrainingSheets.Get)
	v1.Put("/training-sheets/:id", staff, cfg.TrainingSheets.Update)

	v1.Post("/payments", staff, cfg.Payments.Create)
	v1.Get("/payments", staff, cfg.Payments.List)
}
