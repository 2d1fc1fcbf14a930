package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/application/auth"
	"github.com/jhoicas/Activos-api/internal/application/plan"
	"github.com/jhoicas/Activos-api/internal/application/vision"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	TaskUC    *audit.TaskUseCase
	ScanUC    *audit.ScanUseCase
	SyncUC    *audit.SyncUseCase
	SessionUC *audit.SessionUseCase
	VisionUC  *vision.UseCase
	PlanSvc   *plan.Service
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Tareas: listado, bundle offline, transiciones, escaneo y sync
	tasks := protected.Group("/tasks")
	taskHandler := NewTaskHandler(deps.TaskUC, deps.ScanUC, deps.SyncUC)
	tasks.Get("/", taskHandler.List)
	tasks.Get("/:id", taskHandler.Get)
	tasks.Get("/:id/download", taskHandler.Download)
	tasks.Post("/:id/start", taskHandler.Start)
	tasks.Post("/:id/complete", taskHandler.Complete)
	tasks.Post("/:id/cancel", taskHandler.Cancel)
	tasks.Post("/:id/scan", taskHandler.Scan)
	tasks.Post("/:id/unexpected", taskHandler.ConfirmUnexpected)
	tasks.Post("/:id/mark-missing", taskHandler.MarkMissing)
	tasks.Post("/:id/sync", taskHandler.Sync)
	tasks.Get("/:id/sync-status", taskHandler.SyncStatus)

	// Visión IA: gated por plan además del JWT
	visionHandler := NewVisionHandler(deps.VisionUC)
	aiGuard := RequireAiPlan(deps.PlanSvc)
	tasks.Post("/:id/ai-identify", aiGuard, visionHandler.Identify)
	tasks.Post("/:id/ai-verify", aiGuard, visionHandler.Verify)
	// ai-confirm no gasta cuota: resolver una sugerencia pendiente debe
	// funcionar aunque la cuota del mes se haya agotado justo después.
	tasks.Post("/:id/ai-confirm", visionHandler.Confirm)

	// Sesiones (campañas de auditoría)
	sessions := protected.Group("/sessions")
	sessionHandler := NewSessionHandler(deps.SessionUC)
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/", sessionHandler.List)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Post("/:id/activate", sessionHandler.Activate)
	sessions.Post("/:id/complete", sessionHandler.Complete)
	sessions.Post("/:id/cancel", sessionHandler.Cancel)
	sessions.Get("/:id/report", sessionHandler.Report)
}
