package audit

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el read-modify-write del
// ledger sea atómico frente a otros escritores concurrentes.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error) error

	// RunVision inicia una transacción que además incluye el repo de logs
	// de reconocimiento (confirmación de sugerencias IA).
	RunVision(ctx context.Context, fn func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
		logRepo repository.RecognitionLogRepository,
	) error) error
}

// Notifier colaborador externo de notificaciones. El render de plantillas
// y el envío viven fuera de este core.
type Notifier interface {
	TaskCompleted(ctx context.Context, task *entity.InventoryTask, session *entity.InventorySession, actorID string) error
}

// ReportGenerator genera la representación PDF del informe de una sesión.
type ReportGenerator interface {
	GenerateSessionReport(ctx context.Context, session *entity.InventorySession, items []*entity.InventoryItem, assets map[string]*entity.Asset) ([]byte, error)
}
