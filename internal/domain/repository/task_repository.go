package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// TaskSummary fila de listado de tareas con los contadores de su alcance.
type TaskSummary struct {
	Task     *entity.InventoryTask
	Expected int
	Scanned  int
}

// TaskRepository puerto de persistencia para tareas de escaneo.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.InventoryTask) error
	GetByID(ctx context.Context, id string) (*entity.InventoryTask, error)
	// GetForUpdate bloquea la fila de la tarea (SELECT FOR UPDATE) para
	// que las transiciones de estado sean atómicas entre requests.
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryTask, error)
	Update(ctx context.Context, task *entity.InventoryTask) error
	// ListForUser lista las tareas visibles para el usuario (asignadas a él,
	// a su departamento o a una ubicación), ordenadas
	// in_progress < pending < completed. statusFilter vacío = todas.
	ListForUser(ctx context.Context, organizationID, userID, statusFilter string, limit, offset int) ([]TaskSummary, error)
}

// AssigneeResolver resuelve el nombre visible de un asignatario heterogéneo
// (user | department | location) a partir de su kind + id.
type AssigneeResolver interface {
	DisplayName(ctx context.Context, kind, id string) (string, error)
}
