package entity

import "time"

// Estados de una tarea de escaneo.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Tipos de asignatario de una tarea.
const (
	AssigneeKindUser       = "user"
	AssigneeKindDepartment = "department"
	AssigneeKindLocation   = "location"
)

// AssigneeRef referencia tipada al asignatario de una tarea.
// Evita el dispatch por nombre de tipo: el kind es un enum cerrado
// y la resolución a nombre visible pasa por un resolver inyectado.
type AssigneeRef struct {
	Kind string
	ID   string
}

// InventoryTask es la asignación de un trabajador dentro de una sesión,
// opcionalmente acotada a una ubicación.
type InventoryTask struct {
	ID          string
	SessionID   string
	Assignee    AssigneeRef
	LocationID  string // vacío = toda la sesión
	Status      string
	Notes       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanStart informa si la tarea puede pasar a in_progress.
func (t *InventoryTask) CanStart() bool { return t.Status == TaskStatusPending }

// CanComplete informa si la tarea puede pasar a completed.
func (t *InventoryTask) CanComplete() bool { return t.Status == TaskStatusInProgress }

// CanCancel informa si la tarea puede cancelarse (pending o in_progress).
func (t *InventoryTask) CanCancel() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusInProgress
}

// AssignedToUser informa si la tarea está asignada directamente al usuario dado.
func (t *InventoryTask) AssignedToUser(userID string) bool {
	return t.Assignee.Kind == AssigneeKindUser && t.Assignee.ID == userID
}
