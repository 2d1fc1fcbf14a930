package entity

import "time"

// Estados de una sesión de inventario físico.
const (
	SessionStatusDraft      = "draft"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusCancelled  = "cancelled"
)

// Alcances de sesión: qué activos entran como "esperados".
const (
	SessionScopeAll        = "all"
	SessionScopeLocation   = "location"
	SessionScopeCategory   = "category"
	SessionScopeDepartment = "department"
)

// InventorySession representa una campaña de auditoría física.
// Los contadores son derivados del ledger de ítems por el agregador;
// nunca se editan a mano (TotalExpected se fija una sola vez al crear).
type InventorySession struct {
	ID              string
	OrganizationID  string
	Name            string
	Status          string
	ScopeType       string
	ScopeIDs        []string // ids de location/category/department según ScopeType
	TotalExpected   int
	TotalScanned    int
	TotalMatched    int
	TotalMissing    int
	TotalUnexpected int
	CreatedBy       string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal informa si la sesión ya no admite mutaciones del ledger.
func (s *InventorySession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}
