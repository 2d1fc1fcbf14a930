package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// SessionCounters contadores derivados del ledger que el agregador
// persiste sobre la sesión. TotalExpected no se recalcula aquí.
type SessionCounters struct {
	TotalScanned    int
	TotalMatched    int
	TotalMissing    int
	TotalUnexpected int
}

// SessionRepository puerto de persistencia para sesiones de inventario.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.InventorySession) error
	GetByID(ctx context.Context, id string) (*entity.InventorySession, error)
	// Update persiste status, timestamps y notas de la sesión (no contadores).
	Update(ctx context.Context, session *entity.InventorySession) error
	// UpdateCounters persiste solo los contadores derivados (agregador).
	UpdateCounters(ctx context.Context, sessionID string, c SessionCounters) error
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]*entity.InventorySession, error)
}
