package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo adaptador pgx de sesiones de inventario.
type SessionRepo struct {
	q Querier
}

// NewSessionRepository construye el adaptador. Pasar pool o tx.
func NewSessionRepository(q Querier) *SessionRepo {
	return &SessionRepo{q: q}
}

const sessionColumns = `
	id, organization_id, name, status, scope_type, scope_ids,
	total_expected, total_scanned, total_matched, total_missing, total_unexpected,
	created_by, started_at, completed_at, created_at, updated_at`

// Create inserta una sesión con sus contadores iniciales.
func (r *SessionRepo) Create(ctx context.Context, session *entity.InventorySession) error {
	query := `
		INSERT INTO inventory_sessions (
			id, organization_id, name, status, scope_type, scope_ids,
			total_expected, total_scanned, total_matched, total_missing, total_unexpected,
			created_by, started_at, completed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.q.Exec(ctx, query,
		session.ID, session.OrganizationID, session.Name, session.Status,
		session.ScopeType, session.ScopeIDs,
		session.TotalExpected, session.TotalScanned, session.TotalMatched,
		session.TotalMissing, session.TotalUnexpected,
		session.CreatedBy, session.StartedAt, session.CompletedAt,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("crear sesión: %w", err)
	}
	return nil
}

// GetByID obtiene una sesión por id.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*entity.InventorySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM inventory_sessions WHERE id = $1`
	var s entity.InventorySession
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.OrganizationID, &s.Name, &s.Status, &s.ScopeType, &s.ScopeIDs,
		&s.TotalExpected, &s.TotalScanned, &s.TotalMatched, &s.TotalMissing, &s.TotalUnexpected,
		&s.CreatedBy, &s.StartedAt, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener sesión: %w", err)
	}
	return &s, nil
}

// Update persiste status, timestamps y nombre. Los contadores derivados
// solo se tocan vía UpdateCounters; TotalExpected nunca se reescribe.
func (r *SessionRepo) Update(ctx context.Context, session *entity.InventorySession) error {
	query := `
		UPDATE inventory_sessions SET
			name = $2, status = $3, started_at = $4, completed_at = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		session.ID, session.Name, session.Status,
		session.StartedAt, session.CompletedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actualizar sesión: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCounters persiste los contadores derivados del ledger (agregador).
func (r *SessionRepo) UpdateCounters(ctx context.Context, sessionID string, c repository.SessionCounters) error {
	query := `
		UPDATE inventory_sessions SET
			total_scanned = $2, total_matched = $3,
			total_missing = $4, total_unexpected = $5,
			updated_at = NOW()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		sessionID, c.TotalScanned, c.TotalMatched, c.TotalMissing, c.TotalUnexpected,
	)
	if err != nil {
		return fmt.Errorf("actualizar contadores: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOrganization lista sesiones de la organización, más recientes primero.
func (r *SessionRepo) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]*entity.InventorySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM inventory_sessions
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar sesiones: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.InventorySession
	for rows.Next() {
		var s entity.InventorySession
		if err := rows.Scan(
			&s.ID, &s.OrganizationID, &s.Name, &s.Status, &s.ScopeType, &s.ScopeIDs,
			&s.TotalExpected, &s.TotalScanned, &s.TotalMatched, &s.TotalMissing, &s.TotalUnexpected,
			&s.CreatedBy, &s.StartedAt, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
