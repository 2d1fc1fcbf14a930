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

var _ repository.AssigneeResolver = (*AssigneeResolver)(nil)

// AssigneeResolver resuelve nombres visibles de asignatarios heterogéneos
// consultando la tabla que corresponde al kind.
type AssigneeResolver struct {
	q Querier
}

// NewAssigneeResolver construye el resolver.
func NewAssigneeResolver(q Querier) *AssigneeResolver {
	return &AssigneeResolver{q: q}
}

// DisplayName devuelve el nombre visible del asignatario kind+id.
func (r *AssigneeResolver) DisplayName(ctx context.Context, kind, id string) (string, error) {
	var query string
	switch kind {
	case entity.AssigneeKindUser:
		query = `SELECT name FROM users WHERE id = $1`
	case entity.AssigneeKindDepartment:
		query = `SELECT name FROM departments WHERE id = $1`
	case entity.AssigneeKindLocation:
		query = `SELECT name FROM locations WHERE id = $1`
	default:
		return "", fmt.Errorf("kind de asignatario desconocido: %s", kind)
	}
	var name string
	if err := r.q.QueryRow(ctx, query, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("resolver asignatario: %w", err)
	}
	return name, nil
}
