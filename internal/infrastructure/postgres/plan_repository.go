package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo adaptador pgx del plan efectivo por organización.
type PlanRepo struct {
	q Querier
}

// NewPlanRepository construye el adaptador.
func NewPlanRepository(q Querier) *PlanRepo {
	return &PlanRepo{q: q}
}

// GetByOrganization obtiene el plan de una organización. nil si no hay
// fila: el servicio de planes lo trata como plan basic sin acceso a IA.
func (r *PlanRepo) GetByOrganization(ctx context.Context, organizationID string) (*entity.OrgPlan, error) {
	query := `
		SELECT organization_id, tier, ai_calls_per_month, valid_until, updated_at
		FROM org_plans
		WHERE organization_id = $1`
	var p entity.OrgPlan
	err := r.q.QueryRow(ctx, query, organizationID).Scan(
		&p.OrganizationID, &p.Tier, &p.AiCallsPerMonth, &p.ValidUntil, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener plan: %w", err)
	}
	return &p, nil
}
