package entity

import "time"

// Niveles de plan de suscripción.
const (
	PlanTierBasic      = "basic"
	PlanTierPro        = "pro"
	PlanTierEnterprise = "enterprise"
)

// OrgPlan plan efectivo de una organización. La facturación vive fuera de
// este core; aquí solo importan el tier (ruteo de proveedores IA) y la
// cuota mensual de llamadas de visión.
type OrgPlan struct {
	OrganizationID string
	Tier           string
	AiCallsPerMonth int // 0 = sin acceso a IA
	ValidUntil     *time.Time
	UpdatedAt      time.Time
}

// Active informa si el plan está vigente a la fecha dada.
func (p *OrgPlan) Active(now time.Time) bool {
	return p.ValidUntil == nil || p.ValidUntil.After(now)
}
