package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Service resuelve el plan efectivo de una organización con una caché TTL
// explícita e invalidable. La caché evita recomputar límites del plan en
// cada chequeo de cuota; NO es estado global: se inyecta como capacidad a
// quien la necesite y se invalida al cambiar la suscripción.
type Service struct {
	planRepo repository.PlanRepository
	logRepo  repository.RecognitionLogRepository
	cache    *expirable.LRU[string, *entity.OrgPlan]
}

// NewService construye el servicio. ttl acota la ventana en la que un plan
// cacheado puede quedar desactualizado sin invalidación explícita.
func NewService(planRepo repository.PlanRepository, logRepo repository.RecognitionLogRepository, ttl time.Duration) *Service {
	return &Service{
		planRepo: planRepo,
		logRepo:  logRepo,
		cache:    expirable.NewLRU[string, *entity.OrgPlan](1024, nil, ttl),
	}
}

// Effective devuelve el plan vigente de la organización (cacheado).
// Sin plan registrado, la organización opera en tier básico sin IA.
func (s *Service) Effective(ctx context.Context, organizationID string) (*entity.OrgPlan, error) {
	if p, ok := s.cache.Get(organizationID); ok {
		return p, nil
	}
	p, err := s.planRepo.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("plan: consultar organización: %w", err)
	}
	if p == nil || !p.Active(time.Now()) {
		p = &entity.OrgPlan{OrganizationID: organizationID, Tier: entity.PlanTierBasic}
	}
	s.cache.Add(organizationID, p)
	return p, nil
}

// Invalidate descarta la entrada cacheada de la organización. Llamar al
// cambiar la suscripción (webhook del proveedor de pagos).
func (s *Service) Invalidate(organizationID string) {
	s.cache.Remove(organizationID)
}

// EffectiveTier tier del plan vigente.
func (s *Service) EffectiveTier(ctx context.Context, organizationID string) (string, error) {
	p, err := s.Effective(ctx, organizationID)
	if err != nil {
		return "", err
	}
	return p.Tier, nil
}

// CheckAiQuota verifica la cuota mensual de llamadas de visión IA contra
// los logs de reconocimiento del mes calendario en curso.
// Devuelve domain.ErrPlanLimit si la cuota está agotada o el plan no
// incluye IA.
func (s *Service) CheckAiQuota(ctx context.Context, organizationID string) error {
	p, err := s.Effective(ctx, organizationID)
	if err != nil {
		return err
	}
	if p.AiCallsPerMonth <= 0 {
		return domain.ErrPlanLimit
	}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	used, err := s.logRepo.CountSince(ctx, organizationID, monthStart)
	if err != nil {
		return fmt.Errorf("plan: contar llamadas IA: %w", err)
	}
	if used >= p.AiCallsPerMonth {
		return domain.ErrPlanLimit
	}
	return nil
}
