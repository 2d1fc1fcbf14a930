package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/domain"
)

// quotaChecker contrato mínimo que necesita el middleware para verificar la
// cuota IA. Lo implementa *plan.Service; la interfaz evita acoplar el
// middleware al servicio completo.
type quotaChecker interface {
	CheckAiQuota(ctx context.Context, organizationID string) error
}

// RequireAiPlan devuelve un middleware Fiber que rechaza las rutas de visión
// IA cuando el plan de la organización no incluye IA o agotó su cuota
// mensual. Debe usarse DESPUÉS de AuthMiddleware (necesita el org del token).
//
// Comportamiento:
//   - 403 Forbidden → sin acceso IA o cuota agotada.
//   - 503 Service Unavailable → fallo de infraestructura al consultar.
//   - Sin organization_id en contexto → 401 (AuthMiddleware debió ponerlo).
//
// El caso de uso vuelve a verificar la cuota: el middleware es el corte
// temprano barato, no la única guarda.
func RequireAiPlan(checker quotaChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		organizationID := GetOrganizationID(c)
		if organizationID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "organization_id no encontrado en el token",
			})
		}
		if err := checker.CheckAiQuota(c.Context(), organizationID); err != nil {
			if errors.Is(err, domain.ErrPlanLimit) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Code:    "PLAN_LIMIT",
					Message: "el plan no incluye visión IA o la cuota mensual está agotada",
				})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "PLAN_CHECK_FAILED",
				Message: "no se pudo verificar el plan, intente más tarde",
			})
		}
		return c.Next()
	}
}
