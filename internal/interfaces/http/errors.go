package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/domain"
)

// respondDomainError traduce los errores centinela de dominio a HTTP.
// Los handlers solo llaman aquí: el mapeo vive en un único lugar.
//
//	ErrNotFound           → 404
//	ErrInvalidInput       → 400
//	ErrUnauthorized       → 401
//	ErrForbidden          → 403
//	ErrPlanLimit          → 403 (límite del plan, no un permiso de usuario)
//	ErrInvalidTransition  → 422
//	ErrDuplicateItem      → 422 (ya registrado en la sesión)
//	ErrDecisionRecorded   → 422
//	ErrAiProvider         → 502
//	resto                 → 500
func respondDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code: "NOT_FOUND", Message: "recurso no encontrado",
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: err.Error(),
		})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Code: "UNAUTHORIZED", Message: "credenciales inválidas",
		})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code: "FORBIDDEN", Message: "no tienes permisos para esta operación",
		})
	case errors.Is(err, domain.ErrPlanLimit):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code: "PLAN_LIMIT", Message: "el plan de la organización no permite esta operación o la cuota está agotada",
		})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "INVALID_TRANSITION", Message: "la transición de estado no es válida",
		})
	case errors.Is(err, domain.ErrDuplicateItem):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "DUPLICATE_ITEM", Message: "el activo ya está registrado en esta sesión",
		})
	case errors.Is(err, domain.ErrDecisionRecorded):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "DECISION_RECORDED", Message: "la sugerencia ya fue resuelta",
		})
	case errors.Is(err, domain.ErrAiProvider):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Code: "AI_PROVIDER", Message: "el servicio de visión IA no está disponible; intenta de nuevo",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: "error interno",
		})
	}
}
