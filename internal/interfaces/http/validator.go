package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/dto"
)

// validate instancia única del validador de structs; es segura para uso
// concurrente y cachea la metadata de tags.
var validate = validator.New()

// parseAndValidate deserializa el body y aplica las reglas de los tags
// `validate`. Devuelve la respuesta HTTP ya escrita en caso de error.
func parseAndValidate(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_BODY", Message: "cuerpo de la petición inválido",
		})
	}
	if err := validate.Struct(out); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: validationMessage(err),
		})
	}
	return nil
}

// validationMessage arma un mensaje legible con el primer campo inválido.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "campo inválido: " + fe.Field() + " (" + fe.Tag() + ")"
	}
	return "petición inválida"
}
