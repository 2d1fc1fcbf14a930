package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/application/vision"
)

// VisionHandler maneja identificación y verificación de activos por foto.
// Las tres rutas pasan por RequireAiPlan antes de llegar aquí.
type VisionHandler struct {
	uc *vision.UseCase
}

// NewVisionHandler construye el handler.
func NewVisionHandler(uc *vision.UseCase) *VisionHandler {
	return &VisionHandler{uc: uc}
}

// Identify godoc
// @Summary      Identificar un activo por foto
// @Description  Contrasta la foto contra los activos del alcance de la tarea
//               y devuelve candidatos con confianza. La sugerencia NO muta el
//               ledger: requiere confirmación humana vía ai-confirm.
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AiIdentifyRequest  true  "foto en base64"
// @Success      200  {object}  dto.AiIdentifyResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/ai-identify [post]
func (h *VisionHandler) Identify(c *fiber.Ctx) error {
	var req dto.AiIdentifyRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.uc.Identify(c.Context(), vision.IdentifyInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
		PhotoBase64:    req.Photo,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	matches := make([]dto.AiCandidateMatch, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, dto.AiCandidateMatch{
			AssetID:    m.AssetID,
			Confidence: m.Confidence,
		})
	}
	return c.JSON(dto.AiIdentifyResponse{
		RecognitionLogID: out.RecognitionLogID,
		Identification:   out.Identification,
		Matches:          matches,
		HasStrongMatch:   out.HasStrongMatch,
		Provider:         out.Provider,
	})
}

// Verify godoc
// @Summary      Verificar un activo por foto
// @Description  Compara la foto contra un único activo de referencia y
//               devuelve el veredicto con discrepancias observadas.
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AiVerifyRequest  true  "foto + activo"
// @Success      200  {object}  dto.AiVerifyResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/ai-verify [post]
func (h *VisionHandler) Verify(c *fiber.Ctx) error {
	var req dto.AiVerifyRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.uc.Verify(c.Context(), vision.VerifyInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
		AssetID:        req.AssetID,
		PhotoBase64:    req.Photo,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.AiVerifyResponse{
		RecognitionLogID: out.RecognitionLogID,
		IsMatch:          out.IsMatch,
		Confidence:       out.Confidence,
		Reasoning:        out.Reasoning,
		Discrepancies:    out.Discrepancies,
		Provider:         out.Provider,
	})
}

// Confirm godoc
// @Summary      Resolver una sugerencia de IA
// @Description  Registra la decisión humana (una única vez) y aplica el
//               efecto sobre el ledger: matched marca found, unexpected crea
//               el ítem, dismissed solo registra.
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AiConfirmRequest  true  "decisión"
// @Success      200  {object}  dto.AiConfirmResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/ai-confirm [post]
func (h *VisionHandler) Confirm(c *fiber.Ctx) error {
	var req dto.AiConfirmRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.uc.Confirm(c.Context(), vision.ConfirmInput{
		OrganizationID:   GetOrganizationID(c),
		UserID:           GetUserID(c),
		Role:             GetRole(c),
		TaskID:           c.Params("id"),
		RecognitionLogID: req.RecognitionLogID,
		AssetID:          req.AssetID,
		Action:           req.Action,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	resp := dto.AiConfirmResponse{Action: req.Action}
	if item != nil {
		i := toItemResponse(item)
		resp.Item = &i
	}
	return c.JSON(resp)
}
