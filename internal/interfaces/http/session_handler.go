package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/application/dto"
)

// SessionHandler maneja el ciclo de vida de campañas de auditoría.
type SessionHandler struct {
	uc *audit.SessionUseCase
}

// NewSessionHandler construye el handler.
func NewSessionHandler(uc *audit.SessionUseCase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

func sessionActionInput(c *fiber.Ctx) audit.SessionActionInput {
	return audit.SessionActionInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		SessionID:      c.Params("id"),
	}
}

// Create godoc
// @Summary      Crear una sesión de inventario
// @Description  Resuelve el alcance, siembra el ledger de esperados (fija
//               total_expected una única vez) y crea las tareas en pending.
//               Solo manager o superior.
// @Tags         sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSessionRequest  true  "alcance y tareas"
// @Success      201  {object}  dto.SessionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	tasks := make([]audit.TaskSpec, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, audit.TaskSpec{
			AssigneeKind: t.AssigneeKind,
			AssigneeID:   t.AssigneeID,
			LocationID:   t.LocationID,
		})
	}
	session, err := h.uc.Create(c.Context(), audit.CreateSessionInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		Name:           req.Name,
		ScopeType:      req.ScopeType,
		ScopeIDs:       req.ScopeIDs,
		Tasks:          tasks,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(session))
}

// List godoc
// @Summary      Listar sesiones de la organización
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máx 100, default 20"
// @Param        offset  query  int  false  "default 0"
// @Success      200  {array}  dto.SessionResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sessions [get]
func (h *SessionHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "paginación inválida",
		})
	}
	page.DefaultPage()
	sessions, err := h.uc.List(c.Context(), GetOrganizationID(c), GetRole(c), page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de una sesión con contadores
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	session, err := h.uc.Get(c.Context(), sessionActionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toSessionResponse(session))
}

// Activate godoc
// @Summary      Activar una sesión (draft → in_progress)
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/activate [post]
func (h *SessionHandler) Activate(c *fiber.Ctx) error {
	session, err := h.uc.Activate(c.Context(), sessionActionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toSessionResponse(session))
}

// Complete godoc
// @Summary      Cerrar una sesión (in_progress → completed)
// @Description  Transiciona en bloque los expected restantes a missing y
//               reagrega los contadores. Cierre deliberado de la campaña.
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/complete [post]
func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	session, err := h.uc.Complete(c.Context(), sessionActionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toSessionResponse(session))
}

// Cancel godoc
// @Summary      Cancelar una sesión
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	session, err := h.uc.Cancel(c.Context(), sessionActionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toSessionResponse(session))
}

// Report godoc
// @Summary      Acta PDF de la sesión
// @Description  Resumen de contadores más el detalle de faltantes e
//               inesperados, como documento PDF.
// @Tags         sessions
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/report [get]
func (h *SessionHandler) Report(c *fiber.Ctx) error {
	pdfBytes, err := h.uc.Report(c.Context(), sessionActionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="acta-inventario.pdf"`)
	return c.Send(pdfBytes)
}
