package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// TaskHandler maneja tareas de escaneo: listado, bundle offline,
// transiciones de estado, escaneos y sincronización.
type TaskHandler struct {
	tasks *audit.TaskUseCase
	scans *audit.ScanUseCase
	sync  *audit.SyncUseCase
}

// NewTaskHandler construye el handler.
func NewTaskHandler(tasks *audit.TaskUseCase, scans *audit.ScanUseCase, sync *audit.SyncUseCase) *TaskHandler {
	return &TaskHandler{tasks: tasks, scans: scans, sync: sync}
}

// actionInput arma el input común tarea+actor desde el contexto Fiber.
func actionInput(c *fiber.Ctx) audit.TaskActionInput {
	return audit.TaskActionInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
	}
}

// List godoc
// @Summary      Listar mis tareas
// @Description  Tareas visibles para el usuario con contadores de avance,
//               ordenadas in_progress, pending, terminadas.
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "filtro por estado"
// @Param        limit   query  int     false  "máx 100, default 20"
// @Param        offset  query  int     false  "default 0"
// @Success      200  {array}  dto.TaskSummaryResponse
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "paginación inválida",
		})
	}
	page.DefaultPage()
	status := c.Query("status")
	if !statusFilterValid(status) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "filtro de estado desconocido",
		})
	}

	summaries, err := h.tasks.List(c.Context(), GetOrganizationID(c), GetUserID(c), status, page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]dto.TaskSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp := toTaskSummaryResponse(s)
		if name, err := h.tasks.AssigneeName(c.Context(), s.Task.Assignee); err == nil {
			resp.AssigneeName = name
		}
		out = append(out, resp)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de una tarea
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TaskResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, _, err := h.tasks.Get(c.Context(), actionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	resp := toTaskResponse(task)
	if name, err := h.tasks.AssigneeName(c.Context(), task.Assignee); err == nil {
		resp.AssigneeName = name
	}
	return c.JSON(resp)
}

// Download godoc
// @Summary      Bundle offline de una tarea
// @Description  Tarea + sesión + ítems del alcance + detalle de activos +
//               índice de códigos de toda la organización. Todo lo que el
//               móvil necesita para trabajar sin conexión.
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TaskBundleResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/download [get]
func (h *TaskHandler) Download(c *fiber.Ctx) error {
	bundle, err := h.tasks.Download(c.Context(), actionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toTaskBundleResponse(bundle))
}

// Start godoc
// @Summary      Iniciar una tarea (pending → in_progress)
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TaskResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/start [post]
func (h *TaskHandler) Start(c *fiber.Ctx) error {
	task, err := h.tasks.Start(c.Context(), actionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toTaskResponse(task))
}

// Complete godoc
// @Summary      Completar una tarea (in_progress → completed)
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TaskResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *fiber.Ctx) error {
	task, err := h.tasks.Complete(c.Context(), actionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toTaskResponse(task))
}

// Cancel godoc
// @Summary      Cancelar una tarea (solo manager o superior)
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TaskResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/cancel [post]
func (h *TaskHandler) Cancel(c *fiber.Ctx) error {
	task, err := h.tasks.Cancel(c.Context(), actionInput(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toTaskResponse(task))
}

// Scan godoc
// @Summary      Resolver un escaneo de código
// @Description  Decide la disposición del código: found, already_scanned o
//               is_unexpected (candidato; requiere confirmación aparte).
// @Tags         tasks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScanRequest  true  "código escaneado"
// @Success      200  {object}  dto.ScanResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/scan [post]
func (h *TaskHandler) Scan(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.scans.Scan(c.Context(), audit.ScanInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
		Code:           req.Barcode,
		Method:         req.Method,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	resp := dto.ScanResponse{
		Found:          result.Found,
		AlreadyScanned: result.AlreadyScanned,
		IsUnexpected:   result.IsUnexpected,
	}
	if result.Asset != nil {
		a := toAssetResponse(result.Asset)
		resp.Asset = &a
	}
	if result.Item != nil {
		i := toItemResponse(result.Item)
		resp.Item = &i
	}
	return c.JSON(resp)
}

// ConfirmUnexpected godoc
// @Summary      Confirmar un activo inesperado
// @Description  Crea el ítem unexpected tras la confirmación humana del
//               candidato reportado por el escaneo.
// @Tags         tasks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConfirmUnexpectedRequest  true  "activo confirmado"
// @Success      201  {object}  dto.ItemResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/unexpected [post]
func (h *TaskHandler) ConfirmUnexpected(c *fiber.Ctx) error {
	var req dto.ConfirmUnexpectedRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.scans.ConfirmUnexpected(c.Context(), audit.ConfirmUnexpectedInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
		AssetID:        req.AssetID,
		ConditionNotes: req.ConditionNotes,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toItemResponse(item))
}

// MarkMissing godoc
// @Summary      Marcar un ítem como faltante
// @Tags         tasks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MarkMissingRequest  true  "ítem a marcar"
// @Success      200  {object}  dto.ItemResponse
// @Router       /api/tasks/{id}/mark-missing [post]
func (h *TaskHandler) MarkMissing(c *fiber.Ctx) error {
	var req dto.MarkMissingRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.scans.MarkMissing(c.Context(), audit.MarkMissingInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
		ItemID:         req.ItemID,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// Sync godoc
// @Summary      Sincronizar un lote de escaneos offline
// @Description  Aplica los eventos capturados sin conexión con política
//               last-writer-wins por ítem. Los conflictos viajan en la
//               respuesta (200), nunca como error del lote.
// @Tags         tasks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncRequest  true  "lote offline"
// @Success      200  {object}  dto.SyncResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/sync [post]
func (h *TaskHandler) Sync(c *fiber.Ctx) error {
	var req dto.SyncRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	events := make([]audit.SyncEvent, 0, len(req.Scans))
	for _, s := range req.Scans {
		var at time.Time
		if s.ScannedAt != nil {
			at = *s.ScannedAt
		}
		events = append(events, audit.SyncEvent{
			ItemID:    s.ItemID,
			AssetID:   s.AssetID,
			Status:    s.Status,
			ScannedAt: at,
			Method:    s.Method,
			Notes:     s.Notes,
		})
	}
	outcome, err := h.sync.Sync(c.Context(), audit.SyncInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
		Events:         events,
		TaskStatus:     req.TaskStatus,
		TaskNotes:      req.TaskNotes,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.SyncResponse{
		SyncedCount: outcome.Applied,
		Conflicts:   toSyncConflicts(outcome.Conflicts),
		Task:        toTaskResponse(outcome.Task),
		Items:       toItemResponses(outcome.Items),
		SyncedAt:    outcome.SyncedAt,
	})
}

// SyncStatus godoc
// @Summary      Consultar cambios del lado servidor
// @Description  Informa cuántos ítems del alcance cambiaron desde `since`,
//               para que el cliente decida si volver a descargar el bundle.
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Param        since  query  string  true  "timestamp RFC3339"
// @Success      200  {object}  dto.SyncStatusResponse
// @Router       /api/tasks/{id}/sync-status [get]
func (h *TaskHandler) SyncStatus(c *fiber.Ctx) error {
	since, err := time.Parse(time.RFC3339, c.Query("since"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "since debe ser un timestamp RFC3339",
		})
	}
	changed, latest, err := h.sync.SyncStatus(c.Context(), audit.SyncInput{
		OrganizationID: GetOrganizationID(c),
		UserID:         GetUserID(c),
		Role:           GetRole(c),
		TaskID:         c.Params("id"),
	}, since)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.SyncStatusResponse{
		HasChanges:      changed > 0,
		ItemsChanged:    changed,
		ServerUpdatedAt: latest,
	})
}

// statusFilterValid valida el filtro de estado del listado.
func statusFilterValid(s string) bool {
	switch s {
	case "", entity.TaskStatusPending, entity.TaskStatusInProgress,
		entity.TaskStatusCompleted, entity.TaskStatusCancelled:
		return true
	}
	return false
}
