package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// ScanUseCase resuelve escaneos contra el ledger de una sesión: decide si un
// código corresponde a un ítem esperado (found), a uno ya escaneado
// (idempotente) o a un activo fuera de alcance (candidato a unexpected).
// Toda mutación corre dentro de TxRunner con bloqueo de fila.
type ScanUseCase struct {
	txRunner    TxRunner
	assetRepo   repository.AssetRepository
	taskRepo    repository.TaskRepository
	sessionRepo repository.SessionRepository
	itemRepo    repository.InventoryItemRepository
}

// NewScanUseCase construye el caso de uso.
func NewScanUseCase(
	txRunner TxRunner,
	assetRepo repository.AssetRepository,
	taskRepo repository.TaskRepository,
	sessionRepo repository.SessionRepository,
	itemRepo repository.InventoryItemRepository,
) *ScanUseCase {
	return &ScanUseCase{
		txRunner:    txRunner,
		assetRepo:   assetRepo,
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
		itemRepo:    itemRepo,
	}
}

// ScanInput un escaneo entrante (código de barras o entrada manual).
type ScanInput struct {
	OrganizationID string
	UserID         string
	Role           string
	TaskID         string
	Code           string
	Method         string // barcode (default) | manual
}

// ScanResult disposición del escaneo. Found=false solo cuando el código no
// resolvió a ningún activo de la organización.
type ScanResult struct {
	Found          bool
	AlreadyScanned bool
	IsUnexpected   bool
	Asset          *entity.Asset
	Item           *entity.InventoryItem
}

// Scan resuelve un código contra el ledger de la sesión de la tarea.
//
//  1. Sin activo que coincida → ErrNotFound, sin mutación.
//  2. Ítem ya found → already_scanned, sin mutación (re-escanear es normal).
//  3. Ítem expected|missing → transición a found con estampas.
//  4. Sin ítem para el activo → candidato a unexpected: NO se crea registro;
//     el caller debe confirmar con ConfirmUnexpected (decisión humana).
func (uc *ScanUseCase) Scan(ctx context.Context, in ScanInput) (*ScanResult, error) {
	if in.Code == "" {
		return nil, domain.ErrInvalidInput
	}
	task, session, err := uc.loadTaskForWorker(ctx, in.TaskID, in.OrganizationID, in.UserID, in.Role)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}

	asset, err := uc.assetRepo.ResolveCode(ctx, session.OrganizationID, in.Code)
	if err != nil {
		return nil, fmt.Errorf("resolver código: %w", err)
	}
	if asset == nil {
		return nil, domain.ErrNotFound
	}

	method := in.Method
	if method == "" {
		method = entity.MethodBarcode
	}

	result := &ScanResult{Found: true, Asset: asset}
	now := time.Now()

	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error {
		if _, err := ensureTaskActive(ctx, taskRepo, task.ID, now); err != nil {
			return err
		}
		item, err := itemRepo.GetBySessionAndAssetForUpdate(ctx, session.ID, asset.ID)
		if err != nil {
			return err
		}
		if item == nil {
			// Activo fuera del alcance original: dos pasos por diseño,
			// la creación espera la confirmación explícita del caller.
			result.IsUnexpected = true
			return nil
		}
		result.Item = item
		// found y unexpected ya están resueltos: reescaneo idempotente.
		// Un unexpected confirmado nunca se reclasifica a found; solo
		// expected y missing transicionan.
		if item.Status == entity.ItemStatusFound || item.Status == entity.ItemStatusUnexpected {
			result.AlreadyScanned = true
			return nil
		}
		item.MarkFound(task.ID, in.UserID, method, now)
		if err := itemRepo.Update(ctx, item); err != nil {
			return err
		}
		return NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmUnexpectedInput confirmación de alta de un activo fuera de alcance.
type ConfirmUnexpectedInput struct {
	OrganizationID string
	UserID         string
	Role           string
	TaskID         string
	AssetID        string
	Method         string
	ConditionNotes string
}

// ConfirmUnexpected crea el ítem con status unexpected. El invariante de un
// ítem por (session, asset) lo garantiza el constraint único de la base:
// la violación llega como domain.ErrDuplicateItem aunque dos confirmaciones
// concurrentes pasen a la vez el lookup previo.
func (uc *ScanUseCase) ConfirmUnexpected(ctx context.Context, in ConfirmUnexpectedInput) (*entity.InventoryItem, error) {
	task, session, err := uc.loadTaskForWorker(ctx, in.TaskID, in.OrganizationID, in.UserID, in.Role)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}
	asset, err := uc.assetRepo.GetByID(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil || asset.OrganizationID != session.OrganizationID {
		return nil, domain.ErrNotFound
	}

	method := in.Method
	if method == "" {
		method = entity.MethodBarcode
	}
	now := time.Now()
	item := &entity.InventoryItem{
		ID:                   uuid.New().String(),
		SessionID:            session.ID,
		TaskID:               task.ID,
		AssetID:              asset.ID,
		Status:               entity.ItemStatusUnexpected,
		ScannedAt:            &now,
		ScannedBy:            in.UserID,
		IdentificationMethod: method,
		ConditionNotes:       in.ConditionNotes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error {
		if _, err := ensureTaskActive(ctx, taskRepo, task.ID, now); err != nil {
			return err
		}
		if err := itemRepo.Create(ctx, item); err != nil {
			return err
		}
		return NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// MarkFoundViaAIInput transición a found con procedencia de IA.
type MarkFoundViaAIInput struct {
	OrganizationID   string
	UserID           string
	Role             string
	TaskID           string
	ItemID           string
	RecognitionLogID string
	Confidence       float64
}

// MarkFoundViaAI aplica la misma transición que el escaneo por código de
// barras pero registra la procedencia IA (log + confianza). Se usa cuando
// un humano confirma una sugerencia del modelo.
func (uc *ScanUseCase) MarkFoundViaAI(ctx context.Context, in MarkFoundViaAIInput) (*entity.InventoryItem, error) {
	task, session, err := uc.loadTaskForWorker(ctx, in.TaskID, in.OrganizationID, in.UserID, in.Role)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	var out *entity.InventoryItem

	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error {
		if _, err := ensureTaskActive(ctx, taskRepo, task.ID, now); err != nil {
			return err
		}
		item, err := itemRepo.GetForUpdate(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil || item.SessionID != session.ID {
			return domain.ErrNotFound
		}
		out = item
		if item.Status == entity.ItemStatusFound {
			// Re-confirmación: no-op, mismas garantías que already_scanned.
			return nil
		}
		item.MarkFound(task.ID, in.UserID, entity.MethodAiVision, now)
		item.RecognitionLogID = in.RecognitionLogID
		conf := in.Confidence
		item.AiConfidence = &conf
		if err := itemRepo.Update(ctx, item); err != nil {
			return err
		}
		return NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkMissingInput override manual a missing.
type MarkMissingInput struct {
	OrganizationID string
	UserID         string
	Role           string
	TaskID         string
	ItemID         string
}

// MarkMissing marca un ítem como faltante sin esperar el cierre de la
// sesión. No borra las estampas de escaneo previas: la fila conserva la
// historia de quién lo vio por última vez.
func (uc *ScanUseCase) MarkMissing(ctx context.Context, in MarkMissingInput) (*entity.InventoryItem, error) {
	task, session, err := uc.loadTaskForWorker(ctx, in.TaskID, in.OrganizationID, in.UserID, in.Role)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	var out *entity.InventoryItem

	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error {
		item, err := itemRepo.GetForUpdate(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil || item.SessionID != session.ID {
			return domain.ErrNotFound
		}
		out = item
		if item.Status == entity.ItemStatusMissing {
			return nil
		}
		item.Status = entity.ItemStatusMissing
		item.TaskID = task.ID
		item.UpdatedAt = now
		if err := itemRepo.Update(ctx, item); err != nil {
			return err
		}
		return NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// loadTaskForWorker carga tarea + sesión validando tenant y autorización:
// el caller debe ser el asignatario directo, pertenecer a un asignatario
// colectivo (department/location, cuya membresía resuelve el directorio
// externo) o tener rol manager o superior.
func (uc *ScanUseCase) loadTaskForWorker(ctx context.Context, taskID, organizationID, userID, role string) (*entity.InventoryTask, *entity.InventorySession, error) {
	task, session, err := loadTaskSession(ctx, uc.taskRepo, uc.sessionRepo, taskID, organizationID)
	if err != nil {
		return nil, nil, err
	}
	if !canOperateTask(task, userID, role) {
		return nil, nil, domain.ErrForbidden
	}
	return task, session, nil
}

// loadTaskSession carga tarea y sesión con scoping por organización:
// una tarea de otra organización se reporta como inexistente, no como 403.
func loadTaskSession(ctx context.Context, taskRepo repository.TaskRepository, sessionRepo repository.SessionRepository, taskID, organizationID string) (*entity.InventoryTask, *entity.InventorySession, error) {
	task, err := taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, domain.ErrNotFound
	}
	session, err := sessionRepo.GetByID(ctx, task.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || session.OrganizationID != organizationID {
		return nil, nil, domain.ErrNotFound
	}
	return task, session, nil
}

// canOperateTask regla de autorización compartida por escaneo y sync.
func canOperateTask(task *entity.InventoryTask, userID, role string) bool {
	if entity.RoleAtLeastManager(role) {
		return true
	}
	if task.Assignee.Kind == entity.AssigneeKindUser {
		return task.Assignee.ID == userID
	}
	// Asignatarios colectivos: la membresía la valida el directorio externo
	// al emitir el token; aquí basta con pertenecer a la organización.
	return true
}

// ensureTaskActive bloquea la fila de la tarea y garantiza que admite
// mutaciones del ledger: pending pasa a in_progress (primera actividad),
// completed y cancelled las rechazan.
func ensureTaskActive(ctx context.Context, taskRepo repository.TaskRepository, taskID string, now time.Time) (*entity.InventoryTask, error) {
	task, err := taskRepo.GetForUpdate(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrNotFound
	}
	switch task.Status {
	case entity.TaskStatusInProgress:
		return task, nil
	case entity.TaskStatusPending:
		task.Status = entity.TaskStatusInProgress
		task.StartedAt = &now
		task.UpdatedAt = now
		if err := taskRepo.Update(ctx, task); err != nil {
			return nil, err
		}
		return task, nil
	default:
		return nil, domain.ErrInvalidTransition
	}
}
