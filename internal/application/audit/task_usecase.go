package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TaskUseCase máquina de estados de tareas de escaneo:
// pending → in_progress → completed; cancelled terminal desde
// pending/in_progress. Las transiciones corren con bloqueo de fila para
// que dos requests simultáneos no completen la misma tarea dos veces.
type TaskUseCase struct {
	txRunner    TxRunner
	taskRepo    repository.TaskRepository
	sessionRepo repository.SessionRepository
	itemRepo    repository.InventoryItemRepository
	assetRepo   repository.AssetRepository
	resolver    repository.AssigneeResolver
	notifier    Notifier
}

// NewTaskUseCase construye el caso de uso.
func NewTaskUseCase(
	txRunner TxRunner,
	taskRepo repository.TaskRepository,
	sessionRepo repository.SessionRepository,
	itemRepo repository.InventoryItemRepository,
	assetRepo repository.AssetRepository,
	resolver repository.AssigneeResolver,
	notifier Notifier,
) *TaskUseCase {
	return &TaskUseCase{
		txRunner:    txRunner,
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
		itemRepo:    itemRepo,
		assetRepo:   assetRepo,
		resolver:    resolver,
		notifier:    notifier,
	}
}

// TaskActionInput identifica la tarea y el actor de una transición.
type TaskActionInput struct {
	OrganizationID string
	UserID         string
	Role           string
	TaskID         string
}

// Start transiciona pending → in_progress. Cualquier otro estado origen
// devuelve ErrInvalidTransition sin tocar datos.
func (uc *TaskUseCase) Start(ctx context.Context, in TaskActionInput) (*entity.InventoryTask, error) {
	task, _, err := uc.authorize(ctx, in)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	err = uc.txRunner.Run(ctx, func(
		_ repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		_ repository.SessionRepository,
	) error {
		t, err := taskRepo.GetForUpdate(ctx, in.TaskID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !t.CanStart() {
			return domain.ErrInvalidTransition
		}
		t.Status = entity.TaskStatusInProgress
		t.StartedAt = &now
		t.UpdatedAt = now
		task = t
		return taskRepo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Complete transiciona in_progress → completed: estampa completed_at,
// reagrega la sesión una sola vez y notifica al creador (salvo que el
// actor sea el mismo creador). No transiciona ítems expected a missing:
// esa detección ocurre al completar la sesión (SessionUseCase.Complete).
func (uc *TaskUseCase) Complete(ctx context.Context, in TaskActionInput) (*entity.InventoryTask, error) {
	task, session, err := uc.authorize(ctx, in)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error {
		t, err := taskRepo.GetForUpdate(ctx, in.TaskID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !t.CanComplete() {
			return domain.ErrInvalidTransition
		}
		t.Status = entity.TaskStatusCompleted
		t.CompletedAt = &now
		t.UpdatedAt = now
		task = t
		if err := taskRepo.Update(ctx, t); err != nil {
			return err
		}
		return NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}
	if in.UserID != session.CreatedBy {
		// La notificación es colaborador externo: su fallo no revierte la
		// transición ya confirmada.
		_ = uc.notifier.TaskCompleted(ctx, task, session, in.UserID)
	}
	return task, nil
}

// Cancel transiciona pending|in_progress → cancelled (terminal).
func (uc *TaskUseCase) Cancel(ctx context.Context, in TaskActionInput) (*entity.InventoryTask, error) {
	task, _, err := uc.authorize(ctx, in)
	if err != nil {
		return nil, err
	}
	if !entity.RoleAtLeastManager(in.Role) {
		return nil, domain.ErrForbidden
	}
	now := time.Now()
	err = uc.txRunner.Run(ctx, func(
		_ repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		_ repository.SessionRepository,
	) error {
		t, err := taskRepo.GetForUpdate(ctx, in.TaskID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !t.CanCancel() {
			return domain.ErrInvalidTransition
		}
		t.Status = entity.TaskStatusCancelled
		t.UpdatedAt = now
		task = t
		return taskRepo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List devuelve las tareas del caller con contadores de su alcance,
// ordenadas in_progress < pending < completed.
func (uc *TaskUseCase) List(ctx context.Context, organizationID, userID, statusFilter string, limit, offset int) ([]repository.TaskSummary, error) {
	return uc.taskRepo.ListForUser(ctx, organizationID, userID, statusFilter, limit, offset)
}

// Get carga una tarea autorizando al caller.
func (uc *TaskUseCase) Get(ctx context.Context, in TaskActionInput) (*entity.InventoryTask, *entity.InventorySession, error) {
	task, session, err := uc.authorize(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return task, session, nil
}

// AssigneeName resuelve el nombre visible del asignatario de una tarea.
func (uc *TaskUseCase) AssigneeName(ctx context.Context, ref entity.AssigneeRef) (string, error) {
	return uc.resolver.DisplayName(ctx, ref.Kind, ref.ID)
}

// TaskBundle datos completos para trabajar una tarea sin conexión.
type TaskBundle struct {
	Task             *entity.InventoryTask
	Session          *entity.InventorySession
	Items            []*entity.InventoryItem
	Assets           []*entity.Asset
	AllAssetBarcodes []repository.BarcodeRef
}

// Download arma el bundle offline: la tarea, su sesión, los ítems de su
// alcance, el detalle de los activos involucrados y el índice de códigos
// de toda la organización (para resolver unexpected sin red).
func (uc *TaskUseCase) Download(ctx context.Context, in TaskActionInput) (*TaskBundle, error) {
	task, session, err := uc.authorize(ctx, in)
	if err != nil {
		return nil, err
	}
	items, err := uc.itemRepo.ListByTaskScope(ctx, session.ID, task.LocationID)
	if err != nil {
		return nil, fmt.Errorf("bundle: listar ítems: %w", err)
	}
	assetIDs := make([]string, 0, len(items))
	for _, it := range items {
		assetIDs = append(assetIDs, it.AssetID)
	}
	assets, err := uc.assetRepo.ListByIDs(ctx, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("bundle: cargar activos: %w", err)
	}
	index, err := uc.assetRepo.BarcodeIndex(ctx, session.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("bundle: índice de códigos: %w", err)
	}
	return &TaskBundle{
		Task:             task,
		Session:          session,
		Items:            items,
		Assets:           assets,
		AllAssetBarcodes: index,
	}, nil
}

func (uc *TaskUseCase) authorize(ctx context.Context, in TaskActionInput) (*entity.InventoryTask, *entity.InventorySession, error) {
	task, session, err := loadTaskSession(ctx, uc.taskRepo, uc.sessionRepo, in.TaskID, in.OrganizationID)
	if err != nil {
		return nil, nil, err
	}
	if !canOperateTask(task, in.UserID, in.Role) {
		return nil, nil, domain.ErrForbidden
	}
	return task, session, nil
}
