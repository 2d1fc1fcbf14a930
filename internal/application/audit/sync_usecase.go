package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Razones de conflicto reportadas al cliente.
const (
	ConflictServerNewer  = "server_newer"   // el servidor tiene un escaneo más reciente de otro actor
	ConflictItemNotFound = "item_not_found" // el ítem referido ya no existe en la sesión
	ConflictBadEvent     = "invalid_event"  // evento sin item_id ni asset_id, o status desconocido
)

// SyncUseCase reconcilia lotes de escaneos capturados sin conexión contra
// el estado actual del servidor. Política: last-writer-wins por timestamp,
// por ítem, con conflictos explícitos en la respuesta (el servidor gana y
// el humano resuelve). No es linealizable y no pretende serlo: re-escanear
// es inofensivo y dos trabajadores rara vez escanean el mismo activo.
type SyncUseCase struct {
	txRunner    TxRunner
	taskRepo    repository.TaskRepository
	sessionRepo repository.SessionRepository
	itemRepo    repository.InventoryItemRepository
}

// NewSyncUseCase construye el caso de uso.
func NewSyncUseCase(
	txRunner TxRunner,
	taskRepo repository.TaskRepository,
	sessionRepo repository.SessionRepository,
	itemRepo repository.InventoryItemRepository,
) *SyncUseCase {
	return &SyncUseCase{
		txRunner:    txRunner,
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
		itemRepo:    itemRepo,
	}
}

// SyncEvent un escaneo capturado offline. ItemID o AssetID, no ambos vacíos:
// AssetID solo cuando el ítem no existía en el cliente al capturar.
type SyncEvent struct {
	ItemID    string
	AssetID   string
	Status    string
	ScannedAt time.Time
	Method    string
	Notes     string
}

// SyncInput lote completo de un cliente.
type SyncInput struct {
	OrganizationID string
	UserID         string
	Role           string
	TaskID         string
	Events         []SyncEvent
	TaskStatus     string // "" = sin señal; in_progress | completed
	TaskNotes      *string
}

// SyncConflict conflicto individual: el servidor ganó y conserva sus valores.
type SyncConflict struct {
	ItemID          string
	AssetID         string
	Reason          string
	ServerStatus    string
	ServerScannedAt *time.Time
	ServerScannedBy string
}

// SyncOutcome resultado del lote.
type SyncOutcome struct {
	Applied   int
	Conflicts []SyncConflict
	Task      *entity.InventoryTask
	Items     []*entity.InventoryItem
	SyncedAt  time.Time
}

// Sync aplica el lote en una única transacción: transición de tarea (vía la
// máquina de estados, nunca directa), eventos uno a uno y una sola
// reagregación al final. Devuelve los ítems vigentes del alcance de la
// tarea para que el cliente repare su caché local.
func (uc *SyncUseCase) Sync(ctx context.Context, in SyncInput) (*SyncOutcome, error) {
	task, session, err := loadTaskSession(ctx, uc.taskRepo, uc.sessionRepo, in.TaskID, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !canOperateTask(task, in.UserID, in.Role) {
		return nil, domain.ErrForbidden
	}
	if session.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	out := &SyncOutcome{SyncedAt: now, Conflicts: []SyncConflict{}}

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
		if t.Status == entity.TaskStatusCancelled {
			return domain.ErrInvalidTransition
		}

		// Señal de estado del cliente, ruteada por la máquina de estados.
		if err := applyTaskSignal(t, in.TaskStatus, now); err != nil {
			return err
		}
		if in.TaskNotes != nil {
			t.Notes = *in.TaskNotes
			t.UpdatedAt = now
		}
		if err := taskRepo.Update(ctx, t); err != nil {
			return err
		}
		out.Task = t

		for _, ev := range in.Events {
			conflict, applied, err := uc.applyEvent(ctx, itemRepo, session, t, in.UserID, ev, now)
			if err != nil {
				return err
			}
			if conflict != nil {
				out.Conflicts = append(out.Conflicts, *conflict)
			}
			if applied {
				out.Applied++
			}
		}

		// El agregador corre exactamente una vez por lote.
		return NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}

	items, err := uc.itemRepo.ListByTaskScope(ctx, session.ID, out.Task.LocationID)
	if err != nil {
		return nil, err
	}
	out.Items = items
	return out, nil
}

// applyEvent procesa un evento. Devuelve (conflicto, aplicado, error).
func (uc *SyncUseCase) applyEvent(
	ctx context.Context,
	itemRepo repository.InventoryItemRepository,
	session *entity.InventorySession,
	task *entity.InventoryTask,
	userID string,
	ev SyncEvent,
	now time.Time,
) (*SyncConflict, bool, error) {
	switch ev.Status {
	case entity.ItemStatusFound, entity.ItemStatusMissing, entity.ItemStatusUnexpected:
	default:
		return &SyncConflict{ItemID: ev.ItemID, AssetID: ev.AssetID, Reason: ConflictBadEvent}, false, nil
	}

	if ev.ItemID != "" {
		item, err := itemRepo.GetForUpdate(ctx, ev.ItemID)
		if err != nil {
			return nil, false, err
		}
		if item == nil || item.SessionID != session.ID {
			return &SyncConflict{ItemID: ev.ItemID, Reason: ConflictItemNotFound}, false, nil
		}
		// Last-writer-wins: el servidor gana solo si ya tiene un escaneo de
		// OTRO actor y ese escaneo es más reciente que el del evento.
		if item.ScannedAt != nil && item.ScannedBy != userID && item.ScannedAt.After(ev.ScannedAt) {
			return &SyncConflict{
				ItemID:          item.ID,
				AssetID:         item.AssetID,
				Reason:          ConflictServerNewer,
				ServerStatus:    item.Status,
				ServerScannedAt: item.ScannedAt,
				ServerScannedBy: item.ScannedBy,
			}, false, nil
		}
		scannedAt := ev.ScannedAt
		item.Status = ev.Status
		item.ScannedAt = &scannedAt
		item.ScannedBy = userID
		item.TaskID = task.ID
		if ev.Method != "" {
			item.IdentificationMethod = ev.Method
		} else if item.IdentificationMethod == "" {
			item.IdentificationMethod = entity.MethodBarcode
		}
		if ev.Notes != "" {
			item.ConditionNotes = ev.Notes
		}
		item.UpdatedAt = now
		if err := itemRepo.Update(ctx, item); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	if ev.AssetID != "" {
		existing, err := itemRepo.GetBySessionAndAssetForUpdate(ctx, session.ID, ev.AssetID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			// Re-sync idempotente: el ítem apareció entre captura y replay.
			return nil, false, nil
		}
		scannedAt := ev.ScannedAt
		method := ev.Method
		if method == "" {
			method = entity.MethodBarcode
		}
		item := &entity.InventoryItem{
			ID:                   uuid.New().String(),
			SessionID:            session.ID,
			TaskID:               task.ID,
			AssetID:              ev.AssetID,
			Status:               entity.ItemStatusUnexpected,
			ScannedAt:            &scannedAt,
			ScannedBy:            userID,
			IdentificationMethod: method,
			ConditionNotes:       ev.Notes,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := itemRepo.Create(ctx, item); err != nil {
			if err == domain.ErrDuplicateItem {
				// Carrera con otro lote: el constraint decidió; skip silencioso.
				return nil, false, nil
			}
			return nil, false, err
		}
		return nil, true, nil
	}

	return &SyncConflict{Reason: ConflictBadEvent}, false, nil
}

// SyncStatus informa si hay cambios del lado servidor desde un timestamp,
// para que el cliente decida si descargar de nuevo el bundle.
func (uc *SyncUseCase) SyncStatus(ctx context.Context, in SyncInput, since time.Time) (int, *time.Time, error) {
	task, session, err := loadTaskSession(ctx, uc.taskRepo, uc.sessionRepo, in.TaskID, in.OrganizationID)
	if err != nil {
		return 0, nil, err
	}
	if !canOperateTask(task, in.UserID, in.Role) {
		return 0, nil, domain.ErrForbidden
	}
	return uc.itemRepo.ChangedSince(ctx, session.ID, task.LocationID, since)
}

// applyTaskSignal rutea la señal de estado del lote por las mismas guardas
// que Start/Complete. Señal igual al estado actual = idempotente.
func applyTaskSignal(t *entity.InventoryTask, desired string, now time.Time) error {
	if desired == "" || desired == t.Status {
		return nil
	}
	switch desired {
	case entity.TaskStatusInProgress:
		if !t.CanStart() {
			return domain.ErrInvalidTransition
		}
		t.Status = entity.TaskStatusInProgress
		t.StartedAt = &now
		t.UpdatedAt = now
	case entity.TaskStatusCompleted:
		if t.Status == entity.TaskStatusPending {
			// El cliente trabajó y cerró offline sin haber sincronizado el
			// start: pasar por ambas transiciones, no saltarse la máquina.
			t.StartedAt = &now
		} else if !t.CanComplete() {
			return domain.ErrInvalidTransition
		}
		t.Status = entity.TaskStatusCompleted
		t.CompletedAt = &now
		t.UpdatedAt = now
	default:
		return domain.ErrInvalidTransition
	}
	return nil
}
