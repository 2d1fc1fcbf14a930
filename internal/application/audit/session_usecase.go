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

// SessionUseCase ciclo de vida de campañas de auditoría:
// draft → in_progress → completed; cancelled desde draft/in_progress.
// La creación resuelve el alcance y siembra el ledger de esperados;
// la finalización transiciona los expected restantes a missing.
type SessionUseCase struct {
	txRunner    TxRunner
	sessionRepo repository.SessionRepository
	taskRepo    repository.TaskRepository
	itemRepo    repository.InventoryItemRepository
	assetRepo   repository.AssetRepository
	reports     ReportGenerator
}

// NewSessionUseCase construye el caso de uso.
func NewSessionUseCase(
	txRunner TxRunner,
	sessionRepo repository.SessionRepository,
	taskRepo repository.TaskRepository,
	itemRepo repository.InventoryItemRepository,
	assetRepo repository.AssetRepository,
	reports ReportGenerator,
) *SessionUseCase {
	return &SessionUseCase{
		txRunner:    txRunner,
		sessionRepo: sessionRepo,
		taskRepo:    taskRepo,
		itemRepo:    itemRepo,
		assetRepo:   assetRepo,
		reports:     reports,
	}
}

// TaskSpec tarea a crear junto con la sesión.
type TaskSpec struct {
	AssigneeKind string
	AssigneeID   string
	LocationID   string
}

// CreateSessionInput alta de una campaña. Solo manager o superior.
type CreateSessionInput struct {
	OrganizationID string
	UserID         string
	Role           string
	Name           string
	ScopeType      string
	ScopeIDs       []string
	Tasks          []TaskSpec
}

// Create resuelve el alcance contra el directorio de activos, crea la
// sesión en draft con TotalExpected fijado una única vez, siembra un ítem
// expected por activo y da de alta las tareas en pending.
func (uc *SessionUseCase) Create(ctx context.Context, in CreateSessionInput) (*entity.InventorySession, error) {
	if !entity.RoleAtLeastManager(in.Role) {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" || in.ScopeType == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.ScopeType != entity.SessionScopeAll && len(in.ScopeIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}

	assets, err := uc.assetRepo.ListByScope(ctx, in.OrganizationID, in.ScopeType, in.ScopeIDs)
	if err != nil {
		return nil, fmt.Errorf("resolver alcance: %w", err)
	}

	now := time.Now()
	session := &entity.InventorySession{
		ID:             uuid.New().String(),
		OrganizationID: in.OrganizationID,
		Name:           in.Name,
		Status:         entity.SessionStatusDraft,
		ScopeType:      in.ScopeType,
		ScopeIDs:       in.ScopeIDs,
		TotalExpected:  len(assets),
		CreatedBy:      in.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	items := make([]*entity.InventoryItem, 0, len(assets))
	for _, a := range assets {
		items = append(items, &entity.InventoryItem{
			ID:        uuid.New().String(),
			SessionID: session.ID,
			AssetID:   a.ID,
			Status:    entity.ItemStatusExpected,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error {
		if err := sessionRepo.Create(ctx, session); err != nil {
			return err
		}
		if err := itemRepo.BulkCreateExpected(ctx, items); err != nil {
			return err
		}
		for _, spec := range in.Tasks {
			task := &entity.InventoryTask{
				ID:        uuid.New().String(),
				SessionID: session.ID,
				Assignee:  entity.AssigneeRef{Kind: spec.AssigneeKind, ID: spec.AssigneeID},
				LocationID: spec.LocationID,
				Status:    entity.TaskStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := taskRepo.Create(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SessionActionInput identifica sesión y actor de una transición.
type SessionActionInput struct {
	OrganizationID string
	UserID         string
	Role           string
	SessionID      string
}

// Get carga una sesión con scoping por organización.
func (uc *SessionUseCase) Get(ctx context.Context, in SessionActionInput) (*entity.InventorySession, error) {
	return uc.load(ctx, in)
}

// List devuelve las sesiones de la organización, más recientes primero.
// Solo manager o superior: los trabajadores ven sus tareas, no campañas.
func (uc *SessionUseCase) List(ctx context.Context, organizationID, role string, limit, offset int) ([]*entity.InventorySession, error) {
	if !entity.RoleAtLeastManager(role) {
		return nil, domain.ErrForbidden
	}
	return uc.sessionRepo.ListByOrganization(ctx, organizationID, limit, offset)
}

// Activate transiciona draft → in_progress.
func (uc *SessionUseCase) Activate(ctx context.Context, in SessionActionInput) (*entity.InventorySession, error) {
	if !entity.RoleAtLeastManager(in.Role) {
		return nil, domain.ErrForbidden
	}
	session, err := uc.load(ctx, in)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusDraft {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	session.Status = entity.SessionStatusInProgress
	session.StartedAt = &now
	session.UpdatedAt = now
	if err := uc.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete cierra la campaña: in_progress → completed, transiciona en bloque
// los expected restantes a missing y reagrega. La detección de faltantes
// ocurre aquí (cierre deliberado de campaña) y no al completar cada tarea.
func (uc *SessionUseCase) Complete(ctx context.Context, in SessionActionInput) (*entity.InventorySession, error) {
	if !entity.RoleAtLeastManager(in.Role) {
		return nil, domain.ErrForbidden
	}
	session, err := uc.load(ctx, in)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusInProgress {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		_ repository.TaskRepository,
		sessionRepo repository.SessionRepository,
	) error {
		if _, err := itemRepo.BulkMarkMissing(ctx, session.ID, now); err != nil {
			return err
		}
		session.Status = entity.SessionStatusCompleted
		session.CompletedAt = &now
		session.UpdatedAt = now
		if err := sessionRepo.Update(ctx, session); err != nil {
			return err
		}
		return NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}
	// Refrescar contadores calculados dentro de la tx.
	return uc.sessionRepo.GetByID(ctx, session.ID)
}

// Cancel transiciona draft|in_progress → cancelled (terminal).
func (uc *SessionUseCase) Cancel(ctx context.Context, in SessionActionInput) (*entity.InventorySession, error) {
	if !entity.RoleAtLeastManager(in.Role) {
		return nil, domain.ErrForbidden
	}
	session, err := uc.load(ctx, in)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	session.Status = entity.SessionStatusCancelled
	session.UpdatedAt = now
	if err := uc.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Report genera el informe PDF de la sesión (resumen + discrepancias).
func (uc *SessionUseCase) Report(ctx context.Context, in SessionActionInput) ([]byte, error) {
	if !entity.RoleAtLeastManager(in.Role) {
		return nil, domain.ErrForbidden
	}
	session, err := uc.load(ctx, in)
	if err != nil {
		return nil, err
	}
	items, err := uc.itemRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.AssetID)
	}
	assets, err := uc.assetRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	return uc.reports.GenerateSessionReport(ctx, session, items, byID)
}

func (uc *SessionUseCase) load(ctx context.Context, in SessionActionInput) (*entity.InventorySession, error) {
	session, err := uc.sessionRepo.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.OrganizationID != in.OrganizationID {
		return nil, domain.ErrNotFound
	}
	return session, nil
}
