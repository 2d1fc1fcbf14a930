package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// ItemCounts conteos directos del ledger de una sesión.
type ItemCounts struct {
	Scanned    int // scanned_at no nulo
	Matched    int // status = found
	Missing    int // status = missing
	Unexpected int // status = unexpected
}

// InventoryItemRepository puerto de persistencia del ledger de reconciliación.
type InventoryItemRepository interface {
	// Create inserta un ítem. Si ya existe uno para (session, asset) devuelve
	// domain.ErrDuplicateItem (mapeo del constraint único 23505).
	Create(ctx context.Context, item *entity.InventoryItem) error
	// BulkCreateExpected siembra los ítems esperados al crear la sesión.
	BulkCreateExpected(ctx context.Context, items []*entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila del ítem (SELECT FOR UPDATE) para que el
	// read-modify-write del estado sea atómico frente a escritores concurrentes.
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	GetBySessionAndAsset(ctx context.Context, sessionID, assetID string) (*entity.InventoryItem, error)
	GetBySessionAndAssetForUpdate(ctx context.Context, sessionID, assetID string) (*entity.InventoryItem, error)
	Update(ctx context.Context, item *entity.InventoryItem) error
	// ListByTaskScope devuelve los ítems del alcance de una tarea: los de la
	// ubicación de la tarea, o toda la sesión si la tarea no tiene ubicación.
	ListByTaskScope(ctx context.Context, sessionID, locationID string) ([]*entity.InventoryItem, error)
	ListBySession(ctx context.Context, sessionID string) ([]*entity.InventoryItem, error)
	// Counts cuenta el ledger directamente en la base (fuente del agregador).
	Counts(ctx context.Context, sessionID string) (ItemCounts, error)
	// BulkMarkMissing transiciona expected → missing en toda la sesión
	// (finalización de campaña). Devuelve cuántos ítems cambió.
	BulkMarkMissing(ctx context.Context, sessionID string, at time.Time) (int, error)
	// ChangedSince informa cuántos ítems del alcance cambiaron después de since
	// y el updated_at más reciente (polling de sync-status).
	ChangedSince(ctx context.Context, sessionID, locationID string, since time.Time) (int, *time.Time, error)
}
