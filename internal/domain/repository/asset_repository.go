package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// BarcodeRef entrada del índice de códigos de una organización, para el
// bundle offline (el cliente resuelve escaneos sin red).
type BarcodeRef struct {
	AssetID string
	Code    string
	Barcode string
}

// AssetRepository puerto de solo lectura sobre el directorio de activos.
// La escritura pertenece a la administración de activos (fuera del core);
// allí se garantiza la unicidad por organización de barcode y code.
type AssetRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Asset, error)
	// ResolveCode busca el código contra barcode, luego code y luego los
	// valores de tags, siempre dentro de la organización. nil si no hay match.
	ResolveCode(ctx context.Context, organizationID, code string) (*entity.Asset, error)
	// ListByScope devuelve los activos del alcance de una sesión
	// (all | location | category | department con sus ids).
	ListByScope(ctx context.Context, organizationID, scopeType string, scopeIDs []string) ([]*entity.Asset, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Asset, error)
	// BarcodeIndex devuelve el índice código→activo de toda la organización.
	BarcodeIndex(ctx context.Context, organizationID string) ([]BarcodeRef, error)
}
