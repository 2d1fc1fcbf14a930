package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.AssetRepository = (*AssetRepo)(nil)

// AssetRepo adaptador de solo lectura del directorio de activos.
type AssetRepo struct {
	q Querier
}

// NewAssetRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssetRepository(q Querier) *AssetRepo {
	return &AssetRepo{q: q}
}

const assetColumns = `
	a.id, a.organization_id, a.code, a.barcode, a.name,
	a.category_id, a.location_id, a.department_id, a.status,
	a.created_at, a.updated_at`

// GetByID obtiene un activo con sus tags.
func (r *AssetRepo) GetByID(ctx context.Context, id string) (*entity.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets a WHERE a.id = $1`
	asset, err := r.scanOne(ctx, query, id)
	if err != nil || asset == nil {
		return asset, err
	}
	if err := r.loadTags(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// ResolveCode busca un código contra barcode, code y valores de tags dentro
// de la organización. El ORDER BY fija el desempate barcode > code > tag;
// la unicidad por organización de barcode y code la garantiza el esquema.
func (r *AssetRepo) ResolveCode(ctx context.Context, organizationID, code string) (*entity.Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets a
		WHERE a.organization_id = $1
		  AND (a.barcode = $2 OR a.code = $2
		       OR EXISTS (SELECT 1 FROM asset_tags t WHERE t.asset_id = a.id AND t.value = $2))
		ORDER BY (a.barcode = $2) DESC, (a.code = $2) DESC
		LIMIT 1`
	asset, err := r.scanOne(ctx, query, organizationID, code)
	if err != nil || asset == nil {
		return asset, err
	}
	if err := r.loadTags(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// ListByScope devuelve los activos del alcance de una sesión.
func (r *AssetRepo) ListByScope(ctx context.Context, organizationID, scopeType string, scopeIDs []string) ([]*entity.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets a WHERE a.organization_id = $1`
	args := []any{organizationID}
	switch scopeType {
	case entity.SessionScopeAll:
		// sin filtro adicional
	case entity.SessionScopeLocation:
		query += ` AND a.location_id = ANY($2)`
		args = append(args, scopeIDs)
	case entity.SessionScopeCategory:
		query += ` AND a.category_id = ANY($2)`
		args = append(args, scopeIDs)
	case entity.SessionScopeDepartment:
		query += ` AND a.department_id = ANY($2)`
		args = append(args, scopeIDs)
	default:
		return nil, fmt.Errorf("scope desconocido: %s", scopeType)
	}
	query += ` ORDER BY a.code`
	return r.scanMany(ctx, query, args...)
}

// ListByIDs carga activos por id, con tags (detalle del bundle offline).
func (r *AssetRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Asset, error) {
	if len(ids) == 0 {
		return []*entity.Asset{}, nil
	}
	query := `SELECT ` + assetColumns + ` FROM assets a WHERE a.id = ANY($1) ORDER BY a.code`
	assets, err := r.scanMany(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if err := r.loadTags(ctx, a); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// BarcodeIndex devuelve el índice código→activo de toda la organización.
func (r *AssetRepo) BarcodeIndex(ctx context.Context, organizationID string) ([]repository.BarcodeRef, error) {
	query := `SELECT id, code, barcode FROM assets WHERE organization_id = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("barcode index: %w", err)
	}
	defer rows.Close()

	var refs []repository.BarcodeRef
	for rows.Next() {
		var ref repository.BarcodeRef
		if err := rows.Scan(&ref.AssetID, &ref.Code, &ref.Barcode); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *AssetRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Asset, error) {
	var a entity.Asset
	var categoryID, locationID, departmentID *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.OrganizationID, &a.Code, &a.Barcode, &a.Name,
		&categoryID, &locationID, &departmentID, &a.Status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	assignOptional(&a, categoryID, locationID, departmentID)
	return &a, nil
}

func (r *AssetRepo) scanMany(ctx context.Context, query string, args ...any) ([]*entity.Asset, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*entity.Asset
	for rows.Next() {
		var a entity.Asset
		var categoryID, locationID, departmentID *string
		if err := rows.Scan(
			&a.ID, &a.OrganizationID, &a.Code, &a.Barcode, &a.Name,
			&categoryID, &locationID, &departmentID, &a.Status,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		assignOptional(&a, categoryID, locationID, departmentID)
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *AssetRepo) loadTags(ctx context.Context, asset *entity.Asset) error {
	rows, err := r.q.Query(ctx, `SELECT asset_id, key, value FROM asset_tags WHERE asset_id = $1`, asset.ID)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t entity.AssetTag
		if err := rows.Scan(&t.AssetID, &t.Key, &t.Value); err != nil {
			return err
		}
		asset.Tags = append(asset.Tags, t)
	}
	return rows.Err()
}

func assignOptional(a *entity.Asset, categoryID, locationID, departmentID *string) {
	if categoryID != nil {
		a.CategoryID = *categoryID
	}
	if locationID != nil {
		a.LocationID = *locationID
	}
	if departmentID != nil {
		a.DepartmentID = *departmentID
	}
}
