package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

// InventoryItemRepo adaptador pgx del ledger de reconciliación.
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx.
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

const itemColumns = `
	id, session_id, task_id, asset_id, status,
	scanned_at, scanned_by, identification_method,
	recognition_log_id, ai_confidence, condition_notes,
	created_at, updated_at`

// Create inserta un ítem. El constraint único (session_id, asset_id) se
// traduce a domain.ErrDuplicateItem para que el caso de uso decida.
func (r *InventoryItemRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			id, session_id, task_id, asset_id, status,
			scanned_at, scanned_by, identification_method,
			recognition_log_id, ai_confidence, condition_notes,
			created_at, updated_at
		) VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,NULLIF($7,''),NULLIF($8,''),NULLIF($9,''),$10,$11,$12,$13)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.SessionID, item.TaskID, item.AssetID, item.Status,
		item.ScannedAt, item.ScannedBy, item.IdentificationMethod,
		item.RecognitionLogID, item.AiConfidence, item.ConditionNotes,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateItem
		}
		return fmt.Errorf("crear ítem: %w", err)
	}
	return nil
}

// BulkCreateExpected siembra los ítems esperados de una sesión recién creada.
// Usa CopyFrom: las siembras de sesiones "all" pueden ser de miles de filas.
func (r *InventoryItemRepo) BulkCreateExpected(ctx context.Context, items []*entity.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}
	copier, ok := r.q.(interface {
		CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	})
	if !ok {
		for _, item := range items {
			if err := r.Create(ctx, item); err != nil {
				return err
			}
		}
		return nil
	}
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{
			it.ID, it.SessionID, it.AssetID, it.Status, it.CreatedAt, it.UpdatedAt,
		})
	}
	_, err := copier.CopyFrom(ctx,
		pgx.Identifier{"inventory_items"},
		[]string{"id", "session_id", "asset_id", "status", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("sembrar ítems esperados: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem por id.
func (r *InventoryItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetForUpdate obtiene un ítem bloqueando su fila.
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

// GetBySessionAndAsset obtiene el ítem de un activo dentro de una sesión.
func (r *InventoryItemRepo) GetBySessionAndAsset(ctx context.Context, sessionID, assetID string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE session_id = $1 AND asset_id = $2`
	return r.scanOne(ctx, query, sessionID, assetID)
}

// GetBySessionAndAssetForUpdate igual que GetBySessionAndAsset pero
// bloqueando la fila. Es el lock que serializa escaneos concurrentes
// del mismo activo.
func (r *InventoryItemRepo) GetBySessionAndAssetForUpdate(ctx context.Context, sessionID, assetID string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE session_id = $1 AND asset_id = $2 FOR UPDATE`
	return r.scanOne(ctx, query, sessionID, assetID)
}

// Update persiste el estado completo del ítem.
func (r *InventoryItemRepo) Update(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			task_id = NULLIF($2,''),
			status = $3,
			scanned_at = $4,
			scanned_by = NULLIF($5,''),
			identification_method = NULLIF($6,''),
			recognition_log_id = NULLIF($7,''),
			ai_confidence = $8,
			condition_notes = $9,
			updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		item.ID, item.TaskID, item.Status, item.ScannedAt, item.ScannedBy,
		item.IdentificationMethod, item.RecognitionLogID, item.AiConfidence,
		item.ConditionNotes, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actualizar ítem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByTaskScope lista los ítems del alcance de una tarea. Con locationID
// vacío el alcance es toda la sesión; si no, se filtra por la ubicación
// del activo asociado.
func (r *InventoryItemRepo) ListByTaskScope(ctx context.Context, sessionID, locationID string) ([]*entity.InventoryItem, error) {
	if locationID == "" {
		return r.ListBySession(ctx, sessionID)
	}
	query := `
		SELECT
			i.id, i.session_id, i.task_id, i.asset_id, i.status,
			i.scanned_at, i.scanned_by, i.identification_method,
			i.recognition_log_id, i.ai_confidence, i.condition_notes,
			i.created_at, i.updated_at
		FROM inventory_items i
		JOIN assets a ON a.id = i.asset_id
		WHERE i.session_id = $1 AND a.location_id = $2
		ORDER BY i.created_at`
	return r.scanMany(ctx, query, sessionID, locationID)
}

// ListBySession lista todos los ítems de una sesión.
func (r *InventoryItemRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE session_id = $1 ORDER BY created_at`
	return r.scanMany(ctx, query, sessionID)
}

// Counts cuenta el ledger en una sola pasada. Es la única fuente de los
// contadores de sesión: el agregador nunca incrementa en memoria.
func (r *InventoryItemRepo) Counts(ctx context.Context, sessionID string) (repository.ItemCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE scanned_at IS NOT NULL),
			COUNT(*) FILTER (WHERE status = 'found'),
			COUNT(*) FILTER (WHERE status = 'missing'),
			COUNT(*) FILTER (WHERE status = 'unexpected')
		FROM inventory_items
		WHERE session_id = $1`
	var c repository.ItemCounts
	err := r.q.QueryRow(ctx, query, sessionID).Scan(&c.Scanned, &c.Matched, &c.Missing, &c.Unexpected)
	if err != nil {
		return repository.ItemCounts{}, fmt.Errorf("contar ledger: %w", err)
	}
	return c, nil
}

// BulkMarkMissing transiciona todo expected → missing (cierre de campaña).
func (r *InventoryItemRepo) BulkMarkMissing(ctx context.Context, sessionID string, at time.Time) (int, error) {
	query := `
		UPDATE inventory_items
		SET status = 'missing', updated_at = $2
		WHERE session_id = $1 AND status = 'expected'`
	tag, err := r.q.Exec(ctx, query, sessionID, at)
	if err != nil {
		return 0, fmt.Errorf("marcar faltantes: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ChangedSince informa cambios del alcance de una tarea después de since.
func (r *InventoryItemRepo) ChangedSince(ctx context.Context, sessionID, locationID string, since time.Time) (int, *time.Time, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE i.updated_at > $2), MAX(i.updated_at)
		FROM inventory_items i`
	args := []any{sessionID, since}
	if locationID == "" {
		query += ` WHERE i.session_id = $1`
	} else {
		query += `
		JOIN assets a ON a.id = i.asset_id
		WHERE i.session_id = $1 AND a.location_id = $3`
		args = append(args, locationID)
	}
	var changed int
	var latest *time.Time
	if err := r.q.QueryRow(ctx, query, args...).Scan(&changed, &latest); err != nil {
		return 0, nil, fmt.Errorf("consultar cambios: %w", err)
	}
	return changed, latest, nil
}

func (r *InventoryItemRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.InventoryItem, error) {
	row := r.q.QueryRow(ctx, query, args...)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener ítem: %w", err)
	}
	return item, nil
}

func (r *InventoryItemRepo) scanMany(ctx context.Context, query string, args ...any) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar ítems: %w", err)
	}
	defer rows.Close()

	var items []*entity.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var i entity.InventoryItem
	var taskID, scannedBy, method, logID *string
	err := row.Scan(
		&i.ID, &i.SessionID, &taskID, &i.AssetID, &i.Status,
		&i.ScannedAt, &scannedBy, &method,
		&logID, &i.AiConfidence, &i.ConditionNotes,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if taskID != nil {
		i.TaskID = *taskID
	}
	if scannedBy != nil {
		i.ScannedBy = *scannedBy
	}
	if method != nil {
		i.IdentificationMethod = *method
	}
	if logID != nil {
		i.RecognitionLogID = *logID
	}
	return &i, nil
}
