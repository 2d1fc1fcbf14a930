package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.TaskRepository = (*TaskRepo)(nil)

// TaskRepo adaptador pgx de tareas de escaneo.
type TaskRepo struct {
	q Querier
}

// NewTaskRepository construye el adaptador. Pasar pool o tx.
func NewTaskRepository(q Querier) *TaskRepo {
	return &TaskRepo{q: q}
}

const taskColumns = `
	id, session_id, assignee_kind, assignee_id, location_id,
	status, notes, started_at, completed_at, created_at, updated_at`

// Create inserta una tarea.
func (r *TaskRepo) Create(ctx context.Context, task *entity.InventoryTask) error {
	query := `
		INSERT INTO inventory_tasks (
			id, session_id, assignee_kind, assignee_id, location_id,
			status, notes, started_at, completed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8,$9,$10,$11)`
	_, err := r.q.Exec(ctx, query,
		task.ID, task.SessionID, task.Assignee.Kind, task.Assignee.ID, task.LocationID,
		task.Status, task.Notes, task.StartedAt, task.CompletedAt,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("crear tarea: %w", err)
	}
	return nil
}

// GetByID obtiene una tarea por id.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*entity.InventoryTask, error) {
	query := `SELECT ` + taskColumns + ` FROM inventory_tasks WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetForUpdate obtiene una tarea bloqueando su fila. Serializa las
// transiciones de estado frente a requests concurrentes.
func (r *TaskRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryTask, error) {
	query := `SELECT ` + taskColumns + ` FROM inventory_tasks WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

// Update persiste status, notas y timestamps de la tarea.
func (r *TaskRepo) Update(ctx context.Context, task *entity.InventoryTask) error {
	query := `
		UPDATE inventory_tasks SET
			status = $2, notes = $3, started_at = $4, completed_at = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		task.ID, task.Status, task.Notes, task.StartedAt, task.CompletedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actualizar tarea: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListForUser lista tareas visibles para el usuario: asignadas a él, a su
// departamento o a una ubicación (colectivas). Se ordena por urgencia:
// in_progress primero, luego pending, al final las terminadas.
func (r *TaskRepo) ListForUser(ctx context.Context, organizationID, userID, statusFilter string, limit, offset int) ([]repository.TaskSummary, error) {
	query := `
		SELECT
			t.id, t.session_id, t.assignee_kind, t.assignee_id, t.location_id,
			t.status, t.notes, t.started_at, t.completed_at, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM inventory_items i
			  LEFT JOIN assets a ON a.id = i.asset_id
			  WHERE i.session_id = t.session_id
			    AND (t.location_id IS NULL OR a.location_id = t.location_id)
			    AND i.status <> 'unexpected') AS expected,
			(SELECT COUNT(*) FROM inventory_items i
			  LEFT JOIN assets a ON a.id = i.asset_id
			  WHERE i.session_id = t.session_id
			    AND (t.location_id IS NULL OR a.location_id = t.location_id)
			    AND i.scanned_at IS NOT NULL) AS scanned
		FROM inventory_tasks t
		JOIN inventory_sessions s ON s.id = t.session_id
		JOIN users u ON u.id = $2
		WHERE s.organization_id = $1
		  AND (
			(t.assignee_kind = 'user' AND t.assignee_id = $2)
			OR (t.assignee_kind = 'department' AND t.assignee_id = u.department_id)
			OR t.assignee_kind = 'location'
		  )
		  AND ($3 = '' OR t.status = $3)
		ORDER BY CASE t.status
			WHEN 'in_progress' THEN 0
			WHEN 'pending' THEN 1
			ELSE 2
		END, t.created_at
		LIMIT $4 OFFSET $5`

	rows, err := r.q.Query(ctx, query, organizationID, userID, statusFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar tareas: %w", err)
	}
	defer rows.Close()

	var summaries []repository.TaskSummary
	for rows.Next() {
		var t entity.InventoryTask
		var locationID *string
		var s repository.TaskSummary
		if err := rows.Scan(
			&t.ID, &t.SessionID, &t.Assignee.Kind, &t.Assignee.ID, &locationID,
			&t.Status, &t.Notes, &t.StartedAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
			&s.Expected, &s.Scanned,
		); err != nil {
			return nil, err
		}
		if locationID != nil {
			t.LocationID = *locationID
		}
		s.Task = &t
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *TaskRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.InventoryTask, error) {
	var t entity.InventoryTask
	var locationID *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.SessionID, &t.Assignee.Kind, &t.Assignee.ID, &locationID,
		&t.Status, &t.Notes, &t.StartedAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener tarea: %w", err)
	}
	if locationID != nil {
		t.LocationID = *locationID
	}
	return &t, nil
}
