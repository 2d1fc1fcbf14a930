package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Ensure TxRunner implements audit.TxRunner.
var _ audit.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	taskRepo repository.TaskRepository,
	sessionRepo repository.SessionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemRepo := NewInventoryItemRepository(tx)
	taskRepo := NewTaskRepository(tx)
	sessionRepo := NewSessionRepository(tx)

	if err := fn(itemRepo, taskRepo, sessionRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunVision inicia una transacción que además incluye el repo de logs de
// reconocimiento (confirmación humana de sugerencias IA).
func (r *TxRunner) RunVision(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	taskRepo repository.TaskRepository,
	sessionRepo repository.SessionRepository,
	logRepo repository.RecognitionLogRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemRepo := NewInventoryItemRepository(tx)
	taskRepo := NewTaskRepository(tx)
	sessionRepo := NewSessionRepository(tx)
	logRepo := NewRecognitionLogRepository(tx)

	if err := fn(itemRepo, taskRepo, sessionRepo, logRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
