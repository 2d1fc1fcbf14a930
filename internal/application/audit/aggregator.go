package audit

import (
	"context"
	"fmt"

	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Aggregator recalcula los contadores resumen de una sesión a partir del
// ledger de ítems. Es función pura del ledger e idempotente: puede
// invocarse cualquier número de veces. TotalExpected no se recalcula
// (se fija una sola vez al crear la sesión).
//
// Contrato: se invoca inline después de cada mutación de ítems
// (consistencia read-after-write en el mismo proceso; no hay job de fondo).
type Aggregator struct {
	itemRepo    repository.InventoryItemRepository
	sessionRepo repository.SessionRepository
}

// NewAggregator construye el agregador con los repos dados
// (del pool, o atados a una tx dentro de un TxRunner).
func NewAggregator(itemRepo repository.InventoryItemRepository, sessionRepo repository.SessionRepository) *Aggregator {
	return &Aggregator{itemRepo: itemRepo, sessionRepo: sessionRepo}
}

// Recalculate cuenta el ledger en la base y persiste los contadores.
func (a *Aggregator) Recalculate(ctx context.Context, sessionID string) error {
	counts, err := a.itemRepo.Counts(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("agregador: contar ledger: %w", err)
	}
	c := repository.SessionCounters{
		TotalScanned:    counts.Scanned,
		TotalMatched:    counts.Matched,
		TotalMissing:    counts.Missing,
		TotalUnexpected: counts.Unexpected,
	}
	if err := a.sessionRepo.UpdateCounters(ctx, sessionID, c); err != nil {
		return fmt.Errorf("agregador: persistir contadores: %w", err)
	}
	return nil
}
