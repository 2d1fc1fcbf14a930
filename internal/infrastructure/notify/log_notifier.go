// Package notify implementa el colaborador de notificaciones. El envío real
// (email, push) vive en un servicio externo; este adaptador registra el
// evento estructurado que ese servicio consume desde el stream de logs.
package notify

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

var _ audit.Notifier = (*LogNotifier)(nil)

// LogNotifier notifica eventos de auditoría vía log estructurado.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// TaskCompleted registra la finalización de una tarea para el creador de la
// sesión. El caller ya filtró el caso actor == creador.
func (n *LogNotifier) TaskCompleted(_ context.Context, task *entity.InventoryTask, session *entity.InventorySession, actorID string) error {
	n.log.Info().
		Str("event", "task_completed").
		Str("task_id", task.ID).
		Str("session_id", session.ID).
		Str("session_name", session.Name).
		Str("recipient_id", session.CreatedBy).
		Str("actor_id", actorID).
		Msg("tarea de inventario completada")
	return nil
}
