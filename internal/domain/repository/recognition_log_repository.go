package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// RecognitionLogRepository puerto para los registros de llamadas de visión IA.
// Append-only: Create una vez, RecordDecision una única vez.
type RecognitionLogRepository interface {
	Create(ctx context.Context, log *entity.AiRecognitionLog) error
	GetByID(ctx context.Context, id string) (*entity.AiRecognitionLog, error)
	// RecordDecision registra la decisión humana si aún no existe.
	// Devuelve domain.ErrDecisionRecorded si ya había una.
	RecordDecision(ctx context.Context, id, decision, userID string, at time.Time) error
	// CountSince cuenta llamadas de la organización desde una fecha
	// (control de cuota mensual del plan).
	CountSince(ctx context.Context, organizationID string, since time.Time) (int, error)
}
