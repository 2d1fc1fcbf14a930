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

var _ repository.RecognitionLogRepository = (*RecognitionLogRepo)(nil)

// RecognitionLogRepo adaptador pgx del log de llamadas de visión IA.
type RecognitionLogRepo struct {
	q Querier
}

// NewRecognitionLogRepository construye el adaptador. Pasar pool o tx.
func NewRecognitionLogRepository(q Querier) *RecognitionLogRepo {
	return &RecognitionLogRepo{q: q}
}

// Create inserta un registro de llamada IA.
func (r *RecognitionLogRepo) Create(ctx context.Context, log *entity.AiRecognitionLog) error {
	query := `
		INSERT INTO ai_recognition_logs (
			id, organization_id, session_id, task_id, use_case, provider,
			raw_response, candidate_ids, confidence, reasoning,
			decision, decided_by, decided_at, latency_ms, cost_usd, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,''),NULLIF($12,''),$13,$14,$15,$16)`
	_, err := r.q.Exec(ctx, query,
		log.ID, log.OrganizationID, log.SessionID, log.TaskID, log.UseCase, log.Provider,
		log.RawResponse, log.CandidateIDs, log.Confidence, log.Reasoning,
		log.Decision, log.DecidedBy, log.DecidedAt, log.LatencyMs, log.CostUSD, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("crear log de reconocimiento: %w", err)
	}
	return nil
}

// GetByID obtiene un registro por id.
func (r *RecognitionLogRepo) GetByID(ctx context.Context, id string) (*entity.AiRecognitionLog, error) {
	query := `
		SELECT id, organization_id, session_id, task_id, use_case, provider,
		       raw_response, candidate_ids, confidence, reasoning,
		       decision, decided_by, decided_at, latency_ms, cost_usd, created_at
		FROM ai_recognition_logs
		WHERE id = $1`
	var l entity.AiRecognitionLog
	var decision, decidedBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.OrganizationID, &l.SessionID, &l.TaskID, &l.UseCase, &l.Provider,
		&l.RawResponse, &l.CandidateIDs, &l.Confidence, &l.Reasoning,
		&decision, &decidedBy, &l.DecidedAt, &l.LatencyMs, &l.CostUSD, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener log de reconocimiento: %w", err)
	}
	if decision != nil {
		l.Decision = *decision
	}
	if decidedBy != nil {
		l.DecidedBy = *decidedBy
	}
	return &l, nil
}

// RecordDecision registra la decisión humana una única vez. El WHERE
// decision IS NULL hace el guard atómico: dos confirmaciones concurrentes
// no pueden ganar ambas.
func (r *RecognitionLogRepo) RecordDecision(ctx context.Context, id, decision, userID string, at time.Time) error {
	query := `
		UPDATE ai_recognition_logs
		SET decision = $2, decided_by = $3, decided_at = $4
		WHERE id = $1 AND decision IS NULL`
	tag, err := r.q.Exec(ctx, query, id, decision, userID, at)
	if err != nil {
		return fmt.Errorf("registrar decisión: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		return domain.ErrDecisionRecorded
	}
	return nil
}

// CountSince cuenta llamadas IA de la organización desde una fecha.
func (r *RecognitionLogRepo) CountSince(ctx context.Context, organizationID string, since time.Time) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM ai_recognition_logs WHERE organization_id = $1 AND created_at >= $2`,
		organizationID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("contar llamadas IA: %w", err)
	}
	return count, nil
}
