package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Casos de uso de una llamada de visión IA.
const (
	RecognitionUseIdentify = "identify"
	RecognitionUseVerify   = "verify"
)

// Decisiones humanas sobre una sugerencia de la IA.
const (
	DecisionMatched    = "matched"
	DecisionUnexpected = "unexpected"
	DecisionDismissed  = "dismissed"
)

// AiRecognitionLog registro de auditoría de una llamada de visión IA.
// Append-only: se crea una vez y solo se muta para registrar la decisión
// humana final (una única vez).
type AiRecognitionLog struct {
	ID              string
	OrganizationID  string
	SessionID       string
	TaskID          string
	UseCase         string // identify | verify
	Provider        string // anthropic | gemini
	RawResponse     string // payload JSON del proveedor, para auditoría
	CandidateIDs    []string
	Confidence      float64
	Reasoning       string
	Decision        string // matched | unexpected | dismissed; vacío hasta resolver
	DecidedBy       string
	DecidedAt       *time.Time
	LatencyMs       int64
	CostUSD         decimal.Decimal
	CreatedAt       time.Time
}

// Decided informa si ya se registró la decisión humana.
func (l *AiRecognitionLog) Decided() bool { return l.Decision != "" }
