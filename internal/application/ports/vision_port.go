package ports

import "context"

// AssetDescriptor lo mínimo que el modelo necesita saber de un activo para
// identificar o verificar: nunca se envían ids internos sin contexto.
type AssetDescriptor struct {
	AssetID     string
	Code        string
	Name        string
	Category    string
	Description string
}

// CandidateMatch un candidato devuelto por identify.
type CandidateMatch struct {
	AssetID    string
	Confidence float64
}

// IdentifyResult resultado crudo de un identify contra el roster.
type IdentifyResult struct {
	Identification string // descripción libre de lo que el modelo ve
	Matches        []CandidateMatch
	RawResponse    string // payload JSON del proveedor, para el log de auditoría
}

// VerifyResult veredicto de una verificación uno a uno.
type VerifyResult struct {
	IsMatch       bool
	Confidence    float64
	Reasoning     string
	Discrepancies []string
	RawResponse   string
}

// VisionService puerto del proveedor de visión IA. Implementaciones:
// Anthropic (Claude) y Gemini. El caller impone el timeout por contexto
// y decide el escalamiento primario → fallback según el plan.
type VisionService interface {
	// Name identifica el proveedor ("anthropic" | "gemini") para logs y ruteo.
	Name() string
	// Identify describe la foto y la contrasta con el roster de candidatos.
	Identify(ctx context.Context, photoBase64 string, roster []AssetDescriptor) (*IdentifyResult, error)
	// Verify compara la foto contra un único activo de referencia.
	Verify(ctx context.Context, photoBase64 string, reference AssetDescriptor) (*VerifyResult, error)
}
