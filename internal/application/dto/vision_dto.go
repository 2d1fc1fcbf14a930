package dto

// ── Visión IA ─────────────────────────────────────────────────────────────────

// AiIdentifyRequest foto para identificar contra el roster de la sesión.
// Photo es la imagen en base64 (JPEG/PNG), tal como la captura el móvil.
type AiIdentifyRequest struct {
	Photo string `json:"photo" validate:"required"`
}

// AiCandidateMatch un candidato sugerido por el modelo.
type AiCandidateMatch struct {
	AssetID    string  `json:"asset_id"`
	Code       string  `json:"code,omitempty"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence"`
}

// AiIdentifyResponse resultado del identify: descripción + candidatos.
type AiIdentifyResponse struct {
	RecognitionLogID string             `json:"recognition_log_id"`
	Identification   string             `json:"identification"`
	Matches          []AiCandidateMatch `json:"matches"`
	HasStrongMatch   bool               `json:"has_strong_match"`
	Provider         string             `json:"provider"`
}

// AiVerifyRequest foto + activo de referencia para verificación uno a uno.
type AiVerifyRequest struct {
	Photo   string `json:"photo" validate:"required"`
	AssetID string `json:"asset_id" validate:"required,uuid4"`
}

// AiVerifyResponse veredicto de la verificación.
type AiVerifyResponse struct {
	RecognitionLogID string   `json:"recognition_log_id"`
	IsMatch          bool     `json:"is_match"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	Discrepancies    []string `json:"discrepancies,omitempty"`
	Provider         string   `json:"provider"`
}

// AiConfirmRequest resolución humana de una sugerencia de IA.
type AiConfirmRequest struct {
	RecognitionLogID string `json:"recognition_log_id" validate:"required,uuid4"`
	AssetID          string `json:"asset_id" validate:"omitempty,uuid4"`
	Action           string `json:"action" validate:"required,oneof=matched unexpected dismissed"`
}

// AiConfirmResponse acción aplicada y el ítem resultante si lo hubo.
type AiConfirmResponse struct {
	Action string        `json:"action"`
	Item   *ItemResponse `json:"item,omitempty"`
}
