package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/Activos-api/internal/application/ports"
)

// Verificar en tiempo de compilación que GeminiVision implementa VisionService.
var _ ports.VisionService = (*GeminiVision)(nil)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

	// Usar response_mime_type=application/json obliga a Gemini a devolver JSON
	// puro, eliminando la necesidad de limpiar bloques de markdown.
	geminiIdentifySystem = `Eres un auditor de activos fijos. Recibes la foto de un objeto físico
y una lista de activos candidatos del inventario de la empresa.
Devuelve ÚNICAMENTE un objeto JSON (sin texto adicional) con esta estructura exacta:
{
  "identification": "<descripción breve en español de lo que ves en la foto>",
  "matches": [
    {"asset_id": "<id de un candidato de la lista>", "confidence": <decimal entre 0.0 y 1.0>}
  ]
}

Reglas:
- matches: solo candidatos de la lista recibida, ordenados por confidence descendente, máximo 3.
- Si ningún candidato es plausible, devuelve matches como lista vacía.
- confidence: 0.9–1.0 = certeza alta, 0.7–0.89 = probable, <0.7 = dudoso.`

	geminiVerifySystem = `Eres un auditor de activos fijos. Recibes la foto de un objeto físico
y la ficha de UN activo del inventario. Decide si la foto corresponde a ese activo.
Devuelve ÚNICAMENTE un objeto JSON (sin texto adicional) con esta estructura exacta:
{
  "is_match": <true o false>,
  "confidence": <decimal entre 0.0 y 1.0>,
  "reasoning": "<explicación concisa en español, máximo 200 caracteres>",
  "discrepancies": ["<diferencia observada>", ...]
}

Reglas:
- discrepancies: lista vacía si no observas diferencias relevantes.`
)

// GeminiVision adaptador que implementa VisionService llamando a la API REST
// de Google Gemini con entrada de imagen.
// Usa únicamente la librería estándar de Go (net/http) para no añadir dependencias externas.
type GeminiVision struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiVision construye el adaptador. model suele ser "gemini-1.5-flash".
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewGeminiVision(apiKey, model string) *GeminiVision {
	return &GeminiVision{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 25 * time.Second, // timeout de red; el caller también pone WithTimeout
		},
	}
}

// Name identifica el proveedor para logs y ruteo por plan.
func (s *GeminiVision) Name() string { return "gemini" }

// ── Estructuras internas para la API de Gemini ────────────────────────────────

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  genConfig       `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"` // "application/json" → JSON puro garantizado
	Temperature      float32 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// Identify envía la foto y el roster de candidatos a Gemini y devuelve los
// matches sugeridos con su confianza.
func (s *GeminiVision) Identify(ctx context.Context, photoBase64 string, roster []ports.AssetDescriptor) (*ports.IdentifyResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: GEMINI_API_KEY no configurado")
	}

	rawJSON, err := s.call(ctx, geminiIdentifySystem, photoBase64, formatRoster(roster))
	if err != nil {
		return nil, err
	}

	var payload identifyPayload
	if err := json.Unmarshal([]byte(rawJSON), &payload); err != nil {
		return nil, fmt.Errorf("AI: respuesta del modelo no es JSON válido: %w (respuesta: %s)", err, rawJSON)
	}
	return payload.toResult(rawJSON, roster), nil
}

// Verify envía la foto y la ficha de un activo a Gemini y devuelve el veredicto.
func (s *GeminiVision) Verify(ctx context.Context, photoBase64 string, reference ports.AssetDescriptor) (*ports.VerifyResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: GEMINI_API_KEY no configurado")
	}

	rawJSON, err := s.call(ctx, geminiVerifySystem, photoBase64, formatReference(reference))
	if err != nil {
		return nil, err
	}

	var payload verifyPayload
	if err := json.Unmarshal([]byte(rawJSON), &payload); err != nil {
		return nil, fmt.Errorf("AI: respuesta del modelo no es JSON válido: %w (respuesta: %s)", err, rawJSON)
	}
	return payload.toResult(rawJSON), nil
}

// call ejecuta una llamada multimodal (imagen + texto) y devuelve el JSON del modelo.
func (s *GeminiVision) call(ctx context.Context, system, photoBase64, userText string) (string, error) {
	payload := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: system}},
		},
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{InlineData: &geminiInlineData{MIMEType: "image/jpeg", Data: photoBase64}},
					{Text: userText},
				},
			},
		},
		GenerationConfig: genConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.2, // baja temperatura para respuestas más deterministas
			MaxOutputTokens:  512,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("AI: serializar request: %w", err)
	}

	url := fmt.Sprintf(geminiBaseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return "", fmt.Errorf("AI: leer respuesta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI: Gemini error %d: %s", errResp.Error.Code, errResp.Error.Message)
		}
		return "", fmt.Errorf("AI: Gemini HTTP %d", resp.StatusCode)
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(rawBody, &gemResp); err != nil {
		return "", fmt.Errorf("AI: deserializar respuesta Gemini: %w", err)
	}
	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("AI: Gemini devolvió respuesta vacía")
	}
	return strings.TrimSpace(gemResp.Candidates[0].Content.Parts[0].Text), nil
}
