package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jhoicas/Activos-api/internal/application/ports"
)

// Verificar en tiempo de compilación que AnthropicVision implementa VisionService.
var _ ports.VisionService = (*AnthropicVision)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	anthropicIdentifySystem = `Eres un auditor de activos fijos. Recibes la foto de un objeto físico
y una lista de activos candidatos del inventario de la empresa.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin bloques de código` + " ```json" + `) con esta estructura exacta:
{
  "identification": "<descripción breve en español de lo que ves en la foto>",
  "matches": [
    {"asset_id": "<id de un candidato de la lista>", "confidence": <decimal entre 0.0 y 1.0>}
  ]
}

Reglas:
- matches: solo candidatos de la lista recibida, ordenados por confidence descendente, máximo 3.
- Si ningún candidato es plausible, devuelve matches como lista vacía.
- confidence: 0.9–1.0 = certeza alta, 0.7–0.89 = probable, <0.7 = dudoso.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`

	anthropicVerifySystem = `Eres un auditor de activos fijos. Recibes la foto de un objeto físico
y la ficha de UN activo del inventario. Decide si la foto corresponde a ese activo.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown) con esta estructura exacta:
{
  "is_match": <true o false>,
  "confidence": <decimal entre 0.0 y 1.0>,
  "reasoning": "<explicación concisa en español, máximo 200 caracteres>",
  "discrepancies": ["<diferencia observada>", ...]
}

Reglas:
- discrepancies: lista vacía si no observas diferencias relevantes.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`
)

// AnthropicVision adaptador que implementa VisionService usando la API REST
// de Anthropic (Claude) con entrada de imagen.
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type AnthropicVision struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicVision construye el adaptador.
// model suele ser "claude-3-5-sonnet-20241022".
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicVision(apiKey, model string) *AnthropicVision {
	return &AnthropicVision{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			// Timeout de red de 25 s; el use case impone además un context.WithTimeout de 20 s.
			Timeout: 25 * time.Second,
		},
	}
}

// Name identifica el proveedor para logs y ruteo por plan.
func (s *AnthropicVision) Name() string { return "anthropic" }

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`       // siempre "base64"
	MediaType string `json:"media_type"` // "image/jpeg"
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo
// envuelva en markdown. Captura desde el primer '{' hasta el último '}'.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Implementación del puerto ─────────────────────────────────────────────────

// Identify envía la foto y el roster de candidatos a Claude y devuelve los
// matches sugeridos con su confianza.
func (s *AnthropicVision) Identify(ctx context.Context, photoBase64 string, roster []ports.AssetDescriptor) (*ports.IdentifyResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	rawText, err := s.call(ctx, anthropicIdentifySystem, photoBase64, formatRoster(roster))
	if err != nil {
		return nil, err
	}

	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}

	var payload identifyPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de identificación: %w (JSON extraído: %s)", err, cleanJSON)
	}
	return payload.toResult(cleanJSON, roster), nil
}

// Verify envía la foto y la ficha de un activo a Claude y devuelve el veredicto.
func (s *AnthropicVision) Verify(ctx context.Context, photoBase64 string, reference ports.AssetDescriptor) (*ports.VerifyResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	rawText, err := s.call(ctx, anthropicVerifySystem, photoBase64, formatReference(reference))
	if err != nil {
		return nil, err
	}

	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}

	var payload verifyPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de verificación: %w (JSON extraído: %s)", err, cleanJSON)
	}
	return payload.toResult(cleanJSON), nil
}

// call ejecuta una llamada multimodal (imagen + texto) y devuelve el texto del modelo.
func (s *AnthropicVision) call(ctx context.Context, system, photoBase64, userText string) (string, error) {
	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 1024,
		System:    system,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContentBlock{
					{
						Type: "image",
						Source: &anthropicImageSource{
							Type:      "base64",
							MediaType: "image/jpeg",
							Data:      photoBase64,
						},
					},
					{Type: "text", Text: userText},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

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
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return "", fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}
	if len(anthResp.Content) == 0 {
		return "", fmt.Errorf("AI: Claude devolvió respuesta vacía")
	}
	return anthResp.Content[0].Text, nil
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre.
// Estrategia en dos pasos:
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if close := strings.LastIndex(after, "```"); close != -1 {
			after = after[:close]
		}
		text = strings.TrimSpace(after)
	}

	if strings.HasPrefix(text, "{") {
		return text
	}

	match := jsonBlockRe.FindString(text)
	return strings.TrimSpace(match)
}
