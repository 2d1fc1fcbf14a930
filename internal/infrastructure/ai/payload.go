package ai

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Activos-api/internal/application/ports"
)

// identifyPayload es el JSON que esperamos recibir del modelo en identify.
type identifyPayload struct {
	Identification string `json:"identification"`
	Matches        []struct {
		AssetID    string  `json:"asset_id"`
		Confidence float64 `json:"confidence"`
	} `json:"matches"`
}

// verifyPayload es el JSON que esperamos recibir del modelo en verify.
type verifyPayload struct {
	IsMatch       bool     `json:"is_match"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	Discrepancies []string `json:"discrepancies"`
}

// toResult traduce el payload al resultado del puerto. Descarta matches cuyo
// asset_id no está en el roster: el modelo no puede inventar candidatos.
func (p identifyPayload) toResult(rawJSON string, roster []ports.AssetDescriptor) *ports.IdentifyResult {
	known := make(map[string]bool, len(roster))
	for _, a := range roster {
		known[a.AssetID] = true
	}
	result := &ports.IdentifyResult{
		Identification: p.Identification,
		RawResponse:    rawJSON,
	}
	for _, m := range p.Matches {
		if !known[m.AssetID] {
			continue
		}
		result.Matches = append(result.Matches, ports.CandidateMatch{
			AssetID:    m.AssetID,
			Confidence: clampConfidence(m.Confidence),
		})
	}
	return result
}

func (p verifyPayload) toResult(rawJSON string) *ports.VerifyResult {
	return &ports.VerifyResult{
		IsMatch:       p.IsMatch,
		Confidence:    clampConfidence(p.Confidence),
		Reasoning:     p.Reasoning,
		Discrepancies: p.Discrepancies,
		RawResponse:   rawJSON,
	}
}

// clampConfidence fuerza la confianza al rango [0, 1].
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// formatRoster serializa la lista de candidatos como texto plano para el prompt.
func formatRoster(roster []ports.AssetDescriptor) string {
	var b strings.Builder
	b.WriteString("Candidatos del inventario:\n")
	for _, a := range roster {
		fmt.Fprintf(&b, "- asset_id: %s | código: %s | nombre: %s | categoría: %s | descripción: %s\n",
			a.AssetID, a.Code, a.Name, a.Category, a.Description)
	}
	b.WriteString("\n¿Cuál de estos activos aparece en la foto?")
	return b.String()
}

// formatReference serializa la ficha del activo a verificar.
func formatReference(ref ports.AssetDescriptor) string {
	return fmt.Sprintf(
		"Ficha del activo:\n- código: %s\n- nombre: %s\n- categoría: %s\n- descripción: %s\n\n¿La foto corresponde a este activo?",
		ref.Code, ref.Name, ref.Category, ref.Description,
	)
}
