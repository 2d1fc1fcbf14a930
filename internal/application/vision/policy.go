package vision

import "github.com/jhoicas/Activos-api/internal/domain/entity"

// Nombres de proveedor conocidos por la política de ruteo.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ProviderPolicy ruteo de proveedores para un tier de plan: a quién llamar
// primero, a quién escalar y bajo qué umbral de confianza escalar.
// Fallback vacío = sin escalamiento (el error del primario se propaga).
type ProviderPolicy struct {
	Primary        string
	Fallback       string
	EscalateBelow  float64
}

// policyTable tabla única de ruteo por tier; se consulta una vez por
// request en lugar de repetir condicionales en cada call site.
var policyTable = map[string]ProviderPolicy{
	entity.PlanTierBasic: {
		Primary: ProviderGemini,
		// El tier más bajo no escala: un fallo del primario se propaga.
	},
	entity.PlanTierPro: {
		Primary:       ProviderAnthropic,
		Fallback:      ProviderGemini,
		EscalateBelow: 0.70,
	},
	entity.PlanTierEnterprise: {
		Primary:       ProviderAnthropic,
		Fallback:      ProviderGemini,
		EscalateBelow: 0.80,
	},
}

// PolicyForTier devuelve la política del tier; tiers desconocidos reciben
// la política del tier básico.
func PolicyForTier(tier string) ProviderPolicy {
	if p, ok := policyTable[tier]; ok {
		return p
	}
	return policyTable[entity.PlanTierBasic]
}
