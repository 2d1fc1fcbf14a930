package vision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Activos-api/internal/application/vision"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// La tabla de ruteo por tier: básico va directo a Gemini sin escalamiento;
// pro y enterprise usan Anthropic con fallback a Gemini y umbrales propios.
func TestPolicyForTier_TablaDeRuteo(t *testing.T) {
	basic := vision.PolicyForTier(entity.PlanTierBasic)
	assert.Equal(t, vision.ProviderGemini, basic.Primary)
	assert.Empty(t, basic.Fallback, "el tier básico no escala")

	pro := vision.PolicyForTier(entity.PlanTierPro)
	assert.Equal(t, vision.ProviderAnthropic, pro.Primary)
	assert.Equal(t, vision.ProviderGemini, pro.Fallback)
	assert.InDelta(t, 0.70, pro.EscalateBelow, 0.0001)

	ent := vision.PolicyForTier(entity.PlanTierEnterprise)
	assert.Equal(t, vision.ProviderAnthropic, ent.Primary)
	assert.Equal(t, vision.ProviderGemini, ent.Fallback)
	assert.InDelta(t, 0.80, ent.EscalateBelow, 0.0001)
}

// Un tier desconocido degrada a la política del básico, nunca a pánico.
func TestPolicyForTier_TierDesconocidoDegradaABasico(t *testing.T) {
	p := vision.PolicyForTier("tier-inventado")
	assert.Equal(t, vision.PolicyForTier(entity.PlanTierBasic), p)
}
