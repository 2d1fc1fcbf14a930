package vision_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/application/vision"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Identify: política primario → fallback por tier
// ──────────────────────────────────────────────────────────────────────────────

// El tier pro usa Anthropic como primario; con confianza alta no escala y el
// log registra proveedor, candidatos y confianza.
func TestIdentify_ProUsaPrimarioYRegistraLog(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	out, err := w.uc.Identify(context.Background(), identifyInput())
	require.NoError(t, err)

	assert.Equal(t, vision.ProviderAnthropic, out.Provider)
	assert.True(t, out.HasStrongMatch, "0.92 supera el umbral de match fuerte")
	assert.Equal(t, 1, w.anthropic.calls)
	assert.Zero(t, w.gemini.calls, "con confianza alta no se escala")

	log, err := w.logs.GetByID(context.Background(), out.RecognitionLogID)
	require.NoError(t, err)
	require.NotNil(t, log, "toda llamada IA deja un log")
	assert.Equal(t, entity.RecognitionUseIdentify, log.UseCase)
	assert.Equal(t, []string{"asset-1"}, log.CandidateIDs)
	assert.InDelta(t, 0.92, log.Confidence, 0.0001)
	assert.Empty(t, log.Decision, "la decisión humana queda pendiente")
}

// Si el primario falla, el tier pro escala al fallback y el log registra al
// proveedor que efectivamente respondió.
func TestIdentify_PrimarioCaidoEscalaAFallback(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	w.anthropic.err = errors.New("timeout")

	out, err := w.uc.Identify(context.Background(), identifyInput())
	require.NoError(t, err)

	assert.Equal(t, vision.ProviderGemini, out.Provider)
	assert.Equal(t, 1, w.anthropic.calls)
	assert.Equal(t, 1, w.gemini.calls)
}

// Con confianza bajo el umbral del tier, se intenta el fallback una vez.
func TestIdentify_ConfianzaBajaEscala(t *testing.T) {
	w := newVisionWorld(entity.PlanTierEnterprise) // umbral 0.80
	w.anthropic.identify.Matches[0].Confidence = 0.55

	out, err := w.uc.Identify(context.Background(), identifyInput())
	require.NoError(t, err)

	assert.Equal(t, vision.ProviderGemini, out.Provider, "0.55 < 0.80 escala al fallback")
	assert.Equal(t, 1, w.anthropic.calls)
	assert.Equal(t, 1, w.gemini.calls)
}

// Si el fallback también falla pero el primario había respondido con baja
// confianza, se devuelve la respuesta del primario.
func TestIdentify_FallbackCaidoConservaPrimario(t *testing.T) {
	w := newVisionWorld(entity.PlanTierEnterprise)
	w.anthropic.identify.Matches[0].Confidence = 0.55
	w.gemini.err = errors.New("overloaded")

	out, err := w.uc.Identify(context.Background(), identifyInput())
	require.NoError(t, err)
	assert.Equal(t, vision.ProviderAnthropic, out.Provider)
	assert.False(t, out.HasStrongMatch)
}

// El tier básico no tiene fallback: el error del primario se propaga como
// ErrAiProvider.
func TestIdentify_BasicoSinFallbackPropagaError(t *testing.T) {
	w := newVisionWorld(entity.PlanTierBasic)
	w.gemini.err = errors.New("429")

	_, err := w.uc.Identify(context.Background(), identifyInput())
	assert.ErrorIs(t, err, domain.ErrAiProvider)
	assert.Zero(t, w.anthropic.calls, "el básico nunca toca al proveedor premium")
}

// La cuota agotada corta antes de llamar a ningún proveedor.
func TestIdentify_CuotaAgotadaCortaTemprano(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	w.plans.quotaErr = domain.ErrPlanLimit

	_, err := w.uc.Identify(context.Background(), identifyInput())
	assert.ErrorIs(t, err, domain.ErrPlanLimit)
	assert.Zero(t, w.anthropic.calls)
	assert.Zero(t, w.gemini.calls)
}

// ──────────────────────────────────────────────────────────────────────────────
// Verify
// ──────────────────────────────────────────────────────────────────────────────

func TestVerify_RegistraVeredicto(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	out, err := w.uc.Verify(context.Background(), verifyInput("asset-1"))
	require.NoError(t, err)

	assert.True(t, out.IsMatch)
	assert.Equal(t, vision.ProviderAnthropic, out.Provider)

	log, _ := w.logs.GetByID(context.Background(), out.RecognitionLogID)
	require.NotNil(t, log)
	assert.Equal(t, entity.RecognitionUseVerify, log.UseCase)
	assert.Equal(t, []string{"asset-1"}, log.CandidateIDs)
}

func TestVerify_ActivoAjenoEsNotFound(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	w.assets.byID["asset-ajeno"] = &entity.Asset{ID: "asset-ajeno", OrganizationID: "org-2"}

	_, err := w.uc.Verify(context.Background(), verifyInput("asset-ajeno"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Confirm: la decisión humana es la única vía de mutación del ledger
// ──────────────────────────────────────────────────────────────────────────────

func confirmInput(w *visionWorld, action, assetID string) vision.ConfirmInput {
	out, err := w.uc.Identify(context.Background(), identifyInput())
	if err != nil {
		panic(err)
	}
	return vision.ConfirmInput{
		OrganizationID:   testOrgID,
		UserID:           testWorkerID,
		Role:             entity.RoleWorker,
		TaskID:           testTaskID,
		RecognitionLogID: out.RecognitionLogID,
		AssetID:          assetID,
		Action:           action,
	}
}

// matched marca el ítem found con procedencia IA (log + confianza) y
// reagrega los contadores.
func TestConfirm_MatchedMarcaFoundConProcedencia(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	in := confirmInput(w, entity.DecisionMatched, "asset-1")

	item, err := w.uc.Confirm(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, entity.ItemStatusFound, item.Status)
	assert.Equal(t, entity.MethodAiVision, item.IdentificationMethod)
	assert.Equal(t, in.RecognitionLogID, item.RecognitionLogID)
	require.NotNil(t, item.AiConfidence)
	assert.InDelta(t, 0.92, *item.AiConfidence, 0.0001)

	ses, _ := w.sessions.GetByID(context.Background(), testSessionID)
	assert.Equal(t, 1, ses.TotalMatched)

	log, _ := w.logs.GetByID(context.Background(), in.RecognitionLogID)
	assert.Equal(t, entity.DecisionMatched, log.Decision)
	assert.Equal(t, testWorkerID, log.DecidedBy)
}

// unexpected crea el ítem fuera de alcance con la procedencia del log.
func TestConfirm_UnexpectedCreaItem(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	in := confirmInput(w, entity.DecisionUnexpected, "asset-extra")

	item, err := w.uc.Confirm(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, entity.ItemStatusUnexpected, item.Status)
	assert.Equal(t, entity.MethodAiVision, item.IdentificationMethod)

	ses, _ := w.sessions.GetByID(context.Background(), testSessionID)
	assert.Equal(t, 1, ses.TotalUnexpected)
}

// dismissed registra la decisión sin tocar el ledger.
func TestConfirm_DismissedNoMutaLedger(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	in := confirmInput(w, entity.DecisionDismissed, "")

	item, err := w.uc.Confirm(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, item)

	ses, _ := w.sessions.GetByID(context.Background(), testSessionID)
	assert.Zero(t, ses.TotalMatched)
	assert.Zero(t, ses.TotalUnexpected)

	log, _ := w.logs.GetByID(context.Background(), in.RecognitionLogID)
	assert.Equal(t, entity.DecisionDismissed, log.Decision)
}

// La decisión se registra una única vez: el segundo intento es
// ErrDecisionRecorded aunque proponga otra acción.
func TestConfirm_SegundaDecisionRechazada(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	in := confirmInput(w, entity.DecisionMatched, "asset-1")

	_, err := w.uc.Confirm(context.Background(), in)
	require.NoError(t, err)

	in.Action = entity.DecisionDismissed
	_, err = w.uc.Confirm(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrDecisionRecorded)
}

// matched y unexpected requieren asset_id.
func TestConfirm_AccionConAssetRequerido(t *testing.T) {
	w := newVisionWorld(entity.PlanTierPro)
	in := confirmInput(w, entity.DecisionMatched, "")

	_, err := w.uc.Confirm(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
