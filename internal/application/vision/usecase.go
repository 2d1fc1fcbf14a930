package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/application/ports"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Umbral para reportar has_strong_match en identify.
const strongMatchThreshold = 0.85

// Timeout por llamada al proveedor, como en el resto de integraciones LLM:
// el cliente HTTP tiene su propio timeout de red más holgado.
const providerTimeout = 20 * time.Second

// costPerCall estimación de costo por llamada para la telemetría del log.
// La conciliación exacta contra la factura del proveedor es externa.
var costPerCall = map[string]decimal.Decimal{
	ProviderAnthropic: decimal.NewFromFloat(0.012),
	ProviderGemini:    decimal.NewFromFloat(0.004),
}

// PlanChecker capacidad mínima que este caso de uso necesita del servicio
// de planes: tier efectivo y control de cuota de llamadas IA.
type PlanChecker interface {
	EffectiveTier(ctx context.Context, organizationID string) (string, error)
	CheckAiQuota(ctx context.Context, organizationID string) error
}

// UseCase orquesta identify/verify con política primario → fallback por
// tier y deja un AiRecognitionLog por cada llamada. La confirmación humana
// (Confirm) es la única vía por la que una sugerencia muta el ledger.
type UseCase struct {
	providers map[string]ports.VisionService
	plans     PlanChecker
	tasks     *audit.TaskUseCase
	txRunner  audit.TxRunner
	logRepo   repository.RecognitionLogRepository
	itemRepo  repository.InventoryItemRepository
	assetRepo repository.AssetRepository
}

// NewUseCase construye el caso de uso. providers se indexa por Name().
func NewUseCase(
	providers []ports.VisionService,
	plans PlanChecker,
	tasks *audit.TaskUseCase,
	txRunner audit.TxRunner,
	logRepo repository.RecognitionLogRepository,
	itemRepo repository.InventoryItemRepository,
	assetRepo repository.AssetRepository,
) *UseCase {
	idx := make(map[string]ports.VisionService, len(providers))
	for _, p := range providers {
		idx[p.Name()] = p
	}
	return &UseCase{
		providers: idx,
		plans:     plans,
		tasks:     tasks,
		txRunner:  txRunner,
		logRepo:   logRepo,
		itemRepo:  itemRepo,
		assetRepo: assetRepo,
	}
}

// IdentifyInput foto contra el roster del alcance de la tarea.
type IdentifyInput struct {
	OrganizationID string
	UserID         string
	Role           string
	TaskID         string
	PhotoBase64    string
}

// IdentifyOutput sugerencia registrada en el log, lista para confirmación.
type IdentifyOutput struct {
	RecognitionLogID string
	Identification   string
	Matches          []ports.CandidateMatch
	HasStrongMatch   bool
	Provider         string
}

// Identify resuelve la foto contra los activos del alcance de la tarea.
// Política de dos intentos: primario del tier y, si falla o la mejor
// confianza queda bajo el umbral, un único intento contra el fallback.
// El tier básico no tiene fallback: el error se propaga.
func (uc *UseCase) Identify(ctx context.Context, in IdentifyInput) (*IdentifyOutput, error) {
	task, session, err := uc.tasks.Get(ctx, audit.TaskActionInput{
		OrganizationID: in.OrganizationID, UserID: in.UserID, Role: in.Role, TaskID: in.TaskID,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.plans.CheckAiQuota(ctx, in.OrganizationID); err != nil {
		return nil, err
	}

	roster, err := uc.rosterForTask(ctx, session.ID, task.LocationID)
	if err != nil {
		return nil, err
	}

	tier, err := uc.plans.EffectiveTier(ctx, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	policy := PolicyForTier(tier)

	started := time.Now()
	result, provider, err := uc.identifyWithPolicy(ctx, policy, in.PhotoBase64, roster)
	if err != nil {
		return nil, err
	}
	latency := time.Since(started).Milliseconds()

	best := 0.0
	candidateIDs := make([]string, 0, len(result.Matches))
	for _, m := range result.Matches {
		candidateIDs = append(candidateIDs, m.AssetID)
		if m.Confidence > best {
			best = m.Confidence
		}
	}

	log := &entity.AiRecognitionLog{
		ID:             uuid.New().String(),
		OrganizationID: in.OrganizationID,
		SessionID:      session.ID,
		TaskID:         task.ID,
		UseCase:        entity.RecognitionUseIdentify,
		Provider:       provider,
		RawResponse:    result.RawResponse,
		CandidateIDs:   candidateIDs,
		Confidence:     best,
		Reasoning:      result.Identification,
		LatencyMs:      latency,
		CostUSD:        costPerCall[provider],
		CreatedAt:      time.Now(),
	}
	if err := uc.logRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("registrar log de reconocimiento: %w", err)
	}

	return &IdentifyOutput{
		RecognitionLogID: log.ID,
		Identification:   result.Identification,
		Matches:          result.Matches,
		HasStrongMatch:   best >= strongMatchThreshold,
		Provider:         provider,
	}, nil
}

// VerifyInput foto contra un único activo de referencia.
type VerifyInput struct {
	OrganizationID string
	UserID         string
	Role           string
	TaskID         string
	AssetID        string
	PhotoBase64    string
}

// VerifyOutput veredicto registrado en el log.
type VerifyOutput struct {
	RecognitionLogID string
	IsMatch          bool
	Confidence       float64
	Reasoning        string
	Discrepancies    []string
	Provider         string
}

// Verify compara la foto contra el activo de referencia con la misma
// política de escalamiento que Identify.
func (uc *UseCase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	task, session, err := uc.tasks.Get(ctx, audit.TaskActionInput{
		OrganizationID: in.OrganizationID, UserID: in.UserID, Role: in.Role, TaskID: in.TaskID,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.plans.CheckAiQuota(ctx, in.OrganizationID); err != nil {
		return nil, err
	}

	asset, err := uc.assetRepo.GetByID(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil || asset.OrganizationID != session.OrganizationID {
		return nil, domain.ErrNotFound
	}
	ref := describeAsset(asset)

	tier, err := uc.plans.EffectiveTier(ctx, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	policy := PolicyForTier(tier)

	started := time.Now()
	result, provider, err := uc.verifyWithPolicy(ctx, policy, in.PhotoBase64, ref)
	if err != nil {
		return nil, err
	}
	latency := time.Since(started).Milliseconds()

	log := &entity.AiRecognitionLog{
		ID:             uuid.New().String(),
		OrganizationID: in.OrganizationID,
		SessionID:      session.ID,
		TaskID:         task.ID,
		UseCase:        entity.RecognitionUseVerify,
		Provider:       provider,
		RawResponse:    result.RawResponse,
		CandidateIDs:   []string{asset.ID},
		Confidence:     result.Confidence,
		Reasoning:      result.Reasoning,
		LatencyMs:      latency,
		CostUSD:        costPerCall[provider],
		CreatedAt:      time.Now(),
	}
	if err := uc.logRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("registrar log de reconocimiento: %w", err)
	}

	return &VerifyOutput{
		RecognitionLogID: log.ID,
		IsMatch:          result.IsMatch,
		Confidence:       result.Confidence,
		Reasoning:        result.Reasoning,
		Discrepancies:    result.Discrepancies,
		Provider:         provider,
	}, nil
}

// ConfirmInput resolución humana de una sugerencia.
type ConfirmInput struct {
	OrganizationID   string
	UserID           string
	Role             string
	TaskID           string
	RecognitionLogID string
	AssetID          string // requerido para matched y unexpected
	Action           string // matched | unexpected | dismissed
}

// Confirm registra la decisión humana (una única vez) y aplica el efecto
// sobre el ledger en la misma transacción: matched marca found con
// procedencia IA, unexpected crea el ítem, dismissed solo registra.
func (uc *UseCase) Confirm(ctx context.Context, in ConfirmInput) (*entity.InventoryItem, error) {
	task, session, err := uc.tasks.Get(ctx, audit.TaskActionInput{
		OrganizationID: in.OrganizationID, UserID: in.UserID, Role: in.Role, TaskID: in.TaskID,
	})
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}

	recLog, err := uc.logRepo.GetByID(ctx, in.RecognitionLogID)
	if err != nil {
		return nil, err
	}
	if recLog == nil || recLog.OrganizationID != in.OrganizationID {
		return nil, domain.ErrNotFound
	}
	if recLog.Decided() {
		return nil, domain.ErrDecisionRecorded
	}
	if (in.Action == entity.DecisionMatched || in.Action == entity.DecisionUnexpected) && in.AssetID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	var out *entity.InventoryItem

	err = uc.txRunner.RunVision(ctx, func(
		itemRepo repository.InventoryItemRepository,
		taskRepo repository.TaskRepository,
		sessionRepo repository.SessionRepository,
		logRepo repository.RecognitionLogRepository,
	) error {
		if err := logRepo.RecordDecision(ctx, recLog.ID, in.Action, in.UserID, now); err != nil {
			return err
		}
		switch in.Action {
		case entity.DecisionDismissed:
			return nil
		case entity.DecisionMatched:
			item, err := itemRepo.GetBySessionAndAssetForUpdate(ctx, session.ID, in.AssetID)
			if err != nil {
				return err
			}
			if item == nil {
				return domain.ErrNotFound
			}
			out = item
			if item.Status == entity.ItemStatusFound {
				return nil
			}
			item.MarkFound(task.ID, in.UserID, entity.MethodAiVision, now)
			item.RecognitionLogID = recLog.ID
			conf := recLog.Confidence
			item.AiConfidence = &conf
			if err := itemRepo.Update(ctx, item); err != nil {
				return err
			}
		case entity.DecisionUnexpected:
			conf := recLog.Confidence
			item := &entity.InventoryItem{
				ID:                   uuid.New().String(),
				SessionID:            session.ID,
				TaskID:               task.ID,
				AssetID:              in.AssetID,
				Status:               entity.ItemStatusUnexpected,
				ScannedAt:            &now,
				ScannedBy:            in.UserID,
				IdentificationMethod: entity.MethodAiVision,
				RecognitionLogID:     recLog.ID,
				AiConfidence:         &conf,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := itemRepo.Create(ctx, item); err != nil {
				return err
			}
			out = item
		default:
			return domain.ErrInvalidInput
		}
		return audit.NewAggregator(itemRepo, sessionRepo).Recalculate(ctx, session.ID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// identifyWithPolicy secuencia explícita de dos intentos, no un retry loop.
func (uc *UseCase) identifyWithPolicy(ctx context.Context, policy ProviderPolicy, photo string, roster []ports.AssetDescriptor) (*ports.IdentifyResult, string, error) {
	primary, ok := uc.providers[policy.Primary]
	if !ok {
		return nil, "", domain.ErrAiProvider
	}
	attemptCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	result, err := primary.Identify(attemptCtx, photo, roster)
	cancel()

	if err == nil && !uc.shouldEscalateIdentify(policy, result) {
		return result, primary.Name(), nil
	}
	fallback, ok := uc.providers[policy.Fallback]
	if !ok {
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", domain.ErrAiProvider, err)
		}
		return result, primary.Name(), nil
	}
	attemptCtx, cancel = context.WithTimeout(ctx, providerTimeout)
	fbResult, fbErr := fallback.Identify(attemptCtx, photo, roster)
	cancel()
	if fbErr != nil {
		if err == nil {
			// El primario respondió con baja confianza; mejor eso que nada.
			return result, primary.Name(), nil
		}
		return nil, "", fmt.Errorf("%w: primario %v, fallback %v", domain.ErrAiProvider, err, fbErr)
	}
	return fbResult, fallback.Name(), nil
}

func (uc *UseCase) shouldEscalateIdentify(policy ProviderPolicy, result *ports.IdentifyResult) bool {
	if policy.Fallback == "" || policy.EscalateBelow <= 0 {
		return false
	}
	best := 0.0
	for _, m := range result.Matches {
		if m.Confidence > best {
			best = m.Confidence
		}
	}
	return best < policy.EscalateBelow
}

func (uc *UseCase) verifyWithPolicy(ctx context.Context, policy ProviderPolicy, photo string, ref ports.AssetDescriptor) (*ports.VerifyResult, string, error) {
	primary, ok := uc.providers[policy.Primary]
	if !ok {
		return nil, "", domain.ErrAiProvider
	}
	attemptCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	result, err := primary.Verify(attemptCtx, photo, ref)
	cancel()

	escalate := err != nil || (policy.EscalateBelow > 0 && result.Confidence < policy.EscalateBelow)
	if !escalate || policy.Fallback == "" {
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", domain.ErrAiProvider, err)
		}
		return result, primary.Name(), nil
	}
	fallback, ok := uc.providers[policy.Fallback]
	if !ok {
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", domain.ErrAiProvider, err)
		}
		return result, primary.Name(), nil
	}
	attemptCtx, cancel = context.WithTimeout(ctx, providerTimeout)
	fbResult, fbErr := fallback.Verify(attemptCtx, photo, ref)
	cancel()
	if fbErr != nil {
		if err == nil {
			return result, primary.Name(), nil
		}
		return nil, "", fmt.Errorf("%w: primario %v, fallback %v", domain.ErrAiProvider, err, fbErr)
	}
	return fbResult, fallback.Name(), nil
}

// rosterForTask arma los descriptores del alcance de la tarea para identify.
func (uc *UseCase) rosterForTask(ctx context.Context, sessionID, locationID string) ([]ports.AssetDescriptor, error) {
	items, err := uc.itemRepo.ListByTaskScope(ctx, sessionID, locationID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.AssetID)
	}
	assets, err := uc.assetRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	roster := make([]ports.AssetDescriptor, 0, len(assets))
	for _, a := range assets {
		roster = append(roster, describeAsset(a))
	}
	return roster, nil
}

func describeAsset(a *entity.Asset) ports.AssetDescriptor {
	return ports.AssetDescriptor{
		AssetID:  a.ID,
		Code:     a.Code,
		Name:     a.Name,
		Category: a.CategoryID,
	}
}
