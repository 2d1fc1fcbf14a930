package vision_test

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/application/ports"
	"github.com/jhoicas/Activos-api/internal/application/vision"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles mínimos para ejercitar la orquestación identify/verify/confirm.
// Solo implementan el comportamiento que el caso de uso ejercita.
// ──────────────────────────────────────────────────────────────────────────────

const (
	testOrgID     = "org-1"
	testWorkerID  = "user-worker"
	testSessionID = "ses-1"
	testTaskID    = "task-1"
)

// stubProvider responde con resultados pre-armados o falla.
type stubProvider struct {
	name     string
	identify *ports.IdentifyResult
	verify   *ports.VerifyResult
	err      error
	calls    int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Identify(_ context.Context, _ string, _ []ports.AssetDescriptor) (*ports.IdentifyResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.identify, nil
}

func (s *stubProvider) Verify(_ context.Context, _ string, _ ports.AssetDescriptor) (*ports.VerifyResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.verify, nil
}

// stubPlans controla tier y cuota por test.
type stubPlans struct {
	tier     string
	quotaErr error
}

func (s *stubPlans) EffectiveTier(context.Context, string) (string, error) { return s.tier, nil }
func (s *stubPlans) CheckAiQuota(context.Context, string) error            { return s.quotaErr }

// Repos en memoria, versión compacta.

type stubItems struct {
	byID map[string]*entity.InventoryItem
}

func (s *stubItems) Create(_ context.Context, it *entity.InventoryItem) error {
	for _, e := range s.byID {
		if e.SessionID == it.SessionID && e.AssetID == it.AssetID {
			return domain.ErrDuplicateItem
		}
	}
	c := *it
	s.byID[it.ID] = &c
	return nil
}

func (s *stubItems) BulkCreateExpected(ctx context.Context, items []*entity.InventoryItem) error {
	for _, it := range items {
		if err := s.Create(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubItems) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	if it, ok := s.byID[id]; ok {
		c := *it
		return &c, nil
	}
	return nil, nil
}

func (s *stubItems) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return s.GetByID(ctx, id)
}

func (s *stubItems) GetBySessionAndAsset(_ context.Context, sessionID, assetID string) (*entity.InventoryItem, error) {
	for _, it := range s.byID {
		if it.SessionID == sessionID && it.AssetID == assetID {
			c := *it
			return &c, nil
		}
	}
	return nil, nil
}

func (s *stubItems) GetBySessionAndAssetForUpdate(ctx context.Context, sessionID, assetID string) (*entity.InventoryItem, error) {
	return s.GetBySessionAndAsset(ctx, sessionID, assetID)
}

func (s *stubItems) Update(_ context.Context, it *entity.InventoryItem) error {
	if _, ok := s.byID[it.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *it
	s.byID[it.ID] = &c
	return nil
}

func (s *stubItems) ListBySession(_ context.Context, sessionID string) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range s.byID {
		if it.SessionID == sessionID {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubItems) ListByTaskScope(ctx context.Context, sessionID, _ string) ([]*entity.InventoryItem, error) {
	return s.ListBySession(ctx, sessionID)
}

func (s *stubItems) Counts(_ context.Context, sessionID string) (repository.ItemCounts, error) {
	var c repository.ItemCounts
	for _, it := range s.byID {
		if it.SessionID != sessionID {
			continue
		}
		if it.ScannedAt != nil {
			c.Scanned++
		}
		switch it.Status {
		case entity.ItemStatusFound:
			c.Matched++
		case entity.ItemStatusMissing:
			c.Missing++
		case entity.ItemStatusUnexpected:
			c.Unexpected++
		}
	}
	return c, nil
}

func (s *stubItems) BulkMarkMissing(_ context.Context, sessionID string, at time.Time) (int, error) {
	n := 0
	for _, it := range s.byID {
		if it.SessionID == sessionID && it.Status == entity.ItemStatusExpected {
			it.Status = entity.ItemStatusMissing
			it.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (s *stubItems) ChangedSince(context.Context, string, string, time.Time) (int, *time.Time, error) {
	return 0, nil, nil
}

type stubTasks struct {
	byID map[string]*entity.InventoryTask
}

func (s *stubTasks) Create(_ context.Context, t *entity.InventoryTask) error {
	c := *t
	s.byID[t.ID] = &c
	return nil
}

func (s *stubTasks) GetByID(_ context.Context, id string) (*entity.InventoryTask, error) {
	if t, ok := s.byID[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (s *stubTasks) GetForUpdate(ctx context.Context, id string) (*entity.InventoryTask, error) {
	return s.GetByID(ctx, id)
}

func (s *stubTasks) Update(_ context.Context, t *entity.InventoryTask) error {
	c := *t
	s.byID[t.ID] = &c
	return nil
}

func (s *stubTasks) ListForUser(context.Context, string, string, string, int, int) ([]repository.TaskSummary, error) {
	return nil, nil
}

type stubSessions struct {
	byID map[string]*entity.InventorySession
}

func (s *stubSessions) Create(_ context.Context, ses *entity.InventorySession) error {
	c := *ses
	s.byID[ses.ID] = &c
	return nil
}

func (s *stubSessions) GetByID(_ context.Context, id string) (*entity.InventorySession, error) {
	if ses, ok := s.byID[id]; ok {
		c := *ses
		return &c, nil
	}
	return nil, nil
}

func (s *stubSessions) Update(_ context.Context, ses *entity.InventorySession) error {
	c := *ses
	s.byID[ses.ID] = &c
	return nil
}

func (s *stubSessions) UpdateCounters(_ context.Context, id string, c repository.SessionCounters) error {
	ses, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	ses.TotalScanned = c.TotalScanned
	ses.TotalMatched = c.TotalMatched
	ses.TotalMissing = c.TotalMissing
	ses.TotalUnexpected = c.TotalUnexpected
	return nil
}

func (s *stubSessions) ListByOrganization(context.Context, string, int, int) ([]*entity.InventorySession, error) {
	return nil, nil
}

type stubAssets struct {
	byID map[string]*entity.Asset
}

func (s *stubAssets) GetByID(_ context.Context, id string) (*entity.Asset, error) {
	if a, ok := s.byID[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (s *stubAssets) ResolveCode(context.Context, string, string) (*entity.Asset, error) {
	return nil, nil
}

func (s *stubAssets) ListByScope(context.Context, string, string, []string) ([]*entity.Asset, error) {
	return nil, nil
}

func (s *stubAssets) ListByIDs(_ context.Context, ids []string) ([]*entity.Asset, error) {
	var out []*entity.Asset
	for _, id := range ids {
		if a, ok := s.byID[id]; ok {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubAssets) BarcodeIndex(context.Context, string) ([]repository.BarcodeRef, error) {
	return nil, nil
}

type stubLogs struct {
	byID map[string]*entity.AiRecognitionLog
}

func (s *stubLogs) Create(_ context.Context, l *entity.AiRecognitionLog) error {
	c := *l
	s.byID[l.ID] = &c
	return nil
}

func (s *stubLogs) GetByID(_ context.Context, id string) (*entity.AiRecognitionLog, error) {
	if l, ok := s.byID[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

func (s *stubLogs) RecordDecision(_ context.Context, id, decision, userID string, at time.Time) error {
	l, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if l.Decision != "" {
		return domain.ErrDecisionRecorded
	}
	l.Decision = decision
	l.DecidedBy = userID
	l.DecidedAt = &at
	return nil
}

func (s *stubLogs) CountSince(context.Context, string, time.Time) (int, error) { return 0, nil }

type stubTx struct {
	items    *stubItems
	tasks    *stubTasks
	sessions *stubSessions
	logs     *stubLogs
}

func (s *stubTx) Run(ctx context.Context, fn func(
	repository.InventoryItemRepository,
	repository.TaskRepository,
	repository.SessionRepository,
) error) error {
	return fn(s.items, s.tasks, s.sessions)
}

func (s *stubTx) RunVision(ctx context.Context, fn func(
	repository.InventoryItemRepository,
	repository.TaskRepository,
	repository.SessionRepository,
	repository.RecognitionLogRepository,
) error) error {
	return fn(s.items, s.tasks, s.sessions, s.logs)
}

type noopResolver struct{}

func (noopResolver) DisplayName(context.Context, string, string) (string, error) { return "", nil }

type noopNotifier struct{}

func (noopNotifier) TaskCompleted(context.Context, *entity.InventoryTask, *entity.InventorySession, string) error {
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado del escenario: sesión in_progress con dos esperados, tarea asignada
// al trabajador, dos proveedores scripteables.
// ──────────────────────────────────────────────────────────────────────────────

type visionWorld struct {
	items     *stubItems
	tasks     *stubTasks
	sessions  *stubSessions
	assets    *stubAssets
	logs      *stubLogs
	plans     *stubPlans
	anthropic *stubProvider
	gemini    *stubProvider
	uc        *vision.UseCase
}

func newVisionWorld(tier string) *visionWorld {
	now := time.Now().Add(-time.Hour)
	w := &visionWorld{
		items:    &stubItems{byID: map[string]*entity.InventoryItem{}},
		tasks:    &stubTasks{byID: map[string]*entity.InventoryTask{}},
		sessions: &stubSessions{byID: map[string]*entity.InventorySession{}},
		assets:   &stubAssets{byID: map[string]*entity.Asset{}},
		logs:     &stubLogs{byID: map[string]*entity.AiRecognitionLog{}},
		plans:    &stubPlans{tier: tier},
		anthropic: &stubProvider{name: vision.ProviderAnthropic, identify: &ports.IdentifyResult{
			Identification: "silla ergonómica negra",
			Matches:        []ports.CandidateMatch{{AssetID: "asset-1", Confidence: 0.92}},
		}, verify: &ports.VerifyResult{IsMatch: true, Confidence: 0.95, Reasoning: "coincide"}},
		gemini: &stubProvider{name: vision.ProviderGemini, identify: &ports.IdentifyResult{
			Identification: "silla de oficina",
			Matches:        []ports.CandidateMatch{{AssetID: "asset-1", Confidence: 0.75}},
		}, verify: &ports.VerifyResult{IsMatch: true, Confidence: 0.70, Reasoning: "probable"}},
	}

	w.sessions.byID[testSessionID] = &entity.InventorySession{
		ID:             testSessionID,
		OrganizationID: testOrgID,
		Status:         entity.SessionStatusInProgress,
		TotalExpected:  2,
		CreatedBy:      "user-manager",
		CreatedAt:      now,
	}
	w.tasks.byID[testTaskID] = &entity.InventoryTask{
		ID:        testTaskID,
		SessionID: testSessionID,
		Assignee:  entity.AssigneeRef{Kind: entity.AssigneeKindUser, ID: testWorkerID},
		Status:    entity.TaskStatusInProgress,
		CreatedAt: now,
	}
	for _, id := range []string{"asset-1", "asset-2"} {
		w.assets.byID[id] = &entity.Asset{
			ID: id, OrganizationID: testOrgID, Code: "ACT-" + id, Barcode: "BC-" + id, Name: "Activo " + id,
		}
		w.items.byID["item-"+id] = &entity.InventoryItem{
			ID: "item-" + id, SessionID: testSessionID, AssetID: id,
			Status: entity.ItemStatusExpected, CreatedAt: now, UpdatedAt: now,
		}
	}
	w.assets.byID["asset-extra"] = &entity.Asset{
		ID: "asset-extra", OrganizationID: testOrgID, Code: "ACT-extra", Barcode: "BC-extra", Name: "Extra",
	}

	tx := &stubTx{items: w.items, tasks: w.tasks, sessions: w.sessions, logs: w.logs}
	taskUC := audit.NewTaskUseCase(tx, w.tasks, w.sessions, w.items, w.assets, noopResolver{}, noopNotifier{})
	w.uc = vision.NewUseCase(
		[]ports.VisionService{w.anthropic, w.gemini},
		w.plans, taskUC, tx, w.logs, w.items, w.assets,
	)
	return w
}

func identifyInput() vision.IdentifyInput {
	return vision.IdentifyInput{
		OrganizationID: testOrgID,
		UserID:         testWorkerID,
		Role:           entity.RoleWorker,
		TaskID:         testTaskID,
		PhotoBase64:    "Zm90bw==",
	}
}

func verifyInput(assetID string) vision.VerifyInput {
	return vision.VerifyInput{
		OrganizationID: testOrgID,
		UserID:         testWorkerID,
		Role:           entity.RoleWorker,
		TaskID:         testTaskID,
		AssetID:        assetID,
		PhotoBase64:    "Zm90bw==",
	}
}
