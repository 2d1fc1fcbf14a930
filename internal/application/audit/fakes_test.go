package audit_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria de los puertos de persistencia. Respetan los contratos
// documentados en internal/domain/repository: ErrDuplicateItem en el alta
// duplicada, Update sin contadores, UpdateCounters solo contadores.
// ──────────────────────────────────────────────────────────────────────────────

func cloneItem(i *entity.InventoryItem) *entity.InventoryItem { c := *i; return &c }

func cloneTask(t *entity.InventoryTask) *entity.InventoryTask { c := *t; return &c }

func cloneSession(s *entity.InventorySession) *entity.InventorySession { c := *s; return &c }

func cloneAsset(a *entity.Asset) *entity.Asset { c := *a; return &c }

// memItems implementa el ledger en memoria.
type memItems struct {
	mu   sync.Mutex
	byID map[string]*entity.InventoryItem
	// assetLocation permite filtrar ListByTaskScope por ubicación sin
	// acoplar el fake al repo de activos.
	assetLocation map[string]string
}

func newMemItems() *memItems {
	return &memItems{byID: map[string]*entity.InventoryItem{}, assetLocation: map[string]string{}}
}

func (m *memItems) Create(_ context.Context, item *entity.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.byID {
		if it.SessionID == item.SessionID && it.AssetID == item.AssetID {
			return domain.ErrDuplicateItem
		}
	}
	m.byID[item.ID] = cloneItem(item)
	return nil
}

func (m *memItems) BulkCreateExpected(ctx context.Context, items []*entity.InventoryItem) error {
	for _, it := range items {
		if err := m.Create(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (m *memItems) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneItem(it), nil
}

func (m *memItems) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return m.GetByID(ctx, id)
}

func (m *memItems) GetBySessionAndAsset(_ context.Context, sessionID, assetID string) (*entity.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.byID {
		if it.SessionID == sessionID && it.AssetID == assetID {
			return cloneItem(it), nil
		}
	}
	return nil, nil
}

func (m *memItems) GetBySessionAndAssetForUpdate(ctx context.Context, sessionID, assetID string) (*entity.InventoryItem, error) {
	return m.GetBySessionAndAsset(ctx, sessionID, assetID)
}

func (m *memItems) Update(_ context.Context, item *entity.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[item.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[item.ID] = cloneItem(item)
	return nil
}

func (m *memItems) ListBySession(_ context.Context, sessionID string) ([]*entity.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.InventoryItem
	for _, it := range m.byID {
		if it.SessionID == sessionID {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memItems) ListByTaskScope(ctx context.Context, sessionID, locationID string) ([]*entity.InventoryItem, error) {
	all, err := m.ListBySession(ctx, sessionID)
	if err != nil || locationID == "" {
		return all, err
	}
	var out []*entity.InventoryItem
	for _, it := range all {
		if m.assetLocation[it.AssetID] == locationID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memItems) Counts(_ context.Context, sessionID string) (repository.ItemCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c repository.ItemCounts
	for _, it := range m.byID {
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

func (m *memItems) BulkMarkMissing(_ context.Context, sessionID string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.byID {
		if it.SessionID == sessionID && it.Status == entity.ItemStatusExpected {
			it.Status = entity.ItemStatusMissing
			it.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (m *memItems) ChangedSince(ctx context.Context, sessionID, locationID string, since time.Time) (int, *time.Time, error) {
	scope, err := m.ListByTaskScope(ctx, sessionID, locationID)
	if err != nil {
		return 0, nil, err
	}
	n := 0
	var last *time.Time
	for _, it := range scope {
		if it.UpdatedAt.After(since) {
			n++
		}
		if last == nil || it.UpdatedAt.After(*last) {
			u := it.UpdatedAt
			last = &u
		}
	}
	return n, last, nil
}

// memTasks implementa el repo de tareas en memoria.
type memTasks struct {
	mu   sync.Mutex
	byID map[string]*entity.InventoryTask
}

func newMemTasks() *memTasks { return &memTasks{byID: map[string]*entity.InventoryTask{}} }

func (m *memTasks) Create(_ context.Context, task *entity.InventoryTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[task.ID] = cloneTask(task)
	return nil
}

func (m *memTasks) GetByID(_ context.Context, id string) (*entity.InventoryTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneTask(t), nil
}

func (m *memTasks) GetForUpdate(ctx context.Context, id string) (*entity.InventoryTask, error) {
	return m.GetByID(ctx, id)
}

func (m *memTasks) Update(_ context.Context, task *entity.InventoryTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[task.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[task.ID] = cloneTask(task)
	return nil
}

func (m *memTasks) ListForUser(_ context.Context, _, userID, statusFilter string, _, _ int) ([]repository.TaskSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.TaskSummary
	for _, t := range m.byID {
		if statusFilter != "" && t.Status != statusFilter {
			continue
		}
		if t.Assignee.Kind == entity.AssigneeKindUser && t.Assignee.ID != userID {
			continue
		}
		out = append(out, repository.TaskSummary{Task: cloneTask(t)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task.ID < out[j].Task.ID })
	return out, nil
}

// memSessions implementa el repo de sesiones en memoria. Update respeta el
// contrato real: no reescribe contadores (incluido TotalExpected).
type memSessions struct {
	mu   sync.Mutex
	byID map[string]*entity.InventorySession
}

func newMemSessions() *memSessions { return &memSessions{byID: map[string]*entity.InventorySession{}} }

func (m *memSessions) Create(_ context.Context, s *entity.InventorySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = cloneSession(s)
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (*entity.InventorySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (m *memSessions) Update(_ context.Context, s *entity.InventorySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := cloneSession(s)
	next.TotalExpected = stored.TotalExpected
	next.TotalScanned = stored.TotalScanned
	next.TotalMatched = stored.TotalMatched
	next.TotalMissing = stored.TotalMissing
	next.TotalUnexpected = stored.TotalUnexpected
	m.byID[s.ID] = next
	return nil
}

func (m *memSessions) UpdateCounters(_ context.Context, sessionID string, c repository.SessionCounters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.TotalScanned = c.TotalScanned
	s.TotalMatched = c.TotalMatched
	s.TotalMissing = c.TotalMissing
	s.TotalUnexpected = c.TotalUnexpected
	return nil
}

func (m *memSessions) ListByOrganization(_ context.Context, organizationID string, limit, offset int) ([]*entity.InventorySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.InventorySession
	for _, s := range m.byID {
		if s.OrganizationID == organizationID {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// memAssets implementa el directorio de activos (solo lectura) en memoria.
type memAssets struct {
	byID map[string]*entity.Asset
}

func newMemAssets() *memAssets { return &memAssets{byID: map[string]*entity.Asset{}} }

func (m *memAssets) GetByID(_ context.Context, id string) (*entity.Asset, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneAsset(a), nil
}

func (m *memAssets) ResolveCode(_ context.Context, organizationID, code string) (*entity.Asset, error) {
	// Misma precedencia que el repo real: barcode, luego code, luego tags.
	for _, a := range m.byID {
		if a.OrganizationID == organizationID && a.Barcode == code {
			return cloneAsset(a), nil
		}
	}
	for _, a := range m.byID {
		if a.OrganizationID == organizationID && a.Code == code {
			return cloneAsset(a), nil
		}
	}
	for _, a := range m.byID {
		if a.OrganizationID != organizationID {
			continue
		}
		for _, tag := range a.Tags {
			if tag.Value == code {
				return cloneAsset(a), nil
			}
		}
	}
	return nil, nil
}

func (m *memAssets) ListByScope(_ context.Context, organizationID, scopeType string, scopeIDs []string) ([]*entity.Asset, error) {
	in := func(id string) bool {
		for _, s := range scopeIDs {
			if s == id {
				return true
			}
		}
		return false
	}
	var out []*entity.Asset
	for _, a := range m.byID {
		if a.OrganizationID != organizationID {
			continue
		}
		switch scopeType {
		case entity.SessionScopeAll:
			out = append(out, cloneAsset(a))
		case entity.SessionScopeLocation:
			if in(a.LocationID) {
				out = append(out, cloneAsset(a))
			}
		case entity.SessionScopeCategory:
			if in(a.CategoryID) {
				out = append(out, cloneAsset(a))
			}
		case entity.SessionScopeDepartment:
			if in(a.DepartmentID) {
				out = append(out, cloneAsset(a))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAssets) ListByIDs(_ context.Context, ids []string) ([]*entity.Asset, error) {
	var out []*entity.Asset
	for _, id := range ids {
		if a, ok := m.byID[id]; ok {
			out = append(out, cloneAsset(a))
		}
	}
	return out, nil
}

func (m *memAssets) BarcodeIndex(_ context.Context, organizationID string) ([]repository.BarcodeRef, error) {
	var out []repository.BarcodeRef
	for _, a := range m.byID {
		if a.OrganizationID == organizationID {
			out = append(out, repository.BarcodeRef{AssetID: a.ID, Code: a.Code, Barcode: a.Barcode})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

// memLogs implementa el repo de logs de reconocimiento en memoria.
type memLogs struct {
	mu   sync.Mutex
	byID map[string]*entity.AiRecognitionLog
}

func newMemLogs() *memLogs { return &memLogs{byID: map[string]*entity.AiRecognitionLog{}} }

func (m *memLogs) Create(_ context.Context, log *entity.AiRecognitionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *log
	m.byID[log.ID] = &c
	return nil
}

func (m *memLogs) GetByID(_ context.Context, id string) (*entity.AiRecognitionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (m *memLogs) RecordDecision(_ context.Context, id, decision, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
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

func (m *memLogs) CountSince(_ context.Context, organizationID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.byID {
		if l.OrganizationID == organizationID && !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// fakeTx ejecuta la función directamente sobre los fakes: no hay transacción
// real, pero preserva el contrato de pasar repos "atados" a la operación.
type fakeTx struct {
	items    *memItems
	tasks    *memTasks
	sessions *memSessions
	logs     *memLogs
}

func (f *fakeTx) Run(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	taskRepo repository.TaskRepository,
	sessionRepo repository.SessionRepository,
) error) error {
	return fn(f.items, f.tasks, f.sessions)
}

func (f *fakeTx) RunVision(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	taskRepo repository.TaskRepository,
	sessionRepo repository.SessionRepository,
	logRepo repository.RecognitionLogRepository,
) error) error {
	return fn(f.items, f.tasks, f.sessions, f.logs)
}

// fakeNotifier registra las notificaciones emitidas.
type fakeNotifier struct {
	calls []string // "taskID→actorID"
}

func (f *fakeNotifier) TaskCompleted(_ context.Context, task *entity.InventoryTask, _ *entity.InventorySession, actorID string) error {
	f.calls = append(f.calls, task.ID+"→"+actorID)
	return nil
}

// fakeResolver resuelve nombres de asignatario desde un mapa fijo.
type fakeResolver struct {
	names map[string]string // kind+":"+id → nombre
}

func (f *fakeResolver) DisplayName(_ context.Context, kind, id string) (string, error) {
	if n, ok := f.names[kind+":"+id]; ok {
		return n, nil
	}
	return "", domain.ErrNotFound
}

// fakeReports genera un PDF trivial.
type fakeReports struct{}

func (fakeReports) GenerateSessionReport(_ context.Context, _ *entity.InventorySession, _ []*entity.InventoryItem, _ map[string]*entity.Asset) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

// Verificación estática de los contratos.
var (
	_ repository.InventoryItemRepository  = (*memItems)(nil)
	_ repository.TaskRepository           = (*memTasks)(nil)
	_ repository.SessionRepository        = (*memSessions)(nil)
	_ repository.AssetRepository          = (*memAssets)(nil)
	_ repository.RecognitionLogRepository = (*memLogs)(nil)
	_ repository.AssigneeResolver         = (*fakeResolver)(nil)
	_ audit.TxRunner                      = (*fakeTx)(nil)
	_ audit.Notifier                      = (*fakeNotifier)(nil)
	_ audit.ReportGenerator               = (*fakeReports)(nil)
)

// ──────────────────────────────────────────────────────────────────────────────
// Mundo de prueba: una organización con tres activos, una sesión in_progress
// sembrada con sus esperados y una tarea asignada a un trabajador.
// ──────────────────────────────────────────────────────────────────────────────

const (
	testOrgID     = "org-1"
	testOtherOrg  = "org-2"
	testManagerID = "user-manager"
	testWorkerID  = "user-worker"
	testOtherUser = "user-otro"
	testSessionID = "ses-1"
	testTaskID    = "task-1"
	testLocationA = "loc-a"
)

type world struct {
	items    *memItems
	tasks    *memTasks
	sessions *memSessions
	assets   *memAssets
	logs     *memLogs
	tx       *fakeTx
	notifier *fakeNotifier
}

// newWorld arma el estado base. Los activos asset-1..3 quedan como ítems
// expected de la sesión; asset-extra pertenece a la organización pero está
// fuera del alcance (candidato a unexpected).
func newWorld() *world {
	w := &world{
		items:    newMemItems(),
		tasks:    newMemTasks(),
		sessions: newMemSessions(),
		assets:   newMemAssets(),
		logs:     newMemLogs(),
		notifier: &fakeNotifier{},
	}
	w.tx = &fakeTx{items: w.items, tasks: w.tasks, sessions: w.sessions, logs: w.logs}

	base := time.Now().Add(-time.Hour)
	for _, id := range []string{"asset-1", "asset-2", "asset-3", "asset-extra"} {
		w.assets.byID[id] = &entity.Asset{
			ID:             id,
			OrganizationID: testOrgID,
			Code:           "ACT-" + id,
			Barcode:        "BC-" + id,
			Name:           "Activo " + id,
			LocationID:     testLocationA,
			Status:         entity.AssetStatusActive,
			CreatedAt:      base,
			UpdatedAt:      base,
		}
		w.items.assetLocation[id] = testLocationA
	}

	started := base.Add(5 * time.Minute)
	w.sessions.byID[testSessionID] = &entity.InventorySession{
		ID:             testSessionID,
		OrganizationID: testOrgID,
		Name:           "Inventario anual",
		Status:         entity.SessionStatusInProgress,
		ScopeType:      entity.SessionScopeLocation,
		ScopeIDs:       []string{testLocationA},
		TotalExpected:  3,
		CreatedBy:      testManagerID,
		StartedAt:      &started,
		CreatedAt:      base,
		UpdatedAt:      base,
	}

	for _, id := range []string{"asset-1", "asset-2", "asset-3"} {
		w.items.byID["item-"+id] = &entity.InventoryItem{
			ID:        "item-" + id,
			SessionID: testSessionID,
			AssetID:   id,
			Status:    entity.ItemStatusExpected,
			CreatedAt: base,
			UpdatedAt: base,
		}
	}

	w.tasks.byID[testTaskID] = &entity.InventoryTask{
		ID:        testTaskID,
		SessionID: testSessionID,
		Assignee:  entity.AssigneeRef{Kind: entity.AssigneeKindUser, ID: testWorkerID},
		Status:    entity.TaskStatusInProgress,
		StartedAt: &started,
		CreatedAt: base,
		UpdatedAt: base,
	}
	return w
}

func (w *world) scanUC() *audit.ScanUseCase {
	return audit.NewScanUseCase(w.tx, w.assets, w.tasks, w.sessions, w.items)
}

func (w *world) taskUC() *audit.TaskUseCase {
	resolver := &fakeResolver{names: map[string]string{
		"user:" + testWorkerID: "Trabajador Uno",
	}}
	return audit.NewTaskUseCase(w.tx, w.tasks, w.sessions, w.items, w.assets, resolver, w.notifier)
}

func (w *world) syncUC() *audit.SyncUseCase {
	return audit.NewSyncUseCase(w.tx, w.tasks, w.sessions, w.items)
}

func (w *world) sessionUC() *audit.SessionUseCase {
	return audit.NewSessionUseCase(w.tx, w.sessions, w.tasks, w.items, w.assets, fakeReports{})
}

func (w *world) session(id string) *entity.InventorySession {
	s, _ := w.sessions.GetByID(context.Background(), id)
	return s
}

func (w *world) item(id string) *entity.InventoryItem {
	it, _ := w.items.GetByID(context.Background(), id)
	return it
}

func workerInput(taskID string) audit.TaskActionInput {
	return audit.TaskActionInput{
		OrganizationID: testOrgID,
		UserID:         testWorkerID,
		Role:           entity.RoleWorker,
		TaskID:         taskID,
	}
}

func managerInput(taskID string) audit.TaskActionInput {
	return audit.TaskActionInput{
		OrganizationID: testOrgID,
		UserID:         testManagerID,
		Role:           entity.RoleManager,
		TaskID:         taskID,
	}
}
