package dto

import "time"

// ── Tareas ────────────────────────────────────────────────────────────────────

// TaskResponse representación HTTP de una tarea.
type TaskResponse struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	AssigneeKind string     `json:"assignee_kind"`
	AssigneeID   string     `json:"assignee_id"`
	AssigneeName string     `json:"assignee_name,omitempty"`
	LocationID   string     `json:"location_id,omitempty"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// TaskSummaryResponse fila de listado con contadores del alcance de la tarea.
type TaskSummaryResponse struct {
	TaskResponse
	Expected int `json:"expected"`
	Scanned  int `json:"scanned"`
}

// ── Escaneo ───────────────────────────────────────────────────────────────────

// ScanRequest un escaneo de código contra una tarea.
type ScanRequest struct {
	Barcode string `json:"barcode" validate:"required,min=1,max=120"`
	Method  string `json:"method" validate:"omitempty,oneof=barcode manual"`
}

// ScanResponse disposición del escaneo dentro de la sesión.
type ScanResponse struct {
	Found          bool           `json:"found"`
	AlreadyScanned bool           `json:"already_scanned"`
	IsUnexpected   bool           `json:"is_unexpected"`
	Asset          *AssetResponse `json:"asset,omitempty"`
	Item           *ItemResponse  `json:"item,omitempty"`
}

// ConfirmUnexpectedRequest confirmación explícita de un activo fuera de alcance.
type ConfirmUnexpectedRequest struct {
	AssetID        string `json:"asset_id" validate:"required,uuid4"`
	ConditionNotes string `json:"condition_notes" validate:"omitempty,max=500"`
}

// MarkMissingRequest marca manualmente un ítem como faltante.
type MarkMissingRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid4"`
}

// ── Ítems y activos ───────────────────────────────────────────────────────────

// ItemResponse fila del ledger en respuestas HTTP.
type ItemResponse struct {
	ID                   string     `json:"id"`
	SessionID            string     `json:"session_id"`
	TaskID               string     `json:"task_id,omitempty"`
	AssetID              string     `json:"asset_id"`
	Status               string     `json:"status"`
	ScannedAt            *time.Time `json:"scanned_at,omitempty"`
	ScannedBy            string     `json:"scanned_by,omitempty"`
	IdentificationMethod string     `json:"identification_method,omitempty"`
	AiConfidence         *float64   `json:"ai_confidence,omitempty"`
	ConditionNotes       string     `json:"condition_notes,omitempty"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// AssetResponse activo en respuestas HTTP (directorio de solo lectura).
type AssetResponse struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	Barcode    string            `json:"barcode"`
	Name       string            `json:"name"`
	CategoryID string            `json:"category_id,omitempty"`
	LocationID string            `json:"location_id,omitempty"`
	Status     string            `json:"status"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// BarcodeIndexEntry entrada del índice de códigos para el bundle offline.
type BarcodeIndexEntry struct {
	AssetID string `json:"asset_id"`
	Code    string `json:"code"`
	Barcode string `json:"barcode"`
}

// TaskBundleResponse bundle offline completo de una tarea.
type TaskBundleResponse struct {
	Task             TaskResponse        `json:"task"`
	Session          SessionResponse     `json:"session"`
	Items            []ItemResponse      `json:"items"`
	Assets           []AssetResponse     `json:"assets"`
	AllAssetBarcodes []BarcodeIndexEntry `json:"all_asset_barcodes"`
}

// ── Sync offline ──────────────────────────────────────────────────────────────

// SyncScanEvent un evento de escaneo capturado sin conexión.
type SyncScanEvent struct {
	ItemID    string     `json:"item_id" validate:"omitempty,uuid4"`
	AssetID   string     `json:"asset_id" validate:"omitempty,uuid4"`
	Status    string     `json:"status" validate:"required,oneof=found missing unexpected"`
	ScannedAt *time.Time `json:"scanned_at" validate:"required"`
	Method    string     `json:"method" validate:"omitempty,oneof=barcode ai_vision manual"`
	Notes     string     `json:"notes" validate:"omitempty,max=500"`
}

// SyncRequest lote de eventos offline de una tarea.
type SyncRequest struct {
	Scans        []SyncScanEvent `json:"scans" validate:"required,dive"`
	TaskStatus   string          `json:"task_status" validate:"omitempty,oneof=in_progress completed"`
	TaskNotes    *string         `json:"task_notes" validate:"omitempty"`
	LastSyncedAt *time.Time      `json:"last_synced_at"`
}

// SyncConflict conflicto individual reportado al cliente (el servidor ganó).
type SyncConflict struct {
	ItemID          string     `json:"item_id"`
	AssetID         string     `json:"asset_id,omitempty"`
	Reason          string     `json:"reason"`
	ServerStatus    string     `json:"server_status,omitempty"`
	ServerScannedAt *time.Time `json:"server_scanned_at,omitempty"`
	ServerScannedBy string     `json:"server_scanned_by,omitempty"`
}

// SyncResponse resultado del lote: aplicados, conflictos y estado actual.
type SyncResponse struct {
	SyncedCount int            `json:"synced_count"`
	Conflicts   []SyncConflict `json:"conflicts"`
	Task        TaskResponse   `json:"task"`
	Items       []ItemResponse `json:"items"`
	SyncedAt    time.Time      `json:"synced_at"`
}

// SyncStatusResponse polling de cambios del lado servidor.
type SyncStatusResponse struct {
	HasChanges      bool       `json:"has_changes"`
	ItemsChanged    int        `json:"items_changed"`
	ServerUpdatedAt *time.Time `json:"server_updated_at,omitempty"`
}

// ── Sesiones ──────────────────────────────────────────────────────────────────

// CreateSessionTask especificación de una tarea al crear la sesión.
type CreateSessionTask struct {
	AssigneeKind string `json:"assignee_kind" validate:"required,oneof=user department location"`
	AssigneeID   string `json:"assignee_id" validate:"required,uuid4"`
	LocationID   string `json:"location_id" validate:"omitempty,uuid4"`
}

// CreateSessionRequest alta de una campaña de auditoría.
type CreateSessionRequest struct {
	Name      string              `json:"name" validate:"required,min=3,max=150"`
	ScopeType string              `json:"scope_type" validate:"required,oneof=all location category department"`
	ScopeIDs  []string            `json:"scope_ids" validate:"omitempty,dive,uuid4"`
	Tasks     []CreateSessionTask `json:"tasks" validate:"omitempty,dive"`
}

// SessionResponse sesión con sus contadores derivados.
type SessionResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	ScopeType       string     `json:"scope_type"`
	ScopeIDs        []string   `json:"scope_ids,omitempty"`
	TotalExpected   int        `json:"total_expected"`
	TotalScanned    int        `json:"total_scanned"`
	TotalMatched    int        `json:"total_matched"`
	TotalMissing    int        `json:"total_missing"`
	TotalUnexpected int        `json:"total_unexpected"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}
