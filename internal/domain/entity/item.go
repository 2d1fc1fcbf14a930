package entity

import "time"

// Estados de un ítem del ledger de reconciliación.
const (
	ItemStatusExpected   = "expected"
	ItemStatusFound      = "found"
	ItemStatusMissing    = "missing"
	ItemStatusUnexpected = "unexpected"
)

// Métodos de identificación de un escaneo.
const (
	MethodBarcode  = "barcode"
	MethodAiVision = "ai_vision"
	MethodManual   = "manual"
)

// InventoryItem es una fila del ledger: el estado esperado/observado de un
// activo dentro de una sesión. Invariante: a lo sumo un ítem por
// (session, asset), garantizado por constraint único en la base.
// Los ítems nunca se borran durante la vida de la sesión.
type InventoryItem struct {
	ID                   string
	SessionID            string
	TaskID               string // tarea que lo escaneó; vacío hasta el primer escaneo
	AssetID              string
	Status               string
	ScannedAt            *time.Time
	ScannedBy            string
	IdentificationMethod string
	RecognitionLogID     string // referencia al log de IA cuando Method es ai_vision
	AiConfidence         *float64
	ConditionNotes       string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Scanned informa si el ítem ya registró algún escaneo.
func (i *InventoryItem) Scanned() bool { return i.ScannedAt != nil }

// MarkFound aplica la transición a found estampando quién, cuándo y cómo.
func (i *InventoryItem) MarkFound(taskID, userID, method string, at time.Time) {
	i.Status = ItemStatusFound
	i.TaskID = taskID
	i.ScannedBy = userID
	i.IdentificationMethod = method
	i.ScannedAt = &at
	i.UpdatedAt = at
}
