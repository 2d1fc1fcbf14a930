package entity

import "time"

// Estados de ciclo de vida de un activo (independientes del estado de inventario).
const (
	AssetStatusActive      = "active"
	AssetStatusInRepair    = "in_repair"
	AssetStatusRetired     = "retired"
	AssetStatusDisposed    = "disposed"
	AssetStatusUnassigned  = "unassigned"
)

// Asset representa un activo físico identificable de una organización.
// El directorio de activos es de solo lectura para el motor de auditoría:
// la creación/edición pertenece a la administración de activos.
type Asset struct {
	ID             string
	OrganizationID string
	Code           string // código interno de activo, único por organización
	Barcode        string // código de barras físico, único por organización
	Name           string
	CategoryID     string
	LocationID     string
	DepartmentID   string
	Status         string
	Tags           []AssetTag // identificadores adicionales (serial en QR, RFID, etc.)
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AssetTag es un identificador adicional ligado a un activo (clave → valor).
// El valor participa en la resolución de escaneos igual que barcode y code.
type AssetTag struct {
	AssetID string
	Key     string // ej. "serial", "rfid", "qr"
	Value   string
}

// TagValue devuelve el valor del tag con la clave dada, o "" si no existe.
func (a *Asset) TagValue(key string) string {
	for _, t := range a.Tags {
		if t.Key == key {
			return t.Value
		}
	}
	return ""
}
