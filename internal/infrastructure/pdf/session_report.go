// Package pdf implementa la generación del acta de cierre de una sesión de
// inventario físico.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre de la sesión  │  Estado + Fechas            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Esperados / Escaneados / Coincidentes /           │
//	│           Faltantes / Inesperados                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA FALTANTES: Código | Nombre | Ubicación                │
//	│  TABLA INESPERADOS: Código | Nombre | Escaneado por/cuándo   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: Leyenda de generación                               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que implementa el puerto.
var _ audit.ReportGenerator = (*MarotoReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 40, Blue: 40}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa audit.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateSessionReport genera el acta de la sesión y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateSessionReport(
	_ context.Context,
	session *entity.InventorySession,
	items []*entity.InventoryItem,
	assets map[string]*entity.Asset,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de Inventario Físico", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(session))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(session))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	missing, unexpected := partitionItems(items)

	m.AddRows(sectionTitleRow(fmt.Sprintf("ACTIVOS FALTANTES (%d)", len(missing)), colorAlert))
	if len(missing) == 0 {
		m.AddRows(emptyNoticeRow("Sin activos faltantes."))
	} else {
		m.AddRows(missingHeaderRow())
		for _, it := range missing {
			m.AddRows(missingDetailRow(assets[it.AssetID]))
		}
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(sectionTitleRow(fmt.Sprintf("ACTIVOS INESPERADOS (%d)", len(unexpected)), colorPrimary))
	if len(unexpected) == 0 {
		m.AddRows(emptyNoticeRow("Sin activos inesperados."))
	} else {
		m.AddRows(unexpectedHeaderRow())
		for _, it := range unexpected {
			m.AddRows(unexpectedDetailRow(it, assets[it.AssetID]))
		}
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(session))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre de la sesión (izq) y estado + fechas (der).
func headerRow(session *entity.InventorySession) core.Row {
	period := "—"
	if session.StartedAt != nil {
		period = session.StartedAt.Format("02/01/2006")
		if session.CompletedAt != nil {
			period += " – " + session.CompletedAt.Format("02/01/2006")
		}
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("ACTA DE INVENTARIO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(session.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Top: 7,
			}),
		),
		col.New(5).Add(
			text.New("Estado: "+statusLabel(session.Status), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1,
			}),
			text.New("Período: "+period, props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// summaryRow: los cinco contadores de la sesión en una línea.
func summaryRow(session *entity.InventorySession) core.Row {
	counter := func(label string, value int, c *props.Color) core.Col {
		return col.New(2).Add(
			text.New(fmt.Sprintf("%d", value), props.Text{
				Style: fontstyle.Bold, Size: 13, Align: align.Center, Color: c, Top: 1,
			}),
			text.New(label, props.Text{
				Size: 7, Align: align.Center, Color: colorGray, Top: 9,
			}),
		)
	}
	return row.New(16).Add(
		col.New(1),
		counter("Esperados", session.TotalExpected, colorPrimary),
		counter("Escaneados", session.TotalScanned, colorPrimary),
		counter("Coincidentes", session.TotalMatched, colorPrimary),
		counter("Faltantes", session.TotalMissing, colorAlert),
		counter("Inesperados", session.TotalUnexpected, colorAlert),
		col.New(1),
	)
}

func sectionTitleRow(title string, c *props.Color) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: c, Top: 2}),
	))
}

func emptyNoticeRow(msg string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 8, Color: colorGray, Top: 1, Left: 2}),
	))
}

func missingHeaderRow() core.Row {
	return row.New(7).Add(
		tableHeader("Código", 2, align.Left),
		tableHeader("Nombre", 6, align.Left),
		tableHeader("Categoría", 4, align.Left),
	)
}

func missingDetailRow(asset *entity.Asset) core.Row {
	code, name, category := assetLabels(asset)
	return row.New(6).Add(
		tableCell(code, 2, align.Left),
		tableCell(name, 6, align.Left),
		tableCell(category, 4, align.Left),
	)
}

func unexpectedHeaderRow() core.Row {
	return row.New(7).Add(
		tableHeader("Código", 2, align.Left),
		tableHeader("Nombre", 5, align.Left),
		tableHeader("Método", 2, align.Center),
		tableHeader("Escaneado", 3, align.Right),
	)
}

func unexpectedDetailRow(item *entity.InventoryItem, asset *entity.Asset) core.Row {
	code, name, _ := assetLabels(asset)
	scanned := "—"
	if item.ScannedAt != nil {
		scanned = item.ScannedAt.Format("02/01/2006 15:04")
	}
	return row.New(6).Add(
		tableCell(code, 2, align.Left),
		tableCell(name, 5, align.Left),
		tableCell(item.IdentificationMethod, 2, align.Center),
		tableCell(scanned, 3, align.Right),
	)
}

func footerRow(session *entity.InventorySession) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(
			fmt.Sprintf("Acta generada automáticamente a partir del ledger de la sesión %s. "+
				"Los contadores reflejan el estado persistido al momento de la generación.", session.ID),
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func tableHeader(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 1,
	}))
}

func tableCell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1}))
}

// partitionItems separa los ítems del acta: faltantes e inesperados.
func partitionItems(items []*entity.InventoryItem) (missing, unexpected []*entity.InventoryItem) {
	for _, it := range items {
		switch it.Status {
		case entity.ItemStatusMissing:
			missing = append(missing, it)
		case entity.ItemStatusUnexpected:
			unexpected = append(unexpected, it)
		}
	}
	return missing, unexpected
}

func assetLabels(asset *entity.Asset) (code, name, category string) {
	if asset == nil {
		return "—", "(activo desconocido)", "—"
	}
	return asset.Code, asset.Name, nonEmpty(asset.CategoryID, "—")
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func statusLabel(status string) string {
	switch status {
	case entity.SessionStatusDraft:
		return "Borrador"
	case entity.SessionStatusInProgress:
		return "En curso"
	case entity.SessionStatusCompleted:
		return "Completada"
	case entity.SessionStatusCancelled:
		return "Cancelada"
	default:
		return status
	}
}
