// Package pdf genera la representación imprimible del kardex (tarjeta de inventario).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Producto / Bodega  │  Periodo + Emisión   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDO INICIAL: cantidad + costo                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Documento | Tipo | Entrada | Salida | Saldo │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Entradas / Salidas / Saldo final                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

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

	appledger "github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorHeader  = &props.Color{Red: 0, Green: 70, Blue: 127}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ledger.StockCardPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	nf  *NumberFormatter
	loc *time.Location
	now func() time.Time
}

// NewMarotoPDFGenerator construye el generador. locale sigue BCP 47 ("es-CO", "en-US");
// loc es la zona en la que se imprimen las fechas.
func NewMarotoPDFGenerator(locale string, loc *time.Location) *MarotoPDFGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &MarotoPDFGenerator{nf: NewNumberFormatter(locale), loc: loc, now: time.Now}
}

// GenerateStockCardPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateStockCardPDF(_ context.Context, report *appledger.StockCardReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex "+report.ProductID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.openingRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range g.movementRows(report.DisplayRows()) {
		m.AddRows(r)
	}
	if len(report.Projection.Rows) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos en el periodo", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(report.Summary))

	if rec := report.Reconciliation; rec != nil {
		m.AddRows(line.NewRow(3))
		for _, r := range g.reconciliationRows(rec) {
			m.AddRows(r)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título + producto/bodega (izq) y periodo + fecha de emisión (der).
func (g *MarotoPDFGenerator) headerRow(r *appledger.StockCardReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("KARDEX · TARJETA DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Producto: "+nonEmpty(r.ProductID, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
			text.New("Bodega: "+nonEmpty(r.WarehouseID, "Todas"), props.Text{
				Size: 9, Top: 13, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("PERIODO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(g.period(r.Range), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 6,
			}),
			text.New("Emitido: "+g.now().In(g.loc).Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// openingRow: saldo inicial del periodo.
func (g *MarotoPDFGenerator) openingRow(r *appledger.StockCardReport) core.Row {
	return row.New(10).Add(
		col.New(4).Add(text.New("SALDO INICIAL", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 3,
		})),
		col.New(4).Add(text.New("Cantidad: "+g.nf.Quantity(r.Projection.OpeningQuantity), props.Text{
			Size: 8, Top: 3,
		})),
		col.New(4).Add(text.New("Costo: "+g.nf.Money(r.Projection.OpeningCost), props.Text{
			Size: 8, Top: 3, Align: align.Right, Right: 1,
		})),
	)
}

// tableHeaderRow: cabecera de la tabla de movimientos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(7).Add(
		h("Fecha", 2, align.Left),
		h("Documento", 3, align.Left),
		h("Tipo", 1, align.Center),
		h("Entrada", 1, align.Right),
		h("Salida", 1, align.Right),
		h("Saldo", 2, align.Right),
		h("Costo saldo", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorHeader})
}

// movementRows: una fila por movimiento en el orden de presentación.
func (g *MarotoPDFGenerator) movementRows(rows []entity.RunningBalance) []core.Row {
	result := make([]core.Row, 0, len(rows))
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	for _, r := range rows {
		in, out := "", ""
		switch {
		case r.SignedQuantity.IsPositive():
			in = g.nf.Quantity(r.SignedQuantity)
		case r.SignedQuantity.IsNegative():
			out = g.nf.Quantity(r.SignedQuantity.Neg())
		}
		date := "-"
		if !r.Date.IsZero() {
			date = r.Date.In(g.loc).Format("02/01/2006 15:04")
		}
		result = append(result, row.New(6).Add(
			cell(date, 2, align.Left),
			cell(r.DocumentRef, 3, align.Left),
			cell(string(r.RefType), 1, align.Center),
			cell(in, 1, align.Right),
			cell(out, 1, align.Right),
			cell(g.nf.Quantity(r.UnitBalanceAfter), 2, align.Right),
			cell(g.nf.Money(r.CostBalanceAfter), 2, align.Right),
		))
	}
	return result
}

// totalsRow: entradas, salidas y saldo final alineados a la derecha.
func (g *MarotoPDFGenerator) totalsRow(s entity.PeriodSummary) core.Row {
	label := func(v string) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2})
	}
	grand := func(v string) core.Component {
		return text.New(v, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12,
		})
	}
	return row.New(20).Add(
		col.New(4),
		col.New(2).Add(
			label("Entradas:"),
			text.New("Salidas:", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2, Top: 6}),
			text.New("SALDO FINAL:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Right: 2, Top: 12}),
		),
		col.New(3).Add(
			text.New(g.nf.Quantity(s.StockIn), props.Text{Size: 8, Align: align.Right, Right: 1}),
			text.New(g.nf.Quantity(s.StockOut), props.Text{Size: 8, Align: align.Right, Right: 1, Top: 6}),
			grand(g.nf.Quantity(s.StockEnding)),
		),
		col.New(3).Add(
			text.New(g.nf.Money(s.CostIn), props.Text{Size: 8, Align: align.Right, Right: 1}),
			text.New(g.nf.Money(s.CostOut), props.Text{Size: 8, Align: align.Right, Right: 1, Top: 6}),
			grand(g.nf.Money(s.CostEnding)),
		),
	)
}

// reconciliationRows: resultado de la comparación con el resumen del origen.
func (g *MarotoPDFGenerator) reconciliationRows(rec *appledger.Reconciliation) []core.Row {
	status := "Coincide con el resumen del origen"
	switch {
	case !rec.Available:
		status = "El origen no expone resumen para el periodo"
	case !rec.Matches():
		status = fmt.Sprintf("%d diferencia(s) con el resumen del origen", len(rec.Diffs))
	}
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("CONCILIACIÓN: "+status, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)),
	}
	for _, d := range rec.Diffs {
		rows = append(rows, row.New(5).Add(
			col.New(3).Add(text.New(d.Field, props.Text{Size: 7.5, Left: 2, Top: 1})),
			col.New(3).Add(text.New("Local: "+g.nf.Quantity(d.Local), props.Text{Size: 7.5, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New("Origen: "+g.nf.Quantity(d.Upstream), props.Text{Size: 7.5, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New("Δ "+g.nf.Quantity(d.Delta()), props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1, Color: colorGray})),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *MarotoPDFGenerator) period(r entity.DateRange) string {
	from, to := "Inicio", "Hoy"
	if r.From != nil {
		from = r.From.In(g.loc).Format("02/01/2006")
	}
	if r.To != nil {
		to = r.To.In(g.loc).Format("02/01/2006")
	}
	return from + " – " + to
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
