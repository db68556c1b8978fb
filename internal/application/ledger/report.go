// Package ledger orquesta el kardex: lectura del historial, cálculo y exportación.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	core "github.com/jhoicas/kardex-api/internal/domain/ledger"
)

// SeedSource origen del saldo inicial global del historial.
type SeedSource string

const (
	SeedFromUpstream SeedSource = "upstream" // resumen del origen sin periodo
	SeedFromOpenings SeedSource = "openings" // suma de las entradas de apertura
	SeedFromRequest  SeedSource = "request"  // informado por el cliente (preview)
)

// StockCardReport resultado del kardex para un producto y periodo.
// Projection.Rows está siempre en orden cronológico; DisplayRows aplica el orden pedido.
type StockCardReport struct {
	ProductID       string
	WarehouseID     string
	Range           entity.DateRange
	Descending      bool
	SeedQty         decimal.Decimal
	SeedCost        decimal.Decimal
	SeedSource      SeedSource
	Projection      entity.Projection
	Summary         entity.PeriodSummary
	UnknownRefTypes []entity.RefType
	Reconciliation  *Reconciliation
}

// DisplayRows filas en el orden de presentación.
func (r *StockCardReport) DisplayRows() []entity.RunningBalance {
	if r.Descending {
		return core.Reverse(r.Projection.Rows)
	}
	return r.Projection.Rows
}

// FieldDiff diferencia de un campo entre el cálculo local y el resumen del origen.
type FieldDiff struct {
	Field    string
	Local    decimal.Decimal
	Upstream decimal.Decimal
}

// Delta local - upstream.
func (d FieldDiff) Delta() decimal.Decimal {
	return d.Local.Sub(d.Upstream)
}

// Reconciliation comparación con el resumen del origen. Available es false cuando el
// origen no expone resumen para el periodo.
type Reconciliation struct {
	Available bool
	Diffs     []FieldDiff
}

// Matches indica que el origen respondió y no hay diferencias.
func (r *Reconciliation) Matches() bool {
	return r != nil && r.Available && len(r.Diffs) == 0
}

// reconcile compara campo a campo. La apertura solo se compara si el origen la informa.
func reconcile(local entity.PeriodSummary, up *entity.UpstreamSummary) *Reconciliation {
	if up == nil {
		return &Reconciliation{Available: false, Diffs: []FieldDiff{}}
	}
	type pair struct {
		field           string
		local, upstream decimal.Decimal
	}
	pairs := make([]pair, 0, 6)
	if up.HasOpening {
		pairs = append(pairs,
			pair{"opening_qty", local.OpeningQuantity, up.OpeningQty},
			pair{"opening_cost", local.OpeningCost, up.OpeningCost},
		)
	}
	pairs = append(pairs,
		pair{"qty_in", local.StockIn, up.QtyIn},
		pair{"qty_out", local.StockOut, up.QtyOut},
		pair{"cost_in", local.CostIn, up.CostIn},
		pair{"cost_out", local.CostOut, up.CostOut},
	)

	rec := &Reconciliation{Available: true, Diffs: []FieldDiff{}}
	for _, p := range pairs {
		if !p.local.Equal(p.upstream) {
			rec.Diffs = append(rec.Diffs, FieldDiff{Field: p.field, Local: p.local, Upstream: p.upstream})
		}
	}
	return rec
}

// buildReport es el cálculo puro compartido por GetStockCard y Preview.
func buildReport(entries []entity.NormalizedEntry, seedQty, seedCost decimal.Decimal, source SeedSource, r entity.DateRange, desc bool) StockCardReport {
	projection := core.Reproject(entries, seedQty, seedCost, r)
	unknown := core.DefaultedRefTypes(entries)
	if unknown == nil {
		unknown = []entity.RefType{}
	}
	return StockCardReport{
		Range:           r,
		Descending:      desc,
		SeedQty:         seedQty,
		SeedCost:        seedCost,
		SeedSource:      source,
		Projection:      projection,
		Summary:         core.SummarizeProjection(projection),
		UnknownRefTypes: unknown,
	}
}
