package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Summarize reduce las filas de un periodo a sus totales. Con rows vacío el saldo final
// es el inicial.
func Summarize(openingQty, openingCost decimal.Decimal, rows []entity.RunningBalance) entity.PeriodSummary {
	s := entity.PeriodSummary{
		OpeningQuantity: openingQty,
		OpeningCost:     openingCost,
		StockIn:         decimal.Zero,
		StockOut:        decimal.Zero,
		CostIn:          decimal.Zero,
		CostOut:         decimal.Zero,
		StockEnding:     openingQty,
		CostEnding:      openingCost,
	}
	for _, r := range rows {
		switch r.SignedQuantity.Sign() {
		case 1:
			s.StockIn = s.StockIn.Add(r.SignedQuantity)
		case -1:
			s.StockOut = s.StockOut.Add(r.SignedQuantity.Abs())
		}
		switch r.SignedCost.Sign() {
		case 1:
			s.CostIn = s.CostIn.Add(r.SignedCost)
		case -1:
			s.CostOut = s.CostOut.Add(r.SignedCost.Abs())
		}
	}
	if n := len(rows); n > 0 {
		s.StockEnding = rows[n-1].UnitBalanceAfter
		s.CostEnding = rows[n-1].CostBalanceAfter
	}
	return s
}

// SummarizeProjection resume una proyección ya calculada.
func SummarizeProjection(p entity.Projection) entity.PeriodSummary {
	return Summarize(p.OpeningQuantity, p.OpeningCost, p.Rows)
}
