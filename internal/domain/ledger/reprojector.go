package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Reproject recalcula el saldo inicial y las filas de un subrango [From, To] a partir del
// historial completo. El resultado es idéntico a acumular todo el historial y recortar
// las filas del rango.
func Reproject(all []entity.NormalizedEntry, openingQty, openingCost decimal.Decimal, r entity.DateRange) entity.Projection {
	qty, cost := openingQty, openingCost
	inRange := make([]entity.NormalizedEntry, 0, len(all))
	for _, e := range all {
		if r.From != nil && e.Date.Before(*r.From) {
			if !e.IsOpening {
				qty = qty.Add(e.SignedQuantity)
				cost = cost.Add(e.SignedCost)
			}
			continue
		}
		if r.To != nil && e.Date.After(*r.To) {
			continue
		}
		inRange = append(inRange, e)
	}
	return entity.Projection{
		OpeningQuantity: qty,
		OpeningCost:     cost,
		Rows:            Accumulate(inRange, qty, cost),
	}
}
