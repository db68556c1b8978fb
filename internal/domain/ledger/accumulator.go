package ledger

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Accumulate ordena cronológicamente una copia de entries y calcula los saldos
// acumulados partiendo del saldo inicial. Las entradas de apertura aparecen en la
// salida pero no mueven el saldo.
func Accumulate(entries []entity.NormalizedEntry, openingQty, openingCost decimal.Decimal) []entity.RunningBalance {
	sorted := SortEntries(entries)
	rows := make([]entity.RunningBalance, 0, len(sorted))
	unit, cost := openingQty, openingCost
	for _, e := range sorted {
		if !e.IsOpening {
			unit = unit.Add(e.SignedQuantity)
			cost = cost.Add(e.SignedCost)
		}
		rows = append(rows, entity.RunningBalance{
			NormalizedEntry:  e,
			UnitBalanceAfter: unit,
			CostBalanceAfter: cost,
		})
	}
	return rows
}

// SortEntries devuelve una copia ordenada por (fecha, secuencia, id).
func SortEntries(entries []entity.NormalizedEntry) []entity.NormalizedEntry {
	out := make([]entity.NormalizedEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return entryLess(out[i], out[j]) })
	return out
}

func entryLess(a, b entity.NormalizedEntry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	return compareIDs(a.ID, b.ID) < 0
}

// compareIDs: los IDs enteros van antes que los no numéricos y se comparan por valor;
// el resto se compara lexicográficamente. Es un orden total.
func compareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// SeedFromOpenings suma cantidad y costo (cantidad × costo unitario) de las entradas de
// apertura. Lo usa quien llama cuando la API no informa el saldo inicial.
func SeedFromOpenings(entries []entity.NormalizedEntry) (qty, cost decimal.Decimal) {
	qty, cost = decimal.Zero, decimal.Zero
	for _, e := range entries {
		if !e.IsOpening {
			continue
		}
		qty = qty.Add(e.Quantity)
		cost = cost.Add(e.Quantity.Mul(e.UnitCost))
	}
	return qty, cost
}

// Reverse devuelve una copia en orden inverso (más reciente primero, para pantalla).
func Reverse(rows []entity.RunningBalance) []entity.RunningBalance {
	out := make([]entity.RunningBalance, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}
