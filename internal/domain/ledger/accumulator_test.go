package ledger_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/ledger"
)

// scenarioEntries: apertura 100 @ 10, recepción 50 @ 12, venta 30 @ 12.
func scenarioEntries() []entity.NormalizedEntry {
	return ledger.NewNormalizer(nil).NormalizeAll([]entity.RawMovement{
		{ID: s("3"), Date: s("2025-01-10"), RefType: s("SALE"), Qty: s("30"), UnitCost: s("12"), Note: s("#POS-20250110-0001")},
		{ID: s("1"), Date: s("2025-01-01"), RefType: s("OPENING"), Qty: s("100"), UnitCost: s("10")},
		{ID: s("2"), Date: s("2025-01-05"), RefType: s("GR"), Qty: s("50"), UnitCost: s("12"), Note: s("GR-0001")},
	})
}

func TestAccumulate_EscenarioCompleto(t *testing.T) {
	entries := scenarioEntries()
	seedQty, seedCost := ledger.SeedFromOpenings(entries)
	assertDecimal(t, "100", seedQty)
	assertDecimal(t, "1000", seedCost)

	rows := ledger.Accumulate(entries, seedQty, seedCost)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"1", "2", "3"}, []string{rows[0].ID, rows[1].ID, rows[2].ID}, "orden cronológico")
	assertDecimal(t, "100", rows[0].UnitBalanceAfter, "la apertura no mueve el saldo sembrado")
	assertDecimal(t, "150", rows[1].UnitBalanceAfter)
	assertDecimal(t, "1600", rows[1].CostBalanceAfter)
	assertDecimal(t, "120", rows[2].UnitBalanceAfter)
	assertDecimal(t, "1240", rows[2].CostBalanceAfter)
}

func TestAccumulate_ConservacionDeSaldo(t *testing.T) {
	entries := randomEntries(7, 60)
	seedQty, seedCost := decimal.NewFromInt(5), decimal.RequireFromString("12.34")

	rows := ledger.Accumulate(entries, seedQty, seedCost)
	require.Len(t, rows, len(entries))

	wantQty, wantCost := seedQty, seedCost
	for _, e := range entries {
		wantQty = wantQty.Add(e.SignedQuantity)
		wantCost = wantCost.Add(e.SignedCost)
	}
	last := rows[len(rows)-1]
	assert.True(t, wantQty.Equal(last.UnitBalanceAfter), "saldo final = semilla + Σ deltas")
	assert.True(t, wantCost.Equal(last.CostBalanceAfter))
}

func TestAccumulate_AperturaNeutral(t *testing.T) {
	// una apertura construida a mano con delta distinto de cero sigue sin mover el saldo
	opening := entity.NormalizedEntry{
		ID:             "1",
		IsOpening:      true,
		Quantity:       decimal.NewFromInt(999),
		UnitCost:       decimal.NewFromInt(7),
		SignedQuantity: decimal.NewFromInt(999),
		SignedCost:     decimal.NewFromInt(6993),
	}
	rows := ledger.Accumulate([]entity.NormalizedEntry{opening}, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.Len(t, rows, 1)
	assertDecimal(t, "10", rows[0].UnitBalanceAfter)
	assertDecimal(t, "100", rows[0].CostBalanceAfter)
}

func TestAccumulate_DesempateDeterministaPorID(t *testing.T) {
	n := ledger.NewNormalizer(nil)
	raws := []entity.RawMovement{
		{ID: s("10"), Date: s("2025-01-01 09:00:00"), RefType: s("SALE"), Qty: s("1")},
		{ID: s("9"), Date: s("2025-01-01 09:00:00"), RefType: s("GR"), Qty: s("4")},
		{ID: s("abc"), Date: s("2025-01-01 09:00:00"), RefType: s("ADD"), Qty: s("2")},
	}
	reversed := []entity.RawMovement{raws[2], raws[1], raws[0]}

	a := ledger.Accumulate(n.NormalizeAll(raws), decimal.Zero, decimal.Zero)
	b := ledger.Accumulate(n.NormalizeAll(reversed), decimal.Zero, decimal.Zero)

	assert.Equal(t, []string{"9", "10", "abc"}, []string{a[0].ID, a[1].ID, a[2].ID}, "IDs numéricos por valor; luego no numéricos")

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb), "el orden de entrada no afecta la salida")
}

func TestAccumulate_SecuenciaAntesQueID(t *testing.T) {
	n := ledger.NewNormalizer(nil)
	entries := n.NormalizeAll([]entity.RawMovement{
		{ID: s("1"), Sequence: s("2"), Date: s("2025-01-01"), RefType: s("SALE"), Qty: s("1")},
		{ID: s("2"), Sequence: s("1"), Date: s("2025-01-01"), RefType: s("GR"), Qty: s("1")},
	})
	rows := ledger.Accumulate(entries, decimal.Zero, decimal.Zero)
	assert.Equal(t, "2", rows[0].ID)
	assert.Equal(t, "1", rows[1].ID)
}

func TestAccumulate_NoModificaLaEntrada(t *testing.T) {
	entries := scenarioEntries()
	firstID := entries[0].ID

	_ = ledger.Accumulate(entries, decimal.Zero, decimal.Zero)
	assert.Equal(t, firstID, entries[0].ID, "el slice del llamador conserva su orden")
}

func TestAccumulate_Vacio(t *testing.T) {
	rows := ledger.Accumulate(nil, decimal.NewFromInt(3), decimal.NewFromInt(30))
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestReverse(t *testing.T) {
	rows := ledger.Accumulate(scenarioEntries(), decimal.Zero, decimal.Zero)
	rev := ledger.Reverse(rows)

	require.Len(t, rev, 3)
	assert.Equal(t, "3", rev[0].ID)
	assert.Equal(t, "1", rev[2].ID)
	assert.Equal(t, "1", rows[0].ID, "Reverse devuelve una copia")
}
