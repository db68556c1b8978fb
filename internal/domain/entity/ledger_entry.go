package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefType tipo de referencia de un movimiento del kardex.
type RefType string

// Tipos de referencia conocidos por la tabla de políticas de dirección.
const (
	RefTypeSale         RefType = "SALE"      // venta POS
	RefTypeSaleVoid     RefType = "SALE_VOID" // anulación de venta
	RefTypeGoodsReceipt RefType = "GR"        // recepción de mercancía
	RefTypeAdd          RefType = "ADD"       // alta manual de stock
	RefTypeDestroy      RefType = "DESTROY"   // destrucción / merma
	RefTypeOpening      RefType = "OPENING"   // saldo inicial
)

// Referencias de documento fijas.
const (
	DocumentRefOpening = "OPENING"
	DocumentRefDestroy = "DESTROY"
	DocumentRefNone    = "-"
)

// RawMovement registro de movimiento tal como llega de la API de inventario.
// Cada alias de campo observado entre versiones de la API tiene su propio campo;
// la resolución de alias ocurre solo en el normalizador.
type RawMovement struct {
	ID               Scalar `json:"id"`
	Sequence         Scalar `json:"sequence"`
	Seq              Scalar `json:"seq"`
	Date             Scalar `json:"date"`
	CreatedAt        Scalar `json:"created_at"`
	CreatedAtCamel   Scalar `json:"createdAt"`
	RefType          Scalar `json:"ref_type"`
	ReferenceType    Scalar `json:"reference_type"`
	RefTypeCamel     Scalar `json:"refType"`
	Qty              Scalar `json:"qty"`
	Quantity         Scalar `json:"quantity"`
	UnitCost         Scalar `json:"unit_cost"`
	Cost             Scalar `json:"cost"`
	UnitCostCamel    Scalar `json:"unitCost"`
	Note             Scalar `json:"note"`
	Notes            Scalar `json:"notes"`
	Direction        Scalar `json:"direction"`
	DocumentRef      Scalar `json:"document_ref"`
	DocumentRefCamel Scalar `json:"documentRef"`
}

// NormalizedEntry movimiento canónico con delta firmado.
// Invariante: si IsOpening es false, Direction ∈ {-1, +1}.
type NormalizedEntry struct {
	ID             string          `json:"id"`
	Sequence       int64           `json:"sequence"`
	Date           time.Time       `json:"date"`
	RefType        RefType         `json:"ref_type"`
	Quantity       decimal.Decimal `json:"quantity"` // magnitud, nunca negativa
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Note           string          `json:"note"`
	Direction      int             `json:"direction"`
	SignedQuantity decimal.Decimal `json:"signed_quantity"`
	SignedCost     decimal.Decimal `json:"signed_cost"`
	IsOpening      bool            `json:"is_opening"`
	DocumentRef    string          `json:"document_ref"`
	// DirectionDefaulted es true cuando ni la tabla de políticas ni un campo explícito
	// definieron la dirección y se aplicó el valor por defecto (+1).
	DirectionDefaulted bool `json:"direction_defaulted"`
}

// RunningBalance fila del kardex: movimiento más saldos acumulados tras aplicarlo.
type RunningBalance struct {
	NormalizedEntry
	UnitBalanceAfter decimal.Decimal `json:"unit_balance_after"`
	CostBalanceAfter decimal.Decimal `json:"cost_balance_after"`
}

// DateRange rango de fechas inclusivo; un extremo nil queda abierto.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains indica si t cae dentro del rango (inclusivo).
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Valid indica que From no es posterior a To.
func (r DateRange) Valid() bool {
	return r.From == nil || r.To == nil || !r.From.After(*r.To)
}

// Projection saldo inicial recalculado y filas de un subrango.
type Projection struct {
	OpeningQuantity decimal.Decimal  `json:"opening_quantity"`
	OpeningCost     decimal.Decimal  `json:"opening_cost"`
	Rows            []RunningBalance `json:"rows"`
}

// PeriodSummary totales de un periodo.
type PeriodSummary struct {
	OpeningQuantity decimal.Decimal `json:"opening_quantity"`
	OpeningCost     decimal.Decimal `json:"opening_cost"`
	StockIn         decimal.Decimal `json:"stock_in"`
	StockOut        decimal.Decimal `json:"stock_out"`
	CostIn          decimal.Decimal `json:"cost_in"`
	CostOut         decimal.Decimal `json:"cost_out"`
	StockEnding     decimal.Decimal `json:"stock_ending"`
	CostEnding      decimal.Decimal `json:"cost_ending"`
}
