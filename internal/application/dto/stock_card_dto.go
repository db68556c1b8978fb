package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// StockCardQuery parámetros de consulta del kardex de un producto.
// From/To aceptan fecha (2006-01-02) o RFC3339; un To de solo fecha cubre el día completo.
type StockCardQuery struct {
	WarehouseID string `query:"warehouse_id" validate:"omitempty,max=64"`
	From        string `query:"from" validate:"omitempty,max=40"`
	To          string `query:"to" validate:"omitempty,max=40"`
	Order       string `query:"order" validate:"omitempty,oneof=asc desc"`
	Reconcile   bool   `query:"reconcile"`
	Format      string `query:"format" validate:"omitempty,oneof=pdf csv"`
}

// PreviewRequest cálculo del kardex sobre movimientos que ya tiene el cliente.
// opening_qty y opening_cost admiten número o texto; ausentes se toman de las aperturas.
type PreviewRequest struct {
	OpeningQty  entity.Scalar        `json:"opening_qty"`
	OpeningCost entity.Scalar        `json:"opening_cost"`
	From        string               `json:"from" validate:"omitempty,max=40"`
	To          string               `json:"to" validate:"omitempty,max=40"`
	Order       string               `json:"order" validate:"omitempty,oneof=asc desc"`
	Movements   []entity.RawMovement `json:"movements" validate:"max=50000"`
}

// StockCardRowDTO una fila del kardex.
type StockCardRowDTO struct {
	ID                 string          `json:"id"`
	Date               string          `json:"date"`
	RefType            string          `json:"ref_type"`
	DocumentRef        string          `json:"document_ref"`
	Note               string          `json:"note"`
	IsOpening          bool            `json:"is_opening"`
	Direction          int             `json:"direction"`
	DirectionDefaulted bool            `json:"direction_defaulted,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	QtyIn              decimal.Decimal `json:"qty_in"`
	QtyOut             decimal.Decimal `json:"qty_out"`
	SignedCost         decimal.Decimal `json:"signed_cost"`
	UnitBalance        decimal.Decimal `json:"unit_balance"`
	CostBalance        decimal.Decimal `json:"cost_balance"`
}

// StockCardSummaryDTO totales del periodo.
type StockCardSummaryDTO struct {
	OpeningQty  decimal.Decimal `json:"opening_qty"`
	OpeningCost decimal.Decimal `json:"opening_cost"`
	StockIn     decimal.Decimal `json:"stock_in"`
	StockOut    decimal.Decimal `json:"stock_out"`
	CostIn      decimal.Decimal `json:"cost_in"`
	CostOut     decimal.Decimal `json:"cost_out"`
	StockEnding decimal.Decimal `json:"stock_ending"`
	CostEnding  decimal.Decimal `json:"cost_ending"`
}

// ReconciliationDiffDTO diferencia entre el cálculo local y el resumen del origen.
type ReconciliationDiffDTO struct {
	Field    string          `json:"field"`
	Local    decimal.Decimal `json:"local"`
	Upstream decimal.Decimal `json:"upstream"`
	Delta    decimal.Decimal `json:"delta"`
}

// ReconciliationDTO resultado de la conciliación.
type ReconciliationDTO struct {
	Available bool                    `json:"available"`
	Matches   bool                    `json:"matches"`
	Diffs     []ReconciliationDiffDTO `json:"diffs"`
}

// StockCardResponse kardex completo.
type StockCardResponse struct {
	ProductID       string              `json:"product_id,omitempty"`
	WarehouseID     string              `json:"warehouse_id,omitempty"`
	From            *string             `json:"from"`
	To              *string             `json:"to"`
	Order           string              `json:"order"`
	SeedSource      string              `json:"seed_source"`
	Summary         StockCardSummaryDTO `json:"summary"`
	Rows            []StockCardRowDTO   `json:"rows"`
	UnknownRefTypes []string            `json:"unknown_ref_types"`
	Reconciliation  *ReconciliationDTO  `json:"reconciliation,omitempty"`
}

// StockCardSummaryResponse solo totales, sin filas.
type StockCardSummaryResponse struct {
	ProductID      string              `json:"product_id"`
	WarehouseID    string              `json:"warehouse_id,omitempty"`
	From           *string             `json:"from"`
	To             *string             `json:"to"`
	SeedSource     string              `json:"seed_source"`
	Movements      int                 `json:"movements"`
	Summary        StockCardSummaryDTO `json:"summary"`
	Reconciliation *ReconciliationDTO  `json:"reconciliation,omitempty"`
}
