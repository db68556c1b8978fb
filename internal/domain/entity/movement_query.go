package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementQuery identifica el historial de un producto en una bodega (multiempresa).
// AuthToken se reenvía a la API de origen cuando la fuente es HTTP.
type MovementQuery struct {
	CompanyID   string
	ProductID   string
	WarehouseID string
	AuthToken   string
}

// UpstreamSummary resumen reportado por el endpoint de resumen de la API de inventario.
// HasOpening es false cuando la respuesta no trae opening_qty ni opening_cost.
type UpstreamSummary struct {
	OpeningQty  decimal.Decimal
	OpeningCost decimal.Decimal
	QtyIn       decimal.Decimal
	QtyOut      decimal.Decimal
	CostIn      decimal.Decimal
	CostOut     decimal.Decimal
	From        *time.Time
	To          *time.Time
	HasOpening  bool
}
