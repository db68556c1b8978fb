package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// ToResponse convierte el reporte en la respuesta JSON de la API.
func ToResponse(r *StockCardReport) dto.StockCardResponse {
	order := "asc"
	if r.Descending {
		order = "desc"
	}

	rows := r.DisplayRows()
	out := make([]dto.StockCardRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRowDTO(row))
	}

	unknown := make([]string, len(r.UnknownRefTypes))
	for i, t := range r.UnknownRefTypes {
		unknown[i] = string(t)
	}

	resp := dto.StockCardResponse{
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		From:            formatBound(r.Range.From),
		To:              formatBound(r.Range.To),
		Order:           order,
		SeedSource:      string(r.SeedSource),
		Summary:         toSummaryDTO(r.Summary),
		Rows:            out,
		UnknownRefTypes: unknown,
	}
	if r.Reconciliation != nil {
		resp.Reconciliation = toReconciliationDTO(r.Reconciliation)
	}
	return resp
}

func toRowDTO(row entity.RunningBalance) dto.StockCardRowDTO {
	d := dto.StockCardRowDTO{
		ID:                 row.ID,
		Date:               row.Date.Format(time.RFC3339),
		RefType:            string(row.RefType),
		DocumentRef:        row.DocumentRef,
		Note:               row.Note,
		IsOpening:          row.IsOpening,
		Direction:          row.Direction,
		DirectionDefaulted: row.DirectionDefaulted,
		Quantity:           row.Quantity,
		UnitCost:           row.UnitCost,
		QtyIn:              decimal.Zero,
		QtyOut:             decimal.Zero,
		SignedCost:         row.SignedCost,
		UnitBalance:        row.UnitBalanceAfter,
		CostBalance:        row.CostBalanceAfter,
	}
	if row.Date.IsZero() {
		d.Date = ""
	}
	switch {
	case row.SignedQuantity.IsPositive():
		d.QtyIn = row.SignedQuantity
	case row.SignedQuantity.IsNegative():
		d.QtyOut = row.SignedQuantity.Neg()
	}
	return d
}

func toSummaryDTO(s entity.PeriodSummary) dto.StockCardSummaryDTO {
	return dto.StockCardSummaryDTO{
		OpeningQty:  s.OpeningQuantity,
		OpeningCost: s.OpeningCost,
		StockIn:     s.StockIn,
		StockOut:    s.StockOut,
		CostIn:      s.CostIn,
		CostOut:     s.CostOut,
		StockEnding: s.StockEnding,
		CostEnding:  s.CostEnding,
	}
}

func toReconciliationDTO(r *Reconciliation) *dto.ReconciliationDTO {
	diffs := make([]dto.ReconciliationDiffDTO, 0, len(r.Diffs))
	for _, d := range r.Diffs {
		diffs = append(diffs, dto.ReconciliationDiffDTO{
			Field:    d.Field,
			Local:    d.Local,
			Upstream: d.Upstream,
			Delta:    d.Delta(),
		})
	}
	return &dto.ReconciliationDTO{Available: r.Available, Matches: r.Matches(), Diffs: diffs}
}

func formatBound(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// ToSummaryResponse respuesta del endpoint de resumen.
func ToSummaryResponse(r *StockCardReport) dto.StockCardSummaryResponse {
	resp := dto.StockCardSummaryResponse{
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		From:        formatBound(r.Range.From),
		To:          formatBound(r.Range.To),
		SeedSource:  string(r.SeedSource),
		Movements:   len(r.Projection.Rows),
		Summary:     toSummaryDTO(r.Summary),
	}
	if r.Reconciliation != nil {
		resp.Reconciliation = toReconciliationDTO(r.Reconciliation)
	}
	return resp
}
