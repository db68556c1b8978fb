// Package export serializa el kardex a formatos tabulares.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	appledger "github.com/jhoicas/kardex-api/internal/application/ledger"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// Header columnas de las filas de movimiento.
var Header = []string{
	"date", "id", "document_ref", "ref_type", "note",
	"qty_in", "qty_out", "unit_cost", "signed_cost", "unit_balance", "cost_balance",
}

// CSVWriter implementa ledger.StockCardCSVWriter. Los números salen en notación decimal
// con punto para que la hoja de cálculo los lea sin depender del locale.
type CSVWriter struct {
	loc *time.Location
}

// NewCSVWriter loc es la zona en la que se imprimen las fechas; nil = UTC.
func NewCSVWriter(loc *time.Location) *CSVWriter {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVWriter{loc: loc}
}

// WriteStockCardCSV escribe: fila OPENING, un registro por movimiento y fila TOTAL.
func (c *CSVWriter) WriteStockCardCSV(w io.Writer, report *appledger.StockCardReport) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	cw := csv.NewWriter(buf)
	cw.UseCRLF = true

	pending := 0
	write := func(rec []string) error {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv: escribir fila: %w", err)
		}
		pending++
		if pending >= csvFlushEvery {
			cw.Flush()
			pending = 0
			return cw.Error()
		}
		return nil
	}

	if err := write(Header); err != nil {
		return err
	}

	p := report.Projection
	opening := []string{"", "", "OPENING", "", "saldo inicial", "", "", "", "", num(p.OpeningQuantity), num(p.OpeningCost)}
	if report.Range.From != nil {
		opening[0] = report.Range.From.In(c.loc).Format(time.RFC3339)
	}
	if err := write(opening); err != nil {
		return err
	}

	for _, r := range report.DisplayRows() {
		in, out := "0", "0"
		switch {
		case r.SignedQuantity.IsPositive():
			in = num(r.SignedQuantity)
		case r.SignedQuantity.IsNegative():
			out = num(r.SignedQuantity.Neg())
		}
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.In(c.loc).Format(time.RFC3339)
		}
		rec := []string{
			date, r.ID, r.DocumentRef, string(r.RefType), r.Note,
			in, out, num(r.UnitCost), num(r.SignedCost), num(r.UnitBalanceAfter), num(r.CostBalanceAfter),
		}
		if err := write(rec); err != nil {
			return err
		}
	}

	s := report.Summary
	total := []string{"", "", "TOTAL", "", "", num(s.StockIn), num(s.StockOut), "", s.CostIn.Sub(s.CostOut).String(), num(s.StockEnding), num(s.CostEnding)}
	if report.Range.To != nil {
		total[0] = report.Range.To.In(c.loc).Format(time.RFC3339)
	}
	if err := write(total); err != nil {
		return err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Flush()
}

func num(d decimal.Decimal) string { return d.String() }
