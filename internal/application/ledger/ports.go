package ledger

import (
	"context"
	"io"
)

// StockCardPDFGenerator puerto para la representación PDF del kardex.
type StockCardPDFGenerator interface {
	GenerateStockCardPDF(ctx context.Context, report *StockCardReport) ([]byte, error)
}

// StockCardCSVWriter puerto para la exportación CSV del kardex.
type StockCardCSVWriter interface {
	WriteStockCardCSV(w io.Writer, report *StockCardReport) error
}
