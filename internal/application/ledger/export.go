package ledger

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/kardex-api/internal/domain"
)

// Formatos de exportación soportados.
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

// ExportFile documento exportado listo para descargar.
type ExportFile struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportStockCard calcula el kardex y lo renderiza en el formato pedido.
//
// Retorna:
//   - domain.ErrInvalidInput si el formato no es pdf ni csv o no hay generador configurado.
//   - los mismos errores que GetStockCard.
func (uc *StockCardUseCase) ExportStockCard(ctx context.Context, in StockCardInput, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatPDF && format != FormatCSV {
		return nil, fmt.Errorf("%w: formato %q", domain.ErrInvalidInput, format)
	}
	report, err := uc.GetStockCard(ctx, in)
	if err != nil {
		return nil, err
	}
	return uc.Render(ctx, report, format)
}

// Render convierte un reporte ya calculado. Lo usan tanto la API como la CLI.
func (uc *StockCardUseCase) Render(ctx context.Context, report *StockCardReport, format string) (*ExportFile, error) {
	base := exportBaseName(report)
	switch strings.ToLower(format) {
	case FormatPDF:
		if uc.pdf == nil {
			return nil, fmt.Errorf("%w: exportación pdf no configurada", domain.ErrInvalidInput)
		}
		content, err := uc.pdf.GenerateStockCardPDF(ctx, report)
		if err != nil {
			return nil, fmt.Errorf("exportar pdf: %w", err)
		}
		return &ExportFile{Content: content, Filename: base + ".pdf", ContentType: "application/pdf"}, nil
	case FormatCSV:
		if uc.csv == nil {
			return nil, fmt.Errorf("%w: exportación csv no configurada", domain.ErrInvalidInput)
		}
		var buf bytes.Buffer
		if err := uc.csv.WriteStockCardCSV(&buf, report); err != nil {
			return nil, fmt.Errorf("exportar csv: %w", err)
		}
		return &ExportFile{Content: buf.Bytes(), Filename: base + ".csv", ContentType: "text/csv; charset=utf-8"}, nil
	default:
		return nil, fmt.Errorf("%w: formato %q", domain.ErrInvalidInput, format)
	}
}

// exportBaseName: kardex_<producto>[_<bodega>][_<desde>_<hasta>].
func exportBaseName(r *StockCardReport) string {
	parts := []string{"kardex"}
	if r.ProductID != "" {
		parts = append(parts, safeFilePart(r.ProductID))
	}
	if r.WarehouseID != "" {
		parts = append(parts, safeFilePart(r.WarehouseID))
	}
	if r.Range.From != nil || r.Range.To != nil {
		from, to := "inicio", "hoy"
		if r.Range.From != nil {
			from = r.Range.From.Format(dateOnlyLayout)
		}
		if r.Range.To != nil {
			to = r.Range.To.Format(dateOnlyLayout)
		}
		parts = append(parts, from, to)
	}
	return strings.Join(parts, "_")
}

func safeFilePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
