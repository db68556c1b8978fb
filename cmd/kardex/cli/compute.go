package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	appledger "github.com/jhoicas/kardex-api/internal/application/ledger"
	core "github.com/jhoicas/kardex-api/internal/domain/ledger"
	"github.com/jhoicas/kardex-api/internal/infrastructure/export"
	infrapdf "github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/upstream"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// ComputeOptions parámetros de `kardex compute`.
type ComputeOptions struct {
	File        string // "-" o vacío = stdin
	OpeningQty  string
	OpeningCost string
	From        string
	To          string
	Order       string
	Format      string // json | csv | pdf
	Out         string // vacío = stdout
	Timezone    string
	Locale      string
	Verbose     bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func newComputeCommand() *cobra.Command {
	opts := ComputeOptions{}
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Calcula el kardex de un listado de movimientos exportado en JSON",
		Example: `  kardex compute --file movimientos.json --from 2024-01-01 --to 2024-01-31
  kardex compute --file movimientos.json --format pdf --out kardex.pdf`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Read()
			if !cmd.Flags().Changed("tz") {
				opts.Timezone = cfg.Ledger.Timezone
			}
			if !cmd.Flags().Changed("locale") {
				opts.Locale = cfg.Ledger.Locale
			}
			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return RunCompute(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.File, "file", "f", "-", "archivo JSON con movimientos (- = stdin)")
	f.StringVar(&opts.OpeningQty, "opening-qty", "", "cantidad inicial (vacío = tomar de los movimientos OPENING)")
	f.StringVar(&opts.OpeningCost, "opening-cost", "", "costo inicial")
	f.StringVar(&opts.From, "from", "", "desde (2006-01-02 o RFC3339)")
	f.StringVar(&opts.To, "to", "", "hasta, inclusive")
	f.StringVar(&opts.Order, "order", "asc", "asc | desc")
	f.StringVar(&opts.Format, "format", "json", "json | csv | pdf")
	f.StringVarP(&opts.Out, "out", "o", "", "archivo de salida (vacío = stdout)")
	f.StringVar(&opts.Timezone, "tz", "", "zona horaria para fechas sin offset")
	f.StringVar(&opts.Locale, "locale", "es-CO", "formato numérico del PDF")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "registrar advertencias en stderr")
	return cmd
}

// RunCompute lee los movimientos, calcula el kardex y escribe el resultado.
func RunCompute(ctx context.Context, opts ComputeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch opts.Format {
	case "json", appledger.FormatCSV, appledger.FormatPDF:
	default:
		return fmt.Errorf("formato no soportado %q (json|csv|pdf)", opts.Format)
	}
	if opts.Order != "asc" && opts.Order != "desc" {
		return fmt.Errorf("orden inválido %q (asc|desc)", opts.Order)
	}

	loc := time.UTC
	if opts.Timezone != "" {
		l, err := time.LoadLocation(opts.Timezone)
		if err != nil {
			return fmt.Errorf("zona horaria %q: %w", opts.Timezone, err)
		}
		loc = l
	}

	in, closeIn, err := openInput(opts)
	if err != nil {
		return err
	}
	defer closeIn()

	movements, err := upstream.DecodeMovementList(in)
	if err != nil {
		return err
	}

	level := "error"
	if opts.Verbose {
		level = "warn"
	}
	log := logger.New(logger.Config{Env: "development", Level: level, Output: opts.Stderr})

	uc := appledger.NewStockCardUseCase(nil, appledger.Options{
		Location: loc,
		PDF:      infrapdf.NewMarotoPDFGenerator(opts.Locale, loc),
		CSV:      export.NewCSVWriter(loc),
	}, log.Zerolog())

	r, err := uc.ParseRange(opts.From, opts.To)
	if err != nil {
		return err
	}
	report := uc.Preview(appledger.PreviewInput{
		Movements:   movements,
		OpeningQty:  optionalFlagAmount(opts.OpeningQty),
		OpeningCost: optionalFlagAmount(opts.OpeningCost),
		Range:       r,
		Descending:  opts.Order == "desc",
	})

	var content []byte
	if opts.Format == "json" {
		content, err = json.MarshalIndent(appledger.ToResponse(&report), "", "  ")
		if err != nil {
			return fmt.Errorf("serializar kardex: %w", err)
		}
		content = append(content, '\n')
	} else {
		file, err := uc.Render(ctx, &report, opts.Format)
		if err != nil {
			return err
		}
		content = file.Content
	}

	if opts.Out == "" {
		_, err = opts.Stdout.Write(content)
		return err
	}
	if err := os.WriteFile(opts.Out, content, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", opts.Out, err)
	}
	fmt.Fprintf(opts.Stderr, "%d movimientos, saldo final %s @ %s -> %s\n",
		len(report.Projection.Rows), report.Summary.StockEnding.String(), report.Summary.CostEnding.StringFixed(2), opts.Out)
	return nil
}

func openInput(opts ComputeOptions) (io.Reader, func(), error) {
	if opts.File == "" || opts.File == "-" {
		if opts.Stdin == nil {
			return nil, nil, fmt.Errorf("sin entrada: use --file")
		}
		return opts.Stdin, func() {}, nil
	}
	f, err := os.Open(opts.File)
	if err != nil {
		return nil, nil, fmt.Errorf("abrir %s: %w", opts.File, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func optionalFlagAmount(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d := core.ParseAmount(s)
	return &d
}
