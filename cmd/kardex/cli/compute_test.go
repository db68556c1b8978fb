package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
)

const movimientosJSON = `{"data":[
  {"id":3,"date":"2024-01-10","ref_type":"SALE","qty":"30","unit_cost":"12"},
  {"id":1,"date":"2024-01-01","ref_type":"OPENING","qty":"100","unit_cost":"10"},
  {"id":2,"date":"2024-01-05","ref_type":"GR","qty":"50","unit_cost":"12"}
]}`

func baseOpts(stdout, stderr *bytes.Buffer) ComputeOptions {
	return ComputeOptions{
		File:   "-",
		Order:  "asc",
		Format: "json",
		Locale: "es-CO",
		Stdin:  strings.NewReader(movimientosJSON),
		Stdout: stdout,
		Stderr: stderr,
	}
}

func decodeReport(t *testing.T, b []byte) dto.StockCardResponse {
	t.Helper()
	var resp dto.StockCardResponse
	require.NoError(t, json.Unmarshal(b, &resp))
	return resp
}

func TestRunCompute_JSONDesdeStdin(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	require.NoError(t, RunCompute(context.Background(), baseOpts(stdout, stderr)))

	resp := decodeReport(t, stdout.Bytes())
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, "1", resp.Rows[0].ID, "el OPENING va primero por fecha")
	assert.True(t, resp.Summary.StockEnding.Equal(decimal.NewFromInt(120)), "saldo final: %s", resp.Summary.StockEnding)
	assert.True(t, resp.Summary.CostEnding.Equal(decimal.NewFromInt(1240)), "costo final: %s", resp.Summary.CostEnding)
	assert.Equal(t, "openings", resp.SeedSource)
}

func TestRunCompute_RangoYOrdenDescendente(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	opts := baseOpts(stdout, stderr)
	opts.From, opts.To, opts.Order = "2024-01-05", "2024-01-31", "desc"
	require.NoError(t, RunCompute(context.Background(), opts))

	resp := decodeReport(t, stdout.Bytes())
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "3", resp.Rows[0].ID, "orden descendente")
	assert.True(t, resp.Summary.OpeningQty.Equal(decimal.NewFromInt(100)), "saldo inicial del periodo")
}

func TestRunCompute_AperturaExplicita(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	opts := baseOpts(stdout, stderr)
	opts.OpeningQty, opts.OpeningCost = "10", "50"
	require.NoError(t, RunCompute(context.Background(), opts))

	resp := decodeReport(t, stdout.Bytes())
	assert.Equal(t, "request", resp.SeedSource)
}

func TestRunCompute_CSVYPDFAArchivo(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"csv", "pdf"} {
		stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
		opts := baseOpts(stdout, stderr)
		opts.Format = format
		opts.Out = filepath.Join(dir, "kardex."+format)
		require.NoError(t, RunCompute(context.Background(), opts), format)

		content, err := os.ReadFile(opts.Out)
		require.NoError(t, err)
		assert.Empty(t, stdout.String(), "con --out no se escribe en stdout")
		assert.Contains(t, stderr.String(), "3 movimientos")
		if format == "pdf" {
			assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
		} else {
			assert.True(t, strings.HasPrefix(string(content), "date,id,document_ref"))
		}
	}
}

func TestRunCompute_ErroresDeEntrada(t *testing.T) {
	cases := map[string]func(*ComputeOptions){
		"formato":     func(o *ComputeOptions) { o.Format = "xlsx" },
		"orden":       func(o *ComputeOptions) { o.Order = "random" },
		"zona":        func(o *ComputeOptions) { o.Timezone = "Marte/Olympus" },
		"rango":       func(o *ComputeOptions) { o.From, o.To = "2024-02-01", "2024-01-01" },
		"fecha":       func(o *ComputeOptions) { o.From = "ayer" },
		"sin archivo": func(o *ComputeOptions) { o.File = filepath.Join(t.TempDir(), "no-existe.json") },
		"json roto":   func(o *ComputeOptions) { o.Stdin = strings.NewReader("{") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
			opts := baseOpts(stdout, stderr)
			mutate(&opts)
			assert.Error(t, RunCompute(context.Background(), opts))
		})
	}
}

func TestRootCommand_ComputePorFlags(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root := NewRootCommand(stdout, stderr)
	root.SetIn(strings.NewReader(movimientosJSON))
	root.SetArgs([]string{"compute", "--tz", "UTC", "--locale", "es-CO", "--order", "desc"})
	require.NoError(t, root.Execute())

	resp := decodeReport(t, stdout.Bytes())
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, "3", resp.Rows[0].ID)
}

func TestRootCommand_Token(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto-cli")
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root := NewRootCommand(stdout, stderr)
	root.SetArgs([]string{"token", "--company", "empresa-1", "--role", "bodeguero"})
	require.NoError(t, root.Execute())
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(stdout.String()), ".")), "JWT de tres partes")
}
