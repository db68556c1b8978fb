package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

func report(t *testing.T, desc bool) *appledger.StockCardReport {
	t.Helper()
	s := entity.NewScalar
	uc := appledger.NewStockCardUseCase(nil, appledger.Options{}, zerolog.Nop())
	r, err := uc.ParseRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)
	rep := uc.Preview(appledger.PreviewInput{
		Range:      r,
		Descending: desc,
		Movements: []entity.RawMovement{
			{ID: s("1"), Date: s("2025-01-01"), RefType: s("OPENING"), Qty: s("100"), UnitCost: s("10")},
			{ID: s("2"), Date: s("2025-01-05"), RefType: s("GR"), Qty: s("50"), UnitCost: s("12"), Note: s("GR-0001, lote \"A\"")},
			{ID: s("3"), Date: s("2025-01-10"), RefType: s("SALE"), Qty: s("30"), UnitCost: s("12"), Note: s("#POS-20250110-0001")},
		},
	})
	return &rep
}

func readAll(t *testing.T, b []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err, "la salida es CSV válido")
	return records
}

func TestWriteStockCardCSV_Estructura(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(nil).WriteStockCardCSV(&buf, report(t, false)))

	assert.Contains(t, buf.String(), "\r\n", "fin de línea CRLF")
	records := readAll(t, buf.Bytes())
	require.Len(t, records, 6, "cabecera + apertura + 3 movimientos + total")

	assert.Equal(t, Header, records[0])
	assert.Equal(t, "OPENING", records[1][2])
	assert.Equal(t, "2025-01-01T00:00:00Z", records[1][0])
	assert.Equal(t, "100", records[1][9])
	assert.Equal(t, "1000", records[1][10])

	receipt := records[3]
	assert.Equal(t, "2", receipt[1])
	assert.Equal(t, "GR-0001, lote \"A\"", receipt[4], "comas y comillas se escapan")
	assert.Equal(t, "50", receipt[5])
	assert.Equal(t, "0", receipt[6])
	assert.Equal(t, "150", receipt[9])

	sale := records[4]
	assert.Equal(t, "0", sale[5])
	assert.Equal(t, "30", sale[6])
	assert.Equal(t, "-360", sale[8])

	total := records[5]
	assert.Equal(t, "TOTAL", total[2])
	assert.Equal(t, "50", total[5])
	assert.Equal(t, "30", total[6])
	assert.Equal(t, "240", total[8], "costo neto del periodo")
	assert.Equal(t, "120", total[9])
	assert.Equal(t, "1240", total[10])
}

func TestWriteStockCardCSV_OrdenDescendente(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(nil).WriteStockCardCSV(&buf, report(t, true)))

	records := readAll(t, buf.Bytes())
	require.Len(t, records, 6)
	assert.Equal(t, "3", records[2][1], "la venta más reciente primero")
	assert.Equal(t, "1", records[4][1])
}
