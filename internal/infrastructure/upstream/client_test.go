package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func newTestClient(baseURL string, pageSize int) *Client {
	return NewClient(config.UpstreamConfig{
		BaseURL:        baseURL,
		MovementsPath:  "/api/inventory/products/{product_id}/movements",
		SummaryPath:    "/api/inventory/products/{product_id}/stock-summary",
		PageSize:       pageSize,
		MaxConcurrency: 3,
		TimeoutSeconds: 5,
	}, time.UTC)
}

var testQuery = entity.MovementQuery{CompanyID: "c-1", ProductID: "p-1", WarehouseID: "w-1", AuthToken: "tok-123"}

func ids(items []entity.RawMovement) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.ID.String()
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Sobres del listado
// ──────────────────────────────────────────────────────────────────────────────

func TestDecodeMovementList_Sobres(t *testing.T) {
	cases := map[string]string{
		"arreglo plano": `[{"id":1},{"id":2}]`,
		"data":          `{"data":[{"id":1},{"id":2}]}`,
		"items":         `{"items":[{"id":1},{"id":2}],"total":2}`,
		"results":       `{"results":[{"id":1},{"id":2}]}`,
		"data.data":     `{"data":{"data":[{"id":1},{"id":2}],"last_page":1}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			items, err := DecodeMovementList(strings.NewReader(body))
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "2"}, ids(items))
		})
	}
}

func TestDecodeMovementList_DescartaElementosQueNoSonObjeto(t *testing.T) {
	items, err := DecodeMovementList(strings.NewReader(`[{"id":"a"}, 3, "x", null, {"id":"b"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(items))
}

func TestDecodeMovementList_SinLista(t *testing.T) {
	_, err := DecodeMovementList(strings.NewReader(`{"message":"ok"}`))
	assert.Error(t, err)

	_, err = DecodeMovementList(strings.NewReader(`"texto"`))
	assert.Error(t, err)

	items, err := DecodeMovementList(strings.NewReader(``))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodePage_Metadatos(t *testing.T) {
	cases := map[string]struct {
		body string
		want int
	}{
		"meta.last_page":    {`{"data":[],"meta":{"last_page":4}}`, 4},
		"total_pages texto": {`{"items":[],"total_pages":"3"}`, 3},
		"total y per_page":  {`{"data":[],"meta":{"total":101,"per_page":50}}`, 3},
		"laravel anidado":   {`{"data":{"data":[],"last_page":7}}`, 7},
		"sin metadatos":     {`{"data":[]}`, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := decodePage([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.LastPage)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Paginación
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_PaginasEnParaleloUnidasEnOrden(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/inventory/products/p-1/movements", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"), "se reenvía el token del usuario")
		assert.Equal(t, "w-1", r.URL.Query().Get("warehouse_id"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 2 {
			time.Sleep(20 * time.Millisecond) // la página 2 llega después que la 3
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":[{"id":"%d-a"},{"id":"%d-b"}],"meta":{"last_page":3}}`, page, page)
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, 2).ListMovements(context.Background(), testQuery)
	require.NoError(t, err)

	assert.Equal(t, []string{"1-a", "1-b", "2-a", "2-b", "3-a", "3-b"}, ids(items))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListMovements_SinMetadatosRecorreHastaPaginaIncompleta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `[{"id":1},{"id":2}]`)
		case "2":
			fmt.Fprint(w, `[{"id":3}]`)
		default:
			t.Errorf("página inesperada %s", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, 2).ListMovements(context.Background(), testQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(items))
}

func TestListMovements_APIIgnoraPaginacion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `[{"id":1},{"id":2}]`)
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, 2).ListMovements(context.Background(), testQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(items), "no se duplica la misma página")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListMovements_APIIgnoraPaginacionSinIDs(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `[{"date":"2024-01-01","ref_type":"GR","qty":"5"},{"date":"2024-01-02","ref_type":"GR","qty":"7"}]`)
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, 2).ListMovements(context.Background(), testQuery)
	require.NoError(t, err)
	assert.Len(t, items, 2, "la página repetida no se agrega aunque los registros no traigan id")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListMovements_SinIDsPaginasDistintasSeUnen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `[{"qty":"1"},{"qty":"2"}]`)
		case "2":
			fmt.Fprint(w, `[{"qty":"3"},{"qty":"4"}]`)
		default:
			fmt.Fprint(w, `[{"qty":"5"}]`)
		}
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, 2).ListMovements(context.Background(), testQuery)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "5", items[4].Qty.String())
}

func TestListMovements_ErrorEnUnaPaginaAbortaTodo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":1}],"meta":{"last_page":3}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1).ListMovements(context.Background(), testQuery)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestListMovements_Status(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:     domain.ErrNotFound,
		http.StatusUnauthorized: domain.ErrUnauthorized,
		http.StatusForbidden:    domain.ErrForbidden,
		http.StatusBadGateway:   domain.ErrUpstream,
	}
	for status, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := newTestClient(srv.URL, 10).ListMovements(context.Background(), testQuery)
		assert.ErrorIs(t, err, want, "status %d", status)
		srv.Close()
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Resumen
// ──────────────────────────────────────────────────────────────────────────────

func TestGetSummary_EnvueltoEnData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/inventory/products/p-1/stock-summary", r.URL.Path)
		assert.Equal(t, "2025-01-01T00:00:00Z", r.URL.Query().Get("from"))
		fmt.Fprint(w, `{"data":{"opening_qty":"100","opening_cost":1000,"qty_in":50,"qty_out":-30,
			"cost_in":"600.00","cost_out":360,"period":{"from":"2025-01-01","to":"2025-01-31"}}}`)
	}))
	defer srv.Close()

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sum, err := newTestClient(srv.URL, 10).GetSummary(context.Background(), testQuery, entity.DateRange{From: &from})
	require.NoError(t, err)
	require.NotNil(t, sum)

	assert.True(t, sum.HasOpening)
	assert.Equal(t, "100", sum.OpeningQty.String())
	assert.Equal(t, "1000", sum.OpeningCost.String())
	assert.Equal(t, "30", sum.QtyOut.String(), "las salidas se informan en magnitud")
	assert.Equal(t, "600", sum.CostIn.String())
	require.NotNil(t, sum.To)
	assert.True(t, sum.To.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)))
}

func TestGetSummary_SinApertura(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"qty_in":5,"qty_out":1}`)
	}))
	defer srv.Close()

	sum, err := newTestClient(srv.URL, 10).GetSummary(context.Background(), testQuery, entity.DateRange{})
	require.NoError(t, err)
	assert.False(t, sum.HasOpening)
	assert.True(t, sum.OpeningQty.IsZero())
}

func TestGetSummary_404EsResumenAusente(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	sum, err := newTestClient(srv.URL, 10).GetSummary(context.Background(), testQuery, entity.DateRange{})
	require.NoError(t, err)
	assert.Nil(t, sum)
}
