// Package upstream lee el historial de movimientos desde la API REST de inventario.
package upstream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/ledger"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/config"
)

// Verificar en tiempo de compilación que Client implementa MovementSource.
var _ repository.MovementSource = (*Client)(nil)

const (
	maxBodyBytes = 32 << 20
	// tope de páginas cuando la API no informa metadatos de paginación
	maxUnknownPages = 1000
)

// Client adaptador HTTP de la API de inventario.
type Client struct {
	baseURL        string
	movementsPath  string
	summaryPath    string
	pageSize       int
	maxConcurrency int
	httpClient     *http.Client
	dates          *ledger.Normalizer
}

// NewClient construye el adaptador. loc se usa para leer las fechas del resumen.
func NewClient(cfg config.UpstreamConfig, loc *time.Location) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	pageSize, conc := cfg.PageSize, cfg.MaxConcurrency
	if pageSize <= 0 {
		pageSize = 200
	}
	if conc <= 0 {
		conc = 1
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		movementsPath:  cfg.MovementsPath,
		summaryPath:    cfg.SummaryPath,
		pageSize:       pageSize,
		maxConcurrency: conc,
		httpClient:     &http.Client{Timeout: timeout},
		dates:          ledger.NewNormalizer(loc),
	}
}

// ListMovements descarga todas las páginas del historial. La página 1 se pide primero para
// conocer el total; el resto se pide en paralelo y se une en orden de página.
func (c *Client) ListMovements(ctx context.Context, q entity.MovementQuery) ([]entity.RawMovement, error) {
	first, err := c.fetchPage(ctx, q, 1)
	if err != nil {
		return nil, err
	}
	if first.LastPage <= 1 {
		if first.LastPage == 0 && len(first.Items) >= c.pageSize {
			return c.fetchSequential(ctx, q, first.Items)
		}
		return first.Items, nil
	}

	pages := make([][]entity.RawMovement, first.LastPage-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)
	for p := 2; p <= first.LastPage; p++ {
		p := p
		g.Go(func() error {
			page, err := c.fetchPage(gctx, q, p)
			if err != nil {
				return err
			}
			pages[p-2] = page.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := first.Items
	for _, items := range pages {
		out = append(out, items...)
	}
	return out, nil
}

// fetchSequential recorre páginas hasta una incompleta cuando no hay metadatos.
// Una página idéntica a otra ya recibida indica que la API ignora el parámetro page y corta
// el recorrido sin agregarla.
func (c *Client) fetchSequential(ctx context.Context, q entity.MovementQuery, firstItems []entity.RawMovement) ([]entity.RawMovement, error) {
	out := firstItems
	seen := map[string]struct{}{pageFingerprint(firstItems): {}}
	for p := 2; p <= maxUnknownPages; p++ {
		page, err := c.fetchPage(ctx, q, p)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		fp := pageFingerprint(page.Items)
		if _, dup := seen[fp]; dup {
			break
		}
		seen[fp] = struct{}{}
		out = append(out, page.Items...)
		if len(page.Items) < c.pageSize {
			break
		}
	}
	return out, nil
}

// pageFingerprint resume el contenido completo de la página; no depende de que haya id.
func pageFingerprint(items []entity.RawMovement) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, m := range items {
		_ = enc.Encode(m)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) fetchPage(ctx context.Context, q entity.MovementQuery, page int) (listPage, error) {
	params := url.Values{}
	params.Set("product_id", q.ProductID)
	if q.WarehouseID != "" {
		params.Set("warehouse_id", q.WarehouseID)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.pageSize))

	body, err := c.get(ctx, c.endpoint(c.movementsPath, q.ProductID), params, q.AuthToken)
	if err != nil {
		return listPage{}, err
	}
	lp, err := decodePage(body)
	if err != nil {
		return listPage{}, fmt.Errorf("%w: página %d: %v", domain.ErrUpstream, page, err)
	}
	return lp, nil
}

// GetSummary consulta el resumen del periodo. Un 404 significa que el origen no expone
// resumen para el producto y devuelve nil sin error.
func (c *Client) GetSummary(ctx context.Context, q entity.MovementQuery, period entity.DateRange) (*entity.UpstreamSummary, error) {
	params := url.Values{}
	params.Set("product_id", q.ProductID)
	if q.WarehouseID != "" {
		params.Set("warehouse_id", q.WarehouseID)
	}
	if period.From != nil {
		params.Set("from", period.From.Format(time.RFC3339))
	}
	if period.To != nil {
		params.Set("to", period.To.Format(time.RFC3339))
	}

	body, err := c.get(ctx, c.endpoint(c.summaryPath, q.ProductID), params, q.AuthToken)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sb, err := decodeSummary(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	out := &entity.UpstreamSummary{
		OpeningQty:  ledger.ParseAmount(sb.OpeningQty.String()),
		OpeningCost: ledger.ParseAmount(sb.OpeningCost.String()),
		QtyIn:       ledger.ParseAmount(sb.QtyIn.String()),
		QtyOut:      ledger.ParseAmount(sb.QtyOut.String()).Abs(),
		CostIn:      ledger.ParseAmount(sb.CostIn.String()),
		CostOut:     ledger.ParseAmount(sb.CostOut.String()).Abs(),
		HasOpening:  !sb.OpeningQty.Blank() || !sb.OpeningCost.Blank(),
	}
	if sb.Period != nil {
		if t, ok := c.dates.ParseTime(sb.Period.From.String()); ok {
			out.From = &t
		}
		if t, ok := c.dates.ParseTime(sb.Period.To.String()); ok {
			out.To = &t
		}
	}
	return out, nil
}

func (c *Client) endpoint(path, productID string) string {
	return c.baseURL + strings.ReplaceAll(path, "{product_id}", url.PathEscape(productID))
}

// get ejecuta la petición reenviando el token del usuario y traduce el status a errores de dominio.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("upstream: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, endpoint)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: el origen rechazó el token", domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: el origen negó el acceso", domain.ErrForbidden)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d en %s", domain.ErrUpstream, resp.StatusCode, endpoint)
	}
	return body, nil
}
