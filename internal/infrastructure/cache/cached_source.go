// Package cache decora un MovementSource con caché Redis y coalescencia de consultas.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.MovementSource = (*CachedSource)(nil)

const keyPrefix = "kardex"

// NewRedisClient crea el cliente desde REDIS_URL. URL vacía devuelve nil: sin caché.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cache: REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}

// CachedSource guarda en Redis el historial y los resúmenes por empresa/producto/bodega.
// Las fallas de Redis no son fatales: se registran y se consulta la fuente interna.
type CachedSource struct {
	inner  repository.MovementSource
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
	group  singleflight.Group
}

// NewCachedSource construye el decorador. Con client nil solo coalesce consultas concurrentes.
func NewCachedSource(inner repository.MovementSource, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedSource{inner: inner, client: client, ttl: ttl, log: log}
}

// cachedSummary permite cachear también la ausencia de resumen.
type cachedSummary struct {
	Summary *entity.UpstreamSummary `json:"summary"`
}

// ListMovements implementa repository.MovementSource.
func (c *CachedSource) ListMovements(ctx context.Context, q entity.MovementQuery) ([]entity.RawMovement, error) {
	key := movementsKey(q)
	var cached []entity.RawMovement
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	v, err := c.coalesce(ctx, key, func(ctx context.Context) (interface{}, error) {
		items, err := c.inner.ListMovements(ctx, q)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entity.RawMovement), nil
}

// GetSummary implementa repository.MovementSource.
func (c *CachedSource) GetSummary(ctx context.Context, q entity.MovementQuery, period entity.DateRange) (*entity.UpstreamSummary, error) {
	key := summaryKey(q, period)
	var cached cachedSummary
	if c.load(ctx, key, &cached) {
		return cached.Summary, nil
	}
	v, err := c.coalesce(ctx, key, func(ctx context.Context) (interface{}, error) {
		s, err := c.inner.GetSummary(ctx, q, period)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, cachedSummary{Summary: s})
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.UpstreamSummary), nil
}

// Invalidate borra las entradas de un producto (todas las bodegas y periodos). Cada tipo de
// clave usa su propio patrón anclado para no alcanzar otra empresa u otro producto.
func (c *CachedSource) Invalidate(ctx context.Context, companyID, productID string) error {
	if c.client == nil {
		return nil
	}
	var keys []string
	for _, kind := range []string{"movements", "summary"} {
		pattern := strings.Join([]string{keyPrefix, kind, escapeGlob(companyID), escapeGlob(productID), "*"}, ":")
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("cache: scan: %w", err)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// coalesce une las consultas concurrentes con la misma clave. La consulta compartida no se
// cancela si el primer llamador abandona; cada llamador respeta su propio contexto.
// La clave no incluye el token: si la consulta de otro llamador fue rechazada por
// credenciales, este llamador la repite con las suyas.
func (c *CachedSource) coalesce(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	led := false
	ch := c.group.DoChan(key, func() (interface{}, error) {
		led = true
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil && !led && isCredentialError(res.Err) {
			return fn(ctx)
		}
		return res.Val, res.Err
	}
}

func isCredentialError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrForbidden)
}

func (c *CachedSource) load(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: lectura fallida, se consulta la fuente")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: entrada corrupta, se ignora")
		return false
	}
	return true
}

func (c *CachedSource) store(ctx context.Context, key string, value interface{}) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: serializar")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: escritura fallida")
	}
}

func movementsKey(q entity.MovementQuery) string {
	return strings.Join([]string{keyPrefix, "movements", q.CompanyID, q.ProductID, orAll(q.WarehouseID)}, ":")
}

func summaryKey(q entity.MovementQuery, period entity.DateRange) string {
	return strings.Join([]string{keyPrefix, "summary", q.CompanyID, q.ProductID, orAll(q.WarehouseID),
		bound(period.From), bound(period.To)}, ":")
}

// escapeGlob neutraliza los comodines de SCAN MATCH en un segmento de clave.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func orAll(warehouseID string) string {
	if warehouseID == "" {
		return "all"
	}
	return warehouseID
}

func bound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}
