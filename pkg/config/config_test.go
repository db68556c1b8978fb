package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://inventario.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://inventario.example.com", cfg.Upstream.BaseURL, "se recorta la barra final")
	assert.Equal(t, SourceHTTP, cfg.Ledger.Source)
	assert.Equal(t, 200, cfg.Upstream.PageSize)
	assert.Equal(t, 4, cfg.Upstream.MaxConcurrency)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout())
	assert.False(t, cfg.Ledger.StrictRefTypes)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, []string{"admin", "bodeguero"}, cfg.JWT.ExportRoles)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("LEDGER_SOURCE", "POSTGRES")
	t.Setenv("LEDGER_TIMEZONE", "America/Bogota")
	t.Setenv("LEDGER_STRICT_REF_TYPES", "true")
	t.Setenv("UPSTREAM_PAGE_SIZE", "50")
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_EXPORT_ROLES", " admin, contador ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourcePostgres, cfg.Ledger.Source)
	assert.True(t, cfg.Ledger.StrictRefTypes)
	assert.Equal(t, 50, cfg.Upstream.PageSize)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, []string{"admin", "contador"}, cfg.JWT.ExportRoles)

	loc, err := cfg.Ledger.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", loc.String())
}

func TestRead_NoValida(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "")
	t.Setenv("LEDGER_LOCALE", "en-US")

	cfg := Read()
	assert.Empty(t, cfg.Upstream.BaseURL)
	assert.Equal(t, "en-US", cfg.Ledger.Locale)
	assert.Error(t, cfg.Validate(), "Load rechazaría esta configuración")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Upstream: UpstreamConfig{BaseURL: "http://x", PageSize: 10, MaxConcurrency: 2},
			Ledger:   LedgerConfig{Source: SourceHTTP, Timezone: "UTC"},
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.Upstream.BaseURL = ""
	assert.Error(t, c.Validate(), "la fuente http necesita URL base")

	c = base()
	c.Upstream.BaseURL = ""
	c.Ledger.Source = SourcePostgres
	assert.NoError(t, c.Validate(), "postgres no usa el upstream")

	c = base()
	c.Ledger.Source = "mongo"
	assert.Error(t, c.Validate())

	c = base()
	c.Ledger.Timezone = "Marte/Olympus"
	assert.Error(t, c.Validate())

	c = base()
	c.Upstream.MaxConcurrency = 0
	assert.Error(t, c.Validate())
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "kardex", Password: "p@ss:w/rd", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://kardex:p%40ss%3Aw%2Frd@db:5432/inv?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otra"
	assert.Equal(t, "postgres://otra", c.ConnectionString())
}
