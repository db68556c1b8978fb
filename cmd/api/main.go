package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appledger "github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/internal/infrastructure/cache"
	"github.com/jhoicas/kardex-api/internal/infrastructure/export"
	infrapdf "github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/postgres"
	"github.com/jhoicas/kardex-api/internal/infrastructure/upstream"
	httpRouter "github.com/jhoicas/kardex-api/internal/interfaces/http"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("source", cfg.Ledger.Source).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: todas las rutas protegidas responderán 401")
	}

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria")
	}

	ctx := context.Background()

	// Fuente del historial: API de inventario o réplica PostgreSQL
	var source repository.MovementSource
	switch cfg.Ledger.Source {
	case config.SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		source = postgres.NewMovementRepository(pool, postgres.NewTxRunner(pool))
	default:
		source = upstream.NewClient(cfg.Upstream, loc)
	}

	// Caché opcional (REDIS_URL vacío = sin caché)
	redisClient, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible, se continúa sin caché")
	}
	var invalidator httpRouter.CacheInvalidator
	if redisClient != nil {
		defer redisClient.Close()
		cached := cache.NewCachedSource(source, redisClient, cfg.Cache.TTL(), log.Zerolog())
		source, invalidator = cached, cached
		log.Info().Dur("ttl", cfg.Cache.TTL()).Msg("caché de historial activa")
	}

	stockCardUC := appledger.NewStockCardUseCase(source, appledger.Options{
		Location:       loc,
		StrictRefTypes: cfg.Ledger.StrictRefTypes,
		PDF:            infrapdf.NewMarotoPDFGenerator(cfg.Ledger.Locale, loc),
		CSV:            export.NewCSVWriter(loc),
	}, log.Zerolog())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024, // preview con historiales grandes
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestID())
	app.Use(httpRouter.RequestLogger(log.Zerolog()))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Kardex API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockCardUC: stockCardUC,
		Cache:       invalidator,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		ExportRoles: cfg.JWT.ExportRoles,
		Logger:      log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
