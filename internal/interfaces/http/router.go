package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	appledger "github.com/jhoicas/kardex-api/internal/application/ledger"
)

// CacheInvalidator descarta el historial cacheado de un producto.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, companyID, productID string) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockCardUC *appledger.StockCardUseCase
	Cache       CacheInvalidator // nil = sin caché
	AdminRoles  []string         // invalidación de caché; vacío = admin
	JWTSecret   string
	JWTIssuer   string
	ExportRoles []string // vacío = cualquier rol autenticado
	Logger      zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	inv := protected.Group("/inventory")

	h := NewStockCardHandler(deps.StockCardUC, deps.Logger)
	inv.Get("/products/:id/stock-card", h.GetStockCard)
	inv.Get("/products/:id/stock-card/summary", h.GetSummary)
	inv.Get("/products/:id/stock-card/export", RequireRole(deps.ExportRoles...), h.Export)
	inv.Post("/stock-card/preview", h.Preview)

	if deps.Cache != nil {
		admin := deps.AdminRoles
		if len(admin) == 0 {
			admin = []string{"admin"}
		}
		ch := NewCacheHandler(deps.Cache, deps.Logger)
		inv.Delete("/products/:id/stock-card/cache", RequireRole(admin...), ch.Invalidate)
	}
}
