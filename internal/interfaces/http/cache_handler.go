package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/kardex-api/internal/application/dto"
)

// CacheHandler operaciones de mantenimiento de la caché del historial.
type CacheHandler struct {
	cache CacheInvalidator
	log   zerolog.Logger
}

// NewCacheHandler construye el handler.
func NewCacheHandler(cache CacheInvalidator, log zerolog.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, log: log}
}

// Invalidate godoc
// @Summary      Descartar historial cacheado
// @Description  La próxima consulta del kardex vuelve a leer la fuente.
// @Tags         stock-card
// @Security     Bearer
// @Param        id  path  string  true  "ID del producto"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock-card/cache [delete]
func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	productID := c.Params("id")
	if err := h.cache.Invalidate(c.UserContext(), companyID, productID); err != nil {
		h.log.Error().Err(err).Str("product_id", productID).Msg("invalidar caché")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CACHE_UNAVAILABLE", Message: "no se pudo invalidar la caché"})
	}
	h.log.Info().Str("company_id", companyID).Str("product_id", productID).Str("user_id", GetUserID(c)).Msg("caché invalidada")
	return c.SendStatus(fiber.StatusNoContent)
}
