package http

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	appledger "github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	core "github.com/jhoicas/kardex-api/internal/domain/ledger"
)

// StockCardHandler maneja las peticiones HTTP del kardex (protegido).
type StockCardHandler struct {
	uc        *appledger.StockCardUseCase
	validator *validator.Validate
	log       zerolog.Logger
}

// NewStockCardHandler construye el handler.
func NewStockCardHandler(uc *appledger.StockCardUseCase, log zerolog.Logger) *StockCardHandler {
	return &StockCardHandler{uc: uc, validator: validator.New(), log: log}
}

// GetStockCard godoc
// @Summary      Kardex de un producto
// @Description  Movimientos con saldo acumulado, saldo inicial del periodo y totales.
// @Tags         stock-card
// @Security     Bearer
// @Produce      json
// @Param        id            path   string  true   "ID del producto"
// @Param        warehouse_id  query  string  false  "Bodega. Vacío = todas."
// @Param        from          query  string  false  "Desde (2006-01-02 o RFC3339)"
// @Param        to            query  string  false  "Hasta (inclusive; solo fecha cubre el día completo)"
// @Param        order         query  string  false  "asc | desc"
// @Param        reconcile     query  bool    false  "Comparar con el resumen del origen"
// @Success      200  {object}  dto.StockCardResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock-card [get]
func (h *StockCardHandler) GetStockCard(c *fiber.Ctx) error {
	in, ok, err := h.parseInput(c)
	if !ok {
		return err
	}
	report, err := h.uc.GetStockCard(c.UserContext(), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(appledger.ToResponse(report))
}

// GetSummary godoc
// @Summary      Totales del kardex
// @Tags         stock-card
// @Security     Bearer
// @Produce      json
// @Param        id            path   string  true   "ID del producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Param        reconcile     query  bool    false  "Comparar con el resumen del origen"
// @Success      200  {object}  dto.StockCardSummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock-card/summary [get]
func (h *StockCardHandler) GetSummary(c *fiber.Ctx) error {
	in, ok, err := h.parseInput(c)
	if !ok {
		return err
	}
	report, err := h.uc.GetStockCard(c.UserContext(), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(appledger.ToSummaryResponse(report))
}

// Export godoc
// @Summary      Descargar kardex
// @Tags         stock-card
// @Security     Bearer
// @Produce      application/pdf
// @Produce      text/csv
// @Param        id      path   string  true  "ID del producto"
// @Param        format  query  string  true  "pdf | csv"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock-card/export [get]
func (h *StockCardHandler) Export(c *fiber.Ctx) error {
	in, ok, err := h.parseInput(c)
	if !ok {
		return err
	}
	format := c.Query("format", appledger.FormatPDF)
	file, err := h.uc.ExportStockCard(c.UserContext(), in, format)
	if err != nil {
		return h.writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.Filename+`"`)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(file.Content)))
	return c.Status(fiber.StatusOK).Send(file.Content)
}

// Preview godoc
// @Summary      Calcular kardex sobre movimientos enviados
// @Description  No consulta la fuente: útil para el navegador que ya tiene los movimientos.
// @Tags         stock-card
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PreviewRequest  true  "opening_qty, opening_cost, from, to, order, movements"
// @Success      200   {object}  dto.StockCardResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-card/preview [post]
func (h *StockCardHandler) Preview(c *fiber.Ctx) error {
	if GetCompanyID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var req dto.PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if fields := h.validate(req); fields != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Fields: fields})
	}
	r, err := h.uc.ParseRange(req.From, req.To)
	if err != nil {
		return h.writeError(c, err)
	}
	report := h.uc.Preview(appledger.PreviewInput{
		Movements:   req.Movements,
		OpeningQty:  optionalAmount(req.OpeningQty),
		OpeningCost: optionalAmount(req.OpeningCost),
		Range:       r,
		Descending:  req.Order == "desc",
	})
	return c.JSON(appledger.ToResponse(&report))
}

// ── helpers ───────────────────────────────────────────────────────────────────

// parseInput arma la consulta desde path, query y token. Con ok=false la respuesta de error
// ya está escrita y err es el resultado de escribirla.
func (h *StockCardHandler) parseInput(c *fiber.Ctx) (in appledger.StockCardInput, ok bool, err error) {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return in, false, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	productID := c.Params("id")
	if productID == "" {
		return in, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de producto requerido"})
	}
	var q dto.StockCardQuery
	if err := c.QueryParser(&q); err != nil {
		return in, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if fields := h.validate(q); fields != nil {
		return in, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos", Fields: fields})
	}
	r, perr := h.uc.ParseRange(q.From, q.To)
	if perr != nil {
		return in, false, h.writeError(c, perr)
	}
	return appledger.StockCardInput{
		Query: entity.MovementQuery{
			CompanyID:   companyID,
			ProductID:   productID,
			WarehouseID: q.WarehouseID,
			AuthToken:   GetAuthToken(c),
		},
		Range:      r,
		Descending: q.Order == "desc",
		Reconcile:  q.Reconcile,
	}, true, nil
}

func (h *StockCardHandler) validate(v interface{}) map[string]string {
	err := h.validator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// writeError traduce errores de dominio a HTTP.
func (h *StockCardHandler) writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		status, code = fiber.StatusBadRequest, "INVALID_RANGE"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UPSTREAM_UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnknownRefType):
		status, code = fiber.StatusUnprocessableEntity, "UNKNOWN_REF_TYPE"
	case errors.Is(err, domain.ErrUpstream):
		status, code = fiber.StatusBadGateway, "UPSTREAM_ERROR"
	}
	if !appledger.IsDomainError(err) {
		h.log.Error().Err(err).Str("request_id", GetRequestID(c)).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func optionalAmount(s entity.Scalar) *decimal.Decimal {
	if s.Blank() {
		return nil
	}
	d := core.ParseAmount(s.String())
	return &d
}
