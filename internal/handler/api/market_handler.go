package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/service/cache"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
)

// query endpoints share one bucket per client address
const (
	rateCapacity  = 20
	rateRefillSec = 10
)

// MarketHandler serves the buffered indicator data over HTTP.
type MarketHandler struct {
	buffer       *usecase.BufferSink
	cache        cache.BytesCache
	limiter      *ratelimit.Limiter
	symbols      []string
	queryTimeout time.Duration
	log          *applogger.Logger
}

// NewMarketHandler creates the market query handler. cache may be nil;
// the latest endpoint then reports not found.
func NewMarketHandler(buffer *usecase.BufferSink, c cache.BytesCache, symbols []string, queryTimeout time.Duration, log *applogger.Logger) *MarketHandler {
	return &MarketHandler{
		buffer:       buffer,
		cache:        c,
		limiter:      ratelimit.New(),
		symbols:      symbols,
		queryTimeout: queryTimeout,
		log:          log,
	}
}

// RegisterRoutes registers HTTP routes.
func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/tail/:n", h.Tail, h.rateLimit)
	e.GET("/api/latest/:symbol", h.Latest, h.rateLimit)
	e.GET("/api/symbols", h.Symbols)
	e.GET("/healthz", h.Health)
}

func (h *MarketHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP(), rateCapacity, rateRefillSec) {
			return xhttp.TooManyRequestsResponse(c)
		}
		return next(c)
	}
}

// Tail handles GET /tail/:n and responds with the newest n indicator
// entries as a bare JSON array, newest first.
func (h *MarketHandler) Tail(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 0 {
		return xhttp.BadRequestResponse(c, "n must be a non-negative integer")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.queryTimeout)
	defer cancel()

	out, err := h.buffer.Tail(ctx, n)
	if err != nil {
		h.log.Error("tail query failed", applogger.Int("n", n), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.JSON(http.StatusOK, out)
}

type latestRequest struct {
	Symbol string `param:"symbol" validate:"required,alphanum,max=10"`
}

// Latest handles GET /api/latest/:symbol from the latest-value cache.
func (h *MarketHandler) Latest(c echo.Context) error {
	var req latestRequest
	if errs := xhttp.ReadAndValidateRequest(c, &req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	if h.cache == nil {
		return xhttp.NotFoundResponse(c, "no data for symbol")
	}

	raw, ok, err := h.cache.GetBytes("latest:" + strings.ToUpper(req.Symbol))
	if err != nil {
		h.log.Error("latest cache read failed", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if !ok {
		return xhttp.NotFoundResponse(c, "no data for symbol")
	}

	var ind models.PerformanceIndicators
	if err := json.Unmarshal(raw, &ind); err != nil {
		h.log.Error("latest cache payload corrupt", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, ind)
}

// Symbols handles GET /api/symbols.
func (h *MarketHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.symbols)
}

// Health handles GET /healthz.
func (h *MarketHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
