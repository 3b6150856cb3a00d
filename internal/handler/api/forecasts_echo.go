package api

import (
	"fmt"

	models "FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
	xlogger "FinCast/pkg/logger"
	"FinCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// ForecastsEchoHandler exposes persisted forecast sets over HTTP.
type ForecastsEchoHandler struct {
	logger *xlogger.Logger
	query  *usecase.ForecastQuery
}

func NewForecastsEchoHandler(logger *xlogger.Logger, query *usecase.ForecastQuery) *ForecastsEchoHandler {
	return &ForecastsEchoHandler{logger: logger, query: query}
}

func (h *ForecastsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecasts/latest", h.Latest)
	g.GET("/forecasts/hour", h.ForHour)
	g.GET("/symbols", h.Symbols)
}

func (h *ForecastsEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.Latest(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("latest forecast query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastsEchoHandler) ForHour(c echo.Context) error {
	req := &models.HourForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	at, ok := util.ParseTime(req.At)
	if !ok {
		return xhttp.BadRequestResponse(c, fmt.Sprintf("invalid 'at' value: %q", req.At))
	}

	res, err := h.query.ForHour(c.Request().Context(), req.Symbol, at)
	if err != nil {
		h.logger.Error("hour forecast query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastsEchoHandler) Symbols(c echo.Context) error {
	symbols, err := h.query.Symbols(c.Request().Context())
	if err != nil {
		h.logger.Error("symbols query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"count":   len(symbols),
		"symbols": symbols,
	})
}
