package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"BotBourse/internal/domain/models"
	domrepo "BotBourse/internal/domain/repository"
	"BotBourse/internal/services/ratelimit"
	xcache "BotBourse/pkg/cache"
	xhttp "BotBourse/pkg/http"
	xlogger "BotBourse/pkg/logger"
)

const resultCacheTTL = 60 * time.Second

// SignalsHandler serves the persisted outputs of the last engine run.
type SignalsHandler struct {
	results domrepo.ResultReader
	cache   xcache.Service
	rl      *ratelimit.Limiter
	l       *xlogger.Logger
}

func NewSignalsHandler(results domrepo.ResultReader, l *xlogger.Logger) *SignalsHandler {
	return &SignalsHandler{results: results, rl: ratelimit.New(), l: l}
}

// SetCache attaches an optional read cache in front of the result files.
func (h *SignalsHandler) SetCache(c xcache.Service) { h.cache = c }

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api/v1")
	g.GET("/predictions", h.Predictions)
	g.GET("/watchlist", h.Watchlist)
	g.GET("/screener", h.Screener)
	g.GET("/meta", h.Meta)
	g.GET("/features/:ticker", h.Features)
}

func (h *SignalsHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// PredictionsRequest filters the flat per-horizon prediction records.
type PredictionsRequest struct {
	Horizon string `query:"horizon" validate:"omitempty,oneof=short medium long"`
	Ticker  string `query:"ticker" validate:"omitempty,min=1,max=16"`
}

func (h *SignalsHandler) Predictions(c echo.Context) error {
	req := &PredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var records []models.PredictionRecord
	err := h.cached(c.Request().Context(), "predictions", &records, func(ctx context.Context) (interface{}, error) {
		return h.results.LoadPredictions(ctx)
	})
	if err != nil {
		return h.readError(c, "predictions", err)
	}

	filtered := records[:0:0]
	for _, rec := range records {
		if req.Horizon != "" && string(rec.Horizon) != req.Horizon {
			continue
		}
		if req.Ticker != "" && rec.Ticker != req.Ticker {
			continue
		}
		filtered = append(filtered, rec)
	}
	return xhttp.ListResponse(c, filtered, int64(len(filtered)))
}

func (h *SignalsHandler) Watchlist(c echo.Context) error {
	var signals []models.WatchlistSignal
	err := h.cached(c.Request().Context(), "watchlist", &signals, func(ctx context.Context) (interface{}, error) {
		return h.results.LoadWatchlist(ctx)
	})
	if err != nil {
		return h.readError(c, "watchlist", err)
	}
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

// ScreenerRequest narrows the screener table.
type ScreenerRequest struct {
	Sector    string `query:"sector" validate:"omitempty,min=1,max=64"`
	Region    string `query:"region" validate:"omitempty,min=1,max=32"`
	AssetType string `query:"assetType" validate:"omitempty,oneof=stock etf"`
	MaxRisk   int    `query:"maxRisk" validate:"omitempty,gte=1,lte=5"`
}

func (h *SignalsHandler) Screener(c echo.Context) error {
	req := &ScreenerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var rows []models.ScreenerRow
	err := h.cached(c.Request().Context(), "screener", &rows, func(ctx context.Context) (interface{}, error) {
		return h.results.LoadScreener(ctx)
	})
	if err != nil {
		return h.readError(c, "screener", err)
	}

	filtered := rows[:0:0]
	for _, row := range rows {
		if req.Sector != "" && row.Sector != req.Sector {
			continue
		}
		if req.Region != "" && row.Region != req.Region {
			continue
		}
		if req.AssetType != "" && row.AssetType != req.AssetType {
			continue
		}
		if req.MaxRisk > 0 && row.RiskScore > req.MaxRisk {
			continue
		}
		filtered = append(filtered, row)
	}
	return xhttp.ListResponse(c, filtered, int64(len(filtered)))
}

func (h *SignalsHandler) Meta(c echo.Context) error {
	meta, err := h.results.LoadRunMeta(c.Request().Context())
	if err != nil {
		return h.readError(c, "meta", err)
	}
	return xhttp.SuccessResponse(c, meta)
}

func (h *SignalsHandler) Features(c echo.Context) error {
	ticker := c.Param("ticker")
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker required")
	}
	if !h.rl.Allow(c.RealIP()+":features", 10, 5) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	doc, err := h.results.LoadFeatures(c.Request().Context(), ticker)
	if err != nil {
		h.l.Warn("features read failed",
			xlogger.String("ticker", ticker),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no features for %s", ticker))
	}
	return xhttp.SuccessResponse(c, doc)
}

// cached reads through the optional cache before falling back to the
// result store; load errors are never cached.
func (h *SignalsHandler) cached(ctx context.Context, key string, dest interface{}, load func(context.Context) (interface{}, error)) error {
	cacheKey := "results:" + key
	if h.cache != nil {
		if err := h.cache.Get(ctx, cacheKey, dest); err == nil {
			return nil
		} else if !errors.Is(err, xcache.ErrCacheMiss) {
			h.l.Warn("result cache read failed", xlogger.String("key", cacheKey), xlogger.Error(err))
		}
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}
	if err := remarshal(value, dest); err != nil {
		return err
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, dest, resultCacheTTL); err != nil {
			h.l.Warn("result cache write failed", xlogger.String("key", cacheKey), xlogger.Error(err))
		}
	}
	return nil
}

func remarshal(src, dest interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (h *SignalsHandler) readError(c echo.Context, what string, err error) error {
	if errors.Is(err, domrepo.ErrNoRunOutput) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no %s available yet", what))
	}
	h.l.Error("result read failed", xlogger.String("what", what), xlogger.Error(err))
	return xhttp.InternalServerErrorResponse(c)
}
