package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	domrepo "BotBourse/internal/domain/repository"
	"BotBourse/internal/services/fetch"
	"BotBourse/internal/usecase"
	xcache "BotBourse/pkg/cache"
	pkgch "BotBourse/pkg/clickhouse"
	"BotBourse/pkg/config"
	xhttp "BotBourse/pkg/http"
	applogger "BotBourse/pkg/logger"
)

// App encapsulates the application lifecycle: the optional fetch of fresh
// bars, one engine run, the dataset export, and the API server.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	fetcher    *fetch.Client
	engine     *usecase.Engine
	datasets   *usecase.DatasetUseCase
	handler    xhttp.Handler
	publisher  domrepo.WatchlistPublisher
	sink       domrepo.TrainingSink
	chClient   *pkgch.Client
	cache      xcache.Service
	prices     domrepo.PriceStore
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	fetcher *fetch.Client,
	engine *usecase.Engine,
	datasets *usecase.DatasetUseCase,
	handler xhttp.Handler,
	publisher domrepo.WatchlistPublisher,
	sink domrepo.TrainingSink,
	chClient *pkgch.Client,
	cache xcache.Service,
	prices domrepo.PriceStore,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		fetcher:   fetcher,
		engine:    engine,
		datasets:  datasets,
		handler:   handler,
		publisher: publisher,
		sink:      sink,
		chClient:  chClient,
		cache:     cache,
		prices:    prices,
	}
}

// Run executes the pipeline and, when the server is enabled, blocks
// serving the results until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		a.log.Info("shutdown signal received")
		cancel()
	}()

	if err := a.runPipeline(ctx); err != nil {
		a.cleanup()
		return err
	}

	if !a.cfg.Server.Enabled {
		a.cleanup()
		return nil
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.cleanup()
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("api server started", applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	return a.shutdown()
}

func (a *App) runPipeline(ctx context.Context) error {
	if a.fetcher != nil {
		a.log.Info("fetching universe", applogger.Int("assets", len(a.cfg.Universe)))
		series, failed := a.fetcher.FetchUniverse(ctx, a.engine.Universe())
		for ticker, s := range series {
			if err := a.prices.SaveSeries(ctx, s); err != nil {
				a.log.Warn("price save failed",
					applogger.String("ticker", ticker),
					applogger.Error(err),
				)
			}
		}
		if len(failed) > 0 {
			a.log.Warn("fetch incomplete", applogger.Strings("failed", failed))
		}
	}

	report, err := a.engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("engine run: %w", err)
	}
	a.log.Info("engine run complete",
		applogger.Int("processed", report.AssetsProcessed),
		applogger.Int("skipped", report.AssetsSkipped),
		applogger.Int("predictions", report.PredictionCount),
		applogger.Int("watchlist", report.WatchlistKept),
	)

	if a.sink != nil {
		if _, err := a.datasets.BuildAll(ctx); err != nil {
			a.log.Error("dataset export failed", applogger.Error(err))
		}
	}
	return nil
}

func (a *App) shutdown() error {
	a.log.Info("shutting down")
	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http server stop error", applogger.Error(err))
		}
	}
	a.cleanup()
	return nil
}

func (a *App) cleanup() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Error("publisher close error", applogger.Error(err))
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Error("training sink close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Error("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Error("cache close error", applogger.Error(err))
		}
	}
}
