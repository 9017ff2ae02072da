package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maderera/internal/config"
	"maderera/internal/infra"
	"maderera/internal/metrics"
	"maderera/internal/middleware"
	"maderera/internal/repository"
	"maderera/internal/router"
	"maderera/internal/service"
	"maderera/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	metrics.Register(nil)

	if err := os.MkdirAll(cfg.PDFStoragePath, 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.PDFStoragePath).Msg("cannot create pdf storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Repositories ─────────────────────────────────────────────────────────
	tx := repository.NewTransactor(db, cfg.LedgerTxMaxRetries)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)
	historialRepo := repository.NewHistorialPrecioRepository(db)
	documentoRepo := repository.NewDocumentoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoRepo, tx)
	precioSvc := service.NewPrecioService(productoRepo, rdb, cfg.PrecioCacheTTL)
	productoSvc := service.NewProductoService(productoRepo, historialRepo, inventarioSvc, precioSvc, tx)
	documentoSvc := service.NewDocumentoService(documentoRepo, productoRepo, tx, dispatcher)

	// ── Workers ──────────────────────────────────────────────────────────────
	// Handlers are wired here (composition root) so the pool shares the
	// render pool and the mail breaker with /health.
	renderPool := infra.NewRenderPool(cfg.RenderPoolSize, cfg.RenderIdleTimeout)
	mailCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	mailer := infra.NewMailer(cfg)

	pool := worker.NewPool(rdb, map[string]worker.Handler{
		worker.JobDocumentoPDF: worker.NewDocumentoWorker(documentoRepo, renderPool, dispatcher, cfg.PDFStoragePath, cfg.EmpresaNombre),
		worker.JobEmail:        worker.NewEmailWorker(mailer, mailCB),
	})
	pool.Start(ctx, cfg.WorkerPoolSize)

	scheduler, err := worker.StartScheduler(ctx, worker.SchedulerConfig{
		Alertas:     inventarioSvc,
		AlertasCron: cfg.AlertasStockCron,
		RenderPool:  renderPool,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	limiter.StartPurge(ctx.Done(), 5*time.Minute)

	r := router.New(cfg, router.Deps{
		DB:            db,
		Redis:         rdb,
		Productos:     productoSvc,
		Inventario:    inventarioSvc,
		Precios:       precioSvc,
		Documentos:    documentoSvc,
		HistorialRepo: historialRepo,
		MailCB:        mailCB,
		RenderPool:    renderPool,
		RateLimiter:   limiter,
		Metrics:       promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("maderera backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	scheduler.Stop()
	cancel()
	pool.Wait()
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
