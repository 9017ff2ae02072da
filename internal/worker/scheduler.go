package worker

// scheduler.go
// Periodic jobs on a gocron scheduler:
//   - stock alerts: logs products at or below their reorder threshold
//   - render pool sweep: drops renderers idle past RENDER_IDLE_TIMEOUT

import (
	"context"
	"time"

	"maderera/internal/dto"
	"maderera/internal/infra"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

const renderSweepInterval = time.Minute

// AlertasProvider is satisfied by service.InventarioService.
type AlertasProvider interface {
	ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
}

type SchedulerConfig struct {
	Alertas     AlertasProvider
	AlertasCron string
	RenderPool  *infra.RenderPool
}

// StartScheduler registers the periodic jobs and starts them in the
// background. The caller stops the returned scheduler on shutdown.
func StartScheduler(ctx context.Context, cfg SchedulerConfig) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()

	if cfg.Alertas != nil && cfg.AlertasCron != "" {
		if _, err := s.Cron(cfg.AlertasCron).Do(func() { LogAlertasStock(ctx, cfg.Alertas) }); err != nil {
			return nil, err
		}
	}
	if cfg.RenderPool != nil {
		if _, err := s.Every(renderSweepInterval).Do(func() {
			if n := cfg.RenderPool.EvictIdle(); n > 0 {
				log.Debug().Int("evicted", n).Msg("scheduler: idle renderers evicted")
			}
		}); err != nil {
			return nil, err
		}
	}

	s.StartAsync()
	log.Info().Msg("scheduler: started")
	return s, nil
}

// LogAlertasStock logs one warning per product at or below its minimum.
func LogAlertasStock(ctx context.Context, p AlertasProvider) int {
	alertas, err := p.ObtenerAlertas(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: failed to query stock alerts")
		return 0
	}
	for _, a := range alertas {
		log.Warn().
			Str("producto_id", a.ProductoID).
			Str("nombre", a.Nombre).
			Int("stock", a.Stock).
			Int("stock_minimo", a.StockMinimo).
			Msg("stock bajo mínimo")
	}
	return len(alertas)
}
