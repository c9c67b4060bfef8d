// Worker que mantém o status gravado das eleições em dia com a janela de votação e expõe métricas.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/uvote/internal/app/worker"
	"github.com/marcelojr/uvote/internal/platform/clock"
	"github.com/marcelojr/uvote/internal/platform/config"
	"github.com/marcelojr/uvote/internal/platform/health"
	"github.com/marcelojr/uvote/internal/platform/logger"
	"github.com/marcelojr/uvote/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/uvote/internal/platform/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}

	logCloser := logger.Setup(logger.ParseLevel(cfg.LogLevel), logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	sweeper := worker.NewStatusSweeper(postgresstorage.NewElectionRepository(db), clock.NewSystemClock(), logger.L())
	if _, err := sweeper.Sweep(ctx); err != nil {
		logger.Error("varredura inicial falhou", "err", err)
	}
	if err := sweeper.Start(cfg.StatusSweepSchedule); err != nil {
		logger.Fatal("agenda de varredura invalida", "schedule", cfg.StatusSweepSchedule, "err", err)
	}
	defer sweeper.Stop()

	var srv *http.Server
	if cfg.WorkerMetricsAddress != "" {
		checker := health.NewChecker(health.WithDatabase(sqlDB))
		router := chi.NewRouter()
		router.Get("/healthz", checker.LiveHandler())
		router.Get("/readyz", checker.ReadyHandler())
		router.Handle("/metrics", promhttp.Handler())

		srv = &http.Server{Addr: cfg.WorkerMetricsAddress, Handler: router, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	logger.Info("worker iniciado", "schedule", cfg.StatusSweepSchedule)
	<-ctx.Done()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	logger.Info("worker finalizado")
}
