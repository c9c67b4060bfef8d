// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
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

	"github.com/marcelojr/uvote/internal/app/httpapi"
	"github.com/marcelojr/uvote/internal/app/results"
	"github.com/marcelojr/uvote/internal/app/voting"
	"github.com/marcelojr/uvote/internal/domain"
	"github.com/marcelojr/uvote/internal/platform/antifraude"
	"github.com/marcelojr/uvote/internal/platform/clock"
	"github.com/marcelojr/uvote/internal/platform/config"
	"github.com/marcelojr/uvote/internal/platform/health"
	"github.com/marcelojr/uvote/internal/platform/ids"
	"github.com/marcelojr/uvote/internal/platform/logger"
	"github.com/marcelojr/uvote/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/uvote/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/uvote/internal/platform/storage/redis"
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

	// Redis guarda a trava de cédula e o rate limit; sem ele não aceitamos votos.
	redisClient, err := redisstorage.NewClient(ctx, redisstorage.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	repos := voting.Repositories{
		Elections:      postgresstorage.NewElectionRepository(db),
		Candidates:     postgresstorage.NewCandidateRepository(db),
		Applications:   postgresstorage.NewApplicationRepository(db),
		Votes:          postgresstorage.NewVoteRepository(db),
		Profiles:       postgresstorage.NewProfileRepository(db),
		EligibleVoters: postgresstorage.NewEligibleVoterRepository(db),
	}
	lock := redisstorage.NewBallotLock(redisClient, cfg.BallotLockPrefix, cfg.BallotLockTTL)
	clockSystem := clock.NewSystemClock()

	var antifraudeSvc domain.Antifraude = antifraude.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	servico := voting.NewService(repos, lock, antifraudeSvc, clockSystem, ids.NewGenerator(), logger.L())
	apuracao := results.NewAggregator(repos.Elections, repos.Candidates, repos.Votes, repos.Profiles, repos.EligibleVoters, clockSystem)
	auth := httpapi.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	api := httpapi.New(servico, apuracao, auth, logger.L(), cfg.RequestTimeout)

	checker := health.NewChecker(health.WithDatabase(sqlDB), health.WithRedis(redisClient))

	// Health e métricas ficam fora da autenticação; o resto vai para a API.
	router := chi.NewRouter()
	router.Get("/healthz", checker.LiveHandler())
	router.Get("/readyz", checker.ReadyHandler())
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/", api.Routes())

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api ouvindo", "addr", cfg.HTTPAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("erro no servidor", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("encerrando api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("falha no shutdown do servidor", "err", err)
	}
}
