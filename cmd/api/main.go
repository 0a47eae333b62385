package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotline-platform/internal/auth"
	"hotline-platform/internal/calls"
	"hotline-platform/internal/config"
	"hotline-platform/internal/directory"
	"hotline-platform/internal/playback"
	"hotline-platform/internal/reporting"
	"hotline-platform/internal/routing"
	"hotline-platform/internal/storage"
	"hotline-platform/internal/telephony"
	"hotline-platform/pkg/logger"
	"hotline-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/panjf2000/ants/v2"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{
		ConnectAttempts: cfg.DB.ConnectAttempts,
	})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	signer, err := storage.NewMinioSigner(cfg.Storage, log)
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	// Directory reads go through the redis cache; the cache fails open to postgres.
	dirRepo := directory.NewCachedRepo(directory.NewPostgresRepo(db), rdb, cfg.Redis.CacheTTL, log)
	resolver := directory.NewResolver(dirRepo, log)
	resolver.Timeout = cfg.Routing.LookupTimeout

	voice := playback.Voice{Name: cfg.Routing.Voice, Language: cfg.Routing.Language}
	builder := playback.NewBuilder(dirRepo, signer, playback.Options{
		Voice:       voice,
		AudioURLTTL: cfg.Routing.AudioURLTTL,
		Timeout:     cfg.Routing.LookupTimeout,
	}, log)

	callRepo := calls.NewPostgresRepo(db)
	recorder := calls.NewRecorder(callRepo, log)
	if cfg.Routing.CallLogWorkers > 0 {
		pool, err := ants.NewPool(cfg.Routing.CallLogWorkers, ants.WithNonblocking(true))
		if err != nil {
			log.Error("call log pool init failed", "err", err)
			os.Exit(1)
		}
		defer pool.Release()
		recorder.Pool = pool
	}

	engine := routing.NewEngine(resolver, builder, recorder, voice)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:         cfg,
		authManager: authManager,
		webhooks: telephony.WebhookHandler{
			Router: engine,
			Calls:  recorder,
			Voice:  voice,
		},
		calls:     callRepo,
		reporting: reporting.NewService(callRepo),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
