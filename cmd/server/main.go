package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"telehealth-api/internal/config"
	"telehealth-api/internal/handler"
	"telehealth-api/internal/logger"
	"telehealth-api/internal/middleware"
	"telehealth-api/internal/notify"
	"telehealth-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("db ping", zap.Error(err))
	}
	log.Info("connected to postgres")

	// run migrations
	if migration, err := os.ReadFile("db/migrations/001_init.sql"); err != nil {
		log.Warn("migration file not found, skipping", zap.Error(err))
	} else if _, err := pool.Exec(context.Background(), string(migration)); err != nil {
		log.Warn("migration", zap.Error(err))
	} else {
		log.Info("migration applied")
	}

	// notifications are optional; without a broker transitions still commit
	var notifier notify.Notifier = notify.Nop{}
	if cfg.AMQPURL != "" {
		rabbit, err := notify.NewRabbit(cfg.AMQPURL, cfg.NotifyQueue, log)
		if err != nil {
			log.Warn("notification broker unavailable, continuing without", zap.Error(err))
		} else {
			notifier = rabbit
			defer rabbit.Close()
			log.Info("notification publisher connected", zap.String("queue", cfg.NotifyQueue))
		}
	}

	st := store.New(pool)
	h := handler.New(st, notifier, log, cfg.JWTSecret, cfg.TokenTTL, cfg.VideoBaseURL)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(httprate.LimitByIP(cfg.GlobalRateLimit, time.Second))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", h.Routes(authLimiter))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
