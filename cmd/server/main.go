package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio-dashboard/internal/cache"
	"portfolio-dashboard/internal/client"
	"portfolio-dashboard/internal/config"
	"portfolio-dashboard/internal/handler"
	"portfolio-dashboard/internal/history"
	"portfolio-dashboard/internal/logger"
	"portfolio-dashboard/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	responseCache, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	analytics := client.NewAnalyticsClient(client.Options{
		BaseURL:  cfg.AnalyticsURL,
		Timeout:  cfg.AnalyticsTimeout,
		Cache:    responseCache,
		CacheTTL: cfg.CacheTTL,
		Logger:   log,
	})

	var (
		recorder service.Recorder
		reader   handler.HistoryReader
	)
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.HistoryPath).Msg("open history")
		}
		defer store.Close()
		recorder, reader = store, store
		log.Info().Str("path", history.ResolvePath(cfg.HistoryPath)).Msg("action history enabled")
	}

	sessions := service.NewSessionStore(cfg.SessionTTL, func(id string) *service.Dashboard {
		return service.NewDashboard(id, analytics, service.Options{
			ForecastModel:  cfg.ForecastModel,
			ForecastPeriod: cfg.ForecastPeriod,
			Recorder:       recorder,
			Logger:         log,
		})
	})

	if cfg.AuthEnabled() && cfg.TokenSecret == "" {
		log.Warn().Msg("TOKEN_SECRET not set, tokens will not survive a restart")
	}

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(handler.RouterConfig{
		Sessions:    sessions,
		History:     reader,
		Auth:        handler.NewAuth(cfg.AccessCode, cfg.TokenSecret),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("analytics_url", cfg.AnalyticsURL).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// newCache returns Redis when REDIS_ADDR is set and reachable, the in-memory
// cache otherwise, or nil when caching is off.
func newCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Provider, func()) {
	if cfg.CacheTTL <= 0 {
		return nil, func() {}
	}
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(pingCtx, cache.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: "portfolio-dashboard:",
		})
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("redis response cache enabled")
			return rc, func() { _ = rc.Close() }
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
	}
	log.Info().Dur("ttl", cfg.CacheTTL).Msg("in-memory response cache enabled")
	return cache.NewMemoryCache(), func() {}
}
