package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/eslym/dcyt-bot-v2/internal/config"
	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/dedup"
	"github.com/eslym/dcyt-bot-v2/internal/discord"
	"github.com/eslym/dcyt-bot-v2/internal/events"
	"github.com/eslym/dcyt-bot-v2/internal/fetcher"
	"github.com/eslym/dcyt-bot-v2/internal/handler"
	"github.com/eslym/dcyt-bot-v2/internal/metrics"
	"github.com/eslym/dcyt-bot-v2/internal/middleware"
	"github.com/eslym/dcyt-bot-v2/internal/notify"
	"github.com/eslym/dcyt-bot-v2/internal/poller"
	"github.com/eslym/dcyt-bot-v2/internal/websub"
	"github.com/eslym/dcyt-bot-v2/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database ready")

	guilds := repository.NewGuildRepository(pool)
	channels := repository.NewYoutubeChannelRepository(pool)
	videos := repository.NewVideoRepository(pool)
	subs := repository.NewSubscriptionRepository(pool)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sender, err := discord.New(cfg.Discord.Token, log)
	if err != nil {
		return fmt.Errorf("connect discord: %w", err)
	}
	defer sender.Close()

	var tap *events.Publisher
	if cfg.Events.URL != "" {
		tap, err = events.NewPublisher(cfg.Events.URL, cfg.Events.Exchange, cfg.Events.RoutingKey, log)
		if err != nil {
			return fmt.Errorf("connect event broker: %w", err)
		}
		defer tap.Close()
	}

	dataFetcher, err := buildFetcher(ctx, cfg.Fetcher)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	lock := dedup.New(dedup.DefaultTTL)
	publisher := notify.NewPublisher(subs, sender, tap, log, m)
	processor := websub.NewProcessor(channels, videos, dataFetcher, lock, publisher, log, m)

	hub := websub.NewHubClient(cfg.WebSub.HubURL, cfg.WebSub.CallbackBase, log)
	lifecycle := websub.NewLifecycle(channels, subs, hub, log)

	jobs := poller.New(channels, videos, hub, processor, log, m,
		cfg.Poller.RenewalSpec, cfg.Poller.ReconcileSpec, cfg.Poller.RenewalWindow)
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	router := buildRouter(cfg, log, m, registry, channels, guilds, subs, processor, lifecycle)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	jobs.Stop(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func buildFetcher(ctx context.Context, cfg config.FetcherConfig) (fetcher.DataFetcher, error) {
	var inner fetcher.DataFetcher
	switch cfg.Strategy {
	case "api":
		api, err := fetcher.NewAPIFetcher(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		inner = api
	case "invidious":
		inner = fetcher.NewInvidiousFetcher(cfg.InvidiousInstance, nil)
	default:
		return nil, fmt.Errorf("unknown fetcher strategy %q", cfg.Strategy)
	}
	return fetcher.WithRateLimit(inner, cfg.RatePerSecond, cfg.RateBurst), nil
}

func buildRouter(
	cfg *config.Config,
	log *zap.Logger,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	channels repository.YoutubeChannelRepository,
	guilds repository.GuildRepository,
	subs repository.SubscriptionRepository,
	processor *websub.Processor,
	lifecycle *websub.Lifecycle,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	callback := websub.NewHandler(channels, processor, log, m)
	callback.RegisterRoutes(router)

	management := handler.NewManagement(guilds, channels, subs, lifecycle, log)
	api := router.Group("/api", middleware.APIKeyAuth(cfg.API.Keys))
	management.RegisterRoutes(api)

	return router
}
