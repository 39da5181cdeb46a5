package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/homequest-ai/lead-assistant/internal/api/router"
	"github.com/homequest-ai/lead-assistant/internal/chat"
	appconfig "github.com/homequest-ai/lead-assistant/internal/config"
	"github.com/homequest-ai/lead-assistant/internal/crm"
	"github.com/homequest-ai/lead-assistant/internal/http/handlers"
	"github.com/homequest-ai/lead-assistant/internal/leadarchive"
	"github.com/homequest-ai/lead-assistant/internal/llm"
	"github.com/homequest-ai/lead-assistant/internal/observability/metrics"
	"github.com/homequest-ai/lead-assistant/internal/retrieval"
	"github.com/homequest-ai/lead-assistant/internal/scheduling"
	"github.com/homequest-ai/lead-assistant/internal/scoring"
	"github.com/homequest-ai/lead-assistant/internal/session"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Session store: Redis when configured, in-memory otherwise.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(client, cfg.SessionTTL, nil)
		logger.Info("session store ready", "backend", "redis")
	} else {
		sessions = session.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, sessions are in-memory and lost on restart")
	}

	// Lead archive: Postgres when configured, in-memory otherwise.
	var archive leadarchive.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive = leadarchive.NewPostgresRepository(pool)
		logger.Info("lead archive ready", "backend", "postgres")
	} else {
		archive = leadarchive.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, lead archive is in-memory")
	}

	chatMetrics := metrics.NewChatMetrics(nil)
	retrievalMetrics := metrics.NewRetrievalMetrics(nil)

	retriever := retrieval.NewService(retrieval.Config{
		Enabled:      cfg.EnableVectorSearch,
		IdleUnload:   cfg.RetrievalIdleDelay,
		TopK:         cfg.RetrievalTopK,
		IndexPath:    cfg.IndexPath,
		MetadataPath: cfg.MetadataPath,
	}, func() (retrieval.Encoder, error) {
		return retrieval.NewOpenAIEncoder(retrieval.OpenAIEncoderConfig{
			BaseURL: cfg.EmbeddingBaseURL,
			APIKey:  cfg.EmbeddingAPIKey,
			Model:   cfg.EmbeddingModel,
		})
	}, retrievalMetrics, logger)

	generator := llm.NewGroqClient(llm.GroqConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
		Timeout: cfg.GenerationTimeout,
	}, logger)

	crmClient := crm.NewClient(crm.Config{
		APIKey:  cfg.HubSpotAPIKey,
		BaseURL: cfg.HubSpotBaseURL,
		Timeout: cfg.CRMTimeout,
	}, logger)

	scheduler := scheduling.NewClient(scheduling.Config{
		APIKey:   cfg.CalendlyAPIKey,
		Username: cfg.CalendlyUsername,
		BaseURL:  cfg.CalendlyBaseURL,
	}, logger)

	orchestrator := chat.NewOrchestrator(chat.Config{
		Sessions:  sessions,
		Retriever: retriever,
		Generator: generator,
		Scheduler: scheduler,
		CRM:       crmClient,
		Archive:   archive,
		Thresholds: scoring.Thresholds{
			Hot:  cfg.HotThreshold,
			Warm: cfg.WarmThreshold,
			Cold: cfg.ColdThreshold,
		},
		TopK:    cfg.RetrievalTopK,
		Metrics: chatMetrics,
		Logger:  logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        handlers.NewChatHandler(orchestrator, logger),
		AdminHandler:       handlers.NewAdminHandler(crmClient, retriever, archive, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRateLimit:      cfg.ChatRateLimit,
		ChatRateBurst:      cfg.ChatRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
