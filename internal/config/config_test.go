package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENABLE_VECTOR_SEARCH", "")
	t.Setenv("RETRIEVAL_IDLE_UNLOAD", "")
	t.Setenv("GROQ_API_KEY", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if !cfg.EnableVectorSearch {
		t.Fatalf("expected vector search enabled by default")
	}
	if cfg.RetrievalIdleDelay != 5*time.Minute {
		t.Fatalf("expected default idle unload of 5m, got %s", cfg.RetrievalIdleDelay)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected default top-k of 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.HotThreshold != 80 || cfg.WarmThreshold != 50 || cfg.ColdThreshold != 30 {
		t.Fatalf("unexpected default thresholds: %d/%d/%d", cfg.HotThreshold, cfg.WarmThreshold, cfg.ColdThreshold)
	}
	if cfg.GroqModel != "llama3-70b-8192" {
		t.Fatalf("expected default groq model, got %s", cfg.GroqModel)
	}
	if cfg.EmbeddingDimensions != 384 {
		t.Fatalf("expected default embedding dimensions, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default session TTL, got %s", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENABLE_VECTOR_SEARCH", "false")
	t.Setenv("RETRIEVAL_IDLE_UNLOAD", "90s")
	t.Setenv("RETRIEVAL_TOP_K", "3")
	t.Setenv("LEAD_HOT_THRESHOLD", "85")
	t.Setenv("GROQ_BASE_URL", "http://localhost:9999/v1")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.EnableVectorSearch {
		t.Fatalf("expected vector search disabled")
	}
	if cfg.RetrievalIdleDelay != 90*time.Second {
		t.Fatalf("expected idle unload override, got %s", cfg.RetrievalIdleDelay)
	}
	if cfg.RetrievalTopK != 3 {
		t.Fatalf("expected top-k override, got %d", cfg.RetrievalTopK)
	}
	if cfg.HotThreshold != 85 {
		t.Fatalf("expected hot threshold override, got %d", cfg.HotThreshold)
	}
	if cfg.GroqBaseURL != "http://localhost:9999/v1" {
		t.Fatalf("expected groq base url override, got %s", cfg.GroqBaseURL)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis TLS enabled")
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected database url override, got %s", cfg.DatabaseURL)
	}
}

func TestLoadHTTPSurface(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("CHAT_RATE_LIMIT", "")
	cfg := Load()
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins by default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ChatRateLimit != 2 || cfg.ChatRateBurst != 10 {
		t.Fatalf("unexpected default rate limit: %v/%d", cfg.ChatRateLimit, cfg.ChatRateBurst)
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("CHAT_RATE_LIMIT", "0.5")
	t.Setenv("CHAT_RATE_BURST", "3")
	cfg = Load()
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ChatRateLimit != 0.5 || cfg.ChatRateBurst != 3 {
		t.Fatalf("unexpected rate limit override: %v/%d", cfg.ChatRateLimit, cfg.ChatRateBurst)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")
	t.Setenv("RETRIEVAL_IDLE_UNLOAD", "soon")
	t.Setenv("ENABLE_VECTOR_SEARCH", "maybe")
	cfg := Load()
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected fallback top-k, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalIdleDelay != 5*time.Minute {
		t.Fatalf("expected fallback idle unload, got %s", cfg.RetrievalIdleDelay)
	}
	if !cfg.EnableVectorSearch {
		t.Fatalf("expected fallback vector search enabled")
	}
}
