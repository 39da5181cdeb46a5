package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Semantic retrieval
	EnableVectorSearch  bool
	RetrievalIdleDelay  time.Duration
	RetrievalTopK       int
	IndexPath           string
	MetadataPath        string
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Lead scoring tier thresholds
	HotThreshold  int
	WarmThreshold int
	ColdThreshold int

	// Generation (Groq, OpenAI-compatible API)
	GroqAPIKey        string
	GroqBaseURL       string
	GroqModel         string
	GenerationTimeout time.Duration

	// CRM (HubSpot)
	HubSpotAPIKey  string
	HubSpotBaseURL string
	CRMTimeout     time.Duration

	// Scheduling (Calendly)
	CalendlyAPIKey   string
	CalendlyUsername string
	CalendlyBaseURL  string

	// Session store
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Lead archive
	DatabaseURL string

	// HTTP surface
	CORSAllowedOrigins []string
	ChatRateLimit      float64
	ChatRateBurst      int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		EnableVectorSearch:  getEnvAsBool("ENABLE_VECTOR_SEARCH", true),
		RetrievalIdleDelay:  getEnvAsDuration("RETRIEVAL_IDLE_UNLOAD", 5*time.Minute),
		RetrievalTopK:       getEnvAsInt("RETRIEVAL_TOP_K", 5),
		IndexPath:           getEnv("KNOWLEDGE_INDEX_PATH", "embeddings/index.gob"),
		MetadataPath:        getEnv("KNOWLEDGE_METADATA_PATH", "embeddings/metadata.json"),
		EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingAPIKey:     getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
		EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 384),

		HotThreshold:  getEnvAsInt("LEAD_HOT_THRESHOLD", 80),
		WarmThreshold: getEnvAsInt("LEAD_WARM_THRESHOLD", 50),
		ColdThreshold: getEnvAsInt("LEAD_COLD_THRESHOLD", 30),

		GroqAPIKey:        getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:       getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:         getEnv("GROQ_MODEL", "llama3-70b-8192"),
		GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 30*time.Second),

		HubSpotAPIKey:  getEnv("HUBSPOT_API_KEY", ""),
		HubSpotBaseURL: getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		CRMTimeout:     getEnvAsDuration("CRM_TIMEOUT", 15*time.Second),

		CalendlyAPIKey:   getEnv("CALENDLY_API_KEY", ""),
		CalendlyUsername: getEnv("CALENDLY_USERNAME", ""),
		CalendlyBaseURL:  getEnv("CALENDLY_BASE_URL", "https://api.calendly.com"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
		ChatRateLimit:      getEnvAsFloat("CHAT_RATE_LIMIT", 2),
		ChatRateBurst:      getEnvAsInt("CHAT_RATE_BURST", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping empty entries
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
