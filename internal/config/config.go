package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/cvparse/internal/chunker"
	"github.com/joho/godotenv"
)

// Supported LLM providers.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	Port     string
	LogLevel string

	// Auth for /api routes
	APIKey string

	// LLM
	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string

	// Worker pool
	WorkerCount          int
	MaxQueueSize         int
	MaxConcurrentExtract int

	// Upload limits
	MaxUploadBytes int64

	// Chunking and extraction defaults
	ChunkSize    int
	ChunkOverlap int
	ExtractMode  string

	// Job and result state
	JobTTL    time.Duration
	ResultTTL time.Duration
	RedisURL  string

	// PDF
	PDFFallbackPdftotext bool
}

// Load reads the environment, seeded from a .env file when one exists.
func Load() Config {
	_ = godotenv.Load()
	chunking := chunker.DefaultConfig()

	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		APIKey: os.Getenv("CVPARSE_API_KEY"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", ProviderGroq)),
		LLMModel:        os.Getenv("LLM_MODEL"),
		LLMBaseURL:      os.Getenv("LLM_BASE_URL"),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:    envOr("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),

		WorkerCount:          envInt("WORKER_COUNT", 4),
		MaxQueueSize:         envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10<<20),

		ChunkSize:    envInt("CHUNK_SIZE", chunking.ChunkSize),
		ChunkOverlap: envInt("CHUNK_OVERLAP", chunking.ChunkOverlap),
		ExtractMode:  envOr("EXTRACT_MODE", "whole"),

		JobTTL:    envDuration("JOB_TTL", 1*time.Hour),
		ResultTTL: envDuration("RESULT_TTL", 24*time.Hour),
		RedisURL:  os.Getenv("REDIS_URL"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}

	return cfg
}

// Validate checks what both the CLI and the server need: a known provider
// with its API key, a usable chunk size/overlap pair and a known mode.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGroq, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLMProvider)
	}
	if c.LLMAPIKey() == "" {
		return fmt.Errorf("%s is required for provider %s", apiKeyEnv(c.LLMProvider), c.LLMProvider)
	}
	if err := c.Chunking().Validate(); err != nil {
		return err
	}
	if c.ExtractMode != "whole" && c.ExtractMode != "per_chunk" {
		return fmt.Errorf("EXTRACT_MODE %q must be whole or per_chunk", c.ExtractMode)
	}
	return nil
}

// ValidateServer adds the checks only the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return errors.New("CVPARSE_API_KEY is required")
	}
	return nil
}

// Chunking returns the default chunker configuration.
func (c Config) Chunking() chunker.Config {
	return chunker.Config{ChunkSize: c.ChunkSize, ChunkOverlap: c.ChunkOverlap}
}

// LLMAPIKey returns the key for the selected provider.
func (c Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

// SlogLevel parses LogLevel, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func apiKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	}
	return "GROQ_API_KEY"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
