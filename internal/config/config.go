package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the call agent service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DataDir        string
	SummaryLogPath string
	DatabaseURL    string

	DeepgramAPIKey    string
	DeepgramListenURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	CartesiaAPIKey  string
	CartesiaBaseURL string
	CartesiaVoiceID string
	CartesiaModelID string

	Greeting     string
	SystemPrompt string
	GoodbyePause time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "callagent"),
		AllowAnyOrigin:    false,
		DataDir:           envOrDefault("CALL_DATA_DIR", "call_data"),
		SummaryLogPath:    envOrDefault("CALL_LOG_PATH", "call_log.json"),
		DatabaseURL:       trimmedEnv("DATABASE_URL"),
		DeepgramAPIKey:    trimmedEnv("DEEPGRAM_API_KEY"),
		DeepgramListenURL: envOrDefault("DEEPGRAM_LISTEN_URL", "wss://api.deepgram.com/v1/listen"),
		OpenAIAPIKey:      trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:     envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		CartesiaAPIKey:    trimmedEnv("CARTESIA_API_KEY"),
		CartesiaBaseURL:   envOrDefault("CARTESIA_BASE_URL", "https://api.cartesia.ai"),
		// Default voice matches the complaint-line persona used in production.
		CartesiaVoiceID: envOrDefault("CARTESIA_VOICE_ID", "f786b574-daa5-4673-aa0c-cbe3e8534c02"),
		CartesiaModelID: envOrDefault("CARTESIA_MODEL_ID", "sonic-2"),
		Greeting:        envOrDefault("CALL_GREETING", "Hello! This is Raqmi's complaint assistant speaking. How are you today?"),
		// Empty means the built-in complaint intake script.
		SystemPrompt:    os.Getenv("CALL_SYSTEM_PROMPT"),
		ShutdownTimeout: 15 * time.Second,
		GoodbyePause:    time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.GoodbyePause, err = durationFromEnv("CALL_GOODBYE_PAUSE", cfg.GoodbyePause)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		return Config{}, fmt.Errorf("CALL_DATA_DIR must not be empty")
	}
	if strings.TrimSpace(cfg.SummaryLogPath) == "" {
		return Config{}, fmt.Errorf("CALL_LOG_PATH must not be empty")
	}
	if cfg.GoodbyePause < 0 {
		return Config{}, fmt.Errorf("CALL_GOODBYE_PAUSE must not be negative")
	}
	if cfg.ShutdownTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
