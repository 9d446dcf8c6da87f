package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Viewer   ViewerConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	YouTube  YouTubeConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type ViewerConfig struct {
	BackendURL string
	BridgeAddr string
	// CDPURL attaches to an already-running browser when set; otherwise
	// the viewer launches its own Chrome instance.
	CDPURL         string
	UserDataDir    string
	ViewerPageURL  string
	RequestTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Enabled reports whether translation history persistence is configured.
func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

type GeminiConfig struct {
	APIKeys []string
}

type OpenAIConfig struct {
	APIKey string
}

type YouTubeConfig struct {
	APIKey string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "127.0.0.1"),
			Port: getEnvInt("SERVER_PORT", 5000),
		},
		Viewer: ViewerConfig{
			BackendURL:     getEnv("BACKEND_URL", "http://localhost:5000"),
			BridgeAddr:     getEnv("BRIDGE_ADDR", "127.0.0.1:5005"),
			CDPURL:         getEnv("CDP_URL", ""),
			UserDataDir:    getEnv("VIEWER_PROFILE_DIR", ".viewer-profile"),
			ViewerPageURL:  getEnv("VIEWER_PAGE_URL", "http://localhost:5000/viewer"),
			RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "translator"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "translator"),
		},
		Gemini: GeminiConfig{
			APIKeys: collectAPIKeys("GEMINI_API_KEY"),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
		},
		YouTube: YouTubeConfig{
			APIKey: getEnv("YOUTUBE_API_KEY", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Gemini.APIKeys) == 0 && c.OpenAI.APIKey == "" {
		return fmt.Errorf("at least one of GEMINI_API_KEY or OPENAI_API_KEY is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a valid TCP port, got %d", c.Server.Port)
	}
	return nil
}

// Warnings returns non-fatal configuration problems, such as placeholder
// API keys copied verbatim from .env.example.
func (c *Config) Warnings() []string {
	placeholders := map[string]bool{
		"your_gemini_api_key_here": true,
		"your_openai_api_key_here": true,
		"your_api_key_here":        true,
	}

	var warnings []string
	for _, key := range c.Gemini.APIKeys {
		if placeholders[key] {
			warnings = append(warnings, "GEMINI_API_KEY is set to a placeholder value")
			break
		}
	}
	if placeholders[c.OpenAI.APIKey] {
		warnings = append(warnings, "OPENAI_API_KEY is set to a placeholder value")
	}
	return warnings
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// collectAPIKeys gathers PREFIX plus PREFIX_2..PREFIX_5, so several Gemini
// keys can be rotated for load spreading.
func collectAPIKeys(prefix string) []string {
	keys := make([]string, 0)
	if value := strings.TrimSpace(os.Getenv(prefix)); value != "" {
		keys = append(keys, value)
	}
	for i := 2; i <= 5; i++ {
		envKey := fmt.Sprintf("%s_%d", prefix, i)
		if value := strings.TrimSpace(os.Getenv(envKey)); value != "" {
			keys = append(keys, value)
		}
	}
	return keys
}
