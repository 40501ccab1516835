package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	WhatsApp  WhatsAppConfig
	TikTok    TikTokConfig
	AI        AIConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasePath           string
	BaseUrl            string
	BasicAuth          []string
	TrustedProxies     []string
	CorsAllowedOrigins []string
	StoragesDir        string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB name for Postgres
}

type SchedulerConfig struct {
	Timezone               string
	TickEnabled            bool
	TickIntervalSeconds    int
	SendTimeoutSeconds     int
	CreativeTimeoutSeconds int
	TargetSource           string // whatsapp (live group list) or database (curated targets table)
}

// Location resolves the scheduler's fixed local timezone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

type WhatsAppConfig struct {
	DBURI    string // whatsmeow session store
	LogLevel string
}

type TikTokConfig struct {
	APIBaseURL  string
	AccessToken string
}

type AIConfig struct {
	Provider     string // openai | gemini
	OpenAIAPIKey string
	GeminiAPIKey string
	Model        string
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	storagesDir := getEnv("APP_STORAGES_DIR", "storages")

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.3.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              getEnvBool("APP_DEBUG", false),
		Environment:        getEnv("APP_ENV", "development"),
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		BasicAuth:          basicAuth,
		CorsAllowedOrigins: corsOrigins,
		StoragesDir:        storagesDir,
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	cfg := &Config{
		App: appCfg,
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", filepath.Join(storagesDir, "ofertazap.db")),
		},
		Scheduler: SchedulerConfig{
			Timezone:               getEnv("SCHEDULER_TIMEZONE", "America/Sao_Paulo"),
			TickEnabled:            getEnvBool("SCHEDULER_TICK_ENABLED", true),
			TickIntervalSeconds:    getEnvInt("SCHEDULER_TICK_INTERVAL_SECONDS", 60),
			SendTimeoutSeconds:     getEnvInt("SCHEDULER_SEND_TIMEOUT_SECONDS", 30),
			CreativeTimeoutSeconds: getEnvInt("SCHEDULER_CREATIVE_TIMEOUT_SECONDS", 8),
			TargetSource:           getEnv("SCHEDULER_TARGET_SOURCE", "whatsapp"),
		},
		WhatsApp: WhatsAppConfig{
			DBURI:    getEnv("WHATSAPP_DB_URI", fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(storagesDir, "whatsapp.db"))),
			LogLevel: getEnv("WHATSAPP_LOG_LEVEL", "ERROR"),
		},
		TikTok: TikTokConfig{
			APIBaseURL:  getEnv("TIKTOK_API_BASE_URL", "https://open.tiktokapis.com"),
			AccessToken: getEnv("TIKTOK_ACCESS_TOKEN", ""),
		},
		AI: AIConfig{
			Provider:     getEnv("AI_PROVIDER", "openai"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			Model:        getEnv("AI_MODEL", ""),
		},
	}

	Global = cfg
	return cfg, nil
}
