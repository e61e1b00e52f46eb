package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventSubjectPrefix     string
	SessionSecret          string
	TokenTTL               time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	AIAPIKey               string
	AIBaseURL              string
	AIModel                string
	AITimeout              time.Duration
	AIHistoryTurns         int
	AIHistoryTTL           time.Duration
	AIRateLimit            int
	AIEnforceOwnership     bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HOMEWORK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Legacy variable names are still honoured.
	_ = v.BindEnv("database.url", "HOMEWORK_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("session.secret", "HOMEWORK_SESSION_SECRET", "SECRET_KEY")
	_ = v.BindEnv("ai.api_key", "HOMEWORK_AI_API_KEY", "GOOGLE_API_KEY")

	v.SetDefault("app.name", "Homework Assistant API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("cloudinary.folder", "homework/submissions")
	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.history_turns", 10)
	v.SetDefault("ai.history_ttl", "30m")
	v.SetDefault("ai.rate_limit", 10)
	v.SetDefault("ai.enforce_ownership", false)

	tokenTTL, err := parseDuration(v, "session.ttl", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	aiTimeout, err := parseDuration(v, "ai.timeout", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	historyTTL, err := parseDuration(v, "ai.history_ttl", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectPrefix:     v.GetString("events.subject_prefix"),
		SessionSecret:          v.GetString("session.secret"),
		TokenTTL:               tokenTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		AIAPIKey:               v.GetString("ai.api_key"),
		AIBaseURL:              v.GetString("ai.base_url"),
		AIModel:                v.GetString("ai.model"),
		AITimeout:              aiTimeout,
		AIHistoryTurns:         v.GetInt("ai.history_turns"),
		AIHistoryTTL:           historyTTL,
		AIRateLimit:            v.GetInt("ai.rate_limit"),
		AIEnforceOwnership:     v.GetBool("ai.enforce_ownership"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.AIHistoryTurns < 0 {
		cfg.AIHistoryTurns = 0
	}

	if cfg.AIRateLimit <= 0 {
		cfg.AIRateLimit = 10
	}

	return cfg, nil
}

// Validate reports the required settings that are missing.
func (c Config) Validate() error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(c.DatabaseURL) == "" {
		missing = append(missing, "HOMEWORK_DATABASE_URL")
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		missing = append(missing, "HOMEWORK_SESSION_SECRET")
	}
	if strings.TrimSpace(c.AIAPIKey) == "" {
		missing = append(missing, "HOMEWORK_AI_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// CloudinaryEnabled reports whether upload credentials were supplied.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	if parsed <= 0 {
		return fallback, nil
	}

	return parsed, nil
}
