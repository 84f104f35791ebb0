package config

import (
	"log"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds process configuration. Nothing here is required; the settings
// document carries the user-editable choices.
type Config struct {
	SettingsPath       string
	LogFile            string
	LogLevel           slog.Level
	Port               string
	IsProduction       bool
	RateLimit          string
	CORSAllowedOrigins []string
	PosthogAPIKey      string

	// Migration
	MigrationOutputDir string
	AttachmentsRoot    string
	MigratedBy         string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("SETTINGS_PATH", "settings.json")
	viper.SetDefault("LOG_FILE", "app.log")
	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("MIGRATION_OUTPUT_DIR", "migration_output")
	viper.SetDefault("ATTACHMENTS_ROOT", "")
	viper.SetDefault("MIGRATED_BY", "migration")

	// Environment variables override the defaults above and anything loaded from .env.
	viper.AutomaticEnv()

	cfg := &Config{
		SettingsPath:       viper.GetString("SETTINGS_PATH"),
		LogFile:            viper.GetString("LOG_FILE"),
		Port:               viper.GetString("PORT"),
		IsProduction:       viper.GetBool("IS_PRODUCTION"),
		RateLimit:          viper.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		PosthogAPIKey:      viper.GetString("POSTHOG_API_KEY"),
		MigrationOutputDir: viper.GetString("MIGRATION_OUTPUT_DIR"),
		AttachmentsRoot:    viper.GetString("ATTACHMENTS_ROOT"),
		MigratedBy:         viper.GetString("MIGRATED_BY"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(viper.GetString("LOG_LEVEL"))); err != nil {
		log.Printf("Warning: invalid LOG_LEVEL %q, defaulting to debug\n", viper.GetString("LOG_LEVEL"))
		cfg.LogLevel = slog.LevelDebug
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
