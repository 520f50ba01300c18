package config

import (
	"fmt"
	"reflect"
	"strings"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/database"
	"doubloon-tracker/core/logger"
	"doubloon-tracker/core/server"
	"doubloon-tracker/core/storage"
	"doubloon-tracker/feature/discord"
	"doubloon-tracker/feature/leaderboard"
	"doubloon-tracker/feature/ledger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the admin HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Ledger holds the emoji amounts and rank tiers.
	Ledger ledger.Config `mapstructure:"ledger"`
	// Leaderboard holds the public leaderboard mirror settings.
	Leaderboard leaderboard.Config `mapstructure:"leaderboard"`
	// Discord holds the chat gateway settings.
	Discord discord.Config `mapstructure:"discord"`
	// Audit holds the audit trail location and rotation.
	Audit audit.Config `mapstructure:"audit"`
}

// legacyEnv lists the variable names the first bot revision read.
var legacyEnv = map[string]string{
	"discord.reaction_channel": "REACTION_CHANNEL",
	"discord.operator_id":      "BOTADMIN",
	"leaderboard.link":         "SPREADSHEET_LINK",
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings that are parsed from compact strings.
func (c *Config) Validate() error {
	if _, err := c.Ledger.RankTable(); err != nil {
		return fmt.Errorf("ledger.tiers: %w", err)
	}
	if _, err := c.Ledger.EmojiAmounts(); err != nil {
		return fmt.Errorf("ledger.emojis: %w", err)
	}
	switch c.Leaderboard.Backend {
	case leaderboard.BackendBucket:
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	case leaderboard.BackendSheets, leaderboard.BackendNone, "":
	default:
		return fmt.Errorf("leaderboard.backend: unknown backend %q", c.Leaderboard.Backend)
	}
	if c.Database.Driver != database.DriverMySQL && c.Database.Driver != database.DriverSQLite {
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
