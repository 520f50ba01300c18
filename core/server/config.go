package server

import "strings"

// Config holds configuration for the administrative HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Enabled toggles the admin HTTP surface. The bot runs without it.
	Enabled bool `mapstructure:"enabled" default:"true"`
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// IsProtected reports whether an API key is configured.
func (c Config) IsProtected() bool {
	return strings.TrimSpace(c.ApiKey) != ""
}
