package storage

import (
	"errors"
	"strings"
	"time"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Config holds the object store used by the bucket leaderboard backend.
// Only read when leaderboard.backend is "bucket".
type Config struct {
	// Endpoint is host:port of the S3-compatible service. A scheme is tolerated.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey and SecretKey have no defaults; the bucket backend requires both.
	AccessKey string `mapstructure:"access_key" default:""`
	// SecretKey pairs with AccessKey.
	SecretKey string `mapstructure:"secret_key" default:""`
	// UseSSL selects https.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket receives one CSV snapshot per sheet.
	Bucket string `mapstructure:"bucket" default:"leaderboard"`
	// Region is used when the bucket has to be created.
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds feeds Timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Timeout bounds dialing, TLS and response headers.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate reports settings the bucket backend cannot run without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("endpoint is empty"))
	}
	if strings.TrimSpace(c.Bucket) == "" {
		errs = append(errs, errors.New("bucket is empty"))
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		errs = append(errs, errors.New("access_key and secret_key are required"))
	}
	return errors.Join(errs...)
}
