package minio

import (
	"errors"
	"time"
)

// Config represents the configuration for the MinIO client
type Config struct {
	// Endpoint is the S3-compatible object storage endpoint
	// Examples: "play.min.io", "s3.amazonaws.com", "localhost:9000"
	Endpoint string

	// AccessKeyID is the access key for authentication
	AccessKeyID string

	// SecretAccessKey is the secret key for authentication
	SecretAccessKey string

	// Region is the region of the object storage (optional)
	Region string

	// UseSSL determines whether to use HTTPS (true) or HTTP (false)
	UseSSL bool

	// RequestTimeout is the timeout for individual requests
	// Default: 30 seconds
	RequestTimeout time.Duration
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("minio: endpoint is required")
	}

	if c.AccessKeyID == "" {
		return errors.New("minio: access key ID is required")
	}

	if c.SecretAccessKey == "" {
		return errors.New("minio: secret access key is required")
	}

	return nil
}

// SetDefaults sets default values for unspecified configuration fields
func (c *Config) SetDefaults() {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}
