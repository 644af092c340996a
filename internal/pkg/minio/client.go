package minio

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Client wraps the MinIO client with logging and error translation
type Client struct {
	client *minio.Client
	config *Config
	logger *zap.Logger
}

// NewClient creates a new MinIO client
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidArgument
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	}
	if cfg.Region != "" {
		opts.Region = cfg.Region
	}

	minioClient, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, WrapError("NewClient", err, "", "")
	}

	if logger != nil {
		logger.Info("minio client initialized successfully",
			zap.String("endpoint", cfg.Endpoint),
			zap.String("region", cfg.Region),
			zap.Bool("use_ssl", cfg.UseSSL),
		)
	}

	return &Client{
		client: minioClient,
		config: cfg,
		logger: logger,
	}, nil
}

// Ping checks if the MinIO server is accessible by listing buckets
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.ListBuckets(ctx); err != nil {
		return WrapError("Ping", ErrConnectionFailed, "", "")
	}
	return nil
}

// EnsureBucket creates the bucket if it does not exist yet
func (c *Client) EnsureBucket(ctx context.Context, bucketName string) error {
	if bucketName == "" {
		return WrapError("EnsureBucket", ErrInvalidBucketName, bucketName, "")
	}

	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return WrapError("EnsureBucket", err, bucketName, "")
	}

	if !exists {
		if err := c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
			return WrapError("EnsureBucket", err, bucketName, "")
		}
		if c.logger != nil {
			c.logger.Info("bucket created", zap.String("bucket", bucketName))
		}
	}

	return nil
}

// GetUnderlyingClient returns the underlying MinIO client
// This is useful for advanced operations not covered by this wrapper
func (c *Client) GetUnderlyingClient() *minio.Client {
	return c.client
}
