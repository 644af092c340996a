package minio

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// PresignedGetObject generates a presigned URL for HTTP GET operations
func (c *Client) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	if bucketName == "" {
		return nil, WrapError("PresignedGetObject", ErrInvalidBucketName, bucketName, objectName)
	}
	if objectName == "" {
		return nil, WrapError("PresignedGetObject", ErrInvalidObjectName, bucketName, objectName)
	}
	if expiry <= 0 {
		return nil, WrapError("PresignedGetObject", ErrInvalidArgument, bucketName, objectName)
	}

	presignedURL, err := c.client.PresignedGetObject(ctx, bucketName, objectName, expiry, reqParams)
	if err != nil {
		return nil, WrapError("PresignedGetObject", err, bucketName, objectName)
	}

	if c.logger != nil {
		c.logger.Debug("presigned GET URL generated",
			zap.String("bucket", bucketName),
			zap.String("object", objectName),
			zap.Duration("expiry", expiry),
		)
	}

	return presignedURL, nil
}
