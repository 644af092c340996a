package minio

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// PutObjectOptions represents options for uploading an object
type PutObjectOptions struct {
	// ContentType is the content type of the object
	ContentType string
	// UserMetadata is custom metadata for the object
	UserMetadata map[string]string
	// ContentDisposition sets the content disposition header
	ContentDisposition string
}

// UploadInfo represents information about an uploaded object
type UploadInfo struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// ObjectInfo represents object metadata
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// PutObject uploads an object to a bucket
func (c *Client) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts PutObjectOptions) (UploadInfo, error) {
	if bucketName == "" {
		return UploadInfo{}, WrapError("PutObject", ErrInvalidBucketName, bucketName, objectName)
	}
	if objectName == "" {
		return UploadInfo{}, WrapError("PutObject", ErrInvalidObjectName, bucketName, objectName)
	}

	info, err := c.client.PutObject(ctx, bucketName, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType:        opts.ContentType,
		UserMetadata:       opts.UserMetadata,
		ContentDisposition: opts.ContentDisposition,
	})
	if err != nil {
		return UploadInfo{}, WrapError("PutObject", err, bucketName, objectName)
	}

	if c.logger != nil {
		c.logger.Info("object uploaded successfully",
			zap.String("bucket", bucketName),
			zap.String("object", objectName),
			zap.Int64("size", info.Size),
		)
	}

	return UploadInfo{
		Bucket: info.Bucket,
		Key:    info.Key,
		ETag:   info.ETag,
		Size:   info.Size,
	}, nil
}

// GetObject downloads an object from a bucket
func (c *Client) GetObject(ctx context.Context, bucketName, objectName string) (*minio.Object, error) {
	if bucketName == "" {
		return nil, WrapError("GetObject", ErrInvalidBucketName, bucketName, objectName)
	}
	if objectName == "" {
		return nil, WrapError("GetObject", ErrInvalidObjectName, bucketName, objectName)
	}

	object, err := c.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, WrapError("GetObject", err, bucketName, objectName)
	}

	return object, nil
}

// StatObject gets object metadata
func (c *Client) StatObject(ctx context.Context, bucketName, objectName string) (ObjectInfo, error) {
	if bucketName == "" {
		return ObjectInfo{}, WrapError("StatObject", ErrInvalidBucketName, bucketName, objectName)
	}
	if objectName == "" {
		return ObjectInfo{}, WrapError("StatObject", ErrInvalidObjectName, bucketName, objectName)
	}

	info, err := c.client.StatObject(ctx, bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, WrapError("StatObject", err, bucketName, objectName)
	}

	return ObjectInfo{
		Key:         info.Key,
		Size:        info.Size,
		ETag:        info.ETag,
		ContentType: info.ContentType,
	}, nil
}

// RemoveObject removes an object from a bucket
func (c *Client) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	if bucketName == "" {
		return WrapError("RemoveObject", ErrInvalidBucketName, bucketName, objectName)
	}
	if objectName == "" {
		return WrapError("RemoveObject", ErrInvalidObjectName, bucketName, objectName)
	}

	if err := c.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return WrapError("RemoveObject", err, bucketName, objectName)
	}

	if c.logger != nil {
		c.logger.Info("object removed successfully",
			zap.String("bucket", bucketName),
			zap.String("object", objectName),
		)
	}

	return nil
}
