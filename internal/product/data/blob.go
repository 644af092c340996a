package data

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"time"

	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
	"github.com/digitora/marketplace-backend/internal/pkg/minio"
)

// Object key prefixes by origin.
const (
	uploadPrefix    = "uploads"
	convertedPrefix = "converted"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// BlobStore 对象存储实现（MinIO）
type BlobStore struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
}

// NewBlobStore 创建对象存储
func NewBlobStore(client *minio.Client, bucket string, presignExpiry time.Duration) *BlobStore {
	if presignExpiry <= 0 {
		presignExpiry = 10 * time.Minute
	}
	return &BlobStore{
		client:        client,
		bucket:        bucket,
		presignExpiry: presignExpiry,
	}
}

// BuildObjectKey 生成对象键: {prefix}/{unixMillis}_{sanitizedName}
func BuildObjectKey(prefix, name string) string {
	return fmt.Sprintf("%s/%d_%s", prefix, time.Now().UnixMilli(), sanitizeName(name))
}

func sanitizeName(name string) string {
	s := unsafeKeyChars.ReplaceAllString(name, "_")
	if s == "" {
		s = "file"
	}
	return s
}

// Upload 上传用户文件，返回生成的对象键
func (s *BlobStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := BuildObjectKey(uploadPrefix, name)
	if err := s.UploadTo(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// UploadConverted 上传转换产物，返回生成的对象键
func (s *BlobStore) UploadConverted(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := BuildObjectKey(convertedPrefix, name)
	if err := s.UploadTo(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// UploadTo 上传到指定对象键
func (s *BlobStore) UploadTo(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Download 下载对象内容
func (s *BlobStore) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key)
	if err != nil {
		if minio.IsNotFound(err) {
			return nil, apperrors.New(apperrors.ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.IsNotFound(err) {
			return nil, apperrors.New(apperrors.ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return data, nil
}

// Presign 生成临时下载地址
func (s *BlobStore) Presign(ctx context.Context, key, filename string) (string, error) {
	reqParams := url.Values{}
	if filename != "" {
		reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}

	return u.String(), nil
}

// Remove 删除对象
func (s *BlobStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}
