package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digitora/marketplace-backend/internal/product/biz"
	"github.com/digitora/marketplace-backend/internal/product/models"
)

// VersionRepo 商品版本仓储实现
type VersionRepo struct {
	db *gorm.DB
}

// NewVersionRepo 创建商品版本仓储
func NewVersionRepo(db *gorm.DB) *VersionRepo {
	return &VersionRepo{db: db}
}

// Create 创建商品版本
//
// The composite unique index on (product_id, data_kind, language_code)
// rejects a second row for the same key; that surfaces here as
// models.ErrDuplicateVersion so callers can refetch the winner's row.
func (r *VersionRepo) Create(ctx context.Context, version *biz.ProductVersion) error {
	po, err := toVersionPO(version)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrDuplicateVersion
		}
		return fmt.Errorf("failed to create version: %w", err)
	}

	version.CreatedAt = po.CreatedAt

	return nil
}

// Find 查询指定键的版本
func (r *VersionRepo) Find(ctx context.Context, productID, dataKind, languageCode string) (*biz.ProductVersion, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, models.ErrVersionNotFound
	}

	var po models.ProductVersion
	err = r.db.WithContext(ctx).
		Where("product_id = ? AND data_kind = ? AND language_code = ?", pid, dataKind, languageCode).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to find version: %w", err)
	}

	return toVersionDomain(&po), nil
}

// FindOldest 查询商品最早创建的版本
func (r *VersionRepo) FindOldest(ctx context.Context, productID string) (*biz.ProductVersion, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, models.ErrVersionNotFound
	}

	var po models.ProductVersion
	err = r.db.WithContext(ctx).
		Where("product_id = ?", pid).
		Order("created_at ASC").
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to find oldest version: %w", err)
	}

	return toVersionDomain(&po), nil
}

// ListByProduct 查询商品的所有版本
func (r *VersionRepo) ListByProduct(ctx context.Context, productID string) ([]*biz.ProductVersion, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, models.ErrInvalidProductID
	}

	var pos []models.ProductVersion
	err = r.db.WithContext(ctx).
		Where("product_id = ?", pid).
		Order("created_at ASC").
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	versions := make([]*biz.ProductVersion, len(pos))
	for i := range pos {
		versions[i] = toVersionDomain(&pos[i])
	}

	return versions, nil
}

// DeleteByProduct 删除商品的所有版本
func (r *VersionRepo) DeleteByProduct(ctx context.Context, productID string) error {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return models.ErrInvalidProductID
	}

	err = r.db.WithContext(ctx).
		Where("product_id = ?", pid).
		Delete(&models.ProductVersion{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete versions: %w", err)
	}

	return nil
}

func toVersionPO(v *biz.ProductVersion) (*models.ProductVersion, error) {
	id, err := uuid.Parse(v.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid version id: %w", err)
	}
	pid, err := uuid.Parse(v.ProductID)
	if err != nil {
		return nil, models.ErrInvalidProductID
	}

	return &models.ProductVersion{
		ID:           id,
		ProductID:    pid,
		DataKind:     v.DataKind,
		LanguageCode: v.LanguageCode,
		ObjectKey:    v.ObjectKey,
		TextContent:  v.TextContent,
		Filename:     v.Filename,
		FileSize:     v.FileSize,
		ContentType:  v.ContentType,
		IsOriginal:   v.IsOriginal,
	}, nil
}

func toVersionDomain(po *models.ProductVersion) *biz.ProductVersion {
	return &biz.ProductVersion{
		ID:           po.ID.String(),
		ProductID:    po.ProductID.String(),
		DataKind:     po.DataKind,
		LanguageCode: po.LanguageCode,
		ObjectKey:    po.ObjectKey,
		TextContent:  po.TextContent,
		Filename:     po.Filename,
		FileSize:     po.FileSize,
		ContentType:  po.ContentType,
		IsOriginal:   po.IsOriginal,
		CreatedAt:    po.CreatedAt,
	}
}
