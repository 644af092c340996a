package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
	"github.com/digitora/marketplace-backend/internal/product/biz"
	"github.com/digitora/marketplace-backend/internal/product/models"
)

// ProductRepo 商品仓储实现
type ProductRepo struct {
	db *gorm.DB
}

// NewProductRepo 创建商品仓储
func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create 创建商品
func (r *ProductRepo) Create(ctx context.Context, product *biz.Product) error {
	po, err := toProductPO(product)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	product.CreatedAt = po.CreatedAt
	product.UpdatedAt = po.UpdatedAt

	return nil
}

// GetByID 根据 ID 获取商品
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*biz.Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrProductNotFound)
	}

	var po models.Product
	err = r.db.WithContext(ctx).Where("id = ?", pid).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return toProductDomain(&po), nil
}

// List 分页查询商品
func (r *ProductRepo) List(ctx context.Context, req *biz.ListProductsRequest) ([]*biz.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if req.Keyword != "" {
		pattern := "%" + req.Keyword + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var pos []models.Product
	offset := (req.Page - 1) * req.PageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&pos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return toProductDomains(pos), total, nil
}

// ListFeatured 查询推荐商品
func (r *ProductRepo) ListFeatured(ctx context.Context, limit int) ([]*biz.Product, error) {
	var pos []models.Product
	err := r.db.WithContext(ctx).
		Where("featured = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}

	return toProductDomains(pos), nil
}

// ListByOwner 查询用户的商品
func (r *ProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]*biz.Product, error) {
	oid, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidParams)
	}

	var pos []models.Product
	err = r.db.WithContext(ctx).
		Where("owner_id = ?", oid).
		Order("created_at DESC").
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products by owner: %w", err)
	}

	return toProductDomains(pos), nil
}

// Delete 删除商品
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return apperrors.New(apperrors.ErrProductNotFound)
	}

	result := r.db.WithContext(ctx).Where("id = ?", pid).Delete(&models.Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrProductNotFound)
	}

	return nil
}

func toProductPO(p *biz.Product) (*models.Product, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	ownerID, err := uuid.Parse(p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	return &models.Product{
		ID:               id,
		OwnerID:          ownerID,
		Title:            p.Title,
		Description:      p.Description,
		OriginalKind:     p.OriginalKind,
		OriginalLanguage: p.OriginalLanguage,
		Filename:         p.Filename,
		FileSize:         p.FileSize,
		ContentType:      p.ContentType,
		ObjectKey:        p.ObjectKey,
		ThumbnailKey:     p.ThumbnailKey,
		Featured:         p.Featured,
	}, nil
}

func toProductDomain(po *models.Product) *biz.Product {
	return &biz.Product{
		ID:               po.ID.String(),
		OwnerID:          po.OwnerID.String(),
		Title:            po.Title,
		Description:      po.Description,
		OriginalKind:     po.OriginalKind,
		OriginalLanguage: po.OriginalLanguage,
		Filename:         po.Filename,
		FileSize:         po.FileSize,
		ContentType:      po.ContentType,
		ObjectKey:        po.ObjectKey,
		ThumbnailKey:     po.ThumbnailKey,
		Featured:         po.Featured,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
	}
}

func toProductDomains(pos []models.Product) []*biz.Product {
	products := make([]*biz.Product, len(pos))
	for i := range pos {
		products[i] = toProductDomain(&pos[i])
	}
	return products
}
