package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digitora/marketplace-backend/internal/conversion/biz"
	"github.com/digitora/marketplace-backend/internal/conversion/models"
)

// UsageRepo AI 调用记录仓储实现
type UsageRepo struct {
	db *gorm.DB
}

// NewUsageRepo 创建 AI 调用记录仓储
func NewUsageRepo(db *gorm.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

// Create 创建调用记录
func (r *UsageRepo) Create(ctx context.Context, record *biz.UsageRecord) error {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("invalid record id: %w", err)
	}
	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return models.ErrInvalidUserID
	}
	productID, err := uuid.Parse(record.ProductID)
	if err != nil {
		return models.ErrInvalidProductID
	}

	po := &models.AIUsageHistory{
		ID:             id,
		UserID:         userID,
		ProductID:      productID,
		TargetKind:     record.TargetKind,
		TargetLanguage: record.TargetLanguage,
		CacheHit:       record.CacheHit,
	}

	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create usage record: %w", err)
	}

	record.CreatedAt = po.CreatedAt

	return nil
}

// ListByUser 查询用户的调用记录
func (r *UsageRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*biz.UsageRecord, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, models.ErrInvalidUserID
	}

	var pos []models.AIUsageHistory
	err = r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}

	records := make([]*biz.UsageRecord, len(pos))
	for i := range pos {
		po := &pos[i]
		records[i] = &biz.UsageRecord{
			ID:             po.ID.String(),
			UserID:         po.UserID.String(),
			ProductID:      po.ProductID.String(),
			TargetKind:     po.TargetKind,
			TargetLanguage: po.TargetLanguage,
			CacheHit:       po.CacheHit,
			CreatedAt:      po.CreatedAt,
		}
	}

	return records, nil
}

// CountSince 统计窗口内的调用次数
func (r *UsageRepo) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, models.ErrInvalidUserID
	}

	var count int64
	err = r.db.WithContext(ctx).
		Model(&models.AIUsageHistory{}).
		Where("user_id = ? AND created_at >= ?", uid, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}

	return count, nil
}
