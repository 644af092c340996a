package data

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digitora/marketplace-backend/internal/product/biz"
	"github.com/digitora/marketplace-backend/internal/product/models"
)

// DownloadHistoryRepo 下载记录仓储实现
type DownloadHistoryRepo struct {
	db *gorm.DB
}

// NewDownloadHistoryRepo 创建下载记录仓储
func NewDownloadHistoryRepo(db *gorm.DB) *DownloadHistoryRepo {
	return &DownloadHistoryRepo{db: db}
}

// Create 创建下载记录
func (r *DownloadHistoryRepo) Create(ctx context.Context, record *biz.DownloadRecord) error {
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
	versionID, err := uuid.Parse(record.VersionID)
	if err != nil {
		return models.ErrInvalidVersionID
	}

	po := &models.DownloadHistory{
		ID:           id,
		UserID:       userID,
		ProductID:    productID,
		VersionID:    versionID,
		DataKind:     record.DataKind,
		LanguageCode: record.LanguageCode,
	}

	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create download record: %w", err)
	}

	record.CreatedAt = po.CreatedAt

	return nil
}

// ListByUser 查询用户的下载记录
func (r *DownloadHistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*biz.DownloadRecord, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, models.ErrInvalidUserID
	}

	var pos []models.DownloadHistory
	err = r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list download records: %w", err)
	}

	records := make([]*biz.DownloadRecord, len(pos))
	for i := range pos {
		po := &pos[i]
		records[i] = &biz.DownloadRecord{
			ID:           po.ID.String(),
			UserID:       po.UserID.String(),
			ProductID:    po.ProductID.String(),
			VersionID:    po.VersionID.String(),
			DataKind:     po.DataKind,
			LanguageCode: po.LanguageCode,
			CreatedAt:    po.CreatedAt,
		}
	}

	return records, nil
}
