package models

import (
	"time"

	"github.com/google/uuid"
)

// DownloadHistory 下载记录模型
type DownloadHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_download_user_created,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	VersionID uuid.UUID `gorm:"type:uuid;not null"`

	DataKind     string `gorm:"type:varchar(50);not null"`
	LanguageCode string `gorm:"type:varchar(16);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_download_user_created,priority:2,sort:desc"`
}

func (DownloadHistory) TableName() string {
	return "download_histories"
}

// Validate 验证下载记录
func (h *DownloadHistory) Validate() error {
	if h.UserID == uuid.Nil {
		return ErrInvalidUserID
	}

	if h.ProductID == uuid.Nil {
		return ErrInvalidProductID
	}

	if h.VersionID == uuid.Nil {
		return ErrInvalidVersionID
	}

	return nil
}
