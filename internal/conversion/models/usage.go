package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AIUsageHistory AI 调用记录模型
//
// One row per conversion request a user triggers, whether or not every stage
// ran. Quota enforcement counts rows inside the sliding window.
type AIUsageHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_usage_user_created,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`

	TargetKind     string `gorm:"type:varchar(50);not null"`
	TargetLanguage string `gorm:"type:varchar(16);not null"`
	CacheHit       bool   `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_usage_user_created,priority:2,sort:desc"`
}

func (AIUsageHistory) TableName() string {
	return "ai_usage_histories"
}

var (
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrInvalidProductID = errors.New("invalid product id")
)

// Validate 验证 AI 调用记录
func (h *AIUsageHistory) Validate() error {
	if h.UserID == uuid.Nil {
		return ErrInvalidUserID
	}

	if h.ProductID == uuid.Nil {
		return ErrInvalidProductID
	}

	return nil
}
