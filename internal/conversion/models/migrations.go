package models

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移 AI 调用记录表
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&AIUsageHistory{}); err != nil {
		return fmt.Errorf("failed to migrate %T: %w", &AIUsageHistory{}, err)
	}
	return nil
}
