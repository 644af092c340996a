package models

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移所有商品相关表
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	models := []interface{}{
		&Product{},
		&ProductVersion{},
		&DownloadHistory{},
	}

	for _, model := range models {
		if err := db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	if err := createIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes 创建额外的索引
func createIndexes(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_product_owner_created
		ON products(owner_id, created_at DESC)
	`).Error; err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_version_product_created
		ON product_versions(product_id, created_at ASC)
	`).Error; err != nil {
		return err
	}

	return nil
}
