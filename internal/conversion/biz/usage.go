package biz

import (
	"context"
	"time"
)

// UsageRecord AI 调用记录模型
type UsageRecord struct {
	ID        string
	UserID    string
	ProductID string

	TargetKind     string
	TargetLanguage string
	CacheHit       bool

	CreatedAt time.Time
}

// UsageRepo AI 调用记录仓储接口
type UsageRepo interface {
	Create(ctx context.Context, record *UsageRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*UsageRecord, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// UsageUseCase AI 调用记录用例
type UsageUseCase struct {
	repo UsageRepo
}

// NewUsageUseCase 创建 AI 调用记录用例
func NewUsageUseCase(repo UsageRepo) *UsageUseCase {
	return &UsageUseCase{repo: repo}
}

// ListByUser 查询用户的调用记录
func (uc *UsageUseCase) ListByUser(ctx context.Context, userID string, limit int) ([]*UsageRecord, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return uc.repo.ListByUser(ctx, userID, limit)
}

// CountSince 统计窗口内的调用次数
func (uc *UsageUseCase) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return uc.repo.CountSince(ctx, userID, since)
}
