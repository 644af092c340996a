package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digitora/marketplace-backend/internal/user/biz"
	"github.com/digitora/marketplace-backend/internal/user/models"
)

// UserRepo implements biz.UserRepo
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *biz.User) error {
	po := &models.User{
		ID:           uuid.New(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
	}

	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = po.ID.String()
	user.CreatedAt = po.CreatedAt
	user.UpdatedAt = po.UpdatedAt

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*biz.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, biz.ErrUserNotFound
	}

	var po models.User
	err = r.db.WithContext(ctx).Where("id = ?", uid).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toDomain(&po), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*biz.User, error) {
	var po models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return toDomain(&po), nil
}

func toDomain(po *models.User) *biz.User {
	return &biz.User{
		ID:           po.ID.String(),
		Name:         po.Name,
		Email:        po.Email,
		PasswordHash: po.PasswordHash,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
}
