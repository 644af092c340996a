package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/digitora/marketplace-backend/internal/auth"
	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
)

// User represents the domain model
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrUserNotFound is returned by UserRepo when no row matches.
var ErrUserNotFound = errors.New("user not found")

// UserRepo defines the interface for user data operations
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// UserUseCase contains business logic for user operations
type UserUseCase struct {
	repo UserRepo
	jwt  *auth.JWTManager
}

func NewUserUseCase(repo UserRepo, jwt *auth.JWTManager) *UserUseCase {
	return &UserUseCase{repo: repo, jwt: jwt}
}

// Register creates a new account with a bcrypt password hash.
func (uc *UserUseCase) Register(ctx context.Context, name, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, apperrors.New(apperrors.ErrUserInvalidInput)
	}

	if _, err := uc.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.New(apperrors.ErrUserExists)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and returns the user with a signed access token.
func (uc *UserUseCase) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", apperrors.New(apperrors.ErrUnauthorized)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.New(apperrors.ErrUnauthorized)
	}

	token, err := uc.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUser loads a user by id.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.New(apperrors.ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}
