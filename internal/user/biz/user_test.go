package biz

import (
	"context"
	"testing"

	"github.com/digitora/marketplace-backend/internal/auth"
	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
)

type memUserRepo struct {
	byEmail map[string]*User
	nextID  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *User) error {
	r.nextID++
	user.ID = "00000000-0000-0000-0000-00000000000" + string(rune('0'+r.nextID))
	r.byEmail[user.Email] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func newTestUseCase() *UserUseCase {
	return NewUserUseCase(newMemUserRepo(), auth.NewJWTManager("test-secret", ""))
}

func TestRegisterAndLogin(t *testing.T) {
	uc := newTestUseCase()

	user, err := uc.Register(context.Background(), "Alice", "Alice@Example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Email is normalized.
	if user.Email != "alice@example.com" {
		t.Errorf("email = %s, want lowercase", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in plaintext")
	}

	got, token, err := uc.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("logged in as %s, want %s", got.ID, user.ID)
	}
	if token == "" {
		t.Error("expected an access token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc := newTestUseCase()

	if _, err := uc.Register(context.Background(), "Alice", "a@example.com", "password1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := uc.Register(context.Background(), "Bob", "a@example.com", "password2")
	if apperrors.ExtractCode(err) != apperrors.ErrUserExists {
		t.Errorf("error code = %d, want ErrUserExists", apperrors.ExtractCode(err))
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	uc := newTestUseCase()

	_, err := uc.Register(context.Background(), "Alice", "a@example.com", "short")
	if apperrors.ExtractCode(err) != apperrors.ErrUserInvalidInput {
		t.Errorf("error code = %d, want ErrUserInvalidInput", apperrors.ExtractCode(err))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	uc := newTestUseCase()

	if _, err := uc.Register(context.Background(), "Alice", "a@example.com", "password1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, _, err := uc.Login(context.Background(), "a@example.com", "password2")
	if apperrors.ExtractCode(err) != apperrors.ErrUnauthorized {
		t.Errorf("error code = %d, want ErrUnauthorized", apperrors.ExtractCode(err))
	}

	// Unknown accounts fail the same way as wrong passwords.
	_, _, err = uc.Login(context.Background(), "nobody@example.com", "password1")
	if apperrors.ExtractCode(err) != apperrors.ErrUnauthorized {
		t.Errorf("error code = %d, want ErrUnauthorized", apperrors.ExtractCode(err))
	}
}
