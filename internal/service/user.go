package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/hash"
	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/repo"
)

// ErrLastAdmin is surfaced to callers unchanged from the repo layer.
var ErrLastAdmin = repo.ErrLastAdmin

// UserService is the admin-side account management.
type UserService struct {
	Repo *repo.GormRepo
}

type CreateUserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Age       int
	Role      string
}

type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Age       *int
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Repo.GetUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create makes an account with an admin-chosen temporary password; the user
// is forced to change it on first login.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrValidation)
	}
	if in.Role != models.RoleUser && in.Role != models.RoleAdmin {
		return nil, fmt.Errorf("role must be %q or %q: %w", models.RoleUser, models.RoleAdmin, ErrValidation)
	}

	salt, pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: pwHash,
		Salt:         salt,
		Age:          in.Age,
		Role:         in.Role,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserExists) {
			return nil, fmt.Errorf("username already taken: %w", ErrConflict)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Age != nil {
		user.Age = *in.Age
	}
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *UserService) SetRole(ctx context.Context, id uint, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("role must be %q or %q: %w", models.RoleUser, models.RoleAdmin, ErrValidation)
	}
	user, err := s.Repo.SetUserRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureDefaultAdmin creates the bootstrap admin on first run. The account
// keeps password_changed=false so the default credentials must be rotated on
// first login.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "user.bootstrap")

	admins, err := s.Repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	salt, pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:     username,
		PasswordHash: pwHash,
		Salt:         salt,
		Role:         models.RoleAdmin,
	}
	if err := s.Repo.CreateUser(ctx, &admin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	l.Info("default_admin_created", "username", username)
	return nil
}
