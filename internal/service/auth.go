package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/hash"
	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/repo"
	"github.com/mkraev/veloshop/internal/tokens"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

type LoginResult struct {
	AccessToken     string
	RefreshToken    string
	AccessExp       time.Time
	RefreshExp      time.Time
	IsAdmin         bool
	PasswordChanged bool
	User            *models.User
}

type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Age       int
}

func (s *AuthService) CreateAccessToken(role string, id uint, accessExp time.Time) (string, error) {
	claims := tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id), 10),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

func (s *AuthService) CreateRefreshToken(id uint, refreshExp time.Time) (string, string, error) {
	jti := tokens.NewJTI()
	claims := tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id), 10),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        jti,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrValidation)
	}

	salt, pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:        in.Username,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		PasswordHash:    pwHash,
		Salt:            salt,
		Age:             in.Age,
		Role:            models.RoleUser,
		PasswordChanged: true,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserExists) {
			l.Warn("register_failed", "reason", "user_exists", "username", in.Username)
			return nil, fmt.Errorf("username already taken: %w", ErrConflict)
		}
		l.Error("register_error", "error", err)
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrValidation)
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.Salt, user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessExp := time.Now().Add(accessTTL)
	accessToken, err := s.CreateAccessToken(user.Role, user.ID, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(refreshTTL)
	refreshToken, jti, err := s.CreateRefreshToken(user.ID, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.StoreRefreshToken(ctx, refreshToken, user.ID, jti, refreshExp); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExp:       accessExp,
		RefreshExp:      refreshExp,
		IsAdmin:         user.IsAdmin(),
		PasswordChanged: user.PasswordChanged,
		User:            user,
	}, nil
}

// Refresh rotates a refresh token: the old one is revoked and a new pair is
// issued against the user's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidRefresh)
	}

	stored, err := s.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unknown token: %w", ErrInvalidRefresh)
		}
		return nil, err
	}
	if stored.Revoked || stored.ExpiresAt <= time.Now().Unix() {
		return nil, fmt.Errorf("token expired or revoked: %w", ErrInvalidRefresh)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad subject: %w", ErrInvalidRefresh)
	}
	user, err := s.Repo.FindUserByID(ctx, uint(userID))
	if err != nil {
		return nil, fmt.Errorf("unknown user: %w", ErrInvalidRefresh)
	}

	if err := s.Repo.RevokeRefreshByJTI(ctx, claims.ID); err != nil {
		l.Error("refresh_revoke_error", "error", err)
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

// ChangePassword rehashes with a fresh salt and marks the account as having
// completed its forced password change.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("new password required: %w", ErrValidation)
	}

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !hash.CheckPassword(user.Salt, user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	salt, pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Salt = salt
	user.PasswordHash = pwHash
	user.PasswordChanged = true
	return s.Repo.SaveUser(ctx, user)
}
