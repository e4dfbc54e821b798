package repo

import (
	"context"
	"time"

	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/tokens"
)

// StoreRefreshToken persists the hash of a freshly issued refresh token.
func (r *GormRepo) StoreRefreshToken(ctx context.Context, raw string, userID uint, jti string, expiresAt time.Time) error {
	token := models.RefreshToken{
		Token:     tokens.Sha256Hex(raw),
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: expiresAt.Unix(),
	}
	return r.DB.WithContext(ctx).Create(&token).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, raw string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokens.Sha256Hex(raw)).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeRefreshByJTI(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}
