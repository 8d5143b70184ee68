package repository

import (
	"github.com/collabhub/backend/internal/models"
	"gorm.io/gorm"
)

// GormRefreshTokenRepository is a GORM implementation of RefreshTokenRepository
type GormRefreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

// Create stores a new refresh token
func (r *GormRefreshTokenRepository) Create(token *models.RefreshToken) error {
	return r.db.Create(token).Error
}

// Find looks up a refresh token by its opaque value
func (r *GormRefreshTokenRepository) Find(token string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	if err := r.db.Where("token = ?", token).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Rotate consumes the presented token and stores its replacement in a
// single transaction. The delete's affected-row count is the
// serialization point: of two concurrent redemptions of the same
// token, only one sees a deleted row, so only one commits a
// replacement.
func (r *GormRefreshTokenRepository) Rotate(oldToken string, replacement *models.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token = ?", oldToken).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(replacement).Error
	})
}

// Delete removes the token scoped to its owner. The predicate is the
// (token, user) pair so one user cannot revoke another's session.
func (r *GormRefreshTokenRepository) Delete(token string, userID uint64) error {
	return r.db.Where("token = ? AND user_id = ?", token, userID).
		Delete(&models.RefreshToken{}).Error
}

// DeleteByUser removes every refresh token belonging to a user
func (r *GormRefreshTokenRepository) DeleteByUser(userID uint64) error {
	return r.db.Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error
}
