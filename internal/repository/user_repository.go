package repository

import (
	"strings"
	"time"

	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs returns the users with the given IDs
func (r *GormUserRepository) FindByIDs(ids []uint64) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// Search matches name or email, excluding one user
func (r *GormUserRepository) Search(query string, excludeID uint64, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Where("id <> ?", excludeID).
		Order("name ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// UpdatePassword replaces the stored hash
func (r *GormUserRepository) UpdatePassword(userID uint64, hash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash).Error
}

// GormTokenRepository is a GORM implementation of TokenRepository
type GormTokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) CreateAccessToken(token *models.AccessToken) error {
	return r.db.Create(token).Error
}

func (r *GormTokenRepository) FindActiveAccessToken(id string, now time.Time) (*models.AccessToken, error) {
	var token models.AccessToken
	err := r.db.
		Where("id = ? AND revoked_at IS NULL AND expires_at > ?", id, now).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormTokenRepository) TouchAccessToken(id string, now time.Time) error {
	return r.db.Model(&models.AccessToken{}).Where("id = ?", id).Update("last_used_at", now).Error
}

func (r *GormTokenRepository) RevokeAccessToken(id string, now time.Time) error {
	return r.db.Model(&models.AccessToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now).Error
}

func (r *GormTokenRepository) RevokeUserTokens(userID uint64, now time.Time) error {
	return r.db.Model(&models.AccessToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

func (r *GormTokenRepository) SavePasswordReset(reset *models.PasswordReset) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at"}),
	}).Create(reset).Error
}

func (r *GormTokenRepository) FindPasswordReset(email string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.db.Where("email = ?", email).First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *GormTokenRepository) DeletePasswordReset(email string) error {
	return r.db.Where("email = ?", email).Delete(&models.PasswordReset{}).Error
}
