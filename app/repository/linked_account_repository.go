package repository

import (
	"time"

	"github.com/chessledger/chessledger/app/models"
	"gorm.io/gorm"
)

// linkedAccountRepository implements the LinkedAccountRepository interface
type linkedAccountRepository struct {
	db *gorm.DB
}

// NewLinkedAccountRepository creates a new linked account repository instance
func NewLinkedAccountRepository(db *gorm.DB) LinkedAccountRepository {
	return &linkedAccountRepository{db: db}
}

// Create creates a new linked account in the database
func (r *linkedAccountRepository) Create(account *models.LinkedAccount) error {
	return r.db.Create(account).Error
}

// GetByID retrieves a linked account by its ID
func (r *linkedAccountRepository) GetByID(id uint) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := r.db.First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID retrieves all linked accounts of a user
func (r *linkedAccountRepository) GetByUserID(userID uint) ([]models.LinkedAccount, error) {
	var accounts []models.LinkedAccount
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

// GetByPlatformUsername retrieves a linked account by its platform identity
func (r *linkedAccountRepository) GetByPlatformUsername(platform, username string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := r.db.Where("platform = ? AND platform_username = ?", platform, username).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetSyncable returns all accounts a scheduled sync run should process:
// sync enabled, account active, backed by a real provider, and owned by an
// active user.
func (r *linkedAccountRepository) GetSyncable() ([]models.LinkedAccount, error) {
	var accounts []models.LinkedAccount
	err := r.db.
		Joins("JOIN users ON users.id = linked_accounts.user_id").
		Where("users.status = ? AND users.deleted_at IS NULL", models.STATUS_ACTIVE).
		Where("linked_accounts.sync_enabled = ? AND linked_accounts.is_active = ?", true, true).
		Where("linked_accounts.platform <> ?", models.PlatformManual).
		Order("linked_accounts.id ASC").
		Find(&accounts).Error
	return accounts, err
}

// Update updates an existing linked account in the database
func (r *linkedAccountRepository) Update(account *models.LinkedAccount) error {
	return r.db.Save(account).Error
}

// UpdateLastSyncAt advances the sync watermark without touching other fields
func (r *linkedAccountRepository) UpdateLastSyncAt(id uint, t time.Time) error {
	return r.db.Model(&models.LinkedAccount{}).Where("id = ?", id).Update("last_sync_at", t).Error
}

// Delete soft deletes a linked account by its ID
func (r *linkedAccountRepository) Delete(id uint) error {
	return r.db.Delete(&models.LinkedAccount{}, id).Error
}

// Count returns the total number of linked accounts
func (r *linkedAccountRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.LinkedAccount{}).Count(&count).Error
	return count, err
}
