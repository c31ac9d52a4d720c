package repository

import (
	"fmt"
	"time"

	"github.com/chessledger/chessledger/app/models"
	"gorm.io/gorm"
)

// syncJobRepository implements the SyncJobRepository interface
type syncJobRepository struct {
	db *gorm.DB
}

// NewSyncJobRepository creates a new sync job repository instance
func NewSyncJobRepository(db *gorm.DB) SyncJobRepository {
	return &syncJobRepository{db: db}
}

// Create creates a new sync job in the database
func (r *syncJobRepository) Create(job *models.SyncJob) error {
	return r.db.Create(job).Error
}

// GetByID retrieves a sync job by its ID
func (r *syncJobRepository) GetByID(id uint) (*models.SyncJob, error) {
	var job models.SyncJob
	err := r.db.First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByUUID retrieves a sync job by its public UUID
func (r *syncJobRepository) GetByUUID(uuid string) (*models.SyncJob, error) {
	var job models.SyncJob
	err := r.db.Where("uuid = ?", uuid).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetRunningByAccountID retrieves the running job of an account, if any
func (r *syncJobRepository) GetRunningByAccountID(accountID uint) (*models.SyncJob, error) {
	var job models.SyncJob
	err := r.db.Where("linked_account_id = ? AND status = ?", accountID, models.SyncJobStatusRunning).
		Order("started_at DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByUserID retrieves the most recent jobs of a user together with the
// account identity each job ran for
func (r *syncJobRepository) GetByUserID(userID uint, limit int) ([]SyncJobWithAccount, error) {
	return r.listWithAccount(r.db.Where("sync_jobs.user_id = ?", userID), limit)
}

// GetRecent retrieves the most recent jobs across all users
func (r *syncJobRepository) GetRecent(limit int) ([]SyncJobWithAccount, error) {
	return r.listWithAccount(r.db, limit)
}

func (r *syncJobRepository) listWithAccount(tx *gorm.DB, limit int) ([]SyncJobWithAccount, error) {
	var jobs []models.SyncJob
	err := tx.Model(&models.SyncJob{}).
		Order("sync_jobs.started_at DESC").Limit(limit).Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	rows := make([]SyncJobWithAccount, 0, len(jobs))
	for _, job := range jobs {
		row := SyncJobWithAccount{Job: job}
		var account models.LinkedAccount
		// Unscoped so jobs of since-unlinked accounts still resolve
		if err := r.db.Unscoped().First(&account, job.LinkedAccountID).Error; err == nil {
			row.Platform = account.Platform
			row.PlatformUsername = account.PlatformUsername
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Update updates an existing sync job in the database
func (r *syncJobRepository) Update(job *models.SyncJob) error {
	return r.db.Save(job).Error
}

// CountByStatus returns job counts grouped by status
func (r *syncJobRepository) CountByStatus() (map[string]int64, error) {
	var results []struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:status_count"`
	}

	err := r.db.Model(&models.SyncJob{}).
		Select("status, COUNT(*) as status_count").
		Group("status").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count sync jobs by status: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, result := range results {
		counts[result.Status] = result.Count
	}
	return counts, nil
}

// FailStaleRunning marks running jobs older than the cutoff as failed.
// Called at boot to clean up jobs orphaned by a crash or restart.
func (r *syncJobRepository) FailStaleRunning(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.Model(&models.SyncJob{}).
		Where("status = ? AND started_at < ?", models.SyncJobStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":        models.SyncJobStatusFailed,
			"completed_at":  time.Now(),
			"error_message": "interrupted",
		})
	return result.RowsAffected, result.Error
}

// PruneFinished deletes finished jobs older than the cutoff
func (r *syncJobRepository) PruneFinished(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.
		Where("status <> ? AND started_at < ?", models.SyncJobStatusRunning, cutoff).
		Delete(&models.SyncJob{})
	return result.RowsAffected, result.Error
}
