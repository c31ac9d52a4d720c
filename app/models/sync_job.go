package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SyncJobStatusRunning   = "running"
	SyncJobStatusCompleted = "completed"
	SyncJobStatusFailed    = "failed"
	SyncJobStatusCancelled = "cancelled"
)

// SyncJobMaxRetries caps how often a failed job may be re-run through the
// retry endpoint.
const SyncJobMaxRetries = 3

// SyncJob records one sync run for a linked account. A job is created in
// running state when the fetch starts and finalized exactly once.
type SyncJob struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UUID            string         `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	UserID          uint           `gorm:"index" json:"user_id"`
	LinkedAccountID uint           `gorm:"index" json:"linked_account_id"`
	LinkedAccount   *LinkedAccount `gorm:"foreignKey:LinkedAccountID" json:"-"`
	Status          string         `gorm:"type:varchar(20);index" json:"status"`
	StartedAt       time.Time      `gorm:"type:timestamp" json:"started_at"`
	CompletedAt     *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	TotalGames      int            `gorm:"default:0" json:"total_games"`
	NewGames        int            `gorm:"default:0" json:"new_games"`
	SkippedGames    int            `gorm:"default:0" json:"skipped_games"`
	ErrorMessage    string         `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount      int            `gorm:"default:0" json:"retry_count"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the public job id.
func (j *SyncJob) BeforeCreate(tx *gorm.DB) error {
	if j.UUID == "" {
		j.UUID = uuid.New().String()
	}
	if j.StartedAt.IsZero() {
		j.StartedAt = time.Now()
	}
	if j.Status == "" {
		j.Status = SyncJobStatusRunning
	}
	return nil
}

// MarkAsCompleted finalizes the job with its counters.
func (j *SyncJob) MarkAsCompleted(total, created, skipped int) {
	now := time.Now()
	j.Status = SyncJobStatusCompleted
	j.CompletedAt = &now
	j.TotalGames = total
	j.NewGames = created
	j.SkippedGames = skipped
	j.ErrorMessage = ""
}

// MarkAsFailed finalizes the job with the error that stopped it.
func (j *SyncJob) MarkAsFailed(errorMsg string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.ErrorMessage = errorMsg
}

// MarkAsCancelled finalizes a job that was stopped by an operator.
func (j *SyncJob) MarkAsCancelled() {
	now := time.Now()
	j.Status = SyncJobStatusCancelled
	j.CompletedAt = &now
}

// ResetForRetry puts a failed job back into running state for a renewed
// sync cycle, keeping the retry counter as the only trace of the failure.
func (j *SyncJob) ResetForRetry() {
	j.Status = SyncJobStatusRunning
	j.StartedAt = time.Now()
	j.CompletedAt = nil
	j.TotalGames = 0
	j.NewGames = 0
	j.SkippedGames = 0
	j.ErrorMessage = ""
	j.RetryCount++
}

// IsRetryable checks if the job can be re-run via the retry endpoint.
func (j *SyncJob) IsRetryable() bool {
	return j.Status == SyncJobStatusFailed && j.RetryCount < SyncJobMaxRetries
}

// IsFinished reports whether the job reached a terminal state.
func (j *SyncJob) IsFinished() bool {
	return j.Status != SyncJobStatusRunning
}

// Duration returns how long the job ran, zero while still running.
func (j *SyncJob) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.StartedAt)
}
