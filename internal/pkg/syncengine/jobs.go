package syncengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/app/repository"
	"github.com/chessledger/chessledger/internal/pkg/ratelimit"
)

const defaultRecentJobs = 20

// AccountStatus is the sync view of one linked account.
type AccountStatus struct {
	AccountID        uint       `json:"account_id"`
	Platform         string     `json:"platform"`
	PlatformUsername string     `json:"platform_username"`
	SyncEnabled      bool       `json:"sync_enabled"`
	Syncable         bool       `json:"syncable"`
	LastSyncAt       *time.Time `json:"last_sync_at"`
	Running          bool       `json:"running"`
}

// UserSyncStatus bundles a user's accounts with their recent job history.
type UserSyncStatus struct {
	Accounts []AccountStatus                 `json:"accounts"`
	Jobs     []repository.SyncJobWithAccount `json:"jobs"`
}

// SyncStatus reports where every account of a user stands and the most
// recent jobs across all of them. limit caps the job history, 0 means the
// default of 20.
func (s *Service) SyncStatus(userID uint, limit int) (*UserSyncStatus, error) {
	if limit <= 0 {
		limit = defaultRecentJobs
	}

	accounts, err := s.repos.LinkedAccount.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	status := &UserSyncStatus{Accounts: make([]AccountStatus, 0, len(accounts))}
	for i := range accounts {
		account := accounts[i]

		running := false
		if _, err := s.repos.SyncJob.GetRunningByAccountID(account.ID); err == nil {
			running = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		status.Accounts = append(status.Accounts, AccountStatus{
			AccountID:        account.ID,
			Platform:         account.Platform,
			PlatformUsername: account.PlatformUsername,
			SyncEnabled:      account.SyncEnabled,
			Syncable:         account.Syncable(),
			LastSyncAt:       account.LastSyncAt,
			Running:          running,
		})
	}

	jobs, err := s.repos.SyncJob.GetByUserID(userID, limit)
	if err != nil {
		return nil, err
	}
	status.Jobs = jobs
	return status, nil
}

// CancelJob marks a running job as cancelled. The run itself notices at
// finalize time and discards its result, so the account watermark stays
// where it was.
func (s *Service) CancelJob(jobUUID string) (*models.SyncJob, error) {
	job, err := s.repos.SyncJob.GetByUUID(jobUUID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.SyncJobStatusRunning {
		return nil, ErrJobNotRunning
	}

	job.MarkAsCancelled()
	if err := s.repos.SyncJob.Update(job); err != nil {
		return nil, err
	}
	log.Infof("[SyncEngine] Job %s cancelled", job.UUID)
	return job, nil
}

// RetryJob reruns a failed job in the background, reusing its row so the
// attempt count survives. The usual guards apply: the account must still
// be syncable and must not have another run in flight.
func (s *Service) RetryJob(jobUUID string) (*models.SyncJob, error) {
	job, err := s.repos.SyncJob.GetByUUID(jobUUID)
	if err != nil {
		return nil, err
	}
	if !job.IsRetryable() {
		return nil, ErrJobNotRetryable
	}

	account, err := s.repos.LinkedAccount.GetByID(job.LinkedAccountID)
	if err != nil {
		return nil, err
	}
	if !account.Syncable() {
		return nil, ErrAccountNotSyncable
	}
	client, ok := s.providers[account.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, account.Platform)
	}
	if _, err := s.repos.SyncJob.GetRunningByAccountID(account.ID); err == nil {
		return nil, ErrSyncAlreadyRunning
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	job.ResetForRetry()
	if err := s.repos.SyncJob.Update(job); err != nil {
		return nil, err
	}
	log.Infof("[SyncEngine] Retrying job %s (retry %d/%d) for %s/%s", job.UUID, job.RetryCount, models.SyncJobMaxRetries, account.Platform, account.PlatformUsername)

	// The runner keeps mutating job, the caller gets a snapshot.
	snapshot := *job
	go func() {
		runCtx := ratelimit.WithPriority(context.Background(), ratelimit.PriorityHigh)
		if err := s.runJob(runCtx, job, account, client); err != nil {
			log.Errorf("[SyncEngine] Retry of job %s failed: %v", job.UUID, err)
		}
	}()
	return &snapshot, nil
}

// RecoverInterrupted fails jobs left running by a previous process and
// prunes old finished ones. Called once at boot, before the cron starts.
func (s *Service) RecoverInterrupted() {
	if n, err := s.repos.SyncJob.FailStaleRunning(0); err != nil {
		log.Errorf("[SyncEngine] Failed to clean up interrupted jobs: %v", err)
	} else if n > 0 {
		log.Warnf("[SyncEngine] Marked %d interrupted sync jobs as failed", n)
	}

	retention := time.Duration(s.jobRetentionDays) * 24 * time.Hour
	if n, err := s.repos.SyncJob.PruneFinished(retention); err != nil {
		log.Errorf("[SyncEngine] Failed to prune old sync jobs: %v", err)
	} else if n > 0 {
		log.Infof("[SyncEngine] Pruned %d finished sync jobs older than %d days", n, s.jobRetentionDays)
	}
}
