// Package syncengine orchestrates game imports: it decides which accounts
// to sync and over which window, drives the platform adapters, dedupes
// against stored games and keeps the sync job bookkeeping honest. All
// outbound pacing lives in the ratelimit scheduler, all HTTP specifics in
// the adapters; this package only sequences them.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/app/repository"
	"github.com/chessledger/chessledger/internal/pkg/cache"
	"github.com/chessledger/chessledger/internal/pkg/env"
	"github.com/chessledger/chessledger/internal/pkg/provider"
	"github.com/chessledger/chessledger/internal/pkg/ratelimit"
	"github.com/chessledger/chessledger/internal/pkg/statistics"
)

var (
	ErrAccountNotSyncable   = errors.New("account is not syncable")
	ErrSyncAlreadyRunning   = errors.New("a sync is already running for this account")
	ErrScheduledSyncRunning = errors.New("scheduled sync already running")
	ErrUserNotActive        = errors.New("user is not active")
	ErrJobNotRunning        = errors.New("job is not running")
	ErrJobNotRetryable      = errors.New("job is not retryable")
	ErrUnknownProvider      = errors.New("no provider registered for platform")
)

// The window before the last watermark is re-fetched on every sync, so
// games finished right around the previous run cannot fall through.
// Duplicates are cheap, the natural key filters them.
const defaultResyncOverlapHours = 24

// defaultLookbackMonths bounds the very first fetch for an account.
const defaultLookbackMonths = 6

// Service coordinates sync runs over the registered platform adapters.
type Service struct {
	repos     *repository.Repositories
	providers map[string]provider.Client

	// Guards the scheduled full sweep, on-demand syncs are not affected.
	scheduledRunning atomic.Bool

	maxGames         int
	lookbackMonths   int
	resyncOverlap    time.Duration
	jobRetentionDays int
}

// ScheduledSummary reports one scheduled sweep.
type ScheduledSummary struct {
	Accounts int
	Synced   int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// NewService wires the engine. Tuning comes from the environment:
// SYNC_MAX_GAMES caps one fetch (0 = unlimited), SYNC_LOOKBACK_MONTHS sets
// the first-sync window, SYNC_RESYNC_OVERLAP_HOURS how far behind the
// watermark an incremental sync restarts, SYNC_JOB_RETENTION_DAYS how long
// finished jobs are kept.
func NewService(repos *repository.Repositories, clients ...provider.Client) *Service {
	providers := make(map[string]provider.Client, len(clients))
	for _, client := range clients {
		providers[client.Platform()] = client
	}

	return &Service{
		repos:            repos,
		providers:        providers,
		maxGames:         envInt("SYNC_MAX_GAMES", 0),
		lookbackMonths:   envInt("SYNC_LOOKBACK_MONTHS", defaultLookbackMonths),
		resyncOverlap:    time.Duration(envInt("SYNC_RESYNC_OVERLAP_HOURS", defaultResyncOverlapHours)) * time.Hour,
		jobRetentionDays: envInt("SYNC_JOB_RETENTION_DAYS", 90),
	}
}

// Platforms lists the registered provider platforms.
func (s *Service) Platforms() []string {
	out := make([]string, 0, len(s.providers))
	for platform := range s.providers {
		out = append(out, platform)
	}
	return out
}

// playerProbeTTL is how long a confirmed player existence is trusted.
// Only positive answers are cached, a missing player may be created any
// moment.
const playerProbeTTL = 15 * time.Minute

// CheckPlayer probes whether a username exists on a platform, used to
// validate an account before it is linked. Best effort: a platform outage
// reads as not found. Confirmed players are cached to spare the provider
// quota on repeated linking attempts.
func (s *Service) CheckPlayer(ctx context.Context, platform, username string) (bool, error) {
	client, ok := s.providers[platform]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownProvider, platform)
	}

	key := fmt.Sprintf("provider:player:%s:%s", platform, strings.ToLower(strings.TrimSpace(username)))
	if _, err := cache.Get(key); err == nil {
		return true, nil
	}

	exists := client.UserExists(ratelimit.WithPriority(ctx, ratelimit.PriorityHigh), username)
	if exists {
		if err := cache.Set(key, "1", playerProbeTTL); err != nil {
			log.Warnf("[SyncEngine] Caching player probe %s failed: %v", key, err)
		}
	}
	return exists, nil
}

// SyncAccount runs one account sync to completion with on-demand priority.
func (s *Service) SyncAccount(ctx context.Context, accountID uint) (*models.SyncJob, error) {
	account, err := s.repos.LinkedAccount.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	job, client, err := s.prepareJob(account)
	if err != nil {
		return nil, err
	}

	ctx = ratelimit.WithPriority(ctx, ratelimit.PriorityHigh)
	return job, s.runJob(ctx, job, account, client)
}

// TriggerAccountSync starts one account sync in the background and returns
// the created job immediately.
func (s *Service) TriggerAccountSync(accountID uint) (*models.SyncJob, error) {
	account, err := s.repos.LinkedAccount.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	job, client, err := s.prepareJob(account)
	if err != nil {
		return nil, err
	}

	// The runner keeps mutating job, the caller gets a snapshot.
	snapshot := *job
	go func() {
		runCtx := ratelimit.WithPriority(context.Background(), ratelimit.PriorityHigh)
		if err := s.runJob(runCtx, job, account, client); err != nil {
			log.Errorf("[SyncEngine] On-demand sync for %s/%s failed: %v", account.Platform, account.PlatformUsername, err)
		}
	}()
	return &snapshot, nil
}

// TriggerUserSync starts background syncs for every syncable account of a
// user, sequentially so one user cannot monopolize the request budget, and
// returns the created jobs immediately. Accounts that already have a
// running job are left alone.
func (s *Service) TriggerUserSync(userID uint) ([]*models.SyncJob, error) {
	user, err := s.repos.User.GetWithAccounts(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrUserNotActive
	}

	type queued struct {
		job     *models.SyncJob
		account models.LinkedAccount
		client  provider.Client
	}

	var batch []queued
	jobs := make([]*models.SyncJob, 0, len(user.LinkedAccounts))
	for i := range user.LinkedAccounts {
		account := user.LinkedAccounts[i]
		if !account.Syncable() {
			continue
		}
		job, client, err := s.prepareJob(&account)
		if err != nil {
			if errors.Is(err, ErrSyncAlreadyRunning) {
				log.Infof("[SyncEngine] %s/%s already syncing, not queueing again", account.Platform, account.PlatformUsername)
				continue
			}
			log.Warnf("[SyncEngine] Cannot queue %s/%s: %v", account.Platform, account.PlatformUsername, err)
			continue
		}
		batch = append(batch, queued{job: job, account: account, client: client})
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}

	if len(batch) > 0 {
		go func() {
			runCtx := ratelimit.WithPriority(context.Background(), ratelimit.PriorityHigh)
			for _, q := range batch {
				account := q.account
				if err := s.runJob(runCtx, q.job, &account, q.client); err != nil {
					log.Errorf("[SyncEngine] On-demand sync for %s/%s failed: %v", account.Platform, account.PlatformUsername, err)
				}
			}
		}()
	}
	return jobs, nil
}

// ScheduledSync sweeps every syncable account once. Only one sweep runs at
// a time; an overlapping tick is skipped, not queued, so slow sweeps cannot
// pile up behind each other.
func (s *Service) ScheduledSync(ctx context.Context) (*ScheduledSummary, error) {
	if !s.scheduledRunning.CompareAndSwap(false, true) {
		log.Infof("[SyncEngine] Previous scheduled sync still running, skipping this round")
		return nil, ErrScheduledSyncRunning
	}
	defer s.scheduledRunning.Store(false)

	return s.runScheduledSweep(ctx)
}

// StartScheduledSync launches a sweep in the background, for the manual
// trigger endpoint. Reports whether a new sweep actually started.
func (s *Service) StartScheduledSync() bool {
	if !s.scheduledRunning.CompareAndSwap(false, true) {
		log.Infof("[SyncEngine] Manual sync trigger ignored, a sweep is already running")
		return false
	}

	go func() {
		defer s.scheduledRunning.Store(false)
		summary, err := s.runScheduledSweep(context.Background())
		if err != nil {
			log.Errorf("[SyncEngine] Manual scheduled sync failed: %v", err)
			return
		}
		log.Infof("[SyncEngine] Manual scheduled sync done: %d accounts, %d synced, %d skipped, %d failed",
			summary.Accounts, summary.Synced, summary.Skipped, summary.Failed)
	}()
	return true
}

func (s *Service) runScheduledSweep(ctx context.Context) (*ScheduledSummary, error) {
	start := time.Now()
	accounts, err := s.repos.LinkedAccount.GetSyncable()
	if err != nil {
		return nil, err
	}
	log.Infof("[SyncEngine] Scheduled sync starting for %d accounts", len(accounts))

	summary := &ScheduledSummary{Accounts: len(accounts)}
	for i := range accounts {
		account := accounts[i]
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		job, client, err := s.prepareJob(&account)
		if err != nil {
			if errors.Is(err, ErrSyncAlreadyRunning) {
				summary.Skipped++
				continue
			}
			log.Warnf("[SyncEngine] Skipping %s/%s: %v", account.Platform, account.PlatformUsername, err)
			summary.Failed++
			continue
		}
		if err := s.runJob(ctx, job, &account, client); err != nil {
			summary.Failed++
			continue
		}
		summary.Synced++
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// prepareJob guards one account sync and creates its job row. The running
// check plus create is not atomic; the scheduled sweep and triggers all
// funnel through here, so the worst case is a duplicate run whose games
// dedup away.
func (s *Service) prepareJob(account *models.LinkedAccount) (*models.SyncJob, provider.Client, error) {
	if !account.Syncable() {
		return nil, nil, ErrAccountNotSyncable
	}
	client, ok := s.providers[account.Platform]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProvider, account.Platform)
	}

	if _, err := s.repos.SyncJob.GetRunningByAccountID(account.ID); err == nil {
		return nil, nil, ErrSyncAlreadyRunning
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	job := &models.SyncJob{UserID: account.UserID, LinkedAccountID: account.ID}
	if err := s.repos.SyncJob.Create(job); err != nil {
		return nil, nil, err
	}
	return job, client, nil
}

// runJob executes one prepared job: fetch, import, finalize. The account
// watermark only advances when the job completes; a failed or cancelled run
// leaves it untouched so the next sync covers the same window again.
func (s *Service) runJob(ctx context.Context, job *models.SyncJob, account *models.LinkedAccount, client provider.Client) error {
	window := s.windowStart(account, time.Now().UTC())
	log.Infof("[SyncEngine] Job %s syncing %s/%s since %s", job.UUID, account.Platform, account.PlatformUsername, window.Format(time.RFC3339))

	fetched, err := client.FetchGamesSince(ctx, account.PlatformUsername, window, s.maxGames, func(processed, total int) {
		log.Debugf("[SyncEngine] Job %s progress: %d/%d", job.UUID, processed, total)
	})
	if err != nil {
		s.finalize(job, func(j *models.SyncJob) { j.MarkAsFailed(errorMessage(err)) })
		return err
	}

	created, skipped := s.importGames(account, fetched)

	if s.finalize(job, func(j *models.SyncJob) { j.MarkAsCompleted(len(fetched), created, skipped) }) {
		if err := s.repos.LinkedAccount.UpdateLastSyncAt(account.ID, *job.CompletedAt); err != nil {
			log.Errorf("[SyncEngine] Failed to advance watermark for account %d: %v", account.ID, err)
		}
	}
	if created > 0 {
		statistics.ResetCacheUpdateTimer()
	}

	log.Infof("[SyncEngine] Job %s finished: %d fetched, %d new, %d skipped", job.UUID, len(fetched), created, skipped)
	return nil
}

// finalize applies fn and persists the job, unless it was cancelled while
// the fetch was in flight; a cancelled job keeps its state and the result
// of the run is discarded. Returns whether fn was applied.
func (s *Service) finalize(job *models.SyncJob, fn func(*models.SyncJob)) bool {
	if current, err := s.repos.SyncJob.GetByID(job.ID); err == nil && current.Status == models.SyncJobStatusCancelled {
		log.Infof("[SyncEngine] Job %s was cancelled mid-run, discarding result", job.UUID)
		*job = *current
		return false
	}

	fn(job)
	if err := s.repos.SyncJob.Update(job); err != nil {
		log.Errorf("[SyncEngine] Failed to update job %s: %v", job.UUID, err)
		return false
	}
	return true
}

// importGames persists fetched games, skipping ones already stored. A
// single bad game never aborts the batch, it is counted as skipped.
func (s *Service) importGames(account *models.LinkedAccount, fetched []provider.ParsedGame) (created, skipped int) {
	for _, parsed := range fetched {
		exists, err := s.repos.Game.ExistsByPlatformExternalID(parsed.Platform, parsed.ExternalID)
		if err != nil {
			log.Errorf("[SyncEngine] Dedup lookup for %s/%s failed: %v", parsed.Platform, parsed.ExternalID, err)
			skipped++
			continue
		}
		if exists {
			skipped++
			continue
		}

		game := buildGame(account, parsed)
		if err := s.repos.Game.Create(game); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race against a concurrent import of the same game.
				skipped++
				continue
			}
			log.Errorf("[SyncEngine] Saving game %s/%s failed: %v", parsed.Platform, parsed.ExternalID, err)
			skipped++
			continue
		}
		created++
	}
	return created, skipped
}

// windowStart computes the fetch window for an account: the watermark minus
// the overlap, or the configured lookback for a first sync.
func (s *Service) windowStart(account *models.LinkedAccount, now time.Time) time.Time {
	if account.LastSyncAt != nil {
		return account.LastSyncAt.Add(-s.resyncOverlap)
	}
	months := s.lookbackMonths
	if months <= 0 {
		months = defaultLookbackMonths
	}
	return now.AddDate(0, -months, 0)
}

func buildGame(account *models.LinkedAccount, parsed provider.ParsedGame) *models.Game {
	return &models.Game{
		UserID:          account.UserID,
		LinkedAccountID: account.ID,
		Platform:        parsed.Platform,
		ExternalID:      parsed.ExternalID,
		URL:             parsed.URL,
		PGN:             parsed.PGN,
		WhiteUsername:   parsed.WhiteUsername,
		BlackUsername:   parsed.BlackUsername,
		WhiteRating:     parsed.WhiteRating,
		BlackRating:     parsed.BlackRating,
		UserColor:       userColor(parsed, account.PlatformUsername),
		Result:          parsed.Result,
		Termination:     parsed.Termination,
		TimeControl:     parsed.TimeControl,
		TimeClass:       parsed.TimeClass,
		Rated:           parsed.Rated,
		Variant:         parsed.Variant,
		ECOCode:         parsed.ECOCode,
		OpeningName:     parsed.OpeningName,
		PlayedAt:        parsed.PlayedAt,
		Event:           parsed.Event,
		Site:            parsed.Site,
		AnalysisStatus:  models.AnalysisStatusPending,
	}
}

// userColor resolves which side the account holder played, by
// case-insensitive username match. Games where neither side matches keep
// the unknown color rather than a guessed one.
func userColor(parsed provider.ParsedGame, username string) string {
	switch {
	case strings.EqualFold(parsed.WhiteUsername, username):
		return models.ColorWhite
	case strings.EqualFold(parsed.BlackUsername, username):
		return models.ColorBlack
	default:
		return models.ColorUnknown
	}
}

func errorMessage(err error) string {
	msg := err.Error()
	if len(msg) > 1000 {
		msg = msg[:1000]
	}
	return msg
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(env.GetEnv(key, "")); err == nil && v >= 0 {
		return v
	}
	return def
}
