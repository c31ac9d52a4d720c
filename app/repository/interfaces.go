package repository

import (
	"time"

	"github.com/chessledger/chessledger/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetWithAccounts(id uint) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// LinkedAccountRepository defines the interface for linked platform accounts
type LinkedAccountRepository interface {
	Create(account *models.LinkedAccount) error
	GetByID(id uint) (*models.LinkedAccount, error)
	GetByUserID(userID uint) ([]models.LinkedAccount, error)
	GetByPlatformUsername(platform, username string) (*models.LinkedAccount, error)
	GetSyncable() ([]models.LinkedAccount, error)
	Update(account *models.LinkedAccount) error
	UpdateLastSyncAt(id uint, t time.Time) error
	Delete(id uint) error
	Count() (int64, error)
}

// GameRepository defines the interface for imported game records
type GameRepository interface {
	Create(game *models.Game) error
	GetByID(id uint) (*models.Game, error)
	GetByPlatformExternalID(platform, externalID string) (*models.Game, error)
	ExistsByPlatformExternalID(platform, externalID string) (bool, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Game, error)
	GetByAccountID(accountID uint, offset, limit int) ([]models.Game, error)
	GetRecent(limit int) ([]models.Game, error)
	Count() (int64, error)
	CountByUserID(userID uint) (int64, error)
	CountByPlatform() (map[string]int64, error)
	CountByTimeClass() (map[string]int64, error)
	GetDailyImportStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// SyncJobRepository defines the interface for sync job bookkeeping
type SyncJobRepository interface {
	Create(job *models.SyncJob) error
	GetByID(id uint) (*models.SyncJob, error)
	GetByUUID(uuid string) (*models.SyncJob, error)
	GetRunningByAccountID(accountID uint) (*models.SyncJob, error)
	GetByUserID(userID uint, limit int) ([]SyncJobWithAccount, error)
	GetRecent(limit int) ([]SyncJobWithAccount, error)
	Update(job *models.SyncJob) error
	CountByStatus() (map[string]int64, error)
	FailStaleRunning(olderThan time.Duration) (int64, error)
	PruneFinished(olderThan time.Duration) (int64, error)
}

// SyncJobWithAccount joins a job with the account identity it ran for,
// used by the status endpoints so clients do not need a second lookup.
type SyncJobWithAccount struct {
	Job              models.SyncJob `json:"job"`
	Platform         string         `json:"platform"`
	PlatformUsername string         `json:"platform_username"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User          UserRepository
	LinkedAccount LinkedAccountRepository
	Game          GameRepository
	SyncJob       SyncJobRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		LinkedAccount: NewLinkedAccountRepository(db),
		Game:          NewGameRepository(db),
		SyncJob:       NewSyncJobRepository(db),
	}
}
