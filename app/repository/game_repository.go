package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/chessledger/chessledger/app/models"
	"gorm.io/gorm"
)

// gameRepository implements the GameRepository interface
type gameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates a new game repository instance
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

// Create inserts a new game. A duplicate on the (platform, external_id)
// unique index surfaces as gorm.ErrDuplicatedKey.
func (r *gameRepository) Create(game *models.Game) error {
	return r.db.Create(game).Error
}

// GetByID retrieves a game by its ID
func (r *gameRepository) GetByID(id uint) (*models.Game, error) {
	var game models.Game
	err := r.db.First(&game, id).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetByPlatformExternalID retrieves a game by its natural key
func (r *gameRepository) GetByPlatformExternalID(platform, externalID string) (*models.Game, error) {
	var game models.Game
	err := r.db.Where("platform = ? AND external_id = ?", platform, externalID).First(&game).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// ExistsByPlatformExternalID checks the natural key without loading the row
func (r *gameRepository) ExistsByPlatformExternalID(platform, externalID string) (bool, error) {
	var game models.Game
	err := r.db.Select("id").Where("platform = ? AND external_id = ?", platform, externalID).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByUserID retrieves a paginated list of a user's games, newest first
func (r *gameRepository) GetByUserID(userID uint, offset, limit int) ([]models.Game, error) {
	var games []models.Game
	err := r.db.Where("user_id = ?", userID).
		Order("played_at DESC").Offset(offset).Limit(limit).Find(&games).Error
	return games, err
}

// GetByAccountID retrieves a paginated list of one account's games, newest first
func (r *gameRepository) GetByAccountID(accountID uint, offset, limit int) ([]models.Game, error) {
	var games []models.Game
	err := r.db.Where("linked_account_id = ?", accountID).
		Order("played_at DESC").Offset(offset).Limit(limit).Find(&games).Error
	return games, err
}

// GetRecent retrieves the most recently imported games
func (r *gameRepository) GetRecent(limit int) ([]models.Game, error) {
	var games []models.Game
	err := r.db.Order("created_at DESC").Limit(limit).Find(&games).Error
	return games, err
}

// Count returns the total number of games
func (r *gameRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Game{}).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of games owned by a user
func (r *gameRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Game{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountByPlatform returns game counts grouped by source platform
func (r *gameRepository) CountByPlatform() (map[string]int64, error) {
	return r.countGrouped("platform")
}

// CountByTimeClass returns game counts grouped by time class
func (r *gameRepository) CountByTimeClass() (map[string]int64, error) {
	return r.countGrouped("time_class")
}

func (r *gameRepository) countGrouped(column string) (map[string]int64, error) {
	var results []struct {
		Key   string `gorm:"column:grouping_key"`
		Count int64  `gorm:"column:grouping_count"`
	}

	err := r.db.Model(&models.Game{}).
		Select(fmt.Sprintf("%s as grouping_key, COUNT(*) as grouping_count", column)).
		Group(column).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count games by %s: %w", column, err)
	}

	counts := make(map[string]int64, len(results))
	for _, result := range results {
		counts[result.Key] = result.Count
	}
	return counts, nil
}

// GetDailyImportStats returns daily import counts for a date range
func (r *gameRepository) GetDailyImportStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	// Use DATE_FORMAT for MySQL compatibility and proper date formatting
	err := r.db.Model(&models.Game{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily import stats: %w", err)
	}

	dailyStats := make([]models.DailyStats, len(results))
	for i, result := range results {
		dailyStats[i] = models.DailyStats{
			Date:  result.Date,
			Count: int(result.Count),
		}
	}

	return dailyStats, nil
}
