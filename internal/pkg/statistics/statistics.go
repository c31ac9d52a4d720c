package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/internal/pkg/cache"
	"github.com/chessledger/chessledger/internal/pkg/database"
)

const (
	CacheKeyGamesTotal    = "statistics:games:total"
	CacheKeyGamesDaily    = "statistics:games:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers         = "statistics:users:total"
	CacheKeyAccountsTotal = "statistics:accounts:total"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the cheap headline numbers for the status surface.
type StatisticsData struct {
	TodayImports    int              `json:"today_imports"`
	TotalGames      int              `json:"total_games"`
	TotalUsers      int              `json:"total_users"`
	TotalAccounts   int              `json:"total_accounts"`
	RunningJobs     int              `json:"running_jobs"`
	GamesByPlatform map[string]int64 `json:"games_by_platform"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the snapshot is older than the update
// interval.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached counters when they are stale.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Refreshing statistics cache...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error refreshing statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh. Sync runs call
// this after importing games so the numbers do not lag a full interval.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recounts and stores all cached statistics.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalGames int64
	if err := db.Model(&models.Game{}).Count(&totalGames).Error; err != nil {
		log.Printf("Error counting total games: %v", err)
		return err
	}

	var todayImports int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Game{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayImports).Error; err != nil {
		log.Printf("Error counting today's imports: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	var totalAccounts int64
	if err := db.Model(&models.LinkedAccount{}).Count(&totalAccounts).Error; err != nil {
		log.Printf("Error counting linked accounts: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyGamesTotal, strconv.FormatInt(totalGames, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total games: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyGamesDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayImports, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's imports: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyAccountsTotal, strconv.FormatInt(totalAccounts, 10), CacheExpiration); err != nil {
		log.Printf("Error caching linked accounts: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Total Games: %d, Today's Imports: %d, Total Users: %d, Linked Accounts: %d",
		totalGames, todayImports, totalUsers, totalAccounts)

	return nil
}

// GetTotalGames returns the total number of stored games from cache or
// database.
func GetTotalGames() int {
	val, err := cache.Get(CacheKeyGamesTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.Game{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total games: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyGamesTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total games: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayImports returns the number of games imported today from cache or
// database.
func GetTodayImports() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyGamesDaily, today)

	val, err := cache.Get(dailyKey)
	if err != nil {
		var count int64
		db := database.GetDB()
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.Game{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's imports: %v", err)
			return 0
		}

		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's imports: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalUsers returns the total number of users from cache or database.
func GetTotalUsers() int {
	val, err := cache.Get(CacheKeyUsers)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total users: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyUsers, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total users: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalAccounts returns the number of linked accounts from cache or
// database.
func GetTotalAccounts() int {
	val, err := cache.Get(CacheKeyAccountsTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.LinkedAccount{}).Count(&count).Error; err != nil {
			log.Printf("Error counting linked accounts: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyAccountsTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching linked accounts: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetRunningJobs counts currently running sync jobs. Always fresh, the
// number changes too fast to be worth caching.
func GetRunningJobs() int {
	var count int64
	db := database.GetDB()
	if err := db.Model(&models.SyncJob{}).Where("status = ?", models.SyncJobStatusRunning).Count(&count).Error; err != nil {
		log.Printf("Error counting running jobs: %v", err)
		return 0
	}
	return int(count)
}

// GetGamesByPlatform counts stored games per platform. Uncached, the
// grouped count rides the unique (platform, external_id) index.
func GetGamesByPlatform() map[string]int64 {
	db := database.GetDB()

	var rows []struct {
		Platform string
		Count    int64
	}
	if err := db.Model(&models.Game{}).Select("platform, COUNT(*) as count").Group("platform").Scan(&rows).Error; err != nil {
		log.Printf("Error counting games by platform: %v", err)
		return map[string]int64{}
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Platform] = row.Count
	}
	return out
}

// GetStatisticsData returns all headline statistics.
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayImports:    GetTodayImports(),
		TotalGames:      GetTotalGames(),
		TotalUsers:      GetTotalUsers(),
		TotalAccounts:   GetTotalAccounts(),
		RunningJobs:     GetRunningJobs(),
		GamesByPlatform: GetGamesByPlatform(),
	}
}
