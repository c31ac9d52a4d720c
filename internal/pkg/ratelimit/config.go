package ratelimit

import (
	"strconv"
	"strings"
	"time"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/internal/pkg/env"
)

// Config holds the outbound request budget for one platform.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	MaxConcurrent     int
	MinSpacing        time.Duration
	QueueSize         int
}

// Built-in budgets. Chess.com wants clients slow and mostly serial,
// Lichess tolerates a bit more but throttles hard once it answers 429.
var defaultConfigs = map[string]Config{
	models.PlatformChessCom: {
		RequestsPerSecond: 1,
		Burst:             3,
		MaxConcurrent:     2,
		MinSpacing:        500 * time.Millisecond,
		QueueSize:         256,
	},
	models.PlatformLichess: {
		RequestsPerSecond: 2,
		Burst:             4,
		MaxConcurrent:     2,
		MinSpacing:        250 * time.Millisecond,
		QueueSize:         256,
	},
}

// LoadConfigs returns the budget for every known platform, with env
// overrides of the form RATE_LIMIT_CHESSCOM_RPS, RATE_LIMIT_LICHESS_BURST,
// RATE_LIMIT_<P>_CONCURRENCY and RATE_LIMIT_<P>_SPACING_MS.
func LoadConfigs() map[string]Config {
	configs := make(map[string]Config, len(defaultConfigs))
	for platform, def := range defaultConfigs {
		prefix := "RATE_LIMIT_" + strings.ToUpper(platform) + "_"

		cfg := def
		if v, err := strconv.ParseFloat(env.GetEnv(prefix+"RPS", ""), 64); err == nil && v > 0 {
			cfg.RequestsPerSecond = v
		}
		if v, err := strconv.Atoi(env.GetEnv(prefix+"BURST", "")); err == nil && v > 0 {
			cfg.Burst = v
		}
		if v, err := strconv.Atoi(env.GetEnv(prefix+"CONCURRENCY", "")); err == nil && v > 0 {
			cfg.MaxConcurrent = v
		}
		if v, err := strconv.Atoi(env.GetEnv(prefix+"SPACING_MS", "")); err == nil && v >= 0 {
			cfg.MinSpacing = time.Duration(v) * time.Millisecond
		}
		configs[platform] = cfg
	}
	return configs
}
