package provider

import (
	"strconv"
	"strings"

	"github.com/chessledger/chessledger/app/models"
)

// ParseTimeControl splits a clock control string into initial and
// increment seconds. Supported forms: "600", "600+5", "1/86400" (daily
// correspondence, one move per period) and "-" for no clock. ok reports
// whether the string carried a parsable clock; daily controls are
// reported with ok=true and daily=true.
func ParseTimeControl(tc string) (initial, increment int, daily, ok bool) {
	tc = strings.TrimSpace(tc)
	if tc == "" || tc == "-" {
		return 0, 0, false, false
	}

	if idx := strings.Index(tc, "/"); idx >= 0 {
		period, err := strconv.Atoi(tc[idx+1:])
		if err != nil {
			return 0, 0, false, false
		}
		return period, 0, true, true
	}

	if idx := strings.Index(tc, "+"); idx >= 0 {
		base, err := strconv.Atoi(tc[:idx])
		if err != nil {
			return 0, 0, false, false
		}
		inc, err := strconv.Atoi(tc[idx+1:])
		if err != nil {
			return 0, 0, false, false
		}
		return base, inc, false, true
	}

	base, err := strconv.Atoi(tc)
	if err != nil {
		return 0, 0, false, false
	}
	return base, 0, false, true
}

// DeriveTimeClass buckets a clock by estimated total game duration,
// initial + 40 moves of increment.
func DeriveTimeClass(initial, increment int) string {
	estimated := initial + 40*increment
	switch {
	case estimated < 30:
		return models.TimeClassUltraBullet
	case estimated < 180:
		return models.TimeClassBullet
	case estimated < 600:
		return models.TimeClassBlitz
	case estimated < 1800:
		return models.TimeClassRapid
	default:
		return models.TimeClassClassical
	}
}

// TimeClassFromControl derives the class straight from a control string.
// Daily controls map to the daily class; an unparsable string yields
// ok=false and the caller keeps whatever the provider labeled the game.
func TimeClassFromControl(tc string) (string, bool) {
	initial, increment, daily, ok := ParseTimeControl(tc)
	if !ok {
		return "", false
	}
	if daily {
		return models.TimeClassDaily, true
	}
	return DeriveTimeClass(initial, increment), true
}

// NormalizeTimeClass maps provider speed labels onto the canonical
// vocabulary, falling back to the label itself lowercased.
func NormalizeTimeClass(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "ultrabullet":
		return models.TimeClassUltraBullet
	case "bullet":
		return models.TimeClassBullet
	case "blitz":
		return models.TimeClassBlitz
	case "rapid":
		return models.TimeClassRapid
	case "classical":
		return models.TimeClassClassical
	case "daily", "correspondence":
		return models.TimeClassDaily
	default:
		return strings.ToLower(strings.TrimSpace(label))
	}
}

// ResultForWinner maps an explicit winning color onto a result, draw when
// no winner is named.
func ResultForWinner(winner string) string {
	switch strings.ToLower(winner) {
	case "white":
		return models.ResultWhiteWin
	case "black":
		return models.ResultBlackWin
	default:
		return models.ResultDraw
	}
}
