package chesscom

import (
	"strings"
	"time"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/internal/pkg/openings"
	"github.com/chessledger/chessledger/internal/pkg/provider"
)

// Per-side result codes. The winning side only carries "win", the reason
// the game ended lives on the losing side's code. Draw codes appear on
// both sides.
var lossTerminations = map[string]string{
	"checkmated": "checkmate",
	"timeout":    "timeout",
	"resigned":   "resignation",
	"abandoned":  "abandoned",
	"lose":       "",
}

var drawTerminations = map[string]string{
	"agreed":             "agreement",
	"repetition":         "repetition",
	"stalemate":          "stalemate",
	"insufficient":       "insufficient material",
	"50move":             "fifty-move rule",
	"timevsinsufficient": "timeout vs insufficient material",
}

// parseArchiveGame normalizes one archive entry. ok=false means the entry
// is out of scope (variant game, played before since, unusable ID).
func parseArchiveGame(raw archiveGame, since time.Time) (provider.ParsedGame, bool) {
	if raw.Rules != "" && raw.Rules != "chess" {
		return provider.ParsedGame{}, false
	}

	playedAt := time.Unix(raw.EndTime, 0).UTC()
	if playedAt.Before(since) {
		return provider.ParsedGame{}, false
	}

	externalID := externalIDFromURL(raw.URL)
	if externalID == "" {
		return provider.ParsedGame{}, false
	}

	result, termination := resultFromCodes(raw.White.Result, raw.Black.Result)

	timeClass := provider.NormalizeTimeClass(raw.TimeClass)
	if timeClass == "" {
		if derived, ok := provider.TimeClassFromControl(raw.TimeControl); ok {
			timeClass = derived
		}
	}

	game := provider.ParsedGame{
		ExternalID:    externalID,
		Platform:      models.PlatformChessCom,
		URL:           raw.URL,
		PGN:           raw.PGN,
		WhiteUsername: raw.White.Username,
		BlackUsername: raw.Black.Username,
		WhiteRating:   raw.White.Rating,
		BlackRating:   raw.Black.Rating,
		Result:        result,
		Termination:   termination,
		TimeControl:   raw.TimeControl,
		TimeClass:     timeClass,
		Rated:         raw.Rated,
		Variant:       "standard",
		ECOCode:       pgnTag(raw.PGN, "ECO"),
		OpeningName:   openingNameFromECOURL(pgnTag(raw.PGN, "ECOUrl")),
		PlayedAt:      playedAt,
		Event:         pgnTag(raw.PGN, "Event"),
		Site:          pgnTag(raw.PGN, "Site"),
	}

	if game.ECOCode == "" || game.OpeningName == "" {
		if opening, ok := openings.Classify(raw.PGN); ok {
			if game.ECOCode == "" {
				game.ECOCode = opening.ECO
			}
			if game.OpeningName == "" {
				game.OpeningName = opening.Name
			}
		}
	}

	return game, true
}

func resultFromCodes(white, black string) (result, termination string) {
	if white == "win" {
		return models.ResultWhiteWin, lossTerminations[black]
	}
	if black == "win" {
		return models.ResultBlackWin, lossTerminations[white]
	}
	if term, ok := drawTerminations[white]; ok {
		return models.ResultDraw, term
	}
	if term, ok := drawTerminations[black]; ok {
		return models.ResultDraw, term
	}
	// A loss code decides the game even when the other side's code is
	// missing or unknown.
	if term, ok := lossTerminations[white]; ok {
		return models.ResultBlackWin, term
	}
	if term, ok := lossTerminations[black]; ok {
		return models.ResultWhiteWin, term
	}
	return models.ResultDraw, ""
}

// pgnTag pulls one tag pair value out of a PGN header block.
func pgnTag(pgn, name string) string {
	marker := "[" + name + " \""
	start := strings.Index(pgn, marker)
	if start < 0 {
		return ""
	}
	rest := pgn[start+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// openingNameFromECOURL turns an ECOUrl like
// .../openings/Sicilian-Defense-Najdorf-Variation into a readable name.
func openingNameFromECOURL(ecoURL string) string {
	if ecoURL == "" {
		return ""
	}
	slug := strings.TrimRight(ecoURL, "/")
	if idx := strings.LastIndexByte(slug, '/'); idx >= 0 {
		slug = slug[idx+1:]
	}
	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}

// externalIDFromURL extracts the numeric game ID, the last path segment of
// the game URL.
func externalIDFromURL(gameURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(gameURL), "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
