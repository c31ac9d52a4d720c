package lichess

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/internal/pkg/openings"
	"github.com/chessledger/chessledger/internal/pkg/provider"
)

// parseStreamGame normalizes one NDJSON row. ok=false means the row is out
// of scope: variant game, aborted before a real move, created before
// since, or missing an ID.
func parseStreamGame(raw streamGame, since time.Time) (provider.ParsedGame, bool) {
	if raw.ID == "" {
		return provider.ParsedGame{}, false
	}
	if raw.Variant != "" && raw.Variant != "standard" {
		return provider.ParsedGame{}, false
	}
	// Aborted games never took place, importing them would only seed the
	// stats with phantom draws.
	if raw.Status == "aborted" || raw.Status == "noStart" {
		return provider.ParsedGame{}, false
	}

	playedAt := time.UnixMilli(raw.CreatedAt).UTC()
	if playedAt.Before(since) {
		return provider.ParsedGame{}, false
	}

	result, termination := resultFromStatus(raw.Status, raw.Winner)

	timeClass := provider.NormalizeTimeClass(raw.Speed)
	timeControl := formatTimeControl(raw)
	if timeClass == "" {
		if derived, ok := provider.TimeClassFromControl(timeControl); ok {
			timeClass = derived
		}
	}

	game := provider.ParsedGame{
		ExternalID:    raw.ID,
		Platform:      models.PlatformLichess,
		URL:           "https://lichess.org/" + raw.ID,
		PGN:           raw.PGN,
		WhiteUsername: playerName(raw.Players.White),
		BlackUsername: playerName(raw.Players.Black),
		WhiteRating:   raw.Players.White.Rating,
		BlackRating:   raw.Players.Black.Rating,
		Result:        result,
		Termination:   termination,
		TimeControl:   timeControl,
		TimeClass:     timeClass,
		Rated:         raw.Rated,
		Variant:       "standard",
		PlayedAt:      playedAt,
		Site:          "https://lichess.org/" + raw.ID,
		Event:         eventName(raw),
	}

	if raw.Opening != nil {
		game.ECOCode = raw.Opening.ECO
		game.OpeningName = raw.Opening.Name
	}
	if (game.ECOCode == "" || game.OpeningName == "") && raw.Moves != "" {
		if opening, ok := openings.Classify(raw.Moves); ok {
			if game.ECOCode == "" {
				game.ECOCode = opening.ECO
			}
			if game.OpeningName == "" {
				game.OpeningName = opening.Name
			}
		}
	}

	if game.PGN == "" {
		game.PGN = synthesizePGN(raw, game, playedAt)
	}

	return game, true
}

// resultFromStatus maps the stream status and winner fields onto a result.
// Games still in progress keep the ongoing result so a later sync run can
// overwrite them once finished.
func resultFromStatus(status, winner string) (result, termination string) {
	switch status {
	case "created", "started":
		return models.ResultOngoing, ""
	case "mate":
		return provider.ResultForWinner(winner), "checkmate"
	case "resign":
		return provider.ResultForWinner(winner), "resignation"
	case "outoftime":
		return provider.ResultForWinner(winner), "timeout"
	case "timeout":
		// Lichess uses "timeout" for leaving the game, not for the clock.
		return provider.ResultForWinner(winner), "abandoned"
	case "cheat":
		return provider.ResultForWinner(winner), "cheat"
	case "stalemate":
		return models.ResultDraw, "stalemate"
	case "draw":
		return models.ResultDraw, ""
	default:
		return provider.ResultForWinner(winner), ""
	}
}

func playerName(p streamPlayer) string {
	if p.User != nil && p.User.Name != "" {
		return p.User.Name
	}
	if p.AILevel > 0 {
		return fmt.Sprintf("Stockfish level %d", p.AILevel)
	}
	return "Anonymous"
}

func formatTimeControl(raw streamGame) string {
	if raw.DaysPerTurn > 0 {
		return fmt.Sprintf("1/%d", raw.DaysPerTurn*86400)
	}
	if raw.Clock != nil {
		return fmt.Sprintf("%d+%d", raw.Clock.Initial, raw.Clock.Increment)
	}
	return "-"
}

func eventName(raw streamGame) string {
	kind := "Casual"
	if raw.Rated {
		kind = "Rated"
	}
	speed := raw.Speed
	if speed == "" {
		speed = "chess"
	}
	return fmt.Sprintf("%s %s game", kind, titleWord(speed))
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// synthesizePGN builds a minimal PGN when the stream row carried none,
// so every stored game has a self-contained transcript.
func synthesizePGN(raw streamGame, game provider.ParsedGame, playedAt time.Time) string {
	var b strings.Builder

	tag := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString("[")
		b.WriteString(name)
		b.WriteString(" \"")
		b.WriteString(value)
		b.WriteString("\"]\n")
	}

	tag("Event", game.Event)
	tag("Site", game.Site)
	tag("Date", playedAt.Format("2006.01.02"))
	tag("White", game.WhiteUsername)
	tag("Black", game.BlackUsername)
	tag("Result", resultToken(game.Result))
	if game.WhiteRating > 0 {
		tag("WhiteElo", strconv.Itoa(game.WhiteRating))
	}
	if game.BlackRating > 0 {
		tag("BlackElo", strconv.Itoa(game.BlackRating))
	}
	tag("Variant", "Standard")
	tag("TimeControl", game.TimeControl)
	tag("ECO", game.ECOCode)
	tag("Opening", game.OpeningName)
	tag("Termination", game.Termination)

	b.WriteString("\n")
	if movetext := numberedMovetext(raw.Moves); movetext != "" {
		b.WriteString(movetext)
		b.WriteString(" ")
	}
	b.WriteString(resultToken(game.Result))
	b.WriteString("\n")

	return b.String()
}

func resultToken(result string) string {
	switch result {
	case models.ResultWhiteWin:
		return "1-0"
	case models.ResultBlackWin:
		return "0-1"
	case models.ResultDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// numberedMovetext turns the stream's bare SAN sequence into standard
// numbered movetext.
func numberedMovetext(moves string) string {
	fields := strings.Fields(moves)
	if len(fields) == 0 {
		return ""
	}

	var b strings.Builder
	for i, mv := range fields {
		if i%2 == 0 {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(i/2 + 1))
			b.WriteString(". ")
		} else {
			b.WriteByte(' ')
		}
		b.WriteString(mv)
	}
	return b.String()
}
