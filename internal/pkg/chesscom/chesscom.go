// Package chesscom fetches games from the Chess.com published-data API.
// The API exposes per-player monthly archives, so a fetch is an archive
// listing followed by one request per month that overlaps the wanted
// window. Every request goes through the cross-platform scheduler and the
// shared retry policy.
package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/internal/pkg/env"
	"github.com/chessledger/chessledger/internal/pkg/provider"
	"github.com/chessledger/chessledger/internal/pkg/ratelimit"
	"github.com/chessledger/chessledger/internal/pkg/retry"
)

const (
	defaultBaseURL   = "https://api.chess.com"
	defaultUserAgent = "chessledger/1.0 (+https://github.com/chessledger/chessledger)"

	// Monthly archives ship full PGNs and can get big for active players.
	maxResponseBytes = 32 << 20
)

type Client struct {
	BaseURL   string
	UserAgent string

	HTTPClient *http.Client
	scheduler  *ratelimit.Scheduler
	retryOpts  retry.Options
}

type playerProfile struct {
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

type archiveList struct {
	Archives []string `json:"archives"`
}

type archivePlayer struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

type archiveGame struct {
	URL         string        `json:"url"`
	PGN         string        `json:"pgn"`
	TimeControl string        `json:"time_control"`
	TimeClass   string        `json:"time_class"`
	EndTime     int64         `json:"end_time"`
	Rated       bool          `json:"rated"`
	Rules       string        `json:"rules"`
	White       archivePlayer `json:"white"`
	Black       archivePlayer `json:"black"`
}

type monthlyArchive struct {
	Games []archiveGame `json:"games"`
}

func NewClientFromEnv(scheduler *ratelimit.Scheduler) *Client {
	return &Client{
		BaseURL:   strings.TrimSpace(env.GetEnv("CHESSCOM_API_BASE_URL", defaultBaseURL)),
		UserAgent: strings.TrimSpace(env.GetEnv("SYNC_USER_AGENT", defaultUserAgent)),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		scheduler: scheduler,
		retryOpts: retry.OptionsFromEnv(),
	}
}

func (c *Client) Platform() string {
	return models.PlatformChessCom
}

// UserExists probes the player profile endpoint. Any failure, including
// rate limiting that survives the retry budget, reads as "not found": the
// caller treats the probe as advisory.
func (c *Client) UserExists(ctx context.Context, username string) bool {
	opts := c.retryOpts
	opts.MaxRetries = 1

	var profile playerProfile
	endpoint := fmt.Sprintf("%s/pub/player/%s", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(normalizeUsername(username)))
	if err := c.getJSON(ctx, "chesscom player probe", opts, endpoint, &profile); err != nil {
		log.Debugf("[ChessCom] Player probe for %s failed: %v", username, err)
		return false
	}
	return strings.TrimSpace(profile.Username) != ""
}

// FetchGamesSince lists the player's monthly archives, fetches the months
// overlapping [since, now] and returns the contained standard games played
// at or after since. A single failed month is skipped with a warning so one
// bad archive cannot sink the whole account sync; progress is reported for
// failed months too.
func (c *Client) FetchGamesSince(ctx context.Context, username string, since time.Time, maxGames int, onProgress provider.ProgressFunc) ([]provider.ParsedGame, error) {
	user := normalizeUsername(username)
	base := strings.TrimRight(c.BaseURL, "/")

	var list archiveList
	endpoint := fmt.Sprintf("%s/pub/player/%s/games/archives", base, url.PathEscape(user))
	if err := c.getJSON(ctx, "chesscom archive list", c.retryOpts, endpoint, &list); err != nil {
		return nil, err
	}

	relevant := filterArchivesSince(list.Archives, since, time.Now().UTC())
	games := make([]provider.ParsedGame, 0, 64)

	for i, archiveURL := range relevant {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var month monthlyArchive
		if err := c.getJSON(ctx, "chesscom monthly archive", c.retryOpts, archiveURL, &month); err != nil {
			log.Warnf("[ChessCom] Skipping archive %s for %s: %v", archiveURL, user, err)
			if onProgress != nil {
				onProgress(i+1, len(relevant))
			}
			continue
		}

		for _, raw := range month.Games {
			if maxGames > 0 && len(games) >= maxGames {
				break
			}
			parsed, ok := parseArchiveGame(raw, since)
			if !ok {
				continue
			}
			games = append(games, parsed)
		}

		if onProgress != nil {
			onProgress(i+1, len(relevant))
		}
		if maxGames > 0 && len(games) >= maxGames {
			log.Infof("[ChessCom] Reached game cap of %d for %s, stopping early", maxGames, user)
			break
		}
	}

	return games, nil
}

// getJSON layers retry around rate-limited execution, so every retry
// attempt goes through scheduler admission again instead of hammering the
// API on its own clock.
func (c *Client) getJSON(ctx context.Context, label string, opts retry.Options, endpoint string, out any) error {
	return retry.Do(ctx, label, opts, func(ctx context.Context) error {
		return c.scheduler.Schedule(ctx, models.PlatformChessCom, func(ctx context.Context) error {
			return c.doGet(ctx, endpoint, out)
		})
	})
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.NewAPIError(models.PlatformChessCom, resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

// filterArchivesSince keeps the monthly archive URLs that can contain games
// from [since, now]. URLs end in /YYYY/MM; ones that do not parse are kept,
// a format change should degrade into extra fetches rather than silent gaps.
func filterArchivesSince(archives []string, since, now time.Time) []string {
	var keep []string
	for _, archiveURL := range archives {
		year, month, ok := parseArchiveMonth(archiveURL)
		if !ok {
			keep = append(keep, archiveURL)
			continue
		}
		monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0)
		if monthEnd.After(since) && !monthStart.After(now) {
			keep = append(keep, archiveURL)
		}
	}
	return keep
}

func parseArchiveMonth(archiveURL string) (int, int, bool) {
	parts := strings.Split(strings.TrimRight(archiveURL, "/"), "/")
	if len(parts) < 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
