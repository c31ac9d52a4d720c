// Package lichess fetches games from the Lichess API. Unlike the monthly
// archive model of other platforms, Lichess streams a player's games as
// NDJSON in one request, so a fetch is a single long download whose rows
// are decoded line by line. Requests go through the cross-platform
// scheduler and the shared retry policy.
package lichess

import (
	"bufio"
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
	defaultBaseURL   = "https://lichess.org"
	defaultUserAgent = "chessledger/1.0 (+https://github.com/chessledger/chessledger)"

	// One NDJSON row with full move text stays well under this.
	maxLineBytes = 1 << 20
)

type Client struct {
	BaseURL   string
	UserAgent string

	HTTPClient *http.Client
	scheduler  *ratelimit.Scheduler
	retryOpts  retry.Options
}

type lichessUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Disabled bool   `json:"disabled"`
}

type streamUser struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type streamPlayer struct {
	User    *streamUser `json:"user"`
	Rating  int         `json:"rating"`
	AILevel int         `json:"aiLevel"`
}

type streamOpening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
	Ply  int    `json:"ply"`
}

type streamClock struct {
	Initial   int `json:"initial"`
	Increment int `json:"increment"`
}

type streamGame struct {
	ID        string `json:"id"`
	Rated     bool   `json:"rated"`
	Variant   string `json:"variant"`
	Speed     string `json:"speed"`
	CreatedAt int64  `json:"createdAt"`
	Status    string `json:"status"`
	Winner    string `json:"winner"`
	Players   struct {
		White streamPlayer `json:"white"`
		Black streamPlayer `json:"black"`
	} `json:"players"`
	Opening     *streamOpening `json:"opening"`
	Moves       string         `json:"moves"`
	PGN         string         `json:"pgn"`
	Clock       *streamClock   `json:"clock"`
	DaysPerTurn int            `json:"daysPerTurn"`
}

func NewClientFromEnv(scheduler *ratelimit.Scheduler) *Client {
	return &Client{
		BaseURL:   strings.TrimSpace(env.GetEnv("LICHESS_API_BASE_URL", defaultBaseURL)),
		UserAgent: strings.TrimSpace(env.GetEnv("SYNC_USER_AGENT", defaultUserAgent)),
		HTTPClient: &http.Client{
			// The game export is one long streaming response, so this is
			// sized for a whole account download, not a single API call.
			Timeout: 120 * time.Second,
		},
		scheduler: scheduler,
		retryOpts: retry.OptionsFromEnv(),
	}
}

func (c *Client) Platform() string {
	return models.PlatformLichess
}

// UserExists probes the public user endpoint. Closed accounts exist but
// cannot be exported, so they read as absent too.
func (c *Client) UserExists(ctx context.Context, username string) bool {
	opts := c.retryOpts
	opts.MaxRetries = 1

	endpoint := fmt.Sprintf("%s/api/user/%s", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(strings.TrimSpace(username)))

	var user lichessUser
	err := retry.Do(ctx, "lichess user probe", opts, func(ctx context.Context) error {
		return c.scheduler.Schedule(ctx, models.PlatformLichess, func(ctx context.Context) error {
			return c.getUser(ctx, endpoint, &user)
		})
	})
	if err != nil {
		log.Debugf("[Lichess] User probe for %s failed: %v", username, err)
		return false
	}
	return user.ID != "" && !user.Disabled
}

// FetchGamesSince streams the player's games created at or after since and
// returns the standard ones, newest first as delivered by the API. Rows
// that fail to decode are dropped with a warning, one mangled line must
// not lose the rest of the stream.
func (c *Client) FetchGamesSince(ctx context.Context, username string, since time.Time, maxGames int, onProgress provider.ProgressFunc) ([]provider.ParsedGame, error) {
	endpoint, err := c.exportURL(username, since, maxGames)
	if err != nil {
		return nil, err
	}

	// One retry only: a failed attempt has to replay the entire stream.
	opts := c.retryOpts
	opts.MaxRetries = 1

	var games []provider.ParsedGame
	err = retry.Do(ctx, "lichess game stream", opts, func(ctx context.Context) error {
		parsed, streamErr := c.streamGames(ctx, endpoint, username, since, maxGames, onProgress)
		if streamErr != nil {
			return streamErr
		}
		games = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (c *Client) exportURL(username string, since time.Time, maxGames int) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/api/games/user/" + url.PathEscape(strings.TrimSpace(username)))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("since", strconv.FormatInt(since.UnixMilli(), 10))
	q.Set("moves", "true")
	q.Set("opening", "true")
	q.Set("tags", "true")
	if maxGames > 0 {
		q.Set("max", strconv.Itoa(maxGames))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) streamGames(ctx context.Context, endpoint, username string, since time.Time, maxGames int, onProgress provider.ProgressFunc) ([]provider.ParsedGame, error) {
	var games []provider.ParsedGame

	err := c.scheduler.Schedule(ctx, models.PlatformLichess, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/x-ndjson")
		req.Header.Set("User-Agent", c.UserAgent)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return provider.NewAPIError(models.PlatformLichess, resp.StatusCode, body)
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

		processed := 0
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			processed++

			var raw streamGame
			if err := json.Unmarshal([]byte(line), &raw); err != nil {
				log.Warnf("[Lichess] Dropping malformed stream row %d for %s: %v", processed, username, err)
				if onProgress != nil {
					onProgress(processed, 0)
				}
				continue
			}

			if parsed, ok := parseStreamGame(raw, since); ok {
				games = append(games, parsed)
			}
			if onProgress != nil {
				onProgress(processed, 0)
			}
			if maxGames > 0 && len(games) >= maxGames {
				log.Infof("[Lichess] Reached game cap of %d for %s, stopping early", maxGames, username)
				break
			}
		}
		return scanner.Err()
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (c *Client) getUser(ctx context.Context, endpoint string, out *lichessUser) error {
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

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.NewAPIError(models.PlatformLichess, resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}
