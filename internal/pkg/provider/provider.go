package provider

import (
	"context"
	"fmt"
	"time"
)

// ParsedGame is the normalized adapter output, one game as it will be
// persisted. (Platform, ExternalID) is the natural key downstream dedup
// runs on.
type ParsedGame struct {
	ExternalID    string
	Platform      string
	URL           string
	PGN           string
	WhiteUsername string
	BlackUsername string
	WhiteRating   int
	BlackRating   int
	Result        string
	Termination   string
	TimeControl   string
	TimeClass     string
	Rated         bool
	Variant       string
	ECOCode       string
	OpeningName   string
	PlayedAt      time.Time
	Event         string
	Site          string
}

// ProgressFunc receives monotonically increasing processed counts while an
// adapter works through a fetch. total may be 0 when unknown up front.
type ProgressFunc func(processed, total int)

// Client is the capability one platform adapter provides to the sync
// engine. UserExists is a best-effort probe: false on any failure, it
// never errors. FetchGamesSince returns every standard game played at or
// after since, capped at maxGames (0 = no cap).
type Client interface {
	Platform() string
	UserExists(ctx context.Context, username string) bool
	FetchGamesSince(ctx context.Context, username string, since time.Time, maxGames int, onProgress ProgressFunc) ([]ParsedGame, error)
}

// APIError is a non-2xx answer from a provider API.
type APIError struct {
	Platform string
	Status   int
	Body     string
}

const maxErrorBodyLen = 200

// NewAPIError builds an APIError carrying at most a snippet of the
// response body, enough to diagnose without dragging a whole HTML error
// page into logs and job records.
func NewAPIError(platform string, status int, body []byte) *APIError {
	snippet := string(body)
	if len(snippet) > maxErrorBodyLen {
		snippet = snippet[:maxErrorBodyLen] + "..."
	}
	return &APIError{Platform: platform, Status: status, Body: snippet}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status=%d body=%s", e.Platform, e.Status, e.Body)
}

// HTTPStatus reports the upstream status code. The retry policy and the
// rate limiter's adaptive spacing both key off it.
func (e *APIError) HTTPStatus() int {
	return e.Status
}
