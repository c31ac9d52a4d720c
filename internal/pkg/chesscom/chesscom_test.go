package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessledger/chessledger/app/models"
	"github.com/chessledger/chessledger/internal/pkg/ratelimit"
	"github.com/chessledger/chessledger/internal/pkg/retry"
)

func newTestScheduler(t *testing.T) *ratelimit.Scheduler {
	t.Helper()
	sched := ratelimit.NewScheduler(map[string]ratelimit.Config{
		models.PlatformChessCom: {
			RequestsPerSecond: 500,
			Burst:             500,
			MaxConcurrent:     4,
			MinSpacing:        0,
			QueueSize:         64,
		},
	})
	sched.Start()
	t.Cleanup(sched.Stop)
	return sched
}

func fastRetryOptions() retry.Options {
	return retry.Options{
		MaxRetries:   1,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		MaxDelay:     5 * time.Millisecond,
		ShouldRetry:  retry.DefaultShouldRetry,
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return &Client{
		BaseURL:    srv.URL,
		UserAgent:  "chessledger-test",
		HTTPClient: srv.Client(),
		scheduler:  newTestScheduler(t),
		retryOpts:  fastRetryOptions(),
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestUserExists(t *testing.T) {
	var gotUserAgent string
	mux := http.NewServeMux()
	mux.HandleFunc("/pub/player/alice", func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		writeJSON(t, w, playerProfile{PlayerID: 42, Username: "alice", Status: "premium"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)

	// Usernames are case-insensitive upstream, the client lowercases them.
	assert.True(t, c.UserExists(context.Background(), "Alice"))
	assert.Equal(t, "chessledger-test", gotUserAgent)
	assert.False(t, c.UserExists(context.Background(), "nobody"))
}

func TestFetchGamesSince(t *testing.T) {
	now := time.Now().UTC()
	curStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := curStart.AddDate(0, -1, 0)
	oldStart := curStart.AddDate(0, -4, 0)
	since := prevStart.AddDate(0, 0, 4)

	var srv *httptest.Server
	monthPath := func(start time.Time) string {
		return fmt.Sprintf("/pub/player/alice/games/%04d/%02d", start.Year(), int(start.Month()))
	}

	najdorfPGN := `[Event "Live Chess"]
[Site "Chess.com"]
[White "alice"]
[Black "bob"]
[Result "1-0"]
[ECO "B90"]
[ECOUrl "https://www.chess.com/openings/Sicilian-Defense-Najdorf-Variation"]

1. e4 c5 2. Nf3 d6 3. d4 cxd4 4. Nxd4 Nf6 5. Nc3 a6 1-0`

	morphyPGN := `[Event "Live Chess"]
[Site "Chess.com"]
[White "carol"]
[Black "alice"]
[Result "1/2-1/2"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 1/2-1/2`

	prevMonthGames := []archiveGame{
		{
			URL:         "https://www.chess.com/game/live/987654321",
			PGN:         najdorfPGN,
			TimeControl: "180+2",
			TimeClass:   "blitz",
			EndTime:     since.Add(24 * time.Hour).Unix(),
			Rated:       true,
			Rules:       "chess",
			White:       archivePlayer{Username: "alice", Rating: 1530, Result: "win"},
			Black:       archivePlayer{Username: "bob", Rating: 1511, Result: "resigned"},
		},
		{
			// Inside a kept month but played before the window start.
			URL:     "https://www.chess.com/game/live/111",
			EndTime: since.Add(-48 * time.Hour).Unix(),
			Rules:   "chess",
			White:   archivePlayer{Username: "alice", Result: "win"},
			Black:   archivePlayer{Username: "bob", Result: "timeout"},
		},
		{
			URL:     "https://www.chess.com/game/live/222",
			EndTime: since.Add(24 * time.Hour).Unix(),
			Rules:   "bughouse",
			White:   archivePlayer{Username: "alice", Result: "win"},
			Black:   archivePlayer{Username: "bob", Result: "checkmated"},
		},
	}

	curMonthGames := []archiveGame{
		{
			URL:         "https://www.chess.com/game/live/987654400",
			PGN:         morphyPGN,
			TimeControl: "600",
			TimeClass:   "rapid",
			EndTime:     curStart.Add(26 * time.Hour).Unix(),
			Rated:       false,
			Rules:       "chess",
			White:       archivePlayer{Username: "carol", Rating: 1602, Result: "agreed"},
			Black:       archivePlayer{Username: "alice", Rating: 1547, Result: "agreed"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/pub/player/alice/games/archives", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, archiveList{Archives: []string{
			srv.URL + monthPath(oldStart),
			srv.URL + monthPath(prevStart),
			srv.URL + monthPath(curStart),
		}})
	})
	mux.HandleFunc(monthPath(oldStart), func(w http.ResponseWriter, r *http.Request) {
		t.Error("archive outside the sync window must not be fetched")
	})
	mux.HandleFunc(monthPath(prevStart), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, monthlyArchive{Games: prevMonthGames})
	})
	mux.HandleFunc(monthPath(curStart), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, monthlyArchive{Games: curMonthGames})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)

	var progress [][2]int
	games, err := c.FetchGamesSince(context.Background(), "alice", since, 0, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)

	first := games[0]
	assert.Equal(t, "987654321", first.ExternalID)
	assert.Equal(t, models.PlatformChessCom, first.Platform)
	assert.Equal(t, models.ResultWhiteWin, first.Result)
	assert.Equal(t, "resignation", first.Termination)
	assert.Equal(t, models.TimeClassBlitz, first.TimeClass)
	assert.Equal(t, "B90", first.ECOCode)
	assert.Equal(t, "Sicilian Defense Najdorf Variation", first.OpeningName)
	assert.Equal(t, "Live Chess", first.Event)
	assert.Equal(t, "Chess.com", first.Site)
	assert.Equal(t, "alice", first.WhiteUsername)
	assert.Equal(t, 1530, first.WhiteRating)
	assert.True(t, first.Rated)
	assert.Equal(t, time.Unix(prevMonthGames[0].EndTime, 0).UTC(), first.PlayedAt)

	// Without ECO tags the opening comes from move classification.
	second := games[1]
	assert.Equal(t, "987654400", second.ExternalID)
	assert.Equal(t, models.ResultDraw, second.Result)
	assert.Equal(t, "agreement", second.Termination)
	assert.Equal(t, models.TimeClassRapid, second.TimeClass)
	assert.Equal(t, "C70", second.ECOCode)
	assert.Equal(t, "Ruy Lopez, Morphy Defense", second.OpeningName)
}

func TestFetchGamesSinceSkipsFailedArchive(t *testing.T) {
	now := time.Now().UTC()
	curStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := curStart.AddDate(0, -1, 0)
	since := prevStart.AddDate(0, 0, 2)

	var srv *httptest.Server
	monthPath := func(start time.Time) string {
		return fmt.Sprintf("/pub/player/alice/games/%04d/%02d", start.Year(), int(start.Month()))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/pub/player/alice/games/archives", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, archiveList{Archives: []string{
			srv.URL + monthPath(prevStart),
			srv.URL + monthPath(curStart),
		}})
	})
	mux.HandleFunc(monthPath(prevStart), func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc(monthPath(curStart), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, monthlyArchive{Games: []archiveGame{{
			URL:     "https://www.chess.com/game/live/333",
			EndTime: curStart.Add(12 * time.Hour).Unix(),
			Rules:   "chess",
			White:   archivePlayer{Username: "alice", Result: "win"},
			Black:   archivePlayer{Username: "bob", Result: "checkmated"},
		}}})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	c.retryOpts.MaxRetries = 0

	var progress [][2]int
	games, err := c.FetchGamesSince(context.Background(), "alice", since, 0, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "333", games[0].ExternalID)
	// The failed month still counts as processed.
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)
}

func TestFetchGamesSinceRespectsMaxGames(t *testing.T) {
	now := time.Now().UTC()
	curStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := curStart

	var srv *httptest.Server
	path := fmt.Sprintf("/pub/player/alice/games/%04d/%02d", curStart.Year(), int(curStart.Month()))

	var games []archiveGame
	for i := 0; i < 5; i++ {
		games = append(games, archiveGame{
			URL:     fmt.Sprintf("https://www.chess.com/game/live/%d", 1000+i),
			EndTime: curStart.Add(time.Duration(i+1) * time.Hour).Unix(),
			Rules:   "chess",
			White:   archivePlayer{Username: "alice", Result: "win"},
			Black:   archivePlayer{Username: "bob", Result: "resigned"},
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/pub/player/alice/games/archives", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, archiveList{Archives: []string{srv.URL + path}})
	})
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, monthlyArchive{Games: games})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	got, err := c.FetchGamesSince(context.Background(), "alice", since, 2, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFetchGamesSinceArchiveListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchGamesSince(context.Background(), "ghost", time.Now().Add(-time.Hour), 0, nil)
	require.Error(t, err)
}

func TestRetryReentersSchedulerAdmission(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, `{"message":"slow down"}`, http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, archiveList{Archives: nil})
	}))
	defer srv.Close()

	sched := newTestScheduler(t)
	c := &Client{
		BaseURL:    srv.URL,
		UserAgent:  "chessledger-test",
		HTTPClient: srv.Client(),
		scheduler:  sched,
		retryOpts:  fastRetryOptions(),
	}

	games, err := c.FetchGamesSince(context.Background(), "alice", time.Now().Add(-time.Hour), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, games)
	assert.Equal(t, 2, attempts)

	// Both attempts went through scheduler admission, the 429 counted as a
	// failed task and the retry as a completed one.
	stats, err := sched.Stats(models.PlatformChessCom)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, uint64(1), stats.Completed)
}

func TestFilterArchivesSince(t *testing.T) {
	since := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	archives := []string{
		"https://api.chess.com/pub/player/alice/games/2026/04",
		"https://api.chess.com/pub/player/alice/games/2026/06",
		"https://api.chess.com/pub/player/alice/games/2026/07",
		"https://api.chess.com/pub/player/alice/games/2026/08",
		"https://api.chess.com/pub/player/alice/games/2026/09",
		"https://api.chess.com/pub/player/alice/games/weird",
	}

	got := filterArchivesSince(archives, since, now)
	want := []string{
		"https://api.chess.com/pub/player/alice/games/2026/06",
		"https://api.chess.com/pub/player/alice/games/2026/07",
		"https://api.chess.com/pub/player/alice/games/2026/08",
		"https://api.chess.com/pub/player/alice/games/weird",
	}
	assert.Equal(t, want, got)
}

func TestResultFromCodes(t *testing.T) {
	tests := []struct {
		white, black    string
		wantResult      string
		wantTermination string
	}{
		{"win", "checkmated", models.ResultWhiteWin, "checkmate"},
		{"win", "resigned", models.ResultWhiteWin, "resignation"},
		{"timeout", "win", models.ResultBlackWin, "timeout"},
		{"abandoned", "win", models.ResultBlackWin, "abandoned"},
		{"agreed", "agreed", models.ResultDraw, "agreement"},
		{"stalemate", "stalemate", models.ResultDraw, "stalemate"},
		{"insufficient", "insufficient", models.ResultDraw, "insufficient material"},
		{"50move", "50move", models.ResultDraw, "fifty-move rule"},
		{"timevsinsufficient", "timevsinsufficient", models.ResultDraw, "timeout vs insufficient material"},
		// A loss code decides the result even without a "win" on the
		// other side.
		{"checkmated", "", models.ResultBlackWin, "checkmate"},
		{"", "resigned", models.ResultWhiteWin, "resignation"},
		{"lose", "", models.ResultBlackWin, ""},
		// Nothing usable reads as a draw.
		{"", "", models.ResultDraw, ""},
		{"weird", "codes", models.ResultDraw, ""},
	}

	for _, tt := range tests {
		result, termination := resultFromCodes(tt.white, tt.black)
		if result != tt.wantResult || termination != tt.wantTermination {
			t.Errorf("resultFromCodes(%q, %q) = (%q, %q), want (%q, %q)",
				tt.white, tt.black, result, termination, tt.wantResult, tt.wantTermination)
		}
	}
}

func TestPGNTag(t *testing.T) {
	pgn := "[Event \"Live Chess\"]\n[ECO \"C60\"]\n\n1. e4 e5"
	assert.Equal(t, "Live Chess", pgnTag(pgn, "Event"))
	assert.Equal(t, "C60", pgnTag(pgn, "ECO"))
	assert.Equal(t, "", pgnTag(pgn, "Site"))
	assert.Equal(t, "", pgnTag("", "Event"))
}

func TestOpeningNameFromECOURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.chess.com/openings/Sicilian-Defense-Najdorf-Variation", "Sicilian Defense Najdorf Variation"},
		{"https://www.chess.com/openings/Ruy-Lopez/", "Ruy Lopez"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, openingNameFromECOURL(tt.in))
	}
}

func TestExternalIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.chess.com/game/live/139471236131", "139471236131"},
		{"https://www.chess.com/game/daily/55/", "55"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, externalIDFromURL(tt.in))
	}
}
