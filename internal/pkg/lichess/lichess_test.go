package lichess

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
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
		models.PlatformLichess: {
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

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return &Client{
		BaseURL:    srv.URL,
		UserAgent:  "chessledger-test",
		HTTPClient: srv.Client(),
		scheduler:  newTestScheduler(t),
		retryOpts: retry.Options{
			MaxRetries:   1,
			InitialDelay: time.Millisecond,
			Multiplier:   2,
			MaxDelay:     5 * time.Millisecond,
			ShouldRetry:  retry.DefaultShouldRetry,
		},
	}
}

func marshalRow(t *testing.T, row streamGame) string {
	t.Helper()
	data, err := json.Marshal(row)
	require.NoError(t, err)
	return string(data)
}

func namedPlayer(name string, rating int) streamPlayer {
	return streamPlayer{
		User:   &streamUser{Name: name, ID: strings.ToLower(name)},
		Rating: rating,
	}
}

func TestUserExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/alice", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"alice","username":"Alice"}`))
	})
	mux.HandleFunc("/api/user/closed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"closed","username":"Closed","disabled":true}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Not found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	assert.True(t, c.UserExists(context.Background(), "alice"))
	assert.False(t, c.UserExists(context.Background(), "closed"))
	assert.False(t, c.UserExists(context.Background(), "nobody"))
}

func TestFetchGamesSince(t *testing.T) {
	since := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	withOpening := streamGame{
		ID:        "abcd1234",
		Rated:     true,
		Variant:   "standard",
		Speed:     "blitz",
		CreatedAt: since.Add(48 * time.Hour).UnixMilli(),
		Status:    "mate",
		Winner:    "black",
		Moves:     "e4 c5 Nf3 d6",
	}
	withOpening.Players.White = namedPlayer("Alice", 1812)
	withOpening.Players.Black = namedPlayer("Bob", 1799)
	withOpening.Opening = &streamOpening{ECO: "B50", Name: "Sicilian Defense", Ply: 4}
	withOpening.Clock = &streamClock{Initial: 180, Increment: 2}

	withoutOpening := streamGame{
		ID:        "efgh5678",
		Variant:   "standard",
		Speed:     "rapid",
		CreatedAt: since.Add(72 * time.Hour).UnixMilli(),
		Status:    "resign",
		Winner:    "white",
		Moves:     "e4 e5 Nf3 Nc6 Bb5",
	}
	withoutOpening.Players.White = namedPlayer("Alice", 1820)
	withoutOpening.Players.Black = namedPlayer("Carol", 1760)
	withoutOpening.Clock = &streamClock{Initial: 600, Increment: 0}

	variantGame := streamGame{
		ID:        "vrnt0001",
		Variant:   "crazyhouse",
		Speed:     "blitz",
		CreatedAt: since.Add(80 * time.Hour).UnixMilli(),
		Status:    "mate",
		Winner:    "white",
	}

	aborted := streamGame{
		ID:        "abrt0001",
		Variant:   "standard",
		Speed:     "blitz",
		CreatedAt: since.Add(81 * time.Hour).UnixMilli(),
		Status:    "aborted",
	}

	tooOld := streamGame{
		ID:        "old00001",
		Variant:   "standard",
		Speed:     "blitz",
		CreatedAt: since.Add(-time.Hour).UnixMilli(),
		Status:    "draw",
	}

	correspondence := streamGame{
		ID:          "corr0001",
		Variant:     "standard",
		Speed:       "correspondence",
		CreatedAt:   since.Add(90 * time.Hour).UnixMilli(),
		Status:      "started",
		Moves:       "d4 d5",
		DaysPerTurn: 1,
	}
	correspondence.Players.White = namedPlayer("Alice", 1750)
	correspondence.Players.Black = namedPlayer("Dan", 1700)

	rows := []string{
		marshalRow(t, withOpening),
		`{"id": not json`,
		marshalRow(t, withoutOpening),
		marshalRow(t, variantGame),
		marshalRow(t, aborted),
		marshalRow(t, tooOld),
		marshalRow(t, correspondence),
	}

	var gotAccept string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games/user/alice" {
			http.NotFound(w, r)
			return
		}
		gotAccept = r.Header.Get("Accept")
		gotQuery = map[string]string{
			"since":   r.URL.Query().Get("since"),
			"moves":   r.URL.Query().Get("moves"),
			"opening": r.URL.Query().Get("opening"),
			"tags":    r.URL.Query().Get("tags"),
			"max":     r.URL.Query().Get("max"),
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(strings.Join(rows, "\n") + "\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	var progress []int
	games, err := c.FetchGamesSince(context.Background(), "alice", since, 50, func(processed, total int) {
		progress = append(progress, processed)
		assert.Zero(t, total)
	})
	require.NoError(t, err)

	assert.Equal(t, "application/x-ndjson", gotAccept)
	assert.Equal(t, strconv.FormatInt(since.UnixMilli(), 10), gotQuery["since"])
	assert.Equal(t, "true", gotQuery["moves"])
	assert.Equal(t, "true", gotQuery["opening"])
	assert.Equal(t, "true", gotQuery["tags"])
	assert.Equal(t, "50", gotQuery["max"])

	// Variant, aborted and too-old rows are filtered, the malformed row is
	// dropped, everything else survives.
	require.Len(t, games, 3)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, progress)

	first := games[0]
	assert.Equal(t, "abcd1234", first.ExternalID)
	assert.Equal(t, models.PlatformLichess, first.Platform)
	assert.Equal(t, "https://lichess.org/abcd1234", first.URL)
	assert.Equal(t, models.ResultBlackWin, first.Result)
	assert.Equal(t, "checkmate", first.Termination)
	assert.Equal(t, models.TimeClassBlitz, first.TimeClass)
	assert.Equal(t, "180+2", first.TimeControl)
	assert.Equal(t, "B50", first.ECOCode)
	assert.Equal(t, "Sicilian Defense", first.OpeningName)
	assert.Equal(t, "Alice", first.WhiteUsername)
	assert.Equal(t, "Bob", first.BlackUsername)
	assert.True(t, first.Rated)
	assert.Contains(t, first.PGN, `[Event "Rated Blitz game"]`)
	assert.Contains(t, first.PGN, "1. e4 c5 2. Nf3 d6 0-1")

	second := games[1]
	assert.Equal(t, "efgh5678", second.ExternalID)
	assert.Equal(t, models.ResultWhiteWin, second.Result)
	assert.Equal(t, "resignation", second.Termination)
	// No opening in the row, classification falls back to the moves.
	assert.Equal(t, "C60", second.ECOCode)
	assert.Equal(t, "Ruy Lopez", second.OpeningName)
	assert.False(t, second.Rated)

	third := games[2]
	assert.Equal(t, "corr0001", third.ExternalID)
	assert.Equal(t, models.ResultOngoing, third.Result)
	assert.Equal(t, models.TimeClassDaily, third.TimeClass)
	assert.Equal(t, "1/86400", third.TimeControl)
	assert.Contains(t, third.PGN, "1. d4 d5 *")
}

func TestFetchGamesSinceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchGamesSince(context.Background(), "ghost", time.Now().Add(-time.Hour), 0, nil)
	require.Error(t, err)
}

func TestResultFromStatus(t *testing.T) {
	tests := []struct {
		status, winner  string
		wantResult      string
		wantTermination string
	}{
		{"created", "", models.ResultOngoing, ""},
		{"started", "", models.ResultOngoing, ""},
		{"mate", "white", models.ResultWhiteWin, "checkmate"},
		{"mate", "black", models.ResultBlackWin, "checkmate"},
		{"resign", "white", models.ResultWhiteWin, "resignation"},
		{"outoftime", "black", models.ResultBlackWin, "timeout"},
		{"timeout", "white", models.ResultWhiteWin, "abandoned"},
		{"cheat", "white", models.ResultWhiteWin, "cheat"},
		{"stalemate", "", models.ResultDraw, "stalemate"},
		{"draw", "", models.ResultDraw, ""},
		// Missing winner on a decisive status degrades to a draw.
		{"mate", "", models.ResultDraw, "checkmate"},
		{"unknownFinish", "black", models.ResultBlackWin, ""},
	}

	for _, tt := range tests {
		result, termination := resultFromStatus(tt.status, tt.winner)
		if result != tt.wantResult || termination != tt.wantTermination {
			t.Errorf("resultFromStatus(%q, %q) = (%q, %q), want (%q, %q)",
				tt.status, tt.winner, result, termination, tt.wantResult, tt.wantTermination)
		}
	}
}

func TestFormatTimeControl(t *testing.T) {
	assert.Equal(t, "300+3", formatTimeControl(streamGame{Clock: &streamClock{Initial: 300, Increment: 3}}))
	assert.Equal(t, "1/172800", formatTimeControl(streamGame{DaysPerTurn: 2}))
	assert.Equal(t, "-", formatTimeControl(streamGame{}))
}

func TestPlayerName(t *testing.T) {
	assert.Equal(t, "Alice", playerName(namedPlayer("Alice", 1500)))
	assert.Equal(t, "Stockfish level 3", playerName(streamPlayer{AILevel: 3}))
	assert.Equal(t, "Anonymous", playerName(streamPlayer{}))
}

func TestNumberedMovetext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"e4 e5 Nf3 Nc6 Bb5", "1. e4 e5 2. Nf3 Nc6 3. Bb5"},
		{"d4", "1. d4"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := numberedMovetext(tt.in); got != tt.want {
			t.Errorf("numberedMovetext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
