package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chessledger/chessledger/app/models"
)

func TestParseTimeControl(t *testing.T) {
	tests := []struct {
		in        string
		initial   int
		increment int
		daily     bool
		ok        bool
	}{
		{in: "600", initial: 600, increment: 0, daily: false, ok: true},
		{in: "600+5", initial: 600, increment: 5, daily: false, ok: true},
		{in: "180+2", initial: 180, increment: 2, daily: false, ok: true},
		{in: "1/86400", initial: 86400, increment: 0, daily: true, ok: true},
		{in: "1/259200", initial: 259200, increment: 0, daily: true, ok: true},
		{in: "-", ok: false},
		{in: "", ok: false},
		{in: "abc", ok: false},
		{in: "600+x", ok: false},
	}

	for _, tt := range tests {
		initial, increment, daily, ok := ParseTimeControl(tt.in)
		if ok != tt.ok {
			t.Fatalf("ParseTimeControl(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if !tt.ok {
			continue
		}
		if initial != tt.initial || increment != tt.increment || daily != tt.daily {
			t.Fatalf("ParseTimeControl(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.in, initial, increment, daily, tt.initial, tt.increment, tt.daily)
		}
	}
}

func TestDeriveTimeClassThresholds(t *testing.T) {
	tests := []struct {
		initial   int
		increment int
		want      string
	}{
		{initial: 15, increment: 0, want: models.TimeClassUltraBullet},
		{initial: 29, increment: 0, want: models.TimeClassUltraBullet},
		{initial: 30, increment: 0, want: models.TimeClassBullet}, // boundary: 30 is bullet
		{initial: 60, increment: 1, want: models.TimeClassBullet}, // 60+40=100
		{initial: 179, increment: 0, want: models.TimeClassBullet},
		{initial: 180, increment: 0, want: models.TimeClassBlitz}, // boundary: 180 is blitz
		{initial: 300, increment: 2, want: models.TimeClassBlitz}, // 300+80=380
		{initial: 599, increment: 0, want: models.TimeClassBlitz},
		{initial: 600, increment: 0, want: models.TimeClassRapid}, // boundary: 600 is rapid
		{initial: 600, increment: 5, want: models.TimeClassRapid}, // 600+200=800
		{initial: 1799, increment: 0, want: models.TimeClassRapid},
		{initial: 1800, increment: 0, want: models.TimeClassClassical},
		{initial: 900, increment: 30, want: models.TimeClassClassical}, // 900+1200=2100
	}

	for _, tt := range tests {
		if got := DeriveTimeClass(tt.initial, tt.increment); got != tt.want {
			t.Fatalf("DeriveTimeClass(%d, %d) = %q, want %q", tt.initial, tt.increment, got, tt.want)
		}
	}
}

func TestTimeClassFromControl(t *testing.T) {
	got, ok := TimeClassFromControl("1/86400")
	assert.True(t, ok)
	assert.Equal(t, models.TimeClassDaily, got)

	got, ok = TimeClassFromControl("300")
	assert.True(t, ok)
	assert.Equal(t, models.TimeClassBlitz, got)

	_, ok = TimeClassFromControl("-")
	assert.False(t, ok)
}

func TestNormalizeTimeClass(t *testing.T) {
	assert.Equal(t, models.TimeClassDaily, NormalizeTimeClass("correspondence"))
	assert.Equal(t, models.TimeClassDaily, NormalizeTimeClass("daily"))
	assert.Equal(t, models.TimeClassUltraBullet, NormalizeTimeClass("UltraBullet"))
	assert.Equal(t, models.TimeClassBlitz, NormalizeTimeClass("blitz"))
	assert.Equal(t, "weird", NormalizeTimeClass(" Weird "))
}

func TestResultForWinner(t *testing.T) {
	assert.Equal(t, models.ResultWhiteWin, ResultForWinner("white"))
	assert.Equal(t, models.ResultBlackWin, ResultForWinner("Black"))
	assert.Equal(t, models.ResultDraw, ResultForWinner(""))
	assert.Equal(t, models.ResultDraw, ResultForWinner("nobody"))
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	err := &APIError{Platform: "chesscom", Status: 429, Body: "slow down"}
	assert.Equal(t, 429, err.HTTPStatus())
	assert.Contains(t, err.Error(), "status=429")
	assert.Contains(t, err.Error(), "chesscom")
}
