package openings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPrefersMostSpecificLine(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		wantECO    string
		wantName   string
	}{
		{
			name:       "ruy lopez over generic king's pawn",
			transcript: "1. e4 e5 2. Nf3 Nc6 3. Bb5",
			wantECO:    "C60",
			wantName:   "Ruy Lopez",
		},
		{
			name:       "morphy defense over ruy lopez",
			transcript: "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 4. Ba4",
			wantECO:    "C70",
			wantName:   "Ruy Lopez, Morphy Defense",
		},
		{
			name:       "najdorf full line",
			transcript: "1. e4 c5 2. Nf3 d6 3. d4 cxd4 4. Nxd4 Nf6 5. Nc3 a6 6. Be3 e5",
			wantECO:    "B90",
			wantName:   "Sicilian Defense, Najdorf Variation",
		},
		{
			name:       "glued move numbers",
			transcript: "1.e4 c5 2.Nf3",
			wantECO:    "B27",
			wantName:   "Sicilian Defense",
		},
		{
			name:       "check mark stripped",
			transcript: "1. d4 Nf6 2. c4 e6 3. Nf3 Bb4+ 4. Bd2",
			wantECO:    "E11",
			wantName:   "Bogo-Indian Defense",
		},
		{
			name:       "castling notation",
			transcript: "1. e4 e5 2. Nf3 Nc6 3. Bb5 Nf6 4. O-O Nxe4",
			wantECO:    "C67",
			wantName:   "Ruy Lopez, Berlin Defense, Open Variation",
		},
		{
			name:       "single d4 resolves from table",
			transcript: "1. d4",
			wantECO:    "A40",
			wantName:   "Queen's Pawn Game",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opening, ok := Classify(tt.transcript)
			require.True(t, ok)
			assert.Equal(t, tt.wantECO, opening.ECO)
			assert.Equal(t, tt.wantName, opening.Name)
		})
	}
}

func TestClassifyLoneKingsPawnUsesFallback(t *testing.T) {
	opening, ok := Classify("1. e4")
	require.True(t, ok)
	assert.Equal(t, "B00", opening.ECO)
	assert.Equal(t, "King's Pawn Opening", opening.Name)
}

func TestClassifyRareFirstMoveUsesFallback(t *testing.T) {
	opening, ok := Classify("1. e3 d5 2. Qh5")
	require.True(t, ok)
	assert.Equal(t, "A00", opening.ECO)
	assert.Equal(t, "Van't Kruijs Opening", opening.Name)
}

func TestClassifyRespectsMoveBoundary(t *testing.T) {
	// "e65" must not match the "c4 e6" line, only the bare "c4" one.
	opening, ok := Classify("1. c4 e65")
	require.True(t, ok)
	assert.Equal(t, "A10", opening.ECO)
}

func TestClassifyFullPGN(t *testing.T) {
	pgn := `[Event "Live Chess"]
[Site "Chess.com"]
[White "alice"]
[Black "bob"]
[Result "1-0"]

1. e4 {best by test} e5 2. Nf3 $1 Nc6 3. Bb5 (3. Bc4 Nf6) a6 4. Bxc6 1-0`

	opening, ok := Classify(pgn)
	require.True(t, ok)
	assert.Equal(t, "C68", opening.ECO)
	assert.Equal(t, "Ruy Lopez, Exchange Variation", opening.Name)
}

func TestClassifyUnclassifiable(t *testing.T) {
	for _, transcript := range []string{"", "   ", "1-0", "xyz abc"} {
		_, ok := Classify(transcript)
		if ok {
			t.Errorf("Classify(%q) should not classify", transcript)
		}
	}
}

func TestNormalizeMoves(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1. e4 e5 2. Nf3", "e4 e5 nf3"},
		{"1.e4 e5 2.Nf3 Nc6", "e4 e5 nf3 nc6"},
		{"1. e4 c5 1/2-1/2", "e4 c5"},
		{"1. d4 Nf6 2. c4 e6 3. Nf3 Bb4+", "d4 nf6 c4 e6 nf3 bb4"},
		{"1. e4 e5 2. Nf3 (2. f4 exf4 (2... d5)) Nc6", "e4 e5 nf3 nc6"},
		{"1. e4 {comment} e5 $5 *", "e4 e5"},
		{"4. O-O Be7 5. Re1", "o-o be7 re1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeMoves(tt.in); got != tt.want {
			t.Errorf("NormalizeMoves(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReferenceTableHasNoBareKingsPawnEntry(t *testing.T) {
	for _, entry := range table {
		if entry.moves == "e4" {
			t.Fatalf("reference table must not classify a lone e4, found %s %s", entry.ECO, entry.Name)
		}
	}
}
