// Package openings derives an opening classification from raw move text.
// Classification is a pure lookup, no I/O: the reference table is scanned
// longest prefix first so the most specific known line wins.
package openings

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Opening is one reference table entry. moves holds the canonical line
// already normalized (lowercase, no move numbers, no check marks).
type Opening struct {
	ECO  string
	Name string

	moves string
}

var (
	tagPairRe    = regexp.MustCompile(`\[[^\]]*\]`)
	commentRe    = regexp.MustCompile(`\{[^}]*\}`)
	moveNumberRe = regexp.MustCompile(`^\d+\.*`)
	nagRe        = regexp.MustCompile(`^\$\d+$`)
)

var resultTokens = map[string]bool{
	"1-0":     true,
	"0-1":     true,
	"1/2-1/2": true,
	"*":       true,
}

var (
	sortOnce    sync.Once
	sortedTable []Opening
)

// byPrefixLength returns the reference table sorted by canonical prefix
// length descending. Sorting happens once, not per call.
func byPrefixLength() []Opening {
	sortOnce.Do(func() {
		sortedTable = make([]Opening, len(table))
		copy(sortedTable, table)
		sort.SliceStable(sortedTable, func(i, j int) bool {
			return len(sortedTable[i].moves) > len(sortedTable[j].moves)
		})
	})
	return sortedTable
}

// Classify returns the most specific opening matching the transcript.
// The transcript may be a full PGN or bare move text. When no reference
// line matches, a coarse first-move classification is tried; ok=false
// means the moves could not be classified at all. Classify never fails
// on malformed input.
func Classify(transcript string) (Opening, bool) {
	sequence := NormalizeMoves(transcript)
	if sequence == "" {
		return Opening{}, false
	}

	for _, entry := range byPrefixLength() {
		if hasMovePrefix(sequence, entry.moves) {
			return entry, true
		}
	}

	first := sequence
	if idx := strings.IndexByte(sequence, ' '); idx >= 0 {
		first = sequence[:idx]
	}
	if entry, ok := firstMoveFallback[first]; ok {
		return entry, true
	}

	return Opening{}, false
}

// NormalizeMoves reduces a transcript to a lowercase space-separated move
// sequence: tag pairs, comments, sub-variations, move numbers, NAGs,
// result tokens and check/annotation marks are stripped.
func NormalizeMoves(transcript string) string {
	cleaned := tagPairRe.ReplaceAllString(transcript, " ")
	cleaned = commentRe.ReplaceAllString(cleaned, " ")
	cleaned = stripVariations(cleaned)

	var moves []string
	for _, token := range strings.Fields(cleaned) {
		if resultTokens[token] || nagRe.MatchString(token) {
			continue
		}
		// Handles both "1." tokens and glued forms like "1.e4" and "3...Nf6".
		token = moveNumberRe.ReplaceAllString(token, "")
		token = strings.TrimRight(token, "!?+#")
		if token == "" {
			continue
		}
		moves = append(moves, strings.ToLower(token))
	}

	return strings.Join(moves, " ")
}

// stripVariations removes parenthesized sub-variations, including nested
// ones. Unbalanced closing parens are ignored.
func stripVariations(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// hasMovePrefix reports whether prefix matches sequence on a whole-move
// boundary, so "e4 e5" does not match a sequence starting with "e4 e55".
func hasMovePrefix(sequence, prefix string) bool {
	if !strings.HasPrefix(sequence, prefix) {
		return false
	}
	return len(sequence) == len(prefix) || sequence[len(prefix)] == ' '
}
