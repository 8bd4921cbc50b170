package reconcile

import (
	"regexp"
	"strings"
)

// KeyExtractor derives a canonical tournament join key from a raw
// tournament identifier. Match feeds and decklist feeds format their
// identifiers differently, so both sides are passed through the same
// extractor before joining. Extraction is pluggable so the heuristic can
// be swapped for an exact join when better-structured sources appear.
type KeyExtractor interface {
	// ExtractKey returns the canonical key and true, or "" and false when
	// no key can be derived from the raw identifier.
	ExtractKey(raw string) (string, bool)
}

// DefaultKeyWidth is the digit width of MTGO event identifiers.
const DefaultKeyWidth = 7

var digitRuns = regexp.MustCompile(`\d+`)

// DigitRunExtractor extracts the longest embedded digit run of at least
// the expected width, keeping its trailing Width digits. When several
// runs tie for longest, the last one wins: identifiers tend to end with
// the event number. A tolerant heuristic with real collision risk across
// sources; use ExactExtractor when identifiers already agree.
type DigitRunExtractor struct {
	// Width is the expected key width. Zero accepts any run length.
	Width int
}

// ExtractKey implements KeyExtractor.
func (e DigitRunExtractor) ExtractKey(raw string) (string, bool) {
	runs := digitRuns.FindAllString(raw, -1)
	if len(runs) == 0 {
		return "", false
	}

	best := ""
	for _, run := range runs {
		if len(run) >= len(best) {
			best = run
		}
	}
	if e.Width > 0 {
		if len(best) < e.Width {
			return "", false
		}
		best = best[len(best)-e.Width:]
	}
	return best, true
}

// ExactExtractor joins on the trimmed raw identifier unchanged.
type ExactExtractor struct{}

// ExtractKey implements KeyExtractor.
func (ExactExtractor) ExtractKey(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	return key, key != ""
}
