// Package stats aggregates reconciled match outcomes into a metagame
// report: presence, win rates, Wilson confidence intervals, composite
// scores and relative tiers.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/mtgtools/metagame/internal/reconcile"
)

// SortKey selects the report ordering.
type SortKey string

const (
	// SortByPresence orders by meta share, descending.
	SortByPresence SortKey = "presence"
	// SortByWinRate orders by win rate, descending.
	SortByWinRate SortKey = "winrate"
	// SortByScore orders by composite normalized score, descending.
	SortByScore SortKey = "score"
)

// ParseSortKey parses a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortByPresence, SortByWinRate, SortByScore:
		return SortKey(s), nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Config holds the statistics engine's knobs. The source material hid
// several of these as inconsistent constants; they are configuration
// here.
type Config struct {
	// ConfidenceLevel for Wilson intervals: 0.90, 0.95 or 0.99.
	ConfidenceLevel float64

	// MinPresence is the minimum meta share (percent, exclusive) an
	// archetype needs to participate in composite-score normalization.
	MinPresence float64

	// SortBy selects the report ordering.
	SortBy SortKey
}

// DefaultConfig returns the engine defaults: 95% intervals, 2% composite
// gate, presence ordering.
func DefaultConfig() *Config {
	return &Config{
		ConfidenceLevel: 0.95,
		MinPresence:     2.0,
		SortBy:          SortByPresence,
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if _, ok := confidenceZ[c.ConfidenceLevel]; !ok {
		return fmt.Errorf("unsupported confidence level %v (want 0.90, 0.95 or 0.99)", c.ConfidenceLevel)
	}
	if c.MinPresence < 0 || c.MinPresence >= 100 {
		return fmt.Errorf("min presence %v out of range [0, 100)", c.MinPresence)
	}
	if _, err := ParseSortKey(string(c.SortBy)); err != nil {
		return err
	}
	return nil
}

// ReportEntry is the finalized, immutable record for one archetype.
type ReportEntry struct {
	Rank            int      `json:"rank"`
	Archetype       string   `json:"archetype"`
	Matches         int      `json:"matches"`
	Wins            int      `json:"wins"`
	Losses          int      `json:"losses"`
	Draws           int      `json:"draws"`
	Presence        float64  `json:"presence"`
	WinRate         float64  `json:"win_rate"`
	CILower         float64  `json:"ci_lower"`
	CIUpper         float64  `json:"ci_upper"`
	NormalizedScore *float64 `json:"normalized_score,omitempty"`
	Tier            string   `json:"tier"`
	DeckCount       int      `json:"deck_count"`
	TournamentCount int      `json:"tournament_count"`
	PlayerCount     int      `json:"player_count"`
}

// MatchupEntry is one directed cell of the matchup matrix, flattened for
// the report.
type MatchupEntry struct {
	Archetype string `json:"archetype"`
	Opponent  string `json:"opponent"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
}

// Totals holds the report's global counts. TotalMatches is the number of
// unique reconciled matches, not the doubled per-archetype sum.
type Totals struct {
	TotalMatches     int `json:"total_matches"`
	TotalDecks       int `json:"total_decks"`
	TotalTournaments int `json:"total_tournaments"`
	TotalArchetypes  int `json:"total_archetypes"`
}

// Report is the sole hand-off artifact to rendering and export
// collaborators. It is immutable once computed.
type Report struct {
	Entries     []ReportEntry         `json:"entries"`
	Matchups    []MatchupEntry        `json:"matchups"`
	Totals      Totals                `json:"totals"`
	Diagnostics reconcile.Diagnostics `json:"diagnostics"`
	SortedBy    SortKey               `json:"sorted_by"`
}

// Compute finalizes a reconciled aggregate into a report. An empty
// aggregate yields a well-formed empty report, never a division by zero.
func Compute(agg *reconcile.Aggregate, cfg *Config) (*Report, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stats config: %w", err)
	}
	z := confidenceZ[cfg.ConfidenceLevel]

	// Every reconciled match is recorded against exactly two archetypes,
	// so the unique-match total is half the per-archetype sum. This is
	// the only place that division happens; callers must never re-derive
	// it.
	doubled := 0
	for _, stat := range agg.Stats {
		doubled += stat.Matches
	}
	totalUniqueMatches := doubled / 2

	entries := make([]ReportEntry, 0, len(agg.Stats))
	for _, name := range agg.ArchetypeNames() {
		stat := agg.Stats[name]

		// Each match occupies two archetype slots, so presence is the
		// archetype's share of the doubled sum. This keeps presences
		// summing to 100 over a closed dataset.
		presence := 0.0
		if doubled > 0 {
			presence = float64(stat.Matches) / float64(doubled) * 100
		}

		decided := stat.Wins + stat.Losses
		winRate := 50.0 // neutral prior: zero decided games must not sink rank sorts
		if decided > 0 {
			winRate = float64(stat.Wins) * 100 / float64(decided)
		}
		lower, upper := Wilson(stat.Wins, decided, z)

		entries = append(entries, ReportEntry{
			Archetype:       stat.Archetype,
			Matches:         stat.Matches,
			Wins:            stat.Wins,
			Losses:          stat.Losses,
			Draws:           stat.Draws,
			Presence:        presence,
			WinRate:         winRate,
			CILower:         lower,
			CIUpper:         upper,
			DeckCount:       stat.DeckCount,
			TournamentCount: len(stat.Tournaments),
			PlayerCount:     len(stat.Players),
		})
	}

	applyScores(entries, cfg.MinPresence)
	applyTiers(entries)
	sortEntries(entries, cfg.SortBy)
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &Report{
		Entries:  entries,
		Matchups: flattenMatchups(agg.Matchups),
		Totals: Totals{
			TotalMatches:     totalUniqueMatches,
			TotalDecks:       agg.TotalDecks,
			TotalTournaments: agg.TotalTournaments,
			TotalArchetypes:  len(entries),
		},
		Diagnostics: agg.Diagnostics,
		SortedBy:    cfg.SortBy,
	}, nil
}

// applyScores computes the composite normalized score for archetypes
// above the presence gate: log-scaled presence plus linearly scaled win
// rate, each normalized to [0, 1] over the qualifying set. Archetypes
// below the gate are excluded from the min/max computation entirely, not
// just from the output.
func applyScores(entries []ReportEntry, minPresence float64) {
	var qualifying []int
	for i := range entries {
		if entries[i].Presence > minPresence {
			qualifying = append(qualifying, i)
		}
	}
	if len(qualifying) == 0 {
		return
	}

	minP, maxP := math.Inf(1), math.Inf(-1)
	minW, maxW := math.Inf(1), math.Inf(-1)
	for _, i := range qualifying {
		minP = math.Min(minP, entries[i].Presence)
		maxP = math.Max(maxP, entries[i].Presence)
		minW = math.Min(minW, entries[i].WinRate)
		maxW = math.Max(maxW, entries[i].WinRate)
	}

	logSpan := math.Log(maxP) - math.Log(minP)
	linSpan := maxW - minW
	for _, i := range qualifying {
		// A degenerate span (single qualifier, or all equal) normalizes
		// to 1 by convention.
		normP, normW := 1.0, 1.0
		if logSpan > 0 {
			normP = (math.Log(entries[i].Presence) - math.Log(minP)) / logSpan
		}
		if linSpan > 0 {
			normW = (entries[i].WinRate - minW) / linSpan
		}
		score := normP + normW
		entries[i].NormalizedScore = &score
	}
}

// Tier names from best to worst. Tiers are relative to the current
// dataset: the same absolute numbers can shift tier when the rest of the
// population's CI distribution changes.
var tierNames = []string{"Tier 0", "Tier 0.5", "Tier 1", "Tier 1.5", "Tier 2", "Tier 2.5", "Tier 3"}

// applyTiers buckets archetypes by how many standard deviations their
// Wilson lower bound sits from the dataset mean: seven bands down to
// −3σ, then an "Other" catch-all.
func applyTiers(entries []ReportEntry) {
	if len(entries) == 0 {
		return
	}

	mean := 0.0
	for i := range entries {
		mean += entries[i].CILower
	}
	mean /= float64(len(entries))

	sigma := 0.0
	if len(entries) > 1 {
		sum := 0.0
		for i := range entries {
			d := entries[i].CILower - mean
			sum += d * d
		}
		sigma = math.Sqrt(sum / float64(len(entries)-1))
	}

	for i := range entries {
		entries[i].Tier = tierFor(entries[i].CILower, mean, sigma)
	}
}

func tierFor(lower, mean, sigma float64) string {
	dev := 0.0
	if sigma > 0 {
		dev = (lower - mean) / sigma
	}

	switch {
	case dev >= 3:
		return tierNames[0]
	case dev >= 2:
		return tierNames[1]
	case dev >= 1:
		return tierNames[2]
	case dev >= 0:
		return tierNames[3]
	case dev >= -1:
		return tierNames[4]
	case dev >= -2:
		return tierNames[5]
	case dev >= -3:
		return tierNames[6]
	default:
		return "Other"
	}
}

// sortEntries orders the report by the selected key, descending, with
// ties broken deterministically by archetype name.
func sortEntries(entries []ReportEntry, key SortKey) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		switch key {
		case SortByWinRate:
			if a.WinRate != b.WinRate {
				return a.WinRate > b.WinRate
			}
		case SortByScore:
			as, bs := a.NormalizedScore, b.NormalizedScore
			switch {
			case as != nil && bs != nil:
				if *as != *bs {
					return *as > *bs
				}
			case as != nil:
				return true
			case bs != nil:
				return false
			}
		default: // SortByPresence
			if a.Presence != b.Presence {
				return a.Presence > b.Presence
			}
		}
		return a.Archetype < b.Archetype
	})
}

func flattenMatchups(m *reconcile.Matchups) []MatchupEntry {
	pairs := m.Pairs()
	flat := make([]MatchupEntry, 0, len(pairs))
	for _, pair := range pairs {
		cell := m.Get(pair[0], pair[1])
		flat = append(flat, MatchupEntry{
			Archetype: pair[0],
			Opponent:  pair[1],
			Wins:      cell.Wins,
			Losses:    cell.Losses,
		})
	}
	return flat
}
