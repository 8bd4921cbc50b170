// Package reconcile joins independently collected match-result and
// decklist-archetype datasets on a canonical tournament key and
// aggregates the outcomes per archetype.
package reconcile

import (
	"sort"
	"strings"
)

// UnknownArchetype is the bucket name used for unresolved archetypes
// when the policy aggregates them instead of skipping.
const UnknownArchetype = "Unknown"

// MatchRecord is one round-level result from the match feed. Players are
// identified by display name; TournamentID is in the feed's own format.
type MatchRecord struct {
	TournamentID string `json:"tournament_id"`
	Round        string `json:"round"`
	Player1      string `json:"player1"`
	Player2      string `json:"player2"`
	Result       string `json:"result"`
}

// DeckEntry is one classified decklist from the decklist feed: the
// player's display name and the archetype label the classifier assigned.
// An empty Archetype means the deck was unclassifiable.
type DeckEntry struct {
	TournamentID string
	Player       string
	Archetype    string
}

// Policy holds the explicit exclusion decisions the reconciler must not
// make silently. The source material was inconsistent about both; they
// are configuration here, not constants.
type Policy struct {
	// CountDraws counts drawn matches toward presence/matches-played.
	// Draws never credit a win or loss either way.
	CountDraws bool

	// UnknownBucket aggregates matches with an unresolved archetype under
	// UnknownArchetype instead of skipping them.
	UnknownBucket bool
}

// DefaultPolicy counts draws and skips unresolved archetypes.
func DefaultPolicy() Policy {
	return Policy{CountDraws: true}
}

// ArchetypeStat accumulates outcomes for one archetype during a run.
// It is mutated incrementally by the reconciler and finalized into an
// immutable report entry by the statistics engine.
type ArchetypeStat struct {
	Archetype   string
	Matches     int
	Wins        int
	Losses      int
	Draws       int
	DeckCount   int
	Tournaments map[string]struct{}
	Players     map[string]struct{}
}

func newArchetypeStat(name string) *ArchetypeStat {
	return &ArchetypeStat{
		Archetype:   name,
		Tournaments: make(map[string]struct{}),
		Players:     make(map[string]struct{}),
	}
}

// MatchupCell is one directed cell of the matchup matrix: wins and
// losses for archetype A against archetype B.
type MatchupCell struct {
	Wins   int
	Losses int
}

// Matchups is the archetype × archetype outcome table. Every reconciled
// decisive match updates two cells: (A,B) and its mirror (B,A).
type Matchups struct {
	cells map[[2]string]*MatchupCell
}

// NewMatchups returns an empty matchup matrix.
func NewMatchups() *Matchups {
	return &Matchups{cells: make(map[[2]string]*MatchupCell)}
}

// Get returns the cell for archetype a versus archetype b. A zero cell
// is returned for pairs that never met.
func (m *Matchups) Get(a, b string) MatchupCell {
	if cell, ok := m.cells[[2]string{a, b}]; ok {
		return *cell
	}
	return MatchupCell{}
}

// record registers a decisive result: winner beat loser.
func (m *Matchups) record(winner, loser string) {
	m.cell(winner, loser).Wins++
	m.cell(loser, winner).Losses++
}

func (m *Matchups) cell(a, b string) *MatchupCell {
	key := [2]string{a, b}
	cell, ok := m.cells[key]
	if !ok {
		cell = &MatchupCell{}
		m.cells[key] = cell
	}
	return cell
}

// Pairs returns all non-empty (a, b) cell keys in deterministic order.
func (m *Matchups) Pairs() [][2]string {
	pairs := make([][2]string, 0, len(m.cells))
	for key := range m.cells {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// Diagnostics summarizes every per-record anomaly recovered during a
// run. Anomalies are never fatal; they surface only here.
type Diagnostics struct {
	TotalMatchRecords    int `json:"total_match_records"`
	ReconciledMatches    int `json:"reconciled_matches"`
	SkippedByes          int `json:"skipped_byes"`
	SkippedMalformed     int `json:"skipped_malformed"`
	SkippedUnresolved    int `json:"skipped_unresolved"`
	SkippedDraws         int `json:"skipped_draws"`
	UnmatchedMatchEvents int `json:"unmatched_match_events"` // tournaments only in the match feed
	UnmatchedDeckEvents  int `json:"unmatched_deck_events"`  // tournaments only in the decklist feed
	UnkeyedRecords       int `json:"unkeyed_records"`        // identifiers no key could be derived from
}

// Aggregate is the reconciler's output: per-archetype accumulators, the
// matchup matrix, and run diagnostics.
type Aggregate struct {
	Stats       map[string]*ArchetypeStat
	Matchups    *Matchups
	Diagnostics Diagnostics

	TotalDecks       int
	TotalTournaments int
}

// ArchetypeNames returns the aggregated archetype names sorted.
func (a *Aggregate) ArchetypeNames() []string {
	names := make([]string, 0, len(a.Stats))
	for name := range a.Stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reconciler joins the two feeds and produces an Aggregate. A fresh
// Aggregate is built per run; the reconciler itself holds no run state.
type Reconciler struct {
	policy Policy
	keys   KeyExtractor
}

// NewReconciler creates a reconciler with the given policy and key
// extractor. A nil extractor falls back to the digit-run heuristic at
// the default width.
func NewReconciler(policy Policy, keys KeyExtractor) *Reconciler {
	if keys == nil {
		keys = DigitRunExtractor{Width: DefaultKeyWidth}
	}
	return &Reconciler{policy: policy, keys: keys}
}

// Reconcile joins match records with classified decks and aggregates
// archetype-vs-archetype outcomes. Tournaments present in only one feed
// are dropped and counted in diagnostics.
func (r *Reconciler) Reconcile(matches []MatchRecord, decks []DeckEntry) *Aggregate {
	agg := &Aggregate{
		Stats:    make(map[string]*ArchetypeStat),
		Matchups: NewMatchups(),
	}

	// Decklist side: tournament key -> player -> archetype.
	players := make(map[string]map[string]string)
	deckCounts := make(map[string]map[string]int) // key -> archetype -> decks
	for _, entry := range decks {
		key, ok := r.keys.ExtractKey(entry.TournamentID)
		if !ok {
			agg.Diagnostics.UnkeyedRecords++
			continue
		}
		if players[key] == nil {
			players[key] = make(map[string]string)
			deckCounts[key] = make(map[string]int)
		}
		players[key][foldName(entry.Player)] = entry.Archetype
		label := entry.Archetype
		if label == "" {
			label = UnknownArchetype
		}
		deckCounts[key][label]++
	}

	// Match side: group records under their canonical key.
	matchesByKey := make(map[string][]MatchRecord)
	for _, record := range matches {
		agg.Diagnostics.TotalMatchRecords++
		key, ok := r.keys.ExtractKey(record.TournamentID)
		if !ok {
			agg.Diagnostics.UnkeyedRecords++
			continue
		}
		matchesByKey[key] = append(matchesByKey[key], record)
	}

	// Intersect the two feeds. Tournaments present in one side only are
	// diagnostics, not errors.
	for key := range matchesByKey {
		if _, ok := players[key]; !ok {
			agg.Diagnostics.UnmatchedMatchEvents++
		}
	}
	for key := range players {
		if _, ok := matchesByKey[key]; !ok {
			agg.Diagnostics.UnmatchedDeckEvents++
			continue
		}
		agg.TotalTournaments++

		// Deck counts contribute only for joined tournaments.
		for label, count := range deckCounts[key] {
			if label == UnknownArchetype && !r.policy.UnknownBucket {
				continue
			}
			stat := r.stat(agg, label)
			stat.DeckCount += count
			agg.TotalDecks += count
		}

		for _, record := range matchesByKey[key] {
			r.reconcileMatch(agg, key, players[key], record)
		}
	}

	return agg
}

// reconcileMatch applies one match record to the aggregate, or records
// why it was skipped.
func (r *Reconciler) reconcileMatch(agg *Aggregate, key string, lookup map[string]string, record MatchRecord) {
	if isBye(record.Player1) || isBye(record.Player2) {
		agg.Diagnostics.SkippedByes++
		return
	}

	outcome, err := ParseResult(record.Result)
	if err != nil {
		agg.Diagnostics.SkippedMalformed++
		return
	}

	arch1, ok1 := r.resolve(lookup, record.Player1)
	arch2, ok2 := r.resolve(lookup, record.Player2)
	if !ok1 || !ok2 {
		agg.Diagnostics.SkippedUnresolved++
		return
	}

	if outcome.IsDraw() {
		if !r.policy.CountDraws {
			agg.Diagnostics.SkippedDraws++
			return
		}
		// Draws count toward presence but credit neither side.
		r.credit(agg, key, arch1, record.Player1, creditDraw)
		r.credit(agg, key, arch2, record.Player2, creditDraw)
		agg.Diagnostics.ReconciledMatches++
		return
	}

	winner, winnerName := arch1, record.Player1
	loser, loserName := arch2, record.Player2
	if outcome.Losses > outcome.Wins {
		winner, winnerName, loser, loserName = arch2, record.Player2, arch1, record.Player1
	}

	r.credit(agg, key, winner, winnerName, creditWin)
	r.credit(agg, key, loser, loserName, creditLoss)
	agg.Matchups.record(winner, loser)
	agg.Diagnostics.ReconciledMatches++
}

type creditKind int

const (
	creditWin creditKind = iota
	creditLoss
	creditDraw
)

// credit applies one side of a reconciled match to its archetype stat.
// A mirror match calls this twice for the same archetype, so every match
// always adds exactly two to the sum of Matches across all stats.
func (r *Reconciler) credit(agg *Aggregate, key, archetype, player string, kind creditKind) {
	stat := r.stat(agg, archetype)
	stat.Matches++
	stat.Tournaments[key] = struct{}{}
	stat.Players[foldName(player)] = struct{}{}

	switch kind {
	case creditWin:
		stat.Wins++
	case creditLoss:
		stat.Losses++
	case creditDraw:
		stat.Draws++
	}
}

func (r *Reconciler) stat(agg *Aggregate, archetype string) *ArchetypeStat {
	stat, ok := agg.Stats[archetype]
	if !ok {
		stat = newArchetypeStat(archetype)
		agg.Stats[archetype] = stat
	}
	return stat
}

// resolve maps a player display name to an archetype label, honoring the
// unknown-bucket policy for players without a classified deck.
func (r *Reconciler) resolve(lookup map[string]string, player string) (string, bool) {
	archetype, ok := lookup[foldName(player)]
	if !ok || archetype == "" {
		if r.policy.UnknownBucket {
			return UnknownArchetype, true
		}
		return "", false
	}
	return archetype, true
}

// foldName normalizes a display name for joining across feeds.
func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isBye(player string) bool {
	trimmed := strings.TrimSpace(player)
	return trimmed == "" || strings.EqualFold(trimmed, "bye")
}
