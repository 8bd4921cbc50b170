package reconcile

import "testing"

func TestDigitRunExtractor(t *testing.T) {
	e := DigitRunExtractor{Width: 7}

	tests := []struct {
		raw     string
		wantKey string
		wantOK  bool
	}{
		{"modern-challenge-2024-12-1234567", "1234567", true},
		{"event_1234567.json", "1234567", true},
		{"https://example.com/census/12345678", "2345678", true}, // trailing width digits
		{"round5", "", false},        // too short
		{"no digits here", "", false},
		{"12-34-7654321-56", "7654321", true}, // longest run wins
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			key, ok := e.ExtractKey(tt.raw)
			if ok != tt.wantOK || key != tt.wantKey {
				t.Errorf("ExtractKey(%q) = %q, %v; want %q, %v", tt.raw, key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}

	t.Run("zero width accepts any run", func(t *testing.T) {
		key, ok := DigitRunExtractor{}.ExtractKey("round5")
		if !ok || key != "5" {
			t.Errorf("got %q, %v", key, ok)
		}
	})

	t.Run("last of equally long runs wins", func(t *testing.T) {
		key, ok := DigitRunExtractor{Width: 3}.ExtractKey("abc123def456")
		if !ok || key != "456" {
			t.Errorf("got %q, %v; want 456", key, ok)
		}
	})
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		in      string
		want    Outcome
		wantErr bool
	}{
		{"2-1", Outcome{Wins: 2, Losses: 1}, false},
		{"2-0", Outcome{Wins: 2, Losses: 0}, false},
		{"1-1-1", Outcome{Wins: 1, Losses: 1, Draws: 1}, false},
		{" 2-1 ", Outcome{Wins: 2, Losses: 1}, false},
		{"", Outcome{}, true},
		{"2", Outcome{}, true},
		{"2-1-0-0", Outcome{}, true},
		{"two-one", Outcome{}, true},
		{"-1-2", Outcome{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResult(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseResult(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseResult(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}

	t.Run("draw detection", func(t *testing.T) {
		draw, _ := ParseResult("1-1-1")
		if !draw.IsDraw() {
			t.Error("1-1-1 should be a draw")
		}
		win, _ := ParseResult("2-1")
		if win.IsDraw() {
			t.Error("2-1 should not be a draw")
		}
	})
}

func testDecks() []DeckEntry {
	return []DeckEntry{
		{TournamentID: "event-1234567", Player: "alice", Archetype: "Mono-Red Aggro"},
		{TournamentID: "event-1234567", Player: "bob", Archetype: "Azorius Control"},
		{TournamentID: "event-1234567", Player: "carol", Archetype: "Mono-Red Aggro"},
	}
}

func TestReconcile(t *testing.T) {
	t.Run("decisive match credits both sides symmetrically", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "challenge_1234567", Round: "1", Player1: "Alice", Player2: "Bob", Result: "2-1"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())

		red := agg.Stats["Mono-Red Aggro"]
		control := agg.Stats["Azorius Control"]
		if red == nil || control == nil {
			t.Fatalf("missing stats: %v", agg.ArchetypeNames())
		}
		if red.Wins != 1 || red.Losses != 0 {
			t.Errorf("red = %d-%d, want 1-0", red.Wins, red.Losses)
		}
		if control.Wins != 0 || control.Losses != 1 {
			t.Errorf("control = %d-%d, want 0-1", control.Wins, control.Losses)
		}
		if got := agg.Matchups.Get("Mono-Red Aggro", "Azorius Control"); got.Wins != 1 {
			t.Errorf("matchup wins = %d, want 1", got.Wins)
		}
		if got := agg.Matchups.Get("Azorius Control", "Mono-Red Aggro"); got.Losses != 1 {
			t.Errorf("mirror matchup losses = %d, want 1", got.Losses)
		}
		if agg.Diagnostics.ReconciledMatches != 1 {
			t.Errorf("reconciled = %d, want 1", agg.Diagnostics.ReconciledMatches)
		}
	})

	t.Run("sum of matches equals twice unique matches", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "bob", Result: "2-0"},
			{TournamentID: "t1234567", Round: "2", Player1: "bob", Player2: "carol", Result: "0-2"},
			{TournamentID: "t1234567", Round: "3", Player1: "alice", Player2: "carol", Result: "2-1"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())

		sum := 0
		for _, stat := range agg.Stats {
			sum += stat.Matches
		}
		if sum != 2*agg.Diagnostics.ReconciledMatches {
			t.Errorf("sum(matches) = %d, want %d", sum, 2*agg.Diagnostics.ReconciledMatches)
		}
	})

	t.Run("mirror match counts twice for the same archetype", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "carol", Result: "2-1"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())

		red := agg.Stats["Mono-Red Aggro"]
		if red.Matches != 2 || red.Wins != 1 || red.Losses != 1 {
			t.Errorf("mirror: matches=%d wins=%d losses=%d, want 2/1/1", red.Matches, red.Wins, red.Losses)
		}
	})

	t.Run("byes and malformed results are skipped", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "Bye", Result: "2-0"},
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "", Result: "2-0"},
			{TournamentID: "t1234567", Round: "2", Player1: "alice", Player2: "bob", Result: "not-a-score"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())

		if agg.Diagnostics.SkippedByes != 2 {
			t.Errorf("skipped byes = %d, want 2", agg.Diagnostics.SkippedByes)
		}
		if agg.Diagnostics.SkippedMalformed != 1 {
			t.Errorf("skipped malformed = %d, want 1", agg.Diagnostics.SkippedMalformed)
		}
		if agg.Diagnostics.ReconciledMatches != 0 {
			t.Errorf("reconciled = %d, want 0", agg.Diagnostics.ReconciledMatches)
		}
	})

	t.Run("unresolved archetype skipped by default", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "mallory", Result: "2-0"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())

		if agg.Diagnostics.SkippedUnresolved != 1 {
			t.Errorf("skipped unresolved = %d, want 1", agg.Diagnostics.SkippedUnresolved)
		}
		if _, ok := agg.Stats[UnknownArchetype]; ok {
			t.Error("Unknown bucket should not exist under the default policy")
		}
	})

	t.Run("unresolved archetype aggregated under policy", func(t *testing.T) {
		policy := Policy{CountDraws: true, UnknownBucket: true}
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "mallory", Result: "0-2"},
		}
		agg := NewReconciler(policy, nil).Reconcile(matches, testDecks())

		unknown := agg.Stats[UnknownArchetype]
		if unknown == nil {
			t.Fatal("expected Unknown bucket")
		}
		if unknown.Wins != 1 {
			t.Errorf("Unknown wins = %d, want 1", unknown.Wins)
		}
	})

	t.Run("draw credits neither side but counts presence", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "bob", Result: "1-1-1"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())

		red := agg.Stats["Mono-Red Aggro"]
		if red.Wins != 0 || red.Losses != 0 || red.Draws != 1 {
			t.Errorf("red after draw: %d-%d-%d, want 0-0-1", red.Wins, red.Losses, red.Draws)
		}
		if red.Matches != 1 {
			t.Errorf("draw should count toward matches, got %d", red.Matches)
		}
	})

	t.Run("draw excluded entirely when policy disables it", func(t *testing.T) {
		policy := Policy{CountDraws: false}
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "bob", Result: "1-1"},
		}
		agg := NewReconciler(policy, nil).Reconcile(matches, testDecks())

		if agg.Diagnostics.SkippedDraws != 1 {
			t.Errorf("skipped draws = %d, want 1", agg.Diagnostics.SkippedDraws)
		}
		if stat, ok := agg.Stats["Mono-Red Aggro"]; ok && stat.Matches != 0 {
			t.Errorf("draw counted toward matches despite policy: %d", stat.Matches)
		}
	})

	t.Run("tournaments present in one source are dropped", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "t9999999", Round: "1", Player1: "alice", Player2: "bob", Result: "2-0"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())

		if agg.Diagnostics.ReconciledMatches != 0 {
			t.Errorf("reconciled = %d, want 0", agg.Diagnostics.ReconciledMatches)
		}
		if agg.Diagnostics.UnmatchedMatchEvents != 1 {
			t.Errorf("unmatched match events = %d, want 1", agg.Diagnostics.UnmatchedMatchEvents)
		}
		if agg.Diagnostics.UnmatchedDeckEvents != 1 {
			t.Errorf("unmatched deck events = %d, want 1", agg.Diagnostics.UnmatchedDeckEvents)
		}
	})

	t.Run("player names join case-insensitively", func(t *testing.T) {
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "ALICE", Player2: "Bob", Result: "2-1"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, testDecks())
		if agg.Diagnostics.ReconciledMatches != 1 {
			t.Errorf("case-folded join failed: reconciled = %d", agg.Diagnostics.ReconciledMatches)
		}
	})

	t.Run("deck counts only for joined tournaments", func(t *testing.T) {
		decks := append(testDecks(), DeckEntry{TournamentID: "other-7777777", Player: "dave", Archetype: "Tron"})
		matches := []MatchRecord{
			{TournamentID: "t1234567", Round: "1", Player1: "alice", Player2: "bob", Result: "2-0"},
		}
		agg := NewReconciler(DefaultPolicy(), nil).Reconcile(matches, decks)

		if agg.TotalDecks != 3 {
			t.Errorf("total decks = %d, want 3 (unjoined tournament dropped)", agg.TotalDecks)
		}
		if _, ok := agg.Stats["Tron"]; ok {
			t.Error("Tron deck from unjoined tournament should not appear")
		}
	})
}
