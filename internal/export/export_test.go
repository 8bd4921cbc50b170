package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtgtools/metagame/internal/stats"
)

func testReport() *stats.Report {
	score := 1.5
	return &stats.Report{
		Entries: []stats.ReportEntry{
			{
				Rank: 1, Archetype: "Mono-Red Burn", Tier: "Tier 1",
				Matches: 40, Wins: 24, Losses: 14, Draws: 2,
				Presence: 40, WinRate: 63.16, CILower: 47.3, CIUpper: 76.6,
				NormalizedScore: &score, DeckCount: 8, TournamentCount: 2, PlayerCount: 7,
			},
			{
				Rank: 2, Archetype: "Azorius Control", Tier: "Tier 2",
				Matches: 30, Wins: 12, Losses: 18,
				Presence: 30, WinRate: 40, CILower: 24.6, CIUpper: 57.7,
				DeckCount: 6, TournamentCount: 2, PlayerCount: 6,
			},
		},
		Matchups: []stats.MatchupEntry{
			{Archetype: "Mono-Red Burn", Opponent: "Azorius Control", Wins: 6, Losses: 4},
		},
		Totals:   stats.Totals{TotalMatches: 50, TotalDecks: 14, TotalTournaments: 2, TotalArchetypes: 2},
		SortedBy: stats.SortByPresence,
	}
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, testReport(), FormatCSV); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read exported CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 entries", len(rows))
	}
	if rows[0][0] != "rank" || rows[0][1] != "archetype" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Mono-Red Burn" {
		t.Errorf("first entry = %v", rows[1])
	}
	if rows[1][11] != "1.50" {
		t.Errorf("score column = %q, want 1.50", rows[1][11])
	}
	// Archetypes without a composite score export an empty cell.
	if rows[2][11] != "" {
		t.Errorf("missing score should be empty, got %q", rows[2][11])
	}
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, testReport(), FormatJSON); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	var decoded stats.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if len(decoded.Entries) != 2 || decoded.Totals.TotalMatches != 50 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteReportFile(t *testing.T) {
	t.Run("csv writes standings and matchups", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "report.csv")

		if err := WriteReportFile(path, testReport(), FormatCSV); err != nil {
			t.Fatalf("WriteReportFile: %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("standings file missing: %v", err)
		}
		matchups, err := os.ReadFile(path + ".matchups.csv")
		if err != nil {
			t.Fatalf("matchup file missing: %v", err)
		}
		if !strings.Contains(string(matchups), "Mono-Red Burn,Azorius Control,6,4,60.00") {
			t.Errorf("matchup rows = %q", matchups)
		}
	})

	t.Run("json writes one file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "report.json")
		if err := WriteReportFile(path, testReport(), FormatJSON); err != nil {
			t.Fatalf("WriteReportFile: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("report file missing: %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("csv"); err != nil {
		t.Errorf("csv should parse: %v", err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml should not parse")
	}
}

func TestToWriterCSVErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := ToWriter(&buf, FormatCSV, "not a slice"); err == nil {
		t.Error("expected error for non-slice CSV data")
	}
	if err := ToWriter(&buf, FormatCSV, []EntryRow{}); err == nil {
		t.Error("expected error for empty CSV data")
	}
}
