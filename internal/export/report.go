package export

import (
	"fmt"
	"io"

	"github.com/mtgtools/metagame/internal/stats"
)

// EntryRow is one archetype line of the exported standings table.
type EntryRow struct {
	Rank            int      `csv:"rank"`
	Archetype       string   `csv:"archetype"`
	Tier            string   `csv:"tier"`
	Matches         int      `csv:"matches"`
	Wins            int      `csv:"wins"`
	Losses          int      `csv:"losses"`
	Draws           int      `csv:"draws"`
	Presence        float64  `csv:"presence_pct"`
	WinRate         float64  `csv:"win_rate_pct"`
	CILower         float64  `csv:"ci_lower"`
	CIUpper         float64  `csv:"ci_upper"`
	Score           *float64 `csv:"score"`
	DeckCount       int      `csv:"decks"`
	TournamentCount int      `csv:"tournaments"`
	PlayerCount     int      `csv:"players"`
}

// MatchupRow is one directed matchup cell of the exported matrix.
type MatchupRow struct {
	Archetype string  `csv:"archetype"`
	Opponent  string  `csv:"opponent"`
	Wins      int     `csv:"wins"`
	Losses    int     `csv:"losses"`
	WinRate   float64 `csv:"win_rate_pct"`
}

// EntryRows flattens the report's entries for tabular export.
func EntryRows(report *stats.Report) []EntryRow {
	rows := make([]EntryRow, len(report.Entries))
	for i, entry := range report.Entries {
		rows[i] = EntryRow{
			Rank:            entry.Rank,
			Archetype:       entry.Archetype,
			Tier:            entry.Tier,
			Matches:         entry.Matches,
			Wins:            entry.Wins,
			Losses:          entry.Losses,
			Draws:           entry.Draws,
			Presence:        entry.Presence,
			WinRate:         entry.WinRate,
			CILower:         entry.CILower,
			CIUpper:         entry.CIUpper,
			Score:           entry.NormalizedScore,
			DeckCount:       entry.DeckCount,
			TournamentCount: entry.TournamentCount,
			PlayerCount:     entry.PlayerCount,
		}
	}
	return rows
}

// MatchupRows flattens the report's matchup matrix for tabular export.
// The win rate is over decided games in the cell.
func MatchupRows(report *stats.Report) []MatchupRow {
	rows := make([]MatchupRow, len(report.Matchups))
	for i, cell := range report.Matchups {
		winRate := 0.0
		if decided := cell.Wins + cell.Losses; decided > 0 {
			winRate = float64(cell.Wins) * 100 / float64(decided)
		}
		rows[i] = MatchupRow{
			Archetype: cell.Archetype,
			Opponent:  cell.Opponent,
			Wins:      cell.Wins,
			Losses:    cell.Losses,
			WinRate:   winRate,
		}
	}
	return rows
}

// WriteReport writes the report to w. JSON carries the full report;
// CSV carries the ranked standings table.
func WriteReport(w io.Writer, report *stats.Report, format Format) error {
	switch format {
	case FormatJSON:
		return ToWriter(w, format, report)
	case FormatCSV:
		return ToWriter(w, format, EntryRows(report))
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteReportFile writes the report to path. Alongside a CSV standings
// file, the matchup matrix lands in a second file with a .matchups.csv
// suffix.
func WriteReportFile(path string, report *stats.Report, format Format) error {
	switch format {
	case FormatJSON:
		return ToFile(path, format, report)
	case FormatCSV:
		if err := ToFile(path, format, EntryRows(report)); err != nil {
			return err
		}
		if len(report.Matchups) == 0 {
			return nil
		}
		return ToFile(path+".matchups.csv", format, MatchupRows(report))
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}
