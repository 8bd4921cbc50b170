// Package deck defines the decklist model shared by classification and
// reconciliation.
package deck

import "strings"

// CardEntry represents a card and its copy count within a single zone.
type CardEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Decklist represents one player's submitted list for one tournament.
// A Decklist is immutable once ingested; Normalize is applied at ingest
// time, before classification.
type Decklist struct {
	ID           string      `json:"id"`
	TournamentID string      `json:"tournament_id"`
	Player       string      `json:"player"`
	Mainboard    []CardEntry `json:"mainboard"`
	Sideboard    []CardEntry `json:"sideboard"`
	Result       string      `json:"result,omitempty"`
}

// CardCounts maps a card name to its total copy count within a zone.
type CardCounts map[string]int

// Count returns the copy count for a card, 0 if absent.
func (c CardCounts) Count(name string) int {
	return c[name]
}

// Contains reports whether the zone holds at least one copy of the card.
func (c CardCounts) Contains(name string) bool {
	return c[name] > 0
}

// Normalize sums duplicate card names within each zone, preserving the
// order of first appearance. Classification requires summed counts: the
// same card split across two entries must count as one card with the
// combined total.
func (d *Decklist) Normalize() {
	d.Mainboard = sumDuplicates(d.Mainboard)
	d.Sideboard = sumDuplicates(d.Sideboard)
}

// MainboardCounts returns the summed card counts of the mainboard.
func (d *Decklist) MainboardCounts() CardCounts {
	return zoneCounts(d.Mainboard)
}

// SideboardCounts returns the summed card counts of the sideboard.
func (d *Decklist) SideboardCounts() CardCounts {
	return zoneCounts(d.Sideboard)
}

// CombinedCounts returns summed counts across mainboard and sideboard.
func (d *Decklist) CombinedCounts() CardCounts {
	counts := zoneCounts(d.Mainboard)
	for _, entry := range d.Sideboard {
		counts[entry.Name] += entry.Count
	}
	return counts
}

// TotalCards returns the total number of cards across both zones.
func (d *Decklist) TotalCards() int {
	total := 0
	for _, entry := range d.Mainboard {
		total += entry.Count
	}
	for _, entry := range d.Sideboard {
		total += entry.Count
	}
	return total
}

func zoneCounts(entries []CardEntry) CardCounts {
	counts := make(CardCounts, len(entries))
	for _, entry := range entries {
		counts[entry.Name] += entry.Count
	}
	return counts
}

func sumDuplicates(entries []CardEntry) []CardEntry {
	if len(entries) < 2 {
		return entries
	}

	index := make(map[string]int, len(entries))
	merged := make([]CardEntry, 0, len(entries))
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if pos, seen := index[name]; seen {
			merged[pos].Count += entry.Count
			continue
		}
		index[name] = len(merged)
		merged = append(merged, CardEntry{Name: name, Count: entry.Count})
	}
	return merged
}
