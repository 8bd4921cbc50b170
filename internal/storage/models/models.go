// Package models defines the database row types for the storage layer.
package models

import "time"

// Decklist is a stored decklist row. Mainboard and Sideboard hold the
// card entries as JSON; classification columns are filled in after the
// pipeline has run.
type Decklist struct {
	ID           string
	TournamentID string
	Player       string
	Mainboard    string
	Sideboard    string
	Archetype    string
	Variant      string
	ColorCode    string
	DisplayName  string
	CreatedAt    time.Time
}

// MatchRecord is a stored round-level match result row.
type MatchRecord struct {
	ID           int64
	TournamentID string
	Round        string
	Player1      string
	Player2      string
	Result       string
	CreatedAt    time.Time
}

// Report is a stored finalized report. Payload holds the full report
// JSON; Period and SortedBy are duplicated as columns for listing.
type Report struct {
	ID        int64     `json:"id"`
	Period    string    `json:"period"`
	SortedBy  string    `json:"sorted_by"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
