package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mtgtools/metagame/internal/archetype"
	"github.com/mtgtools/metagame/internal/deck"
	"github.com/mtgtools/metagame/internal/reconcile"
	"github.com/mtgtools/metagame/internal/stats"
	"github.com/mtgtools/metagame/internal/storage/models"
	"github.com/mtgtools/metagame/internal/storage/repository"
)

// Store is the domain-level facade over the repositories: it converts
// between the pipeline's types and database rows.
type Store struct {
	db        *DB
	Decklists repository.DecklistRepository
	Matches   repository.MatchRepository
	Reports   repository.ReportRepository
}

// NewStore opens the database at path, applying pending migrations.
func NewStore(path string) (*Store, error) {
	cfg := DefaultConfig(path)
	cfg.AutoMigrate = true

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:        db,
		Decklists: repository.NewDecklistRepository(db.Conn()),
		Matches:   repository.NewMatchRepository(db.Conn()),
		Reports:   repository.NewReportRepository(db.Conn()),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDecklists stores decklists together with their classifications.
// The classifications map is keyed by decklist ID; a missing entry
// stores the deck unclassified.
func (s *Store) SaveDecklists(ctx context.Context, decks []deck.Decklist, classifications map[string]archetype.Classification) error {
	for i := range decks {
		row, err := decklistRow(&decks[i], classifications[decks[i].ID])
		if err != nil {
			return err
		}
		if err := s.Decklists.Upsert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// SaveMatches stores match records, skipping duplicates.
func (s *Store) SaveMatches(ctx context.Context, records []reconcile.MatchRecord) error {
	rows := make([]*models.MatchRecord, len(records))
	for i, record := range records {
		rows[i] = &models.MatchRecord{
			TournamentID: record.TournamentID,
			Round:        record.Round,
			Player1:      record.Player1,
			Player2:      record.Player2,
			Result:       record.Result,
		}
	}
	return s.Matches.InsertBatch(ctx, rows)
}

// LoadMatches returns all stored match records.
func (s *Store) LoadMatches(ctx context.Context) ([]reconcile.MatchRecord, error) {
	rows, err := s.Matches.All(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]reconcile.MatchRecord, len(rows))
	for i, row := range rows {
		records[i] = reconcile.MatchRecord{
			TournamentID: row.TournamentID,
			Round:        row.Round,
			Player1:      row.Player1,
			Player2:      row.Player2,
			Result:       row.Result,
		}
	}
	return records, nil
}

// LoadDeckEntries returns the stored decklists as reconciler deck
// entries, using the stored display name as the archetype label.
func (s *Store) LoadDeckEntries(ctx context.Context) ([]reconcile.DeckEntry, error) {
	rows, err := s.Decklists.All(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]reconcile.DeckEntry, len(rows))
	for i, row := range rows {
		entries[i] = reconcile.DeckEntry{
			TournamentID: row.TournamentID,
			Player:       row.Player,
			Archetype:    row.DisplayName,
		}
	}
	return entries, nil
}

// LoadDecklists returns all stored decklists as domain decklists.
func (s *Store) LoadDecklists(ctx context.Context) ([]deck.Decklist, error) {
	rows, err := s.Decklists.All(ctx)
	if err != nil {
		return nil, err
	}

	decks := make([]deck.Decklist, len(rows))
	for i, row := range rows {
		d, err := domainDecklist(row)
		if err != nil {
			return nil, err
		}
		decks[i] = *d
	}
	return decks, nil
}

// SaveReport stores a finalized report under the given period label.
func (s *Store) SaveReport(ctx context.Context, report *stats.Report, period string) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return s.Reports.Save(ctx, &models.Report{
		Period:   period,
		SortedBy: string(report.SortedBy),
		Payload:  string(payload),
	})
}

// LatestReport returns the most recently stored report, or
// repository.ErrNotFound when none has been stored yet.
func (s *Store) LatestReport(ctx context.Context) (*stats.Report, error) {
	row, err := s.Reports.Latest(ctx)
	if err != nil {
		return nil, err
	}

	var report stats.Report
	if err := json.Unmarshal([]byte(row.Payload), &report); err != nil {
		return nil, fmt.Errorf("parse stored report: %w", err)
	}
	return &report, nil
}

func decklistRow(d *deck.Decklist, c archetype.Classification) (*models.Decklist, error) {
	mainboard, err := json.Marshal(d.Mainboard)
	if err != nil {
		return nil, fmt.Errorf("marshal mainboard: %w", err)
	}
	sideboard, err := json.Marshal(d.Sideboard)
	if err != nil {
		return nil, fmt.Errorf("marshal sideboard: %w", err)
	}

	return &models.Decklist{
		ID:           d.ID,
		TournamentID: d.TournamentID,
		Player:       d.Player,
		Mainboard:    string(mainboard),
		Sideboard:    string(sideboard),
		Archetype:    c.Archetype,
		Variant:      c.Variant,
		ColorCode:    c.ColorCode,
		DisplayName:  c.DisplayName,
	}, nil
}

func domainDecklist(row *models.Decklist) (*deck.Decklist, error) {
	d := &deck.Decklist{
		ID:           row.ID,
		TournamentID: row.TournamentID,
		Player:       row.Player,
	}
	if err := json.Unmarshal([]byte(row.Mainboard), &d.Mainboard); err != nil {
		return nil, fmt.Errorf("parse mainboard for %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Sideboard), &d.Sideboard); err != nil {
		return nil, fmt.Errorf("parse sideboard for %s: %w", row.ID, err)
	}
	return d, nil
}
