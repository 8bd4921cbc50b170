package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mtgtools/metagame/internal/storage/models"
)

// MatchRepository handles database operations for match records.
type MatchRepository interface {
	// InsertBatch inserts match records inside one transaction,
	// ignoring rows that duplicate an already stored record.
	InsertBatch(ctx context.Context, records []*models.MatchRecord) error

	// GetByTournament retrieves all match records for a tournament.
	GetByTournament(ctx context.Context, tournamentID string) ([]*models.MatchRecord, error)

	// All retrieves every stored match record, in insertion order.
	All(ctx context.Context) ([]*models.MatchRecord, error)

	// Count returns the number of stored match records.
	Count(ctx context.Context) (int, error)
}

type matchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a match record repository.
func NewMatchRepository(db *sql.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) InsertBatch(ctx context.Context, records []*models.MatchRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO match_records (tournament_id, round, player1, player2, result)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range records {
		if _, err := stmt.ExecContext(ctx,
			record.TournamentID, record.Round, record.Player1, record.Player2, record.Result,
		); err != nil {
			return fmt.Errorf("insert match record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit match records: %w", err)
	}
	return nil
}

func (r *matchRepository) GetByTournament(ctx context.Context, tournamentID string) ([]*models.MatchRecord, error) {
	query := `
		SELECT id, tournament_id, round, player1, player2, result
		FROM match_records WHERE tournament_id = ? ORDER BY id
	`
	return r.query(ctx, query, tournamentID)
}

func (r *matchRepository) All(ctx context.Context) ([]*models.MatchRecord, error) {
	query := `
		SELECT id, tournament_id, round, player1, player2, result
		FROM match_records ORDER BY id
	`
	return r.query(ctx, query)
}

func (r *matchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count match records: %w", err)
	}
	return count, nil
}

func (r *matchRepository) query(ctx context.Context, query string, args ...any) ([]*models.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query match records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.MatchRecord
	for rows.Next() {
		record := &models.MatchRecord{}
		if err := rows.Scan(
			&record.ID, &record.TournamentID, &record.Round,
			&record.Player1, &record.Player2, &record.Result,
		); err != nil {
			return nil, fmt.Errorf("scan match record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match records: %w", err)
	}
	return records, nil
}
