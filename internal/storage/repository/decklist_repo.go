// Package repository provides data access layers for the metagame
// database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mtgtools/metagame/internal/storage/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DecklistRepository handles database operations for decklists.
type DecklistRepository interface {
	// Upsert inserts a decklist or replaces the stored row with the
	// same ID.
	Upsert(ctx context.Context, d *models.Decklist) error

	// GetByID retrieves a decklist by its ID.
	GetByID(ctx context.Context, id string) (*models.Decklist, error)

	// GetByTournament retrieves all decklists for a tournament, ordered
	// by player name.
	GetByTournament(ctx context.Context, tournamentID string) ([]*models.Decklist, error)

	// All retrieves every stored decklist, ordered by tournament then
	// player.
	All(ctx context.Context) ([]*models.Decklist, error)

	// Count returns the number of stored decklists.
	Count(ctx context.Context) (int, error)
}

type decklistRepository struct {
	db *sql.DB
}

// NewDecklistRepository creates a decklist repository.
func NewDecklistRepository(db *sql.DB) DecklistRepository {
	return &decklistRepository{db: db}
}

const decklistColumns = `id, tournament_id, player, mainboard, sideboard,
	archetype, variant, color_code, display_name`

func (r *decklistRepository) Upsert(ctx context.Context, d *models.Decklist) error {
	query := `
		INSERT INTO decklists (` + decklistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tournament_id = excluded.tournament_id,
			player = excluded.player,
			mainboard = excluded.mainboard,
			sideboard = excluded.sideboard,
			archetype = excluded.archetype,
			variant = excluded.variant,
			color_code = excluded.color_code,
			display_name = excluded.display_name
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.TournamentID, d.Player, d.Mainboard, d.Sideboard,
		d.Archetype, d.Variant, d.ColorCode, d.DisplayName,
	)
	if err != nil {
		return fmt.Errorf("upsert decklist: %w", err)
	}
	return nil
}

func (r *decklistRepository) GetByID(ctx context.Context, id string) (*models.Decklist, error) {
	query := `SELECT ` + decklistColumns + ` FROM decklists WHERE id = ?`

	d := &models.Decklist{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.TournamentID, &d.Player, &d.Mainboard, &d.Sideboard,
		&d.Archetype, &d.Variant, &d.ColorCode, &d.DisplayName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get decklist %s: %w", id, err)
	}
	return d, nil
}

func (r *decklistRepository) GetByTournament(ctx context.Context, tournamentID string) ([]*models.Decklist, error) {
	query := `SELECT ` + decklistColumns + ` FROM decklists WHERE tournament_id = ? ORDER BY player`
	return r.query(ctx, query, tournamentID)
}

func (r *decklistRepository) All(ctx context.Context) ([]*models.Decklist, error) {
	query := `SELECT ` + decklistColumns + ` FROM decklists ORDER BY tournament_id, player`
	return r.query(ctx, query)
}

func (r *decklistRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decklists`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count decklists: %w", err)
	}
	return count, nil
}

func (r *decklistRepository) query(ctx context.Context, query string, args ...any) ([]*models.Decklist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decklists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decks []*models.Decklist
	for rows.Next() {
		d := &models.Decklist{}
		if err := rows.Scan(
			&d.ID, &d.TournamentID, &d.Player, &d.Mainboard, &d.Sideboard,
			&d.Archetype, &d.Variant, &d.ColorCode, &d.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("scan decklist: %w", err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decklists: %w", err)
	}
	return decks, nil
}
