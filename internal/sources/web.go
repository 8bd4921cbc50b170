package sources

import (
	"context"
	"fmt"

	"github.com/mtgtools/metagame/internal/deck"
	"github.com/mtgtools/metagame/internal/reconcile"
)

// TournamentDecklistSource feeds the pipeline from published tournament
// pages, one fetch per configured tournament.
type TournamentDecklistSource struct {
	Client        *DecklistClient
	TournamentIDs []string
}

// Decklists fetches every configured tournament in order.
func (s *TournamentDecklistSource) Decklists(ctx context.Context) ([]deck.Decklist, error) {
	var decks []deck.Decklist
	for _, id := range s.TournamentIDs {
		fetched, err := s.Client.TournamentDecklists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("tournament %s: %w", id, err)
		}
		decks = append(decks, fetched...)
	}
	return decks, nil
}

// TournamentMatchSource feeds the pipeline from published round result
// pages, one fetch per configured tournament.
type TournamentMatchSource struct {
	Client        *ResultsClient
	TournamentIDs []string
}

// Matches fetches every configured tournament in order.
func (s *TournamentMatchSource) Matches(ctx context.Context) ([]reconcile.MatchRecord, error) {
	var records []reconcile.MatchRecord
	for _, id := range s.TournamentIDs {
		fetched, err := s.Client.TournamentResults(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("tournament %s: %w", id, err)
		}
		records = append(records, fetched...)
	}
	return records, nil
}
