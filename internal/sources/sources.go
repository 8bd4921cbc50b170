// Package sources ingests the two independent tournament feeds: decklists
// and round-level match results. File loaders and HTTP clients both
// produce the shared deck and reconcile models, so the pipeline does not
// care where a feed came from.
package sources

import (
	"context"

	"github.com/mtgtools/metagame/internal/deck"
	"github.com/mtgtools/metagame/internal/reconcile"
)

// DecklistSource yields submitted decklists.
type DecklistSource interface {
	Decklists(ctx context.Context) ([]deck.Decklist, error)
}

// MatchSource yields round-level match records.
type MatchSource interface {
	Matches(ctx context.Context) ([]reconcile.MatchRecord, error)
}
