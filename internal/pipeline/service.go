// Package pipeline runs the batch that turns raw feeds into a finalized
// metagame report: classify every decklist once, reconcile the match
// feed against the labels, then compute the statistics.
package pipeline

import (
	"context"
	"fmt"

	"github.com/mtgtools/metagame/internal/archetype"
	"github.com/mtgtools/metagame/internal/deck"
	"github.com/mtgtools/metagame/internal/reconcile"
	"github.com/mtgtools/metagame/internal/sources"
	"github.com/mtgtools/metagame/internal/stats"
	"github.com/mtgtools/metagame/internal/storage"
)

// Options configures a pipeline service.
type Options struct {
	// Rules is the loaded archetype rule set. Required.
	Rules *archetype.RuleSet

	// Policy is the reconciliation policy.
	Policy reconcile.Policy

	// Keys extracts the tournament join key. Nil selects the default
	// digit-run heuristic.
	Keys reconcile.KeyExtractor

	// Stats configures the statistics engine. Nil selects defaults.
	Stats *stats.Config

	// Store persists ingested feeds and the finalized report. Optional;
	// nil disables persistence.
	Store *storage.Store

	// Period labels the stored report ("8w", "all"...).
	Period string
}

// Service executes the batch pipeline. The run is single-threaded by
// design: the dataset is bounded and a deterministic pass is worth more
// than parallel speed.
type Service struct {
	classifier *archetype.Classifier
	reconciler *reconcile.Reconciler
	statsCfg   *stats.Config
	store      *storage.Store
	period     string
}

// New creates a pipeline service.
func New(opts Options) (*Service, error) {
	if opts.Rules == nil {
		return nil, fmt.Errorf("pipeline requires a rule set")
	}

	statsCfg := opts.Stats
	if statsCfg == nil {
		statsCfg = stats.DefaultConfig()
	}
	if err := statsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline stats config: %w", err)
	}

	period := opts.Period
	if period == "" {
		period = "all"
	}

	return &Service{
		classifier: archetype.NewClassifier(opts.Rules),
		reconciler: reconcile.NewReconciler(opts.Policy, opts.Keys),
		statsCfg:   statsCfg,
		store:      opts.Store,
		period:     period,
	}, nil
}

// Run loads both feeds, classifies, reconciles and computes the report.
// The same inputs always produce an identical report.
func (s *Service) Run(ctx context.Context, deckSource sources.DecklistSource, matchSource sources.MatchSource) (*stats.Report, error) {
	decks, err := deckSource.Decklists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load decklists: %w", err)
	}

	matches, err := matchSource.Matches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load match records: %w", err)
	}

	return s.process(ctx, decks, matches)
}

// RunStored recomputes the report from the feeds already persisted in
// the store, without touching any source.
func (s *Service) RunStored(ctx context.Context) (*stats.Report, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no store configured")
	}

	decks, err := s.store.LoadDecklists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored decklists: %w", err)
	}
	matches, err := s.store.LoadMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored match records: %w", err)
	}

	return s.process(ctx, decks, matches)
}

func (s *Service) process(ctx context.Context, decks []deck.Decklist, matches []reconcile.MatchRecord) (*stats.Report, error) {
	classifications := make(map[string]archetype.Classification, len(decks))
	entries := make([]reconcile.DeckEntry, len(decks))
	for i := range decks {
		// Each decklist is classified exactly once per run.
		c := s.classifier.Classify(&decks[i])
		classifications[decks[i].ID] = c
		entries[i] = reconcile.DeckEntry{
			TournamentID: decks[i].TournamentID,
			Player:       decks[i].Player,
			Archetype:    c.DisplayName,
		}
	}

	agg := s.reconciler.Reconcile(matches, entries)

	report, err := stats.Compute(agg, s.statsCfg)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.persist(ctx, decks, classifications, matches, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (s *Service) persist(ctx context.Context, decks []deck.Decklist, classifications map[string]archetype.Classification, matches []reconcile.MatchRecord, report *stats.Report) error {
	if err := s.store.SaveDecklists(ctx, decks, classifications); err != nil {
		return fmt.Errorf("persist decklists: %w", err)
	}
	if err := s.store.SaveMatches(ctx, matches); err != nil {
		return fmt.Errorf("persist match records: %w", err)
	}
	if err := s.store.SaveReport(ctx, report, s.period); err != nil {
		return fmt.Errorf("persist report: %w", err)
	}
	return nil
}
