// Command metagame runs the batch pipeline: load archetype rules,
// ingest the decklist and match feeds, reconcile them and print or
// export the finalized report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mtgtools/metagame/internal/archetype"
	"github.com/mtgtools/metagame/internal/config"
	"github.com/mtgtools/metagame/internal/export"
	"github.com/mtgtools/metagame/internal/pipeline"
	"github.com/mtgtools/metagame/internal/sources"
	"github.com/mtgtools/metagame/internal/stats"
	"github.com/mtgtools/metagame/internal/storage"
)

var (
	configPath   = flag.String("config", "", "config file (default: ~/.metagame/config.toml)")
	rulesPath    = flag.String("rules", "", "archetype rule file or directory")
	decklistPath = flag.String("decklists", "", "decklist feed: JSON file or directory")
	matchPath    = flag.String("matches", "", "match feed: JSON file or directory")
	period       = flag.String("period", "", "lookback period, e.g. 8w or all")
	sortBy       = flag.String("sort", "", "sort order: presence, winrate or score")
	exportPath   = flag.String("export", "", "write the report to this file instead of stdout")
	formatName   = flag.String("format", "json", "export format: csv or json")
	dbPath       = flag.String("db", "", "SQLite database file (empty disables persistence)")
	fromStore    = flag.Bool("stored", false, "recompute from persisted feeds, ignore sources")
	watch        = flag.Bool("watch", false, "re-run whenever a feed or rule file changes")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		}()
	}

	if err := runOnce(ctx, cfg, store); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	if *watch {
		if *fromStore {
			log.Fatal("-watch and -stored are mutually exclusive")
		}
		if err := watchAndRerun(ctx, cfg, store); err != nil {
			log.Fatalf("Watch failed: %v", err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// applyOverrides copies set flags over the loaded config.
func applyOverrides(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rules":
			cfg.Rules.Path = *rulesPath
		case "decklists":
			cfg.Sources.DecklistPath = *decklistPath
		case "matches":
			cfg.Sources.MatchPath = *matchPath
		case "period":
			cfg.Stats.Period = *period
		case "sort":
			cfg.Stats.SortBy = *sortBy
		case "db":
			cfg.Database.Path = *dbPath
		}
	})
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	if cfg.Database.Path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return storage.NewStore(cfg.Database.Path)
}

func loadRules(path string) (*archetype.RuleSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("rule path: %w", err)
	}
	if info.IsDir() {
		return archetype.LoadRulesDir(path)
	}
	return archetype.LoadRules(path)
}

// buildSources picks the feeds. Configured site URLs with tournament IDs
// win over file paths.
func buildSources(cfg *config.Config) (sources.DecklistSource, sources.MatchSource, error) {
	if cfg.Sources.DecklistURL != "" && len(cfg.Sources.Tournaments) > 0 {
		ttl, err := cfg.GetCacheTTL()
		if err != nil {
			return nil, nil, err
		}

		var session *sources.SessionStore
		if cfg.Sources.SessionFile != "" {
			session = sources.NewSessionStore(cfg.Sources.SessionFile, os.Getenv("METAGAME_SESSION_PASSWORD"))
			if err := session.Load(); err != nil {
				return nil, nil, fmt.Errorf("load session: %w", err)
			}
		}

		deckCfg := sources.DefaultDecklistClientConfig(cfg.Sources.DecklistURL)
		deckCfg.CacheTTL = ttl
		resultsURL := cfg.Sources.ResultsURL
		if resultsURL == "" {
			resultsURL = cfg.Sources.DecklistURL
		}
		matchCfg := sources.DefaultResultsClientConfig(resultsURL)
		matchCfg.CacheTTL = ttl

		deckSource := &sources.TournamentDecklistSource{
			Client:        sources.NewDecklistClient(deckCfg, session),
			TournamentIDs: cfg.Sources.Tournaments,
		}
		matchSource := &sources.TournamentMatchSource{
			Client:        sources.NewResultsClient(matchCfg, session),
			TournamentIDs: cfg.Sources.Tournaments,
		}
		return deckSource, matchSource, nil
	}

	if cfg.Sources.DecklistPath == "" || cfg.Sources.MatchPath == "" {
		return nil, nil, fmt.Errorf("no decklist or match source configured")
	}
	return &sources.FileDecklistSource{Path: cfg.Sources.DecklistPath},
		&sources.FileMatchSource{Path: cfg.Sources.MatchPath}, nil
}

func runOnce(ctx context.Context, cfg *config.Config, store *storage.Store) error {
	rules, err := loadRules(cfg.Rules.Path)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	svc, err := pipeline.New(pipeline.Options{
		Rules:  rules,
		Policy: cfg.Policy(),
		Keys:   cfg.KeyExtractor(),
		Stats:  cfg.StatsConfig(),
		Store:  store,
		Period: cfg.Stats.Period,
	})
	if err != nil {
		return err
	}

	var report *stats.Report
	if *fromStore {
		report, err = svc.RunStored(ctx)
	} else {
		var deckSource sources.DecklistSource
		var matchSource sources.MatchSource
		deckSource, matchSource, err = buildSources(cfg)
		if err != nil {
			return err
		}
		report, err = svc.Run(ctx, deckSource, matchSource)
	}
	if err != nil {
		return err
	}

	return emit(report)
}

func emit(report *stats.Report) error {
	if *exportPath != "" {
		format, err := export.ParseFormat(*formatName)
		if err != nil {
			return err
		}
		if err := export.WriteReportFile(*exportPath, report, format); err != nil {
			return err
		}
		log.Printf("Report written to %s", *exportPath)
		return nil
	}

	printStandings(report)
	return nil
}

func printStandings(report *stats.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tARCHETYPE\tTIER\tMATCHES\tPRESENCE\tWIN RATE\tCI")
	for _, entry := range report.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.2f%%\t%.2f%%\t[%.1f, %.1f]\n",
			entry.Rank, entry.Archetype, entry.Tier, entry.Matches,
			entry.Presence, entry.WinRate, entry.CILower, entry.CIUpper)
	}
	_ = w.Flush()

	fmt.Printf("\n%d matches, %d decks, %d tournaments, %d archetypes\n",
		report.Totals.TotalMatches, report.Totals.TotalDecks,
		report.Totals.TotalTournaments, report.Totals.TotalArchetypes)

	d := report.Diagnostics
	if d.SkippedByes > 0 || d.SkippedMalformed > 0 || d.SkippedUnresolved > 0 {
		fmt.Printf("diagnostics: %d byes, %d malformed, %d unresolved players\n",
			d.SkippedByes, d.SkippedMalformed, d.SkippedUnresolved)
	}
}

// watchAndRerun re-runs the pipeline when a watched path changes.
// Bursts of events collapse into one run.
func watchAndRerun(ctx context.Context, cfg *config.Config, store *storage.Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, path := range []string{cfg.Rules.Path, cfg.Sources.DecklistPath, cfg.Sources.MatchPath} {
		if path == "" {
			continue
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	log.Println("Watching for changes, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watch error: %v", err)
		case <-pending:
			pending = nil
			if err := runOnce(ctx, cfg, store); err != nil {
				log.Printf("Pipeline failed: %v", err)
			}
		case <-sigChan:
			log.Println("Stopping")
			return nil
		}
	}
}
