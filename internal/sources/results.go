package sources

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mtgtools/metagame/internal/reconcile"
)

// ResultsClientConfig configures the match-results site client.
type ResultsClientConfig struct {
	// BaseURL is the results site base URL.
	BaseURL string

	// CacheTTL is how long fetched result pages stay cached.
	CacheTTL time.Duration

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout time.Duration

	// RateLimit controls request frequency.
	RateLimit rate.Limit
}

// DefaultResultsClientConfig returns conservative defaults.
func DefaultResultsClientConfig(baseURL string) *ResultsClientConfig {
	return &ResultsClientConfig{
		BaseURL:        baseURL,
		CacheTTL:       6 * time.Hour,
		RequestTimeout: 30 * time.Second,
		RateLimit:      rate.Every(1500 * time.Millisecond),
	}
}

// ResultsClient fetches round-by-round result pages for a tournament.
// The pages are simple HTML tables, parsed with regular expressions; the
// result strings pass through to the reconciler unvalidated, which owns
// malformed-result handling.
type ResultsClient struct {
	httpClient *httpGetter
	limiter    *rate.Limiter
	cacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]*resultsCacheEntry
}

type resultsCacheEntry struct {
	records   []reconcile.MatchRecord
	expiresAt time.Time
}

// matchRowPattern matches one result row:
//
//	<tr class="match-row">
//	  <td>1</td><td>Alice</td><td>2-1</td><td>Bob</td>
//	</tr>
var matchRowPattern = regexp.MustCompile(`(?s)<tr[^>]*class=['"][^'"]*match-row[^'"]*['"][^>]*>\s*` +
	`<td[^>]*>([^<]*)</td>\s*<td[^>]*>([^<]*)</td>\s*<td[^>]*>([^<]*)</td>\s*<td[^>]*>([^<]*)</td>`)

// NewResultsClient creates a client for the given site. A nil session
// store means requests carry no cookies.
func NewResultsClient(config *ResultsClientConfig, session *SessionStore) *ResultsClient {
	if config == nil {
		config = DefaultResultsClientConfig("")
	}
	return &ResultsClient{
		httpClient: newHTTPGetter(config.BaseURL, config.RequestTimeout, session),
		limiter:    rate.NewLimiter(config.RateLimit, 1),
		cacheTTL:   config.CacheTTL,
		cache:      make(map[string]*resultsCacheEntry),
	}
}

// TournamentResults fetches and parses all match records published for a
// tournament.
func (c *ResultsClient) TournamentResults(ctx context.Context, tournamentID string) ([]reconcile.MatchRecord, error) {
	if cached := c.fromCache(tournamentID); cached != nil {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := c.httpClient.get(ctx, fmt.Sprintf("/tournament/%s/results", tournamentID))
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	html, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read results page: %w", err)
	}

	records := ParseResultsPage(string(html), tournamentID)
	c.setCache(tournamentID, records)
	return records, nil
}

// ParseResultsPage extracts match records from a results page. Rows that
// do not fit the table shape are dropped here; malformed result strings
// inside well-formed rows are kept for the reconciler's diagnostics.
func ParseResultsPage(html, tournamentID string) []reconcile.MatchRecord {
	rows := matchRowPattern.FindAllStringSubmatch(html, -1)
	records := make([]reconcile.MatchRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, reconcile.MatchRecord{
			TournamentID: tournamentID,
			Round:        strings.TrimSpace(row[1]),
			Player1:      strings.TrimSpace(row[2]),
			Result:       strings.TrimSpace(row[3]),
			Player2:      strings.TrimSpace(row[4]),
		})
	}
	return records
}

func (c *ResultsClient) fromCache(tournamentID string) []reconcile.MatchRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[tournamentID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.records
}

func (c *ResultsClient) setCache(tournamentID string, records []reconcile.MatchRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[tournamentID] = &resultsCacheEntry{
		records:   records,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}
