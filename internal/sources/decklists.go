package sources

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/mtgtools/metagame/internal/deck"
)

// DecklistClientConfig configures the decklist site client.
type DecklistClientConfig struct {
	// BaseURL is the tournament site base URL.
	BaseURL string

	// CacheTTL is how long fetched tournament pages stay cached.
	CacheTTL time.Duration

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout time.Duration

	// RateLimit controls request frequency.
	RateLimit rate.Limit
}

// DefaultDecklistClientConfig returns conservative defaults.
func DefaultDecklistClientConfig(baseURL string) *DecklistClientConfig {
	return &DecklistClientConfig{
		BaseURL:        baseURL,
		CacheTTL:       6 * time.Hour,
		RequestTimeout: 30 * time.Second,
		RateLimit:      rate.Every(1 * time.Second),
	}
}

// DecklistClient fetches published decklist pages for a tournament and
// parses them into decklists. Responses are cached per tournament so a
// re-run within the TTL does not refetch.
type DecklistClient struct {
	httpClient *httpGetter
	limiter    *rate.Limiter
	cacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]*decklistCacheEntry
}

type decklistCacheEntry struct {
	decks     []deck.Decklist
	expiresAt time.Time
}

// NewDecklistClient creates a client for the given site. A nil session
// store means requests carry no cookies.
func NewDecklistClient(config *DecklistClientConfig, session *SessionStore) *DecklistClient {
	if config == nil {
		config = DefaultDecklistClientConfig("")
	}
	return &DecklistClient{
		httpClient: newHTTPGetter(config.BaseURL, config.RequestTimeout, session),
		limiter:    rate.NewLimiter(config.RateLimit, 1),
		cacheTTL:   config.CacheTTL,
		cache:      make(map[string]*decklistCacheEntry),
	}
}

// TournamentDecklists fetches and parses all decklists published for a
// tournament.
func (c *DecklistClient) TournamentDecklists(ctx context.Context, tournamentID string) ([]deck.Decklist, error) {
	if cached := c.fromCache(tournamentID); cached != nil {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	path := fmt.Sprintf("/tournament/%s/decklists", tournamentID)
	body, err := c.httpClient.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	decks, err := ParseDecklistPage(body, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("parse decklist page %s: %w", path, err)
	}

	c.setCache(tournamentID, decks)
	return decks, nil
}

// ParseDecklistPage parses a tournament decklist page. Each deck is a
// div.decklist holding the player name in .decklist-player and one line
// per card ("4 Lightning Bolt") in ul.mainboard and ul.sideboard.
func ParseDecklistPage(r io.Reader, tournamentID string) ([]deck.Decklist, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var decks []deck.Decklist
	doc.Find("div.decklist").Each(func(i int, sel *goquery.Selection) {
		player := strings.TrimSpace(sel.Find(".decklist-player").First().Text())
		if player == "" {
			return
		}

		d := deck.Decklist{
			ID:           fmt.Sprintf("%s-%d", tournamentID, i+1),
			TournamentID: tournamentID,
			Player:       player,
			Mainboard:    parseCardList(sel.Find("ul.mainboard li")),
			Sideboard:    parseCardList(sel.Find("ul.sideboard li")),
		}
		d.Normalize()
		decks = append(decks, d)
	})
	return decks, nil
}

// parseCardList parses "<count> <card name>" lines, skipping anything
// that does not fit the shape.
func parseCardList(items *goquery.Selection) []deck.CardEntry {
	var entries []deck.CardEntry
	items.Each(func(_ int, item *goquery.Selection) {
		line := strings.TrimSpace(item.Text())
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || count <= 0 {
			return
		}
		name := strings.TrimSpace(fields[1])
		if name == "" {
			return
		}
		entries = append(entries, deck.CardEntry{Name: name, Count: count})
	})
	return entries
}

func (c *DecklistClient) fromCache(tournamentID string) []deck.Decklist {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[tournamentID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.decks
}

func (c *DecklistClient) setCache(tournamentID string, decks []deck.Decklist) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[tournamentID] = &decklistCacheEntry{
		decks:     decks,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}

// ClearCache drops all cached tournament pages.
func (c *DecklistClient) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*decklistCacheEntry)
}
