package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

const decklistPage = `<!DOCTYPE html>
<html><body>
<div class="decklist">
  <h3 class="decklist-player">Alice</h3>
  <ul class="mainboard">
    <li>4 Lightning Bolt</li>
    <li>20 Mountain</li>
    <li>not a card line</li>
  </ul>
  <ul class="sideboard">
    <li>3 Smash to Smithereens</li>
  </ul>
</div>
<div class="decklist">
  <h3 class="decklist-player">Bob</h3>
  <ul class="mainboard">
    <li>4 Counterspell</li>
  </ul>
  <ul class="sideboard"></ul>
</div>
</body></html>`

func testDecklistClient(baseURL string) *DecklistClient {
	cfg := DefaultDecklistClientConfig(baseURL)
	cfg.RateLimit = rate.Inf
	return NewDecklistClient(cfg, nil)
}

func TestDecklistClient(t *testing.T) {
	t.Run("fetches and parses a tournament page", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if r.URL.Path != "/tournament/1234567/decklists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_, _ = w.Write([]byte(decklistPage))
		}))
		defer server.Close()

		client := testDecklistClient(server.URL)
		decks, err := client.TournamentDecklists(context.Background(), "1234567")
		if err != nil {
			t.Fatalf("TournamentDecklists: %v", err)
		}

		if len(decks) != 2 {
			t.Fatalf("got %d decks, want 2", len(decks))
		}

		alice := decks[0]
		if alice.Player != "Alice" || alice.TournamentID != "1234567" {
			t.Errorf("first deck = %+v", alice)
		}
		if len(alice.Mainboard) != 2 {
			t.Errorf("mainboard = %+v, want 2 entries (bad line dropped)", alice.Mainboard)
		}
		if alice.MainboardCounts().Count("Lightning Bolt") != 4 {
			t.Errorf("Lightning Bolt count = %d, want 4", alice.MainboardCounts().Count("Lightning Bolt"))
		}
		if len(alice.Sideboard) != 1 {
			t.Errorf("sideboard = %+v", alice.Sideboard)
		}

		if decks[1].Player != "Bob" || len(decks[1].Sideboard) != 0 {
			t.Errorf("second deck = %+v", decks[1])
		}
	})

	t.Run("second fetch within TTL is served from cache", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			_, _ = w.Write([]byte(decklistPage))
		}))
		defer server.Close()

		client := testDecklistClient(server.URL)
		for i := 0; i < 3; i++ {
			if _, err := client.TournamentDecklists(context.Background(), "1234567"); err != nil {
				t.Fatalf("fetch %d: %v", i, err)
			}
		}
		if requests != 1 {
			t.Errorf("server saw %d requests, want 1", requests)
		}

		client.ClearCache()
		if _, err := client.TournamentDecklists(context.Background(), "1234567"); err != nil {
			t.Fatalf("fetch after ClearCache: %v", err)
		}
		if requests != 2 {
			t.Errorf("server saw %d requests after ClearCache, want 2", requests)
		}
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := testDecklistClient(server.URL)
		if _, err := client.TournamentDecklists(context.Background(), "1234567"); err == nil {
			t.Error("expected error for 403 response")
		}
	})

	t.Run("session cookies ride along", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie("session_token"); err != nil || cookie.Value != "abc123" {
				t.Errorf("missing session cookie: %v", err)
			}
			_, _ = w.Write([]byte(decklistPage))
		}))
		defer server.Close()

		session := NewSessionStore("", "unused")
		session.SetCookie("session_token", "abc123")

		cfg := DefaultDecklistClientConfig(server.URL)
		cfg.RateLimit = rate.Inf
		client := NewDecklistClient(cfg, session)
		if _, err := client.TournamentDecklists(context.Background(), "1234567"); err != nil {
			t.Fatalf("TournamentDecklists: %v", err)
		}
	})

	t.Run("context cancellation aborts the request", func(t *testing.T) {
		client := testDecklistClient("http://127.0.0.1:0")
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		<-ctx.Done()

		if _, err := client.TournamentDecklists(ctx, "1234567"); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}
