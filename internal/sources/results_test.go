package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<table class="results">
  <tr><th>Round</th><th>Player</th><th>Result</th><th>Opponent</th></tr>
  <tr class="match-row"><td>1</td><td>Alice</td><td>2-1</td><td>Bob</td></tr>
  <tr class="match-row"><td>1</td><td>Carol</td><td>0-2</td><td>Dave</td></tr>
  <tr class="match-row"><td>2</td><td>Alice</td><td>not-a-score</td><td>Dave</td></tr>
  <tr><td>2</td><td>Decoration row</td></tr>
</table>
</body></html>`

func testResultsClient(baseURL string) *ResultsClient {
	cfg := DefaultResultsClientConfig(baseURL)
	cfg.RateLimit = rate.Inf
	return NewResultsClient(cfg, nil)
}

func TestParseResultsPage(t *testing.T) {
	records := ParseResultsPage(resultsPage, "1234567")
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.TournamentID != "1234567" || first.Round != "1" ||
		first.Player1 != "Alice" || first.Player2 != "Bob" || first.Result != "2-1" {
		t.Errorf("first record = %+v", first)
	}

	// Malformed result strings survive parsing; the reconciler counts them.
	if records[2].Result != "not-a-score" {
		t.Errorf("malformed result dropped: %+v", records[2])
	}
}

func TestResultsClient(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/tournament/1234567/results" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	cfg := DefaultResultsClientConfig(server.URL)
	cfg.RateLimit = rate.Inf
	client := NewResultsClient(cfg, nil)

	records, err := client.TournamentResults(context.Background(), "1234567")
	if err != nil {
		t.Fatalf("TournamentResults: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	if _, err := client.TournamentResults(context.Background(), "1234567"); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (second fetch cached)", requests)
	}
}
