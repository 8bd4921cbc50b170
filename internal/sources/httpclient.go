package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "metagame/1.0"

// httpGetter is the shared fetch path for the site clients: base URL
// joining, User-Agent, session cookies, status checking.
type httpGetter struct {
	client  *http.Client
	baseURL string
	session *SessionStore
}

func newHTTPGetter(baseURL string, timeout time.Duration, session *SessionStore) *httpGetter {
	return &httpGetter{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
	}
}

func (g *httpGetter) get(ctx context.Context, path string) (io.ReadCloser, error) {
	url := g.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")
	if g.session != nil {
		for _, cookie := range g.session.Cookies() {
			req.AddCookie(cookie)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}
