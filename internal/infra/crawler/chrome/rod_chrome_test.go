package chrome

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!doctype html>
<html><head><title>Search Demo</title></head>
<body>
<img src="/pixel.png" alt="">
<form action="/search"><input type="search" name="q"></form>
<button id="go" onclick="fetch('/api/search?q=go')">Go</button>
</body></html>`

// siteServer records every path it serves.
type siteServer struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
}

func newSiteServer(t *testing.T) *siteServer {
	t.Helper()
	s := &siteServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.paths = append(s.paths, r.URL.Path)
		s.mu.Unlock()
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(testPage))
		case "/pixel.png":
			w.Header().Set("Content-Type", "image/png")
		case "/api/search":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *siteServer) served(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.paths {
		if p == path {
			return true
		}
	}
	return false
}

func browserBin(t *testing.T) string {
	t.Helper()
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no chromium binary found")
	}
	return bin
}

func newRodPage(t *testing.T) Page {
	t.Helper()
	cfg := config.Default()
	cfg.Rod.Bin = browserBin(t)
	cfg.Rod.UserDataDir = t.TempDir()

	browser, err := InitRodBrowser(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = browser.Close() })

	ctx := context.Background()
	session, err := browser.NewSession(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	page, err := session.NewPage(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = page.Close() })
	return page
}

func TestRodPage_NavigateStatus(t *testing.T) {
	site := newSiteServer(t)
	page := newRodPage(t)
	ctx := context.Background()

	status, err := page.Navigate(ctx, site.URL+"/", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Search Demo", title)

	status, err = page.Navigate(ctx, site.URL+"/missing", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRodPage_BlocksImages(t *testing.T) {
	site := newSiteServer(t)
	page := newRodPage(t)
	ctx := context.Background()

	_, err := page.Navigate(ctx, site.URL+"/", 15*time.Second)
	require.NoError(t, err)
	page.Settle(ctx, 5*time.Second)

	assert.True(t, site.served("/"))
	assert.False(t, site.served("/pixel.png"), "image requests never reach the network")

	input, err := page.Query(ctx, `input[type="search"]`)
	require.NoError(t, err)
	name, err := input.Attribute("name")
	require.NoError(t, err)
	assert.Equal(t, "q", name)

	_, err = page.Query(ctx, "textarea")
	assert.ErrorIs(t, err, ErrNoElement)
}

func TestRodPage_ObserveRequests(t *testing.T) {
	site := newSiteServer(t)
	page := newRodPage(t)
	ctx := context.Background()

	_, err := page.Navigate(ctx, site.URL+"/", 15*time.Second)
	require.NoError(t, err)

	obs := page.ObserveRequests(func(url string) bool {
		return strings.Contains(url, "/api/search")
	})
	button, err := page.Query(ctx, "#go")
	require.NoError(t, err)
	require.NoError(t, button.Click())
	assert.Eventually(t, obs.Fired, 5*time.Second, 50*time.Millisecond)

	detached := make(chan struct{})
	go func() {
		obs.Detach()
		close(detached)
	}()
	select {
	case <-detached:
	case <-time.After(5 * time.Second):
		t.Fatal("Detach did not return")
	}

	// the page stays usable after the observer is gone
	_, err = page.Title(ctx)
	assert.NoError(t, err)
}

func TestRodPage_WaitSelectorTimeout(t *testing.T) {
	site := newSiteServer(t)
	page := newRodPage(t)
	ctx := context.Background()

	_, err := page.Navigate(ctx, site.URL+"/", 15*time.Second)
	require.NoError(t, err)

	require.NoError(t, page.WaitSelector(ctx, "#go", 5*time.Second))

	start := time.Now()
	assert.Error(t, page.WaitSelector(ctx, "#absent", 300*time.Millisecond))
	assert.Less(t, time.Since(start), 5*time.Second)

	// an expired wait leaves no deadline on later calls
	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Search Demo", title)
}
