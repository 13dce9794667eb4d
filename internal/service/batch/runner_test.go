package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome/chrometest"
	"github.com/LouYuanbo1/searchagent/internal/service/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var goodPattern = model.SearchPattern{
	Method: model.MethodInput, Pattern: "input[name='q']", Confidence: 5, ResultType: model.ResultSearchUrl,
}

type fakeStore struct {
	mu        sync.Mutex
	domains   []model.DomainTask
	saved     map[string]model.SearchPattern
	processed map[string]bool
	saveErr   error
	fetches   int
}

func newFakeStore(tasks ...model.DomainTask) *fakeStore {
	return &fakeStore{domains: tasks, saved: map[string]model.SearchPattern{}, processed: map[string]bool{}}
}

func (s *fakeStore) FetchUnprocessedDomains(ctx context.Context, limit int, exclude ...string) ([]model.DomainTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	var out []model.DomainTask
	for _, d := range s.domains {
		if s.processed[d.DomainID] || slices.Contains(exclude, d.DomainID) {
			continue
		}
		out = append(out, d)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) SaveSearchPattern(ctx context.Context, domainID, baseURL string, p model.SearchPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if p.Confidence <= 0 {
		return nil
	}
	s.saved[domainID] = p
	s.processed[domainID] = true
	return nil
}

func (s *fakeStore) MarkProcessed(ctx context.Context, domainID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[domainID] = true
	return nil
}

type engineFunc func(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool)

func (f engineFunc) Discover(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
	return f(ctx, page, baseURL)
}

func testOptions() Options {
	return Options{
		Concurrency:        2,
		BatchSize:          100,
		NavigationAttempts: 2,
		NavigationTimeout:  100 * time.Millisecond,
		DiscoveryTimeout:   time.Second,
	}
}

func tasks(b *chrometest.Browser, n int) []model.DomainTask {
	out := make([]model.DomainTask, n)
	for i := range n {
		u := fmt.Sprintf("https://site%d.example.com", i)
		b.Route(u, chrometest.Route{HTML: "<html><body>home</body></html>"})
		out[i] = model.DomainTask{DomainID: fmt.Sprintf("d%d", i), BaseURL: u}
	}
	return out
}

func TestRunner_ConcurrencyCeiling(t *testing.T) {
	b := chrometest.NewBrowser()
	ts := tasks(b, 10)
	store := newFakeStore(ts...)

	var active, peak atomic.Int32
	engine := engineFunc(func(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return goodPattern, true
	})

	results, summary := NewRunner(b, engine, store, testOptions()).Run(context.Background(), ts)

	require.Len(t, results, 10)
	assert.Equal(t, 10, summary.Counts[StatusSaved])
	assert.LessOrEqual(t, b.MaxOpenSessions(), 2)
	assert.LessOrEqual(t, int(peak.Load()), 2)
	assert.Equal(t, 0, b.OpenSessions(), "every session closed")
	assert.Equal(t, 10, b.TotalSessions(), "one session per domain")
	assert.Len(t, store.saved, 10)
	for i, res := range results {
		assert.Equal(t, ts[i], res.Task)
	}
}

func TestRunner_TimeoutIsolation(t *testing.T) {
	b := chrometest.NewBrowser()
	ts := tasks(b, 3)
	store := newFakeStore(ts...)

	release := make(chan struct{})
	defer close(release)
	engine := engineFunc(func(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
		if baseURL == ts[1].BaseURL {
			<-release
			return goodPattern, true
		}
		return goodPattern, true
	})
	opts := testOptions()
	opts.DiscoveryTimeout = 50 * time.Millisecond

	start := time.Now()
	results, summary := NewRunner(b, engine, store, opts).Run(context.Background(), ts)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusSaved, results[0].Status)
	assert.Equal(t, StatusTimeout, results[1].Status)
	assert.Error(t, results[1].Err)
	assert.Equal(t, StatusSaved, results[2].Status)
	assert.Equal(t, 1, summary.Counts[StatusTimeout])
	_, saved := store.saved["d1"]
	assert.False(t, saved)
}

func TestRunner_Statuses(t *testing.T) {
	b := chrometest.NewBrowser()
	ts := tasks(b, 3)
	unreachable := model.DomainTask{DomainID: "down", BaseURL: "https://down.example.com"}
	all := append(ts, unreachable)
	store := newFakeStore(all...)

	engine := engineFunc(func(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
		switch baseURL {
		case ts[0].BaseURL:
			return goodPattern, true
		case ts[1].BaseURL:
			return model.SearchPattern{Method: model.MethodFallback, Pattern: "/search", ResultType: model.ResultUnknown}, true
		}
		return model.SearchPattern{}, false
	})

	results, _ := NewRunner(b, engine, store, testOptions()).Run(context.Background(), all)

	assert.Equal(t, StatusSaved, results[0].Status)
	assert.Equal(t, StatusFallbackOnly, results[1].Status)
	assert.Equal(t, StatusNotFound, results[2].Status)
	assert.Equal(t, StatusUnreachable, results[3].Status)
	assert.ErrorIs(t, results[3].Err, chrometest.ErrUnreachable)

	attempts := 0
	for _, u := range b.Navigated() {
		if u == unreachable.BaseURL {
			attempts++
		}
	}
	assert.Equal(t, 2, attempts, "navigation is retried once")
	assert.Equal(t, map[string]model.SearchPattern{"d0": goodPattern}, store.saved)
	assert.False(t, store.processed["d1"], "not-found domains stay retryable by default")
	assert.Equal(t, 0, b.OpenSessions())
}

func TestRunner_SaveFailed(t *testing.T) {
	b := chrometest.NewBrowser()
	ts := tasks(b, 1)
	store := newFakeStore(ts...)
	store.saveErr = errors.New("index unavailable")
	engine := engineFunc(func(context.Context, chrome.Page, string) (model.SearchPattern, bool) { return goodPattern, true })

	results, _ := NewRunner(b, engine, store, testOptions()).Run(context.Background(), ts)

	assert.Equal(t, StatusSaveFailed, results[0].Status)
	assert.EqualError(t, results[0].Err, "index unavailable")
}

func TestRunner_RunAllTerminates(t *testing.T) {
	b := chrometest.NewBrowser()
	ts := tasks(b, 5)
	store := newFakeStore(ts...)
	engine := engineFunc(func(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
		if baseURL == ts[0].BaseURL {
			return goodPattern, true
		}
		return model.SearchPattern{}, false
	})
	opts := testOptions()
	opts.BatchSize = 2

	summary, err := NewRunner(b, engine, store, opts).RunAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, summary.Domains)
	assert.Equal(t, 1, summary.Counts[StatusSaved])
	assert.Equal(t, 4, summary.Counts[StatusNotFound])
	assert.Equal(t, 5, b.TotalSessions(), "each domain attempted once")
	assert.Equal(t, 4, store.fetches)
}

func TestRunner_RunAllMarksNotFound(t *testing.T) {
	b := chrometest.NewBrowser()
	ts := tasks(b, 3)
	store := newFakeStore(ts...)
	engine := engineFunc(func(context.Context, chrome.Page, string) (model.SearchPattern, bool) {
		return model.SearchPattern{}, false
	})
	opts := testOptions()
	opts.MarkNotFoundProcessed = true

	summary, err := NewRunner(b, engine, store, opts).RunAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Counts[StatusNotFound])
	assert.Len(t, store.processed, 3)
}

func TestRunner_ProbeWithDiscoveryEngine(t *testing.T) {
	const site = "https://shop.example.com"
	listing := func(n int) string {
		var sb strings.Builder
		sb.WriteString("<html><body>")
		for i := range n {
			fmt.Fprintf(&sb, `<a href="/p/%d">result %d</a>`, i, i)
		}
		sb.WriteString("<p>" + strings.Repeat("search results for everything ", 30) + "</p></body></html>")
		return sb.String()
	}
	b := chrometest.NewBrowser()
	b.Route(site, chrometest.Route{
		HTML: listing(2),
		Setup: func(p *chrometest.Page) {
			p.Add(&chrometest.Element{
				Selectors: []string{"input[name='q']"},
				OnEnter: func(p *chrometest.Page, value string) {
					p.Load(site+"/?q="+value, listing(12))
				},
			})
		},
	})
	dopts := discovery.DefaultOptions()
	dopts.SettleTimeout = 10 * time.Millisecond
	engine := discovery.NewEngine(dopts, discovery.DefaultSelectors())
	store := newFakeStore()

	res := NewRunner(b, engine, store, testOptions()).Probe(context.Background(), site)

	require.NoError(t, res.Err)
	assert.Equal(t, StatusFound, res.Status)
	assert.Equal(t, model.MethodInput, res.Pattern.Method)
	assert.Equal(t, "input[name='q']", res.Pattern.Pattern)
	assert.Empty(t, store.saved, "probe never persists")
}
