package discovery

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome/chrometest"
	"github.com/stretchr/testify/require"
)

const (
	testBase    = "https://example.com"
	testKeyword = "automationtest123"
)

// htmlWith renders a page over the minimum content length with n anchors.
func htmlWith(n int, extra string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>t</title></head><body>")
	for i := range n {
		fmt.Fprintf(&b, `<a href="/item/%d">item %d</a>`, i, i)
	}
	b.WriteString(extra)
	b.WriteString("<p>" + strings.Repeat("lorem ipsum dolor sit amet ", 25) + "</p></body></html>")
	return b.String()
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.SettleTimeout = 10 * time.Millisecond
	opts.IconInputWait = 10 * time.Millisecond
	opts.UrlFastTimeout = 50 * time.Millisecond
	opts.UrlSlowTimeout = 100 * time.Millisecond
	opts.RestoreTimeout = 100 * time.Millisecond
	return opts
}

// openSeed navigates a fresh page of b to url.
func openSeed(t *testing.T, b *chrometest.Browser, url string) *chrometest.Page {
	t.Helper()
	ctx := context.Background()
	s, err := b.NewSession(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	p, err := s.NewPage(ctx)
	require.NoError(t, err)
	_, err = p.Navigate(ctx, url, time.Second)
	require.NoError(t, err)
	return p.(*chrometest.Page)
}

// resultsOnEnter makes Enter navigate to a query URL with a result listing.
func resultsOnEnter(p *chrometest.Page, value string) {
	p.Load(testBase+"/?q="+value, htmlWith(12, ""))
}
