package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/PuerkitoBio/goquery"
)

type pageFetcher struct {
	page    chrome.Page
	timeout time.Duration
	wait    time.Duration
}

// NewPageFetcher fetches through a live browser tab. Every Fetch navigates
// page, so the returned Fetcher must not be shared between goroutines.
func NewPageFetcher(page chrome.Page, timeout, wait time.Duration) Fetcher {
	return &pageFetcher{page: page, timeout: timeout, wait: wait}
}

func (pf *pageFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	status, err := pf.page.Navigate(ctx, url, pf.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate %s: %w", url, err)
	}
	if status >= 400 {
		return &Response{URL: url, Status: status}, nil
	}
	if pf.wait > 0 {
		timer := time.NewTimer(pf.wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	current, err := pf.page.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read url of %s: %w", url, err)
	}
	html, err := pf.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read html of %s: %w", url, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return &Response{URL: current, Status: status, Doc: doc}, nil
}
