package discovery

import (
	"context"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
)

const minContentLength = 500

var (
	searchURLTokens  = []string{"search", "?q=", "?s=", "query="}
	resultIndicators = []string{"search result", "results for", "no results", "found"}
	modalIndicators  = []string{"modal", "popup", "overlay"}
)

// Outcome is the validator's verdict for a single probe attempt.
type Outcome struct {
	Score      int
	ResultType string
}

// Baseline is the page state captured before an interaction.
// An empty URL or HasHash=false means that input was not supplied.
type Baseline struct {
	URL     string
	Hash    uint64
	HasHash bool
}

func Fingerprint(html string) uint64 {
	return xxhash.Sum64String(html)
}

// CaptureBaseline records the current URL and content hash of page.
func CaptureBaseline(ctx context.Context, page chrome.Page) (Baseline, error) {
	u, err := page.URL(ctx)
	if err != nil {
		return Baseline{}, err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return Baseline{}, err
	}
	return Baseline{URL: u, Hash: Fingerprint(html), HasHash: true}, nil
}

// Validate scores the live state of page against base.
func Validate(ctx context.Context, page chrome.Page, base Baseline, keyword string) Outcome {
	u, err := page.URL(ctx)
	if err != nil {
		return Outcome{0, model.ResultError}
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return Outcome{0, model.ResultError}
	}
	return Score(u, html, base, keyword)
}

// Score applies the additive scoring rules to a page snapshot.
// Later rules may relabel the outcome but never lower the score.
func Score(currentURL, html string, base Baseline, keyword string) Outcome {
	if len(html) < minContentLength {
		return Outcome{0, model.ResultEmpty}
	}
	score := 0
	label := model.ResultUnknown
	content := strings.ToLower(html)
	urlLower := strings.ToLower(currentURL)
	sameURL := base.URL != "" && trimSlash(currentURL) == trimSlash(base.URL)

	if base.URL != "" && !sameURL {
		score += 2
		label = model.ResultRedirect
	}
	if containsAny(urlLower, searchURLTokens) {
		score += 2
		if label == model.ResultUnknown || label == model.ResultRedirect {
			label = model.ResultSearchUrl
		}
	}
	contentChanged := base.HasHash && Fingerprint(html) != base.Hash
	if contentChanged {
		score++
		if label == model.ResultUnknown {
			label = model.ResultSamePage
		}
	}
	if keyword != "" && strings.Contains(content, strings.ToLower(keyword)) {
		score++
	}
	if containsAny(content, resultIndicators) {
		score++
	}
	if countAnchors(html) >= 5 {
		score++
	}
	// counted on top of the content-change point above
	if sameURL && contentChanged {
		score += 2
		label = model.ResultAjax
	}
	if containsAny(content, modalIndicators) {
		label = model.ResultModal
	}
	return Outcome{min(score, model.MaxConfidence), label}
}

func countAnchors(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return doc.Find("a").Length()
}

func trimSlash(u string) string {
	return strings.TrimRight(u, "/")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
