package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/searchagent/internal/service/article"
	"github.com/LouYuanbo1/searchagent/internal/service/discovery"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Keyword search statuses.
const (
	SearchSuccess         = "success"
	SearchNoLinks         = "no_links"
	SearchNoPatternWorked = "no_pattern_worked"
	SearchUnreachable     = "unreachable"
	SearchFailed          = "failed"
)

type fallbackPattern struct {
	label   string
	method  model.Method
	pattern string
}

// fallbackPatterns are tried in order when the stored pattern does not work.
var fallbackPatterns = []fallbackPattern{
	{"url_search_param", model.MethodUrl, "?s={}"},
	{"url_query_param", model.MethodUrl, "?q={}"},
	{"url_search_path", model.MethodUrl, "search?q={}"},
	{"url_search_path_s", model.MethodUrl, "search?s={}"},
	{"url_search_slash", model.MethodUrl, "search/{}/"},
	{"url_tag_path", model.MethodUrl, "?tag={}"},
	{"input_name_search", model.MethodInput, "input[name='search']"},
	{"input_name_q", model.MethodInput, "input[name='q']"},
	{"input_name_s", model.MethodInput, "input[name='s']"},
	{"input_type_search", model.MethodInput, "input[type='search']"},
	{"input_placeholder", model.MethodInput, "input[placeholder*='earch' i]"},
	{"input_class_search", model.MethodInput, "input[class*='search' i]"},
	{"input_id_search", model.MethodInput, "input[id*='search' i]"},
	{"icon_aria_search", model.MethodIcon, "button[aria-label*='Search' i]"},
	{"icon_class_search", model.MethodIcon, "button[class*='search' i]"},
	{"icon_i_search", model.MethodIcon, "i[class*='search' i]"},
	{"icon_svg_search", model.MethodIcon, "svg[class*='search' i]"},
	{"icon_srch_btn", model.MethodIcon, ".search-button"},
	{"icon_srch_icn", model.MethodIcon, ".search-icon"},
	{"icon_srch_tog", model.MethodIcon, ".search-toggle"},
}

// inputs looked for once a search icon has been clicked; any visible
// input is the last resort
var postIconInputs = []string{
	"input[type='search']", "input[name='q']", "input[name='s']",
	"input[placeholder*='earch' i]", "input[class*='search' i]",
}

// KeywordResult is the outcome of searching one term on a site.
type KeywordResult struct {
	Keyword   string                   `json:"keyword"`
	Status    string                   `json:"status"`
	SearchURL string                   `json:"search_url,omitempty"`
	Method    string                   `json:"method,omitempty"`
	Links     []model.ArticleCandidate `json:"links"`
	Err       error                    `json:"-"`
}

// searcher drives a stored search pattern on a live page.
type searcher struct {
	opts Options
}

func (s searcher) search(ctx context.Context, page chrome.Page, baseURL, keyword string, pattern model.SearchPattern) KeywordResult {
	res := KeywordResult{Keyword: keyword, Status: SearchFailed}
	if _, err := page.Navigate(ctx, baseURL, s.opts.NavigationTimeout); err != nil {
		res.Status, res.Err = SearchUnreachable, err
		return res
	}

	ok := false
	if pattern.Method != "" && pattern.Method != model.MethodFallback {
		if ok = s.drive(ctx, page, baseURL, keyword, pattern.Method, pattern.Pattern); ok {
			res.Method = string(pattern.Method)
		}
	}
	if !ok {
		for _, fb := range fallbackPatterns {
			if ctx.Err() != nil {
				break
			}
			if fb.method != model.MethodUrl {
				if _, err := page.Navigate(ctx, baseURL, s.opts.FallbackNavigationTimeout); err != nil {
					continue
				}
				if err := sleep(ctx, s.opts.FallbackSettle); err != nil {
					break
				}
			}
			if ok = s.drive(ctx, page, baseURL, keyword, fb.method, fb.pattern); ok {
				res.Method = fmt.Sprintf("fallback_%s:%s", fb.method, fb.label)
				break
			}
		}
	}
	if !ok {
		res.Status = SearchNoPatternWorked
		return res
	}

	if u, err := page.URL(ctx); err == nil {
		res.SearchURL = u
	}
	if err := sleep(ctx, s.opts.ResultWait); err != nil {
		res.Err = err
		return res
	}
	html, err := page.HTML(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		res.Err = err
		return res
	}
	res.Links = article.Harvest(doc, baseURL)
	if len(res.Links) > 0 {
		res.Status = SearchSuccess
	} else {
		res.Status = SearchNoLinks
	}
	return res
}

func (s searcher) drive(ctx context.Context, page chrome.Page, baseURL, keyword string, method model.Method, pattern string) bool {
	switch method {
	case model.MethodUrl:
		return s.tryURL(ctx, page, baseURL, keyword, pattern)
	case model.MethodInput:
		return s.tryInput(ctx, page, pattern, keyword)
	case model.MethodIcon:
		return s.tryIcon(ctx, page, pattern, keyword)
	}
	return false
}

func (s searcher) tryURL(ctx context.Context, page chrome.Page, baseURL, keyword, tmpl string) bool {
	target, err := discovery.BuildSearchURL(baseURL, tmpl, keyword)
	if err != nil {
		return false
	}
	status, err := page.Navigate(ctx, target, s.opts.SearchNavigationTimeout)
	if err != nil {
		logrus.WithError(err).WithField("url", target).Debug("search url failed")
		return false
	}
	return status < 400
}

func (s searcher) tryInput(ctx context.Context, page chrome.Page, selector, keyword string) bool {
	el, err := page.Query(ctx, selector)
	if err != nil {
		return false
	}
	if err := el.Click(); err != nil {
		return false
	}
	return s.submit(ctx, page, el, keyword)
}

func (s searcher) tryIcon(ctx context.Context, page chrome.Page, selector, keyword string) bool {
	icon, err := page.Query(ctx, selector)
	if err != nil {
		return false
	}
	if err := icon.Click(); err != nil {
		return false
	}
	if err := sleep(ctx, s.opts.IconWait); err != nil {
		return false
	}
	for _, sel := range postIconInputs {
		el, err := page.Query(ctx, sel)
		if err != nil {
			continue
		}
		if visible, err := el.Visible(); err == nil && visible {
			return s.submit(ctx, page, el, keyword)
		}
	}
	inputs, err := page.QueryAll(ctx, "input")
	if err != nil {
		return false
	}
	for _, el := range inputs {
		if visible, err := el.Visible(); err == nil && visible {
			return s.submit(ctx, page, el, keyword)
		}
	}
	return false
}

func (s searcher) submit(ctx context.Context, page chrome.Page, el chrome.Element, keyword string) bool {
	if err := el.Fill(keyword); err != nil {
		return false
	}
	if err := el.PressEnter(); err != nil {
		return false
	}
	page.Settle(ctx, s.opts.SettleTimeout)
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
