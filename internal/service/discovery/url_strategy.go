package discovery

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// UrlStrategy guesses search result URLs from common templates.
type UrlStrategy struct {
	opts      Options
	templates []string
}

func NewUrlStrategy(opts Options, templates []string) *UrlStrategy {
	return &UrlStrategy{opts: opts, templates: templates}
}

func (s *UrlStrategy) Method() model.Method { return model.MethodUrl }

func (s *UrlStrategy) Execute(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
	probe, err := page.Sibling(ctx)
	if err != nil {
		logrus.WithError(err).WithField("base_url", baseURL).Debug("url strategy could not open page")
		return model.SearchPattern{}, false
	}
	defer probe.Close()

	base := Baseline{URL: baseURL}
	for _, tmpl := range s.templates {
		if ctx.Err() != nil {
			return model.SearchPattern{}, false
		}
		target, err := BuildSearchURL(baseURL, tmpl, s.opts.Keyword)
		if err != nil {
			continue
		}
		status, err := s.navigate(ctx, probe, target)
		if err != nil || status != 200 {
			continue
		}
		current, err := probe.URL(ctx)
		if err != nil {
			continue
		}
		lower := strings.ToLower(current)
		if !containsAny(lower, []string{"search", "q=", "?s=", "query="}) {
			continue
		}
		if trimSlash(lower) == trimSlash(strings.ToLower(baseURL)) {
			continue
		}
		html, err := probe.HTML(ctx)
		if err != nil || countAnchors(html) < s.opts.MinResultAnchors {
			continue
		}
		outcome := Score(current, html, base, s.opts.Keyword)
		if outcome.Score < s.opts.UrlThreshold {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"base_url":   baseURL,
			"template":   tmpl,
			"confidence": outcome.Score,
		}).Debug("url probe accepted")
		return model.SearchPattern{
			Method:     model.MethodUrl,
			Pattern:    tmpl,
			Confidence: outcome.Score,
			ResultType: model.ResultUrl,
		}, true
	}
	return model.SearchPattern{}, false
}

// navigate tries the fast timeout first and retries once with the slow one.
func (s *UrlStrategy) navigate(ctx context.Context, page chrome.Page, target string) (int, error) {
	var lastErr error
	for _, timeout := range []time.Duration{s.opts.UrlFastTimeout, s.opts.UrlSlowTimeout} {
		status, err := page.Navigate(ctx, target, timeout)
		if err == nil {
			return status, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return 0, lastErr
}

// BuildSearchURL fills the "{}" placeholder of tmpl with keyword and resolves
// it against baseURL.
func BuildSearchURL(baseURL, tmpl, keyword string) (string, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.ReplaceAll(tmpl, "{}", url.QueryEscape(keyword)))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
