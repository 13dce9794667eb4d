package discovery

import (
	"context"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
)

// Strategy is one heuristic for locating a site's search affordance.
// A false return means no signal; strategies never fail the caller.
type Strategy interface {
	Method() model.Method
	Execute(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool)
}

const submitSelector = "button[type='submit'], input[type='submit']"

var skippedInputTypes = []string{"email", "password", "tel", "number"}

func isSearchRequest(u string) bool {
	return containsAny(strings.ToLower(u), searchURLTokens)
}

// prober runs the fill, submit and validate protocol for one input selector.
type prober struct {
	opts Options
}

type probeResult struct {
	outcome  Outcome
	network  bool
	accepted bool
	// navigated reports that the page was restored to the baseline URL.
	navigated bool
}

func (p prober) probe(ctx context.Context, page chrome.Page, selector string, observe bool) (res probeResult) {
	el, err := page.Query(ctx, selector)
	if err != nil {
		return res
	}
	if visible, err := el.Visible(); err != nil || !visible {
		return res
	}
	inputType, err := el.Attribute("type")
	if err != nil {
		return res
	}
	for _, t := range skippedInputTypes {
		if strings.EqualFold(inputType, t) {
			return res
		}
	}
	base, err := CaptureBaseline(ctx, page)
	if err != nil {
		return res
	}

	var obs chrome.RequestObserver
	if observe {
		obs = page.ObserveRequests(isSearchRequest)
		defer obs.Detach()
	}
	fired := func() bool { return obs != nil && obs.Fired() }

	defer func() {
		if !res.accepted {
			res.navigated = p.restore(ctx, page, base.URL)
		}
	}()

	if err := el.Fill(p.opts.Keyword); err != nil {
		return res
	}
	if err := el.PressEnter(); err != nil {
		return res
	}
	page.Settle(ctx, p.opts.SettleTimeout)

	if fired() {
		res.outcome = Outcome{4, model.ResultNetwork}
		res.network, res.accepted = true, true
		return res
	}
	res.outcome = p.validate(ctx, page, base)
	if res.outcome.Score >= p.opts.InputThreshold {
		res.accepted = true
		return res
	}

	btn, err := page.Query(ctx, submitSelector)
	if err != nil {
		return res
	}
	if visible, err := btn.Visible(); err != nil || !visible {
		return res
	}
	if err := btn.Click(); err != nil {
		return res
	}
	page.Settle(ctx, p.opts.SettleTimeout)
	if fired() {
		res.outcome = Outcome{4, model.ResultNetwork}
		res.network, res.accepted = true, true
		return res
	}
	res.outcome = p.validate(ctx, page, base)
	res.accepted = res.outcome.Score >= p.opts.InputThreshold
	return res
}

// validate compares against base. The content hash only counts when the
// probe stayed on the baseline URL, a new document always hashes differently.
func (p prober) validate(ctx context.Context, page chrome.Page, base Baseline) Outcome {
	current, err := page.URL(ctx)
	if err != nil {
		return Outcome{0, model.ResultError}
	}
	if trimSlash(current) != trimSlash(base.URL) {
		base.HasHash = false
	}
	return Validate(ctx, page, base, p.opts.Keyword)
}

func (p prober) restore(ctx context.Context, page chrome.Page, baseURL string) bool {
	if !p.opts.RestoreAfter || ctx.Err() != nil {
		return false
	}
	current, err := page.URL(ctx)
	if err != nil || trimSlash(current) == trimSlash(baseURL) {
		return false
	}
	if _, err := page.Navigate(ctx, baseURL, p.opts.RestoreTimeout); err != nil {
		return false
	}
	return true
}
