package discovery

import (
	"context"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// IconStrategy clicks search icons and probes whatever input they reveal.
type IconStrategy struct {
	prober
	icons  []string
	inputs []string
}

func NewIconStrategy(opts Options, icons, inputs []string) *IconStrategy {
	return &IconStrategy{prober: prober{opts: opts}, icons: icons, inputs: inputs}
}

func (s *IconStrategy) Method() model.Method { return model.MethodIcon }

func (s *IconStrategy) Execute(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
	for _, icon := range s.icons {
		if ctx.Err() != nil {
			return model.SearchPattern{}, false
		}
		if !s.reveal(ctx, page, icon) {
			continue
		}
		for _, input := range s.inputs {
			if ctx.Err() != nil {
				return model.SearchPattern{}, false
			}
			res := s.probe(ctx, page, input, false)
			if res.accepted {
				logrus.WithFields(logrus.Fields{
					"base_url":    baseURL,
					"icon":        icon,
					"input":       input,
					"confidence":  res.outcome.Score,
					"result_type": res.outcome.ResultType,
				}).Debug("icon probe accepted")
				return model.SearchPattern{
					Method:     model.MethodIcon,
					Pattern:    icon,
					Confidence: res.outcome.Score,
					ResultType: res.outcome.ResultType,
				}, true
			}
			// the page was reloaded, open the search UI again
			if res.navigated && !s.reveal(ctx, page, icon) {
				break
			}
		}
	}
	return model.SearchPattern{}, false
}

// reveal clicks a visible icon and waits briefly for an input to appear.
func (s *IconStrategy) reveal(ctx context.Context, page chrome.Page, icon string) bool {
	el, err := page.Query(ctx, icon)
	if err != nil {
		return false
	}
	if visible, err := el.Visible(); err != nil || !visible {
		return false
	}
	if err := el.Click(); err != nil {
		return false
	}
	_ = page.WaitSelector(ctx, "input", s.opts.IconInputWait)
	return true
}
