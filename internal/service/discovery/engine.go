package discovery

import (
	"context"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// Engine runs strategies in priority order; the first hit wins.
type Engine struct {
	strategies []Strategy
}

// NewEngine builds the fixed Input, Icon, Url, Fallback chain.
func NewEngine(opts Options, sel Selectors) *Engine {
	return &Engine{strategies: []Strategy{
		NewInputStrategy(opts, sel.Input),
		NewIconStrategy(opts, sel.Icon, sel.Input),
		NewUrlStrategy(opts, sel.Url),
		NewFallbackStrategy(),
	}}
}

func (e *Engine) Discover(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			return model.SearchPattern{}, false
		}
		pattern, ok := s.Execute(ctx, page, baseURL)
		if ok {
			return pattern, true
		}
		logrus.WithFields(logrus.Fields{"base_url": baseURL, "method": s.Method()}).Debug("strategy found nothing")
	}
	return model.SearchPattern{}, false
}
