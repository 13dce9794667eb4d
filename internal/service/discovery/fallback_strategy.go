package discovery

import (
	"context"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
)

// FallbackStrategy reports the first anchor pointing at something search-like.
// Its patterns carry zero confidence and are diagnostic only.
type FallbackStrategy struct{}

func NewFallbackStrategy() *FallbackStrategy { return &FallbackStrategy{} }

func (s *FallbackStrategy) Method() model.Method { return model.MethodFallback }

func (s *FallbackStrategy) Execute(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
	links, err := page.QueryAll(ctx, "a")
	if err != nil {
		return model.SearchPattern{}, false
	}
	for _, link := range links {
		href, err := link.Attribute("href")
		if err != nil || href == "" {
			continue
		}
		if strings.Contains(strings.ToLower(href), "search") {
			return model.SearchPattern{
				Method:     model.MethodFallback,
				Pattern:    href,
				Confidence: 0,
				ResultType: model.ResultUnknown,
			}, true
		}
	}
	return model.SearchPattern{}, false
}
