package discovery

import (
	"context"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// InputStrategy fills visible text inputs with the test keyword and submits them.
type InputStrategy struct {
	prober
	selectors []string
}

func NewInputStrategy(opts Options, selectors []string) *InputStrategy {
	return &InputStrategy{prober: prober{opts: opts}, selectors: selectors}
}

func (s *InputStrategy) Method() model.Method { return model.MethodInput }

func (s *InputStrategy) Execute(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool) {
	for _, selector := range s.selectors {
		if ctx.Err() != nil {
			return model.SearchPattern{}, false
		}
		res := s.probe(ctx, page, selector, true)
		if !res.accepted {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"base_url":    baseURL,
			"selector":    selector,
			"confidence":  res.outcome.Score,
			"result_type": res.outcome.ResultType,
		}).Debug("input probe accepted")
		return model.SearchPattern{
			Method:     model.MethodInput,
			Pattern:    selector,
			Confidence: res.outcome.Score,
			ResultType: res.outcome.ResultType,
		}, true
	}
	return model.SearchPattern{}, false
}
