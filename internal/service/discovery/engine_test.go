package discovery

import (
	"context"
	"testing"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome/chrometest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(testOptions(), DefaultSelectors())
}

func TestEngine_EndToEndInput(t *testing.T) {
	b := chrometest.NewBrowser()
	b.Route(testBase, chrometest.Route{
		HTML: htmlWith(3, ""),
		Setup: func(p *chrometest.Page) {
			p.Add(&chrometest.Element{Selectors: []string{"input[name='q']"}, OnEnter: resultsOnEnter})
		},
	})
	p := openSeed(t, b, testBase)

	got, ok := newTestEngine().Discover(context.Background(), p, testBase)

	require.True(t, ok)
	assert.Equal(t, model.SearchPattern{
		Method: model.MethodInput, Pattern: "input[name='q']", Confidence: 5, ResultType: model.ResultSearchUrl,
	}, got)
}

func TestEngine_InputBeatsUrl(t *testing.T) {
	b := chrometest.NewBrowser()
	b.Route(testBase, chrometest.Route{
		HTML: htmlWith(3, ""),
		Setup: func(p *chrometest.Page) {
			p.Add(&chrometest.Element{Selectors: []string{"input[name='q']"}, OnEnter: resultsOnEnter})
		},
	})
	b.Route(testBase+"/search?q="+testKeyword, chrometest.Route{HTML: htmlWith(10, "")})
	p := openSeed(t, b, testBase)

	got, ok := newTestEngine().Discover(context.Background(), p, testBase)

	require.True(t, ok)
	assert.Equal(t, model.MethodInput, got.Method)
	assert.Equal(t, []string{testBase}, b.Navigated(), "url strategy must not run")
}

func TestEngine_UrlWhenNoInput(t *testing.T) {
	b := chrometest.NewBrowser()
	b.Route(testBase, chrometest.Route{HTML: htmlWith(3, "")})
	b.Route(testBase+"/search?q="+testKeyword, chrometest.Route{HTML: htmlWith(10, "")})
	p := openSeed(t, b, testBase)

	got, ok := newTestEngine().Discover(context.Background(), p, testBase)

	require.True(t, ok)
	assert.Equal(t, model.MethodUrl, got.Method)
	assert.Equal(t, "/search?q={}", got.Pattern)
}

func TestEngine_FallbackIsNotPersistable(t *testing.T) {
	b := chrometest.NewBrowser()
	b.Route(testBase, chrometest.Route{
		HTML: htmlWith(0, ""),
		Setup: func(p *chrometest.Page) {
			p.Add(&chrometest.Element{Selectors: []string{"a"}, Attrs: map[string]string{"href": "/search-archive"}})
		},
	})
	p := openSeed(t, b, testBase)

	got, ok := newTestEngine().Discover(context.Background(), p, testBase)

	require.True(t, ok)
	assert.Equal(t, model.SearchPattern{
		Method: model.MethodFallback, Pattern: "/search-archive", Confidence: 0, ResultType: model.ResultUnknown,
	}, got)
	assert.False(t, got.Persistable())
}

func TestEngine_CanceledContext(t *testing.T) {
	p := chrometest.NewPage(testBase, htmlWith(3, ""))
	p.Add(&chrometest.Element{Selectors: []string{"input[name='q']"}, OnEnter: resultsOnEnter})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := newTestEngine().Discover(ctx, p, testBase)
	assert.False(t, ok)
}
