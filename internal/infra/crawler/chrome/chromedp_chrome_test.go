package chrome

import (
	"context"
	"testing"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromedpRenderer_RestartsAfterLifeTime(t *testing.T) {
	site := newSiteServer(t)
	cfg := config.Default()
	cfg.Chromedp.Bin = browserBin(t)
	cfg.Chromedp.LifeTime = 5

	renderer, err := InitChromedpRenderer(context.Background(), cfg)
	require.NoError(t, err)
	defer renderer.Close()

	html, err := renderer.Render(context.Background(), site.URL+"/", 15*time.Second)
	require.NoError(t, err)
	assert.Contains(t, html, "Search Demo")

	time.Sleep(6 * time.Second)

	html, err = renderer.Render(context.Background(), site.URL+"/", 15*time.Second)
	require.NoError(t, err, "an expired browser is replaced")
	assert.Contains(t, html, "Search Demo")
}

func TestChromedpRenderer_Closed(t *testing.T) {
	cfg := config.Default()
	cfg.Chromedp.Bin = browserBin(t)

	renderer, err := InitChromedpRenderer(context.Background(), cfg)
	require.NoError(t, err)
	renderer.Close()

	_, err = renderer.Render(context.Background(), "about:blank", time.Second)
	assert.ErrorIs(t, err, ErrNotConnected)
}
