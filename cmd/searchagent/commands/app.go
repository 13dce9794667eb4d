package commands

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/collector"
	"github.com/LouYuanbo1/searchagent/internal/infra/embedding"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence/es"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence/sqlite"
	"github.com/LouYuanbo1/searchagent/internal/service/batch"
	"github.com/LouYuanbo1/searchagent/internal/service/discovery"
	"github.com/LouYuanbo1/searchagent/internal/service/scrape"
	"github.com/sirupsen/logrus"
)

// app holds the long-lived dependencies shared by the subcommands.
type app struct {
	store    persistence.Store
	browser  chrome.Browser
	renderer chrome.Renderer
}

// newApp opens the store and, when withBrowser is set, launches the browser.
func newApp(ctx context.Context, cfg *config.Config, withBrowser bool) (*app, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: store}
	if !withBrowser {
		return a, nil
	}
	a.browser, err = chrome.InitRodBrowser(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (persistence.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreSqlite:
		return sqlite.Open(cfg.Sqlite.Path)
	case config.StoreElasticsearch:
		client, err := es.NewTypedClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
		}
		var embedder embedding.Embedder
		if cfg.Embedder.Enabled {
			embedder, err = embedding.InitEmbedder(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to init embedder: %w", err)
			}
		}
		return es.InitStore(ctx, client, embedder)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *app) runner(cfg *config.Config) *batch.Runner {
	engine := discovery.NewEngine(discovery.OptionsFromConfig(cfg), discovery.DefaultSelectors())
	return batch.NewRunner(a.browser, engine, a.store, batch.OptionsFromConfig(cfg))
}

// scraper builds the scrape service. Article pages go through colly when
// configured, otherwise through a tab of the scrape's browser session.
func (a *app) scraper(ctx context.Context, cfg *config.Config) (*scrape.Service, error) {
	var fetcher collector.Fetcher
	if cfg.Scrape.Fetcher == config.FetcherColly {
		if cfg.Colly.RenderJavascript && a.renderer == nil {
			renderer, err := chrome.InitChromedpRenderer(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to init chromedp renderer: %w", err)
			}
			a.renderer = renderer
		}
		var err error
		fetcher, err = collector.InitCollyFetcher(cfg, a.renderer)
		if err != nil {
			return nil, err
		}
	}
	return scrape.NewService(a.browser, a.store, fetcher, scrape.OptionsFromConfig(cfg)), nil
}

func (a *app) Close() {
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close browser")
		}
	}
	if err := a.store.Close(); err != nil {
		logrus.WithError(err).Warn("failed to close store")
	}
}
