package scrape

import (
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
)

type Options struct {
	NavigationTimeout         time.Duration
	SearchNavigationTimeout   time.Duration
	FallbackNavigationTimeout time.Duration
	FallbackSettle            time.Duration
	SettleTimeout             time.Duration
	IconWait                  time.Duration
	ResultWait                time.Duration
	TermPause                 time.Duration
	ArticleWait               time.Duration
	InsertBatchSize           int
	RecencyWindow             time.Duration
	// Now is the clock the recency cutoff is computed from.
	Now func() time.Time
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		NavigationTimeout:         cfg.ScrapeNavigationTimeout(),
		SearchNavigationTimeout:   cfg.SearchNavigationTimeout(),
		FallbackNavigationTimeout: cfg.SearchNavigationTimeout(),
		FallbackSettle:            cfg.FallbackSettle(),
		SettleTimeout:             cfg.SettleTimeout(),
		IconWait:                  cfg.IconWait(),
		ResultWait:                cfg.ResultWait(),
		TermPause:                 cfg.TermPause(),
		ArticleWait:               cfg.ArticleWait(),
		InsertBatchSize:           cfg.Scrape.InsertBatchSize,
		RecencyWindow:             cfg.RecencyWindow(),
		Now:                       time.Now,
	}
}
