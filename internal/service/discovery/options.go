package discovery

import (
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
)

type Options struct {
	Keyword          string
	InputThreshold   int
	UrlThreshold     int
	SettleTimeout    time.Duration
	IconInputWait    time.Duration
	UrlFastTimeout   time.Duration
	UrlSlowTimeout   time.Duration
	RestoreAfter     bool
	RestoreTimeout   time.Duration
	MinResultAnchors int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Keyword:          cfg.Discovery.TestKeyword,
		InputThreshold:   cfg.Discovery.InputThreshold,
		UrlThreshold:     cfg.Discovery.UrlThreshold,
		SettleTimeout:    cfg.SettleTimeout(),
		IconInputWait:    cfg.IconInputWait(),
		UrlFastTimeout:   cfg.UrlFastTimeout(),
		UrlSlowTimeout:   cfg.UrlSlowTimeout(),
		RestoreAfter:     cfg.Discovery.RestoreAfterProbe,
		RestoreTimeout:   cfg.RestoreTimeout(),
		MinResultAnchors: cfg.Discovery.MinResultAnchorCount,
	}
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}
