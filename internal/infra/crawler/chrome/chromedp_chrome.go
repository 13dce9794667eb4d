package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// Renderer returns the DOM of a page after its scripts ran.
type Renderer interface {
	Render(ctx context.Context, url string, timeout time.Duration) (string, error)
	Close()
}

// chromedpRenderer runs one browser at a time. A browser older than lifeTime
// is replaced on the next Render.
type chromedpRenderer struct {
	parent   context.Context
	opts     []chromedp.ExecAllocatorOption
	lifeTime time.Duration

	mu         sync.Mutex
	browserCtx context.Context
	stop       context.CancelFunc
	closed     bool
}

func InitChromedpRenderer(ctx context.Context, cfg *config.Config) (Renderer, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Chromedp.Headless),
		chromedp.Flag("disable-dev-shm-usage", cfg.Chromedp.DisableDevShmUsage),
		chromedp.Flag("no-sandbox", cfg.Chromedp.NoSandbox),
		chromedp.UserAgent(cfg.Chromedp.UserAgent),
	)
	if cfg.Chromedp.Bin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Chromedp.Bin))
	}
	if cfg.Chromedp.DisableBlinkFeatures != "" {
		opts = append(opts, chromedp.Flag("disable-blink-features", cfg.Chromedp.DisableBlinkFeatures))
	}
	if cfg.Chromedp.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Chromedp.UserDataDir))
	}
	cr := &chromedpRenderer{
		parent:   ctx,
		opts:     opts,
		lifeTime: time.Duration(cfg.Chromedp.LifeTime) * time.Second,
	}
	if _, err := cr.browser(); err != nil {
		return nil, err
	}
	return cr, nil
}

// browser returns the live browser context, starting a new browser when the
// previous one expired.
func (cr *chromedpRenderer) browser() (context.Context, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if cr.closed {
		return nil, ErrNotConnected
	}
	if cr.browserCtx != nil && cr.browserCtx.Err() == nil {
		return cr.browserCtx, nil
	}
	if err := cr.parent.Err(); err != nil {
		return nil, err
	}
	restart := cr.stop != nil
	if restart {
		cr.stop()
		cr.browserCtx, cr.stop = nil, nil
	}

	lifeCtx, lifeCancel := cr.parent, context.CancelFunc(func() {})
	if cr.lifeTime > 0 {
		lifeCtx, lifeCancel = context.WithTimeout(cr.parent, cr.lifeTime)
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(lifeCtx, cr.opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	stop := func() {
		browserCancel()
		allocCancel()
		lifeCancel()
	}

	// first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		stop()
		return nil, fmt.Errorf("failed to start chromedp browser: %w", err)
	}
	if restart {
		logrus.WithField("life_time", cr.lifeTime).Info("chromedp browser restarted")
	}
	cr.browserCtx, cr.stop = browserCtx, stop
	return browserCtx, nil
}

func (cr *chromedpRenderer) Render(ctx context.Context, url string, timeout time.Duration) (string, error) {
	browserCtx, err := cr.browser()
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html string
	err = chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	return html, nil
}

func (cr *chromedpRenderer) Close() {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.closed = true
	if cr.stop != nil {
		cr.stop()
		cr.browserCtx, cr.stop = nil, nil
	}
}
