package chrome

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/options"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"
)

type rodBrowser struct {
	browser      *rod.Browser
	launcher     *launcher.Launcher
	blockedTypes []proto.NetworkResourceType
	connected    atomic.Bool
}

// InitRodBrowser launches (or attaches to) a browser process.
func InitRodBrowser(cfg *config.Config) (Browser, error) {
	controlURL := cfg.Rod.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = options.CreateLauncher(
			options.WithBin(cfg.Rod.Bin),
			options.WithUserDataDir(cfg.Rod.UserDataDir),
			options.WithHeadless(cfg.Rod.Headless),
			options.WithDisableBlinkFeatures(cfg.Rod.DisableBlinkFeatures),
			options.WithDisableDevShmUsage(cfg.Rod.DisableDevShmUsage),
			options.WithNoSandbox(cfg.Rod.NoSandbox),
			options.WithUserAgent(cfg.Rod.UserAgent),
			options.WithLeakless(cfg.Rod.Leakless),
		)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Trace(cfg.Rod.Trace)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}
	logrus.WithField("control_url", controlURL).Info("browser connected")

	blocked := make([]proto.NetworkResourceType, 0, len(cfg.Rod.BlockedResourceTypes))
	for _, t := range cfg.Rod.BlockedResourceTypes {
		blocked = append(blocked, proto.NetworkResourceType(t))
	}
	rb := &rodBrowser{browser: browser, launcher: l, blockedTypes: blocked}
	rb.connected.Store(true)
	return rb, nil
}

func (rb *rodBrowser) Connected() bool {
	return rb.connected.Load()
}

func (rb *rodBrowser) NewSession(ctx context.Context) (Session, error) {
	if !rb.Connected() {
		return nil, ErrNotConnected
	}
	incognito, err := rb.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}
	return &rodSession{browser: incognito, blockedTypes: rb.blockedTypes}, nil
}

func (rb *rodBrowser) Close() error {
	rb.connected.Store(false)
	err := rb.browser.Close()
	if rb.launcher != nil {
		rb.launcher.Kill()
	}
	return err
}

type rodSession struct {
	browser      *rod.Browser
	blockedTypes []proto.NetworkResourceType
}

func (rs *rodSession) NewPage(ctx context.Context) (Page, error) {
	page, err := stealth.Page(rs.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	var router *rod.HijackRouter
	if len(rs.blockedTypes) > 0 {
		router = page.HijackRequests()
		for _, t := range rs.blockedTypes {
			err := router.Add("*", t, func(h *rod.Hijack) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			})
			if err != nil {
				_ = page.Close()
				return nil, fmt.Errorf("failed to block resource type %s: %w", t, err)
			}
		}
		go router.Run()
	}
	return &rodPage{page: page, session: rs, router: router}, nil
}

// Close disposes the incognito context and every page in it.
func (rs *rodSession) Close() error {
	return rs.browser.Close()
}

type rodPage struct {
	page    *rod.Page
	session *rodSession
	router  *rod.HijackRouter
	closed  atomic.Bool
}

func (rp *rodPage) URL(ctx context.Context) (string, error) {
	res, err := rp.page.Context(ctx).Eval(`() => location.href`)
	if err != nil {
		return "", fmt.Errorf("failed to read page url: %w", err)
	}
	return res.Value.Str(), nil
}

func (rp *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := rp.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

func (rp *rodPage) Title(ctx context.Context) (string, error) {
	res, err := rp.page.Context(ctx).Eval(`() => document.title`)
	if err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return res.Value.Str(), nil
}

func (rp *rodPage) Navigate(ctx context.Context, url string, timeout time.Duration) (int, error) {
	p := rp.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return 0, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	wait()
	if err := p.GetContext().Err(); err != nil {
		return 0, fmt.Errorf("navigation to %s timed out: %w", url, err)
	}
	res, err := p.Eval(`() => {
		const nav = performance.getEntriesByType('navigation')[0];
		return nav && nav.responseStatus ? nav.responseStatus : 0;
	}`)
	if err != nil {
		return 0, nil
	}
	return res.Value.Int(), nil
}

func (rp *rodPage) Query(ctx context.Context, selector string) (Element, error) {
	has, el, err := rp.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if !has {
		return nil, ErrNoElement
	}
	return &rodElement{el: el}, nil
}

func (rp *rodPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := rp.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (rp *rodPage) WaitSelector(ctx context.Context, selector string, timeout time.Duration) error {
	p := rp.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	_, err := p.Element(selector)
	return err
}

func (rp *rodPage) Settle(ctx context.Context, timeout time.Duration) {
	p := rp.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	if err := p.WaitLoad(); err != nil {
		return
	}
	_ = p.WaitDOMStable(300*time.Millisecond, 0)
}

func (rp *rodPage) ObserveRequests(match func(url string) bool) RequestObserver {
	ctx, cancel := context.WithCancel(rp.page.GetContext())
	obs := &rodObserver{cancel: cancel, done: make(chan struct{})}
	wait := rp.page.Context(ctx).EachEvent(func(e *proto.NetworkRequestWillBeSent) {
		if match(e.Request.URL) {
			obs.fired.Store(true)
		}
	})
	go func() {
		defer close(obs.done)
		wait()
	}()
	return obs
}

func (rp *rodPage) Sibling(ctx context.Context) (Page, error) {
	return rp.session.NewPage(ctx)
}

func (rp *rodPage) Close() error {
	if !rp.closed.CompareAndSwap(false, true) {
		return nil
	}
	if rp.router != nil {
		_ = rp.router.Stop()
	}
	return rp.page.Close()
}

type rodObserver struct {
	fired  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

func (o *rodObserver) Fired() bool {
	return o.fired.Load()
}

// Detach stops listening and waits for the event loop to exit.
func (o *rodObserver) Detach() {
	o.cancel()
	<-o.done
}

type rodElement struct {
	el *rod.Element
}

func (re *rodElement) Visible() (bool, error) {
	return re.el.Visible()
}

func (re *rodElement) Attribute(name string) (string, error) {
	v, err := re.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (re *rodElement) Text() (string, error) {
	return re.el.Text()
}

func (re *rodElement) Fill(text string) error {
	if err := re.el.SelectAllText(); err != nil {
		return err
	}
	return re.el.Input(text)
}

func (re *rodElement) PressEnter() error {
	return re.el.Type(input.Enter)
}

func (re *rodElement) Click() error {
	return re.el.Click(proto.InputMouseButtonLeft, 1)
}
