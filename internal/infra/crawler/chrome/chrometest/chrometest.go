// Package chrometest provides an in-memory implementation of the chrome
// interfaces for exercising page-driving code without a browser.
package chrometest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
)

var ErrUnreachable = errors.New("net::ERR_NAME_NOT_RESOLVED")

// Route describes what navigating to a URL produces.
type Route struct {
	Status int
	HTML   string
	// FinalURL is the URL after redirects, defaults to the requested one.
	FinalURL string
	Delay    time.Duration
	Err      error
	// Setup installs elements and hooks on the freshly loaded page.
	Setup func(p *Page)
}

type Browser struct {
	mu        sync.Mutex
	routes    map[string]Route
	open      int
	maxOpen   int
	sessions  int
	navigated []string
	closed    bool
}

func NewBrowser() *Browser {
	return &Browser{routes: make(map[string]Route)}
}

func (b *Browser) Route(url string, r Route) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[url] = r
}

func (b *Browser) lookup(url string) (Route, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigated = append(b.navigated, url)
	r, ok := b.routes[url]
	return r, ok
}

func (b *Browser) NewSession(ctx context.Context) (chrome.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, chrome.ErrNotConnected
	}
	b.open++
	b.sessions++
	b.maxOpen = max(b.maxOpen, b.open)
	return &Session{browser: b}, nil
}

func (b *Browser) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// OpenSessions is the number of sessions not yet closed.
func (b *Browser) OpenSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// MaxOpenSessions is the highest number of sessions open at the same time.
func (b *Browser) MaxOpenSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxOpen
}

func (b *Browser) TotalSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions
}

// Navigated lists every URL a page was pointed at, in order.
func (b *Browser) Navigated() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.navigated)
}

type Session struct {
	browser *Browser
	mu      sync.Mutex
	pages   []*Page
	closed  bool
}

func (s *Session) NewPage(ctx context.Context) (chrome.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, chrome.ErrPageClosed
	}
	p := &Page{session: s, url: "about:blank"}
	s.pages = append(s.pages, p)
	return p, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pages := slices.Clone(s.pages)
	s.mu.Unlock()

	for _, p := range pages {
		_ = p.Close()
	}
	s.browser.mu.Lock()
	s.browser.open--
	s.browser.mu.Unlock()
	return nil
}

// NewPage returns a standalone page already showing html at url.
func NewPage(url, html string) *Page {
	b := NewBrowser()
	s := &Session{browser: b}
	p := &Page{session: s, url: url, html: html}
	s.pages = append(s.pages, p)
	return p
}

type Page struct {
	session *Session

	mu        sync.Mutex
	url       string
	html      string
	title     string
	elements  []*Element
	observers []*observer
	closed    bool

	// ReadErr makes URL and HTML fail.
	ReadErr error
}

// Browser returns the fake browser this page belongs to.
func (p *Page) Browser() *Browser {
	return p.session.browser
}

// Load replaces the page state as if a navigation completed.
func (p *Page) Load(url, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.html = html
	p.elements = nil
}

// SetHTML changes the content without navigating.
func (p *Page) SetHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
}

func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

func (p *Page) Add(els ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, el := range els {
		el.page = p
		p.elements = append(p.elements, el)
	}
}

// EmitRequest delivers an outgoing request URL to attached observers.
func (p *Page) EmitRequest(url string) {
	p.mu.Lock()
	obs := slices.Clone(p.observers)
	p.mu.Unlock()
	for _, o := range obs {
		o.deliver(url)
	}
}

// ActiveObservers is the number of observers not yet detached.
func (p *Page) ActiveObservers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.observers)
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReadErr != nil {
		return "", p.ReadErr
	}
	return p.url, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReadErr != nil {
		return "", p.ReadErr
	}
	return p.html, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) (int, error) {
	r, ok := p.session.browser.lookup(url)
	if !ok {
		return 0, fmt.Errorf("navigate %s: %w", url, ErrUnreachable)
	}
	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		deadline := time.NewTimer(timeout)
		defer deadline.Stop()
		select {
		case <-timer.C:
		case <-deadline.C:
			return 0, fmt.Errorf("navigate %s: %w", url, context.DeadlineExceeded)
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if r.Err != nil {
		return 0, r.Err
	}
	final := r.FinalURL
	if final == "" {
		final = url
	}
	p.Load(final, r.HTML)
	if r.Setup != nil {
		r.Setup(p)
	}
	status := r.Status
	if status == 0 {
		status = 200
	}
	return status, nil
}

func (p *Page) Query(ctx context.Context, selector string) (chrome.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, el := range p.elements {
		if el.matches(selector) {
			return el, nil
		}
	}
	return nil, chrome.ErrNoElement
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]chrome.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []chrome.Element
	for _, el := range p.elements {
		if el.matches(selector) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (p *Page) WaitSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if _, err := p.Query(ctx, selector); err != nil {
		return err
	}
	return nil
}

func (p *Page) Settle(ctx context.Context, timeout time.Duration) {}

func (p *Page) ObserveRequests(match func(url string) bool) chrome.RequestObserver {
	o := &observer{page: p, match: match}
	p.mu.Lock()
	p.observers = append(p.observers, o)
	p.mu.Unlock()
	return o
}

func (p *Page) Sibling(ctx context.Context) (chrome.Page, error) {
	return p.session.NewPage(ctx)
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.observers = nil
	return nil
}

func (p *Page) detach(o *observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = slices.DeleteFunc(p.observers, func(x *observer) bool { return x == o })
}

type observer struct {
	page  *Page
	match func(string) bool
	mu    sync.Mutex
	fired bool
}

func (o *observer) deliver(url string) {
	if o.match(url) {
		o.mu.Lock()
		o.fired = true
		o.mu.Unlock()
	}
}

func (o *observer) Fired() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fired
}

func (o *observer) Detach() {
	o.page.detach(o)
}

// Element is a fake DOM node matched by exact selector strings.
type Element struct {
	Selectors []string
	Hidden    bool
	Attrs     map[string]string
	Content   string
	// OnEnter runs when Enter is pressed, with the current value.
	OnEnter func(p *Page, value string)
	OnClick func(p *Page)

	page  *Page
	mu    sync.Mutex
	value string
}

func (e *Element) matches(selector string) bool {
	return slices.Contains(e.Selectors, selector)
}

func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *Element) Visible() (bool, error) {
	return !e.Hidden, nil
}

func (e *Element) Attribute(name string) (string, error) {
	return e.Attrs[strings.ToLower(name)], nil
}

func (e *Element) Text() (string, error) {
	return e.Content, nil
}

func (e *Element) Fill(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = text
	return nil
}

func (e *Element) PressEnter() error {
	if e.OnEnter != nil {
		e.OnEnter(e.page, e.Value())
	}
	return nil
}

func (e *Element) Click() error {
	if e.OnClick != nil {
		e.OnClick(e.page)
	}
	return nil
}
