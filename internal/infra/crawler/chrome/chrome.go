package chrome

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoElement    = errors.New("element not found")
	ErrPageClosed   = errors.New("page closed")
	ErrNotConnected = errors.New("browser not connected")
)

// Browser owns the browser process. It is safe to open sessions concurrently.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
	Connected() bool
	Close() error
}

// Session is an isolated browsing context with its own cookies and cache.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab. A page is used by one goroutine at a time.
type Page interface {
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	// Navigate loads url and returns the main document's HTTP status, 0 when unknown.
	Navigate(ctx context.Context, url string, timeout time.Duration) (int, error)
	// Query returns the first element matching selector without waiting, or ErrNoElement.
	Query(ctx context.Context, selector string) (Element, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	WaitSelector(ctx context.Context, selector string, timeout time.Duration) error
	// Settle blocks until the page is quiet or timeout elapses.
	Settle(ctx context.Context, timeout time.Duration)
	ObserveRequests(match func(url string) bool) RequestObserver
	// Sibling opens another page in the same session.
	Sibling(ctx context.Context) (Page, error)
	Close() error
}

type Element interface {
	Visible() (bool, error)
	// Attribute returns "" when the attribute is absent.
	Attribute(name string) (string, error)
	Text() (string, error)
	// Fill replaces the current value with text.
	Fill(text string) error
	PressEnter() error
	Click() error
}

// RequestObserver records whether a matching outgoing request was seen.
type RequestObserver interface {
	Fired() bool
	Detach()
}
