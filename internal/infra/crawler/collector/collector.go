package collector

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Response is a fetched page parsed into a goquery document.
type Response struct {
	URL    string
	Status int
	Doc    *goquery.Document
}

// Fetcher retrieves a single page without a live browser tab.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}
