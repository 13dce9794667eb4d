package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrape_IsValid(t *testing.T) {
	assert.False(t, (&Scrape{}).IsValid())
	assert.False(t, (&Scrape{BaseURL: "  "}).IsValid())
	assert.True(t, (&Scrape{BaseURL: "https://example.com"}).IsValid())
	assert.True(t, (&Scrape{BaseURLID: "site-1"}).IsValid())
}

func TestProbe_IsValid(t *testing.T) {
	assert.True(t, (&Probe{BaseURL: "https://example.com"}).IsValid())
	assert.True(t, (&Probe{BaseURL: "http://example.com"}).IsValid())
	assert.False(t, (&Probe{BaseURL: "example.com"}).IsValid())
	assert.False(t, (&Probe{}).IsValid())
}
