package param

import "strings"

// Scrape selects the site a scrape job runs against. BaseURLID wins over
// BaseURL when both are set.
type Scrape struct {
	BaseURL          string `json:"base_url"`
	BaseURLID        string `json:"base_url_id,omitempty"`
	SkipArticleVisit bool   `json:"skip_article_visit"`
}

func (s *Scrape) IsValid() bool {
	return strings.TrimSpace(s.BaseURL) != "" || strings.TrimSpace(s.BaseURLID) != ""
}

// Probe runs discovery against a single site without persisting it.
type Probe struct {
	BaseURL string `json:"base_url"`
}

func (p *Probe) IsValid() bool {
	return strings.HasPrefix(p.BaseURL, "http://") || strings.HasPrefix(p.BaseURL, "https://")
}
