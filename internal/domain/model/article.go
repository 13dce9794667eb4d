package model

// ArticleCandidate is a link harvested from a result page.
type ArticleCandidate struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchor_text"`
}

// ExtractedArticle holds the fields pulled from one article detail page.
// Every field is optional.
type ExtractedArticle struct {
	Title       string   `json:"article_title,omitempty"`
	PublishedAt string   `json:"article_date,omitempty"`
	BodyText    string   `json:"extracted_text,omitempty"`
	Companies   []string `json:"companies_mentioned,omitempty"`
	Locations   []string `json:"location,omitempty"`
}
