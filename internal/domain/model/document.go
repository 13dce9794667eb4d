package model

import (
	"time"

	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

const (
	IndexSites    = "ses_base_url"
	IndexPatterns = "base_url_search_patterns"
	IndexArticles = "ses_unfiltered_articles"
)

// Document is the set of types stored in Elasticsearch.
type Document interface {
	*SiteDocument | *PatternDocument | *ArticleDocument
	GetID() string
	GetIndex() string
	GetTypeMapping() *types.TypeMapping
}

type SiteDocument struct {
	ID              string   `json:"base_url_id"`
	BaseURL         string   `json:"base_url"`
	SearchProcessed bool     `json:"search_processed"`
	Subsegment      string   `json:"subsegment_name,omitempty"`
	Segment         string   `json:"segment_name,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

func (d *SiteDocument) GetID() string    { return d.ID }
func (d *SiteDocument) GetIndex() string { return IndexSites }

func (d *SiteDocument) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"base_url_id":      types.NewKeywordProperty(),
			"base_url":         types.NewKeywordProperty(),
			"search_processed": types.NewBooleanProperty(),
			"subsegment_name":  types.NewKeywordProperty(),
			"segment_name":     types.NewKeywordProperty(),
			"keywords":         types.NewKeywordProperty(),
		},
	}
}

func (d *SiteDocument) ToSite() *Site {
	return &Site{
		ID:              d.ID,
		BaseURL:         d.BaseURL,
		SearchProcessed: d.SearchProcessed,
		Subsegment:      d.Subsegment,
		Segment:         d.Segment,
		Keywords:        d.Keywords,
	}
}

func NewSiteDocument(s *Site) *SiteDocument {
	return &SiteDocument{
		ID:              s.ID,
		BaseURL:         s.BaseURL,
		SearchProcessed: s.SearchProcessed,
		Subsegment:      s.Subsegment,
		Segment:         s.Segment,
		Keywords:        s.Keywords,
	}
}

// PatternDocument is keyed by the site id, so saving twice overwrites.
type PatternDocument struct {
	SiteID     string    `json:"base_url_id"`
	BaseURL    string    `json:"base_url"`
	Method     Method    `json:"method"`
	Pattern    string    `json:"pattern"`
	Confidence int       `json:"confidence"`
	ResultType string    `json:"result_type"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (d *PatternDocument) GetID() string    { return d.SiteID }
func (d *PatternDocument) GetIndex() string { return IndexPatterns }

func (d *PatternDocument) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"base_url_id": types.NewKeywordProperty(),
			"base_url":    types.NewKeywordProperty(),
			"method":      types.NewKeywordProperty(),
			"pattern":     types.NewKeywordProperty(),
			"confidence":  types.NewIntegerNumberProperty(),
			"result_type": types.NewKeywordProperty(),
			"updated_at":  types.NewDateProperty(),
		},
	}
}

func (d *PatternDocument) ToPattern() SearchPattern {
	return SearchPattern{Method: d.Method, Pattern: d.Pattern, Confidence: d.Confidence, ResultType: d.ResultType}
}

type ArticleDocument struct {
	ID         string    `json:"unfiltered_article_id"`
	Link       string    `json:"article_link"`
	Title      string    `json:"article_title,omitempty"`
	Date       string    `json:"article_date,omitempty"`
	Text       string    `json:"extracted_text,omitempty"`
	Companies  []string  `json:"companies_mentioned,omitempty"`
	Locations  []string  `json:"location,omitempty"`
	SiteID     string    `json:"base_url_id"`
	Subsegment string    `json:"subsegment_name,omitempty"`
	Keyword    string    `json:"keyword_used"`
	SearchURL  string    `json:"search_url,omitempty"`
	MethodUsed string    `json:"method_used,omitempty"`
	TermSource string    `json:"search_term_source"`
	Status     string    `json:"filter_article_status"`
	CreatedAt  time.Time `json:"created_at"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

func (d *ArticleDocument) GetID() string    { return d.ID }
func (d *ArticleDocument) GetIndex() string { return IndexArticles }

func (d *ArticleDocument) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"unfiltered_article_id": types.NewKeywordProperty(),
			"article_link":          types.NewKeywordProperty(),
			"article_title":         types.NewTextProperty(),
			"article_date":          types.NewKeywordProperty(),
			"extracted_text":        types.NewTextProperty(),
			"companies_mentioned":   types.NewKeywordProperty(),
			"location":              types.NewKeywordProperty(),
			"base_url_id":           types.NewKeywordProperty(),
			"subsegment_name":       types.NewKeywordProperty(),
			"keyword_used":          types.NewKeywordProperty(),
			"search_url":            types.NewKeywordProperty(),
			"method_used":           types.NewKeywordProperty(),
			"search_term_source":    types.NewKeywordProperty(),
			"filter_article_status": types.NewKeywordProperty(),
			"created_at":            types.NewDateProperty(),
			"embedding":             types.NewDenseVectorProperty(),
		},
	}
}

// GetEmbeddingString is the text an embedding is computed from.
func (d *ArticleDocument) GetEmbeddingString() string {
	if d.Title == "" {
		return d.Text
	}
	return d.Title + "\n" + d.Text
}

func (d *ArticleDocument) SetEmbedding(embedding []float32) {
	d.Embedding = embedding
}
