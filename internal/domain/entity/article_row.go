package entity

import (
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/google/uuid"
)

const ArticleStatusPending = "pending"

// ArticleRow is an extracted article plus the context it was found in.
type ArticleRow struct {
	Link           string
	Article        model.ExtractedArticle
	SiteID         string
	SubsegmentName string
	Keyword        string
	SearchURL      string
	MethodUsed     string
	TermSource     string
	Status         string
	CreatedAt      time.Time
}

// ArticleID derives a stable id from the link, so re-inserting a link is a no-op.
func ArticleID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

func (r *ArticleRow) ID() string {
	return ArticleID(r.Link)
}

func (r *ArticleRow) ToDocument() *model.ArticleDocument {
	return &model.ArticleDocument{
		ID:         r.ID(),
		Link:       r.Link,
		Title:      r.Article.Title,
		Date:       r.Article.PublishedAt,
		Text:       r.Article.BodyText,
		Companies:  r.Article.Companies,
		Locations:  r.Article.Locations,
		SiteID:     r.SiteID,
		Subsegment: r.SubsegmentName,
		Keyword:    r.Keyword,
		SearchURL:  r.SearchURL,
		MethodUsed: r.MethodUsed,
		TermSource: r.TermSource,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
	}
}
