package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/domain/entity"
	"github.com/LouYuanbo1/searchagent/internal/domain/model"
)

var (
	ErrSiteNotFound    = errors.New("site not found")
	ErrPatternNotFound = errors.New("search pattern not found")
)

// PatternStore is what the batch runner needs.
type PatternStore interface {
	// FetchUnprocessedDomains returns up to limit sites whose search is not
	// processed yet, skipping ids in exclude.
	FetchUnprocessedDomains(ctx context.Context, limit int, exclude ...string) ([]model.DomainTask, error)
	// SaveSearchPattern upserts the pattern keyed by domain and marks the
	// domain processed. Patterns with confidence <= 0 are ignored.
	SaveSearchPattern(ctx context.Context, domainID, baseURL string, pattern model.SearchPattern) error
	MarkProcessed(ctx context.Context, domainID string) error
}

// ArticleStore is what the scrape orchestrator needs.
type ArticleStore interface {
	// FindSite looks a site up by id, or by base URL when id is empty.
	FindSite(ctx context.Context, id, baseURL string) (*model.Site, error)
	LoadSearchPattern(ctx context.Context, id, baseURL string) (model.SearchPattern, error)
	// InsertArticles stores rows, skipping links that are already stored.
	InsertArticles(ctx context.Context, rows []*entity.ArticleRow) (inserted, skipped int, err error)
}

type Store interface {
	PatternStore
	ArticleStore
	UpsertSite(ctx context.Context, site *model.Site) error
	Close() error
}

// BaseURLVariants lists the forms a stored base URL may take.
func BaseURLVariants(u string) []string {
	trimmed := strings.TrimRight(u, "/")
	if trimmed == "" {
		return []string{u}
	}
	variants := []string{trimmed, trimmed + "/"}
	if u != trimmed && u != trimmed+"/" {
		variants = append([]string{u}, variants...)
	}
	return variants
}
