package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/entity"
	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) persistence.Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSites(t *testing.T, s persistence.Store, n int) {
	t.Helper()
	for i := range n {
		err := s.UpsertSite(context.Background(), &model.Site{
			ID:      string(rune('a' + i)),
			BaseURL: "https://site" + string(rune('a'+i)) + ".com",
		})
		require.NoError(t, err)
	}
}

func TestFetchUnprocessedDomains_LimitAndExclude(t *testing.T) {
	s := createTestStore(t)
	seedSites(t, s, 4)
	ctx := context.Background()

	tasks, err := s.FetchUnprocessedDomains(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.DomainTask{
		{DomainID: "a", BaseURL: "https://sitea.com"},
		{DomainID: "b", BaseURL: "https://siteb.com"},
	}, tasks)

	tasks, err = s.FetchUnprocessedDomains(ctx, 10, "a", "c")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[0].DomainID)
	assert.Equal(t, "d", tasks[1].DomainID)
}

func TestFetchUnprocessedDomains_LargeExcludeSet(t *testing.T) {
	s := createTestStore(t)
	seedSites(t, s, 3)

	exclude := make([]string, 0, 40001)
	for i := range 40000 {
		exclude = append(exclude, fmt.Sprintf("site-%d", i))
	}
	exclude = append(exclude, "b")

	tasks, err := s.FetchUnprocessedDomains(context.Background(), 10, exclude...)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].DomainID)
	assert.Equal(t, "c", tasks[1].DomainID)
}

func TestSaveSearchPattern_UpsertsAndMarksProcessed(t *testing.T) {
	s := createTestStore(t)
	seedSites(t, s, 2)
	ctx := context.Background()

	first := model.SearchPattern{Method: model.MethodUrl, Pattern: "/search?q={}", Confidence: 3, ResultType: model.ResultUrl}
	require.NoError(t, s.SaveSearchPattern(ctx, "a", "https://sitea.com", first))
	second := model.SearchPattern{Method: model.MethodInput, Pattern: "input[name='q']", Confidence: 5, ResultType: model.ResultSearchUrl}
	require.NoError(t, s.SaveSearchPattern(ctx, "a", "https://sitea.com", second))

	got, err := s.LoadSearchPattern(ctx, "a", "")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	got, err = s.LoadSearchPattern(ctx, "", "https://sitea.com/")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	tasks, err := s.FetchUnprocessedDomains(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []model.DomainTask{{DomainID: "b", BaseURL: "https://siteb.com"}}, tasks)
}

func TestSaveSearchPattern_ZeroConfidenceIsNoop(t *testing.T) {
	s := createTestStore(t)
	seedSites(t, s, 1)
	ctx := context.Background()

	err := s.SaveSearchPattern(ctx, "a", "https://sitea.com", model.SearchPattern{Method: model.MethodFallback, Pattern: "/search-archive"})
	require.NoError(t, err)

	_, err = s.LoadSearchPattern(ctx, "a", "")
	assert.ErrorIs(t, err, persistence.ErrPatternNotFound)
	tasks, err := s.FetchUnprocessedDomains(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestMarkProcessed(t *testing.T) {
	s := createTestStore(t)
	seedSites(t, s, 1)
	ctx := context.Background()

	require.NoError(t, s.MarkProcessed(ctx, "a"))
	tasks, err := s.FetchUnprocessedDomains(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestFindSite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertSite(ctx, &model.Site{
		ID: "x", BaseURL: "https://example.com/", Subsegment: "Batteries", Keywords: []string{"lithium"},
	}))

	site, err := s.FindSite(ctx, "", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "x", site.ID)
	assert.Equal(t, []string{"lithium"}, site.Keywords)

	site, err = s.FindSite(ctx, "x", "")
	require.NoError(t, err)
	assert.Equal(t, "Batteries", site.Subsegment)

	_, err = s.FindSite(ctx, "missing", "")
	assert.ErrorIs(t, err, persistence.ErrSiteNotFound)
}

func TestInsertArticles_SkipsDuplicateLinks(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	now := time.Now()
	row := func(link string) *entity.ArticleRow {
		return &entity.ArticleRow{
			Link:      link,
			Article:   model.ExtractedArticle{Title: "t", Companies: []string{"Acme Corp"}},
			SiteID:    "x",
			Keyword:   "k",
			Status:    entity.ArticleStatusPending,
			CreatedAt: now,
		}
	}

	inserted, skipped, err := s.InsertArticles(ctx, []*entity.ArticleRow{row("https://e.com/a/1"), row("https://e.com/a/2")})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, skipped)

	inserted, skipped, err = s.InsertArticles(ctx, []*entity.ArticleRow{row("https://e.com/a/2"), row("https://e.com/a/3")})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, skipped)
}
