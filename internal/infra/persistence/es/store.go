package es

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/entity"
	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/embedding"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"github.com/sirupsen/logrus"
)

type store struct {
	sites    TypedEsClient[*model.SiteDocument]
	patterns TypedEsClient[*model.PatternDocument]
	articles TypedEsClient[*model.ArticleDocument]
	// nil disables article embeddings
	embedder embedding.Embedder
}

// InitStore wires one typed client per index and makes sure the indices exist.
func InitStore(ctx context.Context, client *elasticsearch.TypedClient, embedder embedding.Embedder) (persistence.Store, error) {
	s := &store{
		sites:    InitTypedEsClient[*model.SiteDocument](client),
		patterns: InitTypedEsClient[*model.PatternDocument](client),
		articles: InitTypedEsClient[*model.ArticleDocument](client),
		embedder: embedder,
	}
	for _, create := range []func(context.Context) error{
		s.sites.CreateIndexWithMapping,
		s.patterns.CreateIndexWithMapping,
		s.articles.CreateIndexWithMapping,
	} {
		if err := create(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *store) Close() error {
	return nil
}

func (s *store) UpsertSite(ctx context.Context, site *model.Site) error {
	return s.sites.IndexDocWithID(ctx, model.NewSiteDocument(site))
}

func (s *store) FetchUnprocessedDomains(ctx context.Context, limit int, exclude ...string) ([]model.DomainTask, error) {
	mustNot := []types.Query{
		{Term: map[string]types.TermQuery{"search_processed": {Value: true}}},
	}
	if len(exclude) > 0 {
		mustNot = append(mustNot, types.Query{Ids: &types.IdsQuery{Values: exclude}})
	}
	docs, _, err := s.sites.SearchDoc(ctx, &types.Query{Bool: &types.BoolQuery{MustNot: mustNot}}, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed domains: %w", err)
	}
	tasks := make([]model.DomainTask, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, model.DomainTask{DomainID: d.ID, BaseURL: d.BaseURL})
	}
	return tasks, nil
}

func (s *store) SaveSearchPattern(ctx context.Context, domainID, baseURL string, pattern model.SearchPattern) error {
	if !pattern.Persistable() {
		return nil
	}
	doc := &model.PatternDocument{
		SiteID:     domainID,
		BaseURL:    baseURL,
		Method:     pattern.Method,
		Pattern:    pattern.Pattern,
		Confidence: pattern.Confidence,
		ResultType: pattern.ResultType,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.patterns.IndexDocWithID(ctx, doc); err != nil {
		return err
	}
	return s.MarkProcessed(ctx, domainID)
}

func (s *store) MarkProcessed(ctx context.Context, domainID string) error {
	return s.sites.UpdateFields(ctx, domainID, map[string]any{"search_processed": true})
}

func baseURLQuery(baseURL string) *types.Query {
	should := make([]types.Query, 0, 3)
	for _, v := range persistence.BaseURLVariants(baseURL) {
		should = append(should, types.Query{Term: map[string]types.TermQuery{"base_url": {Value: v}}})
	}
	return &types.Query{Bool: &types.BoolQuery{Should: should}}
}

func (s *store) FindSite(ctx context.Context, id, baseURL string) (*model.Site, error) {
	if id != "" {
		doc, err := s.sites.GetDoc(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, persistence.ErrSiteNotFound
		}
		return doc.ToSite(), nil
	}
	docs, _, err := s.sites.SearchDoc(ctx, baseURLQuery(baseURL), 0, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, persistence.ErrSiteNotFound
	}
	return docs[0].ToSite(), nil
}

func (s *store) LoadSearchPattern(ctx context.Context, id, baseURL string) (model.SearchPattern, error) {
	if id != "" {
		doc, err := s.patterns.GetDoc(ctx, id)
		if err != nil {
			return model.SearchPattern{}, err
		}
		if doc != nil {
			return doc.ToPattern(), nil
		}
		if baseURL == "" {
			return model.SearchPattern{}, persistence.ErrPatternNotFound
		}
	}
	docs, _, err := s.patterns.SearchDoc(ctx, baseURLQuery(baseURL), 0, 1)
	if err != nil {
		return model.SearchPattern{}, err
	}
	if len(docs) == 0 {
		return model.SearchPattern{}, persistence.ErrPatternNotFound
	}
	return docs[0].ToPattern(), nil
}

func (s *store) InsertArticles(ctx context.Context, rows []*entity.ArticleRow) (int, int, error) {
	docs := make([]*model.ArticleDocument, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.ToDocument())
	}
	if s.embedder != nil {
		if err := embedding.EmbedDocuments(ctx, s.embedder, docs); err != nil {
			// articles are still stored without vectors
			logrus.WithError(err).Warn("failed to embed articles")
		}
	}
	res, err := s.articles.BulkCreateDocs(ctx, docs)
	if err != nil {
		return 0, 0, err
	}
	if res.Failed > 0 {
		logrus.WithField("failed", res.Failed).Warn("some articles were not stored")
	}
	return res.Created, res.Existing, nil
}
