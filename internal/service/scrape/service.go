package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/entity"
	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/collector"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence"
	"github.com/LouYuanbo1/searchagent/internal/service/article"
	"github.com/LouYuanbo1/searchagent/param"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	ErrInvalidRequest = errors.New("base_url or base_url_id is required")
	ErrNoSearchTerms  = errors.New("no keywords, subsegment, or segment found for this site")
)

// Result summarizes one scrape.
type Result struct {
	BaseURL         string   `json:"base_url"`
	BaseURLID       string   `json:"base_url_id"`
	Subsegment      string   `json:"subsegment,omitempty"`
	Segment         string   `json:"segment,omitempty"`
	TermSource      string   `json:"term_source"`
	SearchTerms     []string `json:"search_terms"`
	UniqueLinks     int      `json:"unique_links"`
	AfterDateFilter int      `json:"after_date_filter"`
	Inserted        int      `json:"inserted"`
	Skipped         int      `json:"skipped"`
}

// linkSource records where a harvested link was first seen.
type linkSource struct {
	keyword   string
	searchURL string
	method    string
}

// Service searches a site with its stored pattern and stores the articles found.
type Service struct {
	browser chrome.Browser
	store   persistence.ArticleStore
	// fetcher loads article pages; nil means a tab in the scrape session.
	fetcher collector.Fetcher
	opts    Options
}

func NewService(browser chrome.Browser, store persistence.ArticleStore, fetcher collector.Fetcher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.InsertBatchSize = max(opts.InsertBatchSize, 1)
	return &Service{browser: browser, store: store, fetcher: fetcher, opts: opts}
}

// Run executes a scrape. progress receives human readable milestones and may be nil.
func (s *Service) Run(ctx context.Context, req param.Scrape, progress func(string)) (*Result, error) {
	if progress == nil {
		progress = func(string) {}
	}
	if !req.IsValid() {
		return nil, ErrInvalidRequest
	}

	site, err := s.store.FindSite(ctx, strings.TrimSpace(req.BaseURLID), strings.TrimRight(strings.TrimSpace(req.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site: %w", err)
	}
	terms, source := site.SearchTerms()
	if len(terms) == 0 {
		return nil, ErrNoSearchTerms
	}
	baseURL := strings.TrimRight(site.BaseURL, "/")
	pattern, err := s.store.LoadSearchPattern(ctx, site.ID, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load search pattern for %s: %w", site.ID, err)
	}
	progress(fmt.Sprintf("Pattern loaded: method=%s | %d terms", pattern.Method, len(terms)))

	result := &Result{
		BaseURL:     baseURL,
		BaseURLID:   site.ID,
		Subsegment:  site.Subsegment,
		Segment:     site.Segment,
		TermSource:  source,
		SearchTerms: terms,
	}

	session, err := s.browser.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.Close()

	links, err := s.collectLinks(ctx, session, baseURL, terms, pattern, progress)
	if err != nil {
		return nil, err
	}
	result.UniqueLinks = links.Len()
	progress(fmt.Sprintf("Phase 1 done, %d unique links", links.Len()))

	var rows []*entity.ArticleRow
	if req.SkipArticleVisit || links.Len() == 0 {
		progress("Phase 2 skipped")
		rows = s.linkOnlyRows(site, source, links)
		result.Inserted, result.Skipped = s.insert(ctx, rows)
	} else {
		fetcher := s.fetcher
		if fetcher == nil {
			page, err := session.NewPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to open article page: %w", err)
			}
			defer page.Close()
			fetcher = collector.NewPageFetcher(page, s.opts.NavigationTimeout, s.opts.ArticleWait)
		}
		rows, result.Inserted, result.Skipped = s.visitArticles(ctx, article.NewExtractor(fetcher), site, source, links, progress)
	}
	result.AfterDateFilter = len(rows)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress(fmt.Sprintf("DONE, inserted=%d skipped=%d", result.Inserted, result.Skipped))
	return result, nil
}

func (s *Service) collectLinks(
	ctx context.Context,
	session chrome.Session,
	baseURL string,
	terms []string,
	pattern model.SearchPattern,
	progress func(string),
) (*orderedmap.OrderedMap[string, linkSource], error) {
	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open search page: %w", err)
	}
	defer page.Close()

	links := orderedmap.New[string, linkSource]()
	srch := searcher{opts: s.opts}
	for i, term := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(fmt.Sprintf("[%d/%d] Searching '%s'", i+1, len(terms), term))
		res := srch.search(ctx, page, baseURL, term, pattern)
		if res.Err != nil {
			logrus.WithError(res.Err).WithFields(logrus.Fields{"base_url": baseURL, "keyword": term}).Warn("keyword search failed")
		}
		added := 0
		for _, c := range res.Links {
			if _, seen := links.Get(c.URL); seen {
				continue
			}
			links.Set(c.URL, linkSource{keyword: term, searchURL: res.SearchURL, method: res.Method})
			added++
		}
		progress(fmt.Sprintf("'%s' -> status=%s links=%d new=%d total=%d", term, res.Status, len(res.Links), added, links.Len()))
		_ = sleep(ctx, s.opts.TermPause)
	}
	return links, nil
}

func (s *Service) visitArticles(
	ctx context.Context,
	extractor *article.Extractor,
	site *model.Site,
	source string,
	links *orderedmap.OrderedMap[string, linkSource],
	progress func(string),
) (rows []*entity.ArticleRow, inserted, skipped int) {
	cutoff := s.opts.Now().Add(-s.opts.RecencyWindow)
	var batch []*entity.ArticleRow
	flush := func() {
		ins, skip := s.insert(ctx, batch)
		inserted += ins
		skipped += skip
		progress(fmt.Sprintf("Batch inserted=%d skipped=%d", ins, skip))
		batch = nil
	}

	idx := 0
	for pair := links.Oldest(); pair != nil; pair = pair.Next() {
		if ctx.Err() != nil {
			break
		}
		idx++
		if idx%10 == 0 {
			progress(fmt.Sprintf("Article %d/%d ...", idx, links.Len()))
		}
		details := extractor.Extract(ctx, pair.Key)
		if keep, reason := article.WithinRecencyWindow(details.PublishedAt, cutoff); !keep {
			logrus.WithFields(logrus.Fields{"url": pair.Key, "reason": reason}).Info("article dropped by date filter")
			continue
		}
		row := s.newRow(site, source, pair.Key, pair.Value)
		row.Article = details
		rows = append(rows, row)
		batch = append(batch, row)
		if len(batch) >= s.opts.InsertBatchSize {
			flush()
		}
	}
	if len(batch) > 0 {
		flush()
	}
	return rows, inserted, skipped
}

func (s *Service) linkOnlyRows(site *model.Site, source string, links *orderedmap.OrderedMap[string, linkSource]) []*entity.ArticleRow {
	rows := make([]*entity.ArticleRow, 0, links.Len())
	for pair := links.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, s.newRow(site, source, pair.Key, pair.Value))
	}
	return rows
}

func (s *Service) newRow(site *model.Site, source, link string, src linkSource) *entity.ArticleRow {
	return &entity.ArticleRow{
		Link:           link,
		SiteID:         site.ID,
		SubsegmentName: site.Subsegment,
		Keyword:        src.keyword,
		SearchURL:      src.searchURL,
		MethodUsed:     src.method,
		TermSource:     source,
		Status:         entity.ArticleStatusPending,
		CreatedAt:      s.opts.Now(),
	}
}

// insert stores rows in chunks. A failed chunk counts as skipped.
func (s *Service) insert(ctx context.Context, rows []*entity.ArticleRow) (inserted, skipped int) {
	for _, chunk := range lo.Chunk(rows, s.opts.InsertBatchSize) {
		ins, skip, err := s.store.InsertArticles(ctx, chunk)
		if err != nil {
			logrus.WithError(err).WithField("rows", len(chunk)).Error("failed to insert articles")
			skipped += len(chunk) - ins
			inserted += ins
			continue
		}
		inserted += ins
		skipped += skip
	}
	return inserted, skipped
}
