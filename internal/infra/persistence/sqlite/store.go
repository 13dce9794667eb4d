package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/domain/entity"
	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence"
	_ "github.com/mattn/go-sqlite3"
)

type store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (persistence.Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	s := &store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ses_base_url (
		base_url_id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		search_processed INTEGER NOT NULL DEFAULT 0,
		subsegment_name TEXT NOT NULL DEFAULT '',
		segment_name TEXT NOT NULL DEFAULT '',
		keywords TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_base_url ON ses_base_url (base_url);

	CREATE TABLE IF NOT EXISTS base_url_search_patterns (
		base_url_id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		method TEXT NOT NULL,
		pattern TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		result_type TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ses_unfiltered_articles (
		unfiltered_article_id TEXT PRIMARY KEY,
		article_link TEXT NOT NULL UNIQUE,
		article_title TEXT,
		article_date TEXT,
		extracted_text TEXT,
		companies_mentioned TEXT,
		location TEXT,
		base_url_id TEXT,
		subsegment_name TEXT,
		keyword_used TEXT,
		search_url TEXT,
		method_used TEXT,
		search_term_source TEXT,
		filter_article_status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *store) Close() error {
	return s.db.Close()
}

func (s *store) UpsertSite(ctx context.Context, site *model.Site) error {
	keywords, err := json.Marshal(nonNil(site.Keywords))
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ses_base_url (base_url_id, base_url, search_processed, subsegment_name, segment_name, keywords)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (base_url_id) DO UPDATE SET
			base_url = excluded.base_url,
			search_processed = excluded.search_processed,
			subsegment_name = excluded.subsegment_name,
			segment_name = excluded.segment_name,
			keywords = excluded.keywords
	`, site.ID, site.BaseURL, site.SearchProcessed, site.Subsegment, site.Segment, string(keywords))
	if err != nil {
		return fmt.Errorf("failed to upsert site %s: %w", site.ID, err)
	}
	return nil
}

func (s *store) FetchUnprocessedDomains(ctx context.Context, limit int, exclude ...string) ([]model.DomainTask, error) {
	query := `SELECT base_url_id, base_url FROM ses_base_url WHERE search_processed = 0`
	args := make([]any, 0, 2)
	if len(exclude) > 0 {
		// one bound parameter however many ids are excluded
		ids, err := json.Marshal(exclude)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal excluded domains: %w", err)
		}
		query += ` AND base_url_id NOT IN (SELECT value FROM json_each(?))`
		args = append(args, string(ids))
	}
	query += ` ORDER BY rowid LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed domains: %w", err)
	}
	defer rows.Close()

	var tasks []model.DomainTask
	for rows.Next() {
		var t model.DomainTask
		if err := rows.Scan(&t.DomainID, &t.BaseURL); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *store) SaveSearchPattern(ctx context.Context, domainID, baseURL string, pattern model.SearchPattern) error {
	if !pattern.Persistable() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO base_url_search_patterns (base_url_id, base_url, method, pattern, confidence, result_type, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (base_url_id) DO UPDATE SET
			base_url = excluded.base_url,
			method = excluded.method,
			pattern = excluded.pattern,
			confidence = excluded.confidence,
			result_type = excluded.result_type,
			updated_at = excluded.updated_at
	`, domainID, baseURL, string(pattern.Method), pattern.Pattern, pattern.Confidence, pattern.ResultType,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save pattern for %s: %w", domainID, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ses_base_url SET search_processed = 1 WHERE base_url_id = ?`, domainID); err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", domainID, err)
	}
	return tx.Commit()
}

func (s *store) MarkProcessed(ctx context.Context, domainID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE ses_base_url SET search_processed = 1 WHERE base_url_id = ?`, domainID)
	if err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", domainID, err)
	}
	return nil
}

func (s *store) FindSite(ctx context.Context, id, baseURL string) (*model.Site, error) {
	const cols = `SELECT base_url_id, base_url, search_processed, subsegment_name, segment_name, keywords FROM ses_base_url`
	var row *sql.Row
	if id != "" {
		row = s.db.QueryRowContext(ctx, cols+` WHERE base_url_id = ?`, id)
	} else {
		v := persistence.BaseURLVariants(baseURL)
		row = s.db.QueryRowContext(ctx, cols+` WHERE base_url IN (?`+strings.Repeat(", ?", len(v)-1)+`) LIMIT 1`, toArgs(v)...)
	}

	var (
		site     model.Site
		keywords string
	)
	err := row.Scan(&site.ID, &site.BaseURL, &site.SearchProcessed, &site.Subsegment, &site.Segment, &keywords)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrSiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &site.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords of %s: %w", site.ID, err)
	}
	return &site, nil
}

func (s *store) LoadSearchPattern(ctx context.Context, id, baseURL string) (model.SearchPattern, error) {
	const cols = `SELECT method, pattern, confidence, result_type FROM base_url_search_patterns`
	var row *sql.Row
	if id != "" {
		row = s.db.QueryRowContext(ctx, cols+` WHERE base_url_id = ?`, id)
	} else {
		v := persistence.BaseURLVariants(baseURL)
		row = s.db.QueryRowContext(ctx, cols+` WHERE base_url IN (?`+strings.Repeat(", ?", len(v)-1)+`) LIMIT 1`, toArgs(v)...)
	}
	var (
		p      model.SearchPattern
		method string
	)
	err := row.Scan(&method, &p.Pattern, &p.Confidence, &p.ResultType)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SearchPattern{}, persistence.ErrPatternNotFound
	}
	if err != nil {
		return model.SearchPattern{}, fmt.Errorf("failed to load pattern: %w", err)
	}
	p.Method = model.Method(method)
	return p, nil
}

func (s *store) InsertArticles(ctx context.Context, rows []*entity.ArticleRow) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO ses_unfiltered_articles (
			unfiltered_article_id, article_link, article_title, article_date, extracted_text,
			companies_mentioned, location, base_url_id, subsegment_name, keyword_used,
			search_url, method_used, search_term_source, filter_article_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rows {
		companies, _ := json.Marshal(nonNil(r.Article.Companies))
		locations, _ := json.Marshal(nonNil(r.Article.Locations))
		res, err := stmt.ExecContext(ctx,
			r.ID(), r.Link, r.Article.Title, r.Article.PublishedAt, r.Article.BodyText,
			string(companies), string(locations), r.SiteID, r.SubsegmentName, r.Keyword,
			r.SearchURL, r.MethodUsed, r.TermSource, r.Status, r.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to insert %s: %w", r.Link, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit articles: %w", err)
	}
	return inserted, len(rows) - inserted, nil
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
