package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/searchagent/internal/infra/persistence"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Discoverer finds the search pattern of the site loaded in page.
type Discoverer interface {
	Discover(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool)
}

type Options struct {
	Concurrency           int
	BatchSize             int
	NavigationAttempts    int
	NavigationTimeout     time.Duration
	PostLoadWait          time.Duration
	DiscoveryTimeout      time.Duration
	MarkNotFoundProcessed bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Concurrency:           cfg.Batch.Concurrency,
		BatchSize:             cfg.Batch.BatchSize,
		NavigationAttempts:    cfg.Batch.NavigationAttempts,
		NavigationTimeout:     cfg.NavigationTimeout(),
		PostLoadWait:          cfg.PostLoadWait(),
		DiscoveryTimeout:      cfg.DiscoveryTimeout(),
		MarkNotFoundProcessed: cfg.Batch.MarkNotFoundProcessed,
	}
}

// Runner applies discovery to many domains, at most Concurrency at a time.
// Every domain gets its own browser session.
type Runner struct {
	browser chrome.Browser
	engine  Discoverer
	store   persistence.PatternStore
	opts    Options
}

func NewRunner(browser chrome.Browser, engine Discoverer, store persistence.PatternStore, opts Options) *Runner {
	opts.Concurrency = max(opts.Concurrency, 1)
	opts.NavigationAttempts = max(opts.NavigationAttempts, 1)
	return &Runner{browser: browser, engine: engine, store: store, opts: opts}
}

// Run processes tasks and returns one result per task, in task order.
func (r *Runner) Run(ctx context.Context, tasks []model.DomainTask) ([]DomainResult, Summary) {
	start := time.Now()
	results := make([]DomainResult, len(tasks))
	sem := semaphore.NewWeighted(int64(r.opts.Concurrency))

	var g errgroup.Group
	for i, task := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(tasks); j++ {
				results[j] = DomainResult{Task: tasks[j], Status: StatusFailed, Err: err}
			}
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = r.process(ctx, task, true)
			return nil
		})
	}
	_ = g.Wait()

	summary := NewSummary()
	for _, res := range results {
		summary.Add(res)
	}
	summary.Elapsed = time.Since(start)
	logrus.WithFields(logrus.Fields{
		"domains": summary.Domains,
		"counts":  summary.Counts,
		"elapsed": summary.Elapsed,
	}).Info("batch finished")
	return results, summary
}

// RunAll keeps fetching unprocessed domains until the store has none left
// that this run has not attempted yet.
func (r *Runner) RunAll(ctx context.Context) (Summary, error) {
	total := NewSummary()
	start := time.Now()
	attempted := make(map[string]bool)
	for ctx.Err() == nil {
		tasks, err := r.store.FetchUnprocessedDomains(ctx, r.opts.BatchSize, lo.Keys(attempted)...)
		if err != nil {
			total.Elapsed = time.Since(start)
			return total, fmt.Errorf("failed to fetch unprocessed domains: %w", err)
		}
		fresh := lo.Filter(tasks, func(t model.DomainTask, _ int) bool { return !attempted[t.DomainID] })
		if len(fresh) == 0 {
			break
		}
		for _, t := range fresh {
			attempted[t.DomainID] = true
		}
		logrus.WithField("domains", len(fresh)).Info("fetched unprocessed batch")
		_, s := r.Run(ctx, fresh)
		total.Merge(s)
	}
	total.Elapsed = time.Since(start)
	logrus.WithFields(logrus.Fields{
		"domains": total.Domains,
		"counts":  total.Counts,
	}).Info("all batches completed")
	return total, ctx.Err()
}

// Probe runs discovery for one site without saving the result.
func (r *Runner) Probe(ctx context.Context, baseURL string) DomainResult {
	return r.process(ctx, model.DomainTask{BaseURL: baseURL}, false)
}

func (r *Runner) process(ctx context.Context, task model.DomainTask, persist bool) (res DomainResult) {
	res.Task = task
	start := time.Now()
	log := logrus.WithFields(logrus.Fields{"domain_id": task.DomainID, "base_url": task.BaseURL})
	defer func() {
		res.Elapsed = time.Since(start)
		entry := log.WithFields(logrus.Fields{"status": res.Status, "elapsed": res.Elapsed})
		if res.Err != nil {
			entry = entry.WithError(res.Err)
		}
		switch res.Status {
		case StatusSaved, StatusFound:
			entry.WithFields(logrus.Fields{
				"method":      res.Pattern.Method,
				"pattern":     res.Pattern.Pattern,
				"confidence":  res.Pattern.Confidence,
				"result_type": res.Pattern.ResultType,
			}).Info("search pattern found")
		case StatusNotFound, StatusFallbackOnly:
			entry.Info("search pattern not found")
		default:
			entry.Warn("domain failed")
		}
	}()

	session, err := r.browser.NewSession(ctx)
	if err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("failed to open session: %w", err)
		return res
	}
	defer session.Close()
	page, err := session.NewPage(ctx)
	if err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("failed to open page: %w", err)
		return res
	}
	defer page.Close()

	if err := r.navigate(ctx, page, task.BaseURL, log); err != nil {
		res.Status, res.Err = StatusUnreachable, err
		return res
	}
	if err := sleep(ctx, r.opts.PostLoadWait); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	pattern, ok, err := r.discover(ctx, page, task.BaseURL)
	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		res.Status, res.Err = StatusTimeout, fmt.Errorf("discovery exceeded %s", r.opts.DiscoveryTimeout)
		return res
	case err != nil:
		res.Status, res.Err = StatusFailed, err
		return res
	case !ok:
		res.Status = StatusNotFound
		r.markNotFound(ctx, task, persist, log)
		return res
	}
	res.Pattern = pattern
	if !pattern.Persistable() {
		res.Status = StatusFallbackOnly
		r.markNotFound(ctx, task, persist, log)
		return res
	}
	if !persist {
		res.Status = StatusFound
		return res
	}
	if err := r.store.SaveSearchPattern(ctx, task.DomainID, task.BaseURL, pattern); err != nil {
		res.Status, res.Err = StatusSaveFailed, err
		return res
	}
	res.Status = StatusSaved
	return res
}

func (r *Runner) navigate(ctx context.Context, page chrome.Page, baseURL string, log *logrus.Entry) error {
	var lastErr error
	for attempt := 1; attempt <= r.opts.NavigationAttempts; attempt++ {
		_, err := page.Navigate(ctx, baseURL, r.opts.NavigationTimeout)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < r.opts.NavigationAttempts {
			log.WithError(err).WithField("attempt", attempt).Debug("navigation failed, retrying")
		}
	}
	return fmt.Errorf("failed to load %s: %w", baseURL, lastErr)
}

// discover bounds the engine by DiscoveryTimeout. A run that overstays is
// abandoned; closing its page makes the remaining calls fail fast.
func (r *Runner) discover(ctx context.Context, page chrome.Page, baseURL string) (model.SearchPattern, bool, error) {
	dctx, cancel := context.WithTimeout(ctx, r.opts.DiscoveryTimeout)
	defer cancel()

	type found struct {
		pattern model.SearchPattern
		ok      bool
	}
	ch := make(chan found, 1)
	go func() {
		p, ok := r.engine.Discover(dctx, page, baseURL)
		ch <- found{p, ok}
	}()
	select {
	case f := <-ch:
		return f.pattern, f.ok, nil
	case <-dctx.Done():
		return model.SearchPattern{}, false, dctx.Err()
	}
}

func (r *Runner) markNotFound(ctx context.Context, task model.DomainTask, persist bool, log *logrus.Entry) {
	if !persist || !r.opts.MarkNotFoundProcessed {
		return
	}
	if err := r.store.MarkProcessed(ctx, task.DomainID); err != nil {
		log.WithError(err).Warn("failed to mark domain processed")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
