package scrape

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/LouYuanbo1/searchagent/param"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

type ProgressEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Job is a snapshot of a scrape job. Registry hands out copies.
type Job struct {
	ID         string          `json:"job_id"`
	Status     JobStatus       `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Payload    param.Scrape    `json:"payload"`
	Progress   []ProgressEntry `json:"progress"`
	Result     *Result         `json:"result"`
	Error      string          `json:"error,omitempty"`
}

func (j *Job) clone() Job {
	c := *j
	c.Progress = slices.Clone(j.Progress)
	return c
}

// Registry keeps the most recent jobs in creation order, evicting the oldest.
type Registry struct {
	mu   sync.Mutex
	jobs *orderedmap.OrderedMap[string, *Job]
	max  int
	now  func() time.Time
}

func NewRegistry(maxJobs int) *Registry {
	return &Registry{jobs: orderedmap.New[string, *Job](), max: max(maxJobs, 1), now: time.Now}
}

func newJobID(now time.Time) string {
	return fmt.Sprintf("job_%d_%s", now.Unix(), uuid.NewString()[:6])
}

func (r *Registry) Create(payload param.Scrape) Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	job := &Job{ID: newJobID(now), Status: JobQueued, CreatedAt: now, Payload: payload}
	r.jobs.Set(job.ID, job)
	for r.jobs.Len() > r.max {
		r.jobs.Delete(r.jobs.Oldest().Key)
	}
	return job.clone()
}

func (r *Registry) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs.Get(id)
	if !ok {
		return Job{}, false
	}
	return job.clone(), true
}

// List returns up to limit jobs, newest first, and the number of jobs held.
func (r *Registry) List(limit int) ([]Job, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit = max(limit, 0)
	out := make([]Job, 0, min(limit, r.jobs.Len()))
	for pair := r.jobs.Newest(); pair != nil && len(out) < limit; pair = pair.Prev() {
		out = append(out, pair.Value.clone())
	}
	return out, r.jobs.Len()
}

func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for pair := r.jobs.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Status == JobRunning {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs.Len()
}

// update applies fn to a job that is still held; evicted jobs are ignored.
func (r *Registry) update(id string, fn func(j *Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs.Get(id); ok {
		fn(job)
	}
}

func (r *Registry) start(id string) {
	r.update(id, func(j *Job) {
		now := r.now()
		j.Status = JobRunning
		j.StartedAt = &now
	})
}

func (r *Registry) progress(id, msg string) {
	r.update(id, func(j *Job) {
		j.Progress = append(j.Progress, ProgressEntry{At: r.now(), Message: msg})
	})
}

func (r *Registry) finish(id string, res *Result, err error) {
	r.update(id, func(j *Job) {
		now := r.now()
		j.FinishedAt = &now
		if err != nil {
			j.Status = JobError
			j.Error = err.Error()
			return
		}
		j.Status = JobDone
		j.Result = res
	})
}

// Scraper runs one scrape to completion.
type Scraper interface {
	Run(ctx context.Context, req param.Scrape, progress func(string)) (*Result, error)
}

// Manager runs scrape jobs in the background and records them in a Registry.
type Manager struct {
	ctx      context.Context
	scraper  Scraper
	registry *Registry
	wg       sync.WaitGroup
}

// NewManager runs jobs under ctx; cancelling it aborts running jobs.
func NewManager(ctx context.Context, scraper Scraper, registry *Registry) *Manager {
	return &Manager{ctx: ctx, scraper: scraper, registry: registry}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) Get(id string) (Job, bool)   { return m.registry.Get(id) }
func (m *Manager) List(limit int) ([]Job, int) { return m.registry.List(limit) }
func (m *Manager) Running() int                { return m.registry.Running() }

// Submit queues req and returns the new job immediately.
func (m *Manager) Submit(req param.Scrape) Job {
	job := m.registry.Create(req)
	log := logrus.WithFields(logrus.Fields{"job_id": job.ID, "base_url": req.BaseURL})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.registry.start(job.ID)
		res, err := m.scraper.Run(m.ctx, req, func(msg string) {
			m.registry.progress(job.ID, msg)
			log.Info(msg)
		})
		if err != nil {
			log.WithError(err).Error("scrape job failed")
		}
		m.registry.finish(job.ID, res, err)
	}()
	return job
}

// Wait blocks until every submitted job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
