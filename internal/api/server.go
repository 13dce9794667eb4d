package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/searchagent/internal/service/batch"
	"github.com/LouYuanbo1/searchagent/internal/service/scrape"
	"github.com/LouYuanbo1/searchagent/param"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultJobsLimit = 20
	maxJobsLimit     = 100
)

// Server exposes batch discovery and scrape jobs over HTTP.
type Server struct {
	browser   chrome.Browser
	scheduler *batch.Scheduler
	jobs      *scrape.Manager
	// limits POST endpoints; nil disables limiting
	limiter *rate.Limiter
}

type Option func(*Server)

// WithRateLimit caps job submissions at perSecond with the given burst.
// A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

func NewServer(browser chrome.Browser, scheduler *batch.Scheduler, jobs *scrape.Manager, opts ...Option) *Server {
	s := &Server{browser: browser, scheduler: scheduler, jobs: jobs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), logRequests())

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.POST("/run-batch", s.rateLimit(), s.handleRunBatch)
	router.POST("/scrape", s.rateLimit(), s.handleScrape)
	router.GET("/job/:id", s.handleJob)
	router.GET("/jobs", s.handleJobs)
	return cors.AllowAll().Handler(router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "searchagent",
		"status":  "running",
		"endpoints": gin.H{
			"POST /run-batch": "Discover search patterns for every unprocessed site",
			"POST /scrape":    "Start a scrape job (returns job_id immediately)",
			"GET  /job/{id}":  "Poll job status and result",
			"GET  /jobs":      "List recent jobs",
			"GET  /health":    "Health check",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	_, total := s.jobs.List(0)
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"browser_ready": s.browser.Connected(),
		"batch":         s.scheduler.Snapshot(),
		"active_jobs":   s.jobs.Running(),
		"total_jobs":    total,
	})
}

func (s *Server) handleRunBatch(c *gin.Context) {
	if !s.scheduler.Start() {
		c.JSON(http.StatusOK, gin.H{"message": "Batch already running"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Batch started in background"})
}

func (s *Server) handleScrape(c *gin.Context) {
	var req param.Scrape
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if !req.IsValid() {
		abortWithDetail(c, http.StatusBadRequest, scrape.ErrInvalidRequest.Error())
		return
	}
	if !s.browser.Connected() {
		abortWithDetail(c, http.StatusServiceUnavailable, "Browser not ready yet. Retry in a few seconds.")
		return
	}
	job := s.jobs.Submit(req)
	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": fmt.Sprintf("Scrape job accepted for %s. Poll GET /job/%s for status.", req.BaseURL, job.ID),
	})
}

func (s *Server) handleJob(c *gin.Context) {
	id := c.Param("id")
	job, ok := s.jobs.Get(id)
	if !ok {
		abortWithDetail(c, http.StatusNotFound, fmt.Sprintf("Job '%s' not found.", id))
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleJobs(c *gin.Context) {
	limit := defaultJobsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			abortWithDetail(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	limit = min(max(limit, 1), maxJobsLimit)
	jobs, total := s.jobs.List(limit)
	c.JSON(http.StatusOK, gin.H{"total": total, "jobs": jobs})
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			abortWithDetail(c, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		c.Next()
	}
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("http request")
	}
}
