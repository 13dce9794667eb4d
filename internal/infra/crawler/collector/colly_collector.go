package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/chrome"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

type collyFetcher struct {
	colly    *colly.Collector
	renderer chrome.Renderer
	timeout  time.Duration
}

// InitCollyFetcher builds the template collector every Fetch clones.
// renderer may be nil, in which case bodies are used as served.
func InitCollyFetcher(cfg *config.Config, renderer chrome.Renderer) (Fetcher, error) {
	opts := []colly.CollectorOption{
		colly.UserAgent(cfg.Colly.UserAgent),
		colly.MaxDepth(1),
		colly.AllowURLRevisit(),
	}
	if cfg.Colly.IgnoreRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}
	c := colly.NewCollector(opts...)
	c.ParseHTTPErrorResponse = true
	timeout := time.Duration(cfg.Colly.TimeoutSeconds) * time.Second
	c.SetRequestTimeout(timeout)
	if cfg.Colly.Delay > 0 || cfg.Colly.RandomDelay > 0 {
		err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       time.Duration(cfg.Colly.Delay) * time.Second,
			RandomDelay: time.Duration(cfg.Colly.RandomDelay) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set colly limit: %w", err)
		}
	}
	if cfg.Colly.EnableCookieJar {
		jar, err := cookiejar.New(cfg.Colly.CookieJarOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.SetCookieJar(jar)
	}
	if !cfg.Colly.RenderJavascript {
		renderer = nil
	}
	logrus.WithFields(logrus.Fields{
		"timeout":      timeout,
		"render_js":    renderer != nil,
		"delay":        cfg.Colly.Delay,
		"random_delay": cfg.Colly.RandomDelay,
	}).Debug("colly fetcher initialized")
	return &collyFetcher{colly: c, renderer: renderer, timeout: timeout}, nil
}

func (cf *collyFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	c := cf.colly.Clone()
	c.Context = ctx

	var (
		resp     *Response
		parseErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body := r.Body
		if cf.renderer != nil && r.StatusCode >= 200 && r.StatusCode < 300 {
			html, err := cf.renderer.Render(ctx, r.Request.URL.String(), cf.timeout)
			if err != nil {
				logrus.WithError(err).WithField("url", r.Request.URL.String()).Warn("javascript render failed, using raw body")
			} else {
				body = []byte(html)
			}
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			parseErr = fmt.Errorf("failed to parse %s: %w", url, err)
			return
		}
		doc.Url = r.Request.URL
		resp = &Response{URL: r.Request.URL.String(), Status: r.StatusCode, Doc: doc}
	})

	if err := c.Visit(url); err != nil && resp == nil {
		return nil, fmt.Errorf("failed to visit %s: %w", url, err)
	}
	c.Wait()
	if parseErr != nil {
		return nil, parseErr
	}
	if resp == nil {
		return nil, fmt.Errorf("no response for %s", url)
	}
	return resp, nil
}
