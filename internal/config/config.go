package config

import (
	"net/http/cookiejar"
	"time"
)

type Config struct {
	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`

	Server struct {
		Addr string `json:"addr"`

		// job submissions per second, <= 0 disables limiting
		RateLimit      float64 `json:"rate_limit"`
		RateLimitBurst int     `json:"rate_limit_burst"`
	} `json:"server"`

	Store struct {
		// elasticsearch | sqlite
		Driver string `json:"driver"`
	} `json:"store"`

	Elasticsearch struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Address  string `json:"address"`

		// development clusters with self-signed certificates
		InsecureSkipVerify bool `json:"insecure_skip_verify"`
	} `json:"elasticsearch"`

	Sqlite struct {
		Path string `json:"path"`
	} `json:"sqlite"`

	Rod struct {
		Bin                  string `json:"bin"`
		ControlURL           string `json:"control_url"`
		UserDataDir          string `json:"user_data_dir"`
		Headless             bool   `json:"headless"`
		DisableBlinkFeatures string `json:"disable_blink_features"`
		DisableDevShmUsage   bool   `json:"disable_dev_shm_usage"`
		NoSandbox            bool   `json:"no_sandbox"`
		UserAgent            string `json:"user_agent"`
		Leakless             bool   `json:"leakless"`
		Trace                bool   `json:"trace"`
		// resource types aborted at the network layer for every session
		BlockedResourceTypes []string `json:"blocked_resource_types"`
	} `json:"rod"`

	Chromedp struct {
		Bin string `json:"bin"`
		// seconds before the browser is replaced; 0 keeps it for the process lifetime
		LifeTime             int    `json:"life_time"`
		UserDataDir          string `json:"user_data_dir"`
		Headless             bool   `json:"headless"`
		DisableBlinkFeatures string `json:"disable_blink_features"`
		DisableDevShmUsage   bool   `json:"disable_dev_shm_usage"`
		NoSandbox            bool   `json:"no_sandbox"`
		UserAgent            string `json:"user_agent"`
	} `json:"chromedp"`

	Colly struct {
		UserAgent        string             `json:"user_agent"`
		IgnoreRobotsTxt  bool               `json:"ignore_robots_txt"`
		TimeoutSeconds   int                `json:"timeout_seconds"`
		Delay            int                `json:"delay"`
		RandomDelay      int                `json:"random_delay"`
		RenderJavascript bool               `json:"render_javascript"`
		EnableCookieJar  bool               `json:"enable_cookie_jar"`
		CookieJarOptions *cookiejar.Options `json:"cookie_jar_options"`
	} `json:"colly"`

	Embedder struct {
		Enabled   bool   `json:"enabled"`
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Model     string `json:"model"`
		BatchSize int    `json:"batch_size"`
	} `json:"embedder"`

	Discovery struct {
		TestKeyword          string `json:"test_keyword"`
		InputThreshold       int    `json:"input_threshold"`
		UrlThreshold         int    `json:"url_threshold"`
		SettleTimeoutMs      int    `json:"settle_timeout_ms"`
		IconInputWaitMs      int    `json:"icon_input_wait_ms"`
		UrlFastTimeoutMs     int    `json:"url_fast_timeout_ms"`
		UrlSlowTimeoutMs     int    `json:"url_slow_timeout_ms"`
		RestoreAfterProbe    bool   `json:"restore_after_probe"`
		RestoreTimeoutMs     int    `json:"restore_timeout_ms"`
		MinResultAnchorCount int    `json:"min_result_anchor_count"`
	} `json:"discovery"`

	Batch struct {
		Concurrency           int  `json:"concurrency"`
		BatchSize             int  `json:"batch_size"`
		NavigationTimeoutMs   int  `json:"navigation_timeout_ms"`
		NavigationAttempts    int  `json:"navigation_attempts"`
		PostLoadWaitMs        int  `json:"post_load_wait_ms"`
		DiscoveryTimeoutMs    int  `json:"discovery_timeout_ms"`
		MarkNotFoundProcessed bool `json:"mark_not_found_processed"`
	} `json:"batch"`

	Scrape struct {
		// browser | colly
		Fetcher                   string `json:"fetcher"`
		NavigationTimeoutMs       int    `json:"navigation_timeout_ms"`
		SearchNavigationTimeoutMs int    `json:"search_navigation_timeout_ms"`
		FallbackSettleMs          int    `json:"fallback_settle_ms"`
		IconWaitMs                int    `json:"icon_wait_ms"`
		ResultWaitMs              int    `json:"result_wait_ms"`
		TermPauseMs               int    `json:"term_pause_ms"`
		ArticleWaitMs             int    `json:"article_wait_ms"`
		InsertBatchSize           int    `json:"insert_batch_size"`
		RecencyDays               int    `json:"recency_days"`
		MaxJobs                   int    `json:"max_jobs"`
	} `json:"scrape"`
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (c *Config) NavigationTimeout() time.Duration { return ms(c.Batch.NavigationTimeoutMs) }
func (c *Config) PostLoadWait() time.Duration      { return ms(c.Batch.PostLoadWaitMs) }
func (c *Config) DiscoveryTimeout() time.Duration  { return ms(c.Batch.DiscoveryTimeoutMs) }
func (c *Config) SettleTimeout() time.Duration     { return ms(c.Discovery.SettleTimeoutMs) }
func (c *Config) IconInputWait() time.Duration     { return ms(c.Discovery.IconInputWaitMs) }
func (c *Config) UrlFastTimeout() time.Duration    { return ms(c.Discovery.UrlFastTimeoutMs) }
func (c *Config) UrlSlowTimeout() time.Duration    { return ms(c.Discovery.UrlSlowTimeoutMs) }
func (c *Config) RestoreTimeout() time.Duration    { return ms(c.Discovery.RestoreTimeoutMs) }

func (c *Config) ScrapeNavigationTimeout() time.Duration {
	return ms(c.Scrape.NavigationTimeoutMs)
}

func (c *Config) SearchNavigationTimeout() time.Duration {
	return ms(c.Scrape.SearchNavigationTimeoutMs)
}

func (c *Config) FallbackSettle() time.Duration { return ms(c.Scrape.FallbackSettleMs) }
func (c *Config) IconWait() time.Duration       { return ms(c.Scrape.IconWaitMs) }
func (c *Config) ResultWait() time.Duration     { return ms(c.Scrape.ResultWaitMs) }
func (c *Config) TermPause() time.Duration      { return ms(c.Scrape.TermPauseMs) }
func (c *Config) ArticleWait() time.Duration    { return ms(c.Scrape.ArticleWaitMs) }

// RecencyWindow is the trailing span an article's publish date must fall in.
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.Scrape.RecencyDays) * 24 * time.Hour
}
