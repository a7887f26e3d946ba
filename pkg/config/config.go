// Package config loads service configuration from defaults, an optional
// YAML file, and RESEARCH_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/logging"
	"github.com/WessleyAI/wessley-research/pkg/tracing"
)

// EnvPrefix prefixes every environment override, e.g. RESEARCH_MAX_RESULTS.
const EnvPrefix = "RESEARCH"

// News sources.
const (
	NewsAuto    = "auto" // NewsAPI when a key is set, RSS otherwise
	NewsNewsAPI = "newsapi"
	NewsRSS     = "rss"
)

// Config is the full service configuration.
type Config struct {
	MaxResults    int           `mapstructure:"max_results"`
	Concurrency   int           `mapstructure:"concurrency"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	Timeout       time.Duration `mapstructure:"timeout"`
	NewsLimit     int           `mapstructure:"news_limit"`
	NewsTimeRange string        `mapstructure:"news_time_range"`
	SummaryBudget int           `mapstructure:"summary_budget"`

	Server struct {
		Port       int    `mapstructure:"port"`
		CORSOrigin string `mapstructure:"cors_origin"`
	} `mapstructure:"server"`

	SerpAPI struct {
		Key   string  `mapstructure:"key"`
		URL   string  `mapstructure:"url"`
		Rate  float64 `mapstructure:"rate"`
		Burst int     `mapstructure:"burst"`
	} `mapstructure:"serpapi"`

	News struct {
		Source     string `mapstructure:"source"`
		NewsAPIKey string `mapstructure:"newsapi_key"`
		NewsAPIURL string `mapstructure:"newsapi_url"`
		RSSURL     string `mapstructure:"rss_url"`
	} `mapstructure:"news"`

	Fetch struct {
		UserAgent       string   `mapstructure:"user_agent"`
		DisallowedHosts []string `mapstructure:"disallowed_hosts"`
		MaxBodyBytes    int64    `mapstructure:"max_body_bytes"`
		HostRate        float64  `mapstructure:"host_rate"`
		HostBurst       int      `mapstructure:"host_burst"`
	} `mapstructure:"fetch"`

	Redis struct {
		URL string        `mapstructure:"url"`
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	Qdrant struct {
		Addr       string  `mapstructure:"addr"`
		Collection string  `mapstructure:"collection"`
		MinScore   float64 `mapstructure:"min_score"`
	} `mapstructure:"qdrant"`

	Ollama struct {
		URL   string `mapstructure:"url"`
		Model string `mapstructure:"model"`
	} `mapstructure:"ollama"`

	NATS struct {
		URL            string `mapstructure:"url"`
		Subject        string `mapstructure:"subject"`
		Queue          string `mapstructure:"queue"`
		ReportsSubject string `mapstructure:"reports_subject"`
	} `mapstructure:"nats"`

	Metrics struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"metrics"`

	Logging logging.Options `mapstructure:"logging"`
	Tracing tracing.Config  `mapstructure:"tracing"`
}

var defaults = map[string]any{
	"max_results":     5,
	"concurrency":     5,
	"fetch_timeout":   15 * time.Second,
	"timeout":         60 * time.Second,
	"news_limit":      3,
	"news_time_range": domain.RangeWeek,
	"summary_budget":  200,

	"server.port":        8080,
	"server.cors_origin": "*",

	"serpapi.key":   "",
	"serpapi.url":   "https://serpapi.com/search.json",
	"serpapi.rate":  1.0,
	"serpapi.burst": 2,

	"news.source":      NewsAuto,
	"news.newsapi_key": "",
	"news.newsapi_url": "https://newsapi.org/v2/everything",
	"news.rss_url":     "https://news.google.com/rss/search",

	"fetch.user_agent":       "wessley-research/1.0 (+https://github.com/WessleyAI/wessley-research)",
	"fetch.disallowed_hosts": []string{"facebook.com", "instagram.com", "twitter.com", "x.com", "linkedin.com"},
	"fetch.max_body_bytes":   int64(2 << 20),
	"fetch.host_rate":        2.0,
	"fetch.host_burst":       4,

	"redis.url": "",
	"redis.ttl": 6 * time.Hour,

	"qdrant.addr":       "",
	"qdrant.collection": "research_kb",
	"qdrant.min_score":  0.35,

	"ollama.url":   "http://localhost:11434",
	"ollama.model": "nomic-embed-text",

	"nats.url":             "nats://localhost:4222",
	"nats.subject":         "research.requests",
	"nats.queue":           "research-workers",
	"nats.reports_subject": "research.reports",

	"metrics.port": 9090,

	"logging.level":        "info",
	"logging.format":       "json",
	"logging.file":         "",
	"logging.max_size_mb":  50,
	"logging.max_backups":  3,
	"logging.max_age_days": 28,

	"tracing.enabled":       false,
	"tracing.service_name":  "wessley-research",
	"tracing.otlp_endpoint": "localhost:4317",
	"tracing.sample_ratio":  1.0,
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("max_results", int64(c.MaxResults))
	positive("concurrency", int64(c.Concurrency))
	positive("news_limit", int64(c.NewsLimit))
	positive("summary_budget", int64(c.SummaryBudget))
	positive("fetch_timeout", int64(c.FetchTimeout))
	positive("timeout", int64(c.Timeout))
	positive("server.port", int64(c.Server.Port))
	positive("fetch.max_body_bytes", c.Fetch.MaxBodyBytes)

	if c.NewsTimeRange == "" {
		errs = append(errs, errors.New("news_time_range must be set"))
	} else if err := domain.ValidateTimeRange(c.NewsTimeRange); err != nil {
		errs = append(errs, fmt.Errorf("news_time_range: %w", err))
	}
	switch c.News.Source {
	case NewsAuto, NewsRSS:
	case NewsNewsAPI:
		if c.News.NewsAPIKey == "" {
			errs = append(errs, errors.New("news.source=newsapi requires news.newsapi_key"))
		}
	default:
		errs = append(errs, fmt.Errorf("news.source %q is not one of auto, newsapi, rss", c.News.Source))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// UseNewsAPI reports whether news comes from NewsAPI rather than RSS.
func (c *Config) UseNewsAPI() bool {
	switch c.News.Source {
	case NewsNewsAPI:
		return true
	case NewsAuto:
		return c.News.NewsAPIKey != ""
	}
	return false
}
