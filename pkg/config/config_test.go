package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxResults != 5 || c.NewsLimit != 3 || c.NewsTimeRange != "week" {
		t.Fatalf("unexpected research defaults %+v", c)
	}
	if c.FetchTimeout != 15*time.Second || c.Redis.TTL != 6*time.Hour {
		t.Fatalf("unexpected durations fetch=%v ttl=%v", c.FetchTimeout, c.Redis.TTL)
	}
	if c.Server.Port != 8080 || c.NATS.Subject != "research.requests" {
		t.Fatalf("unexpected server/nats defaults")
	}
	if len(c.Fetch.DisallowedHosts) == 0 {
		t.Fatal("expected default disallowed hosts")
	}
	if c.UseNewsAPI() {
		t.Fatal("auto without key should use RSS")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RESEARCH_MAX_RESULTS", "8")
	t.Setenv("RESEARCH_SERPAPI_KEY", "serp-key")
	t.Setenv("RESEARCH_NEWS_NEWSAPI_KEY", "news-key")
	t.Setenv("RESEARCH_TIMEOUT", "90s")
	t.Setenv("RESEARCH_LOGGING_LEVEL", "debug")

	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxResults != 8 {
		t.Errorf("max_results = %d", c.MaxResults)
	}
	if c.SerpAPI.Key != "serp-key" {
		t.Errorf("serpapi key = %q", c.SerpAPI.Key)
	}
	if c.Timeout != 90*time.Second {
		t.Errorf("timeout = %v", c.Timeout)
	}
	if c.Logging.Level != "debug" {
		t.Errorf("logging level = %q", c.Logging.Level)
	}
	if !c.UseNewsAPI() {
		t.Error("auto with key should use NewsAPI")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.yaml")
	yaml := `
max_results: 3
news:
  source: rss
fetch:
  disallowed_hosts: [example.org]
qdrant:
  addr: localhost:6334
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RESEARCH_MAX_RESULTS", "4")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxResults != 4 {
		t.Errorf("env must win over file, got %d", c.MaxResults)
	}
	if c.News.Source != NewsRSS || c.Qdrant.Addr != "localhost:6334" {
		t.Errorf("file values not applied: %+v", c.News)
	}
	if len(c.Fetch.DisallowedHosts) != 1 || c.Fetch.DisallowedHosts[0] != "example.org" {
		t.Errorf("disallowed hosts = %v", c.Fetch.DisallowedHosts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	c.MaxResults = 0
	c.NewsTimeRange = "decade"
	c.News.Source = NewsNewsAPI
	err = c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"max_results", "news_time_range", "newsapi_key"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("RESEARCH_CONCURRENCY", "-1")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error")
	}
}
