package sources

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

// DefaultCacheTTL is how long a fetched Document stays cached.
const DefaultCacheTTL = 6 * time.Hour

const cacheKeyPrefix = "research:doc:"

// CachedDocuments is a read-through Redis cache in front of a DocumentFetcher.
// Cache faults are logged and never fail a fetch; failed fetches are not cached.
type CachedDocuments struct {
	next   DocumentFetcher
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedDocuments wraps next with a cache backed by rdb.
func NewCachedDocuments(next DocumentFetcher, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedDocuments {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDocuments{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func cacheKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedDocuments) FetchDocument(ctx context.Context, url string) (domain.Document, error) {
	key := cacheKey(url)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doc domain.Document
		jerr := json.Unmarshal(raw, &doc)
		if jerr == nil {
			return domain.NormalizeDocument(doc), nil
		}
		c.logger.Warn("cache entry corrupt", "url", url, "err", jerr)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", "url", url, "err", err)
	}

	doc, err := c.next.FetchDocument(ctx, url)
	if err != nil {
		return domain.Document{}, err
	}

	if payload, err := json.Marshal(doc); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", "url", url, "err", err)
		}
	}
	return doc, nil
}

// Invalidate drops url from the cache.
func (c *CachedDocuments) Invalidate(ctx context.Context, url string) error {
	return c.rdb.Del(ctx, cacheKey(url)).Err()
}
