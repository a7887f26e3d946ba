package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

type countingFetcher struct {
	calls int
	doc   domain.Document
	err   error
}

func (c *countingFetcher) FetchDocument(_ context.Context, url string) (domain.Document, error) {
	c.calls++
	if c.err != nil {
		return domain.Document{}, c.err
	}
	d := c.doc
	d.URL = url
	return d, nil
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestCachedDocumentsReadThrough(t *testing.T) {
	mr, rdb := newMiniredis(t)
	next := &countingFetcher{doc: domain.Document{Title: "T", Text: "body", Metadata: map[string]string{"k": "v"}}}
	c := NewCachedDocuments(next, rdb, time.Hour, nil)
	ctx := context.Background()

	first, err := c.FetchDocument(ctx, "https://a.test/x")
	require.NoError(t, err)
	second, err := c.FetchDocument(ctx, "https://a.test/x")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, "v", second.Metadata["k"])
	assert.NotNil(t, second.Tables, "cached documents are normalized")

	key := cacheKey("https://a.test/x")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, err = c.FetchDocument(ctx, "https://a.test/x")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedDocumentsDoesNotCacheFailures(t *testing.T) {
	mr, rdb := newMiniredis(t)
	next := &countingFetcher{err: errors.Join(domain.ErrFetchFailed, errors.New("boom"))}
	c := NewCachedDocuments(next, rdb, 0, nil)

	_, err := c.FetchDocument(context.Background(), "https://a.test/x")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.False(t, mr.Exists(cacheKey("https://a.test/x")))
}

func TestCachedDocumentsSurvivesRedisOutage(t *testing.T) {
	mr, rdb := newMiniredis(t)
	mr.Close()

	next := &countingFetcher{doc: domain.Document{Title: "T"}}
	c := NewCachedDocuments(next, rdb, time.Minute, nil)
	doc, err := c.FetchDocument(context.Background(), "https://a.test/x")
	require.NoError(t, err)
	assert.Equal(t, "T", doc.Title)
}

func TestCachedDocumentsCorruptEntry(t *testing.T) {
	mr, rdb := newMiniredis(t)
	require.NoError(t, mr.Set(cacheKey("https://a.test/x"), "{not json"))

	next := &countingFetcher{doc: domain.Document{Title: "fresh"}}
	c := NewCachedDocuments(next, rdb, time.Minute, nil)
	doc, err := c.FetchDocument(context.Background(), "https://a.test/x")
	require.NoError(t, err)
	assert.Equal(t, "fresh", doc.Title)
	assert.Equal(t, 1, next.calls)
}

func TestCachedDocumentsInvalidate(t *testing.T) {
	mr, rdb := newMiniredis(t)
	next := &countingFetcher{doc: domain.Document{Title: "T"}}
	c := NewCachedDocuments(next, rdb, time.Minute, nil)
	ctx := context.Background()

	_, err := c.FetchDocument(ctx, "https://a.test/x")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "https://a.test/x"))
	assert.False(t, mr.Exists(cacheKey("https://a.test/x")))
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newMiniredis(t)
	rdb, err := NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(context.Background()).Err())

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}
