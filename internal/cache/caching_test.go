package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disclosure-cli/internal/fetcher"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetcher.Response), args.Error(1)
}

func (m *mockFetcher) Head(ctx context.Context, url string) (int, error) {
	args := m.Called(ctx, url)
	return args.Int(0), args.Error(1)
}

func TestCachingFetcher_MissThenHit(t *testing.T) {
	ctx := context.Background()
	next := new(mockFetcher)
	next.On("Fetch", ctx, "https://x.test/d").
		Return(&fetcher.Response{URL: "https://x.test/d", StatusCode: 200, ContentType: "text/html", Body: []byte("doc")}, nil).
		Once()

	store := NewMemoryStore()
	cf := NewCachingFetcher(next, store, time.Hour)

	resp, cached, err := cf.FetchCached(ctx, "https://x.test/d")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "doc", string(resp.Body))

	resp, cached, err = cf.FetchCached(ctx, "https://x.test/d")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "doc", string(resp.Body))
	assert.Equal(t, "text/html", resp.ContentType)

	next.AssertExpectations(t)
	assert.Equal(t, 1, store.Len())
}

func TestCachingFetcher_StaleEntryRefetched(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, NewEntry("u", "text/html", []byte("old"), now.Add(-25*time.Hour))))

	next := new(mockFetcher)
	next.On("Fetch", ctx, "u").Return(&fetcher.Response{URL: "u", StatusCode: 200, Body: []byte("new")}, nil).Once()

	cf := NewCachingFetcher(next, store, 0).WithClock(func() time.Time { return now })
	resp, err := cf.Fetch(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "new", string(resp.Body))

	e, err := store.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, ContentHash([]byte("new")), e.ContentHash)
	assert.True(t, now.Equal(e.LastFetched))
	next.AssertExpectations(t)
}

func TestCachingFetcher_FailureKeepsPreviousEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, NewEntry("u", "", []byte("previous"), now.Add(-48*time.Hour))))

	next := new(mockFetcher)
	next.On("Fetch", ctx, "u").Return(nil, errors.New("boom"))

	cf := NewCachingFetcher(next, store, time.Hour)
	_, err := cf.Fetch(ctx, "u")
	require.Error(t, err)

	e, err := store.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(e.Content))
}

func TestCachingFetcher_HeadPassesThrough(t *testing.T) {
	ctx := context.Background()
	next := new(mockFetcher)
	next.On("Head", ctx, "u").Return(404, nil)

	code, err := NewCachingFetcher(next, NewMemoryStore(), 0).Head(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 404, code)
}
