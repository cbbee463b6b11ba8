package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls   int
	results []Result
	err     error
}

func (c *countingClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	c.calls++
	return c.results, c.err
}

func TestCachedClientHitsCache(t *testing.T) {
	inner := &countingClient{results: []Result{{Title: "hit", URL: "https://example.com"}}}
	cached := NewCachedClient(inner, time.Minute)

	first, err := cached.Search(context.Background(), "bitcoin price", 5)
	require.NoError(t, err)
	second, err := cached.Search(context.Background(), "bitcoin price", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedClientKeyIncludesMaxResults(t *testing.T) {
	inner := &countingClient{results: []Result{{Title: "hit"}}}
	cached := NewCachedClient(inner, time.Minute)

	_, err := cached.Search(context.Background(), "bitcoin price", 5)
	require.NoError(t, err)
	_, err = cached.Search(context.Background(), "bitcoin price", 3)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedClientNeverCachesErrors(t *testing.T) {
	inner := &countingClient{err: errors.New("upstream down")}
	cached := NewCachedClient(inner, time.Minute)

	_, err := cached.Search(context.Background(), "bitcoin price", 5)
	require.Error(t, err)
	_, err = cached.Search(context.Background(), "bitcoin price", 5)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestTavilyClientSearch(t *testing.T) {
	var gotRequest tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, sonic.Unmarshal(body, &gotRequest))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"answer": "Bitcoin trades near $60k.",
			"results": [
				{"title": "Bitcoin price today", "url": "https://example.com/btc", "content": "BTC at $60,123.", "score": 0.98}
			]
		}`)
	}))
	defer server.Close()

	client := NewTavilyClient("tvly-test", server.URL, 5*time.Second)
	results, err := client.Search(context.Background(), "bitcoin price today", 5)
	require.NoError(t, err)

	assert.Equal(t, "tvly-test", gotRequest.APIKey)
	assert.Equal(t, "bitcoin price today", gotRequest.Query)
	assert.Equal(t, 5, gotRequest.MaxResults)
	assert.True(t, gotRequest.IncludeAnswer)

	// Aggregated answer first, under the summary locator, then the
	// ranked hits.
	require.Len(t, results, 2)
	assert.Equal(t, SummaryLocator, results[0].URL)
	assert.Equal(t, "Bitcoin trades near $60k.", results[0].Content)
	assert.Equal(t, "https://example.com/btc", results[1].URL)
	assert.Equal(t, 0.98, results[1].Score)
}

func TestTavilyClientNoAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results": [{"title": "t", "url": "https://example.com", "content": "c", "score": 0.5}]}`)
	}))
	defer server.Close()

	client := NewTavilyClient("tvly-test", server.URL, 5*time.Second)
	results, err := client.Search(context.Background(), "anything", 3)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.NotEqual(t, SummaryLocator, results[0].URL)
}

func TestTavilyClientNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewTavilyClient("tvly-test", server.URL, 5*time.Second)
	_, err := client.Search(context.Background(), "anything", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTavilyClientRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect
		// and cancels the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewTavilyClient("tvly-test", server.URL, 5*time.Second)
	_, err := client.Search(ctx, "anything", 3)
	assert.Error(t, err)
}
