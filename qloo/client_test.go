package qloo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientOpts{
		BaseURL:       server.URL,
		APIKey:        "test-key",
		HTTPClient:    server.Client(),
		RatePerSecond: 1000,
		Burst:         100,
	})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientOpts{APIKey: "k"})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.httpClient)
	assert.NotNil(t, c.limiter)
	assert.NotNil(t, c.cache)

	c = NewClient(ClientOpts{BaseURL: "http://example.com/"})
	assert.Equal(t, "http://example.com", c.baseURL)
}

func TestClientSearch(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		q := r.URL.Query()
		assert.Equal(t, "Radiohead", q.Get("query"))
		assert.Equal(t, EntityArtist, q.Get("type"))
		assert.Equal(t, "10", q.Get("filter.radius"))
		assert.Equal(t, "union", q.Get("operator.filter.tags"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "match", q.Get("sort_by"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": "ART-1", "name": "Radiohead", "type": EntityArtist, "score": 0.97},
			},
		})
	})

	results, err := client.Search(context.Background(), "Radiohead", EntityArtist)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, SearchResult{ID: "ART-1", Name: "Radiohead", Type: EntityArtist, Score: 0.97}, results[0])

	// Second call with different casing is served from cache.
	results, err = client.Search(context.Background(), "radiohead", EntityArtist)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientSearchOmitsEmptyType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasType := r.URL.Query()["type"]
		assert.False(t, hasType)
		_, _ = w.Write([]byte(`{}`))
	})

	results, err := client.Search(context.Background(), "Korean BBQ", "")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestClientRecommendations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommendations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, []string{"A", "B"}, q["sample[]"])
		assert.Equal(t, "restaurant", q.Get("category"))
		assert.Equal(t, "Berlin, Germany", q.Get("location"))
		assert.Equal(t, "20", q.Get("limit"))

		_, _ = w.Write([]byte(`{"recommendations":[{"id":"R1","name":"Kimchi Princess","type":"restaurant","affinity_score":0.92,"location":{"city":"Berlin","country":"Germany"},"categories":["korean","bbq"]}]}`))
	})

	recs, err := client.Recommendations(context.Background(), RecommendationsRequest{
		EntityIDs: []string{"A", "B"},
		Location:  "Berlin, Germany",
		Type:      "restaurant",
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Kimchi Princess", recs[0].Name)
	assert.Equal(t, 0.92, recs[0].AffinityScore)
	require.NotNil(t, recs[0].Location)
	assert.Equal(t, "Berlin", recs[0].Location.City)
	assert.Equal(t, []string{"korean", "bbq"}, recs[0].Categories)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		expectErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, expectErr: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, expectErr: ErrUnauthorized},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, expectErr: ErrAPIFailure},
		{name: "bad json", status: http.StatusOK, body: `{not json`, expectErr: ErrAPIFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Recommendations(context.Background(), RecommendationsRequest{EntityIDs: []string{"X"}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectErr)
		})
	}
}

func TestClientFailedSearchIsNotCached(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"1","name":"x","type":"urn:tag"}]}`))
	})

	_, err := client.Search(context.Background(), "x", "")
	require.ErrorIs(t, err, ErrAPIFailure)

	results, err := client.Search(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestClientRespectsContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "anything", "")
	assert.Error(t, err)
}

func TestInsightsRequestValues(t *testing.T) {
	lat, lon := 52.52, 13.405
	tests := []struct {
		name     string
		req      InsightsRequest
		expected map[string]string
		absent   []string
	}{
		{
			name: "point and radius",
			req:  InsightsRequest{Latitude: &lat, Longitude: &lon, Radius: 500, Take: 10, Page: 1, SortBy: "affinity"},
			expected: map[string]string{
				"filter.type":            EntityPlace,
				"filter.location":        "POINT(13.405 52.52)",
				"filter.location.radius": "500",
				"take":                   "10",
				"page":                   "1",
				"sort_by":                "affinity",
			},
			absent: []string{"filter.location.query", "signal.interests.tags"},
		},
		{
			name: "location query with tags",
			req:  InsightsRequest{FilterType: EntityBrand, LocationQuery: "Mitte, Berlin", Tags: []string{"urn:tag:genre:place:cafe", "urn:tag:genre:place:bakery"}},
			expected: map[string]string{
				"filter.type":           EntityBrand,
				"filter.location.query": "Mitte, Berlin",
				"signal.interests.tags": "urn:tag:genre:place:cafe,urn:tag:genre:place:bakery",
			},
			absent: []string{"filter.location", "filter.location.radius", "take"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.req.values()
			for k, want := range tt.expected {
				assert.Equal(t, want, v.Get(k), k)
			}
			for _, k := range tt.absent {
				_, ok := v[k]
				assert.False(t, ok, k)
			}
		})
	}
}
