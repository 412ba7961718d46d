package qloo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://hackathon.api.qloo.com"

	tracerName = "qloo-client"

	defaultRatePerSecond  = 5
	defaultBurst          = 10
	defaultCacheTTL       = 10 * time.Minute
	defaultSearchRadius   = "10"
	defaultRecommendLimit = "20"
)

var (
	ErrAPIFailure   = errors.New("taste API request failed")
	ErrUnauthorized = errors.New("taste API rejected the API key")
	ErrNoLocation   = errors.New("no location given for place insights")
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientOpts struct {
	BaseURL       string
	APIKey        string
	HTTPClient    doer
	RatePerSecond float64
	Burst         int
	CacheTTL      time.Duration
}

// Client talks to the taste graph API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient doer
	limiter    *rate.Limiter
	cache      *cache.Cache
	tracer     trace.Tracer
}

func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = defaultRatePerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		cache:      cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		tracer:     otel.Tracer(tracerName),
	}
}

// Search resolves a free-text preference into taste graph entities.
// Results are cached per query and type.
func (c *Client) Search(ctx context.Context, query, entityType string) ([]SearchResult, error) {
	ctx, span := c.tracer.Start(ctx, "Client.Search", trace.WithAttributes(
		attribute.String("qloo.query", query),
		attribute.String("qloo.type", entityType),
	))
	defer span.End()

	cacheKey := "search:" + strings.ToLower(query) + "|" + entityType
	if cached, found := c.cache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		slog.Info("QLOO: Search served from cache", "query", query, "type", entityType)
		return cached.([]SearchResult), nil
	}

	params := url.Values{}
	params.Set("query", query)
	if entityType != "" {
		params.Set("type", entityType)
	}
	params.Set("filter.radius", defaultSearchRadius)
	params.Set("operator.filter.tags", "union")
	params.Set("page", "1")
	params.Set("sort_by", "match")

	var out searchResponse
	if err := c.get(ctx, "/search", params, &out); err != nil {
		span.SetStatus(codes.Error, "search failed")
		span.RecordError(err)
		return nil, err
	}
	if out.Results == nil {
		out.Results = []SearchResult{}
	}

	c.cache.Set(cacheKey, out.Results, cache.DefaultExpiration)
	slog.Info("QLOO: Search completed", "query", query, "type", entityType, "results", len(out.Results))
	span.SetAttributes(attribute.Int("qloo.results", len(out.Results)))
	return out.Results, nil
}

type RecommendationsRequest struct {
	EntityIDs []string
	Location  string
	Type      string
}

// Recommendations returns entities with affinity to the given sample IDs.
func (c *Client) Recommendations(ctx context.Context, req RecommendationsRequest) ([]Recommendation, error) {
	ctx, span := c.tracer.Start(ctx, "Client.Recommendations", trace.WithAttributes(
		attribute.StringSlice("qloo.sample", req.EntityIDs),
		attribute.String("qloo.location", req.Location),
		attribute.String("qloo.type", req.Type),
	))
	defer span.End()

	params := url.Values{}
	for _, id := range req.EntityIDs {
		params.Add("sample[]", id)
	}
	if req.Type != "" {
		params.Set("category", req.Type)
	}
	if req.Location != "" {
		params.Set("location", req.Location)
	}
	params.Set("limit", defaultRecommendLimit)

	var out recommendationsResponse
	if err := c.get(ctx, "/recommendations", params, &out); err != nil {
		span.SetStatus(codes.Error, "recommendations failed")
		span.RecordError(err)
		return nil, err
	}
	if out.Recommendations == nil {
		out.Recommendations = []Recommendation{}
	}

	slog.Info("QLOO: Recommendations completed", "samples", len(req.EntityIDs), "location", req.Location, "results", len(out.Recommendations))
	span.SetAttributes(attribute.Int("qloo.results", len(out.Recommendations)))
	return out.Recommendations, nil
}

// InsightsRequest holds the query parameters of a single insights call.
type InsightsRequest struct {
	FilterType    string
	Latitude      *float64
	Longitude     *float64
	Radius        int
	LocationQuery string
	Tags          []string
	Take          int
	Page          int
	SortBy        string
}

func (r InsightsRequest) values() url.Values {
	params := url.Values{}
	filterType := r.FilterType
	if filterType == "" {
		filterType = EntityPlace
	}
	params.Set("filter.type", filterType)

	if r.Latitude != nil && r.Longitude != nil {
		params.Set("filter.location", fmt.Sprintf("POINT(%s %s)",
			strconv.FormatFloat(*r.Longitude, 'f', -1, 64),
			strconv.FormatFloat(*r.Latitude, 'f', -1, 64)))
		if r.Radius > 0 {
			params.Set("filter.location.radius", strconv.Itoa(r.Radius))
		}
	} else if r.LocationQuery != "" {
		params.Set("filter.location.query", r.LocationQuery)
	}

	if len(r.Tags) > 0 {
		params.Set("signal.interests.tags", strings.Join(r.Tags, ","))
	}
	if r.Take > 0 {
		params.Set("take", strconv.Itoa(r.Take))
	}
	if r.Page > 0 {
		params.Set("page", strconv.Itoa(r.Page))
	}
	if r.SortBy != "" {
		params.Set("sort_by", r.SortBy)
	}
	return params
}

// Insights runs one insights query.
func (c *Client) Insights(ctx context.Context, req InsightsRequest) ([]InsightsEntity, error) {
	ctx, span := c.tracer.Start(ctx, "Client.Insights", trace.WithAttributes(
		attribute.String("qloo.filter_type", req.FilterType),
		attribute.String("qloo.location_query", req.LocationQuery),
		attribute.Int("qloo.radius", req.Radius),
	))
	defer span.End()

	var out insightsResponse
	if err := c.get(ctx, "/v2/insights", req.values(), &out); err != nil {
		span.SetStatus(codes.Error, "insights failed")
		span.RecordError(err)
		return nil, err
	}

	entities := out.Results.Entities
	if entities == nil {
		entities = []InsightsEntity{}
	}
	span.SetAttributes(attribute.Int("qloo.results", len(entities)))
	return entities, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("QLOO: Request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrAPIFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		slog.Error("QLOO: Unauthorized", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		slog.Error("QLOO: API error", "path", path, "status", resp.StatusCode, "body", truncate(string(body), 200))
		return fmt.Errorf("%w: status %d", ErrAPIFailure, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrAPIFailure, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
