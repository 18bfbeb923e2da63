package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ratingFeedTTL keeps the feed cached long enough to cover repeated runs on
// a league night without hammering the upstream.
const ratingFeedTTL = 15 * time.Minute

// RatingData is one player entry from the rating engine's feed. FormScore
// is null for players without enough recent matches.
type RatingData struct {
	ExternalID       string   `json:"external_id"`
	FormScore        *float64 `json:"form_score"`
	HandicapIndex    float64  `json:"handicap_index"`
	ConsistencyClass string   `json:"consistency_class"`
	Role             string   `json:"role"`
	Matches          int      `json:"matches"`
}

// Scored reports whether the feed published a usable form score.
func (r RatingData) Scored() bool {
	return r.FormScore != nil && r.Matches > 0
}

type ratingFeedResponse struct {
	Data []RatingData `json:"data"`
}

// RatingClient fetches player ratings from the external rating engine with
// rate limiting and circuit breaker protection.
type RatingClient struct {
	httpClient  *http.Client
	cache       *CacheService
	logger      *logrus.Logger
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	baseURL     string
}

// NewRatingClient creates a client for the rating feed. requestsPerMinute
// throttles outbound calls; breakerThreshold caps half-open probes.
func NewRatingClient(baseURL string, requestsPerMinute int, timeout time.Duration, breakerThreshold int, cache *CacheService, logger *logrus.Logger) *RatingClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if breakerThreshold <= 0 {
		breakerThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "rating-feed",
		MaxRequests: uint32(breakerThreshold),
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "rating_client",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &RatingClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:       cache,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		breaker:     gobreaker.NewCircuitBreaker(settings),
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// FetchRatings returns the full feed keyed by external ID, serving a cached
// copy when one is fresh.
func (c *RatingClient) FetchRatings(ctx context.Context) (map[string]RatingData, error) {
	var cached []RatingData
	if err := c.cache.Get(ctx, RatingFeedCacheKey(), &cached); err == nil {
		return keyByExternalID(cached), nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchFeed(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("rating feed unavailable: %w", err)
	}

	entries := result.([]RatingData)
	if len(entries) > 0 {
		c.cache.Set(ctx, RatingFeedCacheKey(), entries, ratingFeedTTL)
	}

	return keyByExternalID(entries), nil
}

// fetchFeed performs the actual feed request.
func (c *RatingClient) fetchFeed(ctx context.Context) ([]RatingData, error) {
	endpoint := c.baseURL + "/api/v1/ratings"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var feed ratingFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode rating feed: %w", err)
	}

	return feed.Data, nil
}

func keyByExternalID(entries []RatingData) map[string]RatingData {
	out := make(map[string]RatingData, len(entries))
	for _, entry := range entries {
		out[entry.ExternalID] = entry
	}
	return out
}

// BreakerState reports the circuit breaker state for health checks.
func (c *RatingClient) BreakerState() string {
	return c.breaker.State().String()
}
