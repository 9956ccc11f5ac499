// Package leetcode implements the statistics provider client for the LeetCode
// GraphQL API.
package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
	"github.com/leetgroups/groupboard/pkg/circuitbreaker"
	"github.com/leetgroups/groupboard/pkg/retry"
)

// DefaultURL is the public GraphQL endpoint.
const DefaultURL = "https://leetcode.com/graphql"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the LeetCode client.
type ClientConfig struct {
	// URL is the GraphQL endpoint.
	URL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// RateLimit is the sustained request rate, per second.
	RateLimit float64

	// Burst is the number of requests allowed above RateLimit at once.
	Burst int

	// MaxRetries is the number of attempts per lookup, including the first.
	MaxRetries int

	// BreakerThreshold is the number of consecutive failures that open the circuit.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// OnBreakerStateChange is called on circuit transitions (optional).
	OnBreakerStateChange func(name string, from, to circuitbreaker.State)

	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables per-request debug logging.
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(url string) ClientConfig {
	if url == "" {
		url = DefaultURL
	}
	return ClientConfig{
		URL:              url,
		Timeout:          10 * time.Second,
		RateLimit:        10,
		Burst:            5,
		MaxRetries:       3,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client queries public profiles and solve counts.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
}

var (
	_ leaderboard.StatsProvider = (*Client)(nil)
	_ leaderboard.ProfileReader = (*Client)(nil)
)

// NewClient creates a new LeetCode client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if config.BreakerThreshold <= 0 {
		config.BreakerThreshold = 5
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	logger := config.Logger.With("component", "leetcode_client")
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
		breaker: circuitbreaker.UpstreamBreaker(
			config.BreakerThreshold,
			config.BreakerTimeout,
			countsAsOutage,
			config.OnBreakerStateChange,
		),
		retrier: retry.UpstreamRetrier(config.MaxRetries,
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				logger.Warn("retrying leetcode lookup",
					"attempt", attempt,
					"delay", delay,
					"error", err,
				)
			}),
		),
	}
}

// countsAsOutage reports whether err should move the breaker towards open.
// Unknown handles and caller cancellations say nothing about upstream health.
func countsAsOutage(err error) bool {
	return !errors.Is(err, shared.ErrUpstreamNotFound) &&
		!errors.Is(err, context.Canceled)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// FetchProfile fetches the public profile and solve counts for handle.
//
// Returns shared.ErrHandleNotFound when the provider has no such user and an
// error matching shared.ErrStatsUnavailable when the provider cannot answer.
func (c *Client) FetchProfile(ctx context.Context, handle shared.Handle) (*leaderboard.Profile, error) {
	user, err := circuitbreaker.Call(ctx, c.breaker, func(ctx context.Context) (*MatchedUserDTO, error) {
		var user *MatchedUserDTO
		err := c.retrier.Do(ctx, func(ctx context.Context) error {
			u, err := c.queryUser(ctx, handle)
			if err != nil {
				return err
			}
			user = u
			return nil
		})
		return user, err
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			return nil, fmt.Errorf("%w: %v", shared.ErrStatsUnavailable, err)
		}
		return nil, err
	}
	return toProfile(handle, user), nil
}

// FetchStats implements leaderboard.StatsProvider. The client itself never
// caches, so it is the same lookup as FetchProfile.
func (c *Client) FetchStats(ctx context.Context, handle shared.Handle) (*leaderboard.Profile, error) {
	return c.FetchProfile(ctx, handle)
}

// BreakerState returns the state of the upstream circuit.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// Reset closes the circuit and clears its counters.
func (c *Client) Reset() {
	c.breaker.Reset()
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// queryUser performs a single GraphQL request. Transient failures come back
// wrapped with retry.Retryable.
func (c *Client) queryUser(ctx context.Context, handle shared.Handle) (*MatchedUserDTO, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrStatsUnavailable, err)
	}

	body, err := json.Marshal(GraphQLRequest{
		Query:     userQuery,
		Variables: map[string]any{"username": handle.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://leetcode.com")

	if c.config.Debug {
		c.logger.Debug("leetcode api request", "handle", handle)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, retry.Retryable(fmt.Errorf("%w: http request: %v", shared.ErrStatsUnavailable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("%w: read response: %v", shared.ErrStatsUnavailable, err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.Retryable(fmt.Errorf("%w: status %d", shared.ErrStatsUnavailable, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.ErrHandleNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d", shared.ErrStatsUnavailable, resp.StatusCode)
	}

	var decoded UserResponseDTO
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", shared.ErrStatsUnavailable, err)
	}

	// The provider answers an unknown username with an error entry and a
	// null matchedUser.
	if len(decoded.Errors) > 0 || decoded.Data.MatchedUser == nil {
		if len(decoded.Errors) > 0 {
			return nil, shared.WrapError("stats", "Lookup", shared.ErrUpstreamNotFound,
				"handle not found upstream", decoded.Errors[0])
		}
		return nil, shared.ErrHandleNotFound
	}

	return decoded.Data.MatchedUser, nil
}
