package shopify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/infrastructure/metrics"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond is the gateway's admission rate for one shop.
const DefaultRequestsPerSecond = 10

// graphqlClient is the transport under the gateway. Satisfied by the
// go-shopify GraphQL service.
type graphqlClient interface {
	Query(ctx context.Context, query string, variables interface{}, response interface{}) error
}

// RetryConfig controls retry behavior for throttled and transient failures.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns the retry configuration used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     8 * time.Second,
	}
}

// Gateway mediates every Admin GraphQL call for one shop: token-bucket
// admission, throttle detection and bounded exponential-backoff retry. All
// sync code reaches the network through here.
type Gateway struct {
	gql     graphqlClient
	limiter *rate.Limiter
	retry   RetryConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewGateway creates a gateway over the given GraphQL transport.
func NewGateway(gql graphqlClient, limiter *rate.Limiter, retry RetryConfig, m *metrics.Metrics, logger zerolog.Logger) *Gateway {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond)
	}
	return &Gateway{
		gql:     gql,
		limiter: limiter,
		retry:   retry,
		metrics: m,
		logger:  logger,
	}
}

// Request admits, issues and retries one GraphQL call, decoding the response
// into out. Throttled calls are retried with exponential backoff; after the
// attempt budget is spent the call fails with domain.ErrRateLimitExceeded.
// Transient network failures get the same bounded retry; every other error
// propagates unchanged.
func (g *Gateway) Request(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	throttled := false
	attempt := 0

	operation := func() error {
		attempt++
		if attempt > 1 {
			g.metrics.GatewayRetries.Inc()
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		err := g.gql.Query(ctx, query, variables, out)
		if err == nil {
			throttled = false
			return nil
		}

		if isThrottled(err) {
			throttled = true
			g.metrics.GatewayThrottles.Inc()
			g.logger.Warn().Err(err).Int("attempt", attempt).Msg("Upstream throttled request, backing off")
			return err
		}
		if isTransient(err) {
			throttled = false
			g.logger.Warn().Err(err).Int("attempt", attempt).Msg("Transient network failure, retrying")
			return err
		}

		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.retry.InitialInterval
	bo.MaxInterval = g.retry.MaxInterval
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(g.retry.MaxAttempts-1)), ctx))
	if err != nil {
		g.metrics.GatewayRequests.WithLabelValues("error").Inc()
		if throttled {
			return fmt.Errorf("%w after %d attempts: %v", domain.ErrRateLimitExceeded, attempt, err)
		}
		return err
	}

	g.metrics.GatewayRequests.WithLabelValues("ok").Inc()
	return nil
}

// isThrottled reports whether the error is an upstream throttling signal:
// HTTP 429 or a GraphQL error with the THROTTLED cost code.
func isThrottled(err error) bool {
	var rateErr goshopify.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "throttled") || strings.Contains(msg, "429")
}

// isTransient reports whether the error looks like a recoverable network
// failure rather than an API rejection.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "unexpected eof")
}
