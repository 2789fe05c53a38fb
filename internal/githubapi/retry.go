package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries        = 3
	defaultInitialBackoff    = time.Second
	defaultMaxBackoff        = 30 * time.Second
	defaultBackoffMultiplier = 2.0
	rateLimitResetBuffer     = time.Second
)

// RetryConfig configures retries of API calls that fail transiently.
// MaxRetries of zero disables retries; zero durations and multiplier take defaults.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the retry configuration used by NewClient.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        defaultMaxRetries,
		InitialBackoff:    defaultInitialBackoff,
		MaxBackoff:        defaultMaxBackoff,
		BackoffMultiplier: defaultBackoffMultiplier,
	}
}

func (config RetryConfig) withDefaults() RetryConfig {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaultInitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaultMaxBackoff
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = defaultBackoffMultiplier
	}
	return config
}

// retryOperation runs operation until it succeeds, fails permanently, or retries run out.
// Rate-limited calls wait for the advertised reset unless it lies beyond MaxBackoff.
func retryOperation(ctx context.Context, config RetryConfig, logger *zap.Logger, operationName string, operation func() (*github.Response, error)) (*github.Response, error) {
	config = config.withDefaults()
	backoff := config.InitialBackoff
	startTime := time.Now()

	var lastResponse *github.Response
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		response, err := operation()
		if err == nil {
			if attempt > 0 {
				logger.Debug("api call recovered after retries",
					zap.String("operation", operationName),
					zap.Int("attempts", attempt),
					zap.Duration("total_time", time.Since(startTime)),
				)
			}
			return response, nil
		}
		lastResponse = response
		lastErr = err

		if !isRetryableError(err, response) || attempt == config.MaxRetries {
			break
		}

		wait := backoff
		if isRateLimitResponse(err, response) {
			resetWait, known := rateLimitWait(response)
			if !known || resetWait > config.MaxBackoff {
				break
			}
			wait = resetWait
		}
		logger.Debug("retrying api call",
			zap.String("operation", operationName),
			zap.Int("attempt", attempt+1),
			zap.Int("status_code", statusCode(response)),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastResponse, fmt.Errorf("%s canceled: %w", operationName, ctx.Err())
		case <-timer.C:
		}
		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	if isRateLimitResponse(lastErr, lastResponse) {
		return lastResponse, fmt.Errorf("%s: %w: %v", operationName, ErrRateLimited, lastErr)
	}
	return lastResponse, fmt.Errorf("%s: %w", operationName, lastErr)
}

func isRetryableError(err error, response *github.Response) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if isRateLimitResponse(err, response) {
		return true
	}
	code := statusCode(response)
	if code == 0 {
		return true
	}
	return code >= http.StatusInternalServerError && code < 600
}

func isRateLimitResponse(err error, response *github.Response) bool {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	switch statusCode(response) {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return response.Rate.Limit > 0 && response.Rate.Remaining == 0
	}
	return false
}

// rateLimitWait returns the time until the advertised reset and whether one was advertised.
func rateLimitWait(response *github.Response) (time.Duration, bool) {
	if response == nil || response.Rate.Reset.Time.IsZero() {
		return 0, false
	}
	wait := time.Until(response.Rate.Reset.Time) + rateLimitResetBuffer
	if wait < rateLimitResetBuffer {
		wait = rateLimitResetBuffer
	}
	return wait, true
}

func statusCode(response *github.Response) int {
	if response != nil && response.Response != nil {
		return response.StatusCode
	}
	return 0
}
