package clients

import (
	"bytes"
	"context"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Jitter         bool
	RetryFunc      func(resp *http.Response, err error) bool
	CircuitBreaker *CircuitBreaker
}

// DefaultRetryConfig returns sensible defaults for HTTP retries
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Jitter:     true,
		RetryFunc:  DefaultShouldRetry,
	}
}

// DefaultShouldRetry determines if a request should be retried
func DefaultShouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}

	// Retry on server errors and rate limits
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// Backoff returns the delay before retry attempt n (0-based), following
// min(base * 2^n, max). The same curve drives HTTP retries here and the
// push-channel reconnect loop.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}

// DoWithRetry executes an HTTP request with exponential backoff retry and
// an optional circuit breaker.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, config RetryConfig) (*http.Response, error) {
	if config.CircuitBreaker == nil {
		return doRetryAttempts(ctx, client, req, config)
	}

	var resp *http.Response
	var err error
	cbErr := config.CircuitBreaker.Call(func() error {
		resp, err = doRetryAttempts(ctx, client, req, config)
		if err != nil {
			return err
		}
		if resp != nil && resp.StatusCode >= 500 {
			return &ServerError{StatusCode: resp.StatusCode}
		}
		return nil
	})
	if cbErr != nil && err == nil {
		return nil, cbErr
	}
	return resp, err
}

func doRetryAttempts(ctx context.Context, client *http.Client, req *http.Request, config RetryConfig) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	// Snapshot the body so each attempt can replay it.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		req.ContentLength = int64(len(bodyBytes))
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(bodyBytes)), nil }
	}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt-1, config.BaseDelay, config.MaxDelay)
			if config.Jitter {
				delay += time.Duration(rand.Int63n(int64(delay)/4 + 1))
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			if lastResp != nil {
				_ = lastResp.Body.Close()
			}
			if bodyBytes != nil {
				req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			}
		}

		resp, err := client.Do(req.WithContext(ctx))
		lastResp, lastErr = resp, err

		retryFunc := config.RetryFunc
		if retryFunc == nil {
			retryFunc = DefaultShouldRetry
		}
		if !retryFunc(resp, err) {
			return resp, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return lastResp, lastErr
}

// ServerError marks a 5xx response for circuit-breaker accounting.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return http.StatusText(e.StatusCode)
}
