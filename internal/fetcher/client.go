package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 32 << 20

// ErrEmptyPayload marks a response that decoded but carried no data.
var ErrEmptyPayload = errors.New("empty payload")

// ClientOptions parameterise the upstream JSON client.
type ClientOptions struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	MaxAttempts int
	Policy      Policy
	// RateLimit is requests per second across all calls; 0 disables pacing.
	RateLimit float64
	Burst     int
}

// Client performs GET requests against the upstream API with bounded retry.
type Client struct {
	opts    ClientOptions
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient constructs a Client, filling in defaults for unset options.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Policy == nil {
		opts.Policy = Fixed{Interval: time.Second}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		opts:    opts,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With().Str("component", "upstream_client").Logger(),
	}
}

// Validator rejects payloads that decoded but are not usable.
type Validator[T any] func(T) error

// NonEmpty rejects empty sequences.
func NonEmpty[E any](rows []E) error {
	if len(rows) == 0 {
		return ErrEmptyPayload
	}
	return nil
}

// FetchWithRetry GETs path and decodes the JSON body into T. It returns nil
// when every attempt failed or ctx was cancelled; a result is never returned
// once ctx is done, even if the final attempt succeeded.
func FetchWithRetry[T any](ctx context.Context, c *Client, path string, query url.Values, validate Validator[T]) *T {
	log := c.logger.With().Str("path", path).Logger()

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			log.Debug().Int("attempt", attempt).Msg("fetch cancelled before attempt")
			return nil
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				log.Debug().Err(err).Msg("fetch cancelled while rate limited")
				return nil
			}
		}

		var out T
		err := c.getJSON(ctx, path, query, &out)
		if err == nil && validate != nil {
			err = validate(out)
		}
		if err == nil {
			if ctx.Err() != nil {
				log.Debug().Int("attempt", attempt).Msg("discarding result of cancelled fetch")
				return nil
			}
			return &out
		}

		if attempt == c.opts.MaxAttempts {
			log.Warn().Err(err).Int("attempt", attempt).Msg("fetch attempt failed")
			break
		}

		delay := c.opts.Policy.Delay(attempt)
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("fetch attempt failed")
		if err := sleep(ctx, delay); err != nil {
			log.Debug().Msg("fetch cancelled during backoff")
			return nil
		}
	}

	log.Error().Int("attempts", c.opts.MaxAttempts).Msg("upstream unavailable; giving up")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("upstream error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("upstream error (%d): %s", status, apiErr.Message)
		}
	}
	if body := strings.TrimSpace(string(payload)); body != "" {
		if len(body) > 200 {
			body = body[:200]
		}
		return fmt.Errorf("upstream error (%d): %s", status, body)
	}
	return fmt.Errorf("upstream error (%d)", status)
}
