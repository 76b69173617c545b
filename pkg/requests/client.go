package requests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

const maxErrorBody = 512

// Client performs rate limited GET requests with retries; one limiter is shared by every request
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
}

func NewClient(httpClient *http.Client, limiter *rate.Limiter, policy RetryPolicy) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultSyncTimeout}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(constants.DefaultRateLimit), constants.DefaultRateLimit)
	}

	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		retry:      policy,
	}
}

// NewLimiter returns a token bucket allowing requestsPerSecond with an equal burst
func NewLimiter(requestsPerSecond int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	return rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
}

// GetJSON fetches rawURL and decodes the body into dst, numbers decoded as json.Number
func (c *Client) GetJSON(ctx context.Context, rawURL string, dst any) error {
	redacted := Redact(rawURL)

	return c.retry.Do(ctx, redacted, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		return c.get(ctx, rawURL, redacted, dst)
	})
}

func (c *Client) get(ctx context.Context, rawURL, redacted string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %s", constants.ErrNonRetryable, hideURL(err, redacted))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", redacted, hideURL(err, redacted))
	}
	defer resp.Body.Close()

	logger.Debugf("GET %s returned %d in %s", redacted, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        redacted,
			Body:       string(body),
		}
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response of %s: %s", constants.ErrMalformedResponse, redacted, err)
	}

	return nil
}

// Redact hides the token query parameter of a request url
func Redact(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		// unparsable; drop the whole query
		base, _, _ := strings.Cut(rawURL, "?")
		return base
	}

	query := parsed.Query()
	if query.Has("token") {
		query.Set("token", "xxxxx")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

// hideURL swaps the url carried by net/url errors, which holds the token, for its redacted form
func hideURL(err error, redacted string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redacted
	}
	return err
}
