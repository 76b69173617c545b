package driver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/pkg/requests"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/typeutils"
)

type Config struct {
	// API base, e.g. https://<account>.app.apparelmagic.com/api/json
	URL   string `json:"url" validate:"required,url"`
	Token string `json:"token" validate:"required"`
	// First cursor of time bookmarked streams without state
	StartDate string `json:"start_date,omitempty"`

	PageSize            int `json:"page_size,omitempty" validate:"gte=0"`
	RequestsPerSecond   int `json:"requests_per_second,omitempty" validate:"gte=0"`
	MaxRetries          int `json:"max_retries,omitempty" validate:"gte=0"`
	RetryInitialDelayMs int `json:"retry_initial_delay_ms,omitempty" validate:"gte=0"`
	RetryMaxDelayMs     int `json:"retry_max_delay_ms,omitempty" validate:"gte=0"`
	TimeoutSeconds      int `json:"timeout_seconds,omitempty" validate:"gte=0"`
}

func (c *Config) Validate() error {
	if err := utils.Validate(c); err != nil {
		return fmt.Errorf("%w: %s", constants.ErrConfig, err)
	}

	if c.StartDate != "" {
		if _, err := typeutils.ReformatDate(c.StartDate); err != nil {
			return fmt.Errorf("%w: invalid start_date[%s]: %s", constants.ErrConfig, c.StartDate, err)
		}
	}

	c.URL = strings.TrimRight(c.URL, "/")
	c.PageSize = utils.Ternary(c.PageSize == 0, constants.DefaultPageSize, c.PageSize).(int)
	c.RequestsPerSecond = utils.Ternary(c.RequestsPerSecond == 0, constants.DefaultRateLimit, c.RequestsPerSecond).(int)
	c.MaxRetries = utils.Ternary(c.MaxRetries == 0, constants.DefaultMaxRetries, c.MaxRetries).(int)
	c.RetryInitialDelayMs = utils.Ternary(c.RetryInitialDelayMs == 0, 1000, c.RetryInitialDelayMs).(int)
	c.RetryMaxDelayMs = utils.Ternary(c.RetryMaxDelayMs == 0, 60000, c.RetryMaxDelayMs).(int)
	c.TimeoutSeconds = utils.Ternary(c.TimeoutSeconds == 0, int(constants.DefaultSyncTimeout.Seconds()), c.TimeoutSeconds).(int)

	return nil
}

func (c *Config) RetryPolicy() requests.RetryPolicy {
	return requests.RetryPolicy{
		MaxAttempts:  uint(c.MaxRetries) + 1,
		InitialDelay: time.Duration(c.RetryInitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		Retryable:    requests.IsRetryable,
	}
}

func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: time.Duration(c.TimeoutSeconds) * time.Second}
}
