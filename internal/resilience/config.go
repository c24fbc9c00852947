package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig.
func FromRetryConfig(maxRetries, rateLimitBaseSecs int) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxRetries > 0 {
		cfg.MaxRetries = maxRetries
	}
	if rateLimitBaseSecs > 0 {
		cfg.RateLimitBase = time.Duration(rateLimitBaseSecs) * time.Second
	}
	return cfg
}
