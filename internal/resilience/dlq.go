package resilience

import (
	"time"
)

// DLQEntry represents a failed extraction target that can be retried later.
// The batch command appends these to a JSON-lines file for a later re-run.
type DLQEntry struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Kind         string    `json:"kind"`
	Error        string    `json:"error"`
	ErrorType    string    `json:"error_type"` // "transient" or "permanent"
	RetryCount   int       `json:"retry_count"`
	MaxRetries   int       `json:"max_retries"`
	CreatedAt    time.Time `json:"created_at"`
	LastFailedAt time.Time `json:"last_failed_at"`
}

// CanRetry returns true if this entry hasn't exceeded its max retry count.
func (e *DLQEntry) CanRetry() bool {
	return e.RetryCount < e.MaxRetries
}

// ClassifyError categorizes an error as "transient" or "permanent".
func ClassifyError(err error) string {
	if IsTransient(err) || IsRateLimited(err) {
		return "transient"
	}
	return "permanent"
}

// ClassifyErrorText is ClassifyError for failures that only survive as a
// message string.
func ClassifyErrorText(msg string) string {
	if IsRateLimitText(msg) {
		return "transient"
	}
	return "permanent"
}
