package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// sleepRecorder captures backoff delays instead of sleeping.
func sleepRecorder(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

type fakeResult struct {
	ok  bool
	msg string
}

func failedCheck(r fakeResult) (bool, string) {
	return !r.ok, r.msg
}

func TestRetryResult_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	res, err := RetryResult(context.Background(), DefaultRetryConfig(),
		func(_ context.Context) (fakeResult, error) {
			calls++
			return fakeResult{ok: true}, nil
		}, failedCheck)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ok {
		t.Error("expected successful result")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryResult_RateLimitBackoffSchedule(t *testing.T) {
	var delays []time.Duration
	cfg := RetryConfig{
		MaxRetries:    3,
		RateLimitBase: 5 * time.Second,
		Sleep:         sleepRecorder(&delays),
	}

	var calls int
	res, err := RetryResult(context.Background(), cfg,
		func(_ context.Context) (fakeResult, error) {
			calls++
			if calls <= 3 {
				return fakeResult{}, errors.New("429: rate limit exceeded")
			}
			return fakeResult{ok: true}, nil
		}, failedCheck)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ok {
		t.Error("expected the successful result after retries")
	}

	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d: %v", len(want), len(delays), delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("sleep %d: expected %s, got %s", i, d, delays[i])
		}
	}
}

func TestRetryResult_NonRateLimitRetriesImmediately(t *testing.T) {
	var delays []time.Duration
	cfg := RetryConfig{
		MaxRetries: 3,
		Sleep:      sleepRecorder(&delays),
	}

	var calls int
	_, err := RetryResult(context.Background(), cfg,
		func(_ context.Context) (fakeResult, error) {
			calls++
			if calls < 3 {
				return fakeResult{}, errors.New("connection reset by peer")
			}
			return fakeResult{ok: true}, nil
		}, failedCheck)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(delays) != 0 {
		t.Errorf("expected no backoff sleeps for non-rate-limit failures, got %v", delays)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryResult_StructuredFailureRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, Sleep: sleepRecorder(&[]time.Duration{})}

	var calls int
	res, err := RetryResult(context.Background(), cfg,
		func(_ context.Context) (fakeResult, error) {
			calls++
			if calls == 1 {
				return fakeResult{ok: false, msg: "no json found"}, nil
			}
			return fakeResult{ok: true}, nil
		}, failedCheck)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ok {
		t.Error("expected success after structured-failure retry")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryResult_ExhaustedReturnsLastResult(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, Sleep: sleepRecorder(&[]time.Duration{})}

	var calls int
	res, err := RetryResult(context.Background(), cfg,
		func(_ context.Context) (fakeResult, error) {
			calls++
			return fakeResult{ok: false, msg: fmt.Sprintf("failure %d", calls)}, nil
		}, failedCheck)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	// The last result, not the first, comes back.
	if res.msg != "failure 3" {
		t.Errorf("expected last result, got %q", res.msg)
	}
}

func TestRetryResult_OnRetryCallback(t *testing.T) {
	var attempts []int
	var causes []string
	cfg := RetryConfig{
		MaxRetries: 2,
		Sleep:      sleepRecorder(&[]time.Duration{}),
		OnRetry: func(attempt int, cause string) {
			attempts = append(attempts, attempt)
			causes = append(causes, cause)
		},
	}

	_, _ = RetryResult(context.Background(), cfg,
		func(_ context.Context) (fakeResult, error) {
			return fakeResult{}, errors.New("boom")
		}, failedCheck)

	if len(attempts) != 2 {
		t.Fatalf("expected 2 retry callbacks, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", attempts)
	}
	if causes[0] != "boom" {
		t.Errorf("expected cause %q, got %q", "boom", causes[0])
	}
}

func TestRetryResult_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, err := RetryResult(ctx, RetryConfig{MaxRetries: 5},
		func(_ context.Context) (fakeResult, error) {
			calls++
			cancel()
			return fakeResult{}, errors.New("boom")
		}, failedCheck)
	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation stopped retries, got %d", calls)
	}
}

func TestRetryResult_ZeroRetriesSingleAttempt(t *testing.T) {
	var calls int
	_, err := RetryResult(context.Background(), RetryConfig{MaxRetries: 0},
		func(_ context.Context) (fakeResult, error) {
			calls++
			return fakeResult{}, errors.New("boom")
		}, failedCheck)
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
