package orchestrate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prospectai/prospect-cli/internal/model"
	"github.com/prospectai/prospect-cli/internal/resilience"
)

// BatchItem is one target in a batch run.
type BatchItem struct {
	URL     string           `json:"url"`
	Kind    model.RecordKind `json:"kind"`
	Company string           `json:"company,omitempty"`
}

// BatchOutcome pairs an item with its result.
type BatchOutcome struct {
	Item   BatchItem              `json:"item"`
	Result model.ExtractionResult `json:"result"`
}

// BatchReport summarizes a batch run. Failed items land in DeadLetters with
// their error classification so a later run can retry the transient ones.
type BatchReport struct {
	Outcomes    []BatchOutcome        `json:"outcomes"`
	DeadLetters []resilience.DLQEntry `json:"dead_letters,omitempty"`
	Succeeded   int                   `json:"succeeded"`
	Failed      int                   `json:"failed"`
	Elapsed     time.Duration         `json:"elapsed"`
}

// RunBatch processes items through a bounded worker pool. Workers share the
// orchestrator's rate limiter, so concurrency never defeats the per-minute
// bound. Item failures are recorded, not returned; the only error is
// context cancellation.
func (o *Orchestrator) RunBatch(ctx context.Context, items []BatchItem, workers int) (*BatchReport, error) {
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	outcomes := make([]BatchOutcome, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := o.Run(ctx, Request{URL: item.URL, Kind: item.Kind, Company: item.Company})
			outcomes[i] = BatchOutcome{Item: item, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &BatchReport{Outcomes: outcomes, Elapsed: time.Since(start)}
	now := time.Now()
	for _, out := range outcomes {
		if out.Result.Success {
			report.Succeeded++
			continue
		}
		report.Failed++
		report.DeadLetters = append(report.DeadLetters, resilience.DLQEntry{
			ID:           uuid.NewString(),
			URL:          out.Item.URL,
			Kind:         string(out.Item.Kind),
			Error:        out.Result.Error,
			ErrorType:    resilience.ClassifyErrorText(out.Result.Error),
			RetryCount:   0,
			MaxRetries:   3,
			CreatedAt:    now,
			LastFailedAt: now,
		})
	}

	zap.L().Info("orchestrate: batch complete",
		zap.Int("items", len(items)),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
