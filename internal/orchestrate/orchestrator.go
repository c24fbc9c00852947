// Package orchestrate sequences content acquisition, AI extraction, and the
// deterministic fallback extractors into one pipeline per request, modeled
// as an explicit state machine so the fallback-versus-enhance policy is
// visible in one place.
package orchestrate

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/acquire"
	"github.com/prospectai/prospect-cli/internal/extract"
	"github.com/prospectai/prospect-cli/internal/merge"
	"github.com/prospectai/prospect-cli/internal/model"
	"github.com/prospectai/prospect-cli/internal/parse"
	"github.com/prospectai/prospect-cli/internal/ratelimit"
	"github.com/prospectai/prospect-cli/internal/resilience"
)

// State names one step of the extraction pipeline.
type State string

const (
	StateFetching     State = "fetching"
	StateAIExtracting State = "ai_extracting"
	StateEnhancing    State = "enhancing"
	StateFallingBack  State = "falling_back"
	StateMerging      State = "merging"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// completionKey is the rate limiter client key for the completion service.
const completionKey = "completion"

// DefaultConfidenceThreshold gates the deterministic enhancement pass.
const DefaultConfidenceThreshold = 0.7

// Orchestrator runs the full pipeline for one extraction request. It is
// safe for concurrent use; the rate limiter is the only shared mutable
// state and it locks internally.
type Orchestrator struct {
	acquirer  *acquire.Chain
	extractor *extract.Extractor
	limiter   *ratelimit.Limiter
	retry     resilience.RetryConfig
	parsers   *parse.Family
	merger    *merge.Merger
	threshold float64
}

// Options configures an Orchestrator. Zero-value fields get defaults.
type Options struct {
	Acquirer  *acquire.Chain
	Extractor *extract.Extractor
	Limiter   *ratelimit.Limiter
	Retry     resilience.RetryConfig
	Parsers   *parse.Family
	Matcher   merge.NameMatcher
	// Threshold is the confidence below which the deterministic extractors
	// run to backfill gaps. Zero means DefaultConfidenceThreshold.
	Threshold float64
}

func New(opts Options) *Orchestrator {
	if opts.Parsers == nil {
		opts.Parsers = parse.DefaultFamily()
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultConfidenceThreshold
	}
	return &Orchestrator{
		acquirer:  opts.Acquirer,
		extractor: opts.Extractor,
		limiter:   opts.Limiter,
		retry:     opts.Retry,
		parsers:   opts.Parsers,
		merger:    merge.NewMerger(opts.Matcher),
		threshold: opts.Threshold,
	}
}

// Request is one unit of pipeline work. Either URL or RawText must be set;
// when both are set the raw text wins and no fetch occurs.
type Request struct {
	URL     string
	RawText string
	Kind    model.RecordKind
	Company string
	Seed    *model.Record
}

// run is the per-request machine state. It lives for one Run call.
type run struct {
	req      Request
	state    State
	content  *model.RawContent
	aiResult model.ExtractionResult
	parsed   *model.Record
	final    model.ExtractionResult
	log      *zap.Logger
}

// Run drives the state machine to completion and returns the final result.
// Errors are always folded into the result; Run never panics on malformed
// upstream output.
func (o *Orchestrator) Run(ctx context.Context, req Request) model.ExtractionResult {
	runID := uuid.NewString()
	r := &run{
		req:   req,
		state: StateFetching,
		log: zap.L().With(
			zap.String("kind", string(req.Kind)),
			zap.String("url", req.URL),
			zap.String("run_id", runID),
		),
	}
	if req.RawText != "" {
		r.content = &model.RawContent{HTML: req.RawText, Markdown: req.RawText, Source: "caller"}
		r.state = StateAIExtracting
	}

	for r.state != StateDone && r.state != StateFailed {
		prev := r.state
		r.state = o.step(ctx, r)
		r.log.Debug("orchestrate: transition",
			zap.String("from", string(prev)),
			zap.String("to", string(r.state)),
		)
	}
	r.final.RunID = runID
	return r.final
}

// step is the single transition function. Each state does its work and
// names the next state.
func (o *Orchestrator) step(ctx context.Context, r *run) State {
	switch r.state {
	case StateFetching:
		return o.fetch(ctx, r)
	case StateAIExtracting:
		return o.aiExtract(ctx, r)
	case StateEnhancing:
		return o.enhance(r)
	case StateFallingBack:
		return o.fallBack(r)
	case StateMerging:
		return o.mergeResults(r)
	default:
		r.final = model.Failure("orchestrate: unknown state " + string(r.state))
		return StateFailed
	}
}

// fetch runs the acquisition chain. Exhausting every strategy is terminal;
// no record is produced from nothing.
func (o *Orchestrator) fetch(ctx context.Context, r *run) State {
	if o.acquirer == nil {
		r.final = model.Failure("orchestrate: no content acquirer configured")
		return StateFailed
	}
	content, err := o.acquirer.Fetch(ctx, r.req.URL)
	if err != nil {
		r.log.Warn("orchestrate: fetch failed", zap.Error(err))
		r.final = model.Failure(eris.Wrap(err, "orchestrate: fetch").Error())
		return StateFailed
	}
	r.content = content
	return StateAIExtracting
}

// aiExtract wraps the structured extractor in the retry coordinator and
// rate limiter. A structured failure after retries moves to the fallback
// path rather than failing outright.
func (o *Orchestrator) aiExtract(ctx context.Context, r *run) State {
	req := model.ExtractionRequest{
		RawText: r.content.Markdown,
		Kind:    r.req.Kind,
		Seed:    r.req.Seed,
		Context: r.req.Company,
	}
	if req.RawText == "" {
		req.RawText = r.content.HTML
	}

	cfg := o.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(completionKey, string(r.req.Kind))
	}
	result, err := resilience.RetryResult(ctx, cfg,
		func(ctx context.Context) (model.ExtractionResult, error) {
			if o.limiter != nil {
				if acqErr := o.limiter.Acquire(ctx, completionKey); acqErr != nil {
					return model.ExtractionResult{}, acqErr
				}
			}
			return o.extractor.Extract(ctx, req), nil
		},
		func(res model.ExtractionResult) (bool, string) {
			return !res.Success, res.Error
		},
	)
	if err != nil && result.Error == "" {
		result = model.Failure(err.Error())
	}
	r.aiResult = result

	switch {
	case result.Success && result.Confidence >= o.threshold:
		r.final = result
		return StateDone
	case result.Success:
		r.log.Info("orchestrate: low confidence, running deterministic pass",
			zap.Float64("confidence", result.Confidence),
			zap.Float64("threshold", o.threshold),
		)
		return StateEnhancing
	default:
		r.log.Warn("orchestrate: AI extraction failed, falling back",
			zap.String("error", result.Error),
		)
		return StateFallingBack
	}
}

// enhance runs the deterministic extractors to backfill a low-confidence AI
// record, then merges.
func (o *Orchestrator) enhance(r *run) State {
	r.parsed = o.parsers.Parse(r.content, parse.Hints{Kind: r.req.Kind, Company: r.req.Company})
	if r.parsed.Empty() {
		// Nothing to add; the AI record stands.
		r.final = r.aiResult
		return StateDone
	}
	return StateMerging
}

// fallBack runs the deterministic extractors alone after an AI failure.
// Confidence comes from the same field-presence scoring the AI path uses.
func (o *Orchestrator) fallBack(r *run) State {
	rec := o.parsers.Parse(r.content, parse.Hints{Kind: r.req.Kind, Company: r.req.Company})
	if rec.Empty() {
		r.final = r.aiResult
		if r.final.Error == "" {
			r.final = model.Failure("orchestrate: AI extraction and deterministic extractors both produced nothing")
		}
		return StateFailed
	}
	if r.req.Kind == model.KindTeamRoster {
		total := len(rec.Team)
		rec.Team = extract.ValidateRoster(rec.Team, r.req.Company)
		r.final = model.ExtractionResult{
			Success:    len(rec.Team) > 0,
			Record:     rec,
			Confidence: extract.RosterConfidence(len(rec.Team), total),
		}
		if !r.final.Success {
			r.final.Error = "orchestrate: deterministic roster had no valid members"
			return StateFailed
		}
		return StateDone
	}
	confidence := extract.ScoreRecord(r.req.Kind, rec)
	if r.req.Kind == model.KindProfile {
		// Deterministic profiles honor the same required-field contract as
		// the AI path: seed values first, then the sentinels.
		if rec.Profile == nil {
			rec.Profile = &model.Profile{}
		}
		var seed *model.Profile
		if r.req.Seed != nil {
			seed = r.req.Seed.Profile
		}
		extract.FillRequiredProfileFields(rec.Profile, seed)
	}
	r.final = model.ExtractionResult{
		Success:    true,
		Record:     rec,
		Confidence: confidence,
	}
	return StateDone
}

// mergeResults folds the deterministic fields into the AI record. The AI
// record is authoritative; deterministic output only fills gaps and, for
// rosters, contributes members the AI pass missed.
func (o *Orchestrator) mergeResults(r *run) State {
	rec := r.aiResult.Record
	if rec == nil {
		rec = &model.Record{}
	}

	if r.req.Kind == model.KindTeamRoster {
		secondary := extract.ValidateRoster(r.parsed.Team, r.req.Company)
		rec.Team = o.merger.Merge(rec.Team, secondary)
	} else {
		fillRecord(rec, r.parsed)
	}

	final := r.aiResult
	final.Record = rec
	if rescored := extract.ScoreRecord(r.req.Kind, rec); rescored > final.Confidence {
		final.Confidence = rescored
	}
	r.final = final
	return StateDone
}

// fillRecord copies scalar fields the primary record is missing from the
// deterministic pass.
func fillRecord(dst, src *model.Record) {
	if src == nil {
		return
	}
	if dst.Profile == nil {
		dst.Profile = src.Profile
	} else if src.Profile != nil {
		fillProfileGaps(dst.Profile, src.Profile)
	}
	if dst.Product == nil {
		dst.Product = src.Product
	} else if src.Product != nil {
		fillProductGaps(dst.Product, src.Product)
	}
	if dst.Metrics == nil {
		dst.Metrics = src.Metrics
	} else if src.Metrics != nil {
		fillMetricsGaps(dst.Metrics, src.Metrics)
	}
}

func fillProfileGaps(dst, src *model.Profile) {
	if dst.Name == "" || dst.Name == model.UnknownProfileName {
		if src.Name != "" {
			dst.Name = src.Name
		}
	}
	if dst.CurrentRole == "" || dst.CurrentRole == model.UnknownProfileRole {
		if src.CurrentRole != "" {
			dst.CurrentRole = src.CurrentRole
		}
	}
	if dst.Company == "" {
		dst.Company = src.Company
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if dst.Summary == "" {
		dst.Summary = src.Summary
	}
	if len(dst.Experience) == 0 {
		dst.Experience = src.Experience
	}
	if len(dst.Skills) == 0 {
		dst.Skills = src.Skills
	}
}

func fillProductGaps(dst, src *model.ProductInfo) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if len(dst.Features) == 0 {
		dst.Features = src.Features
	}
	if dst.PricingModel == "" {
		dst.PricingModel = src.PricingModel
	}
	if dst.TargetMarket == "" {
		dst.TargetMarket = src.TargetMarket
	}
	if len(dst.Competitors) == 0 {
		dst.Competitors = src.Competitors
	}
	if dst.MarketAnalysis == "" {
		dst.MarketAnalysis = src.MarketAnalysis
	}
}

func fillMetricsGaps(dst, src *model.BusinessMetrics) {
	if dst.EmployeeCount == 0 {
		dst.EmployeeCount = src.EmployeeCount
	}
	if dst.FundingAmount == "" {
		dst.FundingAmount = src.FundingAmount
	}
	if dst.GrowthStage == "" {
		dst.GrowthStage = src.GrowthStage
	}
	if dst.BusinessModel == "" {
		dst.BusinessModel = src.BusinessModel
	}
	if dst.RevenueModel == "" {
		dst.RevenueModel = src.RevenueModel
	}
	if dst.MarketPosition == "" {
		dst.MarketPosition = src.MarketPosition
	}
	if len(dst.KeyMetrics) == 0 {
		dst.KeyMetrics = src.KeyMetrics
	}
}

// ExtractProfile runs the pipeline over caller-supplied text for a person
// profile.
func (o *Orchestrator) ExtractProfile(ctx context.Context, rawText string, seed *model.Record) model.ExtractionResult {
	return o.Run(ctx, Request{RawText: rawText, Kind: model.KindProfile, Seed: seed})
}

// ExtractTeamRoster runs the pipeline over caller-supplied text for a team
// roster. Company backfills members extracted without one.
func (o *Orchestrator) ExtractTeamRoster(ctx context.Context, rawText, company string) model.ExtractionResult {
	return o.Run(ctx, Request{RawText: rawText, Kind: model.KindTeamRoster, Company: company})
}

// ExtractProductInfo runs the pipeline over caller-supplied text for a
// product description.
func (o *Orchestrator) ExtractProductInfo(ctx context.Context, rawText, product string) model.ExtractionResult {
	return o.Run(ctx, Request{RawText: rawText, Kind: model.KindProductInfo, Company: product})
}

// ExtractBusinessMetrics runs the pipeline over caller-supplied text for
// business metrics.
func (o *Orchestrator) ExtractBusinessMetrics(ctx context.Context, rawText, company string) model.ExtractionResult {
	return o.Run(ctx, Request{RawText: rawText, Kind: model.KindBusinessMetrics, Company: company})
}
