// Package parse holds the deterministic HTML-pattern extractors used when
// the AI pass fails or returns low confidence: CSS-selector extraction for
// well-known page structures, embedded-JSON extraction for sites shipping a
// client-side data blob, and free-text patterns as a last resort. Each
// extractor returns only the fields it can find; defaulting is the
// extractor/orchestrator layer's job, never this one's.
package parse

import (
	"strings"

	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/model"
)

// Hints carries context the extractors can use to disambiguate content.
type Hints struct {
	Kind    model.RecordKind
	Company string
}

// Parser is one narrowly-scoped deterministic extractor.
type Parser interface {
	Parse(content *model.RawContent, hints Hints) (*model.Record, error)
	Name() string
}

// Family runs the extractors in order and combines whatever fields each one
// found into a single partial record.
type Family struct {
	parsers []Parser
}

// NewFamily creates a Family over the given parsers, applied in order.
func NewFamily(parsers ...Parser) *Family {
	return &Family{parsers: parsers}
}

// DefaultFamily returns the standard extractor ordering: selectors first
// (most precise), embedded JSON second, free-text patterns last.
func DefaultFamily() *Family {
	return NewFamily(
		NewSelectorParser(),
		NewScriptJSONParser(),
		NewFreeTextParser(),
	)
}

// Parse applies every extractor and merges results. Individual extractor
// failures are logged and skipped. Returns nil when nothing was found.
func (f *Family) Parse(content *model.RawContent, hints Hints) *model.Record {
	var merged *model.Record
	for _, p := range f.parsers {
		rec, err := p.Parse(content, hints)
		if err != nil {
			zap.L().Debug("parse: extractor failed",
				zap.String("extractor", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if rec.Empty() {
			continue
		}
		zap.L().Debug("parse: extractor found fields",
			zap.String("extractor", p.Name()),
			zap.String("kind", string(hints.Kind)),
		)
		merged = combine(merged, rec)
	}
	return merged
}

// combine folds b into a: scalar fields fill gaps only, team members are
// unioned by case-insensitive name.
func combine(a, b *model.Record) *model.Record {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	if a.Profile == nil {
		a.Profile = b.Profile
	} else if b.Profile != nil {
		fillProfile(a.Profile, b.Profile)
	}

	if b.Product != nil {
		if a.Product == nil {
			a.Product = b.Product
		} else {
			fillProduct(a.Product, b.Product)
		}
	}

	if b.Metrics != nil {
		if a.Metrics == nil {
			a.Metrics = b.Metrics
		} else {
			fillMetrics(a.Metrics, b.Metrics)
		}
	}

	seen := make(map[string]bool, len(a.Team))
	for _, m := range a.Team {
		seen[strings.ToLower(m.Name)] = true
	}
	for _, m := range b.Team {
		if !seen[strings.ToLower(m.Name)] {
			a.Team = append(a.Team, m)
			seen[strings.ToLower(m.Name)] = true
		}
	}

	return a
}

func fillProfile(dst, src *model.Profile) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.CurrentRole == "" {
		dst.CurrentRole = src.CurrentRole
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

func fillProduct(dst, src *model.ProductInfo) {
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

func fillMetrics(dst, src *model.BusinessMetrics) {
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
