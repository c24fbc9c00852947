package extract

import "github.com/prospectai/prospect-cli/internal/model"

// Confidence scoring is a pure function of the parsed payload: field
// presence, not the model's self-reported certainty. Each record kind has a
// weight table (required fields share, optional fields share) so adding a
// kind adds a table, not new branching logic.

// fieldPresence marks one scored field as present or absent.
type fieldPresence struct {
	name    string
	present bool
}

// weighted splits requiredShare evenly across required fields and the
// remainder across optional fields, scoring present/absent.
func weighted(required []fieldPresence, requiredShare float64, optional []fieldPresence) float64 {
	score := 0.0
	if len(required) > 0 {
		per := requiredShare / float64(len(required))
		for _, f := range required {
			if f.present {
				score += per
			}
		}
	}
	if len(optional) > 0 {
		per := (1.0 - requiredShare) / float64(len(optional))
		for _, f := range optional {
			if f.present {
				score += per
			}
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ScoreProfile computes the confidence for a profile: required fields carry
// 60% evenly, optional fields the remaining 40% evenly. Sentinel values do
// not count as present.
func ScoreProfile(p *model.Profile) float64 {
	if p == nil {
		return 0
	}
	required := []fieldPresence{
		{"name", p.Name != "" && p.Name != model.UnknownProfileName},
		{"current_role", p.CurrentRole != "" && p.CurrentRole != model.UnknownProfileRole},
	}
	optional := []fieldPresence{
		{"experience", len(p.Experience) > 0},
		{"skills", len(p.Skills) > 0},
		{"summary", p.Summary != ""},
	}
	return weighted(required, 0.6, optional)
}

// ScoreProduct computes the confidence for a product record with a 50/50
// required/optional split.
func ScoreProduct(p *model.ProductInfo) float64 {
	if p == nil {
		return 0
	}
	required := []fieldPresence{
		{"name", p.Name != ""},
		{"description", p.Description != ""},
	}
	optional := []fieldPresence{
		{"features", len(p.Features) > 0},
		{"pricing_model", p.PricingModel != ""},
		{"target_market", p.TargetMarket != ""},
		{"competitors", len(p.Competitors) > 0},
		{"market_analysis", p.MarketAnalysis != ""},
	}
	return weighted(required, 0.5, optional)
}

// ScoreMetrics computes the confidence for business metrics: five fields at
// 20% each plus a small bonus for a non-empty key-metric map, capped at 1.0.
func ScoreMetrics(m *model.BusinessMetrics) float64 {
	if m == nil {
		return 0
	}
	fields := []fieldPresence{
		{"employee_count", m.EmployeeCount > 0},
		{"funding_amount", m.FundingAmount != ""},
		{"growth_stage", m.GrowthStage != ""},
		{"business_model", m.BusinessModel != ""},
		{"market_position", m.MarketPosition != ""},
	}
	score := 0.0
	for _, f := range fields {
		if f.present {
			score += 0.2
		}
	}
	if len(m.KeyMetrics) > 0 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// RosterConfidence is the share of candidate members that passed validation.
// Returns 0 when the candidate list is empty.
func RosterConfidence(valid, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(valid) / float64(total)
}

// ScoreRecord applies the kind-appropriate scorer to a record.
func ScoreRecord(kind model.RecordKind, rec *model.Record) float64 {
	if rec == nil {
		return 0
	}
	switch kind {
	case model.KindProfile:
		return ScoreProfile(rec.Profile)
	case model.KindTeamRoster:
		valid := 0
		for _, m := range rec.Team {
			if m.Valid() {
				valid++
			}
		}
		return RosterConfidence(valid, len(rec.Team))
	case model.KindProductInfo:
		return ScoreProduct(rec.Product)
	case model.KindBusinessMetrics:
		return ScoreMetrics(rec.Metrics)
	default:
		return 0
	}
}
