package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prospectai/prospect-cli/internal/model"
)

func TestScoreProfile_Weights(t *testing.T) {
	// Required fields only: 60% split evenly.
	p := &model.Profile{Name: "Jane Doe", CurrentRole: "Engineer"}
	assert.InDelta(t, 0.6, ScoreProfile(p), 0.001)

	// One required field: half of the 60%.
	p = &model.Profile{Name: "Jane Doe"}
	assert.InDelta(t, 0.3, ScoreProfile(p), 0.001)

	// All fields present: 1.0.
	p = &model.Profile{
		Name:        "Jane Doe",
		CurrentRole: "Engineer",
		Summary:     "Builds things.",
		Experience:  []string{"Acme"},
		Skills:      []string{"Go"},
	}
	assert.InDelta(t, 1.0, ScoreProfile(p), 0.001)
}

func TestScoreProfile_SentinelsNotCounted(t *testing.T) {
	p := &model.Profile{
		Name:        model.UnknownProfileName,
		CurrentRole: model.UnknownProfileRole,
	}
	assert.Zero(t, ScoreProfile(p))
}

func TestScoreProfile_Monotonic(t *testing.T) {
	base := model.Profile{Name: "Jane Doe", CurrentRole: "Engineer"}
	baseline := ScoreProfile(&base)

	additions := []func(*model.Profile){
		func(p *model.Profile) { p.Summary = "text" },
		func(p *model.Profile) { p.Experience = []string{"Acme"} },
		func(p *model.Profile) { p.Skills = []string{"Go"} },
	}
	for i, add := range additions {
		p := base
		add(&p)
		if got := ScoreProfile(&p); got < baseline {
			t.Errorf("addition %d decreased score: %f < %f", i, got, baseline)
		}
	}
}

func TestScoreProduct_Weights(t *testing.T) {
	p := &model.ProductInfo{Name: "Widget", Description: "A widget."}
	assert.InDelta(t, 0.5, ScoreProduct(p), 0.001)

	p.Features = []string{"fast"}
	assert.InDelta(t, 0.6, ScoreProduct(p), 0.001)

	p.PricingModel = "subscription"
	p.TargetMarket = "SMB"
	p.Competitors = []string{"Gadget"}
	p.MarketAnalysis = "growing"
	assert.InDelta(t, 1.0, ScoreProduct(p), 0.001)
}

func TestScoreProduct_Monotonic(t *testing.T) {
	base := model.ProductInfo{Name: "Widget", Description: "A widget."}
	baseline := ScoreProduct(&base)

	additions := []func(*model.ProductInfo){
		func(p *model.ProductInfo) { p.Features = []string{"fast"} },
		func(p *model.ProductInfo) { p.PricingModel = "subscription" },
		func(p *model.ProductInfo) { p.TargetMarket = "SMB" },
		func(p *model.ProductInfo) { p.Competitors = []string{"Gadget"} },
		func(p *model.ProductInfo) { p.MarketAnalysis = "growing" },
	}
	for i, add := range additions {
		p := base
		add(&p)
		if got := ScoreProduct(&p); got < baseline {
			t.Errorf("addition %d decreased score: %f < %f", i, got, baseline)
		}
	}
}

func TestScoreMetrics_Weights(t *testing.T) {
	m := &model.BusinessMetrics{EmployeeCount: 50}
	assert.InDelta(t, 0.2, ScoreMetrics(m), 0.001)

	m.FundingAmount = "$5M"
	m.GrowthStage = "Series A"
	assert.InDelta(t, 0.6, ScoreMetrics(m), 0.001)

	m.BusinessModel = "SaaS"
	m.MarketPosition = "challenger"
	assert.InDelta(t, 1.0, ScoreMetrics(m), 0.001)

	// Key metrics bonus is capped at 1.0.
	m.KeyMetrics = map[string]string{"arr": "$2M"}
	assert.InDelta(t, 1.0, ScoreMetrics(m), 0.001)
}

func TestScoreMetrics_KeyMetricsBonus(t *testing.T) {
	m := &model.BusinessMetrics{
		EmployeeCount: 10,
		KeyMetrics:    map[string]string{"nps": "60"},
	}
	assert.InDelta(t, 0.3, ScoreMetrics(m), 0.001)
}

func TestRosterConfidence(t *testing.T) {
	assert.InDelta(t, 0.5, RosterConfidence(1, 2), 0.001)
	assert.InDelta(t, 1.0, RosterConfidence(3, 3), 0.001)
	assert.Zero(t, RosterConfidence(0, 0))
	assert.Zero(t, RosterConfidence(0, 4))
}

func TestScoreRecord_Dispatch(t *testing.T) {
	assert.Zero(t, ScoreRecord(model.KindProfile, nil))

	rec := &model.Record{Profile: &model.Profile{Name: "Jane Doe", CurrentRole: "Engineer"}}
	assert.InDelta(t, 0.6, ScoreRecord(model.KindProfile, rec), 0.001)

	rec = &model.Record{Team: []model.TeamMember{
		{Name: "Al Jones", Role: "CEO", Company: "X"},
		{Name: "", Role: "CTO", Company: "X"},
	}}
	assert.InDelta(t, 0.5, ScoreRecord(model.KindTeamRoster, rec), 0.001)
}
