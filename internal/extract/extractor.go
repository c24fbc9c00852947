// Package extract turns raw page text into typed records with a confidence
// score. It issues one completion request per extraction, validates and
// repairs the JSON response, and falls back to caller-supplied seed data
// when the service fails. Failures surface in the returned result, never as
// panics or errors crossing the public entry points.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/model"
	"github.com/prospectai/prospect-cli/pkg/completion"
)

// seedFallbackConfidence is assigned when the completion service failed
// outright and the result was built from caller-supplied seed data.
const seedFallbackConfidence = 0.3

// extractionTemperature keeps completions deterministic.
const extractionTemperature = 0.0

// Extractor issues completion requests and validates their output. It is
// stateless and safe for concurrent use across workers.
type Extractor struct {
	client  completion.Client
	modelID string
}

// New creates an Extractor calling the given model.
func New(client completion.Client, modelID string) *Extractor {
	return &Extractor{client: client, modelID: modelID}
}

// Extract runs one structured extraction. The result always carries either
// a record or an error message; upstream failures are converted to seed or
// sentinel substitutions whenever any usable signal remains.
func (e *Extractor) Extract(ctx context.Context, req model.ExtractionRequest) model.ExtractionResult {
	text, err := e.complete(ctx, req)
	if err != nil {
		zap.L().Warn("extract: completion failed",
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
		return e.fallback(req, fmt.Sprintf("completion service error: %v", err))
	}

	span, err := JSONSpan(text)
	if err != nil {
		res := e.fallback(req, "no JSON found in completion response")
		res.RawOutput = text
		return res
	}

	var res model.ExtractionResult
	switch req.Kind {
	case model.KindProfile:
		res = e.parseProfile(span, req)
	case model.KindTeamRoster:
		res = e.parseTeam(span, req)
	case model.KindProductInfo:
		res = e.parseProduct(span)
	case model.KindBusinessMetrics:
		res = e.parseMetrics(span)
	default:
		res = model.Failure(fmt.Sprintf("unknown record kind %q", req.Kind))
	}
	res.RawOutput = text
	return res
}

// complete sends the prompt pair for the request's kind with deterministic
// settings and an output budget sized to the expected record.
func (e *Extractor) complete(ctx context.Context, req model.ExtractionRequest) (string, error) {
	temp := extractionTemperature
	resp, err := e.client.CreateMessage(ctx, completion.MessageRequest{
		Model:       e.modelID,
		MaxTokens:   maxTokens(req.Kind),
		System:      completion.BuildCachedSystemBlocks(systemPrompt(req.Kind)),
		Messages:    []completion.Message{{Role: "user", Content: userPrompt(req)}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(e.modelID, "extract_"+string(req.Kind))
	return completion.Text(resp), nil
}

// fallback builds a result from seed data when extraction produced nothing
// parseable. Without a usable seed the extraction is a structured failure.
func (e *Extractor) fallback(req model.ExtractionRequest, errMsg string) model.ExtractionResult {
	if req.Kind == model.KindProfile && req.Seed != nil && req.Seed.Profile != nil {
		seed := *req.Seed.Profile
		if seed.Name != "" && seed.CurrentRole != "" {
			zap.L().Info("extract: using seed data after extraction failure",
				zap.String("name", seed.Name),
			)
			return model.ExtractionResult{
				Success:    true,
				Record:     &model.Record{Profile: &seed},
				Confidence: seedFallbackConfidence,
				Error:      errMsg,
			}
		}
	}
	return model.Failure(errMsg)
}

// profileWire mirrors the JSON keys the profile prompt requires.
type profileWire struct {
	Name        string   `json:"name"`
	CurrentRole string   `json:"current_role"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Summary     string   `json:"summary"`
	Experience  []string `json:"experience"`
	Skills      []string `json:"skills"`
}

func (e *Extractor) parseProfile(span string, req model.ExtractionRequest) model.ExtractionResult {
	var wire profileWire
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return e.fallback(req, fmt.Sprintf("malformed JSON in completion response: %v", err))
	}

	p := model.Profile{
		Name:        strings.TrimSpace(wire.Name),
		CurrentRole: strings.TrimSpace(wire.CurrentRole),
		Company:     strings.TrimSpace(wire.Company),
		Location:    strings.TrimSpace(wire.Location),
		Summary:     strings.TrimSpace(wire.Summary),
		Experience:  trimAll(wire.Experience),
		Skills:      trimAll(wire.Skills),
	}

	// Confidence is a pure function of the parsed payload, computed before
	// any substitution so repaired fields don't inflate the score.
	confidence := ScoreProfile(&p)

	var seed *model.Profile
	if req.Seed != nil {
		seed = req.Seed.Profile
	}
	FillRequiredProfileFields(&p, seed)

	return model.ExtractionResult{
		Success:    true,
		Record:     &model.Record{Profile: &p},
		Confidence: confidence,
	}
}

// FillRequiredProfileFields replaces blank required fields with seed values
// where available, then the sentinels, so a successful profile extraction
// never carries an empty name or role. Score before calling it; repaired
// fields must not inflate confidence.
func FillRequiredProfileFields(p *model.Profile, seed *model.Profile) {
	if p == nil {
		return
	}
	if p.Name == "" {
		if seed != nil && seed.Name != "" {
			p.Name = seed.Name
		} else {
			p.Name = model.UnknownProfileName
		}
	}
	if p.CurrentRole == "" {
		if seed != nil && seed.CurrentRole != "" {
			p.CurrentRole = seed.CurrentRole
		} else {
			p.CurrentRole = model.UnknownProfileRole
		}
	}
}

// teamWire accepts both a bare array and the common wrapped-object shape.
type teamWire struct {
	Members     []model.TeamMember `json:"members"`
	TeamMembers []model.TeamMember `json:"team_members"`
}

func (e *Extractor) parseTeam(span string, req model.ExtractionRequest) model.ExtractionResult {
	var candidates []model.TeamMember
	if strings.HasPrefix(span, "[") {
		if err := json.Unmarshal([]byte(span), &candidates); err != nil {
			return model.Failure(fmt.Sprintf("malformed JSON in completion response: %v", err))
		}
	} else {
		var wire teamWire
		if err := json.Unmarshal([]byte(span), &wire); err != nil {
			return model.Failure(fmt.Sprintf("malformed JSON in completion response: %v", err))
		}
		candidates = wire.Members
		if len(candidates) == 0 {
			candidates = wire.TeamMembers
		}
	}

	valid := ValidateRoster(candidates, req.Context)
	confidence := RosterConfidence(len(valid), len(candidates))

	if len(valid) == 0 {
		res := model.Failure("no valid team members in completion response")
		res.Confidence = confidence
		return res
	}

	if dropped := len(candidates) - len(valid); dropped > 0 {
		zap.L().Debug("extract: dropped invalid team members",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(valid)),
		)
	}

	return model.ExtractionResult{
		Success:    true,
		Record:     &model.Record{Team: valid},
		Confidence: confidence,
	}
}

// ValidateRoster filters candidate members, dropping any that fail the
// admission rules. A missing company is filled from the request context
// before validation since roster pages rarely restate their own company.
func ValidateRoster(candidates []model.TeamMember, company string) []model.TeamMember {
	var valid []model.TeamMember
	for _, m := range candidates {
		m.Name = strings.TrimSpace(m.Name)
		m.Role = strings.TrimSpace(m.Role)
		m.Company = strings.TrimSpace(m.Company)
		if m.Company == "" {
			m.Company = company
		}
		if m.Valid() {
			valid = append(valid, m)
		}
	}
	return valid
}

func (e *Extractor) parseProduct(span string) model.ExtractionResult {
	var p model.ProductInfo
	if err := json.Unmarshal([]byte(span), &p); err != nil {
		return model.Failure(fmt.Sprintf("malformed JSON in completion response: %v", err))
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)

	if p.Name == "" && p.Description == "" {
		return model.Failure("completion response contained no product fields")
	}

	return model.ExtractionResult{
		Success:    true,
		Record:     &model.Record{Product: &p},
		Confidence: ScoreProduct(&p),
	}
}

func (e *Extractor) parseMetrics(span string) model.ExtractionResult {
	// Parse into a generic map first: models frequently return
	// employee_count as a string ("200+") despite the schema.
	var raw map[string]any
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return model.Failure(fmt.Sprintf("malformed JSON in completion response: %v", err))
	}

	m := model.BusinessMetrics{
		EmployeeCount:  intField(raw, "employee_count"),
		FundingAmount:  stringField(raw, "funding_amount"),
		GrowthStage:    stringField(raw, "growth_stage"),
		BusinessModel:  stringField(raw, "business_model"),
		RevenueModel:   stringField(raw, "revenue_model"),
		MarketPosition: stringField(raw, "market_position"),
		KeyMetrics:     stringMapField(raw, "key_metrics"),
	}

	score := ScoreMetrics(&m)
	if score == 0 {
		return model.Failure("completion response contained no metric fields")
	}

	return model.ExtractionResult{
		Success:    true,
		Record:     &model.Record{Metrics: &m},
		Confidence: score,
	}
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func intField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case string:
		n := 0
		for _, r := range v {
			if r < '0' || r > '9' {
				break
			}
			n = n*10 + int(r-'0')
		}
		return n
	default:
		return 0
	}
}

func stringMapField(raw map[string]any, key string) map[string]string {
	m, ok := raw[key].(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && s != "" {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
