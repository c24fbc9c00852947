package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prospectai/prospect-cli/internal/model"
)

// Excerpt caps per record kind: profiles are dense so a short excerpt
// suffices; team, product, and business pages spread signal further down.
const (
	profileExcerptCap = 6000
	teamExcerptCap    = 10000
	productExcerptCap = 12000
	metricsExcerptCap = 10000
)

const profileSystemText = `You are a research analyst extracting a person's professional profile from web page text.
Return a valid JSON object with exactly these keys:
{"name": string, "current_role": string, "company": string, "location": string, "summary": string, "experience": [string], "skills": [string]}
Use an empty string or empty array for anything not present in the text. Return only JSON.`

const teamSystemText = `You are a research analyst extracting a company's team roster from web page text.
Return a valid JSON array where each element has exactly these keys:
{"name": string, "role": string, "company": string, "linkedin_url": string}
Include every person mentioned with a job title. Use an empty string for unknown fields. Return only JSON.`

const productSystemText = `You are a research analyst extracting product information from web page text.
Return a valid JSON object with exactly these keys:
{"name": string, "description": string, "features": [string], "pricing_model": string, "target_market": string, "competitors": [string], "funding_status": string, "market_analysis": string}
Use an empty string or empty array for anything not present in the text. Return only JSON.`

const metricsSystemText = `You are a research analyst extracting business metrics from web page text.
Return a valid JSON object with exactly these keys:
{"employee_count": number, "funding_amount": string, "growth_stage": string, "key_metrics": {string: string}, "business_model": string, "revenue_model": string, "market_position": string}
Use 0, an empty string, or an empty object for anything not present in the text. Return only JSON.`

// systemPrompt returns the hand-written system prompt for a record kind.
func systemPrompt(kind model.RecordKind) string {
	switch kind {
	case model.KindProfile:
		return profileSystemText
	case model.KindTeamRoster:
		return teamSystemText
	case model.KindProductInfo:
		return productSystemText
	case model.KindBusinessMetrics:
		return metricsSystemText
	default:
		return profileSystemText
	}
}

// excerptCap returns the input length cap for a record kind.
func excerptCap(kind model.RecordKind) int {
	switch kind {
	case model.KindProfile:
		return profileExcerptCap
	case model.KindTeamRoster:
		return teamExcerptCap
	case model.KindProductInfo:
		return productExcerptCap
	case model.KindBusinessMetrics:
		return metricsExcerptCap
	default:
		return profileExcerptCap
	}
}

// maxTokens sizes the output budget to the expected record shape.
func maxTokens(kind model.RecordKind) int64 {
	switch kind {
	case model.KindTeamRoster:
		return 2048
	case model.KindProductInfo:
		return 2048
	default:
		return 1024
	}
}

// userPrompt embeds a length-capped excerpt of the input plus the optional
// company/product context.
func userPrompt(req model.ExtractionRequest) string {
	text := req.RawText
	if limit := excerptCap(req.Kind); len(text) > limit {
		// Back off to a rune boundary so the cap never sends invalid UTF-8.
		for limit > 0 && !utf8.RuneStart(text[limit]) {
			limit--
		}
		text = text[:limit]
	}

	var b strings.Builder
	if req.Context != "" {
		switch req.Kind {
		case model.KindTeamRoster:
			fmt.Fprintf(&b, "Company: %s\nList the team members for this company.\n\n", req.Context)
		case model.KindProductInfo:
			fmt.Fprintf(&b, "Product or company: %s\n\n", req.Context)
		default:
			fmt.Fprintf(&b, "Context: %s\n\n", req.Context)
		}
	}
	b.WriteString("Page content:\n")
	b.WriteString(text)
	return b.String()
}
