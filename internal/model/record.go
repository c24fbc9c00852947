package model

import (
	"net/url"
	"strings"
)

// RecordKind identifies one of the typed outputs the pipeline can produce.
type RecordKind string

const (
	KindProfile         RecordKind = "profile"
	KindTeamRoster      RecordKind = "team_roster"
	KindProductInfo     RecordKind = "product_info"
	KindBusinessMetrics RecordKind = "business_metrics"
)

// AllRecordKinds returns every defined record kind.
func AllRecordKinds() []RecordKind {
	return []RecordKind{KindProfile, KindTeamRoster, KindProductInfo, KindBusinessMetrics}
}

// Sentinel values substituted when a profile's required fields cannot be
// determined. Downstream consumers rely on these fields being non-empty.
const (
	UnknownProfileName = "Unknown Profile"
	UnknownProfileRole = "Unknown Role"
)

// Profile holds structured information about a single person.
type Profile struct {
	Name        string   `json:"name"`
	CurrentRole string   `json:"current_role"`
	Company     string   `json:"company,omitempty"`
	Location    string   `json:"location,omitempty"`
	Summary     string   `json:"summary"`
	Experience  []string `json:"experience"`
	Skills      []string `json:"skills"`
}

// TeamMember is one person on a company's team roster.
type TeamMember struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// Valid reports whether a candidate member may be admitted into a roster.
// Members failing validation are dropped, never defaulted.
func (m TeamMember) Valid() bool {
	if len(strings.TrimSpace(m.Name)) < 2 {
		return false
	}
	if len(strings.TrimSpace(m.Role)) < 2 {
		return false
	}
	if strings.TrimSpace(m.Company) == "" {
		return false
	}
	if m.LinkedInURL != "" {
		u, err := url.Parse(m.LinkedInURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
	}
	return true
}

// ProductInfo holds structured information about a company's product offering.
type ProductInfo struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	PricingModel   string   `json:"pricing_model"`
	TargetMarket   string   `json:"target_market"`
	Competitors    []string `json:"competitors"`
	FundingStatus  string   `json:"funding_status,omitempty"`
	MarketAnalysis string   `json:"market_analysis"`
}

// BusinessMetrics holds quantitative signals about a company.
type BusinessMetrics struct {
	EmployeeCount  int               `json:"employee_count,omitempty"`
	FundingAmount  string            `json:"funding_amount,omitempty"`
	GrowthStage    string            `json:"growth_stage,omitempty"`
	KeyMetrics     map[string]string `json:"key_metrics"`
	BusinessModel  string            `json:"business_model,omitempty"`
	RevenueModel   string            `json:"revenue_model,omitempty"`
	MarketPosition string            `json:"market_position,omitempty"`
}

// Record is the union of the four record shapes. Exactly one variant is
// populated for a given kind.
type Record struct {
	Profile *Profile         `json:"profile,omitempty"`
	Team    []TeamMember     `json:"team,omitempty"`
	Product *ProductInfo     `json:"product,omitempty"`
	Metrics *BusinessMetrics `json:"metrics,omitempty"`
}

// Empty reports whether the record carries no variant at all.
func (r *Record) Empty() bool {
	if r == nil {
		return true
	}
	return r.Profile == nil && len(r.Team) == 0 && r.Product == nil && r.Metrics == nil
}

// ExtractionRequest is one unit of work for the structured extractor.
type ExtractionRequest struct {
	// RawText is the opaque page text or HTML to extract from.
	RawText string
	// Kind selects the record shape and prompt.
	Kind RecordKind
	// Seed is an optional caller-supplied partial record used as a
	// fallback when extraction fails.
	Seed *Record
	// Context carries an optional company or product name injected into
	// the prompt.
	Context string
}

// ExtractionResult is the outcome of one extraction. Callers always receive
// a well-formed result; errors from the pipeline never escape as panics.
type ExtractionResult struct {
	Success    bool    `json:"success"`
	Record     *Record `json:"record,omitempty"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
	// RawOutput retains the completion service's text for debugging and
	// audit. It is never re-parsed.
	RawOutput string `json:"raw_output,omitempty"`
	// RunID identifies the extraction run that produced this result.
	RunID string `json:"run_id,omitempty"`
}

// Failure builds a failed result carrying the last concrete error message.
func Failure(msg string) ExtractionResult {
	return ExtractionResult{Success: false, Error: msg}
}
