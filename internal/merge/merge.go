package merge

import (
	"strings"

	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/model"
)

// MatchMethod labels how a secondary member was paired with a primary one.
type MatchMethod string

const (
	MatchExact       MatchMethod = "exact"
	MatchSubstring   MatchMethod = "substring"
	MatchSurname     MatchMethod = "shared_surname"
	MatchSingleToken MatchMethod = "single_token"
	MatchNone        MatchMethod = ""
)

// MergeCandidate pairs a secondary member with its matching primary member,
// when one exists, and records how they matched.
type MergeCandidate struct {
	Secondary model.TeamMember
	// PrimaryIndex is -1 when no primary member matched.
	PrimaryIndex int
	Method       MatchMethod
}

// Merger reconciles two rosters of the same team produced by different
// extraction strategies.
type Merger struct {
	matcher NameMatcher
}

// NewMerger builds a Merger around the given name matcher. A nil matcher
// gets the default fuzzy one.
func NewMerger(matcher NameMatcher) *Merger {
	if matcher == nil {
		matcher = NewFuzzyMatcher()
	}
	return &Merger{matcher: matcher}
}

// Merge combines primary and secondary rosters asymmetrically. Primary
// members are kept as-is; a matching secondary member only fills fields the
// primary one is missing, and secondary members with no match are appended
// as new entities. Primary normally comes from the AI pass, whose role
// phrasing is worth preserving, while secondary recovers profile links and
// people the AI pass missed.
func (g *Merger) Merge(primary, secondary []model.TeamMember) []model.TeamMember {
	merged := make([]model.TeamMember, len(primary))
	copy(merged, primary)

	appended := 0
	for _, cand := range g.pair(merged, secondary) {
		if cand.PrimaryIndex < 0 {
			merged = append(merged, cand.Secondary)
			appended++
			continue
		}
		fillMember(&merged[cand.PrimaryIndex], cand.Secondary)
	}

	if appended > 0 {
		zap.L().Debug("merge: appended unmatched members",
			zap.Int("primary", len(primary)),
			zap.Int("appended", appended),
		)
	}
	return merged
}

// pair matches every secondary member against the primary roster. Each
// secondary member pairs with at most one primary member, the first that
// matches.
func (g *Merger) pair(primary []model.TeamMember, secondary []model.TeamMember) []MergeCandidate {
	candidates := make([]MergeCandidate, 0, len(secondary))
	for _, sec := range secondary {
		cand := MergeCandidate{Secondary: sec, PrimaryIndex: -1, Method: MatchNone}
		for i, prim := range primary {
			if g.matcher.Match(prim.Name, sec.Name) {
				cand.PrimaryIndex = i
				cand.Method = classifyMatch(prim.Name, sec.Name)
				break
			}
		}
		candidates = append(candidates, cand)
	}
	return candidates
}

// classifyMatch re-derives the method for reporting. It mirrors the order
// FuzzyMatcher checks in.
func classifyMatch(a, b string) MatchMethod {
	na, nb := Normalize(a), Normalize(b)
	switch {
	case na == nb:
		return MatchExact
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		return MatchSubstring
	case len(strings.Fields(na)) == 1 || len(strings.Fields(nb)) == 1:
		return MatchSingleToken
	default:
		return MatchSurname
	}
}

func fillMember(dst *model.TeamMember, src model.TeamMember) {
	if dst.Role == "" {
		dst.Role = src.Role
	}
	if dst.Company == "" {
		dst.Company = src.Company
	}
	if dst.LinkedInURL == "" {
		dst.LinkedInURL = src.LinkedInURL
	}
}
