package parse

import (
	"regexp"
	"strings"

	"github.com/prospectai/prospect-cli/internal/model"
)

// Free-text patterns for lines that name a person and their role. Matched
// against the markdown rendering so HTML noise is already stripped.
//
//	Jane Smith, CEO
//	Jane Smith - Chief Executive Officer
//	Jane Smith | VP of Engineering @ Acme
var personLineRe = regexp.MustCompile(
	`(?m)^\s*\*{0,2}([A-Z][\p{L}.'-]+(?:\s+[A-Z][\p{L}.'-]+){1,3})\*{0,2}\s*[,|–—-]\s*([A-Z][\w /&-]{2,60}?)(?:\s*[@,]\s*([A-Z][\w .&-]{1,60}))?\s*$`)

// roleWords gates matches so arbitrary "Foo, Bar" prose is not mistaken for
// a person line.
var roleWords = []string{
	"ceo", "cto", "cfo", "coo", "cmo", "cpo", "chief", "founder", "co-founder",
	"president", "vp", "vice president", "director", "head of", "lead",
	"manager", "engineer", "officer", "partner", "principal", "advisor",
}

// FreeTextParser scans plain text for "Name, Role" style lines. It is the
// lowest-precision extractor and runs last.
type FreeTextParser struct{}

func NewFreeTextParser() *FreeTextParser {
	return &FreeTextParser{}
}

func (p *FreeTextParser) Name() string { return "freetext" }

func (p *FreeTextParser) Parse(content *model.RawContent, hints Hints) (*model.Record, error) {
	if content == nil {
		return &model.Record{}, nil
	}
	text := content.Markdown
	if text == "" {
		text = content.HTML
	}

	var members []model.TeamMember
	seen := make(map[string]bool)
	for _, m := range personLineRe.FindAllStringSubmatch(text, -1) {
		name, role, company := cleanText(m[1]), cleanText(m[2]), cleanText(m[3])
		if !looksLikeRole(role) || seen[strings.ToLower(name)] {
			continue
		}
		if company == "" {
			company = hints.Company
		}
		members = append(members, model.TeamMember{Name: name, Role: role, Company: company})
		seen[strings.ToLower(name)] = true
	}
	if len(members) == 0 {
		return &model.Record{}, nil
	}

	switch hints.Kind {
	case model.KindProfile:
		first := members[0]
		return &model.Record{Profile: &model.Profile{
			Name:        first.Name,
			CurrentRole: first.Role,
			Company:     first.Company,
		}}, nil
	case model.KindTeamRoster:
		return &model.Record{Team: members}, nil
	default:
		return &model.Record{}, nil
	}
}

func looksLikeRole(role string) bool {
	lower := strings.ToLower(role)
	for _, w := range roleWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
