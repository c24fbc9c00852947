package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/prospectai/prospect-cli/internal/model"
)

// teamContainerSelectors cover the common markup conventions for team and
// about pages. Ordered from most to least specific.
var teamContainerSelectors = []string{
	".team-member",
	".team-card",
	".team__member",
	"[class*='team'] li",
	".person-card",
	".person",
	".member",
	".profile-card",
	".staff-member",
}

var nameSelectors = []string{".name", ".member-name", ".person-name", "h2", "h3", "h4", "strong"}

var roleSelectors = []string{".role", ".title", ".position", ".job-title", ".member-title", "em", "p"}

// SelectorParser extracts records from structured HTML using CSS selectors.
// It works only on pages following common markup conventions and returns
// nothing on pages it does not recognize.
type SelectorParser struct{}

func NewSelectorParser() *SelectorParser {
	return &SelectorParser{}
}

func (p *SelectorParser) Name() string { return "selector" }

func (p *SelectorParser) Parse(content *model.RawContent, hints Hints) (*model.Record, error) {
	if content == nil || content.HTML == "" {
		return nil, eris.New("parse: no HTML to select from")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return nil, eris.Wrap(err, "parse: parse HTML")
	}

	switch hints.Kind {
	case model.KindTeamRoster:
		return p.parseTeam(doc, hints), nil
	case model.KindProfile:
		return p.parseProfile(doc), nil
	case model.KindProductInfo:
		return p.parseProduct(doc, content.Title), nil
	default:
		// Metrics have no reliable markup convention.
		return &model.Record{}, nil
	}
}

func (p *SelectorParser) parseTeam(doc *goquery.Document, hints Hints) *model.Record {
	var members []model.TeamMember
	seen := make(map[string]bool)

	for _, container := range teamContainerSelectors {
		doc.Find(container).Each(func(_ int, card *goquery.Selection) {
			name := firstText(card, nameSelectors)
			if name == "" || seen[strings.ToLower(name)] {
				return
			}
			role := firstText(card, roleSelectors)
			if role == name {
				role = ""
			}
			m := model.TeamMember{
				Name:    name,
				Role:    role,
				Company: hints.Company,
			}
			if href, ok := card.Find("a[href*='linkedin.com']").Attr("href"); ok {
				m.LinkedInURL = strings.TrimSpace(href)
			}
			members = append(members, m)
			seen[strings.ToLower(name)] = true
		})
		// Once one convention matched, mixing others in only adds noise.
		if len(members) > 0 {
			break
		}
	}

	if len(members) == 0 {
		return &model.Record{}
	}
	return &model.Record{Team: members}
}

func (p *SelectorParser) parseProfile(doc *goquery.Document) *model.Record {
	prof := &model.Profile{
		Name:        firstText(doc.Selection, []string{"h1", ".profile-name", ".name"}),
		CurrentRole: firstText(doc.Selection, []string{".headline", ".profile-title", ".job-title", "h1 + p", "h2"}),
		Location:    firstText(doc.Selection, []string{".location", ".profile-location"}),
		Summary:     firstText(doc.Selection, []string{".summary", ".about", ".bio", "[class*='about'] p"}),
	}
	if prof.Name == "" && prof.CurrentRole == "" {
		return &model.Record{}
	}
	return &model.Record{Profile: prof}
}

func (p *SelectorParser) parseProduct(doc *goquery.Document, title string) *model.Record {
	prod := &model.ProductInfo{
		Name:        firstText(doc.Selection, []string{"h1", ".product-name"}),
		Description: metaContent(doc, "description"),
	}
	if prod.Name == "" {
		prod.Name = strings.TrimSpace(title)
	}
	if prod.Description == "" {
		prod.Description = firstText(doc.Selection, []string{".hero p", ".tagline", "header p", "h1 + p"})
	}
	doc.Find(".features li, [class*='feature'] h3").Each(func(_ int, s *goquery.Selection) {
		if f := cleanText(s.Text()); f != "" && len(prod.Features) < 12 {
			prod.Features = append(prod.Features, f)
		}
	})
	if prod.Name == "" && prod.Description == "" {
		return &model.Record{}
	}
	return &model.Record{Product: prod}
}

// firstText returns the first non-empty trimmed text among the selectors.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := cleanText(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find("meta[name='" + name + "']").Attr("content")
	return cleanText(content)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
