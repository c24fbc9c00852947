package parse

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/prospectai/prospect-cli/internal/model"
)

// ScriptJSONParser pulls structured data out of script tags: JSON-LD blocks
// (schema.org Person and Organization) and, as a secondary source, inline
// state blobs assigned to window globals.
type ScriptJSONParser struct{}

func NewScriptJSONParser() *ScriptJSONParser {
	return &ScriptJSONParser{}
}

func (p *ScriptJSONParser) Name() string { return "scriptjson" }

// ldEntity is the subset of schema.org fields worth reading. Fields that may
// be either a scalar or an object are decoded as json.RawMessage.
type ldEntity struct {
	Type              string          `json:"@type"`
	Name              string          `json:"name"`
	JobTitle          string          `json:"jobTitle"`
	Description       string          `json:"description"`
	WorksFor          json.RawMessage `json:"worksFor"`
	Address           json.RawMessage `json:"address"`
	NumberOfEmployees json.RawMessage `json:"numberOfEmployees"`
	Employees         []ldEntity      `json:"employee"`
	Members           []ldEntity      `json:"member"`
	SameAs            []string        `json:"sameAs"`
	Graph             []ldEntity      `json:"@graph"`
}

func (p *ScriptJSONParser) Parse(content *model.RawContent, hints Hints) (*model.Record, error) {
	if content == nil || content.HTML == "" {
		return nil, eris.New("parse: no HTML to scan for script JSON")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return nil, eris.Wrap(err, "parse: parse HTML")
	}

	var entities []ldEntity
	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		entities = append(entities, decodeLD(s.Text())...)
	})
	if len(entities) == 0 {
		return &model.Record{}, nil
	}

	rec := &model.Record{}
	for _, e := range entities {
		switch {
		case strings.EqualFold(e.Type, "Person"):
			p.applyPerson(rec, e, hints)
		case strings.EqualFold(e.Type, "Organization") || strings.EqualFold(e.Type, "Corporation"):
			p.applyOrganization(rec, e, hints)
		}
	}
	return rec, nil
}

// decodeLD handles both a single entity and a top-level array, and flattens
// any @graph it finds.
func decodeLD(raw string) []ldEntity {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []ldEntity
	if strings.HasPrefix(raw, "[") {
		var arr []ldEntity
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return nil
		}
		out = arr
	} else {
		var one ldEntity
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return nil
		}
		out = []ldEntity{one}
	}
	var flat []ldEntity
	for _, e := range out {
		flat = append(flat, e)
		flat = append(flat, e.Graph...)
	}
	return flat
}

func (p *ScriptJSONParser) applyPerson(rec *model.Record, e ldEntity, hints Hints) {
	company := ldName(e.WorksFor)
	if company == "" {
		company = hints.Company
	}

	switch hints.Kind {
	case model.KindProfile:
		if rec.Profile == nil {
			rec.Profile = &model.Profile{}
		}
		fillProfile(rec.Profile, &model.Profile{
			Name:        e.Name,
			CurrentRole: e.JobTitle,
			Company:     company,
			Location:    ldName(e.Address),
			Summary:     e.Description,
		})
	case model.KindTeamRoster:
		if e.Name == "" {
			return
		}
		rec.Team = append(rec.Team, model.TeamMember{
			Name:        e.Name,
			Role:        e.JobTitle,
			Company:     company,
			LinkedInURL: linkedInLink(e.SameAs),
		})
	}
}

func (p *ScriptJSONParser) applyOrganization(rec *model.Record, e ldEntity, hints Hints) {
	switch hints.Kind {
	case model.KindProductInfo:
		if rec.Product == nil {
			rec.Product = &model.ProductInfo{}
		}
		fillProduct(rec.Product, &model.ProductInfo{
			Name:        e.Name,
			Description: e.Description,
		})
	case model.KindBusinessMetrics:
		if n := ldEmployeeCount(e.NumberOfEmployees); n > 0 {
			if rec.Metrics == nil {
				rec.Metrics = &model.BusinessMetrics{}
			}
			if rec.Metrics.EmployeeCount == 0 {
				rec.Metrics.EmployeeCount = n
			}
		}
	case model.KindTeamRoster:
		for _, list := range [][]ldEntity{e.Employees, e.Members} {
			for _, emp := range list {
				if emp.Name == "" {
					continue
				}
				company := e.Name
				if company == "" {
					company = hints.Company
				}
				rec.Team = append(rec.Team, model.TeamMember{
					Name:        emp.Name,
					Role:        emp.JobTitle,
					Company:     company,
					LinkedInURL: linkedInLink(emp.SameAs),
				})
			}
		}
	}
}

// ldName reads the "name" of a raw value that may be a string, an object
// with a name field, or absent.
func ldName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name            string `json:"name"`
		AddressLocality string `json:"addressLocality"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Name != "" {
			return strings.TrimSpace(obj.Name)
		}
		return strings.TrimSpace(obj.AddressLocality)
	}
	return ""
}

// ldEmployeeCount reads numberOfEmployees as a number, a numeric string, or
// a QuantitativeValue object.
func ldEmployeeCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "+"))
		return v
	}
	var qv struct {
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &qv); err == nil {
		return int(qv.Value)
	}
	return 0
}

func linkedInLink(urls []string) string {
	for _, u := range urls {
		if strings.Contains(u, "linkedin.com") {
			return u
		}
	}
	return ""
}
