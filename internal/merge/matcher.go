// Package merge combines records extracted for the same entity from
// different sources: fuzzy person-name matching plus an asymmetric merge
// that treats one side as authoritative.
package merge

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameMatcher decides whether two person names refer to the same person.
type NameMatcher interface {
	Match(a, b string) bool
}

// FuzzyMatcher matches names after case and diacritic folding. Two names
// match when one of the following holds, checked in order:
//
//  1. exact equality of the normalized forms
//  2. one normalized form contains the other ("J. Smith" in "Jane J. Smith")
//  3. the last tokens agree and the token overlap ratio is at least 0.5
//  4. either name is a single token equal to any token of the other
type FuzzyMatcher struct{}

func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{}
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, folds diacritics, and collapses whitespace and
// punctuation so "José  GARCÍA-López" and "jose garcia lopez" compare equal.
func Normalize(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (m *FuzzyMatcher) Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	ta, tb := strings.Fields(na), strings.Fields(nb)
	if len(ta) == 1 || len(tb) == 1 {
		return singleTokenMatch(ta, tb)
	}
	if ta[len(ta)-1] == tb[len(tb)-1] && tokenOverlap(ta, tb) >= 0.5 {
		return true
	}
	return false
}

// singleTokenMatch handles mononym against full name: "cher" matches
// "cher sarkisian" but a single token never matches another single token
// here (that case is exact equality, handled earlier).
func singleTokenMatch(ta, tb []string) bool {
	if len(ta) == 1 && len(tb) == 1 {
		return false
	}
	single, full := ta, tb
	if len(tb) == 1 {
		single, full = tb, ta
	}
	for _, t := range full {
		if t == single[0] {
			return true
		}
	}
	return false
}

// tokenOverlap is the share of the smaller name's tokens present in the
// larger name.
func tokenOverlap(ta, tb []string) float64 {
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}
	set := make(map[string]bool, len(tb))
	for _, t := range tb {
		set[t] = true
	}
	hits := 0
	for _, t := range ta {
		if set[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(ta))
}
