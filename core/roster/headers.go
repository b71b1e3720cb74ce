package roster

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

// Roster fields
const (
	FieldName            = "name"
	FieldGroup           = "group"
	FieldTarget          = "target"
	FieldCandidateNumber = "candidate_number"
	FieldGender          = "gender"
	FieldSEN             = "sen"
	FieldPupilPremium    = "pupil_premium"
	FieldEAL             = "eal"

	// split name columns, joined as "Forename Surname" when there is no full name column
	FieldSurname  = "surname"
	FieldForename = "forename"
)

// headerPatterns are matched, in order, as whole words of the normalized header cells.
// Fields are resolved in this order and a column is only ever assigned to one field.
var headerPatterns = []struct {
	field    string
	patterns []string
	exclude  []string // headers containing these never match the field
}{
	{FieldName, []string{"surname forename", "full name", "name"}, splitNamePatterns},
	{FieldSurname, []string{"surname", "last name", "family name"}, nil},
	{FieldForename, []string{"forename", "first name", "given name"}, nil},
	{FieldGroup, []string{"reg", "registration", "form", "tutor group", "class", "group"}, nil},
	{FieldTarget, []string{"target"}, nil},
	{FieldCandidateNumber, []string{"candidate"}, nil},
	{FieldGender, []string{"gender", "sex"}, nil},
	{FieldPupilPremium, []string{"pupil premium", "pp"}, nil},
	{FieldEAL, []string{"eal"}, nil},
	{FieldSEN, []string{"sen"}, nil},
}

var splitNamePatterns = []string{"last name", "family name", "first name", "given name"}

// minFuzzyRatio is the similarity a header needs when no substring matches.
const minFuzzyRatio = 0.8

// columns maps a roster field to its column index.
type columns map[string]int

func (c columns) value(row []string, field string) string {
	idx, ok := c[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (c columns) hasName() bool {
	if _, ok := c[FieldName]; ok {
		return true
	}
	_, hasSurname := c[FieldSurname]
	_, hasForename := c[FieldForename]
	return hasSurname || hasForename
}

// name reads the student name from the full name column, or joins the split forename and surname columns.
func (c columns) name(row []string) string {
	if _, ok := c[FieldName]; ok {
		return normalizeName(c.value(row, FieldName))
	}
	return student.CleanName(c.value(row, FieldForename) + " " + c.value(row, FieldSurname))
}

// matchHeaders resolves roster fields from a header row.
func matchHeaders(header []string) columns {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	cols := make(columns)
	used := make(map[int]bool)
	for _, hp := range headerPatterns {
		if idx, ok := substringMatch(normalized, hp.patterns, hp.exclude, used); ok {
			cols[hp.field] = idx
			used[idx] = true
		}
	}
	for _, hp := range headerPatterns {
		if _, ok := cols[hp.field]; ok {
			continue
		}
		if idx, ok := fuzzyMatch(normalized, hp.patterns, used); ok {
			cols[hp.field] = idx
			used[idx] = true
		}
	}
	return cols
}

func substringMatch(headers, patterns, exclude []string, used map[int]bool) (int, bool) {
	for _, p := range patterns {
	next:
		for i, h := range headers {
			if used[i] || h == "" || !containsPattern(h, p) {
				continue
			}
			for _, x := range exclude {
				if containsPattern(h, x) {
					continue next
				}
			}
			return i, true
		}
	}
	return 0, false
}

// containsPattern reports whether pattern appears in header on word boundaries,
// so "free school meals" is not EAL and "surname" is not a name column.
func containsPattern(header, pattern string) bool {
	return strings.Contains(" "+header+" ", " "+pattern+" ")
}

func fuzzyMatch(headers, patterns []string, used map[int]bool) (int, bool) {
	best, bestRatio := -1, 0.0
	for i, h := range headers {
		if used[i] || h == "" {
			continue
		}
		for _, p := range patterns {
			ratio := difflib.NewMatcher(strings.Split(h, ""), strings.Split(p, "")).Ratio()
			if ratio >= minFuzzyRatio && ratio > bestRatio {
				best, bestRatio = i, ratio
			}
		}
	}
	return best, best >= 0
}

// normalizeHeader lowers h and collapses punctuation and runs of whitespace into single spaces.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff") // excel BOM
	h = strings.ToLower(h)
	h = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ',', '.', '/', '(', ')':
			return ' '
		}
		return r
	}, h)
	return strings.Join(strings.Fields(h), " ")
}
