package screen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/canvass/internal/model"
)

// fold strips diacritics and case-folds s for substring matching.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// searchFields lists the text a list query is matched against.
func searchFields(b model.Business) []string {
	fields := []string{
		b.Name,
		b.Address,
		b.ContactName,
		b.ContactPhone,
		b.ContactEmail,
		string(b.Status),
		b.CanvassedBy,
		b.VisitOutcome,
	}
	fields = append(fields, b.Notes.Texts()...)
	fields = append(fields, b.Tags...)
	return fields
}

// Matches reports whether query occurs in any searchable field of b, ignoring
// case and diacritics. A blank query matches everything.
func Matches(b model.Business, query string) bool {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range searchFields(b) {
		if f != "" && strings.Contains(fold(f), q) {
			return true
		}
	}
	return false
}
