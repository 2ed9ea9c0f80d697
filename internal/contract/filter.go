package contract

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// All is the sentinel meaning "no constraint" for enum filters.
const All = "all"

// ContractFilter narrows a contract list. Empty or All fields do not constrain.
type ContractFilter struct {
	Search     string
	Status     string
	CategoryID string
}

func unconstrained(v string) bool {
	return v == "" || v == All
}

// Match ANDs the three filters: case-insensitive substring search over title
// and partner, exact status, exact category id.
func (f ContractFilter) Match(c *Contract) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(c.Title), q) && !strings.Contains(strings.ToLower(c.Partner), q) {
			return false
		}
	}
	if !unconstrained(f.Status) && string(c.Status) != f.Status {
		return false
	}
	if !unconstrained(f.CategoryID) && (c.CategoryID == nil || *c.CategoryID != f.CategoryID) {
		return false
	}
	return true
}

func (f ContractFilter) Apply(in []*Contract) []*Contract {
	out := make([]*Contract, 0, len(in))
	for _, c := range in {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// ObligationFilter narrows obligations by type and by read-time status.
type ObligationFilter struct {
	Type   string
	Status string
}

func (f ObligationFilter) Match(o *Obligation, now time.Time) bool {
	if !unconstrained(f.Type) && string(o.Type) != f.Type {
		return false
	}
	if !unconstrained(f.Status) && string(EffectiveObligationStatus(o, now)) != f.Status {
		return false
	}
	return true
}

// SortObligationsByDue orders obligations by ascending due date, undated last.
func SortObligationsByDue(obs []*Obligation) {
	sort.SliceStable(obs, func(i, j int) bool { return dueBefore(obs[i].DueDate, obs[j].DueDate) })
}

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from a category name: diacritics are folded,
// letters lowercased and every other run of characters collapsed to "-".
func Slugify(name string) string {
	folded, _, err := transform.String(foldMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
