package inventory

import (
	"strings"
	"unicode"
)

const leadTimeKey = "leadtime"

// Spreadsheets label lead time in a few incompatible ways.
var leadTimeSynonyms = []string{"reordertime", "lt"}

// CanonicalKey folds a header so that "Lead Time", "lead_time" and
// "LeadTime\n" all compare equal.
func CanonicalKey(header string) string {
	stripped := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, header)
	return strings.ToLower(stripped)
}

// Resolver looks fields up in a single row by canonical header.
type Resolver struct {
	byKey map[string]Value
}

// NewResolver indexes row by canonical key. When two headers fold to the
// same key, the later column wins.
func NewResolver(row RawRow) *Resolver {
	byKey := make(map[string]Value, row.Len())
	for _, k := range row.keys {
		byKey[CanonicalKey(k)] = row.values[k]
	}
	return &Resolver{byKey: byKey}
}

// Resolve returns the first value found for field or one of its aliases, in
// that order. Matching is exact on the canonical form; a miss is undefined.
func (r *Resolver) Resolve(field string, aliases ...string) Value {
	for _, key := range candidates(field, aliases) {
		if v, ok := r.byKey[key]; ok {
			return v
		}
	}
	return Value{}
}

// ResolveLeadTime resolves the lead time column. Text values are read as an
// integer prefix ("14 days" -> 14); text without one is returned unchanged.
func (r *Resolver) ResolveLeadTime(aliases ...string) Value {
	v := r.Resolve("leadTime", aliases...)
	if s, ok := v.AsText(); ok {
		if n, ok := parseIntPrefix(s); ok {
			return Number(float64(n))
		}
	}
	return v
}

func candidates(field string, aliases []string) []string {
	primary := CanonicalKey(field)
	keys := make([]string, 0, len(aliases)+3)
	keys = append(keys, primary)
	for _, a := range aliases {
		keys = append(keys, CanonicalKey(a))
	}
	if primary == leadTimeKey {
		keys = append(keys, leadTimeSynonyms...)
	}
	return keys
}
