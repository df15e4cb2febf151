// Package match compares company-name queries against records.
package match

import (
	"strings"

	"github.com/kailas-cloud/smallgiants/internal/domain/record"
)

// Mode is the name comparison strategy.
type Mode string

// Match modes.
const (
	// Partial matches when the record name contains the query.
	Partial Mode = "partial"
	// Exact matches when the record name equals the query.
	Exact Mode = "exact"
)

// ParseMode maps "exact" (any case) to Exact and everything else to Partial.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(Exact)) {
		return Exact
	}
	return Partial
}

// Normalize lower-cases s and drops every character that is not an ASCII letter or digit.
func Normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Matches reports whether rec's name satisfies query. An empty query matches everything.
// Both sides are lower-cased; normalize additionally strips punctuation and spaces.
func Matches(rec record.Record, query string, mode Mode, normalize bool) bool {
	if query == "" {
		return true
	}
	return compare(fold(rec.Name(), normalize), fold(query, normalize), mode)
}

// Filter returns the records matching query in their original order.
func Filter(records []record.Record, query string, mode Mode, normalize bool) []record.Record {
	if query == "" {
		return records
	}
	key := fold(query, normalize)
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if compare(fold(r.Name(), normalize), key, mode) {
			out = append(out, r)
		}
	}
	return out
}

func fold(s string, normalize bool) string {
	if normalize {
		return Normalize(s)
	}
	return strings.ToLower(s)
}

func compare(name, key string, mode Mode) bool {
	if mode == Exact {
		return name == key
	}
	return strings.Contains(name, key)
}
