package match

import (
	"testing"

	"github.com/kailas-cloud/smallgiants/internal/domain/record"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme, Inc.", "acmeinc"},
		{"ACME INC", "acmeinc"},
		{"", ""},
		{"(주)스몰캡 SME-1", "sme1"},
		{"a_b-c.d e", "abcde"},
		{"ÀÉ", ""},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"exact", Exact},
		{"EXACT", Exact},
		{" exact ", Exact},
		{"partial", Partial},
		{"", Partial},
		{"fuzzy", Partial},
	}
	for _, tc := range tests {
		if got := ParseMode(tc.in); got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMatches(t *testing.T) {
	acme := record.FromPairs(record.NameField, "Acme, Inc.")
	unnamed := record.FromPairs("region", "11")

	tests := []struct {
		name      string
		rec       record.Record
		query     string
		mode      Mode
		normalize bool
		want      bool
	}{
		{"empty query matches", acme, "", Exact, true, true},
		{"empty query matches unnamed", unnamed, "", Partial, false, true},
		{"partial case-insensitive", acme, "ACME", Partial, false, true},
		{"partial punctuation kept without normalize", acme, "acme inc", Partial, false, false},
		{"partial normalized", acme, "acme inc", Partial, true, true},
		{"exact without normalize", acme, "acme, inc.", Exact, false, true},
		{"exact without normalize mismatch", acme, "acme inc", Exact, false, false},
		{"exact normalized", acme, "ACME INC", Exact, true, true},
		{"exact normalized requires full equality", acme, "acme", Exact, true, false},
		{"unnamed record never matches a query", unnamed, "a", Partial, false, false},
		{"query normalized to empty matches substring", acme, "---", Partial, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(tc.rec, tc.query, tc.mode, tc.normalize); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	recs := []record.Record{
		record.FromPairs(record.NameField, "Acme Tools", "id", "1"),
		record.FromPairs(record.NameField, "Beta", "id", "2"),
		record.FromPairs(record.NameField, "ACME-Labs", "id", "3"),
		record.FromPairs("id", "4"),
		record.FromPairs(record.NameField, "Old Acme", "id", "5"),
	}

	got := Filter(recs, "acme", Partial, true)
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
	for i, want := range []string{"1", "3", "5"} {
		if got[i].Value("id") != want {
			t.Errorf("position %d: expected id %s, got %s", i, want, got[i].Value("id"))
		}
	}
}

func TestFilter_EmptyQueryIsNoop(t *testing.T) {
	recs := []record.Record{record.FromPairs("id", "1"), record.FromPairs("id", "2")}
	got := Filter(recs, "", Exact, false)
	if len(got) != 2 {
		t.Fatalf("expected all records, got %d", len(got))
	}
}

func TestFilter_NoMatches(t *testing.T) {
	recs := []record.Record{record.FromPairs(record.NameField, "Beta")}
	got := Filter(recs, "acme", Partial, false)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
