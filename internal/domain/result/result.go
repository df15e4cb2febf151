// Package result holds the filtered record set returned to clients.
package result

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/kailas-cloud/smallgiants/internal/domain/record"
)

// Result is the filtered record set in upstream arrival order.
type Result struct {
	Count int             `json:"count"`
	Items []record.Record `json:"items"`
}

// New wraps items; a nil slice becomes empty so JSON renders [].
func New(items []record.Record) Result {
	if items == nil {
		items = []record.Record{}
	}
	return Result{Count: len(items), Items: items}
}

// Meta reports which upstream credentials are configured.
type Meta struct {
	AuthKeyPresent   bool `json:"authKeyPresent"`
	CommonKeyPresent bool `json:"commonKeyPresent"`
}

// Envelope is the JSON response body.
type Envelope struct {
	Result
	Meta Meta `json:"meta"`
}

// Headers returns the sorted union of field names across items.
func Headers(items []record.Record) []string {
	seen := make(map[string]struct{})
	for _, it := range items {
		for _, k := range it.Keys() {
			seen[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(seen))
	for k := range seen {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}

// WriteCSV writes items as a CSV table with a Headers row. Missing fields are empty.
func WriteCSV(w io.Writer, items []record.Record) error {
	headers := Headers(items)

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(headers))
	for i, it := range items {
		for j, h := range headers {
			row[j] = it.Value(h)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
