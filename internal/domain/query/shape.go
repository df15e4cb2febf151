// Package query turns request parameters into a clamped, cacheable query shape.
package query

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/smallgiants/internal/domain/match"
)

// Format is the response representation.
type Format string

// Output formats.
const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat maps "csv" (any case) to CSV and everything else to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(CSV)) {
		return CSV
	}
	return JSON
}

// Bounds is an inclusive numeric range with a default.
type Bounds struct {
	Min, Max, Default int
}

// Clamp forces v into [Min, Max].
func (b Bounds) Clamp(v int) int {
	return max(b.Min, min(b.Max, v))
}

// Parameter bounds. Out-of-range input is clamped, never rejected.
var (
	DisplayBounds   = Bounds{Min: 1, Max: 100, Default: 100}
	MaxPagesBounds  = Bounds{Min: 1, Max: 5000, Default: 1000}
	SleepMsBounds   = Bounds{Min: 0, Max: 5000, Default: 0}
	RetriesBounds   = Bounds{Min: 0, Max: 5, Default: 2}
	BackoffMsBounds = Bounds{Min: 0, Max: 5000, Default: 500}
)

// Shape is the full parameter tuple of one request. Equal shapes share a cache entry.
// Field order is the serialization order of Key.
type Shape struct {
	Region    string     `json:"region"`
	Display   int        `json:"display"`
	MaxPages  int        `json:"maxPages"`
	SleepMs   int        `json:"sleepMs"`
	Retries   int        `json:"retries"`
	BackoffMs int        `json:"backoffMs"`
	Company   string     `json:"company"`
	Match     match.Mode `json:"match"`
	Normalize bool       `json:"normalize"`
	Format    Format     `json:"format"`
}

// Default returns the shape of a request with no parameters.
func Default() Shape {
	return Shape{
		Display:   DisplayBounds.Default,
		MaxPages:  MaxPagesBounds.Default,
		SleepMs:   SleepMsBounds.Default,
		Retries:   RetriesBounds.Default,
		BackoffMs: BackoffMsBounds.Default,
		Match:     match.Partial,
		Format:    JSON,
	}
}

// FromValues builds a clamped shape from URL query parameters.
func FromValues(v url.Values) Shape {
	s := Shape{
		Region:    v.Get("region"),
		Display:   parseInt(v.Get("display"), DisplayBounds.Default),
		MaxPages:  parseInt(v.Get("maxPages"), MaxPagesBounds.Default),
		SleepMs:   parseInt(v.Get("sleepMs"), SleepMsBounds.Default),
		Retries:   parseInt(v.Get("retries"), RetriesBounds.Default),
		BackoffMs: parseInt(v.Get("backoffMs"), BackoffMsBounds.Default),
		Company:   v.Get("company"),
		Match:     match.ParseMode(v.Get("match")),
		Normalize: v.Get("normalize") == "true",
		Format:    ParseFormat(v.Get("format")),
	}
	return s.Clamped()
}

// Clamped returns a copy with every numeric field inside its bounds.
func (s Shape) Clamped() Shape {
	s.Display = DisplayBounds.Clamp(s.Display)
	s.MaxPages = MaxPagesBounds.Clamp(s.MaxPages)
	s.SleepMs = SleepMsBounds.Clamp(s.SleepMs)
	s.Retries = RetriesBounds.Clamp(s.Retries)
	s.BackoffMs = BackoffMsBounds.Clamp(s.BackoffMs)
	if s.Match != match.Exact {
		s.Match = match.Partial
	}
	if s.Format != CSV {
		s.Format = JSON
	}
	return s
}

// Key is the stable serialization of the shape used as the cache key.
func (s Shape) Key() string {
	// Only strings, ints and bools: Marshal cannot fail.
	data, _ := json.Marshal(s)
	return string(data)
}

// Sleep is the delay between consecutive page requests.
func (s Shape) Sleep() time.Duration {
	return time.Duration(s.SleepMs) * time.Millisecond
}

// Backoff is the base delay of the per-page retry schedule.
func (s Shape) Backoff() time.Duration {
	return time.Duration(s.BackoffMs) * time.Millisecond
}

// parseInt reads a decimal number, truncating fractions. Empty or unparseable
// input yields def. Infinities saturate so that clamping still applies.
func parseInt(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return def
	}
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Trunc(f))
}
