// Package record holds the flat field mapping parsed from one upstream XML element.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// NameField is the upstream tag carrying the company name.
const NameField = "coNm"

// Record is an ordered string-to-string mapping. Field order is the order in
// which tags first appeared in the upstream element.
type Record struct {
	keys   []string
	values map[string]string
}

// New creates an empty record.
func New() Record {
	return Record{values: make(map[string]string)}
}

// FromPairs builds a record from alternating key/value arguments.
func FromPairs(kv ...string) Record {
	r := New()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// Set assigns a field. A repeated key overwrites the value and keeps its position.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns a field value and whether it was present.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns a field value or "" when absent.
func (r Record) Value(key string) string {
	return r.values[key]
}

// Keys returns field names in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// Name returns the company name field.
func (r Record) Name() string { return r.values[NameField] }

// MarshalJSON encodes the record as a JSON object preserving field order.
// HTML characters are left unescaped; callers' encoders decide.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeString(&buf, r.values[k]); err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err //nolint:wrapcheck // wrapped by caller
	}
	buf.Truncate(buf.Len() - 1) // Encode appends '\n'
	return nil
}

// UnmarshalJSON decodes a flat JSON object of strings, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("decode record: expected object")
	}

	out := New()
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("decode record key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode record: unexpected key token %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode record field %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	*r = out
	return nil
}
