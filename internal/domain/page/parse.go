// Package page parses one upstream XML response into records and a declared total.
package page

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/smallgiants/internal/domain/record"
)

// ElementTag is the repeating element that delimits one record.
const ElementTag = "smallGiant"

// Page is the parsed content of a single upstream response.
type Page struct {
	Records []record.Record
	// Total is the upstream's self-reported record count, nil when absent.
	Total *int
}

var (
	elementRe = regexp.MustCompile(`(?s)<` + ElementTag + `>(.*?)</` + ElementTag + `>`)
	openTagRe = regexp.MustCompile(`<([A-Za-z0-9_]+)>`)
	totalRe   = regexp.MustCompile(`<total>(\d+)</total>`)

	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// Parse extracts records and the declared total. Missing or malformed tags only
// shape the resulting records; Parse never fails.
func Parse(data []byte) Page {
	text := string(data)

	var p Page
	for _, m := range elementRe.FindAllStringSubmatch(text, -1) {
		p.Records = append(p.Records, parseFields(m[1]))
	}

	if m := totalRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.Total = &n
		}
	}

	return p
}

// parseFields turns every <tag>value</tag> inside an element into a field. The
// closing tag is the first one with the same name, so nested same-named tags
// are not supported.
func parseFields(block string) record.Record {
	rec := record.New()
	pos := 0
	for pos < len(block) {
		loc := openTagRe.FindStringSubmatchIndex(block[pos:])
		if loc == nil {
			break
		}
		name := block[pos+loc[2] : pos+loc[3]]
		start := pos + loc[1]
		closing := "</" + name + ">"

		end := strings.Index(block[start:], closing)
		if end < 0 {
			pos += loc[0] + 1
			continue
		}

		rec.Set(name, Decode(strings.TrimSpace(block[start:start+end])))
		pos = start + end + len(closing)
	}
	return rec
}

// Decode replaces the five predefined XML entities with their characters.
func Decode(s string) string {
	return entityReplacer.Replace(s)
}
