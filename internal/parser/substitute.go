package parser

import (
	"regexp"
	"sort"
	"strings"
)

// WarningKind classifies a substitution that may be wrong or was skipped.
type WarningKind string

const (
	// WarnAmbiguous: the original text occurs more than once in the buffer.
	WarnAmbiguous WarningKind = "ambiguous"
	// WarnKeyCollision: two different texts in one file derive the same key.
	WarnKeyCollision WarningKind = "key_collision"
	// WarnOverlap: the edit overlaps an earlier one and was dropped.
	WarnOverlap WarningKind = "overlap"
	// WarnUnanchored: the record has no position in the source and was skipped.
	WarnUnanchored WarningKind = "unanchored"
	// WarnNotFound: the record's text is not where it should be.
	WarnNotFound WarningKind = "not_found"
)

// Warning describes one problem met while rewriting.
type Warning struct {
	Kind  WarningKind `json:"kind"`
	Key   string      `json:"key"`
	Text  string      `json:"text"`
	Line  int         `json:"line"`
	Count int         `json:"count,omitempty"`
}

// Report is the outcome of a rewrite.
type Report struct {
	Applied  int       `json:"applied"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Count returns how many warnings of kind the report holds.
func (r Report) Count(kind WarningKind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Report) warn(kind WarningKind, t Translatable, count int) {
	r.Warnings = append(r.Warnings, Warning{
		Kind:  kind,
		Key:   t.Key,
		Text:  t.Text,
		Line:  t.Line,
		Count: count,
	})
}

// Lookup returns the lookup call for key.
func Lookup(key string) string {
	return `t(".` + key + `")`
}

var rubyStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `#{`, `\#{`)

// erbReplacement replaces a whole quoted literal, quotes included.
func erbReplacement(t Translatable) string {
	if t.Prefix == "" && t.Suffix == "" {
		return Lookup(t.Key)
	}
	return `"` + rubyStringEscaper.Replace(t.Prefix) +
		`#{` + Lookup(t.Key) + `}` +
		rubyStringEscaper.Replace(t.Suffix) + `"`
}

// htmlReplacement replaces the core text of a node; decoration stays put.
func htmlReplacement(t Translatable) string {
	return `<%= ` + Lookup(t.Key) + ` %>`
}

type edit struct {
	start, end int
	text       string
	rec        Translatable
}

// Rewrite replaces every record with its lookup call in one pass over src.
// Edits are computed from the records' offsets into the untouched source, so
// the result does not depend on record order and identical text elsewhere in
// the file is never touched.
func Rewrite(src string, records []Translatable) (string, Report) {
	var report Report
	checkCollisions(&report, records)

	edits := make([]edit, 0, len(records))
	for _, t := range records {
		if !t.Anchored() {
			report.warn(WarnUnanchored, t, 0)
			continue
		}
		e, ok := planEdit(src, t)
		if !ok {
			report.warn(WarnNotFound, t, 0)
			continue
		}
		if n := strings.Count(src, t.Original); n > 1 {
			report.warn(WarnAmbiguous, t, n)
		}
		edits = append(edits, e)
	}

	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(src))
	prev := 0
	for _, e := range edits {
		if e.start < prev {
			report.warn(WarnOverlap, e.rec, 0)
			continue
		}
		b.WriteString(src[prev:e.start])
		b.WriteString(e.text)
		prev = e.end
		report.Applied++
	}
	b.WriteString(src[prev:])

	return b.String(), report
}

func planEdit(src string, t Translatable) (edit, bool) {
	if t.End > len(src) || src[t.Start:t.End] != t.Original {
		return edit{}, false
	}

	switch t.Type {
	case TypeERB:
		if t.Start < 1 || t.End >= len(src) {
			return edit{}, false
		}
		q := src[t.Start-1]
		if (q != '"' && q != '\'') || src[t.End] != q {
			return edit{}, false
		}
		return edit{start: t.Start - 1, end: t.End + 1, text: erbReplacement(t), rec: t}, true
	case TypeHTML:
		start := t.Start + len(t.Prefix)
		end := t.End - len(t.Suffix)
		if start > end {
			return edit{}, false
		}
		return edit{start: start, end: end, text: htmlReplacement(t), rec: t}, true
	}
	return edit{}, false
}

func checkCollisions(report *Report, records []Translatable) {
	seen := make(map[string]string, len(records))
	for _, t := range records {
		text, ok := seen[t.Key]
		if !ok {
			seen[t.Key] = t.Text
			continue
		}
		if text != t.Text {
			report.warn(WarnKeyCollision, t, 0)
		}
	}
}

// ReplaceKey substitutes a single record into src by pattern, without using
// its offsets: the first <% %> literal, or the first text node, holding the
// record's original text is rewritten. It returns false when nothing matched.
func ReplaceKey(src string, t Translatable) (string, bool) {
	q := regexp.QuoteMeta(t.Original)

	switch t.Type {
	case TypeERB:
		re, err := regexp.Compile(`(?s)<%(?:[^%]|%[^>])*?(?:("` + q + `")|('` + q + `'))`)
		if err != nil {
			return src, false
		}
		m := re.FindStringSubmatchIndex(src)
		if m == nil {
			return src, false
		}
		s, e := m[2], m[3]
		if s < 0 {
			s, e = m[4], m[5]
		}
		return src[:s] + erbReplacement(t) + src[e:], true
	case TypeHTML:
		re, err := regexp.Compile(`>(` + q + `)<`)
		if err != nil {
			return src, false
		}
		m := re.FindStringSubmatchIndex(src)
		if m == nil {
			return src, false
		}
		s := m[2] + len(t.Prefix)
		e := m[3] - len(t.Suffix)
		return src[:s] + htmlReplacement(t) + src[e:], true
	}
	return src, false
}

// Fold applies ReplaceKey record by record, each against the previous
// output. Unlike Rewrite it can hit an unrelated occurrence of the same text;
// such cases are reported as ambiguous.
func Fold(src string, records []Translatable) (string, Report) {
	var report Report
	checkCollisions(&report, records)

	out := src
	for _, t := range records {
		if n := strings.Count(out, t.Original); n > 1 {
			report.warn(WarnAmbiguous, t, n)
		}
		next, ok := ReplaceKey(out, t)
		if !ok {
			report.warn(WarnNotFound, t, 0)
			continue
		}
		out = next
		report.Applied++
	}
	return out, report
}
