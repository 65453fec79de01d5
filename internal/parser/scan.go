package parser

import (
	"regexp"
	"strings"

	"github.com/henriquecf/i18n-parser/internal/rules"
)

var (
	erbTag = regexp.MustCompile(`(?s)<%.*?%>`)
	// Backslash escapes do not end a literal.
	quotedLiteral = regexp.MustCompile(`(?s)"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'`)
	// A text node starts after the last '>' before it, so the '>' of a
	// preceding %> or of Ruby code cannot leak into it.
	textNode   = regexp.MustCompile(`>([^<>]*)<`)
	rawElement = regexp.MustCompile(`(?is)<(?:script|style)\b[^>]*>.*?</(?:script|style)\s*>`)
)

// ScanERB returns the quoted literals found inside <% %> tags once the
// ruleset's noise has been removed. Comment tags are skipped.
func ScanERB(src string, rs *rules.Ruleset) []Candidate {
	clean, offsets := rs.SuppressMapped(src)

	var out []Candidate
	for _, tag := range erbTag.FindAllStringIndex(clean, -1) {
		body := clean[tag[0]:tag[1]]
		if isComment(body) {
			continue
		}

		for _, m := range quotedLiteral.FindAllStringSubmatchIndex(body, -1) {
			s, e, quote := m[2], m[3], byte('"')
			if s < 0 {
				s, e, quote = m[4], m[5], '\''
			}

			c := Candidate{Text: body[s:e], Type: TypeERB, Quote: quote, Start: -1, End: -1}
			// Anchor the whole literal, quotes included, so a deletion right
			// next to the body is caught too.
			if start, end, ok := anchor(offsets, tag[0]+m[0], tag[0]+m[1]); ok {
				c.Start, c.End = start+1, end-1
			}
			out = append(out, c)
		}
	}
	return out
}

func isComment(tag string) bool {
	body := strings.TrimLeft(tag[2:], "-")
	return strings.HasPrefix(body, "#")
}

// anchor maps [s, e) of a suppressed buffer back to the source. It fails when
// suppression removed bytes inside the range.
func anchor(offsets []int, s, e int) (int, int, bool) {
	if s < 0 || e > len(offsets) || s >= e {
		return 0, 0, false
	}
	first, last := offsets[s], offsets[e-1]
	if last-first != e-1-s {
		return 0, 0, false
	}
	return first, last + 1, true
}

// ScanHTML returns every text node accepted by the ruleset. Nodes inside
// script and style elements or inside <% %> tags are ignored.
func ScanHTML(src string, rs *rules.Ruleset) []Candidate {
	var out []Candidate
	for _, n := range textNodes(src) {
		text := src[n[0]:n[1]]
		if !rs.Accept(text) {
			continue
		}
		out = append(out, Candidate{Text: text, Type: TypeHTML, Start: n[0], End: n[1]})
	}
	return out
}

// Rejection is a text node dropped by the ruleset.
type Rejection struct {
	Candidate Candidate
	Rule      rules.Rule
}

// RejectedHTML returns the text nodes the ruleset dropped, in source order,
// with the rule that dropped each one. It looks at the same nodes as ScanHTML.
func RejectedHTML(src string, rs *rules.Ruleset) []Rejection {
	var out []Rejection
	for _, n := range textNodes(src) {
		text := src[n[0]:n[1]]
		if r, rejected := rs.Reject(text); rejected {
			out = append(out, Rejection{
				Candidate: Candidate{Text: text, Type: TypeHTML, Start: n[0], End: n[1]},
				Rule:      r,
			})
		}
	}
	return out
}

// textNodes returns the [start, end) ranges of the markup text nodes of src.
func textNodes(src string) [][2]int {
	skip := rawElement.FindAllStringIndex(src, -1)
	skip = append(skip, erbTag.FindAllStringIndex(src, -1)...)

	var out [][2]int
	for _, m := range textNode.FindAllStringSubmatchIndex(src, -1) {
		s, e := m[2], m[3]
		if within(skip, s, e) {
			continue
		}
		out = append(out, [2]int{s, e})
	}
	return out
}

func within(ranges [][]int, s, e int) bool {
	for _, r := range ranges {
		if s >= r[0] && e <= r[1] {
			return true
		}
	}
	return false
}
