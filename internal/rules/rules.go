package rules

import (
	"regexp"
	"strings"
)

// DefaultVersion identifies the built-in rule tables. Bump it whenever a
// pattern changes so rewritten trees can be traced back to the rules used.
const DefaultVersion = "2"

// Rule is a named pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Ruleset holds the two ordered rule lists used during extraction.
//
// Exclusions reject html text nodes: a node matching any of them is not
// translatable. Noise rules are applied in order to the whole buffer before
// erb literals are scanned; every match is deleted.
type Ruleset struct {
	Version    string
	Exclusions []Rule
	Noise      []Rule
}

func rule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern)}
}

// Default returns a fresh copy of the built-in ruleset.
func Default() *Ruleset {
	return &Ruleset{
		Version:    DefaultVersion,
		Exclusions: defaultExclusions(),
		Noise:      defaultNoise(),
	}
}

func defaultExclusions() []Rule {
	return []Rule{
		rule("blank", `^\s*$`),
		rule("html_entity", `^(?:\s|&#?[0-9A-Za-z]+;)+$`),
		rule("attribute", `[\w\-]+\s*[=:]\s*(?:"[^"]*"|'[^']*')`),
		rule("punctuation", `^[\s\pP\pS]+$`),
		rule("path", `^\s*\S*/\S*\s*$`),
		rule("params", `params\[:?\w+\]`),
		rule("integer", `^\s*\d+\s*$`),
		rule("percent", `^\s*\d{1,2}%\s*$`),
		rule("decimal", `^\s*[$€£¥]?\s*-?\d[\d,]*\.\d+\s*$`),
		rule("dollar", `^\s*\$\s*$`),
		rule("null", `(?i)^\s*null\s*$`),
		rule("possessive", `^\s*'s\s*$`),
		rule("erb_residue", `<%|%>`),
	}
}

// Literal bodies never cross a line or a tag boundary.
const (
	dq = `"[^"\n<>]*"`
	sq = `'[^'\n<>]*'`
)

func defaultNoise() []Rule {
	ident := `(?:[\w\-.:#@]|#\{[^{}]*\})*`
	return []Rule{
		rule("render_partial",
			`<%[=\-]?\s*render\b(?:[^%]|%[^>])*%>|\brender\s*\(?\s*(?:partial:\s*|:partial\s*=>\s*)?(?:`+dq+`|`+sq+`)`),
		rule("erb_bound_attribute", `[\w\-]+\s*=\s*(?:"<%[^%]*%>"|'<%[^%]*%>')`),
		rule("structural_attribute",
			`(?:\b(?:class|id|style|type|method|rel|target|role|for|autocomplete|data-[\w\-]+)(?:\s*=\s*|:\s*)|:(?:class|id|style|type|method|rel|target|role)\s*=>\s*)(?:`+dq+`|`+sq+`)`),
		rule("symbolic_assignment",
			`(?:[\w\-]+:\s*|:[\w\-]+\s*=>\s*|[\w\-]+\s*=\s*)(?:"`+ident+`"|'`+ident+`')`),
		rule("empty_literal", `""|''`),
		rule("path_literal", `"/[^"\n<>]*"|'/[^'\n<>]*'`),
		rule("slash_literal", `"[^"\n<>]*/[^"\n<>]*"|'[^'\n<>]*/[^'\n<>]*'`),
		rule("query_chain", `\.?\b(?:where|order|reorder)\s*\([^()]*\)`),
		rule("underscore_literal",
			`"[^"\n<>]*[\p{L}\p{N}]_[\p{L}\p{N}][^"\n<>]*"|'[^'\n<>]*[\p{L}\p{N}]_[\p{L}\p{N}][^'\n<>]*'`),
		rule("symbol_literal", `"[^\p{L}\p{N}"\n<>]+"|'[^\p{L}\p{N}'\n<>]+'`),
	}
}

// Accept reports whether an html text node is translatable.
func (rs *Ruleset) Accept(span string) bool {
	_, rejected := rs.Reject(span)
	return !rejected
}

// Reject returns the first exclusion rule matching span.
func (rs *Ruleset) Reject(span string) (Rule, bool) {
	for _, r := range rs.Exclusions {
		if r.Pattern.MatchString(span) {
			return r, true
		}
	}
	return Rule{}, false
}

// SuppressMapped deletes every noise match from src, rule by rule. It also
// returns, for each byte of the output, the offset of that byte in src.
func (rs *Ruleset) SuppressMapped(src string) (string, []int) {
	offsets := make([]int, len(src))
	for i := range offsets {
		offsets[i] = i
	}

	out := src
	for _, r := range rs.Noise {
		locs := r.Pattern.FindAllStringIndex(out, -1)
		if len(locs) == 0 {
			continue
		}

		var b strings.Builder
		b.Grow(len(out))
		kept := make([]int, 0, len(offsets))
		prev := 0
		for _, loc := range locs {
			b.WriteString(out[prev:loc[0]])
			kept = append(kept, offsets[prev:loc[0]]...)
			prev = loc[1]
		}
		b.WriteString(out[prev:])
		kept = append(kept, offsets[prev:]...)

		out, offsets = b.String(), kept
	}

	return out, offsets
}
