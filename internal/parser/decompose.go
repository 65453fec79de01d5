package parser

import (
	"regexp"
	"strings"

	"github.com/henriquecf/i18n-parser/internal/textutil"
)

var (
	// Opening quote, leading comma or period, possessive, double dash, spaces.
	prefixPattern = regexp.MustCompile(`^["']?[,.]?(?:'s)?(?:--)?\s*`)
	// Colon, spaces, asterisk, comma, spaces. Always matches, possibly empty.
	suffixPattern = regexp.MustCompile(`:?\s*\*?,?\s*$`)
)

// Decompose splits a raw span into its leading decoration, the core phrase
// (with double quotes escaped) and its trailing decoration.
func Decompose(raw string) (prefix, text, suffix string) {
	prefix = prefixPattern.FindString(raw)
	rest := raw[len(prefix):]

	loc := suffixPattern.FindStringIndex(rest)
	core := rest[:loc[0]]
	suffix = rest[loc[0]:]

	return prefix, textutil.EscapeQuotes(core), suffix
}

// Candidate is a raw span proposed by a scanner.
type Candidate struct {
	Text string
	Type Type
	// Quote is the delimiter of an erb literal, 0 for html text.
	Quote byte
	// Start and End delimit Text in the original source; Start is -1 when unknown.
	Start int
	End   int
}

// literalValue resolves the escapes of a Ruby string body that change its
// value: the delimiter and the backslash. Other escapes are kept as written.
func literalValue(body string, quote byte) string {
	if quote == 0 || !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == quote || body[i+1] == '\\') {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

// Build turns a candidate into a complete record. It returns false when the
// span holds nothing a key can be derived from. Erb literals are decomposed
// by value, so Original keeps the escapes as written while Text does not.
func Build(src string, c Candidate) (Translatable, bool) {
	prefix, text, suffix := Decompose(literalValue(c.Text, c.Quote))
	key := textutil.Key(text)
	if key == "" {
		return Translatable{}, false
	}

	t := Translatable{
		Original: c.Text,
		Text:     text,
		Prefix:   prefix,
		Suffix:   suffix,
		Key:      key,
		Type:     c.Type,
		Start:    c.Start,
		End:      c.End,
	}
	if t.Anchored() {
		t.Line = textutil.LineAt(src, t.Start)
	} else {
		t.Start, t.End = -1, -1
	}
	return t, true
}
