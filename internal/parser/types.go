package parser

// Type tells where a translatable was found.
type Type string

const (
	// TypeERB marks a quoted literal inside <% %> tags.
	TypeERB Type = "erb"
	// TypeHTML marks a markup text node.
	TypeHTML Type = "html"
)

// Translatable is one piece of prose extracted from a template.
type Translatable struct {
	// Original is the raw span exactly as it appears in the source.
	Original string `json:"original"`
	// Text is the core phrase with decoration stripped and double quotes escaped.
	Text string `json:"text"`
	// Prefix is the leading decoration kept outside the lookup call.
	Prefix string `json:"prefix"`
	// Suffix is the trailing decoration kept outside the lookup call.
	Suffix string `json:"suffix"`
	// Key is the locale key derived from Text.
	Key  string `json:"key"`
	Type Type   `json:"type"`
	// Start and End delimit Original in the untouched source. Start is -1 when
	// the span could not be located there.
	Start int `json:"start"`
	End   int `json:"end"`
	// Line is the 1-based line of Start, 0 when unanchored.
	Line int `json:"line"`
}

// Anchored reports whether the record knows its position in the source.
func (t Translatable) Anchored() bool {
	return t.Start >= 0 && t.End >= t.Start
}

// ParseResult holds extraction output for a single template.
type ParseResult struct {
	// FilePath is the path the source was read from, for reporting only.
	FilePath string
	// Source is the untouched template text.
	Source string
	// Texts are the extracted records: erb first, then html, each in source order.
	Texts []Translatable
}

// Parser is the interface for template parsers.
type Parser interface {
	// CanParse returns true if this parser handles the given file name.
	CanParse(name string) bool
	// Parse extracts translatable strings from a template.
	Parse(filePath string, src []byte) (*ParseResult, error)
	// Reconstruct rewrites the template with lookup calls in place of the extracted text.
	Reconstruct(result *ParseResult) ([]byte, Report, error)
}
