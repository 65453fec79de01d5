package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/henriquecf/i18n-parser/internal/rules"
)

// Mode selects the substitution engine used by Reconstruct.
type Mode string

const (
	// ModeSpans rewrites from recorded offsets in a single pass.
	ModeSpans Mode = "spans"
	// ModeFold replaces records one by one by pattern.
	ModeFold Mode = "fold"
)

// ErrInvalidUTF8 is returned for sources that are not UTF-8 text.
var ErrInvalidUTF8 = errors.New("source is not valid UTF-8")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSpans, ModeFold:
		return m, nil
	case "":
		return ModeSpans, nil
	}
	return "", fmt.Errorf("unknown rewrite mode %q (want %q or %q)", s, ModeSpans, ModeFold)
}

// ERBParser extracts translatable text from ERB templates.
type ERBParser struct {
	rules *rules.Ruleset
	mode  Mode
}

// NewERBParser creates a parser over the given ruleset. A nil ruleset means
// rules.Default().
func NewERBParser(rs *rules.Ruleset, mode Mode) *ERBParser {
	if rs == nil {
		rs = rules.Default()
	}
	if mode == "" {
		mode = ModeSpans
	}
	return &ERBParser{rules: rs, mode: mode}
}

// Rules returns the ruleset the parser classifies with.
func (p *ERBParser) Rules() *rules.Ruleset { return p.rules }

func (p *ERBParser) CanParse(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".erb")
}

func (p *ERBParser) Parse(filePath string, src []byte) (*ParseResult, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("parse %s: %w", filePath, ErrInvalidUTF8)
	}

	text := string(src)
	return &ParseResult{
		FilePath: filePath,
		Source:   text,
		Texts:    p.Extract(text),
	}, nil
}

// Extract returns the records found in src: erb literals first, then html
// text nodes, each in source order.
func (p *ERBParser) Extract(src string) []Translatable {
	candidates := ScanERB(src, p.rules)
	candidates = append(candidates, ScanHTML(src, p.rules)...)

	out := make([]Translatable, 0, len(candidates))
	for _, c := range candidates {
		if t, ok := Build(src, c); ok {
			out = append(out, t)
		}
	}
	return out
}

func (p *ERBParser) Reconstruct(result *ParseResult) ([]byte, Report, error) {
	if result == nil {
		return nil, Report{}, errors.New("reconstruct: nil parse result")
	}

	var (
		out    string
		report Report
	)
	switch p.mode {
	case ModeFold:
		out, report = Fold(result.Source, result.Texts)
	default:
		out, report = Rewrite(result.Source, result.Texts)
	}
	return []byte(out), report, nil
}
