package rules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a rules extension file.
//
//	version: "acme-3"
//	exclusions:
//	  - name: sku
//	    pattern: '^\s*SKU-\d+\s*$'
//	noise:
//	  - name: icon_helper
//	    pattern: 'icon\(\s*"[^"]*"\s*\)'
type File struct {
	Version    string     `yaml:"version"`
	Exclusions []FileRule `yaml:"exclusions"`
	Noise      []FileRule `yaml:"noise"`
}

// FileRule is a single named pattern in a rules file.
type FileRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// Load reads a rules file and returns the default ruleset extended with it.
// Extra exclusions are appended; extra noise rules run after the built-in ones.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse extends the default ruleset with a YAML rules document.
func Parse(data []byte) (*Ruleset, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules file: %w", err)
	}

	exclusions, err := compile(f.Exclusions)
	if err != nil {
		return nil, fmt.Errorf("exclusions: %w", err)
	}
	noise, err := compile(f.Noise)
	if err != nil {
		return nil, fmt.Errorf("noise: %w", err)
	}

	rs := Default()
	rs.Exclusions = append(rs.Exclusions, exclusions...)
	rs.Noise = append(rs.Noise, noise...)
	if f.Version != "" {
		rs.Version = DefaultVersion + "+" + f.Version
	}
	return rs, nil
}

func compile(in []FileRule) ([]Rule, error) {
	out := make([]Rule, 0, len(in))
	for i, fr := range in {
		name := fr.Name
		if name == "" {
			name = fmt.Sprintf("rule_%d", i+1)
		}
		re, err := regexp.Compile(fr.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", name, err)
		}
		out = append(out, Rule{Name: name, Pattern: re})
	}
	return out, nil
}
