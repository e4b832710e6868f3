package relay

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// Rule is one entry of the bot reply catalogue.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Enabled *bool  `yaml:"enabled,omitempty"`

	re *regexp.Regexp
}

func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Ruleset is an ordered catalogue; the first matching rule wins.
type Ruleset struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRuleset decodes and compiles a YAML catalogue.
func ParseRuleset(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("invalid pattern catalogue: %w", err)
	}

	names := make(map[string]bool, len(rs.Rules))
	var errs []error
	for i := range rs.Rules {
		rule := &rs.Rules[i]
		rule.Name = strings.TrimSpace(rule.Name)
		switch {
		case rule.Name == "":
			errs = append(errs, fmt.Errorf("rule %d: name is required", i+1))
			continue
		case names[rule.Name]:
			errs = append(errs, fmt.Errorf("rule %q: duplicate name", rule.Name))
			continue
		case rule.Pattern == "":
			errs = append(errs, fmt.Errorf("rule %q: pattern is required", rule.Name))
			continue
		}
		names[rule.Name] = true

		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", rule.Name, err))
			continue
		}
		rule.re = re
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadRuleset reads the catalogue at path, or the built-in one when path is empty.
func LoadRuleset(path string) (*Ruleset, error) {
	if path == "" {
		return DefaultRuleset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern catalogue: %w", err)
	}
	return ParseRuleset(data)
}

func DefaultRuleset() *Ruleset {
	rs, err := ParseRuleset(defaultPatterns)
	if err != nil {
		panic(fmt.Sprintf("built-in pattern catalogue: %v", err))
	}
	return rs
}

// Match returns the name of the first enabled rule matching body.
func (rs *Ruleset) Match(body string) (string, bool) {
	if rs == nil {
		return "", false
	}
	for _, rule := range rs.Rules {
		if rule.re == nil || !rule.IsEnabled() {
			continue
		}
		if rule.re.MatchString(body) {
			return rule.Name, true
		}
	}
	return "", false
}
