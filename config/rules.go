package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// ErrInvalidConfig is returned for configuration that cannot drive a run.
var ErrInvalidConfig = errors.New("invalid configuration")

type (
	extensionRule struct {
		key        *regexp.Regexp
		extensions []string
	}
	nonPathRule struct {
		exact   string
		re      *regexp.Regexp
		exclude bool
	}
	// Rules is the compiled, immutable form of the path-related settings.
	// Rule lists are evaluated in declaration order and the first match wins.
	Rules struct {
		MaxPathParts   int
		MaxBackStep    int
		MaxForwardStep int
		Substitutions  []Substitution

		excludedPaths []*regexp.Regexp
		extensions    []extensionRule
		nonPath       []nonPathRule
	}
)

// Compile validates the configuration and compiles every pattern. Patterns
// are anchored at the start of the subject, not at its end.
func (c *Config) Compile() (*Rules, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r := &Rules{
		MaxPathParts:   c.Resolver.MaxPathParts,
		MaxBackStep:    c.Resolver.MaxBackStep,
		MaxForwardStep: c.Resolver.MaxForwardStep,
		Substitutions:  slices.Clone(c.Resolver.RootSubstitutions),
	}
	for _, p := range c.Properties.ExcludedPaths {
		re, err := compileAnchored(p)
		if err != nil {
			return nil, err
		}
		r.excludedPaths = append(r.excludedPaths, re)
	}
	for _, e := range c.Properties.ExpectedExtensions {
		re, err := compileAnchored(e.Key)
		if err != nil {
			return nil, err
		}
		exts := slices.Clone(e.Extensions)
		if exts == nil {
			exts = []string{}
		}
		r.extensions = append(r.extensions, extensionRule{key: re, extensions: exts})
	}
	for _, n := range c.Properties.NonPathRules {
		rule := nonPathRule{exclude: n.Exclude}
		if n.Regex {
			re, err := compileAnchored(n.Pattern)
			if err != nil {
				return nil, err
			}
			rule.re = re
		} else {
			rule.exact = n.Pattern
		}
		r.nonPath = append(r.nonPath, rule)
	}
	return r, nil
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", ErrInvalidConfig, pattern, err)
	}
	return re, nil
}

// ExcludedPath reports whether a sidecar file at packPath must be left alone.
func (r *Rules) ExcludedPath(packPath string) bool {
	for _, re := range r.excludedPaths {
		if re.MatchString(packPath) {
			return true
		}
	}
	return false
}

// PathCandidate reports whether values of key may hold a path. The first
// matching non-path rule decides; keys no rule matches are candidates.
func (r *Rules) PathCandidate(key string) bool {
	for _, rule := range r.nonPath {
		matched := key == rule.exact
		if rule.re != nil {
			matched = rule.re.MatchString(key)
		}
		if matched {
			return !rule.exclude
		}
	}
	return true
}

// ExpectedExtensions returns the extensions configured for key. ok is false
// when no rule matched, which is distinct from a rule with an empty list.
func (r *Rules) ExpectedExtensions(key string) (exts []string, ok bool) {
	for _, rule := range r.extensions {
		if rule.key.MatchString(key) {
			return slices.Clone(rule.extensions), true
		}
	}
	return nil, false
}
