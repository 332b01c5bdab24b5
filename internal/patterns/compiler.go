// Package patterns provides shared regex patterns and a grok-style compiler for PNR parsing.
// This file contains the grok-style pattern compiler.

package patterns

import (
	"regexp"
	"strings"
)

// Format represents a token or line format with named capture groups.
type Format struct {
	Name     string         // Format name for identification
	Pattern  string         // Pattern with {PLACEHOLDER} syntax
	Compiled *regexp.Regexp // Compiled regex (populated by Compile)
	Fields   []string       // Field names in capture order (for documentation)
}

// Compiler manages pattern compilation and parsing for a set of formats.
type Compiler struct {
	basePatterns map[string]string
	formats      []Format
}

// NewCompiler creates a new pattern compiler with the given formats.
// Local patterns override entries from BasePatterns.
func NewCompiler(formats []Format, localPatterns map[string]string) *Compiler {
	c := &Compiler{
		basePatterns: make(map[string]string),
		formats:      make([]Format, len(formats)),
	}

	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}

	copy(c.formats, formats)

	return c
}

// MustCompile is Compile for package-level compilers; it panics on a bad pattern.
func (c *Compiler) MustCompile() *Compiler {
	if err := c.Compile(); err != nil {
		panic("patterns: " + err.Error())
	}
	return c
}

// Compile expands all {PLACEHOLDER} references and compiles regexes.
func (c *Compiler) Compile() error {
	for i := range c.formats {
		re, err := regexp.Compile(c.Expand(c.formats[i].Pattern))
		if err != nil {
			return err
		}
		c.formats[i].Compiled = re
	}
	return nil
}

// Expand replaces {PLACEHOLDER} with actual regex patterns.
func (c *Compiler) Expand(pattern string) string {
	result := pattern
	for name, regex := range c.basePatterns {
		result = strings.ReplaceAll(result, "{"+name+"}", regex)
	}
	return result
}

// Match represents a successful pattern match with extracted fields.
type Match struct {
	FormatName string            // Name of the matched format
	Captures   map[string]string // Named capture group values
}

// Parse attempts to parse text using all compiled formats.
// Returns the first successful match, or nil if no format matches.
func (c *Compiler) Parse(text string) *Match {
	upperText := strings.ToUpper(text)

	for _, format := range c.formats {
		if format.Compiled == nil {
			continue
		}
		match := format.Compiled.FindStringSubmatch(upperText)
		if match == nil {
			continue
		}
		return newMatch(format, match)
	}

	return nil
}

// ParseFormat is Parse restricted to the format with the given name.
func (c *Compiler) ParseFormat(name, text string) *Match {
	for _, format := range c.formats {
		if format.Name != name || format.Compiled == nil {
			continue
		}
		match := format.Compiled.FindStringSubmatch(strings.ToUpper(text))
		if match == nil {
			return nil
		}
		return newMatch(format, match)
	}
	return nil
}

func newMatch(format Format, match []string) *Match {
	result := &Match{
		FormatName: format.Name,
		Captures:   make(map[string]string),
	}
	for i, name := range format.Compiled.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		result.Captures[name] = match[i]
	}
	return result
}

// GetCapture is a helper to safely get a capture value with a default.
func (m *Match) GetCapture(name string, defaultVal string) string {
	if m == nil {
		return defaultVal
	}
	if val, ok := m.Captures[name]; ok && val != "" {
		return val
	}
	return defaultVal
}
