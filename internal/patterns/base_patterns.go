// Package patterns provides shared regex patterns and a grok-style compiler for PNR parsing.
// This file contains grok-style base patterns for use with the Compiler.

package patterns

// BasePatterns defines reusable regex components for grok-style pattern composition.
// These are referenced in format patterns using {PATTERN_NAME} syntax.
var BasePatterns = map[string]string{
	// Airport codes.
	"IATA": `[A-Z]{3}`,

	// Time formats.
	"TIME4":     `\d{4}`, // HHMM
	"DAYOFFSET": `\d`,    // +1 after an arrival time

	// GDS sequence number opening a record.
	"SEQ": `\d+`,
}
