// Package patterns provides shared regex patterns and a grok-style compiler for PNR parsing.
package patterns

import "regexp"

// Token formats recognised inside a reflowed PNR record. Every format is
// anchored, so a match means the whole token has that shape.
var Tokens = NewCompiler([]Format{
	// Example: 1310, 0600+1
	{
		Name:    "time",
		Pattern: `^(?P<hhmm>{TIME4})(?:\+(?P<offset>{DAYOFFSET}))?$`,
		Fields:  []string{"hhmm", "offset"},
	},
	// Example: MADPEK
	{
		Name:    "city_pair",
		Pattern: `^(?P<origin>{IATA})(?P<dest>{IATA})$`,
		Fields:  []string{"origin", "dest"},
	},
}, nil).MustCompile()

// RecordStartPattern matches a physical line that opens a new GDS record.
var RecordStartPattern = regexp.MustCompile(`^` + BasePatterns["SEQ"])

// DigitsPattern matches runs of decimal digits.
var DigitsPattern = regexp.MustCompile(`\d+`)
