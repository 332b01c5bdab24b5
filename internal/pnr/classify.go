package pnr

import (
	"sort"
	"strings"
)

// Kind is the record type of one logical line.
type Kind int

const (
	KindIgnored Kind = iota
	KindPassenger
	KindDocument
	KindTicket
	KindFlight
)

func (k Kind) String() string {
	switch k {
	case KindPassenger:
		return "passenger"
	case KindDocument:
		return "document"
	case KindTicket:
		return "ticket"
	case KindFlight:
		return "flight"
	default:
		return "ignored"
	}
}

// MarshalText renders the kind name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// classifierState is threaded through classify by value. Passenger mode is
// on at document start and switches off once; it never comes back.
type classifierState struct {
	passengerMode bool
}

func newClassifierState() classifierState {
	return classifierState{passengerMode: true}
}

// recordRule routes a non-passenger line. Rules are tried in ascending
// priority and the first hit wins.
type recordRule struct {
	kind     Kind
	priority int
	match    func(line string, tokens []string) bool
}

var recordRules = sortedRules([]recordRule{
	{
		kind:     KindFlight,
		priority: 30,
		match: func(line string, tokens []string) bool {
			return containsMonth(line) && !hasToken(tokens, "SSR") && !hasToken(tokens, "FA")
		},
	},
	{
		kind:     KindDocument,
		priority: 10,
		match: func(_ string, tokens []string) bool {
			return hasToken(tokens, "SSR") && hasToken(tokens, "DOCS")
		},
	},
	{
		kind:     KindTicket,
		priority: 20,
		match: func(_ string, tokens []string) bool {
			return hasToken(tokens, "FA") && hasToken(tokens, "PAX")
		},
	},
})

func sortedRules(rules []recordRule) []recordRule {
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].priority < rules[j].priority
	})
	return rules
}

// classify returns the line's kind and the state to carry to the next line.
func classify(line string, tokens []string, st classifierState) (Kind, classifierState) {
	if len(tokens) == 0 {
		return KindIgnored, st
	}

	// Only a dotted, marker-free line can end passenger mode, so header
	// lines such as "RP/MAD1A0980/..." ahead of the manifest leave it on.
	if st.passengerMode && strings.Contains(line, ".") && !hasToken(tokens, "SSR") && !hasToken(tokens, "FA") {
		if strings.Contains(tokens[0], ".") {
			return KindPassenger, st
		}
		st.passengerMode = false
	}

	for _, r := range recordRules {
		if r.match(line, tokens) {
			return r.kind, st
		}
	}
	return KindIgnored, st
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
