package pnr

import (
	"fmt"
	"strings"

	"billete/internal/patterns"
)

// appendPassengers reads a manifest line such as "1.SMITH/JOHN.JONES/JANE".
// The piece before the first dot is the sequence number.
func appendPassengers(roster []Passenger, line string) []Passenger {
	parts := strings.Split(line, ".")
	for _, part := range parts[1:] {
		name := strings.TrimSpace(patterns.DigitsPattern.ReplaceAllString(part, ""))
		if name == "" {
			continue
		}
		roster = append(roster, Passenger{
			Name:       name,
			SequenceID: fmt.Sprintf("P%d", len(roster)+1),
		})
	}
	return roster
}

// extractPassport reads the passport number from an SSR DOCS record:
//
//	SSR DOCS CA HK1 P/CHN/EL9792535/CHN/22SEP93/F/26FEB34/XIAO/Y IYI
func extractPassport(tokens []string) (string, bool) {
	field := ""
	for _, t := range tokens {
		if strings.HasPrefix(t, "P/") {
			field = t
			break
		}
	}
	if field == "" {
		for _, t := range tokens {
			if strings.Contains(t, "P/") && strings.Contains(t, "/") {
				field = t
				break
			}
		}
	}
	if field == "" {
		return "", false
	}

	parts := strings.Split(strings.ReplaceAll(field, " ", ""), "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// extractTicket reads the ticket number from an FA PAX record:
//
//	FA PAX 999-6690500729/ETCA/EUR696.11/27MAR24/VLCI12260/78234
func extractTicket(tokens []string) (string, bool) {
	for _, t := range tokens {
		if strings.Contains(t, "FA") || strings.Contains(t, "PAX") {
			continue
		}
		if strings.Contains(t, "-") && strings.Contains(t, "/") {
			ticket, _, _ := strings.Cut(t, "/")
			return ticket, ticket != ""
		}
	}
	return "", false
}

// attach sets field on the only passenger. With any other roster size the
// value is returned as unmatched and the roster is left unchanged.
// TODO: match multi-passenger records on their trailing /P<n> reference.
func attach(roster []Passenger, field, value, line string) ([]Passenger, *Metadata) {
	if len(roster) != 1 {
		return roster, &Metadata{Field: field, Value: value, Line: line}
	}

	updated := []Passenger{roster[0]}
	switch field {
	case "passport":
		updated[0].Passport = value
	case "ticket":
		updated[0].Ticket = value
	}
	return updated, nil
}
