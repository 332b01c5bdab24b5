package airports

import (
	"context"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// SearchThreshold is the lowest Jaro-Winkler score Search returns.
const SearchThreshold = 0.82

// Match is one search hit.
type Match struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	EnglishName string  `json:"english_name,omitempty"`
	Timezone    string  `json:"tz,omitempty"`
	Score       float64 `json:"score"`
}

// Search finds airports by code, display name or English name over the
// stored rows and the built-in dataset. Stored rows win on equal codes.
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	candidates := make(map[string]Match, len(d.offline))
	for code, e := range d.offline {
		candidates[code] = Match{Code: code, Name: e.Name, EnglishName: e.EnglishName, Timezone: e.Timezone}
	}
	stored, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range stored {
		m := candidates[a.Code]
		m.Code, m.Name = a.Code, a.Name
		if a.Timezone != "" {
			m.Timezone = a.Timezone
		}
		candidates[a.Code] = m
	}

	var out []Match
	for _, m := range candidates {
		if m.Score = score(q, m); m.Score >= SearchThreshold {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Code < out[j].Code
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func score(q string, m Match) float64 {
	code := strings.ToLower(m.Code)
	if q == code {
		return 1
	}

	name := strings.ToLower(m.Name)
	english := strings.ToLower(m.EnglishName)
	if strings.Contains(name, q) || (english != "" && strings.Contains(english, q)) {
		return 0.95
	}

	best := matchr.JaroWinkler(q, code, false)
	for _, field := range []string{name, english} {
		if field == "" {
			continue
		}
		if s := matchr.JaroWinkler(q, field, false); s > best {
			best = s
		}
		for _, word := range strings.Fields(field) {
			if s := matchr.JaroWinkler(q, word, false); s > best {
				best = s
			}
		}
	}
	return best
}
