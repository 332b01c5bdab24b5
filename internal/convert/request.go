package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number is an integer that also accepts a numeric JSON string, as older
// clients send "2" rather than 2.
type Number struct {
	Value int
	Set   bool
}

// N returns a set Number.
func N(v int) Number { return Number{Value: v, Set: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("not a whole number: %s", b)
	}
	*n = Number{Value: v, Set: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}

// Request is one conversion request as received by the HTTP API and the
// queue worker.
type Request struct {
	Code       string `json:"code"`
	HandCount  Number `json:"hand_count"`
	HandWeight Number `json:"hand_weight"`
	PackCount  Number `json:"pack_count"`
	PackWeight Number `json:"pack_weight"`
}

// Luggage is the allowance printed under the itinerary.
type Luggage struct {
	HandCount  int `json:"hand_count"`
	HandWeight int `json:"hand_weight"`
	PackCount  int `json:"pack_count"`
	PackWeight int `json:"pack_weight"`
}

// DefaultLuggage is one 8 kg hand bag and two 23 kg checked bags.
func DefaultLuggage() Luggage {
	return Luggage{HandCount: 1, HandWeight: 8, PackCount: 2, PackWeight: 23}
}

// Footer renders the allowance block appended to every itinerary.
func (l Luggage) Footer() string {
	return fmt.Sprintf("\n经济舱往返 欧\n托运行李%d 件,每件%d公斤\n手提行李%d件%d 公斤\n",
		l.PackCount, l.PackWeight, l.HandCount, l.HandWeight)
}

// Luggage returns the request's allowance with unset fields taken from def.
func (r Request) Luggage(def Luggage) Luggage {
	pick := func(n Number, d int) int {
		if n.Set {
			return n.Value
		}
		return d
	}
	return Luggage{
		HandCount:  pick(r.HandCount, def.HandCount),
		HandWeight: pick(r.HandWeight, def.HandWeight),
		PackCount:  pick(r.PackCount, def.PackCount),
		PackWeight: pick(r.PackWeight, def.PackWeight),
	}
}
