package pnr

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestResultJSON(t *testing.T) {
	res, err := testEngine().Process(context.Background(), sampleBooking)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{`"kind":"return_split"`, `"status":"ok"`, `"passport":"EL9792535"`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("JSON missing %s", want)
		}
	}

	var back Result
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Layovers[0].Kind != EventReturnSplit || back.Segments[1].Duration.Status != DurationOK {
		t.Errorf("decoded layover %v, status %v", back.Layovers[0].Kind, back.Segments[1].Duration.Status)
	}

	var st DurationStatus
	if err := st.UnmarshalText([]byte("late")); err == nil {
		t.Error("UnmarshalText(late) succeeded")
	}
}
