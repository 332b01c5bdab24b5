package patterns

import "testing"

func TestTokensTime(t *testing.T) {
	tests := []struct {
		token      string
		wantMatch  bool
		wantHHMM   string
		wantOffset string
	}{
		{"1310", true, "1310", ""},
		{"0600+1", true, "0600", "1"},
		{"0600+12", false, "", ""},
		{"131", false, "", ""},
		{"HK1", false, "", ""},
		{"*1A/E*", false, "", ""},
	}

	for _, tt := range tests {
		m := Tokens.ParseFormat("time", tt.token)
		if (m != nil) != tt.wantMatch {
			t.Errorf("time %q matched = %v, want %v", tt.token, m != nil, tt.wantMatch)
			continue
		}
		if m == nil {
			continue
		}
		if got := m.GetCapture("hhmm", ""); got != tt.wantHHMM {
			t.Errorf("time %q hhmm = %q, want %q", tt.token, got, tt.wantHHMM)
		}
		if got := m.GetCapture("offset", ""); got != tt.wantOffset {
			t.Errorf("time %q offset = %q, want %q", tt.token, got, tt.wantOffset)
		}
	}
}

func TestTokensCityPair(t *testing.T) {
	m := Tokens.ParseFormat("city_pair", "MADPEK")
	if m == nil {
		t.Fatal("expected MADPEK to match")
	}
	if m.Captures["origin"] != "MAD" || m.Captures["dest"] != "PEK" {
		t.Errorf("captures = %v", m.Captures)
	}
	if Tokens.ParseFormat("city_pair", "MADPE") != nil {
		t.Error("five letters should not match")
	}
}

func TestCompilerLocalOverride(t *testing.T) {
	c := NewCompiler([]Format{{Name: "code", Pattern: `^{IATA}$`}}, map[string]string{"IATA": `[A-Z]{2}`})
	if err := c.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if c.Parse("CA") == nil {
		t.Error("local override should accept two letters")
	}
	if c.Parse("MAD") != nil {
		t.Error("local override should reject three letters")
	}
}

func TestGetCaptureNilMatch(t *testing.T) {
	var m *Match
	if got := m.GetCapture("x", "fallback"); got != "fallback" {
		t.Errorf("GetCapture on nil = %q", got)
	}
}
