package pnr

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Kind
	}{
		{"1.XIAO/YIYI", KindPassenger},
		{"2 CA 908 L 10APR 3 MADPEK HK1 1 1310 0600+1 *1A/E*", KindFlight},
		{"9 SSR DOCS CA HK1 P/CHN/EL9792535/CHN/22SEP93/F/26FEB34/XIAO/Y IYI", KindDocument},
		{"7 SSR OTHS 1A DOCS INFO IS REQUIRED FOR CA FLT", KindDocument},
		{"14 FA PAX 999-6690500729/ETCA/EUR696.11/27MAR24/VLCI12260/78234 063/S2-3", KindTicket},
		{"8 SSR ADTK 1A BY VLC27MAR24/1621 OR CXL CA NON-TKT SEGS", KindIgnored},
		{"5 TK OK27MAR/VLCI12260//ETCA", KindFlight},
		{"13 RMZ CONF*FORMAT:PDF", KindIgnored},
		{"2 TP 1901 Y 05JUL 5 LISFAO HK1 0800 0850", KindFlight},
	}

	for _, tt := range tests {
		st := classifierState{passengerMode: false}
		if tt.want == KindPassenger {
			st = newClassifierState()
		}
		got, _ := classify(tt.line, strings.Fields(tt.line), st)
		if got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestClassifyPassengerModeEndsOnce(t *testing.T) {
	lines := []string{
		"1.SMITH/JOHN.JONES/JANE",
		"2 CA 908 L 10APR 3 MADPEK HK1 1 1310 0600+1",
		"4 APE AEREOMAD@SANHE.ES",
		"3.LATE/DOT",
	}
	want := []Kind{KindPassenger, KindFlight, KindIgnored, KindIgnored}

	st := newClassifierState()
	for i, line := range lines {
		var got Kind
		got, st = classify(line, strings.Fields(line), st)
		if got != want[i] {
			t.Errorf("line %d classify = %v, want %v", i, got, want[i])
		}
	}
	if st.passengerMode {
		t.Error("passenger mode should have ended")
	}
}

func TestClassifyDotFreeLinesKeepMode(t *testing.T) {
	lines := []string{
		"RP/MAD1A0980/MAD1A0980 AA/SU 27MAR24/1621Z ABCDEF",
		"2 CA 908 L 10APR 3 MADPEK HK1 1 1310 0600+1",
		"1.XIAO/YIYI",
	}
	want := []Kind{KindFlight, KindFlight, KindPassenger}

	st := newClassifierState()
	for i, line := range lines {
		var got Kind
		got, st = classify(line, strings.Fields(line), st)
		if got != want[i] {
			t.Errorf("line %d classify = %v, want %v", i, got, want[i])
		}
	}
	if !st.passengerMode {
		t.Error("lines without a dot should leave passenger mode on")
	}
}

func TestClassifyDottedMarkerLineKeepsMode(t *testing.T) {
	st := newClassifierState()
	line := "1.X SSR DOCS CA HK1 P/ESP/X1/ESP"
	kind, st := classify(line, strings.Fields(line), st)
	if kind != KindDocument {
		t.Errorf("classify(%q) = %v, want document", line, kind)
	}
	if !st.passengerMode {
		t.Error("a dotted first token keeps passenger mode on")
	}
}

func TestContainsMonth(t *testing.T) {
	if !containsMonth("10APR") || !containsMonth("OK27MAR/VLCI") {
		t.Error("expected month substrings to be found")
	}
	if containsMonth("10XXX") {
		t.Error("10XXX has no month")
	}
}
