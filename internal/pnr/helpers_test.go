package pnr

import (
	"context"
	"time"
)

type mapNames map[string]string

func (m mapNames) Resolve(_ context.Context, code string) string {
	return m[code]
}

type mapZones map[string]string

func (m mapZones) TimezoneFor(code string) (string, bool) {
	z, ok := m[code]
	return z, ok
}

var testZones = mapZones{
	"MAD": "Europe/Madrid",
	"PEK": "Asia/Shanghai",
	"PVG": "Asia/Shanghai",
	"LIS": "Europe/Lisbon",
	"FAO": "Europe/Lisbon",
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.March, 1, 9, 0, 0, 0, time.UTC) }
}

func testEngine() *Engine {
	return New(nil, testZones, WithClock(fixedClock(2024)))
}

// Booking code as pasted from the terminal, continuation lines included.
const sampleBooking = `
   1.XIAO/YIYI 
   2  CA 908 L 10APR 3 MADPEK HK1       1  1310 0600+1 *1A/E* 
   3  CA 907 T 06NOV 3 PEKMAD HK1       3  0155 0700   *1A/E* 
   4 APE AEREOMAD@SANHE.ES 
   5 TK OK27MAR/VLCI12260//ETCA 
   6 SSR RQST CA HK1 MADPEK/51DN,P1/S2   SEE RTSTR 
   7 SSR OTHS 1A DOCS INFO IS REQUIRED FOR CA FLT 
   8 SSR ADTK 1A BY VLC27MAR24/1621 OR CXL CA NON-TKT SEGS 
   9 SSR DOCS CA HK1 P/CHN/EL9792535/CHN/22SEP93/F/26FEB34/XIAO/Y 
        IYI 
 	    
  10 SSR CTCE CA HK1 DCZHANGCHUNA//HOTMAIL.COM 
  11 SSR CTCM CA HK1 0034640208200 
  12 SSR CTCM CA HK1 008613132225567 
  13 RMZ CONF*FORMAT:PDF 
  14 FA PAX 999-6690500729/ETCA/EUR696.11/27MAR24/VLCI12260/78234 
        063/S2-3 
  15 FB PAX 0000000000 TTP/RT OK ETICKET NO PRINTERS DEFINED IN 
        OFFICE PROFILE - PLEASE CALL HELP DESK/S2-3 
  16 FE PAX Q/ NON-END/PENALTY APPLY/S2-3 
  17 FM PAX *C*0.00/S2-3 
`
