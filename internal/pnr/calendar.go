package pnr

import "strconv"

// calendar assigns years to segments in source order. A month lower than
// the previous one is taken as a year wrap (DEC -> JAN).
type calendar struct {
	year      int
	lastMonth int
	seen      bool
}

func newCalendar(year int) *calendar {
	return &calendar{year: year}
}

// assign returns the year for a segment in the given month ("01".."12").
// An unknown month gets the current year and leaves the cursors alone.
func (c *calendar) assign(month string) int {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return c.year
	}
	if c.seen && m < c.lastMonth {
		c.year++
	}
	c.lastMonth = m
	c.seen = true
	return c.year
}

// inferYears runs the calendar over months starting from startYear.
func inferYears(startYear int, months []string) []int {
	c := newCalendar(startYear)
	years := make([]int, len(months))
	for i, m := range months {
		years[i] = c.assign(m)
	}
	return years
}
