package pnr

import (
	"reflect"
	"testing"
)

func TestInferYears(t *testing.T) {
	tests := []struct {
		name   string
		months []string
		want   []int
	}{
		{"single", []string{"04"}, []int{2024}},
		{"same year", []string{"04", "04", "11"}, []int{2024, 2024, 2024}},
		{"wrap", []string{"11", "03", "07"}, []int{2024, 2025, 2025}},
		{"double wrap", []string{"12", "01", "06", "02"}, []int{2024, 2025, 2025, 2026}},
		{"unknown month keeps cursors", []string{"12", UnknownMonth, "01"}, []int{2024, 2024, 2025}},
		{"leading unknown", []string{UnknownMonth, "03"}, []int{2024, 2024}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferYears(2024, tt.months)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("inferYears(2024, %v) = %v, want %v", tt.months, got, tt.want)
			}
		})
	}
}

func TestInferYearsMonotonic(t *testing.T) {
	months := []string{"05", "09", "01", "01", "12", "03", "08"}
	years := inferYears(2030, months)
	for i := 1; i < len(years); i++ {
		if years[i] < years[i-1] {
			t.Fatalf("years not monotonic: %v", years)
		}
	}
}
