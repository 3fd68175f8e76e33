package brochure

import (
	"errors"
	"math"
	"testing"
)

func TestParsePageFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    PageFormat
		wantErr bool
	}{
		{"", A4, false},
		{"a4", A4, false},
		{"LETTER", Letter, false},
		{" legal ", Legal, false},
		{"continuous", Continuous, false},
		{"tabloid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePageFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPageFormat) {
					t.Errorf("ParsePageFormat(%q) error = %v, want ErrInvalidPageFormat", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParsePageFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestPageFormat_PaperSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format        PageFormat
		contentHeight float64
		wantW, wantH  float64
	}{
		{A4, 0, 8.27, 11.69},
		{Letter, 5000, 8.5, 11},
		{Legal, 0, 8.5, 14},
		{Continuous, 4800, 12.5, 50},
		{"unknown", 0, 8.27, 11.69},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			w, h := tt.format.PaperSize(tt.contentHeight)
			if math.Abs(w-tt.wantW) > 1e-9 || math.Abs(h-tt.wantH) > 1e-9 {
				t.Errorf("PaperSize() = %gx%g, want %gx%g", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
