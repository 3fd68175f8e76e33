package brochure

import (
	"fmt"
	"strings"
)

// PageFormat is a fixed paper preset used when printing.
type PageFormat string

// Supported page formats.
const (
	A4     PageFormat = "a4"
	Letter PageFormat = "letter"
	Legal  PageFormat = "legal"

	// Continuous prints the whole page as one sheet, ContinuousWidthPx wide
	// and as tall as the rendered content.
	Continuous PageFormat = "continuous"
)

// CSS pixels per inch, as Chrome prints them.
const cssPixelsPerInch = 96.0

// ContinuousWidthPx is the viewport and paper width of the Continuous format.
const ContinuousWidthPx = 1200

// paperSizes holds fixed paper dimensions in inches.
var paperSizes = map[PageFormat][2]float64{
	A4:     {8.27, 11.69},
	Letter: {8.5, 11},
	Legal:  {8.5, 14},
}

// ParsePageFormat parses a format name, case-insensitively.
// An empty string yields A4.
func ParsePageFormat(s string) (PageFormat, error) {
	f := PageFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return A4, nil
	}
	if _, ok := paperSizes[f]; ok || f == Continuous {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (must be a4, letter, legal, or continuous)", ErrInvalidPageFormat, s)
}

// PaperSize returns the paper size in inches. contentHeightPx is only used
// by Continuous, whose height follows the measured content.
func (f PageFormat) PaperSize(contentHeightPx float64) (width, height float64) {
	if f == Continuous {
		return ContinuousWidthPx / cssPixelsPerInch, contentHeightPx / cssPixelsPerInch
	}
	size, ok := paperSizes[f]
	if !ok {
		size = paperSizes[A4]
	}
	return size[0], size[1]
}
