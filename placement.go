package brochure

import (
	"fmt"
	"math"
	"strings"
)

// Corner is the page corner a mark is anchored to.
type Corner string

// Supported corners.
const (
	BottomRight Corner = "bottom-right"
	BottomLeft  Corner = "bottom-left"
	TopRight    Corner = "top-right"
	TopLeft     Corner = "top-left"
)

// ParseCorner parses a corner name, case-insensitively.
// An empty string yields BottomRight.
func ParseCorner(s string) (Corner, error) {
	switch c := Corner(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return BottomRight, nil
	case BottomRight, BottomLeft, TopRight, TopLeft:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCorner, s)
	}
}

// Default placement, in PDF points.
const (
	DefaultMarkWidth   = 100.0
	DefaultMarkHeight  = 50.0
	DefaultMarkMargin  = 20.0
	DefaultMarkOpacity = 0.9
)

// Placement positions a mark on a page: anchored to Corner, inset by Margin
// from both edges, and scaled to fit inside MaxWidth x MaxHeight.
type Placement struct {
	Corner    Corner
	MaxWidth  float64
	MaxHeight float64
	Margin    float64
	Opacity   float64 // 0 < Opacity <= 1
}

// DefaultPlacement returns the bottom-right 100x50 placement with a 20pt margin.
func DefaultPlacement() Placement {
	return Placement{
		Corner:    BottomRight,
		MaxWidth:  DefaultMarkWidth,
		MaxHeight: DefaultMarkHeight,
		Margin:    DefaultMarkMargin,
		Opacity:   DefaultMarkOpacity,
	}
}

// Validate checks the placement values.
func (p Placement) Validate() error {
	if _, err := ParseCorner(string(p.Corner)); err != nil {
		return err
	}
	if !(p.MaxWidth > 0) || !(p.MaxHeight > 0) || math.IsInf(p.MaxWidth, 0) || math.IsInf(p.MaxHeight, 0) {
		return fmt.Errorf("%w: %gx%g", ErrInvalidMarkSize, p.MaxWidth, p.MaxHeight)
	}
	if p.Margin < 0 || math.IsNaN(p.Margin) {
		return fmt.Errorf("%w: %g", ErrInvalidMargin, p.Margin)
	}
	if !(p.Opacity > 0 && p.Opacity <= 1) {
		return fmt.Errorf("%w: %g", ErrInvalidOpacity, p.Opacity)
	}
	return nil
}

// Rect is a rectangle in PDF user space: origin at the bottom-left of the
// page, y growing upward.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Contains reports whether r lies entirely inside the page.
func (r Rect) Contains(pageW, pageH float64) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= pageW && r.Y+r.Height <= pageH
}

// Rect computes the mark rectangle on a page of pageW x pageH for a mark
// image of markW x markH. The image keeps its aspect ratio and is scaled up
// or down to the largest size that fits the maximum box.
func (p Placement) Rect(pageW, pageH, markW, markH float64) Rect {
	if markW <= 0 || markH <= 0 {
		return Rect{}
	}
	scale := math.Min(p.MaxWidth/markW, p.MaxHeight/markH)
	w, h := markW*scale, markH*scale

	x, y := p.Margin, p.Margin
	switch p.Corner {
	case BottomLeft:
	case TopLeft:
		y = pageH - p.Margin - h
	case TopRight:
		x = pageW - p.Margin - w
		y = pageH - p.Margin - h
	default:
		x = pageW - p.Margin - w
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}
