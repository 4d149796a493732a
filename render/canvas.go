// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image/color"
	"math"
)

// A Style is how a shape is painted. A nil or fully transparent paint
// is not drawn.
type Style struct {
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth float64
}

// An Anchor is the horizontal alignment of text relative to its
// position.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// A TextStyle is how text is drawn. Text is vertically centered on its
// position.
type TextStyle struct {
	Size   float64
	Color  color.Color
	Anchor Anchor
	Bold   bool

	// Vertical rotates the text 90 degrees counterclockwise.
	Vertical bool
}

// A Canvas is a drawing surface in pixel coordinates with the origin
// at the top left.
type Canvas interface {
	Rect(x, y, w, h float64, s Style)
	Circle(cx, cy, r float64, s Style)

	// Path draws the polyline through the given points, closing
	// it if closed is set. Points with non-finite coordinates
	// break the line.
	Path(xs, ys []float64, closed bool, s Style)

	Text(x, y float64, text string, s TextStyle)

	// Clip restricts drawing to the given rectangle until the
	// matching Unclip.
	Clip(x, y, w, h float64)
	Unclip()

	// Close finishes the image and writes it out.
	Close() error
}

func painted(c color.Color) bool {
	if c == nil {
		return false
	}
	_, _, _, a := c.RGBA()
	return a != 0
}

func colorOrNone(c color.Color) color.Color {
	if c == nil {
		return color.Transparent
	}
	return c
}

func isFinite(x float64) bool {
	return !(math.IsNaN(x) || math.IsInf(x, 0))
}

// drawShape draws a point marker of the given shape and radius.
func drawShape(cv Canvas, shape string, cx, cy, r float64, s Style) {
	switch shape {
	case "square":
		cv.Rect(cx-r, cy-r, 2*r, 2*r, s)
	case "triangle":
		h := r * math.Sqrt(3) / 2
		cv.Path([]float64{cx, cx + r, cx - r}, []float64{cy - r, cy + h, cy + h}, true, s)
	case "diamond":
		cv.Path([]float64{cx, cx + r, cx, cx - r}, []float64{cy - r, cy, cy + r, cy}, true, s)
	case "cross":
		st := Style{Stroke: s.Fill, StrokeWidth: math.Max(1, r/2)}
		if s.Fill == nil {
			st.Stroke = s.Stroke
		}
		cv.Path([]float64{cx - r, cx + r}, []float64{cy - r, cy + r}, false, st)
		cv.Path([]float64{cx - r, cx + r}, []float64{cy + r, cy - r}, false, st)
	default:
		cv.Circle(cx, cy, r, s)
	}
}
