// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render maps datasets onto layered charts and composes
// charts into multi-panel figures written as PNG or SVG.
//
// A figure is built bottom up. MakeLayer binds a dataset to a
// geometry through a Mapping of columns to visual channels. A Panel
// holds layers that share one coordinate space. Compose arranges
// panels on a grid of named cells, and Render draws the result.
//
// Nothing in this package keeps global state. The Theme that governs
// fonts, colors, and spacing is an immutable value passed to each
// render call.
package render

import (
	"image/color"
)

// A Theme controls the non-data appearance of a figure.
//
// Themes are values. Use Theme.With to derive a modified theme.
type Theme struct {
	Background      color.RGBA // figure background
	PanelBackground color.RGBA // plot area background
	GridColor       color.RGBA
	AxisColor       color.RGBA
	TextColor       color.RGBA
	MarkColor       color.RGBA // marks with no color mapping

	FontFamily string
	FontSize   float64 // tick labels, legends, and captions, in pixels
	TitleSize  float64 // figure and panel titles, in pixels

	Margin     float64 // around the whole figure
	Padding    float64 // between panel elements
	TickLength float64
	LineWidth  float64
	PointSize  float64 // point radius with no size mapping
	BarWidth   float64 // fraction of a band filled by a bar or tile

	// Locale is the BCP 47 tag used to format numeric labels.
	Locale string
}

// DefaultTheme returns the theme used when none is given.
func DefaultTheme() Theme {
	return Theme{
		Background:      color.RGBA{0xff, 0xff, 0xff, 0xff},
		PanelBackground: color.RGBA{0xee, 0xee, 0xee, 0xff},
		GridColor:       color.RGBA{0xff, 0xff, 0xff, 0xff},
		AxisColor:       color.RGBA{0x88, 0x88, 0x88, 0xff},
		TextColor:       color.RGBA{0x44, 0x44, 0x44, 0xff},
		MarkColor:       color.RGBA{0x33, 0x33, 0x33, 0xff},

		FontFamily: `Roboto,"Helvetica Neue",Helvetica,Arial,sans-serif`,
		FontSize:   13,
		TitleSize:  16,

		Margin:     10,
		Padding:    4,
		TickLength: 4,
		LineWidth:  2,
		PointSize:  3,
		BarWidth:   0.8,

		Locale: "en",
	}
}

// A ThemeOverride is a partial Theme. Nil fields leave the base
// theme's value alone.
type ThemeOverride struct {
	Background      *color.RGBA
	PanelBackground *color.RGBA
	GridColor       *color.RGBA
	AxisColor       *color.RGBA
	TextColor       *color.RGBA
	MarkColor       *color.RGBA

	FontFamily *string
	FontSize   *float64
	TitleSize  *float64

	Margin     *float64
	Padding    *float64
	TickLength *float64
	LineWidth  *float64
	PointSize  *float64
	BarWidth   *float64

	Locale *string
}

// With returns a copy of t with the fields set in o replaced.
func (t Theme) With(o ThemeOverride) Theme {
	setColor := func(dst *color.RGBA, src *color.RGBA) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setColor(&t.Background, o.Background)
	setColor(&t.PanelBackground, o.PanelBackground)
	setColor(&t.GridColor, o.GridColor)
	setColor(&t.AxisColor, o.AxisColor)
	setColor(&t.TextColor, o.TextColor)
	setColor(&t.MarkColor, o.MarkColor)
	if o.FontFamily != nil {
		t.FontFamily = *o.FontFamily
	}
	setFloat(&t.FontSize, o.FontSize)
	setFloat(&t.TitleSize, o.TitleSize)
	setFloat(&t.Margin, o.Margin)
	setFloat(&t.Padding, o.Padding)
	setFloat(&t.TickLength, o.TickLength)
	setFloat(&t.LineWidth, o.LineWidth)
	setFloat(&t.PointSize, o.PointSize)
	setFloat(&t.BarWidth, o.BarWidth)
	if o.Locale != nil {
		t.Locale = *o.Locale
	}
	return t
}
