// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image/color"

	"github.com/aclements/go-gg/palette"
	"github.com/storyplot/storyplot/internal/errs"
)

// Dark2 is the eight-color ColorBrewer "Dark2" qualitative palette.
var Dark2 = []color.RGBA{
	{0x1b, 0x9e, 0x77, 0xff},
	{0xd9, 0x5f, 0x02, 0xff},
	{0x75, 0x70, 0xb3, 0xff},
	{0xe7, 0x29, 0x8a, 0xff},
	{0x66, 0xa6, 0x1e, 0xff},
	{0xe6, 0xab, 0x02, 0xff},
	{0xa6, 0x76, 0x1d, 0xff},
	{0x66, 0x66, 0x66, 0xff},
}

// A ColorMap assigns each category a distinct color. A figure should
// compute one ColorMap per categorical column and share it among all
// of its layers, so a category has the same color in every panel.
type ColorMap struct {
	cats   []string
	colors []color.RGBA
	index  map[string]int
}

// AssignPalette maps categories, in display order, to colors.
//
// If there are no more categories than base colors, category i gets
// base[i]. Otherwise the colors are sampled evenly along a gradient
// through base, so that there are exactly len(categories) of them.
// Either way the colors must come out distinct.
func AssignPalette(categories []string, base []color.RGBA) (*ColorMap, error) {
	m := &ColorMap{
		cats:   append([]string(nil), categories...),
		colors: make([]color.RGBA, len(categories)),
		index:  make(map[string]int, len(categories)),
	}
	for i, c := range categories {
		if _, dup := m.index[c]; dup {
			return nil, &errs.MappingError{Channel: "color", Detail: fmt.Sprintf("category %q listed twice", c)}
		}
		m.index[c] = i
	}
	n := len(categories)
	if n == 0 {
		return m, nil
	}
	if len(base) == 0 {
		return nil, &errs.MappingError{Channel: "color", Detail: fmt.Sprintf("no base colors for %d categories", n)}
	}

	if n <= len(base) {
		copy(m.colors, base)
	} else {
		for i := range m.colors {
			m.colors[i] = ramp(base, float64(i)/float64(n-1))
		}
	}

	seen := make(map[color.RGBA]string, n)
	for i, c := range m.colors {
		if other, ok := seen[c]; ok {
			return nil, &errs.MappingError{Channel: "color", Detail: fmt.Sprintf("categories %q and %q would share color %s", other, categories[i], hexColor(c))}
		}
		seen[c] = categories[i]
	}
	return m, nil
}

// ramp returns the color at x in [0, 1] along a gradient through
// colors.
func ramp(colors []color.RGBA, x float64) color.RGBA {
	if len(colors) == 1 {
		return colors[0]
	}
	pos := x * float64(len(colors)-1)
	seg := int(pos)
	if seg >= len(colors)-1 {
		seg = len(colors) - 2
	}
	return blend(colors[seg], colors[seg+1], pos-float64(seg))
}

// blend returns the color fraction x of the way from a to b, mixed in
// linear light.
func blend(a, b color.RGBA, x float64) color.RGBA {
	// RGBGradient maps its whole first segment to Colors[0], so
	// blend along a gradient whose first segment is degenerate.
	g := palette.RGBGradient{Colors: []color.RGBA{a, a, b}}
	return toRGBA(g.Map((1 + x) / 2))
}

// Color returns the color of category cat.
func (m *ColorMap) Color(cat string) (color.RGBA, bool) {
	i, ok := m.index[cat]
	if !ok {
		return color.RGBA{}, false
	}
	return m.colors[i], true
}

// Categories returns the mapped categories in display order.
func (m *ColorMap) Categories() []string {
	return append([]string(nil), m.cats...)
}

// Len returns the number of mapped categories.
func (m *ColorMap) Len() int { return len(m.cats) }

// ParseColors parses a list of colors with ParseColor.
func ParseColors(ss []string) ([]color.RGBA, error) {
	out := make([]color.RGBA, len(ss))
	for i, s := range ss {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
