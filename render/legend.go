// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/aclements/go-gg/gg/layout"
	"github.com/aclements/go-gg/palette"
)

// A legend explains one mapped column.
type legend struct {
	title   string
	swatch  string // "rect", "point", or "line"
	entries []legendEntry
}

type legendEntry struct {
	label string
	color color.Color // nil for the theme's mark color
	shape string
}

// key identifies legends that explain the same thing, so collected
// legends are drawn once per figure.
func (lg *legend) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s", lg.title, lg.swatch)
	for _, e := range lg.entries {
		c := "-"
		if e.color != nil {
			c = hexColor(toRGBA(e.color))
		}
		fmt.Fprintf(&b, "\x00%s=%s/%s", e.label, c, e.shape)
	}
	return b.String()
}

func swatchFor(g Geometry) string {
	switch g {
	case Point:
		return "point"
	case Line, Rule:
		return "line"
	}
	return "rect"
}

// legends returns the legends of p's layers. Layers explaining the same
// column with the same swatch share one legend.
func (p *Panel) legends(nf *numberFormat) []*legend {
	var out []*legend
	byTitle := map[string]*legend{}
	add := func(lg *legend) {
		k := lg.title + "\x00" + lg.swatch
		have := byTitle[k]
		if have == nil {
			byTitle[k] = lg
			out = append(out, lg)
			return
		}
		seen := map[string]bool{}
		for _, e := range have.entries {
			seen[e.label] = true
		}
		for _, e := range lg.entries {
			if !seen[e.label] {
				have.entries = append(have.entries, e)
			}
		}
	}
	for _, l := range p.layers {
		m := l.mapping
		sw := swatchFor(l.geom)
		cols := []string{m.Color}
		if m.Fill != m.Color {
			cols = append(cols, m.Fill)
		}
		for _, col := range cols {
			if col == "" {
				continue
			}
			if isDiscrete(l.data.Schema(), col) {
				add(discreteLegend(l, col, sw))
			} else {
				add(rampLegend(l, col, nf))
			}
		}
		if m.Shape != "" {
			lg := &legend{title: m.Shape, swatch: "point"}
			cats, _ := l.data.Distinct(m.Shape)
			for i, c := range cats {
				lg.entries = append(lg.entries, legendEntry{label: c, shape: shapes[i%len(shapes)]})
			}
			add(lg)
		}
	}
	return out
}

// discreteLegend lists the categories of col present in l in palette
// order.
func discreteLegend(l *Layer, col, swatch string) *legend {
	cm := l.palettes[col]
	cats, _ := l.data.Distinct(col)
	present := make(map[string]bool, len(cats))
	for _, c := range cats {
		present[c] = true
	}
	lg := &legend{title: col, swatch: swatch}
	for _, c := range cm.Categories() {
		if present[c] {
			rgba, _ := cm.Color(c)
			lg.entries = append(lg.entries, legendEntry{label: c, color: rgba})
		}
	}
	return lg
}

// rampLegend samples the continuous color ramp of col.
func rampLegend(l *Layer, col string, nf *numberFormat) *legend {
	xs, _ := l.data.Float(col)
	lo, hi := extent(xs)
	lg := &legend{title: col, swatch: "rect"}
	if math.IsNaN(lo) {
		return lg
	}
	const n = 5
	if hi == lo {
		lg.entries = []legendEntry{{label: nf.format(lo, 0), color: palette.Viridis.Map(0.5)}}
		return lg
	}
	step := (hi - lo) / (n - 1)
	for i := 0; i < n; i++ {
		t := float64(i) / (n - 1)
		lg.entries = append(lg.entries, legendEntry{label: nf.format(lo+t*(hi-lo), step), color: palette.Viridis.Map(t)})
	}
	return lg
}

// eltLegend is a column of legends.
type eltLegend struct {
	layout.Leaf

	legends []*legend
	theme   *Theme
}

func (e *eltLegend) SizeHint() (w, h float64, flexw, flexh bool) {
	if len(e.legends) == 0 {
		return 0, 0, false, true
	}
	t := e.theme
	for i, lg := range e.legends {
		if i > 0 {
			h += t.FontSize / 2
		}
		m := measureString(t.FontSize, lg.title)
		w = math.Max(w, m.width)
		h += m.leading
		for _, ent := range lg.entries {
			m := measureString(t.FontSize, ent.label)
			w = math.Max(w, t.FontSize+t.Padding+m.width)
			h += m.leading
		}
	}
	return w + 3*t.Padding, h, false, true
}

// draw draws the legends, offset by (ox, oy).
func (e *eltLegend) draw(cv Canvas, ox, oy float64) {
	if len(e.legends) == 0 {
		return
	}
	t := e.theme
	x, y, _, _ := e.Layout()
	x += ox + 2*t.Padding
	y += oy
	lead := measureString(t.FontSize, "").leading
	sw := t.FontSize * 0.8
	for i, lg := range e.legends {
		if i > 0 {
			y += t.FontSize / 2
		}
		cv.Text(x, y+lead/2, lg.title, TextStyle{Size: t.FontSize, Color: t.TextColor, Bold: true})
		y += lead
		for _, ent := range lg.entries {
			cy := y + lead/2
			c := ent.color
			if c == nil {
				c = t.MarkColor
			}
			switch lg.swatch {
			case "point":
				shape := ent.shape
				if shape == "" {
					shape = "circle"
				}
				drawShape(cv, shape, x+sw/2, cy, sw/3, Style{Fill: c})
			case "line":
				cv.Path([]float64{x, x + sw}, []float64{cy, cy}, false, Style{Stroke: c, StrokeWidth: t.LineWidth})
			default:
				cv.Rect(x, cy-sw/2, sw, sw, Style{Fill: c})
			}
			cv.Text(x+t.FontSize+t.Padding, cy, ent.label, TextStyle{Size: t.FontSize, Color: t.TextColor})
			y += lead
		}
	}
}
