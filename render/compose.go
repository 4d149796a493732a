// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-gg/gg/layout"
	"github.com/storyplot/storyplot/internal/errs"
)

// A LegendMode says where legends are drawn in a composite.
type LegendMode int

const (
	// LegendCollect draws each distinct legend once, to the right
	// of all panels. Identical legends from different panels are
	// merged.
	LegendCollect LegendMode = iota

	// LegendIndependent draws every panel's legends beside it.
	LegendIndependent
)

// ParseLegendMode returns the LegendMode named s. The empty string is
// LegendCollect.
func ParseLegendMode(s string) (LegendMode, error) {
	switch strings.ToLower(s) {
	case "", "collect", "collected":
		return LegendCollect, nil
	case "independent", "panel", "each":
		return LegendIndependent, nil
	}
	return 0, fmt.Errorf("unknown legend mode %q", s)
}

// Blank is the cell name of a spacer in LayoutSpec.Cells.
const Blank = "."

// A Placement puts a panel over one or more named cells. Together the
// cells must form a rectangle.
type Placement struct {
	Panel string
	Cells []string
}

// A LayoutSpec declares how panels are arranged in a figure.
type LayoutSpec struct {
	// Cells names the cells of the grid, one slice per row. A name
	// repeated in adjacent cells names one larger cell, which must
	// be rectangular. Cells named Blank or "" are spacers. If Cells
	// is empty, the panels are arranged in a near-square grid in
	// order, each in a cell named after it.
	Cells [][]string

	// Place assigns panels to cells. If Place is empty, each panel
	// is placed in the cell with its own name.
	Place []Placement

	// Widths and Heights are the relative sizes of the columns and
	// rows. If empty, tracks are equally sized.
	Widths, Heights []float64

	Legend LegendMode

	Title, Caption string

	// ShareX and ShareY give every panel the same X or Y domain.
	ShareX, ShareY bool
}

// A Composite is a set of panels arranged on a grid, ready to render.
type Composite struct {
	spec       LayoutSpec
	cols, rows int
	placed     []placedPanel
}

type placedPanel struct {
	p                *Panel
	col, row         int
	colSpan, rowSpan int
	xdom, ydom       *domain
}

// Compose arranges panels according to spec.
//
// It fails with a LayoutError if the grid is malformed, a cell is
// claimed by more than one panel, a panel is never placed, or shared
// axes are incompatible.
func Compose(panels []*Panel, spec LayoutSpec) (*Composite, error) {
	byName := make(map[string]*Panel, len(panels))
	for _, p := range panels {
		if p == nil {
			return nil, &errs.LayoutError{Detail: "nil panel"}
		}
		if byName[p.Name] != nil {
			return nil, &errs.LayoutError{Panel: p.Name, Detail: "duplicate panel name"}
		}
		byName[p.Name] = p
	}

	cells := spec.Cells
	if len(cells) == 0 {
		cells = autoCells(panels)
	}
	rows, cols := len(cells), len(cells[0])
	for r, row := range cells {
		if len(row) != cols {
			return nil, &errs.LayoutError{Detail: fmt.Sprintf("row %d has %d cells; row 0 has %d", r, len(row), cols)}
		}
	}
	if cols == 0 {
		return nil, &errs.LayoutError{Detail: "layout has no cells"}
	}

	// Find the bounds of each named cell.
	bounds := map[string]*cellRect{}
	for r, row := range cells {
		for c, name := range row {
			if name == "" || name == Blank {
				continue
			}
			b := bounds[name]
			if b == nil {
				bounds[name] = &cellRect{c, r, c + 1, r + 1}
				continue
			}
			b.c0, b.r0 = min(b.c0, c), min(b.r0, r)
			b.c1, b.r1 = max(b.c1, c+1), max(b.r1, r+1)
		}
	}
	for name, b := range bounds {
		for r := b.r0; r < b.r1; r++ {
			for c := b.c0; c < b.c1; c++ {
				if cells[r][c] != name {
					return nil, &errs.LayoutError{Cell: name, Detail: "cell is not rectangular"}
				}
			}
		}
	}

	place := spec.Place
	if len(place) == 0 {
		for _, p := range panels {
			place = append(place, Placement{Panel: p.Name, Cells: []string{p.Name}})
		}
	}

	claimed := map[string]string{}
	done := map[string]bool{}
	var placed []placedPanel
	for _, pl := range place {
		p := byName[pl.Panel]
		if p == nil {
			return nil, &errs.LayoutError{Panel: pl.Panel, Detail: "unknown panel"}
		}
		if done[pl.Panel] {
			return nil, &errs.LayoutError{Panel: pl.Panel, Detail: "panel placed twice"}
		}
		done[pl.Panel] = true
		if len(pl.Cells) == 0 {
			return nil, &errs.LayoutError{Panel: pl.Panel, Detail: "placement names no cells"}
		}
		var u *cellRect
		area := 0
		for _, name := range pl.Cells {
			b := bounds[name]
			if b == nil {
				return nil, &errs.LayoutError{Panel: pl.Panel, Cell: name, Detail: "no such cell"}
			}
			if other, ok := claimed[name]; ok {
				return nil, &errs.LayoutError{Panel: pl.Panel, Cell: name, Detail: fmt.Sprintf("cell already holds panel %q", other)}
			}
			claimed[name] = pl.Panel
			area += b.area()
			if u == nil {
				bb := *b
				u = &bb
			} else {
				u.union(b)
			}
		}
		if u.area() != area {
			return nil, &errs.LayoutError{Panel: pl.Panel, Cell: strings.Join(pl.Cells, ","), Detail: "cells do not form a rectangle"}
		}
		placed = append(placed, placedPanel{p: p, col: u.c0, row: u.r0, colSpan: u.c1 - u.c0, rowSpan: u.r1 - u.r0})
	}
	for _, p := range panels {
		if !done[p.Name] {
			return nil, &errs.LayoutError{Panel: p.Name, Detail: "panel is never placed"}
		}
	}

	if err := checkWeights("widths", spec.Widths, cols); err != nil {
		return nil, err
	}
	if err := checkWeights("heights", spec.Heights, rows); err != nil {
		return nil, err
	}

	// Train axes, sharing domains across panels if requested.
	var sharedX, sharedY domain
	for i := range placed {
		pp := &placed[i]
		x, y, err := pp.p.train()
		if err != nil {
			return nil, err
		}
		pp.xdom, pp.ydom = x, y
		if !pp.p.hasAxes() {
			continue
		}
		if spec.ShareX {
			if err := sharedX.merge(x); err != nil {
				return nil, &errs.LayoutError{Panel: pp.p.Name, Detail: "shared x axis: " + err.Error()}
			}
		}
		if spec.ShareY {
			if err := sharedY.merge(y); err != nil {
				return nil, &errs.LayoutError{Panel: pp.p.Name, Detail: "shared y axis: " + err.Error()}
			}
		}
	}
	for i := range placed {
		pp := &placed[i]
		if !pp.p.hasAxes() {
			continue
		}
		if spec.ShareX {
			pp.xdom = &sharedX
		}
		if spec.ShareY {
			pp.ydom = &sharedY
		}
	}

	spec.Cells = cells
	spec.Place = place
	return &Composite{spec: spec, cols: cols, rows: rows, placed: placed}, nil
}

// autoCells arranges n panels in a near-square grid.
func autoCells(panels []*Panel) [][]string {
	n := len(panels)
	if n == 0 {
		return [][]string{{Blank}}
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	cells := make([][]string, rows)
	for r := range cells {
		cells[r] = make([]string, cols)
		for c := range cells[r] {
			if i := r*cols + c; i < n {
				cells[r][c] = panels[i].Name
			} else {
				cells[r][c] = Blank
			}
		}
	}
	return cells
}

func checkWeights(what string, ws []float64, n int) error {
	if len(ws) == 0 {
		return nil
	}
	if len(ws) != n {
		return &errs.LayoutError{Detail: fmt.Sprintf("%d %s for %d tracks", len(ws), what, n)}
	}
	for _, w := range ws {
		if !(w > 0) || math.IsInf(w, 0) {
			return &errs.LayoutError{Detail: fmt.Sprintf("%s must be positive, got %v", what, w)}
		}
	}
	return nil
}

// cellRect is a half-open rectangle of grid cells.
type cellRect struct{ c0, r0, c1, r1 int }

func (b *cellRect) area() int { return (b.c1 - b.c0) * (b.r1 - b.r0) }

func (b *cellRect) union(o *cellRect) {
	b.c0, b.r0 = min(b.c0, o.c0), min(b.r0, o.r0)
	b.c1, b.r1 = max(b.c1, o.c1), max(b.r1, o.r1)
}

// Panels returns the composite's panels in placement order.
func (c *Composite) Panels() []*Panel {
	out := make([]*Panel, len(c.placed))
	for i, pp := range c.placed {
		out[i] = pp.p
	}
	return out
}

// Size returns the number of columns and rows of c's grid.
func (c *Composite) Size() (cols, rows int) {
	return c.cols, c.rows
}

// legends returns the legends drawn by c: the figure-level legends in
// collect mode, and each placed panel's legends in independent mode.
func (c *Composite) legends(nf *numberFormat) (figure []*legend, perPanel [][]*legend) {
	perPanel = make([][]*legend, len(c.placed))
	seen := map[string]bool{}
	for i, pp := range c.placed {
		lgs := pp.p.legends(nf)
		if c.spec.Legend == LegendIndependent {
			perPanel[i] = lgs
			continue
		}
		for _, lg := range lgs {
			if k := lg.key(); !seen[k] {
				seen[k] = true
				figure = append(figure, lg)
			}
		}
	}
	return
}

// tracks lays out elements on a grid whose column widths and row
// heights are proportional to weights, separated by gap pixels.
// Elements are placed in the same frame as the tracks themselves.
type tracks struct {
	layout.Leaf

	widths, heights []float64
	gap             float64
	cells           []trackCell
}

type trackCell struct {
	e                layout.Element
	col, row         int
	colSpan, rowSpan int
}

func (t *tracks) add(e layout.Element, col, row, colSpan, rowSpan int) {
	t.cells = append(t.cells, trackCell{e, col, row, colSpan, rowSpan})
}

func (t *tracks) SizeHint() (w, h float64, flexw, flexh bool) {
	return 0, 0, true, true
}

func (t *tracks) Children() []layout.Element {
	out := make([]layout.Element, len(t.cells))
	for i, c := range t.cells {
		out[i] = c.e
	}
	return out
}

func (t *tracks) SetLayout(x, y, w, h float64) {
	t.Leaf.SetLayout(x, y, w, h)
	xs := splitTracks(x, w, t.widths, t.gap)
	ys := splitTracks(y, h, t.heights, t.gap)
	for _, c := range t.cells {
		x0, x1 := xs[c.col][0], xs[c.col+c.colSpan-1][1]
		y0, y1 := ys[c.row][0], ys[c.row+c.rowSpan-1][1]
		c.e.SetLayout(x0, y0, x1-x0, y1-y0)
	}
}

// splitTracks divides [start, start+size) into tracks proportional to
// weights with gap between them, returning each track's [lo, hi).
func splitTracks(start, size float64, weights []float64, gap float64) [][2]float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	avail := math.Max(0, size-gap*float64(len(weights)-1))
	out := make([][2]float64, len(weights))
	pos := start
	for i, w := range weights {
		ext := avail * w / total
		out[i] = [2]float64{pos, pos + ext}
		pos += ext + gap
	}
	return out
}

func equalWeights(ws []float64, n int) []float64 {
	if len(ws) == n {
		return ws
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
