// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"math"
	"sort"

	"github.com/aclements/go-gg/gg/layout"
)

const (
	xTickSep     = 5  // Pixels between x tick marks and labels.
	yTickSep     = 5  // Pixels between y tick labels and marks.
	tickDistance = 30 // Min pixels between tick labels.
)

// panelView is one panel laid out for rendering.
//
// Its own position is in the figure's frame. Its elements are laid out
// by an internal grid relative to the panel's origin:
//
//	+---------+--------+----------------+--------+
//	|         |        | Title          |        |
//	+---------+--------+----------------+--------+
//	| YLabel  | YTicks | Plot           | Legend |
//	+---------+--------+----------------+--------+
//	|         |        | XTicks         |        |
//	+---------+--------+----------------+--------+
//	|         |        | XLabel         |        |
//	+---------+--------+----------------+--------+
//
// "X" and "Y" here are the horizontal and vertical axes, which are the
// panel's Y and X data axes when it is flipped.
type panelView struct {
	layout.Leaf

	p          *Panel
	theme      *Theme
	nf         *numberFormat
	xdom, ydom *domain
	axes       bool

	grid           *layout.Grid
	title          *eltLabel
	hlabel, vlabel *eltLabel
	hticks, vticks *eltTicks
	plot           *eltPlot
	legend         *eltLegend
}

func newPanelView(p *Panel, xdom, ydom *domain, legends []*legend, t *Theme, nf *numberFormat) *panelView {
	v := &panelView{p: p, theme: t, nf: nf, xdom: xdom, ydom: ydom, axes: p.hasAxes()}
	xl, yl := p.axisLabels()
	if p.Flip {
		xl, yl = yl, xl
	}
	if !v.axes {
		xl, yl = "", ""
	}
	v.title = &eltLabel{side: 'T', label: p.Title, theme: t}
	v.hlabel = &eltLabel{side: 'b', label: xl, theme: t}
	v.vlabel = &eltLabel{side: 'l', label: yl, theme: t}
	v.hticks = &eltTicks{axis: 'x', v: v}
	v.vticks = &eltTicks{axis: 'y', v: v}
	v.plot = new(eltPlot)
	v.legend = &eltLegend{legends: legends, theme: t}

	g := new(layout.Grid)
	g.Add(v.title, 2, 0, 1, 1)
	g.Add(v.vlabel, 0, 1, 1, 1)
	g.Add(v.vticks, 1, 1, 1, 1)
	g.Add(v.plot, 2, 1, 1, 1)
	g.Add(v.legend, 3, 1, 1, 1)
	g.Add(v.hticks, 2, 2, 1, 1)
	g.Add(v.hlabel, 2, 3, 1, 1)
	v.grid = g
	return v
}

func (v *panelView) SizeHint() (w, h float64, flexw, flexh bool) {
	return v.grid.SizeHint()
}

func (v *panelView) SetLayout(x, y, w, h float64) {
	v.Leaf.SetLayout(x, y, w, h)

	// The tick labels depend on how many ticks fit, which depends
	// on the size of the plot, which depends on the size of the
	// tick labels. Lay out without ticks, pick the ticks, and lay
	// out again with them.
	v.hticks.ticks, v.vticks.ticks = nil, nil
	v.grid.SetLayout(0, 0, w, h)
	v.hticks.computeTicks()
	v.vticks.computeTicks()
	v.grid.SetLayout(0, 0, w, h)
}

// axis returns the axis drawn along dir ('x' horizontal or 'y'
// vertical) for a plot area of r, or nil if there is none.
func (v *panelView) axis(dir rune, r rect) *axis {
	if !v.axes {
		return nil
	}
	dom := v.xdom
	if (dir == 'x') == v.p.Flip {
		dom = v.ydom
	}
	if dom.kind == domainNone {
		return nil
	}
	if dir == 'x' {
		return newAxis(dom, r.x0, r.x1)
	}
	return newAxis(dom, r.y1, r.y0)
}

// plotRect returns the plot area offset by (ox, oy).
func (v *panelView) plotRect(ox, oy float64) rect {
	x, y, w, h := v.plot.Layout()
	return rect{ox + x, oy + y, ox + x + w, oy + y + h}
}

// draw draws the panel. (ox, oy) is the origin of the figure frame.
func (v *panelView) draw(cv Canvas, ox, oy float64) {
	t := v.theme
	px, py, _, _ := v.Layout()
	ox, oy = ox+px, oy+py
	pr := v.plotRect(ox, oy)
	pw, ph := pr.x1-pr.x0, pr.y1-pr.y0

	hax, vax := v.axis('x', pr), v.axis('y', pr)
	var hticks, vticks []tick
	if hax != nil {
		hticks = hax.ticks(v.hticks.max, v.nf)
	}
	if vax != nil {
		vticks = vax.ticks(v.vticks.max, v.nf)
	}

	if v.axes && pw > 0 && ph > 0 {
		cv.Rect(pr.x0, pr.y0, pw, ph, Style{Fill: t.PanelBackground})
		grid := Style{Stroke: t.GridColor, StrokeWidth: 1}
		for _, tk := range hticks {
			cv.Path([]float64{tk.pos, tk.pos}, []float64{pr.y0, pr.y1}, false, grid)
		}
		for _, tk := range vticks {
			cv.Path([]float64{pr.x0, pr.x1}, []float64{tk.pos, tk.pos}, false, grid)
		}
	}

	if pw > 0 && ph > 0 {
		env := &drawEnv{theme: *t, nf: v.nf, flip: v.p.Flip, plot: pr}
		env.xa = newAxis(v.xdom, pr.x0, pr.x1)
		env.ya = newAxis(v.ydom, pr.y1, pr.y0)
		if v.p.Flip {
			env.xa = newAxis(v.xdom, pr.y1, pr.y0)
			env.ya = newAxis(v.ydom, pr.x0, pr.x1)
		}
		cv.Clip(pr.x0, pr.y0, pw, ph)
		for _, l := range v.p.layers {
			l.draw(cv, env)
		}
		cv.Unclip()
	}

	if v.axes {
		// Border and ticks.
		axisStyle := Style{Stroke: t.AxisColor, StrokeWidth: 2}
		cv.Path([]float64{pr.x0, pr.x0, pr.x1}, []float64{pr.y0, pr.y1, pr.y1}, false, axisStyle)
		ts := TextStyle{Size: t.FontSize, Color: t.TextColor, Anchor: AnchorMiddle}
		_, ey, _, _ := v.hticks.Layout()
		lead := measureString(t.FontSize, "").leading
		for _, tk := range hticks {
			cv.Path([]float64{tk.pos, tk.pos}, []float64{pr.y1, pr.y1 - t.TickLength}, false, axisStyle)
			cv.Text(tk.pos, oy+ey+xTickSep+lead/2, tk.label, ts)
		}
		ex, _, ew, _ := v.vticks.Layout()
		ts.Anchor = AnchorEnd
		for _, tk := range vticks {
			cv.Path([]float64{pr.x0, pr.x0 + t.TickLength}, []float64{tk.pos, tk.pos}, false, axisStyle)
			cv.Text(ox+ex+ew-yTickSep, tk.pos, tk.label, ts)
		}
	}

	v.title.draw(cv, ox, oy)
	v.hlabel.draw(cv, ox, oy)
	v.vlabel.draw(cv, ox, oy)
	v.legend.draw(cv, ox, oy)
}

// eltPlot is the plot area.
type eltPlot struct {
	layout.Leaf
}

func (e *eltPlot) SizeHint() (w, h float64, flexw, flexh bool) {
	return 0, 0, true, true
}

// eltTicks holds the tick labels along one side of the plot.
type eltTicks struct {
	layout.Leaf

	axis  rune // 'x' or 'y'
	v     *panelView
	ticks []tick
	max   int // tick count bound used for ticks
}

// computeTicks picks the ticks of e for the current size of the plot
// area, keeping labels apart.
func (e *eltTicks) computeTicks() {
	_, _, w, h := e.v.plot.Layout()
	ax := e.v.axis(e.axis, rect{0, 0, w, h})
	if ax == nil {
		e.ticks = nil
		return
	}
	dim := h
	if e.axis == 'x' {
		dim = w
	}
	fontSize := e.v.theme.FontSize

	// Compute max ticks assuming the labels are zero sized, then
	// back off until the labels fit.
	for n := int(dim / tickDistance); ; n-- {
		ticks := ax.ticks(n, e.v.nf)
		if n <= 2 || e.fits(ticks, fontSize) {
			e.ticks, e.max = ticks, n
			return
		}
	}
}

func (e *eltTicks) fits(ticks []tick, fontSize float64) bool {
	type span struct{ lo, hi float64 }
	spans := make([]span, len(ticks))
	for i, tk := range ticks {
		m := measureString(fontSize, tk.label)
		ext := m.leading
		if e.axis == 'x' {
			ext = m.width + fontSize/2
		}
		spans[i] = span{tk.pos - ext/2, tk.pos + ext/2}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	for i := 1; i < len(spans); i++ {
		if spans[i].lo < spans[i-1].hi {
			return false
		}
	}
	return true
}

func (e *eltTicks) SizeHint() (w, h float64, flexw, flexh bool) {
	if len(e.ticks) == 0 {
		// Ticks haven't been computed yet or there are none.
		// Assume this takes up no space.
		return 0, 0, e.axis == 'x', e.axis == 'y'
	}
	fontSize := e.v.theme.FontSize
	var maxWidth, maxHeight float64
	for _, tk := range e.ticks {
		m := measureString(fontSize, tk.label)
		maxHeight = math.Max(maxHeight, m.leading)
		maxWidth = math.Max(maxWidth, m.width)
	}
	switch e.axis {
	case 'x':
		maxHeight += xTickSep
	case 'y':
		maxWidth += yTickSep
	}
	return maxWidth, maxHeight, e.axis == 'x', e.axis == 'y'
}

// eltLabel is a panel or figure title, caption, or axis label.
type eltLabel struct {
	layout.Leaf

	side  rune // 'T' title, 'b' bottom, 'l' left, 'C' caption
	label string
	theme *Theme
}

func (e *eltLabel) size() float64 {
	if e.side == 'T' {
		return e.theme.TitleSize
	}
	return e.theme.FontSize
}

func (e *eltLabel) SizeHint() (w, h float64, flexw, flexh bool) {
	if e.label == "" {
		return 0, 0, e.side != 'l', e.side == 'l'
	}
	dim := measureString(e.size(), e.label).leading + e.theme.Padding
	switch e.side {
	case 'l':
		return dim, 0, false, true
	case 'T':
		return 0, 1.25 * dim, true, false
	}
	return 0, dim, true, false
}

func (e *eltLabel) draw(cv Canvas, ox, oy float64) {
	if e.label == "" {
		return
	}
	x, y, w, h := e.Layout()
	x, y = x+ox, y+oy
	s := TextStyle{Size: e.size(), Color: e.theme.TextColor, Anchor: AnchorMiddle}
	switch e.side {
	case 'T':
		s.Bold = true
	case 'l':
		s.Vertical = true
	case 'C':
		s.Anchor = AnchorEnd
		cv.Text(x+w, y+h/2, e.label, s)
		return
	}
	cv.Text(x+w/2, y+h/2, e.label, s)
}
