// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-moremath/vec"
	"github.com/storyplot/storyplot/dataset"
)

// drawEnv is the state for drawing the layers of one panel.
type drawEnv struct {
	theme Theme
	nf    *numberFormat

	// xa and ya map the X and Y domains. If flip is set, xa runs
	// vertically and ya horizontally.
	xa, ya *axis
	flip   bool

	plot rect // plot area in pixels
}

// xy returns the pixel position of domain units (xu, yu).
func (e *drawEnv) xy(xu, yu float64) (float64, float64) {
	if e.flip {
		return e.ya.pos(yu), e.xa.pos(xu)
	}
	return e.xa.pos(xu), e.ya.pos(yu)
}

func (l *Layer) draw(cv Canvas, e *drawEnv) {
	switch l.geom {
	case Bar:
		l.drawBars(cv, e)
	case Point:
		l.drawPoints(cv, e)
	case Line, Area, Polygon:
		l.drawPaths(cv, e)
	case Tile:
		l.drawTiles(cv, e)
	case Text:
		l.drawText(cv, e)
	case Rule:
		l.drawRules(cv, e)
	case Arc:
		l.drawArcs(cv, e)
	}
}

func first(cols ...string) string {
	for _, c := range cols {
		if c != "" {
			return c
		}
	}
	return ""
}

// paint returns the color of each record for column col, or nil if col
// is empty. Discrete columns use the layer's ColorMap and continuous
// columns a viridis ramp over the column's range.
func (l *Layer) paint(col string) []color.Color {
	if col == "" {
		return nil
	}
	out := make([]color.Color, l.data.Len())
	if isDiscrete(l.data.Schema(), col) {
		cm := l.palettes[col]
		labels, _ := l.data.Labels(col)
		for i, lab := range labels {
			if c, ok := cm.Color(lab); ok {
				out[i] = c
			}
		}
		return out
	}
	xs, _ := l.data.Float(col)
	lo, hi := extent(xs)
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		t := 0.5
		if hi > lo {
			t = (x - lo) / (hi - lo)
		}
		out[i] = palette.Viridis.Map(t)
	}
	return out
}

func pick(cs []color.Color, i int, def color.Color) color.Color {
	if cs == nil || cs[i] == nil {
		return def
	}
	return cs[i]
}

// fade scales the opacity of c by a.
func fade(c color.Color, a float64) color.Color {
	r := toRGBA(c)
	f := func(v uint8) uint8 { return uint8(float64(v)*a + 0.5) }
	return color.RGBA{f(r.R), f(r.G), f(r.B), f(r.A)}
}

// extent returns the range of the finite values of xs, or NaNs if
// there are none.
func extent(xs []float64) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, x := range xs {
		if !isFinite(x) {
			continue
		}
		if !(x >= lo) {
			lo = x
		}
		if !(x <= hi) {
			hi = x
		}
	}
	return
}

// stacks returns the baseline of each bar. Bars sharing an X stack in
// record order, positive values upward from zero and negative values
// downward.
func (l *Layer) stacks() []float64 {
	keys, _ := l.data.Labels(l.mapping.X)
	ys, _ := l.data.Float(l.mapping.Y)
	pos, neg := map[string]float64{}, map[string]float64{}
	base := make([]float64, len(ys))
	for i, y := range ys {
		switch {
		case math.IsNaN(y):
			base[i] = math.NaN()
		case y >= 0:
			base[i] = pos[keys[i]]
			pos[keys[i]] += y
		default:
			base[i] = neg[keys[i]]
			neg[keys[i]] += y
		}
	}
	return base
}

// stackExtent returns the lowest and highest stacked bar ends.
func (l *Layer) stackExtent() (lo, hi float64) {
	ys, _ := l.data.Float(l.mapping.Y)
	for i, b := range l.stacks() {
		if math.IsNaN(b) {
			continue
		}
		lo, hi = math.Min(lo, b+ys[i]), math.Max(hi, b+ys[i])
	}
	return
}

func (l *Layer) drawBars(cv Canvas, e *drawEnv) {
	m := l.mapping
	xu := e.xa.dom.units(l.data, m.X)
	ys, _ := l.data.Float(m.Y)
	base := l.stacks()
	bw := e.xa.bandWidth(xu) * e.theme.BarWidth
	fills := l.paint(first(m.Fill, m.Color))
	for i, y := range ys {
		if math.IsNaN(xu[i]) || math.IsNaN(y) {
			continue
		}
		c := e.xa.pos(xu[i])
		v0, v1 := e.ya.pos(base[i]), e.ya.pos(base[i]+y)
		lo, ext := math.Min(v0, v1), math.Abs(v1-v0)
		s := Style{Fill: pick(fills, i, e.theme.MarkColor)}
		if e.flip {
			cv.Rect(lo, c-bw/2, ext, bw, s)
		} else {
			cv.Rect(c-bw/2, lo, bw, ext, s)
		}
	}
}

func (l *Layer) drawTiles(cv Canvas, e *drawEnv) {
	m := l.mapping
	xu := e.xa.dom.units(l.data, m.X)
	yu := e.ya.dom.units(l.data, m.Y)
	bx, by := e.xa.bandWidth(xu), e.ya.bandWidth(yu)
	if e.flip {
		bx, by = by, bx
	}
	fills := l.paint(first(m.Fill, m.Color))
	for i := range xu {
		px, py := e.xy(xu[i], yu[i])
		if !isFinite(px) || !isFinite(py) {
			continue
		}
		cv.Rect(px-bx/2, py-by/2, bx, by, Style{Fill: pick(fills, i, e.theme.MarkColor)})
	}
}

// shapeIndex returns the marker of each record of l.
func (l *Layer) shapeIndex() []string {
	if l.mapping.Shape == "" {
		return nil
	}
	cats, _ := l.data.Distinct(l.mapping.Shape)
	idx := make(map[string]int, len(cats))
	for i, c := range cats {
		idx[c] = i
	}
	labels, _ := l.data.Labels(l.mapping.Shape)
	out := make([]string, len(labels))
	for i, lab := range labels {
		out[i] = shapes[idx[lab]%len(shapes)]
	}
	return out
}

func (l *Layer) drawPoints(cv Canvas, e *drawEnv) {
	m := l.mapping
	xu := e.xa.dom.units(l.data, m.X)
	yu := e.ya.dom.units(l.data, m.Y)
	cols := l.paint(first(m.Color, m.Fill))
	shp := l.shapeIndex()

	// Size maps to marker area.
	r0 := e.theme.PointSize
	var sizes []float64
	var slo, shi float64
	if m.Size != "" {
		sizes, _ = l.data.Float(m.Size)
		slo, shi = extent(sizes)
	}
	for i := range xu {
		px, py := e.xy(xu[i], yu[i])
		if !isFinite(px) || !isFinite(py) {
			continue
		}
		r := r0
		if sizes != nil {
			if math.IsNaN(sizes[i]) {
				continue
			}
			t := 0.5
			if shi > slo {
				t = (sizes[i] - slo) / (shi - slo)
			}
			r = r0 * (1 + 2*math.Sqrt(t))
		}
		shape := "circle"
		if shp != nil {
			shape = shp[i]
		}
		drawShape(cv, shape, px, py, r, Style{Fill: pick(cols, i, e.theme.MarkColor)})
	}
}

// groups splits the records of l into paths by Group and by discrete
// Color and Fill, in order of first appearance.
func (l *Layer) groups() [][]int {
	m := l.mapping
	s := l.data.Schema()
	var keys [][]string
	for _, c := range []string{m.Group, m.Color, m.Fill} {
		if c == "" || (c != m.Group && !isDiscrete(s, c)) {
			continue
		}
		labels, _ := l.data.Labels(c)
		keys = append(keys, labels)
	}
	var out [][]int
	index := map[string]int{}
	parts := make([]string, len(keys))
	for i := 0; i < l.data.Len(); i++ {
		for j, k := range keys {
			parts[j] = k[i]
		}
		key := strings.Join(parts, "\x00")
		g, ok := index[key]
		if !ok {
			g = len(out)
			index[key] = g
			out = append(out, nil)
		}
		out[g] = append(out[g], i)
	}
	return out
}

func (l *Layer) drawPaths(cv Canvas, e *drawEnv) {
	m := l.mapping
	xu := e.xa.dom.units(l.data, m.X)
	yu := e.ya.dom.units(l.data, m.Y)
	strokes := l.paint(m.Color)
	fills := l.paint(first(m.Fill, m.Color))
	for _, g := range l.groups() {
		if l.geom != Polygon {
			// Lines and areas are drawn in X order. Records
			// with no X position cannot be placed.
			var placed []int
			for _, i := range g {
				if !math.IsNaN(xu[i]) {
					placed = append(placed, i)
				}
			}
			sort.SliceStable(placed, func(a, b int) bool { return xu[placed[a]] < xu[placed[b]] })
			g = placed
		}
		if len(g) == 0 {
			continue
		}
		var xs, ys []float64
		for _, i := range g {
			if l.geom == Area && math.IsNaN(yu[i]) {
				continue
			}
			px, py := e.xy(xu[i], yu[i])
			xs, ys = append(xs, px), append(ys, py)
		}
		stroke := pick(strokes, g[0], nil)
		switch l.geom {
		case Line:
			if stroke == nil {
				stroke = e.theme.MarkColor
			}
			cv.Path(xs, ys, false, Style{Stroke: stroke, StrokeWidth: e.theme.LineWidth})
		case Area:
			if len(xs) == 0 {
				continue
			}
			// Close along the zero baseline.
			outline := Style{Fill: fade(pick(fills, g[0], e.theme.MarkColor), 0.6)}
			bx, by := e.xy(xu[g[len(g)-1]], 0)
			ax, ay := e.xy(xu[g[0]], 0)
			cv.Path(append(xs, bx, ax), append(ys, by, ay), true, outline)
			if stroke != nil {
				cv.Path(xs, ys, false, Style{Stroke: stroke, StrokeWidth: e.theme.LineWidth})
			}
		case Polygon:
			fill := fade(pick(fills, g[0], e.theme.MarkColor), 0.5)
			if m.Fill != "" {
				fill = pick(fills, g[0], e.theme.MarkColor)
			}
			cv.Path(xs, ys, true, Style{Fill: fill, Stroke: stroke, StrokeWidth: 1})
		}
	}
}

// labels returns the text of l's Label column. Numbers are formatted
// for the theme's locale.
func (l *Layer) labels(nf *numberFormat) []string {
	c, _ := l.data.Schema().Lookup(l.mapping.Label)
	if c.Kind == dataset.Number {
		xs, _ := l.data.Numbers(c.Name)
		out := make([]string, len(xs))
		for i, x := range xs {
			out[i] = nf.format(x, 0.01)
		}
		return out
	}
	out, _ := l.data.Labels(c.Name)
	return out
}

func (l *Layer) drawText(cv Canvas, e *drawEnv) {
	m := l.mapping
	xu := e.xa.dom.units(l.data, m.X)
	yu := e.ya.dom.units(l.data, m.Y)
	cols := l.paint(m.Color)
	text := l.labels(e.nf)
	for i := range xu {
		px, py := e.xy(xu[i], yu[i])
		if !isFinite(px) || !isFinite(py) || text[i] == "" {
			continue
		}
		cv.Text(px, py, text[i], TextStyle{
			Size:   e.theme.FontSize * 0.85,
			Color:  pick(cols, i, e.theme.TextColor),
			Anchor: AnchorMiddle,
		})
	}
}

func (l *Layer) drawRules(cv Canvas, e *drawEnv) {
	m := l.mapping
	cols := l.paint(m.Color)
	p := e.plot
	line := func(horiz bool, at float64, c color.Color) {
		if !isFinite(at) {
			return
		}
		s := Style{Stroke: c, StrokeWidth: e.theme.LineWidth}
		if horiz {
			cv.Path([]float64{p.x0, p.x1}, []float64{at, at}, false, s)
		} else {
			cv.Path([]float64{at, at}, []float64{p.y0, p.y1}, false, s)
		}
	}
	if m.X != "" {
		for i, u := range e.xa.dom.units(l.data, m.X) {
			line(e.flip, e.xa.pos(u), pick(cols, i, e.theme.AxisColor))
		}
	}
	if m.Y != "" {
		for i, u := range e.ya.dom.units(l.data, m.Y) {
			line(!e.flip, e.ya.pos(u), pick(cols, i, e.theme.AxisColor))
		}
	}
}

// drawArcs draws a pie centered in the plot area, with slices clockwise
// from twelve o'clock in record order.
func (l *Layer) drawArcs(cv Canvas, e *drawEnv) {
	m := l.mapping
	ys, _ := l.data.Float(m.Y)
	total := 0.0
	for _, y := range ys {
		if isFinite(y) && y > 0 {
			total += y
		}
	}
	if total == 0 {
		return
	}
	p := e.plot
	cx, cy := (p.x0+p.x1)/2, (p.y0+p.y1)/2
	r := 0.45 * math.Min(p.x1-p.x0, p.y1-p.y0)
	fills := l.paint(first(m.Fill, m.Color))
	sep := Style{Stroke: e.theme.Background, StrokeWidth: 1}

	a0 := -math.Pi / 2
	for i, y := range ys {
		if !isFinite(y) || y <= 0 {
			continue
		}
		a1 := a0 + 2*math.Pi*y/total
		s := Style{Fill: pick(fills, i, e.theme.MarkColor), Stroke: sep.Stroke, StrokeWidth: sep.StrokeWidth}
		if y == total {
			cv.Circle(cx, cy, r, s)
			break
		}
		n := 2 + int(64*(a1-a0)/(2*math.Pi))
		angles := vec.Linspace(a0, a1, n)
		px, py := []float64{cx}, []float64{cy}
		for _, a := range angles {
			px = append(px, cx+r*math.Cos(a))
			py = append(py, cy+r*math.Sin(a))
		}
		cv.Path(px, py, true, s)
		a0 = a1
	}
}
