// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// rasterCanvas draws to a PNG image.
//
// Shapes are rasterized at ss times the output resolution and scaled
// down when the canvas is closed, which anti-aliases edges that the
// rasterizer's coverage alone leaves jagged at small sizes. Text is
// drawn after scaling with a bitmap font so it stays crisp.
type rasterCanvas struct {
	w             io.Writer
	width, height int
	ss            float64
	img           *image.RGBA
	z             *vector.Rasterizer
	clips         []rect
	texts         []textOp
}

type pt struct{ x, y float64 }

type rect struct{ x0, y0, x1, y1 float64 }

type textOp struct {
	x, y  float64
	text  string
	style TextStyle
}

func newRasterCanvas(w io.Writer, width, height, ss int, bg color.Color) *rasterCanvas {
	if ss < 1 {
		ss = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width*ss, height*ss))
	if painted(bg) {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}
	return &rasterCanvas{
		w:      w,
		width:  width,
		height: height,
		ss:     float64(ss),
		img:    img,
		z:      vector.NewRasterizer(width*ss, height*ss),
	}
}

// fill paints the union of polys with c.
func (c *rasterCanvas) fill(polys [][]pt, col color.Color) {
	if !painted(col) {
		return
	}
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	drawn := false
	for _, p := range polys {
		if len(c.clips) > 0 {
			p = clipPoly(p, c.clips[len(c.clips)-1])
		}
		if len(p) < 3 {
			continue
		}
		// Accumulated coverage is signed, so give every
		// polygon the same winding or overlaps would cancel.
		if signedArea(p) < 0 {
			for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
				p[i], p[j] = p[j], p[i]
			}
		}
		c.z.MoveTo(float32(p[0].x*c.ss), float32(p[0].y*c.ss))
		for _, q := range p[1:] {
			c.z.LineTo(float32(q.x*c.ss), float32(q.y*c.ss))
		}
		c.z.ClosePath()
		drawn = true
	}
	if drawn {
		c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
	}
}

func signedArea(p []pt) float64 {
	a := 0.0
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i].x*p[j].y - p[j].x*p[i].y
	}
	return a / 2
}

// clipPoly clips polygon p to r (Sutherland-Hodgman).
func clipPoly(p []pt, r rect) []pt {
	type edge struct {
		inside func(pt) bool
		cross  func(a, b pt) pt
	}
	lerpX := func(a, b pt, x float64) pt {
		return pt{x, a.y + (b.y-a.y)*(x-a.x)/(b.x-a.x)}
	}
	lerpY := func(a, b pt, y float64) pt {
		return pt{a.x + (b.x-a.x)*(y-a.y)/(b.y-a.y), y}
	}
	edges := []edge{
		{func(q pt) bool { return q.x >= r.x0 }, func(a, b pt) pt { return lerpX(a, b, r.x0) }},
		{func(q pt) bool { return q.x <= r.x1 }, func(a, b pt) pt { return lerpX(a, b, r.x1) }},
		{func(q pt) bool { return q.y >= r.y0 }, func(a, b pt) pt { return lerpY(a, b, r.y0) }},
		{func(q pt) bool { return q.y <= r.y1 }, func(a, b pt) pt { return lerpY(a, b, r.y1) }},
	}
	out := p
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = nil
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur):
				if !e.inside(prev) {
					out = append(out, e.cross(prev, cur))
				}
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

// circlePoly approximates a circle with a polygon.
func circlePoly(cx, cy, r, ss float64) []pt {
	n := int(math.Max(12, math.Min(96, r*ss)))
	p := make([]pt, n)
	for i := range p {
		a := 2 * math.Pi * float64(i) / float64(n)
		p[i] = pt{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return p
}

// strokePolys returns polygons covering a stroke of width w along the
// polyline pts.
func strokePolys(pts []pt, closed bool, w, ss float64) [][]pt {
	if w <= 0 {
		w = 1
	}
	if closed && len(pts) > 2 {
		pts = append(pts[:len(pts):len(pts)], pts[0])
	}
	hw := w / 2
	var polys [][]pt
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		polys = append(polys, []pt{{a.x + nx, a.y + ny}, {b.x + nx, b.y + ny}, {b.x - nx, b.y - ny}, {a.x - nx, a.y - ny}})
		if i < len(pts)-1 && w*ss > 2 {
			// Round join.
			polys = append(polys, circlePoly(b.x, b.y, hw, ss))
		}
	}
	return polys
}

func (c *rasterCanvas) Rect(x, y, w, h float64, s Style) {
	p := []pt{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	c.fill([][]pt{p}, s.Fill)
	if painted(s.Stroke) {
		c.fill(strokePolys(p, true, s.StrokeWidth, c.ss), s.Stroke)
	}
}

func (c *rasterCanvas) Circle(cx, cy, r float64, s Style) {
	p := circlePoly(cx, cy, r, c.ss)
	c.fill([][]pt{p}, s.Fill)
	if painted(s.Stroke) {
		c.fill(strokePolys(p, true, s.StrokeWidth, c.ss), s.Stroke)
	}
}

func (c *rasterCanvas) Path(xs, ys []float64, closed bool, s Style) {
	// Split at non-finite points.
	var runs [][]pt
	var cur []pt
	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			if len(cur) > 0 {
				runs = append(runs, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, pt{xs[i], ys[i]})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	if closed {
		c.fill(runs, s.Fill)
	}
	if painted(s.Stroke) {
		var polys [][]pt
		for _, r := range runs {
			polys = append(polys, strokePolys(r, closed, s.StrokeWidth, c.ss)...)
		}
		c.fill(polys, s.Stroke)
	}
}

func (c *rasterCanvas) Text(x, y float64, text string, s TextStyle) {
	c.texts = append(c.texts, textOp{x, y, text, s})
}

func (c *rasterCanvas) Clip(x, y, w, h float64) {
	r := rect{x, y, x + w, y + h}
	if n := len(c.clips); n > 0 {
		o := c.clips[n-1]
		r = rect{math.Max(r.x0, o.x0), math.Max(r.y0, o.y0), math.Min(r.x1, o.x1), math.Min(r.y1, o.y1)}
	}
	c.clips = append(c.clips, r)
}

func (c *rasterCanvas) Unclip() {
	if len(c.clips) == 0 {
		panic("Unclip without Clip")
	}
	c.clips = c.clips[:len(c.clips)-1]
}

func (c *rasterCanvas) Close() error {
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.BiLinear.Scale(dst, dst.Bounds(), c.img, c.img.Bounds(), draw.Src, nil)
	for _, t := range c.texts {
		drawText(dst, t)
	}
	return png.Encode(c.w, dst)
}

// drawText draws t with a bitmap face, vertically centered on t.y.
func drawText(dst *image.RGBA, t textOp) {
	if !painted(t.style.Color) || t.text == "" {
		return
	}
	face := basicfont.Face7x13
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	adv := font.MeasureString(face, t.text).Ceil()
	if t.style.Bold {
		adv++
	}

	// Draw horizontally into a scratch image with the baseline
	// at ascent.
	tmp := image.NewRGBA(image.Rect(0, 0, adv, ascent+descent))
	d := &font.Drawer{Dst: tmp, Src: image.NewUniform(t.style.Color), Face: face, Dot: fixed.P(0, ascent)}
	d.DrawString(t.text)
	if t.style.Bold {
		d.Dot = fixed.P(1, ascent)
		d.DrawString(t.text)
	}

	src := image.Image(tmp)
	w, h := adv, ascent+descent
	if t.style.Vertical {
		rot := image.NewRGBA(image.Rect(0, 0, h, w))
		for ty := 0; ty < h; ty++ {
			for tx := 0; tx < w; tx++ {
				rot.SetRGBA(ty, w-1-tx, tmp.RGBAAt(tx, ty))
			}
		}
		src, w, h = rot, h, w
	}

	var x0 int
	if t.style.Vertical {
		x0 = round(t.x - float64(w)/2)
	} else {
		switch t.style.Anchor {
		case AnchorStart:
			x0 = round(t.x)
		case AnchorMiddle:
			x0 = round(t.x - float64(w)/2)
		case AnchorEnd:
			x0 = round(t.x) - w
		}
	}
	y0 := round(t.y - float64(h)/2)
	if t.style.Vertical {
		// Anchors apply along the text's own direction.
		switch t.style.Anchor {
		case AnchorStart:
			y0 = round(t.y) - h
		case AnchorEnd:
			y0 = round(t.y)
		}
	}
	r := image.Rect(x0, y0, x0+w, y0+h)
	draw.Draw(dst, r, src, image.Point{}, draw.Over)
}
