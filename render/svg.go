// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ajstarks/svgo"
)

// svgCanvas draws to an SVG document.
type svgCanvas struct {
	bw     *bufio.Writer
	svg    *svg.SVG
	clipID int
	clips  int
}

func newSVGCanvas(w io.Writer, width, height int, t Theme) *svgCanvas {
	bw := bufio.NewWriter(w)
	c := &svgCanvas{bw: bw, svg: svg.New(bw)}
	family := strings.ReplaceAll(t.FontFamily, `"`, "&quot;")
	c.svg.Start(width, height, fmt.Sprintf(`font-size="%.6gpx" font-family="%s"`, t.FontSize, family))
	return c
}

func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func svgStyle(s Style) string {
	parts := []string{cssPaint("fill", colorOrNone(s.Fill))}
	if painted(s.Stroke) {
		w := s.StrokeWidth
		if w <= 0 {
			w = 1
		}
		parts = append(parts, cssPaint("stroke", s.Stroke), fmt.Sprintf("stroke-width:%.6g", w))
	}
	return strings.Join(parts, ";")
}

func (c *svgCanvas) Rect(x, y, w, h float64, s Style) {
	x1, y1 := round(x), round(y)
	c.svg.Rect(x1, y1, round(x+w)-x1, round(y+h)-y1, svgStyle(s))
}

func (c *svgCanvas) Circle(cx, cy, r float64, s Style) {
	ri := round(r)
	if ri < 1 {
		ri = 1
	}
	c.svg.Circle(round(cx), round(cy), ri, svgStyle(s))
}

func (c *svgCanvas) Path(xs, ys []float64, closed bool, s Style) {
	var d strings.Builder
	inLine := false
	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			inLine = false
			continue
		}
		if !inLine {
			d.WriteByte('M')
			inLine = true
		} else {
			d.WriteByte('L')
		}
		fmt.Fprintf(&d, "%.6g %.6g", xs[i], ys[i])
	}
	if d.Len() == 0 {
		return
	}
	if closed {
		d.WriteByte('Z')
	}
	if !closed {
		s.Fill = nil
	}
	c.svg.Path(wrapPath(d.String()), svgStyle(s))
}

func (c *svgCanvas) Text(x, y float64, text string, s TextStyle) {
	attrs := []string{`dy=".35em"`}
	switch s.Anchor {
	case AnchorMiddle:
		attrs = append(attrs, `text-anchor="middle"`)
	case AnchorEnd:
		attrs = append(attrs, `text-anchor="end"`)
	}
	if s.Size > 0 {
		attrs = append(attrs, fmt.Sprintf(`font-size="%.6gpx"`, s.Size))
	}
	if s.Bold {
		attrs = append(attrs, `font-weight="bold"`)
	}
	if s.Vertical {
		attrs = append(attrs, fmt.Sprintf(`transform="rotate(-90 %d %d)"`, round(x), round(y)))
	}
	attrs = append(attrs, cssPaint("fill", colorOrNone(s.Color)))
	c.svg.Text(round(x), round(y), text, attrs...)
}

func (c *svgCanvas) Clip(x, y, w, h float64) {
	id := fmt.Sprintf("clip%d", c.clipID)
	c.clipID++
	c.svg.ClipPath(`id="` + id + `"`)
	c.svg.Rect(round(x), round(y), round(w), round(h))
	c.svg.ClipEnd()
	c.svg.Group(`clip-path="url(#` + id + `)"`)
	c.clips++
}

func (c *svgCanvas) Unclip() {
	if c.clips == 0 {
		panic("Unclip without Clip")
	}
	c.clips--
	c.svg.Gend()
}

func (c *svgCanvas) Close() error {
	for c.clips > 0 {
		c.Unclip()
	}
	c.svg.End()
	return c.bw.Flush()
}

// wrapPath wraps path data p to avoid exceeding SVG's recommended
// line length limit of 255 characters.
func wrapPath(p string) string {
	const width = 70
	if len(p) <= width {
		return p
	}
	parts := make([]string, 0, 16)
	for len(p) > width {
		// Split before the last command or space within width.
		lastCmd, lastSpace := 0, 0
		for i, ch := range p {
			if i >= width && (lastCmd != 0 || lastSpace != 0) {
				break
			}
			if 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' {
				lastCmd = i
			} else if ch == ' ' {
				lastSpace = i
			}
		}
		split := len(p)
		if lastCmd != 0 {
			split = lastCmd
		} else if lastSpace != 0 {
			split = lastSpace
		}
		parts, p = append(parts, p[:split]), p[split:]
	}
	if len(p) > 0 {
		parts = append(parts, p)
	}
	return strings.Join(parts, "\n")
}
