// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aclements/go-gg/gg/layout"
	"github.com/storyplot/storyplot/internal/errs"
)

// A Format is an output image format.
type Format int

const (
	PNG Format = iota
	SVG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case SVG:
		return "svg"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf returns the image format for path's extension. Unsupported
// extensions are IOErrors.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return PNG, nil
	case ".svg":
		return SVG, nil
	default:
		return 0, &errs.IOError{Op: "render", Path: path, Err: fmt.Errorf("unsupported image format %q", ext)}
	}
}

// Options are the parameters of one rendering.
type Options struct {
	// Width and Height are the image size in pixels.
	Width, Height int

	// Theme is the theme to draw with. If nil, DefaultTheme is used.
	Theme *Theme

	// Background, if non-nil, overrides the theme's figure
	// background.
	Background color.Color

	// Supersample is the PNG oversampling factor. 0 means 2.
	Supersample int
}

// Render draws c to the file target. The image format is chosen by
// target's extension.
//
// Nothing is written unless rendering succeeds.
func Render(c *Composite, target string, opts Options) error {
	f, err := FormatOf(target)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := RenderTo(&buf, c, f, opts); err != nil {
		return err
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o666); err != nil {
		return &errs.IOError{Op: "write", Path: target, Err: err}
	}
	return nil
}

// RenderTo draws c to w in format f.
func RenderTo(w io.Writer, c *Composite, f Format, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return &errs.ValueError{Op: "render", Detail: fmt.Sprintf("image size must be positive, got %dx%d", opts.Width, opts.Height)}
	}
	t := DefaultTheme()
	if opts.Theme != nil {
		t = *opts.Theme
	}
	if opts.Background != nil {
		t.Background = toRGBA(opts.Background)
	}
	ss := opts.Supersample
	if ss <= 0 {
		ss = 2
	}

	fig := c.layout(&t, newNumberFormat(t.Locale))
	m := t.Margin
	fig.grid.SetLayout(0, 0, math.Max(0, float64(opts.Width)-2*m), math.Max(0, float64(opts.Height)-2*m))

	var cv Canvas
	switch f {
	case PNG:
		cv = newRasterCanvas(w, opts.Width, opts.Height, ss, t.Background)
	case SVG:
		cv = newSVGCanvas(w, opts.Width, opts.Height, t)
		cv.Rect(0, 0, float64(opts.Width), float64(opts.Height), Style{Fill: t.Background})
	default:
		return &errs.IOError{Op: "render", Err: fmt.Errorf("unsupported image format %v", f)}
	}
	fig.draw(cv, m, m)
	if err := cv.Close(); err != nil {
		return &errs.IOError{Op: "write", Err: err}
	}
	return nil
}

// figure is a composite laid out for rendering.
//
//	+--------------------+--------+
//	| Title                       |
//	+--------------------+--------+
//	| Panels             | Legend |
//	+--------------------+--------+
//	| Caption                     |
//	+--------------------+--------+
type figure struct {
	grid           *layout.Grid
	title, caption *eltLabel
	legend         *eltLegend
	views          []*panelView
}

func (c *Composite) layout(t *Theme, nf *numberFormat) *figure {
	figLegends, perPanel := c.legends(nf)
	body := &tracks{
		widths:  equalWeights(c.spec.Widths, c.cols),
		heights: equalWeights(c.spec.Heights, c.rows),
		gap:     t.Margin,
	}
	fig := &figure{
		title:   &eltLabel{side: 'T', label: c.spec.Title, theme: t},
		caption: &eltLabel{side: 'C', label: c.spec.Caption, theme: t},
		legend:  &eltLegend{legends: figLegends, theme: t},
	}
	for i, pp := range c.placed {
		v := newPanelView(pp.p, pp.xdom, pp.ydom, perPanel[i], t, nf)
		fig.views = append(fig.views, v)
		body.add(v, pp.col, pp.row, pp.colSpan, pp.rowSpan)
	}
	g := new(layout.Grid)
	g.Add(fig.title, 0, 0, 2, 1)
	g.Add(body, 0, 1, 1, 1)
	g.Add(fig.legend, 1, 1, 1, 1)
	g.Add(fig.caption, 0, 2, 2, 1)
	fig.grid = g
	return fig
}

func (fig *figure) draw(cv Canvas, ox, oy float64) {
	for _, v := range fig.views {
		v.draw(cv, ox, oy)
	}
	fig.legend.draw(cv, ox, oy)
	fig.title.draw(cv, ox, oy)
	fig.caption.draw(cv, ox, oy)
}
