// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"strings"

	"github.com/storyplot/storyplot/internal/errs"
)

// A Panel is one chart: layers drawn in a shared coordinate space
// with their axes, title, and legends.
//
// The exported fields may be set until the panel is passed to
// Compose.
type Panel struct {
	Name  string
	Title string

	// XLabel and YLabel are the axis titles. If empty, they
	// default to the names of the columns mapped to the axis.
	XLabel, YLabel string

	// Flip swaps the axes, so X runs vertically. Bars with a
	// discrete X become horizontal bars.
	Flip bool

	layers []*Layer
}

// NewPanel returns a panel drawing layers in order, the first at the
// bottom. The layers must agree on the kind of each axis: a column
// mapped to X in one layer cannot be discrete if another layer's X is
// continuous.
func NewPanel(name string, layers ...*Layer) (*Panel, error) {
	p := &Panel{Name: name, layers: append([]*Layer(nil), layers...)}
	if _, _, err := p.train(); err != nil {
		return nil, err
	}
	return p, nil
}

// Layers returns the panel's layers.
func (p *Panel) Layers() []*Layer {
	return append([]*Layer(nil), p.layers...)
}

// train computes the domains of p's axes from its layers.
func (p *Panel) train() (x, y *domain, err error) {
	x, y = new(domain), new(domain)
	for _, l := range p.layers {
		if !l.usesAxes() {
			continue
		}
		m := l.mapping
		if m.X != "" {
			if err := x.trainColumn(l.data, m.X); err != nil {
				return nil, nil, &errs.MappingError{Channel: "x", Column: m.X, Detail: err.Error()}
			}
		}
		if m.Y != "" {
			if err := y.trainColumn(l.data, m.Y); err != nil {
				return nil, nil, &errs.MappingError{Channel: "y", Column: m.Y, Detail: err.Error()}
			}
		}
		if l.zeroBased() {
			y.zero = true
			if l.geom == Bar {
				// Stacked bars reach the sum of their
				// band.
				lo, hi := l.stackExtent()
				y.include(lo)
				y.include(hi)
			}
		}
	}
	return x, y, nil
}

// hasAxes reports whether any layer of p is drawn in x/y coordinates.
func (p *Panel) hasAxes() bool {
	for _, l := range p.layers {
		if l.usesAxes() {
			return true
		}
	}
	return false
}

// axisLabels returns the titles of p's x and y axes.
func (p *Panel) axisLabels() (x, y string) {
	x, y = p.XLabel, p.YLabel
	var xs, ys []string
	seen := map[string]bool{}
	for _, l := range p.layers {
		if !l.usesAxes() {
			continue
		}
		if c := l.mapping.X; c != "" && !seen["x:"+c] {
			seen["x:"+c] = true
			xs = append(xs, c)
		}
		if c := l.mapping.Y; c != "" && !seen["y:"+c] {
			seen["y:"+c] = true
			ys = append(ys, c)
		}
	}
	if x == "" {
		x = strings.Join(xs, ", ")
	}
	if y == "" {
		y = strings.Join(ys, ", ")
	}
	return x, y
}

func (p *Panel) String() string {
	return fmt.Sprintf("panel %q (%d layers)", p.Name, len(p.layers))
}
