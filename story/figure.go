// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package story

import (
	"fmt"

	"github.com/storyplot/storyplot/aggregate"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/render"
)

// layout builds the composite for figure f from p's tables.
func (p *Pipeline) layout(f *Figure) (*Laid, error) {
	if err := p.doc.checkFigure(f); err != nil {
		return nil, err
	}
	over, err := f.Theme.override()
	if err != nil {
		return nil, err
	}
	theme := render.DefaultTheme().With(over)

	pals, err := p.palettes(f)
	if err != nil {
		return nil, err
	}

	panels := make([]*render.Panel, 0, len(f.Panels))
	for _, ps := range f.Panels {
		layers := make([]*render.Layer, 0, len(ps.Layers))
		for _, ls := range ps.Layers {
			g, err := render.ParseGeometry(ls.Geometry)
			if err != nil {
				return nil, err
			}
			d, err := p.Table(ls.table())
			if err != nil {
				return nil, err
			}
			l, err := render.MakeLayer(d, g, ls.mapping(), pals)
			if err != nil {
				return nil, fmt.Errorf("panel %q: %w", ps.Name, err)
			}
			layers = append(layers, l)
		}
		panel, err := render.NewPanel(ps.Name, layers...)
		if err != nil {
			return nil, fmt.Errorf("panel %q: %w", ps.Name, err)
		}
		panel.Title, panel.XLabel, panel.YLabel, panel.Flip = ps.Title, ps.XLabel, ps.YLabel, ps.Flip
		panels = append(panels, panel)
	}

	mode, err := render.ParseLegendMode(f.Layout.Legend)
	if err != nil {
		return nil, err
	}
	spec := render.LayoutSpec{
		Cells:   f.Layout.Cells,
		Widths:  f.Layout.Widths,
		Heights: f.Layout.Heights,
		Legend:  mode,
		Title:   f.Layout.Title,
		Caption: f.Layout.Caption,
		ShareX:  f.Layout.ShareX,
		ShareY:  f.Layout.ShareY,
	}
	for _, pl := range f.Layout.Place {
		spec.Place = append(spec.Place, render.Placement{Panel: pl.Panel, Cells: pl.Cells})
	}
	comp, err := render.Compose(panels, spec)
	if err != nil {
		return nil, err
	}
	return &Laid{
		Figure:    f,
		Composite: comp,
		Theme:     theme,
		Frame:     p.opts.frame(f),
		Target:    p.target(f),
		stage:     LaidOut,
	}, nil
}

func (l *Layer) mapping() render.Mapping {
	return render.Mapping{
		X:     l.X,
		Y:     l.Y,
		Color: l.Color,
		Fill:  l.Fill,
		Size:  l.Size,
		Shape: l.Shape,
		Label: l.Label,
		Group: l.Group,
	}
}

// palettes builds the color maps of figure f. Every discrete column
// mapped to color or fill in f gets exactly one map, shared by all of
// f's layers. Columns without a declared palette get render.Dark2 in
// order of first appearance across the figure's layers.
func (p *Pipeline) palettes(f *Figure) (render.Palettes, error) {
	// Gather the categories of each discrete color column in order
	// of first appearance.
	type column struct {
		cats []string
		seen map[string]bool
	}
	cols := make(map[string]*column)
	var names []string
	for _, ps := range f.Panels {
		for _, ls := range ps.Layers {
			d, err := p.Table(ls.table())
			if err != nil {
				return nil, err
			}
			for _, name := range []string{ls.Color, ls.Fill} {
				c, ok := d.Schema().Lookup(name)
				if !ok || (c.Kind != dataset.String && c.Kind != dataset.Bool) {
					continue
				}
				cats, err := d.Distinct(name)
				if err != nil {
					return nil, err
				}
				col := cols[name]
				if col == nil {
					col = &column{seen: make(map[string]bool)}
					cols[name] = col
					names = append(names, name)
				}
				for _, cat := range cats {
					if !col.seen[cat] {
						col.seen[cat] = true
						col.cats = append(col.cats, cat)
					}
				}
			}
		}
	}

	pals := make(render.Palettes)
	declared := make(map[string]bool)
	for _, ps := range f.palettes() {
		if declared[ps.Categories] {
			return nil, invalid("figure %q: two palettes for %q", f.Name, ps.Categories)
		}
		declared[ps.Categories] = true
		var have []string
		if col := cols[ps.Categories]; col != nil {
			have = col.cats
		}
		cats, err := p.paletteOrder(ps, have)
		if err != nil {
			return nil, err
		}
		base := render.Dark2
		if len(ps.Colors) > 0 {
			if base, err = render.ParseColors(ps.Colors); err != nil {
				return nil, err
			}
		}
		cm, err := render.AssignPalette(cats, base)
		if err != nil {
			return nil, fmt.Errorf("palette for %q: %w", ps.Categories, err)
		}
		pals[ps.Categories] = cm
	}
	for _, name := range names {
		if declared[name] {
			continue
		}
		cm, err := render.AssignPalette(cols[name].cats, render.Dark2)
		if err != nil {
			return nil, fmt.Errorf("palette for %q: %w", name, err)
		}
		pals[name] = cm
	}
	return pals, nil
}

// paletteOrder returns the categories of palette ps in display order.
// Ranked categories come first; categories the figure draws that the
// ranking table lacks follow in order of first appearance.
func (p *Pipeline) paletteOrder(ps Palette, have []string) ([]string, error) {
	o := ps.Order
	if o == nil {
		return have, nil
	}
	order, err := o.order()
	if err != nil {
		return nil, err
	}
	var cats []string
	if order.Kind == aggregate.Explicit && o.Table == "" {
		// An explicit list needs no data beyond the figure's own.
		cats = orderByList(o.List, have)
	} else {
		table := o.Table
		if table == "" {
			table = SourceTable
		}
		d, err := p.Table(table)
		if err != nil {
			return nil, err
		}
		if cats, err = aggregate.RankCategories(d, ps.Categories, o.Value, order); err != nil {
			return nil, fmt.Errorf("palette for %q: %w", ps.Categories, err)
		}
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		seen[c] = true
	}
	for _, c := range have {
		if !seen[c] {
			cats = append(cats, c)
		}
	}
	return cats, nil
}

// orderByList returns the categories of have that are in list, in
// list order, followed by the rest of have.
func orderByList(list, have []string) []string {
	in := make(map[string]bool, len(have))
	for _, c := range have {
		in[c] = true
	}
	var out []string
	listed := make(map[string]bool, len(list))
	for _, c := range list {
		if in[c] && !listed[c] {
			listed[c] = true
			out = append(out, c)
		}
	}
	for _, c := range have {
		if !listed[c] {
			out = append(out, c)
		}
	}
	return out
}
