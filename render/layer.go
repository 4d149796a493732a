// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"strings"

	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

// A Geometry is the visual primitive a Layer draws for its data.
type Geometry int

const (
	// Bar draws a bar from zero to Y in the band of each X.
	Bar Geometry = iota

	// Point draws a marker at each (X, Y).
	Point

	// Line connects the points of each group in X order.
	Line

	// Tile fills the cell of each (X, Y), usually with a Fill
	// mapping. It is the geometry of heat maps.
	Tile

	// Arc draws a pie: each record is a slice whose angle is
	// proportional to Y.
	Arc

	// Polygon fills the outline traced by the points of each
	// group, in record order.
	Polygon

	// Text draws Label at each (X, Y).
	Text

	// Area fills between zero and the line through each group.
	Area

	// Rule draws a reference line across the plot at each X
	// (vertical) or Y (horizontal).
	Rule
)

var geometryNames = []string{"bar", "point", "line", "tile", "arc", "polygon", "text", "area", "rule"}

func (g Geometry) String() string {
	if int(g) < len(geometryNames) {
		return geometryNames[g]
	}
	return fmt.Sprintf("Geometry(%d)", int(g))
}

// ParseGeometry returns the Geometry named s.
func ParseGeometry(s string) (Geometry, error) {
	s = strings.ToLower(s)
	for i, name := range geometryNames {
		if s == name {
			return Geometry(i), nil
		}
	}
	switch s {
	case "col", "column":
		return Bar, nil
	case "pie":
		return Arc, nil
	case "label":
		return Text, nil
	case "hline", "vline":
		return Rule, nil
	}
	return 0, fmt.Errorf("unknown geometry %q", s)
}

// A Mapping assigns data columns to visual channels. Empty fields are
// unmapped.
type Mapping struct {
	X, Y string

	// Color is the stroke or marker color and Fill is the fill
	// color. String and Bool columns are discrete and need a
	// ColorMap in the layer's Palettes. Number and Time columns
	// use a continuous color ramp.
	Color, Fill string

	// Size scales point radius and must be a Number column.
	Size string

	// Shape selects point markers and must be discrete.
	Shape string

	// Label is the text drawn by the Text geometry.
	Label string

	// Group splits the records of path-like geometries (Line,
	// Area, Polygon) into separate paths. Records are also split
	// by discrete Color and Fill.
	Group string
}

// channels returns the mapped channels in a fixed order.
func (m Mapping) channels() []struct{ name, col string } {
	return []struct{ name, col string }{
		{"x", m.X}, {"y", m.Y}, {"color", m.Color}, {"fill", m.Fill},
		{"size", m.Size}, {"shape", m.Shape}, {"label", m.Label}, {"group", m.Group},
	}
}

// Palettes maps discrete column names to the ColorMap coloring them.
type Palettes map[string]*ColorMap

// A Layer is one geometry drawn from one dataset.
type Layer struct {
	data     *dataset.Dataset
	geom     Geometry
	mapping  Mapping
	palettes Palettes
}

// shapes lists the point markers in assignment order.
var shapes = []string{"circle", "square", "triangle", "diamond", "cross"}

// MakeLayer binds data to geometry g through mapping m.
//
// Every mapped column must exist in data, and g's required channels
// must be mapped. A discrete Color or Fill column must have a ColorMap
// in palettes that covers each of its categories; MakeLayer never
// picks colors on its own. All of these failures are MappingErrors.
func MakeLayer(data *dataset.Dataset, g Geometry, m Mapping, palettes Palettes) (*Layer, error) {
	s := data.Schema()
	for _, ch := range m.channels() {
		if ch.col == "" {
			continue
		}
		if _, ok := s.Lookup(ch.col); !ok {
			return nil, &errs.MappingError{Channel: ch.name, Column: ch.col, Detail: fmt.Sprintf("column not in data (have %s)", strings.Join(data.Columns(), ", "))}
		}
	}

	need := func(ch, col string) error {
		if col == "" {
			return &errs.MappingError{Channel: ch, Detail: fmt.Sprintf("%s layer needs a %s mapping", g, ch)}
		}
		return nil
	}
	var err error
	switch g {
	case Bar, Point, Line, Tile, Polygon, Area:
		if err = need("x", m.X); err == nil {
			err = need("y", m.Y)
		}
	case Text:
		if err = need("x", m.X); err == nil {
			if err = need("y", m.Y); err == nil {
				err = need("label", m.Label)
			}
		}
	case Arc:
		err = need("y", m.Y)
	case Rule:
		if m.X == "" && m.Y == "" {
			err = &errs.MappingError{Channel: "x", Detail: "rule layer needs an x or y mapping"}
		}
	default:
		err = &errs.MappingError{Detail: fmt.Sprintf("unknown geometry %v", g)}
	}
	if err != nil {
		return nil, err
	}

	// Value channels must be numeric.
	numeric := func(ch, col string) error {
		if col == "" {
			return nil
		}
		c, _ := s.Lookup(col)
		if c.Kind != dataset.Number {
			return &errs.MappingError{Channel: ch, Column: col, Detail: fmt.Sprintf("must be a number column, not %s", c.Kind)}
		}
		return nil
	}
	switch g {
	case Bar, Area:
		err = numeric("y", m.Y)
	case Arc:
		err = numeric("y", m.Y)
	}
	if err == nil {
		err = numeric("size", m.Size)
	}
	if err != nil {
		return nil, err
	}

	for _, ch := range []struct{ name, col string }{{"color", m.Color}, {"fill", m.Fill}} {
		if ch.col == "" || !isDiscrete(s, ch.col) {
			continue
		}
		cm := palettes[ch.col]
		cats, _ := data.Distinct(ch.col)
		if cm == nil {
			return nil, &errs.MappingError{Channel: ch.name, Column: ch.col, Detail: fmt.Sprintf("no palette for %d categories", len(cats))}
		}
		if len(cats) > cm.Len() {
			return nil, &errs.MappingError{Channel: ch.name, Column: ch.col, Detail: fmt.Sprintf("%d categories but palette has %d colors", len(cats), cm.Len())}
		}
		for _, c := range cats {
			if _, ok := cm.Color(c); !ok {
				return nil, &errs.MappingError{Channel: ch.name, Column: ch.col, Detail: fmt.Sprintf("category %q has no color", c)}
			}
		}
	}

	if m.Shape != "" {
		if !isDiscrete(s, m.Shape) {
			return nil, &errs.MappingError{Channel: "shape", Column: m.Shape, Detail: "must be a discrete column"}
		}
		cats, _ := data.Distinct(m.Shape)
		if len(cats) > len(shapes) {
			return nil, &errs.MappingError{Channel: "shape", Column: m.Shape, Detail: fmt.Sprintf("%d categories but only %d shapes", len(cats), len(shapes))}
		}
	}

	return &Layer{data: data, geom: g, mapping: m, palettes: palettes}, nil
}

// Data returns the layer's dataset.
func (l *Layer) Data() *dataset.Dataset { return l.data }

// Geometry returns the layer's geometry.
func (l *Layer) Geometry() Geometry { return l.geom }

// Mapping returns the layer's mapping.
func (l *Layer) Mapping() Mapping { return l.mapping }

func isDiscrete(s *dataset.Schema, col string) bool {
	c, _ := s.Lookup(col)
	return c.Kind == dataset.String || c.Kind == dataset.Bool
}

// usesAxes reports whether l is drawn in x/y coordinates.
func (l *Layer) usesAxes() bool { return l.geom != Arc }

// zeroBased reports whether l's y extent must include zero.
func (l *Layer) zeroBased() bool { return l.geom == Bar || l.geom == Area }
