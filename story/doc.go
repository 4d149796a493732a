// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package story runs data-story documents.
//
// A story document is a YAML file naming a source table, a sequence
// of derived tables computed from it, and the figures to draw from
// those tables. Running a document takes it through the stages
// Loaded, Aggregated, LaidOut, and Rendered, in that order. Every
// figure of a document shares the document's loaded and aggregated
// tables but is laid out and rendered independently, so one figure's
// failure does not affect the others.
package story

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/storyplot/storyplot/aggregate"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
	"github.com/storyplot/storyplot/render"
	"gopkg.in/yaml.v3"
)

// SourceTable is the name by which tables and layers refer to a
// document's loaded source.
const SourceTable = "source"

// A Document is a parsed story document.
type Document struct {
	Name    string   `yaml:"name"`
	Source  Source   `yaml:"source"`
	Tables  []Table  `yaml:"tables"`
	Figures []Figure `yaml:"figures"`

	// path is the file the document was read from, if any.
	// Relative source paths are resolved against its directory.
	path string
}

// Source describes where a document's data comes from.
type Source struct {
	Path    string   `yaml:"path"`
	URL     string   `yaml:"url"`
	Format  string   `yaml:"format"`
	Columns []Column `yaml:"columns"`
}

// A Column declares one column of the source schema.
type Column struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Layout string `yaml:"layout"`
}

// A Table is a derived table. Its steps apply in this order: filter,
// then at most one of reduce (with group), cooccurrence, quantiles,
// density, ecdf, or smooth, then lump, proportion, unpivot, select,
// order, sort, and head.
type Table struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`

	Filter []Filter `yaml:"filter"`

	Group        []string      `yaml:"group"`
	Reduce       []Reduce      `yaml:"reduce"`
	Cooccurrence []string      `yaml:"cooccurrence"`
	Quantiles    *Quantiles    `yaml:"quantiles"`
	Density      *Distribution `yaml:"density"`
	ECDF         *Distribution `yaml:"ecdf"`
	Smooth       *Smooth       `yaml:"smooth"`

	Lump       *Lump       `yaml:"lump"`
	Proportion *Proportion `yaml:"proportion"`
	Unpivot    *Unpivot    `yaml:"unpivot"`
	Select     []string    `yaml:"select"`
	Order      *Order      `yaml:"order"`
	Sort       *Sort       `yaml:"sort"`
	Head       int         `yaml:"head"`
}

// A Filter keeps the rows whose Column satisfies Op. Ops are notna,
// na, eq, ne, lt, le, gt, ge (against Value), and in (against
// Values).
type Filter struct {
	Column string   `yaml:"column"`
	Op     string   `yaml:"op"`
	Value  string   `yaml:"value"`
	Values []string `yaml:"values"`
}

type Reduce struct {
	Out    string  `yaml:"out"`
	Column string  `yaml:"column"`
	Fn     string  `yaml:"fn"`
	Weight string  `yaml:"weight"`
	P      float64 `yaml:"p"`
}

type Quantiles struct {
	Column string    `yaml:"column"`
	Probs  []float64 `yaml:"probs"`
}

// Distribution configures a density or ECDF step. N is the number of
// density sample points; 0 means the default.
type Distribution struct {
	X string `yaml:"x"`
	N int    `yaml:"n"`
}

type Smooth struct {
	X      string  `yaml:"x"`
	Y      string  `yaml:"y"`
	Method string  `yaml:"method"`
	Degree int     `yaml:"degree"`
	Span   float64 `yaml:"span"`
	N      int     `yaml:"n"`
}

type Lump struct {
	Category string  `yaml:"category"`
	Value    string  `yaml:"value"`
	Strategy string  `yaml:"strategy"`
	Param    float64 `yaml:"param"`
}

type Proportion struct {
	Value string `yaml:"value"`
	Out   string `yaml:"out"`
}

type Unpivot struct {
	Key     string   `yaml:"key"`
	Value   string   `yaml:"value"`
	Columns []string `yaml:"columns"`
}

// An Order is a category display order. As a table step it reorders
// the rows of Column; in a palette it orders the palette's
// categories.
//
// By is one of appearance, value, secondary, or list. Value and
// Secondary name the ranking columns and Direction is ascending or
// descending. Table names the table to rank in; it is only used by
// palettes.
type Order struct {
	Column    string   `yaml:"column"`
	By        string   `yaml:"by"`
	Table     string   `yaml:"table"`
	Value     string   `yaml:"value"`
	Secondary string   `yaml:"secondary"`
	Direction string   `yaml:"direction"`
	List      []string `yaml:"list"`
}

type Sort struct {
	Column     string `yaml:"column"`
	Descending bool   `yaml:"descending"`
}

// A Figure is one output image.
type Figure struct {
	Name       string    `yaml:"name"`
	Output     string    `yaml:"output"`
	Width      int       `yaml:"width"`
	Height     int       `yaml:"height"`
	Background string    `yaml:"background"`
	Palette    *Palette  `yaml:"palette"`
	Palettes   []Palette `yaml:"palettes"`
	Theme      Theme     `yaml:"theme"`
	Panels     []Panel   `yaml:"panels"`
	Layout     Layout    `yaml:"layout"`
}

// A Palette assigns colors to the categories of column Categories.
// Colors defaults to render.Dark2.
type Palette struct {
	Categories string   `yaml:"categories"`
	Colors     []string `yaml:"colors"`
	Order      *Order   `yaml:"order"`
}

// Theme holds partial theme overrides. Unset fields keep the default
// theme's values.
type Theme struct {
	Background      *string  `yaml:"background"`
	PanelBackground *string  `yaml:"panel_background"`
	GridColor       *string  `yaml:"grid_color"`
	AxisColor       *string  `yaml:"axis_color"`
	TextColor       *string  `yaml:"text_color"`
	MarkColor       *string  `yaml:"mark_color"`
	FontFamily      *string  `yaml:"font_family"`
	FontSize        *float64 `yaml:"font_size"`
	TitleSize       *float64 `yaml:"title_size"`
	Margin          *float64 `yaml:"margin"`
	Padding         *float64 `yaml:"padding"`
	TickLength      *float64 `yaml:"tick_length"`
	LineWidth       *float64 `yaml:"line_width"`
	PointSize       *float64 `yaml:"point_size"`
	BarWidth        *float64 `yaml:"bar_width"`
	Locale          *string  `yaml:"locale"`
}

type Panel struct {
	Name   string  `yaml:"name"`
	Title  string  `yaml:"title"`
	XLabel string  `yaml:"x_label"`
	YLabel string  `yaml:"y_label"`
	Flip   bool    `yaml:"flip"`
	Layers []Layer `yaml:"layers"`
}

// A Layer draws table Table (the source if empty) with Geometry.
type Layer struct {
	Table    string `yaml:"table"`
	Geometry string `yaml:"geometry"`
	X        string `yaml:"x"`
	Y        string `yaml:"y"`
	Color    string `yaml:"color"`
	Fill     string `yaml:"fill"`
	Size     string `yaml:"size"`
	Shape    string `yaml:"shape"`
	Label    string `yaml:"label"`
	Group    string `yaml:"group"`
}

type Layout struct {
	Cells   [][]string  `yaml:"cells"`
	Place   []Placement `yaml:"place"`
	Widths  []float64   `yaml:"widths"`
	Heights []float64   `yaml:"heights"`
	Legend  string      `yaml:"legend"`
	Title   string      `yaml:"title"`
	Caption string      `yaml:"caption"`
	ShareX  bool        `yaml:"share_x"`
	ShareY  bool        `yaml:"share_y"`
}

type Placement struct {
	Panel string   `yaml:"panel"`
	Cells []string `yaml:"cells"`
}

// Parse reads a document from r. Unknown fields are errors.
//
// Parse checks the document's source and tables. Figures are checked
// when they are laid out, so that one bad figure does not keep the
// others from rendering; use Check to check everything up front.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	doc := new(Document)
	if err := dec.Decode(doc); err != nil {
		if err == io.EOF {
			return nil, &errs.ValueError{Op: "parse", Detail: "empty document"}
		}
		return nil, &errs.ValueError{Op: "parse", Detail: err.Error()}
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadFile reads and parses the document in file path. A document
// with no name is named after its file.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.IOError{Op: "read", Path: path, Err: err}
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.path = path
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Path returns the file d was read from, or "".
func (d *Document) Path() string { return d.path }

// SourceLocation returns the path or URL of d's source. Relative
// paths are resolved against the directory of d's file.
func (d *Document) SourceLocation() string {
	if d.Source.URL != "" {
		return d.Source.URL
	}
	if d.path == "" || filepath.IsAbs(d.Source.Path) {
		return d.Source.Path
	}
	return filepath.Join(filepath.Dir(d.path), d.Source.Path)
}

// Figure returns the figure named name.
func (d *Document) Figure(name string) (*Figure, bool) {
	for i := range d.Figures {
		if d.Figures[i].Name == name {
			return &d.Figures[i], true
		}
	}
	return nil, false
}

// Check checks the whole document, including every figure.
func (d *Document) Check() error {
	if err := d.validate(); err != nil {
		return err
	}
	for i := range d.Figures {
		if err := d.checkFigure(&d.Figures[i]); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return &errs.ValueError{Op: "story", Detail: fmt.Sprintf(format, args...)}
}

func (d *Document) validate() error {
	src := d.Source
	switch {
	case src.Path == "" && src.URL == "":
		return invalid("source needs a path or a url")
	case src.Path != "" && src.URL != "":
		return invalid("source has both a path and a url")
	}
	if _, err := dataset.ParseFormat(src.Format); err != nil {
		return invalid("source: %v", err)
	}
	if _, err := d.schema(); err != nil {
		return err
	}

	known := map[string]bool{SourceTable: true}
	for i, t := range d.Tables {
		if t.Name == "" {
			return invalid("table %d has no name", i+1)
		}
		if known[t.Name] {
			return invalid("table %q defined twice", t.Name)
		}
		if from := t.from(); !known[from] {
			return invalid("table %q: unknown table %q (tables may only use earlier tables)", t.Name, from)
		}
		if err := t.validate(); err != nil {
			return err
		}
		known[t.Name] = true
	}

	figs := make(map[string]bool)
	for i, f := range d.Figures {
		if f.Name == "" {
			return invalid("figure %d has no name", i+1)
		}
		if figs[f.Name] {
			return invalid("figure %q defined twice", f.Name)
		}
		figs[f.Name] = true
	}
	return nil
}

// schema returns the declared source schema, or nil if the document
// declares none.
func (d *Document) schema() (*dataset.Schema, error) {
	if len(d.Source.Columns) == 0 {
		return nil, nil
	}
	cols := make([]dataset.Column, len(d.Source.Columns))
	for i, c := range d.Source.Columns {
		k, err := dataset.ParseKind(c.Kind)
		if err != nil {
			return nil, invalid("source column %q: %v", c.Name, err)
		}
		cols[i] = dataset.Column{Name: c.Name, Kind: k, Layout: c.Layout}
	}
	return dataset.NewSchema(cols...)
}

func (t *Table) from() string {
	if t.From == "" {
		return SourceTable
	}
	return t.From
}

func (t *Table) validate() error {
	shapes := 0
	for _, set := range []bool{len(t.Reduce) > 0, len(t.Cooccurrence) > 0, t.Quantiles != nil, t.Density != nil, t.ECDF != nil, t.Smooth != nil} {
		if set {
			shapes++
		}
	}
	if shapes > 1 {
		return invalid("table %q: reduce, cooccurrence, quantiles, density, ecdf, and smooth are mutually exclusive", t.Name)
	}
	if len(t.Group) > 0 && shapes == 0 {
		return invalid("table %q: group needs a reduce or distribution step", t.Name)
	}
	if len(t.Group) > 0 && len(t.Cooccurrence) > 0 {
		return invalid("table %q: cooccurrence cannot be grouped", t.Name)
	}
	for _, f := range t.Filter {
		if _, err := parseFilterOp(f.Op); err != nil {
			return invalid("table %q: %v", t.Name, err)
		}
	}
	for _, r := range t.Reduce {
		if r.Out == "" {
			return invalid("table %q: reducer has no output column", t.Name)
		}
		if _, err := aggregate.ParseFunc(r.Fn); err != nil {
			return invalid("table %q: %v", t.Name, err)
		}
	}
	if t.Smooth != nil {
		if _, err := aggregate.ParseSmoothMethod(t.Smooth.Method); err != nil {
			return invalid("table %q: %v", t.Name, err)
		}
	}
	if t.Lump != nil {
		if _, err := aggregate.ParseStrategy(t.Lump.Strategy); err != nil {
			return invalid("table %q: %v", t.Name, err)
		}
	}
	if t.Order != nil {
		if t.Order.Column == "" {
			return invalid("table %q: order has no column", t.Name)
		}
		if _, err := t.Order.order(); err != nil {
			return invalid("table %q: %v", t.Name, err)
		}
	}
	if t.Head < 0 {
		return invalid("table %q: negative head %d", t.Name, t.Head)
	}
	return nil
}

// order converts o to an aggregate.Order.
func (o *Order) order() (aggregate.Order, error) {
	desc := true
	switch strings.ToLower(o.Direction) {
	case "", "desc", "descending":
	case "asc", "ascending":
		desc = false
	default:
		return aggregate.Order{}, fmt.Errorf("unknown order direction %q", o.Direction)
	}
	switch strings.ToLower(o.By) {
	case "", "value", "frequency":
		if desc {
			return aggregate.Order{Kind: aggregate.Descending}, nil
		}
		return aggregate.Order{Kind: aggregate.Ascending}, nil
	case "secondary":
		if o.Secondary == "" {
			return aggregate.Order{}, fmt.Errorf("secondary order of %q has no secondary column", o.Column)
		}
		return aggregate.Order{Kind: aggregate.BySecondary, Secondary: o.Secondary, Descending: desc}, nil
	case "list", "explicit":
		return aggregate.Order{Kind: aggregate.Explicit, List: o.List}, nil
	case "appearance":
		return aggregate.Order{Kind: aggregate.Appearance}, nil
	}
	return aggregate.Order{}, fmt.Errorf("unknown category order %q", o.By)
}

// checkFigure checks everything about f that does not need data.
func (d *Document) checkFigure(f *Figure) error {
	fail := func(format string, args ...interface{}) error {
		return invalid("figure %q: %s", f.Name, fmt.Sprintf(format, args...))
	}
	if f.Width < 0 || f.Height < 0 {
		return fail("negative size %dx%d", f.Width, f.Height)
	}
	if f.Output != "" {
		if _, err := render.FormatOf(f.Output); err != nil {
			return fail("%v", err)
		}
	}
	if f.Background != "" {
		if _, err := render.ParseColor(f.Background); err != nil {
			return fail("background: %v", err)
		}
	}
	if _, err := f.Theme.override(); err != nil {
		return fail("theme: %v", err)
	}
	if _, err := render.ParseLegendMode(f.Layout.Legend); err != nil {
		return fail("%v", err)
	}

	tables := map[string]bool{SourceTable: true}
	for _, t := range d.Tables {
		tables[t.Name] = true
	}
	for _, p := range f.palettes() {
		if p.Categories == "" {
			return fail("palette has no categories column")
		}
		if _, err := render.ParseColors(p.Colors); err != nil {
			return fail("palette for %q: %v", p.Categories, err)
		}
		if p.Order != nil {
			if _, err := p.Order.order(); err != nil {
				return fail("palette for %q: %v", p.Categories, err)
			}
			if p.Order.Table != "" && !tables[p.Order.Table] {
				return fail("palette for %q: unknown table %q", p.Categories, p.Order.Table)
			}
		}
	}
	if len(f.Panels) == 0 {
		return fail("no panels")
	}
	for _, p := range f.Panels {
		if len(p.Layers) == 0 {
			return fail("panel %q has no layers", p.Name)
		}
		for _, l := range p.Layers {
			if !tables[l.table()] {
				return fail("panel %q: unknown table %q", p.Name, l.table())
			}
			if _, err := render.ParseGeometry(l.Geometry); err != nil {
				return fail("panel %q: %v", p.Name, err)
			}
		}
	}
	return nil
}

// palettes returns all of f's palettes.
func (f *Figure) palettes() []Palette {
	var ps []Palette
	if f.Palette != nil {
		ps = append(ps, *f.Palette)
	}
	return append(ps, f.Palettes...)
}

func (l *Layer) table() string {
	if l.Table == "" {
		return SourceTable
	}
	return l.Table
}

// override converts t to a render.ThemeOverride.
func (t *Theme) override() (render.ThemeOverride, error) {
	o := render.ThemeOverride{
		FontFamily: t.FontFamily,
		FontSize:   t.FontSize,
		TitleSize:  t.TitleSize,
		Margin:     t.Margin,
		Padding:    t.Padding,
		TickLength: t.TickLength,
		LineWidth:  t.LineWidth,
		PointSize:  t.PointSize,
		BarWidth:   t.BarWidth,
		Locale:     t.Locale,
	}
	for _, c := range []struct {
		in  *string
		out **color.RGBA
	}{
		{t.Background, &o.Background},
		{t.PanelBackground, &o.PanelBackground},
		{t.GridColor, &o.GridColor},
		{t.AxisColor, &o.AxisColor},
		{t.TextColor, &o.TextColor},
		{t.MarkColor, &o.MarkColor},
	} {
		if c.in == nil {
			continue
		}
		col, err := render.ParseColor(*c.in)
		if err != nil {
			return o, err
		}
		*c.out = &col
	}
	return o, nil
}
