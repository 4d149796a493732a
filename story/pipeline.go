// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package story

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
	"github.com/storyplot/storyplot/render"
	"go.uber.org/zap"
)

// A Stage is a step of a document's pipeline.
type Stage int

const (
	// Parsed is the stage of a document that has not been loaded.
	Parsed Stage = iota
	Loaded
	Aggregated
	LaidOut
	Rendered
)

var stageNames = [...]string{"parsed", "loaded", "aggregated", "laid-out", "rendered"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// ErrStage is returned when a pipeline step is run out of order.
var ErrStage = errors.New("pipeline stage out of order")

// Frame is the size and background of an image. Zero fields are
// unset.
type Frame struct {
	Width, Height int
	Background    string
}

// DefaultFrame is used for anything neither the document nor the
// caller sets.
var DefaultFrame = Frame{Width: 1000, Height: 700, Background: "#ffffff"}

// Options configure running documents.
type Options struct {
	// OutDir is the directory figures are written to. Relative
	// figure outputs are resolved against it.
	OutDir string

	// Defaults applies to figures that do not set a field.
	// Overrides applies regardless of what figures set.
	Defaults, Overrides Frame

	// Logger receives stage transitions and failures. If nil,
	// nothing is logged.
	Logger *zap.Logger

	// Workers bounds how many documents RunBatch runs at once. If
	// 0, it runs one per CPU.
	Workers int
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// frame resolves the frame of f: overrides, then f, then defaults,
// then DefaultFrame.
func (o *Options) frame(f *Figure) Frame {
	own := Frame{f.Width, f.Height, f.Background}
	if own.Background == "" && f.Theme.Background != nil {
		own.Background = *f.Theme.Background
	}
	out := o.Overrides
	for _, fr := range []Frame{own, o.Defaults, DefaultFrame} {
		if out.Width == 0 {
			out.Width = fr.Width
		}
		if out.Height == 0 {
			out.Height = fr.Height
		}
		if out.Background == "" {
			out.Background = fr.Background
		}
	}
	return out
}

// A Pipeline runs one document.
//
// The document's source is loaded once and its tables are computed
// once. Any number of figures can then be laid out and rendered from
// them. A Pipeline is not safe for concurrent use.
type Pipeline struct {
	doc   *Document
	opts  Options
	log   *zap.Logger
	stage Stage

	tables map[string]*dataset.Dataset
	order  []string
}

// NewPipeline returns a pipeline for doc in stage Parsed.
func NewPipeline(doc *Document, opts Options) *Pipeline {
	return &Pipeline{
		doc:  doc,
		opts: opts,
		log:  opts.logger().With(zap.String("document", doc.Name)),
	}
}

// Stage returns the last document-level stage p completed.
func (p *Pipeline) Stage() Stage { return p.stage }

func (p *Pipeline) need(s Stage, op string) error {
	if p.stage != s {
		return fmt.Errorf("%s %s: %w: document is %s, need %s", op, p.doc.Name, ErrStage, p.stage, s)
	}
	return nil
}

// Load reads the document's source.
func (p *Pipeline) Load(ctx context.Context) error {
	if err := p.need(Parsed, "load"); err != nil {
		return err
	}
	s, err := p.doc.schema()
	if err != nil {
		return err
	}
	format, err := dataset.ParseFormat(p.doc.Source.Format)
	if err != nil {
		return &errs.ValueError{Op: "load", Detail: err.Error()}
	}
	loc := p.doc.SourceLocation()
	d, err := dataset.Open(ctx, loc, dataset.LoadOptions{Format: format, Schema: s})
	if err != nil {
		return err
	}
	p.tables = map[string]*dataset.Dataset{SourceTable: d}
	p.order = []string{SourceTable}
	p.advance(Loaded, zap.String("path", loc), zap.Int("rows", d.Len()))
	return nil
}

// SetSource loads d as the document's source in place of reading it.
func (p *Pipeline) SetSource(d *dataset.Dataset) error {
	if err := p.need(Parsed, "load"); err != nil {
		return err
	}
	p.tables = map[string]*dataset.Dataset{SourceTable: d}
	p.order = []string{SourceTable}
	p.advance(Loaded, zap.Int("rows", d.Len()))
	return nil
}

// Aggregate computes the document's tables in order.
func (p *Pipeline) Aggregate() error {
	if err := p.need(Loaded, "aggregate"); err != nil {
		return err
	}
	tables := make(map[string]*dataset.Dataset, len(p.doc.Tables)+1)
	tables[SourceTable] = p.tables[SourceTable]
	order := []string{SourceTable}
	for i := range p.doc.Tables {
		t := &p.doc.Tables[i]
		in, ok := tables[t.from()]
		if !ok {
			return &errs.ValueError{Op: "aggregate", Detail: fmt.Sprintf("table %q: unknown table %q", t.Name, t.from())}
		}
		out, err := t.build(in)
		if err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		p.log.Debug("table built", zap.String("table", t.Name), zap.Int("rows", out.Len()))
		tables[t.Name] = out
		order = append(order, t.Name)
	}
	p.tables, p.order = tables, order
	p.advance(Aggregated, zap.Int("tables", len(order)-1))
	return nil
}

func (p *Pipeline) advance(s Stage, fields ...zap.Field) {
	p.stage = s
	p.log.Debug("stage", append([]zap.Field{zap.Stringer("stage", s)}, fields...)...)
}

// Table returns the table named name. The source is available once
// the document is loaded; derived tables once it is aggregated.
func (p *Pipeline) Table(name string) (*dataset.Dataset, error) {
	if p.stage < Loaded {
		return nil, fmt.Errorf("table %s: %w: document is %s", name, ErrStage, p.stage)
	}
	t, ok := p.tables[name]
	if !ok {
		if p.stage < Aggregated {
			return nil, fmt.Errorf("table %s: %w: document is %s", name, ErrStage, p.stage)
		}
		return nil, &errs.ValueError{Op: "table", Detail: fmt.Sprintf("no table %q (have %v)", name, p.order)}
	}
	return t, nil
}

// TableNames returns the names of the available tables in definition
// order, starting with SourceTable.
func (p *Pipeline) TableNames() []string {
	return append([]string(nil), p.order...)
}

// A Laid is a figure that has been laid out and is ready to render.
type Laid struct {
	Figure    *Figure
	Composite *render.Composite
	Theme     render.Theme
	Frame     Frame
	Target    string

	stage Stage
}

// Stage returns the stage l has reached.
func (l *Laid) Stage() Stage { return l.stage }

// Layout lays out the figure named name.
func (p *Pipeline) Layout(name string) (*Laid, error) {
	if err := p.need(Aggregated, "layout"); err != nil {
		return nil, err
	}
	f, ok := p.doc.Figure(name)
	if !ok {
		return nil, &errs.ValueError{Op: "layout", Detail: fmt.Sprintf("no figure %q", name)}
	}
	l, err := p.layout(f)
	if err != nil {
		return nil, err
	}
	p.log.Debug("stage", zap.String("figure", name), zap.Stringer("stage", LaidOut))
	return l, nil
}

// Render draws l to its target, creating the output directory if
// needed.
func (p *Pipeline) Render(l *Laid) error {
	if l == nil || l.stage != LaidOut {
		return fmt.Errorf("render: %w: figure is not laid out", ErrStage)
	}
	bg, err := render.ParseColor(l.Frame.Background)
	if err != nil {
		return &errs.ValueError{Op: "render", Detail: err.Error()}
	}
	if err := os.MkdirAll(filepath.Dir(l.Target), 0o777); err != nil {
		return &errs.IOError{Op: "write", Path: l.Target, Err: err}
	}
	theme := l.Theme
	err = render.Render(l.Composite, l.Target, render.Options{
		Width:      l.Frame.Width,
		Height:     l.Frame.Height,
		Theme:      &theme,
		Background: bg,
	})
	if err != nil {
		return err
	}
	l.stage = Rendered
	p.log.Info("rendered", zap.String("figure", l.Figure.Name), zap.Stringer("stage", Rendered), zap.String("path", l.Target))
	return nil
}

// target returns the output path of f.
func (p *Pipeline) target(f *Figure) string {
	out := f.Output
	if out == "" {
		out = f.Name + ".png"
	}
	if filepath.IsAbs(out) {
		return out
	}
	dir := p.opts.OutDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, out)
}

// A Result is the outcome of one figure.
type Result struct {
	Document string
	Figure   string
	Path     string

	// Stage is the last stage the figure reached. A figure that
	// failed before it could be laid out reports its document's
	// stage.
	Stage Stage
	Err   error
}

// Run loads and aggregates the document, then lays out and renders
// each of its figures. A figure's failure is recorded in its result
// and does not stop the others. If the document cannot be loaded or
// aggregated, every figure fails with that error.
func (p *Pipeline) Run(ctx context.Context) []Result {
	results := make([]Result, len(p.doc.Figures))
	for i, f := range p.doc.Figures {
		results[i] = Result{Document: p.doc.Name, Figure: f.Name, Path: p.target(&p.doc.Figures[i])}
	}
	fail := func(err error) []Result {
		p.log.Error("document failed", zap.Stringer("stage", p.stage), zap.String("kind", errs.Kind(err)), zap.Error(err))
		for i := range results {
			results[i].Stage, results[i].Err = p.stage, err
		}
		return results
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if p.stage == Parsed {
		if err := p.Load(ctx); err != nil {
			return fail(err)
		}
	}
	if p.stage == Loaded {
		if err := p.Aggregate(); err != nil {
			return fail(err)
		}
	}
	for i := range results {
		r := &results[i]
		if err := ctx.Err(); err != nil {
			r.Stage, r.Err = p.stage, err
			continue
		}
		r.Stage = p.stage
		l, err := p.Layout(r.Figure)
		if err == nil {
			r.Stage = LaidOut
			err = p.Render(l)
		}
		if err != nil {
			r.Err = err
			p.log.Error("figure failed", zap.String("figure", r.Figure), zap.Stringer("stage", r.Stage), zap.String("kind", errs.Kind(err)), zap.Error(err))
			continue
		}
		r.Stage = Rendered
	}
	return results
}
