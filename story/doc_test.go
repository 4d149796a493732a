// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package story

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/storyplot/storyplot/aggregate"
	"github.com/storyplot/storyplot/internal/errs"
)

func TestReadFile(t *testing.T) {
	doc, err := ReadFile(filepath.Join("testdata", "penguins.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "penguins" {
		t.Errorf("Name = %q", doc.Name)
	}
	if got, want := doc.SourceLocation(), filepath.Join("testdata", "penguins.csv"); got != want {
		t.Errorf("SourceLocation = %q, want %q", got, want)
	}
	var tables []string
	for _, tb := range doc.Tables {
		tables = append(tables, tb.Name)
	}
	if diff := cmp.Diff([]string{"measured", "by_species", "by_island", "mass_density", "fit"}, tables); diff != "" {
		t.Errorf("tables (-want +got):\n%s", diff)
	}
	f, ok := doc.Figure("overview")
	if !ok {
		t.Fatal("no overview figure")
	}
	if f.Palette == nil || f.Palette.Categories != "species" || f.Palette.Order.Table != "by_species" {
		t.Errorf("palette = %+v", f.Palette)
	}
	if f.Theme.FontSize == nil || *f.Theme.FontSize != 11 || f.Theme.Margin != nil {
		t.Errorf("theme = %+v", f.Theme)
	}
	if err := doc.Check(); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestParseUnnamed(t *testing.T) {
	doc, err := Parse(strings.NewReader("source: {path: x.csv}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "" || doc.SourceLocation() != "x.csv" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		name, doc string
	}{
		{"empty", ""},
		{"syntax", "source: [\n"},
		{"unknown field", "source: {path: a.csv}\ncolour: red\n"},
		{"no source", "name: x\n"},
		{"path and url", "source: {path: a.csv, url: 'http://x/a.csv'}\n"},
		{"bad format", "source: {path: a.csv, format: xlsx}\n"},
		{"bad kind", "source: {path: a.csv, columns: [{name: a, kind: complex}]}\n"},
		{"duplicate column", "source: {path: a.csv, columns: [{name: a, kind: number}, {name: a, kind: string}]}\n"},
		{"unnamed table", "source: {path: a.csv}\ntables: [{group: [a], reduce: [{out: n, fn: count}]}]\n"},
		{"duplicate table", "source: {path: a.csv}\ntables: [{name: t}, {name: t}]\n"},
		{"table named source", "source: {path: a.csv}\ntables: [{name: source}]\n"},
		{"forward reference", "source: {path: a.csv}\ntables: [{name: a, from: b}, {name: b}]\n"},
		{"two shapes", "source: {path: a.csv}\ntables: [{name: t, reduce: [{out: n, fn: count}], ecdf: {x: a}}]\n"},
		{"group without reduce", "source: {path: a.csv}\ntables: [{name: t, group: [a]}]\n"},
		{"bad reducer", "source: {path: a.csv}\ntables: [{name: t, reduce: [{out: n, fn: mode}]}]\n"},
		{"reducer without output", "source: {path: a.csv}\ntables: [{name: t, reduce: [{fn: count}]}]\n"},
		{"bad filter", "source: {path: a.csv}\ntables: [{name: t, filter: [{column: a, op: like}]}]\n"},
		{"bad strategy", "source: {path: a.csv}\ntables: [{name: t, lump: {category: a, strategy: bottom}}]\n"},
		{"bad order", "source: {path: a.csv}\ntables: [{name: t, order: {column: a, by: size}}]\n"},
		{"secondary without column", "source: {path: a.csv}\ntables: [{name: t, order: {column: a, by: secondary}}]\n"},
		{"duplicate figure", "source: {path: a.csv}\nfigures: [{name: f}, {name: f}]\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(test.doc))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if errs.Kind(err) == "" {
				t.Errorf("untyped error %v", err)
			}
		})
	}
}

func TestCheckFigures(t *testing.T) {
	const head = "source: {path: a.csv}\ntables: [{name: t}]\nfigures:\n"
	layer := "panels: [{name: p, layers: [{geometry: point, x: a, y: b}]}]"
	for _, test := range []struct {
		name, fig string
	}{
		{"no panels", "  - {name: f}\n"},
		{"no layers", "  - {name: f, panels: [{name: p}]}\n"},
		{"unknown table", "  - {name: f, panels: [{name: p, layers: [{table: u, geometry: bar, x: a, y: b}]}]}\n"},
		{"bad geometry", "  - {name: f, panels: [{name: p, layers: [{geometry: violin, x: a, y: b}]}]}\n"},
		{"bad output", "  - {name: f, output: f.gif, " + layer + "}\n"},
		{"bad background", "  - {name: f, background: mauve-ish, " + layer + "}\n"},
		{"bad theme color", "  - {name: f, theme: {grid_color: '#12'}, " + layer + "}\n"},
		{"bad legend", "  - {name: f, layout: {legend: floating}, " + layer + "}\n"},
		{"negative size", "  - {name: f, width: -1, " + layer + "}\n"},
		{"palette without column", "  - {name: f, palette: {colors: [red]}, " + layer + "}\n"},
		{"bad palette color", "  - {name: f, palette: {categories: a, colors: [nope]}, " + layer + "}\n"},
		{"palette table unknown", "  - {name: f, palette: {categories: a, order: {table: u}}, " + layer + "}\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(head + test.fig))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if err := doc.Check(); !errs.IsValue(err) {
				t.Errorf("Check: want ValueError, got %v", err)
			}
		})
	}

	doc, err := Parse(strings.NewReader(head + "  - {name: f, output: f.svg, theme: {mark_color: steelblue}, " + layer + "}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Check(); err != nil {
		t.Errorf("valid figure: %v", err)
	}
}

func TestOrder(t *testing.T) {
	for _, test := range []struct {
		o    Order
		want aggregate.Order
	}{
		{Order{}, aggregate.Order{Kind: aggregate.Descending}},
		{Order{Direction: "ascending"}, aggregate.Order{Kind: aggregate.Ascending}},
		{Order{By: "secondary", Secondary: "b", Direction: "desc"}, aggregate.Order{Kind: aggregate.BySecondary, Secondary: "b", Descending: true}},
		{Order{By: "list", List: []string{"x"}}, aggregate.Order{Kind: aggregate.Explicit, List: []string{"x"}}},
		{Order{By: "appearance"}, aggregate.Order{Kind: aggregate.Appearance}},
	} {
		got, err := test.o.order()
		if err != nil {
			t.Errorf("%+v: %v", test.o, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("%+v.order() (-want +got):\n%s", test.o, diff)
		}
	}
	if _, err := (&Order{Direction: "sideways"}).order(); err == nil {
		t.Errorf("bad direction accepted")
	}
}
