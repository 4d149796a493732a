// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"math"
	"testing"

	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

func testPanel(t *testing.T, name string) *Panel {
	t.Helper()
	l, err := MakeLayer(species(), Point, Mapping{X: "flipper", Y: "mass"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPanel(name, l)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestComposeOverlap(t *testing.T) {
	a, b := testPanel(t, "a"), testPanel(t, "b")
	_, err := Compose([]*Panel{a, b}, LayoutSpec{
		Cells: [][]string{{"left", "right"}},
		Place: []Placement{
			{Panel: "a", Cells: []string{"left"}},
			{Panel: "b", Cells: []string{"left"}},
		},
	})
	if !errs.IsLayout(err) {
		t.Fatalf("two panels in one cell: want LayoutError, got %v", err)
	}
}

func TestComposeErrors(t *testing.T) {
	a, b := testPanel(t, "a"), testPanel(t, "b")
	for _, test := range []struct {
		name   string
		panels []*Panel
		spec   LayoutSpec
	}{
		{"never placed", []*Panel{a, b}, LayoutSpec{
			Cells: [][]string{{"a", "x"}},
			Place: []Placement{{Panel: "a", Cells: []string{"a"}}},
		}},
		{"default placement without cell", []*Panel{a, b}, LayoutSpec{
			Cells: [][]string{{"a", "."}},
		}},
		{"ragged rows", []*Panel{a}, LayoutSpec{
			Cells: [][]string{{"a", "b"}, {"a"}},
		}},
		{"non-rectangular cell", []*Panel{a}, LayoutSpec{
			Cells: [][]string{{"a", "a"}, {"a", "."}},
		}},
		{"unknown cell", []*Panel{a}, LayoutSpec{
			Cells: [][]string{{"x"}},
			Place: []Placement{{Panel: "a", Cells: []string{"y"}}},
		}},
		{"unknown panel", []*Panel{a}, LayoutSpec{
			Cells: [][]string{{"x", "y"}},
			Place: []Placement{{Panel: "a", Cells: []string{"x"}}, {Panel: "z", Cells: []string{"y"}}},
		}},
		{"panel placed twice", []*Panel{a}, LayoutSpec{
			Cells: [][]string{{"x", "y"}},
			Place: []Placement{{Panel: "a", Cells: []string{"x"}}, {Panel: "a", Cells: []string{"y"}}},
		}},
		{"placement not rectangular", []*Panel{a}, LayoutSpec{
			Cells: [][]string{{"x", "y"}, {"z", "w"}},
			Place: []Placement{{Panel: "a", Cells: []string{"x", "w"}}},
		}},
		{"duplicate panel names", []*Panel{a, a}, LayoutSpec{}},
		{"wrong number of widths", []*Panel{a}, LayoutSpec{
			Cells:  [][]string{{"a"}},
			Widths: []float64{1, 2},
		}},
		{"zero height", []*Panel{a}, LayoutSpec{
			Cells:   [][]string{{"a"}},
			Heights: []float64{0},
		}},
		{"NaN width", []*Panel{a}, LayoutSpec{
			Cells:  [][]string{{"a"}},
			Widths: []float64{math.NaN()},
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := Compose(test.panels, test.spec)
			if !errs.IsLayout(err) {
				t.Errorf("want LayoutError, got %v", err)
			}
		})
	}
}

func TestComposeSpans(t *testing.T) {
	a, b, c := testPanel(t, "a"), testPanel(t, "b"), testPanel(t, "c")
	comp, err := Compose([]*Panel{a, b, c}, LayoutSpec{
		Cells: [][]string{
			{"top", "top", "side"},
			{"l", "r", "side"},
		},
		Place: []Placement{
			{Panel: "a", Cells: []string{"top"}},
			{Panel: "b", Cells: []string{"side"}},
			{Panel: "c", Cells: []string{"l", "r"}},
		},
		Widths: []float64{1, 1, 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if cols, rows := comp.Size(); cols != 3 || rows != 2 {
		t.Errorf("Size = %d, %d; want 3, 2", cols, rows)
	}
	want := map[string][4]int{
		"a": {0, 0, 2, 1},
		"b": {2, 0, 1, 2},
		"c": {0, 1, 2, 1},
	}
	for _, pp := range comp.placed {
		got := [4]int{pp.col, pp.row, pp.colSpan, pp.rowSpan}
		if got != want[pp.p.Name] {
			t.Errorf("panel %s at %v, want %v", pp.p.Name, got, want[pp.p.Name])
		}
	}
}

func TestComposeAuto(t *testing.T) {
	var ps []*Panel
	for _, n := range []string{"p1", "p2", "p3"} {
		ps = append(ps, testPanel(t, n))
	}
	comp, err := Compose(ps, LayoutSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if cols, rows := comp.Size(); cols != 2 || rows != 2 {
		t.Errorf("Size = %d, %d; want 2, 2", cols, rows)
	}
	if len(comp.Panels()) != 3 {
		t.Errorf("got %d panels, want 3", len(comp.Panels()))
	}
}

func TestComposeSharedAxes(t *testing.T) {
	a := testPanel(t, "a")
	cats := new(dataset.Builder).
		Add("flipper", []string{"short", "long"}).
		Add("mass", []float64{1, 2}).
		MustDone()
	l, err := MakeLayer(cats, Point, Mapping{X: "flipper", Y: "mass"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewPanel("b", l)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compose([]*Panel{a, b}, LayoutSpec{ShareX: true}); !errs.IsLayout(err) {
		t.Errorf("sharing continuous and discrete x: want LayoutError, got %v", err)
	}

	comp, err := Compose([]*Panel{a, b}, LayoutSpec{ShareY: true})
	if err != nil {
		t.Fatal(err)
	}
	ya, yb := comp.placed[0].ydom, comp.placed[1].ydom
	if ya != yb || ya.min != 1 || ya.max != 5000 {
		t.Errorf("shared y = %+v and %+v, want one domain over [1, 5000]", ya, yb)
	}
}

func TestSplitTracks(t *testing.T) {
	got := splitTracks(10, 310, []float64{1, 2}, 10)
	want := [][2]float64{{10, 110}, {120, 320}}
	for i := range want {
		if math.Abs(got[i][0]-want[i][0]) > 1e-9 || math.Abs(got[i][1]-want[i][1]) > 1e-9 {
			t.Errorf("track %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseLegendMode(t *testing.T) {
	for in, want := range map[string]LegendMode{"": LegendCollect, "collect": LegendCollect, "Independent": LegendIndependent} {
		if got, err := ParseLegendMode(in); err != nil || got != want {
			t.Errorf("ParseLegendMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLegendMode("floating"); err == nil {
		t.Errorf("ParseLegendMode(floating) succeeded")
	}
}
