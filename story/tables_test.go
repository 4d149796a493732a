// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package story

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

func birds() *dataset.Dataset {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return new(dataset.Builder).
		Add("species", []string{"A", "A", "B", "C", "B"}).
		Add("mass", []float64{10, 20, 5, math.NaN(), 7}).
		Add("male", []bool{true, false, true, true, false}).
		Add("day", []time.Time{day(1), day(2), day(3), day(4), day(5)}).
		MustDone()
}

func labels(t *testing.T, d *dataset.Dataset, col string) []string {
	t.Helper()
	ls, err := d.Labels(col)
	if err != nil {
		t.Fatal(err)
	}
	return ls
}

func numbers(t *testing.T, d *dataset.Dataset, col string) []float64 {
	t.Helper()
	xs, err := d.Numbers(col)
	if err != nil {
		t.Fatal(err)
	}
	return xs
}

func TestFilter(t *testing.T) {
	for _, test := range []struct {
		f    Filter
		want []string
	}{
		{Filter{Column: "mass", Op: "notna"}, []string{"A", "A", "B", "B"}},
		{Filter{Column: "mass", Op: "na"}, []string{"C"}},
		{Filter{Column: "species", Op: "eq", Value: "B"}, []string{"B", "B"}},
		{Filter{Column: "species", Op: "!=", Value: "B"}, []string{"A", "A", "C"}},
		{Filter{Column: "species", Op: "ge", Value: "B"}, []string{"B", "C", "B"}},
		{Filter{Column: "mass", Op: "gt", Value: "7"}, []string{"A", "A"}},
		{Filter{Column: "mass", Op: "le", Value: "7"}, []string{"B", "B"}},
		{Filter{Column: "mass", Op: "in", Values: []string{"5", "20"}}, []string{"A", "B"}},
		{Filter{Column: "species", Op: "in", Values: []string{"A", "C"}}, []string{"A", "A", "C"}},
		{Filter{Column: "male", Op: "eq", Value: "1"}, []string{"A", "B", "C"}},
		{Filter{Column: "day", Op: "lt", Value: "2024-01-03"}, []string{"A", "A"}},
		{Filter{Column: "day", Op: "eq", Value: "2024-01-05"}, []string{"B"}},
	} {
		got, err := test.f.apply(birds())
		if err != nil {
			t.Errorf("%+v: %v", test.f, err)
			continue
		}
		if diff := cmp.Diff(test.want, labels(t, got, "species")); diff != "" {
			t.Errorf("%+v (-want +got):\n%s", test.f, diff)
		}
	}
}

func TestFilterErrors(t *testing.T) {
	for _, f := range []Filter{
		{Column: "beak", Op: "notna"},
		{Column: "male", Op: "lt", Value: "true"},
		{Column: "mass", Op: "gt", Value: "heavy"},
		{Column: "day", Op: "ge", Value: "yesterday"},
	} {
		if _, err := f.apply(birds()); !errs.IsSchema(err) {
			t.Errorf("%+v: want SchemaError, got %v", f, err)
		}
	}
}

func TestTableReduce(t *testing.T) {
	// Missing masses are filtered out first, so C has no group.
	tb := Table{
		Name:   "by_species",
		Filter: []Filter{{Column: "mass", Op: "notna"}},
		Group:  []string{"species"},
		Reduce: []Reduce{
			{Out: "n", Fn: "count"},
			{Out: "mean_mass", Column: "mass", Fn: "mean"},
		},
	}
	got, err := tb.build(birds())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, labels(t, got, "species")); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{15, 6}, numbers(t, got, "mean_mass")); diff != "" {
		t.Errorf("means (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2, 2}, numbers(t, got, "n")); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}

	tb.Reduce[1].Column = "beak"
	if _, err := tb.build(birds()); !errs.IsSchema(err) {
		t.Errorf("absent column: want SchemaError, got %v", err)
	}
}

func counts(cats []string, ns []float64) *dataset.Dataset {
	return new(dataset.Builder).Add("cat", cats).Add("n", ns).MustDone()
}

func TestTableLumpKeepsTies(t *testing.T) {
	tb := Table{Name: "lumped", Lump: &Lump{Category: "cat", Value: "n", Strategy: "top_n", Param: 1}}
	got, err := tb.build(counts([]string{"A", "B", "C"}, []float64{5, 3, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, labels(t, got, "cat")); diff != "" {
		t.Errorf("categories (-want +got):\n%s", diff)
	}
}

func TestTableOrderAndProportion(t *testing.T) {
	tb := Table{
		Name:       "ranked",
		Proportion: &Proportion{Value: "n"},
		Order:      &Order{Column: "cat", Value: "n"},
	}
	got, err := tb.build(counts([]string{"A", "B", "C"}, []float64{1, 5, 2}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"B", "C", "A"}, labels(t, got, "cat")); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.625, 0.25, 0.125}, numbers(t, got, "proportion")); diff != "" {
		t.Errorf("proportions (-want +got):\n%s", diff)
	}
}

func TestTableReshape(t *testing.T) {
	wide := new(dataset.Builder).
		Add("name", []string{"x", "y"}).
		Add("a", []float64{1, 4}).
		Add("b", []float64{3, 2}).
		MustDone()
	tb := Table{
		Name:    "long",
		Unpivot: &Unpivot{Key: "var", Value: "val", Columns: []string{"a", "b"}},
		Select:  []string{"val", "var"},
		Sort:    &Sort{Column: "val", Descending: true},
		Head:    2,
	}
	got, err := tb.build(wide)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"val", "var"}, got.Columns()); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4, 3}, numbers(t, got, "val")); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, labels(t, got, "var")); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestTableDistributions(t *testing.T) {
	d := birds()
	q := Table{Name: "q", Filter: []Filter{{Column: "mass", Op: "notna"}}, Quantiles: &Quantiles{Column: "mass", Probs: []float64{0, 1}}}
	got, err := q.build(d)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{5, 20}, numbers(t, got, "mass")); diff != "" {
		t.Errorf("quantiles (-want +got):\n%s", diff)
	}

	co := Table{Name: "co", Cooccurrence: []string{"male", "male"}}
	if _, err := co.build(d); err == nil {
		t.Errorf("duplicate flags accepted")
	}
	co.Cooccurrence = []string{"male", "mass"}
	got, err = co.build(d)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{3, 2, 2, 4}, numbers(t, got, "count")); diff != "" {
		t.Errorf("co-occurrence (-want +got):\n%s", diff)
	}

	e := Table{Name: "e", ECDF: &Distribution{X: "mass"}}
	got, err = e.build(d)
	if err != nil {
		t.Fatal(err)
	}
	ecdf := numbers(t, got, "ecdf")
	if len(ecdf) == 0 || ecdf[len(ecdf)-1] != 1 {
		t.Errorf("ecdf = %v, want it to end at 1", ecdf)
	}

	bad := Table{Name: "q", Quantiles: &Quantiles{Column: "mass", Probs: []float64{1.5}}}
	if _, err := bad.build(d); !errs.IsValue(err) {
		t.Errorf("probability 1.5: want ValueError, got %v", err)
	}
}
