// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

func lumpInput(cats []string, vals []float64) *dataset.Dataset {
	return new(dataset.Builder).Add("cat", cats).Add("n", vals).MustDone()
}

func lumped(t *testing.T, d *dataset.Dataset) map[string]float64 {
	t.Helper()
	cats, err := d.Strings("cat")
	if err != nil {
		t.Fatal(err)
	}
	vals, _ := d.Numbers("n")
	out := make(map[string]float64)
	for i, c := range cats {
		if _, dup := out[c]; dup {
			t.Fatalf("category %q appears twice", c)
		}
		out[c] = vals[i]
	}
	return out
}

func TestLumpTieRetained(t *testing.T) {
	d := lumpInput([]string{"A", "B", "C"}, []float64{5, 3, 3})
	got, err := LumpCategories(d, "cat", "n", TopN, 1)
	if err != nil {
		t.Fatal(err)
	}
	// B and C tie just past the boundary. Neither can be chosen
	// over the other, so both are kept.
	if diff := cmp.Diff(map[string]float64{"A": 5, "B": 3, "C": 3}, lumped(t, got)); diff != "" {
		t.Errorf("top 1 mismatch (-want +got):\n%s", diff)
	}

	got, err = LumpCategories(d, "cat", "n", TopN, 2)
	if err != nil {
		t.Fatal(err)
	}
	// B and C tie for second place.
	if diff := cmp.Diff(map[string]float64{"A": 5, "B": 3, "C": 3}, lumped(t, got)); diff != "" {
		t.Errorf("top 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestLumpTiedLeftovers(t *testing.T) {
	d := lumpInput([]string{"A", "B", "C", "D"}, []float64{5, 3, 3, 3})
	got, err := LumpCategories(d, "cat", "n", TopN, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Nothing ties with A, but the leftovers tie with each other.
	want := map[string]float64{"A": 5, "B": 3, "C": 3, "D": 3}
	if diff := cmp.Diff(want, lumped(t, got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLumpTieAtNth(t *testing.T) {
	d := lumpInput([]string{"B", "C", "A", "D"}, []float64{3, 3, 1, 2})
	got, err := LumpCategories(d, "cat", "n", TopN, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]float64{"B": 3, "C": 3, Other: 3}, lumped(t, got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	cats, _ := got.Strings("cat")
	if diff := cmp.Diff([]string{"B", "C", Other}, cats); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLumpSingleLeftover(t *testing.T) {
	d := lumpInput([]string{"A", "B", "C"}, []float64{5, 4, 1})
	got, err := LumpCategories(d, "cat", "n", TopN, 2)
	if err != nil {
		t.Fatal(err)
	}
	// An Other bucket holding only C would just rename it.
	if diff := cmp.Diff(map[string]float64{"A": 5, "B": 4, "C": 1}, lumped(t, got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLumpTopNBound(t *testing.T) {
	cats := []string{"a", "b", "c", "d", "e", "f", "g"}
	vals := []float64{9, 1, 7, 3, 5, 2, 8}
	d := lumpInput(cats, vals)
	var total float64
	for _, v := range vals {
		total += v
	}
	for n := 0; n <= len(cats)+1; n++ {
		got, err := LumpCategories(d, "cat", "n", TopN, float64(n))
		if err != nil {
			t.Fatal(err)
		}
		if got.Len() > n+1 {
			t.Errorf("top %d: %d categories, want at most %d", n, got.Len(), n+1)
		}
		sum := 0.0
		for _, v := range lumped(t, got) {
			sum += v
		}
		if sum != total {
			t.Errorf("top %d: total %v, want %v", n, sum, total)
		}
	}
}

func TestLumpThresholds(t *testing.T) {
	d := lumpInput([]string{"A", "B", "C", "D"}, []float64{50, 25, 15, 10})
	for _, test := range []struct {
		s     Strategy
		param float64
		want  map[string]float64
	}{
		{MinCount, 15, map[string]float64{"A": 50, "B": 25, "C": 15, Other: 10}},
		{MinCount, 0, map[string]float64{"A": 50, "B": 25, "C": 15, "D": 10}},
		// The proportion threshold is strict: B's share is
		// exactly 0.25.
		{MinProportion, 0.25, map[string]float64{"A": 50, Other: 50}},
		{MinProportion, 0.1, map[string]float64{"A": 50, "B": 25, "C": 15, Other: 10}},
	} {
		got, err := LumpCategories(d, "cat", "n", test.s, test.param)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(test.want, lumped(t, got)); diff != "" {
			t.Errorf("%v %v: mismatch (-want +got):\n%s", test.s, test.param, diff)
		}
	}
}

func TestLumpExistingOther(t *testing.T) {
	d := lumpInput([]string{"A", Other, "B"}, []float64{10, 4, 1})
	got, err := LumpCategories(d, "cat", "n", TopN, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]float64{"A": 10, Other: 5}, lumped(t, got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLumpFrequency(t *testing.T) {
	d := new(dataset.Builder).Add("cat", []string{"x", "y", "x", "z", "x", "y"}).MustDone()
	got, err := LumpCategories(d, "cat", "", TopN, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]float64{"x": 3, Other: 3}, lumped(t, got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLumpErrors(t *testing.T) {
	d := lumpInput([]string{"A"}, []float64{1})
	if _, err := LumpCategories(d, "cat", "n", TopN, -1); !errs.IsValue(err) {
		t.Errorf("negative N: got %v", err)
	}
	if _, err := LumpCategories(d, "cat", "n", MinProportion, 2); !errs.IsValue(err) {
		t.Errorf("proportion 2: got %v", err)
	}
	if _, err := LumpCategories(d, "nope", "n", TopN, 1); !errs.IsSchema(err) {
		t.Errorf("missing column: got %v", err)
	}
}
