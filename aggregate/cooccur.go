// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

// A Cooccurrence counts, for each pair of flag columns, the records
// in which both flags are set.
type Cooccurrence struct {
	Flags []string
	m     *mat64.SymDense
}

// At returns the number of records in which flags i and j are both
// set. At(i, i) is the number of records in which flag i is set.
func (c *Cooccurrence) At(i, j int) int {
	return int(c.m.At(i, j))
}

// CountCooccurrence builds the co-occurrence matrix of the given flag
// columns of d. A flag column is a Bool column, or a Number column in
// which any non-zero, non-missing value counts as set.
func CountCooccurrence(d *dataset.Dataset, flags ...string) (*Cooccurrence, error) {
	const op = "cooccurrence"
	if len(flags) == 0 {
		return nil, &errs.ValueError{Op: op, Detail: "no flag columns"}
	}
	seen := make(map[string]bool)
	cols := make([][]float64, len(flags))
	for i, f := range flags {
		if seen[f] {
			return nil, &errs.SchemaError{Op: op, Column: f, Detail: "listed twice"}
		}
		seen[f] = true
		if _, err := d.Schema().RefKind(op, f, dataset.Bool, dataset.Number); err != nil {
			return nil, err
		}
		cols[i], _ = d.Float(f)
	}

	k, n := len(flags), d.Len()
	c := &Cooccurrence{Flags: append([]string(nil), flags...)}
	if n == 0 {
		c.m = mat64.NewSymDense(k, nil)
		return c, nil
	}

	// Build the k×n indicator matrix 𝐗ᵀ; the co-occurrence counts
	// are 𝐗ᵀ𝐗.
	xTVals := make([]float64, k*n)
	for i, col := range cols {
		for r, v := range col {
			if v != 0 && !math.IsNaN(v) {
				xTVals[i*n+r] = 1
			}
		}
	}
	XT := mat64.NewDense(k, n, xTVals)
	prod := mat64.NewDense(k, k, nil)
	prod.Mul(XT, XT.T())

	c.m = mat64.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			c.m.SetSym(i, j, prod.At(i, j))
		}
	}
	return c, nil
}

// Dataset returns c in long form: String columns "flag_a" and
// "flag_b" and a Number column "count", with one row per ordered pair
// of flags, row-major.
func (c *Cooccurrence) Dataset() *dataset.Dataset {
	k := len(c.Flags)
	as := make([]string, 0, k*k)
	bs := make([]string, 0, k*k)
	ns := make([]float64, 0, k*k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			as = append(as, c.Flags[i])
			bs = append(bs, c.Flags[j])
			ns = append(ns, float64(c.At(i, j)))
		}
	}
	return new(dataset.Builder).Add("flag_a", as).Add("flag_b", bs).Add("count", ns).MustDone()
}

// PairwiseCooccurrence returns the co-occurrence table of the flag
// columns of d. See CountCooccurrence and Cooccurrence.Dataset.
func PairwiseCooccurrence(d *dataset.Dataset, flags ...string) (*dataset.Dataset, error) {
	c, err := CountCooccurrence(d, flags...)
	if err != nil {
		return nil, err
	}
	return c.Dataset(), nil
}
