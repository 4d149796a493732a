// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

// A stat is a go-gg statistical transform.
type stat interface {
	F(table.Grouping) table.Grouping
}

// applyStat runs st over each group of d and gathers the given output
// columns into one dataset, prefixed by the group columns. Rows where
// any of the numeric input columns is missing are dropped first, and
// every group must then have at least minRows rows.
//
// All groups are transformed together, so stats that share bounds
// across groups (density, ECDF, and fit domains) stay comparable.
func applyStat(d *dataset.Dataset, op string, st stat, minRows int, inputs, outputs []string, group []string) (*dataset.Dataset, error) {
	for _, in := range inputs {
		if _, err := d.Schema().RefKind(op, in, dataset.Number); err != nil {
			return nil, err
		}
	}
	cols := make([][]float64, len(inputs))
	for i, in := range inputs {
		cols[i], _ = d.Numbers(in)
	}
	d = d.FilterRows(func(r int) bool {
		for _, c := range cols {
			if math.IsNaN(c[r]) {
				return false
			}
		}
		return true
	})
	if d.Len() == 0 {
		return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("no complete values in %s", strings.Join(inputs, ", "))}
	}

	groups, err := d.GroupBy(group...)
	if err != nil {
		return nil, err
	}
	// GroupIDs compare by node identity, so keep the ones the
	// results are filed under.
	gids := make([]table.GroupID, len(groups))
	var gb table.GroupingBuilder
	for i, g := range groups {
		if g.Data.Len() < minRows {
			return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("group %s has %d rows, need at least %d", keyString(group, g.Key), g.Data.Len(), minRows)}
		}
		gids[i] = table.RootGroupID.Extend(i)
		gb.Add(gids[i], g.Data.Table())
	}
	res := st.F(gb.Done())

	s := d.Schema()
	parts := make([]*dataset.Dataset, 0, len(groups))
	for i, g := range groups {
		t := res.Table(gids[i])
		b := new(dataset.Builder)
		n := 0
		if t != nil {
			n = t.Len()
		}
		for ki, name := range group {
			b.Add(name, repeatKey(s, name, g.Key[ki], n))
		}
		for _, out := range outputs {
			var col interface{} = []float64{}
			if t != nil {
				col = t.MustColumn(out)
			}
			b.Add(out, col)
		}
		part, err := b.Done()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return dataset.Concat(parts...)
}

// repeatKey returns a column of n copies of key, typed for column name.
func repeatKey(s *dataset.Schema, name string, key interface{}, n int) interface{} {
	g := []dataset.Group{{Key: []interface{}{key}}}
	col := keyColumn(s, name, g, 0)
	if n == 1 {
		return col
	}
	idx := make([]int, n)
	one, _ := new(dataset.Builder).Add(name, col).Done()
	return mustValues(one.Take(idx), name)
}

func mustValues(d *dataset.Dataset, name string) interface{} {
	v, err := d.Values(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Density estimates the probability density of column x in each group
// of d with a Gaussian kernel density estimate sampled at n points (200
// if n is 0). The result has the group columns followed by Number
// columns x, "density", and "cumulative".
func Density(d *dataset.Dataset, x string, n int, group ...string) (*dataset.Dataset, error) {
	st := ggstat.Density{X: x, N: n}
	out, err := applyStat(d, "density", st, 1, []string{x}, []string{x, "probability density", "cumulative density"}, group)
	if err != nil {
		return nil, err
	}
	if out, err = out.Rename("probability density", "density"); err != nil {
		return nil, err
	}
	return out.Rename("cumulative density", "cumulative")
}

// ECDF computes the empirical cumulative distribution of column x in
// each group of d. The result has the group columns followed by
// Number columns x, "ecdf", and "count".
func ECDF(d *dataset.Dataset, x string, group ...string) (*dataset.Dataset, error) {
	st := ggstat.ECDF{X: x}
	out, err := applyStat(d, "ecdf", st, 1, []string{x}, []string{x, "cumulative density", "cumulative count"}, group)
	if err != nil {
		return nil, err
	}
	if out, err = out.Rename("cumulative density", "ecdf"); err != nil {
		return nil, err
	}
	return out.Rename("cumulative count", "count")
}

// SmoothMethod selects the fit used by Smooth.
type SmoothMethod int

const (
	// LOESS is a locally weighted polynomial regression.
	LOESS SmoothMethod = iota
	// Linear is an ordinary least squares polynomial fit.
	Linear
)

// ParseSmoothMethod returns the SmoothMethod named s.
func ParseSmoothMethod(s string) (SmoothMethod, error) {
	switch strings.ToLower(s) {
	case "", "loess", "lowess":
		return LOESS, nil
	case "lm", "linear", "least_squares":
		return Linear, nil
	}
	return 0, fmt.Errorf("unknown smoothing method %q", s)
}

// A Smoother describes a fit of y against x.
type Smoother struct {
	X, Y   string
	Method SmoothMethod

	// Degree is the polynomial degree. If 0, LOESS uses 2 and
	// Linear uses 1.
	Degree int

	// Span is the LOESS smoothing span in (0, 1]. If 0, 0.5 is
	// used.
	Span float64

	// N is the number of points the fit is sampled at.
	N int
}

// Smooth fits s.Y against s.X in each group of d and samples the fit
// over the range of the data. The result has the group columns
// followed by Number columns s.X and s.Y.
func Smooth(d *dataset.Dataset, s Smoother, group ...string) (*dataset.Dataset, error) {
	const op = "smooth"
	if s.Span < 0 || s.Span > 1 {
		return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("span %g outside (0, 1]", s.Span)}
	}
	var st stat
	var minRows int
	switch s.Method {
	case LOESS:
		st = ggstat.LOESS{X: s.X, Y: s.Y, N: s.N, Degree: s.Degree, Span: s.Span}
		deg, span := s.Degree, s.Span
		if deg == 0 {
			deg = 2
		}
		if span == 0 {
			span = 0.5
		}
		// Each local fit needs deg+1 points within the span.
		minRows = int(math.Ceil(float64(deg+1) / span))
	case Linear:
		st = ggstat.LeastSquares{X: s.X, Y: s.Y, N: s.N, Degree: s.Degree}
		minRows = s.Degree + 1
		if s.Degree == 0 {
			minRows = 2
		}
	default:
		return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("unknown method %d", s.Method)}
	}
	return applyStat(d, op, st, minRows, []string{s.X, s.Y}, []string{s.X, s.Y}, group)
}
