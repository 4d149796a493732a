// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aggregate reduces datasets to summary tables.
//
// Every operation is a pure function of its inputs. Column references
// are checked against the input schema before any work is done, so a
// missing column is always reported as an errs.SchemaError, and
// statistics that are undefined for their input (the mean of nothing,
// a probability outside [0, 1]) are reported as an errs.ValueError
// rather than replaced by a default.
package aggregate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

// Func is a reduction function.
type Func int

const (
	Count Func = iota
	Sum
	Mean
	WeightedMean
	Quantile
	CumulativeSum
	Min
	Max
	Median
	NDistinct
)

var funcNames = [...]string{
	Count:         "count",
	Sum:           "sum",
	Mean:          "mean",
	WeightedMean:  "weighted_mean",
	Quantile:      "quantile",
	CumulativeSum: "cumulative_sum",
	Min:           "min",
	Max:           "max",
	Median:        "median",
	NDistinct:     "n_distinct",
}

func (f Func) String() string {
	if f < 0 || int(f) >= len(funcNames) {
		return fmt.Sprintf("Func(%d)", int(f))
	}
	return funcNames[f]
}

// ParseFunc returns the Func named s.
func ParseFunc(s string) (Func, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "n", "length":
		return Count, nil
	case "cumsum":
		return CumulativeSum, nil
	case "wmean", "weighted.mean":
		return WeightedMean, nil
	}
	for i, name := range funcNames {
		if name == s {
			return Func(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reduction %q", s)
}

// A Reducer reduces the records of each group to one output column.
type Reducer struct {
	// Out is the name of the output column.
	Out string

	// Column is the source column. It may be empty for Count, in
	// which case Count counts records. Otherwise Count counts the
	// non-missing values of Column.
	Column string

	Fn Func

	// Weight names the weight column of a WeightedMean.
	Weight string

	// P is the probability of a Quantile, in [0, 1].
	P float64
}

func (r Reducer) String() string {
	switch r.Fn {
	case Quantile:
		return fmt.Sprintf("%s = quantile(%s, %g)", r.Out, r.Column, r.P)
	case WeightedMean:
		return fmt.Sprintf("%s = weighted_mean(%s, %s)", r.Out, r.Column, r.Weight)
	}
	return fmt.Sprintf("%s = %s(%s)", r.Out, r.Fn, r.Column)
}

// check validates r against schema s.
func (r Reducer) check(s *dataset.Schema) error {
	const op = "reduce"
	if r.Out == "" {
		return &errs.SchemaError{Op: op, Detail: fmt.Sprintf("reducer %s has no output column", r.Fn)}
	}
	if r.Fn < 0 || int(r.Fn) >= len(funcNames) {
		return &errs.ValueError{Op: op, Detail: fmt.Sprintf("unknown reduction %v", r.Fn)}
	}
	switch {
	case r.Fn == Count && r.Column == "":
	case r.Fn == NDistinct:
		if _, err := s.Ref(op, r.Column); err != nil {
			return err
		}
	default:
		if _, err := s.RefKind(op, r.Column, dataset.Number, dataset.Bool); err != nil {
			return err
		}
	}
	switch r.Fn {
	case WeightedMean:
		if _, err := s.RefKind(op, r.Weight, dataset.Number); err != nil {
			return err
		}
	case Quantile:
		if !(r.P >= 0 && r.P <= 1) {
			return &errs.ValueError{Op: op, Detail: fmt.Sprintf("%s: probability %g outside [0, 1]", r.Out, r.P)}
		}
	}
	return nil
}

// GroupAndReduce groups d by the distinct combinations of the group
// columns and reduces each group with each reducer.
//
// The result has the group columns, with their original kinds,
// followed by one Number column per reducer. There is exactly one row
// per distinct combination of group values present in d, in order of
// first occurrence in d. With no group columns the result has exactly
// one row, even if d is empty.
//
// Missing numbers are skipped. A statistic with no values to reduce
// (other than Count, Sum, CumulativeSum, and NDistinct) is a
// ValueError.
func GroupAndReduce(d *dataset.Dataset, group []string, reducers ...Reducer) (*dataset.Dataset, error) {
	s := d.Schema()
	outs := make(map[string]bool)
	for _, g := range group {
		if _, err := s.Ref("group", g); err != nil {
			return nil, err
		}
		if outs[g] {
			return nil, &errs.SchemaError{Op: "group", Column: g, Detail: "listed twice"}
		}
		outs[g] = true
	}
	for _, r := range reducers {
		if err := r.check(s); err != nil {
			return nil, err
		}
		if outs[r.Out] {
			return nil, &errs.SchemaError{Op: "reduce", Column: r.Out, Detail: "output column already defined"}
		}
		outs[r.Out] = true
	}

	groups, err := d.GroupBy(group...)
	if err != nil {
		return nil, err
	}

	if len(group) == 0 && len(reducers) == 0 {
		return dataset.Empty(dataset.MustSchema()), nil
	}
	b := new(dataset.Builder)
	for i, g := range group {
		b.Add(g, keyColumn(s, g, groups, i))
		if c, _ := s.Lookup(g); c.Layout != "" {
			b.Layout(g, c.Layout)
		}
	}
	for _, r := range reducers {
		col := make([]float64, len(groups))
		for gi, g := range groups {
			v, err := reduce(g.Data, r)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", keyString(group, g.Key), err)
			}
			col[gi] = v
		}
		if r.Fn == CumulativeSum {
			running := 0.0
			for i, v := range col {
				running += v
				col[i] = running
			}
		}
		b.Add(r.Out, col)
	}
	return b.Done()
}

// keyColumn collects the i'th key of each group into a column slice of
// the kind of column g.
func keyColumn(s *dataset.Schema, g string, groups []dataset.Group, i int) interface{} {
	c, _ := s.Lookup(g)
	switch c.Kind {
	case dataset.Number:
		out := make([]float64, len(groups))
		for j, grp := range groups {
			out[j] = grp.Key[i].(float64)
		}
		return out
	case dataset.Bool:
		out := make([]bool, len(groups))
		for j, grp := range groups {
			out[j] = grp.Key[i].(bool)
		}
		return out
	case dataset.Time:
		out := make([]time.Time, len(groups))
		for j, grp := range groups {
			out[j] = grp.Key[i].(time.Time)
		}
		return out
	}
	out := make([]string, len(groups))
	for j, grp := range groups {
		out[j] = grp.Key[i].(string)
	}
	return out
}

func keyString(group []string, key []interface{}) string {
	if len(group) == 0 {
		return "(all)"
	}
	parts := make([]string, len(group))
	for i, g := range group {
		parts[i] = g + "=" + dataset.KeyLabel(key[i])
	}
	return strings.Join(parts, ",")
}

// present returns the non-missing values of xs.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// reduce applies r to the records of one group.
func reduce(d *dataset.Dataset, r Reducer) (float64, error) {
	if r.Fn == Count && r.Column == "" {
		return float64(d.Len()), nil
	}
	if r.Fn == NDistinct {
		ds, err := d.Distinct(r.Column)
		return float64(len(ds)), err
	}

	raw, err := d.Float(r.Column)
	if err != nil {
		return 0, err
	}
	empty := func() error {
		return &errs.ValueError{Op: r.Fn.String(), Detail: fmt.Sprintf("no values in column %q", r.Column)}
	}

	switch r.Fn {
	case Count:
		return float64(len(present(raw))), nil
	case Sum, CumulativeSum:
		return stats.Sample{Xs: present(raw)}.Sum(), nil
	case WeightedMean:
		ws, err := d.Numbers(r.Weight)
		if err != nil {
			return 0, err
		}
		var sample stats.Sample
		for i, x := range raw {
			if math.IsNaN(x) || math.IsNaN(ws[i]) {
				continue
			}
			if ws[i] < 0 {
				return 0, &errs.ValueError{Op: r.Fn.String(), Detail: fmt.Sprintf("negative weight %g", ws[i])}
			}
			sample.Xs = append(sample.Xs, x)
			sample.Weights = append(sample.Weights, ws[i])
		}
		if sample.Weight() == 0 {
			return 0, &errs.ValueError{Op: r.Fn.String(), Detail: fmt.Sprintf("total weight of column %q is zero", r.Weight)}
		}
		return sample.Mean(), nil
	}

	xs := present(raw)
	if len(xs) == 0 {
		return 0, empty()
	}
	switch r.Fn {
	case Mean:
		return stats.Sample{Xs: xs}.Mean(), nil
	case Min:
		min, _ := stats.Sample{Xs: xs}.Bounds()
		return min, nil
	case Max:
		_, max := stats.Sample{Xs: xs}.Bounds()
		return max, nil
	case Median:
		return quantile7(sorted(xs), 0.5), nil
	case Quantile:
		return quantile7(sorted(xs), r.P), nil
	}
	panic("unhandled reduction " + r.Fn.String())
}
