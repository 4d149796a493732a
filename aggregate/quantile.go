// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"fmt"
	"sort"

	"github.com/aclements/go-moremath/vec"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

func sorted(xs []float64) []float64 {
	ys := append([]float64(nil), xs...)
	sort.Float64s(ys)
	return ys
}

// quantile7 returns the p-quantile of the sorted, non-empty sample
// xs, interpolating linearly between the order statistics at
// (n-1)*p. This is Hyndman and Fan's type 7 estimator, and differs
// from stats.Sample.Percentile, which uses type 8.
func quantile7(xs []float64, p float64) float64 {
	h := float64(len(xs)-1) * p
	lo := int(h)
	if lo >= len(xs)-1 {
		return xs[len(xs)-1]
	}
	return xs[lo] + (h-float64(lo))*(xs[lo+1]-xs[lo])
}

// A QuantileValue is the estimate of one quantile.
type QuantileValue struct {
	P, Value float64
}

// QuantileSummary returns the type 7 quantile of the non-missing
// values of column for each probability in probs, in the order of
// probs.
func QuantileSummary(d *dataset.Dataset, column string, probs []float64) ([]QuantileValue, error) {
	const op = "quantile summary"
	if _, err := d.Ref(op, column); err != nil {
		return nil, err
	}
	raw, err := d.Float(column)
	if err != nil {
		return nil, err
	}
	if err := checkProbs(op, probs); err != nil {
		return nil, err
	}
	xs := sorted(present(raw))
	if len(xs) == 0 {
		return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("no values in column %q", column)}
	}
	out := make([]QuantileValue, len(probs))
	for i, p := range probs {
		out[i] = QuantileValue{p, quantile7(xs, p)}
	}
	return out, nil
}

func checkProbs(op string, probs []float64) error {
	if len(probs) == 0 {
		return &errs.ValueError{Op: op, Detail: "no probabilities"}
	}
	for _, p := range probs {
		if !(p >= 0 && p <= 1) {
			return &errs.ValueError{Op: op, Detail: fmt.Sprintf("probability %g outside [0, 1]", p)}
		}
	}
	return nil
}

// QuantileTable is QuantileSummary for each group of d. The result
// has the group columns followed by Number columns "p" and column,
// with one row per group and probability.
func QuantileTable(d *dataset.Dataset, column string, probs []float64, group ...string) (*dataset.Dataset, error) {
	reducers := make([]Reducer, len(probs))
	if err := checkProbs("quantile table", probs); err != nil {
		return nil, err
	}
	for i, p := range probs {
		reducers[i] = Reducer{Out: fmt.Sprintf("[q%d]", i), Column: column, Fn: Quantile, P: p}
	}
	wide, err := GroupAndReduce(d, group, reducers...)
	if err != nil {
		return nil, err
	}
	qcols := make([]string, len(reducers))
	for i, r := range reducers {
		qcols[i] = r.Out
	}
	long, err := wide.Unpivot("p", column, qcols...)
	if err != nil {
		return nil, err
	}
	labels, err := long.Strings("p")
	if err != nil {
		return nil, err
	}
	ps := make([]float64, len(labels))
	for i, l := range labels {
		var qi int
		fmt.Sscanf(l, "[q%d]", &qi)
		ps[i] = probs[qi]
	}
	return long.WithColumn("p", ps)
}

// Proportion returns agg with an added Number column out holding each
// row's share of the total of column value.
func Proportion(agg *dataset.Dataset, value, out string) (*dataset.Dataset, error) {
	const op = "proportion"
	xs, err := agg.Numbers(value)
	if err != nil {
		return nil, err
	}
	if _, exists := agg.Schema().Lookup(out); exists {
		return nil, &errs.SchemaError{Op: op, Column: out, Detail: "output column already defined"}
	}
	total := vec.Sum(present(xs))
	if total == 0 {
		return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("column %q sums to zero", value)}
	}
	shares := make([]float64, len(xs))
	for i, x := range xs {
		shares[i] = x / total
	}
	return agg.WithColumn(out, shares)
}
