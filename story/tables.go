// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package story

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/storyplot/storyplot/aggregate"
	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

// build computes table t from its input d.
func (t *Table) build(d *dataset.Dataset) (*dataset.Dataset, error) {
	var err error
	for _, f := range t.Filter {
		if d, err = f.apply(d); err != nil {
			return nil, err
		}
	}

	switch {
	case len(t.Reduce) > 0:
		rs := make([]aggregate.Reducer, len(t.Reduce))
		for i, r := range t.Reduce {
			fn, err := aggregate.ParseFunc(r.Fn)
			if err != nil {
				return nil, err
			}
			rs[i] = aggregate.Reducer{Out: r.Out, Column: r.Column, Fn: fn, Weight: r.Weight, P: r.P}
		}
		d, err = aggregate.GroupAndReduce(d, t.Group, rs...)
	case len(t.Cooccurrence) > 0:
		d, err = aggregate.PairwiseCooccurrence(d, t.Cooccurrence...)
	case t.Quantiles != nil:
		d, err = aggregate.QuantileTable(d, t.Quantiles.Column, t.Quantiles.Probs, t.Group...)
	case t.Density != nil:
		d, err = aggregate.Density(d, t.Density.X, t.Density.N, t.Group...)
	case t.ECDF != nil:
		d, err = aggregate.ECDF(d, t.ECDF.X, t.Group...)
	case t.Smooth != nil:
		m, perr := aggregate.ParseSmoothMethod(t.Smooth.Method)
		if perr != nil {
			return nil, perr
		}
		s := t.Smooth
		d, err = aggregate.Smooth(d, aggregate.Smoother{X: s.X, Y: s.Y, Method: m, Degree: s.Degree, Span: s.Span, N: s.N}, t.Group...)
	}
	if err != nil {
		return nil, err
	}

	if l := t.Lump; l != nil {
		s, err := aggregate.ParseStrategy(l.Strategy)
		if err != nil {
			return nil, err
		}
		if d, err = aggregate.LumpCategories(d, l.Category, l.Value, s, l.Param); err != nil {
			return nil, err
		}
	}
	if p := t.Proportion; p != nil {
		out := p.Out
		if out == "" {
			out = "proportion"
		}
		if d, err = aggregate.Proportion(d, p.Value, out); err != nil {
			return nil, err
		}
	}
	if u := t.Unpivot; u != nil {
		key, value := u.Key, u.Value
		if key == "" {
			key = "key"
		}
		if value == "" {
			value = "value"
		}
		if d, err = d.Unpivot(key, value, u.Columns...); err != nil {
			return nil, err
		}
	}
	if len(t.Select) > 0 {
		if d, err = d.Select(t.Select...); err != nil {
			return nil, err
		}
	}
	if o := t.Order; o != nil {
		order, err := o.order()
		if err != nil {
			return nil, err
		}
		cats, err := aggregate.RankCategories(d, o.Column, o.Value, order)
		if err != nil {
			return nil, err
		}
		if d, err = aggregate.Reorder(d, o.Column, cats); err != nil {
			return nil, err
		}
	}
	if s := t.Sort; s != nil {
		if d, err = d.SortBy(s.Column, s.Descending); err != nil {
			return nil, err
		}
	}
	if t.Head > 0 {
		d = d.Head(t.Head)
	}
	return d, nil
}

type filterOp int

const (
	opNotNA filterOp = iota
	opNA
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opIn
)

func parseFilterOp(s string) (filterOp, error) {
	switch strings.ToLower(s) {
	case "notna", "not_na", "present":
		return opNotNA, nil
	case "na", "missing":
		return opNA, nil
	case "eq", "==", "=":
		return opEq, nil
	case "ne", "!=":
		return opNe, nil
	case "lt", "<":
		return opLt, nil
	case "le", "<=":
		return opLe, nil
	case "gt", ">":
		return opGt, nil
	case "ge", ">=":
		return opGe, nil
	case "in":
		return opIn, nil
	}
	return 0, fmt.Errorf("unknown filter op %q", s)
}

// apply returns the rows of d that pass f.
func (f Filter) apply(d *dataset.Dataset) (*dataset.Dataset, error) {
	const op = "filter"
	r, err := d.Ref(op, f.Column)
	if err != nil {
		return nil, err
	}
	fop, err := parseFilterOp(f.Op)
	if err != nil {
		return nil, &errs.ValueError{Op: op, Detail: err.Error()}
	}
	bad := func(v string, err error) error {
		return &errs.SchemaError{Op: op, Column: f.Column, Detail: fmt.Sprintf("cannot compare %s column with %q", r.Kind(), v), Err: err}
	}

	switch fop {
	case opNotNA, opNA:
		want := fop == opNotNA
		present, err := presence(d, r)
		if err != nil {
			return nil, err
		}
		return d.FilterRows(func(i int) bool { return present[i] == want }), nil

	case opIn:
		set := make(map[string]bool, len(f.Values))
		var nums []float64
		for _, v := range f.Values {
			if r.Kind() == dataset.Number || r.Kind() == dataset.Time {
				x, err := parseScalar(r, v)
				if err != nil {
					return nil, bad(v, err)
				}
				nums = append(nums, x)
			} else {
				set[normalLabel(r, v)] = true
			}
		}
		if nums != nil {
			xs, _ := d.Float(f.Column)
			return d.FilterRows(func(i int) bool {
				for _, x := range nums {
					if xs[i] == x {
						return true
					}
				}
				return false
			}), nil
		}
		labels, _ := d.Labels(f.Column)
		return d.FilterRows(func(i int) bool { return set[labels[i]] }), nil
	}

	// Binary comparisons.
	var cmp func(i int) int
	switch r.Kind() {
	case dataset.Number, dataset.Time:
		x, err := parseScalar(r, f.Value)
		if err != nil {
			return nil, bad(f.Value, err)
		}
		xs, _ := d.Float(f.Column)
		cmp = func(i int) int {
			switch {
			case math.IsNaN(xs[i]):
				return 2 // incomparable
			case xs[i] < x:
				return -1
			case xs[i] > x:
				return 1
			}
			return 0
		}
	case dataset.Bool:
		if fop != opEq && fop != opNe {
			return nil, bad(f.Value, nil)
		}
		fallthrough
	default:
		v := normalLabel(r, f.Value)
		labels, _ := d.Labels(f.Column)
		cmp = func(i int) int { return strings.Compare(labels[i], v) }
	}
	return d.FilterRows(func(i int) bool {
		c := cmp(i)
		switch fop {
		case opEq:
			return c == 0
		case opNe:
			return c != 0
		case opLt:
			return c == -1
		case opLe:
			return c == -1 || c == 0
		case opGt:
			return c == 1
		case opGe:
			return c == 1 || c == 0
		}
		panic("unreachable")
	}), nil
}

// presence reports which rows of column r have a value. Only Number
// columns (NaN) and String columns ("") have missing values.
func presence(d *dataset.Dataset, r dataset.Ref) ([]bool, error) {
	out := make([]bool, d.Len())
	switch r.Kind() {
	case dataset.Number:
		xs, err := d.Numbers(r.Name())
		if err != nil {
			return nil, err
		}
		for i, x := range xs {
			out[i] = !math.IsNaN(x)
		}
	case dataset.String:
		ss, err := d.Strings(r.Name())
		if err != nil {
			return nil, err
		}
		for i, s := range ss {
			out[i] = s != ""
		}
	default:
		for i := range out {
			out[i] = true
		}
	}
	return out, nil
}

// parseScalar parses v as a value of Number or Time column r, in the
// units of Dataset.Float.
func parseScalar(r dataset.Ref, v string) (float64, error) {
	v = strings.TrimSpace(v)
	if r.Kind() == dataset.Number {
		return strconv.ParseFloat(v, 64)
	}
	layouts := dataset.DefaultTimeLayouts
	if l := r.Column().Layout; l != "" {
		layouts = []string{l}
	}
	var err error
	for _, l := range layouts {
		var t time.Time
		if t, err = time.Parse(l, v); err == nil {
			return float64(t.UnixNano()) / 1e9, nil
		}
	}
	return 0, err
}

// normalLabel returns v spelled the way Dataset.Labels spells values
// of column r.
func normalLabel(r dataset.Ref, v string) string {
	if r.Kind() == dataset.Bool {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return v
}
