// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/storyplot/storyplot/dataset"
	"github.com/storyplot/storyplot/internal/errs"
)

// OrderKind selects how categories are ranked.
type OrderKind int

const (
	// Ascending orders categories by increasing value.
	Ascending OrderKind = iota
	// Descending orders categories by decreasing value.
	Descending
	// BySecondary orders categories by value and breaks ties by
	// a secondary column, both in the direction given by
	// Order.Descending.
	BySecondary
	// Explicit orders categories by a given list.
	Explicit
	// Appearance keeps categories in order of first occurrence.
	Appearance
)

// An Order is a category display-order strategy.
type Order struct {
	Kind OrderKind

	// Secondary is the tie-breaking column for BySecondary.
	Secondary string

	// Descending sets the direction of BySecondary.
	Descending bool

	// List is the category order for Explicit. Categories that
	// appear in the data but not in List follow the listed ones,
	// in order of first occurrence. Listed categories that do not
	// appear in the data are ignored.
	List []string
}

// ParseOrderKind returns the OrderKind named s.
func ParseOrderKind(s string) (OrderKind, error) {
	switch strings.ToLower(s) {
	case "asc", "ascending":
		return Ascending, nil
	case "", "desc", "descending":
		return Descending, nil
	case "secondary", "by-secondary", "by_secondary":
		return BySecondary, nil
	case "explicit", "list":
		return Explicit, nil
	case "appearance", "first", "none":
		return Appearance, nil
	}
	return 0, fmt.Errorf("unknown category order %q", s)
}

// category is one distinct category and its ranking keys.
type category struct {
	label     string
	value     float64
	secondary float64
}

// categories collects the distinct categories of column cat in order
// of first occurrence. Each category's value is the sum of column
// value over its records, or its record count if value is "".
func categories(d *dataset.Dataset, op, cat, value, secondary string) ([]*category, error) {
	labels, err := d.Labels(cat)
	if err != nil {
		return nil, err
	}
	var vs, ss []float64
	if value != "" {
		if _, err := d.Schema().RefKind(op, value, dataset.Number, dataset.Bool); err != nil {
			return nil, err
		}
		vs, _ = d.Float(value)
	}
	if secondary != "" {
		if _, err := d.Schema().RefKind(op, secondary, dataset.Number, dataset.Bool, dataset.Time); err != nil {
			return nil, err
		}
		ss, _ = d.Float(secondary)
	}

	var out []*category
	index := make(map[string]*category)
	for i, l := range labels {
		c := index[l]
		if c == nil {
			c = &category{label: l}
			index[l] = c
			out = append(out, c)
		}
		if vs == nil {
			c.value++
		} else if !math.IsNaN(vs[i]) {
			c.value += vs[i]
		}
		if ss != nil && !math.IsNaN(ss[i]) {
			c.secondary += ss[i]
		}
	}
	return out, nil
}

// RankCategories returns the distinct values of column cat in display
// order. Ranking uses the per-category total of column value, or the
// number of records in each category if value is "".
//
// Sorting is stable: categories that tie on every key keep their
// order of first occurrence in agg.
func RankCategories(agg *dataset.Dataset, cat, value string, o Order) ([]string, error) {
	const op = "rank"
	if _, err := agg.Ref(op, cat); err != nil {
		return nil, err
	}
	secondary := ""
	if o.Kind == BySecondary {
		if o.Secondary == "" {
			return nil, &errs.SchemaError{Op: op, Detail: "secondary order needs a secondary column"}
		}
		secondary = o.Secondary
	}
	cs, err := categories(agg, op, cat, value, secondary)
	if err != nil {
		return nil, err
	}

	switch o.Kind {
	case Ascending:
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].value < cs[j].value })
	case Descending:
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].value > cs[j].value })
	case BySecondary:
		sort.SliceStable(cs, func(i, j int) bool {
			a, b := cs[i], cs[j]
			if o.Descending {
				a, b = b, a
			}
			if a.value != b.value {
				return a.value < b.value
			}
			return a.secondary < b.secondary
		})
	case Explicit:
		pos := make(map[string]int, len(o.List))
		for i, l := range o.List {
			if _, dup := pos[l]; !dup {
				pos[l] = i
			}
		}
		rank := func(c *category) int {
			if p, ok := pos[c.label]; ok {
				return p
			}
			return len(o.List)
		}
		sort.SliceStable(cs, func(i, j int) bool { return rank(cs[i]) < rank(cs[j]) })
	case Appearance:
	default:
		return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("unknown order %d", o.Kind)}
	}

	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.label
	}
	return out, nil
}

// Reorder returns d with its rows stably sorted so that the values of
// column cat follow order. Rows whose category is not in order come
// last.
func Reorder(d *dataset.Dataset, cat string, order []string) (*dataset.Dataset, error) {
	labels, err := d.Labels(cat)
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int, len(order))
	for i, l := range order {
		pos[l] = i
	}
	rank := func(i int) int {
		if p, ok := pos[labels[i]]; ok {
			return p
		}
		return len(order)
	}
	idx := make([]int, len(labels))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return rank(idx[i]) < rank(idx[j]) })
	return d.Take(idx), nil
}
