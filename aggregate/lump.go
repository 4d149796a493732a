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

// Other is the label of the bucket that lumped categories are merged
// into.
const Other = "Other"

// A Strategy decides which categories survive lumping.
type Strategy int

const (
	// TopN keeps the categories with the N highest values.
	// Categories that tie with the N'th highest are all kept. If
	// the categories left over are all tied with each other (in
	// particular, if only one is left over), they are kept too,
	// since there is no way to choose among them. Either way more
	// than N categories may survive, and the second rule can keep
	// every category even when nothing ties at the N'th place:
	// top 1 of {A:5, B:3, C:3, D:3} keeps all four and has no
	// Other.
	TopN Strategy = iota

	// MinCount keeps categories whose value is at least the
	// threshold.
	MinCount

	// MinProportion keeps categories whose share of the total
	// value is strictly greater than the threshold.
	MinProportion
)

// ParseStrategy returns the Strategy named s.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "top_n", "topn", "top-n", "n":
		return TopN, nil
	case "min_count", "count", "min-count":
		return MinCount, nil
	case "proportion", "prop", "min_proportion":
		return MinProportion, nil
	}
	return 0, fmt.Errorf("unknown lumping strategy %q", s)
}

func (s Strategy) String() string {
	switch s {
	case TopN:
		return "top_n"
	case MinCount:
		return "min_count"
	case MinProportion:
		return "proportion"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// LumpCategories merges the low-salience categories of column cat into
// a single Other category.
//
// Each category's value is the total of column value over its
// records, or its record count if value is "". The result has two
// columns: cat, as a String column, and value (or "n" if value is "").
// Surviving categories appear once each in order of first occurrence,
// followed by Other if any category was merged into it. A category
// already named Other never survives on its own; it is folded into
// the bucket. The total value is conserved.
//
// For TopN, param is N. For MinCount, it is the value floor. For
// MinProportion, it is a share in [0, 1].
func LumpCategories(agg *dataset.Dataset, cat, value string, s Strategy, param float64) (*dataset.Dataset, error) {
	const op = "lump"
	if _, err := agg.Ref(op, cat); err != nil {
		return nil, err
	}
	cs, err := categories(agg, op, cat, value, "")
	if err != nil {
		return nil, err
	}
	if value != "" {
		vs, _ := agg.Float(value)
		for _, v := range vs {
			if math.IsNaN(v) {
				return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("column %q has missing values", value)}
			}
		}
	}

	// Candidates exclude any existing Other category.
	var cand []*category
	for _, c := range cs {
		if c.label != Other {
			cand = append(cand, c)
		}
	}

	keep := make(map[string]bool)
	switch s {
	case TopN:
		if param < 0 || param != math.Trunc(param) {
			return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("top_n needs a non-negative integer, got %g", param)}
		}
		n := int(param)
		if n >= len(cand) {
			for _, c := range cand {
				keep[c.label] = true
			}
			break
		}
		if n == 0 {
			break
		}
		vals := make([]float64, len(cand))
		for i, c := range cand {
			vals[i] = c.value
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
		cut := vals[n-1]
		for _, c := range cand {
			if c.value >= cut {
				keep[c.label] = true
			}
		}
		var rest []*category
		for _, c := range cs {
			if !keep[c.label] {
				rest = append(rest, c)
			}
		}
		if tied(rest) {
			for _, c := range rest {
				if c.label != Other {
					keep[c.label] = true
				}
			}
		}
	case MinCount:
		for _, c := range cand {
			if c.value >= param {
				keep[c.label] = true
			}
		}
	case MinProportion:
		if !(param >= 0 && param <= 1) {
			return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("proportion %g outside [0, 1]", param)}
		}
		total := 0.0
		for _, c := range cs {
			total += c.value
		}
		if total == 0 {
			return nil, &errs.ValueError{Op: op, Detail: "total value is zero"}
		}
		for _, c := range cand {
			if c.value/total > param {
				keep[c.label] = true
			}
		}
	default:
		return nil, &errs.ValueError{Op: op, Detail: fmt.Sprintf("unknown strategy %v", s)}
	}

	var labels []string
	var vals []float64
	other, merged := 0.0, 0
	for _, c := range cs {
		if keep[c.label] {
			labels = append(labels, c.label)
			vals = append(vals, c.value)
		} else {
			other += c.value
			merged++
		}
	}
	if merged > 0 {
		labels = append(labels, Other)
		vals = append(vals, other)
	}
	if labels == nil {
		labels, vals = []string{}, []float64{}
	}

	vname := value
	if vname == "" {
		vname = "n"
	}
	return new(dataset.Builder).Add(cat, labels).Add(vname, vals).Done()
}

// tied reports whether all of cs have the same value.
func tied(cs []*category) bool {
	for _, c := range cs {
		if c.value != cs[0].value {
			return false
		}
	}
	return len(cs) > 0
}
