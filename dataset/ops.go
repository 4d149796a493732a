// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"github.com/storyplot/storyplot/internal/errs"
)

// take returns the records of d at the given indexes, in that order.
func (d *Dataset) take(idx []int) *Dataset {
	values := make([]interface{}, len(d.schema.cols))
	for i, c := range d.schema.cols {
		values[i] = slice.Select(d.t.MustColumn(c.Name), idx)
	}
	nd, err := fromSlices(d.schema, values)
	if err != nil {
		panic(err)
	}
	return nd
}

// Take returns the records of d at the given indexes, in that order.
// Indexes may repeat.
func (d *Dataset) Take(idx []int) *Dataset {
	for _, i := range idx {
		if i < 0 || i >= d.n {
			panic(fmt.Sprintf("row %d out of range [0, %d)", i, d.n))
		}
	}
	return d.take(idx)
}

// FilterRows returns the records of d for which keep returns true.
func (d *Dataset) FilterRows(keep func(row int) bool) *Dataset {
	var idx []int
	for i := 0; i < d.n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) == d.n {
		return d
	}
	return d.take(idx)
}

// Head returns the first n records of d.
func (d *Dataset) Head(n int) *Dataset {
	if n >= d.n {
		return d
	}
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return d.take(idx)
}

// Select returns a Dataset with only the named columns, in the given
// order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]Column, len(names))
	values := make([]interface{}, len(names))
	for i, name := range names {
		r, err := d.schema.Ref("select", name)
		if err != nil {
			return nil, err
		}
		cols[i] = r.Column()
		values[i] = d.t.MustColumn(name)
	}
	s, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	nd, err := fromSlices(s, values)
	if err != nil {
		return nil, err
	}
	nd.n = d.n
	return nd, nil
}

// WithColumn returns d with column name set to values. If d already
// has a column named name it is replaced in place; otherwise the
// column is appended. values must have d.Len() elements.
func (d *Dataset) WithColumn(name string, values interface{}) (*Dataset, error) {
	k, ok := kindOf(values)
	if !ok {
		return nil, &errs.SchemaError{Op: "with column", Column: name, Detail: fmt.Sprintf("has unsupported type %T", values)}
	}
	if k == Number {
		if _, isFloat := values.([]float64); !isFloat {
			var fs []float64
			slice.Convert(&fs, values)
			values = fs
		}
	}
	if l := reflect.ValueOf(values).Len(); l != d.n {
		return nil, &errs.SchemaError{Op: "with column", Column: name, Detail: fmt.Sprintf("has %d rows, want %d", l, d.n)}
	}
	c := Column{Name: name, Kind: k}
	if old, ok := d.schema.Lookup(name); ok && old.Kind == k {
		c.Layout = old.Layout
	}
	return &Dataset{
		schema: d.schema.with(c),
		t:      table.NewBuilder(d.t).Add(name, values).Done(),
		n:      d.n,
	}, nil
}

// Rename returns d with column from renamed to to.
func (d *Dataset) Rename(from, to string) (*Dataset, error) {
	if from == to {
		return d, nil
	}
	if _, err := d.schema.Ref("rename", from); err != nil {
		return nil, err
	}
	cols := d.schema.Columns()
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = d.t.MustColumn(c.Name)
		if c.Name == from {
			cols[i].Name = to
		}
	}
	s, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	nd, err := fromSlices(s, values)
	if err != nil {
		return nil, err
	}
	nd.n = d.n
	return nd, nil
}

// SortBy returns d stably sorted by column name. NaNs sort last in
// either direction.
func (d *Dataset) SortBy(name string, descending bool) (*Dataset, error) {
	r, err := d.schema.Ref("sort", name)
	if err != nil {
		return nil, err
	}
	idx := make([]int, d.n)
	for i := range idx {
		idx[i] = i
	}
	var less func(a, b int) bool
	switch col := d.t.MustColumn(name).(type) {
	case []float64:
		less = func(a, b int) bool {
			x, y := col[a], col[b]
			if math.IsNaN(x) || math.IsNaN(y) {
				return !math.IsNaN(x) && math.IsNaN(y)
			}
			if descending {
				return x > y
			}
			return x < y
		}
	case []string:
		less = func(a, b int) bool {
			if descending {
				return col[a] > col[b]
			}
			return col[a] < col[b]
		}
	case []bool:
		less = func(a, b int) bool {
			if descending {
				return col[a] && !col[b]
			}
			return !col[a] && col[b]
		}
	case []time.Time:
		less = func(a, b int) bool {
			if descending {
				return col[a].After(col[b])
			}
			return col[a].Before(col[b])
		}
	default:
		panic("unexpected column type for " + r.Name())
	}
	sort.SliceStable(idx, func(i, j int) bool { return less(idx[i], idx[j]) })
	return d.take(idx), nil
}

// Unpivot converts columns cols from wide to long form. The result has
// every other column of d, followed by a String column key holding the
// name of the source column and a column value holding its value. All
// of cols must have the same kind.
func (d *Dataset) Unpivot(key, value string, cols ...string) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, &errs.SchemaError{Op: "unpivot", Column: value, Detail: "needs at least one source column"}
	}
	var kind Kind
	for i, c := range cols {
		r, err := d.schema.Ref("unpivot", c)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			kind = r.Kind()
		} else if r.Kind() != kind {
			return nil, &errs.SchemaError{Op: "unpivot", Column: c, Detail: fmt.Sprintf("has kind %s, want %s", r.Kind(), kind)}
		}
	}
	long := table.Unpivot(d.t, key, value, cols...)
	lt := long.Table(table.RootGroupID)

	var scols []Column
	var values []interface{}
	for _, name := range long.Columns() {
		var c Column
		switch name {
		case key:
			c = Column{Name: key, Kind: String}
		case value:
			c = Column{Name: value, Kind: kind}
		default:
			c, _ = d.schema.Lookup(name)
		}
		scols = append(scols, c)
		if lt == nil {
			values = append(values, emptySlice(c.Kind))
		} else {
			values = append(values, lt.MustColumn(name))
		}
	}
	s, err := NewSchema(scols...)
	if err != nil {
		return nil, err
	}
	return fromSlices(s, values)
}

// Concat returns the records of ds in order. All datasets must have
// the same column names and kinds.
func Concat(ds ...*Dataset) (*Dataset, error) {
	if len(ds) == 0 {
		return nil, &errs.SchemaError{Op: "concat", Detail: "no datasets"}
	}
	s := ds[0].schema
	values := make([]interface{}, len(s.cols))
	for i, c := range s.cols {
		parts := make([]slice.T, len(ds))
		for j, d := range ds {
			oc, ok := d.schema.Lookup(c.Name)
			if !ok || oc.Kind != c.Kind || d.schema.Len() != s.Len() {
				return nil, &errs.SchemaError{Op: "concat", Column: c.Name, Detail: "does not match across datasets", Have: d.Columns()}
			}
			parts[j] = d.t.MustColumn(c.Name)
		}
		values[i] = slice.Concat(parts...)
	}
	return fromSlices(s, values)
}

// A Group is the set of records of a Dataset that share the values of
// the grouping columns.
type Group struct {
	// Key holds the group's value of each grouping column.
	Key []interface{}

	// Data holds the group's records in source order.
	Data *Dataset

	// First is the index in the source of the group's first
	// record.
	First int
}

// rowColumn is a scratch column used to track source positions
// through go-gg groupings.
const rowColumn = "[row]"

// GroupBy partitions d by the distinct combinations of cols. Groups
// are returned in order of their first record in d, so grouping is
// stable with respect to the source. With no columns, d is a single
// group, even if it has no records.
func (d *Dataset) GroupBy(cols ...string) ([]Group, error) {
	for _, c := range cols {
		if _, err := d.schema.Ref("group", c); err != nil {
			return nil, err
		}
	}
	if len(cols) == 0 {
		return []Group{{Data: d}}, nil
	}
	if d.n == 0 {
		return nil, nil
	}

	rows := make([]int, d.n)
	for i := range rows {
		rows[i] = i
	}
	b := table.NewBuilder(d.t).Add(rowColumn, rows)
	by := make([]string, len(cols))
	for i, c := range cols {
		by[i] = c
		if col, _ := d.schema.Lookup(c); col.Kind == Number {
			xs, err := d.Numbers(c)
			if err != nil {
				return nil, err
			}
			by[i] = "[key " + c + "]"
			b.Add(by[i], numberKeys(xs))
		}
	}
	var g table.Grouping = b.Done()
	for _, c := range by {
		g = table.GroupBy(g, c)
	}

	var groups []Group
	for _, gid := range g.Tables() {
		t := g.Table(gid)
		if t == nil || t.Len() == 0 {
			continue
		}
		idx := t.MustColumn(rowColumn).([]int)
		key := make([]interface{}, len(cols))
		for i, c := range cols {
			key[i] = reflect.ValueOf(t.MustColumn(c)).Index(0).Interface()
		}
		groups = append(groups, Group{Key: key, Data: d.take(idx), First: idx[0]})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].First < groups[j].First })
	return groups, nil
}

// numberKeys returns grouping keys for xs under which every missing
// value is equal and -0 equals 0.
func numberKeys(xs []float64) []uint64 {
	nan := math.Float64bits(math.NaN())
	keys := make([]uint64, len(xs))
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
			keys[i] = nan
		case x == 0:
			keys[i] = 0
		default:
			keys[i] = math.Float64bits(x)
		}
	}
	return keys
}

// KeyLabel formats a group key value the way Labels formats the
// column it came from.
func KeyLabel(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return FormatNumber(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}
