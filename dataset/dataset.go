// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset provides immutable, typed tables of records.
//
// A Dataset is an ordered sequence of records that share a fixed
// schema. Columns are stored as typed slices in a go-gg table: Number
// columns as []float64 (NaN is a missing value), String columns as
// []string, Bool columns as []bool, and Time columns as []time.Time.
//
// Datasets are never modified in place. Every transformation returns
// a new Dataset, and the slices returned by accessors must not be
// modified by the caller.
package dataset

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"github.com/storyplot/storyplot/internal/errs"
)

// A Record is one row of a Dataset, keyed by column name. Values are
// float64, string, bool, or time.Time according to the column kind.
type Record map[string]interface{}

// Dataset is an immutable table with a fixed schema.
type Dataset struct {
	schema *Schema
	t      *table.Table
	n      int
}

// Empty returns a Dataset with schema s and no rows.
func Empty(s *Schema) *Dataset {
	b := new(table.Builder)
	for _, c := range s.cols {
		b.Add(c.Name, emptySlice(c.Kind))
	}
	return &Dataset{schema: s, t: b.Done()}
}

func emptySlice(k Kind) interface{} {
	return reflect.MakeSlice(k.sliceType(), 0, 0).Interface()
}

// A Builder constructs a Dataset column by column. The kind of each
// column is taken from the Go type of its slice.
type Builder struct {
	cols    []Column
	values  []interface{}
	layouts map[string]string
	err     error
}

// Add adds a column to the dataset being built. values must be a
// []float64, []int, []string, []bool, or []time.Time. Integer slices
// are stored as Number columns.
func (b *Builder) Add(name string, values interface{}) *Builder {
	if b.err != nil {
		return b
	}
	k, ok := kindOf(values)
	if !ok {
		b.err = &errs.SchemaError{Op: "build", Column: name, Detail: fmt.Sprintf("has unsupported type %T", values)}
		return b
	}
	if k == Number {
		if _, isFloat := values.([]float64); !isFloat {
			var fs []float64
			slice.Convert(&fs, values)
			values = fs
		}
	}
	for i, c := range b.cols {
		if c.Name == name {
			b.cols[i].Kind = k
			b.values[i] = values
			return b
		}
	}
	b.cols = append(b.cols, Column{Name: name, Kind: k})
	b.values = append(b.values, values)
	return b
}

// Layout sets the time layout used to print Time column name.
func (b *Builder) Layout(name, layout string) *Builder {
	if b.layouts == nil {
		b.layouts = make(map[string]string)
	}
	b.layouts[name] = layout
	return b
}

// Done returns the built Dataset. All columns must have the same
// length.
func (b *Builder) Done() (*Dataset, error) {
	if b.err != nil {
		return nil, b.err
	}
	for i := range b.cols {
		b.cols[i].Layout = b.layouts[b.cols[i].Name]
	}
	s, err := NewSchema(b.cols...)
	if err != nil {
		return nil, err
	}
	return fromSlices(s, b.values)
}

// MustDone is like Done but panics on error. It is meant for tests
// and literal datasets.
func (b *Builder) MustDone() *Dataset {
	d, err := b.Done()
	if err != nil {
		panic(err)
	}
	return d
}

// fromSlices builds a Dataset from one slice per schema column.
func fromSlices(s *Schema, values []interface{}) (*Dataset, error) {
	n := -1
	tb := new(table.Builder)
	for i, c := range s.cols {
		l := reflect.ValueOf(values[i]).Len()
		if n == -1 {
			n = l
		} else if l != n {
			return nil, &errs.SchemaError{Op: "build", Column: c.Name, Detail: fmt.Sprintf("has %d rows, want %d", l, n)}
		}
		tb.Add(c.Name, values[i])
	}
	if n < 0 {
		n = 0
	}
	return &Dataset{schema: s, t: tb.Done(), n: n}, nil
}

// FromRecords builds a Dataset with schema s from recs. Each record
// must provide a value of the right kind for every column; a missing
// Number value may be given as nil and is stored as NaN.
func FromRecords(s *Schema, recs []Record) (*Dataset, error) {
	values := make([]interface{}, len(s.cols))
	for ci, c := range s.cols {
		switch c.Kind {
		case Number:
			col := make([]float64, len(recs))
			for i, r := range recs {
				v, err := recordNumber(r, c.Name)
				if err != nil {
					return nil, rowErr(c, i, err)
				}
				col[i] = v
			}
			values[ci] = col
		case String:
			col := make([]string, len(recs))
			for i, r := range recs {
				v, ok := r[c.Name].(string)
				if !ok {
					return nil, rowErr(c, i, fmt.Errorf("got %T, want string", r[c.Name]))
				}
				col[i] = v
			}
			values[ci] = col
		case Bool:
			col := make([]bool, len(recs))
			for i, r := range recs {
				v, ok := r[c.Name].(bool)
				if !ok {
					return nil, rowErr(c, i, fmt.Errorf("got %T, want bool", r[c.Name]))
				}
				col[i] = v
			}
			values[ci] = col
		case Time:
			col := make([]time.Time, len(recs))
			for i, r := range recs {
				v, ok := r[c.Name].(time.Time)
				if !ok {
					return nil, rowErr(c, i, fmt.Errorf("got %T, want time.Time", r[c.Name]))
				}
				col[i] = v
			}
			values[ci] = col
		}
	}
	return fromSlices(s, values)
}

func recordNumber(r Record, name string) (float64, error) {
	switch v := r[name].(type) {
	case nil:
		if _, ok := r[name]; !ok {
			return 0, fmt.Errorf("missing value")
		}
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("got %T, want number", r[name])
}

func rowErr(c Column, row int, err error) error {
	return &errs.SchemaError{Op: "build", Column: c.Name, Detail: fmt.Sprintf("row %d", row), Err: err}
}

// Schema returns d's schema.
func (d *Dataset) Schema() *Schema { return d.schema }

// Len returns the number of records in d.
func (d *Dataset) Len() int { return d.n }

// Columns returns d's column names in order.
func (d *Dataset) Columns() []string { return d.schema.Names() }

// Table returns d's underlying go-gg table. The caller must not
// modify it.
func (d *Dataset) Table() *table.Table { return d.t }

// Ref returns a validated reference to column name.
func (d *Dataset) Ref(op, name string) (Ref, error) {
	return d.schema.Ref(op, name)
}

// Values returns the raw column slice for name.
func (d *Dataset) Values(name string) (interface{}, error) {
	if _, err := d.schema.Ref("values", name); err != nil {
		return nil, err
	}
	return d.t.MustColumn(name), nil
}

// Numbers returns Number column name.
func (d *Dataset) Numbers(name string) ([]float64, error) {
	if _, err := d.schema.RefKind("numbers", name, Number); err != nil {
		return nil, err
	}
	return d.t.MustColumn(name).([]float64), nil
}

// Strings returns String column name.
func (d *Dataset) Strings(name string) ([]string, error) {
	if _, err := d.schema.RefKind("strings", name, String); err != nil {
		return nil, err
	}
	return d.t.MustColumn(name).([]string), nil
}

// Bools returns Bool column name.
func (d *Dataset) Bools(name string) ([]bool, error) {
	if _, err := d.schema.RefKind("bools", name, Bool); err != nil {
		return nil, err
	}
	return d.t.MustColumn(name).([]bool), nil
}

// Times returns Time column name.
func (d *Dataset) Times(name string) ([]time.Time, error) {
	if _, err := d.schema.RefKind("times", name, Time); err != nil {
		return nil, err
	}
	return d.t.MustColumn(name).([]time.Time), nil
}

// Labels returns the values of column name formatted as category
// labels. Any column kind can be used as a category.
func (d *Dataset) Labels(name string) ([]string, error) {
	r, err := d.schema.Ref("labels", name)
	if err != nil {
		return nil, err
	}
	c := r.Column()
	out := make([]string, d.n)
	switch col := d.t.MustColumn(name).(type) {
	case []string:
		copy(out, col)
	case []float64:
		for i, v := range col {
			out[i] = FormatNumber(v)
		}
	case []bool:
		for i, v := range col {
			out[i] = strconv.FormatBool(v)
		}
	case []time.Time:
		for i, v := range col {
			out[i] = formatTime(c, v)
		}
	}
	return out, nil
}

// Float returns column name as float64s. Number columns are returned
// directly; Bool columns map to 0 and 1; Time columns map to Unix
// seconds.
func (d *Dataset) Float(name string) ([]float64, error) {
	if _, err := d.schema.RefKind("float", name, Number, Bool, Time); err != nil {
		return nil, err
	}
	switch col := d.t.MustColumn(name).(type) {
	case []float64:
		return col, nil
	case []bool:
		out := make([]float64, len(col))
		for i, v := range col {
			if v {
				out[i] = 1
			}
		}
		return out, nil
	case []time.Time:
		out := make([]float64, len(col))
		for i, v := range col {
			out[i] = float64(v.UnixNano()) / 1e9
		}
		return out, nil
	}
	panic("unreachable")
}

// Distinct returns the distinct labels of column name in order of
// first occurrence.
func (d *Dataset) Distinct(name string) ([]string, error) {
	labels, err := d.Labels(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, nil
}

// Row returns record i of d.
func (d *Dataset) Row(i int) Record {
	if i < 0 || i >= d.n {
		panic(fmt.Sprintf("row %d out of range [0, %d)", i, d.n))
	}
	r := make(Record, len(d.schema.cols))
	for _, c := range d.schema.cols {
		r[c.Name] = reflect.ValueOf(d.t.MustColumn(c.Name)).Index(i).Interface()
	}
	return r
}

// Records returns all records of d.
func (d *Dataset) Records() []Record {
	out := make([]Record, d.n)
	for i := range out {
		out[i] = d.Row(i)
	}
	return out
}

// FormatNumber formats x the way numeric category labels and table
// cells are printed: the shortest representation that round-trips,
// and "NA" for missing values.
func FormatNumber(x float64) string {
	if math.IsNaN(x) {
		return "NA"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func formatTime(c Column, t time.Time) string {
	if c.Layout != "" {
		return t.Format(c.Layout)
	}
	return t.Format("2006-01-02")
}
