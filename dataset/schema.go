// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/storyplot/storyplot/internal/errs"
)

// Kind is the value type of a column.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	Time
)

var kindNames = [...]string{String: "string", Number: "number", Bool: "bool", Time: "time"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind named s. The empty string is not a kind;
// callers that want inference must check for it first.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "string", "str", "category", "categorical":
		return String, nil
	case "number", "numeric", "float", "int", "double":
		return Number, nil
	case "bool", "boolean", "logical", "flag":
		return Bool, nil
	case "time", "date", "datetime":
		return Time, nil
	}
	return 0, fmt.Errorf("unknown column kind %q", s)
}

// sliceType returns the Go slice type used to store columns of kind k.
func (k Kind) sliceType() reflect.Type {
	switch k {
	case Number:
		return reflect.TypeOf([]float64(nil))
	case Bool:
		return reflect.TypeOf([]bool(nil))
	case Time:
		return reflect.TypeOf([]time.Time(nil))
	}
	return reflect.TypeOf([]string(nil))
}

// kindOf returns the Kind stored in a column slice, converting integer
// slices to Number. ok is false if the slice type is not supported.
func kindOf(values interface{}) (k Kind, ok bool) {
	switch values.(type) {
	case []string:
		return String, true
	case []float64, []int, []int64, []float32:
		return Number, true
	case []bool:
		return Bool, true
	case []time.Time:
		return Time, true
	}
	return 0, false
}

// Column describes one column of a schema.
type Column struct {
	Name string
	Kind Kind

	// Layout is the time.Parse layout used to read and print Time
	// columns. If empty, DefaultTimeLayouts are tried in order and
	// values print as 2006-01-02.
	Layout string
}

// Schema is the ordered, fixed set of columns of a Dataset. A Schema
// is immutable once constructed.
type Schema struct {
	cols  []Column
	index map[string]int
}

// NewSchema returns a schema with the given columns. Column names
// must be non-empty and unique.
func NewSchema(cols ...Column) (*Schema, error) {
	s := &Schema{cols: append([]Column(nil), cols...), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, &errs.SchemaError{Op: "schema", Column: "", Detail: fmt.Sprintf("at position %d has no name", i)}
		}
		if _, dup := s.index[c.Name]; dup {
			return nil, &errs.SchemaError{Op: "schema", Column: c.Name, Detail: "declared twice"}
		}
		s.index[c.Name] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. It is meant for
// schemas written as literals.
func MustSchema(cols ...Column) *Schema {
	s, err := NewSchema(cols...)
	if err != nil {
		panic(err)
	}
	return s
}

// Columns returns the columns of s in order.
func (s *Schema) Columns() []Column {
	return append([]Column(nil), s.cols...)
}

// Names returns the column names of s in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.cols))
	for i, c := range s.cols {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of columns in s.
func (s *Schema) Len() int {
	return len(s.cols)
}

// Lookup returns the column named name.
func (s *Schema) Lookup(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.cols[i], true
}

// Ref validates that name is a column of s and returns a typed
// reference to it. All column lookups by name funnel through Ref so
// a missing column is reported at the boundary of an operation
// rather than deep inside it.
func (s *Schema) Ref(op, name string) (Ref, error) {
	c, ok := s.Lookup(name)
	if !ok {
		return Ref{}, &errs.SchemaError{Op: op, Column: name, Have: s.Names()}
	}
	return Ref{col: c}, nil
}

// RefKind is like Ref but also requires the column to have one of
// the given kinds.
func (s *Schema) RefKind(op, name string, kinds ...Kind) (Ref, error) {
	r, err := s.Ref(op, name)
	if err != nil {
		return r, err
	}
	for _, k := range kinds {
		if r.col.Kind == k {
			return r, nil
		}
	}
	want := make([]string, len(kinds))
	for i, k := range kinds {
		want[i] = k.String()
	}
	return Ref{}, &errs.SchemaError{Op: op, Column: name, Detail: fmt.Sprintf("has kind %s, want %s", r.col.Kind, strings.Join(want, " or "))}
}

// with returns a copy of s with column c appended, or with the
// existing column of the same name replaced in place.
func (s *Schema) with(c Column) *Schema {
	ns := &Schema{cols: append([]Column(nil), s.cols...), index: make(map[string]int, len(s.cols)+1)}
	for k, v := range s.index {
		ns.index[k] = v
	}
	if i, ok := ns.index[c.Name]; ok {
		ns.cols[i] = c
		return ns
	}
	ns.index[c.Name] = len(ns.cols)
	ns.cols = append(ns.cols, c)
	return ns
}

// Ref is a column reference that has been validated against a schema.
type Ref struct {
	col Column
}

// Name returns the referenced column's name.
func (r Ref) Name() string { return r.col.Name }

// Kind returns the referenced column's kind.
func (r Ref) Kind() Kind { return r.col.Kind }

// Column returns the referenced column's description.
func (r Ref) Column() Column { return r.col }
