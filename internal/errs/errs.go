// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs defines the error kinds shared by the dataset,
// aggregate, render, and story packages.
//
// Every kind is a concrete struct type so callers can recover the
// context with errors.As. None of these errors are transient; nothing
// in this module retries on them.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports a reference to a column that a dataset does not
// have, or a column whose values do not match its declared kind.
type SchemaError struct {
	Op     string // operation that detected the problem
	Column string
	Have   []string // columns that were available, if known
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "column %q", e.Column)
	if e.Detail != "" {
		b.WriteString(" ")
		b.WriteString(e.Detail)
	} else {
		b.WriteString(" not found")
	}
	if len(e.Have) > 0 {
		fmt.Fprintf(&b, " (have %s)", strings.Join(e.Have, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ValueError reports a statistic requested outside its domain, such
// as a probability outside [0, 1] or a reduction over no values.
type ValueError struct {
	Op     string
	Detail string
}

func (e *ValueError) Error() string {
	if e.Op == "" {
		return e.Detail
	}
	return e.Op + ": " + e.Detail
}

// MappingError reports a visual mapping that cannot be honored: a
// mapped column is absent or a discrete channel has more categories
// than colors.
type MappingError struct {
	Channel string
	Column  string
	Detail  string
}

func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("mapping")
	if e.Channel != "" {
		fmt.Fprintf(&b, " %s", e.Channel)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " (column %q)", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Detail)
	return b.String()
}

// LayoutError reports a composite layout with overlapping, unplaced,
// or malformed panel placements.
type LayoutError struct {
	Panel  string
	Cell   string
	Detail string
}

func (e *LayoutError) Error() string {
	var b strings.Builder
	b.WriteString("layout")
	if e.Panel != "" {
		fmt.Fprintf(&b, ": panel %q", e.Panel)
	}
	if e.Cell != "" {
		fmt.Fprintf(&b, ": cell %q", e.Cell)
	}
	b.WriteString(": ")
	b.WriteString(e.Detail)
	return b.String()
}

// IOError reports a failure to read a source or write an image.
type IOError struct {
	Op   string // "load", "fetch", "write", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return e.Op + " " + e.Path
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// IsSchema reports whether err is or wraps a *SchemaError.
func IsSchema(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}

// IsValue reports whether err is or wraps a *ValueError.
func IsValue(err error) bool {
	var e *ValueError
	return errors.As(err, &e)
}

// IsMapping reports whether err is or wraps a *MappingError.
func IsMapping(err error) bool {
	var e *MappingError
	return errors.As(err, &e)
}

// IsLayout reports whether err is or wraps a *LayoutError.
func IsLayout(err error) bool {
	var e *LayoutError
	return errors.As(err, &e)
}

// IsIO reports whether err is or wraps an *IOError.
func IsIO(err error) bool {
	var e *IOError
	return errors.As(err, &e)
}

// Kind returns a short name for the kind of err, or "" if err is not
// one of this package's kinds. It is used for structured log fields.
func Kind(err error) string {
	switch {
	case IsSchema(err):
		return "schema"
	case IsValue(err):
		return "value"
	case IsMapping(err):
		return "mapping"
	case IsLayout(err):
		return "layout"
	case IsIO(err):
		return "io"
	}
	return ""
}
