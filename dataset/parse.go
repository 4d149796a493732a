// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/storyplot/storyplot/internal/errs"
)

// DefaultTimeLayouts are tried in order when reading a Time column
// that has no explicit layout.
var DefaultTimeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// A ValueParser parses a raw cell into a value of Kind.
type ValueParser struct {
	Kind  Kind
	Parse func(string) (interface{}, error)
}

// DefaultValueParsers is the sequence of parsers used to infer the
// kind of a column with no declared kind. A column takes the kind of
// the earliest parser that accepts every one of its cells; if none
// does, it is a String column.
var DefaultValueParsers = []ValueParser{
	{Number, func(s string) (interface{}, error) { return parseNumber(s) }},
	{Bool, func(s string) (interface{}, error) { return parseBool(s) }},
	{Time, func(s string) (interface{}, error) { return parseTime("", s) }},
}

// missing reports whether s spells a missing value.
func missing(s string) bool {
	switch s {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL":
		return true
	}
	return false
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if missing(s) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func parseTime(layout, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout != "" {
		return time.Parse(layout, s)
	}
	var err error
	for _, l := range DefaultTimeLayouts {
		var t time.Time
		if t, err = time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// parseColumn converts the raw cells of column c to c's kind.
func parseColumn(c Column, raw []string) (interface{}, error) {
	fail := func(row int, err error) error {
		return &errs.SchemaError{Op: "load", Column: c.Name, Detail: fmt.Sprintf("row %d: cannot parse %q as %s", row+1, raw[row], c.Kind), Err: err}
	}
	switch c.Kind {
	case Number:
		out := make([]float64, len(raw))
		for i, s := range raw {
			v, err := parseNumber(s)
			if err != nil {
				return nil, fail(i, err)
			}
			out[i] = v
		}
		return out, nil
	case Bool:
		out := make([]bool, len(raw))
		for i, s := range raw {
			v, err := parseBool(s)
			if err != nil {
				return nil, fail(i, err)
			}
			out[i] = v
		}
		return out, nil
	case Time:
		out := make([]time.Time, len(raw))
		for i, s := range raw {
			v, err := parseTime(c.Layout, s)
			if err != nil {
				return nil, fail(i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	return append([]string(nil), raw...), nil
}

// inferKind returns the kind of the earliest parser in parsers that
// accepts every cell of raw, or String.
func inferKind(raw []string, parsers []ValueParser) Kind {
tryParsers:
	for _, vp := range parsers {
		for _, s := range raw {
			if _, err := vp.Parse(s); err != nil {
				continue tryParsers
			}
		}
		return vp.Kind
	}
	return String
}
