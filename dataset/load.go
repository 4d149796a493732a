// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"github.com/storyplot/storyplot/internal/errs"
)

// Format is a delimited-text source format.
type Format int

const (
	// Auto guesses the format from the source's extension and
	// reads it as CSV if there is nothing to go on.
	Auto Format = iota
	CSV
	TSV
)

func (f Format) String() string {
	if f == TSV {
		return "tsv"
	}
	return "csv"
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return Auto, nil
	case "csv":
		return CSV, nil
	case "tsv", "tab":
		return TSV, nil
	}
	return Auto, fmt.Errorf("unknown source format %q", s)
}

// FormatOf guesses the Format of a path or URL from its extension.
func FormatOf(location string) Format {
	if i := strings.IndexAny(location, "?#"); i >= 0 && isURL(location) {
		location = location[:i]
	}
	switch strings.ToLower(path.Ext(location)) {
	case ".tsv", ".tab", ".txt":
		return TSV
	}
	return CSV
}

// LoadOptions controls how delimited text is read into a Dataset.
type LoadOptions struct {
	Format Format

	// Schema, if non-nil, is the fixed schema of the source. Only
	// the schema's columns are kept, in schema order, and every
	// schema column must appear in the header. Cells that do not
	// parse as their column's kind are a SchemaError.
	//
	// If Schema is nil, every column is kept and its kind is
	// inferred using DefaultValueParsers.
	Schema *Schema
}

// Load reads a delimited-text table with a header row from r.
func Load(r io.Reader, opts LoadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	if opts.Format == TSV {
		cr.Comma = '\t'
		cr.LazyQuotes = true
	}
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, &errs.IOError{Op: "load", Path: opts.Format.String(), Err: err}
	}
	if len(recs) == 0 {
		return nil, &errs.IOError{Op: "load", Path: opts.Format.String(), Err: fmt.Errorf("no header row")}
	}
	header, rows := recs[0], recs[1:]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if opts.Schema == nil {
		return infer(header, rows)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	values := make([]interface{}, opts.Schema.Len())
	raw := make([]string, len(rows))
	for ci, c := range opts.Schema.cols {
		i, ok := pos[c.Name]
		if !ok {
			return nil, &errs.SchemaError{Op: "load", Column: c.Name, Have: header}
		}
		for ri, row := range rows {
			raw[ri] = row[i]
		}
		if values[ci], err = parseColumn(c, raw); err != nil {
			return nil, err
		}
	}
	return fromSlices(opts.Schema, values)
}

// infer builds a Dataset from string cells, letting go-gg coerce
// integer and floating point columns and trying the remaining value
// parsers on what is left as strings.
func infer(header []string, rows [][]string) (*Dataset, error) {
	if _, err := NewSchema(namesAsColumns(header)...); err != nil {
		return nil, err
	}
	tab := table.TableFromStrings(header, rows, true)
	b := new(Builder)
	for ci, name := range header {
		var col interface{}
		if len(rows) > 0 {
			col = tab.MustColumn(name)
		} else {
			col = []string{}
		}
		switch v := col.(type) {
		case []float64:
			b.Add(name, v)
		case []int:
			var fs []float64
			slice.Convert(&fs, v)
			b.Add(name, fs)
		case []string:
			c := Column{Name: name, Kind: inferKind(v, DefaultValueParsers)}
			parsed, err := parseColumn(c, v)
			if err != nil {
				return nil, err
			}
			b.Add(name, parsed)
		default:
			raw := make([]string, len(rows))
			for i := range rows {
				raw[i] = rows[i][ci]
			}
			b.Add(name, raw)
		}
	}
	return b.Done()
}

func namesAsColumns(names []string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n}
	}
	return cols
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Open loads the table at location, which is a local path or an
// http(s) URL. If opts.Format is the zero value, the format is
// guessed from location's extension.
//
// Remote sources are fetched once with a plain GET; there is no retry.
func Open(ctx context.Context, location string, opts LoadOptions) (*Dataset, error) {
	if opts.Format == Auto {
		opts.Format = FormatOf(location)
	}
	rc, err := openSource(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	d, err := Load(rc, opts)
	if e, ok := err.(*errs.IOError); ok {
		e.Path = location
	}
	return d, err
}

func openSource(ctx context.Context, location string) (io.ReadCloser, error) {
	if !isURL(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, &errs.IOError{Op: "open", Path: location, Err: err}
		}
		return f, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &errs.IOError{Op: "fetch", Path: location, Err: err}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &errs.IOError{Op: "fetch", Path: location, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &errs.IOError{Op: "fetch", Path: location, Err: fmt.Errorf("%s", resp.Status)}
	}
	return resp.Body, nil
}
