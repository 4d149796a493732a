// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"bufio"
	"io"
	"strings"

	"github.com/aclements/go-gg/table"
)

// cells returns the rows of d as formatted strings, one slice per
// column.
func (d *Dataset) cells() [][]string {
	cols := make([][]string, len(d.schema.cols))
	for i, c := range d.schema.cols {
		cols[i], _ = d.Labels(c.Name)
	}
	return cols
}

// WriteTSV writes d to w as tab-separated values. Missing numbers are
// written as NA so the output can be loaded back with Load.
func (d *Dataset) WriteTSV(w io.Writer, withHeader bool) (err error) {
	buf := bufio.NewWriter(w)
	defer func() {
		if ferr := buf.Flush(); err == nil {
			err = ferr
		}
	}()

	if withHeader {
		if _, err = buf.WriteString(strings.Join(d.Columns(), "\t") + "\n"); err != nil {
			return
		}
	}

	cols := d.cells()
	for i := 0; i < d.n; i++ {
		for j, col := range cols {
			if j > 0 {
				buf.WriteByte('\t')
			}
			buf.WriteString(col[i])
		}
		if _, err = buf.WriteString("\n"); err != nil {
			return
		}
	}
	return
}

// Fprint writes d to w as an aligned text table. Write errors are
// not reported.
func (d *Dataset) Fprint(w io.Writer) error {
	if d.n == 0 {
		_, err := io.WriteString(w, strings.Join(d.Columns(), "  ")+"\n")
		return err
	}
	tb := new(table.Builder)
	for i, col := range d.cells() {
		tb.Add(d.schema.cols[i].Name, col)
	}
	table.Fprint(w, tb.Done())
	return nil
}
