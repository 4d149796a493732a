// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/storyplot/storyplot/internal/errs"
)

const speciesCSV = `species,mass,island,seen,date
A,10,Biscoe,yes,2021-06-01
A,20,Dream,no,2021-06-02
B,5,Biscoe,yes,2021-06-03
B,NA,Dream,no,2021-06-04
`

func TestLoadInfer(t *testing.T) {
	d, err := Load(strings.NewReader(speciesCSV), LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]Kind{
		"species": String,
		"mass":    Number,
		"island":  String,
		"seen":    Bool,
		"date":    Time,
	}
	for _, c := range d.Schema().Columns() {
		if want[c.Name] != c.Kind {
			t.Errorf("column %s has kind %v, want %v", c.Name, c.Kind, want[c.Name])
		}
	}
	mass, _ := d.Numbers("mass")
	if len(mass) != 4 || mass[0] != 10 || !math.IsNaN(mass[3]) {
		t.Errorf("mass = %v, want [10 20 5 NaN]", mass)
	}
	dates, _ := d.Times("date")
	if !dates[2].Equal(time.Date(2021, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date[2] = %v", dates[2])
	}
}

func TestLoadSchema(t *testing.T) {
	s := MustSchema(
		Column{Name: "mass", Kind: Number},
		Column{Name: "species", Kind: String},
	)
	d, err := Load(strings.NewReader(speciesCSV), LoadOptions{Schema: s})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"mass", "species"}, d.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	// A declared column that the source lacks.
	s = MustSchema(Column{Name: "weight", Kind: Number})
	_, err = Load(strings.NewReader(speciesCSV), LoadOptions{Schema: s})
	if !errs.IsSchema(err) {
		t.Fatalf("missing column: got %v, want SchemaError", err)
	}

	// A cell that does not parse as its declared kind.
	s = MustSchema(Column{Name: "island", Kind: Number})
	_, err = Load(strings.NewReader(speciesCSV), LoadOptions{Schema: s})
	if !errs.IsSchema(err) {
		t.Fatalf("bad cell: got %v, want SchemaError", err)
	}
}

func TestLoadTSV(t *testing.T) {
	src := "a\tb\nx y\t1\n"
	d, err := Load(strings.NewReader(src), LoadOptions{Format: TSV})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := d.Strings("a")
	if diff := cmp.Diff([]string{"x y"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBad(t *testing.T) {
	if _, err := Load(strings.NewReader(""), LoadOptions{}); !errs.IsIO(err) {
		t.Errorf("empty input: got %v, want IOError", err)
	}
	if _, err := Load(strings.NewReader("a,b\n1\n"), LoadOptions{}); !errs.IsIO(err) {
		t.Errorf("short row: got %v, want IOError", err)
	}
	if _, err := Load(strings.NewReader("a,a\n1,2\n"), LoadOptions{}); !errs.IsSchema(err) {
		t.Errorf("duplicate header: got %v, want SchemaError", err)
	}
}

func TestFormatOf(t *testing.T) {
	for _, test := range []struct {
		loc  string
		want Format
	}{
		{"data.csv", CSV},
		{"data.TSV", TSV},
		{"https://example.com/x.tsv?raw=1", TSV},
		{"noext", CSV},
	} {
		if got := FormatOf(test.loc); got != test.want {
			t.Errorf("FormatOf(%q) = %v, want %v", test.loc, got, test.want)
		}
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "species.csv")
	if err := os.WriteFile(p, []byte(speciesCSV), 0666); err != nil {
		t.Fatal(err)
	}
	d, err := Open(context.Background(), p, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 4 {
		t.Errorf("Len() = %d, want 4", d.Len())
	}

	_, err = Open(context.Background(), filepath.Join(dir, "missing.csv"), LoadOptions{})
	if !errs.IsIO(err) {
		t.Errorf("missing file: got %v, want IOError", err)
	}
}

func TestOpenURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/species.csv" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, speciesCSV)
	}))
	defer srv.Close()

	d, err := Open(context.Background(), srv.URL+"/species.csv", LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 4 {
		t.Errorf("Len() = %d, want 4", d.Len())
	}
	if _, err := Open(context.Background(), srv.URL+"/nope.csv", LoadOptions{}); !errs.IsIO(err) {
		t.Errorf("404: got %v, want IOError", err)
	}
}
