// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/storyplot/storyplot/internal/errs"
)

func TestNewSchema(t *testing.T) {
	if _, err := NewSchema(Column{Name: "a"}, Column{Name: "a"}); !errs.IsSchema(err) {
		t.Errorf("duplicate column: got %v, want SchemaError", err)
	}
	if _, err := NewSchema(Column{Name: ""}); !errs.IsSchema(err) {
		t.Errorf("unnamed column: got %v, want SchemaError", err)
	}
	s := MustSchema(Column{Name: "x", Kind: Number}, Column{Name: "y"})
	if diff := cmp.Diff([]string{"x", "y"}, s.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.RefKind("test", "y", Number); !errs.IsSchema(err) {
		t.Errorf("RefKind on string column: got %v, want SchemaError", err)
	}
	_, err := s.Ref("test", "z")
	se, ok := err.(*errs.SchemaError)
	if !ok {
		t.Fatalf("Ref(z): got %v, want SchemaError", err)
	}
	if diff := cmp.Diff([]string{"x", "y"}, se.Have); diff != "" {
		t.Errorf("SchemaError.Have mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKind(t *testing.T) {
	for _, test := range []struct {
		in   string
		want Kind
	}{
		{"number", Number},
		{"int", Number},
		{"category", String},
		{"Bool", Bool},
		{"date", Time},
	} {
		got, err := ParseKind(test.in)
		if err != nil || got != test.want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", test.in, got, err, test.want)
		}
	}
	if _, err := ParseKind("complex"); err == nil {
		t.Errorf("ParseKind(complex) should fail")
	}
}

func TestBuilder(t *testing.T) {
	d := new(Builder).
		Add("n", []int{1, 2, 3}).
		Add("s", []string{"a", "b", "c"}).
		MustDone()
	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}
	if r, _ := d.Ref("test", "n"); r.Kind() != Number {
		t.Errorf("int column has kind %v, want number", r.Kind())
	}
	ns, err := d.Numbers("n")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, ns); diff != "" {
		t.Errorf("Numbers mismatch (-want +got):\n%s", diff)
	}

	_, err = new(Builder).Add("a", []int{1}).Add("b", []int{1, 2}).Done()
	if !errs.IsSchema(err) {
		t.Errorf("ragged columns: got %v, want SchemaError", err)
	}
	_, err = new(Builder).Add("a", []complex128{1}).Done()
	if !errs.IsSchema(err) {
		t.Errorf("unsupported type: got %v, want SchemaError", err)
	}
}

func TestFromRecords(t *testing.T) {
	s := MustSchema(Column{Name: "k"}, Column{Name: "v", Kind: Number})
	d, err := FromRecords(s, []Record{
		{"k": "a", "v": 1},
		{"k": "b", "v": nil},
	})
	if err != nil {
		t.Fatal(err)
	}
	vs, _ := d.Numbers("v")
	if vs[0] != 1 || !math.IsNaN(vs[1]) {
		t.Errorf("got %v, want [1 NaN]", vs)
	}
	if _, err := FromRecords(s, []Record{{"k": "a"}}); !errs.IsSchema(err) {
		t.Errorf("missing value: got %v, want SchemaError", err)
	}
	if _, err := FromRecords(s, []Record{{"k": 1, "v": 1}}); !errs.IsSchema(err) {
		t.Errorf("wrong kind: got %v, want SchemaError", err)
	}
}

func TestLabels(t *testing.T) {
	day := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	d := new(Builder).
		Add("x", []float64{1.5, math.NaN()}).
		Add("b", []bool{true, false}).
		Add("t", []time.Time{day, day}).
		MustDone()
	for _, test := range []struct {
		col  string
		want []string
	}{
		{"x", []string{"1.5", "NA"}},
		{"b", []string{"true", "false"}},
		{"t", []string{"2020-03-01", "2020-03-01"}},
	} {
		got, err := d.Labels(test.col)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Labels(%s) mismatch (-want +got):\n%s", test.col, diff)
		}
	}
	got, _ := d.Distinct("t")
	if diff := cmp.Diff([]string{"2020-03-01"}, got); diff != "" {
		t.Errorf("Distinct mismatch (-want +got):\n%s", diff)
	}
}

func TestEmpty(t *testing.T) {
	d := Empty(MustSchema(Column{Name: "a", Kind: Number}, Column{Name: "b", Kind: Time}))
	if d.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", d.Len())
	}
	ts, err := d.Times("b")
	if err != nil || len(ts) != 0 {
		t.Errorf("Times(b) = %v, %v; want empty", ts, err)
	}
	if len(d.Records()) != 0 {
		t.Errorf("Records() of empty dataset should be empty")
	}
}

func TestWriteTSV(t *testing.T) {
	d := new(Builder).
		Add("name", []string{"a", "b"}).
		Add("value", []float64{1, math.NaN()}).
		MustDone()
	var buf bytes.Buffer
	if err := d.WriteTSV(&buf, true); err != nil {
		t.Fatal(err)
	}
	want := "name\tvalue\na\t1\nb\tNA\n"
	if buf.String() != want {
		t.Errorf("WriteTSV wrote %q, want %q", buf.String(), want)
	}

	// What we write, we can read back.
	back, err := Load(&buf, LoadOptions{Format: TSV})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d.Records(), back.Records(), cmp.Comparer(sameFloat)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func sameFloat(x, y float64) bool {
	return x == y || math.IsNaN(x) && math.IsNaN(y)
}
