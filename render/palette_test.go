// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/storyplot/storyplot/internal/errs"
)

func TestAssignPaletteDirect(t *testing.T) {
	cats := []string{"Adelie", "Gentoo", "Chinstrap"}
	m, err := AssignPalette(cats, Dark2)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range cats {
		got, ok := m.Color(c)
		if !ok {
			t.Fatalf("no color for %q", c)
		}
		if got != Dark2[i] {
			t.Errorf("color of %q = %v, want %v", c, got, Dark2[i])
		}
	}
	if _, ok := m.Color("Emperor"); ok {
		t.Errorf("unmapped category has a color")
	}
	if diff := cmp.Diff(cats, m.Categories()); diff != "" {
		t.Errorf("categories (-want +got):\n%s", diff)
	}
}

func TestAssignPaletteDeterministic(t *testing.T) {
	cats := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	m1, err := AssignPalette(cats, Dark2)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := AssignPalette(cats, Dark2)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[color.RGBA]string{}
	for _, c := range cats {
		c1, _ := m1.Color(c)
		c2, _ := m2.Color(c)
		if c1 != c2 {
			t.Errorf("category %q: %v then %v", c, c1, c2)
		}
		if other, ok := seen[c1]; ok {
			t.Errorf("categories %q and %q share %v", other, c, c1)
		}
		seen[c1] = c
	}
}

func TestAssignPaletteRamp(t *testing.T) {
	black := color.RGBA{0, 0, 0, 0xff}
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	cats := []string{"v", "w", "x", "y", "z"}
	m, err := AssignPalette(cats, []color.RGBA{black, white})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != len(cats) {
		t.Fatalf("Len = %d, want %d", m.Len(), len(cats))
	}
	first, _ := m.Color("v")
	last, _ := m.Color("z")
	if first != black || last != white {
		t.Errorf("ramp ends = %v, %v; want %v, %v", first, last, black, white)
	}
	// The ramp gets lighter along the categories.
	prev := -1
	for _, c := range cats {
		col, _ := m.Color(c)
		if int(col.R) <= prev {
			t.Errorf("color of %q = %v, not lighter than previous", c, col)
		}
		prev = int(col.R)
	}
}

func TestAssignPaletteErrors(t *testing.T) {
	red := color.RGBA{0xff, 0, 0, 0xff}
	for _, test := range []struct {
		name string
		cats []string
		base []color.RGBA
	}{
		{"duplicate category", []string{"a", "a"}, Dark2},
		{"no colors", []string{"a"}, nil},
		{"one color many categories", []string{"a", "b"}, []color.RGBA{red}},
		{"duplicate base colors", []string{"a", "b"}, []color.RGBA{red, red}},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := AssignPalette(test.cats, test.base)
			if !errs.IsMapping(err) {
				t.Errorf("want MappingError, got %v", err)
			}
		})
	}

	m, err := AssignPalette(nil, nil)
	if err != nil || m.Len() != 0 {
		t.Errorf("empty palette: %v, %v", m, err)
	}
}

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		in   string
		want color.RGBA
	}{
		{"#fff", color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{"#1b9e77", color.RGBA{0x1b, 0x9e, 0x77, 0xff}},
		{"#00000000", color.RGBA{}},
		{"transparent", color.RGBA{}},
		{" SteelBlue ", color.RGBA{0x46, 0x82, 0xb4, 0xff}},
		{"chartreuse", color.RGBA{0x7f, 0xff, 0x00, 0xff}},
	} {
		got, err := ParseColor(test.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseColor(%q) = %v, want %v", test.in, got, test.want)
		}
	}
	for _, bad := range []string{"", "#12", "#ggg", "chartreuse-ish", "rebeccapurple"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) succeeded", bad)
		}
	}
}
