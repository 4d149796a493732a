// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// numberFormat formats numeric labels for a locale.
type numberFormat struct {
	p *message.Printer
}

func newNumberFormat(locale string) *numberFormat {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &numberFormat{message.NewPrinter(tag)}
}

// format formats x with enough fraction digits to distinguish
// multiples of step. If step is 0, x is formatted with up to 6
// significant fraction digits.
func (f *numberFormat) format(x, step float64) string {
	if math.IsNaN(x) {
		return "NA"
	}
	digits := 6
	if step > 0 {
		digits = 0
		for s := step; s < 1 && digits < 10; s *= 10 {
			digits++
		}
		// Round away float noise such as 0.30000000000000004.
		p := math.Pow(10, float64(digits))
		x = math.Round(x*p) / p
	}
	if x == 0 {
		x = 0 // no "-0"
	}
	return f.p.Sprint(number.Decimal(x, number.MaxFractionDigits(digits)))
}

// textMetrics are the approximate pixel metrics of a string.
type textMetrics struct {
	width   float64
	leading float64
}

// measureString returns the metrics in pixels of s rendered in a font
// with pixel size pxSize.
//
// TODO: Measure with the font's real advances once SVG output embeds
// a known font.
func measureString(pxSize float64, s string) textMetrics {
	return textMetrics{
		width:   0.55 * pxSize * float64(utf8.RuneCountInString(s)),
		leading: 1.25 * pxSize,
	}
}
