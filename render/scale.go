// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aclements/go-moremath/scale"
	"github.com/storyplot/storyplot/dataset"
)

type domainKind int

const (
	domainNone domainKind = iota
	domainContinuous
	domainTime
	domainDiscrete
)

func (k domainKind) String() string {
	switch k {
	case domainContinuous:
		return "continuous"
	case domainTime:
		return "time"
	case domainDiscrete:
		return "discrete"
	}
	return "none"
}

// A domain is the trained input range of one axis.
//
// Discrete domains map category i to the unit interval [i, i+1], so
// both kinds of axis share one linear mapping from domain units to
// pixels.
type domain struct {
	kind     domainKind
	min, max float64 // continuous and time
	zero     bool    // continuous extent must include 0
	cats     []string
	index    map[string]int
	layout   string // time label layout
}

// trainColumn widens d to cover column col of data.
func (d *domain) trainColumn(data *dataset.Dataset, col string) error {
	c, _ := data.Schema().Lookup(col)
	var kind domainKind
	switch c.Kind {
	case dataset.Number:
		kind = domainContinuous
	case dataset.Time:
		kind = domainTime
	default:
		kind = domainDiscrete
	}
	if err := d.setKind(kind, col); err != nil {
		return err
	}
	if kind == domainDiscrete {
		labels, _ := data.Labels(col)
		for _, l := range labels {
			d.addCat(l)
		}
		return nil
	}
	if kind == domainTime && d.layout == "" {
		d.layout = c.Layout
	}
	xs, _ := data.Float(col)
	for _, x := range xs {
		d.include(x)
	}
	return nil
}

func (d *domain) setKind(kind domainKind, col string) error {
	if d.kind == domainNone {
		d.kind = kind
		d.min, d.max = math.NaN(), math.NaN()
		return nil
	}
	if d.kind != kind {
		return fmt.Errorf("column %q is %s but the axis is %s", col, kind, d.kind)
	}
	return nil
}

func (d *domain) include(x float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return
	}
	if x < d.min || math.IsNaN(d.min) {
		d.min = x
	}
	if x > d.max || math.IsNaN(d.max) {
		d.max = x
	}
}

func (d *domain) addCat(c string) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if _, ok := d.index[c]; !ok {
		d.index[c] = len(d.cats)
		d.cats = append(d.cats, c)
	}
}

// merge widens d to cover o.
func (d *domain) merge(o *domain) error {
	if o.kind == domainNone {
		return nil
	}
	if err := d.setKind(o.kind, "shared"); err != nil {
		return fmt.Errorf("cannot share a %s axis with a %s axis", d.kind, o.kind)
	}
	for _, c := range o.cats {
		d.addCat(c)
	}
	d.include(o.min)
	d.include(o.max)
	d.zero = d.zero || o.zero
	if d.layout == "" {
		d.layout = o.layout
	}
	return nil
}

// linear returns the mapping of d's units to [0, 1], with a margin
// around continuous data so extreme marks are not drawn on the
// plot's edge.
func (d *domain) linear() scale.Linear {
	switch d.kind {
	case domainDiscrete:
		n := len(d.cats)
		if n == 0 {
			n = 1
		}
		return scale.Linear{Min: 0, Max: float64(n)}
	case domainNone:
		return scale.Linear{Min: 0, Max: 1}
	}
	lo, hi := d.min, d.max
	if math.IsNaN(lo) {
		lo, hi = 0, 1
	}
	if d.zero {
		lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	}
	if lo == hi {
		pad := math.Abs(lo) / 2
		if d.kind == domainTime {
			pad = day
		}
		if pad == 0 {
			pad = 1
		}
		return scale.Linear{Min: lo - pad, Max: hi + pad}
	}
	pad := 0.05 * (hi - lo)
	min, max := lo-pad, hi+pad
	if d.zero && lo == 0 {
		min = 0
	}
	if d.zero && hi == 0 {
		max = 0
	}
	return scale.Linear{Min: min, Max: max}
}

// units converts the values of column col to domain units, or NaN
// for values outside the domain.
func (d *domain) units(data *dataset.Dataset, col string) []float64 {
	if d.kind == domainDiscrete {
		labels, _ := data.Labels(col)
		out := make([]float64, len(labels))
		for i, l := range labels {
			if j, ok := d.index[l]; ok {
				out[i] = float64(j) + 0.5
			} else {
				out[i] = math.NaN()
			}
		}
		return out
	}
	xs, _ := data.Float(col)
	return xs
}

// An axis maps domain units to pixels.
type axis struct {
	dom    *domain
	lin    scale.Linear
	lo, hi float64 // pixel range; hi < lo for a vertical axis
}

func newAxis(d *domain, lo, hi float64) *axis {
	return &axis{dom: d, lin: d.linear(), lo: lo, hi: hi}
}

func (a *axis) pos(u float64) float64 {
	return a.lo + a.lin.Map(u)*(a.hi-a.lo)
}

// unit returns the pixel length of one domain unit.
func (a *axis) unit() float64 {
	return math.Abs(a.pos(a.lin.Min+1) - a.pos(a.lin.Min))
}

// bandWidth returns the pixel width allotted to each mark along a,
// given the distinct unit positions of the marks.
func (a *axis) bandWidth(us []float64) float64 {
	if a.dom.kind == domainDiscrete {
		return a.unit()
	}
	// Continuous: the smallest gap between distinct positions.
	ps := make([]float64, 0, len(us))
	for _, u := range us {
		if !math.IsNaN(u) {
			ps = append(ps, a.pos(u))
		}
	}
	gap := math.Abs(a.hi - a.lo)
	sort.Float64s(ps)
	for i := 1; i < len(ps); i++ {
		if g := ps[i] - ps[i-1]; g > 0 && g < gap {
			gap = g
		}
	}
	if len(ps) <= 1 {
		gap = math.Abs(a.hi-a.lo) / 10
	}
	return gap
}

// tick is one labeled position along an axis.
type tick struct {
	pos   float64
	label string
}

// ticks returns at most max labeled ticks along a.
func (a *axis) ticks(max int, nf *numberFormat) []tick {
	switch a.dom.kind {
	case domainNone:
		return nil
	case domainDiscrete:
		out := make([]tick, len(a.dom.cats))
		for i, c := range a.dom.cats {
			out[i] = tick{a.pos(float64(i) + 0.5), c}
		}
		return out
	}
	if max < 2 {
		max = 2
	}
	if a.dom.kind == domainTime {
		return a.timeTicks(max)
	}
	major, _ := a.lin.Ticks(scale.TickOptions{Max: max})
	step := 0.0
	if len(major) > 1 {
		step = major[1] - major[0]
	}
	out := make([]tick, 0, len(major))
	for _, x := range major {
		out = append(out, tick{a.pos(x), nf.format(x, step)})
	}
	return out
}

// A timeStep is a calendar interval between time axis ticks.
type timeStep struct {
	unit   byte // 's'econds, 'd'ays, 'm'onths, or 'y'ears
	n      int
	approx float64 // seconds
	layout string
}

const day = 24 * 3600

var timeSteps = []timeStep{
	{'s', 1, 1, "15:04:05"},
	{'s', 5, 5, "15:04:05"},
	{'s', 15, 15, "15:04:05"},
	{'s', 30, 30, "15:04:05"},
	{'s', 60, 60, "15:04"},
	{'s', 5 * 60, 5 * 60, "15:04"},
	{'s', 15 * 60, 15 * 60, "15:04"},
	{'s', 30 * 60, 30 * 60, "15:04"},
	{'s', 3600, 3600, "15:04"},
	{'s', 3 * 3600, 3 * 3600, "15:04"},
	{'s', 6 * 3600, 6 * 3600, "15:04"},
	{'s', 12 * 3600, 12 * 3600, "Jan 2 15:04"},
	{'d', 1, day, "2006-01-02"},
	{'d', 2, 2 * day, "2006-01-02"},
	{'d', 7, 7 * day, "2006-01-02"},
	{'m', 1, 30.4 * day, "2006-01"},
	{'m', 3, 91.3 * day, "2006-01"},
	{'m', 6, 182.6 * day, "2006-01"},
	{'y', 1, 365.25 * day, "2006"},
	{'y', 2, 2 * 365.25 * day, "2006"},
	{'y', 5, 5 * 365.25 * day, "2006"},
	{'y', 10, 10 * 365.25 * day, "2006"},
	{'y', 20, 20 * 365.25 * day, "2006"},
	{'y', 50, 50 * 365.25 * day, "2006"},
	{'y', 100, 100 * 365.25 * day, "2006"},
	{'y', 1000, 1000 * 365.25 * day, "2006"},
}

// timeTicks returns at most max ticks at the finest calendar step
// that fits, labeled at that step's granularity. Days start at
// midnight UTC and weeks on Monday.
func (a *axis) timeTicks(max int) []tick {
	lo, hi := a.lin.Min, a.lin.Max
	var xs []float64
	var step timeStep
	for _, step = range timeSteps {
		if (hi-lo)/step.approx > float64(max)+1 {
			continue
		}
		if xs = step.ticks(lo, hi); len(xs) <= max {
			break
		}
	}
	layout := step.layout
	if a.dom.layout != "" && step.approx >= day {
		layout = a.dom.layout
	}
	out := make([]tick, len(xs))
	for i, x := range xs {
		out[i] = tick{a.pos(x), time.Unix(int64(x), 0).UTC().Format(layout)}
	}
	return out
}

// ticks returns the multiples of s in [lo, hi], in Unix seconds.
func (s timeStep) ticks(lo, hi float64) []float64 {
	var out []float64
	for t := s.floor(time.Unix(int64(math.Floor(lo)), 0).UTC()); ; t = s.next(t) {
		u := float64(t.Unix())
		if u > hi {
			break
		}
		if u >= lo {
			out = append(out, u)
		}
	}
	return out
}

func (s timeStep) floor(t time.Time) time.Time {
	switch s.unit {
	case 'y':
		y := t.Year() - mod(t.Year(), s.n)
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	case 'm':
		m := int(t.Month()) - 1
		return time.Date(t.Year(), time.Month(m-m%s.n+1), 1, 0, 0, 0, 0, time.UTC)
	case 'd':
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if s.n == 7 {
			d = d.AddDate(0, 0, -mod(int(d.Weekday())-1, 7))
		}
		return d
	}
	sec := t.Unix()
	return time.Unix(sec-int64(mod(int(sec%int64(s.n)), s.n)), 0).UTC()
}

func (s timeStep) next(t time.Time) time.Time {
	switch s.unit {
	case 'y':
		return t.AddDate(s.n, 0, 0)
	case 'm':
		return t.AddDate(0, s.n, 0)
	case 'd':
		return t.AddDate(0, 0, s.n)
	}
	return t.Add(time.Duration(s.n) * time.Second)
}

// mod returns x modulo n in [0, n).
func mod(x, n int) int {
	return (x%n + n) % n
}
