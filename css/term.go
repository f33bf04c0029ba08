package css

import (
	"sort"
	"strconv"
	"strings"
)

// Term is one product in a sum: a magnitude and the power of each unit it
// carries. A term without units is a plain number.
type Term struct {
	Value float64
	Units map[Unit]int
}

func unitTerm(v float64, u Unit) Term {
	if u == UnitNumber {
		return Term{Value: v}
	}
	return Term{Value: v, Units: map[Unit]int{u: 1}}
}

// singleUnit returns the unit of a term of the form <v><unit>. Plain
// numbers report UnitNumber.
func (t Term) singleUnit() (Unit, bool) {
	switch len(t.Units) {
	case 0:
		return UnitNumber, true
	case 1:
		for u, e := range t.Units {
			if e == 1 {
				return u, true
			}
		}
	}
	return 0, false
}

// Type returns the numeric type of the term.
func (t Term) Type() NumericType {
	var nt NumericType
	for u, e := range t.Units {
		if b, ok := u.baseType(); ok {
			nt.exponents[b] += e
		}
	}
	return nt
}

func (t Term) clone() Term {
	c := Term{Value: t.Value}
	if len(t.Units) > 0 {
		c.Units = make(map[Unit]int, len(t.Units))
		for u, e := range t.Units {
			c.Units[u] = e
		}
	}
	return c
}

func (t Term) mul(o Term) Term {
	r := Term{Value: t.Value * o.Value}
	for _, src := range [2]map[Unit]int{t.Units, o.Units} {
		for u, e := range src {
			if r.Units == nil {
				r.Units = make(map[Unit]int)
			}
			r.Units[u] += e
			if r.Units[u] == 0 {
				delete(r.Units, u)
			}
		}
	}
	if len(r.Units) == 0 {
		r.Units = nil
	}
	return r
}

func (t Term) sortedUnits() []Unit {
	us := make([]Unit, 0, len(t.Units))
	for u := range t.Units {
		us = append(us, u)
	}
	sort.Slice(us, func(i, j int) bool { return us[i] < us[j] })
	return us
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String renders the term: "10px", "10", or "6px * 1em" for products.
// Negative powers render as divisions.
func (t Term) String() string {
	var sb strings.Builder
	sb.WriteString(formatNumber(t.Value))
	first := true
	var div []Unit
	for _, u := range t.sortedUnits() {
		e := t.Units[u]
		if e < 0 {
			for i := 0; i < -e; i++ {
				div = append(div, u)
			}
			continue
		}
		for i := 0; i < e; i++ {
			if !first {
				sb.WriteString(" * 1")
			}
			sb.WriteString(u.Symbol())
			first = false
		}
	}
	for _, u := range div {
		sb.WriteString(" / 1")
		sb.WriteString(u.Symbol())
	}
	return sb.String()
}
