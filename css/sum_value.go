package css

import (
	"fmt"
	"strings"
)

// SumValue is an ordered sum of product terms, serialized as calc().
// Every term is compatible with the aggregate type.
type SumValue struct {
	terms []Term
	typ   NumericType
}

var _ Value = (*SumValue)(nil)

func newSum(v UnitValue) *SumValue {
	return &SumValue{terms: v.Terms(), typ: v.Type()}
}

// NewSum adds the values in order. It fails when their types cannot be
// added.
func NewSum(values ...Value) (*SumValue, error) {
	s := &SumValue{}
	for i, v := range values {
		if i == 0 {
			s.terms = v.Terms()
			s.typ = v.Type()
			continue
		}
		typ, err := AddTypes(s.typ, v.Type())
		if err != nil {
			return nil, err
		}
		s.terms = append(s.terms, v.Terms()...)
		s.typ = typ
	}
	return s, nil
}

func (s *SumValue) Type() NumericType { return s.typ }

func (s *SumValue) Terms() []Term {
	out := make([]Term, len(s.terms))
	for i, t := range s.terms {
		out[i] = t.clone()
	}
	return out
}

// Len returns the number of terms.
func (s *SumValue) Len() int { return len(s.terms) }

// Add appends the terms of o. Same-unit terms are not folded.
func (s *SumValue) Add(o Value) (Value, error) {
	typ, err := AddTypes(s.typ, o.Type())
	if err != nil {
		return nil, err
	}
	terms := make([]Term, 0, len(s.terms)+1)
	terms = append(terms, s.Terms()...)
	terms = append(terms, o.Terms()...)
	return &SumValue{terms: terms, typ: typ}, nil
}

func (s *SumValue) Sub(o Value) (Value, error) {
	return s.Add(o.Negate())
}

func (s *SumValue) Negate() Value {
	terms := s.Terms()
	for i := range terms {
		terms[i].Value = -terms[i].Value
	}
	return &SumValue{terms: terms, typ: s.typ}
}

// Mul distributes the product over both operands' terms.
func (s *SumValue) Mul(o Value) (Value, error) {
	typ, err := MultiplyTypes(s.typ, o.Type())
	if err != nil {
		return nil, err
	}
	rhs := o.Terms()
	terms := make([]Term, 0, len(s.terms)*len(rhs))
	for _, a := range s.terms {
		for _, b := range rhs {
			terms = append(terms, a.mul(b))
		}
	}
	return &SumValue{terms: terms, typ: typ}, nil
}

// String renders "calc(a + b - c)". A sum with a single term renders the
// term alone.
func (s *SumValue) String() string {
	switch len(s.terms) {
	case 0:
		return "0"
	case 1:
		return s.terms[0].String()
	}
	var sb strings.Builder
	sb.WriteString("calc(")
	for i, t := range s.terms {
		if i > 0 {
			if t.Value < 0 {
				sb.WriteString(" - ")
				t = t.clone()
				t.Value = -t.Value
			} else {
				sb.WriteString(" + ")
			}
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// ToSum regroups the terms into one term per requested unit, in argument
// order. Terms convert into a requested unit of the same dimension when the
// conversion is absolute (cm into px, turn into deg). A requested unit no
// term maps onto yields an explicit zero term. Terms that fit no requested
// unit fail the whole call with a *LeftoverError.
//
// With no units, terms of equal unit are summed in order of first
// appearance.
//
// Every term must be a plain number or carry a single unit to the first
// power.
func (s *SumValue) ToSum(units ...Unit) (*SumValue, error) {
	for _, t := range s.terms {
		if _, ok := t.singleUnit(); !ok {
			return nil, fmt.Errorf("%w: product term %s", ErrNotConvertible, t)
		}
	}
	if len(units) == 0 {
		return s.groupByUnit(), nil
	}

	seen := make(map[Unit]bool, len(units))
	for _, u := range units {
		if !u.IsValid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, int(u))
		}
		if seen[u] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUnit, u)
		}
		seen[u] = true
	}

	sums := make([]float64, len(units))
	var leftover []string
	for _, t := range s.terms {
		tu, _ := t.singleUnit()
		idx, factor := matchUnit(tu, units)
		if idx < 0 {
			leftover = append(leftover, t.String())
			continue
		}
		sums[idx] += t.Value * factor
	}
	if len(leftover) > 0 {
		return nil, &LeftoverError{Requested: append([]Unit(nil), units...), Leftover: leftover}
	}

	out := &SumValue{terms: make([]Term, len(units))}
	for i, u := range units {
		out.terms[i] = unitTerm(sums[i], u)
		if i == 0 {
			out.typ = u.Type()
			continue
		}
		typ, err := AddTypes(out.typ, u.Type())
		if err != nil {
			return nil, err
		}
		out.typ = typ
	}
	return out, nil
}

// matchUnit picks the requested unit for a term in unit u. An exact match
// wins over a conversion.
func matchUnit(u Unit, units []Unit) (int, float64) {
	for i, r := range units {
		if r == u {
			return i, 1
		}
	}
	for i, r := range units {
		if f, err := ConversionFactor(u, r); err == nil {
			return i, f
		}
	}
	return -1, 0
}

func (s *SumValue) groupByUnit() *SumValue {
	out := &SumValue{typ: s.typ}
	index := make(map[Unit]int)
	for _, t := range s.terms {
		u, _ := t.singleUnit()
		if i, ok := index[u]; ok {
			out.terms[i].Value += t.Value
			continue
		}
		index[u] = len(out.terms)
		out.terms = append(out.terms, unitTerm(t.Value, u))
	}
	return out
}
