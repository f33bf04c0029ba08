package css

import (
	"fmt"
	"strings"
)

// BaseType is one of the fixed dimensions a numeric type is built from.
type BaseType int8

// Base dimensions. BasePercent must stay last.
const (
	BaseLength BaseType = iota
	BaseAngle
	BaseTime
	BaseFrequency
	BaseResolution
	BaseFlex
	BasePercent

	numBaseTypes = int(BasePercent) + 1
)

var baseTypeNames = [numBaseTypes]string{
	"length", "angle", "time", "frequency", "resolution", "flex", "percent",
}

// String returns the lower-case dimension name.
func (b BaseType) String() string {
	if b < 0 || int(b) >= numBaseTypes {
		return fmt.Sprintf("BaseType(%d)", int(b))
	}
	return baseTypeNames[b]
}

// NumericType is the type of a numeric value: an integer exponent per base
// dimension plus an optional percent hint. px has type length^1, px*px has
// length^2 and a plain number has every exponent zero.
//
// The zero value is the type of a plain number.
type NumericType struct {
	exponents      [numBaseTypes]int
	percentHint    BaseType
	hasPercentHint bool
}

// NewNumericType returns the canonical type of a value in unit u.
func NewNumericType(u Unit) NumericType {
	return u.Type()
}

// Exponent returns the exponent of dimension b.
func (t NumericType) Exponent(b BaseType) int {
	return t.exponents[b]
}

// SetExponent overwrites the exponent of dimension b. It performs no
// validation; callers keep the percent-hint invariant themselves.
func (t *NumericType) SetExponent(b BaseType, n int) {
	t.exponents[b] = n
}

// PercentHint returns the dimension percentages were folded into and
// whether a hint has been applied at all.
func (t NumericType) PercentHint() (BaseType, bool) {
	return t.percentHint, t.hasPercentHint
}

// ApplyPercentHint folds the percent exponent into dimension b and records
// b as the percent hint. Applying the same hint twice leaves the exponents
// unchanged because the percent exponent is already zero.
func (t *NumericType) ApplyPercentHint(b BaseType) {
	t.exponents[b] += t.exponents[BasePercent]
	t.exponents[BasePercent] = 0
	t.percentHint = b
	t.hasPercentHint = true
}

// onlyNonZero reports whether b is the only dimension with a non-zero
// exponent and that exponent equals want.
func (t NumericType) onlyNonZero(b BaseType, want int) bool {
	for i, e := range t.exponents {
		if BaseType(i) == b {
			if e != want {
				return false
			}
		} else if e != 0 {
			return false
		}
	}
	return true
}

func (t NumericType) allZero() bool {
	return t.exponents == [numBaseTypes]int{}
}

// MatchesBaseType reports whether t is exactly dimension b to the first
// power with no percent hint applied.
func (t NumericType) MatchesBaseType(b BaseType) bool {
	return !t.hasPercentHint && b != BasePercent && t.onlyNonZero(b, 1)
}

// MatchesBaseTypePercentage reports whether t is dimension b or a plain
// percentage, e.g. the <length-percentage> production for b == BaseLength.
// A percent hint does not disqualify the type.
func (t NumericType) MatchesBaseTypePercentage(b BaseType) bool {
	return t.onlyNonZero(b, 1) || t.onlyNonZero(BasePercent, 1)
}

// MatchesPercentage reports whether t is percent to the first power.
func (t NumericType) MatchesPercentage() bool {
	return t.onlyNonZero(BasePercent, 1)
}

// MatchesNumber reports whether t is a plain number.
func (t NumericType) MatchesNumber() bool {
	return !t.hasPercentHint && t.allZero()
}

// MatchesNumberPercentage reports whether t is a plain number or a
// percentage.
func (t NumericType) MatchesNumberPercentage() bool {
	return t.allZero() || t.onlyNonZero(BasePercent, 1)
}

// Equal reports whether t and u have the same exponents and percent hint.
func (t NumericType) Equal(u NumericType) bool {
	if t.exponents != u.exponents || t.hasPercentHint != u.hasPercentHint {
		return false
	}
	return !t.hasPercentHint || t.percentHint == u.percentHint
}

// String renders the non-zero exponents, e.g. "length^1*percent^1".
// A plain number renders as "number".
func (t NumericType) String() string {
	var sb strings.Builder
	for i, e := range t.exponents {
		if e == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('*')
		}
		fmt.Fprintf(&sb, "%s^%d", BaseType(i), e)
	}
	if sb.Len() == 0 {
		sb.WriteString("number")
	}
	if t.hasPercentHint {
		fmt.Fprintf(&sb, " [hint=%s]", t.percentHint)
	}
	return sb.String()
}

// AddTypes returns the type of a + b. Equal types add trivially. When one
// side carries a percentage and the other a concrete dimension, both sides
// are reinterpreted with the percentage folded into that dimension, so
// length + percent yields length with a length hint. Anything else, such
// as length + angle, fails with a *TypeError wrapping ErrTypeMismatch.
func AddTypes(a, b NumericType) (NumericType, error) {
	if a.hasPercentHint && b.hasPercentHint && a.percentHint != b.percentHint {
		return NumericType{}, &TypeError{Op: "add", A: a, B: b}
	}
	if a.hasPercentHint {
		b.ApplyPercentHint(a.percentHint)
	} else if b.hasPercentHint {
		a.ApplyPercentHint(b.percentHint)
	}

	if a.exponents == b.exponents {
		return a, nil
	}

	if a.exponents[BasePercent] != 0 || b.exponents[BasePercent] != 0 {
		for i := 0; i < int(BasePercent); i++ {
			if a.exponents[i] == 0 && b.exponents[i] == 0 {
				continue
			}
			ha, hb := a, b
			ha.ApplyPercentHint(BaseType(i))
			hb.ApplyPercentHint(BaseType(i))
			if ha.exponents == hb.exponents {
				return ha, nil
			}
		}
	}
	return NumericType{}, &TypeError{Op: "add", A: a, B: b}
}

// MultiplyTypes returns the type of a * b: the exponents are summed per
// dimension. Conflicting percent hints fail with ErrTypeMismatch.
func MultiplyTypes(a, b NumericType) (NumericType, error) {
	if a.hasPercentHint && b.hasPercentHint && a.percentHint != b.percentHint {
		return NumericType{}, &TypeError{Op: "multiply", A: a, B: b}
	}
	if a.hasPercentHint {
		b.ApplyPercentHint(a.percentHint)
	} else if b.hasPercentHint {
		a.ApplyPercentHint(b.percentHint)
	}
	r := a
	for i := range r.exponents {
		r.exponents[i] += b.exponents[i]
	}
	return r, nil
}
