package css

import (
	"fmt"
	"math"
	"strings"
)

// Unit identifies the unit of a numeric value.
type Unit uint8

// Supported units. UnitNumber is a unitless number.
const (
	UnitNumber Unit = iota
	UnitPercent

	// Absolute lengths.
	UnitPx
	UnitCm
	UnitMm
	UnitQ
	UnitIn
	UnitPt
	UnitPc

	// Font and viewport relative lengths.
	UnitEm
	UnitRem
	UnitEx
	UnitCh
	UnitVw
	UnitVh
	UnitVmin
	UnitVmax

	// Angles.
	UnitDeg
	UnitRad
	UnitGrad
	UnitTurn

	// Time.
	UnitS
	UnitMs

	// Frequency.
	UnitHz
	UnitKHz

	// Resolution.
	UnitDpi
	UnitDpcm
	UnitDppx
	UnitX

	// Flex.
	UnitFr

	unitCount
)

type unitInfo struct {
	name string
	base BaseType // BaseType(-1) for numbers
	// factor converts one unit into the canonical unit of its dimension.
	// Zero marks a relative unit that only converts to itself.
	factor float64
}

const noBase BaseType = -1

var units = [unitCount]unitInfo{
	UnitNumber:  {"number", noBase, 1},
	UnitPercent: {"percent", BasePercent, 1},

	UnitPx: {"px", BaseLength, 1},
	UnitCm: {"cm", BaseLength, 96 / 2.54},
	UnitMm: {"mm", BaseLength, 96 / 25.4},
	UnitQ:  {"Q", BaseLength, 96 / 101.6},
	UnitIn: {"in", BaseLength, 96},
	UnitPt: {"pt", BaseLength, 96.0 / 72},
	UnitPc: {"pc", BaseLength, 16},

	UnitEm:   {"em", BaseLength, 0},
	UnitRem:  {"rem", BaseLength, 0},
	UnitEx:   {"ex", BaseLength, 0},
	UnitCh:   {"ch", BaseLength, 0},
	UnitVw:   {"vw", BaseLength, 0},
	UnitVh:   {"vh", BaseLength, 0},
	UnitVmin: {"vmin", BaseLength, 0},
	UnitVmax: {"vmax", BaseLength, 0},

	UnitDeg:  {"deg", BaseAngle, 1},
	UnitRad:  {"rad", BaseAngle, 180 / math.Pi},
	UnitGrad: {"grad", BaseAngle, 0.9},
	UnitTurn: {"turn", BaseAngle, 360},

	UnitS:  {"s", BaseTime, 1},
	UnitMs: {"ms", BaseTime, 0.001},

	UnitHz:  {"Hz", BaseFrequency, 1},
	UnitKHz: {"kHz", BaseFrequency, 1000},

	UnitDpi:  {"dpi", BaseResolution, 1.0 / 96},
	UnitDpcm: {"dpcm", BaseResolution, 2.54 / 96},
	UnitDppx: {"dppx", BaseResolution, 1},
	UnitX:    {"x", BaseResolution, 1},

	UnitFr: {"fr", BaseFlex, 0},
}

// unitsByName maps lower-cased names to units. "%" is accepted for
// percent, as in serialized CSS.
var unitsByName = func() map[string]Unit {
	m := make(map[string]Unit, int(unitCount)+1)
	for u := Unit(0); u < unitCount; u++ {
		m[strings.ToLower(units[u].name)] = u
	}
	m["%"] = UnitPercent
	return m
}()

// ParseUnit looks up a unit by its CSS name. Names are matched
// case-insensitively; both "%" and "percent" denote UnitPercent.
func ParseUnit(name string) (Unit, error) {
	if u, ok := unitsByName[strings.ToLower(name)]; ok {
		return u, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
}

// MustParseUnit is like ParseUnit but panics on unknown names.
func MustParseUnit(name string) Unit {
	u, err := ParseUnit(name)
	if err != nil {
		panic(err)
	}
	return u
}

// Name returns the unit's canonical name ("px", "percent", "number", ...).
func (u Unit) Name() string {
	if u >= unitCount {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return units[u].name
}

// Symbol returns the suffix used when serializing a value in this unit.
// Numbers have no suffix and percentages use "%".
func (u Unit) Symbol() string {
	switch u {
	case UnitNumber:
		return ""
	case UnitPercent:
		return "%"
	}
	return u.Name()
}

// String implements fmt.Stringer.
func (u Unit) String() string { return u.Name() }

// IsValid reports whether u is a known unit.
func (u Unit) IsValid() bool { return u < unitCount }

// Type returns the canonical numeric type of a value in this unit.
func (u Unit) Type() NumericType {
	var t NumericType
	if u < unitCount && units[u].base != noBase {
		t.exponents[units[u].base] = 1
	}
	return t
}

// baseType returns the dimension of the unit and false for numbers.
func (u Unit) baseType() (BaseType, bool) {
	if u >= unitCount || units[u].base == noBase {
		return 0, false
	}
	return units[u].base, true
}

// ConversionFactor returns the factor that converts a value in unit from
// into unit to. It fails for units of different dimensions and for
// relative units (em, vw, fr, ...) unless from == to.
func ConversionFactor(from, to Unit) (float64, error) {
	if from == to {
		return 1, nil
	}
	if !from.IsValid() || !to.IsValid() {
		return 0, fmt.Errorf("%w: %s to %s", ErrNotConvertible, from, to)
	}
	fi, ti := units[from], units[to]
	if fi.base != ti.base || fi.base == noBase || fi.factor == 0 || ti.factor == 0 {
		return 0, fmt.Errorf("%w: %s to %s", ErrNotConvertible, from, to)
	}
	return fi.factor / ti.factor, nil
}
