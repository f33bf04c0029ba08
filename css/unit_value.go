package css

import "fmt"

// Value is a typed numeric value: either a single [UnitValue] or a
// [SumValue]. Values are immutable; arithmetic returns new values.
type Value interface {
	// Type returns the numeric type of the value.
	Type() NumericType

	// String serializes the value as CSS.
	String() string

	// Add returns v + o.
	Add(o Value) (Value, error)

	// Sub returns v - o.
	Sub(o Value) (Value, error)

	// Mul returns v * o.
	Mul(o Value) (Value, error)

	// Negate returns -v.
	Negate() Value

	// ToSum decomposes the value into one term per requested unit.
	ToSum(units ...Unit) (*SumValue, error)

	// Terms returns a copy of the value's terms in order.
	Terms() []Term
}

// UnitValue is a number with a single unit.
type UnitValue struct {
	Value float64
	Unit  Unit
}

var _ Value = UnitValue{}

// NewUnitValue returns v in unit u.
func NewUnitValue(v float64, u Unit) UnitValue {
	return UnitValue{Value: v, Unit: u}
}

// Number returns a unitless value.
func Number(v float64) UnitValue { return UnitValue{Value: v, Unit: UnitNumber} }

// Px returns a length in pixels.
func Px(v float64) UnitValue { return UnitValue{Value: v, Unit: UnitPx} }

// Percent returns a percentage.
func Percent(v float64) UnitValue { return UnitValue{Value: v, Unit: UnitPercent} }

// Deg returns an angle in degrees.
func Deg(v float64) UnitValue { return UnitValue{Value: v, Unit: UnitDeg} }

func (v UnitValue) Type() NumericType { return v.Unit.Type() }

func (v UnitValue) String() string {
	return formatNumber(v.Value) + v.Unit.Symbol()
}

func (v UnitValue) Terms() []Term {
	return []Term{unitTerm(v.Value, v.Unit)}
}

func (v UnitValue) Negate() Value {
	return UnitValue{Value: -v.Value, Unit: v.Unit}
}

// Add returns v + o. Values with the same unit fold into one UnitValue;
// otherwise the result is a SumValue whose terms keep insertion order.
func (v UnitValue) Add(o Value) (Value, error) {
	if ov, ok := o.(UnitValue); ok && ov.Unit == v.Unit {
		return UnitValue{Value: v.Value + ov.Value, Unit: v.Unit}, nil
	}
	return newSum(v).Add(o)
}

func (v UnitValue) Sub(o Value) (Value, error) {
	return v.Add(o.Negate())
}

// Mul returns v * o. A plain number scales the other operand; two unit
// values produce a single product term.
func (v UnitValue) Mul(o Value) (Value, error) {
	if ov, ok := o.(UnitValue); ok {
		switch {
		case v.Unit == UnitNumber:
			return UnitValue{Value: v.Value * ov.Value, Unit: ov.Unit}, nil
		case ov.Unit == UnitNumber:
			return UnitValue{Value: v.Value * ov.Value, Unit: v.Unit}, nil
		}
	}
	return newSum(v).Mul(o)
}

// To converts v into unit u. Only absolute units of the same dimension
// convert; see ConversionFactor.
func (v UnitValue) To(u Unit) (UnitValue, error) {
	f, err := ConversionFactor(v.Unit, u)
	if err != nil {
		return UnitValue{}, fmt.Errorf("convert %s: %w", v, err)
	}
	return UnitValue{Value: v.Value * f, Unit: u}, nil
}

func (v UnitValue) ToSum(units ...Unit) (*SumValue, error) {
	return newSum(v).ToSum(units...)
}
