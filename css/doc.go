// Package css implements typed arithmetic over CSS numeric values.
//
// The package mirrors the numeric part of the CSS Typed Object Model:
// every value carries a [NumericType], an exponent vector over the seven
// base dimensions (length, angle, time, frequency, resolution, flex and
// percent). Arithmetic validates and infers result types the same way the
// CSSOM does, including percent hints: when a percentage is added to a
// length, the percentage is resolved against that length and the result is
// a length.
//
// # Values
//
// A [UnitValue] is a single number with a unit:
//
//	a := css.Px(10)
//	b := css.Percent(10)
//	sum, err := b.Add(a) // calc(10% + 10px)
//
// Adding values with different units produces a [SumValue], an ordered
// list of terms that serializes as a calc() expression. [SumValue.ToSum]
// decomposes a sum into one term per requested unit:
//
//	s, err := sum.ToSum(css.UnitPx, css.UnitPercent) // calc(10px + 10%)
//
// Decomposition fails with [ErrLeftoverTerms] when a term cannot be
// expressed in any of the requested units.
//
// # Resolution
//
// [ResolveLength] turns a length-percentage value into device pixels given
// a [ResolveContext] (font sizes, viewport and percentage basis). Style
// attributes are resolved this way before they reach the batching engine.
package css
