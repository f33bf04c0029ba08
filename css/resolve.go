package css

import "fmt"

// ResolveContext carries what relative lengths resolve against. All sizes
// are in px.
type ResolveContext struct {
	FontSize       float64
	RootFontSize   float64
	ViewportWidth  float64
	ViewportHeight float64
	// PercentBasis is the length 100% refers to.
	PercentBasis float64
}

// DefaultResolveContext returns a context with 16px fonts and no viewport.
func DefaultResolveContext() ResolveContext {
	return ResolveContext{FontSize: 16, RootFontSize: 16}
}

// ResolveLength computes v in px. v must be a length, a percentage, a sum
// of both, or a plain number (taken as px). ex and ch are approximated as
// half the font size.
func ResolveLength(v Value, ctx ResolveContext) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: nil value", ErrNotConvertible)
	}
	typ := v.Type()
	if !typ.MatchesBaseTypePercentage(BaseLength) && !typ.MatchesNumber() {
		return 0, fmt.Errorf("%w: %s is not a length (%s)", ErrTypeMismatch, v, typ)
	}
	var px float64
	for _, t := range v.Terms() {
		u, ok := t.singleUnit()
		if !ok {
			return 0, fmt.Errorf("%w: product term %s", ErrNotConvertible, t)
		}
		f, err := ctx.pxPerUnit(u)
		if err != nil {
			return 0, err
		}
		px += t.Value * f
	}
	return px, nil
}

func (ctx ResolveContext) pxPerUnit(u Unit) (float64, error) {
	switch u {
	case UnitNumber:
		return 1, nil
	case UnitPercent:
		return ctx.PercentBasis / 100, nil
	case UnitEm:
		return ctx.FontSize, nil
	case UnitRem:
		return ctx.RootFontSize, nil
	case UnitEx, UnitCh:
		return ctx.FontSize * 0.5, nil
	case UnitVw:
		return ctx.ViewportWidth / 100, nil
	case UnitVh:
		return ctx.ViewportHeight / 100, nil
	case UnitVmin:
		return min(ctx.ViewportWidth, ctx.ViewportHeight) / 100, nil
	case UnitVmax:
		return max(ctx.ViewportWidth, ctx.ViewportHeight) / 100, nil
	}
	return ConversionFactor(u, UnitPx)
}
