package css

import (
	"errors"
	"testing"
)

func exps(t NumericType) [numBaseTypes]int { return t.exponents }

// TestNewNumericType tests the canonical type of each unit family.
func TestNewNumericType(t *testing.T) {
	tests := []struct {
		unit Unit
		want BaseType
		none bool
	}{
		{UnitNumber, 0, true},
		{UnitPx, BaseLength, false},
		{UnitEm, BaseLength, false},
		{UnitDeg, BaseAngle, false},
		{UnitMs, BaseTime, false},
		{UnitKHz, BaseFrequency, false},
		{UnitDppx, BaseResolution, false},
		{UnitFr, BaseFlex, false},
		{UnitPercent, BasePercent, false},
	}
	for _, tt := range tests {
		t.Run(tt.unit.String(), func(t *testing.T) {
			typ := NewNumericType(tt.unit)
			var want [numBaseTypes]int
			if !tt.none {
				want[tt.want] = 1
			}
			if exps(typ) != want {
				t.Errorf("NewNumericType(%s) = %s, want %v", tt.unit, typ, want)
			}
			if _, ok := typ.PercentHint(); ok {
				t.Errorf("NewNumericType(%s) has a percent hint", tt.unit)
			}
		})
	}
}

// TestAddTypesPercentCollapsesIntoLength tests that length + percent is a
// length with a length hint, in both operand orders.
func TestAddTypesPercentCollapsesIntoLength(t *testing.T) {
	for _, pair := range [][2]Unit{{UnitPx, UnitPercent}, {UnitPercent, UnitPx}, {UnitPercent, UnitEm}} {
		got, err := AddTypes(pair[0].Type(), pair[1].Type())
		if err != nil {
			t.Fatalf("AddTypes(%s, %s): %v", pair[0], pair[1], err)
		}
		if got.Exponent(BasePercent) != 0 || got.Exponent(BaseLength) != 1 {
			t.Errorf("AddTypes(%s, %s) = %s, want length^1", pair[0], pair[1], got)
		}
		hint, ok := got.PercentHint()
		if !ok || hint != BaseLength {
			t.Errorf("AddTypes(%s, %s) hint = %v/%v, want length/true", pair[0], pair[1], hint, ok)
		}
	}
}

func TestAddTypes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Unit
		wantErr bool
	}{
		{"same", UnitPx, UnitCm, false},
		{"percent only", UnitPercent, UnitPercent, false},
		{"numbers", UnitNumber, UnitNumber, false},
		{"angle percent", UnitDeg, UnitPercent, false},
		{"length angle", UnitPx, UnitDeg, true},
		{"number length", UnitNumber, UnitPx, true},
		{"number percent", UnitNumber, UnitPercent, true},
		{"time frequency", UnitS, UnitHz, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AddTypes(tt.a.Type(), tt.b.Type())
			if (err != nil) != tt.wantErr {
				t.Fatalf("AddTypes(%s, %s) error = %v, wantErr %v", tt.a, tt.b, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("error %v does not wrap ErrTypeMismatch", err)
			}
		})
	}
}

// TestAddTypesConflictingHints tests that hints must agree.
func TestAddTypesConflictingHints(t *testing.T) {
	a := UnitPercent.Type()
	a.ApplyPercentHint(BaseLength)
	b := UnitPercent.Type()
	b.ApplyPercentHint(BaseAngle)
	if _, err := AddTypes(a, b); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("AddTypes with conflicting hints: err = %v, want ErrTypeMismatch", err)
	}
}

func TestMultiplyTypes(t *testing.T) {
	got, err := MultiplyTypes(UnitPx.Type(), UnitEm.Type())
	if err != nil {
		t.Fatal(err)
	}
	if got.Exponent(BaseLength) != 2 {
		t.Errorf("px*em length exponent = %d, want 2", got.Exponent(BaseLength))
	}

	inv := UnitS.Type()
	inv.SetExponent(BaseTime, -1)
	got, err = MultiplyTypes(UnitS.Type(), inv)
	if err != nil {
		t.Fatal(err)
	}
	if !got.MatchesNumber() {
		t.Errorf("s * s^-1 = %s, want number", got)
	}

	// Unhinted operands always multiply; only two different hints clash.
	pct := NewNumericType(UnitPercent)
	if _, err := MultiplyTypes(pct, UnitDeg.Type()); err != nil {
		t.Errorf("percent * deg: %v", err)
	}
	a, b := pct, pct
	a.ApplyPercentHint(BaseLength)
	b.ApplyPercentHint(BaseAngle)
	if _, err := MultiplyTypes(a, b); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("MultiplyTypes with conflicting hints: err = %v, want ErrTypeMismatch", err)
	}
}

// TestApplyPercentHintMovesPower tests that the percent exponent is folded
// into the hinted dimension and the hint is recorded.
func TestApplyPercentHintMovesPower(t *testing.T) {
	typ := NewNumericType(UnitPx)
	typ.SetExponent(BasePercent, 5)
	if typ.Exponent(BasePercent) != 5 || typ.Exponent(BaseLength) != 1 {
		t.Fatalf("exponents = %s, want length^1*percent^5", typ)
	}
	if _, ok := typ.PercentHint(); ok {
		t.Fatal("hint set before ApplyPercentHint")
	}

	typ.ApplyPercentHint(BaseLength)
	if typ.Exponent(BasePercent) != 0 {
		t.Errorf("percent = %d, want 0", typ.Exponent(BasePercent))
	}
	if typ.Exponent(BaseLength) != 6 {
		t.Errorf("length = %d, want 6", typ.Exponent(BaseLength))
	}
	hint, ok := typ.PercentHint()
	if !ok || hint != BaseLength {
		t.Errorf("PercentHint() = %v, %v, want length, true", hint, ok)
	}

	// A second application must not double count.
	typ.ApplyPercentHint(BaseLength)
	if typ.Exponent(BaseLength) != 6 || typ.Exponent(BasePercent) != 0 {
		t.Errorf("after second hint = %s, want length^6", typ)
	}
}

func TestMatchesBaseTypePercentage(t *testing.T) {
	var typ NumericType
	check := func(step string, base, pct bool) {
		t.Helper()
		if got := typ.MatchesBaseType(BaseLength); got != base {
			t.Errorf("%s: MatchesBaseType = %v, want %v", step, got, base)
		}
		if got := typ.MatchesBaseTypePercentage(BaseLength); got != pct {
			t.Errorf("%s: MatchesBaseTypePercentage = %v, want %v", step, got, pct)
		}
	}

	check("number", false, false)
	typ.SetExponent(BaseLength, 1)
	check("length", true, true)
	typ.SetExponent(BaseLength, 2)
	check("length^2", false, false)
	typ.SetExponent(BaseLength, 1)
	check("length again", true, true)
	typ.ApplyPercentHint(BaseLength)
	check("hinted", false, true)
}

// TestMatchesBaseTypePercentageAfterHint tests a pure percentage: it does
// not match length before the hint and matches length-percentage after.
func TestMatchesBaseTypePercentageAfterHint(t *testing.T) {
	typ := UnitPercent.Type()
	if typ.MatchesBaseType(BaseLength) {
		t.Error("percent matches length before hint")
	}
	typ.ApplyPercentHint(BaseLength)
	if !typ.MatchesBaseTypePercentage(BaseLength) {
		t.Error("hinted percent does not match length-percentage")
	}
}

func TestMatchesPercentage(t *testing.T) {
	var typ NumericType
	if typ.MatchesPercentage() {
		t.Error("number matches percentage")
	}
	typ.SetExponent(BasePercent, 1)
	if !typ.MatchesPercentage() {
		t.Error("percent^1 does not match percentage")
	}
	typ.SetExponent(BasePercent, 2)
	if typ.MatchesPercentage() {
		t.Error("percent^2 matches percentage")
	}
	typ.ApplyPercentHint(BaseLength)
	if typ.MatchesPercentage() {
		t.Error("hinted length^2 matches percentage")
	}
	typ.SetExponent(BaseLength, 0)
	typ.SetExponent(BasePercent, 1)
	if !typ.MatchesPercentage() {
		t.Error("percent^1 with hint does not match percentage")
	}
}

func TestMatchesNumberPercentage(t *testing.T) {
	var typ NumericType
	steps := []struct {
		dim        BaseType
		exp        int
		num, numPc bool
	}{
		{BaseLength, 0, true, true},
		{BaseLength, 1, false, false},
		{BaseLength, 0, true, true},
		{BasePercent, 1, false, true},
	}
	for i, s := range steps {
		typ.SetExponent(s.dim, s.exp)
		if got := typ.MatchesNumber(); got != s.num {
			t.Errorf("step %d: MatchesNumber = %v, want %v", i, got, s.num)
		}
		if got := typ.MatchesNumberPercentage(); got != s.numPc {
			t.Errorf("step %d: MatchesNumberPercentage = %v, want %v", i, got, s.numPc)
		}
	}
}

func TestNumericTypeString(t *testing.T) {
	typ, err := AddTypes(UnitPx.Type(), UnitPercent.Type())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := typ.String(), "length^1 [hint=length]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (NumericType{}).String(); got != "number" {
		t.Errorf("String() = %q, want %q", got, "number")
	}
	if !typ.Equal(typ) || typ.Equal(UnitPx.Type()) {
		t.Error("Equal ignores the percent hint")
	}
}
