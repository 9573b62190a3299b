package derive

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func formula(t *testing.T, key string) Formula {
	t.Helper()
	for _, f := range Builtin() {
		if f.Key == key {
			return f
		}
	}
	t.Fatalf("no builtin formula %q", key)
	return Formula{}
}

func TestGraphOrdersInputsBeforeDerived(t *testing.T) {
	g, err := NewGraph(Builtin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := make(map[string]int)
	for i, k := range g.Order() {
		pos[k] = i
	}
	for _, f := range Builtin() {
		for _, in := range f.Inputs {
			if pos[in] >= pos[f.Key] {
				t.Errorf("%s must come before %s in %v", in, f.Key, g.Order())
			}
		}
	}
}

func TestDependentsCascadeTransitively(t *testing.T) {
	g, err := NewGraph(Builtin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		key  string
		want []string
	}{
		{KeyTotalAlkalinity, []string{KeyAdjustedAlkalinity, KeyLSI}},
		{KeyCyanuricAcid, []string{KeyAdjustedAlkalinity, KeyLSI}},
		{KeyFreeChlorine, []string{KeyCombinedChlorine}},
		{KeyCalciumHardness, []string{KeyCalculatedHardness, KeyLSI}},
		{KeyTemperature, []string{KeyLSI}},
		{KeyLSI, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := g.Dependents(tt.key)
			if len(got) != len(tt.want) {
				t.Fatalf("Dependents(%s) = %v, want %v", tt.key, got, tt.want)
			}
			set := make(map[string]bool)
			for _, k := range got {
				set[k] = true
			}
			for _, k := range tt.want {
				if !set[k] {
					t.Errorf("Dependents(%s) missing %s: %v", tt.key, k, got)
				}
			}
			// LSI reads adjusted alkalinity, so it must be recomputed last
			if set[KeyAdjustedAlkalinity] && set[KeyLSI] && got[len(got)-1] != KeyLSI {
				t.Errorf("LSI must follow adjusted alkalinity: %v", got)
			}
		})
	}
}

func TestGraphRejectsCycles(t *testing.T) {
	_, err := NewGraph([]Formula{
		{Key: "a", Inputs: []string{"b"}},
		{Key: "b", Inputs: []string{"a"}},
	})
	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("expected CycleError, got %v", err)
	}
}

func TestSimpleFormulas(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		values map[string]decimal.Decimal
		want   string
		ok     bool
	}{
		{"combined chlorine", KeyCombinedChlorine, map[string]decimal.Decimal{KeyTotalChlorine: d("2.5"), KeyFreeChlorine: d("1.8")}, "0.7", true},
		{"combined chlorine clamps at zero", KeyCombinedChlorine, map[string]decimal.Decimal{KeyTotalChlorine: d("1"), KeyFreeChlorine: d("1.4")}, "0", true},
		{"combined chlorine missing input", KeyCombinedChlorine, map[string]decimal.Decimal{KeyTotalChlorine: d("1")}, "", false},
		{"adjusted alkalinity", KeyAdjustedAlkalinity, map[string]decimal.Decimal{KeyTotalAlkalinity: d("100"), KeyCyanuricAcid: d("30")}, "90", true},
		{"adjusted alkalinity rounds", KeyAdjustedAlkalinity, map[string]decimal.Decimal{KeyTotalAlkalinity: d("80"), KeyCyanuricAcid: d("50")}, "63.33", true},
		{"calculated hardness", KeyCalculatedHardness, map[string]decimal.Decimal{KeyCalciumHardness: d("250"), KeyMagnesiumHardness: d("40")}, "290", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := formula(t, tt.key).Compute(Inputs{Values: tt.values})
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(d(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLSI(t *testing.T) {
	base := map[string]decimal.Decimal{
		KeyPH:                 d("7.5"),
		KeyCalciumHardness:    d("300"),
		KeyAdjustedAlkalinity: d("100"),
		KeyTDS:                d("1000"),
		KeyTemperature:        d("25"),
	}
	lsi := formula(t, KeyLSI)

	got, ok := lsi.Compute(Inputs{Values: base})
	if !ok || !got.Equal(d("-0.01")) {
		t.Errorf("LSI(celsius) = %s, %v; want -0.01", got, ok)
	}

	fahrenheit := make(map[string]decimal.Decimal)
	for k, v := range base {
		fahrenheit[k] = v
	}
	fahrenheit[KeyTemperature] = d("77")
	got, ok = lsi.Compute(Inputs{Values: fahrenheit, Units: map[string]string{KeyTemperature: "°F"}})
	if !ok || !got.Equal(d("-0.01")) {
		t.Errorf("LSI(fahrenheit) = %s, %v; want -0.01", got, ok)
	}

	missing := map[string]decimal.Decimal{KeyPH: d("7.5")}
	if _, ok := lsi.Compute(Inputs{Values: missing}); ok {
		t.Error("LSI must not be derived with missing inputs")
	}

	zeroCa := make(map[string]decimal.Decimal)
	for k, v := range base {
		zeroCa[k] = v
	}
	zeroCa[KeyCalciumHardness] = decimal.Zero
	if _, ok := lsi.Compute(Inputs{Values: zeroCa}); ok {
		t.Error("LSI must not be derived from a zero calcium hardness")
	}
}
