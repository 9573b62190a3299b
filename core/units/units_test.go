package units

import (
	"testing"

	"github.com/shopspring/decimal"

	"poolchem/internal/errors"
)

func TestConvertKnownPairs(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{"grams to milligrams", "2.5", "g", "mg", "2500"},
		{"milligrams to grams", "750", "mg", "g", "0.75"},
		{"kilograms to grams", "1.2", "kg", "g", "1200"},
		{"litres to millilitres", "3", "l", "ml", "3000"},
		{"same unit", "42", "oz", "oz", "42"},
		{"alias spelling", "1", "Litres", "ml", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(decimal.RequireFromString(tt.amount), tt.from, tt.to)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Convert(%s %s -> %s) = %s, want %s", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertImperialApproximations(t *testing.T) {
	tol := decimal.RequireFromString("0.01")
	tests := []struct {
		amount, from, to, want string
	}{
		{"1", "lb", "g", "453.59"},
		{"1", "oz", "g", "28.35"},
		{"1", "gal", "l", "3.79"},
		{"1", "qt", "ml", "946.35"},
		{"2", "pt", "qt", "1"},
	}
	for _, tt := range tests {
		got, err := Convert(decimal.RequireFromString(tt.amount), tt.from, tt.to)
		if err != nil {
			t.Fatalf("%s->%s: unexpected error: %v", tt.from, tt.to, err)
		}
		if got.Sub(decimal.RequireFromString(tt.want)).Abs().GreaterThan(tol) {
			t.Errorf("%s %s -> %s = %s, want ~%s", tt.amount, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConvertRoundTripsEveryCompatiblePair(t *testing.T) {
	tol := decimal.New(1, -9)
	x := decimal.RequireFromString("123.456")

	for _, a := range Symbols() {
		for _, b := range Symbols() {
			if !Compatible(a, b) {
				continue
			}
			there, err := Convert(x, a, b)
			if err != nil {
				t.Fatalf("%s->%s: %v", a, b, err)
			}
			back, err := Convert(there, b, a)
			if err != nil {
				t.Fatalf("%s->%s: %v", b, a, err)
			}
			if back.Sub(x).Abs().GreaterThan(tol) {
				t.Errorf("round trip %s->%s->%s drifted: %s", a, b, a, back)
			}
		}
	}
}

func TestConvertRejectsUnsupportedPairs(t *testing.T) {
	tests := []struct {
		name, from, to string
	}{
		{"mass to volume", "g", "ml"},
		{"volume to mass", "gal", "lb"},
		{"unknown source", "cup", "ml"},
		{"unknown target", "g", "tablet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(decimal.NewFromInt(1), tt.from, tt.to)
			if !errors.IsType(err, errors.TypeUnsupportedUnit) {
				t.Errorf("expected UNSUPPORTED_UNIT, got %v", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(" Pounds ")
	if err != nil || got != "lb" {
		t.Errorf("Normalize(Pounds) = %q, %v", got, err)
	}
	if _, err := Normalize("scoop"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
