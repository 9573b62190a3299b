package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsTypeThroughWrapping(t *testing.T) {
	base := New(TypeUnsupportedUnit, "cannot convert")
	outer := Wrap(TypeInput, "dosage for test 3", base)
	wrapped := fmt.Errorf("evaluate: %w", outer)

	tests := []struct {
		name string
		err  error
		typ  Type
		want bool
	}{
		{"direct", base, TypeUnsupportedUnit, true},
		{"outer type", outer, TypeInput, true},
		{"cause type", outer, TypeUnsupportedUnit, true},
		{"fmt wrapped", wrapped, TypeUnsupportedUnit, true},
		{"absent type", wrapped, TypeCatalog, false},
		{"plain error", fmt.Errorf("boom"), TypeInput, false},
		{"nil", nil, TypeInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsType(tt.err, tt.typ); got != tt.want {
				t.Errorf("IsType(%v, %s) = %v, want %v", tt.err, tt.typ, got, tt.want)
			}
		})
	}
}

func TestIsTypeThroughJoin(t *testing.T) {
	joined := Wrap(TypeCatalog, "catalog has 2 problems", stderrors.Join(
		New(TypeCatalog, "duplicate test id 3"),
		New(TypeUnresolved, "test ph: missing default variant"),
	))
	if !IsType(joined, TypeUnresolved) {
		t.Error("expected UNRESOLVED_EXCEPTION to be found in joined branch")
	}
	if IsType(joined, TypeInput) {
		t.Error("INPUT_ERROR is not in the tree")
	}
}

func TestTypeOf(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NotFound("chemical result", 9))
	if got := TypeOf(err); got != TypeNotFound {
		t.Errorf("TypeOf = %s, want %s", got, TypeNotFound)
	}
	if got := TypeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("TypeOf(plain) = %q, want empty", got)
	}
}

func TestErrorMessageAndContext(t *testing.T) {
	err := UnsupportedUnit("g", "ml").WithContext("product", 4)
	if err.Error() != `[UNSUPPORTED_UNIT] cannot convert "g" to "ml"` {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Context["product"] != 4 {
		t.Errorf("context not recorded: %v", err.Context)
	}
	if UnsupportedUnit("cup", "").Message != `unsupported unit "cup"` {
		t.Errorf("single-unit message wrong: %s", UnsupportedUnit("cup", "").Message)
	}
}
