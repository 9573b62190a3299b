package ui

import (
	"bytes"
	"testing"

	"poolchem/core/types"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("ID", "KEY", "RANGE")
	table.AddRow("1", "ph", "7.2 - 7.8")
	table.AddRow("12", "temperature")
	table.AddRow("2", "free_chlorine", "1 - 3", "ignored")
	table.Render()

	want := "" +
		"ID │ KEY           │ RANGE\n" +
		"───┼───────────────┼──────────\n" +
		"1  │ ph            │ 7.2 - 7.8\n" +
		"12 │ temperature   │\n" +
		"2  │ free_chlorine │ 1 - 3\n"
	if got := buf.String(); got != want {
		t.Errorf("table mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestStatusColors(t *testing.T) {
	tests := []struct {
		status  types.Status
		noColor bool
		want    string
	}{
		{types.StatusLow, false, Blue + "LOW" + Reset},
		{types.StatusHigh, false, Red + "HIGH" + Reset},
		{types.StatusGood, false, Green + "GOOD" + Reset},
		{types.StatusHigh, true, "HIGH"},
		{types.StatusNone, false, ""},
	}
	for _, tt := range tests {
		w := NewWriter(&bytes.Buffer{}, tt.noColor)
		if got := w.Status(tt.status); got != tt.want {
			t.Errorf("Status(%q, noColor=%v) = %q, want %q", tt.status, tt.noColor, got, tt.want)
		}
	}
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.Success("catalog %s is valid", "default")
	w.Warning("%d problems", 2)
	w.Error("failed")

	want := "✓ catalog default is valid\n⚠ 2 problems\n✗ failed\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
