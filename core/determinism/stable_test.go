package determinism

import (
	"errors"
	"testing"
)

func TestHashJSONIsStable(t *testing.T) {
	type snapshot struct {
		Version uint64            `json:"version"`
		Values  map[string]string `json:"values"`
	}
	a := snapshot{Version: 3, Values: map[string]string{"ph": "7.5", "free_chlorine": "2", "tds": "1000"}}
	b := snapshot{Version: 3, Values: map[string]string{"tds": "1000", "ph": "7.5", "free_chlorine": "2"}}

	ha, err := HashJSON(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := HashJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("equal values hashed differently: %s vs %s", ha.Hex(), hb.Hex())
	}

	b.Values["ph"] = "7.6"
	hc, _ := HashJSON(b)
	if ha == hc {
		t.Error("different values produced the same hash")
	}
	if ha.IsZero() || len(ha.Hex()) != 64 {
		t.Errorf("unexpected hash %q", ha.Hex())
	}
}

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator("report")
	if gen.Generate("job-1", "abc") != gen.Generate("job-1", "abc") {
		t.Error("same parts produced different ids")
	}
	if gen.Generate("job-1", "abc") == gen.Generate("job-1a", "bc") {
		t.Error("part boundaries must be significant")
	}
	if NewIDGenerator("other").Generate("job-1") == gen.Generate("job-1") {
		t.Error("namespace must be significant")
	}
}

func TestRangeMapSorted(t *testing.T) {
	m := map[string]int{"tds": 3, "ph": 1, "free_chlorine": 2}

	var order []string
	err := RangeMapSorted(m, func(k string, _ int) error {
		order = append(order, k)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"free_chlorine", "ph", "tds"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	stop := errors.New("stop")
	visited := 0
	err = RangeMapSorted(m, func(string, int) error {
		visited++
		return stop
	})
	if err != stop || visited != 1 {
		t.Errorf("expected early stop, visited %d err %v", visited, err)
	}
}
