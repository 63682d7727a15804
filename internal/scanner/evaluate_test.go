package scanner

import (
	"testing"

	"github.com/blackwell-systems/stashfinder/internal/config"
	"github.com/blackwell-systems/stashfinder/internal/region"
)

func chests(n int) []region.StructureType {
	inv := make([]region.StructureType, n)
	for i := range inv {
		inv[i] = region.Chest
	}
	return inv
}

func thresholds(minCount, minDistance int, types ...region.StructureType) config.Thresholds {
	th := config.Defaults()
	th.MatchTypes = config.NewTypeSet(types...)
	th.MinimumCount = minCount
	th.MinimumDistance = minDistance
	return th
}

func TestEvaluate_ExampleScenario(t *testing.T) {
	th := thresholds(4, 0, region.Chest)
	inv := append(chests(4), region.Furnace)

	res := Evaluate(region.New(10, -3), inv, th)
	if !res.Qualified {
		t.Fatal("expected region to qualify")
	}
	if res.Count != 4 {
		t.Errorf("Count = %d, want 4", res.Count)
	}
}

func TestEvaluate_Thresholds(t *testing.T) {
	tests := []struct {
		name        string
		id          region.ID
		inventory   []region.StructureType
		minCount    int
		minDistance int
		want        bool
	}{
		{"below count", region.New(0, 0), chests(3), 4, 0, false},
		{"count at bound", region.New(0, 0), chests(4), 4, 0, true},
		{"count above bound", region.New(0, 0), chests(9), 4, 0, true},
		{"distance at bound", region.New(3, 4), chests(4), 4, 5, true},
		{"distance below bound", region.New(3, 4), chests(4), 4, 6, false},
		{"negative coords", region.New(-3, -4), chests(4), 4, 5, true},
		{"dense but too close", region.New(1, 1), chests(50), 4, 100, false},
		{"far but sparse", region.New(1000, 1000), chests(1), 4, 100, false},
		{"empty inventory", region.New(0, 0), nil, 1, 0, false},
		{"zero minimum count always qualifies", region.New(0, 0), nil, 0, 0, true},
		{"negative minimum count always qualifies", region.New(0, 0), nil, -5, 0, true},
		{"negative distance never filters", region.New(0, 0), chests(4), 4, -10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := thresholds(tt.minCount, tt.minDistance, region.Chest)
			got := Evaluate(tt.id, tt.inventory, th)
			if got.Qualified != tt.want {
				t.Errorf("Evaluate() Qualified = %v, want %v (count=%d distance=%.2f)",
					got.Qualified, tt.want, got.Count, got.Distance)
			}
		})
	}
}

func TestCountMatches_OnlyConfiguredTypes(t *testing.T) {
	th := thresholds(1, 0, region.Chest, region.Barrel)
	inv := []region.StructureType{
		region.Chest, region.Barrel, region.Furnace, region.Chest,
		"", "not_a_block", region.Hopper, region.Barrel,
	}
	if got := CountMatches(inv, th); got != 4 {
		t.Errorf("CountMatches() = %d, want 4", got)
	}
}

func TestCountMatches_EmptyMatchSet(t *testing.T) {
	th := thresholds(1, 0)
	if got := CountMatches(chests(10), th); got != 0 {
		t.Errorf("CountMatches() with no match types = %d, want 0", got)
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(region.New(3, -4)); got != 5 {
		t.Errorf("Distance(3,-4) = %v, want 5", got)
	}
	if got := Distance(region.New(0, 0)); got != 0 {
		t.Errorf("Distance(0,0) = %v, want 0", got)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	th := thresholds(2, 0, region.Chest)
	inv := []region.StructureType{region.Chest, region.Furnace, region.Chest}
	first := Evaluate(region.New(7, 7), inv, th)
	for i := 0; i < 10; i++ {
		if got := Evaluate(region.New(7, 7), inv, th); got != first {
			t.Fatalf("Evaluate() not deterministic: %+v vs %+v", got, first)
		}
	}
}
