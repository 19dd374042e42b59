package confidence

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"identical vectors", 0, 1.0},
		{"unit distance", 1, 0.5},
		{"far", 9, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.distance)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Score(%v) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestScoreMonotonic(t *testing.T) {
	prev := Score(0)
	for d := 0.1; d < 20; d += 0.1 {
		cur := Score(d)
		if cur >= prev {
			t.Fatalf("Score not strictly decreasing at distance %v", d)
		}
		prev = cur
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); got != 0.0 {
		t.Fatalf("Aggregate(nil) = %v, want 0.0", got)
	}
}

func TestAggregateFloor(t *testing.T) {
	lists := [][]float64{
		{100},
		{10, 10, 10},
		{50, 60, 70, 80},
	}
	for _, ds := range lists {
		if got := Aggregate(ds); got < Floor {
			t.Fatalf("Aggregate(%v) = %v, below floor %v", ds, got, Floor)
		}
	}
}

func TestAggregateRange(t *testing.T) {
	lists := [][]float64{
		{0},
		{0, 0, 0},
		{0.01, 0.02, 0.03, 0.04},
		{3, 3, 3},
	}
	for _, ds := range lists {
		got := Aggregate(ds)
		if got < 0 || got > 1 {
			t.Fatalf("Aggregate(%v) = %v, out of [0,1]", ds, got)
		}
	}
}

func TestAggregateMonotonicity(t *testing.T) {
	near := []float64{0.2, 0.4, 0.6}
	far := []float64{1.2, 1.4, 1.6}
	if Aggregate(near) < Aggregate(far) {
		t.Fatalf("closer distances produced lower aggregate: near=%v far=%v",
			Aggregate(near), Aggregate(far))
	}
}

func TestAggregateBoostBoundaries(t *testing.T) {
	// top3 avg 0.1: strong-match boost, capped at 0.95.
	strong := Aggregate([]float64{0.1, 0.1, 0.1})
	if strong > strongBoostCap {
		t.Fatalf("boosted aggregate %v exceeds cap %v", strong, strongBoostCap)
	}
	if strong < 0.9 {
		t.Fatalf("expected strong boost for near matches, got %v", strong)
	}

	// top3 avg 2.0: good-match boost, capped at 0.90.
	good := Aggregate([]float64{2.0, 2.0, 2.0})
	if good > goodBoostCap {
		t.Fatalf("boosted aggregate %v exceeds cap %v", good, goodBoostCap)
	}

	// top3 avg 10: no boost at all, lands on the floor.
	none := Aggregate([]float64{10, 10, 10})
	if none != Floor {
		t.Fatalf("far matches should sit exactly on the floor, got %v", none)
	}
}

func TestAggregateFewerThanThreeSkipsBoost(t *testing.T) {
	// With two results the boost must not apply even for tiny
	// distances; the raw weighted average of ~0.92 passes through.
	got := Aggregate([]float64{0.1, 0.1})
	want := 1.0 / (1.0 + math.Pow(0.1, 0.8))
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Aggregate two results = %v, want unboosted %v", got, want)
	}
}
