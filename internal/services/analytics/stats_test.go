package analytics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); !almostEqual(got, 2.5) {
		t.Fatalf("unexpected mean %v", got)
	}
	if got := Mean(nil); got != 0 {
		t.Fatalf("expected 0 for empty, got %v", got)
	}
}

func TestMedianOdd(t *testing.T) {
	if got := Median([]float64{9, 1, 5}); !almostEqual(got, 5) {
		t.Fatalf("unexpected median %v", got)
	}
}

func TestMedianEven(t *testing.T) {
	if got := Median([]float64{4, 1, 3, 2}); !almostEqual(got, 2.5) {
		t.Fatalf("unexpected median %v", got)
	}
}

func TestMedianLeavesInputIntact(t *testing.T) {
	xs := []float64{3, 1, 2}
	Median(xs)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Fatalf("input mutated: %v", xs)
	}
}

func TestSampleStd(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	want := math.Sqrt(32.0 / 7.0)
	if got := SampleStd(xs); !almostEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSampleStdUndefined(t *testing.T) {
	if got := SampleStd([]float64{42}); got != 0 {
		t.Fatalf("expected 0 for single observation, got %v", got)
	}
	if got := SampleStd(nil); got != 0 {
		t.Fatalf("expected 0 for empty, got %v", got)
	}
}

func TestPopulationStd(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := PopulationStd(xs); !almostEqual(got, 2) {
		t.Fatalf("got %v want 2", got)
	}
}
