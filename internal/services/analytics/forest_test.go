package analytics

import (
	"math"
	"testing"
)

func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		x = append(x, []float64{float64(i)})
		if i < 10 {
			y = append(y, 5)
		} else {
			y = append(y, 50)
		}
	}
	return x, y
}

func TestForestLearnsStepFunction(t *testing.T) {
	x, y := stepData()
	f := NewForest(ForestConfig{Trees: 30, Workers: 2, MinSamplesSplit: 2, Seed: 1})
	if err := f.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	preds := f.Predict([][]float64{{2}, {17}})
	if math.Abs(preds[0]-5) > 5 {
		t.Fatalf("low-side prediction %v too far from 5", preds[0])
	}
	if math.Abs(preds[1]-50) > 5 {
		t.Fatalf("high-side prediction %v too far from 50", preds[1])
	}
}

func TestForestDeterministicForSeed(t *testing.T) {
	x, y := stepData()
	probe := [][]float64{{3}, {8}, {12}, {19}}

	a := NewForest(ForestConfig{Trees: 15, Workers: 1, Seed: 7})
	b := NewForest(ForestConfig{Trees: 15, Workers: 4, Seed: 7})
	if err := a.Fit(x, y); err != nil {
		t.Fatalf("fit a: %v", err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatalf("fit b: %v", err)
	}
	pa, pb := a.Predict(probe), b.Predict(probe)
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("seeded runs diverged at %d: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestForestConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{9, 9, 9, 9}
	f := NewForest(ForestConfig{Trees: 5, Seed: 3})
	if err := f.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	for _, p := range f.Predict(x) {
		if p != 9 {
			t.Fatalf("constant target must predict constant, got %v", p)
		}
	}
}

func TestForestRejectsBadInput(t *testing.T) {
	f := NewForest(DefaultForestConfig())
	if err := f.Fit(nil, nil); err == nil {
		t.Fatalf("expected error for empty training set")
	}
	if err := f.Fit([][]float64{{1}}, []float64{1, 2}); err == nil {
		t.Fatalf("expected error for misshapen training set")
	}
	if err := f.Fit([][]float64{{1, 2}, {1}}, []float64{1, 2}); err == nil {
		t.Fatalf("expected error for ragged rows")
	}
}
