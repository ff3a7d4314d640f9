package model

import (
	"math"
	"testing"
)

// syntheticData builds a simple learnable relation y = 5*x0 + 0.5*x1.
func syntheticData(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(i % 20)
		b := float64((i * 7) % 13)
		x[i] = []float64{a, b}
		y[i] = 5*a + 0.5*b
	}

	return x, y
}

func TestFitBooster_LearnsSignal(t *testing.T) {
	x, y := syntheticData(200)

	b := FitBooster(x, y, BoosterConfig{Trees: 200, MaxDepth: 4, LearningRate: 0.2})
	if !b.Trained() {
		t.Fatal("booster reported untrained after fit")
	}

	var sumAbs float64
	for i := range x {
		sumAbs += math.Abs(b.Predict(x[i]) - y[i])
	}
	mae := sumAbs / float64(len(x))

	// Mean target is ~50; a fitted ensemble should beat the constant
	// baseline by a wide margin.
	if mae > 5 {
		t.Errorf("train MAE = %v, want <= 5", mae)
	}
}

func TestFitBooster_Deterministic(t *testing.T) {
	x, y := syntheticData(100)
	cfg := BoosterConfig{Trees: 50, Seed: 7}

	first := FitBooster(x, y, cfg)
	second := FitBooster(x, y, cfg)

	for i := range x {
		if first.Predict(x[i]) != second.Predict(x[i]) {
			t.Fatalf("same seed produced different predictions at row %d", i)
		}
	}
}

func TestFitBooster_EmptyInput(t *testing.T) {
	b := FitBooster(nil, nil, BoosterConfig{})
	if b.Trained() {
		t.Error("empty fit reported trained")
	}
	if got := b.Predict([]float64{1, 2}); got != 0 {
		t.Errorf("empty booster Predict = %v, want 0 base", got)
	}
}

func TestFitBooster_ConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{42, 42, 42, 42, 42, 42}

	b := FitBooster(x, y, BoosterConfig{Trees: 10})
	for i := range x {
		if got := b.Predict(x[i]); math.Abs(got-42) > 1e-9 {
			t.Errorf("Predict(%v) = %v, want 42", x[i], got)
		}
	}
}

func TestBoosterConfig_Defaults(t *testing.T) {
	cfg := BoosterConfig{}.withDefaults()
	want := DefaultBoosterConfig()

	if cfg != want {
		t.Errorf("withDefaults() = %+v, want %+v", cfg, want)
	}

	// Explicit values survive.
	custom := BoosterConfig{Trees: 10, MaxDepth: 2}.withDefaults()
	if custom.Trees != 10 || custom.MaxDepth != 2 {
		t.Errorf("explicit values overwritten: %+v", custom)
	}
}

func TestFeatureGains_Accumulated(t *testing.T) {
	x, y := syntheticData(200)

	b := FitBooster(x, y, BoosterConfig{Trees: 50})
	if len(b.Gains) != 2 {
		t.Fatalf("Gains length = %d, want 2", len(b.Gains))
	}
	// x0 carries 10x the signal of x1.
	if b.Gains[0] <= b.Gains[1] {
		t.Errorf("gain ordering wrong: x0 = %v, x1 = %v", b.Gains[0], b.Gains[1])
	}
}
