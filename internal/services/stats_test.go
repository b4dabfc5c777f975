package services

import (
	"math"
	"testing"
)

func TestMeanAndStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if got := mean(values); got != 5 {
		t.Errorf("mean = %v, want 5", got)
	}
	// Sample stddev of this classic set is ~2.138.
	if got := stddev(values); math.Abs(got-2.13809) > 0.001 {
		t.Errorf("stddev = %v, want ~2.138", got)
	}

	if got := mean(nil); got != 0 {
		t.Errorf("mean of empty = %v, want 0", got)
	}
	if got := stddev([]float64{3}); got != 0 {
		t.Errorf("stddev of single value = %v, want 0", got)
	}
}

func TestOLSForecastScenario(t *testing.T) {
	// Three evenly spaced periods at 80, 82, 84 project to 86 next.
	xs := []float64{0, 100, 200}
	ys := []float64{80, 82, 84}

	slope, intercept, ok := olsFit(xs, ys)
	if !ok {
		t.Fatal("Expected a fit")
	}

	next := slope*300 + intercept
	if math.Abs(next-86) > 1e-9 {
		t.Errorf("Forecast = %v, want 86", next)
	}
}

func TestOLSDegenerateInputs(t *testing.T) {
	if _, _, ok := olsFit([]float64{1}, []float64{1}); ok {
		t.Error("Expected no fit for a single point")
	}
	if _, _, ok := olsFit([]float64{5, 5, 5}, []float64{1, 2, 3}); ok {
		t.Error("Expected no fit for zero x variance")
	}
}

func TestPearson(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}

	perfect, ok := pearson(xs, []float64{2, 4, 6, 8, 10})
	if !ok || math.Abs(perfect-1) > 1e-9 {
		t.Errorf("Expected correlation 1, got %v", perfect)
	}

	inverse, ok := pearson(xs, []float64{10, 8, 6, 4, 2})
	if !ok || math.Abs(inverse+1) > 1e-9 {
		t.Errorf("Expected correlation -1, got %v", inverse)
	}

	if _, ok := pearson(xs, []float64{3, 3, 3, 3, 3}); ok {
		t.Error("Expected no coefficient for constant series")
	}
}

func TestTrackingSignal(t *testing.T) {
	// All-positive bias: cumulative bias equals n * MAD.
	if got := trackingSignal([]float64{2, 2, 2, 2}); math.Abs(got-4) > 1e-9 {
		t.Errorf("trackingSignal of uniform positive bias = %v, want 4", got)
	}

	// Symmetric errors cancel.
	if got := trackingSignal([]float64{3, -3, 3, -3}); got != 0 {
		t.Errorf("trackingSignal of symmetric errors = %v, want 0", got)
	}

	if got := trackingSignal(nil); got != 0 {
		t.Errorf("trackingSignal of empty = %v, want 0", got)
	}
}

func TestHalfSplitTrend(t *testing.T) {
	// First half deviates 10%, second half 4%: accuracy improved by 6.
	pcts := []float64{10, 10, 4, 4}
	if got := halfSplitTrend(pcts); math.Abs(got-6) > 1e-9 {
		t.Errorf("halfSplitTrend = %v, want 6", got)
	}

	if got := halfSplitTrend([]float64{5}); got != 0 {
		t.Errorf("halfSplitTrend of single sample = %v, want 0", got)
	}
}
