package indicator

import "testing"

func TestRSI_AllGainsIs100(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15, 16, 17}

	rsi := RSI(prices, 5)

	if len(rsi) != len(prices)-5 {
		t.Fatalf("expected %d values, got %d", len(prices)-5, len(rsi))
	}

	for i, v := range rsi {
		if v != 100.0 {
			t.Errorf("rsi[%d] = %f, want 100 on a loss-free series", i, v)
		}
	}
}

func TestRSI_AllLossesNearZero(t *testing.T) {
	prices := []float64{17, 16, 15, 14, 13, 12, 11, 10}

	rsi := RSI(prices, 5)

	for i, v := range rsi {
		if v > 1e-9 {
			t.Errorf("rsi[%d] = %f, want 0 on a gain-free series", i, v)
		}
	}
}

func TestRSI_MixedWithinBounds(t *testing.T) {
	prices := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1, 45.9, 46.3, 46.2, 45.6, 46.3, 46.2}

	rsi := RSI(prices, 14)

	if len(rsi) != 2 {
		t.Fatalf("expected 2 values, got %d", len(rsi))
	}

	for i, v := range rsi {
		if v < 0 || v > 100 {
			t.Errorf("rsi[%d] = %f outside [0,100]", i, v)
		}
	}
}

func TestRSI_NotEnoughData(t *testing.T) {
	if rsi := RSI([]float64{1, 2, 3}, 14); len(rsi) != 0 {
		t.Errorf("expected empty slice, got %d values", len(rsi))
	}
}

func TestKDJ_Bounds(t *testing.T) {
	highs := []float64{11, 12, 13, 14, 15, 16, 15, 14, 13, 12, 13, 14}
	lows := []float64{9, 10, 11, 12, 13, 14, 13, 12, 11, 10, 11, 12}
	closes := []float64{10, 11, 12, 13, 14, 15, 14, 13, 12, 11, 12, 13}

	k, d, j := KDJ(highs, lows, closes, 9, 3, 3)

	want := len(closes) - 9 + 1
	if len(k) != want || len(d) != want || len(j) != want {
		t.Fatalf("expected %d values, got k=%d d=%d j=%d", want, len(k), len(d), len(j))
	}

	for i := range k {
		if k[i] < 0 || k[i] > 100 {
			t.Errorf("k[%d] = %f outside [0,100]", i, k[i])
		}
		if d[i] < 0 || d[i] > 100 {
			t.Errorf("d[%d] = %f outside [0,100]", i, d[i])
		}
		// J = 3K - 2D by definition
		if !almostEqual(j[i], 3*k[i]-2*d[i], 1e-9) {
			t.Errorf("j[%d] = %f, want 3K-2D = %f", i, j[i], 3*k[i]-2*d[i])
		}
	}
}

func TestKDJ_FlatRangeUsesNeutralRSV(t *testing.T) {
	highs := []float64{10, 10, 10, 10, 10}
	lows := []float64{10, 10, 10, 10, 10}
	closes := []float64{10, 10, 10, 10, 10}

	k, d, _ := KDJ(highs, lows, closes, 3, 3, 3)

	// With RSV pinned at 50 both lines stay at the 50 seed.
	for i := range k {
		if !almostEqual(k[i], 50, 1e-9) || !almostEqual(d[i], 50, 1e-9) {
			t.Errorf("flat series: k[%d]=%f d[%d]=%f, want 50", i, k[i], i, d[i])
		}
	}
}

func TestKDJ_MismatchedInputs(t *testing.T) {
	k, d, j := KDJ([]float64{1, 2}, []float64{1}, []float64{1, 2}, 2, 3, 3)
	if len(k) != 0 || len(d) != 0 || len(j) != 0 {
		t.Error("expected empty output for mismatched input lengths")
	}
}
