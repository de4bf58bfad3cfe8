package epochmath

import "testing"

func TestNextEpochWraps(t *testing.T) {
	if got := NextEpoch(MaxEpoch); got != 0 {
		t.Fatalf("NextEpoch(MaxEpoch) = %d, want 0", got)
	}
	if got := NextEpoch(5); got != 6 {
		t.Fatalf("NextEpoch(5) = %d, want 6", got)
	}
}

func TestNormalizeCredits(t *testing.T) {
	activation := Epoch(100)
	if got := NormalizeCredits(50, 10, activation); got != 160 {
		t.Fatalf("pre-activation credits = %d, want 160", got)
	}
	if got := NormalizeCredits(100, 10, activation); got != 10 {
		t.Fatalf("at-activation credits = %d, want 10 (unscaled)", got)
	}
	if got := NormalizeCredits(200, 10, activation); got != 10 {
		t.Fatalf("post-activation credits = %d, want 10", got)
	}
}

func TestFixedPointSOL(t *testing.T) {
	cases := []struct {
		lamports uint64
		want     uint32
	}{
		{0, 0},
		{LamportsPerSOL, 100},
		{LamportsPerSOL / 2, 50},
		{LamportsPerSOL * 10, 1000},
		{LamportsPerSOL/200 + 1, 1}, // rounds up from 0.5 units
	}
	for _, c := range cases {
		if got := FixedPointSOL(c.lamports); got != c.want {
			t.Errorf("FixedPointSOL(%d) = %d, want %d", c.lamports, got, c.want)
		}
	}
}
