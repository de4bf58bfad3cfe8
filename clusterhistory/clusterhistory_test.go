package clusterhistory

import "testing"

func TestBackfillThenCopyClusterInfoPreservesTotalBlocks(t *testing.T) {
	h := New()
	if err := h.BackfillTotalBlocks(10, 1234); err != nil {
		t.Fatalf("BackfillTotalBlocks: %v", err)
	}
	if err := h.CopyClusterInfo(11, 9999); err != nil {
		t.Fatalf("CopyClusterInfo: %v", err)
	}
	e := h.At(10)
	if e == nil || e.TotalBlocks != 1234 {
		t.Fatalf("expected TotalBlocks[10] = 1234 to survive, got %+v", e)
	}
}

func TestBlockProductionRate(t *testing.T) {
	h := New()
	_ = h.BackfillTotalBlocks(1, 16)
	rate, err := h.BlockProductionRate(1, 32)
	if err != nil {
		t.Fatalf("BlockProductionRate: %v", err)
	}
	if rate != 0.5 {
		t.Fatalf("rate = %v, want 0.5", rate)
	}
	if _, err := h.BlockProductionRate(2, 32); err == nil {
		t.Fatal("expected error for unobserved epoch")
	}
}

func TestEpochOutOfRangeOnRegression(t *testing.T) {
	h := New()
	_ = h.CopyClusterInfo(10, 1)
	if err := h.CopyClusterInfo(5, 1); err == nil {
		t.Fatal("expected error writing an earlier epoch")
	}
}
