package keeper

import (
	"context"
	"testing"
	"time"
)

func TestPackageInstructionsPrependsComputeBudgetDirectives(t *testing.T) {
	budget := ComputeBudget{PriorityFeeMicroLamports: 1000, ComputeUnitLimit: 200_000}
	ixs := []Instruction{{ProgramID: [32]byte{1}, Data: []byte{0xAA}}}

	txs := PackageInstructions(ixs, budget, DefaultWireBytes)
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	// unit-limit, unit-price, then the caller's instruction (no heap-frame
	// request since HeapFrameBytes is zero).
	if len(txs[0].Instructions) != 3 {
		t.Fatalf("expected 3 instructions (2 directives + 1 payload), got %d", len(txs[0].Instructions))
	}
	if txs[0].Instructions[0].Data[0] != computeBudgetSetUnitLimit {
		t.Fatalf("expected first directive to set the unit limit")
	}
	if txs[0].Instructions[1].Data[0] != computeBudgetSetUnitPrice {
		t.Fatalf("expected second directive to set the unit price")
	}
}

func TestPackageInstructionsIncludesHeapFrameWhenRequested(t *testing.T) {
	budget := ComputeBudget{HeapFrameBytes: DefaultHeapFrameBytes}
	txs := PackageInstructions([]Instruction{{ProgramID: [32]byte{1}}}, budget, DefaultWireBytes)
	if len(txs[0].Instructions) != 4 {
		t.Fatalf("expected 4 instructions (3 directives + 1 payload), got %d", len(txs[0].Instructions))
	}
	if txs[0].Instructions[2].Data[0] != computeBudgetRequestHeap {
		t.Fatalf("expected third directive to request a larger heap frame")
	}
}

func TestPackageInstructionsChunksByWireSize(t *testing.T) {
	budget := ComputeBudget{}
	// Each instruction's data alone is close to the wire limit, so no two
	// should ever land in the same transaction.
	big := make([]byte, DefaultWireBytes/2)
	ixs := []Instruction{
		{ProgramID: [32]byte{1}, Data: big},
		{ProgramID: [32]byte{2}, Data: big},
		{ProgramID: [32]byte{3}, Data: big},
	}
	txs := PackageInstructions(ixs, budget, DefaultWireBytes)
	if len(txs) != 3 {
		t.Fatalf("expected 3 separate transactions, got %d", len(txs))
	}
}

func TestPackageInstructionsEmptyInputReturnsNil(t *testing.T) {
	if txs := PackageInstructions(nil, ComputeBudget{}, DefaultWireBytes); txs != nil {
		t.Fatalf("expected nil for empty instruction list, got %v", txs)
	}
}

type fakeSubmitter struct {
	failures int
	calls    int
}

func (f *fakeSubmitter) SubmitAndConfirm(ctx context.Context, tx Transaction, timeout time.Duration) (SubmitResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return SubmitResult{}, ErrBlockhashExpired
	}
	return SubmitResult{InstructionResults: []InstructionResult{{}, {}}}, nil
}

func TestSubmitWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	sub := &fakeSubmitter{failures: 2}
	stats, err := SubmitWithRetry(context.Background(), sub, Transaction{}, 5, time.Second)
	if err != nil {
		t.Fatalf("SubmitWithRetry: %v", err)
	}
	if stats.Successes != 2 {
		t.Fatalf("expected 2 successful instructions, got %d", stats.Successes)
	}
	if sub.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", sub.calls)
	}
}

func TestSubmitWithRetryExhaustsRetries(t *testing.T) {
	sub := &fakeSubmitter{failures: 100}
	_, err := SubmitWithRetry(context.Background(), sub, Transaction{}, 3, time.Second)
	if err == nil {
		t.Fatal("expected error once retries are exhausted")
	}
	if sub.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", sub.calls)
	}
}
