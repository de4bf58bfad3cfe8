package keeper

import (
	"context"
	"time"
)

// AccountMeta is one account reference within an Instruction.
type AccountMeta struct {
	Pubkey     [32]byte
	IsSigner   bool
	IsWritable bool
}

// Instruction is one discriminated program call: a program id, its account
// list, and opaque instruction data (spec §6.1's "discriminated account-
// metas + data tuple").
type Instruction struct {
	ProgramID [32]byte
	Accounts  []AccountMeta
	Data      []byte
}

// wireSize estimates the serialized size of ix, accounts plus data plus a
// small fixed overhead for the account-metas/program-id header -- enough
// precision for MTU-aware chunking without a full wire codec.
func (ix Instruction) wireSize() int {
	return 32 + len(ix.Accounts)*33 + len(ix.Data) + 4
}

// computeBudgetProgramID is the well-known program that interprets the
// compute-budget directive instructions (spec §4.3).
var computeBudgetProgramID = [32]byte{
	0x03, 0x06, 0x46, 0x6f, 0xe5, 0x21, 0x17, 0x32,
	0xff, 0xec, 0xad, 0xba, 0x72, 0xc3, 0x9b, 0xe7,
	0xbc, 0x8c, 0xe5, 0xbb, 0xc5, 0xf7, 0x12, 0x6b,
	0x2c, 0x43, 0x9b, 0x3a, 0x40, 0x00, 0x00, 0x00,
}

// ComputeBudget configures the directives packaging prepends to every
// transaction (spec §4.3): a priority fee, a compute unit ceiling, and an
// optional larger heap frame.
type ComputeBudget struct {
	PriorityFeeMicroLamports uint64
	ComputeUnitLimit         uint32
	HeapFrameBytes           uint32
}

const (
	computeBudgetSetUnitPrice  byte = 3
	computeBudgetSetUnitLimit  byte = 2
	computeBudgetRequestHeap   byte = 1
)

// directives returns the compute-budget instructions to prepend, in the
// order the runtime expects: unit limit, unit price, then the optional
// heap-frame request.
func (b ComputeBudget) directives() []Instruction {
	out := make([]Instruction, 0, 3)
	limit := b.ComputeUnitLimit
	if limit == 0 || limit > MaxComputeUnitLimit {
		limit = MaxComputeUnitLimit
	}
	out = append(out, Instruction{
		ProgramID: computeBudgetProgramID,
		Data:      append([]byte{computeBudgetSetUnitLimit}, u32le(limit)...),
	})
	out = append(out, Instruction{
		ProgramID: computeBudgetProgramID,
		Data:      append([]byte{computeBudgetSetUnitPrice}, u64le(b.PriorityFeeMicroLamports)...),
	})
	if b.HeapFrameBytes > 0 {
		out = append(out, Instruction{
			ProgramID: computeBudgetProgramID,
			Data:      append([]byte{computeBudgetRequestHeap}, u32le(b.HeapFrameBytes)...),
		})
	}
	return out
}

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// Transaction is one packaged, ready-to-submit instruction bundle.
type Transaction struct {
	Instructions []Instruction
}

// PackageInstructions chunks instructions so each resulting Transaction's
// wire size stays within maxWireBytes, prepending budget's compute-budget
// directives to every chunk (spec §4.3). An instruction that alone would
// exceed maxWireBytes still gets its own transaction -- chunking never
// drops work, it only decides how to group it.
func PackageInstructions(instructions []Instruction, budget ComputeBudget, maxWireBytes int) []Transaction {
	if len(instructions) == 0 {
		return nil
	}

	directives := budget.directives()
	directivesSize := 0
	for _, d := range directives {
		directivesSize += d.wireSize()
	}

	var txs []Transaction
	var current []Instruction
	currentSize := directivesSize

	flush := func() {
		if len(current) == 0 {
			return
		}
		ixs := make([]Instruction, 0, len(directives)+len(current))
		ixs = append(ixs, directives...)
		ixs = append(ixs, current...)
		txs = append(txs, Transaction{Instructions: ixs})
		current = nil
		currentSize = directivesSize
	}

	for _, ix := range instructions {
		size := ix.wireSize()
		if len(current) > 0 && currentSize+size > maxWireBytes {
			flush()
		}
		current = append(current, ix)
		currentSize += size
	}
	flush()

	return txs
}

// InstructionResult is one instruction's outcome within a confirmed
// transaction.
type InstructionResult struct {
	Err error
}

// SubmitResult is what a Submitter reports for one transaction.
type SubmitResult struct {
	Signature          [64]byte
	InstructionResults []InstructionResult
}

// Submitter is the external collaborator that actually sends a
// transaction and waits for confirmation (spec §1 scope: the keeper
// depends on but does not implement wire submission).
type Submitter interface {
	SubmitAndConfirm(ctx context.Context, tx Transaction, confirmTimeout time.Duration) (SubmitResult, error)
}

// SubmitStats aggregates the outcome of submitting one Transaction,
// combined across instructions the way callers expect (spec §4.3:
// "{successes, errors, per-instruction result}").
type SubmitStats struct {
	Successes      int
	Errors         int
	PerInstruction []InstructionResult
}

// SubmitWithRetry submits tx, retrying with a fresh blockhash (the
// responsibility of Submitter's next call) while the failure classifies as
// transient, up to retryCount attempts. It returns the last SubmitStats
// and a non-nil error only once retries are exhausted or a non-transient
// failure is hit.
func SubmitWithRetry(ctx context.Context, submitter Submitter, tx Transaction, retryCount int, confirmTimeout time.Duration) (SubmitStats, error) {
	var lastErr error
	for attempt := 0; attempt < retryCount; attempt++ {
		result, err := submitter.SubmitAndConfirm(ctx, tx, confirmTimeout)
		if err == nil {
			return statsFromResult(result), nil
		}
		lastErr = err
		if Classify(err) != TaxonTransient {
			return SubmitStats{Errors: 1}, err
		}
	}
	return SubmitStats{Errors: 1}, lastErr
}

func statsFromResult(result SubmitResult) SubmitStats {
	stats := SubmitStats{PerInstruction: result.InstructionResults}
	for _, r := range result.InstructionResults {
		if r.Err == nil {
			stats.Successes++
		} else {
			stats.Errors++
		}
	}
	return stats
}
