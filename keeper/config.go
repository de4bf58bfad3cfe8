// Package keeper implements the off-chain execution queue (spec §4.3): a
// single-threaded cooperative tick loop that fetches oracle data, drives
// the validator-history and steward cranks, and submits the resulting
// transactions with retry and per-epoch accounting. The package follows
// the same config/lifecycle/task split used for other long-running
// service loops in this codebase.
package keeper

import "fmt"

// Intervals holds every cadence the tick loop fires on (spec §4.3's firing
// rule table). FetchIntervals is deliberately a slice: UpdateStyle ORs
// across every configured interval rather than using a single cadence, and
// that coupling is preserved literally rather than collapsed into one
// number (see ShouldFire).
type Intervals struct {
	FetchIntervals           []uint64
	ValidatorHistoryInterval uint64
	StewardInterval          uint64
	BlockMetadataInterval    uint64
	MetricsInterval          uint64
}

// DefaultIntervals returns a reasonable starting cadence: fetch every
// tick, validator-history every 10 ticks, steward every 10 ticks,
// block-metadata every 300 ticks (~5 min at 1 tick/s), metrics every 60.
func DefaultIntervals() Intervals {
	return Intervals{
		FetchIntervals:           []uint64{1},
		ValidatorHistoryInterval: 10,
		StewardInterval:          10,
		BlockMetadataInterval:    300,
		MetricsInterval:          60,
	}
}

// Config is the keeper's own tunable policy, distinct from steward.Config
// (the on-chain policy account the steward task reads and writes).
type Config struct {
	Intervals Intervals

	// TickPeriodSeconds is the wall-clock spacing between ticks (spec
	// §4.3: "every wall-clock second, configurable").
	TickPeriodSeconds uint64

	// RetryCount bounds how many times a submitted transaction is
	// resubmitted with a fresh blockhash before the keeper gives up on it
	// (spec §4.3 default 50).
	RetryCount int

	// ConfirmationTimeoutSeconds bounds how long the keeper waits for a
	// submitted transaction to confirm before treating it as unconfirmed
	// and retrying.
	ConfirmationTimeoutSeconds uint64

	// PriorityFeeMicroLamports and ComputeUnitLimit seed the compute-budget
	// directives prepended to every packaged transaction (spec §4.3,
	// §6.5's --priority-fee/--compute-limit CLI flags).
	PriorityFeeMicroLamports uint64
	ComputeUnitLimit         uint32

	// HeapFrameBytes requests a larger BPF heap when non-zero (spec §4.3
	// "optional request_heap_frame(256 KiB)", §6.5's --heap-size flag).
	HeapFrameBytes uint32

	// MaxWireBytes bounds the packed size of one transaction so it fits
	// the network's packet MTU (spec §4.3 "chunked ... to fit the wire
	// MTU"). Solana's packet size is 1232 bytes; this is configurable so
	// tests can exercise chunking with small instruction counts.
	MaxWireBytes int
}

// MaxComputeUnitLimit is the hard ceiling on ComputeUnitLimit (spec §4.3).
const MaxComputeUnitLimit = 1_400_000

// DefaultHeapFrameBytes is the optional larger heap frame size (spec §4.3).
const DefaultHeapFrameBytes = 256 * 1024

// DefaultWireBytes matches a Solana transaction packet's usual MTU.
const DefaultWireBytes = 1232

// DefaultConfig returns a Config with sensible operational defaults.
func DefaultConfig() Config {
	return Config{
		Intervals:                  DefaultIntervals(),
		TickPeriodSeconds:          1,
		RetryCount:                 50,
		ConfirmationTimeoutSeconds: 60,
		ComputeUnitLimit:           MaxComputeUnitLimit,
		MaxWireBytes:               DefaultWireBytes,
	}
}

// Validate checks internal consistency of Config.
func (c *Config) Validate() error {
	if c.ComputeUnitLimit > MaxComputeUnitLimit {
		return fmt.Errorf("keeper: compute unit limit %d exceeds max %d", c.ComputeUnitLimit, MaxComputeUnitLimit)
	}
	if c.RetryCount <= 0 {
		return fmt.Errorf("keeper: retry count must be > 0")
	}
	if c.MaxWireBytes <= 0 {
		return fmt.Errorf("keeper: max wire bytes must be > 0")
	}
	return nil
}
