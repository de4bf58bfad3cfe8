package steward

import (
	"fmt"

	"github.com/stakeward/steward-core/bitmask"
)

// MaxValidators is the ceiling on validators tracked by one Steward State
// (spec §3.5).
const MaxValidators = bitmask.MaxValidators

// StateTag is the current phase of the cycle state machine (spec §4.2).
type StateTag int

const (
	StateComputeScores StateTag = iota
	StateComputeDelegations
	StateIdle
	StateComputeInstantUnstake
	StateRebalance
	StateRebalanceDirectedComplete
	StatePostLoopIdle
)

func (s StateTag) String() string {
	switch s {
	case StateComputeScores:
		return "ComputeScores"
	case StateComputeDelegations:
		return "ComputeDelegations"
	case StateIdle:
		return "Idle"
	case StateComputeInstantUnstake:
		return "ComputeInstantUnstake"
	case StateRebalance:
		return "Rebalance"
	case StateRebalanceDirectedComplete:
		return "RebalanceDirectedComplete"
	case StatePostLoopIdle:
		return "PostLoopIdle"
	default:
		return "Unknown"
	}
}

// next returns the state following s in the cycle's fixed order (spec
// §4.2), wrapping PostLoopIdle back around to ComputeScores.
func (s StateTag) next() StateTag {
	switch s {
	case StateComputeScores:
		return StateComputeDelegations
	case StateComputeDelegations:
		return StateIdle
	case StateIdle:
		return StateComputeInstantUnstake
	case StateComputeInstantUnstake:
		return StateRebalance
	case StateRebalance:
		return StateRebalanceDirectedComplete
	case StateRebalanceDirectedComplete:
		return StatePostLoopIdle
	case StatePostLoopIdle:
		return StateComputeScores
	default:
		return StateComputeScores
	}
}

// Flag is one orthogonal phase-completion bit tracked in State.Flags (spec
// §4.2). Each flag is set when its phase finishes a full pass over the
// validator set; the composite is the "state string" the Keeper reports.
type Flag uint64

const (
	FlagEpochMaintenance Flag = 1 << iota
	FlagComputeScore
	FlagComputeDelegations
	FlagPreLoopIdle
	FlagComputeInstantUnstakes
	FlagRebalance
	FlagRebalanceDirectedComplete
	FlagPostLoopIdle
)

// Fraction is a {num, den} delegation share (spec §3.5).
type Fraction struct {
	Num uint64
	Den uint64
}

// Float64 returns the fraction as a float64, or 0 if Den is 0.
func (f Fraction) Float64() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// State is the per-Config cycle state account (spec §3.5).
type State struct {
	Tag StateTag

	NumPoolValidators uint64

	Scores                  [MaxValidators]uint64
	SortedScoreIndices      []uint16
	YieldScores             [MaxValidators]uint64
	SortedYieldScoreIndices []uint16

	Delegations [MaxValidators]Fraction

	Progress                       *bitmask.Bitmask
	InstantUnstake                 *bitmask.Bitmask
	ValidatorsToRemove              *bitmask.Bitmask
	ValidatorsForImmediateRemoval *bitmask.Bitmask

	// BlacklistSnapshot freezes each validator's blacklist bit at the moment
	// ComputeScore(index) ran this cycle, so ComputeInstantUnstake can detect
	// a bit that flipped afterward (spec §4.2 "blacklist bit flipped").
	BlacklistSnapshot *bitmask.Bitmask

	// PrevCommission and PrevMEVCommissionBps hold each validator's
	// commission/MEV-commission as observed at ComputeScore time this cycle,
	// so ComputeInstantUnstake can detect a mid-epoch jump above threshold.
	PrevCommission       [MaxValidators]uint8
	PrevMEVCommissionBps [MaxValidators]uint16

	ValidatorsAdded uint16

	ValidatorLamportBalances [MaxValidators]uint64

	CurrentEpoch              uint64
	NextCycleEpoch             uint64
	StartComputingScoresSlot uint64

	ScoringUnstakeTotal      uint64
	InstantUnstakeTotal      uint64
	StakeDepositUnstakeTotal uint64
	DirectedUnstakeTotal     uint64

	Flags Flag
}

// NewState returns a freshly-initialized State at cycle start, matching
// spec §3.7's "grown, then marked initialized" lifecycle (the realloc
// stepping itself is an on-chain account-sizing detail this Go port has no
// analog for; the logical post-initialization shape is what matters here).
func NewState(currentEpoch uint64, epochsPerCycle uint64) *State {
	return &State{
		Tag:                           StateComputeScores,
		Progress:                      bitmask.NewValidatorBitmask(),
		InstantUnstake:                bitmask.NewValidatorBitmask(),
		ValidatorsToRemove:            bitmask.NewValidatorBitmask(),
		ValidatorsForImmediateRemoval: bitmask.NewValidatorBitmask(),
		BlacklistSnapshot:             bitmask.NewBlacklistBitmask(),
		CurrentEpoch:                  currentEpoch,
		NextCycleEpoch:                currentEpoch + epochsPerCycle,
	}
}

// PhaseComplete reports whether the Progress bitmask has processed every
// validator in [0, NumPoolValidators) -- invariant 4 of spec §8.
func (s *State) PhaseComplete() bool {
	return s.Progress.IsComplete(int(s.NumPoolValidators))
}

// MarkProcessed sets the Progress bit for validator index i, returning
// ErrBitmaskOutOfBounds if i is outside the mask's capacity.
func (s *State) MarkProcessed(i int) error {
	if err := s.Progress.Set(i, true); err != nil {
		return fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	}
	return nil
}

// ResetProgress clears the Progress bitmask, e.g. on phase transition.
func (s *State) ResetProgress() { s.Progress.Clear() }
