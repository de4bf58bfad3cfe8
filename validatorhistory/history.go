// Package validatorhistory implements the per-validator telemetry ring
// buffer (spec §3.1, §3.2, §4.1): commission, credits, MEV/priority-fee
// earnings, stake rank, client version, and IP, accepted from several
// independent oracle authorities without any ordering assumption between
// them.
package validatorhistory

import (
	"fmt"

	"github.com/stakeward/steward-core/epochmath"
)

// MinVotingEpochsForCreation is the minimum number of epochs of voting
// history for History creation (spec §3.7). Nothing in this module checks
// it: New and the keeper's registry create a History for any vote account.
const MinVotingEpochsForCreation = 5

// History is one validator's telemetry record: an identity plus its ring
// buffer. It is created lazily on first observation of a vote account,
// whatever its voting history, and then lives forever (spec §3.7).
type History struct {
	VoteAccount [32]byte
	Ring        *CircularBuffer
}

// New creates an empty History for a vote account.
func New(voteAccount [32]byte) *History {
	return &History{VoteAccount: voteAccount, Ring: NewCircularBuffer()}
}

// EpochCredit is one (epoch, credits) pair as supplied by the vote-account
// copier oracle.
type EpochCredit struct {
	Epoch   epochmath.Epoch
	Credits uint32
}

// ObserveVoteAccount folds in the full epoch_credits history, then sets
// commission and the freshness slot marker on currentEpoch's entry. For
// each (epoch, credits) pair, missing epochs are backfilled and the
// recorded credits are raised monotonically -- a credit value that would
// decrease an already-recorded epoch is silently ignored (spec §4.1).
// Pairs for epochs older than the ring's retained window are skipped.
func (h *History) ObserveVoteAccount(currentEpoch epochmath.Epoch, commission uint8, lastSlot uint64, credits []EpochCredit) error {
	for _, c := range credits {
		if c.Epoch > currentEpoch {
			continue
		}
		if last, ok := h.Ring.Last(); ok && c.Epoch < last.Epoch {
			if e := h.Ring.At(c.Epoch); e != nil && c.Credits > e.EpochCredits {
				e.EpochCredits = c.Credits
			}
			continue
		}
		if err := h.Ring.Insert(c.Epoch, func(e *Entry) {
			if c.Credits > e.EpochCredits {
				e.EpochCredits = c.Credits
			}
		}); err != nil {
			return err
		}
	}

	return h.Ring.Insert(currentEpoch, func(e *Entry) {
		e.Commission = commission
		e.VoteAccountLastUpdateSlot = lastSlot
	})
}

// SetStake updates stake fields for `epoch`. Writing to an epoch beyond
// currentEpoch is rejected (spec §4.1).
func (h *History) SetStake(currentEpoch, epoch epochmath.Epoch, lamports uint64, rank uint32, isSuperminority bool) error {
	if epoch > currentEpoch {
		return fmt.Errorf("%w: stake epoch %d > current epoch %d", ErrEpochOutOfRange, epoch, currentEpoch)
	}
	superminority := uint8(0)
	if isSuperminority {
		superminority = 1
	}
	return h.Ring.Insert(epoch, func(e *Entry) {
		e.ActivatedStakeLamports = lamports
		e.Rank = rank
		e.IsSuperminority = superminority
	})
}

// SetMEVCommission writes the MEV commission and earned amount for `epoch`.
// earnedLamports is converted with epochmath.FixedPointSOL; pass
// hasMerkleRoot=false to write the sentinel "not yet posted" value instead.
func (h *History) SetMEVCommission(currentEpoch, epoch epochmath.Epoch, bps uint16, earnedLamports uint64, hasMerkleRoot bool) error {
	if epoch > currentEpoch {
		return fmt.Errorf("%w: MEV epoch %d > current epoch %d", ErrEpochOutOfRange, epoch, currentEpoch)
	}
	earned := uint32(epochmath.SentinelU32)
	if hasMerkleRoot {
		earned = epochmath.FixedPointSOL(earnedLamports)
	}
	return h.Ring.Insert(epoch, func(e *Entry) {
		e.MEVCommissionBps = bps
		e.MEVEarned = earned
	})
}

// SetPriorityFeeCommission is the priority-fee-oracle analog of
// SetMEVCommission.
func (h *History) SetPriorityFeeCommission(currentEpoch, epoch epochmath.Epoch, bps uint16) error {
	if epoch > currentEpoch {
		return fmt.Errorf("%w: priority-fee epoch %d > current epoch %d", ErrEpochOutOfRange, epoch, currentEpoch)
	}
	return h.Ring.Insert(epoch, func(e *Entry) {
		e.PriorityFeeCommissionBps = bps
	})
}

// SetBlockMetadata is a priority-fee-oracle-only write recording the
// validator's block-production and priority-fee totals for `epoch`. It
// takes no highest-oracle-slot value and performs no slot monotonicity
// check.
func (h *History) SetBlockMetadata(currentEpoch, epoch epochmath.Epoch, totalPriorityFees uint64, totalLeaderSlots, blocksProduced uint32) error {
	if epoch > currentEpoch {
		return fmt.Errorf("%w: block-metadata epoch %d > current epoch %d", ErrEpochOutOfRange, epoch, currentEpoch)
	}
	return h.Ring.Insert(epoch, func(e *Entry) {
		e.TotalPriorityFees = totalPriorityFees
		e.TotalLeaderSlots = totalLeaderSlots
		e.BlocksProduced = blocksProduced
	})
}

// LatestNormalizedCredits returns the most recent entry's epoch_credits,
// TVC-normalized, or 0 if the ring is empty.
func (h *History) LatestNormalizedCredits(tvcActivationEpoch epochmath.Epoch) uint64 {
	e, ok := h.Ring.Last()
	if !ok {
		return 0
	}
	return e.NormalizedCredits(tvcActivationEpoch)
}

// RangeNormalizedCredits returns normalized epoch_credits for every epoch in
// [start, end]; an epoch with no entry in the ring reads as 0.
func (h *History) RangeNormalizedCredits(start, end, tvcActivationEpoch epochmath.Epoch) []uint64 {
	entries := h.Ring.Range(start, end)
	out := make([]uint64, len(entries))
	for i, e := range entries {
		if e == nil {
			continue
		}
		out[i] = e.NormalizedCredits(tvcActivationEpoch)
	}
	return out
}
