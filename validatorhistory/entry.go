package validatorhistory

import "github.com/stakeward/steward-core/epochmath"

// Entry is one immutable (once it scrolls out of the current-epoch window)
// telemetry record, mirroring spec §3.1. Every field except EpochCredits
// and IP defaults to the MAX sentinel of its type when unobserved, so a
// freshly-backfilled entry reads as "nothing known yet"; EpochCredits and IP
// default to zero.
type Entry struct {
	Epoch epochmath.Epoch

	Commission    uint8
	EpochCredits  uint32

	MEVCommissionBps uint16
	MEVEarned        uint32

	ActivatedStakeLamports uint64
	Rank                   uint32
	IsSuperminority        uint8

	IP [4]uint8

	ClientType uint8
	VersionMajor, VersionMinor, VersionPatch uint8

	VoteAccountLastUpdateSlot uint64

	PriorityFeeCommissionBps uint16
	TotalPriorityFees        uint64
	TotalLeaderSlots         uint32
	BlocksProduced           uint32
}

// DefaultEntry returns a sentinel-filled entry for the given epoch, used by
// the ring buffer's sparse-insert path to backfill epochs the caller never
// directly observed.
func DefaultEntry(epoch epochmath.Epoch) Entry {
	return Entry{
		Epoch:                     epoch,
		Commission:                epochmath.SentinelU8,
		EpochCredits:              0, // credits start at zero, not "unobserved"
		MEVCommissionBps:          epochmath.SentinelU16,
		MEVEarned:                 epochmath.SentinelU32,
		ActivatedStakeLamports:    epochmath.SentinelU64,
		Rank:                      epochmath.SentinelU32,
		IsSuperminority:           epochmath.SentinelU8,
		ClientType:                epochmath.SentinelU8,
		VersionMajor:              epochmath.SentinelU8,
		VersionMinor:              epochmath.SentinelU8,
		VersionPatch:              epochmath.SentinelU8,
		VoteAccountLastUpdateSlot: epochmath.SentinelU64,
		PriorityFeeCommissionBps:  epochmath.SentinelU16,
		TotalPriorityFees:         epochmath.SentinelU64,
		TotalLeaderSlots:          epochmath.SentinelU32,
		BlocksProduced:            epochmath.SentinelU32,
	}
}

// HasStake reports whether stake fields have been observed for this entry.
func (e Entry) HasStake() bool { return e.ActivatedStakeLamports != epochmath.SentinelU64 }

// HasMEVCommission reports whether an MEV commission was ever written.
func (e Entry) HasMEVCommission() bool { return e.MEVCommissionBps != epochmath.SentinelU16 }

// HasPriorityFeeCommission reports whether a priority-fee commission was
// ever written.
func (e Entry) HasPriorityFeeCommission() bool {
	return e.PriorityFeeCommissionBps != epochmath.SentinelU16
}

// NormalizedCredits returns EpochCredits scaled by the TVC double-count
// factor when this entry's epoch precedes tvcActivationEpoch.
func (e Entry) NormalizedCredits(tvcActivationEpoch epochmath.Epoch) uint64 {
	return epochmath.NormalizeCredits(e.Epoch, e.EpochCredits, tvcActivationEpoch)
}
