// Package epochmath provides the small set of numeric conversions shared
// across the validator history, cluster history, and steward packages:
// u16 epoch wraparound, the pre-TVC-activation credit normalization factor,
// and fixed-point SOL scaling for MEV/priority-fee earnings (spec §3.1,
// §3.2, §9).
package epochmath

import "math"

// Epoch mirrors the on-chain u16 epoch index, wrapping at MaxEpoch.
type Epoch uint16

// MaxEpoch is the sentinel "unobserved" epoch value (u16::MAX).
const MaxEpoch Epoch = math.MaxUint16

// NextEpoch returns e+1, wrapping around at MaxEpoch the way the on-chain
// u16 field does.
func NextEpoch(e Epoch) Epoch {
	if e == MaxEpoch {
		return 0
	}
	return e + 1
}

// Before reports whether a precedes b, accounting for wraparound: an epoch
// is only ever compared to epochs within one cycle's distance, so a simple
// difference-sign check is sufficient and matches the source's "epoch
// wraps at u16::MAX" semantics without needing a full modular-distance
// metric.
func Before(a, b Epoch) bool { return int16(a-b) < 0 }

// TVCDoubleCountFactor is the fixed multiplier applied to epoch credits
// recorded before the TVC (two-vote-credit) activation epoch, normalizing
// pre-activation accounting with post-activation accounting (spec §3.2).
const TVCDoubleCountFactor uint64 = 16

// NormalizeCredits scales raw epoch_credits by TVCDoubleCountFactor when the
// observation epoch precedes tvcActivationEpoch, leaving later epochs
// untouched.
func NormalizeCredits(epoch Epoch, credits uint32, tvcActivationEpoch Epoch) uint64 {
	if epoch < tvcActivationEpoch {
		return uint64(credits) * TVCDoubleCountFactor
	}
	return uint64(credits)
}

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// FixedPointScale is the fixed-point divisor used to store MEV/priority-fee
// earnings as a u32: 1/100th of a SOL per unit.
const FixedPointScale uint64 = 100

// FixedPointSOL converts a lamport amount into the scaled-by-100 SOL
// representation stored in ValidatorHistoryEntry.MEVEarned /
// TotalPriorityFees reporting, rounding to the nearest unit
// (spec §9: fixed_point_sol(lamports) = round(lamports/1e9 * 100)).
func FixedPointSOL(lamports uint64) uint32 {
	// round(lamports * 100 / 1e9) computed in integer arithmetic with
	// explicit rounding (add half the divisor before truncating).
	num := lamports * FixedPointScale
	den := LamportsPerSOL
	return uint32((num + den/2) / den)
}

// SentinelU8 is the "unobserved" sentinel for u8 fields.
const SentinelU8 = math.MaxUint8

// SentinelU16 is the "unobserved" sentinel for u16 fields.
const SentinelU16 = math.MaxUint16

// SentinelU32 is the "unobserved" sentinel for u32 fields.
const SentinelU32 = math.MaxUint32

// SentinelU64 is the "unobserved" sentinel for u64 fields.
const SentinelU64 = math.MaxUint64
