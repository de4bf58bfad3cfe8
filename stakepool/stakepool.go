// Package stakepool defines the external-collaborator interfaces the
// steward core depends on but does not implement: the stake-pool program
// itself, the vote-account telemetry source, and the MEV/priority-fee
// distribution accounts (spec §1 scope note). Everything in this package is
// an interface plus the small value types needed to describe calls across
// that boundary -- there is no on-chain program here.
package stakepool

import "context"

// ValidatorListEntry is one row of the stake pool's validator_list account.
type ValidatorListEntry struct {
	VoteAccount         [32]byte
	ActiveStakeLamports uint64
	TransientStakeLamports uint64
}

// Pool is the subset of the stake-pool primitive's interface the steward
// core calls into (spec §1: "assumed to expose validator_list, reserve_stake,
// add_validator, remove_validator, increase/decrease_stake").
type Pool interface {
	// ValidatorList returns the pool's current validator list and the epoch
	// at which the pool program last applied an update.
	ValidatorList(ctx context.Context) ([]ValidatorListEntry, uint64, error)

	// ReserveLamports returns the pool's undelegated reserve balance
	// available for increase-stake instructions.
	ReserveLamports(ctx context.Context) (uint64, error)

	// TotalActiveLamports returns the pool's total active (delegated)
	// stake across every validator, the denominator for target_lamports
	// computation (spec §4.2 Rebalance).
	TotalActiveLamports(ctx context.Context) (uint64, error)

	AddValidator(ctx context.Context, voteAccount [32]byte) error
	RemoveValidator(ctx context.Context, voteAccount [32]byte) error
	IncreaseStake(ctx context.Context, voteAccount [32]byte, lamports uint64) error
	DecreaseStake(ctx context.Context, voteAccount [32]byte, lamports uint64) error
}

// VoteAccountObservation is one poll of a validator's already-deserialized
// vote-account state (spec §1 Non-goals: "does not implement the
// cryptographic vote-account parsing").
type VoteAccountObservation struct {
	VoteAccount  [32]byte
	Commission   uint8
	LastSlot     uint64
	EpochCredits []EpochCreditObservation
}

// EpochCreditObservation is one (epoch, credits) sample from a vote
// account's epoch_credits vector.
type EpochCreditObservation struct {
	Epoch   uint16
	Credits uint32
}

// VoteAccountSource is the oracle collaborator that supplies deserialized
// vote-account state.
type VoteAccountSource interface {
	FetchVoteAccounts(ctx context.Context, voteAccounts [][32]byte) ([]VoteAccountObservation, error)
}

// MEVDistributionSource supplies per-epoch MEV commission and merkle-root
// settlement data from the tip-distribution program.
type MEVDistributionSource interface {
	FetchMEVCommission(ctx context.Context, voteAccount [32]byte, epoch uint16) (bps uint16, earnedLamports uint64, hasMerkleRoot bool, err error)
}

// PriorityFeeDistributionSource is the analogous collaborator for the
// priority-fee distribution program.
type PriorityFeeDistributionSource interface {
	FetchPriorityFeeCommission(ctx context.Context, voteAccount [32]byte, epoch uint16) (bps uint16, err error)
	FetchBlockMetadata(ctx context.Context, voteAccount [32]byte, epoch uint16) (totalPriorityFees uint64, totalLeaderSlots, blocksProduced uint32, err error)
}

// GossipSource supplies client-version and IP telemetry observed over
// cluster gossip.
type GossipSource interface {
	FetchContactInfo(ctx context.Context, voteAccount [32]byte) (ip [4]uint8, clientType uint8, versionMajor, versionMinor, versionPatch uint8, err error)
}
