package steward

import "errors"

// Sentinel errors for the steward state machine. Spec §7 groups these into
// three taxa (Transient / Structural / Administrative); keeper.Classify maps
// each of these to its taxon except ErrValidatorNotFound,
// ErrAlreadyMarkedForRemoval and ErrCapExceeded, which it reports as unknown.
var (
	ErrUnauthorized          = errors.New("steward: unauthorized")
	ErrStateMachinePaused    = errors.New("steward: state machine paused")
	ErrInvalidState          = errors.New("steward: invalid state for requested operation")
	ErrEpochOutOfRange       = errors.New("steward: epoch out of range")
	ErrArithmeticError       = errors.New("steward: arithmetic overflow")
	ErrBitmaskOutOfBounds    = errors.New("steward: bitmask index out of bounds")
	ErrListStateMismatch     = errors.New("steward: validator list state mismatch")
	ErrIndexesDontMatch      = errors.New("steward: cached and on-chain validator indexes disagree")
	ErrVoteHistoryStale      = errors.New("steward: vote history not recent enough")
	ErrStakeHistoryStale     = errors.New("steward: stake history not recent enough")
	ErrClusterHistoryStale   = errors.New("steward: cluster history not recent enough")
	ErrNotEnoughVotingHistory = errors.New("steward: not enough voting history")
	ErrValidatorNotFound      = errors.New("steward: validator not found")
	ErrAlreadyMarkedForRemoval = errors.New("steward: validator already marked for removal")
	ErrCapExceeded             = errors.New("steward: per-cycle unstake cap exceeded")
	ErrWhitelistAuthorityUnset = errors.New("steward: whitelist authority unset")
)
