package keeper

import (
	"errors"

	"github.com/stakeward/steward-core/steward"
)

// Taxon is one of the three error categories the keeper sorts every
// failure into before deciding whether to retry, alert, or surface to the
// operator (spec §7).
type Taxon int

const (
	// TaxonTransient failures are retried with a fresh blockhash until
	// RetryCount is exhausted.
	TaxonTransient Taxon = iota
	// TaxonStructural failures are recorded in errors_for_epoch and the
	// keeper moves on to the next task; they are never retried.
	TaxonStructural
	// TaxonAdministrative failures propagate to the operator (CLI exit
	// message, API 5xx) and are never retried.
	TaxonAdministrative
	// TaxonUnknown covers anything unrecognized: an alert is raised but
	// the next tick proceeds regardless (spec §4.3 "unknown simulation
	// results raise an alert but do not block the next tick").
	TaxonUnknown
)

func (t Taxon) String() string {
	switch t {
	case TaxonTransient:
		return "transient"
	case TaxonStructural:
		return "structural"
	case TaxonAdministrative:
		return "administrative"
	default:
		return "unknown"
	}
}

// Keeper-level transient conditions. These have no steward-package analog
// because they originate below the steward crank, in the RPC transport
// itself (spec §7 taxon 1: "RPC timeouts, blockhash-not-found,
// blockhash-expired").
var (
	ErrRPCTimeout        = errors.New("keeper: rpc call timed out")
	ErrBlockhashNotFound = errors.New("keeper: blockhash not found")
	ErrBlockhashExpired  = errors.New("keeper: blockhash expired")
)

// Classify sorts err into one of the three taxa (spec §7). It recognizes
// the keeper's own transient transport errors and the steward sentinel
// errors listed below; anything else, including steward's
// ErrValidatorNotFound, ErrAlreadyMarkedForRemoval and ErrCapExceeded, is
// TaxonUnknown.
func Classify(err error) Taxon {
	switch {
	case err == nil:
		return TaxonUnknown
	case errors.Is(err, ErrRPCTimeout), errors.Is(err, ErrBlockhashNotFound), errors.Is(err, ErrBlockhashExpired):
		return TaxonTransient
	case errors.Is(err, steward.ErrVoteHistoryStale):
		return TaxonTransient

	case errors.Is(err, steward.ErrInvalidState),
		errors.Is(err, steward.ErrListStateMismatch),
		errors.Is(err, steward.ErrIndexesDontMatch),
		errors.Is(err, steward.ErrBitmaskOutOfBounds),
		errors.Is(err, steward.ErrArithmeticError),
		errors.Is(err, steward.ErrStakeHistoryStale),
		errors.Is(err, steward.ErrClusterHistoryStale),
		errors.Is(err, steward.ErrStateMachinePaused):
		return TaxonStructural

	case errors.Is(err, steward.ErrUnauthorized),
		errors.Is(err, steward.ErrWhitelistAuthorityUnset),
		errors.Is(err, steward.ErrNotEnoughVotingHistory),
		errors.Is(err, steward.ErrEpochOutOfRange):
		return TaxonAdministrative

	default:
		return TaxonUnknown
	}
}

// ClassifySimulationResult matches a raw simulation-result string against
// the structured codes the steward crank is known to raise (spec §4.3).
// shouldRerun mirrors the source's `should_rerun` flag: set only for
// VoteHistoryNotRecentEnough, the one retryable code this table names.
func ClassifySimulationResult(result string) (taxon Taxon, shouldRerun bool) {
	switch result {
	case "ValidatorAlreadyMarkedForRemoval":
		return TaxonStructural, false
	case "InvalidState":
		return TaxonStructural, false
	case "IndexesDontMatch":
		return TaxonStructural, false
	case "VoteHistoryNotRecentEnough":
		return TaxonTransient, true
	default:
		return TaxonUnknown, false
	}
}
