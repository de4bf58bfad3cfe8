package steward

import (
	"fmt"

	"github.com/stakeward/steward-core/clusterhistory"
	"github.com/stakeward/steward-core/epochmath"
	"github.com/stakeward/steward-core/validatorhistory"
)

// ComputeInstantUnstakeForValidator is the per-instruction crank step
// ComputeInstantUnstake(index) (spec §4.2). It sets InstantUnstake[index]
// when any of four independent signals fire: current-epoch delinquency
// below threshold, a mid-epoch commission or MEV-commission jump past
// threshold, vote-account freshness lost, or a blacklist bit that flipped
// on since ComputeScore ran this cycle. It is gated on
// InstantUnstakeInputsEpochProgress so it only runs once enough of the
// epoch's vote/stake data has had a chance to land.
func (s *State) ComputeInstantUnstakeForValidator(cfg *Config, hist *validatorhistory.History, cluster *clusterhistory.History, index int, currentEpoch epochmath.Epoch, progress EpochProgress, fresh Freshness) (bool, error) {
	if s.Tag != StateComputeInstantUnstake {
		return false, fmt.Errorf("%w: ComputeInstantUnstake called in phase %s", ErrInvalidState, s.Tag)
	}
	if float64(progress) < cfg.Parameters.InstantUnstakeInputsEpochProgress {
		return false, fmt.Errorf("%w: epoch progress %.4f below instant-unstake gate %.4f", ErrInvalidState, progress, cfg.Parameters.InstantUnstakeInputsEpochProgress)
	}
	if processed, err := s.Progress.Get(index); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	} else if processed {
		return false, fmt.Errorf("%w: validator %d already checked for instant unstake this cycle", ErrInvalidState, index)
	}

	flag := s.currentEpochDelinquent(cfg, hist, cluster, index, currentEpoch) ||
		s.commissionJumped(cfg, hist, index) ||
		s.mevCommissionJumped(cfg, hist, index) ||
		!fresh.VoteAccountUpdatedThisEpoch ||
		s.blacklistFlipped(cfg, index)

	if err := s.InstantUnstake.Set(index, flag); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	}
	if err := s.MarkProcessed(index); err != nil {
		return flag, err
	}
	return flag, nil
}

// currentEpochDelinquent reports whether validator index's vote credits
// this epoch, as a fraction of the cluster total, fall below
// InstantUnstakeDelinquencyThresholdRatio. A cluster epoch with no
// produced blocks has no meaningful ratio and never flags delinquency.
func (s *State) currentEpochDelinquent(cfg *Config, hist *validatorhistory.History, cluster *clusterhistory.History, index int, currentEpoch epochmath.Epoch) bool {
	ce := cluster.At(currentEpoch)
	if ce == nil || ce.TotalBlocks == 0 {
		return false
	}
	entries := hist.Ring.Range(currentEpoch, currentEpoch)
	var credits uint64
	if len(entries) == 1 && entries[0] != nil {
		credits = entries[0].NormalizedCredits(cfg.Parameters.TVCActivationEpoch)
	}
	ratio := float64(credits) / float64(ce.TotalBlocks)
	return ratio < cfg.Parameters.InstantUnstakeDelinquencyThresholdRatio
}

// commissionJumped compares the validator's commission at ComputeScore time
// this cycle (PrevCommission) to its latest observed value; a rise that
// crosses CommissionThresholdPct while the earlier reading did not is a
// mid-epoch jump.
func (s *State) commissionJumped(cfg *Config, hist *validatorhistory.History, index int) bool {
	last, ok := hist.Ring.Last()
	if !ok {
		return false
	}
	if last.Commission <= cfg.Parameters.CommissionThresholdPct {
		return false
	}
	return s.PrevCommission[index] <= cfg.Parameters.CommissionThresholdPct
}

// mevCommissionJumped is the MEV-commission analog of commissionJumped.
func (s *State) mevCommissionJumped(cfg *Config, hist *validatorhistory.History, index int) bool {
	last, ok := hist.Ring.Last()
	if !ok || !last.HasMEVCommission() {
		return false
	}
	if last.MEVCommissionBps <= cfg.Parameters.MEVCommissionThresholdBps {
		return false
	}
	return s.PrevMEVCommissionBps[index] <= cfg.Parameters.MEVCommissionThresholdBps
}

// blacklistFlipped reports whether cfg's current blacklist bit for index
// disagrees with the snapshot captured when ComputeScore ran this cycle.
func (s *State) blacklistFlipped(cfg *Config, index int) bool {
	was := s.BlacklistSnapshot.MustGet(index)
	now := cfg.IsBlacklisted(index)
	return now && !was
}
