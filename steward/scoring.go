package steward

import (
	"github.com/stakeward/steward-core/clusterhistory"
	"github.com/stakeward/steward-core/epochmath"
	"github.com/stakeward/steward-core/validatorhistory"
)

// Freshness reports whether the three data sources compute_score depends on
// were each updated during the current epoch (spec §4.2 eligibility).
type Freshness struct {
	VoteAccountUpdatedThisEpoch bool
	StakeUpdatedThisEpoch       bool
	ClusterHistoryUpdatedThisEpoch bool
}

// ScoreResult bundles a validator's composite score and yield-only score,
// plus the individual component scores for observability (RebalanceEvent /
// metrics consumers want the breakdown, not just the product).
type ScoreResult struct {
	Score      uint64
	YieldScore uint64

	CommissionScore               bool
	HistoricalCommissionScore     bool
	MEVCommissionScore            bool
	DelinquencyScore              bool
	RunningJitoScore               bool
	PriorityFeeCommissionScore    bool

	Eligible     bool
	Blacklisted  bool
}

// eligible implements spec §4.2's eligibility gate: minimum voting epochs of
// history, minimum stake, and freshness of all three data sources.
func eligible(cfg *Config, hist *validatorhistory.History, fresh Freshness) bool {
	if hist.Ring.Len() < int(cfg.Parameters.MinimumVotingEpochs) {
		return false
	}
	last, ok := hist.Ring.Last()
	if !ok || !last.HasStake() || last.ActivatedStakeLamports < cfg.Parameters.MinimumStakeLamports {
		return false
	}
	return fresh.VoteAccountUpdatedThisEpoch && fresh.StakeUpdatedThisEpoch && fresh.ClusterHistoryUpdatedThisEpoch
}

// ComputeScore produces score_v and yield_score_v for one validator (spec
// §4.2 compute_score). `index` is the validator's position in the Config
// blacklist bitmask.
func ComputeScore(cfg *Config, hist *validatorhistory.History, cluster *clusterhistory.History, index int, currentEpoch epochmath.Epoch, fresh Freshness) ScoreResult {
	result := ScoreResult{Blacklisted: cfg.IsBlacklisted(index)}
	result.Eligible = eligible(cfg, hist, fresh)

	windowStart := epochmath.Epoch(0)
	if uint16(currentEpoch) > cfg.Parameters.ScoringWindowEpochs {
		windowStart = currentEpoch - epochmath.Epoch(cfg.Parameters.ScoringWindowEpochs) + 1
	}

	last, _ := hist.Ring.Last()

	result.CommissionScore = last.Commission <= cfg.Parameters.CommissionThresholdPct

	result.HistoricalCommissionScore = maxCommissionAtMost(hist, epochWindowStart(currentEpoch, cfg.Parameters.HistoricalCommissionWindowEpochs), currentEpoch, cfg.Parameters.HistoricalCommissionThresholdPct)

	result.MEVCommissionScore = maxMEVCommissionAtMost(hist, epochWindowStart(currentEpoch, cfg.Parameters.MEVCommissionWindowEpochs), currentEpoch, cfg.Parameters.MEVCommissionThresholdBps)

	result.DelinquencyScore = delinquencyOK(hist, cluster, windowStart, currentEpoch, cfg.Parameters.ScoringDelinquencyThresholdRatio)

	result.RunningJitoScore = mevObservedInWindow(hist, epochWindowStart(currentEpoch, cfg.Parameters.RunningJitoWindowEpochs), currentEpoch)

	result.PriorityFeeCommissionScore = !last.HasPriorityFeeCommission() || last.PriorityFeeCommissionBps <= cfg.Parameters.PriorityFeeMaxCommissionBps

	result.YieldScore = yieldScore(hist, windowStart, currentEpoch, cfg.Parameters.TVCActivationEpoch)

	if result.Blacklisted || !result.Eligible {
		result.Score = 0
		return result
	}

	if result.CommissionScore && result.HistoricalCommissionScore && result.MEVCommissionScore &&
		result.DelinquencyScore && result.RunningJitoScore && result.PriorityFeeCommissionScore {
		result.Score = result.YieldScore
	}
	return result
}

func epochWindowStart(current epochmath.Epoch, window uint16) epochmath.Epoch {
	if uint16(current) <= window {
		return 0
	}
	return current - epochmath.Epoch(window) + 1
}

func maxCommissionAtMost(hist *validatorhistory.History, start, end epochmath.Epoch, threshold uint8) bool {
	entries := hist.Ring.Range(start, end)
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Commission > threshold {
			return false
		}
	}
	return true
}

func maxMEVCommissionAtMost(hist *validatorhistory.History, start, end epochmath.Epoch, threshold uint16) bool {
	entries := hist.Ring.Range(start, end)
	for _, e := range entries {
		if e == nil || !e.HasMEVCommission() {
			continue
		}
		if e.MEVCommissionBps > threshold {
			return false
		}
	}
	return true
}

func mevObservedInWindow(hist *validatorhistory.History, start, end epochmath.Epoch) bool {
	entries := hist.Ring.Range(start, end)
	for _, e := range entries {
		if e != nil && e.HasMEVCommission() {
			return true
		}
	}
	return false
}

// delinquencyOK implements "delinquency_score = 1 iff credits_v/credits_cluster
// >= scoring_delinquency_ratio over every epoch in window where cluster
// produced blocks" (spec §4.2). Epochs where the cluster produced zero
// blocks are excluded from the check entirely (there is no meaningful
// denominator), and epochs with no validator-history entry are treated as
// zero credits rather than skipped, since a gap means the validator voted
// on nothing that epoch.
func delinquencyOK(hist *validatorhistory.History, cluster *clusterhistory.History, start, end epochmath.Epoch, ratio float64) bool {
	entries := hist.Ring.Range(start, end)
	for i, e := range entries {
		epoch := start + epochmath.Epoch(i)
		ce := cluster.At(epoch)
		if ce == nil || ce.TotalBlocks == 0 {
			continue
		}
		var credits uint64
		if e != nil {
			credits = e.NormalizedCredits(0)
		}
		clusterCredits := uint64(ce.TotalBlocks)
		if float64(credits)/float64(clusterCredits) < ratio {
			return false
		}
	}
	return true
}

// yieldScore accumulates credits_norm * (1 - commission/100) across the
// window (spec §4.2).
func yieldScore(hist *validatorhistory.History, start, end epochmath.Epoch, tvcActivation epochmath.Epoch) uint64 {
	entries := hist.Ring.Range(start, end)
	var total uint64
	for _, e := range entries {
		if e == nil {
			continue
		}
		credits := e.NormalizedCredits(tvcActivation)
		// Integer fixed-point: (credits * (100 - commission)) / 100, never
		// accumulating float error across the window.
		commission := uint64(e.Commission)
		if commission > 100 {
			commission = 100
		}
		total += credits * (100 - commission) / 100
	}
	return total
}
