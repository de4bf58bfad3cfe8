package steward

import "fmt"

// UnstakeCause tags why a validator's stake decreased during Rebalance
// (spec §4.2's "RebalanceEvent with tagged cause").
type UnstakeCause int

const (
	CauseInstantUnstake UnstakeCause = iota
	CauseScoringUnstake
	CauseStakeDepositUnstake
	// CauseDirectedUnstake tags a decrease issued by RebalanceDirected; it
	// draws down directed_unstake_total instead of any pro-rata cap (spec
	// §4.2's Directed-Stake Overlay).
	CauseDirectedUnstake
)

func (c UnstakeCause) String() string {
	switch c {
	case CauseInstantUnstake:
		return "instant_unstake"
	case CauseScoringUnstake:
		return "scoring_unstake"
	case CauseStakeDepositUnstake:
		return "stake_deposit_unstake"
	case CauseDirectedUnstake:
		return "directed_unstake"
	default:
		return "unknown"
	}
}

// DecreaseComponents breaks a single decrease down by which per-cycle
// budget it was charged against, since one validator can be flagged by more
// than one cause in the same cycle.
type DecreaseComponents struct {
	InstantUnstakeLamports      uint64
	ScoringUnstakeLamports      uint64
	StakeDepositUnstakeLamports uint64
	DirectedUnstakeLamports     uint64
}

// Total sums the four components.
func (d DecreaseComponents) Total() uint64 {
	return d.InstantUnstakeLamports + d.ScoringUnstakeLamports + d.StakeDepositUnstakeLamports + d.DirectedUnstakeLamports
}

// RebalanceEvent is emitted by every Rebalance(index) crank step (spec
// §4.2), whether the validator's stake increased, decreased, or held.
type RebalanceEvent struct {
	ValidatorIndex int
	TargetLamports uint64
	PriorLamports  uint64
	NewLamports    uint64
	Increase       uint64
	Decrease       DecreaseComponents
	Causes         []UnstakeCause
}

// capRemaining returns how much of a capBps-sized budget (in bps of
// poolTotalActiveLamports) is left unused.
func capRemaining(capBps uint16, poolTotal, used uint64) uint64 {
	max := uint64(capBps) * poolTotal / 10_000
	if used >= max {
		return 0
	}
	return max - used
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// RebalanceForValidator is the per-instruction crank step Rebalance(index)
// (spec §4.2). scoringUnstake and stakeDepositUnstake are supplied by the
// caller (they derive from validator-list-length and stake-deposit
// conditions outside this package's state); instant-unstake is read
// directly from State.InstantUnstake, set by the prior phase.
//
// When any unstake cause applies, the validator is decreased toward its
// target -- toward 0 (full withdrawal) when instant unstake applies -- and
// the decrease is charged against each applicable cause's running total in
// the order instant, scoring, stake deposit: each cause takes as much as
// its remaining per-cycle cap allows and passes the rest to the next. Any
// amount no cap can absorb stays on the validator, so the caps are never
// exceeded.
func (s *State) RebalanceForValidator(cfg *Config, index int, poolTotalActiveLamports uint64, scoringUnstake, stakeDepositUnstake bool) (RebalanceEvent, error) {
	if s.Tag != StateRebalance {
		return RebalanceEvent{}, fmt.Errorf("%w: Rebalance called in phase %s", ErrInvalidState, s.Tag)
	}
	if processed, err := s.Progress.Get(index); err != nil {
		return RebalanceEvent{}, fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	} else if processed {
		return RebalanceEvent{}, fmt.Errorf("%w: validator %d already rebalanced this cycle", ErrInvalidState, index)
	}

	share := s.Delegations[index]
	var target uint64
	if share.Den != 0 {
		target = share.Num * poolTotalActiveLamports / share.Den
	}
	current := s.ValidatorLamportBalances[index]
	instantUnstake := s.InstantUnstake.MustGet(index)

	event := RebalanceEvent{ValidatorIndex: index, TargetLamports: target, PriorLamports: current}

	switch {
	case instantUnstake || scoringUnstake || stakeDepositUnstake:
		effectiveTarget := target
		if instantUnstake {
			effectiveTarget = 0
		}
		remaining := uint64(0)
		if current > effectiveTarget {
			remaining = current - effectiveTarget
		}

		if instantUnstake && remaining > 0 {
			room := capRemaining(cfg.Parameters.InstantUnstakeCapBps, poolTotalActiveLamports, s.InstantUnstakeTotal)
			amt := minUint64(remaining, room)
			event.Decrease.InstantUnstakeLamports = amt
			s.InstantUnstakeTotal += amt
			remaining -= amt
			if amt > 0 {
				event.Causes = append(event.Causes, CauseInstantUnstake)
			}
		}
		if scoringUnstake && remaining > 0 {
			room := capRemaining(cfg.Parameters.ScoringUnstakeCapBps, poolTotalActiveLamports, s.ScoringUnstakeTotal)
			amt := minUint64(remaining, room)
			event.Decrease.ScoringUnstakeLamports = amt
			s.ScoringUnstakeTotal += amt
			remaining -= amt
			if amt > 0 {
				event.Causes = append(event.Causes, CauseScoringUnstake)
			}
		}
		if stakeDepositUnstake && remaining > 0 {
			room := capRemaining(cfg.Parameters.StakeDepositUnstakeCapBps, poolTotalActiveLamports, s.StakeDepositUnstakeTotal)
			amt := minUint64(remaining, room)
			event.Decrease.StakeDepositUnstakeLamports = amt
			s.StakeDepositUnstakeTotal += amt
			remaining -= amt
			if amt > 0 {
				event.Causes = append(event.Causes, CauseStakeDepositUnstake)
			}
		}

		s.ValidatorLamportBalances[index] = current - event.Decrease.Total()
	case current < target:
		event.Increase = target - current
		s.ValidatorLamportBalances[index] = target
	}

	event.NewLamports = s.ValidatorLamportBalances[index]

	if err := s.MarkProcessed(index); err != nil {
		return event, err
	}
	return event, nil
}
