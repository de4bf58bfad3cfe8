package steward

import "fmt"

// EpochProgress is the fraction of the current epoch's slots that have
// elapsed, supplied by the caller from on-chain slot/epoch-schedule data.
type EpochProgress float64

// checkPreconditions enforces the five transition preconditions of spec
// §4.2: not paused, epoch progress within bounds (relaxed for the tail
// phases), current phase's progress bitmask complete, epoch maintenance
// already applied this cycle, and no validator stuck in
// ValidatorsForImmediateRemoval.
func (s *State) checkPreconditions(cfg *Config, progress EpochProgress) error {
	if cfg.Paused {
		return ErrStateMachinePaused
	}

	tailPhase := s.Tag == StateRebalance || s.Tag == StatePostLoopIdle
	if !tailPhase && float64(progress) > cfg.Parameters.EpochProgressMax {
		return fmt.Errorf("%w: epoch progress %.4f exceeds max %.4f", ErrInvalidState, progress, cfg.Parameters.EpochProgressMax)
	}

	if !s.PhaseComplete() {
		return fmt.Errorf("%w: phase %s incomplete (%d/%d)", ErrInvalidState, s.Tag, s.Progress.CountUpTo(int(s.NumPoolValidators)), s.NumPoolValidators)
	}

	if s.Flags&FlagEpochMaintenance == 0 && s.Tag == StateComputeScores {
		return fmt.Errorf("%w: epoch maintenance has not run this cycle", ErrInvalidState)
	}

	if s.ValidatorsForImmediateRemoval.Count() != 0 {
		return fmt.Errorf("%w: validators pending immediate removal", ErrInvalidState)
	}

	return nil
}

// phaseFlag returns the Flag bit set when s.Tag's phase completes.
func (s StateTag) phaseFlag() Flag {
	switch s {
	case StateComputeScores:
		return FlagComputeScore
	case StateComputeDelegations:
		return FlagComputeDelegations
	case StateIdle:
		return FlagPreLoopIdle
	case StateComputeInstantUnstake:
		return FlagComputeInstantUnstakes
	case StateRebalance:
		return FlagRebalance
	case StateRebalanceDirectedComplete:
		return FlagRebalanceDirectedComplete
	case StatePostLoopIdle:
		return FlagPostLoopIdle
	default:
		return 0
	}
}

// Advance moves the state machine to the next phase once the current
// phase's progress bitmask is complete and every other precondition holds.
// It sets the completing phase's flag, clears Progress for the new phase,
// and -- on wraparound back to ComputeScores -- clears all flags and zeroes
// per-cycle unstake totals for the new cycle.
func (s *State) Advance(cfg *Config, progress EpochProgress) error {
	if err := s.checkPreconditions(cfg, progress); err != nil {
		return err
	}

	s.Flags |= s.Tag.phaseFlag()
	s.Tag = s.Tag.next()
	s.ResetProgress()

	if s.Tag == StateComputeScores {
		s.Flags = 0
		s.ScoringUnstakeTotal = 0
		s.InstantUnstakeTotal = 0
		s.StakeDepositUnstakeTotal = 0
		s.DirectedUnstakeTotal = 0
		s.NextCycleEpoch = s.CurrentEpoch + cfg.Parameters.NumEpochsBetweenScoring
	}
	return nil
}
