package steward

import "fmt"

// EpochMaintenance is the permissionless EpochMaintenance crank step (spec
// §4.2), run at every epoch rollover before ComputeScores may begin again.
// lastUpdateEpoch and validatorListLen are read from the stake pool
// (spec §1's external collaborator); validatorIndexToRemove, if non-nil,
// names a validator-list slot the caller wants removed this call.
func (s *State) EpochMaintenance(cfg *Config, lastUpdateEpoch uint64, validatorListLen int, validatorIndexToRemove *int) error {
	if cfg.Paused {
		return ErrStateMachinePaused
	}
	if lastUpdateEpoch != s.CurrentEpoch {
		return fmt.Errorf("%w: stake pool last_update_epoch %d != current_epoch %d", ErrListStateMismatch, lastUpdateEpoch, s.CurrentEpoch)
	}

	expected := s.NumPoolValidators + uint64(s.ValidatorsAdded) - uint64(s.ValidatorsToRemove.Count())
	if expected != uint64(validatorListLen) {
		return fmt.Errorf("%w: num_pool_validators(%d)+validators_added(%d)-to_remove(%d) != validator_list length(%d)",
			ErrListStateMismatch, s.NumPoolValidators, s.ValidatorsAdded, s.ValidatorsToRemove.Count(), validatorListLen)
	}

	if validatorIndexToRemove != nil {
		if err := s.removeValidator(*validatorIndexToRemove); err != nil {
			return err
		}
	}

	if s.ValidatorsToRemove.Count() == 0 {
		s.CurrentEpoch = lastUpdateEpoch
		s.Flags |= FlagEpochMaintenance
	}
	return nil
}

// removeValidator clears a removed validator's per-index bookkeeping and
// shifts every later index down by one, so the arrays stay dense over
// [0, NumPoolValidators) (spec §4.2 "clears that slot's score, delegation
// and progress bits, decrements num_pool_validators OR validators_added,
// and shifts trailing bookkeeping"). A slot at or beyond NumPoolValidators
// is one of this epoch's not-yet-absorbed additions, so its removal
// decrements ValidatorsAdded instead.
func (s *State) removeValidator(index int) error {
	if index < 0 || index >= MaxValidators {
		return fmt.Errorf("%w: validator index %d", ErrBitmaskOutOfBounds, index)
	}

	if uint64(index) >= s.NumPoolValidators {
		if s.ValidatorsAdded == 0 {
			return fmt.Errorf("%w: no pending additions to remove at index %d", ErrValidatorNotFound, index)
		}
		s.ValidatorsAdded--
		s.clearValidatorSlot(index)
		return nil
	}

	last := int(s.NumPoolValidators) - 1
	for i := index; i < last; i++ {
		s.Scores[i] = s.Scores[i+1]
		s.YieldScores[i] = s.YieldScores[i+1]
		s.Delegations[i] = s.Delegations[i+1]
		s.ValidatorLamportBalances[i] = s.ValidatorLamportBalances[i+1]
		s.PrevCommission[i] = s.PrevCommission[i+1]
		s.PrevMEVCommissionBps[i] = s.PrevMEVCommissionBps[i+1]

		processed, err := s.Progress.Get(i + 1)
		if err != nil {
			return err
		}
		if err := s.Progress.Set(i, processed); err != nil {
			return err
		}

		flagged := s.InstantUnstake.MustGet(i + 1)
		if err := s.InstantUnstake.Set(i, flagged); err != nil {
			return err
		}

		toRemove := s.ValidatorsToRemove.MustGet(i + 1)
		if err := s.ValidatorsToRemove.Set(i, toRemove); err != nil {
			return err
		}
		forImmediate := s.ValidatorsForImmediateRemoval.MustGet(i + 1)
		if err := s.ValidatorsForImmediateRemoval.Set(i, forImmediate); err != nil {
			return err
		}
	}
	s.clearValidatorSlot(last)
	s.NumPoolValidators--
	return nil
}

func (s *State) clearValidatorSlot(index int) {
	s.Scores[index] = 0
	s.YieldScores[index] = 0
	s.Delegations[index] = Fraction{}
	s.ValidatorLamportBalances[index] = 0
	s.PrevCommission[index] = 0
	s.PrevMEVCommissionBps[index] = 0
	_ = s.Progress.Set(index, false)
	_ = s.InstantUnstake.Set(index, false)
	_ = s.ValidatorsToRemove.Set(index, false)
	_ = s.ValidatorsForImmediateRemoval.Set(index, false)
}
