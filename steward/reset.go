package steward

// ResetStewardState is the admin-only reset_steward_state instruction
// (spec §4.2 "Reset"): restores the state account to cycle-start shape to
// recover from corruption. caller must hold RoleAdmin.
func (s *State) ResetStewardState(cfg *Config, caller [32]byte) error {
	if err := cfg.RequireAuthority(RoleAdmin, caller); err != nil {
		return err
	}

	numPoolValidators := s.NumPoolValidators
	currentEpoch := s.CurrentEpoch

	reset := NewState(currentEpoch, cfg.Parameters.NumEpochsBetweenScoring)
	reset.NumPoolValidators = numPoolValidators
	*s = *reset
	return nil
}
