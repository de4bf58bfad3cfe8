package steward

import "fmt"

// AdminMarkForRemoval is the admin-only instruction that marks a validator
// for the immediate-removal path, distinct from the ordinary
// validators_to_remove bitmask the stake pool maintains. While any index
// remains flagged here, the state machine cannot advance past its current
// phase (transition precondition 5, spec §4.2).
func (s *State) AdminMarkForRemoval(cfg *Config, caller [32]byte, index int) error {
	if cfg.Closed {
		return fmt.Errorf("%w: steward accounts are closed", ErrInvalidState)
	}
	if err := cfg.RequireAuthority(RoleAdmin, caller); err != nil {
		return err
	}
	if index < 0 || uint64(index) >= s.NumPoolValidators {
		return fmt.Errorf("%w: validator index %d", ErrBitmaskOutOfBounds, index)
	}
	already, err := s.ValidatorsForImmediateRemoval.Get(index)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	}
	if already {
		return ErrAlreadyMarkedForRemoval
	}
	return s.ValidatorsForImmediateRemoval.Set(index, true)
}

// InstantRemoveValidator is the permissionless crank step that drains
// ValidatorsForImmediateRemoval: anyone may call it to actually perform the
// removal AdminMarkForRemoval queued, unblocking transition precondition 5.
func (s *State) InstantRemoveValidator(index int) error {
	flagged, err := s.ValidatorsForImmediateRemoval.Get(index)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	}
	if !flagged {
		return fmt.Errorf("%w: validator %d not marked for immediate removal", ErrInvalidState, index)
	}
	return s.removeValidator(index)
}

// CloseStewardAccounts is the admin-only teardown instruction (spec §6.1
// supplemented feature): it sets Config.Closed. There is no rent or ledger
// to reclaim in this port. AdminMarkForRemoval and steward-cli's mutating
// subcommands refuse to write once Closed is set; the other Config and
// State methods do not check it.
func (s *State) CloseStewardAccounts(cfg *Config, caller [32]byte) error {
	if err := cfg.RequireAuthority(RoleAdmin, caller); err != nil {
		return err
	}
	cfg.Closed = true
	return nil
}
