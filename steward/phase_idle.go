package steward

import "fmt"

// Idle is the pass-through crank step for StateIdle (pre-loop) and
// StatePostLoopIdle (spec §4.2): unlike the scoring/delegation/unstake/
// rebalance phases it touches no per-validator data, so it completes the
// phase's progress bitmask in one call rather than requiring N separate
// per-index instructions.
func (s *State) Idle() error {
	if s.Tag != StateIdle && s.Tag != StatePostLoopIdle {
		return fmt.Errorf("%w: Idle called in phase %s", ErrInvalidState, s.Tag)
	}
	n := int(s.NumPoolValidators)
	s.Progress.Clear()
	for i := 0; i < n; i++ {
		_ = s.Progress.Set(i, true)
	}
	return nil
}
