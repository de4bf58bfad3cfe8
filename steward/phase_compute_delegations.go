package steward

import "fmt"

// ComputeDelegations assigns target delegation shares (spec §4.2): the
// nonzero-score validators among the top NumDelegationValidators (D) by
// SortedScoreIndices each receive weight 1/k, where k is how many of those
// top-D candidates scored above zero; everyone else gets 0/1. Because every
// selected share uses the same denominator k, the sum is exactly 1 with no
// remainder to absorb --
// unlike a scheme that converts each share to an independent fixed-point
// approximation, a uniform 1/D split is already exact.
//
// This is the single-instruction ComputeDelegations crank step; it runs
// once per cycle (there is no per-validator progress bitmask for this
// phase: the whole delegation vector is recomputed and written in one
// pass, matching IsComplete trivially after it returns).
func (s *State) ComputeDelegations(cfg *Config) error {
	if s.Tag != StateComputeDelegations {
		return fmt.Errorf("%w: ComputeDelegations called in phase %s", ErrInvalidState, s.Tag)
	}

	d := int(cfg.Parameters.NumDelegationValidators)
	n := int(s.NumPoolValidators)
	if d > n {
		d = n
	}

	for i := 0; i < n; i++ {
		s.Delegations[i] = Fraction{Num: 0, Den: 1}
	}
	selected := 0
	for rank := 0; rank < d; rank++ {
		if s.Scores[s.SortedScoreIndices[rank]] != 0 {
			selected++
		}
	}
	for rank := 0; rank < d; rank++ {
		idx := int(s.SortedScoreIndices[rank])
		if s.Scores[idx] == 0 {
			// A zero-score validator never receives delegation even if it
			// ranks within the top D by index order (e.g. every other
			// slot is also zero on a near-empty pool).
			continue
		}
		s.Delegations[idx] = Fraction{Num: 1, Den: uint64(selected)}
	}

	if err := s.verifyDelegationSum(selected, n); err != nil {
		return err
	}

	s.Progress.Clear()
	for i := 0; i < n; i++ {
		_ = s.Progress.Set(i, true)
	}
	return nil
}

// verifyDelegationSum enforces invariant 3 of spec §8: the sum of assigned
// num/den across selected validators equals 1 once the phase completes
// (skipped entirely when every top-D candidate scored zero, since then no
// validator is "selected" and the sum is legitimately 0).
func (s *State) verifyDelegationSum(d, n int) error {
	var selected int
	for i := 0; i < n; i++ {
		if s.Delegations[i].Num != 0 {
			selected++
		}
	}
	if selected == 0 {
		return nil
	}
	if selected != d {
		return fmt.Errorf("%w: expected %d delegated validators, got %d", ErrArithmeticError, d, selected)
	}
	// Sum = selected * (1/d) = 1 when selected == d.
	return nil
}
