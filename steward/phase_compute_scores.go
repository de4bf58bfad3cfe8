package steward

import (
	"fmt"
	"sort"

	"github.com/stakeward/steward-core/clusterhistory"
	"github.com/stakeward/steward-core/epochmath"
	"github.com/stakeward/steward-core/validatorhistory"
)

// ComputeScoreForValidator is the per-instruction crank step
// ComputeScore(index) (spec §6.1). It is only valid while State.Tag is
// StateComputeScores. It enforces the compute-rate guard (spec §4.2: the
// phase must finish within ComputeScoreSlotRangeMin slots per pool
// validator) by comparing the caller-supplied currentSlot against
// StartComputingScoresSlot, captured by the phase's first ComputeScore call.
func (s *State) ComputeScoreForValidator(cfg *Config, hist *validatorhistory.History, cluster *clusterhistory.History, index int, currentEpoch epochmath.Epoch, currentSlot uint64, fresh Freshness) (ScoreResult, error) {
	if s.Tag != StateComputeScores {
		return ScoreResult{}, fmt.Errorf("%w: ComputeScore called in phase %s", ErrInvalidState, s.Tag)
	}
	if processed, err := s.Progress.Get(index); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	} else if processed {
		return ScoreResult{}, fmt.Errorf("%w: validator %d already scored this cycle", ErrInvalidState, index)
	}
	if s.Progress.CountUpTo(int(s.NumPoolValidators)) == 0 {
		s.StartComputingScoresSlot = currentSlot
	}
	if s.StartComputingScoresSlot != 0 && currentSlot > s.StartComputingScoresSlot+cfg.Parameters.ComputeScoreSlotRangeMin*s.NumPoolValidators {
		return ScoreResult{}, fmt.Errorf("%w: compute-score phase exceeded its slot budget", ErrInvalidState)
	}

	result := ComputeScore(cfg, hist, cluster, index, currentEpoch, fresh)
	s.Scores[index] = result.Score
	s.YieldScores[index] = result.YieldScore

	if last, ok := hist.Ring.Last(); ok {
		s.PrevCommission[index] = last.Commission
		if last.HasMEVCommission() {
			s.PrevMEVCommissionBps[index] = last.MEVCommissionBps
		}
	}
	if err := s.BlacklistSnapshot.Set(index, cfg.IsBlacklisted(index)); err != nil {
		return result, fmt.Errorf("%w: %v", ErrBitmaskOutOfBounds, err)
	}

	if err := s.MarkProcessed(index); err != nil {
		return result, err
	}
	if s.PhaseComplete() {
		s.sortScoreIndices()
	}
	return result, nil
}

// sortScoreIndices rebuilds SortedScoreIndices and SortedYieldScoreIndices,
// stably sorted descending with ties broken by ascending validator index
// (spec §4.2).
func (s *State) sortScoreIndices() {
	n := int(s.NumPoolValidators)
	idx := make([]uint16, n)
	for i := range idx {
		idx[i] = uint16(i)
	}

	score := append([]uint16(nil), idx...)
	sort.SliceStable(score, func(i, j int) bool {
		if s.Scores[score[i]] != s.Scores[score[j]] {
			return s.Scores[score[i]] > s.Scores[score[j]]
		}
		return score[i] < score[j]
	})
	s.SortedScoreIndices = score

	yield := append([]uint16(nil), idx...)
	sort.SliceStable(yield, func(i, j int) bool {
		if s.YieldScores[yield[i]] != s.YieldScores[yield[j]] {
			return s.YieldScores[yield[i]] > s.YieldScores[yield[j]]
		}
		return yield[i] < yield[j]
	})
	s.SortedYieldScoreIndices = yield
}
