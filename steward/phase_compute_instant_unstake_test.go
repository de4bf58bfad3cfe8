package steward

import (
	"testing"

	"github.com/stakeward/steward-core/clusterhistory"
	"github.com/stakeward/steward-core/epochmath"
	"github.com/stakeward/steward-core/validatorhistory"
)

func newInstantUnstakeTestState() (*State, *Config) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	s := NewState(10, 10)
	s.Tag = StateComputeInstantUnstake
	s.NumPoolValidators = 1
	return s, cfg
}

func freshAll() Freshness {
	return Freshness{VoteAccountUpdatedThisEpoch: true, StakeUpdatedThisEpoch: true, ClusterHistoryUpdatedThisEpoch: true}
}

func TestComputeInstantUnstakeDelinquency(t *testing.T) {
	s, cfg := newInstantUnstakeTestState()
	cfg.Parameters.InstantUnstakeDelinquencyThresholdRatio = 0.8

	hist := validatorhistory.New([32]byte{1})
	_ = hist.ObserveVoteAccount(10, 5, 100, []validatorhistory.EpochCredit{{Epoch: 10, Credits: 10}})

	cluster := clusterhistory.New()
	_ = cluster.BackfillTotalBlocks(10, 100)

	flag, err := s.ComputeInstantUnstakeForValidator(cfg, hist, cluster, 0, epochmath.Epoch(10), EpochProgress(0.9), freshAll())
	if err != nil {
		t.Fatalf("ComputeInstantUnstakeForValidator: %v", err)
	}
	if !flag {
		t.Fatalf("expected delinquency to trigger instant unstake")
	}
	if !s.InstantUnstake.MustGet(0) {
		t.Fatalf("expected InstantUnstake bit set")
	}
}

func TestComputeInstantUnstakeCommissionJump(t *testing.T) {
	s, cfg := newInstantUnstakeTestState()
	cfg.Parameters.CommissionThresholdPct = 10
	s.PrevCommission[0] = 5

	hist := validatorhistory.New([32]byte{1})
	_ = hist.ObserveVoteAccount(10, 20, 100, nil)

	cluster := clusterhistory.New()
	_ = cluster.BackfillTotalBlocks(10, 0)

	flag, err := s.ComputeInstantUnstakeForValidator(cfg, hist, cluster, 0, epochmath.Epoch(10), EpochProgress(0.9), freshAll())
	if err != nil {
		t.Fatalf("ComputeInstantUnstakeForValidator: %v", err)
	}
	if !flag {
		t.Fatalf("expected commission jump to trigger instant unstake")
	}
}

func TestComputeInstantUnstakeFreshnessLost(t *testing.T) {
	s, cfg := newInstantUnstakeTestState()

	hist := validatorhistory.New([32]byte{1})
	_ = hist.ObserveVoteAccount(10, 5, 100, nil)

	cluster := clusterhistory.New()

	fresh := freshAll()
	fresh.VoteAccountUpdatedThisEpoch = false

	flag, err := s.ComputeInstantUnstakeForValidator(cfg, hist, cluster, 0, epochmath.Epoch(10), EpochProgress(0.9), fresh)
	if err != nil {
		t.Fatalf("ComputeInstantUnstakeForValidator: %v", err)
	}
	if !flag {
		t.Fatalf("expected lost freshness to trigger instant unstake")
	}
}

func TestComputeInstantUnstakeBlacklistFlip(t *testing.T) {
	s, cfg := newInstantUnstakeTestState()
	_ = s.BlacklistSnapshot.Set(0, false)
	_ = cfg.AddToBlacklist(0)

	hist := validatorhistory.New([32]byte{1})
	_ = hist.ObserveVoteAccount(10, 5, 100, nil)

	cluster := clusterhistory.New()

	flag, err := s.ComputeInstantUnstakeForValidator(cfg, hist, cluster, 0, epochmath.Epoch(10), EpochProgress(0.9), freshAll())
	if err != nil {
		t.Fatalf("ComputeInstantUnstakeForValidator: %v", err)
	}
	if !flag {
		t.Fatalf("expected blacklist flip to trigger instant unstake")
	}
}

func TestComputeInstantUnstakeGatedOnEpochProgress(t *testing.T) {
	s, cfg := newInstantUnstakeTestState()
	cfg.Parameters.InstantUnstakeInputsEpochProgress = 0.5

	hist := validatorhistory.New([32]byte{1})
	cluster := clusterhistory.New()

	_, err := s.ComputeInstantUnstakeForValidator(cfg, hist, cluster, 0, epochmath.Epoch(10), EpochProgress(0.1), freshAll())
	if err == nil {
		t.Fatalf("expected error when epoch progress is below the gate")
	}
}

func TestComputeInstantUnstakeNoSignal(t *testing.T) {
	s, cfg := newInstantUnstakeTestState()

	hist := validatorhistory.New([32]byte{1})
	_ = hist.ObserveVoteAccount(10, 5, 100, []validatorhistory.EpochCredit{{Epoch: 10, Credits: 100}})

	cluster := clusterhistory.New()
	_ = cluster.BackfillTotalBlocks(10, 100)

	flag, err := s.ComputeInstantUnstakeForValidator(cfg, hist, cluster, 0, epochmath.Epoch(10), EpochProgress(0.9), freshAll())
	if err != nil {
		t.Fatalf("ComputeInstantUnstakeForValidator: %v", err)
	}
	if flag {
		t.Fatalf("expected no instant unstake signal")
	}
}
