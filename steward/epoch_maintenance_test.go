package steward

import "testing"

func TestEpochMaintenanceRejectsStaleListEpoch(t *testing.T) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	s := NewState(10, 10)
	s.NumPoolValidators = 2

	if err := s.EpochMaintenance(cfg, 9, 2, nil); err == nil {
		t.Fatalf("expected error for stale last_update_epoch")
	}
}

func TestEpochMaintenanceRejectsLengthMismatch(t *testing.T) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	s := NewState(10, 10)
	s.NumPoolValidators = 2

	if err := s.EpochMaintenance(cfg, 10, 5, nil); err == nil {
		t.Fatalf("expected error for validator_list length mismatch")
	}
}

func TestEpochMaintenanceAdvancesEpochWhenNothingToRemove(t *testing.T) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	s := NewState(10, 10)
	s.NumPoolValidators = 3

	if err := s.EpochMaintenance(cfg, 10, 3, nil); err != nil {
		t.Fatalf("EpochMaintenance: %v", err)
	}
	if s.Flags&FlagEpochMaintenance == 0 {
		t.Fatalf("expected FlagEpochMaintenance to be set")
	}
}

func TestEpochMaintenanceRemovesValidatorAndShifts(t *testing.T) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	s := NewState(10, 10)
	s.NumPoolValidators = 3
	s.Scores[0] = 10
	s.Scores[1] = 20
	s.Scores[2] = 30

	idx := 0
	if err := s.EpochMaintenance(cfg, 10, 3, &idx); err != nil {
		t.Fatalf("EpochMaintenance: %v", err)
	}
	if s.NumPoolValidators != 2 {
		t.Fatalf("expected NumPoolValidators 2, got %d", s.NumPoolValidators)
	}
	if s.Scores[0] != 20 || s.Scores[1] != 30 {
		t.Fatalf("expected scores shifted down, got %v", s.Scores[:2])
	}
}

func TestResetStewardStateRequiresAdmin(t *testing.T) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	admin := [32]byte{1}
	_ = cfg.SetAuthority(RoleAdmin, admin)

	s := NewState(10, 10)
	s.Tag = StateRebalance
	s.NumPoolValidators = 4

	if err := s.ResetStewardState(cfg, [32]byte{99}); err == nil {
		t.Fatalf("expected error for non-admin caller")
	}
	if err := s.ResetStewardState(cfg, admin); err != nil {
		t.Fatalf("ResetStewardState: %v", err)
	}
	if s.Tag != StateComputeScores {
		t.Fatalf("expected reset to ComputeScores, got %s", s.Tag)
	}
	if s.NumPoolValidators != 4 {
		t.Fatalf("expected NumPoolValidators preserved across reset, got %d", s.NumPoolValidators)
	}
}

func TestAdminMarkForRemovalAndInstantRemove(t *testing.T) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	admin := [32]byte{1}
	_ = cfg.SetAuthority(RoleAdmin, admin)

	s := NewState(10, 10)
	s.NumPoolValidators = 2
	s.Scores[0] = 100
	s.Scores[1] = 200

	if err := s.AdminMarkForRemoval(cfg, [32]byte{2}, 0); err == nil {
		t.Fatalf("expected error for non-admin caller")
	}
	if err := s.AdminMarkForRemoval(cfg, admin, 0); err != nil {
		t.Fatalf("AdminMarkForRemoval: %v", err)
	}
	if err := s.AdminMarkForRemoval(cfg, admin, 0); err == nil {
		t.Fatalf("expected error marking an already-marked validator")
	}

	if err := s.InstantRemoveValidator(0); err != nil {
		t.Fatalf("InstantRemoveValidator: %v", err)
	}
	if s.NumPoolValidators != 1 {
		t.Fatalf("expected NumPoolValidators 1, got %d", s.NumPoolValidators)
	}
	if s.Scores[0] != 200 {
		t.Fatalf("expected surviving validator shifted to index 0, got %d", s.Scores[0])
	}
	if s.ValidatorsForImmediateRemoval.Count() != 0 {
		t.Fatalf("expected ValidatorsForImmediateRemoval cleared")
	}
}

func TestCloseStewardAccountsBlocksFurtherWrites(t *testing.T) {
	cfg := NewConfig([32]byte{}, DefaultParameters())
	admin := [32]byte{1}
	_ = cfg.SetAuthority(RoleAdmin, admin)

	s := NewState(10, 10)
	s.NumPoolValidators = 1

	if err := s.CloseStewardAccounts(cfg, admin); err != nil {
		t.Fatalf("CloseStewardAccounts: %v", err)
	}
	if err := s.AdminMarkForRemoval(cfg, admin, 0); err == nil {
		t.Fatalf("expected error marking for removal on a closed account")
	}
}
