package main

import (
	"path/filepath"
	"strings"
	"testing"
)

const testStakePool = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func TestInitStatusPauseResume(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "config.json")

	app := newApp()
	if err := app.Run([]string{"steward-cli", "init",
		"--state", statePath,
		"--stake-pool", testStakePool,
		"--num-validators", "10",
	}); err != nil {
		t.Fatalf("init: %v", err)
	}

	snap, err := loadSnapshot(statePath)
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if snap.State.NumPoolValidators != 10 {
		t.Fatalf("NumPoolValidators = %d, want 10", snap.State.NumPoolValidators)
	}
	if snap.Config.Paused {
		t.Fatal("freshly initialized config should not be paused")
	}

	app = newApp()
	if err := app.Run([]string{"steward-cli", "pause", "--state", statePath}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	snap, err = loadSnapshot(statePath)
	if err != nil {
		t.Fatalf("loadSnapshot after pause: %v", err)
	}
	if !snap.Config.Paused {
		t.Fatal("expected Paused = true after pause")
	}

	app = newApp()
	if err := app.Run([]string{"steward-cli", "resume", "--state", statePath}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	snap, err = loadSnapshot(statePath)
	if err != nil {
		t.Fatalf("loadSnapshot after resume: %v", err)
	}
	if snap.Config.Paused {
		t.Fatal("expected Paused = false after resume")
	}
}

func TestBlacklistAddAndRemove(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "config.json")

	app := newApp()
	if err := app.Run([]string{"steward-cli", "init", "--state", statePath, "--stake-pool", testStakePool, "--num-validators", "5"}); err != nil {
		t.Fatalf("init: %v", err)
	}

	app = newApp()
	if err := app.Run([]string{"steward-cli", "blacklist", "add", "--state", statePath, "--index", "2"}); err != nil {
		t.Fatalf("blacklist add: %v", err)
	}
	snap, err := loadSnapshot(statePath)
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if !snap.Config.IsBlacklisted(2) {
		t.Fatal("expected index 2 to be blacklisted")
	}

	app = newApp()
	if err := app.Run([]string{"steward-cli", "blacklist", "remove", "--state", statePath, "--index", "2"}); err != nil {
		t.Fatalf("blacklist remove: %v", err)
	}
	snap, err = loadSnapshot(statePath)
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if snap.Config.IsBlacklisted(2) {
		t.Fatal("expected index 2 to no longer be blacklisted")
	}
}

func TestCloseRefusesFurtherMutation(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "config.json")
	// NewConfig leaves every authority pubkey at its zero value, so the
	// zero pubkey is the admin authority until set-authority rotates it.
	caller := strings.Repeat("00", 32)

	app := newApp()
	if err := app.Run([]string{"steward-cli", "init", "--state", statePath, "--stake-pool", testStakePool, "--num-validators", "5"}); err != nil {
		t.Fatalf("init: %v", err)
	}

	app = newApp()
	if err := app.Run([]string{"steward-cli", "close", "--state", statePath, "--caller", caller}); err != nil {
		t.Fatalf("close: %v", err)
	}

	app = newApp()
	if err := app.Run([]string{"steward-cli", "pause", "--state", statePath}); err == nil {
		t.Fatal("expected pause to fail after close")
	}
}
