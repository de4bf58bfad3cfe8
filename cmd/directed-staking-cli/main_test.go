package main

import (
	"path/filepath"
	"testing"

	"github.com/stakeward/steward-core/cliutil"
)

const testVotePubkey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
const testUpdateAuthority = "11112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
const testCloseAuthority = "22222233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func TestWhitelistInitAddAndClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whitelist.json")

	app := newApp()
	if err := app.Run([]string{"directed-staking-cli", "whitelist", "init", "--state", path}); err != nil {
		t.Fatalf("init: %v", err)
	}

	app = newApp()
	if err := app.Run([]string{"directed-staking-cli", "whitelist", "add-validator", "--state", path, "--pubkey", testVotePubkey}); err != nil {
		t.Fatalf("add-validator: %v", err)
	}

	w, err := loadWhitelist(path)
	if err != nil {
		t.Fatalf("loadWhitelist: %v", err)
	}
	if w.NumValidators != 1 {
		t.Fatalf("NumValidators = %d, want 1", w.NumValidators)
	}
	var pubkey [32]byte
	copy(pubkey[:], mustDecodeHex(t, testVotePubkey))
	if !w.IsValidatorWhitelisted(pubkey) {
		t.Fatal("expected validator to be whitelisted")
	}

	app = newApp()
	if err := app.Run([]string{"directed-staking-cli", "whitelist", "close", "--state", path}); err != nil {
		t.Fatalf("close: %v", err)
	}
	w, err = loadWhitelist(path)
	if err != nil {
		t.Fatalf("loadWhitelist after close: %v", err)
	}
	if !w.Closed {
		t.Fatal("expected whitelist to be closed")
	}

	app = newApp()
	if err := app.Run([]string{"directed-staking-cli", "whitelist", "add-validator", "--state", path, "--pubkey", testVotePubkey}); err == nil {
		t.Fatal("expected add-validator to fail on a closed whitelist")
	}
}

func TestTicketInitUpdateAndClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ticket.json")

	app := newApp()
	if err := app.Run([]string{"directed-staking-cli", "ticket", "init",
		"--state", path,
		"--update-authority", testUpdateAuthority,
		"--close-authority", testCloseAuthority,
	}); err != nil {
		t.Fatalf("init: %v", err)
	}

	app = newApp()
	pref := testVotePubkey + ":5000"
	if err := app.Run([]string{"directed-staking-cli", "ticket", "update", "--state", path, "--preference", pref}); err != nil {
		t.Fatalf("update: %v", err)
	}

	ticket, err := loadTicket(path)
	if err != nil {
		t.Fatalf("loadTicket: %v", err)
	}
	if ticket.NumPreferences != 1 {
		t.Fatalf("NumPreferences = %d, want 1", ticket.NumPreferences)
	}
	if ticket.Preferences[0].StakeShareBps != 5000 {
		t.Fatalf("StakeShareBps = %d, want 5000", ticket.Preferences[0].StakeShareBps)
	}

	app = newApp()
	if err := app.Run([]string{"directed-staking-cli", "ticket", "close", "--state", path, "--caller", testUpdateAuthority}); err != nil {
		t.Fatalf("close: %v", err)
	}
	ticket, err = loadTicket(path)
	if err != nil {
		t.Fatalf("loadTicket after close: %v", err)
	}
	if !ticket.Closed {
		t.Fatal("expected ticket to be closed")
	}
}

func TestMetaUploadTargetAndAssignSlot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")

	app := newApp()
	if err := app.Run([]string{"directed-staking-cli", "meta", "init", "--state", path}); err != nil {
		t.Fatalf("init: %v", err)
	}

	app = newApp()
	if err := app.Run([]string{"directed-staking-cli", "meta", "upload-target",
		"--state", path,
		"--vote-pubkey", testVotePubkey,
		"--target-lamports", "1000000000",
		"--current-epoch", "5",
	}); err != nil {
		t.Fatalf("upload-target: %v", err)
	}

	app = newApp()
	if err := app.Run([]string{"directed-staking-cli", "meta", "assign-slot",
		"--state", path,
		"--slot", "3",
		"--vote-pubkey", testVotePubkey,
	}); err != nil {
		t.Fatalf("assign-slot: %v", err)
	}

	m, err := loadMeta(path)
	if err != nil {
		t.Fatalf("loadMeta: %v", err)
	}
	if m.NumTargets != 1 {
		t.Fatalf("NumTargets = %d, want 1", m.NumTargets)
	}
	if m.MetaIndices[3] != 0 {
		t.Fatalf("MetaIndices[3] = %d, want 0", m.MetaIndices[3])
	}
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	pubkey, err := cliutil.DecodePubkey(s)
	if err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return pubkey[:]
}
