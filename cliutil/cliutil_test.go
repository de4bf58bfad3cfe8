package cliutil

import (
	"path/filepath"
	"testing"
)

func TestSaveAndLoadSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	want := payload{Name: "validator-x", Count: 42}

	if err := SaveSnapshot(path, &want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	var got payload
	if err := LoadSnapshot(path, &got); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got != want {
		t.Fatalf("LoadSnapshot = %+v, want %+v", got, want)
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	var v struct{}
	if err := LoadSnapshot("/nonexistent/path/snap.json", &v); err == nil {
		t.Fatal("expected error for missing snapshot file")
	}
}

func TestDecodePubkey(t *testing.T) {
	want := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	got, err := DecodePubkey(want)
	if err != nil {
		t.Fatalf("DecodePubkey: %v", err)
	}
	if got[0] != 0x00 || got[31] != 0xff {
		t.Fatalf("unexpected decoded pubkey: %x", got)
	}

	if _, err := DecodePubkey("not-hex"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
	if _, err := DecodePubkey("aabb"); err == nil {
		t.Fatal("expected error for short pubkey")
	}
}
