package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, exit, code := parseFlags([]string{})
	if exit {
		t.Fatalf("unexpected exit with code %d", code)
	}
	defaults := defaultCLIConfig()
	if cfg.JSONRPCURL != defaults.JSONRPCURL {
		t.Errorf("JSONRPCURL = %q, want %q", cfg.JSONRPCURL, defaults.JSONRPCURL)
	}
	if cfg.ComputeLimit != defaults.ComputeLimit {
		t.Errorf("ComputeLimit = %d, want %d", cfg.ComputeLimit, defaults.ComputeLimit)
	}
	if cfg.TickPeriod != 1 {
		t.Errorf("TickPeriod = %d, want 1", cfg.TickPeriod)
	}
	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.MetricsPort != 9090 {
		t.Errorf("MetricsPort = %d, want 9090", cfg.MetricsPort)
	}
}

func TestParseFlagsAllFlags(t *testing.T) {
	args := []string{
		"-json-rpc-url", "http://example:8899",
		"-keypair", "/tmp/id.json",
		"-stake-pool", "00112233445566778899aabbccddeeff00112233445566778899aabbccddee",
		"-priority-fee", "5000",
		"-compute-limit", "200000",
		"-heap-size", "262144",
		"-tick-period", "2",
		"-num-validators", "100",
		"-api-port", "8081",
		"-metrics-port", "9091",
	}
	cfg, exit, _ := parseFlags(args)
	if exit {
		t.Fatal("unexpected exit")
	}
	if cfg.JSONRPCURL != "http://example:8899" {
		t.Errorf("JSONRPCURL = %q", cfg.JSONRPCURL)
	}
	if cfg.PriorityFee != 5000 {
		t.Errorf("PriorityFee = %d, want 5000", cfg.PriorityFee)
	}
	if cfg.ComputeLimit != 200000 {
		t.Errorf("ComputeLimit = %d, want 200000", cfg.ComputeLimit)
	}
	if cfg.HeapSize != 262144 {
		t.Errorf("HeapSize = %d, want 262144", cfg.HeapSize)
	}
	if cfg.NumValidators != 100 {
		t.Errorf("NumValidators = %d, want 100", cfg.NumValidators)
	}
	if cfg.APIPort != 8081 {
		t.Errorf("APIPort = %d, want 8081", cfg.APIPort)
	}
}

func TestParseFlagsVersion(t *testing.T) {
	_, exit, code := parseFlags([]string{"-version"})
	if !exit || code != 0 {
		t.Fatalf("expected exit 0 for -version, got exit=%v code=%d", exit, code)
	}
}

func TestParseFlagsInvalidFlag(t *testing.T) {
	_, exit, code := parseFlags([]string{"-unknown-flag"})
	if !exit || code != 2 {
		t.Fatalf("expected exit 2 for unknown flag, got exit=%v code=%d", exit, code)
	}
}

func TestLoadKeypairRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.json")

	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}
	raw, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write keypair file: %v", err)
	}

	kp, err := loadKeypair(path)
	if err != nil {
		t.Fatalf("loadKeypair: %v", err)
	}
	if len(kp) != 64 {
		t.Fatalf("expected a 64-byte private key, got %d", len(kp))
	}
}

func TestLoadKeypairMissingPath(t *testing.T) {
	if _, err := loadKeypair(""); err == nil {
		t.Fatal("expected error for empty keypair path")
	}
}

func TestLoadKeypairWrongLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.json")
	raw, _ := json.Marshal([]byte{1, 2, 3})
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write keypair file: %v", err)
	}
	if _, err := loadKeypair(path); err == nil {
		t.Fatal("expected error for wrong-length keypair")
	}
}

func TestDecodePubkey(t *testing.T) {
	if _, err := decodePubkey("not-hex"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
	if _, err := decodePubkey("aabb"); err == nil {
		t.Fatal("expected error for short pubkey")
	}
	want := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	got, err := decodePubkey(want)
	if err != nil {
		t.Fatalf("decodePubkey: %v", err)
	}
	if got[0] != 0x00 || got[31] != 0xff {
		t.Fatalf("unexpected decoded pubkey: %x", got)
	}
}
