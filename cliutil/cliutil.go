// Package cliutil holds the plumbing shared by the three urfave/cli/v2
// operator binaries (steward-cli, directed-staking-cli,
// validator-history-cli): the common global flag set (spec §6.5:
// "--priority-fee, --compute-limit, --heap-size, --print-tx, --json-rpc-url,
// --keypair"), JSON snapshot persistence for the in-memory account structs
// these CLIs mutate, and the shared instruction-dispatch path that either
// prints a packaged transaction or submits it through a keeper.Submitter.
package cliutil

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/stakeward/steward-core/keeper"
	krpc "github.com/stakeward/steward-core/keeper/rpc"
)

// Flag names shared verbatim across all three operator CLIs (spec §6.5).
const (
	FlagJSONRPCURL   = "json-rpc-url"
	FlagKeypair      = "keypair"
	FlagPriorityFee  = "priority-fee"
	FlagComputeLimit = "compute-limit"
	FlagHeapSize     = "heap-size"
	FlagPrintTx      = "print-tx"
	FlagState        = "state"
)

// CommonFlags returns the flag set every subcommand accepts (spec §6.5).
// statePathUsage documents what --state holds for the binary calling this
// (e.g. "steward Config/State snapshot path").
func CommonFlags(statePathUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagJSONRPCURL, Usage: "RPC endpoint for transaction submission", EnvVars: []string{"JSON_RPC_URL"}},
		&cli.StringFlag{Name: FlagKeypair, Usage: "path to a Solana CLI-format keypair JSON file", EnvVars: []string{"KEYPAIR"}},
		&cli.Uint64Flag{Name: FlagPriorityFee, Usage: "compute-budget priority fee, in micro-lamports", EnvVars: []string{"PRIORITY_FEE"}},
		&cli.Uint64Flag{Name: FlagComputeLimit, Value: keeper.MaxComputeUnitLimit, Usage: "compute-budget unit limit", EnvVars: []string{"COMPUTE_LIMIT"}},
		&cli.Uint64Flag{Name: FlagHeapSize, Usage: "requested BPF heap frame size in bytes (0 disables)", EnvVars: []string{"HEAP_SIZE"}},
		&cli.BoolFlag{Name: FlagPrintTx, Usage: "print the packaged transaction as hex instead of submitting it"},
		&cli.StringFlag{Name: FlagState, Required: true, Usage: statePathUsage, EnvVars: []string{"STATE_PATH"}},
	}
}

// ComputeBudgetFromContext builds a keeper.ComputeBudget from the common
// flags.
func ComputeBudgetFromContext(c *cli.Context) keeper.ComputeBudget {
	return keeper.ComputeBudget{
		PriorityFeeMicroLamports: c.Uint64(FlagPriorityFee),
		ComputeUnitLimit:         uint32(c.Uint64(FlagComputeLimit)),
		HeapFrameBytes:           uint32(c.Uint64(FlagHeapSize)),
	}
}

// Dispatch packages ix and either prints it as hex (--print-tx) or submits
// it through the RPC endpoint named by --json-rpc-url, retrying per
// keeper.SubmitWithRetry. feePayer identifies the signer to the RPC
// endpoint (spec §1 Non-goals: signing itself happens there, not here).
func Dispatch(ctx context.Context, c *cli.Context, feePayer [32]byte, ix keeper.Instruction) error {
	budget := ComputeBudgetFromContext(c)
	txs := keeper.PackageInstructions([]keeper.Instruction{ix}, budget, keeper.DefaultWireBytes)

	if c.Bool(FlagPrintTx) {
		for _, tx := range txs {
			fmt.Println(hexEncodeTransaction(tx))
		}
		return nil
	}

	endpoint := c.String(FlagJSONRPCURL)
	if endpoint == "" {
		return fmt.Errorf("administrative: --json-rpc-url is required unless --print-tx is set")
	}
	client := krpc.NewClient(endpoint, feePayer)
	for _, tx := range txs {
		if _, err := keeper.SubmitWithRetry(ctx, client, tx, 50, 60*time.Second); err != nil {
			return fmt.Errorf("%s: %w", keeper.Classify(err), err)
		}
	}
	return nil
}

func hexEncodeTransaction(tx keeper.Transaction) string {
	var out []byte
	for _, ix := range tx.Instructions {
		out = append(out, ix.ProgramID[:]...)
		out = append(out, ix.Data...)
	}
	return hex.EncodeToString(out)
}

// LoadSnapshot JSON-decodes the file at path into v. This module has no
// on-chain ledger to read accounts from (spec §9: "no global mutable
// state ... per-invocation"), so the operator CLIs treat a local JSON file
// as the account snapshot each invocation loads, mutates, and re-saves.
func LoadSnapshot(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return json.Unmarshal(raw, v)
}

// SaveSnapshot JSON-encodes v to path, creating or overwriting it.
func SaveSnapshot(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// PrintResult prints v as indented JSON to stdout, the common "status"
// output shape across all three CLIs.
func PrintResult(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

// ExitError formats err the way spec §7 prescribes for CLI failures:
// "❌ Error: <taxon> <detail>". It always returns a cli.ExitCoder with
// code 1 so the urfave/cli runtime sets the process exit status.
func ExitError(err error) error {
	taxon := keeper.Classify(err)
	return cli.Exit(fmt.Sprintf("❌ Error: %s %v", taxon, err), 1)
}

// DecodePubkey hex-decodes a 32-byte pubkey (spec's CLI surface names no
// address encoding; this module's API package makes the same choice -- see
// api/server.go -- of using hex rather than fabricating a base58 codec).
func DecodePubkey(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid pubkey %q: %w", s, err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("pubkey %q must decode to 32 bytes, got %d", s, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// LoadFeePayer reads the Solana CLI-format keypair file named by --keypair
// and returns its public key, or the zero key if --keypair was not set
// (print-tx mode needs no signer).
func LoadFeePayer(c *cli.Context) ([32]byte, error) {
	path := c.String(FlagKeypair)
	if path == "" {
		return [32]byte{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("reading keypair: %w", err)
	}
	var seed []byte
	if err := json.Unmarshal(raw, &seed); err != nil {
		return [32]byte{}, fmt.Errorf("parsing keypair: %w", err)
	}
	if len(seed) != 64 {
		return [32]byte{}, fmt.Errorf("keypair file has %d bytes, want 64", len(seed))
	}
	var pub [32]byte
	copy(pub[:], seed[32:])
	return pub, nil
}
