// Command keeper runs the off-chain execution queue (spec §4.3): a
// single-threaded tick loop that fetches oracle data, drives the
// validator-history and steward cranks, and submits the resulting
// transactions. It also exposes the validator-history read API and a
// Prometheus /metrics endpoint.
//
// Usage:
//
//	keeper [flags]
//
// Flags:
//
//	--json-rpc-url   RPC endpoint the keeper's oracle/submission client talks to
//	--keypair        path to a Solana CLI-format keypair JSON file (fee payer)
//	--stake-pool     hex-encoded stake pool pubkey
//	--priority-fee   compute-budget priority fee, in micro-lamports
//	--compute-limit  compute-budget unit limit (at most 1,400,000; larger values are rejected)
//	--heap-size      requested BPF heap frame size in bytes (0 disables the request)
//	--tick-period    wall-clock seconds between ticks
//	--api-port       validator-history HTTP read API port
//	--metrics-port   Prometheus /metrics port
//	--version        print version and exit
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stakeward/steward-core/api"
	"github.com/stakeward/steward-core/keeper"
	krpc "github.com/stakeward/steward-core/keeper/rpc"
	"github.com/stakeward/steward-core/log"
	"github.com/stakeward/steward-core/metrics"
	"github.com/stakeward/steward-core/steward"
)

var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type cliConfig struct {
	JSONRPCURL     string
	KeypairPath    string
	StakePoolHex   string
	PriorityFee    uint64
	ComputeLimit   uint64
	HeapSize       uint64
	TickPeriod     uint64
	NumValidators  uint64
	StartingEpoch  uint64
	EpochsPerCycle uint64
	APIPort        uint64
	MetricsPort    uint64
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		JSONRPCURL:     "http://127.0.0.1:8899",
		PriorityFee:    0,
		ComputeLimit:   keeper.MaxComputeUnitLimit,
		HeapSize:       0,
		TickPeriod:     1,
		NumValidators:  0,
		StartingEpoch:  0,
		EpochsPerCycle: 10,
		APIPort:        8080,
		MetricsPort:    9090,
	}
}

func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	logger := log.Default().Module("cmd/keeper")

	keypair, err := loadKeypair(cfg.KeypairPath)
	if err != nil {
		logger.Error("failed to load keypair", "error", err)
		return 1
	}
	var feePayer [32]byte
	copy(feePayer[:], keypair.Public().(ed25519.PublicKey))

	stakePool, err := decodePubkey(cfg.StakePoolHex)
	if err != nil {
		logger.Error("invalid --stake-pool", "error", err)
		return 1
	}

	client := krpc.NewClient(cfg.JSONRPCURL, feePayer)

	keeperCfg := keeper.DefaultConfig()
	keeperCfg.TickPeriodSeconds = cfg.TickPeriod
	keeperCfg.PriorityFeeMicroLamports = cfg.PriorityFee
	keeperCfg.ComputeUnitLimit = uint32(cfg.ComputeLimit)
	keeperCfg.HeapFrameBytes = uint32(cfg.HeapSize)
	if err := keeperCfg.Validate(); err != nil {
		logger.Error("invalid keeper configuration", "error", err)
		return 1
	}

	stewardCfg := steward.NewConfig(stakePool, steward.DefaultParameters())
	stewardState := steward.NewState(cfg.StartingEpoch, cfg.EpochsPerCycle)
	stewardState.NumPoolValidators = cfg.NumValidators

	k, err := keeper.New(keeperCfg, stewardCfg, stewardState, keeper.Collaborators{
		Pool:       client,
		VoteSource: client,
		MEVSource:  client,
		PFSource:   client,
		Gossip:     client,
		Submitter:  client,
	})
	if err != nil {
		logger.Error("failed to construct keeper", "error", err)
		return 1
	}

	exporter := metrics.NewPrometheusExporter()
	k.UseMetrics(exporter)

	apiServer := api.NewServer(k.Registry())

	apiHTTP := &http.Server{Addr: fmt.Sprintf(":%d", cfg.APIPort), Handler: apiServer.Handler()}
	metricsHTTP := &http.Server{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: exporter.Handler()}

	go func() {
		if err := apiHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server stopped", "error", err)
		}
	}()
	go func() {
		if err := metricsHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := k.Start(ctx); err != nil {
		logger.Error("failed to start keeper", "error", err)
		return 1
	}

	logger.Info("keeper started",
		"json_rpc_url", cfg.JSONRPCURL,
		"api_port", cfg.APIPort,
		"metrics_port", cfg.MetricsPort,
		"tick_period_seconds", cfg.TickPeriod,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	cancel()
	if err := k.Stop(); err != nil {
		logger.Error("error stopping keeper", "error", err)
		return 1
	}
	_ = apiHTTP.Shutdown(context.Background())
	_ = metricsHTTP.Shutdown(context.Background())

	logger.Info("shutdown complete")
	return 0
}

func parseFlags(args []string) (cliConfig, bool, int) {
	cfg := defaultCLIConfig()
	fs := newFlagSet(&cfg)
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 2
	}
	if *showVersion {
		fmt.Printf("keeper %s (commit %s)\n", version, commit)
		return cfg, true, 0
	}
	return cfg, false, 0
}

func newFlagSet(cfg *cliConfig) *flagSet {
	fs := newCustomFlagSet("keeper")
	fs.StringVar(&cfg.JSONRPCURL, "json-rpc-url", cfg.JSONRPCURL, "RPC endpoint for oracle reads and transaction submission")
	fs.StringVar(&cfg.KeypairPath, "keypair", cfg.KeypairPath, "path to a Solana CLI-format keypair JSON file")
	fs.StringVar(&cfg.StakePoolHex, "stake-pool", cfg.StakePoolHex, "hex-encoded stake pool pubkey")
	fs.Uint64Var(&cfg.PriorityFee, "priority-fee", cfg.PriorityFee, "compute-budget priority fee, in micro-lamports")
	fs.Uint64Var(&cfg.ComputeLimit, "compute-limit", cfg.ComputeLimit, "compute-budget unit limit")
	fs.Uint64Var(&cfg.HeapSize, "heap-size", cfg.HeapSize, "requested BPF heap frame size in bytes (0 disables)")
	fs.Uint64Var(&cfg.TickPeriod, "tick-period", cfg.TickPeriod, "wall-clock seconds between ticks")
	fs.Uint64Var(&cfg.NumValidators, "num-validators", cfg.NumValidators, "number of validators tracked by the steward cycle")
	fs.Uint64Var(&cfg.StartingEpoch, "starting-epoch", cfg.StartingEpoch, "epoch the steward cycle starts from")
	fs.Uint64Var(&cfg.EpochsPerCycle, "epochs-per-cycle", cfg.EpochsPerCycle, "epochs between successive steward cycles")
	fs.Uint64Var(&cfg.APIPort, "api-port", cfg.APIPort, "validator-history HTTP read API port")
	fs.Uint64Var(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "Prometheus /metrics port")
	return fs
}

// loadKeypair reads a Solana CLI-format keypair file: a JSON array of 64
// bytes (the ed25519 secret key followed by its public key). Signing
// itself happens on the RPC endpoint (spec §1 Non-goals); the keeper only
// needs the fee payer's public key to identify the signer on every call.
func loadKeypair(path string) (ed25519.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("--keypair is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keypair file: %w", err)
	}
	var bytes []byte
	if err := json.Unmarshal(raw, &bytes); err != nil {
		return nil, fmt.Errorf("parsing keypair file: %w", err)
	}
	if len(bytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair file has %d bytes, want %d", len(bytes), ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(bytes), nil
}

func decodePubkey(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("pubkey must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
