// Command steward-cli is the operator surface for the Steward Config/State
// account pair (spec §6.5): init, status, pause/resume, blacklist
// maintenance, authority rotation, and the admin removal/close/reset
// family. Every subcommand operates on a local JSON snapshot named by
// --state, standing in for the on-chain account this module has no ledger
// to hold (spec §9 "no global mutable state").
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/stakeward/steward-core/cliutil"
	"github.com/stakeward/steward-core/keeper"
	"github.com/stakeward/steward-core/steward"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "❌ Error: %s %v\n", keeper.TaxonAdministrative, err)
		os.Exit(1)
	}
}

type snapshot struct {
	Config *steward.Config `json:"config"`
	State  *steward.State  `json:"state"`
}

func loadSnapshot(path string) (*snapshot, error) {
	var s snapshot
	if err := cliutil.LoadSnapshot(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "steward-cli",
		Usage: "operate a Steward Config/State account",
		Commands: []*cli.Command{
			initCommand(),
			statusCommand(),
			pauseCommand(),
			resumeCommand(),
			blacklistCommand(),
			setAuthorityCommand(),
			markForRemovalCommand(),
			instantRemoveCommand(),
			resetCommand(),
			closeCommand(),
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create a new Config/State snapshot",
		Flags: append(cliutil.CommonFlags("path to write the new snapshot"),
			&cli.StringFlag{Name: "stake-pool", Required: true, Usage: "hex-encoded stake pool pubkey"},
			&cli.Uint64Flag{Name: "num-validators", Usage: "number of validators tracked by the cycle"},
			&cli.Uint64Flag{Name: "starting-epoch", Usage: "epoch the steward cycle starts from"},
		),
		Action: func(c *cli.Context) error {
			stakePool, err := cliutil.DecodePubkey(c.String("stake-pool"))
			if err != nil {
				return cliutil.ExitError(err)
			}
			cfg := steward.NewConfig(stakePool, steward.DefaultParameters())
			state := steward.NewState(c.Uint64("starting-epoch"), cfg.Parameters.NumEpochsBetweenScoring)
			state.NumPoolValidators = c.Uint64("num-validators")

			if err := cliutil.SaveSnapshot(c.String(cliutil.FlagState), &snapshot{Config: cfg, State: state}); err != nil {
				return cliutil.ExitError(err)
			}
			return cliutil.PrintResult(map[string]any{"initialized": true, "tag": state.Tag.String()})
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "print the current Config/State snapshot",
		Flags: cliutil.CommonFlags("path to the snapshot to read"),
		Action: func(c *cli.Context) error {
			snap, err := loadSnapshot(c.String(cliutil.FlagState))
			if err != nil {
				return cliutil.ExitError(err)
			}
			return cliutil.PrintResult(map[string]any{
				"tag":                 snap.State.Tag.String(),
				"paused":              snap.Config.Paused,
				"closed":              snap.Config.Closed,
				"num_pool_validators": snap.State.NumPoolValidators,
				"current_epoch":       snap.State.CurrentEpoch,
				"next_cycle_epoch":    snap.State.NextCycleEpoch,
				"phase_complete":      snap.State.PhaseComplete(),
			})
		},
	}
}

func pauseCommand() *cli.Command {
	return &cli.Command{
		Name:  "pause",
		Usage: "pause the state machine (admin authority)",
		Flags: cliutil.CommonFlags("path to the snapshot to mutate"),
		Action: func(c *cli.Context) error {
			return withSnapshot(c, func(snap *snapshot) error {
				snap.Config.Pause()
				return nil
			})
		},
	}
}

func resumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "resume the state machine (admin authority)",
		Flags: cliutil.CommonFlags("path to the snapshot to mutate"),
		Action: func(c *cli.Context) error {
			return withSnapshot(c, func(snap *snapshot) error {
				snap.Config.Resume()
				return nil
			})
		},
	}
}

func blacklistCommand() *cli.Command {
	addRemoveFlags := append(cliutil.CommonFlags("path to the snapshot to mutate"),
		&cli.IntSliceFlag{Name: "index", Required: true, Usage: "validator-history index to blacklist/unblacklist"},
	)
	return &cli.Command{
		Name:  "blacklist",
		Usage: "add or remove validator-history indices from the blacklist",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Flags: addRemoveFlags,
				Action: func(c *cli.Context) error {
					return withSnapshot(c, func(snap *snapshot) error {
						return snap.Config.AddToBlacklist(c.IntSlice("index")...)
					})
				},
			},
			{
				Name:  "remove",
				Flags: addRemoveFlags,
				Action: func(c *cli.Context) error {
					return withSnapshot(c, func(snap *snapshot) error {
						return snap.Config.RemoveFromBlacklist(c.IntSlice("index")...)
					})
				},
			},
		},
	}
}

var authorityRoleNames = map[string]steward.AuthorityRole{
	"admin":                    steward.RoleAdmin,
	"blacklist":                steward.RoleBlacklist,
	"parameters":               steward.RoleParameters,
	"priority_fee_parameters":  steward.RolePriorityFeeParameters,
	"directed_stake_upload":    steward.RoleDirectedStakeUpload,
	"directed_stake_whitelist": steward.RoleDirectedStakeWhitelist,
	"ticket_override":          steward.RoleTicketOverride,
}

func setAuthorityCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-authority",
		Usage: "rotate the pubkey assigned to an authority role",
		Flags: append(cliutil.CommonFlags("path to the snapshot to mutate"),
			&cli.StringFlag{Name: "role", Required: true, Usage: "authority role name"},
			&cli.StringFlag{Name: "pubkey", Required: true, Usage: "hex-encoded new authority pubkey"},
		),
		Action: func(c *cli.Context) error {
			role, ok := authorityRoleNames[c.String("role")]
			if !ok {
				return cliutil.ExitError(fmt.Errorf("administrative: unknown authority role %q", c.String("role")))
			}
			pubkey, err := cliutil.DecodePubkey(c.String("pubkey"))
			if err != nil {
				return cliutil.ExitError(err)
			}
			return withSnapshot(c, func(snap *snapshot) error {
				return snap.Config.SetAuthority(role, pubkey)
			})
		},
	}
}

func markForRemovalCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin-mark-for-removal",
		Usage: "flag a validator for the immediate-removal path (admin authority)",
		Flags: append(cliutil.CommonFlags("path to the snapshot to mutate"),
			&cli.IntFlag{Name: "index", Required: true, Usage: "validator-history index"},
			&cli.StringFlag{Name: "caller", Required: true, Usage: "hex-encoded caller pubkey"},
		),
		Action: func(c *cli.Context) error {
			caller, err := cliutil.DecodePubkey(c.String("caller"))
			if err != nil {
				return cliutil.ExitError(err)
			}
			return withSnapshot(c, func(snap *snapshot) error {
				return snap.State.AdminMarkForRemoval(snap.Config, caller, c.Int("index"))
			})
		},
	}
}

func instantRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:  "instant-remove",
		Usage: "drain a validator already marked for immediate removal (permissionless)",
		Flags: append(cliutil.CommonFlags("path to the snapshot to mutate"),
			&cli.IntFlag{Name: "index", Required: true, Usage: "validator-history index"},
		),
		Action: func(c *cli.Context) error {
			return withSnapshot(c, func(snap *snapshot) error {
				return snap.State.InstantRemoveValidator(c.Int("index"))
			})
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "restore State to cycle-start shape (admin authority)",
		Flags: append(cliutil.CommonFlags("path to the snapshot to mutate"),
			&cli.StringFlag{Name: "caller", Required: true, Usage: "hex-encoded caller pubkey"},
		),
		Action: func(c *cli.Context) error {
			caller, err := cliutil.DecodePubkey(c.String("caller"))
			if err != nil {
				return cliutil.ExitError(err)
			}
			return withSnapshot(c, func(snap *snapshot) error {
				return snap.State.ResetStewardState(snap.Config, caller)
			})
		},
	}
}

func closeCommand() *cli.Command {
	return &cli.Command{
		Name:  "close",
		Usage: "permanently refuse further writes to this Config/State (admin authority)",
		Flags: append(cliutil.CommonFlags("path to the snapshot to mutate"),
			&cli.StringFlag{Name: "caller", Required: true, Usage: "hex-encoded caller pubkey"},
		),
		Action: func(c *cli.Context) error {
			caller, err := cliutil.DecodePubkey(c.String("caller"))
			if err != nil {
				return cliutil.ExitError(err)
			}
			return withSnapshot(c, func(snap *snapshot) error {
				return snap.State.CloseStewardAccounts(snap.Config, caller)
			})
		},
	}
}

// withSnapshot loads the --state snapshot, applies mutate, re-saves it,
// and prints the resulting status -- the common read-mutate-write-report
// shape every mutating subcommand follows.
func withSnapshot(c *cli.Context, mutate func(*snapshot) error) error {
	path := c.String(cliutil.FlagState)
	snap, err := loadSnapshot(path)
	if err != nil {
		return cliutil.ExitError(err)
	}
	if snap.Config.Closed {
		return cliutil.ExitError(fmt.Errorf("%w: steward accounts are closed", steward.ErrInvalidState))
	}
	if err := mutate(snap); err != nil {
		return cliutil.ExitError(err)
	}
	if err := cliutil.SaveSnapshot(path, snap); err != nil {
		return cliutil.ExitError(err)
	}

	return cliutil.PrintResult(map[string]any{
		"tag":    snap.State.Tag.String(),
		"paused": snap.Config.Paused,
		"closed": snap.Config.Closed,
	})
}
