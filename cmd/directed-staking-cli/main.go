// Command directed-staking-cli operates the directed-stake overlay (spec
// §3.6): whitelist maintenance, ticket preference management, and Meta
// target uploads. Like steward-cli, every subcommand reads and rewrites a
// local JSON snapshot named by --state standing in for the on-chain
// account this module has no ledger to hold.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/stakeward/steward-core/cliutil"
	"github.com/stakeward/steward-core/directedstake"
	"github.com/stakeward/steward-core/keeper"
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

func newApp() *cli.App {
	return &cli.App{
		Name:  "directed-staking-cli",
		Usage: "operate the directed-stake Whitelist/Ticket/Meta accounts",
		Commands: []*cli.Command{
			whitelistCommand(),
			ticketCommand(),
			metaCommand(),
		},
	}
}

func loadWhitelist(path string) (*directedstake.Whitelist, error) {
	w := directedstake.NewWhitelist()
	if err := cliutil.LoadSnapshot(path, w); err != nil {
		return nil, err
	}
	return w, nil
}

func whitelistCommand() *cli.Command {
	pubkeyFlags := append(cliutil.CommonFlags("path to the whitelist snapshot"),
		&cli.StringFlag{Name: "pubkey", Required: true, Usage: "hex-encoded pubkey"},
	)
	return &cli.Command{
		Name:  "whitelist",
		Usage: "manage the validator/user-staker/protocol-staker whitelist",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Flags: cliutil.CommonFlags("path to write a new, empty whitelist"),
				Action: func(c *cli.Context) error {
					if err := cliutil.SaveSnapshot(c.String(cliutil.FlagState), directedstake.NewWhitelist()); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"initialized": true})
				},
			},
			{
				Name:  "status",
				Flags: cliutil.CommonFlags("path to the whitelist snapshot"),
				Action: func(c *cli.Context) error {
					w, err := loadWhitelist(c.String(cliutil.FlagState))
					if err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{
						"num_validators":       w.NumValidators,
						"num_user_stakers":     w.NumUserStakers,
						"num_protocol_stakers": w.NumProtocolStakers,
						"closed":               w.Closed,
					})
				},
			},
			{
				Name:  "add-validator",
				Flags: pubkeyFlags,
				Action: whitelistMutate(func(w *directedstake.Whitelist, pubkey [32]byte) error {
					return w.AddValidator(pubkey)
				}),
			},
			{
				Name:  "remove-validator",
				Flags: pubkeyFlags,
				Action: whitelistMutate(func(w *directedstake.Whitelist, pubkey [32]byte) error {
					w.RemoveValidator(pubkey)
					return nil
				}),
			},
			{
				Name:  "add-user-staker",
				Flags: pubkeyFlags,
				Action: whitelistMutate(func(w *directedstake.Whitelist, pubkey [32]byte) error {
					return w.AddUserStaker(pubkey)
				}),
			},
			{
				Name:  "add-protocol-staker",
				Flags: pubkeyFlags,
				Action: whitelistMutate(func(w *directedstake.Whitelist, pubkey [32]byte) error {
					return w.AddProtocolStaker(pubkey)
				}),
			},
			{
				Name:  "close",
				Flags: cliutil.CommonFlags("path to the whitelist snapshot"),
				Action: func(c *cli.Context) error {
					w, err := loadWhitelist(c.String(cliutil.FlagState))
					if err != nil {
						return cliutil.ExitError(err)
					}
					w.Close()
					if err := cliutil.SaveSnapshot(c.String(cliutil.FlagState), w); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"closed": true})
				},
			},
		},
	}
}

func whitelistMutate(mutate func(*directedstake.Whitelist, [32]byte) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		pubkey, err := cliutil.DecodePubkey(c.String("pubkey"))
		if err != nil {
			return cliutil.ExitError(err)
		}
		path := c.String(cliutil.FlagState)
		w, err := loadWhitelist(path)
		if err != nil {
			return cliutil.ExitError(err)
		}
		if w.Closed {
			return cliutil.ExitError(fmt.Errorf("administrative: whitelist is closed"))
		}
		if err := mutate(w, pubkey); err != nil {
			return cliutil.ExitError(err)
		}
		if err := cliutil.SaveSnapshot(path, w); err != nil {
			return cliutil.ExitError(err)
		}
		return cliutil.PrintResult(map[string]any{
			"num_validators":       w.NumValidators,
			"num_user_stakers":     w.NumUserStakers,
			"num_protocol_stakers": w.NumProtocolStakers,
		})
	}
}

func loadTicket(path string) (*directedstake.Ticket, error) {
	t := &directedstake.Ticket{}
	if err := cliutil.LoadSnapshot(path, t); err != nil {
		return nil, err
	}
	return t, nil
}

func ticketCommand() *cli.Command {
	return &cli.Command{
		Name:  "ticket",
		Usage: "manage a per-holder directed-stake preference ticket",
		Subcommands: []*cli.Command{
			{
				Name: "init",
				Flags: append(cliutil.CommonFlags("path to write the new ticket"),
					&cli.StringFlag{Name: "update-authority", Required: true, Usage: "hex-encoded ticket update authority"},
					&cli.StringFlag{Name: "close-authority", Required: true, Usage: "hex-encoded ticket close authority"},
					&cli.BoolFlag{Name: "protocol-holder", Usage: "mark this ticket's holder as a protocol staker"},
				),
				Action: func(c *cli.Context) error {
					update, err := cliutil.DecodePubkey(c.String("update-authority"))
					if err != nil {
						return cliutil.ExitError(err)
					}
					closeAuth, err := cliutil.DecodePubkey(c.String("close-authority"))
					if err != nil {
						return cliutil.ExitError(err)
					}
					t := directedstake.NewTicket(update, closeAuth, c.Bool("protocol-holder"))
					if err := cliutil.SaveSnapshot(c.String(cliutil.FlagState), t); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"initialized": true})
				},
			},
			{
				Name:  "status",
				Flags: cliutil.CommonFlags("path to the ticket snapshot"),
				Action: func(c *cli.Context) error {
					t, err := loadTicket(c.String(cliutil.FlagState))
					if err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(t)
				},
			},
			{
				Name: "update",
				Flags: append(cliutil.CommonFlags("path to the ticket snapshot"),
					&cli.StringSliceFlag{Name: "preference", Usage: "vote_pubkey:stake_share_bps, repeatable"},
				),
				Action: func(c *cli.Context) error {
					prefs, err := parsePreferences(c.StringSlice("preference"))
					if err != nil {
						return cliutil.ExitError(err)
					}
					path := c.String(cliutil.FlagState)
					t, err := loadTicket(path)
					if err != nil {
						return cliutil.ExitError(err)
					}
					if err := t.Update(prefs); err != nil {
						return cliutil.ExitError(err)
					}
					if err := cliutil.SaveSnapshot(path, t); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"num_preferences": t.NumPreferences})
				},
			},
			{
				Name: "close",
				Flags: append(cliutil.CommonFlags("path to the ticket snapshot"),
					&cli.StringFlag{Name: "caller", Required: true, Usage: "hex-encoded caller pubkey"},
					&cli.StringFlag{Name: "authorized-other", Usage: "hex-encoded directed-stake authority pubkey"},
				),
				Action: func(c *cli.Context) error {
					caller, err := cliutil.DecodePubkey(c.String("caller"))
					if err != nil {
						return cliutil.ExitError(err)
					}
					var other [32]byte
					if s := c.String("authorized-other"); s != "" {
						if other, err = cliutil.DecodePubkey(s); err != nil {
							return cliutil.ExitError(err)
						}
					}
					path := c.String(cliutil.FlagState)
					t, err := loadTicket(path)
					if err != nil {
						return cliutil.ExitError(err)
					}
					if err := t.Close(caller, other); err != nil {
						return cliutil.ExitError(err)
					}
					if err := cliutil.SaveSnapshot(path, t); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"closed": true})
				},
			},
		},
	}
}

func parsePreferences(raw []string) ([]directedstake.Preference, error) {
	prefs := make([]directedstake.Preference, 0, len(raw))
	for _, r := range raw {
		voteStr, bpsStr, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("administrative: invalid --preference %q: want <vote_pubkey>:<bps>", r)
		}
		bps, err := strconv.ParseUint(bpsStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("administrative: invalid --preference %q: %w", r, err)
		}
		pubkey, err := cliutil.DecodePubkey(voteStr)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, directedstake.Preference{VotePubkey: pubkey, StakeShareBps: uint16(bps)})
	}
	return prefs, nil
}

func loadMeta(path string) (*directedstake.Meta, error) {
	m := directedstake.NewMeta()
	if err := cliutil.LoadSnapshot(path, m); err != nil {
		return nil, err
	}
	return m, nil
}

func metaCommand() *cli.Command {
	return &cli.Command{
		Name:  "meta",
		Usage: "manage the rebuilt-every-cycle directed-stake target account",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Flags: cliutil.CommonFlags("path to write a new, empty meta"),
				Action: func(c *cli.Context) error {
					if err := cliutil.SaveSnapshot(c.String(cliutil.FlagState), directedstake.NewMeta()); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"initialized": true})
				},
			},
			{
				Name:  "status",
				Flags: cliutil.CommonFlags("path to the meta snapshot"),
				Action: func(c *cli.Context) error {
					m, err := loadMeta(c.String(cliutil.FlagState))
					if err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"num_targets": m.NumTargets, "closed": m.Closed})
				},
			},
			{
				Name: "upload-target",
				Flags: append(cliutil.CommonFlags("path to the meta snapshot"),
					&cli.StringFlag{Name: "vote-pubkey", Required: true, Usage: "hex-encoded validator vote pubkey"},
					&cli.Uint64Flag{Name: "target-lamports", Required: true, Usage: "target lamports for this validator"},
					&cli.Uint64Flag{Name: "current-epoch", Required: true},
				),
				Action: func(c *cli.Context) error {
					vote, err := cliutil.DecodePubkey(c.String("vote-pubkey"))
					if err != nil {
						return cliutil.ExitError(err)
					}
					path := c.String(cliutil.FlagState)
					m, err := loadMeta(path)
					if err != nil {
						return cliutil.ExitError(err)
					}
					if err := m.CopyDirectedStakeTargets(c.Uint64("current-epoch"), vote, c.Uint64("target-lamports")); err != nil {
						return cliutil.ExitError(err)
					}
					if err := cliutil.SaveSnapshot(path, m); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"num_targets": m.NumTargets})
				},
			},
			{
				Name: "assign-slot",
				Flags: append(cliutil.CommonFlags("path to the meta snapshot"),
					&cli.IntFlag{Name: "slot", Required: true, Usage: "validator-list slot"},
					&cli.StringFlag{Name: "vote-pubkey", Required: true, Usage: "hex-encoded validator vote pubkey"},
				),
				Action: func(c *cli.Context) error {
					vote, err := cliutil.DecodePubkey(c.String("vote-pubkey"))
					if err != nil {
						return cliutil.ExitError(err)
					}
					path := c.String(cliutil.FlagState)
					m, err := loadMeta(path)
					if err != nil {
						return cliutil.ExitError(err)
					}
					if err := m.AssignSlot(c.Int("slot"), vote); err != nil {
						return cliutil.ExitError(err)
					}
					if err := cliutil.SaveSnapshot(path, m); err != nil {
						return cliutil.ExitError(err)
					}
					return cliutil.PrintResult(map[string]any{"assigned": true})
				},
			},
		},
	}
}
