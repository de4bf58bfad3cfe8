// Command validator-history-cli is a read-only HTTP client for the
// keeper's validator-history API (spec §6.4/§6.5): it fetches either the
// full ring-buffer history or the latest entry for one vote account and
// prints the JSON response.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/stakeward/steward-core/cliutil"
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
		Name:  "validator-history-cli",
		Usage: "read validator-history entries from a keeper's HTTP API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "fetch a vote account's full ring-buffer history, or one epoch with --epoch",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: cliutil.FlagJSONRPCURL, Usage: "base URL of the keeper's API server", Required: true, EnvVars: []string{"JSON_RPC_URL"}},
					&cli.StringFlag{Name: "vote-account", Required: true, Usage: "hex-encoded vote account pubkey"},
					&cli.Uint64Flag{Name: "epoch", Usage: "fetch only this epoch's entry"},
				},
				Action: func(c *cli.Context) error {
					if _, err := cliutil.DecodePubkey(c.String("vote-account")); err != nil {
						return cliutil.ExitError(err)
					}
					url := fmt.Sprintf("%s/api/v1/validator_history/%s", c.String(cliutil.FlagJSONRPCURL), c.String("vote-account"))
					if epoch := c.Uint64("epoch"); c.IsSet("epoch") {
						url = fmt.Sprintf("%s?epoch=%d", url, epoch)
					}
					return fetchAndPrint(url)
				},
			},
			{
				Name:  "latest",
				Usage: "fetch a vote account's most recent ring-buffer entry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: cliutil.FlagJSONRPCURL, Usage: "base URL of the keeper's API server", Required: true, EnvVars: []string{"JSON_RPC_URL"}},
					&cli.StringFlag{Name: "vote-account", Required: true, Usage: "hex-encoded vote account pubkey"},
				},
				Action: func(c *cli.Context) error {
					if _, err := cliutil.DecodePubkey(c.String("vote-account")); err != nil {
						return cliutil.ExitError(err)
					}
					url := fmt.Sprintf("%s/api/v1/validator_history/%s/latest", c.String(cliutil.FlagJSONRPCURL), c.String("vote-account"))
					return fetchAndPrint(url)
				},
			},
		},
	}
}

func fetchAndPrint(url string) error {
	client := &http.Client{Timeout: 20 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return cliutil.ExitError(fmt.Errorf("%w: %v", keeper.ErrRPCTimeout, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cliutil.ExitError(err)
	}

	if resp.StatusCode >= 400 {
		return cliutil.ExitError(fmt.Errorf("administrative: server returned %s: %s", resp.Status, string(body)))
	}

	var pretty any
	if err := json.Unmarshal(body, &pretty); err != nil {
		return cliutil.ExitError(err)
	}
	return cliutil.PrintResult(pretty)
}
