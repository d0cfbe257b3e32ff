package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/code-payments/dice-client/pkg/escrow"
	"github.com/code-payments/dice-client/pkg/solana/dice"
)

func newGlobalStateCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "global-state",
		Short: "Print the registry of accepted tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, d *deps) error {
				printGlobalPool(cmd.OutOrStdout(), d.service.ReadGlobalState(ctx))
				return nil
			})
		},
	}
}

func newUserStateCmd(opts *globalOpts) *cobra.Command {
	var userStr string

	cmd := &cobra.Command{
		Use:   "user-state",
		Short: "Print a user's escrowed balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, d *deps) error {
				if userStr != "" {
					user, err := parsePubkey("user", userStr)
					if err != nil {
						return err
					}
					printUserPool(cmd.OutOrStdout(), d.service.ReadUserState(ctx, user))
					return nil
				}

				signer, err := d.signer()
				if err != nil {
					return err
				}
				printUserPool(cmd.OutOrStdout(), d.service.ReadUserState(ctx, signer.PublicKey()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userStr, "user", "", "user address, defaults to the keypair's")
	return cmd
}

func printGlobalPool(w io.Writer, pool *dice.GlobalPoolAccount) {
	if pool == nil {
		fmt.Fprintln(w, "global pool not found")
		return
	}

	fmt.Fprintf(w, "admin:       %s\n", base58.Encode(pool.Admin))
	fmt.Fprintf(w, "token count: %d\n", pool.TokenCount)
	for i, mint := range pool.TokenAddresses {
		fmt.Fprintf(w, "token %2d:    %s\n", i, base58.Encode(mint))
	}
}

func printUserPool(w io.Writer, pool *dice.UserPoolAccount) {
	if pool == nil {
		fmt.Fprintln(w, "user pool not found")
		return
	}

	fmt.Fprintf(w, "user:       %s\n", base58.Encode(pool.User))
	fmt.Fprintf(w, "sol amount: %s\n", escrow.FromBaseUnits(pool.SolAmount, escrow.LamportsPerSol))
	for _, asset := range pool.Assets {
		fmt.Fprintf(w, "%s: %d\n", base58.Encode(asset.Mint), asset.Amount)
	}
}
