package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/code-payments/dice-client/pkg/escrow"
	"github.com/code-payments/dice-client/pkg/solana"
)

func newInitCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the global registry and game vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, opts, func(ctx context.Context, d *deps, admin solana.Signer) (solana.Signature, error) {
				return d.service.InitProject(ctx, admin)
			})
		},
	}
}

func newInitSolPoolCmd(opts *globalOpts) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "init-sol-pool",
		Short: "Fund the game vault with SOL",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := escrow.ParseAmount(amount)
			if err != nil {
				return err
			}

			return submit(cmd, opts, func(ctx context.Context, d *deps, admin solana.Signer) (solana.Signature, error) {
				return d.service.InitNativePool(ctx, admin, parsed)
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "SOL to deposit")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newInitTokenPoolCmd(opts *globalOpts) *cobra.Command {
	var mintStr, amount string

	cmd := &cobra.Command{
		Use:   "init-token-pool",
		Short: "Register a token and fund the game vault with it",
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePubkey("mint", mintStr)
			if err != nil {
				return err
			}
			parsed, err := escrow.ParseAmount(amount)
			if err != nil {
				return err
			}

			return submit(cmd, opts, func(ctx context.Context, d *deps, admin solana.Signer) (solana.Signature, error) {
				return d.service.InitAssetPool(ctx, admin, mint, parsed)
			})
		},
	}

	cmd.Flags().StringVar(&mintStr, "mint", "", "token mint")
	cmd.Flags().StringVar(&amount, "amount", "", "tokens to deposit, in whole units")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
