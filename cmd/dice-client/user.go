package main

import (
	"context"
	"crypto/ed25519"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/code-payments/dice-client/pkg/escrow"
	"github.com/code-payments/dice-client/pkg/solana"
)

func newInitUserPoolCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "init-user-pool",
		Short: "Create the signer's escrow record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, opts, func(ctx context.Context, d *deps, user solana.Signer) (solana.Signature, error) {
				return d.service.InitUserRecord(ctx, user)
			})
		},
	}
}

type transferFlags struct {
	mint   string
	ex     string
	amount string
}

func (f *transferFlags) register(cmd *cobra.Command, withMint bool) {
	if withMint {
		cmd.Flags().StringVar(&f.mint, "mint", "", "token mint")
		_ = cmd.MarkFlagRequired("mint")
	}
	cmd.Flags().StringVar(&f.ex, "ex", "", "balance currently recorded for the user, in whole units")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount to move, in whole units")
	_ = cmd.MarkFlagRequired("ex")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *transferFlags) parse(withMint bool) (mint ed25519.PublicKey, ex, amount decimal.Decimal, err error) {
	if withMint {
		if mint, err = parsePubkey("mint", f.mint); err != nil {
			return
		}
	}
	if ex, err = escrow.ParseAmount(f.ex); err != nil {
		return
	}
	amount, err = escrow.ParseAmount(f.amount)
	return
}

type nativeOperation func(*escrow.Service, context.Context, solana.Signer, decimal.Decimal, decimal.Decimal) (solana.Signature, error)

type assetOperation func(*escrow.Service, context.Context, solana.Signer, ed25519.PublicKey, decimal.Decimal, decimal.Decimal) (solana.Signature, error)

func newNativeCmd(opts *globalOpts, use, short string, op nativeOperation) *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ex, amount, err := flags.parse(false)
			if err != nil {
				return err
			}

			return submit(cmd, opts, func(ctx context.Context, d *deps, user solana.Signer) (solana.Signature, error) {
				return op(d.service, ctx, user, ex, amount)
			})
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newAssetCmd(opts *globalOpts, use, short string, op assetOperation) *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, ex, amount, err := flags.parse(true)
			if err != nil {
				return err
			}

			return submit(cmd, opts, func(ctx context.Context, d *deps, user solana.Signer) (solana.Signature, error) {
				return op(d.service, ctx, user, mint, ex, amount)
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newDepositSolCmd(opts *globalOpts) *cobra.Command {
	return newNativeCmd(opts, "deposit-sol", "Deposit SOL into the signer's escrow", (*escrow.Service).DepositNative)
}

func newWithdrawSolCmd(opts *globalOpts) *cobra.Command {
	return newNativeCmd(opts, "withdraw-sol", "Withdraw SOL from the signer's escrow", (*escrow.Service).WithdrawNative)
}

func newDepositTokenCmd(opts *globalOpts) *cobra.Command {
	return newAssetCmd(opts, "deposit-token", "Deposit tokens into the signer's escrow", (*escrow.Service).DepositAsset)
}

func newWithdrawTokenCmd(opts *globalOpts) *cobra.Command {
	return newAssetCmd(opts, "withdraw-token", "Withdraw tokens from the signer's escrow", (*escrow.Service).WithdrawAsset)
}
