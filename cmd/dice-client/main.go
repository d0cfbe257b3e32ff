package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type globalOpts struct {
	configPath string
	timeout    time.Duration
	viper      *viper.Viper
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{viper: viper.New()}

	cmd := &cobra.Command{
		Use:           "dice-client",
		Short:         "Operate the dice escrow program",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "optional config file (yaml, json or toml)")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall deadline of one command")
	flags.String("rpc", "", "solana rpc url or cluster moniker (devnet, testnet, mainnet-beta, localnet)")
	flags.String("keypair", "", "signer keypair file")
	flags.String("program-id", "", "dice program address")
	flags.String("idl", "", "anchor idl to encode instructions against")
	flags.String("log-level", "", "log level")

	for key, flag := range map[string]string{
		"solana_rpc_endpoint": "rpc",
		"keypair_path":        "keypair",
		"program_id":          "program-id",
		"idl_path":            "idl",
		"log_level":           "log-level",
	} {
		_ = opts.viper.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newInitCmd(opts),
		newInitSolPoolCmd(opts),
		newInitTokenPoolCmd(opts),
		newInitUserPoolCmd(opts),
		newDepositSolCmd(opts),
		newWithdrawSolCmd(opts),
		newDepositTokenCmd(opts),
		newWithdrawTokenCmd(opts),
		newGlobalStateCmd(opts),
		newUserStateCmd(opts),
	)
	return cmd
}
