package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	nr "github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/dice-client/pkg/escrow"
	"github.com/code-payments/dice-client/pkg/metrics"
	"github.com/code-payments/dice-client/pkg/metrics/newrelic"
	"github.com/code-payments/dice-client/pkg/metrics/noop"
	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/dice"
)

const metricsShutdownTimeout = 5 * time.Second

type deps struct {
	log     *logrus.Entry
	config  *escrow.Config
	service *escrow.Service
	nrApp   *nr.Application
}

func newDeps(opts *globalOpts) (*deps, error) {
	config, err := escrow.LoadConfig(opts.viper, opts.configPath)
	if err != nil {
		return nil, err
	}

	d := &deps{
		log:    logrus.StandardLogger().WithField("type", "cmd/dice-client"),
		config: config,
	}

	var provider metrics.Provider = noop.NewProvider()
	if config.NewRelicLicenseKey != "" {
		d.nrApp, err = newrelic.NewApplication(config.NewRelicAppName, config.NewRelicLicenseKey)
		if err != nil {
			d.log.WithError(err).Warn("error connecting to new relic")
		} else {
			provider = newrelic.NewProvider(d.nrApp)
		}
	}
	configureLogger(config, d.nrApp)

	program, err := loadProgram(config)
	if err != nil {
		return nil, err
	}

	client := solana.New(
		config.Endpoint(),
		solana.WithRateLimit(config.RPCRateLimit),
		solana.WithConfirmationPolling(config.ConfirmPollRate, config.ConfirmPollLimit),
	)

	d.service = escrow.NewService(
		client,
		program,
		escrow.WithCommitment(config.ReadCommitment()),
		escrow.WithMetricsProvider(provider),
	)

	d.log.WithFields(logrus.Fields{
		"endpoint": config.Endpoint(),
		"program":  base58.Encode(program.ID),
	}).Debug("initialized")

	return d, nil
}

func (d *deps) signer() (*solana.KeypairSigner, error) {
	if d.config.KeypairPath == "" {
		return nil, errors.New("keypair_path is required to sign transactions")
	}
	return solana.LoadKeypairFile(d.config.KeypairPath)
}

func (d *deps) close() {
	if d.nrApp != nil {
		d.nrApp.Shutdown(metricsShutdownTimeout)
	}
}

func loadProgram(config *escrow.Config) (*dice.Program, error) {
	id := dice.PROGRAM_ID
	if config.ProgramID != "" {
		decoded, err := parsePubkey("program_id", config.ProgramID)
		if err != nil {
			return nil, err
		}
		id = decoded
	}

	idl, err := dice.DefaultIDL()
	if config.IDLPath != "" {
		idl, err = dice.LoadIDLFile(config.IDLPath)
	}
	if err != nil {
		return nil, err
	}

	return dice.NewProgram(id, idl)
}

func configureLogger(config *escrow.Config, app *nr.Application) {
	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if app != nil {
		formatter = newrelic.NewLogFormatter(app, formatter)
	}
	logrus.SetFormatter(formatter)

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	// Results go to stdout.
	logrus.SetOutput(os.Stderr)
}

// run executes fn with loaded dependencies under the command's deadline.
func run(cmd *cobra.Command, opts *globalOpts, fn func(ctx context.Context, d *deps) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	d, err := newDeps(opts)
	if err != nil {
		return err
	}
	defer d.close()

	return fn(ctx, d)
}

// submit runs a mutating operation signed by the configured keypair.
func submit(cmd *cobra.Command, opts *globalOpts, op func(ctx context.Context, d *deps, signer solana.Signer) (solana.Signature, error)) error {
	return run(cmd, opts, func(ctx context.Context, d *deps) error {
		signer, err := d.signer()
		if err != nil {
			return err
		}

		sig, err := op(ctx, d, signer)
		if err != nil {
			if programErr, ok := d.service.Program().ProgramError(err); ok {
				return errors.Wrap(err, programErr.Error())
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "tx signature: %s\n", sig.String())
		return nil
	})
}

func parsePubkey(name, value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid %s: expected %d bytes, got %d", name, ed25519.PublicKeySize, len(decoded))
	}
	return decoded, nil
}
