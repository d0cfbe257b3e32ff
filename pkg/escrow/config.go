package escrow

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/code-payments/dice-client/pkg/solana"
)

const envPrefix = "DICE"

// Config holds everything needed to reach a cluster and act on a program
// deployment.
type Config struct {
	SolanaRPCEndpoint string `mapstructure:"solana_rpc_endpoint"`

	// ProgramID is the base58 program address. The bundled deployment is
	// used when empty.
	ProgramID string `mapstructure:"program_id"`

	// IDLPath points at an Anchor idl to encode against instead of the
	// bundled one.
	IDLPath string `mapstructure:"idl_path"`

	KeypairPath string `mapstructure:"keypair_path"`

	Commitment       string        `mapstructure:"commitment"`
	ConfirmPollRate  time.Duration `mapstructure:"confirm_poll_rate"`
	ConfirmPollLimit uint          `mapstructure:"confirm_poll_limit"`
	RPCRateLimit     float64       `mapstructure:"rpc_rate_limit"`

	LogLevel string `mapstructure:"log_level"`

	NewRelicAppName    string `mapstructure:"new_relic_app_name"`
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = Config{
	SolanaRPCEndpoint: solana.EndpointDevnet,
	Commitment:        "confirmed",
	ConfirmPollRate:   solana.PollRate,
	ConfirmPollLimit:  64,
	RPCRateLimit:      10,
	LogLevel:          "info",
	NewRelicAppName:   "dice-client",
}

var configKeys = []string{
	"solana_rpc_endpoint",
	"program_id",
	"idl_path",
	"keypair_path",
	"commitment",
	"confirm_poll_rate",
	"confirm_poll_limit",
	"rpc_rate_limit",
	"log_level",
	"new_relic_app_name",
	"new_relic_license_key",
}

// BindConfig registers defaults and DICE_ prefixed environment variables
// for every key on v.
func BindConfig(v *viper.Viper) {
	v.SetDefault("solana_rpc_endpoint", defaultConfig.SolanaRPCEndpoint)
	v.SetDefault("commitment", defaultConfig.Commitment)
	v.SetDefault("confirm_poll_rate", defaultConfig.ConfirmPollRate)
	v.SetDefault("confirm_poll_limit", defaultConfig.ConfirmPollLimit)
	v.SetDefault("rpc_rate_limit", defaultConfig.RPCRateLimit)
	v.SetDefault("log_level", defaultConfig.LogLevel)
	v.SetDefault("new_relic_app_name", defaultConfig.NewRelicAppName)

	for _, key := range configKeys {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key))
	}
}

// LoadConfig reads the optional config file at path, then environment
// overrides. A path that is set but missing is an error.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	BindConfig(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.SolanaRPCEndpoint == "" {
		return errors.New("solana_rpc_endpoint is required")
	}
	if _, err := solana.CommitmentFromString(c.Commitment); err != nil {
		return err
	}
	if c.ConfirmPollRate <= 0 {
		return errors.New("confirm_poll_rate must be positive")
	}
	if c.ConfirmPollLimit == 0 {
		return errors.New("confirm_poll_limit must be positive")
	}
	return nil
}

func (c *Config) ReadCommitment() solana.Commitment {
	commitment, err := solana.CommitmentFromString(c.Commitment)
	if err != nil {
		return solana.CommitmentConfirmed
	}
	return commitment
}

// Endpoint is the RPC URL, with cluster monikers like "devnet" expanded.
func (c *Config) Endpoint() string {
	return solana.ResolveEndpoint(c.SolanaRPCEndpoint)
}
