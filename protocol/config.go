package protocol

import (
	"time"

	"github.com/shadowlabs-sol/shadow/auction"
)

// Config carries the protocol parameters for a deployment. There are no
// process-wide defaults hiding behind package state; every component takes
// its configuration explicitly.
type Config struct {
	// ProgramAddress is the hex-encoded address of the ledger program that
	// accepts computation requests.
	ProgramAddress string `json:"program_address" yaml:"program_address"`

	// ClusterAddress is the hex-encoded account address holding the MPC
	// cluster's public key.
	ClusterAddress string `json:"cluster_address" yaml:"cluster_address"`

	// Scale is the fixed-point scale for amount encoding.
	Scale uint64 `json:"scale" yaml:"scale"`

	// DefaultGasLimit is used for computation requests that do not set one.
	DefaultGasLimit uint64 `json:"default_gas_limit" yaml:"default_gas_limit"`

	// PollInterval is the base delay between status polls.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// MaxPollAttempts bounds the number of status polls per settlement.
	MaxPollAttempts int `json:"max_poll_attempts" yaml:"max_poll_attempts"`

	// SettleTimeout is the wall-clock bound on a settlement attempt,
	// applied when the caller's context has no deadline of its own.
	SettleTimeout time.Duration `json:"settle_timeout" yaml:"settle_timeout"`
}

// DefaultConfig returns the standard protocol parameters. Addresses must be
// filled in by the deployment.
func DefaultConfig() *Config {
	return &Config{
		Scale:           auction.DefaultScale,
		DefaultGasLimit: 1_000_000,
		PollInterval:    2 * time.Second,
		MaxPollAttempts: 60,
		SettleTimeout:   300 * time.Second,
	}
}
