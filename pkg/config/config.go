package config

import (
	"math/big"
	"time"
)

// Config represents the main configuration for a marketsync client
type Config struct {
	Networks map[uint64]string `yaml:"networks"` // network ID -> deployed contract address
	Gateways GatewayConfig     `yaml:"gateways"`
	Wallet   WalletConfig      `yaml:"wallet"`
	Sync     SyncConfig        `yaml:"sync"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// GatewayConfig contains content-gateway configuration
type GatewayConfig struct {
	// Chain is the ordered list of gateway base URLs. The first entry is
	// the priority gateway every content-addressed reference is rewritten
	// to; later entries are walked one hop at a time by the rendering
	// layer when an image URL fails to load.
	Chain []string `yaml:"chain"`

	// FetchTimeout bounds a single metadata fetch. The in-flight transfer
	// is aborted on expiry, not abandoned.
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // default: 8s
}

// WalletConfig contains wallet provider configuration
type WalletConfig struct {
	// RPCEndpoint is the wallet/node JSON-RPC URL used by the RPC-backed
	// provider (e.g., "http://localhost:8545")
	RPCEndpoint string `yaml:"rpc_endpoint"`

	// PollInterval is how often the RPC provider polls for account and
	// network changes to synthesize change events
	PollInterval time.Duration `yaml:"poll_interval"` // default: 4s
}

// SyncConfig contains sync and write-path configuration
type SyncConfig struct {
	// MintFeeWei is the fixed minting fee sent with payToMint, in wei,
	// as a decimal string. Defaults to 0.01 ETH.
	MintFeeWei string `yaml:"mint_fee_wei"`

	// ReceiptPollInterval is how often a submitted transaction is polled
	// for its receipt
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval"` // default: 2s

	// ReceiptTimeout bounds how long to wait for a receipt before giving
	// up and surfacing the pending hash
	ReceiptTimeout time.Duration `yaml:"receipt_timeout"` // default: 90s
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Colors bool   `yaml:"colors"` // colored console output
}

// MintFee parses MintFeeWei into a big integer. Returns nil if the field
// is malformed; Validate rejects that case before anything reads it.
func (c *SyncConfig) MintFee() *big.Int {
	fee, ok := new(big.Int).SetString(c.MintFeeWei, 10)
	if !ok {
		return nil
	}
	return fee
}

// DefaultConfig returns a config with every field at its default.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if len(c.Gateways.Chain) == 0 {
		c.Gateways.Chain = []string{
			"https://ipfs.io",
			"https://cloudflare-ipfs.com",
			"https://dweb.link",
		}
	}
	if c.Gateways.FetchTimeout == 0 {
		c.Gateways.FetchTimeout = 8 * time.Second
	}
	if c.Wallet.RPCEndpoint == "" {
		c.Wallet.RPCEndpoint = "http://localhost:8545"
	}
	if c.Wallet.PollInterval == 0 {
		c.Wallet.PollInterval = 4 * time.Second
	}
	if c.Sync.MintFeeWei == "" {
		c.Sync.MintFeeWei = "10000000000000000" // 0.01 ETH
	}
	if c.Sync.ReceiptPollInterval == 0 {
		c.Sync.ReceiptPollInterval = 2 * time.Second
	}
	if c.Sync.ReceiptTimeout == 0 {
		c.Sync.ReceiptTimeout = 90 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
