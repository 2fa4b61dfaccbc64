package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "gateways.chain[1]"
	Message string // e.g., "not an http(s) URL"
	Hint    string // e.g., "expected https://<host>"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print
// all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetworks()...)
	errs = append(errs, c.validateGateways()...)
	errs = append(errs, c.validateWallet()...)
	errs = append(errs, c.validateSync()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateNetworks() []error {
	var errs []error
	for id, addr := range c.Networks {
		if !common.IsHexAddress(addr) {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("networks[%d]", id),
				Message: fmt.Sprintf("invalid contract address %q", addr),
				Hint:    "expected 0x-prefixed 20-byte hex address",
			})
		}
	}
	return errs
}

func (c *Config) validateGateways() []error {
	var errs []error
	if len(c.Gateways.Chain) == 0 {
		errs = append(errs, ValidationError{
			Path:    "gateways.chain",
			Message: "gateway chain is empty",
			Hint:    "at least one gateway base URL is required",
		})
	}
	seen := map[string]bool{}
	for i, raw := range c.Gateways.Chain {
		path := fmt.Sprintf("gateways.chain[%d]", i)
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("not an http(s) URL: %q", raw),
				Hint:    "expected https://<host>",
			})
			continue
		}
		if strings.HasSuffix(u.Path, "/") || strings.Contains(u.Path, "/ipfs") {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "gateway must be a bare base URL",
				Hint:    "the /ipfs/<cid> path is appended by the resolver",
			})
		}
		if seen[u.Host] {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("duplicate gateway host %q", u.Host),
			})
		}
		seen[u.Host] = true
	}
	if c.Gateways.FetchTimeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "gateways.fetch_timeout",
			Message: "must be positive",
		})
	}
	return errs
}

func (c *Config) validateWallet() []error {
	var errs []error
	if u, err := url.Parse(c.Wallet.RPCEndpoint); err != nil || u.Host == "" {
		errs = append(errs, ValidationError{
			Path:    "wallet.rpc_endpoint",
			Message: fmt.Sprintf("invalid RPC endpoint %q", c.Wallet.RPCEndpoint),
		})
	}
	if c.Wallet.PollInterval < 0 {
		errs = append(errs, ValidationError{
			Path:    "wallet.poll_interval",
			Message: "must be positive",
		})
	}
	return errs
}

func (c *Config) validateSync() []error {
	var errs []error
	if c.Sync.MintFee() == nil {
		errs = append(errs, ValidationError{
			Path:    "sync.mint_fee_wei",
			Message: fmt.Sprintf("not a decimal wei amount: %q", c.Sync.MintFeeWei),
		})
	}
	return errs
}

func (c *Config) validateLogging() []error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return []error{ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
			Hint:    "expected debug, info, warn or error",
		}}
	}
}
