// Package cli implements the marketsync command handlers: wiring the
// wallet session, contract binding, gateway resolver and assembler into
// a connected client, plus the terminal output helpers.
package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap/zapcore"

	"github.com/mintvault/marketsync/pkg/bus"
	"github.com/mintvault/marketsync/pkg/config"
	"github.com/mintvault/marketsync/pkg/contract"
	"github.com/mintvault/marketsync/pkg/gateway"
	"github.com/mintvault/marketsync/pkg/logging"
	"github.com/mintvault/marketsync/pkg/market"
	"github.com/mintvault/marketsync/pkg/store"
	"github.com/mintvault/marketsync/pkg/wallet"
)

// Client bundles every component a command handler needs.
type Client struct {
	Config    *config.Config
	Logger    *logging.ColoredLogger
	Store     *store.Store
	Bus       *bus.Bus
	Provider  *wallet.RPCProvider
	Session   *wallet.SessionManager
	Binding   *contract.Binding
	Resolver  *gateway.Resolver
	Assembler *market.Assembler

	backend *ethclient.Client
}

// createClient loads the config and wires the full client stack against
// the configured wallet endpoint.
func createClient(ctx context.Context, configPath string) (*Client, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	logger, err := logging.NewColoredLogger(level, cfg.Logging.Colors)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	backend, err := ethclient.DialContext(ctx, cfg.Wallet.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial node endpoint: %w", err)
	}

	provider, err := wallet.DialRPCProvider(ctx, cfg.Wallet.RPCEndpoint)
	if err != nil {
		backend.Close()
		return nil, err
	}

	binding, err := contract.NewBinding(cfg, backend, logger)
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	st := store.New()
	b := bus.New()
	resolver := gateway.NewResolver(cfg.Gateways, logger)
	session := wallet.NewSessionManager(provider, st, b, cfg.Wallet.PollInterval, logger)
	assembler := market.NewAssembler(binding, resolver, st, b, logger)

	return &Client{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Bus:       b,
		Provider:  provider,
		Session:   session,
		Binding:   binding,
		Resolver:  resolver,
		Assembler: assembler,
		backend:   backend,
	}, nil
}

// Disconnect releases the RPC connections.
func (c *Client) Disconnect() {
	c.Provider.Close()
	c.backend.Close()
}

// connect establishes a wallet session, reusing an existing authorization
// before prompting.
func (c *Client) connect(ctx context.Context) (string, error) {
	if c.Session.CheckExistingConnection(ctx) {
		return c.Session.Session().Account, nil
	}
	return c.Session.Connect(ctx)
}
