package wallet

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mintvault/marketsync/pkg/bus"
	mkterrors "github.com/mintvault/marketsync/pkg/errors"
	"github.com/mintvault/marketsync/pkg/logging"
	"github.com/mintvault/marketsync/pkg/store"
)

// Session is the current wallet state. Mutated only on wallet events,
// never persisted.
type Session struct {
	Account   string // lowercase hex address, empty when disconnected
	NetworkID uint64 // zero when unknown
}

// SessionManager detects, connects and tracks the wallet provider, and
// republishes account and network changes onto the event bus.
type SessionManager struct {
	provider Provider // nil when no wallet is present
	store    *store.Store
	bus      *bus.Bus
	logger   *logging.ColoredLogger

	pollInterval time.Duration

	mu      sync.Mutex
	session Session
}

// NewSessionManager creates a manager over the given provider. A nil
// provider models a missing wallet extension.
func NewSessionManager(provider Provider, st *store.Store, b *bus.Bus, pollInterval time.Duration, logger *logging.ColoredLogger) *SessionManager {
	return &SessionManager{
		provider:     provider,
		store:        st,
		bus:          b,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// IsAvailable reports whether a wallet provider is present.
func (m *SessionManager) IsAvailable() bool {
	return m.provider != nil
}

// Session returns a copy of the current session state.
func (m *SessionManager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Connect requests account access. When the provider has already
// authorized an account, the existing grant is returned without a second
// prompt round-trip.
func (m *SessionManager) Connect(ctx context.Context) (string, error) {
	if !m.IsAvailable() {
		return "", mkterrors.NewWalletError(mkterrors.CodeWalletNotInstalled,
			"no wallet provider detected", mkterrors.ErrNotInstalled)
	}

	// Silent path first: an existing grant needs no prompt.
	accounts, err := m.provider.Accounts(ctx)
	if err == nil && len(accounts) > 0 {
		return m.adopt(ctx, accounts[0]), nil
	}

	accounts, err = m.provider.RequestAccounts(ctx)
	if err != nil {
		return "", classifyConnectError(err)
	}
	if len(accounts) == 0 {
		return "", mkterrors.NewWalletError(mkterrors.CodeUnknown, "wallet returned no accounts", nil)
	}
	return m.adopt(ctx, accounts[0]), nil
}

// CheckExistingConnection silently queries already-authorized accounts.
// Absence is not an error and raises nothing user-visible.
func (m *SessionManager) CheckExistingConnection(ctx context.Context) bool {
	if !m.IsAvailable() {
		return false
	}

	accounts, err := m.provider.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		m.logger.ComponentDebug(logging.ComponentWallet, "no existing connection")
		return false
	}

	m.adopt(ctx, accounts[0])
	return true
}

// adopt installs an account as the connected one, records the active
// network, writes the store and announces the session.
func (m *SessionManager) adopt(ctx context.Context, account common.Address) string {
	lower := strings.ToLower(account.Hex())

	// Zero stays the documented "unknown" value when the query fails; the
	// watcher fills it in on the first healthy poll.
	var networkID uint64
	if id, err := m.provider.NetworkID(ctx); err == nil {
		networkID = id.Uint64()
	} else {
		m.logger.ComponentDebug(logging.ComponentWallet, "network query failed", zap.Error(err))
	}

	m.mu.Lock()
	m.session = Session{Account: lower, NetworkID: networkID}
	m.mu.Unlock()

	m.store.Set(store.KeyConnectedAccount, lower)
	m.logger.ComponentInfo(logging.ComponentWallet, "wallet connected",
		zap.String("account", lower), zap.Uint64("network", networkID))

	m.bus.Publish(bus.Event{
		Topic:     bus.TopicSessionConnected,
		Account:   lower,
		NetworkID: networkID,
	})
	return lower
}

// Start launches the change watcher. A daemon has no browser event
// stream, so changes are detected by polling the provider and
// republished as bus events. Returns immediately; the watcher stops when
// ctx is cancelled.
func (m *SessionManager) Start(ctx context.Context) {
	if !m.IsAvailable() {
		return
	}

	go func() {
		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.pollOnce(ctx)
			}
		}
	}()
}

// pollOnce compares provider state against the tracked session and
// publishes change events. Network changes win over account changes: a
// new network invalidates the contract binding entirely, so the network
// event (which triggers a full resync) is published first.
func (m *SessionManager) pollOnce(ctx context.Context) {
	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		m.logger.ComponentDebug(logging.ComponentWallet, "provider poll failed", zap.Error(err))
		return
	}

	var account string
	if len(accounts) > 0 {
		account = strings.ToLower(accounts[0].Hex())
	}

	// A transient net_version failure is not a network switch. Keep the
	// tracked session untouched and retry next round, otherwise a blip
	// would publish a spurious networkChanged and force a full resync.
	id, err := m.provider.NetworkID(ctx)
	if err != nil {
		m.logger.ComponentDebug(logging.ComponentWallet, "network poll failed", zap.Error(err))
		return
	}
	networkID := id.Uint64()

	m.mu.Lock()
	prev := m.session
	m.session = Session{Account: account, NetworkID: networkID}
	m.mu.Unlock()

	if networkID != prev.NetworkID && prev.NetworkID != 0 {
		m.logger.ComponentInfo(logging.ComponentWallet, "network changed",
			zap.Uint64("from", prev.NetworkID), zap.Uint64("to", networkID))
		m.bus.Publish(bus.Event{
			Topic:     bus.TopicNetworkChanged,
			Account:   account,
			NetworkID: networkID,
		})
	}

	if account != prev.Account {
		m.store.Set(store.KeyConnectedAccount, account)
		m.logger.ComponentInfo(logging.ComponentWallet, "accounts changed",
			zap.String("account", account))
		m.bus.Publish(bus.Event{
			Topic:     bus.TopicAccountsChanged,
			Account:   account,
			NetworkID: networkID,
		})
	}
}

func classifyConnectError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "denied") || strings.Contains(msg, "rejected") {
		return mkterrors.NewWalletError(mkterrors.CodeUserRejected,
			"user declined wallet connection", err)
	}
	return mkterrors.NewWalletError(mkterrors.CodeUnknown, "wallet connection failed", err)
}
