package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mintvault/marketsync/pkg/bus"
	mkterrors "github.com/mintvault/marketsync/pkg/errors"
	"github.com/mintvault/marketsync/pkg/logging"
	"github.com/mintvault/marketsync/pkg/store"
)

type fakeProvider struct {
	accounts    []common.Address
	accountsErr error

	requestAccounts []common.Address
	requestErr      error
	requestCalls    int

	networkID  *big.Int
	networkErr error
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	f.requestCalls++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.requestAccounts, nil
}

func (f *fakeProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeProvider) NetworkID(ctx context.Context) (*big.Int, error) {
	if f.networkErr != nil {
		return nil, f.networkErr
	}
	return f.networkID, nil
}

func (f *fakeProvider) SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	return common.Hash{}, errors.New("not used in session tests")
}

var testAccount = common.HexToAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F")

func newTestManager(provider Provider) (*SessionManager, *store.Store, *bus.Bus) {
	st := store.New()
	b := bus.New()
	m := NewSessionManager(provider, st, b, 10*time.Millisecond, logging.NewNopLogger())
	return m, st, b
}

func TestConnectWithoutProvider(t *testing.T) {
	m, st, _ := newTestManager(nil)

	if m.IsAvailable() {
		t.Error("nil provider must not be available")
	}
	_, err := m.Connect(context.Background())
	if !mkterrors.IsNotInstalled(err) {
		t.Fatalf("expected NotInstalled, got %v", err)
	}
	if st.Get(store.KeyConnectedAccount) != nil {
		t.Error("store must remain unset when no wallet is present")
	}
}

func TestConnectUsesExistingGrantWithoutPrompt(t *testing.T) {
	provider := &fakeProvider{
		accounts:  []common.Address{testAccount},
		networkID: big.NewInt(5777),
	}
	m, st, _ := newTestManager(provider)

	account, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.requestCalls != 0 {
		t.Errorf("existing grant must not prompt again, got %d prompts", provider.requestCalls)
	}
	if account != "0x71c7656ec7ab88b098defb751b7401b5f6d8976f" {
		t.Errorf("account must be lowercased, got %q", account)
	}
	if st.Get(store.KeyConnectedAccount) != account {
		t.Error("connected account not written to store")
	}
}

func TestConnectPromptsWhenNoGrant(t *testing.T) {
	provider := &fakeProvider{
		requestAccounts: []common.Address{testAccount},
		networkID:       big.NewInt(5777),
	}
	m, _, b := newTestManager(provider)

	connected := 0
	b.Subscribe(bus.TopicSessionConnected, func(bus.Event) { connected++ })

	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.requestCalls != 1 {
		t.Errorf("expected exactly one prompt, got %d", provider.requestCalls)
	}
	if connected != 1 {
		t.Errorf("expected one session.connected event, got %d", connected)
	}
}

func TestConnectUserRejected(t *testing.T) {
	provider := &fakeProvider{
		requestErr: errors.New("user rejected the request"),
	}
	m, _, _ := newTestManager(provider)

	_, err := m.Connect(context.Background())
	if !mkterrors.IsUserRejected(err) {
		t.Fatalf("expected UserRejected, got %v", err)
	}
}

func TestCheckExistingConnectionSilentAbsence(t *testing.T) {
	provider := &fakeProvider{networkID: big.NewInt(5777)}
	m, st, b := newTestManager(provider)

	events := 0
	b.Subscribe(bus.TopicSessionConnected, func(bus.Event) { events++ })

	if m.CheckExistingConnection(context.Background()) {
		t.Error("expected false with no authorized accounts")
	}
	if st.Get(store.KeyConnectedAccount) != nil {
		t.Error("silent check must not write the store on absence")
	}
	if events != 0 {
		t.Error("silent check must not publish on absence")
	}
}

func TestCheckExistingConnectionWithoutProvider(t *testing.T) {
	m, _, _ := newTestManager(nil)
	if m.CheckExistingConnection(context.Background()) {
		t.Error("expected false with no provider")
	}
}

func TestCheckExistingConnectionAdopts(t *testing.T) {
	provider := &fakeProvider{
		accounts:  []common.Address{testAccount},
		networkID: big.NewInt(5777),
	}
	m, st, _ := newTestManager(provider)

	if !m.CheckExistingConnection(context.Background()) {
		t.Fatal("expected existing connection to be detected")
	}
	session := m.Session()
	if session.NetworkID != 5777 {
		t.Errorf("expected network 5777, got %d", session.NetworkID)
	}
	if st.Get(store.KeyConnectedAccount) == nil {
		t.Error("expected connected account in store")
	}
}

func TestPollDetectsAccountChange(t *testing.T) {
	provider := &fakeProvider{
		accounts:  []common.Address{testAccount},
		networkID: big.NewInt(5777),
	}
	m, st, b := newTestManager(provider)
	m.CheckExistingConnection(context.Background())

	var changed []string
	b.Subscribe(bus.TopicAccountsChanged, func(e bus.Event) { changed = append(changed, e.Account) })

	next := common.HexToAddress("0x2E9d30761DB97706C536A112B9466433032b28e3")
	provider.accounts = []common.Address{next}
	m.pollOnce(context.Background())

	if len(changed) != 1 {
		t.Fatalf("expected one accountsChanged event, got %d", len(changed))
	}
	want := "0x2e9d30761db97706c536a112b9466433032b28e3"
	if changed[0] != want {
		t.Errorf("expected %s, got %s", want, changed[0])
	}
	if st.Get(store.KeyConnectedAccount) != want {
		t.Error("store not updated on account change")
	}
}

func TestPollDetectsNetworkChange(t *testing.T) {
	provider := &fakeProvider{
		accounts:  []common.Address{testAccount},
		networkID: big.NewInt(5777),
	}
	m, _, b := newTestManager(provider)
	m.CheckExistingConnection(context.Background())

	networkEvents := 0
	accountEvents := 0
	b.Subscribe(bus.TopicNetworkChanged, func(bus.Event) { networkEvents++ })
	b.Subscribe(bus.TopicAccountsChanged, func(bus.Event) { accountEvents++ })

	provider.networkID = big.NewInt(1)
	m.pollOnce(context.Background())

	if networkEvents != 1 {
		t.Fatalf("expected one networkChanged event, got %d", networkEvents)
	}
	if accountEvents != 0 {
		t.Errorf("account did not change, got %d accountsChanged events", accountEvents)
	}

	// Unchanged state publishes nothing.
	m.pollOnce(context.Background())
	if networkEvents != 1 {
		t.Errorf("steady state must not republish, got %d events", networkEvents)
	}
}

func TestPollIgnoresTransientNetworkError(t *testing.T) {
	provider := &fakeProvider{
		accounts:  []common.Address{testAccount},
		networkID: big.NewInt(5777),
	}
	m, _, b := newTestManager(provider)
	m.CheckExistingConnection(context.Background())

	var networks []uint64
	accountEvents := 0
	b.Subscribe(bus.TopicNetworkChanged, func(e bus.Event) { networks = append(networks, e.NetworkID) })
	b.Subscribe(bus.TopicAccountsChanged, func(bus.Event) { accountEvents++ })

	provider.networkErr = errors.New("connection reset by peer")
	m.pollOnce(context.Background())

	if len(networks) != 0 {
		t.Fatalf("transient RPC failure must not publish networkChanged, got events %v", networks)
	}
	if got := m.Session().NetworkID; got != 5777 {
		t.Errorf("tracked network must survive a failed poll, got %d", got)
	}

	// Recovery on the same network is not a change either.
	provider.networkErr = nil
	m.pollOnce(context.Background())

	if len(networks) != 0 || accountEvents != 0 {
		t.Errorf("recovered poll on an unchanged session must publish nothing, got %v / %d", networks, accountEvents)
	}
}
