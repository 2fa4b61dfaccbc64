package market

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mintvault/marketsync/pkg/bus"
	"github.com/mintvault/marketsync/pkg/contract"
	"github.com/mintvault/marketsync/pkg/gateway"
	"github.com/mintvault/marketsync/pkg/logging"
	"github.com/mintvault/marketsync/pkg/store"
)

// State is the assembler's position in a sync pass.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateResolving State = "resolving"
	StateCommitted State = "committed"
	StateFailed    State = "failed"
)

// BindingStatus is the value published under store.KeyContractStatus.
type BindingStatus struct {
	Bound     bool
	NetworkID uint64
	Address   string
}

// ChainReader is the read-side contract surface the assembler needs.
// *contract.Binding satisfies it.
type ChainReader interface {
	Resolve(ctx context.Context) (contract.Handle, error)
	GetAllNFTs(ctx context.Context, handle contract.Handle) ([]contract.RawRecord, error)
	GetAllTransactions(ctx context.Context, handle contract.Handle) ([]contract.RawRecord, error)
}

// Assembler orchestrates a full sync pass: enumerate chain records,
// resolve each record's metadata, and commit the normalized collections
// atomically to the store.
type Assembler struct {
	chain    ChainReader
	resolver *gateway.Resolver
	store    *store.Store
	bus      *bus.Bus
	logger   *logging.ColoredLogger

	mu      sync.Mutex
	state   State
	running bool
	dirty   bool
}

// NewAssembler wires an assembler over its collaborators.
func NewAssembler(chain ChainReader, resolver *gateway.Resolver, st *store.Store, b *bus.Bus, logger *logging.ColoredLogger) *Assembler {
	return &Assembler{
		chain:    chain,
		resolver: resolver,
		store:    st,
		bus:      b,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the assembler's current state.
func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Start subscribes the assembler to session events. Any session change
// triggers a full resync: a new account changes ownership views, and a
// new network invalidates the previous binding outright.
func (a *Assembler) Start(ctx context.Context) {
	resync := func(event bus.Event) {
		go func() {
			if err := a.Sync(ctx); err != nil {
				a.logger.ComponentError(logging.ComponentSync, "resync failed",
					zap.String("trigger", string(event.Topic)), zap.Error(err))
			}
		}()
	}
	a.bus.Subscribe(bus.TopicSessionConnected, resync)
	a.bus.Subscribe(bus.TopicAccountsChanged, resync)
	a.bus.Subscribe(bus.TopicNetworkChanged, resync)
}

// Sync runs one full pass. At most one pass is in flight: a trigger
// arriving mid-pass marks the pass superseded and it re-runs once after
// committing, so no trigger is lost and no two passes race on the store.
func (a *Assembler) Sync(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.dirty = true
		a.mu.Unlock()
		return nil
	}
	a.running = true
	a.mu.Unlock()

	for {
		err := a.runPass(ctx)

		a.mu.Lock()
		if a.dirty {
			a.dirty = false
			a.mu.Unlock()
			continue
		}
		a.running = false
		a.mu.Unlock()
		return err
	}
}

func (a *Assembler) runPass(ctx context.Context) error {
	passID := uuid.NewString()[:8]

	// No connected account means nothing to show, not a failure.
	account, _ := a.store.Get(store.KeyConnectedAccount).(string)
	if account == "" {
		a.logger.ComponentDebug(logging.ComponentSync, "sync skipped, no account", zap.String("pass", passID))
		a.setState(StateIdle)
		return nil
	}

	handle, err := a.chain.Resolve(ctx)
	if err != nil {
		a.store.Set(store.KeyContractStatus, BindingStatus{})
		return a.fail(passID, "contract resolution failed", err)
	}
	a.store.Set(store.KeyContractStatus, BindingStatus{
		Bound:     true,
		NetworkID: handle.NetworkID,
		Address:   handle.Address.Hex(),
	})

	a.setState(StateFetching)
	rawNFTs, err := a.chain.GetAllNFTs(ctx, handle)
	if err != nil {
		return a.fail(passID, "NFT enumeration failed", err)
	}
	rawTxs, err := a.chain.GetAllTransactions(ctx, handle)
	if err != nil {
		return a.fail(passID, "transaction enumeration failed", err)
	}

	a.setState(StateResolving)
	nfts := a.normalizeAll(ctx, rawNFTs)
	txs := a.normalizeAll(ctx, rawTxs)

	// Two atomic replacements; subscribers never observe a partial
	// collection.
	a.store.Set(store.KeyNFTs, nfts)
	a.store.Set(store.KeyTransactions, txs)
	a.setState(StateCommitted)

	a.logger.ComponentInfo(logging.ComponentSync, "sync committed",
		zap.String("pass", passID),
		zap.Int("nfts", len(nfts)),
		zap.Int("transactions", len(txs)),
		zap.Int("degraded", countDegraded(nfts)+countDegraded(txs)))
	return nil
}

// normalizeAll resolves metadata for every raw record concurrently and
// joins before returning, so partial results never leak into the store.
// The published order is the reverse of chain-insertion order: strictly
// append-only chain data reads as most-recent-first.
func (a *Assembler) normalizeAll(ctx context.Context, raw []contract.RawRecord) []NormalizedRecord {
	out := make([]NormalizedRecord, len(raw))

	g := new(errgroup.Group)
	for i, rec := range raw {
		i, rec := i, rec
		g.Go(func() error {
			var err error
			out[i], err = a.normalize(ctx, rec)
			return err
		})
	}
	// Degradations surface here as the joined error. The records already
	// carry their placeholders, so the pass commits either way.
	if err := g.Wait(); err != nil {
		a.logger.ComponentWarn(logging.ComponentSync, "metadata degraded",
			zap.Int("records", len(raw)), zap.Error(err))
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// normalize merges one chain record with its metadata document. A failed
// or malformed document degrades the metadata-derived fields to
// placeholders; chain fields stay authoritative either way.
func (a *Assembler) normalize(ctx context.Context, raw contract.RawRecord) (NormalizedRecord, error) {
	n := newChainRecord(raw)

	doc, err := a.resolver.FetchJSON(ctx, raw.MetadataURI)
	if err != nil {
		n.degrade()
		return n, fmt.Errorf("record %d: %w", n.ID, err)
	}

	n.Title = firstNonEmpty(doc.Name, raw.Title, PlaceholderTitle)
	n.Description = firstNonEmpty(doc.Description, raw.Description, PlaceholderDescription)
	n.ImageURL = a.resolver.ImageURL(doc)
	return n, nil
}

// fail moves the pass to Failed and surfaces the error as a user-visible
// alert. Raw chain data is load-bearing; it cannot degrade.
func (a *Assembler) fail(passID, msg string, err error) error {
	a.setState(StateFailed)
	a.store.Set(store.KeyAlert, store.Alert{
		Message: fmt.Sprintf("%s: %v", msg, err),
		Color:   "red",
	})
	a.logger.ComponentError(logging.ComponentSync, msg,
		zap.String("pass", passID), zap.Error(err))
	return err
}

func (a *Assembler) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func countDegraded(records []NormalizedRecord) int {
	n := 0
	for _, r := range records {
		if r.Degraded {
			n++
		}
	}
	return n
}
