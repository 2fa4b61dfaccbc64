package contract

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mintvault/marketsync/pkg/config"
	mkterrors "github.com/mintvault/marketsync/pkg/errors"
	"github.com/mintvault/marketsync/pkg/logging"
)

// Binding resolves the deployed contract per network and wraps its calls.
// Handles are never cached across a network change: Resolve re-reads the
// active network every time, and every call re-verifies its handle.
type Binding struct {
	networks map[uint64]common.Address
	backend  Backend
	abi      abi.ABI
	logger   *logging.ColoredLogger

	mintFee        *big.Int
	receiptPoll    time.Duration
	receiptTimeout time.Duration
}

// NewBinding builds a binding over the configured network→address table.
func NewBinding(cfg *config.Config, backend Backend, logger *logging.ColoredLogger) (*Binding, error) {
	parsed, err := abi.JSON(strings.NewReader(marketABI))
	if err != nil {
		return nil, err
	}

	networks := make(map[uint64]common.Address, len(cfg.Networks))
	for id, addr := range cfg.Networks {
		networks[id] = common.HexToAddress(addr)
	}

	return &Binding{
		networks:       networks,
		backend:        backend,
		abi:            parsed,
		logger:         logger,
		mintFee:        cfg.Sync.MintFee(),
		receiptPoll:    cfg.Sync.ReceiptPollInterval,
		receiptTimeout: cfg.Sync.ReceiptTimeout,
	}, nil
}

// Resolve looks up the deployed address for the backend's active network.
// It never reuses a previous answer; a network switch between calls yields
// a fresh handle or an UnsupportedNetwork error.
func (b *Binding) Resolve(ctx context.Context) (Handle, error) {
	networkID, err := b.backend.NetworkID(ctx)
	if err != nil {
		return Handle{}, mkterrors.NewCallError(mkterrors.CodeRPCError, "net_version", err)
	}

	id := networkID.Uint64()
	addr, ok := b.networks[id]
	if !ok {
		return Handle{}, mkterrors.NewBindingError(id)
	}

	b.logger.ComponentDebug(logging.ComponentContract, "resolved contract",
		zap.Uint64("network", id), zap.String("address", addr.Hex()))
	return Handle{Address: addr, NetworkID: id}, nil
}

// verifyFresh rejects a handle whose network is no longer the active one.
func (b *Binding) verifyFresh(ctx context.Context, handle Handle, method string) error {
	networkID, err := b.backend.NetworkID(ctx)
	if err != nil {
		return mkterrors.NewCallError(mkterrors.CodeRPCError, method, err)
	}
	if networkID.Uint64() != handle.NetworkID {
		return mkterrors.NewCallError(mkterrors.CodeStaleHandle, method, mkterrors.ErrStaleHandle)
	}
	return nil
}

// GetAllNFTs reads the full minted-NFT array.
func (b *Binding) GetAllNFTs(ctx context.Context, handle Handle) ([]RawRecord, error) {
	return b.enumerate(ctx, handle, MethodGetAllNFTs)
}

// GetAllTransactions reads the full completed-transaction array.
func (b *Binding) GetAllTransactions(ctx context.Context, handle Handle) ([]RawRecord, error) {
	return b.enumerate(ctx, handle, MethodGetAllTransactions)
}

func (b *Binding) enumerate(ctx context.Context, handle Handle, method string) ([]RawRecord, error) {
	if err := b.verifyFresh(ctx, handle, method); err != nil {
		return nil, err
	}

	data, err := b.abi.Pack(method)
	if err != nil {
		return nil, mkterrors.NewCallError(mkterrors.CodeRPCError, method, err)
	}

	out, err := b.backend.CallContract(ctx, ethereum.CallMsg{To: &handle.Address, Data: data}, nil)
	if err != nil {
		return nil, mkterrors.NewCallError(mkterrors.CodeRPCError, method, err)
	}

	var records []RawRecord
	if err := b.abi.UnpackIntoInterface(&records, method, out); err != nil {
		return nil, mkterrors.NewCallError(mkterrors.CodeRPCError, method, err)
	}

	b.logger.ComponentDebug(logging.ComponentContract, "enumerated records",
		zap.String("method", method), zap.Int("count", len(records)))
	return records, nil
}

// PayToMint mints a new NFT. The fixed minting fee travels as the
// transaction value; the listing price is a call argument. Never retried:
// a rejected or failed transaction is terminal.
func (b *Binding) PayToMint(ctx context.Context, handle Handle, sender Sender, from common.Address, params MintParams) (*TxReceipt, error) {
	data, err := b.abi.Pack(MethodPayToMint, params.Title, params.Description, params.MetadataURI, params.PriceWei)
	if err != nil {
		return nil, mkterrors.NewCallError(mkterrors.CodeRPCError, MethodPayToMint, err)
	}
	return b.send(ctx, handle, sender, from, MethodPayToMint, b.mintFee, data)
}

// PayToBuy purchases an NFT, sending its cost as the transaction value.
func (b *Binding) PayToBuy(ctx context.Context, handle Handle, sender Sender, from common.Address, id, costWei *big.Int) (*TxReceipt, error) {
	data, err := b.abi.Pack(MethodPayToBuy, id)
	if err != nil {
		return nil, mkterrors.NewCallError(mkterrors.CodeRPCError, MethodPayToBuy, err)
	}
	return b.send(ctx, handle, sender, from, MethodPayToBuy, costWei, data)
}

// ChangePrice updates the listing price of an owned NFT.
func (b *Binding) ChangePrice(ctx context.Context, handle Handle, sender Sender, from common.Address, id, newPriceWei *big.Int) (*TxReceipt, error) {
	data, err := b.abi.Pack(MethodChangePrice, id, newPriceWei)
	if err != nil {
		return nil, mkterrors.NewCallError(mkterrors.CodeRPCError, MethodChangePrice, err)
	}
	return b.send(ctx, handle, sender, from, MethodChangePrice, big.NewInt(0), data)
}

func (b *Binding) send(ctx context.Context, handle Handle, sender Sender, from common.Address, method string, value *big.Int, data []byte) (*TxReceipt, error) {
	if err := b.verifyFresh(ctx, handle, method); err != nil {
		return nil, err
	}

	hash, err := sender.SendTransaction(ctx, from, handle.Address, value, data)
	if err != nil {
		return nil, classifySendError(method, err)
	}

	b.logger.ComponentInfo(logging.ComponentContract, "transaction submitted",
		zap.String("method", method), zap.String("tx", hash.Hex()))
	return b.waitReceipt(ctx, hash)
}

// classifySendError maps provider failures onto the call taxonomy so the
// caller can tell a declined signature from a technical failure.
func classifySendError(method string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user denied") || strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "request rejected"):
		return mkterrors.NewCallError(mkterrors.CodeUserRejected, method, err)
	case strings.Contains(msg, "insufficient funds"):
		return mkterrors.NewCallError(mkterrors.CodeInsufficientFunds, method, err)
	default:
		return mkterrors.NewCallError(mkterrors.CodeRPCError, method, err)
	}
}

// waitReceipt polls for the mined receipt. On timeout the pending hash is
// surfaced rather than treated as failure; the transaction may still mine.
func (b *Binding) waitReceipt(ctx context.Context, hash common.Hash) (*TxReceipt, error) {
	deadline := time.Now().Add(b.receiptTimeout)
	ticker := time.NewTicker(b.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := b.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return &TxReceipt{
				TxHash:      hash,
				BlockNumber: receipt.BlockNumber.Uint64(),
				Status:      receipt.Status,
			}, nil
		}

		if time.Now().After(deadline) {
			b.logger.ComponentWarn(logging.ComponentContract, "receipt wait timed out",
				zap.String("tx", hash.Hex()))
			return &TxReceipt{TxHash: hash, Pending: true}, nil
		}

		select {
		case <-ctx.Done():
			return &TxReceipt{TxHash: hash, Pending: true}, nil
		case <-ticker.C:
		}
	}
}
