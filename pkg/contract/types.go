// Package contract binds the marketplace contract deployed on the active
// network and wraps its read and write methods.
package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Handle is a network-scoped binding to the deployed contract instance.
// It is immutable once constructed and valid only for the network it was
// resolved for; using it after a network switch is a defined error.
type Handle struct {
	Address   common.Address
	NetworkID uint64
}

// RawRecord is the on-chain tuple for one minted NFT or one completed
// transaction. Read-only, sourced from the contract.
type RawRecord struct {
	Id          *big.Int       `abi:"id"`
	Owner       common.Address `abi:"owner"`
	Cost        *big.Int       `abi:"cost"` // wei
	Title       string         `abi:"title"`
	Description string         `abi:"description"`
	MetadataURI string         `abi:"metadataURI"`
	Timestamp   *big.Int       `abi:"timestamp"`
}

// MintParams are the arguments to payToMint. PriceWei is the listing
// price; the fixed minting fee travels as the transaction value.
type MintParams struct {
	Title       string
	Description string
	MetadataURI string
	PriceWei    *big.Int
}

// TxReceipt is the outcome of a state-mutating call. Pending is set when
// the transaction was accepted but no receipt arrived within the
// configured wait bound.
type TxReceipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Status      uint64
	Pending     bool
}

// Succeeded reports whether the transaction was mined and did not revert.
func (r *TxReceipt) Succeeded() bool {
	return r != nil && !r.Pending && r.Status == types.ReceiptStatusSuccessful
}

// Backend is the read-side chain boundary. *ethclient.Client satisfies it.
type Backend interface {
	NetworkID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Sender is the write-side boundary. Only the wallet provider can sign,
// so every state-mutating call routes its calldata through it.
type Sender interface {
	SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error)
}
