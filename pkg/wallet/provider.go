// Package wallet tracks the wallet session: provider detection, account
// authorization, and account/network change events.
package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Provider is the opaque wallet capability. It is the only component able
// to authorize transactions; this client never touches key material.
type Provider interface {
	// RequestAccounts asks for account access and may prompt the user.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Accounts silently returns already-authorized accounts, never
	// prompting.
	Accounts(ctx context.Context) ([]common.Address, error)

	// NetworkID returns the provider's active network.
	NetworkID(ctx context.Context) (*big.Int, error)

	// SendTransaction submits a transaction for signing and broadcast.
	// Satisfies contract.Sender.
	SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error)
}

// RPCProvider adapts a JSON-RPC wallet endpoint (a wallet daemon or a
// node with managed accounts) to the Provider capability.
type RPCProvider struct {
	client *rpc.Client
}

// DialRPCProvider connects to a wallet JSON-RPC endpoint.
func DialRPCProvider(ctx context.Context, endpoint string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet endpoint %s: %w", endpoint, err)
	}
	return &RPCProvider{client: client}, nil
}

// RequestAccounts invokes the provider's permission request. Endpoints
// without eth_requestAccounts (plain nodes with unlocked accounts) fall
// back to the silent query.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	accounts, err := p.call(ctx, "eth_requestAccounts")
	if err != nil && isMethodNotFound(err) {
		return p.Accounts(ctx)
	}
	return accounts, err
}

// Accounts returns already-authorized accounts without prompting.
func (p *RPCProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return p.call(ctx, "eth_accounts")
}

// NetworkID returns the active network ID.
func (p *RPCProvider) NetworkID(ctx context.Context) (*big.Int, error) {
	var result string
	if err := p.client.CallContext(ctx, &result, "net_version"); err != nil {
		return nil, err
	}
	id, ok := new(big.Int).SetString(result, 10)
	if !ok {
		return nil, fmt.Errorf("malformed network id %q", result)
	}
	return id, nil
}

// SendTransaction submits calldata for signing by the wallet.
func (p *RPCProvider) SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	arg := map[string]interface{}{
		"from": from,
		"to":   to,
		"data": hexutil.Bytes(data),
	}
	if value != nil && value.Sign() > 0 {
		arg["value"] = (*hexutil.Big)(value)
	}

	var hash common.Hash
	if err := p.client.CallContext(ctx, &hash, "eth_sendTransaction", arg); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Close releases the underlying RPC connection.
func (p *RPCProvider) Close() {
	p.client.Close()
}

func (p *RPCProvider) call(ctx context.Context, method string) ([]common.Address, error) {
	var result []string
	if err := p.client.CallContext(ctx, &result, method); err != nil {
		return nil, err
	}
	accounts := make([]common.Address, 0, len(result))
	for _, raw := range result {
		accounts = append(accounts, common.HexToAddress(raw))
	}
	return accounts, nil
}

func isMethodNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "method not found") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "not supported")
}
