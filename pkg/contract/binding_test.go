package contract

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mintvault/marketsync/pkg/config"
	mkterrors "github.com/mintvault/marketsync/pkg/errors"
	"github.com/mintvault/marketsync/pkg/logging"
)

const testAddr = "0x2E9d30761DB97706C536A112B9466433032b28e3"

type fakeBackend struct {
	networkID  *big.Int
	networkErr error

	callResult []byte
	callErr    error
	callCount  int

	receipt    *types.Receipt
	receiptErr error
}

func (f *fakeBackend) NetworkID(ctx context.Context) (*big.Int, error) {
	if f.networkErr != nil {
		return nil, f.networkErr
	}
	return f.networkID, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.callCount++
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.callResult, nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return f.receipt, nil
}

type fakeSender struct {
	hash    common.Hash
	err     error
	lastTo  common.Address
	lastVal *big.Int
}

func (f *fakeSender) SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	f.lastTo = to
	f.lastVal = value
	if f.err != nil {
		return common.Hash{}, f.err
	}
	return f.hash, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Networks = map[uint64]string{
		5777: testAddr,
	}
	cfg.Sync.ReceiptPollInterval = 10 * time.Millisecond
	cfg.Sync.ReceiptTimeout = 200 * time.Millisecond
	return cfg
}

func newTestBinding(t *testing.T, backend Backend) *Binding {
	t.Helper()
	b, err := NewBinding(testConfig(), backend, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewBinding: %v", err)
	}
	return b
}

func TestResolveKnownNetwork(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(5777)}
	b := newTestBinding(t, backend)

	handle, err := b.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle.NetworkID != 5777 {
		t.Errorf("expected network 5777, got %d", handle.NetworkID)
	}
	if handle.Address != common.HexToAddress(testAddr) {
		t.Errorf("handle address does not match table: %s", handle.Address.Hex())
	}
}

func TestResolveUnsupportedNetwork(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(1)}
	b := newTestBinding(t, backend)

	_, err := b.Resolve(context.Background())
	if !mkterrors.IsUnsupportedNetwork(err) {
		t.Fatalf("expected UnsupportedNetwork, got %v", err)
	}
}

func TestResolveTransportFailure(t *testing.T) {
	backend := &fakeBackend{networkErr: errors.New("connection refused")}
	b := newTestBinding(t, backend)

	_, err := b.Resolve(context.Background())
	if mkterrors.CodeOf(err) != mkterrors.CodeRPCError {
		t.Fatalf("expected RPC_ERROR, got %v", err)
	}
}

func packRecords(t *testing.T, method string, records []RawRecord) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(marketABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	out, err := parsed.Methods[method].Outputs.Pack(records)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}
	return out
}

func sampleRecords() []RawRecord {
	return []RawRecord{
		{
			Id:          big.NewInt(1),
			Owner:       common.HexToAddress(testAddr),
			Cost:        big.NewInt(1500000000000000000),
			Title:       "Sunset",
			Description: "oil on canvas",
			MetadataURI: "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
			Timestamp:   big.NewInt(1700000000),
		},
		{
			Id:          big.NewInt(2),
			Owner:       common.HexToAddress(testAddr),
			Cost:        big.NewInt(250000000000000000),
			Title:       "Moonrise",
			Description: "digital",
			MetadataURI: "https://dweb.link/ipfs/QmNLei78zWmzUdbeRB3CiUfAizWUrbeeZh5K1rhAQKCh51",
			Timestamp:   big.NewInt(1700000100),
		},
	}
}

func TestGetAllNFTsRoundTrip(t *testing.T) {
	want := sampleRecords()
	backend := &fakeBackend{
		networkID:  big.NewInt(5777),
		callResult: packRecords(t, MethodGetAllNFTs, want),
	}
	b := newTestBinding(t, backend)

	handle, err := b.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := b.GetAllNFTs(context.Background(), handle)
	if err != nil {
		t.Fatalf("GetAllNFTs: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Id.Cmp(want[i].Id) != 0 || got[i].Title != want[i].Title ||
			got[i].MetadataURI != want[i].MetadataURI || got[i].Cost.Cmp(want[i].Cost) != 0 {
			t.Errorf("record %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestStaleHandleAfterNetworkSwitch(t *testing.T) {
	backend := &fakeBackend{
		networkID:  big.NewInt(5777),
		callResult: packRecords(t, MethodGetAllNFTs, nil),
	}
	b := newTestBinding(t, backend)

	handle, err := b.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Network switches under the client.
	backend.networkID = big.NewInt(1)

	_, err = b.GetAllNFTs(context.Background(), handle)
	if !mkterrors.IsStaleHandle(err) {
		t.Fatalf("expected StaleHandle for stale handle, got %v", err)
	}

	// A fresh resolve against the new network fails distinctly: the new
	// network has no deployment.
	_, err = b.Resolve(context.Background())
	if !mkterrors.IsUnsupportedNetwork(err) {
		t.Fatalf("expected UnsupportedNetwork after switch, got %v", err)
	}
}

func TestEnumerateTransportFailure(t *testing.T) {
	backend := &fakeBackend{
		networkID: big.NewInt(5777),
		callErr:   errors.New("rpc: dial tcp: connection refused"),
	}
	b := newTestBinding(t, backend)

	handle, _ := b.Resolve(context.Background())
	_, err := b.GetAllTransactions(context.Background(), handle)
	if mkterrors.CodeOf(err) != mkterrors.CodeRPCError {
		t.Fatalf("expected RPC_ERROR, got %v", err)
	}
}

func TestClassifySendError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"metamask style denial", errors.New("MetaMask Tx Signature: User denied transaction signature."), mkterrors.CodeUserRejected},
		{"generic rejection", errors.New("request rejected by user"), mkterrors.CodeUserRejected},
		{"insufficient funds", errors.New("insufficient funds for gas * price + value"), mkterrors.CodeInsufficientFunds},
		{"transport", errors.New("connection reset by peer"), mkterrors.CodeRPCError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mkterrors.CodeOf(classifySendError(MethodPayToMint, tt.err)); got != tt.code {
				t.Errorf("expected %s, got %s", tt.code, got)
			}
		})
	}
}

func TestPayToMintSendsFixedFee(t *testing.T) {
	hash := common.HexToHash("0xf00d")
	backend := &fakeBackend{
		networkID: big.NewInt(5777),
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(42),
		},
	}
	b := newTestBinding(t, backend)
	sender := &fakeSender{hash: hash}

	handle, _ := b.Resolve(context.Background())
	receipt, err := b.PayToMint(context.Background(), handle, sender, common.HexToAddress(testAddr), MintParams{
		Title:       "Sunset",
		Description: "oil on canvas",
		MetadataURI: "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		PriceWei:    big.NewInt(1500000000000000000),
	})
	if err != nil {
		t.Fatalf("PayToMint: %v", err)
	}
	if !receipt.Succeeded() {
		t.Errorf("expected success receipt, got %+v", receipt)
	}
	if sender.lastVal.String() != "10000000000000000" {
		t.Errorf("expected fixed 0.01 ETH mint fee, got %s wei", sender.lastVal)
	}
	if sender.lastTo != handle.Address {
		t.Errorf("transaction not addressed to contract: %s", sender.lastTo.Hex())
	}
}

func TestSendUserRejectionIsTerminal(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(5777)}
	b := newTestBinding(t, backend)
	sender := &fakeSender{err: errors.New("User denied transaction signature")}

	handle, _ := b.Resolve(context.Background())
	_, err := b.PayToBuy(context.Background(), handle, sender, common.HexToAddress(testAddr),
		big.NewInt(1), big.NewInt(250000000000000000))
	if !mkterrors.IsUserRejected(err) {
		t.Fatalf("expected user rejection, got %v", err)
	}
}

func TestWaitReceiptTimesOutToPending(t *testing.T) {
	backend := &fakeBackend{
		networkID:  big.NewInt(5777),
		receiptErr: ethereum.NotFound,
	}
	b := newTestBinding(t, backend)
	sender := &fakeSender{hash: common.HexToHash("0xbeef")}

	handle, _ := b.Resolve(context.Background())
	receipt, err := b.ChangePrice(context.Background(), handle, sender, common.HexToAddress(testAddr),
		big.NewInt(1), big.NewInt(1000000000000000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !receipt.Pending {
		t.Errorf("expected pending receipt after timeout, got %+v", receipt)
	}
	if receipt.Succeeded() {
		t.Error("pending receipt must not count as success")
	}
}
