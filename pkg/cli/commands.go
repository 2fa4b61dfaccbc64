package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mintvault/marketsync/pkg/bus"
	"github.com/mintvault/marketsync/pkg/contract"
	"github.com/mintvault/marketsync/pkg/market"
	"github.com/mintvault/marketsync/pkg/store"
)

// HandleSyncCommand runs one full sync pass and prints the assembled
// collections.
func HandleSyncCommand(configPath, format string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cli, err := createClient(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer cli.Disconnect()

	if _, err := cli.connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect wallet: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Assembler.Sync(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}

	nfts, _ := cli.Store.Get(store.KeyNFTs).([]market.NormalizedRecord)
	txs, _ := cli.Store.Get(store.KeyTransactions).([]market.NormalizedRecord)

	if format == "json" {
		printJSON(map[string]interface{}{
			"nfts":         nfts,
			"transactions": txs,
		})
		return
	}
	printRecords("🖼  Minted NFTs", nfts)
	printRecords("💸 Transactions", txs)
}

// HandleWatchCommand connects, syncs, and keeps following wallet and
// chain changes until interrupted.
func HandleWatchCommand(configPath string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli, err := createClient(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer cli.Disconnect()

	account, err := cli.connect(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect wallet: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("👛 Watching as %s\n", account)

	cli.Store.Subscribe(store.KeyNFTs, func(_ string, value interface{}) {
		records, _ := value.([]market.NormalizedRecord)
		fmt.Printf("🔄 Collection updated: %d NFTs\n", len(records))
	})
	cli.Store.Subscribe(store.KeyAlert, func(_ string, value interface{}) {
		if alert, ok := value.(store.Alert); ok {
			fmt.Printf("🚨 %s\n", alert.Message)
		}
	})
	cli.Bus.Subscribe(bus.TopicNetworkChanged, func(e bus.Event) {
		fmt.Printf("🌐 Network changed to %d\n", e.NetworkID)
	})
	cli.Bus.Subscribe(bus.TopicAccountsChanged, func(e bus.Event) {
		fmt.Printf("👛 Account changed to %s\n", e.Account)
	})

	cli.Session.Start(ctx)
	cli.Assembler.Start(ctx)
	if err := cli.Assembler.Sync(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Initial sync failed: %v\n", err)
	}

	<-ctx.Done()
	fmt.Println("\nStopping watcher")
}

// HandleStatusCommand prints the session and binding state.
func HandleStatusCommand(configPath, format string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cli, err := createClient(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer cli.Disconnect()

	connected := cli.Session.CheckExistingConnection(ctx)
	session := cli.Session.Session()

	status := market.BindingStatus{}
	if handle, err := cli.Binding.Resolve(ctx); err == nil {
		status = market.BindingStatus{
			Bound:     true,
			NetworkID: handle.NetworkID,
			Address:   handle.Address.Hex(),
		}
	}

	if format == "json" {
		printJSON(map[string]interface{}{
			"connected": connected,
			"account":   session.Account,
			"networkId": session.NetworkID,
			"contract":  status,
			"gateways":  cli.Resolver.Chain(),
		})
		return
	}

	fmt.Printf("🔌 Session Status\n")
	fmt.Printf("Connected: %s\n", getBoolEmoji(connected)+strconv.FormatBool(connected))
	if connected {
		fmt.Printf("Account: %s\n", session.Account)
		fmt.Printf("Network: %d\n", session.NetworkID)
	}
	if status.Bound {
		fmt.Printf("Contract: %s (network %d)\n", status.Address, status.NetworkID)
	} else {
		fmt.Printf("Contract: ❌ not deployed on the active network\n")
	}
	fmt.Printf("Gateways: %v\n", cli.Resolver.Chain())
}

// HandleMintCommand mints a new NFT: marketsync mint <title> <description> <metadata-uri> <price-eth>
func HandleMintCommand(args []string, configPath string, timeout time.Duration) {
	if len(args) < 4 {
		fmt.Fprintf(os.Stderr, "Usage: marketsync mint <title> <description> <metadata-uri> <price-eth>\n")
		os.Exit(1)
	}

	price, err := contract.EthToWei(args[3])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid price %q: %v\n", args[3], err)
		os.Exit(1)
	}

	runWrite(configPath, timeout, func(ctx context.Context, cli *Client, handle contract.Handle, from common.Address) (*contract.TxReceipt, error) {
		return cli.Binding.PayToMint(ctx, handle, cli.Provider, from, contract.MintParams{
			Title:       args[0],
			Description: args[1],
			MetadataURI: args[2],
			PriceWei:    price,
		})
	})
}

// HandleBuyCommand purchases an NFT: marketsync buy <id> <cost-eth>
func HandleBuyCommand(args []string, configPath string, timeout time.Duration) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: marketsync buy <id> <cost-eth>\n")
		os.Exit(1)
	}

	id, cost := parseIDAndAmount(args[0], args[1])
	runWrite(configPath, timeout, func(ctx context.Context, cli *Client, handle contract.Handle, from common.Address) (*contract.TxReceipt, error) {
		return cli.Binding.PayToBuy(ctx, handle, cli.Provider, from, id, cost)
	})
}

// HandlePriceCommand updates a listing price: marketsync price <id> <new-price-eth>
func HandlePriceCommand(args []string, configPath string, timeout time.Duration) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: marketsync price <id> <new-price-eth>\n")
		os.Exit(1)
	}

	id, price := parseIDAndAmount(args[0], args[1])
	runWrite(configPath, timeout, func(ctx context.Context, cli *Client, handle contract.Handle, from common.Address) (*contract.TxReceipt, error) {
		return cli.Binding.ChangePrice(ctx, handle, cli.Provider, from, id, price)
	})
}

// runWrite is the shared write-path scaffold: connect, resolve the
// contract, submit exactly once, and print the outcome.
func runWrite(configPath string, timeout time.Duration, submit func(context.Context, *Client, contract.Handle, common.Address) (*contract.TxReceipt, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cli, err := createClient(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer cli.Disconnect()

	account, err := cli.connect(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect wallet: %v\n", err)
		os.Exit(1)
	}

	handle, err := cli.Binding.Resolve(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Contract not available: %v\n", err)
		os.Exit(1)
	}

	receipt, err := submit(ctx, cli, handle, common.HexToAddress(account))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Transaction failed: %v\n", err)
		os.Exit(1)
	}
	printReceipt(receipt)

	// Refresh the collections so the change is visible immediately.
	if err := cli.Assembler.Sync(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Post-transaction sync failed: %v\n", err)
	}
}

func parseIDAndAmount(rawID, rawEth string) (*big.Int, *big.Int) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid id %q: %v\n", rawID, err)
		os.Exit(1)
	}
	amount, err := contract.EthToWei(rawEth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid amount %q: %v\n", rawEth, err)
		os.Exit(1)
	}
	return big.NewInt(id), amount
}

// Output helpers

func printRecords(title string, records []market.NormalizedRecord) {
	fmt.Printf("%s (%d)\n\n", title, len(records))
	if len(records) == 0 {
		fmt.Printf("No records\n\n")
		return
	}

	fmt.Printf("%-5s | %-12s | %-44s | %s\n", "ID", "COST (ETH)", "OWNER", "TITLE")
	for _, r := range records {
		marker := ""
		if r.Degraded {
			marker = " ⚠"
		}
		fmt.Printf("%-5d | %-12s | %-44s | %s%s\n", r.ID, r.CostEth, r.Owner, r.Title, marker)
	}
	fmt.Println()
}

func printReceipt(receipt *contract.TxReceipt) {
	if receipt.Pending {
		fmt.Printf("⏳ Transaction pending: %s\n", receipt.TxHash.Hex())
		fmt.Printf("   Not mined within the receipt window; it may still confirm.\n")
		return
	}
	if receipt.Succeeded() {
		fmt.Printf("✅ Transaction mined: %s (block %d)\n", receipt.TxHash.Hex(), receipt.BlockNumber)
	} else {
		fmt.Printf("❌ Transaction reverted: %s (block %d)\n", receipt.TxHash.Hex(), receipt.BlockNumber)
	}
}

func printJSON(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal JSON: %v\n", err)
		return
	}
	fmt.Println(string(jsonData))
}

func getBoolEmoji(b bool) string {
	if b {
		return "🟢 "
	}
	return "🔴 "
}
