package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mintvault/marketsync/pkg/cli"
)

var (
	configPath = ""
	format     = "table"
	timeout    = 120 * time.Second
)

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	// Parse global flags
	args = parseGlobalFlags(args)

	switch command {
	case "version":
		fmt.Printf("marketsync %s", version)
		if commit != "" {
			fmt.Printf(" (commit %s)", commit)
		}
		if date != "" {
			fmt.Printf(" built %s", date)
		}
		fmt.Println()
		return

	// Read path
	case "sync":
		cli.HandleSyncCommand(configPath, format, timeout)
	case "watch":
		cli.HandleWatchCommand(configPath)
	case "status":
		cli.HandleStatusCommand(configPath, format, timeout)

	// Write path
	case "mint":
		cli.HandleMintCommand(args, configPath, timeout)
	case "buy":
		cli.HandleBuyCommand(args, configPath, timeout)
	case "price":
		cli.HandlePriceCommand(args, configPath, timeout)

	// Help
	case "help", "--help", "-h":
		showHelp()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		showHelp()
		os.Exit(1)
	}
}

// parseGlobalFlags extracts the global flags and returns the remaining
// positional arguments.
func parseGlobalFlags(args []string) []string {
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		case "--timeout", "-t":
			if i+1 < len(args) {
				if d, err := time.ParseDuration(args[i+1]); err == nil {
					timeout = d
				}
				i++
			}
		default:
			rest = append(rest, args[i])
		}
	}
	return rest
}

func showHelp() {
	fmt.Printf(`marketsync %s - NFT marketplace sync client

Usage: marketsync <command> [arguments] [flags]

Commands:
  sync                                            Run one full sync pass and print the collections
  watch                                           Follow wallet and chain changes until interrupted
  status                                          Show session and contract binding state
  mint <title> <description> <uri> <price-eth>    Mint a new NFT at the given listing price
  buy <id> <cost-eth>                             Purchase an NFT at its listed cost
  price <id> <new-price-eth>                      Change the listing price of an owned NFT
  version                                         Show version information
  help                                            Show this help

Flags:
  --config, -c <path>       Config file (defaults apply when omitted)
  --format, -f <format>     Output format: table or json (default: table)
  --timeout, -t <duration>  Command timeout (default: 120s)
`, version)
}
