package contract

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Monetary values cross the contract boundary only as integer wei.
// Conversion to and from human decimal ETH happens here, in exact decimal
// arithmetic; floats never touch money.

const weiDecimals = 18

// WeiToEth renders a wei amount as a decimal ETH string, e.g.
// 1500000000000000000 -> "1.5".
func WeiToEth(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -weiDecimals).String()
}

// EthToWei parses a decimal ETH string into integer wei. Amounts with
// more than 18 fractional digits are rejected rather than rounded.
func EthToWei(eth string) (*big.Int, error) {
	d, err := decimal.NewFromString(eth)
	if err != nil {
		return nil, fmt.Errorf("invalid ETH amount %q: %w", eth, err)
	}
	shifted := d.Shift(weiDecimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("ETH amount %q has sub-wei precision", eth)
	}
	return shifted.BigInt(), nil
}
