package contract

import (
	"math/big"
	"testing"
)

func TestWeiToEth(t *testing.T) {
	tests := []struct {
		wei  string
		want string
	}{
		{"1000000000000000000", "1"},
		{"1500000000000000000", "1.5"},
		{"10000000000000000", "0.01"},
		{"1", "0.000000000000000001"},
		{"0", "0"},
		{"2500000000000000000000", "2500"},
	}
	for _, tt := range tests {
		t.Run(tt.wei, func(t *testing.T) {
			wei, _ := new(big.Int).SetString(tt.wei, 10)
			if got := WeiToEth(wei); got != tt.want {
				t.Errorf("WeiToEth(%s) = %q, want %q", tt.wei, got, tt.want)
			}
		})
	}

	if got := WeiToEth(nil); got != "0" {
		t.Errorf("WeiToEth(nil) = %q, want 0", got)
	}
}

func TestEthToWei(t *testing.T) {
	tests := []struct {
		eth     string
		want    string
		wantErr bool
	}{
		{"1", "1000000000000000000", false},
		{"1.5", "1500000000000000000", false},
		{"0.01", "10000000000000000", false},
		{"0.000000000000000001", "1", false},
		{"0.0000000000000000001", "", true}, // sub-wei
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.eth, func(t *testing.T) {
			wei, err := EthToWei(tt.eth)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.eth)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if wei.String() != tt.want {
				t.Errorf("EthToWei(%q) = %s, want %s", tt.eth, wei, tt.want)
			}
		})
	}
}

func TestWeiRoundTrip(t *testing.T) {
	original := big.NewInt(1234500000000000000)
	back, err := EthToWei(WeiToEth(original))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if back.Cmp(original) != 0 {
		t.Errorf("round trip lost precision: %s != %s", back, original)
	}
}
