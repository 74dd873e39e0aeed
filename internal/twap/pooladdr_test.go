package twap

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func TestSortTokens(t *testing.T) {
	a, b := SortTokens(weth, usdc)
	if a != usdc || b != weth {
		t.Fatalf("sort mismatch: %s, %s", a.Hex(), b.Hex())
	}

	a, b = SortTokens(usdc, weth)
	if a != usdc || b != weth {
		t.Fatalf("sorted inputs reordered: %s, %s", a.Hex(), b.Hex())
	}
}

func TestPoolAddressMainnet(t *testing.T) {
	// USDC/WETH 0.3% on Ethereum mainnet.
	want := common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")

	got := PoolAddress(DefaultFactory, usdc, weth, 3000, DefaultInitCodeHash)
	if got != want {
		t.Fatalf("pool address mismatch: got %s, want %s", got.Hex(), want.Hex())
	}
}

func TestPoolAddressOrderIndependent(t *testing.T) {
	forward := PoolAddress(DefaultFactory, usdc, weth, 500, DefaultInitCodeHash)
	reversed := PoolAddress(DefaultFactory, weth, usdc, 500, DefaultInitCodeHash)
	if forward != reversed {
		t.Fatalf("derivation depends on argument order: %s != %s", forward.Hex(), reversed.Hex())
	}
}

func TestPoolAddressVariesByFee(t *testing.T) {
	fee500 := PoolAddress(DefaultFactory, usdc, weth, 500, DefaultInitCodeHash)
	fee3000 := PoolAddress(DefaultFactory, usdc, weth, 3000, DefaultInitCodeHash)
	if fee500 == fee3000 {
		t.Fatalf("fee tiers map to the same pool: %s", fee500.Hex())
	}
}
