package twap

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Canonical Uniswap V3 deployment parameters on Ethereum mainnet. Forks with
// the same pool bytecode use their own factory and init code hash.
var (
	DefaultFactory      = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	DefaultInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")
)

// SortTokens orders a token pair the way pools store them: lower address
// first. The returned order decides the price orientation.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if tokenA.Cmp(tokenB) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// PoolAddress derives the CREATE2 address of the pool for a pair and fee
// tier. The derivation is a pure function of its inputs; it does not check
// that a pool is actually deployed there.
func PoolAddress(factory, tokenA, tokenB common.Address, fee uint32, initCodeHash common.Hash) common.Address {
	token0, token1 := SortTokens(tokenA, tokenB)
	salt := crypto.Keccak256Hash(encodePoolKey(token0, token1, fee))
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes())
}

// encodePoolKey ABI-encodes (token0, token1, fee) as three 32-byte words.
func encodePoolKey(token0, token1 common.Address, fee uint32) []byte {
	buf := make([]byte, 96)
	copy(buf[12:32], token0.Bytes())
	copy(buf[44:64], token1.Bytes())
	buf[92] = byte(fee >> 24)
	buf[93] = byte(fee >> 16)
	buf[94] = byte(fee >> 8)
	buf[95] = byte(fee)
	return buf
}
