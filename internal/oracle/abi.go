package oracle

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const v3PoolOracleABIJSON = `[
  {
    "inputs": [{"internalType": "uint32[]", "name": "secondsAgos", "type": "uint32[]"}],
    "name": "observe",
    "outputs": [
      {"internalType": "int56[]", "name": "tickCumulatives", "type": "int56[]"},
      {"internalType": "uint160[]", "name": "secondsPerLiquidityCumulativeX128s", "type": "uint160[]"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "slot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
      {"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
      {"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
      {"internalType": "bool", "name": "unlocked", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	poolOracleABI    abi.ABI
	poolOracleOnce   sync.Once
	poolOracleABIErr error
)

// V3PoolOracleABI returns the parsed oracle-facing slice of the V3 pool ABI.
func V3PoolOracleABI() (abi.ABI, error) {
	poolOracleOnce.Do(func() {
		poolOracleABI, poolOracleABIErr = abi.JSON(strings.NewReader(v3PoolOracleABIJSON))
	})
	return poolOracleABI, poolOracleABIErr
}
