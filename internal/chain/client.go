package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC and provides the read calls the consultant
// needs: contract calls, code lookups, and block stamping.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// CodeAt returns the contract code at the given address.
func (c *Client) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CodeAt(ctx, account, blockNumber)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
