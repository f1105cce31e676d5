package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Head is the chain tip seen when a run starts.
type Head struct {
	ChainID   *big.Int
	Number    uint64
	Timestamp uint64
}

// Client reads aggregator answers and token metadata from a live chain.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

var _ Caller = (*Client)(nil)

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Head fetches the chain id and the latest header.
func (c *Client) Head(ctx context.Context) (Head, error) {
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return Head{}, fmt.Errorf("chain id: %w", err)
	}
	header, err := c.ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return Head{}, fmt.Errorf("latest header: %w", err)
	}
	return Head{ChainID: id, Number: header.Number.Uint64(), Timestamp: header.Time}, nil
}

// CallContract performs an eth_call against the given block, or the latest
// when blockNumber is nil.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
