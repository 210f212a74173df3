package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Client wraps an Ethereum JSON-RPC connection to one provider endpoint
type Client struct {
	ethClient *ethclient.Client
	rpcClient *rpc.Client
	endpoint  string
	logger    *zap.Logger
}

// Config holds client configuration
type Config struct {
	Endpoint string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewClient connects to a single RPC endpoint and verifies it answers
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	rpcClient, err := rpc.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	ethClient := ethclient.NewClient(rpcClient)

	client := &Client{
		ethClient: ethClient,
		rpcClient: rpcClient,
		endpoint:  cfg.Endpoint,
		logger:    logger,
	}

	// Verify connection
	if err := client.Ping(ctx); err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to ping RPC endpoint: %w", err)
	}

	logger.Info("connected to RPC provider",
		zap.String("endpoint", cfg.Endpoint))

	return client, nil
}

// Endpoint returns the endpoint URL this client is connected to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ping verifies the connection to the RPC endpoint
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ethClient.ChainID(ctx)
	return err
}

// Close closes the client connection
func (c *Client) Close() {
	if c.ethClient != nil {
		c.ethClient.Close()
	}
}

// GetChainID returns the chain ID
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainID, nil
}

// GetLatestBlockNumber returns the current chain head height
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	blockNumber, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	return blockNumber, nil
}

// GetHeaderByNumber fetches a block header by number. Headers carry the hash
// and timestamp the engine needs; full block bodies are never fetched.
func (c *Client) GetHeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("failed to get header %d: %w", number, err)
	}
	return header, nil
}

// FilterLogs runs an eth_getLogs query
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	logs, err := c.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs: %w", err)
	}
	return logs, nil
}

// GetTransactionByHash fetches a transaction by its hash
func (c *Client) GetTransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	tx, isPending, err := c.ethClient.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get transaction %s: %w", hash.Hex(), err)
	}
	return tx, isPending, nil
}

// GetTransactionReceipt fetches a transaction receipt
func (c *Client) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := c.ethClient.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}

// GetTransactionSender recovers the sender of a mined transaction. The
// receipt supplies the block hash and index.
func (c *Client) GetTransactionSender(ctx context.Context, tx *types.Transaction, blockHash common.Hash, index uint) (common.Address, error) {
	sender, err := c.ethClient.TransactionSender(ctx, tx, blockHash, index)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get sender of %s: %w", tx.Hash().Hex(), err)
	}
	return sender, nil
}

// GetCode returns the contract code at an address, at the latest block
func (c *Client) GetCode(ctx context.Context, address common.Address) ([]byte, error) {
	code, err := c.ethClient.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get code at %s: %w", address.Hex(), err)
	}
	return code, nil
}

// BatchGetHeaders fetches multiple block headers in a single batch request
func (c *Client) BatchGetHeaders(ctx context.Context, numbers []uint64) ([]*types.Header, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	headers := make([]*types.Header, len(numbers))
	batch := make([]rpc.BatchElem, len(numbers))

	for i, num := range numbers {
		batch[i] = rpc.BatchElem{
			Method: "eth_getBlockByNumber",
			Args:   []interface{}{fmt.Sprintf("0x%x", num), false},
			Result: &headers[i],
		}
	}

	if err := c.rpcClient.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("batch call failed: %w", err)
	}

	// Check for individual errors
	for i, elem := range batch {
		if elem.Error != nil {
			c.logger.Error("failed to fetch header in batch",
				zap.Uint64("block_number", numbers[i]),
				zap.Error(elem.Error))
			return nil, fmt.Errorf("failed to fetch header %d: %w", numbers[i], elem.Error)
		}
	}

	return headers, nil
}
