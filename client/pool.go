package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ErrNoProviders is returned when a pool is constructed without endpoints
var ErrNoProviders = errors.New("no providers configured")

// Pool is an ordered list of interchangeable providers. Failover is per
// call: every call starts from the head of the list and rotates forward on
// failure, so there is no shared mutable "current provider".
type Pool struct {
	clients   []*Client
	logger    *zap.Logger
	rotations prometheus.Counter
}

// NewPool builds a pool over an ordered client list
func NewPool(clients []*Client, logger *zap.Logger) (*Pool, error) {
	if len(clients) == 0 {
		return nil, ErrNoProviders
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		clients: clients,
		logger:  logger,
	}, nil
}

// SetRotationCounter attaches a counter observed on every provider rotation
func (p *Pool) SetRotationCounter(counter prometheus.Counter) {
	p.rotations = counter
}

// Size returns the number of providers in the pool
func (p *Pool) Size() int {
	return len(p.clients)
}

// ClientAt returns the provider for attempt i, wrapping around the ordered
// list so any attempt number maps to a provider.
func (p *Pool) ClientAt(i int) *Client {
	if i < 0 {
		i = -i
	}
	return p.clients[i%len(p.clients)]
}

// Clients returns the ordered provider list
func (p *Pool) Clients() []*Client {
	return p.clients
}

// Do runs fn against each provider in order until one succeeds. The error of
// the last provider is returned when all fail.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context, c *Client) error) error {
	var lastErr error
	for i, c := range p.clients {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i > 0 {
			p.rotated()
		}

		err := fn(ctx, c)
		if err == nil {
			return nil
		}
		lastErr = err

		p.logger.Warn("provider call failed",
			zap.String("endpoint", c.Endpoint()),
			zap.Int("provider_index", i),
			zap.Error(err))
	}

	return fmt.Errorf("all %d providers failed: %w", len(p.clients), lastErr)
}

func (p *Pool) rotated() {
	if p.rotations != nil {
		p.rotations.Inc()
	}
}

// ChainID returns the chain ID from the first provider that answers
func (p *Pool) ChainID(ctx context.Context) (*big.Int, error) {
	var chainID *big.Int
	err := p.Do(ctx, func(ctx context.Context, c *Client) error {
		id, err := c.GetChainID(ctx)
		if err != nil {
			return err
		}
		chainID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chainID, nil
}

// ResolveHead returns the current chain height from the first provider that
// answers
func (p *Pool) ResolveHead(ctx context.Context) (uint64, error) {
	var head uint64
	err := p.Do(ctx, func(ctx context.Context, c *Client) error {
		h, err := c.GetLatestBlockNumber(ctx)
		if err != nil {
			return err
		}
		head = h
		return nil
	})
	if err != nil {
		return 0, err
	}
	return head, nil
}

// HeaderByNumber fetches a block header from the first provider that answers
func (p *Pool) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	var header *types.Header
	err := p.Do(ctx, func(ctx context.Context, c *Client) error {
		h, err := c.GetHeaderByNumber(ctx, number)
		if err != nil {
			return err
		}
		header = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}

// BatchHeaders fetches several block headers in one batch request from the
// first provider that answers. Blocks the provider does not have come back
// as nil entries, not errors.
func (p *Pool) BatchHeaders(ctx context.Context, numbers []uint64) ([]*types.Header, error) {
	var headers []*types.Header
	err := p.Do(ctx, func(ctx context.Context, c *Client) error {
		h, err := c.BatchGetHeaders(ctx, numbers)
		if err != nil {
			return err
		}
		headers = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return headers, nil
}

// TransactionWithReceipt fetches a transaction, its receipt and the sender
// address. All three come from the same provider: sender recovery reads the
// per-connection cache the transaction fetch populates.
func (p *Pool) TransactionWithReceipt(ctx context.Context, hash common.Hash) (*types.Transaction, *types.Receipt, common.Address, error) {
	var (
		tx      *types.Transaction
		receipt *types.Receipt
		sender  common.Address
	)
	err := p.Do(ctx, func(ctx context.Context, c *Client) error {
		t, isPending, err := c.GetTransactionByHash(ctx, hash)
		if err != nil {
			return err
		}
		if isPending {
			return fmt.Errorf("transaction %s not yet mined: %w", hash.Hex(), ethereum.NotFound)
		}
		r, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil {
			return err
		}
		s, err := c.GetTransactionSender(ctx, t, r.BlockHash, uint(r.TransactionIndex))
		if err != nil {
			return err
		}
		tx, receipt, sender = t, r, s
		return nil
	})
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	return tx, receipt, sender, nil
}

// VerifyContract checks that some provider reports contract code at the
// address. Used at startup: indexing a nonexistent contract is a
// configuration error, not something to retry into.
func (p *Pool) VerifyContract(ctx context.Context, address common.Address) error {
	var lastErr error
	for _, c := range p.clients {
		code, err := c.GetCode(ctx, address)
		if err != nil {
			lastErr = err
			p.logger.Warn("contract check failed",
				zap.String("endpoint", c.Endpoint()),
				zap.Error(err))
			continue
		}
		if len(code) == 0 {
			lastErr = fmt.Errorf("no contract code at %s via %s", address.Hex(), c.Endpoint())
			p.logger.Warn("no contract code at address",
				zap.String("endpoint", c.Endpoint()),
				zap.String("address", address.Hex()))
			continue
		}
		return nil
	}

	return fmt.Errorf("contract %s unreachable on every provider: %w", address.Hex(), lastErr)
}

// Close closes every provider connection
func (p *Pool) Close() {
	for _, c := range p.clients {
		c.Close()
	}
}
