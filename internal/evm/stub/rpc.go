package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/evm"
)

// ErrNoResult is returned when no canned call result is registered.
var ErrNoResult = errors.New("no result registered")

// RPCClient implements evm.RPCClient for testing.
// Call results are keyed by the 4-byte selector of the call data.
type RPCClient struct {
	mu sync.Mutex

	ChainIDValue uint64
	Block        uint64
	Results      map[[4]byte][]byte
	Receipts     map[common.Hash]*domain.Receipt
	CallErr      error

	Calls []evm.CallMsg
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient(chainID uint64) *RPCClient {
	return &RPCClient{
		ChainIDValue: chainID,
		Results:      make(map[[4]byte][]byte),
		Receipts:     make(map[common.Hash]*domain.Receipt),
	}
}

// SetResult registers the raw return data for a selector.
func (c *RPCClient) SetResult(selector []byte, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var key [4]byte
	copy(key[:], selector)
	c.Results[key] = data
}

// SetReceipt registers a receipt for hash.
func (c *RPCClient) SetReceipt(r *domain.Receipt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Receipts[r.TxHash] = r
}

// CallCount returns the number of eth_call requests observed.
func (c *RPCClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// ChainID returns the configured chain id.
func (c *RPCClient) ChainID(_ context.Context) (uint64, error) {
	return c.ChainIDValue, nil
}

// BlockNumber returns the configured block number.
func (c *RPCClient) BlockNumber(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Block, nil
}

// Call returns the result registered for the call's selector.
func (c *RPCClient) Call(_ context.Context, msg evm.CallMsg) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, msg)
	if c.CallErr != nil {
		return nil, c.CallErr
	}
	if len(msg.Data) < 4 {
		return nil, ErrNoResult
	}

	var key [4]byte
	copy(key[:], msg.Data[:4])
	data, ok := c.Results[key]
	if !ok {
		return nil, ErrNoResult
	}
	return data, nil
}

// GetTransactionReceipt returns the registered receipt or nil while pending.
func (c *RPCClient) GetTransactionReceipt(_ context.Context, hash common.Hash) (*domain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Receipts[hash], nil
}

var _ evm.RPCClient = (*RPCClient)(nil)
