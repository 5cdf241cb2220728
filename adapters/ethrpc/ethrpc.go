// Package ethrpc adapts go-ethereum's own JSON-RPC client to the narrow
// rpctransport.Transport and syncengine.EventsAdapter boundaries, the same
// way the teacher's own nodes talk to peers and light clients over
// *rpc.Client rather than a hand-rolled HTTP layer.
package ethrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps an *rpc.Client dialed against one chain endpoint.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to a JSON-RPC endpoint (ws://, http(s)://, or a local IPC
// path — whatever rpc.DialContext accepts).
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("ethrpc: dial %s: %w", endpoint, err)
	}
	return &Client{rpc: c}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

// logFilterParams mirrors eth_getLogs' positional JSON-RPC filter object.
type logFilterParams struct {
	FromBlock string        `json:"fromBlock"`
	ToBlock   string        `json:"toBlock"`
	Address   string        `json:"address"`
	Topics    [][]common.Hash `json:"topics"`
}

// GetLogs implements rpctransport.Transport by calling eth_getLogs with a
// single topic-0 alternation (an OR across the fixed eight-signature set).
func (c *Client) GetLogs(ctx context.Context, fromBlockHex, toBlockHex, addressHex string, topics [][32]byte) (string, error) {
	topic0 := make([]common.Hash, len(topics))
	for i, t := range topics {
		topic0[i] = common.Hash(t)
	}
	var raw json.RawMessage
	err := c.rpc.CallContext(ctx, &raw, "eth_getLogs", logFilterParams{
		FromBlock: fromBlockHex,
		ToBlock:   toBlockHex,
		Address:   addressHex,
		Topics:    [][]common.Hash{topic0},
	})
	if err != nil {
		log.Debug("ethrpc: eth_getLogs failed", "from", fromBlockHex, "to", toBlockHex, "err", err)
		return "", err
	}
	return envelope(raw), nil
}

// GetBlockByNumber implements rpctransport.Transport by calling
// eth_getBlockByNumber without full transaction bodies.
func (c *Client) GetBlockByNumber(ctx context.Context, blockNumber uint64) (string, error) {
	var raw json.RawMessage
	err := c.rpc.CallContext(ctx, &raw, "eth_getBlockByNumber", fmt.Sprintf("0x%x", blockNumber), false)
	if err != nil {
		log.Debug("ethrpc: eth_getBlockByNumber failed", "block", blockNumber, "err", err)
		return "", err
	}
	return envelope(raw), nil
}

// LatestBlock implements syncengine.EventsAdapter via eth_blockNumber.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	var hex string
	if err := c.rpc.CallContext(ctx, &hex, "eth_blockNumber"); err != nil {
		return 0, err
	}
	var n uint64
	if _, err := fmt.Sscanf(hex, "0x%x", &n); err != nil {
		return 0, fmt.Errorf("ethrpc: malformed block number %q: %w", hex, err)
	}
	return n, nil
}

// envelope re-wraps an already-unwrapped rpc.Client result back into the
// {"result": ...} shape logfetcher.decodeEnvelope expects, since rpc.Client
// strips the envelope itself.
func envelope(result json.RawMessage) string {
	return fmt.Sprintf(`{"result":%s}`, string(result))
}
