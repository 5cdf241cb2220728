// Package rpctransport defines the JSON-RPC surface the Log Fetcher and
// block lookups consume, independent of any concrete client library.
package rpctransport

import "context"

// Transport issues the two read-only RPC calls the core needs. Both
// return the raw JSON-RPC envelope string; decoding (result/error
// unwrapping) is the caller's job, per §6.
type Transport interface {
	GetLogs(ctx context.Context, fromBlockHex, toBlockHex, addressHex string, topics [][32]byte) (string, error)
	GetBlockByNumber(ctx context.Context, blockNumber uint64) (string, error)
}
