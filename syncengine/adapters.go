// Package syncengine orchestrates one sync cycle (§4.10): latest block →
// bootstrap → window → fetch → decode → token/store resolution → batch
// apply, emitting a status message before each phase.
package syncengine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/applypipeline"
	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/rainlanguage/raindex-go/eventdecoder"
	"github.com/rainlanguage/raindex-go/logfetcher"
	"github.com/rainlanguage/raindex-go/orderbook"
)

// EventsAdapter supplies the chain head.
type EventsAdapter interface {
	LatestBlock(ctx context.Context) (uint64, error)
}

// Snapshot is the optional baseline state Bootstrap may load when the
// store is empty for an orderbook.
type Snapshot struct {
	Orders          []orderbook.OrderV4
	VaultBalances   map[orderbook.VaultKey][32]byte
	StoreAddresses  []common.Address
	Watermark       uint64
}

// BootstrapAdapter ensures schema exists and, if empty, loads a baseline
// snapshot. Idempotent.
type BootstrapAdapter interface {
	Bootstrap(ctx context.Context, id orderbook.ID, base *Snapshot, latestBlock, finalityDepth uint64) error
	// PersistedStoreAddresses returns the interpreter-store addresses
	// already known for id, excluding the zero address.
	PersistedStoreAddresses(ctx context.Context, id orderbook.ID) ([]common.Address, error)
}

// WindowAdapter computes [start, target] from the current watermark,
// deployment block, finality depth, and any override.
type WindowAdapter interface {
	Window(ctx context.Context, id orderbook.ID, latestBlock uint64) (start, target uint64, err error)
}

// TokensAdapter loads existing token metadata and fetches missing ERC-20
// metadata.
type TokensAdapter interface {
	ExistingMetadata(ctx context.Context, id orderbook.ID, tokens []common.Address) (map[common.Address]applypipeline.TokenMetadata, error)
	FetchMetadata(ctx context.Context, tokens []common.Address) (map[common.Address]applypipeline.TokenMetadata, error)
}

// ExportAdapter runs the opaque post-sync export hook.
type ExportAdapter interface {
	Export(ctx context.Context, id orderbook.ID) error
}

// Adapters bundles every external collaborator a cycle needs.
type Adapters struct {
	Events    EventsAdapter
	Bootstrap BootstrapAdapter
	Window    WindowAdapter
	Fetcher   *logfetcher.Fetcher
	Decoder   *eventdecoder.Decoder
	Tokens    TokensAdapter
	DB        dbexec.Executor
	Export    ExportAdapter
	Status    chan<- string
}
