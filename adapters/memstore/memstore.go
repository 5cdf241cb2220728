// Package memstore is an in-memory implementation of every Sync Engine
// adapter interface plus dbexec.Executor, the way the teacher's own simulated
// backend (a pure in-memory chain) stands in for a live node in tests and
// CLI dry runs — no disk, no network, fully inspectable afterwards.
package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/applypipeline"
	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/syncengine"
)

// Store bundles BootstrapAdapter, WindowAdapter, TokensAdapter,
// ExportAdapter, and dbexec.Executor over plain maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	deploymentBlock uint64
	finalityDepth   uint64

	watermark map[orderbook.ID]uint64
	stores    map[orderbook.ID]map[common.Address]bool
	tokens    map[common.Address]applypipeline.TokenMetadata
	batches   []dbexec.Batch
	exports   int
}

// New returns an empty store. deploymentBlock and finalityDepth seed the
// window computation for any orderbook ID never bootstrapped with a
// Snapshot carrying its own watermark.
func New(deploymentBlock, finalityDepth uint64) *Store {
	return &Store{
		deploymentBlock: deploymentBlock,
		finalityDepth:   finalityDepth,
		watermark:       make(map[orderbook.ID]uint64),
		stores:          make(map[orderbook.ID]map[common.Address]bool),
		tokens:          make(map[common.Address]applypipeline.TokenMetadata),
	}
}

// Bootstrap seeds the watermark and any baseline store addresses the first
// time an orderbook ID is seen; later calls are no-ops, matching the
// idempotent contract.
func (s *Store) Bootstrap(ctx context.Context, id orderbook.ID, base *syncengine.Snapshot, latestBlock, finalityDepth uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watermark[id]; ok {
		return nil
	}
	wm := s.deploymentBlock
	if base != nil {
		wm = base.Watermark
		for _, addr := range base.StoreAddresses {
			s.addStoreLocked(id, addr)
		}
	}
	s.watermark[id] = wm
	return nil
}

// PersistedStoreAddresses returns every interpreter-store address recorded
// for id so far, via Bootstrap's baseline or prior insert_store_address
// statements.
func (s *Store) PersistedStoreAddresses(ctx context.Context, id orderbook.ID) ([]common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs := make([]common.Address, 0, len(s.stores[id]))
	for addr := range s.stores[id] {
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func (s *Store) addStoreLocked(id orderbook.ID, addr common.Address) {
	if addr == (common.Address{}) {
		return
	}
	if s.stores[id] == nil {
		s.stores[id] = make(map[common.Address]bool)
	}
	s.stores[id][addr] = true
}

// Window computes [watermark+1, latestBlock-finalityDepth], or an empty
// window (start > target) once the chain head hasn't advanced far enough
// past the configured finality depth.
func (s *Store) Window(ctx context.Context, id orderbook.ID, latestBlock uint64) (uint64, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wm, ok := s.watermark[id]
	start := s.deploymentBlock
	if ok && wm >= s.deploymentBlock {
		start = wm + 1
	}
	if latestBlock < s.finalityDepth {
		return start, 0, nil
	}
	target := latestBlock - s.finalityDepth
	return start, target, nil
}

// ExistingMetadata returns whatever subset of tokens this store already
// has cached.
func (s *Store) ExistingMetadata(ctx context.Context, id orderbook.ID, tokens []common.Address) (map[common.Address]applypipeline.TokenMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[common.Address]applypipeline.TokenMetadata, len(tokens))
	for _, t := range tokens {
		if meta, ok := s.tokens[t]; ok {
			out[t] = meta
		}
	}
	return out, nil
}

// FetchMetadata is the dry-run stand-in for an on-chain ERC-20 metadata
// call: it fabricates an 18-decimals placeholder for every requested token
// and caches it, so a repeated cycle sees it as already-known.
func (s *Store) FetchMetadata(ctx context.Context, tokens []common.Address) (map[common.Address]applypipeline.TokenMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[common.Address]applypipeline.TokenMetadata, len(tokens))
	for _, t := range tokens {
		meta := applypipeline.TokenMetadata{Decimals: 18}
		s.tokens[t] = meta
		out[t] = meta
	}
	return out, nil
}

// Export is a no-op: dry runs have nothing downstream to notify.
func (s *Store) Export(ctx context.Context, id orderbook.ID) error {
	s.mu.Lock()
	s.exports++
	s.mu.Unlock()
	return nil
}

// ExecuteBatch records the batch and folds its watermark/store/token
// statements back into the store's own state, so a second Cycle against
// the same Store picks up where the first left off.
func (s *Store) ExecuteBatch(ctx context.Context, batch dbexec.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, batch)
	for _, stmt := range batch.Statements {
		switch stmt.Op {
		case "set_watermark":
			id := stmt.Args[0].(orderbook.ID)
			wm := stmt.Args[1].(uint64)
			s.watermark[id] = wm
		case "insert_store_address":
			id := stmt.Args[0].(orderbook.ID)
			addr := stmt.Args[1].(common.Address)
			s.addStoreLocked(id, addr)
		case "upsert_token":
			addr := stmt.Args[1].(common.Address)
			name, _ := stmt.Args[2].(string)
			symbol, _ := stmt.Args[3].(string)
			decimals, _ := stmt.Args[4].(uint8)
			s.tokens[addr] = applypipeline.TokenMetadata{Name: name, Symbol: symbol, Decimals: decimals}
		}
	}
	return nil
}

// QueryJSON is unsupported: dry-run callers inspect Batches() directly
// instead of round-tripping through JSON.
func (s *Store) QueryJSON(ctx context.Context, statement dbexec.Statement) (json.RawMessage, error) {
	return nil, nil
}

// Batches returns every batch applied so far, for CLI dry-run reporting and
// test assertions.
func (s *Store) Batches() []dbexec.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dbexec.Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

// ExportCount reports how many times Export ran.
func (s *Store) ExportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
