// Package raindexstate holds the Virtual Raindex's in-memory data (§4.3) and
// the mutation grammar that evolves it (§4.4). The state is a plain set of
// maps; it is never persisted across restarts (it is rebuildable from the
// sync store).
package raindexstate

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/rainlanguage/raindex-go/codecache"
	"github.com/rainlanguage/raindex-go/float"
	"github.com/rainlanguage/raindex-go/orderbook"
)

// State is the Virtual Raindex's complete in-memory picture. Every field is
// a plain map; callers obtain an independent copy via Snapshot and evolve
// the live copy only through Apply.
type State struct {
	Orders   map[orderbook.Hash]orderbook.OrderV4
	Vaults   map[orderbook.VaultKey]float.Float
	Store    map[orderbook.StoreKey][32]byte
	Decimals map[common.Address]orderbook.TokenMeta
	Env      orderbook.Env
}

// New returns an empty state.
func New() *State {
	return &State{
		Orders:   make(map[orderbook.Hash]orderbook.OrderV4),
		Vaults:   make(map[orderbook.VaultKey]float.Float),
		Store:    make(map[orderbook.StoreKey][32]byte),
		Decimals: make(map[common.Address]orderbook.TokenMeta),
	}
}

// clone makes a cheap structural copy: every map is copied shallowly since
// all values are immutable value types, so mutating the clone never
// touches the original's entries.
func (s *State) clone() *State {
	out := &State{
		Orders:   make(map[orderbook.Hash]orderbook.OrderV4, len(s.Orders)),
		Vaults:   make(map[orderbook.VaultKey]float.Float, len(s.Vaults)),
		Store:    make(map[orderbook.StoreKey][32]byte, len(s.Store)),
		Decimals: make(map[common.Address]orderbook.TokenMeta, len(s.Decimals)),
		Env:      s.Env,
	}
	for k, v := range s.Orders {
		out.Orders[k] = v
	}
	for k, v := range s.Vaults {
		out.Vaults[k] = v
	}
	for k, v := range s.Store {
		out.Store[k] = v
	}
	for k, v := range s.Decimals {
		out.Decimals[k] = v
	}
	return out
}

// Snapshot returns a cheap clone of the state for inspection. Mutating the
// returned snapshot never affects the live state.
func (s *State) Snapshot() *State { return s.clone() }

// VaultBalance reads a vault balance, defaulting to zero.
func (s *State) VaultBalance(key orderbook.VaultKey) float.Float {
	if b, ok := s.Vaults[key]; ok {
		return b
	}
	return float.Zero
}

// ensureVaultRow makes sure a vault row exists (at zero) for key, matching
// the invariant that every (owner, token, vault_id) an order references has
// a vault row.
func (s *State) ensureVaultRow(key orderbook.VaultKey) {
	if _, ok := s.Vaults[key]; !ok {
		s.Vaults[key] = float.Zero
	}
}

// logApply emits one structured log line per applied mutation,
// following the teacher's go-ethereum `log` idiom (leveled, key/value
// pairs) rather than a bespoke logging abstraction.
func logApply(kind string, n int) {
	log.Debug("raindexstate: applied mutation", "kind", kind, "count", n)
}
