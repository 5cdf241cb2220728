// Package codecache resolves EVM bytecode for interpreter and store
// addresses on demand. It is append-only and content-addressed by address:
// re-upserting an address replaces the prior value, last write wins.
//
// Grounded on the teacher's handle-registry pattern (atomic counter plus
// sync.Map) used to register *state.StateDB instances across the cgo
// boundary; here the same shape registers bytecode blobs instead of
// opaque handles, since both are "single-writer-per-key in practice,
// concurrent readers always" resources.
package codecache

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/metrics"
)

// Kind tags why an address's bytecode was cached.
type Kind int

const (
	KindInterpreter Kind = iota
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindInterpreter:
		return "interpreter"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// MissingBytecodeError is returned by Ensure when an order references an
// address the cache has never seen.
type MissingBytecodeError struct {
	Address common.Address
	Kind    Kind
}

func (e *MissingBytecodeError) Error() string {
	return "codecache: missing " + e.Kind.String() + " bytecode for " + e.Address.Hex()
}

type entry struct {
	kind Kind
	code []byte
}

// Cache maps an address to immutable EVM bytecode. Safe for concurrent use;
// a single address observes at-most-one writer in practice, but concurrent
// writers are not rejected (last write wins, matching the §4.1 contract).
type Cache struct {
	m sync.Map // map[common.Address]entry
}

// New returns an empty cache.
func New() *Cache { return &Cache{} }

// Upsert inserts or replaces the bytecode cached for addr.
func (c *Cache) Upsert(addr common.Address, kind Kind, code []byte) {
	cp := make([]byte, len(code))
	copy(cp, code)
	c.m.Store(addr, entry{kind: kind, code: cp})
}

func (c *Cache) get(addr common.Address, want Kind) ([]byte, bool) {
	v, ok := c.m.Load(addr)
	if !ok {
		metrics.CacheMisses.Inc(1)
		return nil, false
	}
	e := v.(entry)
	if e.kind != want {
		metrics.CacheMisses.Inc(1)
		return nil, false
	}
	metrics.CacheHits.Inc(1)
	return e.code, true
}

// GetInterpreter returns the cached interpreter bytecode for addr.
func (c *Cache) GetInterpreter(addr common.Address) ([]byte, bool) {
	return c.get(addr, KindInterpreter)
}

// GetStore returns the cached store bytecode for addr.
func (c *Cache) GetStore(addr common.Address) ([]byte, bool) {
	return c.get(addr, KindStore)
}

// Evaluable is the minimal shape Ensure needs from an order or task.
type Evaluable struct {
	Interpreter common.Address
	Store       common.Address
}

// Ensure asserts that both the interpreter and store referenced by an
// evaluable are populated, returning *MissingBytecodeError naming whichever
// address (and kind) is absent. Interpreter is checked first.
func (c *Cache) Ensure(ev Evaluable) error {
	if _, ok := c.GetInterpreter(ev.Interpreter); !ok {
		return &MissingBytecodeError{Address: ev.Interpreter, Kind: KindInterpreter}
	}
	if _, ok := c.GetStore(ev.Store); !ok {
		return &MissingBytecodeError{Address: ev.Store, Kind: KindStore}
	}
	return nil
}

// Len reports how many addresses are currently cached (interpreters+stores
// combined). Not used by core logic.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}
