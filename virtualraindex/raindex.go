// Package virtualraindex implements the deterministic in-memory replica of
// the on-chain order-book contract (§4.3–4.7): quoting, simulated
// take-orders, and add-order with post-tasks, all evaluated through the
// sandboxed Interpreter Host rather than by broadcasting transactions.
package virtualraindex

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/codecache"
	"github.com/rainlanguage/raindex-go/interpreter"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
	"github.com/rainlanguage/raindex-go/raindexstate"
)

// evalHost is the Interpreter Host surface Quote/TakeOrders/AddOrder need.
// Satisfied by *interpreter.Host; narrowed to an interface here so tests can
// substitute a fake without standing up a real sandboxed EVM.
type evalHost interface {
	Eval(interpreterAddr common.Address, spec interpreter.EvalSpec, storeSnapshot map[[32]byte][32]byte, env orderbook.Env) (interpreter.Outcome, error)
}

// VirtualRaindex is one orderbook contract's off-chain replica. One
// instance owns exactly one chain/orderbook pair; cross-orderbook
// comparisons (BestExecution) take multiple instances.
type VirtualRaindex struct {
	ID    orderbook.ID
	Cache *codecache.Cache
	Host  evalHost

	mu    sync.Mutex
	state *raindexstate.State
}

// New returns an empty virtual order book scoped to id.
func New(id orderbook.ID, cache *codecache.Cache) *VirtualRaindex {
	return &VirtualRaindex{
		ID:    id,
		Cache: cache,
		Host:  interpreter.New(cache),
		state: raindexstate.New(),
	}
}

// Snapshot returns a point-in-time copy of the live state.
func (v *VirtualRaindex) Snapshot() *raindexstate.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Snapshot()
}

// ApplyMutations commits mutations to the live state via the two-phase
// apply discipline (§4.4); a failure leaves the live state untouched.
func (v *VirtualRaindex) ApplyMutations(mutations []raindexstate.Mutation) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Apply(v.Cache, mutations)
}

// OrderRef names an order either by its committed hash or by an inline
// value (used by callers quoting an order that has not been persisted yet).
type OrderRef struct {
	Hash  *orderbook.Hash
	Order *orderbook.OrderV4
}

// StoreOverride replaces one interpreter-store slot in a per-call snapshot
// without touching committed state.
type StoreOverride struct {
	Key, Value [32]byte
}

func (v *VirtualRaindex) resolve(state *raindexstate.State, ref OrderRef) (orderbook.OrderV4, orderbook.Hash, error) {
	if ref.Order != nil {
		h, err := orderbook.HashOf(*ref.Order)
		if err != nil {
			return orderbook.OrderV4{}, orderbook.Hash{}, err
		}
		return *ref.Order, h, nil
	}
	if ref.Hash != nil {
		o, ok := state.Orders[*ref.Hash]
		if !ok {
			return orderbook.OrderV4{}, orderbook.Hash{}, &raindexerr.ErrOrderNotFound{Hash: *ref.Hash}
		}
		return o, *ref.Hash, nil
	}
	return orderbook.OrderV4{}, orderbook.Hash{}, &raindexerr.ErrOrderNotFound{}
}

// storeSnapshotFor extracts the (store, fqn)-scoped slice of the committed
// store map and applies per-call overrides on top, without mutating store.
func storeSnapshotFor(store map[orderbook.StoreKey][32]byte, storeAddr common.Address, fqn [32]byte, overrides []StoreOverride) map[[32]byte][32]byte {
	out := make(map[[32]byte][32]byte)
	for k, val := range store {
		if k.Store == storeAddr && k.FQN == fqn {
			out[k.Key] = val
		}
	}
	for _, ov := range overrides {
		out[ov.Key] = ov.Value
	}
	return out
}

// AddOrder ensures the order's and every post-task's bytecode is cached,
// inserts the order, then runs each non-empty post-task under the order's
// FQN, staging its writes as store mutations (§4.7). Failure of any task
// aborts the whole add — nothing is committed until every task succeeds.
func (v *VirtualRaindex) AddOrder(order orderbook.OrderV4, postTasks []orderbook.TaskV2) ([]raindexstate.Mutation, error) {
	if err := v.Cache.Ensure(codecache.Evaluable{Interpreter: order.Evaluable.Interpreter, Store: order.Evaluable.Store}); err != nil {
		return nil, err
	}
	for _, t := range postTasks {
		if err := v.Cache.Ensure(codecache.Evaluable{Interpreter: t.Evaluable.Interpreter, Store: t.Evaluable.Store}); err != nil {
			return nil, err
		}
	}

	hash, err := orderbook.HashOf(order)
	if err != nil {
		return nil, err
	}

	working := v.Snapshot()
	if err := working.Apply(v.Cache, []raindexstate.Mutation{{SetOrders: []orderbook.OrderV4{order}}}); err != nil {
		return nil, err
	}

	mutations := []raindexstate.Mutation{{SetOrders: []orderbook.OrderV4{order}}}
	fqn := orderbook.DeriveFQN(order.Owner, v.ID.OrderbookAddress)

	for _, task := range postTasks {
		if len(task.Evaluable.Bytecode) == 0 {
			continue
		}
		ctx := buildPostTaskContext(hash, order.Owner, v.ID.OrderbookAddress, task.SignedContext)
		snap := storeSnapshotFor(working.Store, task.Evaluable.Store, fqn, nil)

		outcome, err := v.Host.Eval(task.Evaluable.Interpreter, interpreter.EvalSpec{
			Store:       task.Evaluable.Store,
			Namespace:   fqn,
			Bytecode:    task.Evaluable.Bytecode,
			SourceIndex: 0,
			Context:     ctx,
		}, snap, working.Env)
		if err != nil {
			return nil, err
		}
		if len(outcome.Writes) == 0 {
			continue
		}
		sets := make([]raindexstate.StoreSet, 0, len(outcome.Writes))
		for _, w := range outcome.Writes {
			key := orderbook.StoreKey{Store: task.Evaluable.Store, FQN: fqn, Key: w.Key}
			working.Store[key] = w.Value
			sets = append(sets, raindexstate.StoreSet{Store: task.Evaluable.Store, FQN: fqn, Key: w.Key, Value: w.Value})
		}
		mutations = append(mutations, raindexstate.Mutation{ApplyStore: sets})
	}

	if err := v.ApplyMutations(mutations); err != nil {
		return nil, err
	}
	return mutations, nil
}
