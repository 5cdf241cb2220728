package raindexstate

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/codecache"
	"github.com/rainlanguage/raindex-go/float"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
)

// Mutation is the closed algebraic set from spec §4.4. Exactly one of the
// fields is non-nil/non-empty per instance; Batch recursively groups other
// mutations.
type Mutation struct {
	SetEnv           *SetEnv
	SetTokenDecimals []TokenDecimalEntry
	SetOrders        []orderbook.OrderV4
	RemoveOrders     []orderbook.Hash
	VaultDeltas      []VaultDelta
	ApplyStore       []StoreSet
	Batch            []Mutation
}

// SetEnv partially updates the env; nil fields are left unchanged.
type SetEnv struct {
	BlockNumber *uint64
	Timestamp   *uint64
}

// TokenDecimalEntry inserts/overwrites a token's metadata.
type TokenDecimalEntry struct {
	Token common.Address
	Meta  orderbook.TokenMeta
}

// VaultDelta adds Delta to the named vault's balance.
type VaultDelta struct {
	Owner   common.Address
	Token   common.Address
	VaultID [32]byte
	Delta   float.Float
	Reason  MutationReason
}

// StoreSet inserts a KV under (Store, FQN, Key).
type StoreSet struct {
	Store common.Address
	FQN   [32]byte
	Key   [32]byte
	Value [32]byte
}

// Apply walks the mutation tree, first verifying every SetOrders payload's
// bytecode is cacheable (ensure_artifacts), then clones the state, applies
// all mutations to the clone, and atomically swaps the clone in. A failure
// anywhere leaves the original state untouched.
func (s *State) Apply(cache *codecache.Cache, mutations []Mutation) error {
	if err := ensureArtifacts(cache, mutations); err != nil {
		return err
	}
	next := s.clone()
	if err := applyAll(next, mutations); err != nil {
		return err
	}
	*s = *next
	return nil
}

// ensureArtifacts recursively verifies bytecode availability for every
// SetOrders payload before any mutation touches the clone.
func ensureArtifacts(cache *codecache.Cache, mutations []Mutation) error {
	for _, m := range mutations {
		for _, o := range m.SetOrders {
			if err := cache.Ensure(codecache.Evaluable{
				Interpreter: o.Evaluable.Interpreter,
				Store:       o.Evaluable.Store,
			}); err != nil {
				return err
			}
		}
		if len(m.Batch) > 0 {
			if err := ensureArtifacts(cache, m.Batch); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyAll(s *State, mutations []Mutation) error {
	for _, m := range mutations {
		if err := applyOne(s, m); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(s *State, m Mutation) error {
	if m.SetEnv != nil {
		if m.SetEnv.BlockNumber != nil {
			s.Env.BlockNumber = *m.SetEnv.BlockNumber
		}
		if m.SetEnv.Timestamp != nil {
			s.Env.Timestamp = *m.SetEnv.Timestamp
		}
	}
	for _, e := range m.SetTokenDecimals {
		s.Decimals[e.Token] = e.Meta
	}
	for _, o := range m.SetOrders {
		h, err := orderbook.HashOf(o)
		if err != nil {
			return err
		}
		s.Orders[h] = o
		for _, io := range o.ValidInputs {
			s.ensureVaultRow(orderbook.VaultKey{Owner: o.Owner, Token: io.Token, VaultID: io.VaultID})
		}
		for _, io := range o.ValidOutputs {
			s.ensureVaultRow(orderbook.VaultKey{Owner: o.Owner, Token: io.Token, VaultID: io.VaultID})
		}
	}
	for _, h := range m.RemoveOrders {
		delete(s.Orders, h) // missing hashes are a silent no-op
	}
	for _, d := range m.VaultDeltas {
		key := orderbook.VaultKey{Owner: d.Owner, Token: d.Token, VaultID: d.VaultID}
		cur := s.VaultBalance(key)
		next := float.Add(cur, d.Delta)
		if next.Sign() < 0 {
			return &raindexerr.ErrFloat{Reason: "vault balance would go negative"}
		}
		s.Vaults[key] = next
	}
	for _, w := range m.ApplyStore {
		s.Store[orderbook.StoreKey{Store: w.Store, FQN: w.FQN, Key: w.Key}] = w.Value
	}
	if len(m.Batch) > 0 {
		if err := applyAll(s, m.Batch); err != nil {
			return err
		}
	}
	logApply("mutation", 1)
	return nil
}
