// Package orderbook holds the data model shared by the Sync Engine and the
// Virtual Raindex: orders, vaults, interpreter-store KVs, and the orderbook
// identifier that scopes all of it.
package orderbook

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/float"
)

// ID scopes every piece of persisted and in-memory state to one chain and
// one orderbook contract.
type ID struct {
	ChainID           uint32
	OrderbookAddress  common.Address
}

// Evaluable is the (interpreter, store, bytecode) tuple attached to every
// order and post-task.
type Evaluable struct {
	Interpreter common.Address
	Store       common.Address
	Bytecode    []byte
}

// IO is one entry of an order's validInputs/validOutputs list.
type IO struct {
	Token   common.Address
	VaultID [32]byte
}

// OrderV4 is the order record. Orders are immutable once created; the only
// lifecycle change is the Active flag toggling on RemoveOrder.
type OrderV4 struct {
	Owner        common.Address
	Nonce        [32]byte
	Evaluable    Evaluable
	ValidInputs  []IO
	ValidOutputs []IO
	Active       bool
}

// Hash is the order's identity: keccak256 of the order struct's canonical
// ABI encoding. Computed by callers via HashOf so that decoder and state
// code share exactly one implementation.
type Hash [32]byte

// TaskV2 is a post-task attached to AddOrder: an evaluable plus signed
// context, run once under the new order's FQN after insertion.
type TaskV2 struct {
	Evaluable     Evaluable
	SignedContext []SignedContextV1
}

// SignedContextV1 is one signer's context payload, carried opaquely into the
// interpreter context matrix.
type SignedContextV1 struct {
	Signer  common.Address
	Context [][32]byte
	// Signature is carried through for completeness; the core never
	// verifies it (Non-goal: access control).
	Signature []byte
}

// VaultKey identifies a balance bucket.
type VaultKey struct {
	Owner   common.Address
	Token   common.Address
	VaultID [32]byte
}

// StoreKey identifies one interpreter-store KV slot.
type StoreKey struct {
	Store common.Address
	FQN   [32]byte
	Key   [32]byte
}

// TokenMeta is the persisted record for an ERC-20 token.
type TokenMeta struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Env is the block context fed into every interpreter evaluation.
type Env struct {
	BlockNumber uint64
	Timestamp   uint64
}

// Write is one interpreter-store write proposed by an evaluation: a 32-byte
// key/value pair under the store's fully-qualified namespace.
type Write struct {
	Key   [32]byte
	Value [32]byte
}

// VaultBalance returns the balance for a vault key, defaulting to zero.
func VaultBalance(balances map[VaultKey]float.Float, key VaultKey) float.Float {
	if b, ok := balances[key]; ok {
		return b
	}
	return float.Zero
}
