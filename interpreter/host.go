// Package interpreter implements the Interpreter Host (spec §4.2): a pure
// function of (interpreter_address, eval_spec, store_snapshot, env) that
// executes an expression inside a sandboxed EVM and returns the resulting
// stack and proposed store writes. No on-chain side effects occur.
package interpreter

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/rainlanguage/raindex-go/codecache"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
)

// Overlay is one state-overlay entry supplied alongside an eval call (used
// by post-task evaluation and by any caller wanting to patch a handful of
// store slots without going through a full ApplyStore mutation).
type Overlay struct {
	Key   [32]byte
	Value [32]byte
}

// EvalSpec carries everything the Interpreter Host needs beyond the
// interpreter address itself.
type EvalSpec struct {
	Store        common.Address
	Namespace    [32]byte
	Bytecode     []byte
	SourceIndex  uint8 // 0 = calculate-io, 1 = handle-io, >1 = user task
	Context      [][][32]byte
	Inputs       [][32]byte
	StateOverlay []Overlay
}

// Outcome is the result of one evaluation: the interpreter's returned stack
// words and the store writes it proposed.
type Outcome struct {
	Stack  [][32]byte
	Writes []orderbook.Write
}

// Host evaluates order/task expressions against a code cache. It holds no
// mutable execution state between calls — every Eval call builds and tears
// down its own sandbox.
type Host struct {
	Cache *codecache.Cache
}

// New returns a Host backed by the given code cache.
func New(cache *codecache.Cache) *Host { return &Host{Cache: cache} }

func wordsToMatrix(ctx [][][32]byte) [][]*big.Int {
	out := make([][]*big.Int, len(ctx))
	for i, col := range ctx {
		row := make([]*big.Int, len(col))
		for j, w := range col {
			row[j] = new(big.Int).SetBytes(w[:])
		}
		out[i] = row
	}
	return out
}

func wordsToInts(words [][32]byte) []*big.Int {
	out := make([]*big.Int, len(words))
	for i, w := range words {
		out[i] = new(big.Int).SetBytes(w[:])
	}
	return out
}

func overlaysToEntries(overlays []Overlay) []overlayEntry {
	out := make([]overlayEntry, len(overlays))
	for i, o := range overlays {
		out[i] = overlayEntry{Key: new(big.Int).SetBytes(o.Key[:]), Value: new(big.Int).SetBytes(o.Value[:])}
	}
	return out
}

func bigToWord(v *big.Int) [32]byte {
	var out [32]byte
	if v == nil {
		return out
	}
	b := v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

// Eval runs eval_spec's expression through the sandboxed EVM and returns
// the resulting stack and store writes. Deterministic: identical inputs
// produce bit-identical output.
func (h *Host) Eval(interpreterAddr common.Address, spec EvalSpec, storeSnapshot map[[32]byte][32]byte, env orderbook.Env) (Outcome, error) {
	interpCode, ok := h.Cache.GetInterpreter(interpreterAddr)
	if !ok {
		return Outcome{}, &raindexerr.ErrMissingBytecode{Address: interpreterAddr, Kind: raindexerr.BytecodeInterpreter}
	}
	storeCode, ok := h.Cache.GetStore(spec.Store)
	if !ok {
		return Outcome{}, &raindexerr.ErrMissingBytecode{Address: spec.Store, Kind: raindexerr.BytecodeStore}
	}

	sdb, err := newSandboxState()
	if err != nil {
		return Outcome{}, &raindexerr.ErrRevmExecution{Reason: fmt.Sprintf("sandbox state init: %v", err)}
	}
	sdb.SetCode(interpreterAddr, interpCode)
	sdb.SetCode(spec.Store, storeCode)
	for key, value := range storeSnapshot {
		sdb.SetState(spec.Store, common.Hash(key), common.Hash(value))
	}

	rec := newRecordingStateDB(sdb, spec.Store)

	blockCtx := vm.BlockContext{
		CanTransfer: func(vm.StateDB, common.Address, *uint256.Int) bool { return true },
		Transfer:    func(vm.StateDB, common.Address, common.Address, *uint256.Int) {},
		GetHash:     func(uint64) common.Hash { return common.Hash{} },
		Coinbase:    common.Address{},
		BlockNumber: new(big.Int).SetUint64(env.BlockNumber),
		Time:        env.Timestamp,
		Difficulty:  new(big.Int),
		GasLimit:    ^uint64(0),
		BaseFee:     new(big.Int),
	}

	evm := vm.NewEVM(blockCtx, rec, params.AllEthashProtocolChanges, vm.Config{})
	evm.SetTxContext(vm.TxContext{Origin: common.Address{}, GasPrice: new(big.Int)})

	calldata, err := eval4Args.Pack(
		spec.Store,
		new(big.Int).SetBytes(spec.Namespace[:]),
		spec.Bytecode,
		new(big.Int).SetUint64(uint64(spec.SourceIndex)),
		wordsToMatrix(spec.Context),
		wordsToInts(spec.Inputs),
		overlaysToEntries(spec.StateOverlay),
	)
	if err != nil {
		return Outcome{}, &raindexerr.ErrRevmExecution{Reason: fmt.Sprintf("encode eval4: %v", err)}
	}
	input := append(append([]byte{}, eval4Selector...), calldata...)

	ret, _, err := evm.Call(vm.AccountRef(common.Address{}), interpreterAddr, input, blockCtx.GasLimit, new(uint256.Int))
	if err != nil {
		return Outcome{}, &raindexerr.ErrRevmExecution{Reason: describeRevert(ret, err)}
	}

	unpacked, err := eval4ReturnArgs.Unpack(ret)
	if err != nil {
		return Outcome{}, &raindexerr.ErrRevmExecution{Reason: fmt.Sprintf("decode return: %v", err)}
	}
	if len(unpacked) != 2 {
		return Outcome{}, &raindexerr.ErrRevmExecution{Reason: "unexpected return arity"}
	}
	stackBig, _ := unpacked[0].([]*big.Int)
	stack := make([][32]byte, len(stackBig))
	for i, v := range stackBig {
		stack[i] = bigToWord(v)
	}

	// eval4 is a view-style call: it never SSTOREs against the store
	// contract, it returns the proposed writes as a flat key/value word
	// stream. Chunk it into pairs the way writes_to_pairs does.
	writesBig, _ := unpacked[1].([]*big.Int)
	if len(writesBig)%2 != 0 {
		return Outcome{}, &raindexerr.ErrRevmExecution{Reason: "odd-length writes return"}
	}
	writes := make([]orderbook.Write, 0, len(writesBig)/2)
	for i := 0; i < len(writesBig); i += 2 {
		writes = append(writes, orderbook.Write{Key: bigToWord(writesBig[i]), Value: bigToWord(writesBig[i+1])})
	}

	return Outcome{Stack: stack, Writes: writes}, nil
}

func describeRevert(ret []byte, err error) string {
	if reason, unpackErr := abiUnpackRevert(ret); unpackErr == nil && reason != "" {
		return reason
	}
	return err.Error()
}
