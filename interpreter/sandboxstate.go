package interpreter

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
)

// newSandboxState constructs a fresh, empty in-memory StateDB. A new one is
// built for every evaluation so that no ambient state — block, timestamp,
// caller, or balance — leaks from the surrounding process into the
// sandbox; only the supplied env and store snapshot flow in, per §9's
// design note.
//
// Grounded on the teacher's revm_bridge/statedb.go, which wraps a real
// *state.StateDB to bridge FFI calls; here the same underlying type backs a
// pure-Go sandbox instead, since this module has no cgo/Rust toolchain to
// depend on (see DESIGN.md for why the FFI bridge itself was not carried
// forward).
func newSandboxState() (*state.StateDB, error) {
	db := state.NewDatabaseForTesting()
	return state.New(types.EmptyRootHash, db)
}

// recordingStateDB wraps the sandbox StateDB for the duration of one eval4
// call. eval4 is a view-style call: it returns its proposed store writes as
// return data rather than performing real SSTOREs against the store
// contract, so this wrapper's own SetState interception is not the source
// of Outcome.Writes (the host decodes those from the return tuple); it
// exists so the EVM always runs against the typed wrapper rather than the
// bare *state.StateDB.
type recordingStateDB struct {
	*state.StateDB
	storeAddr common.Address
	writes    map[common.Hash]common.Hash
}

func newRecordingStateDB(sdb *state.StateDB, storeAddr common.Address) *recordingStateDB {
	return &recordingStateDB{
		StateDB:   sdb,
		storeAddr: storeAddr,
		writes:    make(map[common.Hash]common.Hash),
	}
}

// SetState passes every write through to the sandbox StateDB and records
// writes to the store address in r.writes. Nothing reads that record back;
// the underlying StateDB is itself thrown away after the call.
func (r *recordingStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	prev := r.StateDB.SetState(addr, key, value)
	if addr == r.storeAddr {
		r.writes[key] = value
	}
	return prev
}
