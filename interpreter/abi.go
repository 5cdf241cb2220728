package interpreter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// eval4 ABI shape: eval4(address store, uint256 namespace, bytes bytecode,
// uint256 sourceIndex, uint256[][] context, uint256[] inputs,
// (uint256,uint256)[] stateOverlay) returns (uint256[] stack, uint256[]
// writes). writes is a flat key/value word stream, chunked into pairs by
// the caller the way writes_to_pairs does.
var (
	eval4AddressTy, _   = abi.NewType("address", "", nil)
	eval4Uint256Ty, _   = abi.NewType("uint256", "", nil)
	eval4BytesTy, _     = abi.NewType("bytes", "", nil)
	eval4MatrixTy, _    = abi.NewType("uint256[][]", "", nil)
	eval4Uint256ArrTy, _ = abi.NewType("uint256[]", "", nil)
	eval4OverlayTy, _   = abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "key", Type: "uint256"},
		{Name: "value", Type: "uint256"},
	})

	eval4Args = abi.Arguments{
		{Type: eval4AddressTy},
		{Type: eval4Uint256Ty},
		{Type: eval4BytesTy},
		{Type: eval4Uint256Ty},
		{Type: eval4MatrixTy},
		{Type: eval4Uint256ArrTy},
		{Type: eval4OverlayTy},
	}

	eval4ReturnArgs = abi.Arguments{
		{Type: eval4Uint256ArrTy},
		{Type: eval4Uint256ArrTy},
	}

	eval4Selector = crypto.Keccak256(
		[]byte("eval4(address,uint256,bytes,uint256,uint256[][],uint256[],(uint256,uint256)[])"),
	)[:4]
)

type overlayEntry struct {
	Key   *big.Int
	Value *big.Int
}

// abiUnpackRevert extracts a human-readable reason from a standard
// Error(string) revert payload, falling back to an error when ret does not
// carry one (e.g. a bare REVERT with no data, or a custom error selector).
func abiUnpackRevert(ret []byte) (string, error) {
	return abi.UnpackRevert(ret)
}
