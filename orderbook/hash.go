package orderbook

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// abi types used to build the canonical OrderV4 encoding. Built once at
// package init time, mirroring how go-ethereum's bound contracts construct
// their ABI argument lists.
var (
	addressTy, _ = abi.NewType("address", "", nil)
	bytes32Ty, _ = abi.NewType("bytes32", "", nil)
	bytesTy, _   = abi.NewType("bytes", "", nil)
	ioTupleTy, _ = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "token", Type: "address"},
		{Name: "vaultId", Type: "bytes32"},
	})
	ioArrayTy, _ = abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "token", Type: "address"},
		{Name: "vaultId", Type: "bytes32"},
	})
	evaluableTupleTy, _ = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "interpreter", Type: "address"},
		{Name: "store", Type: "address"},
		{Name: "bytecode", Type: "bytes"},
	})

	orderArgs = abi.Arguments{
		{Type: addressTy},       // owner
		{Type: bytes32Ty},       // nonce
		{Type: evaluableTupleTy},
		{Type: ioArrayTy}, // validInputs
		{Type: ioArrayTy}, // validOutputs
	}
)

type ioArg struct {
	Token   common.Address
	VaultId [32]byte
}

type evaluableArg struct {
	Interpreter common.Address
	Store       common.Address
	Bytecode    []byte
}

func toIOArgs(ios []IO) []ioArg {
	out := make([]ioArg, len(ios))
	for i, io := range ios {
		out[i] = ioArg{Token: io.Token, VaultId: io.VaultID}
	}
	return out
}

// Encode returns the canonical ABI encoding of an OrderV4, used both for
// order-hash computation and for the decoder's round-trip invariant.
func Encode(o OrderV4) ([]byte, error) {
	return orderArgs.Pack(
		o.Owner,
		o.Nonce,
		evaluableArg{
			Interpreter: o.Evaluable.Interpreter,
			Store:       o.Evaluable.Store,
			Bytecode:    o.Evaluable.Bytecode,
		},
		toIOArgs(o.ValidInputs),
		toIOArgs(o.ValidOutputs),
	)
}

// HashOf computes the order hash: keccak256 of the canonical ABI encoding.
func HashOf(o OrderV4) (Hash, error) {
	enc, err := Encode(o)
	if err != nil {
		return Hash{}, err
	}
	return Hash(crypto.Keccak256Hash(enc)), nil
}

// AddressToWord left-pads an address into a 32-byte big-endian word, the
// layout the interpreter context matrix and FQN derivation both use.
func AddressToWord(a common.Address) [32]byte {
	var out [32]byte
	copy(out[12:], a.Bytes())
	return out
}

// WordToAddress extracts an address from the low 20 bytes of a word.
func WordToAddress(w [32]byte) common.Address {
	var a common.Address
	copy(a[:], w[12:])
	return a
}

// U256Word encodes a big.Int into a 32-byte big-endian word. Negative
// values are written in 256-bit two's complement, so a word ABI-decoded as
// int256 encodes back to the same 32 bytes.
func U256Word(v *big.Int) [32]byte {
	var out [32]byte
	if v == nil {
		return out
	}
	if v.Sign() < 0 {
		v = new(big.Int).Add(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	b := v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

// DeriveFQN computes keccak256(owner_word ‖ orderbook_word), the fully
// qualified namespace that scopes an owner's interpreter-store keys within
// one orderbook. Must match the on-chain contract bit-for-bit.
func DeriveFQN(owner common.Address, orderbookAddress common.Address) [32]byte {
	ownerWord := AddressToWord(owner)
	obWord := AddressToWord(orderbookAddress)
	buf := make([]byte, 0, 64)
	buf = append(buf, ownerWord[:]...)
	buf = append(buf, obWord[:]...)
	return crypto.Keccak256Hash(buf)
}
