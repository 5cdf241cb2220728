package eventdecoder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/orderbook"
)

// ABI tuple shapes shared across events, built once at package init the
// same way orderbook/hash.go builds its canonical OrderV4 arguments. Field
// names are significant here (not just decorative): Arguments.UnpackIntoInterface
// matches them against the destination struct's field names, capitalized.
var (
	addressTy, _ = abi.NewType("address", "", nil)
	bytes32Ty, _ = abi.NewType("bytes32", "", nil)
	bytesTy, _   = abi.NewType("bytes", "", nil)
	uint256Ty, _ = abi.NewType("uint256", "", nil)
	int256Ty, _  = abi.NewType("int256", "", nil)

	orderTupleTy, _ = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "owner", Type: "address"},
		{Name: "nonce", Type: "bytes32"},
		{Name: "evaluable", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "interpreter", Type: "address"},
			{Name: "store", Type: "address"},
			{Name: "bytecode", Type: "bytes"},
		}},
		{Name: "validInputs", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "token", Type: "address"},
			{Name: "vaultId", Type: "bytes32"},
		}},
		{Name: "validOutputs", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "token", Type: "address"},
			{Name: "vaultId", Type: "bytes32"},
		}},
	})
	signedContextArrayTy, _ = abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "signer", Type: "address"},
		{Name: "context", Type: "uint256[]"},
		{Name: "signature", Type: "bytes"},
	})

	addOrderArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "orderHash", Type: bytes32Ty},
		{Name: "order", Type: orderTupleTy},
	}

	takeOrderConfigTy, _ = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "order", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "owner", Type: "address"},
			{Name: "nonce", Type: "bytes32"},
			{Name: "evaluable", Type: "tuple", Components: []abi.ArgumentMarshaling{
				{Name: "interpreter", Type: "address"},
				{Name: "store", Type: "address"},
				{Name: "bytecode", Type: "bytes"},
			}},
			{Name: "validInputs", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
				{Name: "token", Type: "address"},
				{Name: "vaultId", Type: "bytes32"},
			}},
			{Name: "validOutputs", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
				{Name: "token", Type: "address"},
				{Name: "vaultId", Type: "bytes32"},
			}},
		}},
		{Name: "inputIOIndex", Type: "uint256"},
		{Name: "outputIOIndex", Type: "uint256"},
		{Name: "signedContext", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "signer", Type: "address"},
			{Name: "context", Type: "uint256[]"},
			{Name: "signature", Type: "bytes"},
		}},
	})

	takeOrderArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "config", Type: takeOrderConfigTy},
		{Name: "input", Type: uint256Ty},
		{Name: "output", Type: uint256Ty},
	}

	withdrawArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "token", Type: addressTy},
		{Name: "vaultId", Type: bytes32Ty},
		{Name: "targetAmount", Type: int256Ty},
		{Name: "withdrawAmount", Type: int256Ty},
		{Name: "withdrawAmountUint256", Type: uint256Ty},
	}

	depositArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "token", Type: addressTy},
		{Name: "vaultId", Type: bytes32Ty},
		{Name: "depositAmountUint256", Type: uint256Ty},
	}

	clearArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "alice", Type: orderTupleTy},
		{Name: "bob", Type: orderTupleTy},
		{Name: "aliceInputIOIndex", Type: uint256Ty},
		{Name: "aliceOutputIOIndex", Type: uint256Ty},
		{Name: "bobInputIOIndex", Type: uint256Ty},
		{Name: "bobOutputIOIndex", Type: uint256Ty},
	}

	afterClearArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "aliceInput", Type: int256Ty},
		{Name: "aliceOutput", Type: int256Ty},
		{Name: "bobInput", Type: int256Ty},
		{Name: "bobOutput", Type: int256Ty},
	}

	metaArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "subject", Type: bytes32Ty},
		{Name: "meta", Type: bytesTy},
	}
)

type ioArg struct {
	Token   [20]byte
	VaultId [32]byte
}

type evaluableArg struct {
	Interpreter [20]byte
	Store       [20]byte
	Bytecode    []byte
}

type orderArg struct {
	Owner        [20]byte
	Nonce        [32]byte
	Evaluable    evaluableArg
	ValidInputs  []ioArg
	ValidOutputs []ioArg
}

type signedContextArg struct {
	Signer    [20]byte
	Context   []*big.Int
	Signature []byte
}

// toOrder converts the ABI-decoded tuple shape into the domain OrderV4,
// marking it active since a logged order is, by construction, one the
// contract accepted.
func toOrder(a orderArg) orderbook.OrderV4 {
	order := orderbook.OrderV4{
		Owner: common.Address(a.Owner),
		Nonce: a.Nonce,
		Evaluable: orderbook.Evaluable{
			Interpreter: common.Address(a.Evaluable.Interpreter),
			Store:       common.Address(a.Evaluable.Store),
			Bytecode:    a.Evaluable.Bytecode,
		},
		Active: true,
	}
	order.ValidInputs = make([]orderbook.IO, len(a.ValidInputs))
	for i, io := range a.ValidInputs {
		order.ValidInputs[i] = orderbook.IO{Token: common.Address(io.Token), VaultID: io.VaultId}
	}
	order.ValidOutputs = make([]orderbook.IO, len(a.ValidOutputs))
	for i, io := range a.ValidOutputs {
		order.ValidOutputs[i] = orderbook.IO{Token: common.Address(io.Token), VaultID: io.VaultId}
	}
	return order
}
