package virtualraindex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/float"
	"github.com/rainlanguage/raindex-go/orderbook"
)

// buildQuoteContext assembles the context matrix shared by quote and
// take-orders calculate-io evaluations (§4.5). Column layout is part of the
// public contract and must be reproduced word-for-word.
func buildQuoteContext(
	orderHash orderbook.Hash,
	owner, counterparty, orderbookAddr common.Address,
	inputIO, outputIO orderbook.IO,
	inputDecimals, outputDecimals uint8,
	inputBalance, outputBalance float.Float,
	signedContext []orderbook.SignedContextV1,
) [][][32]byte {
	col0 := [][32]byte{
		orderbook.AddressToWord(counterparty),
		orderbook.AddressToWord(orderbookAddr),
	}
	col1 := [][32]byte{
		[32]byte(orderHash),
		orderbook.AddressToWord(owner),
		orderbook.AddressToWord(counterparty),
	}
	col2 := [][32]byte{{}, {}}
	col3 := [][32]byte{
		orderbook.AddressToWord(inputIO.Token),
		orderbook.U256Word(big.NewInt(int64(inputDecimals))),
		inputIO.VaultID,
		inputBalance.Bytes32(),
		{},
	}
	col4 := [][32]byte{
		orderbook.AddressToWord(outputIO.Token),
		orderbook.U256Word(big.NewInt(int64(outputDecimals))),
		outputIO.VaultID,
		outputBalance.Bytes32(),
		{},
	}
	ctx := [][][32]byte{col0, col1, col2, col3, col4}
	return appendSignedContext(ctx, signedContext)
}

// buildPostTaskContext assembles the single-column context used by
// add-order post-tasks (§4.7): no vault columns, just the order identity
// under the common column 0, with the order's own owner standing in as the
// counterparty.
func buildPostTaskContext(
	orderHash orderbook.Hash,
	owner, orderbookAddr common.Address,
	signedContext []orderbook.SignedContextV1,
) [][][32]byte {
	col0 := [][32]byte{orderbook.AddressToWord(owner), orderbook.AddressToWord(orderbookAddr)}
	col1 := [][32]byte{[32]byte(orderHash), orderbook.AddressToWord(owner)}
	ctx := [][][32]byte{col0, col1}
	return appendSignedContext(ctx, signedContext)
}

func appendSignedContext(ctx [][][32]byte, signedContext []orderbook.SignedContextV1) [][][32]byte {
	if len(signedContext) == 0 {
		return ctx
	}
	signers := make([][32]byte, len(signedContext))
	for i, sc := range signedContext {
		signers[i] = orderbook.AddressToWord(sc.Signer)
	}
	ctx = append(ctx, signers)
	for _, sc := range signedContext {
		ctx = append(ctx, sc.Context)
	}
	return ctx
}
