package virtualraindex

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/float"
	"github.com/rainlanguage/raindex-go/interpreter"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
)

// QuoteRequest is one quote call's input (§4.5).
type QuoteRequest struct {
	Order          OrderRef
	InputIOIndex   int
	OutputIOIndex  int
	Counterparty   common.Address
	SignedContext  []orderbook.SignedContextV1
	StoreOverrides []StoreOverride
}

// QuoteResult is a quote's output: the clamped price/size pair plus the
// full evaluation stack and proposed (but unapplied) writes.
type QuoteResult struct {
	IORatio   float.Float
	OutputMax float.Float
	Stack     [][32]byte
	Writes    []orderbook.Write
}

// Quote evaluates calculate-io for one order/IO pair against the committed
// state and clamps output_max to the current output-vault balance. It
// never mutates state: per-call store overrides apply only to the
// interpreter's cloned snapshot.
func (v *VirtualRaindex) Quote(req QuoteRequest) (QuoteResult, error) {
	state := v.Snapshot()

	order, hash, err := v.resolve(state, req.Order)
	if err != nil {
		return QuoteResult{}, err
	}
	if req.InputIOIndex < 0 || req.InputIOIndex >= len(order.ValidInputs) {
		return QuoteResult{}, &raindexerr.ErrInvalidInputIndex{Index: req.InputIOIndex, Len: len(order.ValidInputs)}
	}
	if req.OutputIOIndex < 0 || req.OutputIOIndex >= len(order.ValidOutputs) {
		return QuoteResult{}, &raindexerr.ErrInvalidOutputIndex{Index: req.OutputIOIndex, Len: len(order.ValidOutputs)}
	}
	inputIO := order.ValidInputs[req.InputIOIndex]
	outputIO := order.ValidOutputs[req.OutputIOIndex]
	if inputIO.Token == outputIO.Token {
		return QuoteResult{}, &raindexerr.ErrTokenSelfTrade{}
	}
	inputMeta, ok := state.Decimals[inputIO.Token]
	if !ok {
		return QuoteResult{}, &raindexerr.ErrTokenDecimalMissing{Token: inputIO.Token}
	}
	outputMeta, ok := state.Decimals[outputIO.Token]
	if !ok {
		return QuoteResult{}, &raindexerr.ErrTokenDecimalMissing{Token: outputIO.Token}
	}

	inputBalance := state.VaultBalance(orderbook.VaultKey{Owner: order.Owner, Token: inputIO.Token, VaultID: inputIO.VaultID})
	outputBalance := state.VaultBalance(orderbook.VaultKey{Owner: order.Owner, Token: outputIO.Token, VaultID: outputIO.VaultID})

	ctx := buildQuoteContext(hash, order.Owner, req.Counterparty, v.ID.OrderbookAddress,
		inputIO, outputIO, inputMeta.Decimals, outputMeta.Decimals, inputBalance, outputBalance, req.SignedContext)

	fqn := orderbook.DeriveFQN(order.Owner, v.ID.OrderbookAddress)
	snap := storeSnapshotFor(state.Store, order.Evaluable.Store, fqn, req.StoreOverrides)

	outcome, err := v.Host.Eval(order.Evaluable.Interpreter, interpreter.EvalSpec{
		Store:       order.Evaluable.Store,
		Namespace:   fqn,
		Bytecode:    order.Evaluable.Bytecode,
		SourceIndex: 0,
		Context:     ctx,
	}, snap, state.Env)
	if err != nil {
		return QuoteResult{}, err
	}
	if len(outcome.Stack) < 2 {
		return QuoteResult{}, &raindexerr.ErrRevmExecution{Reason: "calculate-io returned fewer than two stack words"}
	}

	ioRatio := float.FromBytes32(outcome.Stack[0])
	outputMax := float.Min(float.FromBytes32(outcome.Stack[1]), outputBalance)
	outcome.Stack[1] = outputMax.Bytes32()

	return QuoteResult{IORatio: ioRatio, OutputMax: outputMax, Stack: outcome.Stack, Writes: outcome.Writes}, nil
}
