package virtualraindex

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/float"
	"github.com/rainlanguage/raindex-go/interpreter"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
	"github.com/rainlanguage/raindex-go/raindexstate"
)

// TakeOrderEntry is one candidate leg in a take-orders call.
type TakeOrderEntry struct {
	OrderRef      OrderRef
	InputIOIndex  int
	OutputIOIndex int
	SignedContext []orderbook.SignedContextV1
}

// TakeOrdersConfig is a take-orders call's full input (§4.6).
type TakeOrdersConfig struct {
	Orders          []TakeOrderEntry
	MinimumInput    float.Float
	MaximumInput    float.Float
	MaximumIORatio  float.Float
	Taker           common.Address
	Data            []byte
}

// TakenOrder is one leg actually filled.
type TakenOrder struct {
	OrderHash  orderbook.Hash
	TakerInput float.Float
	TakerOutput float.Float
}

// Warning is a non-fatal per-leg condition recorded during a take-orders
// call; exactly one field is set.
type Warning struct {
	OrderNotFound *orderbook.Hash
	RatioExceeded *orderbook.Hash
	ZeroAmount    *orderbook.Hash
}

// TakeOrdersResult is a take-orders call's full outcome, including the
// mutation list a caller may later apply.
type TakeOrdersResult struct {
	Taken       []TakenOrder
	TotalInput  float.Float
	TotalOutput float.Float
	Warnings    []Warning
	Mutations   []raindexstate.Mutation
}

// TakeOrders simulates the call against committed state without mutating
// it; the resulting Mutations can be applied later, or discarded.
func (v *VirtualRaindex) TakeOrders(cfg TakeOrdersConfig) (TakeOrdersResult, error) {
	result, _, err := v.simulateTakeOrders(cfg)
	return result, err
}

// TakeOrdersAndApplyState simulates the call and, on success, commits the
// resulting mutations to the live state in the same two-phase discipline
// every other mutation goes through.
func (v *VirtualRaindex) TakeOrdersAndApplyState(cfg TakeOrdersConfig) (TakeOrdersResult, error) {
	result, _, err := v.simulateTakeOrders(cfg)
	if err != nil {
		return TakeOrdersResult{}, err
	}
	if err := v.ApplyMutations(result.Mutations); err != nil {
		return TakeOrdersResult{}, err
	}
	return result, nil
}

func (v *VirtualRaindex) simulateTakeOrders(cfg TakeOrdersConfig) (TakeOrdersResult, *raindexstate.State, error) {
	if len(cfg.Orders) == 0 {
		return TakeOrdersResult{}, nil, &raindexerr.ErrNoOrders{}
	}
	if cfg.MaximumInput.Sign() <= 0 {
		return TakeOrdersResult{}, nil, &raindexerr.ErrZeroMaximumInput{}
	}

	working := v.Snapshot()

	remaining := cfg.MaximumInput
	totalInput := float.Zero
	totalOutput := float.Zero
	var taken []TakenOrder
	var warnings []Warning
	var mutations []raindexstate.Mutation
	var expectedInput, expectedOutput *common.Address

	for _, entry := range cfg.Orders {
		if remaining.Sign() <= 0 {
			break
		}

		order, hash, err := v.resolve(working, entry.OrderRef)
		if err != nil {
			if expectedInput == nil {
				return TakeOrdersResult{}, nil, err
			}
			h := orderRefHash(entry.OrderRef)
			warnings = append(warnings, Warning{OrderNotFound: h})
			continue
		}

		if entry.InputIOIndex < 0 || entry.InputIOIndex >= len(order.ValidInputs) {
			return TakeOrdersResult{}, nil, &raindexerr.ErrInvalidInputIndex{Index: entry.InputIOIndex, Len: len(order.ValidInputs)}
		}
		if entry.OutputIOIndex < 0 || entry.OutputIOIndex >= len(order.ValidOutputs) {
			return TakeOrdersResult{}, nil, &raindexerr.ErrInvalidOutputIndex{Index: entry.OutputIOIndex, Len: len(order.ValidOutputs)}
		}
		inputIO := order.ValidInputs[entry.InputIOIndex]
		outputIO := order.ValidOutputs[entry.OutputIOIndex]
		if inputIO.Token == outputIO.Token {
			return TakeOrdersResult{}, nil, &raindexerr.ErrTokenSelfTrade{}
		}
		if expectedInput == nil {
			in, out := inputIO.Token, outputIO.Token
			expectedInput, expectedOutput = &in, &out
		} else if inputIO.Token != *expectedInput || outputIO.Token != *expectedOutput {
			return TakeOrdersResult{}, nil, &raindexerr.ErrTokenMismatch{}
		}

		inputMeta, ok := working.Decimals[inputIO.Token]
		if !ok {
			return TakeOrdersResult{}, nil, &raindexerr.ErrTokenDecimalMissing{Token: inputIO.Token}
		}
		outputMeta, ok := working.Decimals[outputIO.Token]
		if !ok {
			return TakeOrdersResult{}, nil, &raindexerr.ErrTokenDecimalMissing{Token: outputIO.Token}
		}

		fqn := orderbook.DeriveFQN(order.Owner, v.ID.OrderbookAddress)
		inputBalance := working.VaultBalance(orderbook.VaultKey{Owner: order.Owner, Token: inputIO.Token, VaultID: inputIO.VaultID})
		outputBalance := working.VaultBalance(orderbook.VaultKey{Owner: order.Owner, Token: outputIO.Token, VaultID: outputIO.VaultID})

		ctx := buildQuoteContext(hash, order.Owner, cfg.Taker, v.ID.OrderbookAddress,
			inputIO, outputIO, inputMeta.Decimals, outputMeta.Decimals, inputBalance, outputBalance, entry.SignedContext)

		calcSnap := storeSnapshotFor(working.Store, order.Evaluable.Store, fqn, nil)
		calcOutcome, err := v.Host.Eval(order.Evaluable.Interpreter, interpreter.EvalSpec{
			Store:       order.Evaluable.Store,
			Namespace:   fqn,
			Bytecode:    order.Evaluable.Bytecode,
			SourceIndex: 0,
			Context:     ctx,
		}, calcSnap, working.Env)
		if err != nil {
			return TakeOrdersResult{}, nil, err
		}
		if len(calcOutcome.Stack) < 2 {
			return TakeOrdersResult{}, nil, &raindexerr.ErrRevmExecution{Reason: "calculate-io returned fewer than two stack words"}
		}

		ioRatio := float.FromBytes32(calcOutcome.Stack[0])
		outputMax := float.Min(float.FromBytes32(calcOutcome.Stack[1]), outputBalance)

		if float.Cmp(ioRatio, cfg.MaximumIORatio) > 0 {
			warnings = append(warnings, Warning{RatioExceeded: &hash})
			continue
		}
		if outputMax.IsZero() {
			warnings = append(warnings, Warning{ZeroAmount: &hash})
			continue
		}

		takerInput := float.Min(outputMax, remaining)
		if takerInput.IsZero() {
			continue
		}
		takerOutput := float.Mul(ioRatio, takerInput)

		var storeSets []raindexstate.StoreSet
		for _, w := range calcOutcome.Writes {
			key := orderbook.StoreKey{Store: order.Evaluable.Store, FQN: fqn, Key: w.Key}
			working.Store[key] = w.Value
			storeSets = append(storeSets, raindexstate.StoreSet{Store: order.Evaluable.Store, FQN: fqn, Key: w.Key, Value: w.Value})
		}
		if len(storeSets) > 0 {
			mutations = append(mutations, raindexstate.Mutation{ApplyStore: storeSets})
		}

		ctx[2] = [][32]byte{outputMax.Bytes32(), ioRatio.Bytes32()}
		ctx[3][4] = takerOutput.Bytes32()
		ctx[4][4] = takerInput.Bytes32()

		handleSnap := storeSnapshotFor(working.Store, order.Evaluable.Store, fqn, nil)
		handleOutcome, err := v.Host.Eval(order.Evaluable.Interpreter, interpreter.EvalSpec{
			Store:       order.Evaluable.Store,
			Namespace:   fqn,
			Bytecode:    order.Evaluable.Bytecode,
			SourceIndex: 1,
			Context:     ctx,
		}, handleSnap, working.Env)
		if err != nil {
			return TakeOrdersResult{}, nil, err
		}
		if len(handleOutcome.Writes) > 0 {
			handleSets := make([]raindexstate.StoreSet, 0, len(handleOutcome.Writes))
			for _, w := range handleOutcome.Writes {
				key := orderbook.StoreKey{Store: order.Evaluable.Store, FQN: fqn, Key: w.Key}
				working.Store[key] = w.Value
				handleSets = append(handleSets, raindexstate.StoreSet{Store: order.Evaluable.Store, FQN: fqn, Key: w.Key, Value: w.Value})
			}
			mutations = append(mutations, raindexstate.Mutation{ApplyStore: handleSets})
		}

		inputKey := orderbook.VaultKey{Owner: order.Owner, Token: inputIO.Token, VaultID: inputIO.VaultID}
		outputKey := orderbook.VaultKey{Owner: order.Owner, Token: outputIO.Token, VaultID: outputIO.VaultID}
		working.Vaults[inputKey] = float.Add(working.VaultBalance(inputKey), takerOutput)
		working.Vaults[outputKey] = float.Sub(working.VaultBalance(outputKey), takerInput)

		mutations = append(mutations, raindexstate.Mutation{VaultDeltas: []raindexstate.VaultDelta{
			{Owner: order.Owner, Token: inputIO.Token, VaultID: inputIO.VaultID, Delta: takerOutput, Reason: raindexstate.ReasonTakeOrderCredit},
			{Owner: order.Owner, Token: outputIO.Token, VaultID: outputIO.VaultID, Delta: float.Neg(takerInput), Reason: raindexstate.ReasonTakeOrderDebit},
		}})

		taken = append(taken, TakenOrder{OrderHash: hash, TakerInput: takerInput, TakerOutput: takerOutput})
		totalInput = float.Add(totalInput, takerInput)
		totalOutput = float.Add(totalOutput, takerOutput)
		remaining = float.Sub(remaining, takerInput)
	}

	if float.Cmp(totalInput, cfg.MinimumInput) < 0 {
		return TakeOrdersResult{}, nil, &raindexerr.ErrMinimumInputNotMet{Minimum: cfg.MinimumInput.String(), Actual: totalInput.String()}
	}

	return TakeOrdersResult{
		Taken:       taken,
		TotalInput:  totalInput,
		TotalOutput: totalOutput,
		Warnings:    warnings,
		Mutations:   mutations,
	}, working, nil
}

func orderRefHash(ref OrderRef) *orderbook.Hash {
	if ref.Hash != nil {
		return ref.Hash
	}
	if ref.Order != nil {
		if h, err := orderbook.HashOf(*ref.Order); err == nil {
			return &h
		}
	}
	return &orderbook.Hash{}
}

// Candidate is one orderbook's entry in a best-execution comparison: the
// legs to try plus the fill constraints that don't vary with the sell
// budget. Result is populated by BestExecution on the winning candidate.
type Candidate struct {
	Raindex        *VirtualRaindex
	Orders         []TakeOrderEntry
	MinimumInput   float.Float
	MaximumIORatio float.Float
	Taker          common.Address
	Data           []byte

	Result TakeOrdersResult
}

// BestExecution simulates the same sellBudget independently against every
// candidate orderbook and selects the winner per §4.6's tie-break: highest
// total bought by the taker, then lower worst per-leg price, then lower
// orderbook address. Candidates that fail to simulate are excluded rather
// than aborting the whole comparison.
func BestExecution(candidates []Candidate, sellBudget float.Float) (Candidate, error) {
	type simmed struct {
		candidate  Candidate
		worstPrice float.Float
	}
	var sims []simmed
	for _, c := range candidates {
		cfg := TakeOrdersConfig{
			Orders:         c.Orders,
			MinimumInput:   c.MinimumInput,
			MaximumInput:   sellBudget,
			MaximumIORatio: c.MaximumIORatio,
			Taker:          c.Taker,
			Data:           c.Data,
		}
		res, err := c.Raindex.TakeOrders(cfg)
		if err != nil {
			continue
		}
		worst := float.Zero
		for _, t := range res.Taken {
			if t.TakerInput.IsZero() {
				continue
			}
			price, err := float.Div(t.TakerOutput, t.TakerInput)
			if err != nil {
				continue
			}
			if float.Cmp(price, worst) > 0 {
				worst = price
			}
		}
		c.Result = res
		sims = append(sims, simmed{candidate: c, worstPrice: worst})
	}
	if len(sims) == 0 {
		return Candidate{}, &raindexerr.ErrNoOrders{}
	}

	sort.Slice(sims, func(i, j int) bool {
		if c := float.Cmp(sims[i].candidate.Result.TotalInput, sims[j].candidate.Result.TotalInput); c != 0 {
			return c > 0
		}
		if c := float.Cmp(sims[i].worstPrice, sims[j].worstPrice); c != 0 {
			return c < 0
		}
		return bytes.Compare(sims[i].candidate.Raindex.ID.OrderbookAddress.Bytes(), sims[j].candidate.Raindex.ID.OrderbookAddress.Bytes()) < 0
	})

	return sims[0].candidate, nil
}
