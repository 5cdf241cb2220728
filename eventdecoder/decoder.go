package eventdecoder

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
)

// Decoder is the stateless event decoder the Sync Engine wires in as
// Adapters.Decoder. It carries no fields; the methods just give the
// package's decode/sort functions a handle the engine can hold alongside
// its other adapters.
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Decode classifies a raw log by topic-0 and ABI-decodes its payload.
func (d *Decoder) Decode(log RawLog) (Event, bool, error) { return Decode(log) }

// SortEvents stably sorts decoded events by (block_number, log_index).
func (d *Decoder) SortEvents(events []Event) { SortEvents(events) }

// Decode classifies a raw log by topic-0 and ABI-decodes its payload. Logs
// with no topics or no data are dropped silently (ok == false, err == nil):
// these come from chains that emit anonymous or bloom-only entries the
// orderbook contract never produces, and are not a decode failure. Logs
// whose topic-0 doesn't match one of the eight known events are returned
// as EventUnknown with the raw data as payload (ok == true, err == nil).
func Decode(log RawLog) (Event, bool, error) {
	if len(log.Topics) == 0 || len(log.Data) == 0 {
		return Event{}, false, nil
	}

	typ := classify(log.Topics[0])

	var payload any
	if typ != EventUnknown {
		decoded, err := decodePayload(typ, log.Data)
		if err != nil {
			return Event{}, false, err
		}
		payload = decoded
	} else {
		// Unknown topic-0: carried through with the raw data so ABI drift
		// surfaces in tooling instead of silently breaking ingestion.
		payload = log.Data
	}

	return Event{
		Type:            typ,
		BlockNumber:     normalizeHex(log.BlockNumber),
		BlockTimestamp:  normalizeHex(log.BlockTimestamp),
		TransactionHash: log.TransactionHash,
		LogIndex:        normalizeHex(log.LogIndex),
		Payload:         payload,
	}, true, nil
}

func normalizeHex(s string) string {
	if s == "" {
		return "0x0"
	}
	return s
}

func decodePayload(typ EventType, data []byte) (any, error) {
	switch typ {
	case EventAddOrderV3, EventRemoveOrderV3:
		return decodeAddOrRemove(data)
	case EventTakeOrderV3:
		return decodeTakeOrder(data)
	case EventWithdrawV2:
		return decodeWithdraw(data)
	case EventDepositV2:
		return decodeDeposit(data)
	case EventClearV3:
		return decodeClear(data)
	case EventAfterClearV2:
		return decodeAfterClear(data)
	case EventMetaV1_2:
		return decodeMeta(data)
	default:
		return nil, nil
	}
}

func decodeAddOrRemove(data []byte) (AddOrderPayload, error) {
	var dest struct {
		Sender    [20]byte
		OrderHash [32]byte
		Order     orderArg
	}
	if err := addOrderArgs.UnpackIntoInterface(&dest, data); err != nil {
		return AddOrderPayload{}, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	order := toOrder(dest.Order)
	hash, err := orderbook.HashOf(order)
	if err != nil {
		return AddOrderPayload{}, err
	}
	return AddOrderPayload{
		Sender:    dest.Sender,
		OrderHash: hash,
		Order:     order,
	}, nil
}

func decodeTakeOrder(data []byte) (TakeOrderPayload, error) {
	var dest struct {
		Sender [20]byte
		Config struct {
			Order         orderArg
			InputIOIndex  *big.Int
			OutputIOIndex *big.Int
			SignedContext []signedContextArg
		}
		Input  *big.Int
		Output *big.Int
	}
	if err := takeOrderArgs.UnpackIntoInterface(&dest, data); err != nil {
		return TakeOrderPayload{}, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	order := toOrder(dest.Config.Order)
	hash, err := orderbook.HashOf(order)
	if err != nil {
		return TakeOrderPayload{}, err
	}

	signed := make([]orderbook.SignedContextV1, len(dest.Config.SignedContext))
	for i, sc := range dest.Config.SignedContext {
		ctx := make([][32]byte, len(sc.Context))
		for j, word := range sc.Context {
			ctx[j] = orderbook.U256Word(word)
		}
		signed[i] = orderbook.SignedContextV1{Signer: sc.Signer, Context: ctx, Signature: sc.Signature}
	}

	return TakeOrderPayload{
		Sender:        dest.Sender,
		Order:         order,
		OrderHash:     hash,
		InputIOIndex:  dest.Config.InputIOIndex.Uint64(),
		OutputIOIndex: dest.Config.OutputIOIndex.Uint64(),
		SignedContext: signed,
		Input:         orderbook.U256Word(dest.Input),
		Output:        orderbook.U256Word(dest.Output),
	}, nil
}

func decodeWithdraw(data []byte) (WithdrawPayload, error) {
	var dest struct {
		Sender                [20]byte
		Token                 [20]byte
		VaultId               [32]byte
		TargetAmount          *big.Int
		WithdrawAmount        *big.Int
		WithdrawAmountUint256 *big.Int
	}
	if err := withdrawArgs.UnpackIntoInterface(&dest, data); err != nil {
		return WithdrawPayload{}, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	return WithdrawPayload{
		Sender:                dest.Sender,
		Token:                 dest.Token,
		VaultID:               dest.VaultId,
		TargetAmount:          orderbook.U256Word(dest.TargetAmount),
		WithdrawAmount:        orderbook.U256Word(dest.WithdrawAmount),
		WithdrawAmountUint256: orderbook.U256Word(dest.WithdrawAmountUint256),
	}, nil
}

func decodeDeposit(data []byte) (DepositPayload, error) {
	var dest struct {
		Sender               [20]byte
		Token                [20]byte
		VaultId              [32]byte
		DepositAmountUint256 *big.Int
	}
	if err := depositArgs.UnpackIntoInterface(&dest, data); err != nil {
		return DepositPayload{}, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	return DepositPayload{
		Sender:               dest.Sender,
		Token:                dest.Token,
		VaultID:              dest.VaultId,
		DepositAmountUint256: orderbook.U256Word(dest.DepositAmountUint256),
	}, nil
}

// decodeClear resolves the clear-config IO indices against each order's
// own valid-input/valid-output arrays, bounds-checking exactly the way the
// reference sqlite decoder does.
func decodeClear(data []byte) (ClearPayload, error) {
	var dest struct {
		Sender             [20]byte
		Alice              orderArg
		Bob                orderArg
		AliceInputIOIndex  *big.Int
		AliceOutputIOIndex *big.Int
		BobInputIOIndex    *big.Int
		BobOutputIOIndex   *big.Int
	}
	if err := clearArgs.UnpackIntoInterface(&dest, data); err != nil {
		return ClearPayload{}, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}

	alice := toOrder(dest.Alice)
	bob := toOrder(dest.Bob)
	aliceHash, err := orderbook.HashOf(alice)
	if err != nil {
		return ClearPayload{}, err
	}
	bobHash, err := orderbook.HashOf(bob)
	if err != nil {
		return ClearPayload{}, err
	}

	aliceInputIdx := int(dest.AliceInputIOIndex.Uint64())
	if aliceInputIdx >= len(alice.ValidInputs) {
		return ClearPayload{}, &raindexerr.ErrAliceInputIOIndexOutOfBounds{Index: aliceInputIdx, Max: len(alice.ValidInputs)}
	}
	aliceOutputIdx := int(dest.AliceOutputIOIndex.Uint64())
	if aliceOutputIdx >= len(alice.ValidOutputs) {
		return ClearPayload{}, &raindexerr.ErrAliceOutputIOIndexOutOfBounds{Index: aliceOutputIdx, Max: len(alice.ValidOutputs)}
	}
	bobInputIdx := int(dest.BobInputIOIndex.Uint64())
	if bobInputIdx >= len(bob.ValidInputs) {
		return ClearPayload{}, &raindexerr.ErrBobInputIOIndexOutOfBounds{Index: bobInputIdx, Max: len(bob.ValidInputs)}
	}
	bobOutputIdx := int(dest.BobOutputIOIndex.Uint64())
	if bobOutputIdx >= len(bob.ValidOutputs) {
		return ClearPayload{}, &raindexerr.ErrBobOutputIOIndexOutOfBounds{Index: bobOutputIdx, Max: len(bob.ValidOutputs)}
	}

	return ClearPayload{
		Sender:             dest.Sender,
		AliceOrder:         alice,
		BobOrder:           bob,
		AliceOrderHash:     aliceHash,
		BobOrderHash:       bobHash,
		AliceInputIOIndex:  uint64(aliceInputIdx),
		AliceOutputIOIndex: uint64(aliceOutputIdx),
		BobInputIOIndex:    uint64(bobInputIdx),
		BobOutputIOIndex:   uint64(bobOutputIdx),
		AliceInputVaultID:  alice.ValidInputs[aliceInputIdx].VaultID,
		AliceOutputVaultID: alice.ValidOutputs[aliceOutputIdx].VaultID,
		BobInputVaultID:    bob.ValidInputs[bobInputIdx].VaultID,
		BobOutputVaultID:   bob.ValidOutputs[bobOutputIdx].VaultID,
	}, nil
}

func decodeAfterClear(data []byte) (AfterClearPayload, error) {
	var dest struct {
		Sender      [20]byte
		AliceInput  *big.Int
		AliceOutput *big.Int
		BobInput    *big.Int
		BobOutput   *big.Int
	}
	if err := afterClearArgs.UnpackIntoInterface(&dest, data); err != nil {
		return AfterClearPayload{}, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	return AfterClearPayload{
		Sender:      dest.Sender,
		AliceInput:  orderbook.U256Word(dest.AliceInput),
		AliceOutput: orderbook.U256Word(dest.AliceOutput),
		BobInput:    orderbook.U256Word(dest.BobInput),
		BobOutput:   orderbook.U256Word(dest.BobOutput),
	}, nil
}

func decodeMeta(data []byte) (MetaPayload, error) {
	var dest struct {
		Sender  [20]byte
		Subject [32]byte
		Meta    []byte
	}
	if err := metaArgs.UnpackIntoInterface(&dest, data); err != nil {
		return MetaPayload{}, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	return MetaPayload{Sender: dest.Sender, Subject: dest.Subject, Meta: dest.Meta}, nil
}

// SortEvents stably sorts decoded events by (block_number, log_index) as
// unsigned integers, tolerating both hex ("0x1a") and decimal ("26") forms
// the way the block-number parser does.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		bi, bj := parseUint(events[i].BlockNumber), parseUint(events[j].BlockNumber)
		if bi != bj {
			return bi < bj
		}
		return parseUint(events[i].LogIndex) < parseUint(events[j].LogIndex)
	})
}

func parseUint(s string) uint64 {
	if s == "" {
		return 0
	}
	base := 16
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		base = 10
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), base, 64)
	if err != nil {
		return 0
	}
	return v
}
