// Package eventdecoder translates raw orderbook logs into a typed event
// stream (§4.8): it classifies by topic-0, ABI-decodes the payload, and
// re-derives order hashes so the decoder and the Virtual Raindex can never
// disagree about an order's identity.
package eventdecoder

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/orderbook"
)

// EventType names one of the eight known orderbook event signatures, or
// Unknown for anything else.
type EventType int

const (
	EventUnknown EventType = iota
	EventAddOrderV3
	EventTakeOrderV3
	EventWithdrawV2
	EventDepositV2
	EventRemoveOrderV3
	EventClearV3
	EventAfterClearV2
	EventMetaV1_2
)

func (e EventType) String() string {
	switch e {
	case EventAddOrderV3:
		return "AddOrderV3"
	case EventTakeOrderV3:
		return "TakeOrderV3"
	case EventWithdrawV2:
		return "WithdrawV2"
	case EventDepositV2:
		return "DepositV2"
	case EventRemoveOrderV3:
		return "RemoveOrderV3"
	case EventClearV3:
		return "ClearV3"
	case EventAfterClearV2:
		return "AfterClearV2"
	case EventMetaV1_2:
		return "MetaV1_2"
	default:
		return "Unknown"
	}
}

// RawLog is the input shape the decoder consumes: a raw chain log plus the
// out-of-band fields the Log Fetcher attaches (block number/timestamp).
type RawLog struct {
	Address         common.Address
	Topics          [][32]byte
	Data            []byte
	BlockNumber     string
	BlockTimestamp  string
	TransactionHash common.Hash
	LogIndex        string
	Removed         bool
}

// Event is one decoded log: identity fields normalized per §4.8, plus the
// event-specific payload.
type Event struct {
	Type            EventType
	BlockNumber     string
	BlockTimestamp  string
	TransactionHash common.Hash
	LogIndex        string
	Payload         any
}

// AddOrderPayload backs AddOrderV3 and RemoveOrderV3 (identical shape).
type AddOrderPayload struct {
	Sender    common.Address
	OrderHash orderbook.Hash
	Order     orderbook.OrderV4
}

// TakeOrderPayload backs TakeOrderV3.
type TakeOrderPayload struct {
	Sender        common.Address
	Order         orderbook.OrderV4
	OrderHash     orderbook.Hash
	InputIOIndex  uint64
	OutputIOIndex uint64
	SignedContext []orderbook.SignedContextV1
	Input         [32]byte // Float wire word
	Output        [32]byte // Float wire word
}

// WithdrawPayload backs WithdrawV2.
type WithdrawPayload struct {
	Sender               common.Address
	Token                common.Address
	VaultID              [32]byte
	TargetAmount         [32]byte // Float wire word
	WithdrawAmount       [32]byte // Float wire word
	WithdrawAmountUint256 [32]byte
}

// DepositPayload backs DepositV2.
type DepositPayload struct {
	Sender              common.Address
	Token               common.Address
	VaultID             [32]byte
	DepositAmountUint256 [32]byte
}

// ClearPayload backs ClearV3. Vault IDs are resolved via the clear-config
// indices, bounds-checked against the respective order's IO arrays.
type ClearPayload struct {
	Sender             common.Address
	AliceOrder         orderbook.OrderV4
	BobOrder           orderbook.OrderV4
	AliceOrderHash     orderbook.Hash
	BobOrderHash       orderbook.Hash
	AliceInputIOIndex  uint64
	AliceOutputIOIndex uint64
	BobInputIOIndex    uint64
	BobOutputIOIndex   uint64
	AliceInputVaultID  [32]byte
	AliceOutputVaultID [32]byte
	BobInputVaultID    [32]byte
	BobOutputVaultID   [32]byte
}

// AfterClearPayload backs AfterClearV2.
type AfterClearPayload struct {
	Sender      common.Address
	AliceInput  [32]byte // Float wire word
	AliceOutput [32]byte // Float wire word
	BobInput    [32]byte // Float wire word
	BobOutput   [32]byte // Float wire word
}

// MetaPayload backs MetaV1_2.
type MetaPayload struct {
	Sender  common.Address
	Subject [32]byte
	Meta    []byte
}
