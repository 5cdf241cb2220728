package eventdecoder

import "github.com/ethereum/go-ethereum/crypto"

// Canonical event signatures, flattened to Solidity's parenthesized ABI
// form the same way orderbook/hash.go flattens OrderV4 for hashing. Order
// and evaluable tuples repeat verbatim wherever they appear in an event,
// since Solidity has no named-type references in topic-0 computation.
const (
	orderTuple = "(address,bytes32,(address,address,bytes),(address,bytes32)[],(address,bytes32)[])"

	addOrderV3Sig   = "AddOrderV3(address,bytes32," + orderTuple + ")"
	removeOrderV3Sig = "RemoveOrderV3(address,bytes32," + orderTuple + ")"
	takeOrderV3Sig  = "TakeOrderV3(address,(" + orderTuple + ",uint256,uint256,(address,uint256[],bytes)[]),uint256,uint256)"
	withdrawV2Sig   = "WithdrawV2(address,address,bytes32,int256,int256,uint256)"
	depositV2Sig    = "DepositV2(address,address,bytes32,uint256)"
	clearV3Sig      = "ClearV3(address," + orderTuple + "," + orderTuple + ",(uint256,uint256,uint256,uint256))"
	afterClearV2Sig = "AfterClearV2(address,int256,int256,int256,int256)"
	metaV1_2Sig     = "MetaV1_2(address,bytes32,bytes)"
)

// topics maps each known event's topic-0 to its type, built once at init
// the way log consumers typically precompute their event-signature table.
var topics = map[[32]byte]EventType{
	crypto.Keccak256Hash([]byte(addOrderV3Sig)):    EventAddOrderV3,
	crypto.Keccak256Hash([]byte(takeOrderV3Sig)):   EventTakeOrderV3,
	crypto.Keccak256Hash([]byte(withdrawV2Sig)):    EventWithdrawV2,
	crypto.Keccak256Hash([]byte(depositV2Sig)):     EventDepositV2,
	crypto.Keccak256Hash([]byte(removeOrderV3Sig)): EventRemoveOrderV3,
	crypto.Keccak256Hash([]byte(clearV3Sig)):       EventClearV3,
	crypto.Keccak256Hash([]byte(afterClearV2Sig)):  EventAfterClearV2,
	crypto.Keccak256Hash([]byte(metaV1_2Sig)):      EventMetaV1_2,
}

// KnownTopics returns the fixed eight-signature topic-0 set, the filter
// the Log Fetcher always passes to getLogs.
func KnownTopics() [][32]byte {
	out := make([][32]byte, 0, len(topics))
	for t := range topics {
		out = append(out, t)
	}
	return out
}

// classify returns the event type for a log's topic-0, or EventUnknown.
func classify(topic0 [32]byte) EventType {
	if t, ok := topics[topic0]; ok {
		return t
	}
	return EventUnknown
}
