package eventdecoder

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
	"github.com/stretchr/testify/require"
)

func bigFromUint(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

func sampleOrder() orderbook.OrderV4 {
	return orderbook.OrderV4{
		Owner: common.HexToAddress("0xaa"),
		Nonce: [32]byte{1},
		Evaluable: orderbook.Evaluable{
			Interpreter: common.HexToAddress("0x1"),
			Store:       common.HexToAddress("0x2"),
			Bytecode:    []byte{0x01},
		},
		ValidInputs:  []orderbook.IO{{Token: common.HexToAddress("0xbb"), VaultID: [32]byte{1}}},
		ValidOutputs: []orderbook.IO{{Token: common.HexToAddress("0xcc"), VaultID: [32]byte{2}}},
		Active:       true,
	}
}

func encodeOrderArg(o orderbook.OrderV4) orderArg {
	a := orderArg{
		Owner: o.Owner,
		Nonce: o.Nonce,
		Evaluable: evaluableArg{
			Interpreter: o.Evaluable.Interpreter,
			Store:       o.Evaluable.Store,
			Bytecode:    o.Evaluable.Bytecode,
		},
	}
	for _, io := range o.ValidInputs {
		a.ValidInputs = append(a.ValidInputs, ioArg{Token: io.Token, VaultId: io.VaultID})
	}
	for _, io := range o.ValidOutputs {
		a.ValidOutputs = append(a.ValidOutputs, ioArg{Token: io.Token, VaultId: io.VaultID})
	}
	return a
}

func TestDecodeAddOrderV3(t *testing.T) {
	order := sampleOrder()
	hash, err := orderbook.HashOf(order)
	require.NoError(t, err)

	sender := common.HexToAddress("0xdd")
	data, err := addOrderArgs.Pack(sender, [32]byte(hash), encodeOrderArg(order))
	require.NoError(t, err)

	log := RawLog{
		Topics: [][32]byte{crypto.Keccak256Hash([]byte(addOrderV3Sig))},
		Data:   data,
	}

	ev, ok, err := Decode(log)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventAddOrderV3, ev.Type)
	require.Equal(t, "0x0", ev.BlockNumber)
	require.Equal(t, "0x0", ev.LogIndex)

	payload, ok := ev.Payload.(AddOrderPayload)
	require.True(t, ok)
	require.Equal(t, sender, payload.Sender)
	require.Equal(t, hash, payload.OrderHash)
	require.Equal(t, order, payload.Order)
}

func TestDecodeDropsEmptyTopicsOrData(t *testing.T) {
	_, ok, err := Decode(RawLog{Topics: nil, Data: []byte{0x01}})
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = Decode(RawLog{Topics: [][32]byte{{0x01}}, Data: nil})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDecodeUnknownTopicCarriesRawData(t *testing.T) {
	ev, ok, err := Decode(RawLog{Topics: [][32]byte{{0xff}}, Data: []byte{0x01, 0x02}})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventUnknown, ev.Type)
	require.Equal(t, []byte{0x01, 0x02}, ev.Payload)
}

func TestDecodeClearBoundsChecking(t *testing.T) {
	alice := sampleOrder()
	bob := sampleOrder()
	bob.Owner = common.HexToAddress("0xee")

	data, err := clearArgs.Pack(
		common.HexToAddress("0xdd"),
		encodeOrderArg(alice),
		encodeOrderArg(bob),
		bigFromUint(5), // aliceInputIOIndex out of bounds (alice has 1 input)
		bigFromUint(0),
		bigFromUint(0),
		bigFromUint(0),
	)
	require.NoError(t, err)

	log := RawLog{
		Topics: [][32]byte{crypto.Keccak256Hash([]byte(clearV3Sig))},
		Data:   data,
	}

	_, _, err = Decode(log)
	var outOfBounds *raindexerr.ErrAliceInputIOIndexOutOfBounds
	require.ErrorAs(t, err, &outOfBounds)
	require.Equal(t, 5, outOfBounds.Index)
	require.Equal(t, 1, outOfBounds.Max)
}

func TestDecodeClearResolvesVaultIDs(t *testing.T) {
	alice := sampleOrder()
	bob := sampleOrder()
	bob.Owner = common.HexToAddress("0xee")

	data, err := clearArgs.Pack(
		common.HexToAddress("0xdd"),
		encodeOrderArg(alice),
		encodeOrderArg(bob),
		bigFromUint(0),
		bigFromUint(0),
		bigFromUint(0),
		bigFromUint(0),
	)
	require.NoError(t, err)

	log := RawLog{
		Topics: [][32]byte{crypto.Keccak256Hash([]byte(clearV3Sig))},
		Data:   data,
	}

	ev, ok, err := Decode(log)
	require.NoError(t, err)
	require.True(t, ok)

	payload, ok := ev.Payload.(ClearPayload)
	require.True(t, ok)
	require.Equal(t, alice.ValidInputs[0].VaultID, payload.AliceInputVaultID)
	require.Equal(t, bob.ValidOutputs[0].VaultID, payload.BobOutputVaultID)

	aliceHash, err := orderbook.HashOf(alice)
	require.NoError(t, err)
	require.Equal(t, aliceHash, payload.AliceOrderHash)
}

func TestSortEventsStableByBlockThenLogIndex(t *testing.T) {
	events := []Event{
		{Type: EventDepositV2, BlockNumber: "0x2", LogIndex: "0x0"},
		{Type: EventAddOrderV3, BlockNumber: "0x1", LogIndex: "0x5"},
		{Type: EventWithdrawV2, BlockNumber: "0x1", LogIndex: "0x1"},
	}
	SortEvents(events)
	require.Equal(t, EventWithdrawV2, events[0].Type)
	require.Equal(t, EventAddOrderV3, events[1].Type)
	require.Equal(t, EventDepositV2, events[2].Type)
}
