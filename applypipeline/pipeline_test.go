package applypipeline

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/eventdecoder"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/stretchr/testify/require"
)

var testID = orderbook.ID{ChainID: 1, OrderbookAddress: common.HexToAddress("0x99")}

func TestBuildOrdersStatementsBySection(t *testing.T) {
	logs := []eventdecoder.RawLog{
		{BlockNumber: "0xa", LogIndex: "0x0"},
	}
	addHash := orderbook.Hash{0x01}
	removeHash := orderbook.Hash{0x02}
	events := []eventdecoder.Event{
		{Type: eventdecoder.EventAddOrderV3, Payload: eventdecoder.AddOrderPayload{OrderHash: addHash}},
		{Type: eventdecoder.EventRemoveOrderV3, Payload: eventdecoder.AddOrderPayload{OrderHash: removeHash}},
		{Type: eventdecoder.EventDepositV2, Payload: eventdecoder.DepositPayload{
			Sender: common.HexToAddress("0x1"), Token: common.HexToAddress("0x2"), VaultID: [32]byte{0x3},
			DepositAmountUint256: [32]byte{0x4},
		}},
		{Type: eventdecoder.EventWithdrawV2, Payload: eventdecoder.WithdrawPayload{
			Sender: common.HexToAddress("0x1"), Token: common.HexToAddress("0x2"), VaultID: [32]byte{0x3},
			WithdrawAmount: [32]byte{0x5},
		}},
		{Type: eventdecoder.EventAfterClearV2, Payload: eventdecoder.AfterClearPayload{
			Sender: common.HexToAddress("0x1"),
		}},
	}
	tokenA := common.HexToAddress("0xa1")
	tokenB := common.HexToAddress("0xb2")
	existing := map[common.Address]TokenMetadata{tokenA: {Name: "A", Symbol: "AAA", Decimals: 18}}
	fetched := map[common.Address]TokenMetadata{tokenB: {Name: "B", Symbol: "BBB", Decimals: 6}}
	stores := []common.Address{common.HexToAddress("0xc3")}

	batch, err := Build(testID, logs, events, existing, fetched, stores, 42)
	require.NoError(t, err)

	var ops []string
	for _, s := range batch.Statements {
		ops = append(ops, s.Op)
	}
	require.Equal(t, []string{
		"insert_raw_log",
		"insert_decoded_event", "set_order_active",
		"insert_decoded_event", "set_order_active",
		"insert_decoded_event",
		"insert_decoded_event",
		"insert_decoded_event",
		"upsert_token",
		"insert_store_address",
		"vault_delta",
		"vault_delta_negative",
		"clear_settlement",
		"set_watermark",
	}, ops)

	var activeStmts []struct {
		hash   orderbook.Hash
		active bool
	}
	for _, s := range batch.Statements {
		if s.Op != "set_order_active" {
			continue
		}
		activeStmts = append(activeStmts, struct {
			hash   orderbook.Hash
			active bool
		}{s.Args[1].(orderbook.Hash), s.Args[2].(bool)})
	}
	require.Len(t, activeStmts, 2)
	require.Equal(t, addHash, activeStmts[0].hash)
	require.True(t, activeStmts[0].active)
	require.Equal(t, removeHash, activeStmts[1].hash)
	require.False(t, activeStmts[1].active)

	for _, s := range batch.Statements {
		if s.Op == "upsert_token" {
			require.Equal(t, tokenB, s.Args[1].(common.Address))
			require.Equal(t, "B", s.Args[2])
			require.Equal(t, "BBB", s.Args[3])
			require.Equal(t, uint8(6), s.Args[4])
		}
	}

	last := batch.Statements[len(batch.Statements)-1]
	require.Equal(t, "set_watermark", last.Op)
	require.Equal(t, uint64(42), last.Args[1])
}

func TestBuildEmptyInputsYieldsOnlyWatermark(t *testing.T) {
	batch, err := Build(testID, nil, nil, nil, nil, nil, 7)
	require.NoError(t, err)
	require.Len(t, batch.Statements, 1)
	require.Equal(t, "set_watermark", batch.Statements[0].Op)
}

func TestBuildIgnoresNonAddOrderPayloadsForStatusToggle(t *testing.T) {
	events := []eventdecoder.Event{
		{Type: eventdecoder.EventTakeOrderV3, Payload: eventdecoder.TakeOrderPayload{}},
	}
	batch, err := Build(testID, nil, events, nil, nil, nil, 1)
	require.NoError(t, err)
	for _, s := range batch.Statements {
		require.NotEqual(t, "set_order_active", s.Op)
	}
}
