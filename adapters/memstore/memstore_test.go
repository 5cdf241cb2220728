package memstore

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/syncengine"
	"github.com/stretchr/testify/require"
)

var testID = orderbook.ID{ChainID: 1, OrderbookAddress: common.HexToAddress("0x99")}

func TestBootstrapIsIdempotentAndSeedsWatermark(t *testing.T) {
	s := New(100, 5)
	require.NoError(t, s.Bootstrap(context.Background(), testID, nil, 200, 5))
	start, target, err := s.Window(context.Background(), testID, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(101), start)
	require.Equal(t, uint64(195), target)

	// A second Bootstrap must not reset the watermark even with a
	// different baseline.
	base := &syncengine.Snapshot{Watermark: 50}
	require.NoError(t, s.Bootstrap(context.Background(), testID, base, 200, 5))
	start, _, err = s.Window(context.Background(), testID, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(101), start)
}

func TestBootstrapLoadsBaselineStoreAddresses(t *testing.T) {
	s := New(100, 5)
	store1 := common.HexToAddress("0xaa")
	base := &syncengine.Snapshot{Watermark: 120, StoreAddresses: []common.Address{store1}}
	require.NoError(t, s.Bootstrap(context.Background(), testID, base, 200, 5))

	addrs, err := s.PersistedStoreAddresses(context.Background(), testID)
	require.NoError(t, err)
	require.ElementsMatch(t, []common.Address{store1}, addrs)
}

func TestWindowEmptyWhenLatestBelowFinalityDepth(t *testing.T) {
	s := New(100, 10)
	start, target, err := s.Window(context.Background(), testID, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(100), start)
	require.Zero(t, target)
}

func TestFetchMetadataCachesAndExistingMetadataReadsItBack(t *testing.T) {
	s := New(0, 0)
	tok := common.HexToAddress("0xb1")
	fetched, err := s.FetchMetadata(context.Background(), []common.Address{tok})
	require.NoError(t, err)
	require.Equal(t, uint8(18), fetched[tok].Decimals)

	existing, err := s.ExistingMetadata(context.Background(), testID, []common.Address{tok})
	require.NoError(t, err)
	require.Equal(t, uint8(18), existing[tok].Decimals)
}

func TestExecuteBatchFoldsStatementsBackIntoState(t *testing.T) {
	s := New(100, 5)
	require.NoError(t, s.Bootstrap(context.Background(), testID, nil, 200, 5))

	tok := common.HexToAddress("0xc2")
	storeAddr := common.HexToAddress("0xd3")
	var batch dbexec.Batch
	batch.Add("set_watermark", testID, uint64(150))
	batch.Add("insert_store_address", testID, storeAddr)
	batch.Add("upsert_token", testID, tok, "Token", "TKN", uint8(6))

	require.NoError(t, s.ExecuteBatch(context.Background(), batch))
	require.NoError(t, s.Export(context.Background(), testID))

	start, _, err := s.Window(context.Background(), testID, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(151), start)

	addrs, err := s.PersistedStoreAddresses(context.Background(), testID)
	require.NoError(t, err)
	require.Contains(t, addrs, storeAddr)

	meta, err := s.ExistingMetadata(context.Background(), testID, []common.Address{tok})
	require.NoError(t, err)
	require.Equal(t, "TKN", meta[tok].Symbol)

	require.Len(t, s.Batches(), 1)
	require.Equal(t, 1, s.ExportCount())
}
