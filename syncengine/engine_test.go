package syncengine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/applypipeline"
	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/rainlanguage/raindex-go/eventdecoder"
	"github.com/rainlanguage/raindex-go/logfetcher"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct{ latest uint64 }

func (f fakeEvents) LatestBlock(context.Context) (uint64, error) { return f.latest, nil }

type fakeBootstrap struct{}

func (fakeBootstrap) Bootstrap(context.Context, orderbook.ID, *Snapshot, uint64, uint64) error {
	return nil
}
func (fakeBootstrap) PersistedStoreAddresses(context.Context, orderbook.ID) ([]common.Address, error) {
	return nil, nil
}

type fakeWindow struct{ start, target uint64 }

func (f fakeWindow) Window(context.Context, orderbook.ID, uint64) (uint64, uint64, error) {
	return f.start, f.target, nil
}

type fakeTokens struct{}

func (fakeTokens) ExistingMetadata(context.Context, orderbook.ID, []common.Address) (map[common.Address]applypipeline.TokenMetadata, error) {
	return map[common.Address]applypipeline.TokenMetadata{}, nil
}
func (fakeTokens) FetchMetadata(context.Context, []common.Address) (map[common.Address]applypipeline.TokenMetadata, error) {
	return map[common.Address]applypipeline.TokenMetadata{}, nil
}

type fakeDB struct{ batches int }

func (f *fakeDB) ExecuteBatch(context.Context, dbexec.Batch) error { f.batches++; return nil }
func (f *fakeDB) QueryJSON(context.Context, dbexec.Statement) (json.RawMessage, error) {
	return nil, nil
}

type fakeExport struct{ calls int }

func (f *fakeExport) Export(context.Context, orderbook.ID) error { f.calls++; return nil }

type emptyTransport struct{}

func (emptyTransport) GetLogs(context.Context, string, string, string, [][32]byte) (string, error) {
	return `{"result":[]}`, nil
}
func (emptyTransport) GetBlockByNumber(context.Context, uint64) (string, error) {
	return `{"result":{"timestamp":"0x1"}}`, nil
}

// Scenario 1: empty window short-circuits after exactly four status
// messages, with no build/persist/export calls.
func TestCycleEmptyWindow(t *testing.T) {
	status := make(chan string, 16)
	db := &fakeDB{}
	export := &fakeExport{}

	a := Adapters{
		Events:    fakeEvents{latest: 100},
		Bootstrap: fakeBootstrap{},
		Window:    fakeWindow{start: 15, target: 10},
		Fetcher:   logfetcher.New(emptyTransport{}, logfetcher.FetchConfig{}),
		Decoder:   eventdecoder.NewDecoder(),
		Tokens:    fakeTokens{},
		DB:        db,
		Export:    export,
		Status:    status,
	}

	res, err := Cycle(context.Background(), a, Params{ID: orderbook.ID{ChainID: 1, OrderbookAddress: common.HexToAddress("0x99")}})
	require.NoError(t, err)
	require.Equal(t, uint64(15), res.StartBlock)
	require.Equal(t, uint64(10), res.TargetBlock)
	require.Zero(t, res.FetchedLogs)
	require.Zero(t, res.DecodedEvents)

	close(status)
	var messages []string
	for msg := range status {
		messages = append(messages, msg)
	}
	require.Equal(t, []string{
		StatusFetchingLatestBlock,
		StatusRunningBootstrap,
		StatusComputingSyncWindow,
		StatusNoWorkForWindow,
	}, messages)
	require.Zero(t, db.batches)
	require.Zero(t, export.calls)
}
