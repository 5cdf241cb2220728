package syncengine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/applypipeline"
	"github.com/rainlanguage/raindex-go/eventdecoder"
	"github.com/rainlanguage/raindex-go/metrics"
	"github.com/rainlanguage/raindex-go/orderbook"
	"golang.org/x/sync/errgroup"
)

// Status messages, verbatim and order-significant: tests assert on them.
const (
	StatusFetchingLatestBlock       = "Fetching latest block"
	StatusRunningBootstrap          = "Running bootstrap"
	StatusComputingSyncWindow       = "Computing sync window"
	StatusNoWorkForWindow           = "No work for current window"
	StatusFetchingOrderbookLogs     = "Fetching orderbook logs"
	StatusDecodingOrderbookLogs     = "Decoding orderbook logs"
	StatusFetchingStoreLogs         = "Fetching interpreter store logs"
	StatusDecodingStoreLogs         = "Decoding interpreter store logs"
	StatusFetchingMissingTokens     = "Fetching missing token metadata"
	StatusBuildingBatch             = "Building SQL batch"
	StatusPersisting                = "Persisting to database"
	StatusRunningExport             = "Running post-sync export"
)

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	StartBlock    uint64
	TargetBlock   uint64
	FetchedLogs   int
	DecodedEvents int
}

// Params carries the cycle-scoped inputs. Cycle passes ID, Base and
// FinalityDepth to the Bootstrap adapter and ID to the Window adapter;
// DeploymentBlock is carried but not passed to any adapter.
type Params struct {
	ID              orderbook.ID
	FinalityDepth   uint64
	DeploymentBlock uint64
	Base            *Snapshot
}

func emit(status chan<- string, msg string) {
	if status == nil {
		return
	}
	status <- msg
}

// Cycle runs one sync cycle per §4.10's phase order. Any adapter error
// short-circuits immediately; no partial state is persisted.
func Cycle(ctx context.Context, a Adapters, p Params) (result CycleResult, err error) {
	err = metrics.TimeCycle(func() error {
		result, err = runCycle(ctx, a, p)
		return err
	})
	return result, err
}

func runCycle(ctx context.Context, a Adapters, p Params) (CycleResult, error) {
	emit(a.Status, StatusFetchingLatestBlock)
	latest, err := a.Events.LatestBlock(ctx)
	if err != nil {
		return CycleResult{}, err
	}

	emit(a.Status, StatusRunningBootstrap)
	if err := a.Bootstrap.Bootstrap(ctx, p.ID, p.Base, latest, p.FinalityDepth); err != nil {
		return CycleResult{}, err
	}

	emit(a.Status, StatusComputingSyncWindow)
	start, target, err := a.Window.Window(ctx, p.ID, latest)
	if err != nil {
		return CycleResult{}, err
	}
	if start > target {
		emit(a.Status, StatusNoWorkForWindow)
		return CycleResult{StartBlock: start, TargetBlock: target}, nil
	}

	emit(a.Status, StatusFetchingOrderbookLogs)
	obLogs, err := a.Fetcher.Fetch(ctx, p.ID.OrderbookAddress, start, target)
	if err != nil {
		return CycleResult{}, err
	}

	emit(a.Status, StatusDecodingOrderbookLogs)
	obEvents, err := decodeAll(a.Decoder, obLogs)
	if err != nil {
		return CycleResult{}, err
	}

	stores, tokens := harvest(obEvents)
	persisted, err := a.Bootstrap.PersistedStoreAddresses(ctx, p.ID)
	if err != nil {
		return CycleResult{}, err
	}
	storeSet := unionAddresses(stores, persisted)

	var storeLogs []eventdecoder.RawLog
	var storeEvents []eventdecoder.Event
	var existingTokenMeta map[common.Address]applypipeline.TokenMetadata

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existingTokenMeta, err = a.Tokens.ExistingMetadata(gctx, p.ID, tokens)
		return err
	})
	g.Go(func() error {
		emit(a.Status, StatusFetchingStoreLogs)
		logs, err := fetchForAddresses(gctx, a.Fetcher, storeSet, start, target)
		if err != nil {
			return err
		}
		emit(a.Status, StatusDecodingStoreLogs)
		events, err := decodeAll(a.Decoder, logs)
		if err != nil {
			return err
		}
		storeLogs, storeEvents = logs, events
		return nil
	})
	if err := g.Wait(); err != nil {
		return CycleResult{}, err
	}

	allLogs := append(obLogs, storeLogs...)
	allEvents := append(obEvents, storeEvents...)
	a.Decoder.SortEvents(allEvents)

	var missing []common.Address
	for _, tok := range tokens {
		if _, ok := existingTokenMeta[tok]; !ok {
			missing = append(missing, tok)
		}
	}
	fetchedMeta := map[common.Address]applypipeline.TokenMetadata{}
	if len(missing) > 0 {
		emit(a.Status, StatusFetchingMissingTokens)
		fetchedMeta, err = a.Tokens.FetchMetadata(ctx, missing)
		if err != nil {
			return CycleResult{}, err
		}
	}

	emit(a.Status, StatusBuildingBatch)
	batch, err := applypipeline.Build(p.ID, allLogs, allEvents, existingTokenMeta, fetchedMeta, storeSet, target)
	if err != nil {
		return CycleResult{}, err
	}

	emit(a.Status, StatusPersisting)
	if err := a.DB.ExecuteBatch(ctx, batch); err != nil {
		return CycleResult{}, err
	}

	emit(a.Status, StatusRunningExport)
	if err := a.Export.Export(ctx, p.ID); err != nil {
		return CycleResult{}, err
	}

	return CycleResult{
		StartBlock:    start,
		TargetBlock:   target,
		FetchedLogs:   len(allLogs),
		DecodedEvents: len(allEvents),
	}, nil
}

func decodeAll(d *eventdecoder.Decoder, logs []eventdecoder.RawLog) ([]eventdecoder.Event, error) {
	events := make([]eventdecoder.Event, 0, len(logs))
	for _, l := range logs {
		ev, ok, err := d.Decode(l)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func fetchForAddresses(ctx context.Context, f interface {
	Fetch(ctx context.Context, addr common.Address, start, end uint64) ([]eventdecoder.RawLog, error)
}, addrs []common.Address, start, target uint64) ([]eventdecoder.RawLog, error) {
	var out []eventdecoder.RawLog
	for _, addr := range addrs {
		logs, err := f.Fetch(ctx, addr, start, target)
		if err != nil {
			return nil, err
		}
		out = append(out, logs...)
	}
	return out, nil
}

// harvest collects the interpreter-store and token addresses referenced by
// a decoded event set.
func harvest(events []eventdecoder.Event) (stores, tokens []common.Address) {
	seenStore := map[common.Address]bool{}
	seenToken := map[common.Address]bool{}
	addStore := func(a common.Address) {
		if a != (common.Address{}) && !seenStore[a] {
			seenStore[a] = true
			stores = append(stores, a)
		}
	}
	addToken := func(a common.Address) {
		if a != (common.Address{}) && !seenToken[a] {
			seenToken[a] = true
			tokens = append(tokens, a)
		}
	}
	addOrder := func(o orderbook.OrderV4) {
		addStore(o.Evaluable.Store)
		for _, io := range o.ValidInputs {
			addToken(io.Token)
		}
		for _, io := range o.ValidOutputs {
			addToken(io.Token)
		}
	}
	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case eventdecoder.AddOrderPayload:
			addOrder(p.Order)
		case eventdecoder.TakeOrderPayload:
			addOrder(p.Order)
		case eventdecoder.ClearPayload:
			addOrder(p.AliceOrder)
			addOrder(p.BobOrder)
		case eventdecoder.DepositPayload:
			addToken(p.Token)
		case eventdecoder.WithdrawPayload:
			addToken(p.Token)
		}
	}
	return stores, tokens
}

func unionAddresses(a, b []common.Address) []common.Address {
	seen := map[common.Address]bool{}
	var out []common.Address
	for _, addr := range append(append([]common.Address{}, a...), b...) {
		if addr == (common.Address{}) || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
