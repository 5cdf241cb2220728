package logfetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/eventdecoder"
	"github.com/rainlanguage/raindex-go/metrics"
	"github.com/rainlanguage/raindex-go/raindexerr"
	"github.com/rainlanguage/raindex-go/rpctransport"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// FetchConfig bounds chunk width, fan-out, and retries. Zero-value fields
// fall back to the spec defaults via WithDefaults.
type FetchConfig struct {
	ChunkSize             uint64
	MaxConcurrentRequests int
	MaxConcurrentBlocks   int
	MaxRetryAttempts      int
}

// WithDefaults fills any zero field with its documented default.
func (c FetchConfig) WithDefaults() FetchConfig {
	if c.ChunkSize == 0 {
		c.ChunkSize = 5000
	}
	if c.MaxConcurrentRequests == 0 {
		c.MaxConcurrentRequests = 10
	}
	if c.MaxConcurrentBlocks == 0 {
		c.MaxConcurrentBlocks = 14
	}
	if c.MaxRetryAttempts == 0 {
		c.MaxRetryAttempts = 3
	}
	return c
}

// Fetcher turns an address and block range into a block-ordered,
// timestamp-complete log list.
type Fetcher struct {
	Transport rpctransport.Transport
	Config    FetchConfig
}

// New returns a Fetcher with defaults applied to any zero Config field.
func New(transport rpctransport.Transport, cfg FetchConfig) *Fetcher {
	return &Fetcher{Transport: transport, Config: cfg.WithDefaults()}
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func decodeEnvelope(raw string) (json.RawMessage, error) {
	var env rpcEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	if len(env.Error) > 0 && string(env.Error) != "null" {
		return nil, &raindexerr.ErrRpc{Message: string(env.Error)}
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return json.RawMessage("[]"), nil
	}
	return env.Result, nil
}

// chunk is an inclusive [from, to] range partitioned out of the inclusive
// range [start, end].
type chunk struct{ from, to uint64 }

func partitionChunks(start, end, size uint64) []chunk {
	if size == 0 {
		size = 1
	}
	var chunks []chunk
	for from := start; from <= end; {
		to := from + size - 1
		if to > end || to < from { // clamp on overflow
			to = end
		}
		chunks = append(chunks, chunk{from: from, to: to})
		if to == end {
			break
		}
		from = to + 1
	}
	return chunks
}

func toHex(v uint64) string { return fmt.Sprintf("0x%x", v) }

// Fetch returns every orderbook log in [start, end], decoded, sorted by
// block number only (the full (block, log_index) sort happens later, at
// the Sync Engine's merge step — §9's open-question resolution).
func (f *Fetcher) Fetch(ctx context.Context, addr common.Address, start, end uint64) ([]eventdecoder.RawLog, error) {
	if start > end {
		return nil, nil
	}

	chunks := partitionChunks(start, end, f.Config.ChunkSize)
	results := make([][]eventdecoder.RawLog, len(chunks))

	sem := semaphore.NewWeighted(int64(f.Config.MaxConcurrentRequests))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			logs, err := f.fetchChunkWithRetry(gctx, addr, c)
			if err != nil {
				return err
			}
			results[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flat []eventdecoder.RawLog
	for _, r := range results {
		flat = append(flat, r...)
	}

	if err := f.backfillTimestamps(ctx, flat); err != nil {
		return nil, err
	}

	sort.SliceStable(flat, func(i, j int) bool {
		bi, _ := ParseBlockNumber(flat[i].BlockNumber)
		bj, _ := ParseBlockNumber(flat[j].BlockNumber)
		return bi < bj
	})
	return flat, nil
}

func (f *Fetcher) fetchChunkWithRetry(ctx context.Context, addr common.Address, c chunk) ([]eventdecoder.RawLog, error) {
	var lastErr error
	for attempt := 0; attempt < f.Config.MaxRetryAttempts; attempt++ {
		if attempt > 0 {
			metrics.FetchRetries.Inc(1)
		}
		logs, err := f.fetchChunk(ctx, addr, c)
		if err == nil {
			metrics.FetchedLogs.Inc(int64(len(logs)))
			return logs, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *Fetcher) fetchChunk(ctx context.Context, addr common.Address, c chunk) ([]eventdecoder.RawLog, error) {
	raw, err := f.Transport.GetLogs(ctx, toHex(c.from), toHex(c.to), addr.Hex(), topicFilter())
	if err != nil {
		return nil, &raindexerr.ErrRpc{Message: err.Error()}
	}
	result, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Address         common.Address `json:"address"`
		Topics          []common.Hash  `json:"topics"`
		Data            string         `json:"data"`
		BlockNumber     string         `json:"blockNumber"`
		BlockTimestamp  string         `json:"blockTimestamp"`
		TransactionHash common.Hash    `json:"transactionHash"`
		LogIndex        string         `json:"logIndex"`
		Removed         bool           `json:"removed"`
	}
	if err := json.Unmarshal(result, &entries); err != nil {
		return nil, &raindexerr.ErrJSONParse{Reason: err.Error()}
	}

	out := make([]eventdecoder.RawLog, len(entries))
	for i, e := range entries {
		topics := make([][32]byte, len(e.Topics))
		for j, t := range e.Topics {
			topics[j] = t
		}
		out[i] = eventdecoder.RawLog{
			Address:         e.Address,
			Topics:          topics,
			Data:            common.FromHex(e.Data),
			BlockNumber:     e.BlockNumber,
			BlockTimestamp:  e.BlockTimestamp,
			TransactionHash: e.TransactionHash,
			LogIndex:        e.LogIndex,
			Removed:         e.Removed,
		}
	}
	return out, nil
}

// topicFilter returns the fixed eight-signature topic-0 set the fetcher
// always filters getLogs requests by.
func topicFilter() [][32]byte {
	return eventdecoder.KnownTopics()
}

func (f *Fetcher) backfillTimestamps(ctx context.Context, logs []eventdecoder.RawLog) error {
	missing := make(map[uint64][]int)
	for i, l := range logs {
		if l.BlockTimestamp != "" {
			continue
		}
		bn, err := ParseBlockNumber(l.BlockNumber)
		if err != nil {
			return err
		}
		missing[bn] = append(missing[bn], i)
	}
	if len(missing) == 0 {
		return nil
	}

	blocks := make([]uint64, 0, len(missing))
	for bn := range missing {
		blocks = append(blocks, bn)
	}

	sem := semaphore.NewWeighted(int64(f.Config.MaxConcurrentBlocks))
	g, gctx := errgroup.WithContext(ctx)
	timestamps := make([]string, len(blocks))
	for i, bn := range blocks {
		i, bn := i, bn
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			ts, err := f.fetchTimestampWithRetry(gctx, bn)
			if err != nil {
				return err
			}
			timestamps[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, bn := range blocks {
		for _, idx := range missing[bn] {
			logs[idx].BlockTimestamp = timestamps[i]
		}
	}
	return nil
}

func (f *Fetcher) fetchTimestampWithRetry(ctx context.Context, blockNumber uint64) (string, error) {
	var lastErr error
	for attempt := 0; attempt < f.Config.MaxRetryAttempts; attempt++ {
		ts, err := f.fetchTimestamp(ctx, blockNumber)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (f *Fetcher) fetchTimestamp(ctx context.Context, blockNumber uint64) (string, error) {
	raw, err := f.Transport.GetBlockByNumber(ctx, blockNumber)
	if err != nil {
		return "", &raindexerr.ErrRpc{Message: err.Error()}
	}
	result, err := decodeEnvelope(raw)
	if err != nil {
		return "", err
	}

	var block struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return "", &raindexerr.ErrJSONParse{Reason: err.Error()}
	}
	if block.Timestamp == "" {
		return "", &raindexerr.ErrMissingField{Field: "timestamp"}
	}
	return block.Timestamp, nil
}
