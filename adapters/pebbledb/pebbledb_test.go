package pebbledb

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestExecuteBatchThenQueryIdempotentOp(t *testing.T) {
	s := openTestStore(t)

	var batch dbexec.Batch
	batch.Add("set_watermark", "orderbook-1", uint64(42))
	require.NoError(t, s.ExecuteBatch(context.Background(), batch))

	raw, err := s.QueryJSON(context.Background(), dbexec.Statement{Op: "set_watermark", Args: []any{"orderbook-1", uint64(42)}})
	require.NoError(t, err)
	require.NotNil(t, raw)

	var args []any
	require.NoError(t, json.Unmarshal(raw, &args))
	require.Equal(t, "orderbook-1", args[0])
	require.Equal(t, float64(42), args[1])
}

func TestQueryJSONMissingKeyReturnsNil(t *testing.T) {
	s := openTestStore(t)
	raw, err := s.QueryJSON(context.Background(), dbexec.Statement{Op: "set_watermark", Args: []any{"nothing-here"}})
	require.NoError(t, err)
	require.Nil(t, raw)
}

func TestAppendOnlyOpsGetDistinctKeysAndScanInOrder(t *testing.T) {
	s := openTestStore(t)

	var batch dbexec.Batch
	batch.Add("insert_raw_log", "log-a")
	batch.Add("insert_raw_log", "log-b")
	require.NoError(t, s.ExecuteBatch(context.Background(), batch))

	var seen []string
	require.NoError(t, s.Scan("insert_raw_log", func(value json.RawMessage) error {
		var args []any
		if err := json.Unmarshal(value, &args); err != nil {
			return err
		}
		seen = append(seen, args[0].(string))
		return nil
	}))
	require.Equal(t, []string{"log-a", "log-b"}, seen)
}
