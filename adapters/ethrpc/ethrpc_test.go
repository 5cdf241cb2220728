package ethrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeWrapsRawResultForLogfetcherDecoding(t *testing.T) {
	raw := json.RawMessage(`[{"address":"0x1"}]`)
	wrapped := envelope(raw)
	require.JSONEq(t, `{"result":[{"address":"0x1"}]}`, wrapped)
}

func TestEnvelopeWrapsNullResult(t *testing.T) {
	wrapped := envelope(json.RawMessage(`null`))
	require.JSONEq(t, `{"result":null}`, wrapped)
}
