package logfetcher

import (
	"testing"

	"github.com/rainlanguage/raindex-go/raindexerr"
	"github.com/stretchr/testify/require"
)

func TestParseBlockNumberAccepts(t *testing.T) {
	for _, s := range []string{"0x0", "0", "0x123", "123"} {
		_, err := ParseBlockNumber(s)
		require.NoErrorf(t, err, "input %q", s)
	}
}

func TestParseBlockNumberRejects(t *testing.T) {
	for _, s := range []string{"", "0x", "0xGHI", "-1", "12.5"} {
		_, err := ParseBlockNumber(s)
		var parseErr *raindexerr.ErrBlockNumberParse
		require.ErrorAsf(t, err, &parseErr, "input %q", s)
	}
}

func TestPartitionChunksBoundaries(t *testing.T) {
	const a = uint64(100)

	oneWide := partitionChunks(a, a+2, 1)
	require.Len(t, oneWide, 3)
	require.Equal(t, chunk{a, a}, oneWide[0])
	require.Equal(t, chunk{a + 1, a + 1}, oneWide[1])
	require.Equal(t, chunk{a + 2, a + 2}, oneWide[2])

	full := partitionChunks(a, a+2, 3)
	require.Len(t, full, 1)
	require.Equal(t, chunk{a, a + 2}, full[0])
}
