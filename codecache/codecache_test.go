package codecache

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestEnsureMissing(t *testing.T) {
	c := New()
	interp := common.HexToAddress("0x1")
	store := common.HexToAddress("0x2")

	err := c.Ensure(Evaluable{Interpreter: interp, Store: store})
	var missing *MissingBytecodeError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, KindInterpreter, missing.Kind)

	c.Upsert(interp, KindInterpreter, []byte{0x01})
	err = c.Ensure(Evaluable{Interpreter: interp, Store: store})
	require.ErrorAs(t, err, &missing)
	require.Equal(t, KindStore, missing.Kind)

	c.Upsert(store, KindStore, []byte{0x02})
	require.NoError(t, c.Ensure(Evaluable{Interpreter: interp, Store: store}))
}

func TestUpsertReplacesLastWriteWins(t *testing.T) {
	c := New()
	addr := common.HexToAddress("0x1")
	c.Upsert(addr, KindInterpreter, []byte{0x01})
	c.Upsert(addr, KindInterpreter, []byte{0x02})
	code, ok := c.GetInterpreter(addr)
	require.True(t, ok)
	require.Equal(t, []byte{0x02}, code)
}

func TestKindMismatchNotFound(t *testing.T) {
	c := New()
	addr := common.HexToAddress("0x1")
	c.Upsert(addr, KindStore, []byte{0x01})
	_, ok := c.GetInterpreter(addr)
	require.False(t, ok)
}
