package raindexstate

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/codecache"
	"github.com/rainlanguage/raindex-go/float"
	"github.com/rainlanguage/raindex-go/orderbook"
	"github.com/rainlanguage/raindex-go/raindexerr"
	"github.com/stretchr/testify/require"
)

func cachedOrder(cache *codecache.Cache) orderbook.OrderV4 {
	interp := common.HexToAddress("0x1")
	store := common.HexToAddress("0x2")
	cache.Upsert(interp, codecache.KindInterpreter, []byte{0x01})
	cache.Upsert(store, codecache.KindStore, []byte{0x02})
	return orderbook.OrderV4{
		Owner:     common.HexToAddress("0xaa"),
		Nonce:     [32]byte{1},
		Evaluable: orderbook.Evaluable{Interpreter: interp, Store: store},
		ValidInputs: []orderbook.IO{
			{Token: common.HexToAddress("0xbb"), VaultID: [32]byte{1}},
		},
		ValidOutputs: []orderbook.IO{
			{Token: common.HexToAddress("0xcc"), VaultID: [32]byte{2}},
		},
		Active: true,
	}
}

func TestSetOrdersCreatesVaultRows(t *testing.T) {
	cache := codecache.New()
	s := New()
	o := cachedOrder(cache)

	require.NoError(t, s.Apply(cache, []Mutation{{SetOrders: []orderbook.OrderV4{o}}}))

	for _, io := range append(append([]orderbook.IO{}, o.ValidInputs...), o.ValidOutputs...) {
		key := orderbook.VaultKey{Owner: o.Owner, Token: io.Token, VaultID: io.VaultID}
		_, ok := s.Vaults[key]
		require.True(t, ok)
	}
}

func TestSetOrdersTwiceIdempotent(t *testing.T) {
	cache := codecache.New()
	s := New()
	o := cachedOrder(cache)

	require.NoError(t, s.Apply(cache, []Mutation{{SetOrders: []orderbook.OrderV4{o}}}))
	snap1 := s.Snapshot()
	require.NoError(t, s.Apply(cache, []Mutation{{SetOrders: []orderbook.OrderV4{o}}}))
	snap2 := s.Snapshot()

	require.Equal(t, len(snap1.Orders), len(snap2.Orders))
}

func TestRemoveOrdersAbsentIsNoOp(t *testing.T) {
	cache := codecache.New()
	s := New()
	require.NoError(t, s.Apply(cache, []Mutation{{RemoveOrders: []orderbook.Hash{{0xff}}}}))
	require.Empty(t, s.Orders)
}

func TestVaultDeltaNegativeFails(t *testing.T) {
	cache := codecache.New()
	s := New()
	owner := common.HexToAddress("0xaa")
	token := common.HexToAddress("0xbb")
	vaultID := [32]byte{1}

	neg, _ := float.Parse("-1")
	err := s.Apply(cache, []Mutation{{VaultDeltas: []VaultDelta{{Owner: owner, Token: token, VaultID: vaultID, Delta: neg}}}})
	var fe *raindexerr.ErrFloat
	require.ErrorAs(t, err, &fe)
	require.Empty(t, s.Vaults) // state unchanged on failure
}

func TestVaultDeltaOverdraftKeepsPriorBalance(t *testing.T) {
	cache := codecache.New()
	s := New()
	owner := common.HexToAddress("0xaa")
	token := common.HexToAddress("0xbb")
	vaultID := [32]byte{1}

	ten, _ := float.Parse("10")
	require.NoError(t, s.Apply(cache, []Mutation{{VaultDeltas: []VaultDelta{{Owner: owner, Token: token, VaultID: vaultID, Delta: ten}}}}))

	neg, _ := float.Parse("-15")
	err := s.Apply(cache, []Mutation{{VaultDeltas: []VaultDelta{{Owner: owner, Token: token, VaultID: vaultID, Delta: neg}}}})
	var fe *raindexerr.ErrFloat
	require.ErrorAs(t, err, &fe)

	key := orderbook.VaultKey{Owner: owner, Token: token, VaultID: vaultID}
	require.True(t, float.Equal(s.VaultBalance(key), ten))
}

func TestApplyTwiceFromFreshStateMatches(t *testing.T) {
	cache := codecache.New()
	o := cachedOrder(cache)
	muts := []Mutation{{SetOrders: []orderbook.OrderV4{o}}}

	s1 := New()
	require.NoError(t, s1.Apply(cache, muts))
	snap1 := s1.Snapshot()

	s2 := New()
	require.NoError(t, s2.Apply(cache, muts))
	require.NoError(t, s2.Apply(cache, muts))
	snap2 := s2.Snapshot()

	require.Equal(t, len(snap1.Orders), len(snap2.Orders))
	require.Equal(t, len(snap1.Vaults), len(snap2.Vaults))
}

func TestBatchGroupsChildren(t *testing.T) {
	cache := codecache.New()
	s := New()
	owner := common.HexToAddress("0xaa")
	token := common.HexToAddress("0xbb")
	vaultID := [32]byte{1}
	five, _ := float.Parse("5")

	err := s.Apply(cache, []Mutation{{Batch: []Mutation{
		{VaultDeltas: []VaultDelta{{Owner: owner, Token: token, VaultID: vaultID, Delta: five}}},
		{VaultDeltas: []VaultDelta{{Owner: owner, Token: token, VaultID: vaultID, Delta: five}}},
	}}})
	require.NoError(t, err)

	key := orderbook.VaultKey{Owner: owner, Token: token, VaultID: vaultID}
	ten, _ := float.Parse("10")
	require.True(t, float.Equal(s.VaultBalance(key), ten))
}
