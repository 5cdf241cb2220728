// Package applypipeline builds the single atomic batch a sync cycle
// persists (§4.10 step 8): raw-log inserts, decoded-event inserts, token
// upserts, store-address inserts, vault-balance deltas, order-status
// changes, and the new sync watermark.
package applypipeline

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/rainlanguage/raindex-go/eventdecoder"
	"github.com/rainlanguage/raindex-go/orderbook"
)

// TokenMetadata is the ERC-20 fields persisted alongside decimals (§6's
// persisted-state-layout note): the original source always fetches name,
// symbol, and decimals together even though the quote/take-orders path
// only reads decimals.
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Build assembles one ordered batch from a completed cycle's inputs. The
// batch is opaque to the core beyond its statement list; a concrete
// Executor interprets each Op.
func Build(
	id orderbook.ID,
	logs []eventdecoder.RawLog,
	events []eventdecoder.Event,
	existingTokenMeta map[common.Address]TokenMetadata,
	fetchedTokenMeta map[common.Address]TokenMetadata,
	storeAddresses []common.Address,
	watermark uint64,
) (dbexec.Batch, error) {
	var batch dbexec.Batch

	for _, l := range logs {
		batch.Add("insert_raw_log", id, l)
	}
	for _, ev := range events {
		batch.Add("insert_decoded_event", id, ev)
		applyOrderStatus(&batch, id, ev)
	}

	merged := map[common.Address]TokenMetadata{}
	for tok, meta := range existingTokenMeta {
		merged[tok] = meta
	}
	for tok, meta := range fetchedTokenMeta {
		merged[tok] = meta
		batch.Add("upsert_token", id, tok, meta.Name, meta.Symbol, meta.Decimals)
	}

	for _, addr := range storeAddresses {
		batch.Add("insert_store_address", id, addr)
	}

	for _, ev := range events {
		applyVaultDeltas(&batch, id, ev)
	}

	batch.Add("set_watermark", id, watermark)
	return batch, nil
}

// applyOrderStatus toggles an order's active flag. AddOrderV3 and
// RemoveOrderV3 share one payload shape (AddOrderPayload), so the event
// type — not the payload's Go type — decides which way the flag flips.
func applyOrderStatus(batch *dbexec.Batch, id orderbook.ID, ev eventdecoder.Event) {
	p, ok := ev.Payload.(eventdecoder.AddOrderPayload)
	if !ok {
		return
	}
	switch ev.Type {
	case eventdecoder.EventAddOrderV3:
		batch.Add("set_order_active", id, p.OrderHash, true)
	case eventdecoder.EventRemoveOrderV3:
		batch.Add("set_order_active", id, p.OrderHash, false)
	}
}

func applyVaultDeltas(batch *dbexec.Batch, id orderbook.ID, ev eventdecoder.Event) {
	switch p := ev.Payload.(type) {
	case eventdecoder.DepositPayload:
		batch.Add("vault_delta", id, p.Sender, p.Token, p.VaultID, p.DepositAmountUint256)
	case eventdecoder.WithdrawPayload:
		batch.Add("vault_delta_negative", id, p.Sender, p.Token, p.VaultID, p.WithdrawAmount)
	case eventdecoder.AfterClearPayload:
		batch.Add("clear_settlement", id, p)
	}
}
