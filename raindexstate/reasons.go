package raindexstate

// MutationReason tags why a vault balance changed, surfaced through
// structured logging when a mutation batch is applied. Adapted from the
// teacher's tracing.BalanceChangeReason idiom (core/tx_executor.go's block
// execution path uses the same enum-plus-String() shape to annotate every
// balance change for observability) — here it annotates Virtual Raindex
// vault deltas instead of chain-level balance transfers.
type MutationReason int

const (
	ReasonUnspecified MutationReason = iota
	ReasonDeposit
	ReasonWithdraw
	ReasonTakeOrderCredit
	ReasonTakeOrderDebit
	ReasonClear
	ReasonManualDelta
)

func (r MutationReason) String() string {
	switch r {
	case ReasonDeposit:
		return "deposit"
	case ReasonWithdraw:
		return "withdraw"
	case ReasonTakeOrderCredit:
		return "take_order_credit"
	case ReasonTakeOrderDebit:
		return "take_order_debit"
	case ReasonClear:
		return "clear"
	case ReasonManualDelta:
		return "manual_delta"
	default:
		return "unspecified"
	}
}
