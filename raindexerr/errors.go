// Package raindexerr defines the typed error taxonomy shared by the Virtual
// Raindex and the Sync Engine (spec §7). Most failures in this module are
// reported with these types; codecache.Ensure returns its own
// *codecache.MissingBytecodeError and the float package returns plain errors.
package raindexerr

import "fmt"

// ErrOrderNotFound is returned when a quote/take-orders request
// references an order hash the engine does not know about.
type ErrOrderNotFound struct{ Hash [32]byte }

func (e *ErrOrderNotFound) Error() string { return fmt.Sprintf("order not found: %x", e.Hash) }

// ErrInvalidInputIndex is returned when an input IO index is out of range.
type ErrInvalidInputIndex struct{ Index, Len int }

func (e *ErrInvalidInputIndex) Error() string {
	return fmt.Sprintf("invalid input index %d (len %d)", e.Index, e.Len)
}

// ErrInvalidOutputIndex is returned when an output IO index is out of range.
type ErrInvalidOutputIndex struct{ Index, Len int }

func (e *ErrInvalidOutputIndex) Error() string {
	return fmt.Sprintf("invalid output index %d (len %d)", e.Index, e.Len)
}

// ErrTokenSelfTrade is returned when an order's chosen input and output IOs
// reference the same token.
type ErrTokenSelfTrade struct{}

func (e *ErrTokenSelfTrade) Error() string { return "input and output token are identical" }

// ErrTokenDecimalMissing is returned when a token lacks a decimals entry.
type ErrTokenDecimalMissing struct{ Token [20]byte }

func (e *ErrTokenDecimalMissing) Error() string {
	return fmt.Sprintf("token decimals missing: %x", e.Token)
}

// ErrTokenMismatch is returned when a later leg of a multi-order take does
// not match the input/output token pair established by the first leg.
type ErrTokenMismatch struct{}

func (e *ErrTokenMismatch) Error() string { return "order's token pair does not match the expected pair" }

// ErrNoOrders is returned when TakeOrdersConfig carries an empty order list.
type ErrNoOrders struct{}

func (e *ErrNoOrders) Error() string { return "no orders supplied" }

// ErrZeroMaximumInput is returned when TakeOrdersConfig.MaximumInput is not
// positive.
type ErrZeroMaximumInput struct{}

func (e *ErrZeroMaximumInput) Error() string { return "maximum input must be positive" }

// ErrMinimumInputNotMet is returned when a take-orders call cannot fill the
// configured minimum input; no partial fill is returned with this error.
type ErrMinimumInputNotMet struct {
	Minimum, Actual string // decimal strings for readability
}

func (e *ErrMinimumInputNotMet) Error() string {
	return fmt.Sprintf("minimum input not met: wanted %s, got %s", e.Minimum, e.Actual)
}

// BytecodeKind mirrors codecache.Kind without importing it, to keep this
// package dependency-free for downstream error-matching code.
type BytecodeKind int

const (
	BytecodeInterpreter BytecodeKind = iota
	BytecodeStore
)

// ErrMissingBytecode is returned by the interpreter host when the code cache
// lacks the interpreter or store bytecode for an evaluation.
type ErrMissingBytecode struct {
	Address [20]byte
	Kind    BytecodeKind
}

func (e *ErrMissingBytecode) Error() string {
	kind := "interpreter"
	if e.Kind == BytecodeStore {
		kind = "store"
	}
	return fmt.Sprintf("missing %s bytecode for %x", kind, e.Address)
}

// ErrRevmExecution wraps any sandbox EVM failure, including reverts.
type ErrRevmExecution struct{ Reason string }

func (e *ErrRevmExecution) Error() string { return "interpreter execution failed: " + e.Reason }

// ErrFloat wraps an arithmetic failure from the float package (overflow,
// negative balance, divide-by-zero).
type ErrFloat struct{ Reason string }

func (e *ErrFloat) Error() string { return "float error: " + e.Reason }

// ErrRpc wraps a JSON-RPC envelope error.
type ErrRpc struct{ Message string }

func (e *ErrRpc) Error() string { return "rpc error: " + e.Message }

// ErrJSONParse is returned when an RPC response cannot be parsed as a
// JSON-RPC envelope at all.
type ErrJSONParse struct{ Reason string }

func (e *ErrJSONParse) Error() string { return "json parse error: " + e.Reason }

// ErrMissingField is returned when a required field (e.g. a block's
// timestamp) is absent from an otherwise well-formed RPC response.
type ErrMissingField struct{ Field string }

func (e *ErrMissingField) Error() string { return "missing field: " + e.Field }

// ErrDatabase wraps a local-DB execution failure.
type ErrDatabase struct{ Message string }

func (e *ErrDatabase) Error() string { return "database error: " + e.Message }

// ErrDeserialization wraps a local-DB query-result decode failure.
type ErrDeserialization struct{ Message string }

func (e *ErrDeserialization) Error() string { return "deserialization error: " + e.Message }

// Decoder errors: clear-config IO index bounds (spec §4.8).

type ErrAliceInputIOIndexOutOfBounds struct{ Index, Max int }

func (e *ErrAliceInputIOIndexOutOfBounds) Error() string {
	return fmt.Sprintf("alice input io index out of bounds: index=%d max=%d", e.Index, e.Max)
}

type ErrAliceOutputIOIndexOutOfBounds struct{ Index, Max int }

func (e *ErrAliceOutputIOIndexOutOfBounds) Error() string {
	return fmt.Sprintf("alice output io index out of bounds: index=%d max=%d", e.Index, e.Max)
}

type ErrBobInputIOIndexOutOfBounds struct{ Index, Max int }

func (e *ErrBobInputIOIndexOutOfBounds) Error() string {
	return fmt.Sprintf("bob input io index out of bounds: index=%d max=%d", e.Index, e.Max)
}

type ErrBobOutputIOIndexOutOfBounds struct{ Index, Max int }

func (e *ErrBobOutputIOIndexOutOfBounds) Error() string {
	return fmt.Sprintf("bob output io index out of bounds: index=%d max=%d", e.Index, e.Max)
}

// ErrBlockNumberParse is returned by the block-number parser used by the
// Log Fetcher for malformed hex/decimal strings.
type ErrBlockNumberParse struct{ Input string }

func (e *ErrBlockNumberParse) Error() string {
	return fmt.Sprintf("invalid block number %q", e.Input)
}
