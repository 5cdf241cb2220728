// Package dbexec defines the local-store boundary the Sync Engine's Apply
// Pipeline writes through: one atomic batch execution plus a typed query
// method, kept deliberately narrow so any embedded store can back it.
package dbexec

import (
	"context"
	"encoding/json"

	"github.com/rainlanguage/raindex-go/raindexerr"
)

// Statement is one write inside a Batch: an opaque operation name plus its
// positional arguments, left for the concrete executor to interpret (SQL
// statement + binds, or a KV put/delete).
type Statement struct {
	Op   string
	Args []any
}

// Batch is an ordered list of statements applied atomically: all-or-nothing,
// the same two-phase discipline the Virtual Raindex uses for in-memory
// mutations.
type Batch struct {
	Statements []Statement
}

// Add appends a statement and returns the batch for chaining.
func (b *Batch) Add(op string, args ...any) *Batch {
	b.Statements = append(b.Statements, Statement{Op: op, Args: args})
	return b
}

// Executor is the local DB surface the core consumes.
type Executor interface {
	ExecuteBatch(ctx context.Context, batch Batch) error
	QueryJSON(ctx context.Context, statement Statement) (json.RawMessage, error)
}

// UnmarshalQueryJSON decodes a QueryJSON result into dest, translating a
// malformed payload into the store's own deserialization-error kind
// instead of a bare encoding/json error.
func UnmarshalQueryJSON(raw json.RawMessage, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return &raindexerr.ErrDeserialization{Message: err.Error()}
	}
	return nil
}
