// Package pebbledb backs dbexec.Executor with a cockroachdb/pebble store,
// the same embedded KV engine the teacher's own ethdb/pebble backend wraps
// for chain data — repurposed here as the Sync Engine's local store instead
// of a state trie.
package pebbledb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/rainlanguage/raindex-go/dbexec"
	"github.com/rainlanguage/raindex-go/raindexerr"
)

// idempotentOps overwrite their key on every apply (last write wins); the
// value is how many leading args identify the entity and form the key.
// Everything else is treated as append-only and keyed by a monotonic
// sequence so repeated inserts never collide.
var idempotentOps = map[string]int{
	"set_order_active":     2, // orderbook ID, order hash
	"upsert_token":         2, // orderbook ID, token
	"insert_store_address": 2, // orderbook ID, store address
	"set_watermark":        1, // orderbook ID
}

// Store is a dbexec.Executor over a single pebble database directory.
type Store struct {
	db  *pebble.DB
	seq atomic.Uint64
}

// Open opens (creating if absent) the pebble database at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, &raindexerr.ErrDatabase{Message: err.Error()}
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// ExecuteBatch applies every statement as one atomic pebble batch.
func (s *Store) ExecuteBatch(ctx context.Context, batch dbexec.Batch) error {
	b := s.db.NewBatch()
	defer b.Close()

	for _, stmt := range batch.Statements {
		key, err := s.keyFor(stmt)
		if err != nil {
			return err
		}
		value, err := json.Marshal(stmt.Args)
		if err != nil {
			return &raindexerr.ErrDatabase{Message: err.Error()}
		}
		if err := b.Set(key, value, nil); err != nil {
			return &raindexerr.ErrDatabase{Message: err.Error()}
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return &raindexerr.ErrDatabase{Message: err.Error()}
	}
	return nil
}

// keyFor builds a stable key for idempotent ops (op name plus the
// statement's leading args, which always identify the entity) or a
// monotonic append-only key otherwise.
func (s *Store) keyFor(stmt dbexec.Statement) ([]byte, error) {
	if n, ok := idempotentOps[stmt.Op]; ok {
		if n > len(stmt.Args) {
			n = len(stmt.Args)
		}
		ident, err := json.Marshal(stmt.Args[:n])
		if err != nil {
			return nil, &raindexerr.ErrDatabase{Message: err.Error()}
		}
		return append([]byte(stmt.Op+":"), ident...), nil
	}
	n := s.seq.Add(1)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return append([]byte(stmt.Op+":"), buf[:]...), nil
}

// QueryJSON looks up a single key, rebuilt the same way keyFor would for an
// idempotent statement; callers query the same (op, identifying-args) pair
// they'd have inserted with.
func (s *Store) QueryJSON(ctx context.Context, statement dbexec.Statement) (json.RawMessage, error) {
	key, err := s.keyFor(statement)
	if err != nil {
		return nil, err
	}
	value, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, &raindexerr.ErrDatabase{Message: err.Error()}
	}
	defer closer.Close()
	out := make(json.RawMessage, len(value))
	copy(out, value)
	return out, nil
}

// Scan iterates every persisted record for one op, in insertion order. Used
// by adapters/memstore-style bootstrap readers that need the full history
// of an append-only op (e.g. replaying insert_decoded_event on restart).
func (s *Store) Scan(op string, fn func(value json.RawMessage) error) error {
	prefix := []byte(op + ":")
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upperBound(prefix)})
	if err != nil {
		return &raindexerr.ErrDatabase{Message: err.Error()}
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func upperBound(prefix []byte) []byte {
	out := make([]byte, len(prefix))
	copy(out, prefix)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			return out
		}
	}
	return nil
}

