package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/krisalay/tiered-cache/types"
)

/*
BadgerTier is a durable PersistentTier on top of BadgerDB.

Badger has no notion of a quota, so BadgerTier keeps its own byte count
(key + value lengths) and rejects writes that would exceed maxBytes with
types.ErrQuotaExceeded. The count is seeded by scanning the database on
open. Badger holds a directory lock, so only one process counts at a time.
*/
type BadgerTier struct {
	db       *badger.DB
	maxBytes int64

	// mu serializes writers so the byte count matches what is committed.
	mu   sync.Mutex
	used int64
}

var _ types.PersistentTier = (*BadgerTier)(nil)

/*
OpenBadger opens (or creates) a Badger database in dir.
An empty dir opens an in-memory database, which is what tests and the demo use.
*/
func OpenBadger(dir string, maxBytes int64, logger *zap.Logger) (*BadgerTier, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(newBadgerLogger(logger))
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &types.StorageError{Op: "open", Key: dir, Err: err}
	}

	b, err := NewBadgerTier(db, maxBytes)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// NewBadgerTier wraps an open database. maxBytes <= 0 means unbounded.
func NewBadgerTier(db *badger.DB, maxBytes int64) (*BadgerTier, error) {
	b := &BadgerTier{db: db, maxBytes: maxBytes}

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			n, err := valueLen(item)
			if err != nil {
				return err
			}
			b.used += int64(len(item.Key())) + n
		}
		return nil
	})
	if err != nil {
		return nil, &types.StorageError{Op: "scan", Err: err}
	}
	return b, nil
}

func (b *BadgerTier) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &types.StorageError{Op: "get", Key: key, Err: err}
	}

	var value []byte
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", false, &types.StorageError{Op: "get", Key: key, Err: err}
	}
	return string(value), found, nil
}

func (b *BadgerTier) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return &types.StorageError{Op: "set", Key: key, Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var used int64
	err := b.db.Update(func(txn *badger.Txn) error {
		old, err := itemSize(txn, key)
		if err != nil {
			return err
		}
		used = b.used - old + recordSize(key, value)
		if b.maxBytes > 0 && used > b.maxBytes {
			return types.ErrQuotaExceeded
		}
		return txn.SetEntry(badger.NewEntry([]byte(key), []byte(value)))
	})
	if err != nil {
		return writeError("set", key, err)
	}
	b.used = used
	return nil
}

func (b *BadgerTier) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &types.StorageError{Op: "remove", Key: key, Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var old int64
	err := b.db.Update(func(txn *badger.Txn) error {
		var err error
		old, err = itemSize(txn, key)
		if err != nil || old == 0 {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return writeError("remove", key, err)
	}
	b.used -= old
	return nil
}

// Keys enumerates every key without loading values.
func (b *BadgerTier) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.StorageError{Op: "keys", Err: err}
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, &types.StorageError{Op: "keys", Err: err}
	}
	return keys, nil
}

// Used reports the bytes counted against the quota.
func (b *BadgerTier) Used() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Maintain runs value log garbage collection. Call it occasionally, not per write.
func (b *BadgerTier) Maintain() error {
	if b.db.Opts().InMemory {
		return nil
	}
	err := b.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return &types.StorageError{Op: "gc", Err: err}
	}
	return nil
}

func (b *BadgerTier) Close() error {
	return b.db.Close()
}

func itemSize(txn *badger.Txn, key string) (int64, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := valueLen(item)
	if err != nil {
		return 0, err
	}
	return int64(len(key)) + n, nil
}

/*
valueLen is the exact stored length of item's value.

item.ValueSize is exact only for values kept in the LSM tree. For values
in the value log it is an estimate, so those are read to get the real length.
*/
func valueLen(item *badger.Item) (int64, error) {
	var n int64
	err := item.Value(func(v []byte) error {
		n = int64(len(v))
		return nil
	})
	return n, err
}

// writeError maps every flavour of "out of room" onto ErrQuotaExceeded.
func writeError(op, key string, err error) error {
	switch {
	case errors.Is(err, types.ErrQuotaExceeded):
		return types.ErrQuotaExceeded
	case errors.Is(err, badger.ErrTxnTooBig), errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("%w: %v", types.ErrQuotaExceeded, err)
	default:
		return &types.StorageError{Op: op, Key: key, Err: err}
	}
}
