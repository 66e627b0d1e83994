// ABOUTME: Persisted queue storage backends.
// ABOUTME: Badger for durable on-disk storage, memory for tests and ephemeral runs.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// queueKey holds the whole ordered entry list as one JSON value,
// so every Save is a single atomic write.
var queueKey = []byte("pending_queue")

// BadgerStorage persists the queue in a Badger key-value directory.
type BadgerStorage struct {
	db *badger.DB
}

// OpenBadger opens or creates a Badger-backed queue store in dir.
func OpenBadger(dir string) (*BadgerStorage, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

// Load reads the persisted entries. A store that was never written is empty.
func (b *BadgerStorage) Load(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(queueKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return entries, nil
}

// Save overwrites the persisted entries in one transaction.
func (b *BadgerStorage) Save(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(queueKey, data)
	}); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

// Close closes the underlying Badger database.
func (b *BadgerStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// MemoryStorage keeps the queue in process memory only.
type MemoryStorage struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load returns a copy of the stored entries.
func (m *MemoryStorage) Load(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEntries(m.entries), nil
}

// Save replaces the stored entries.
func (m *MemoryStorage) Save(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = cloneEntries(entries)
	return nil
}
