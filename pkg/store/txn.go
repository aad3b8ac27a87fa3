package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Mutations against the branch model are read-modify-write sequences over
// several documents. Pebble gives atomic commit via batches but no
// serializable transactions, so writers are serialized with a keyed mutex
// (one lock per thread) held for the life of the batch. Reads inside the
// transaction go through the indexed batch and therefore observe the
// transaction's own uncommitted writes.

var locks sync.Map // lock key -> *sync.Mutex

func lockFor(key string) *sync.Mutex {
	if m, ok := locks.Load(key); ok {
		return m.(*sync.Mutex)
	}
	m, _ := locks.LoadOrStore(key, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// Txn is a single atomic unit of reads and writes. All writes buffered in
// the Txn land together on commit or not at all.
type Txn struct {
	b *pebble.Batch
}

// Get returns the value under key as seen by this transaction, or
// ErrNotFound.
func (t *Txn) Get(key string) ([]byte, error) {
	v, closer, err := t.b.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// GetJSON loads the document under key into out, or returns ErrNotFound.
func (t *Txn) GetJSON(key string, out any) error {
	v, err := t.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v, out); err != nil {
		return fmt.Errorf("invalid stored document at %s: %w", key, err)
	}
	return nil
}

// Set buffers a write of key -> value.
func (t *Txn) Set(key string, value []byte) error {
	return t.b.Set([]byte(key), value, nil)
}

// SetJSON marshals doc and buffers the write.
func (t *Txn) SetJSON(key string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for %s: %w", key, err)
	}
	return t.Set(key, b)
}

// Delete buffers removal of key.
func (t *Txn) Delete(key string) error {
	return t.b.Delete([]byte(key), nil)
}

// ScanKeys returns keys starting with prefix as seen by this transaction.
func (t *Txn) ScanKeys(prefix string) ([]string, error) {
	iter, err := t.b.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte(prefix)
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(iter.Key()))
	}
	return out, iter.Error()
}

// Update runs fn inside a write transaction serialized on lockKey (the
// thread id for branch mutations). If fn returns an error nothing is
// written; otherwise the batch commits with a synced write.
func Update(lockKey string, fn func(*Txn) error) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	mu := lockFor(lockKey)
	mu.Lock()
	defer mu.Unlock()

	b := db.NewIndexedBatch()
	defer b.Close()

	if err := fn(&Txn{b: b}); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}
