/*
Package schemastore caches generated schema documents.

Schema generation for a type is deterministic under a fixed configuration, so generated
documents are stored under a key hashed from the mimetype, the type and the
configuration fingerprint, and reused by later encodes.
*/
package schemastore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/xerrors"
)

// ErrNotFound is returned by Get when no document is stored under a key.
var ErrNotFound = xerrors.New("schema not found")

// Store holds generated schema documents.
type Store interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores document under key. A positive ttl expires the document.
	Put(ctx context.Context, key string, document []byte, ttl time.Duration) error
}

// Key hashes parts into a store key.
func Key(parts ...string) string {
	digest := xxhash.New()
	for _, part := range parts {
		_, _ = digest.WriteString(part)
		_, _ = digest.Write([]byte{0})
	}
	return "schema:" + strconv.FormatUint(digest.Sum64(), 16)
}

type memoryEntry struct {
	document []byte
	expires  time.Time
}

// MemoryStore is an in-process Store. The zero value is not usable; use
// NewMemoryStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (store *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	store.mu.RLock()
	entry, ok := store.entries[key]
	store.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expires.IsZero() && !store.now().Before(entry.expires) {
		store.mu.Lock()
		delete(store.entries, key)
		store.mu.Unlock()
		return nil, ErrNotFound
	}

	document := make([]byte, len(entry.document))
	copy(document, entry.document)
	return document, nil
}

func (store *MemoryStore) Put(
	ctx context.Context, key string, document []byte, ttl time.Duration,
) error {
	entry := memoryEntry{document: make([]byte, len(document))}
	copy(entry.document, document)
	if ttl > 0 {
		entry.expires = store.now().Add(ttl)
	}

	store.mu.Lock()
	store.entries[key] = entry
	store.mu.Unlock()
	return nil
}

// Len returns the number of stored documents, expired ones included.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.entries)
}
