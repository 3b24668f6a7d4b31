package panelstate

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/Iron-Ham/ralphui/internal/errors"
)

// Storage is the workspace key/value store panel state is persisted in.
type Storage interface {
	// Get returns the stored value for key. ok is false when nothing is stored.
	Get(key string) (value []byte, ok bool, err error)
	// Put replaces the stored value for key.
	Put(key string, value []byte) error
	// Keys lists stored keys in sorted order.
	Keys(ctx context.Context) []string
}

// MemoryStorage is an in-process Storage, used when no state directory is
// configured and in tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStorage) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores a copy of value under key.
func (m *MemoryStorage) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns the stored keys, sorted.
func (m *MemoryStorage) Keys(context.Context) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DiskStorage persists values as flat files under a base directory.
type DiskStorage struct {
	d *diskv.Diskv
}

// NewDiskStorage opens (creating on first write) a store rooted at dir.
// cacheSizeKB bounds the in-memory read cache.
func NewDiskStorage(dir string, cacheSizeKB int) *DiskStorage {
	return &DiskStorage{d: diskv.New(diskv.Options{
		BasePath:          dir,
		TempDir:           dir + string(os.PathSeparator) + ".tmp",
		AdvancedTransform: flatTransform,
		InverseTransform:  flatInverse,
		CacheSizeMax:      uint64(max(cacheSizeKB, 0)) * 1024,
	})}
}

// Get reads the file for key. A missing file is reported as not stored.
func (s *DiskStorage) Get(key string) ([]byte, bool, error) {
	if !s.d.Has(key) {
		return nil, false, nil
	}
	v, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.NewStorageError("read panel state", err).WithKey(key)
	}
	return v, true, nil
}

// Put writes value to the file for key, replacing it atomically.
func (s *DiskStorage) Put(key string, value []byte) error {
	if err := s.d.Write(key, value); err != nil {
		return errors.NewStorageError("write panel state", err).WithKey(key)
	}
	return nil
}

// Keys lists the files under the base path, sorted. It stops early when
// ctx is done.
func (s *DiskStorage) Keys(ctx context.Context) []string {
	var keys []string
	for k := range s.d.Keys(ctx.Done()) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BasePath returns the directory values are written under.
func (s *DiskStorage) BasePath() string {
	return s.d.BasePath
}

func flatTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

func flatInverse(pk *diskv.PathKey) string {
	return pk.FileName
}
