package trie

import (
	"errors"
	"sync"

	"github.com/ethlayer/coreeth/types"
)

var ErrNodeNotFound = errors.New("trie: node not found in database")

// KVStore is the minimal persistent key-value interface a trie database
// backs onto. Any store satisfying this (in-memory map, LevelDB, Pebble,
// ...) can hold committed trie nodes.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
}

// trieNodePrefix namespaces trie node keys within a shared KVStore so they
// don't collide with other data (account preimages, block bodies, ...)
// that might share the same store.
var trieNodePrefix = []byte("t")

// NodeDatabase caches trie nodes written since the last Commit, backed by a
// KVStore for anything already committed.
type NodeDatabase struct {
	mu    sync.RWMutex
	dirty map[types.Hash][]byte
	disk  KVStore
	size  int
}

// NewNodeDatabase returns a trie node database. If disk is nil, the
// database is memory-only and nodes committed to it are unrecoverable once
// evicted — used for scratch/throwaway tries (e.g. computing a one-shot
// transactions root).
func NewNodeDatabase(disk KVStore) *NodeDatabase {
	return &NodeDatabase{dirty: make(map[types.Hash][]byte), disk: disk}
}

// Node retrieves a trie node by hash, checking the dirty cache before
// falling back to disk.
func (db *NodeDatabase) Node(hash types.Hash) ([]byte, error) {
	if hash == (types.Hash{}) {
		return nil, ErrNodeNotFound
	}
	db.mu.RLock()
	if data, ok := db.dirty[hash]; ok {
		db.mu.RUnlock()
		return data, nil
	}
	db.mu.RUnlock()

	if db.disk == nil {
		return nil, ErrNodeNotFound
	}
	data, err := db.disk.Get(append(append([]byte(nil), trieNodePrefix...), hash[:]...))
	if err != nil || data == nil {
		return nil, ErrNodeNotFound
	}
	return data, nil
}

// InsertNode stages a node for the next Commit.
func (db *NodeDatabase) InsertNode(hash types.Hash, data []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.dirty[hash]; !ok {
		db.size += len(data)
	}
	db.dirty[hash] = data
}

// DirtySize returns the total byte size of uncommitted nodes.
func (db *NodeDatabase) DirtySize() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.size
}

// DirtyCount returns the number of uncommitted nodes.
func (db *NodeDatabase) DirtyCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.dirty)
}

// Commit flushes all dirty nodes to the backing KVStore and clears the
// cache. A nil disk makes Commit a no-op that just forgets the dirty set
// (the memory-only case).
func (db *NodeDatabase) Commit() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.disk != nil {
		for hash, data := range db.dirty {
			key := append(append([]byte(nil), trieNodePrefix...), hash[:]...)
			if err := db.disk.Put(key, data); err != nil {
				return err
			}
		}
	}
	db.dirty = make(map[types.Hash][]byte)
	db.size = 0
	return nil
}
