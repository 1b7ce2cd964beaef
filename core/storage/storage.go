package storage

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store abstracts the persistent key-value arena the ledger writes to.
// Write must apply every operation of a batch or none of them.
type Store interface {
	Get(key []byte) ([]byte, error)
	Iterate(prefix []byte, fn func(key, value []byte) error) error
	Write(batch *Batch) error
	Close() error
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch collects puts and deletes that are committed together.
type Batch struct {
	ops []batchOp
}

func NewBatch() *Batch {
	return &Batch{}
}

// Put stages key=value. Both slices are copied.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, batchOp{
		key:   append([]byte{}, key...),
		value: append([]byte{}, value...),
	})
}

// Delete stages removal of key.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: append([]byte{}, key...), delete: true})
}

func (b *Batch) Len() int {
	return len(b.ops)
}

// Replay walks the staged operations in insertion order.
func (b *Batch) Replay(fn func(key, value []byte, deleted bool) error) error {
	for _, op := range b.ops {
		if err := fn(op.key, op.value, op.delete); err != nil {
			return err
		}
	}
	return nil
}

// LevelStore is the LevelDB-backed Store.
type LevelStore struct {
	db *leveldb.DB
}

// NewLevelStore opens (or creates) a LevelDB database at path.
func NewLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

// NewMemLevelStore opens a LevelDB instance held entirely in memory.
func NewMemLevelStore() (*LevelStore, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open memory leveldb: %w", err)
	}
	return &LevelStore{db: db}, nil
}

// Get retrieves a value by key from LevelDB.
func (s *LevelStore) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

// Iterate visits every key with the given prefix in key order.
func (s *LevelStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		// iterator buffers are reused between steps
		k := append([]byte{}, iter.Key()...)
		v := append([]byte{}, iter.Value()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Write commits the batch atomically through a leveldb.Batch.
func (s *LevelStore) Write(batch *Batch) error {
	lb := new(leveldb.Batch)
	_ = batch.Replay(func(key, value []byte, deleted bool) error {
		if deleted {
			lb.Delete(key)
		} else {
			lb.Put(key, value)
		}
		return nil
	})
	return s.db.Write(lb, nil)
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}

// Open selects a backend by driver name.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "leveldb":
		return NewLevelStore(path)
	case "sqlite":
		return OpenSQLite(path)
	case "memory":
		return NewMemLevelStore()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
