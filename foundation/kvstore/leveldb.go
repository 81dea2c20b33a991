package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB is a Store backed by a LevelDB database on disk.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens or creates the database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}

	return &LevelDB{db: db}, nil
}

// Get returns the value stored under key.
func (l *LevelDB) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return v, nil
}

// Put stores the value under key and syncs it to disk.
func (l *LevelDB) Put(ctx context.Context, key string, value []byte) error {
	return l.db.Put([]byte(key), value, nil)
}

// Delete removes the key.
func (l *LevelDB) Delete(ctx context.Context, key string) error {
	return l.db.Delete([]byte(key), nil)
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
