// Package storage
// Author: momentics <momentics@gmail.com>

package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/momentics/relaybot/api"
)

var _ api.Backend[struct{}] = (*BadgerBackend[struct{}])(nil)

// BadgerBackend stores the state under one key of a Badger database.
type BadgerBackend[S any] struct {
	db  *badger.DB
	key []byte
}

// NewBadgerBackend opens (or creates) a Badger database in dir.
func NewBadgerBackend[S any](dir, key string) (*BadgerBackend[S], error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return &BadgerBackend[S]{db: db, key: []byte("state:" + key)}, nil
}

// Load reads the blob stored under the backend's key.
func (b *BadgerBackend[S]) Load() (S, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		var zero S
		if errors.Is(err, badger.ErrKeyNotFound) {
			return zero, fmt.Errorf("%s: %w", b.key, api.ErrStateNotFound)
		}
		return zero, fmt.Errorf("%s: %w", b.key, err)
	}
	return Decode[S](data)
}

// Save replaces the blob under the backend's key.
func (b *BadgerBackend[S]) Save(state *S) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
}

// Close closes the database.
func (b *BadgerBackend[S]) Close() error {
	return b.db.Close()
}
