// Package badgerstore persists the snapshot in BadgerDB.
//
// Each named store lives under its own key (store:groups, store:preferences)
// as a CBOR document. Save writes all keys in one transaction, so the named
// stores can never drift apart.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"github.com/mmynk/wichtelbot/internal/models"
	"github.com/mmynk/wichtelbot/internal/storage"
)

const (
	groupsKey      = "store:groups"
	preferencesKey = "store:preferences"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database directory.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads every named store. Missing keys yield empty maps.
func (s *Store) Load(_ context.Context) (*models.Snapshot, error) {
	snap := models.NewSnapshot()
	err := s.db.View(func(txn *badger.Txn) error {
		if err := get(txn, groupsKey, &snap.Groups); err != nil {
			return err
		}
		return get(txn, preferencesKey, &snap.Preferences)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrIO, err)
	}
	return snap.Normalize(), nil
}

// Save overwrites every named store in a single transaction.
func (s *Store) Save(_ context.Context, snap *models.Snapshot) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := set(txn, groupsKey, snap.Groups); err != nil {
			return err
		}
		return set(txn, preferencesKey, snap.Preferences)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrIO, err)
	}
	return nil
}

func get(txn *badger.Txn, key string, target any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		if err := cbor.Unmarshal(val, target); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return nil
	})
}

func set(txn *badger.Txn, key string, value any) error {
	data, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}
