// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/wichtelbot/internal/models"
)

// ErrIO wraps every failure to read or write the backing store.
var ErrIO = errors.New("storage i/o failed")

// Store persists the complete bot state as one snapshot.
// This abstraction allows swapping storage backends (SQLite, Badger, a JSON
// file) without changing the coordinator.
type Store interface {
	// Load returns the last saved snapshot, or an empty one if nothing was
	// saved yet. Maps in the result are never nil.
	Load(ctx context.Context) (*models.Snapshot, error)

	// Save replaces everything stored with snap. A failed save leaves the
	// previous snapshot intact.
	Save(ctx context.Context, snap *models.Snapshot) error

	// Close releases any resources held by the store.
	Close() error
}
