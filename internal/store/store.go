// ABOUTME: Store interface and data types for inkwell persistence
// ABOUTME: Defines the Note struct and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Note represents a single stored note
type Note struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
}

// Store defines the persistence operations for notes
type Store interface {
	// CreateNote persists a new note. The caller is responsible for
	// populating ID and CreatedAt.
	CreateNote(ctx context.Context, note *Note) error

	// GetNote retrieves a note by ID. Returns ErrNotFound if it does not exist.
	GetNote(ctx context.Context, id string) (*Note, error)

	// ListNotes returns all notes ordered by creation time, newest first.
	ListNotes(ctx context.Context) ([]*Note, error)

	// SearchNotes returns notes whose title or content contains the query,
	// ordered by creation time, newest first.
	SearchNotes(ctx context.Context, query string) ([]*Note, error)

	// DeleteNote removes a note by ID. Returns ErrNotFound if it does not exist.
	DeleteNote(ctx context.Context, id string) error

	// Close releases the underlying database resources.
	Close() error
}
