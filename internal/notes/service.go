// ABOUTME: Note service providing CRUD operations over the persistence layer.
// ABOUTME: Owns ID generation, timestamps, and input validation for notes.

package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/inkwell-sh/inkwell/internal/store"
)

// ErrNotFound is returned when a requested note does not exist.
var ErrNotFound = errors.New("note not found")

// MaxTitleLength bounds note titles; longer titles are rejected.
const MaxTitleLength = 200

// Note is the service-level view of a stored note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service defines the note operations consumed by the tool layer.
type Service interface {
	// Create stores a new note and returns it with ID and CreatedAt populated.
	Create(ctx context.Context, title, content string) (*Note, error)

	// Get retrieves a note by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Note, error)

	// List returns all notes, newest first.
	List(ctx context.Context) ([]*Note, error)

	// Search returns notes whose title or content contains the query, newest first.
	Search(ctx context.Context, query string) ([]*Note, error)

	// Delete removes a note by ID. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// StoreService implements Service on top of a store.Store.
type StoreService struct {
	store  store.Store
	logger *slog.Logger
}

// NewStoreService creates a note service backed by the given store.
func NewStoreService(s store.Store, logger *slog.Logger) *StoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreService{
		store:  s,
		logger: logger.With("component", "notes"),
	}
}

// Create stores a new note
func (s *StoreService) Create(ctx context.Context, title, content string) (*Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, fmt.Errorf("title exceeds maximum length of %d characters", MaxTitleLength)
	}
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}

	rec := &store.Note{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateNote(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Debug("note created", "note_id", rec.ID)
	return fromRecord(rec), nil
}

// Get retrieves a note by ID
func (s *StoreService) Get(ctx context.Context, id string) (*Note, error) {
	rec, err := s.store.GetNote(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting note: %w", err)
	}
	return fromRecord(rec), nil
}

// List returns all notes, newest first
func (s *StoreService) List(ctx context.Context) ([]*Note, error) {
	recs, err := s.store.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return fromRecords(recs), nil
}

// Search returns notes matching the query, newest first
func (s *StoreService) Search(ctx context.Context, query string) ([]*Note, error) {
	recs, err := s.store.SearchNotes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	return fromRecords(recs), nil
}

// Delete removes a note by ID
func (s *StoreService) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteNote(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}

	s.logger.Debug("note deleted", "note_id", id)
	return nil
}

// RenderHTML converts the note's Markdown content to HTML.
func (n *Note) RenderHTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(n.Content), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

func fromRecord(rec *store.Note) *Note {
	return &Note{
		ID:        rec.ID,
		Title:     rec.Title,
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
	}
}

func fromRecords(recs []*store.Note) []*Note {
	notes := make([]*Note, len(recs))
	for i, rec := range recs {
		notes[i] = fromRecord(rec)
	}
	return notes
}
