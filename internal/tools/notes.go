// ABOUTME: Note tools exposed over MCP: create, get, list, search, delete, preview.
// ABOUTME: Thin adapters from validated JSON input to the notes service.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-sh/inkwell/internal/notes"
)

// ChangeNotifier is told when a tool mutates the note collection.
// The MCP server uses it to broadcast change notifications to
// connected streams.
type ChangeNotifier interface {
	NotesChanged()
}

type noteHandlers struct {
	svc      notes.Service
	notifier ChangeNotifier
}

// NotePack builds the note tools backed by the given service.
// notifier may be nil.
func NotePack(svc notes.Service, notifier ChangeNotifier) []*Tool {
	n := &noteHandlers{svc: svc, notifier: notifier}
	return []*Tool{
		{
			Name:        "create_note",
			Description: "Create a new note with a title and Markdown content",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"title":{"type":"string","minLength":1,"maxLength":200},"content":{"type":"string","minLength":1}},"required":["title","content"]}`),
			Handler:     n.Create,
		},
		{
			Name:        "get_note",
			Description: "Retrieve a note by its ID",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string","minLength":1}},"required":["id"]}`),
			Handler:     n.Get,
		},
		{
			Name:        "list_notes",
			Description: "List all notes, newest first",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler:     n.List,
		},
		{
			Name:        "search_notes",
			Description: "Search notes by title or content",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","minLength":1}},"required":["query"]}`),
			Handler:     n.Search,
		},
		{
			Name:        "delete_note",
			Description: "Delete a note by its ID",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string","minLength":1}},"required":["id"]}`),
			Handler:     n.Delete,
		},
		{
			Name:        "preview_note",
			Description: "Render a note's Markdown content as HTML",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string","minLength":1}},"required":["id"]}`),
			Handler:     n.Preview,
		},
	}
}

func (n *noteHandlers) notifyChanged() {
	if n.notifier != nil {
		n.notifier.NotesChanged()
	}
}

type createNoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (n *noteHandlers) Create(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in createNoteInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	note, err := n.svc.Create(ctx, in.Title, in.Content)
	if err != nil {
		return nil, err
	}

	n.notifyChanged()
	return TextResult("Created note %s (%q) at %s",
		note.ID, note.Title, note.CreatedAt.Format(time.RFC3339)), nil
}

type noteIDInput struct {
	ID string `json:"id"`
}

func (n *noteHandlers) Get(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in noteIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	note, err := n.svc.Get(ctx, in.ID)
	if errors.Is(err, notes.ErrNotFound) {
		return nil, fmt.Errorf("note %s not found", in.ID)
	}
	if err != nil {
		return nil, err
	}

	return TextResult("%s", formatNote(note)), nil
}

func (n *noteHandlers) List(ctx context.Context, input json.RawMessage) (*Result, error) {
	all, err := n.svc.List(ctx)
	if err != nil {
		return nil, err
	}

	return TextResult("%s", formatNoteList(all, "No notes yet.")), nil
}

type searchNotesInput struct {
	Query string `json:"query"`
}

func (n *noteHandlers) Search(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in searchNotesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	matches, err := n.svc.Search(ctx, in.Query)
	if err != nil {
		return nil, err
	}

	empty := fmt.Sprintf("No notes match %q.", in.Query)
	return TextResult("%s", formatNoteList(matches, empty)), nil
}

func (n *noteHandlers) Delete(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in noteIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	err := n.svc.Delete(ctx, in.ID)
	if errors.Is(err, notes.ErrNotFound) {
		return nil, fmt.Errorf("note %s not found", in.ID)
	}
	if err != nil {
		return nil, err
	}

	n.notifyChanged()
	return TextResult("Deleted note %s", in.ID), nil
}

func (n *noteHandlers) Preview(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in noteIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	note, err := n.svc.Get(ctx, in.ID)
	if errors.Is(err, notes.ErrNotFound) {
		return nil, fmt.Errorf("note %s not found", in.ID)
	}
	if err != nil {
		return nil, err
	}

	html, err := note.RenderHTML()
	if err != nil {
		return nil, err
	}

	return TextResult("%s", html), nil
}

func formatNote(note *notes.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", note.ID)
	fmt.Fprintf(&b, "Title: %s\n", note.Title)
	fmt.Fprintf(&b, "Created: %s\n\n", note.CreatedAt.Format(time.RFC3339))
	b.WriteString(note.Content)
	return b.String()
}

func formatNoteList(all []*notes.Note, empty string) string {
	if len(all) == 0 {
		return empty
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d note(s):\n", len(all))
	for _, note := range all {
		fmt.Fprintf(&b, "- %s  %q  (%s)\n",
			note.ID, note.Title, note.CreatedAt.Format(time.RFC3339))
	}
	return strings.TrimRight(b.String(), "\n")
}
