// Package navigator drives single-record browsing over the document API: it owns the
// cursor, fetches neighbouring documents and runs the delete fallback chain.
package navigator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kalambet/amabrowser/internal/document"
	"github.com/kalambet/amabrowser/internal/render"
)

// API is the document service the navigator reads from.
type API interface {
	Latest(ctx context.Context) (*document.Document, error)
	Previous(ctx context.Context, id string) (*document.Document, error)
	Next(ctx context.Context, id string) (*document.Document, error)
	Delete(ctx context.Context, id string) error
}

// Prompter shows blocking notifications and asks for confirmation.
type Prompter interface {
	Alert(msg string)
	Confirm(msg string) bool
}

// User-facing messages.
const (
	MsgLatestFailed   = "Failed to load the latest document"
	MsgNoPrevious     = "No previous document"
	MsgPreviousFailed = "Failed to load the previous document"
	MsgNoNext         = "No next document"
	MsgNextFailed     = "Failed to load the next document"
	MsgConfirmDelete  = "Delete this document? This cannot be undone."
	MsgDeleted        = "Document deleted"
	MsgDeleteFailed   = "Failed to delete the document"
	MsgNoneLeft       = "No documents left"
	MsgReloadFailed   = "Failed to load a document after deleting"
)

// Outcome reports what an operation did.
type Outcome int

const (
	// Skipped means nothing happened because no document is displayed.
	Skipped Outcome = iota
	// Shown means a fetched document is now displayed and the cursor points at it.
	Shown
	// NotFound means there is no document in the requested direction.
	NotFound
	// Failed means the operation was aborted after an error.
	Failed
	// Cancelled means the user declined the confirmation.
	Cancelled
	// Cleared means the last document was deleted and the display emptied.
	Cleared
	// Stale means a newer operation started before this one finished; its result was dropped.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Shown:
		return "shown"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case Cleared:
		return "cleared"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Navigator tracks the displayed document. It is safe for concurrent use; when operations
// overlap, only the most recently started one may update the display.
type Navigator struct {
	api      API
	display  render.Display
	renderer *render.Renderer
	ui       Prompter
	logger   *slog.Logger

	mu      sync.Mutex
	cursor  string
	current *document.Document
	seq     uint64
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithRenderer sets the renderer used to write documents into the display.
func WithRenderer(r *render.Renderer) Option {
	return func(n *Navigator) {
		if r != nil {
			n.renderer = r
		}
	}
}

// New creates a Navigator with an unset cursor.
func New(api API, display render.Display, ui Prompter, opts ...Option) *Navigator {
	n := &Navigator{
		api:      api,
		display:  display,
		renderer: render.New(),
		ui:       ui,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Cursor returns the id of the displayed document and whether one is displayed.
func (n *Navigator) Cursor() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor, n.cursor != ""
}

// Current returns the displayed document, or nil.
func (n *Navigator) Current() *document.Document {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// LoadLatest displays the most recent document.
func (n *Navigator) LoadLatest(ctx context.Context) Outcome {
	token := n.begin()
	doc, err := n.api.Latest(ctx)
	if err != nil {
		n.logger.Error("loading latest document", "op", "latest", "error", err)
		n.ui.Alert(MsgLatestFailed)
		return Failed
	}
	return n.commit(token, doc)
}

// LoadPrevious displays the document before the current one. Without a cursor it does
// nothing.
func (n *Navigator) LoadPrevious(ctx context.Context) Outcome {
	return n.step(ctx, "previous", n.api.Previous, MsgNoPrevious, MsgPreviousFailed)
}

// LoadNext displays the document after the current one. Without a cursor it does nothing.
func (n *Navigator) LoadNext(ctx context.Context) Outcome {
	return n.step(ctx, "next", n.api.Next, MsgNoNext, MsgNextFailed)
}

func (n *Navigator) step(ctx context.Context, op string, fetch func(context.Context, string) (*document.Document, error), notFoundMsg, failedMsg string) Outcome {
	id, ok := n.Cursor()
	if !ok {
		return Skipped
	}
	token := n.begin()
	doc, err := fetch(ctx, id)
	if IsNotFound(err) {
		n.ui.Alert(notFoundMsg)
		return NotFound
	}
	if err != nil {
		n.logger.Error("loading document", "op", op, "id", id, "error", err)
		n.ui.Alert(failedMsg)
		return Failed
	}
	return n.commit(token, doc)
}

// Delete removes the displayed document after confirmation, then displays the next
// document, else the previous one, else the latest one. When none is left the display is
// cleared and the cursor unset.
//
// A failure after the delete itself succeeded leaves the cursor on the deleted id.
func (n *Navigator) Delete(ctx context.Context) Outcome {
	deletedID, ok := n.Cursor()
	if !ok {
		return Skipped
	}
	if !n.ui.Confirm(MsgConfirmDelete) {
		return Cancelled
	}
	token := n.begin()

	if err := n.api.Delete(ctx, deletedID); err != nil {
		n.logger.Error("deleting document", "op", "delete", "id", deletedID, "error", err)
		n.ui.Alert(MsgDeleteFailed + ": " + err.Error())
		return Failed
	}
	n.ui.Alert(MsgDeleted)

	fallbacks := []struct {
		op    string
		fetch func() (*document.Document, error)
	}{
		{"next", func() (*document.Document, error) { return n.api.Next(ctx, deletedID) }},
		{"previous", func() (*document.Document, error) { return n.api.Previous(ctx, deletedID) }},
		{"latest", func() (*document.Document, error) { return n.api.Latest(ctx) }},
	}
	for _, fb := range fallbacks {
		doc, err := fb.fetch()
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			n.logger.Error("loading document after delete", "op", fb.op, "id", deletedID, "error", err)
			n.ui.Alert(MsgReloadFailed)
			return Failed
		}
		return n.commit(token, doc)
	}

	n.ui.Alert(MsgNoneLeft)
	return n.clear(token)
}

// begin starts an operation and returns its token.
func (n *Navigator) begin() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	return n.seq
}

func (n *Navigator) commit(token uint64, doc *document.Document) Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	if token != n.seq {
		n.logger.Debug("dropping stale response", "id", doc.ID)
		return Stale
	}
	n.renderer.Show(n.display, doc)
	n.cursor = doc.ID
	n.current = doc
	return Shown
}

func (n *Navigator) clear(token uint64) Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	if token != n.seq {
		return Stale
	}
	n.renderer.Clear(n.display)
	n.cursor = ""
	n.current = nil
	return Cleared
}
