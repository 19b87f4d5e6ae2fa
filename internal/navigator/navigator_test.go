package navigator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/kalambet/amabrowser/internal/document"
	"github.com/kalambet/amabrowser/internal/render"
)

// fakeAPI serves documents from an ordered id list and records every call.
type fakeAPI struct {
	mu    sync.Mutex
	ids   []string
	calls []string

	// failOn makes the named call ("latest", "next", "previous", "delete") return err.
	failOn map[string]error
}

func newFakeAPI(ids ...string) *fakeAPI {
	return &fakeAPI{ids: ids, failOn: map[string]error{}}
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func doc(id string) *document.Document {
	d, err := document.Parse([]byte(fmt.Sprintf(`{"_id": %q, "prompt": "prompt %s"}`, id, id)))
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fakeAPI) Latest(ctx context.Context) (*document.Document, error) {
	if err := f.record("latest"); err != nil {
		return nil, err
	}
	if len(f.ids) == 0 {
		return nil, &StatusError{Op: "latest", StatusCode: 404}
	}
	return doc(f.ids[len(f.ids)-1]), nil
}

// Ids compare lexically, so a deleted id still has neighbours.
func (f *fakeAPI) Previous(ctx context.Context, id string) (*document.Document, error) {
	if err := f.record("previous"); err != nil {
		return nil, err
	}
	for i := len(f.ids) - 1; i >= 0; i-- {
		if f.ids[i] < id {
			return doc(f.ids[i]), nil
		}
	}
	return nil, &StatusError{Op: "previous", StatusCode: 404}
}

func (f *fakeAPI) Next(ctx context.Context, id string) (*document.Document, error) {
	if err := f.record("next"); err != nil {
		return nil, err
	}
	for _, cand := range f.ids {
		if cand > id {
			return doc(cand), nil
		}
	}
	return nil, &StatusError{Op: "next", StatusCode: 404}
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	for i, cand := range f.ids {
		if cand == id {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			return nil
		}
	}
	return &StatusError{Op: "delete", StatusCode: 404}
}

type fakePrompter struct {
	confirm bool
	alerts  []string
	asked   int
}

func (p *fakePrompter) Alert(msg string) { p.alerts = append(p.alerts, msg) }

func (p *fakePrompter) Confirm(string) bool {
	p.asked++
	return p.confirm
}

func (p *fakePrompter) lastAlert() string {
	if len(p.alerts) == 0 {
		return ""
	}
	return p.alerts[len(p.alerts)-1]
}

var ctx = context.Background()

func newTestNavigator(api API) (*Navigator, *render.SlotSet, *fakePrompter) {
	slots := render.NewSlotSet()
	ui := &fakePrompter{confirm: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(api, slots, ui, WithLogger(logger)), slots, ui
}

func assertCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want %v", got, want)
		}
	}
}

func TestPreviousAndNext_NoCursorNoNetwork(t *testing.T) {
	api := newFakeAPI("a", "b")
	nav, _, ui := newTestNavigator(api)

	if got := nav.LoadPrevious(ctx); got != Skipped {
		t.Errorf("LoadPrevious = %v, want skipped", got)
	}
	if got := nav.LoadNext(ctx); got != Skipped {
		t.Errorf("LoadNext = %v, want skipped", got)
	}
	if got := nav.Delete(ctx); got != Skipped {
		t.Errorf("Delete = %v, want skipped", got)
	}
	assertCalls(t, api.Calls())
	if len(ui.alerts) != 0 || ui.asked != 0 {
		t.Errorf("unexpected prompts: alerts=%v asked=%d", ui.alerts, ui.asked)
	}
}

func TestLoadLatest_SetsCursorAndDisplays(t *testing.T) {
	api := newFakeAPI("a", "X")
	nav, slots, _ := newTestNavigator(api)

	if got := nav.LoadLatest(ctx); got != Shown {
		t.Fatalf("LoadLatest = %v, want shown", got)
	}
	id, ok := nav.Cursor()
	if !ok || id != "X" {
		t.Errorf("Cursor = %q, %v; want X, true", id, ok)
	}
	if got := slots.Get(render.SlotPrompt); got != "prompt X" {
		t.Errorf("prompt slot = %q", got)
	}
	if nav.Current() == nil || nav.Current().ID != "X" {
		t.Errorf("Current = %+v", nav.Current())
	}
}

func TestLoadLatest_FailureAlerts(t *testing.T) {
	api := newFakeAPI()
	nav, _, ui := newTestNavigator(api)

	if got := nav.LoadLatest(ctx); got != Failed {
		t.Fatalf("LoadLatest = %v, want failed", got)
	}
	if ui.lastAlert() != MsgLatestFailed {
		t.Errorf("alert = %q", ui.lastAlert())
	}
	if _, ok := nav.Cursor(); ok {
		t.Error("cursor bound after failure")
	}
}

func TestNavigate_PreviousNext(t *testing.T) {
	api := newFakeAPI("a", "b", "c")
	nav, slots, ui := newTestNavigator(api)
	nav.LoadLatest(ctx)

	if got := nav.LoadPrevious(ctx); got != Shown {
		t.Fatalf("LoadPrevious = %v", got)
	}
	if id, _ := nav.Cursor(); id != "b" {
		t.Errorf("cursor = %q, want b", id)
	}
	if got := nav.LoadNext(ctx); got != Shown {
		t.Fatalf("LoadNext = %v", got)
	}
	if id, _ := nav.Cursor(); id != "c" {
		t.Errorf("cursor = %q, want c", id)
	}

	if got := nav.LoadNext(ctx); got != NotFound {
		t.Fatalf("LoadNext at end = %v, want not_found", got)
	}
	if ui.lastAlert() != MsgNoNext {
		t.Errorf("alert = %q, want %q", ui.lastAlert(), MsgNoNext)
	}
	if id, _ := nav.Cursor(); id != "c" {
		t.Errorf("cursor moved on 404: %q", id)
	}
	if got := slots.Get(render.SlotPrompt); got != "prompt c" {
		t.Errorf("display changed on 404: %q", got)
	}
}

func TestNavigate_TransportErrorKeepsState(t *testing.T) {
	api := newFakeAPI("a", "b")
	nav, _, ui := newTestNavigator(api)
	nav.LoadLatest(ctx)
	api.failOn["previous"] = errors.New("connection refused")

	if got := nav.LoadPrevious(ctx); got != Failed {
		t.Fatalf("LoadPrevious = %v, want failed", got)
	}
	if ui.lastAlert() != MsgPreviousFailed {
		t.Errorf("alert = %q", ui.lastAlert())
	}
	if id, _ := nav.Cursor(); id != "b" {
		t.Errorf("cursor = %q, want b", id)
	}
}

func TestDelete_Cancelled(t *testing.T) {
	api := newFakeAPI("a")
	nav, _, ui := newTestNavigator(api)
	nav.LoadLatest(ctx)
	ui.confirm = false

	if got := nav.Delete(ctx); got != Cancelled {
		t.Fatalf("Delete = %v, want cancelled", got)
	}
	assertCalls(t, api.Calls(), "latest")
}

func TestDelete_ShowsNextWithoutOtherFallbacks(t *testing.T) {
	api := newFakeAPI("a", "b", "c")
	nav, slots, _ := newTestNavigator(api)
	nav.LoadLatest(ctx)
	nav.LoadPrevious(ctx) // cursor on b

	if got := nav.Delete(ctx); got != Shown {
		t.Fatalf("Delete = %v, want shown", got)
	}
	if id, _ := nav.Cursor(); id != "c" {
		t.Errorf("cursor = %q, want c", id)
	}
	if got := slots.Get(render.SlotPrompt); got != "prompt c" {
		t.Errorf("prompt slot = %q", got)
	}
	assertCalls(t, api.Calls(), "latest", "previous", "delete", "next")
}

func TestDelete_FallsBackToPrevious(t *testing.T) {
	api := newFakeAPI("a", "b")
	nav, _, ui := newTestNavigator(api)
	nav.LoadLatest(ctx) // cursor on b

	if got := nav.Delete(ctx); got != Shown {
		t.Fatalf("Delete = %v, want shown", got)
	}
	if id, _ := nav.Cursor(); id != "a" {
		t.Errorf("cursor = %q, want a", id)
	}
	assertCalls(t, api.Calls(), "latest", "delete", "next", "previous")
	if ui.alerts[0] != MsgDeleted {
		t.Errorf("alerts = %v", ui.alerts)
	}
}

func TestDelete_FallsBackToLatest(t *testing.T) {
	api := &latestOnlyAPI{fakeAPI: newFakeAPI(), latest: "z"}
	nav, _, _ := newTestNavigator(api)
	nav.LoadLatest(ctx)
	api.latest = "y"

	if got := nav.Delete(ctx); got != Shown {
		t.Fatalf("Delete = %v, want shown", got)
	}
	if id, _ := nav.Cursor(); id != "y" {
		t.Errorf("cursor = %q, want y", id)
	}
	assertCalls(t, api.Calls(), "latest", "delete", "next", "previous", "latest")
}

func TestDelete_LastDocumentClears(t *testing.T) {
	api := newFakeAPI("only")
	nav, slots, ui := newTestNavigator(api)
	nav.LoadLatest(ctx)

	if got := nav.Delete(ctx); got != Cleared {
		t.Fatalf("Delete = %v, want cleared", got)
	}
	if _, ok := nav.Cursor(); ok {
		t.Error("cursor still bound")
	}
	if nav.Current() != nil {
		t.Error("Current() not nil after clear")
	}
	for _, s := range render.AllSlots() {
		if got := slots.Get(s); got != "" {
			t.Errorf("slot %s = %q, want empty", s, got)
		}
	}
	assertCalls(t, api.Calls(), "latest", "delete", "next", "previous", "latest")
	if ui.lastAlert() != MsgNoneLeft {
		t.Errorf("alert = %q, want %q", ui.lastAlert(), MsgNoneLeft)
	}
}

func TestDelete_DeleteFailureKeepsState(t *testing.T) {
	api := newFakeAPI("a", "b")
	nav, _, ui := newTestNavigator(api)
	nav.LoadLatest(ctx)
	api.failOn["delete"] = &StatusError{Op: "delete", StatusCode: 500, Message: "boom"}

	if got := nav.Delete(ctx); got != Failed {
		t.Fatalf("Delete = %v, want failed", got)
	}
	assertCalls(t, api.Calls(), "latest", "delete")
	if id, _ := nav.Cursor(); id != "b" {
		t.Errorf("cursor = %q, want b", id)
	}
	if len(ui.alerts) != 1 {
		t.Errorf("alerts = %v", ui.alerts)
	}
}

func TestDelete_ChainErrorLeavesStaleCursor(t *testing.T) {
	api := newFakeAPI("a", "b", "c")
	nav, _, ui := newTestNavigator(api)
	nav.LoadLatest(ctx)
	nav.LoadPrevious(ctx) // cursor on b
	api.failOn["next"] = &StatusError{Op: "next", StatusCode: 502}

	if got := nav.Delete(ctx); got != Failed {
		t.Fatalf("Delete = %v, want failed", got)
	}
	// The server already deleted b; the cursor still points at it.
	if id, _ := nav.Cursor(); id != "b" {
		t.Errorf("cursor = %q, want b", id)
	}
	assertCalls(t, api.Calls(), "latest", "previous", "delete", "next")
	if ui.lastAlert() != MsgReloadFailed {
		t.Errorf("alert = %q", ui.lastAlert())
	}
}

// latestOnlyAPI has no neighbours for any id but still reports a latest document.
type latestOnlyAPI struct {
	*fakeAPI
	latest string
}

func (l *latestOnlyAPI) Latest(ctx context.Context) (*document.Document, error) {
	if err := l.record("latest"); err != nil {
		return nil, err
	}
	return doc(l.latest), nil
}

func (l *latestOnlyAPI) Next(ctx context.Context, id string) (*document.Document, error) {
	l.record("next")
	return nil, &StatusError{Op: "next", StatusCode: 404}
}

func (l *latestOnlyAPI) Previous(ctx context.Context, id string) (*document.Document, error) {
	l.record("previous")
	return nil, &StatusError{Op: "previous", StatusCode: 404}
}

func (l *latestOnlyAPI) Delete(ctx context.Context, id string) error {
	l.record("delete")
	return nil
}

// blockingAPI holds Next responses until released, to overlap two operations.
type blockingAPI struct {
	*fakeAPI
	release chan struct{}
}

func (b *blockingAPI) Next(ctx context.Context, id string) (*document.Document, error) {
	<-b.release
	return b.fakeAPI.Next(ctx, id)
}

func TestOverlappingOperations_LaterWins(t *testing.T) {
	api := &blockingAPI{fakeAPI: newFakeAPI("a", "b", "c"), release: make(chan struct{})}
	nav, slots, _ := newTestNavigator(api)
	nav.LoadLatest(ctx)
	nav.LoadPrevious(ctx) // cursor on b

	started := make(chan struct{})
	result := make(chan Outcome, 1)
	go func() {
		close(started)
		result <- nav.LoadNext(ctx)
	}()
	<-started
	// Wait until the slow call has taken its token.
	for {
		nav.mu.Lock()
		seq := nav.seq
		nav.mu.Unlock()
		if seq == 3 {
			break
		}
	}

	if got := nav.LoadPrevious(ctx); got != Shown {
		t.Fatalf("LoadPrevious = %v, want shown", got)
	}
	close(api.release)

	if got := <-result; got != Stale {
		t.Errorf("slow LoadNext = %v, want stale", got)
	}
	if id, _ := nav.Cursor(); id != "a" {
		t.Errorf("cursor = %q, want a", id)
	}
	if got := slots.Get(render.SlotPrompt); got != "prompt a" {
		t.Errorf("prompt slot = %q, want prompt a", got)
	}
}

func TestOutcomeString(t *testing.T) {
	if Shown.String() != "shown" || Stale.String() != "stale" || Outcome(99).String() != "unknown" {
		t.Error("unexpected Outcome strings")
	}
}
