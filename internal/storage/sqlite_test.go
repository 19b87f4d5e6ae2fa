package storage

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/amabrowser/internal/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrations_AppliedOnceInOrder(t *testing.T) {
	dir := t.TempDir()

	var runs [][]int
	for i := 0; i < 2; i++ {
		s, err := Open(dir)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		versions, err := s.AppliedMigrations()
		s.Close()
		if err != nil {
			t.Fatalf("AppliedMigrations: %v", err)
		}
		runs = append(runs, versions)
	}

	first, second := runs[0], runs[1]
	if len(first) == 0 {
		t.Fatal("no migrations applied")
	}
	if len(first) != len(second) {
		t.Errorf("reopening re-applied migrations: %v -> %v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i] <= first[i-1] {
			t.Errorf("versions not ascending: %v", first)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	all, err := pendingMigrations(nil)
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	if len(all) == 0 || all[0].version != 1 {
		t.Fatalf("expected migration 1 first, got %+v", all)
	}

	rest, err := pendingMigrations(map[int]bool{1: true})
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	if len(rest) != len(all)-1 {
		t.Errorf("applied migration not skipped: %+v", rest)
	}
}

func TestOpen_FileUsesWAL(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %q", mode)
	}
}

// TestIndexesExist verifies that the documents index is created by the migration.
func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", "idx_documents_created").Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	if count != 1 {
		t.Error("index idx_documents_created not found in sqlite_master")
	}
}

func mustSave(t *testing.T, s *Store, body string) Record {
	t.Helper()
	r, err := s.Save([]byte(body))
	if err != nil {
		t.Fatalf("Save(%s): %v", body, err)
	}
	return r
}

func TestSave_KeepsGivenID(t *testing.T) {
	s := openTestStore(t)

	r := mustSave(t, s, `{"_id": "b", "prompt": "hi"}`)
	if r.ID != "b" {
		t.Errorf("ID = %q, want b", r.ID)
	}

	got, err := s.Get("b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	d, err := document.Parse(got.Body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.ID != "b" || d.Prompt != "hi" {
		t.Errorf("stored document = %+v", d)
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
}

func TestSave_NormalizesObjectID(t *testing.T) {
	s := openTestStore(t)

	r := mustSave(t, s, `{"_id": {"$oid": "65a1f0c2e4b0a1b2c3d4e5f6"}}`)
	if r.ID != "65a1f0c2e4b0a1b2c3d4e5f6" {
		t.Fatalf("ID = %q", r.ID)
	}
	var body map[string]any
	if err := json.Unmarshal(r.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["_id"] != "65a1f0c2e4b0a1b2c3d4e5f6" {
		t.Errorf("_id = %v, want plain string", body["_id"])
	}
}

func TestSave_AssignsOrderedIDs(t *testing.T) {
	s := openTestStore(t)

	first := mustSave(t, s, `{"prompt": "1"}`)
	second := mustSave(t, s, `{"prompt": "2"}`)

	for _, id := range []string{first.ID, second.ID} {
		if len(id) != 24 || strings.ToLower(id) != id {
			t.Fatalf("id %q is not 24 lowercase hex characters", id)
		}
		if _, err := hex.DecodeString(id); err != nil {
			t.Fatalf("id %q is not hex: %v", id, err)
		}
	}
	if !(first.ID < second.ID) {
		t.Errorf("ids not increasing: %q then %q", first.ID, second.ID)
	}
	if !strings.Contains(string(first.Body), first.ID) {
		t.Errorf("body does not carry id: %s", first.Body)
	}
}

func TestSave_GeneratedIDsSortAfterImportedObjectIDs(t *testing.T) {
	s := openTestStore(t)

	older := mustSave(t, s, `{"_id": {"$oid": "665f1c2e8b3e4a0012345678"}, "prompt": "2024"}`)
	fresh := mustSave(t, s, `{"prompt": "new"}`)
	newer := mustSave(t, s, `{"prompt": "newer"}`)

	latest, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != newer.ID {
		t.Fatalf("Latest = %q, want %q", latest.ID, newer.ID)
	}
	first, err := s.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first.ID != older.ID {
		t.Fatalf("First = %q, want imported %q", first.ID, older.ID)
	}

	next, err := s.Next(older.ID)
	if err != nil || next.ID != fresh.ID {
		t.Fatalf("Next(imported) = %q, %v; want %q", next.ID, err, fresh.ID)
	}
	prev, err := s.Previous(fresh.ID)
	if err != nil || prev.ID != older.ID {
		t.Fatalf("Previous(fresh) = %q, %v; want %q", prev.ID, err, older.ID)
	}
}

func TestNewObjectID_TimestampPrefix(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	id := newObjectID(at)

	b, err := hex.DecodeString(id)
	if err != nil || len(b) != 12 {
		t.Fatalf("newObjectID = %q, want 12 hex-encoded bytes", id)
	}
	if got := binary.BigEndian.Uint32(b[:4]); int64(got) != at.Unix() {
		t.Errorf("timestamp prefix = %d, want %d", got, at.Unix())
	}
	if later := newObjectID(at); !(id < later) {
		t.Errorf("ids in the same second not increasing: %q then %q", id, later)
	}
	if earlier := newObjectID(at.Add(-time.Hour)); !(earlier < id) {
		t.Errorf("older timestamp sorted after newer: %q vs %q", earlier, id)
	}
}

func TestSave_RejectsNonObject(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Save([]byte(`[1]`)); err == nil {
		t.Error("expected error for array body")
	}
}

func TestSave_Upserts(t *testing.T) {
	s := openTestStore(t)
	mustSave(t, s, `{"_id": "a", "prompt": "old"}`)
	mustSave(t, s, `{"_id": "a", "prompt": "new"}`)

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	r, _ := s.Get("a")
	if !strings.Contains(string(r.Body), "new") {
		t.Errorf("body = %s", r.Body)
	}
}

func TestNavigationQueries(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"c", "a", "e"} {
		mustSave(t, s, `{"_id": "`+id+`"}`)
	}

	tests := []struct {
		name string
		fn   func() (Record, error)
		want string
	}{
		{"latest", s.Latest, "e"},
		{"first", s.First, "a"},
		{"previous of c", func() (Record, error) { return s.Previous("c") }, "a"},
		{"next of c", func() (Record, error) { return s.Next("c") }, "e"},
		{"previous of missing d", func() (Record, error) { return s.Previous("d") }, "c"},
		{"next of missing d", func() (Record, error) { return s.Next("d") }, "e"},
		{"previous of first", func() (Record, error) { return s.Previous("a") }, ""},
		{"next of last", func() (Record, error) { return s.Next("e") }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.fn()
			if tt.want == "" {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("err = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.ID != tt.want {
				t.Errorf("ID = %q, want %q", r.ID, tt.want)
			}
		})
	}
}

func TestLatest_EmptyStore(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Latest(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest on empty store = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	mustSave(t, s, `{"_id": "a"}`)

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestRecent(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		mustSave(t, s, `{"_id": "`+id+`"}`)
	}

	recs, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "c" || recs[1].ID != "b" {
		t.Errorf("Recent(2) = %+v", recs)
	}
}
