package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kalambet/amabrowser/internal/document"
)

// Store wraps a SQLite database holding the document collection.
type Store struct {
	db *sql.DB
}

// pragmas are applied by the driver on every new connection.
const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Open opens (or creates) amabrowser.db in dataDir and applies pending migrations.
// Pass ":memory:" for an in-memory database.
func Open(dataDir string) (*Store, error) {
	dsn := ":memory:"
	if dataDir != ":memory:" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "amabrowser.db") + "?" + pragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", dsn, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Documents ---

// Save stores a document body, replacing any document with the same id. A body without
// an "_id" gets a new ObjectId-shaped id, so it sorts after every earlier document,
// imported ObjectIds included.
func (s *Store) Save(body []byte) (Record, error) {
	doc, err := document.Parse(body)
	if err != nil {
		return Record{}, err
	}
	now := time.Now().UTC()
	id := doc.ID
	if id == "" {
		id = newObjectID(now)
	}
	normalized, err := withID(body, id)
	if err != nil {
		return Record{}, err
	}

	rec := Record{ID: id, CreatedAt: now, Body: normalized}
	_, err = s.db.Exec(`
		INSERT INTO documents (id, created_at, body) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body`,
		rec.ID, rec.CreatedAt.Format(time.RFC3339), string(rec.Body),
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// withID rewrites "_id" as a plain string.
func withID(body []byte, id string) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	rawID, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	obj["_id"] = rawID
	return json.Marshal(obj)
}

// Get returns the document with the given id.
func (s *Store) Get(id string) (Record, error) {
	return s.queryOne("SELECT id, created_at, body FROM documents WHERE id = ?", id)
}

// Latest returns the document with the greatest id.
func (s *Store) Latest() (Record, error) {
	return s.queryOne("SELECT id, created_at, body FROM documents ORDER BY id DESC LIMIT 1")
}

// First returns the document with the smallest id.
func (s *Store) First() (Record, error) {
	return s.queryOne("SELECT id, created_at, body FROM documents ORDER BY id ASC LIMIT 1")
}

// Previous returns the closest document with an id below id. id need not exist.
func (s *Store) Previous(id string) (Record, error) {
	return s.queryOne("SELECT id, created_at, body FROM documents WHERE id < ? ORDER BY id DESC LIMIT 1", id)
}

// Next returns the closest document with an id above id. id need not exist.
func (s *Store) Next(id string) (Record, error) {
	return s.queryOne("SELECT id, created_at, body FROM documents WHERE id > ? ORDER BY id ASC LIMIT 1", id)
}

// Delete removes the document with the given id.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// Recent returns up to limit documents, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	rows, err := s.db.Query("SELECT id, created_at, body FROM documents ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) queryOne(query string, args ...any) (Record, error) {
	r, err := scanRecord(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var r Record
	var createdAt, body string
	if err := row.Scan(&r.ID, &createdAt, &body); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	r.Body = json.RawMessage(body)
	return r, nil
}
