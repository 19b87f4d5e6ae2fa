package storage

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Record is a stored document. Body is the JSON object with "_id" set to ID.
type Record struct {
	ID        string
	CreatedAt time.Time
	Body      json.RawMessage
}
