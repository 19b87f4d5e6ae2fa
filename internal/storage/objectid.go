package storage

import (
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generated ids share the layout of a MongoDB ObjectId: 4 bytes of big-endian Unix seconds,
// 5 bytes unique to this process and a 3-byte counter, as 24 lowercase hex characters.
// Imported ObjectIds and generated ids therefore sort together by creation time.

var (
	processUnique [5]byte
	idCounter     atomic.Uint32
)

func init() {
	u := uuid.New()
	copy(processUnique[:], u[:5])
}

func newObjectID(now time.Time) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(now.Unix()))
	copy(b[4:9], processUnique[:])
	n := idCounter.Add(1)
	b[9] = byte(n >> 16)
	b[10] = byte(n >> 8)
	b[11] = byte(n)
	return hex.EncodeToString(b[:])
}
