// Package id provides the opaque, time-ordered identifier used for
// sessions, messages, and tool calls throughout the runtime.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// ID is a 128-bit time-ordered identifier with a canonical Crockford
// base32 text encoding. The first 48 bits are a millisecond timestamp, so
// IDs minted later sort after IDs minted earlier.
type ID ulid.ULID

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New mints a fresh, monotonically increasing ID.
func New() ID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(time.Now()), entropy))
}

// Parse decodes the canonical text form of an ID.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return ID{}, err
	}
	return ID(u), nil
}

// String returns the canonical Crockford base32 text form.
func (id ID) String() string {
	return ulid.ULID(id).String()
}

// Time returns the millisecond timestamp encoded in the ID.
func (id ID) Time() time.Time {
	return ulid.Time(ulid.ULID(id).Time())
}

// Compare orders two IDs; a negative result means id sorts before other.
func (id ID) Compare(other ID) int {
	return ulid.ULID(id).Compare(ulid.ULID(other))
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return ulid.ULID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	var u ulid.ULID
	if err := u.UnmarshalText(text); err != nil {
		return err
	}
	*id = ID(u)
	return nil
}
