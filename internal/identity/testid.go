// Package identity derives the identifiers that tie the sections of a TRX
// document together: deterministic test ids computed from test names and
// random execution ids assigned per result.
package identity

import (
	"crypto/sha1"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// ErrInvalidInput is returned when an identifier is requested for an empty name.
var ErrInvalidInput = errors.New("invalid input")

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// TestID computes the id of a test from its fully qualified name. The same
// name always yields the same id, across runs and machines, which lets tools
// correlate the history of a test.
//
// The id is the first 128 bits of the SHA-1 digest of the UTF-16LE encoded
// name, laid out the way a .NET Guid is constructed from those bytes.
func TestID(name string) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: test name must not be empty", ErrInvalidInput)
	}

	encoded, err := utf16LE.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: encoding %q: %v", ErrInvalidInput, name, err)
	}

	sum := sha1.Sum(encoded)

	var id uuid.UUID
	copy(id[:], sum[:16])
	return fromGUIDBytes(id), nil
}

// MustTestID is like TestID but panics if name is empty.
func MustTestID(name string) uuid.UUID {
	id, err := TestID(name)
	if err != nil {
		panic(err)
	}
	return id
}

// fromGUIDBytes reorders bytes in the mixed-endian Guid layout (first three
// fields little-endian) into the big-endian layout uuid.UUID prints.
func fromGUIDBytes(b uuid.UUID) uuid.UUID {
	return uuid.UUID{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}
}
