// Package victim models the victim program: a 256-byte buffer holding
// attacker-writable data and a protected secret, with every access routed
// through the shared compressed cache set.
package victim

import (
	"bytes"
	"errors"

	"github.com/matthewm101/yacc-cpack-cache-attack/yacc"
)

// BufferSize is the size of the victim's buffer: one superblock.
const BufferSize = 256

// ErrAccessDenied is returned when a read or write lands in the secret
// region or outside the buffer. The buffer state is unchanged and no bytes
// are disclosed.
var ErrAccessDenied = errors.New("victim: access denied")

// ErrSecretGeneration is returned when the source cannot produce unique
// non-zero secret bytes within the retry budget.
var ErrSecretGeneration = errors.New("victim: secret generation failed")

// A Buffer is the victim's buffer. The secret occupies the end of the
// buffer and is reachable only through VerifyGuess.
type Buffer struct {
	name   string
	cache  *yacc.Set
	base   uint64
	secret []byte
}

// Name returns the name of the buffer.
func (b *Buffer) Name() string {
	return b.name
}

// Base returns the buffer's base address. The address layout is public
// knowledge; only the secret bytes are protected.
func (b *Buffer) Base() uint64 {
	return b.base
}

// SecretLength returns the configured secret length.
func (b *Buffer) SecretLength() int {
	return len(b.secret)
}

// secretOffset is the first protected offset in the buffer.
func (b *Buffer) secretOffset() uint64 {
	return BufferSize - uint64(len(b.secret))
}

// Read returns one byte of the buffer, going through the cache. Offsets in
// the secret region or outside the buffer are denied.
func (b *Buffer) Read(offset uint64) (byte, error) {
	if offset >= b.secretOffset() {
		return 0, ErrAccessDenied
	}

	data, _ := b.cache.ReadByte(b.base + offset)

	return data, nil
}

// Write stores one byte into the buffer, going through the cache. Offsets
// in the secret region or outside the buffer are denied.
func (b *Buffer) Write(offset uint64, data byte) error {
	if offset >= b.secretOffset() {
		return ErrAccessDenied
	}

	b.cache.WriteByte(b.base+offset, data)

	return nil
}

// VerifyGuess reports whether the candidate equals the true secret. It is
// meant as a final confirmation after the side channel has done its work,
// not as a search oracle.
func (b *Buffer) VerifyGuess(candidate []byte) bool {
	return bytes.Equal(candidate, b.secret)
}
