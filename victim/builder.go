package victim

import (
	"github.com/matthewm101/yacc-cpack-cache-attack/yacc"
)

// maxDrawAttempts bounds the rejection sampling of secret bytes. With 255
// non-zero values and at most 8 bytes to pick, exhausting it means the
// source is broken, not unlucky.
const maxDrawAttempts = 1024

// baseAddressMask keeps drawn base addresses superblock-aligned and clear
// of the attacker's low address range.
const (
	baseAddressMask = 0x0000FFFFFFFF0000
	baseAddressMin  = 0x10000
)

// Builder can build victim buffers.
type Builder struct {
	cache        *yacc.Set
	source       Source
	secretLength int
	base         uint64
	baseSet      bool
}

// MakeBuilder creates a builder with a 4-byte secret.
func MakeBuilder() Builder {
	return Builder{
		secretLength: 4,
	}
}

// WithCache sets the cache set the buffer accesses memory through.
func (b Builder) WithCache(cache *yacc.Set) Builder {
	b.cache = cache
	return b
}

// WithSource sets the randomness source of the builder.
func (b Builder) WithSource(source Source) Builder {
	b.source = source
	return b
}

// WithSecretLength sets the secret length in bytes.
func (b Builder) WithSecretLength(length int) Builder {
	b.secretLength = length
	return b
}

// WithBaseAddress pins the buffer's base address instead of drawing one.
// The address must be superblock aligned.
func (b Builder) WithBaseAddress(base uint64) Builder {
	b.base = base
	b.baseSet = true
	return b
}

// Build builds a victim buffer, drawing the base address and the secret
// from the source and writing the secret through the cache.
func (b Builder) Build(name string) (*Buffer, error) {
	if b.cache == nil {
		panic("a victim buffer requires a cache set")
	}
	if b.source == nil {
		panic("a victim buffer requires a randomness source")
	}
	if b.secretLength <= 0 || b.secretLength >= BufferSize {
		panic("secret length must leave room for attacker-writable data")
	}

	buffer := &Buffer{
		name:  name,
		cache: b.cache,
		base:  b.base,
	}

	if !b.baseSet {
		buffer.base = b.source.Uint64()&baseAddressMask | baseAddressMin
	}
	if buffer.base%BufferSize != 0 {
		panic("victim buffer base must be superblock aligned")
	}

	secret, err := b.drawSecret()
	if err != nil {
		return nil, err
	}
	buffer.secret = secret

	for i, data := range secret {
		buffer.cache.WriteByte(
			buffer.base+buffer.secretOffset()+uint64(i), data)
	}

	return buffer, nil
}

// drawSecret rejection-samples pairwise distinct non-zero bytes.
func (b Builder) drawSecret() ([]byte, error) {
	secret := make([]byte, 0, b.secretLength)
	used := make(map[byte]bool)

	for attempts := 0; len(secret) < b.secretLength; attempts++ {
		if attempts >= maxDrawAttempts {
			return nil, ErrSecretGeneration
		}

		data := byte(b.source.Uint64())
		if data == 0 || used[data] {
			continue
		}

		used[data] = true
		secret = append(secret, data)
	}

	return secret, nil
}
