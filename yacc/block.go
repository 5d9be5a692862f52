package yacc

import (
	"github.com/matthewm101/yacc-cpack-cache-attack/cpack"
)

// An AccessResult is the externally observable outcome of a cache access.
// It is the only signal the cache leaks, and the one the attacker times.
type AccessResult int

// The two observable access outcomes.
const (
	Miss AccessResult = iota
	Hit
)

func (r AccessResult) String() string {
	if r == Hit {
		return "hit"
	}
	return "miss"
}

// A Block is the information associated with one way of the set. A valid
// block holds a resident line in compressed form.
type Block struct {
	LineNumber uint64
	Data       cpack.CompressedLine
	WayID      int
	IsValid    bool
	IsDirty    bool
}

// Superblock returns the number of the superblock the block's line belongs
// to, given the number of lines per superblock.
func (b Block) Superblock(linesPerSuperblock uint64) uint64 {
	return b.LineNumber / linesPerSuperblock
}
