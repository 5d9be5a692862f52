package yacc

import (
	"github.com/matthewm101/yacc-cpack-cache-attack/mem"
)

// Builder can build compressed cache sets.
type Builder struct {
	storage            *mem.Storage
	associativity      int
	linesPerSuperblock uint64
	budget             int
}

// MakeBuilder creates a builder with the default configuration: 8 ways,
// 4-line superblocks, and a budget equal to the uncompressed size of a
// superblock.
func MakeBuilder() Builder {
	return Builder{
		associativity:      8,
		linesPerSuperblock: 4,
		budget:             4 * mem.LineSize,
	}
}

// WithStorage sets the backing storage of the builder.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithAssociativity sets the number of ways of the builder.
func (b Builder) WithAssociativity(associativity int) Builder {
	b.associativity = associativity
	return b
}

// WithLinesPerSuperblock sets the number of lines that share one budget.
func (b Builder) WithLinesPerSuperblock(lines uint64) Builder {
	b.linesPerSuperblock = lines
	return b
}

// WithBudget sets the per-superblock compressed-size budget in bytes.
func (b Builder) WithBudget(budget int) Builder {
	b.budget = budget
	return b
}

// Build builds a set.
func (b Builder) Build(name string) *Set {
	if b.storage == nil {
		panic("a cache set requires a backing storage")
	}

	s := &Set{
		name:               name,
		storage:            b.storage,
		associativity:      b.associativity,
		linesPerSuperblock: b.linesPerSuperblock,
		budget:             b.budget,
	}

	s.blocks = make([]Block, b.associativity)
	s.lruQueue = make([]int, 0, b.associativity)
	for i := 0; i < b.associativity; i++ {
		s.blocks[i] = Block{WayID: i}
		s.lruQueue = append(s.lruQueue, i)
	}

	return s
}
