// Package yacc models a set of a YACC-style compressed cache: an 8-way
// associative set whose ways are grouped into 4-line superblocks sharing a
// compressed-size budget.
//
// The set is shared mutable state between the victim and the attacker call
// paths. Every access leaves the per-superblock budget and way-uniqueness
// invariants satisfied before it returns; violations indicate a defect and
// abort the trial with a panic.
package yacc

import (
	"fmt"

	"github.com/matthewm101/yacc-cpack-cache-attack/cpack"
	"github.com/matthewm101/yacc-cpack-cache-attack/mem"
)

// A Set is one set of the compressed cache. It owns hit/miss determination,
// budget accounting, and capacity-driven eviction.
type Set struct {
	name    string
	storage *mem.Storage

	associativity      int
	linesPerSuperblock uint64
	budget             int

	blocks   []Block
	lruQueue []int // way IDs, least recently used first
}

// Name returns the name of the set.
func (s *Set) Name() string {
	return s.name
}

// ReadByte reads one byte through the cache.
func (s *Set) ReadByte(address uint64) (byte, AccessResult) {
	result, data := s.Access(address, false, 0)
	return data, result
}

// WriteByte writes one byte through the cache.
func (s *Set) WriteByte(address uint64, data byte) AccessResult {
	result, _ := s.Access(address, true, data)
	return result
}

// Access performs one read or write of a single byte. The returned
// AccessResult tells whether the containing line was already resident.
// Eviction and insertion happen atomically within the call.
func (s *Set) Access(
	address uint64,
	isWrite bool,
	data byte,
) (AccessResult, byte) {
	lineNumber := address / mem.LineSize
	offset := address % mem.LineSize

	if block, ok := s.lookup(lineNumber); ok {
		out := s.accessResident(block, offset, isWrite, data)
		s.assertInvariants()

		return Hit, out
	}

	out := s.insertLine(lineNumber, offset, isWrite, data)
	s.assertInvariants()

	return Miss, out
}

// accessResident serves a hit. A write decompresses the line, patches the
// byte, and recompresses; growth past the superblock budget evicts the
// superblock's other members, least recently used first.
func (s *Set) accessResident(
	block *Block,
	offset uint64,
	isWrite bool,
	data byte,
) byte {
	var out byte

	if isWrite {
		line := cpack.Decompress(block.Data)
		line[offset] = data
		block.Data = cpack.Compress(line)
		block.IsDirty = true

		s.evictForBudget(block.Superblock(s.linesPerSuperblock), block.WayID)
	} else {
		line := cpack.Decompress(block.Data)
		out = line[offset]
	}

	s.visit(block.WayID)

	return out
}

// insertLine serves a miss: fetch the line, apply the write, and make room
// for the compressed result.
func (s *Set) insertLine(
	lineNumber, offset uint64,
	isWrite bool,
	data byte,
) byte {
	line := s.storage.ReadLine(lineNumber)

	var out byte
	if isWrite {
		line[offset] = data
	} else {
		out = line[offset]
	}

	compressed := cpack.Compress(line)
	superblock := lineNumber / s.linesPerSuperblock

	for s.superblockSize(superblock)+compressed.ByteSize() > s.budget {
		victim, ok := s.findVictim(func(b Block) bool {
			return b.Superblock(s.linesPerSuperblock) == superblock
		})
		if !ok {
			panic(fmt.Sprintf(
				"%s: line %d cannot fit the superblock budget alone",
				s.name, lineNumber))
		}

		s.evict(victim)
	}

	way, ok := s.freeWay()
	if !ok {
		victim, _ := s.findVictim(func(Block) bool { return true })
		s.evict(victim)
		way = victim
	}

	s.blocks[way] = Block{
		LineNumber: lineNumber,
		Data:       compressed,
		WayID:      way,
		IsValid:    true,
		IsDirty:    isWrite,
	}
	s.visit(way)

	return out
}

// evictForBudget restores the budget of a superblock after a resident line
// grew, never evicting the way that was just accessed.
func (s *Set) evictForBudget(superblock uint64, keepWay int) {
	for s.superblockSize(superblock) > s.budget {
		victim, ok := s.findVictim(func(b Block) bool {
			return b.Superblock(s.linesPerSuperblock) == superblock &&
				b.WayID != keepWay
		})
		if !ok {
			panic(fmt.Sprintf(
				"%s: superblock %d over budget with a single resident line",
				s.name, superblock))
		}

		s.evict(victim)
	}
}

// lookup finds the way holding the given line.
func (s *Set) lookup(lineNumber uint64) (*Block, bool) {
	for i := range s.blocks {
		if s.blocks[i].IsValid && s.blocks[i].LineNumber == lineNumber {
			return &s.blocks[i], true
		}
	}

	return nil, false
}

// freeWay returns an invalid way, trying least recently used ways first.
func (s *Set) freeWay() (int, bool) {
	for _, wayID := range s.lruQueue {
		if !s.blocks[wayID].IsValid {
			return wayID, true
		}
	}

	return 0, false
}

// findVictim returns the least recently used valid way accepted by the
// filter.
func (s *Set) findVictim(accept func(Block) bool) (int, bool) {
	for _, wayID := range s.lruQueue {
		block := s.blocks[wayID]
		if block.IsValid && accept(block) {
			return wayID, true
		}
	}

	return 0, false
}

// evict removes the line in the given way, writing it back to storage if
// dirty.
func (s *Set) evict(wayID int) {
	block := &s.blocks[wayID]

	if block.IsDirty {
		s.storage.WriteLine(block.LineNumber, cpack.Decompress(block.Data))
	}

	block.IsValid = false
	block.IsDirty = false
	block.Data = cpack.CompressedLine{}
}

// visit moves a way to the most recently used end of the LRU queue.
func (s *Set) visit(wayID int) {
	newQueue := make([]int, 0, len(s.lruQueue))

	for _, w := range s.lruQueue {
		if w != wayID {
			newQueue = append(newQueue, w)
		}
	}

	s.lruQueue = append(newQueue, wayID)
}

// superblockSize sums the compressed byte sizes of the superblock's resident
// lines.
func (s *Set) superblockSize(superblock uint64) int {
	size := 0

	for _, block := range s.blocks {
		if block.IsValid &&
			block.Superblock(s.linesPerSuperblock) == superblock {
			size += block.Data.ByteSize()
		}
	}

	return size
}

// Contains reports whether a line is currently resident. It does not touch
// recency and is intended for tests and debugging.
func (s *Set) Contains(lineNumber uint64) bool {
	_, ok := s.lookup(lineNumber)
	return ok
}

// ResidentLines returns the line numbers currently resident, in way order.
// Intended for tests and debugging.
func (s *Set) ResidentLines() []uint64 {
	lines := []uint64{}

	for _, block := range s.blocks {
		if block.IsValid {
			lines = append(lines, block.LineNumber)
		}
	}

	return lines
}

// assertInvariants re-checks the budget and way-uniqueness invariants. A
// failure here is a defect in the set or the codec, not a user condition.
func (s *Set) assertInvariants() {
	seen := make(map[uint64]bool, len(s.blocks))
	sizes := make(map[uint64]int)

	for _, block := range s.blocks {
		if !block.IsValid {
			continue
		}

		if seen[block.LineNumber] {
			panic(fmt.Sprintf(
				"%s: capacity invariant violated, line %d in two ways",
				s.name, block.LineNumber))
		}
		seen[block.LineNumber] = true

		sb := block.Superblock(s.linesPerSuperblock)
		sizes[sb] += block.Data.ByteSize()
		if sizes[sb] > s.budget {
			panic(fmt.Sprintf(
				"%s: capacity invariant violated, superblock %d holds "+
					"%d bytes with a budget of %d",
				s.name, sb, sizes[sb], s.budget))
		}
	}
}
