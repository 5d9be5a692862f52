// Package mem provides the line-addressable backing storage that the
// compressed cache evicts to and refills from.
package mem

// LineSize is the number of bytes in a cache line.
const LineSize = 64

// A Storage keeps the data of the simulated system.
//
// The storage manages its content in line-sized units. Units that have never
// been written are not allocated and read as all zeros, so the storage is
// effectively unbounded.
type Storage struct {
	data map[uint64][]byte
}

// NewStorage creates an empty storage.
func NewStorage() *Storage {
	return &Storage{
		data: make(map[uint64][]byte),
	}
}

// createOrGetUnit retrieves the unit holding the given address, allocating a
// zeroed unit on the first write touch.
func (s *Storage) createOrGetUnit(address uint64) []byte {
	baseAddr, _ := s.parseAddress(address)
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, LineSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % LineSize
	baseAddr = addr - inUnitAddr

	return
}

// ReadLine returns a copy of the 64-byte line with the given line number.
// Lines that were never written read as all zeros.
func (s *Storage) ReadLine(lineNumber uint64) []byte {
	res := make([]byte, LineSize)

	unit, ok := s.data[lineNumber*LineSize]
	if ok {
		copy(res, unit)
	}

	return res
}

// WriteLine stores 64 bytes as the line with the given line number.
func (s *Storage) WriteLine(lineNumber uint64, data []byte) {
	if len(data) != LineSize {
		panic("a full line must be written at once")
	}

	unit := s.createOrGetUnit(lineNumber * LineSize)
	copy(unit, data)
}

// Read returns a copy of the bytes in [address, address+length).
func (s *Storage) Read(address, length uint64) []byte {
	currAddr := address
	dataOffset := uint64(0)
	res := make([]byte, length)

	for currAddr < address+length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToRead := baseAddr + LineSize - currAddr
		if lenLeft := length - dataOffset; lenLeft < lenToRead {
			lenToRead = lenLeft
		}

		if unit, ok := s.data[baseAddr]; ok {
			copy(res[dataOffset:dataOffset+lenToRead],
				unit[inUnitAddr:inUnitAddr+lenToRead])
		}

		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res
}

// Write stores the bytes starting at the given address.
func (s *Storage) Write(address uint64, data []byte) {
	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < uint64(len(data)) {
		unit := s.createOrGetUnit(currAddr)

		_, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := LineSize - inUnitAddr
		if lenLeft := uint64(len(data)) - dataOffset; lenLeft < lenToWrite {
			lenToWrite = lenLeft
		}

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])
		dataOffset += lenToWrite
		currAddr += lenToWrite
	}
}
