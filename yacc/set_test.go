package yacc_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/matthewm101/yacc-cpack-cache-attack/mem"
	"github.com/matthewm101/yacc-cpack-cache-attack/yacc"
)

// incompressibleLine is 16 distinct words that compress to 68 bytes, more
// than an uncompressed line.
func incompressibleLine() []byte {
	line := make([]byte, 64)
	for i := range line {
		line[i] = byte(i/4 + 1)
	}
	return line
}

// writeLineThroughCache streams a full line into the cache byte by byte.
func writeLineThroughCache(set *yacc.Set, lineNumber uint64, data []byte) {
	for i, b := range data {
		set.WriteByte(lineNumber*mem.LineSize+uint64(i), b)
	}
}

var _ = Describe("Set", func() {
	var (
		storage *mem.Storage
		set     *yacc.Set
	)

	BeforeEach(func() {
		storage = mem.NewStorage()
		set = yacc.MakeBuilder().
			WithStorage(storage).
			Build("Cache")
	})

	It("should miss on first touch and hit afterwards", func() {
		_, result := set.ReadByte(0x40)
		Expect(result).To(Equal(yacc.Miss))

		_, result = set.ReadByte(0x41)
		Expect(result).To(Equal(yacc.Hit))
	})

	It("should return data previously written", func() {
		set.WriteByte(0x103, 0xAB)

		data, result := set.ReadByte(0x103)
		Expect(result).To(Equal(yacc.Hit))
		Expect(data).To(Equal(byte(0xAB)))
	})

	It("should read unwritten addresses as zero", func() {
		data, _ := set.ReadByte(0x12345)
		Expect(data).To(Equal(byte(0)))
	})

	It("should evict the least recently used line when ways run out", func() {
		// Nine lines in nine different superblocks compete for eight ways.
		for i := uint64(0); i < 9; i++ {
			set.ReadByte(i * 256)
		}

		Expect(set.Contains(0)).To(BeFalse())
		for i := uint64(1); i < 9; i++ {
			Expect(set.Contains(i * 4)).To(BeTrue())
		}

		_, result := set.ReadByte(0)
		Expect(result).To(Equal(yacc.Miss))
	})

	It("should refresh recency on hits", func() {
		for i := uint64(0); i < 8; i++ {
			set.ReadByte(i * 256)
		}

		set.ReadByte(0) // line 0 becomes most recently used

		set.ReadByte(8 * 256) // evicts line 4, not line 0

		Expect(set.Contains(0)).To(BeTrue())
		Expect(set.Contains(4)).To(BeFalse())
	})

	It("should write dirty lines back on eviction", func() {
		set.WriteByte(0x00, 0x11)
		set.WriteByte(0x01, 0x22)

		for i := uint64(1); i < 9; i++ {
			set.ReadByte(i * 256)
		}

		Expect(set.Contains(0)).To(BeFalse())
		Expect(storage.ReadLine(0)[0]).To(Equal(byte(0x11)))
		Expect(storage.ReadLine(0)[1]).To(Equal(byte(0x22)))
	})

	It("should keep all four compressible lines of a superblock", func() {
		for i := uint64(0); i < 4; i++ {
			set.ReadByte(i * 64)
		}

		for i := uint64(0); i < 4; i++ {
			Expect(set.Contains(i)).To(BeTrue())
		}
	})

	Context("when three lines of a superblock are incompressible", func() {
		BeforeEach(func() {
			for i := uint64(0); i < 3; i++ {
				storage.WriteLine(i, incompressibleLine())
				set.ReadByte(i * 64)
			}
		})

		It("should admit a fourth line that fits the leftover budget", func() {
			// A zero line compresses to 4 bytes; 3*68+4 <= 256.
			set.ReadByte(3 * 64)

			for i := uint64(0); i < 4; i++ {
				Expect(set.Contains(i)).To(BeTrue())
			}
		})

		It("should evict within the superblock when the budget overflows",
			func() {
				storage.WriteLine(3, incompressibleLine())
				set.ReadByte(3 * 64)

				Expect(set.Contains(0)).To(BeFalse(),
					"superblock LRU member should go first")
				Expect(set.Contains(1)).To(BeTrue())
				Expect(set.Contains(2)).To(BeTrue())
				Expect(set.Contains(3)).To(BeTrue())
			})

		It("should spare other superblocks from budget eviction", func() {
			set.ReadByte(9 * 256)

			storage.WriteLine(3, incompressibleLine())
			set.ReadByte(3 * 64)

			Expect(set.Contains(9 * 4)).To(BeTrue())
		})

		It("should evict grown lines' neighbors on write hits", func() {
			set.ReadByte(3 * 64) // zero line, resident

			writeLineThroughCache(set, 3, incompressibleLine())

			Expect(set.Contains(3)).To(BeTrue(),
				"the written line itself must stay resident")
			Expect(set.ResidentLines()).NotTo(ContainElement(uint64(0)))
		})
	})
})
