package cpack_test

import (
	"encoding/binary"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/matthewm101/yacc-cpack-cache-attack/cpack"
)

func lineFromWords(words ...uint32) []byte {
	line := make([]byte, 64)
	for i, w := range words {
		binary.LittleEndian.PutUint32(line[i*4:], w)
	}
	return line
}

var _ = Describe("Compress", func() {
	It("should compress an all-zero line to 32 bits", func() {
		cl := cpack.Compress(make([]byte, 64))

		Expect(cl.Bits()).To(Equal(32))
		Expect(cl.ByteSize()).To(Equal(4))
	})

	It("should compress 16 distinct unseen words to 544 bits", func() {
		words := make([]uint32, 16)
		for i := range words {
			words[i] = 0x01010101 * uint32(i+1)
		}
		cl := cpack.Compress(lineFromWords(words...))

		Expect(cl.Bits()).To(Equal(544))
		Expect(cl.ByteSize()).To(Equal(68))
	})

	It("should encode an exact repeat as a dictionary match", func() {
		cl := cpack.Compress(lineFromWords(0xDEADBEEF, 0xDEADBEEF))

		Expect(cl.Words[0].Pattern).To(Equal(cpack.PatternXXXX))
		Expect(cl.Words[1].Pattern).To(Equal(cpack.PatternMMMM))
		Expect(cl.Bits()).To(Equal(34 + 6 + 14*2))
	})

	It("should encode a small word as a zero-extended byte", func() {
		cl := cpack.Compress(lineFromWords(0x000000FF))

		Expect(cl.Words[0].Pattern).To(Equal(cpack.PatternZZZX))
		Expect(cl.Words[0].Literal).To(Equal(uint32(0xFF)))
	})

	It("should match the upper three bytes with a literal low byte", func() {
		cl := cpack.Compress(lineFromWords(0xAABBCC11, 0xAABBCC22))

		Expect(cl.Words[1].Pattern).To(Equal(cpack.PatternMMMX))
		Expect(cl.Words[1].Literal).To(Equal(uint32(0x22)))
	})

	It("should match the upper two bytes with a literal low half", func() {
		cl := cpack.Compress(lineFromWords(0xAABB1111, 0xAABB2222))

		Expect(cl.Words[1].Pattern).To(Equal(cpack.PatternMMXX))
		Expect(cl.Words[1].Literal).To(Equal(uint32(0x2222)))
	})

	It("should not let matched words join the dictionary", func() {
		// The third word matches the first only through the upper half. If
		// the second word (an mmxx match) had joined the dictionary, the
		// third would instead match its upper three bytes.
		cl := cpack.Compress(lineFromWords(0xAABB1111, 0xAABB2222, 0xAABB2233))

		Expect(cl.Words[2].Pattern).To(Equal(cpack.PatternMMXX))
	})

	It("should size words it has not seen as fully literal", func() {
		cl := cpack.Compress(lineFromWords(0x11223344))

		Expect(cl.Words[0].Pattern).To(Equal(cpack.PatternXXXX))
		Expect(cl.Bits()).To(Equal(34 + 15*2))
	})
})

var _ = Describe("Decompress", func() {
	It("should invert compression for random lines", func() {
		r := rand.New(rand.NewSource(1))

		for trial := 0; trial < 200; trial++ {
			line := make([]byte, 64)
			r.Read(line)

			cl := cpack.Compress(line)
			Expect(cpack.Decompress(cl)).To(Equal(line))
		}
	})

	It("should invert compression for highly compressible lines", func() {
		line := lineFromWords(
			0, 0xAABBCCDD, 0xAABBCCDD, 0xAABBCC01,
			0xAABB0102, 0x000000FF, 0, 0x11223344)

		cl := cpack.Compress(line)
		Expect(cpack.Decompress(cl)).To(Equal(line))
	})
})
