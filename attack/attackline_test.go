package attack

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/matthewm101/yacc-cpack-cache-attack/cpack"
	"github.com/matthewm101/yacc-cpack-cache-attack/mem"
)

var _ = Describe("Attack strings", func() {
	// secretLineBits compresses a full line made of the attack string
	// followed by the secret bytes.
	secretLineBits := func(attackString, secret []byte) int {
		line := make([]byte, 0, mem.LineSize)
		line = append(line, attackString...)
		line = append(line, secret...)
		Expect(line).To(HaveLen(int(mem.LineSize)))

		return cpack.Compress(line).Bits()
	}

	secret4 := []byte{0x11, 0x22, 0x33, 0x44}
	secret8 := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}

	Context("with a 4-byte secret", func() {
		const attackerWords = 15

		It("should cross the threshold on upper-half matches", func() {
			match := makeShortProbeLine([]uint16{0x4433}, attackerWords)
			miss := makeShortProbeLine([]uint16{0x4434}, attackerWords)

			Expect(secretLineBits(match, secret4)).
				To(BeNumerically("<=", probeThresholdBits))
			Expect(secretLineBits(miss, secret4)).
				To(BeNumerically(">", probeThresholdBits))
		})

		It("should detect an upper half anywhere in a full group", func() {
			group := []uint16{
				0xFFFE, 0xFEFD, 0xFDFC, 0xFCFB, 0xFBFA,
				0x4433,
				0xFAF9, 0xF9F8, 0xF8F7, 0xF7F6, 0xF6F5,
			}
			Expect(group).To(HaveLen(shortSlots(attackerWords)))

			Expect(secretLineBits(
				makeShortProbeLine(group, attackerWords), secret4)).
				To(BeNumerically("<=", probeThresholdBits))
		})

		It("should cross the threshold on second-byte matches", func() {
			match := makeSecondByteProbeLine(0x4433, 0x22, attackerWords)
			miss := makeSecondByteProbeLine(0x4433, 0x21, attackerWords)

			Expect(secretLineBits(match, secret4)).
				To(BeNumerically("<=", probeThresholdBits))
			Expect(secretLineBits(miss, secret4)).
				To(BeNumerically(">", probeThresholdBits))
		})

		It("should cross the threshold on low-byte matches", func() {
			match := makeLastByteProbeLine(0x4433, 0x22, 0x11, attackerWords)
			miss := makeLastByteProbeLine(0x4433, 0x22, 0x12, attackerWords)

			Expect(secretLineBits(match, secret4)).
				To(BeNumerically("<=", probeThresholdBits))
			Expect(secretLineBits(miss, secret4)).
				To(BeNumerically(">", probeThresholdBits))
		})
	})

	Context("with an 8-byte secret", func() {
		const attackerWords = 14

		It("should cross the threshold on upper-half matches", func() {
			for _, short := range []uint16{0x4433, 0x8877} {
				match := makeShortProbeLine([]uint16{short}, attackerWords)
				Expect(secretLineBits(match, secret8)).
					To(BeNumerically("<=", probeThresholdBits))
			}

			miss := makeShortProbeLine([]uint16{0x4477}, attackerWords)
			Expect(secretLineBits(miss, secret8)).
				To(BeNumerically(">", probeThresholdBits))
		})

		It("should resolve each word's low bytes independently", func() {
			b1Match := makeSecondByteProbeLine(0x8877, 0x66, attackerWords)
			b1Miss := makeSecondByteProbeLine(0x8877, 0x22, attackerWords)
			b0Match := makeLastByteProbeLine(
				0x8877, 0x66, 0x55, attackerWords)
			b0Miss := makeLastByteProbeLine(
				0x8877, 0x66, 0x11, attackerWords)

			Expect(secretLineBits(b1Match, secret8)).
				To(BeNumerically("<=", probeThresholdBits))
			Expect(secretLineBits(b1Miss, secret8)).
				To(BeNumerically(">", probeThresholdBits))
			Expect(secretLineBits(b0Match, secret8)).
				To(BeNumerically("<=", probeThresholdBits))
			Expect(secretLineBits(b0Miss, secret8)).
				To(BeNumerically(">", probeThresholdBits))
		})
	})

	It("should enumerate only distinct non-zero upper halves", func() {
		candidates := shortCandidates()

		Expect(candidates).To(HaveLen(255 * 254))
		Expect(candidates[0]).To(Equal(uint16(0xFFFE)))
		for _, s := range candidates[:1000] {
			Expect(byte(s)).NotTo(BeZero())
			Expect(byte(s >> 8)).NotTo(BeZero())
			Expect(byte(s)).NotTo(Equal(byte(s >> 8)))
		}
	})

	It("should skip excluded byte values", func() {
		candidates := byteCandidates(map[byte]bool{0x44: true, 0x33: true})

		Expect(candidates).To(HaveLen(253))
		Expect(candidates).NotTo(ContainElement(byte(0x44)))
		Expect(candidates).NotTo(ContainElement(byte(0x33)))
		Expect(candidates).NotTo(ContainElement(byte(0x00)))
	})

	It("should keep filler words out of the candidate space", func() {
		for i := 0; i < 11; i++ {
			word := dummyShortWord(i)
			var raw [4]byte
			binary.LittleEndian.PutUint32(raw[:], word)
			Expect(raw[3]).To(BeZero())
		}
	})
})
