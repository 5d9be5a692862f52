// Package cpack implements the C-PACK word-level compression codec that
// decides how many bits a cache line occupies once compressed.
//
// A 64-byte line is treated as 16 little-endian 32-bit words. Each word is
// encoded with the cheapest matching pattern; only fully literal words enter
// the per-line dictionary, so the compressed size of a line depends on the
// order and values of the words within it.
package cpack

import (
	"encoding/binary"
	"fmt"

	"github.com/matthewm101/yacc-cpack-cache-attack/mem"
)

// WordsPerLine is the number of 4-byte words in a line.
const WordsPerLine = mem.LineSize / 4

// A Pattern identifies how one word is encoded.
type Pattern int

// The patterns, cheapest first. The mnemonics follow the C-PACK convention:
// z is a zero byte, m a byte matched from the dictionary, x a literal byte,
// reading from the most significant byte down.
const (
	PatternZZZZ Pattern = iota // all-zero word
	PatternMMMM                // exact dictionary match
	PatternZZZX                // upper three bytes zero, low byte literal
	PatternMMMX                // upper three bytes matched, low byte literal
	PatternMMXX                // upper two bytes matched, low half literal
	PatternXXXX                // fully literal word
)

// Bits returns the encoded width of the pattern, including its prefix code,
// dictionary index, and literal payload.
func (p Pattern) Bits() int {
	switch p {
	case PatternZZZZ:
		return 2
	case PatternMMMM:
		return 2 + 4
	case PatternZZZX:
		return 2 + 8
	case PatternMMMX:
		return 2 + 4 + 8
	case PatternMMXX:
		return 2 + 4 + 16
	case PatternXXXX:
		return 2 + 32
	default:
		panic(fmt.Sprintf("unknown pattern %d", p))
	}
}

func (p Pattern) String() string {
	switch p {
	case PatternZZZZ:
		return "zzzz"
	case PatternMMMM:
		return "mmmm"
	case PatternZZZX:
		return "zzzx"
	case PatternMMMX:
		return "mmmx"
	case PatternMMXX:
		return "mmxx"
	case PatternXXXX:
		return "xxxx"
	default:
		return fmt.Sprintf("pattern(%d)", p)
	}
}

// A CompressedWord is the encoding of one word: the pattern, the dictionary
// index for matching patterns, and the literal payload bits.
type CompressedWord struct {
	Pattern   Pattern
	DictIndex int
	Literal   uint32
}

// A CompressedLine is the codec's output for one line: the 16 word encodings
// and the total bit length.
type CompressedLine struct {
	Words  [WordsPerLine]CompressedWord
	BitLen int
}

// Bits returns the total compressed length in bits.
func (c CompressedLine) Bits() int {
	return c.BitLen
}

// ByteSize returns the compressed length rounded up to whole bytes. This is
// the size the cache charges against a superblock's budget.
func (c CompressedLine) ByteSize() int {
	return (c.BitLen + 7) / 8
}

// Compress encodes a 64-byte line, starting from a fresh dictionary.
func Compress(line []byte) CompressedLine {
	if len(line) != mem.LineSize {
		panic(fmt.Sprintf("line must be %d bytes, got %d",
			mem.LineSize, len(line)))
	}

	dict := NewDictionary()
	cl := CompressedLine{}

	for i := 0; i < WordsPerLine; i++ {
		word := binary.LittleEndian.Uint32(line[i*4:])
		cw := compressWord(word, dict)
		cl.Words[i] = cw
		cl.BitLen += cw.Pattern.Bits()
	}

	return cl
}

// compressWord picks the cheapest pattern for one word. Only fully literal
// words mutate the dictionary.
func compressWord(word uint32, dict *Dictionary) CompressedWord {
	if word == 0 {
		return CompressedWord{Pattern: PatternZZZZ}
	}

	if idx, ok := dict.FindExact(word); ok {
		return CompressedWord{Pattern: PatternMMMM, DictIndex: idx}
	}

	if word&^uint32(0xFF) == 0 {
		return CompressedWord{Pattern: PatternZZZX, Literal: word}
	}

	if idx, ok := dict.FindUpper24(word); ok {
		return CompressedWord{
			Pattern:   PatternMMMX,
			DictIndex: idx,
			Literal:   word & 0xFF,
		}
	}

	if idx, ok := dict.FindUpper16(word); ok {
		return CompressedWord{
			Pattern:   PatternMMXX,
			DictIndex: idx,
			Literal:   word & 0xFFFF,
		}
	}

	dict.Insert(word)

	return CompressedWord{Pattern: PatternXXXX, Literal: word}
}

// Decompress reconstructs the original 64 bytes of a compressed line. It is
// the exact inverse of Compress.
func Decompress(cl CompressedLine) []byte {
	dict := NewDictionary()
	line := make([]byte, mem.LineSize)

	for i, cw := range cl.Words {
		word := decompressWord(cw, dict)
		binary.LittleEndian.PutUint32(line[i*4:], word)
	}

	return line
}

func decompressWord(cw CompressedWord, dict *Dictionary) uint32 {
	switch cw.Pattern {
	case PatternZZZZ:
		return 0
	case PatternMMMM:
		return dict.At(cw.DictIndex)
	case PatternZZZX:
		return cw.Literal
	case PatternMMMX:
		return dict.At(cw.DictIndex)&upper24Mask | cw.Literal
	case PatternMMXX:
		return dict.At(cw.DictIndex)&upper16Mask | cw.Literal
	case PatternXXXX:
		dict.Insert(cw.Literal)
		return cw.Literal
	default:
		panic(fmt.Sprintf("unknown pattern %d", cw.Pattern))
	}
}
