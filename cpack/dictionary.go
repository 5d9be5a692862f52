package cpack

// DictionaryCap is the number of entries a compression dictionary can hold.
const DictionaryCap = 16

const (
	upper24Mask = 0xFFFFFF00
	upper16Mask = 0xFFFF0000
)

// A Dictionary is the bounded history of words that the codec matches
// against. Entries are distinct and replaced FIFO when the dictionary is
// full. A dictionary only lives for the compression of a single line, so a
// line's matching state can never leak into another line.
type Dictionary struct {
	entries []uint32
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		entries: make([]uint32, 0, DictionaryCap),
	}
}

// Len returns the number of entries currently held.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// At returns the entry at the given index, oldest first.
func (d *Dictionary) At(index int) uint32 {
	return d.entries[index]
}

// FindExact returns the index of the entry equal to the word.
func (d *Dictionary) FindExact(word uint32) (int, bool) {
	return d.find(word, 0xFFFFFFFF)
}

// FindUpper24 returns the index of the first entry whose upper three bytes
// equal the word's upper three bytes.
func (d *Dictionary) FindUpper24(word uint32) (int, bool) {
	return d.find(word, upper24Mask)
}

// FindUpper16 returns the index of the first entry whose upper two bytes
// equal the word's upper two bytes.
func (d *Dictionary) FindUpper16(word uint32) (int, bool) {
	return d.find(word, upper16Mask)
}

func (d *Dictionary) find(word, mask uint32) (int, bool) {
	for i, e := range d.entries {
		if e&mask == word&mask {
			return i, true
		}
	}

	return 0, false
}

// Insert records a word, dropping the oldest entry if the dictionary is
// full. Words already present are not duplicated.
func (d *Dictionary) Insert(word uint32) {
	if _, ok := d.FindExact(word); ok {
		return
	}

	if len(d.entries) == DictionaryCap {
		d.entries = d.entries[1:]
	}

	d.entries = append(d.entries, word)
}
