// Package attack implements the side-channel attacker: it primes the
// victim's superblock, forces capacity-driven evictions, and reconstructs
// the secret from hit/miss outcomes alone.
package attack

import (
	"log"

	"github.com/matthewm101/yacc-cpack-cache-attack/mem"
	"github.com/matthewm101/yacc-cpack-cache-attack/victim"
	"github.com/matthewm101/yacc-cpack-cache-attack/yacc"
)

// A Target is the attacker's view of the victim: the public buffer
// accessors and the guess check, nothing more.
type Target interface {
	Read(offset uint64) (byte, error)
	Write(offset uint64, data byte) error
	VerifyGuess(candidate []byte) bool
	SecretLength() int
}

// attackerBase is the bottom of the attacker's own address range. The
// victim's buffer is always placed at or above 0x10000, so the ranges never
// overlap.
const attackerBase = 0x0

// A Controller runs the attack. It touches the victim only through the
// Target interface and the cache only through its own addresses.
type Controller struct {
	name   string
	target Target
	cache  *yacc.Set
	logger *log.Logger

	associativity int
	phase         Phase
	result        Result
	observations  []bool

	// shadow mirrors the victim's attacker-writable region so unchanged
	// bytes are not rewritten.
	shadow [victim.BufferSize]byte
}

// Name returns the name of the controller.
func (c *Controller) Name() string {
	return c.name
}

// Phase returns the controller's position in the attack state machine.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Observations returns the recorded probe outcomes, true for each probe
// whose candidate matched.
func (c *Controller) Observations() []bool {
	out := make([]bool, len(c.observations))
	copy(out, c.observations)

	return out
}

func (c *Controller) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Run executes the attack end to end and returns the outcome with the
// accumulated cost counters.
func (c *Controller) Run() Result {
	c.result = Result{}
	c.observations = nil

	c.phase = PhasePriming
	c.primeFiller()

	secretWords := c.target.SecretLength() / 4

	var words [][]byte
	if secretWords == 1 {
		words = c.recoverSingleWord()
	} else {
		words = c.recoverWordPair()
	}

	if words == nil {
		c.phase = PhaseDone
		return c.result
	}

	c.submitGuesses(words)
	c.phase = PhaseDone

	c.logf("attack finished: %s", c.result)

	return c.result
}

// recoverSingleWord resolves the one word of a 4-byte secret.
func (c *Controller) recoverSingleWord() [][]byte {
	c.phase = PhaseProbing
	short, ok := c.resolveShort()
	if !ok {
		c.logf("failed to recover the upper half of the secret word")
		return nil
	}

	c.phase = PhaseResolving
	word, ok := c.resolveWordBytes(short, map[byte]bool{
		byte(short): true, byte(short >> 8): true,
	})
	if !ok {
		return nil
	}

	return [][]byte{word}
}

// recoverWordPair resolves both words of an 8-byte secret. Which half of
// the secret each word occupies stays unknown until disambiguation.
func (c *Controller) recoverWordPair() [][]byte {
	c.phase = PhaseProbing
	shorts, ok := c.resolveShortPair()
	if !ok {
		c.logf("failed to recover the upper halves of the secret words")
		return nil
	}

	c.phase = PhaseResolving
	known := map[byte]bool{}
	for _, s := range shorts {
		known[byte(s)] = true
		known[byte(s>>8)] = true
	}

	words := make([][]byte, 0, 2)
	for _, s := range shorts {
		word, ok := c.resolveWordBytes(s, known)
		if !ok {
			return nil
		}
		known[word[0]] = true
		known[word[1]] = true
		words = append(words, word)
	}

	return words
}

// resolveWordBytes recovers the two low bytes of a word with a known upper
// half and assembles the word's four bytes in buffer order.
func (c *Controller) resolveWordBytes(
	short uint16,
	known map[byte]bool,
) ([]byte, bool) {
	secondByte, ok := c.resolveSecondByte(short, known)
	if !ok {
		c.logf("failed to recover the second byte under upper half %#04x",
			short)
		return nil, false
	}

	exclude := map[byte]bool{secondByte: true}
	for b := range known {
		exclude[b] = true
	}

	lastByte, ok := c.resolveLastByte(short, secondByte, exclude)
	if !ok {
		c.logf("failed to recover the low byte under upper half %#04x",
			short)
		return nil, false
	}

	return []byte{lastByte, secondByte, byte(short), byte(short >> 8)}, true
}

// submitGuesses verifies the assembled secret. A 4-byte secret needs one
// guess; an 8-byte secret may need the swapped word order.
func (c *Controller) submitGuesses(words [][]byte) {
	if len(words) == 1 {
		c.phase = PhaseVerifying
		c.verify(words[0])
		return
	}

	c.phase = PhaseDisambiguating
	if c.verify(append(append([]byte{}, words[0]...), words[1]...)) {
		return
	}
	c.verify(append(append([]byte{}, words[1]...), words[0]...))
}

func (c *Controller) verify(candidate []byte) bool {
	c.result.GuessesUsed++

	if c.target.VerifyGuess(candidate) {
		c.result.Success = true
		c.result.Secret = candidate
	}

	return c.result.Success
}

// attackerWords is the number of line words the attacker controls in the
// victim's secret line.
func (c *Controller) attackerWords() int {
	return int(mem.LineSize/4) - c.target.SecretLength()/4
}

// resolveShort finds the upper half of a 4-byte secret's word: group
// testing to narrow the candidate space, then one probe per survivor.
func (c *Controller) resolveShort() (uint16, bool) {
	slots := shortSlots(c.attackerWords())
	candidates := shortCandidates()

	for len(candidates) > slots {
		group := candidates[:slots]
		if c.probeShorts(group) {
			candidates = group
			break
		}
		candidates = candidates[slots:]
	}

	for _, s := range candidates {
		if c.probeShorts([]uint16{s}) {
			return s, true
		}
	}

	return 0, false
}

// resolveShortPair finds the upper halves of both words of an 8-byte
// secret. Every positive group feeds a shortlist; the shortlist is then
// confirmed one candidate at a time until two survive.
func (c *Controller) resolveShortPair() ([]uint16, bool) {
	slots := shortSlots(c.attackerWords())
	candidates := shortCandidates()

	shortlist := []uint16{}
	for len(candidates) > 0 {
		n := min(slots, len(candidates))
		group := candidates[:n]
		candidates = candidates[n:]

		if c.probeShorts(group) {
			shortlist = append(shortlist, group...)
		}
	}

	found := []uint16{}
	for _, s := range shortlist {
		if c.probeShorts([]uint16{s}) {
			found = append(found, s)
			if len(found) == 2 {
				return found, true
			}
		}
	}

	return nil, false
}

// probeShorts reports whether any candidate in the group matches the upper
// half of a secret word.
func (c *Controller) probeShorts(group []uint16) bool {
	return c.probe(makeShortProbeLine(group, c.attackerWords()))
}

// resolveSecondByte scans candidate second bytes, one probe each.
func (c *Controller) resolveSecondByte(
	short uint16,
	known map[byte]bool,
) (byte, bool) {
	for _, v := range byteCandidates(known) {
		if c.probe(makeSecondByteProbeLine(short, v, c.attackerWords())) {
			return v, true
		}
	}

	return 0, false
}

// resolveLastByte scans candidate low bytes, one probe each.
func (c *Controller) resolveLastByte(
	short uint16,
	secondByte byte,
	exclude map[byte]bool,
) (byte, bool) {
	for _, v := range byteCandidates(exclude) {
		if c.probe(makeLastByteProbeLine(
			short, secondByte, v, c.attackerWords())) {
			return v, true
		}
	}

	return 0, false
}

// primeFiller writes incompressible filler into the victim's three
// non-secret lines so the superblock budget leaves exactly 52 bytes for
// the secret line.
func (c *Controller) primeFiller() {
	fillerLines := victim.BufferSize/mem.LineSize - 1

	for offset := uint64(0); offset < uint64(fillerLines)*mem.LineSize; offset++ {
		c.writeVictim(offset, byte(offset%mem.LineSize/4+1))
	}
}

// probe primes the secret line with an attack string, flushes the set,
// reloads the victim's lines, and checks whether the secret line's reload
// consumed a way. A miss on the attacker's probe line means the secret
// line fit the leftover budget, i.e. a candidate matched.
func (c *Controller) probe(attackString []byte) bool {
	secretLineBase := uint64(victim.BufferSize - mem.LineSize)
	for i, b := range attackString {
		c.writeVictim(secretLineBase+uint64(i), b)
	}

	for i := 0; i < c.associativity; i++ {
		c.touchOwnLine(uint64(i))
	}
	c.result.SetEvictions++

	for offset := uint64(0); offset < victim.BufferSize; offset += mem.LineSize {
		c.readVictim(offset)
	}

	// The three filler reloads evicted the attacker's three oldest lines.
	// The secret line's reload either evicted the fourth (fit) or forced a
	// budget eviction inside the victim's superblock (overflow).
	result := c.touchOwnLine(uint64(victim.BufferSize/mem.LineSize - 1))

	matched := result == yacc.Miss
	c.observations = append(c.observations, matched)

	return matched
}

// touchOwnLine accesses one of the attacker's own lines. Each lives in its
// own superblock so the loads never interact through a budget.
func (c *Controller) touchOwnLine(index uint64) yacc.AccessResult {
	_, result := c.cache.ReadByte(attackerBase + index*victim.BufferSize)
	c.result.LinesReloaded++

	return result
}

func (c *Controller) writeVictim(offset uint64, data byte) {
	if c.shadow[offset] == data {
		return
	}

	if err := c.target.Write(offset, data); err != nil {
		panic("attack string write landed outside the writable region: " +
			err.Error())
	}

	c.shadow[offset] = data
	c.result.BytesWritten++
}

func (c *Controller) readVictim(offset uint64) {
	if _, err := c.target.Read(offset); err != nil {
		panic("victim reload landed outside the readable region: " +
			err.Error())
	}

	c.result.BytesRead++
}
