package attack

import "fmt"

// A Result carries the outcome and the cost counters of one attack run.
// Aggregation across trials belongs to the caller.
type Result struct {
	Success       bool
	Secret        []byte
	GuessesUsed   uint32
	BytesWritten  uint64
	BytesRead     uint64
	LinesReloaded uint64
	SetEvictions  uint64
}

func (r Result) String() string {
	return fmt.Sprintf(
		"success=%t guesses=%d written=%d read=%d reloaded=%d evictions=%d",
		r.Success, r.GuessesUsed, r.BytesWritten, r.BytesRead,
		r.LinesReloaded, r.SetEvictions)
}
