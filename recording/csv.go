package recording

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A CSVRecorder stores trial outcomes in a CSV file.
type CSVRecorder struct {
	path string
	file *os.File

	records    []TrialRecord
	bufferSize int
}

// NewCSVRecorder creates a CSVRecorder writing to path. An empty path
// picks a fresh generated name.
func NewCSVRecorder(path string) *CSVRecorder {
	r := &CSVRecorder{
		path:       path,
		bufferSize: 1000,
	}

	r.init()

	return r
}

func (r *CSVRecorder) init() {
	if r.path == "" {
		r.path = "yaccattack_trials_" + xid.New().String()
	}

	filename := r.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	r.file = file

	fmt.Fprintf(file,
		"Trial, SecretLength, Success, GuessesUsed, "+
			"BytesWritten, BytesRead, LinesReloaded, SetEvictions\n")

	atexit.Register(func() {
		r.Flush()
		err := r.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Record buffers one trial's outcome.
func (r *CSVRecorder) Record(record TrialRecord) {
	r.records = append(r.records, record)
	if len(r.records) >= r.bufferSize {
		r.Flush()
	}
}

// Flush writes the buffered outcomes to the CSV file.
func (r *CSVRecorder) Flush() {
	for _, record := range r.records {
		fmt.Fprintf(r.file, "%d, %d, %t, %d, %d, %d, %d, %d\n",
			record.Trial,
			record.SecretLength,
			record.Success,
			record.GuessesUsed,
			record.BytesWritten,
			record.BytesRead,
			record.LinesReloaded,
			record.SetEvictions,
		)
	}

	r.records = nil
}
