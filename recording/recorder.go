// Package recording persists per-trial attack statistics.
package recording

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A TrialRecord is the outcome of one attack trial.
type TrialRecord struct {
	Trial         int
	SecretLength  int
	Success       bool
	GuessesUsed   uint32
	BytesWritten  uint64
	BytesRead     uint64
	LinesReloaded uint64
	SetEvictions  uint64
}

// A Recorder is a backend that can record and store trial outcomes.
type Recorder interface {
	// Record buffers one trial's outcome.
	Record(r TrialRecord)

	// Flush writes all the buffered outcomes to the backing store.
	Flush()
}

// NewSQLiteRecorder creates a Recorder that stores trial outcomes in an
// SQLite database at path. An empty path picks a fresh generated name.
func NewSQLiteRecorder(path string) Recorder {
	w := &sqliteRecorder{
		dbName:    path,
		batchSize: 100000,
	}

	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

// NewSQLiteRecorderWithDB creates a Recorder on an already-open database.
func NewSQLiteRecorderWithDB(db *sql.DB) Recorder {
	w := &sqliteRecorder{
		db:        db,
		batchSize: 100000,
	}

	w.createTable()

	atexit.Register(func() { w.Flush() })

	return w
}

type sqliteRecorder struct {
	db *sql.DB

	dbName    string
	records   []TrialRecord
	batchSize int
}

func (r *sqliteRecorder) init() {
	if r.dbName == "" {
		r.dbName = "yaccattack_trials_" + xid.New().String()
	}

	filename := r.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r.db = db
	r.createTable()
}

func (r *sqliteRecorder) createTable() {
	r.mustExecute(`CREATE TABLE trials (
	trial INTEGER,
	secret_length INTEGER,
	success INTEGER,
	guesses_used INTEGER,
	bytes_written INTEGER,
	bytes_read INTEGER,
	lines_reloaded INTEGER,
	set_evictions INTEGER
);`)
}

func (r *sqliteRecorder) Record(record TrialRecord) {
	r.records = append(r.records, record)

	if len(r.records) >= r.batchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) Flush() {
	if len(r.records) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	stmt, err := r.db.Prepare(
		"INSERT INTO trials VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, record := range r.records {
		_, err := stmt.Exec(
			record.Trial,
			record.SecretLength,
			record.Success,
			record.GuessesUsed,
			record.BytesWritten,
			record.BytesRead,
			record.LinesReloaded,
			record.SetEvictions,
		)
		if err != nil {
			panic(err)
		}
	}

	r.records = nil
}

func (r *sqliteRecorder) mustExecute(query string) sql.Result {
	res, err := r.db.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
