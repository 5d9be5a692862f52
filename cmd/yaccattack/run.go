package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/matthewm101/yacc-cpack-cache-attack/recording"
	"github.com/matthewm101/yacc-cpack-cache-attack/trial"
	"github.com/matthewm101/yacc-cpack-cache-attack/victim"
)

var runFlags = struct {
	trials       int
	secretLength int
	seed         int64
	verbose      bool
	output       string
	csv          bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run extraction trials and report aggregate attack costs",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTrials(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			atexit.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().IntVarP(&runFlags.trials,
		"trials", "n", 10, "number of independent trials to run")
	runCmd.Flags().IntVarP(&runFlags.secretLength,
		"secret-length", "l", 4, "secret length in bytes, 4 or 8")
	runCmd.Flags().Int64VarP(&runFlags.seed,
		"seed", "s", 0, "randomness seed, 0 picks the current time")
	runCmd.Flags().BoolVarP(&runFlags.verbose,
		"verbose", "v", false, "log attacker progress per trial")
	runCmd.Flags().StringVarP(&runFlags.output,
		"output", "o", "", "record per-trial statistics at this path")
	runCmd.Flags().BoolVar(&runFlags.csv,
		"csv", false, "record statistics as CSV instead of SQLite")

	rootCmd.AddCommand(runCmd)
}

func runTrials() error {
	seed := runFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	source := victim.NewRandSource(seed)

	var logger *log.Logger
	if runFlags.verbose {
		logger = log.New(os.Stderr, "attack ", log.Lmicroseconds)
	}

	recorder := makeRecorder()

	var (
		successes uint64
		guesses   uint64
		written   uint64
		read      uint64
		reloads   uint64
	)

	for i := 0; i < runFlags.trials; i++ {
		_, controller, err := trial.SetupWithLogger(
			runFlags.secretLength, source, logger)
		if err != nil {
			return err
		}

		result := controller.Run()

		if result.Success {
			successes++
		}
		guesses += uint64(result.GuessesUsed)
		written += result.BytesWritten
		read += result.BytesRead
		reloads += result.LinesReloaded

		if runFlags.verbose {
			fmt.Printf("Trial %d: %s\n", i, result)
		}

		if recorder != nil {
			recorder.Record(recording.TrialRecord{
				Trial:         i,
				SecretLength:  runFlags.secretLength,
				Success:       result.Success,
				GuessesUsed:   result.GuessesUsed,
				BytesWritten:  result.BytesWritten,
				BytesRead:     result.BytesRead,
				LinesReloaded: result.LinesReloaded,
				SetEvictions:  result.SetEvictions,
			})
		}
	}

	if recorder != nil {
		recorder.Flush()
	}

	n := uint64(runFlags.trials)
	fmt.Printf("Trials:                %d\n", n)
	fmt.Printf("Secrets extracted:     %d\n", successes)
	fmt.Printf("Avg guesses per trial: %.2f\n", float64(guesses)/float64(n))
	fmt.Printf("Avg bytes written:     %.0f\n", float64(written)/float64(n))
	fmt.Printf("Avg bytes read:        %.0f\n", float64(read)/float64(n))
	fmt.Printf("Avg lines reloaded:    %.0f\n", float64(reloads)/float64(n))

	if successes != n {
		return fmt.Errorf("%d of %d trials failed to extract the secret",
			n-successes, n)
	}

	return nil
}

func makeRecorder() recording.Recorder {
	if runFlags.output == "" {
		return nil
	}

	if runFlags.csv {
		return recording.NewCSVRecorder(runFlags.output)
	}

	return recording.NewSQLiteRecorder(runFlags.output)
}
