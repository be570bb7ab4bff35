package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/sarchlab/phoswich/analysis"
	"github.com/sarchlab/phoswich/simulation"
)

// runBatch runs events from a macro file. The arguments are
// outputFileBaseName, nEvents, macroFile, MT{ON|OFF}, and an optional
// thread count.
func runBatch(args []string) {
	events, err := strconv.Atoi(args[1])
	if err != nil || events <= 0 {
		log.Fatalf("Event count must be a positive integer, got %q.", args[1])
	}

	workers := batchWorkerCount(args)

	b := simulation.MakeBuilder().
		WithEventCount(events).
		WithMacroFile(args[2]).
		WithOutputFileBaseName(args[0])
	if workers > 0 {
		b = b.WithMultithreading(workers)
	}

	s, err := b.Build()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := s.Run(); err != nil {
		log.Fatalf("%v", err)
	}

	if err := s.Terminate(); err != nil {
		log.Fatalf("%v", err)
	}

	reportRun(s.OutputFile())
}

// batchWorkerCount reads the MT flag and the optional thread count. Zero
// means single-threaded.
func batchWorkerCount(args []string) int {
	switch args[3] {
	case "OFF":
		return 0
	case "ON":
	default:
		log.Fatalf("MT parameter must be ON or OFF, got %q.", args[3])
	}

	if len(args) == 5 {
		workers, err := strconv.Atoi(args[4])
		if err != nil || workers <= 0 {
			log.Fatalf("Thread count must be a positive integer, got %q.",
				args[4])
		}
		return workers
	}

	return runtime.NumCPU()
}

// reportRun prints the run summary and where the data landed. ClickHouse
// runs have no local artifact to summarize.
func reportRun(dbFile string) {
	if dbFile == "" {
		return
	}

	summary, err := analysis.Summarize(dbFile)
	if err != nil {
		log.Fatalf("%v", err)
	}

	summary.Print(os.Stdout)
	fmt.Printf("Output saved to file %v\n", dbFile)
}
