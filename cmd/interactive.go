package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/phoswich/macro"
	"github.com/sarchlab/phoswich/simulation"
)

// An interactiveSession reads macro commands from stdin and fires a run on
// every beamOn. Each run writes its own numbered database.
type interactiveSession struct {
	base     string
	settings *macro.Settings
	runID    int
	line     int
}

// runInteractive is the batch-less mode: the same macro vocabulary, runs
// triggered by hand.
func runInteractive(base string) {
	s := &interactiveSession{
		base:     base,
		settings: macro.DefaultSettings(),
	}

	fmt.Println("Interactive session. Macro commands configure the source;")
	fmt.Println("beamOn <n> runs n events, exit leaves.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("phoswich> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		if done := s.handle(strings.TrimSpace(scanner.Text())); done {
			return
		}
	}
}

// handle runs one input line, reporting whether the session should end.
// Bad lines print an error and keep the session alive.
func (s *interactiveSession) handle(line string) bool {
	s.line++

	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "exit", "quit":
		return true

	case "beamOn", "/run/beamOn":
		s.beamOn(fields[1:])

	default:
		cmd := macro.Command{Line: s.line, Name: fields[0], Args: fields[1:]}
		if err := macro.Apply(macro.Commands{cmd}, s.settings); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	return false
}

func (s *interactiveSession) beamOn(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "beamOn wants one argument: the event count")
		return
	}

	events, err := strconv.Atoi(args[0])
	if err != nil || events <= 0 {
		fmt.Fprintf(os.Stderr,
			"beamOn wants a positive event count, got %q\n", args[0])
		return
	}

	id := s.nextRunID()

	run, err := simulation.MakeBuilder().
		WithEventCount(events).
		WithSettings(s.settings).
		WithOutputFileBaseName(s.runBase(id)).
		WithoutMonitoring().
		Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	for _, w := range run.Workers() {
		w.RunID = id
	}

	if err := run.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if err := run.Terminate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	reportRun(run.OutputFile())
}

// nextRunID returns the next run number whose database file is still free,
// skipping files earlier sessions left behind.
func (s *interactiveSession) nextRunID() int {
	for {
		id := s.runID
		s.runID++

		if _, err := os.Stat(s.runBase(id) + ".sqlite3"); os.IsNotExist(err) {
			return id
		}
	}
}

func (s *interactiveSession) runBase(id int) string {
	return fmt.Sprintf("%s_run%d", s.base, id)
}
