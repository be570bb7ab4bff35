package datarecording_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/phoswich/datarecording"
)

type InputRow struct {
	EventID int
	X       float64
	Energy  float64
}

func Example() {
	dir, err := os.MkdirTemp("", "phoswich-recording")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	recorder := datarecording.New(filepath.Join(dir, "run"))

	recorder.CreateTable("input", InputRow{})
	recorder.InsertData("input", InputRow{EventID: 0, X: -10, Energy: 5.5})
	recorder.InsertData("input", InputRow{EventID: 1, X: -10, Energy: 5.5})
	recorder.Close()

	reader := datarecording.NewReader(filepath.Join(dir, "run.sqlite3"))
	defer reader.Close()
	reader.MapTable("input", InputRow{})

	results, _, err := reader.Query(
		context.Background(), "input", datarecording.QueryParams{
			OrderBy: "EventID",
		})
	if err != nil {
		panic(err)
	}

	for _, result := range results {
		row := result.(*InputRow)
		fmt.Printf("Event: %d, X: %.1f, Energy: %.1f\n",
			row.EventID, row.X, row.Energy)
	}

	// Output:
	// Event: 0, X: -10.0, Energy: 5.5
	// Event: 1, X: -10.0, Energy: 5.5
}
