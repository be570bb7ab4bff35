// Package analysis derives end-of-run statistics from a finished run's
// merged database.
package analysis

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/phoswich/datarecording"
	"github.com/sarchlab/phoswich/output"
	"github.com/sarchlab/phoswich/tally"
)

// A RunSummary aggregates the per-event optical records of a run. Deposits
// are in keV, the incident energy in MeV, and the Frac columns are mean
// percentages of the photons generated per event.
type RunSummary struct {
	Events int

	MeanIncidentE float64

	MeanDepositTotal float64
	MeanDepositZnS   float64
	MeanDepositSc    float64
	TotalDepositZnS  float64
	TotalDepositSc   float64

	TotalGenerated int
	MeanGenerated  float64
	TotalDetected  int
	MeanDetected   float64

	MeanFracAbsorbed  float64
	MeanFracBulkTotal float64
	MeanFracBulkZnS   float64
	MeanFracBulkSc    float64
	MeanFracEscaped   float64
	MeanFracFailed    float64
	MeanFracKilled    float64
}

// Summarize reads a run database and aggregates its per-event optical
// records. The filename is the full database file name, including the
// .sqlite3 extension.
func Summarize(dbFilename string) (*RunSummary, error) {
	if _, err := os.Stat(dbFilename); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	reader := datarecording.NewReader(dbFilename)
	defer reader.Close()

	return summarizeReader(reader)
}

func summarizeReader(reader datarecording.DataReader) (*RunSummary, error) {
	reader.MapTable(output.TableOptical, tally.EventRecord{})

	rows, _, err := reader.Query(
		context.Background(), output.TableOptical, datarecording.QueryParams{})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	s := &RunSummary{}

	for _, row := range rows {
		rec, ok := row.(*tally.EventRecord)
		if !ok {
			return nil, fmt.Errorf("summarize: unexpected row type %T", row)
		}

		s.add(rec)
	}

	s.finish()

	return s, nil
}

func (s *RunSummary) add(rec *tally.EventRecord) {
	s.Events++

	s.MeanIncidentE += rec.IncidentE

	s.MeanDepositTotal += rec.DepositTotal
	s.MeanDepositZnS += rec.DepositZnS
	s.MeanDepositSc += rec.DepositSc
	s.TotalDepositZnS += rec.DepositZnS
	s.TotalDepositSc += rec.DepositSc

	s.TotalGenerated += rec.GeneratedTotal
	s.TotalDetected += rec.Detected

	s.MeanFracAbsorbed += rec.FracAbsorbed
	s.MeanFracBulkTotal += rec.FracBulkTotal
	s.MeanFracBulkZnS += rec.FracBulkZnS
	s.MeanFracBulkSc += rec.FracBulkSc
	s.MeanFracEscaped += rec.FracEscaped
	s.MeanFracFailed += rec.FracFailed
	s.MeanFracKilled += rec.FracKilled
}

func (s *RunSummary) finish() {
	if s.Events == 0 {
		return
	}

	n := float64(s.Events)

	s.MeanIncidentE /= n

	s.MeanDepositTotal /= n
	s.MeanDepositZnS /= n
	s.MeanDepositSc /= n

	s.MeanGenerated = float64(s.TotalGenerated) / n
	s.MeanDetected = float64(s.TotalDetected) / n

	s.MeanFracAbsorbed /= n
	s.MeanFracBulkTotal /= n
	s.MeanFracBulkZnS /= n
	s.MeanFracBulkSc /= n
	s.MeanFracEscaped /= n
	s.MeanFracFailed /= n
	s.MeanFracKilled /= n
}

// Print renders the end-of-run table in the layout of the per-event report.
func (s *RunSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "\n\nRun >>> %v events\n", s.Events)
	fmt.Fprintf(w, "Mean Incident Energy :               %v keV \n",
		s.MeanIncidentE*1000)
	fmt.Fprintf(w, "Mean Energy Deposited TOTAL :        %v keV \n",
		s.MeanDepositTotal)
	fmt.Fprintf(w, "     Mean Energy Deposited ZnS :     %v keV \n",
		s.MeanDepositZnS)
	fmt.Fprintf(w, "     Mean Energy Deposited Sc :      %v keV \n",
		s.MeanDepositSc)
	fmt.Fprintf(w, "Total Energy Deposited ZnS :         %v keV \n",
		s.TotalDepositZnS)
	fmt.Fprintf(w, "Total Energy Deposited Sc :          %v keV \n",
		s.TotalDepositSc)
	fmt.Fprintf(w, "Photons Generated TOTAL :            %v\n",
		s.TotalGenerated)
	fmt.Fprintf(w, "     Mean per event :                %v\n",
		s.MeanGenerated)
	fmt.Fprintf(w, "Photons Collected in PMT (QE):       %v\n",
		s.TotalDetected)
	fmt.Fprintf(w, "     Mean per event :                %v\n",
		s.MeanDetected)

	fmt.Fprintf(w, "\nMean Photons Surface Absorbed :      %v %% \n",
		s.MeanFracAbsorbed)
	fmt.Fprintf(w, "Mean Photons Bulk Absorbed Total :   %v %% \n",
		s.MeanFracBulkTotal)
	fmt.Fprintf(w, "     Mean Photons Bulk Absorbed ZnS: %v %% \n",
		s.MeanFracBulkZnS)
	fmt.Fprintf(w, "     Mean Photons Bulk Absorbed Sc : %v %% \n",
		s.MeanFracBulkSc)
	fmt.Fprintf(w, "Mean Photons Escaped:                %v %% \n",
		s.MeanFracEscaped)
	fmt.Fprintf(w, "Mean Photons Transmitted to PMT:     %v %% \n",
		s.MeanFracFailed)
	fmt.Fprintf(w, "Mean Photons Killed by user:         %v %% \n",
		s.MeanFracKilled)
}
