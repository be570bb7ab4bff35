package analysis

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarchlab/phoswich/datarecording"
	"github.com/sarchlab/phoswich/output"
	"github.com/sarchlab/phoswich/tally"
)

func writeRunDB(t *testing.T, recs ...tally.EventRecord) string {
	t.Helper()

	base := filepath.Join(t.TempDir(), "run")

	recorder := datarecording.New(base)
	recorder.CreateTable(output.TableOptical, tally.EventRecord{})

	for _, rec := range recs {
		recorder.InsertData(output.TableOptical, rec)
	}

	require.NoError(t, recorder.Close())

	return base + ".sqlite3"
}

func TestSummarizeAggregatesRun(t *testing.T) {
	dbFilename := writeRunDB(t,
		tally.EventRecord{
			EventID:   0,
			IncidentE: 5.5, DepositTotal: 6000, DepositZnS: 5500, DepositSc: 500,
			GeneratedTotal: 100, Detected: 10,
			FracAbsorbed: 30, FracBulkTotal: 20, FracBulkZnS: 15, FracBulkSc: 5,
			FracEscaped: 40, FracFailed: 5,
		},
		tally.EventRecord{
			EventID:   1,
			IncidentE: 4.5, DepositTotal: 4000, DepositZnS: 3500, DepositSc: 500,
			GeneratedTotal: 50, Detected: 5,
			FracAbsorbed: 10, FracBulkTotal: 40, FracBulkZnS: 30, FracBulkSc: 10,
			FracEscaped: 40, FracFailed: 10,
		},
	)

	s, err := Summarize(dbFilename)
	require.NoError(t, err)

	require.Equal(t, 2, s.Events)
	require.InDelta(t, 5.0, s.MeanIncidentE, 1e-9)
	require.InDelta(t, 5000, s.MeanDepositTotal, 1e-9)
	require.InDelta(t, 4500, s.MeanDepositZnS, 1e-9)
	require.InDelta(t, 500, s.MeanDepositSc, 1e-9)
	require.InDelta(t, 9000, s.TotalDepositZnS, 1e-9)
	require.InDelta(t, 1000, s.TotalDepositSc, 1e-9)
	require.Equal(t, 150, s.TotalGenerated)
	require.InDelta(t, 75, s.MeanGenerated, 1e-9)
	require.Equal(t, 15, s.TotalDetected)
	require.InDelta(t, 7.5, s.MeanDetected, 1e-9)
	require.InDelta(t, 20, s.MeanFracAbsorbed, 1e-9)
	require.InDelta(t, 30, s.MeanFracBulkTotal, 1e-9)
	require.InDelta(t, 22.5, s.MeanFracBulkZnS, 1e-9)
	require.InDelta(t, 7.5, s.MeanFracBulkSc, 1e-9)
	require.InDelta(t, 40, s.MeanFracEscaped, 1e-9)
	require.InDelta(t, 7.5, s.MeanFracFailed, 1e-9)
	require.InDelta(t, 0, s.MeanFracKilled, 1e-9)
}

func TestSummarizeEmptyRun(t *testing.T) {
	dbFilename := writeRunDB(t)

	s, err := Summarize(dbFilename)
	require.NoError(t, err)

	require.Equal(t, 0, s.Events)
	require.Zero(t, s.MeanGenerated)
	require.Zero(t, s.MeanDepositTotal)
	require.Zero(t, s.MeanFracEscaped)
}

func TestSummarizeMissingDatabase(t *testing.T) {
	dbFilename := filepath.Join(t.TempDir(), "absent.sqlite3")

	_, err := Summarize(dbFilename)
	require.Error(t, err)
	require.Contains(t, err.Error(), "summarize")

	// The reader must not leave an empty database behind.
	_, statErr := os.Stat(dbFilename)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunSummaryPrint(t *testing.T) {
	dbFilename := writeRunDB(t,
		tally.EventRecord{
			IncidentE: 5.5, DepositTotal: 6046, DepositZnS: 5500, DepositSc: 546,
			GeneratedTotal: 150, Detected: 15,
			FracEscaped: 40,
		},
	)

	s, err := Summarize(dbFilename)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	s.Print(buf)

	out := buf.String()
	require.True(t, strings.Contains(out, "Run >>> 1 events"))
	require.True(t, strings.Contains(out,
		"Photons Generated TOTAL :            150"))
	require.True(t, strings.Contains(out,
		"Photons Collected in PMT (QE):       15"))
	require.True(t, strings.Contains(out,
		"Mean Photons Escaped:                40 %"))
}
