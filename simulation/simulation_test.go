package simulation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phoswich/datarecording"
	"github.com/sarchlab/phoswich/output"
	"github.com/sarchlab/phoswich/runner"
	"github.com/sarchlab/phoswich/tally"
	"github.com/sarchlab/phoswich/tracing"
	"github.com/sarchlab/phoswich/tracking"
)

var _ = Describe("Builder", func() {
	It("should refuse a run without events", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithOutputFileBaseName("out").Build()
		}).To(Panic())
	})

	It("should refuse a run without an output file base name", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithEventCount(1).Build()
		}).To(Panic())
	})

	It("should refuse a monitor port when monitoring is off", func() {
		Expect(func() {
			_, _ = MakeBuilder().
				WithEventCount(1).
				WithOutputFileBaseName("out").
				WithoutMonitoring().
				WithMonitorPort(8080).
				Build()
		}).To(Panic())
	})

	It("should refuse multithreading without workers", func() {
		Expect(func() {
			_, _ = MakeBuilder().
				WithEventCount(1).
				WithOutputFileBaseName("out").
				WithMultithreading(0).
				Build()
		}).To(Panic())
	})
})

var _ = Describe("Simulation", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "phoswich_simulation_test_*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	// freshBuilder points the run at an empty data directory, so events
	// deposit energy but generate no optical photons.
	freshBuilder := func(base string, events int) Builder {
		return MakeBuilder().
			WithEventCount(events).
			WithOutputFileBaseName(filepath.Join(dir, base)).
			WithDataDir(filepath.Join(dir, "missing_data")).
			WithoutMonitoring().
			WithoutProgressBar().
			WithSeed(1)
	}

	It("should build one worker per thread", func() {
		s, err := freshBuilder("wiring", 4).WithMultithreading(2).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.ID()).NotTo(BeEmpty())
		Expect(s.Events()).To(Equal(4))
		Expect(s.Workers()).To(HaveLen(2))
		Expect(s.GetWorkerByName("Worker0")).NotTo(BeNil())
		Expect(s.GetWorkerByName("Worker1")).NotTo(BeNil())
		Expect(s.GetWorkerByName("Worker2")).To(BeNil())
		Expect(s.GetEngine()).NotTo(BeNil())

		Expect(s.Terminate()).To(Succeed())
	})

	It("should name the output database after the base name", func() {
		s, err := freshBuilder("named", 1).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.OutputFile()).To(
			Equal(filepath.Join(dir, "named") + ".sqlite3"))

		Expect(s.Terminate()).To(Succeed())
	})

	It("should apply a macro file to the particle source", func() {
		macroPath := filepath.Join(dir, "run.mac")
		macroText := "/gps/particle e-\n/gps/energy 546 keV\n"
		Expect(os.WriteFile(macroPath, []byte(macroText), 0o644)).To(Succeed())

		s, err := freshBuilder("macro", 1).WithMacroFile(macroPath).Build()
		Expect(err).NotTo(HaveOccurred())

		gen := s.Workers()[0].Generator
		Expect(gen.Particle).To(Equal(tracking.ParticleElectron))
		Expect(gen.EnergyEV).To(BeNumerically("~", 546*tracking.KEV, 1e-9))

		Expect(s.Terminate()).To(Succeed())
	})

	It("should surface macro errors instead of building", func() {
		macroPath := filepath.Join(dir, "broken.mac")
		Expect(os.WriteFile(macroPath, []byte("/gps/warp 9\n"), 0o644)).
			To(Succeed())

		_, err := freshBuilder("broken", 1).WithMacroFile(macroPath).Build()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown command"))
	})

	It("should surface a missing macro file instead of building", func() {
		_, err := freshBuilder("nofile", 1).
			WithMacroFile(filepath.Join(dir, "absent.mac")).
			Build()
		Expect(err).To(HaveOccurred())
	})

	It("should run every event and record one summary row each", func() {
		s, err := freshBuilder("serial", 3).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run()).To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		reader := datarecording.NewReader(s.OutputFile())
		defer reader.Close()
		reader.MapTable(output.TableOptical, tally.EventRecord{})

		rows, total, err := reader.Query(context.Background(),
			output.TableOptical, datarecording.QueryParams{OrderBy: "EventID"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))

		for i, row := range rows {
			rec := row.(*tally.EventRecord)
			Expect(rec.EventID).To(Equal(i))
			Expect(rec.WorkerID).To(Equal(0))
			Expect(rec.IncidentE).To(BeNumerically("~", 5.5, 1e-9))
			Expect(rec.DepositZnS).To(BeNumerically("~", 5500, 1e-6))
			Expect(rec.GeneratedTotal).To(BeZero())
		}
	})

	It("should merge per-worker databases into one file", func() {
		s, err := freshBuilder("merged", 4).WithMultithreading(2).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run()).To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		_, err = os.Stat(s.OutputFile())
		Expect(err).NotTo(HaveOccurred())

		for w := 0; w < 2; w++ {
			intermediate := fmt.Sprintf("%s_%d.sqlite3",
				filepath.Join(dir, "merged"), w)
			_, err := os.Stat(intermediate)
			Expect(os.IsNotExist(err)).To(BeTrue())
		}

		reader := datarecording.NewReader(s.OutputFile())
		defer reader.Close()
		reader.MapTable(output.TableOptical, tally.EventRecord{})

		rows, total, err := reader.Query(context.Background(),
			output.TableOptical, datarecording.QueryParams{OrderBy: "EventID"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(4))

		for i, row := range rows {
			rec := row.(*tally.EventRecord)
			Expect(rec.EventID).To(Equal(i))
			Expect(rec.WorkerID).To(Equal(i % 2))
		}
	})

	It("should record finished tracks when tracing is on", func() {
		s, err := freshBuilder("traced", 1).WithTracing().Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run()).To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		reader := datarecording.NewReader(s.OutputFile())
		defer reader.Close()
		reader.MapTable("track_trace", tracing.TrackTrace{})

		rows, total, err := reader.Query(context.Background(),
			"track_trace", datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))

		trace := rows[0].(*tracing.TrackTrace)
		Expect(trace.TrackID).To(Equal(1))
		Expect(trace.Particle).To(Equal(tracking.ParticleAlpha))
		Expect(trace.Fate).To(Equal(tracking.ProcTransportation))
		Expect(trace.TrackLengthMM).To(BeNumerically(">", 10))
	})

	It("should stamp run metadata into the database", func() {
		s, err := freshBuilder("stamped", 2).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run()).To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		reader := datarecording.NewReader(s.OutputFile())
		defer reader.Close()
		reader.MapTable("exec_info", datarecording.ExecInfo{})

		rows, total, err := reader.Query(context.Background(), "exec_info",
			datarecording.QueryParams{
				Where: "Property = ?",
				Args:  []any{"Events"},
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))
		Expect(rows[0].(*datarecording.ExecInfo).Value).To(Equal("2"))
	})

	It("should refuse two workers with the same name", func() {
		s := &Simulation{workerNameIndex: make(map[string]int)}
		s.registerWorker(&runner.Worker{ID: 3})

		Expect(func() {
			s.registerWorker(&runner.Worker{ID: 3})
		}).To(Panic())
	})
})
