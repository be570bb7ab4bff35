// Package simulation assembles complete runs: material table, detector,
// engine, one pipeline per worker, output recording and monitoring.
package simulation

import (
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/xid"

	"github.com/sarchlab/phoswich/datarecording"
	"github.com/sarchlab/phoswich/geometry"
	"github.com/sarchlab/phoswich/macro"
	"github.com/sarchlab/phoswich/materials"
	"github.com/sarchlab/phoswich/monitoring"
	"github.com/sarchlab/phoswich/output"
	"github.com/sarchlab/phoswich/runner"
	"github.com/sarchlab/phoswich/sim"
	"github.com/sarchlab/phoswich/source"
	"github.com/sarchlab/phoswich/tally"
	"github.com/sarchlab/phoswich/tracing"
	"github.com/sarchlab/phoswich/transport"
)

// dataDirEnv overrides where the optical property files are read from.
const dataDirEnv = "PHOSWICH_DATA_DIR"

// defaultDataDir is used when neither the builder nor the environment
// names a property-file directory.
const defaultDataDir = "data"

// Builder can be used to build a simulation.
type Builder struct {
	events         int
	macroPath      string
	settings       *macro.Settings
	mt             bool
	workerCount    int
	outputBaseName string
	monitorOn      bool
	monitorPort    int
	progressBarOn  bool
	dataDir        string
	tracingOn      bool
	seed           int64
	seedSet        bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		workerCount:   1,
		monitorOn:     true,
		progressBarOn: true,
	}
}

// WithEventCount sets how many primary events the run simulates.
func (b Builder) WithEventCount(n int) Builder {
	b.events = n
	return b
}

// WithMacroFile sets the batch macro file applied on top of the default
// run settings.
func (b Builder) WithMacroFile(path string) Builder {
	b.macroPath = path
	return b
}

// WithSettings seeds the run settings, replacing the built-in defaults. A
// macro file still applies on top of them.
func (b Builder) WithSettings(s *macro.Settings) Builder {
	b.settings = s
	return b
}

// WithMultithreading sets the simulation to run event rounds on a parallel
// engine with the given worker count, one output file per worker.
func (b Builder) WithMultithreading(workers int) Builder {
	b.mt = true
	b.workerCount = workers
	return b
}

// WithOutputFileBaseName sets the output database base name. Required.
func (b Builder) WithOutputFileBaseName(name string) Builder {
	b.outputBaseName = name
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithoutProgressBar disables the stderr progress display.
func (b Builder) WithoutProgressBar() Builder {
	b.progressBarOn = false
	return b
}

// WithDataDir sets the directory of the optical property files.
func (b Builder) WithDataDir(path string) Builder {
	b.dataDir = path
	return b
}

// WithTracing records every track into the track_trace table.
func (b Builder) WithTracing() Builder {
	b.tracingOn = true
	return b
}

// WithSeed fixes the base random seed. Worker i draws from seed+i, so a
// seeded run replays deterministically at any worker count.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	b.seedSet = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.events <= 0 {
		panic("simulation requires a positive event count")
	}

	if b.outputBaseName == "" {
		panic("simulation requires an output file base name")
	}

	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.workerCount < 1 {
		panic("multithreading requires at least one worker")
	}
}

// Build assembles the simulation and schedules its event plan. A broken
// macro file returns an error; invalid builder parameters panic.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	settings, err := b.runSettings()
	if err != nil {
		return nil, err
	}

	seed := b.seed
	if !b.seedSet {
		seed = time.Now().UnixNano()
	}

	detector := b.buildDetector(settings)

	s := &Simulation{
		id:              xid.New().String(),
		baseName:        b.outputBaseName,
		events:          b.events,
		workerCount:     b.workerCount,
		mt:              b.mt,
		workerNameIndex: make(map[string]int),
	}

	s.engine = sim.NewSerialEngine()
	if b.mt {
		s.engine = sim.NewParallelEngine()
	}

	if datarecording.ClickHouseEnvConfigured() {
		s.sharedRecorder = datarecording.NewClickHouseRecorderFromEnv()
	}

	outputMutex := &sync.Mutex{}
	for id := 0; id < b.workerCount; id++ {
		b.buildWorker(s, id, seed, detector, settings, outputMutex)
	}

	if b.progressBarOn {
		// Worker 0 draws the bar over its own share of the round-robin
		// plan, which tracks the whole run.
		share := (b.events + b.workerCount - 1) / b.workerCount
		s.progress = source.NewProgress(share)
		s.workers[0].Progress = s.progress
	}

	s.exec.Start(b.events, b.workerCount, seed)

	if b.monitorOn {
		b.buildMonitor(s)
	}

	runner.Plan(s.engine, s.workers, b.events)

	return s, nil
}

// runSettings resolves the run settings: built-in defaults, then the seeded
// settings, then the macro file.
func (b Builder) runSettings() (*macro.Settings, error) {
	settings := macro.DefaultSettings()
	if b.settings != nil {
		seeded := *b.settings
		settings = &seeded
	}

	if b.macroPath == "" {
		return settings, nil
	}

	cmds, err := macro.Parse(b.macroPath)
	if err != nil {
		return nil, err
	}

	if err := macro.Apply(cmds, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

func (b Builder) resolveDataDir() string {
	if b.dataDir != "" {
		return b.dataDir
	}

	if dir := os.Getenv(dataDirEnv); dir != "" {
		return dir
	}

	return defaultDataDir
}

func (b Builder) buildDetector(settings *macro.Settings) *geometry.Detector {
	table := materials.LoadTable(b.resolveDataDir())

	builder := geometry.MakeBuilder().WithMaterialTable(table)
	if settings.ScintYieldPerMEV > 0 {
		builder = builder.WithScintillatorYield(settings.ScintYieldPerMEV)
	}
	if settings.ZnSYieldPerMEV > 0 {
		builder = builder.WithZnSYield(settings.ZnSYieldPerMEV)
	}

	return builder.Build()
}

// buildWorker assembles one worker's pipeline: rng, stepper, tally and
// classifier, recorder and writer, and for worker 0 the execution log.
func (b Builder) buildWorker(
	s *Simulation,
	id int,
	seed int64,
	detector *geometry.Detector,
	settings *macro.Settings,
	outputMutex *sync.Mutex,
) {
	rng := rand.New(rand.NewSource(seed + int64(id)))

	cfg := transport.DefaultConfig()
	cfg.RNG = rng
	cfg.PhotonTracking = settings.PhotonTracking
	cfg.Verbosity = settings.Verbosity

	stepper := transport.NewStepper(detector, cfg)

	eventTally := tally.NewEventTally()
	stepper.AcceptHook(tally.NewClassifier(eventTally, cfg))

	recorder := s.sharedRecorder
	if recorder == nil {
		recorder = datarecording.New(
			output.BaseName(b.outputBaseName, id, b.mt))
	}

	if b.tracingOn {
		tracing.CollectTrace(stepper, tracing.NewDBTracer(recorder))
	}

	writer := output.NewWriterWithRecorder(recorder, id, outputMutex)
	s.writers = append(s.writers, writer)

	if id == 0 {
		s.exec = datarecording.NewExecRecorder(recorder)
	}

	gen := source.NewGenerator(rng)
	gen.Particle = settings.Particle
	gen.EnergyEV = settings.EnergyEV
	gen.Position = settings.Position
	gen.Direction = settings.Direction

	s.registerWorker(&runner.Worker{
		ID:         id,
		Generator:  gen,
		Stepper:    stepper,
		Tally:      eventTally,
		Writer:     writer,
		Verbosity:  settings.Verbosity,
		PrintEvery: settings.PrintProgress,
	})
}

func (b Builder) buildMonitor(s *Simulation) {
	s.monitor = monitoring.NewMonitor()
	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	s.monitor.RegisterEngine(s.engine)
	for _, w := range s.workers {
		s.monitor.RegisterWorker(w)
	}

	s.bar = s.monitor.CreateProgressBar("Events completed", uint64(b.events))
	for _, w := range s.workers {
		w.Bar = s.bar
	}

	s.monitor.StartServer()
}
