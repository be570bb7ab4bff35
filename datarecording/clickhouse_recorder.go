package datarecording

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/tebeka/atexit"
)

// FastClickHouseRecorder is a high-performance ClickHouse data recorder. It
// avoids reflection on the hot path by keeping a typed batch per table for
// exactly the record shapes this simulator produces.
type FastClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	tables map[string]*clickhouseTable

	entryCount int
}

type tableType int

const (
	tableTypeExecInfo tableType = iota
	tableTypeEvent
	tableTypePhotonHit
	tableTypePhotonBirth
	tableTypeInput
	tableTypeDetector
	tableTypeTrackTrace
)

// clickhouseTable buffers rows for one table. Only the slice matching the
// table's type is ever used.
type clickhouseTable struct {
	kind tableType

	execInfos []ExecInfo
	events    []eventEntryDB
	hits      []photonHitEntryDB
	births    []photonBirthEntryDB
	inputs    []inputEntryDB
	detectors []detectorEntryDB
	traces    []trackTraceEntryDB
}

// Internal row types mirroring the simulator's record structs.
type eventEntryDB struct {
	EventID  int64
	WorkerID int64

	IncidentE    float64
	DepositTotal float64
	DepositZnS   float64
	DepositSc    float64

	GeneratedTotal int64
	GeneratedZnS   int64
	GeneratedSc    int64

	ScintillationZnS int64
	ScintillationSc  int64
	CerenkovZnS      int64
	CerenkovSc       int64

	BulkAbsTotal int64
	BulkAbsZnS   int64
	BulkAbsSc    int64

	Absorbed int64
	Escaped  int64
	Failed   int64
	Killed   int64
	Detected int64

	FracAbsorbed  float64
	FracBulkTotal float64
	FracBulkZnS   float64
	FracBulkSc    float64
	FracEscaped   float64
	FracFailed    float64
	FracKilled    float64
}

type photonHitEntryDB struct {
	EventID  int64
	WorkerID int64

	X float64
	Y float64
	Z float64

	BirthWavelength         float64
	DetectedBirthWavelength float64
	TimeNS                  float64
	TotalLengthMM           float64
	AngleDetectionDeg       float64
}

type photonBirthEntryDB struct {
	EventID  int64
	WorkerID int64

	AngleCreationDeg  float64
	BirthWavelengthNM float64
}

type inputEntryDB struct {
	EventID  int64
	WorkerID int64

	X  float64
	Xp float64
	Y  float64
	Yp float64
	Z  float64
	Zp float64

	Energy float64
}

type detectorEntryDB struct {
	EventID  int64
	WorkerID int64

	XEntrance float64
	YEntrance float64
	ZEntrance float64

	ParentID   int64
	ParticleID int64

	Energy               float64
	DepositedEnergy      float64
	DepositedEnergyEvent float64
}

type trackTraceEntryDB struct {
	TrackID  int64
	ParentID int64

	Particle       string
	CreatorProcess string
	BirthVolume    string
	Fate           string

	WavelengthNM  float64
	StartTimeNS   float64
	EndTimeNS     float64
	TrackLengthMM float64
}

// ClickHouseEnvConfigured reports whether the environment names a
// ClickHouse server to record into.
func ClickHouseEnvConfigured() bool {
	return os.Getenv("PHOSWICH_CLICKHOUSE_HOST") != ""
}

// NewClickHouseRecorderFromEnv builds a recorder from the
// PHOSWICH_CLICKHOUSE_{HOST,PORT,DB,USER,PASSWORD} variables. Port
// defaults to 9000, database to "default".
func NewClickHouseRecorderFromEnv() DataRecorder {
	host := os.Getenv("PHOSWICH_CLICKHOUSE_HOST")
	if host == "" {
		panic("PHOSWICH_CLICKHOUSE_HOST is not set")
	}

	port := 9000
	if p := os.Getenv("PHOSWICH_CLICKHOUSE_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			panic(fmt.Errorf("bad PHOSWICH_CLICKHOUSE_PORT: %w", err))
		}
		port = parsed
	}

	database := os.Getenv("PHOSWICH_CLICKHOUSE_DB")
	if database == "" {
		database = "default"
	}

	return NewFastClickHouseRecorder(
		host, port, database,
		os.Getenv("PHOSWICH_CLICKHOUSE_USER"),
		os.Getenv("PHOSWICH_CLICKHOUSE_PASSWORD"),
		0,
	)
}

// NewFastClickHouseRecorder creates a new high-performance ClickHouse
// recorder. A batchSize of 0 selects the default of 100000.
func NewFastClickHouseRecorder(
	host string, port int,
	database string, username string, password string,
	batchSize int,
) DataRecorder {
	if batchSize == 0 {
		batchSize = 100000
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      time.Second * 30,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		BlockBufferSize:  10,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect to ClickHouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("failed to ping ClickHouse: %w", err))
	}

	recorder := &FastClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*clickhouseTable),
	}

	atexit.Register(func() {
		recorder.Flush()
	})

	return recorder
}

// CreateTable creates a table with a MergeTree schema matching the sample
// entry's record type.
func (r *FastClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var createSQL string
	var tType tableType

	switch sampleEntry.(type) {
	case ExecInfo:
		tType = tableTypeExecInfo
		createSQL = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				Property String,
				Value String
			) ENGINE = MergeTree()
			ORDER BY Property
		`, tableName)

	default:
		createSQL, tType = r.detectTableTypeAndCreateSQL(tableName, sampleEntry)
	}

	err := r.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &clickhouseTable{kind: tType}
}

// detectTableTypeAndCreateSQL matches external record types by name so the
// recorder never has to import the packages that define them.
func (r *FastClickHouseRecorder) detectTableTypeAndCreateSQL(
	tableName string, sample any,
) (string, tableType) {
	sampleStr := fmt.Sprintf("%T", sample)

	if strings.Contains(sampleStr, "EventRecord") {
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				EventID Int64,
				WorkerID Int64,
				IncidentE Float64,
				DepositTotal Float64,
				DepositZnS Float64,
				DepositSc Float64,
				GeneratedTotal Int64,
				GeneratedZnS Int64,
				GeneratedSc Int64,
				ScintillationZnS Int64,
				ScintillationSc Int64,
				CerenkovZnS Int64,
				CerenkovSc Int64,
				BulkAbsTotal Int64,
				BulkAbsZnS Int64,
				BulkAbsSc Int64,
				Absorbed Int64,
				Escaped Int64,
				Failed Int64,
				Killed Int64,
				Detected Int64,
				FracAbsorbed Float64,
				FracBulkTotal Float64,
				FracBulkZnS Float64,
				FracBulkSc Float64,
				FracEscaped Float64,
				FracFailed Float64,
				FracKilled Float64
			) ENGINE = MergeTree()
			ORDER BY (WorkerID, EventID)
		`, tableName), tableTypeEvent
	}

	if strings.Contains(sampleStr, "PhotonHit") {
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				EventID Int64,
				WorkerID Int64,
				X Float64,
				Y Float64,
				Z Float64,
				BirthWavelength Float64,
				DetectedBirthWavelength Float64,
				TimeNS Float64,
				TotalLengthMM Float64,
				AngleDetectionDeg Float64
			) ENGINE = MergeTree()
			ORDER BY (WorkerID, EventID)
		`, tableName), tableTypePhotonHit
	}

	if strings.Contains(sampleStr, "PhotonBirth") {
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				EventID Int64,
				WorkerID Int64,
				AngleCreationDeg Float64,
				BirthWavelengthNM Float64
			) ENGINE = MergeTree()
			ORDER BY (WorkerID, EventID)
		`, tableName), tableTypePhotonBirth
	}

	if strings.Contains(sampleStr, "InputRecord") {
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				EventID Int64,
				WorkerID Int64,
				X Float64,
				Xp Float64,
				Y Float64,
				Yp Float64,
				Z Float64,
				Zp Float64,
				Energy Float64
			) ENGINE = MergeTree()
			ORDER BY (WorkerID, EventID)
		`, tableName), tableTypeInput
	}

	if strings.Contains(sampleStr, "DetectorRecord") {
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				EventID Int64,
				WorkerID Int64,
				XEntrance Float64,
				YEntrance Float64,
				ZEntrance Float64,
				ParentID Int64,
				ParticleID Int64,
				Energy Float64,
				DepositedEnergy Float64,
				DepositedEnergyEvent Float64
			) ENGINE = MergeTree()
			ORDER BY (WorkerID, EventID)
		`, tableName), tableTypeDetector
	}

	if strings.Contains(sampleStr, "TrackTrace") {
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				TrackID Int64,
				ParentID Int64,
				Particle String,
				CreatorProcess String,
				BirthVolume String,
				Fate String,
				WavelengthNM Float64,
				StartTimeNS Float64,
				EndTimeNS Float64,
				TrackLengthMM Float64
			) ENGINE = MergeTree()
			ORDER BY (TrackID, StartTimeNS)
		`, tableName), tableTypeTrackTrace
	}

	panic(fmt.Sprintf("unknown table type: %T", sample))
}

// InsertData buffers one entry into the table's typed batch.
func (r *FastClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()

	table, exists := r.tables[tableName]
	if !exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	switch table.kind {
	case tableTypeExecInfo:
		e, ok := entry.(ExecInfo)
		if !ok {
			r.mu.Unlock()
			panic(fmt.Sprintf("invalid entry type for exec info: %T", entry))
		}
		table.execInfos = append(table.execInfos, e)

	case tableTypeEvent:
		table.events = append(table.events, convertToEventEntry(entry))

	case tableTypePhotonHit:
		table.hits = append(table.hits, convertToPhotonHitEntry(entry))

	case tableTypePhotonBirth:
		table.births = append(table.births, convertToPhotonBirthEntry(entry))

	case tableTypeInput:
		table.inputs = append(table.inputs, convertToInputEntry(entry))

	case tableTypeDetector:
		table.detectors = append(table.detectors, convertToDetectorEntry(entry))

	case tableTypeTrackTrace:
		table.traces = append(table.traces, convertToTrackTraceEntry(entry))

	default:
		r.mu.Unlock()
		panic(fmt.Sprintf("unknown table type: %d", table.kind))
	}

	r.entryCount++

	if r.entryCount >= r.batchSize {
		r.mu.Unlock()
		r.Flush()
		return
	}

	r.mu.Unlock()
}

func convertToEventEntry(entry any) eventEntryDB {
	if e, ok := entry.(eventEntryDB); ok {
		return e
	}
	return extractEventEntry(entry)
}

func convertToPhotonHitEntry(entry any) photonHitEntryDB {
	if e, ok := entry.(photonHitEntryDB); ok {
		return e
	}
	return extractPhotonHitEntry(entry)
}

func convertToPhotonBirthEntry(entry any) photonBirthEntryDB {
	if e, ok := entry.(photonBirthEntryDB); ok {
		return e
	}
	return extractPhotonBirthEntry(entry)
}

func convertToInputEntry(entry any) inputEntryDB {
	if e, ok := entry.(inputEntryDB); ok {
		return e
	}
	return extractInputEntry(entry)
}

func convertToDetectorEntry(entry any) detectorEntryDB {
	if e, ok := entry.(detectorEntryDB); ok {
		return e
	}
	return extractDetectorEntry(entry)
}

func convertToTrackTraceEntry(entry any) trackTraceEntryDB {
	if e, ok := entry.(trackTraceEntryDB); ok {
		return e
	}
	return extractTrackTraceEntry(entry)
}

// ListTables returns all table names
func (r *FastClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}
	return tables
}

// Flush writes all batched data to ClickHouse using bulk inserts
func (r *FastClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, table := range r.tables {
		switch table.kind {
		case tableTypeExecInfo:
			if len(table.execInfos) > 0 {
				r.flushExecInfo(ctx, tableName, table)
			}
		case tableTypeEvent:
			if len(table.events) > 0 {
				r.flushEvents(ctx, tableName, table)
			}
		case tableTypePhotonHit:
			if len(table.hits) > 0 {
				r.flushPhotonHits(ctx, tableName, table)
			}
		case tableTypePhotonBirth:
			if len(table.births) > 0 {
				r.flushPhotonBirths(ctx, tableName, table)
			}
		case tableTypeInput:
			if len(table.inputs) > 0 {
				r.flushInputs(ctx, tableName, table)
			}
		case tableTypeDetector:
			if len(table.detectors) > 0 {
				r.flushDetectors(ctx, tableName, table)
			}
		case tableTypeTrackTrace:
			if len(table.traces) > 0 {
				r.flushTrackTraces(ctx, tableName, table)
			}
		}
	}

	r.entryCount = 0
}

func (r *FastClickHouseRecorder) prepareBatch(
	ctx context.Context, tableName string,
) driver.Batch {
	batch, err := r.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", tableName))
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}
	return batch
}

func mustAppend(err error) {
	if err != nil {
		panic(fmt.Errorf("failed to append to batch: %w", err))
	}
}

func mustSend(err error) {
	if err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}
}

func (r *FastClickHouseRecorder) flushExecInfo(
	ctx context.Context, tableName string, table *clickhouseTable,
) {
	batch := r.prepareBatch(ctx, tableName)

	for _, entry := range table.execInfos {
		mustAppend(batch.Append(entry.Property, entry.Value))
	}

	mustSend(batch.Send())
	table.execInfos = table.execInfos[:0]
}

func (r *FastClickHouseRecorder) flushEvents(
	ctx context.Context, tableName string, table *clickhouseTable,
) {
	batch := r.prepareBatch(ctx, tableName)

	for _, e := range table.events {
		mustAppend(batch.Append(
			e.EventID,
			e.WorkerID,
			e.IncidentE,
			e.DepositTotal,
			e.DepositZnS,
			e.DepositSc,
			e.GeneratedTotal,
			e.GeneratedZnS,
			e.GeneratedSc,
			e.ScintillationZnS,
			e.ScintillationSc,
			e.CerenkovZnS,
			e.CerenkovSc,
			e.BulkAbsTotal,
			e.BulkAbsZnS,
			e.BulkAbsSc,
			e.Absorbed,
			e.Escaped,
			e.Failed,
			e.Killed,
			e.Detected,
			e.FracAbsorbed,
			e.FracBulkTotal,
			e.FracBulkZnS,
			e.FracBulkSc,
			e.FracEscaped,
			e.FracFailed,
			e.FracKilled,
		))
	}

	mustSend(batch.Send())
	table.events = table.events[:0]
}

func (r *FastClickHouseRecorder) flushPhotonHits(
	ctx context.Context, tableName string, table *clickhouseTable,
) {
	batch := r.prepareBatch(ctx, tableName)

	for _, e := range table.hits {
		mustAppend(batch.Append(
			e.EventID,
			e.WorkerID,
			e.X,
			e.Y,
			e.Z,
			e.BirthWavelength,
			e.DetectedBirthWavelength,
			e.TimeNS,
			e.TotalLengthMM,
			e.AngleDetectionDeg,
		))
	}

	mustSend(batch.Send())
	table.hits = table.hits[:0]
}

func (r *FastClickHouseRecorder) flushPhotonBirths(
	ctx context.Context, tableName string, table *clickhouseTable,
) {
	batch := r.prepareBatch(ctx, tableName)

	for _, e := range table.births {
		mustAppend(batch.Append(
			e.EventID,
			e.WorkerID,
			e.AngleCreationDeg,
			e.BirthWavelengthNM,
		))
	}

	mustSend(batch.Send())
	table.births = table.births[:0]
}

func (r *FastClickHouseRecorder) flushInputs(
	ctx context.Context, tableName string, table *clickhouseTable,
) {
	batch := r.prepareBatch(ctx, tableName)

	for _, e := range table.inputs {
		mustAppend(batch.Append(
			e.EventID,
			e.WorkerID,
			e.X,
			e.Xp,
			e.Y,
			e.Yp,
			e.Z,
			e.Zp,
			e.Energy,
		))
	}

	mustSend(batch.Send())
	table.inputs = table.inputs[:0]
}

func (r *FastClickHouseRecorder) flushDetectors(
	ctx context.Context, tableName string, table *clickhouseTable,
) {
	batch := r.prepareBatch(ctx, tableName)

	for _, e := range table.detectors {
		mustAppend(batch.Append(
			e.EventID,
			e.WorkerID,
			e.XEntrance,
			e.YEntrance,
			e.ZEntrance,
			e.ParentID,
			e.ParticleID,
			e.Energy,
			e.DepositedEnergy,
			e.DepositedEnergyEvent,
		))
	}

	mustSend(batch.Send())
	table.detectors = table.detectors[:0]
}

func (r *FastClickHouseRecorder) flushTrackTraces(
	ctx context.Context, tableName string, table *clickhouseTable,
) {
	batch := r.prepareBatch(ctx, tableName)

	for _, e := range table.traces {
		mustAppend(batch.Append(
			e.TrackID,
			e.ParentID,
			e.Particle,
			e.CreatorProcess,
			e.BirthVolume,
			e.Fate,
			e.WavelengthNM,
			e.StartTimeNS,
			e.EndTimeNS,
			e.TrackLengthMM,
		))
	}

	mustSend(batch.Send())
	table.traces = table.traces[:0]
}

// Close flushes remaining data and closes the connection
func (r *FastClickHouseRecorder) Close() error {
	r.Flush()

	err := r.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}
