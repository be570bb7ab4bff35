package tally

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/phoswich/geometry"
	"github.com/sarchlab/phoswich/tracking"
)

// A DetectorTally accumulates the charged-particle episodes of one
// scintillating layer within one event. An episode opens at the first
// crossing step, collects step deposits, and closes when the particle
// leaves toward the holder or runs out of energy. Re-entry opens a fresh
// episode.
type DetectorTally struct {
	open   DetectorRecord
	active bool

	episodeKeV float64
	eventKeV   float64

	closed []DetectorRecord
}

func (d *DetectorTally) record(
	entry tracking.Vector3,
	parentID, particleID int,
	entryEnergyEV, stepDepositEV float64,
	closeEpisode bool,
) {
	if !d.active {
		d.open = DetectorRecord{
			XEntrance:  entry.X,
			YEntrance:  entry.Y,
			ZEntrance:  entry.Z,
			ParentID:   parentID,
			ParticleID: particleID,
			Energy:     entryEnergyEV / tracking.MEV,
		}
		d.active = true
	}

	keV := stepDepositEV / tracking.KEV
	d.episodeKeV += keV
	d.eventKeV += keV

	if closeEpisode {
		rec := d.open
		rec.DepositedEnergy = d.episodeKeV
		d.closed = append(d.closed, rec)
		d.episodeKeV = 0
		d.active = false
	}
}

// Records returns one row per closed episode, with the event-level deposit
// stamped on each. An episode still open when the event ends produces no
// row; its deposit only shows in the event total.
func (d *DetectorTally) Records() []DetectorRecord {
	out := make([]DetectorRecord, len(d.closed))
	for i, rec := range d.closed {
		rec.DepositedEnergyEvent = d.eventKeV
		out[i] = rec
	}
	return out
}

// EventDepositKeV returns the layer's total deposit over the whole event,
// open episodes included.
func (d *DetectorTally) EventDepositKeV() float64 {
	return d.eventKeV
}

// An EventTally owns every per-event statistic: the primary's input record,
// one DetectorTally per scintillating layer, the optical fate counters, and
// the per-photon sequences. It is valid between BeginEvent and
// FinalizeEvent; FinalizeEvent freezes it into an EventRecord.
//
// An EventTally is not safe for concurrent use. Each worker owns one.
type EventTally struct {
	input    InputRecord
	hasInput bool

	zns          DetectorTally
	scintillator DetectorTally

	scintillationZnS int
	scintillationSc  int
	cerenkovZnS      int
	cerenkovSc       int

	bulkAbsZnS int
	bulkAbsSc  int
	absorbed   int
	escaped    int
	failed     int
	killed     int
	detected   int

	hits   []PhotonHit
	births []PhotonBirth

	finalized bool
	record    EventRecord

	warnOut io.Writer
}

// NewEventTally returns an empty tally that logs degraded-event warnings to
// stderr.
func NewEventTally() *EventTally {
	return &EventTally{warnOut: os.Stderr}
}

// BeginEvent discards all accumulated state and re-arms the tally for the
// next event.
func (t *EventTally) BeginEvent() {
	*t = EventTally{warnOut: t.warnOut}
}

// SetInput records the primary particle's first-step state. Directions are
// unit cosines; the energy argument is in eV and stored in MeV.
func (t *EventTally) SetInput(x, xp, y, yp, z, zp, energyEV float64) {
	t.input = InputRecord{
		X: x, Xp: xp,
		Y: y, Yp: yp,
		Z: z, Zp: zp,
		Energy: energyEV / tracking.MEV,
	}
	t.hasInput = true
}

// Input returns the primary's input record and whether one was set this
// event.
func (t *EventTally) Input() (InputRecord, bool) {
	return t.input, t.hasInput
}

// ZnS returns the ZnS layer's episode tally.
func (t *EventTally) ZnS() *DetectorTally {
	return &t.zns
}

// Scintillator returns the plastic scintillator layer's episode tally.
func (t *EventTally) Scintillator() *DetectorTally {
	return &t.scintillator
}

// PhotonHits returns the detected-photon sequence accumulated so far.
func (t *EventTally) PhotonHits() []PhotonHit {
	return t.hits
}

// PhotonBirths returns the created-photon sequence accumulated so far.
func (t *EventTally) PhotonBirths() []PhotonBirth {
	return t.births
}

// RecordChargedParticleCrossing folds one charged-particle step inside a
// scintillating layer into that layer's episode accounting. The episode
// closes when the particle's next volume is the holder or its remaining
// energy is zero. Volumes other than the two layers are ignored.
func (t *EventTally) RecordChargedParticleCrossing(
	volume string,
	entry tracking.Vector3,
	parentID, particleID int,
	entryEnergyEV, stepDepositEV float64,
	postVolume string,
	postEnergyEV float64,
) {
	layer := t.layer(volume)
	if layer == nil {
		return
	}

	closeEpisode := postVolume == geometry.VolHolder || postEnergyEV == 0
	layer.record(entry, parentID, particleID,
		entryEnergyEV, stepDepositEV, closeEpisode)
}

// Count increments the terminal fate counter selected by class.
// ClassContinue counts nothing.
func (t *EventTally) Count(class Classification) {
	switch class {
	case ClassDetected:
		t.detected++
	case ClassSurfaceAbsorbed:
		t.absorbed++
	case ClassBulkAbsorbedZnS:
		t.bulkAbsZnS++
	case ClassBulkAbsorbedScintillator:
		t.bulkAbsSc++
	case ClassTransmitted:
		t.failed++
	case ClassEscaped:
		t.escaped++
	case ClassKilled:
		t.killed++
	}
}

// CountScintillation attributes one scintillation photon to the layer it
// was born in. Births outside the two layers count nothing.
func (t *EventTally) CountScintillation(volume string) {
	switch volume {
	case geometry.VolZnS:
		t.scintillationZnS++
	case geometry.VolScintillator:
		t.scintillationSc++
	}
}

// CountCerenkov attributes one Cerenkov photon to the layer it was born in.
func (t *EventTally) CountCerenkov(volume string) {
	switch volume {
	case geometry.VolZnS:
		t.cerenkovZnS++
	case geometry.VolScintillator:
		t.cerenkovSc++
	}
}

// RecordDetection appends one detected photon to the hit sequence. The
// position is the photocathode entry point, the wavelength doubles as the
// birth wavelength because optical photons never change energy in flight.
func (t *EventTally) RecordDetection(
	pos tracking.Vector3,
	wavelengthNM, timeNS, lengthMM, angleDeg float64,
) {
	t.hits = append(t.hits, PhotonHit{
		X: pos.X, Y: pos.Y, Z: pos.Z,
		BirthWavelength:         wavelengthNM,
		DetectedBirthWavelength: wavelengthNM,
		TimeNS:                  timeNS,
		TotalLengthMM:           lengthMM,
		AngleDetectionDeg:       angleDeg,
	})
}

// RecordBirth appends one created photon to the birth sequence.
func (t *EventTally) RecordBirth(angleCreationDeg, wavelengthNM float64) {
	t.births = append(t.births, PhotonBirth{
		AngleCreationDeg:  angleCreationDeg,
		BirthWavelengthNM: wavelengthNM,
	})
}

// FinalizeEvent derives the event summary from the raw counters and caches
// it. Later calls return the cached record unchanged, so finalizing is
// idempotent. When the event generated no photons every fraction reads 0
// and one warning line is logged.
func (t *EventTally) FinalizeEvent() EventRecord {
	if t.finalized {
		return t.record
	}

	rec := EventRecord{
		IncidentE:    t.input.Energy,
		DepositZnS:   t.zns.eventKeV,
		DepositSc:    t.scintillator.eventKeV,
		DepositTotal: t.zns.eventKeV + t.scintillator.eventKeV,

		ScintillationZnS: t.scintillationZnS,
		ScintillationSc:  t.scintillationSc,
		CerenkovZnS:      t.cerenkovZnS,
		CerenkovSc:       t.cerenkovSc,

		GeneratedZnS: t.scintillationZnS + t.cerenkovZnS,
		GeneratedSc:  t.scintillationSc + t.cerenkovSc,

		BulkAbsZnS:   t.bulkAbsZnS,
		BulkAbsSc:    t.bulkAbsSc,
		BulkAbsTotal: t.bulkAbsZnS + t.bulkAbsSc,

		Absorbed: t.absorbed,
		Escaped:  t.escaped,
		Failed:   t.failed,
		Killed:   t.killed,
		Detected: t.detected,
	}
	rec.GeneratedTotal = rec.GeneratedZnS + rec.GeneratedSc

	if rec.GeneratedTotal == 0 {
		t.warn("Warning: no optical photons generated in event, " +
			"fractions reported as 0\n")
	} else {
		total := float64(rec.GeneratedTotal)
		rec.FracAbsorbed = 100 * float64(rec.Absorbed) / total
		rec.FracBulkZnS = 100 * float64(rec.BulkAbsZnS) / total
		rec.FracBulkSc = 100 * float64(rec.BulkAbsSc) / total
		rec.FracBulkTotal = rec.FracBulkZnS + rec.FracBulkSc
		rec.FracEscaped = 100 * float64(rec.Escaped) / total
		rec.FracFailed = 100 * float64(rec.Failed) / total
		rec.FracKilled = 100 * float64(rec.Killed) / total
	}

	t.record = rec
	t.finalized = true
	return rec
}

// Report writes the per-event summary block, finalizing the tally first if
// nothing did so yet.
func (t *EventTally) Report(w io.Writer, runID, eventID int) {
	rec := t.FinalizeEvent()

	fmt.Fprintf(w, "\n\nRun %v >>> Event %v\n", runID, eventID)
	fmt.Fprintf(w, "Incident Energy :                    %v keV \n",
		rec.IncidentE*1000)
	fmt.Fprintf(w, "Energy Deposited TOTAL :             %v keV \n",
		rec.DepositTotal)
	fmt.Fprintf(w, "     Energy Deposited ZnS :          %v keV \n",
		rec.DepositZnS)
	fmt.Fprintf(w, "     Energy Deposited Sc :           %v keV \n",
		rec.DepositSc)
	fmt.Fprintf(w, "Photons Generated TOTAL :            %v\n",
		rec.GeneratedTotal)
	fmt.Fprintf(w, "     Photons Generated Zns :         %v\n",
		rec.GeneratedZnS)
	fmt.Fprintf(w, "         Scintillation :             %v\n",
		rec.ScintillationZnS)
	fmt.Fprintf(w, "         Cerenkov :                  %v\n",
		rec.CerenkovZnS)
	fmt.Fprintf(w, "     Photons Generated Sc :          %v\n",
		rec.GeneratedSc)
	fmt.Fprintf(w, "         Scintillation :             %v\n",
		rec.ScintillationSc)
	fmt.Fprintf(w, "         Cerenkov :                  %v\n",
		rec.CerenkovSc)

	fmt.Fprintf(w, "\nPhotons Surface Absorbed :           %v        %v %% \n",
		rec.Absorbed, rec.FracAbsorbed)
	fmt.Fprintf(w, "Photons Bulk Absorbed Total :        %v        %v %% \n",
		rec.BulkAbsTotal, rec.FracBulkTotal)
	fmt.Fprintf(w, "     Photons Bulk Absorbed ZnS :     %v        %v %% \n",
		rec.BulkAbsZnS, rec.FracBulkZnS)
	fmt.Fprintf(w, "     Photons Bulk Absorbed Sc :      %v        %v %% \n",
		rec.BulkAbsSc, rec.FracBulkSc)
	fmt.Fprintf(w, "Photons Escaped:                     %v        %v %% \n",
		rec.Escaped, rec.FracEscaped)
	fmt.Fprintf(w, "Photons Transmitted to PMT:          %v        %v %% \n",
		rec.Failed, rec.FracFailed)
	fmt.Fprintf(w, "Photons Collected in PMT (QE):       %v\n", rec.Detected)
	fmt.Fprintf(w, "Photons Killed by user:              %v\n", rec.Killed)
	fmt.Fprintf(w, "Total Photons Considered:            %v\n",
		rec.Absorbed+rec.BulkAbsTotal+rec.Escaped+
			rec.Failed+rec.Detected+rec.Killed)
	fmt.Fprintln(w)
}

func (t *EventTally) layer(volume string) *DetectorTally {
	switch volume {
	case geometry.VolZnS:
		return &t.zns
	case geometry.VolScintillator:
		return &t.scintillator
	}
	return nil
}

func (t *EventTally) warn(format string, args ...any) {
	w := t.warnOut
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format, args...)
}
