package tally

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/phoswich/geometry"
	"github.com/sarchlab/phoswich/sim"
	"github.com/sarchlab/phoswich/tracking"
	"github.com/sarchlab/phoswich/transport"
)

// A Classifier is the step hook that feeds one EventTally. It registers on
// a transport.Stepper and routes every completed step: the primary's first
// step becomes the input record, charged steps in the scintillating layers
// drive episode accounting, and optical photon steps are classified into
// terminal fates.
type Classifier struct {
	tally  *EventTally
	config *transport.Config
	out    io.Writer
}

// NewClassifier builds a classifier over the given tally and worker config.
func NewClassifier(tally *EventTally, config *transport.Config) *Classifier {
	if tally == nil {
		panic("classifier requires a tally")
	}
	if config == nil {
		panic("classifier requires a config")
	}

	return &Classifier{
		tally:  tally,
		config: config,
		out:    os.Stderr,
	}
}

// Func dispatches transport hook invocations. It re-arms the tally at event
// begin and classifies every completed step.
func (c *Classifier) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case transport.HookPosEventBegin:
		c.tally.BeginEvent()
	case transport.HookPosStepPost:
		info := ctx.Item.(transport.StepInfo)
		c.OnAnyStep(info.Step, info.Track)
	}
}

// OnAnyStep handles one completed step of any particle. Any track whose
// post-step volume is the world is stopped; nothing outside the detector
// assembly is worth following.
func (c *Classifier) OnAnyStep(step *tracking.Step, trk *tracking.Track) {
	if trk.ParentID == 0 && step.IsFirst(trk) {
		pre := step.PreStepPoint
		c.tally.SetInput(
			pre.Position.X, pre.Direction.X,
			pre.Position.Y, pre.Direction.Y,
			pre.Position.Z, pre.Direction.Z,
			pre.EnergyEV)
	}

	if trk.IsOpticalPhoton() {
		c.OnStep(step, trk)
	} else {
		c.recordCrossing(step, trk)
	}

	if step.PostStepPoint.VolumeName == geometry.VolWorld {
		trk.Status = tracking.TrackStopAndKill
	}
}

// OnStep classifies one optical photon step. With photon tracking off the
// photon is counted as killed and stopped before any other bookkeeping,
// its birth included. Otherwise a terminal classification increments
// exactly one fate counter and stops the track, detections append to the
// hit sequence, and the photon's first step records its birth.
func (c *Classifier) OnStep(step *tracking.Step, trk *tracking.Track) {
	if !c.config.PhotonTracking {
		c.tally.Count(ClassKilled)
		trk.Status = tracking.TrackStopAndKill
		return
	}

	class := ClassifyBoundary(trk, step.Boundary,
		step.PreStepPoint.VolumeName, step.PostStepPoint.VolumeName)

	if class.Terminal() {
		c.tally.Count(class)
		trk.Status = tracking.TrackStopAndKill

		if c.config.Verbosity > 1 {
			fmt.Fprintf(c.out, "Photon %v\n", class)
		}
	}

	if class == ClassDetected {
		post := step.PostStepPoint
		c.tally.RecordDetection(
			post.Position,
			trk.WavelengthNM(),
			post.GlobalTimeNS,
			trk.TrackLengthMM,
			tracking.StepAngleDeg(step.PreStepPoint.Position, post.Position))
	}

	if step.IsFirst(trk) {
		angle := tracking.StepAngleDeg(
			step.PreStepPoint.Position, step.PostStepPoint.Position)
		c.tally.RecordBirth(angle, trk.WavelengthNM())

		switch trk.CreatorProcess {
		case tracking.ProcScintillation:
			c.tally.CountScintillation(step.PreStepPoint.VolumeName)
		case tracking.ProcCerenkov:
			c.tally.CountCerenkov(step.PreStepPoint.VolumeName)
		}

		if c.config.Verbosity > 0 {
			fmt.Fprintf(c.out, "Birth wavelength = %v nm, creation angle = %v deg\n",
				trk.WavelengthNM(), angle)
		}
	}
}

func (c *Classifier) recordCrossing(step *tracking.Step, trk *tracking.Track) {
	vol := step.PreStepPoint.VolumeName
	if vol != geometry.VolZnS && vol != geometry.VolScintillator {
		return
	}

	c.tally.RecordChargedParticleCrossing(
		vol,
		step.PreStepPoint.Position,
		trk.ParentID,
		tracking.PDGCode(trk.Particle),
		step.PreStepPoint.EnergyEV,
		step.DepositedEnergyEV,
		step.PostStepPoint.VolumeName,
		step.PostStepPoint.EnergyEV)
}
