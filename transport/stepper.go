// Package transport walks particles through the detector geometry. The
// physics is deliberately coarse; the package's real product is the stream
// of step and boundary callbacks that statistics and tracing hooks consume.
package transport

import (
	"math"

	"github.com/sarchlab/phoswich/geometry"
	"github.com/sarchlab/phoswich/materials"
	"github.com/sarchlab/phoswich/sim"
	"github.com/sarchlab/phoswich/tracking"
)

// Hook positions of the stepping loop.
var (
	// HookPosEventBegin triggers before the primary track starts stepping.
	// The hook item is the primary *tracking.Track.
	HookPosEventBegin = &sim.HookPos{Name: "EventBegin"}

	// HookPosStepPost triggers after every completed step. The hook item is
	// a StepInfo.
	HookPosStepPost = &sim.HookPos{Name: "StepPost"}

	// HookPosTrackEnd triggers when a track stops stepping. The hook item
	// is the finished *tracking.Track.
	HookPosTrackEnd = &sim.HookPos{Name: "TrackEnd"}

	// HookPosEventEnd triggers after the secondary stack drains. The hook
	// item is the primary *tracking.Track.
	HookPosEventEnd = &sim.HookPos{Name: "EventEnd"}
)

// StepInfo is the hook item delivered at HookPosStepPost.
type StepInfo struct {
	Step  *tracking.Step
	Track *tracking.Track
}

// boundaryTolerance nudges a track off the face it just crossed so the next
// point location lands in the far volume.
const boundaryTolerance = 1e-7 * tracking.MM

// A Stepper walks every track of one event through the detector. It is the
// hookable domain that statistics and tracing attach to.
type Stepper struct {
	sim.HookableBase

	detector *geometry.Detector
	config   *Config
	world    *geometry.Volume

	nextTrackID int
}

// NewStepper builds a Stepper over the given detector.
func NewStepper(detector *geometry.Detector, config *Config) *Stepper {
	if detector == nil {
		panic("stepper requires a detector")
	}
	if config == nil {
		panic("stepper requires a config")
	}
	if config.RNG == nil {
		panic("stepper requires a seeded RNG")
	}

	return &Stepper{
		detector: detector,
		config:   config,
		world:    detector.Volume(geometry.VolWorld),
	}
}

// RunEvent transports the primary track and every secondary it spawns until
// the event's track stack drains. Secondaries run last-in first-out.
func (s *Stepper) RunEvent(primary *tracking.Track) {
	s.nextTrackID = primary.ID + 1

	s.InvokeHook(sim.HookCtx{Domain: s, Pos: HookPosEventBegin, Item: primary})

	stack := []*tracking.Track{primary}
	for len(stack) > 0 {
		trk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if trk.IsOpticalPhoton() {
			s.tracePhoton(trk)
		} else {
			stack = s.traceCharged(trk, stack)
		}

		s.InvokeHook(sim.HookCtx{Domain: s, Pos: HookPosTrackEnd, Item: trk})
	}

	s.InvokeHook(sim.HookCtx{Domain: s, Pos: HookPosEventEnd, Item: primary})
}

// traceCharged steps a charged track until it stops, pushing the optical
// photons it generates onto the stack.
func (s *Stepper) traceCharged(
	trk *tracking.Track,
	stack []*tracking.Track,
) []*tracking.Track {
	for trk.Status == tracking.TrackAlive {
		step := s.chargedStep(trk)

		mat := s.detector.MaterialOf(step.PreStepPoint.VolumeName)
		if mat.IsScintillator() && step.DepositedEnergyEV > 0 {
			stack = append(stack, s.scintillate(trk, &step, mat)...)
		}

		s.applyStep(trk, &step)
		if trk.EnergyEV <= 0 {
			trk.Status = tracking.TrackStopAndKill
		}

		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosStepPost,
			Item:   StepInfo{Step: &step, Track: trk},
		})
	}
	return stack
}

// chargedStep advances a charged track by one geometric step, shortened to
// land just past the nearest volume boundary.
func (s *Stepper) chargedStep(trk *tracking.Track) tracking.Step {
	pre := s.stepPoint(trk)

	boundary, _ := s.detector.NextBoundary(trk.Position, trk.Direction)
	length := s.config.ChargedStepMM
	if boundary+boundaryTolerance < length {
		length = boundary + boundaryTolerance
	}

	mat := s.detector.MaterialOf(pre.VolumeName)
	deposit := s.config.StoppingPowerMeVPerMM[mat.Name] * tracking.MEV * length
	if deposit > trk.EnergyEV {
		deposit = trk.EnergyEV
	}

	post := tracking.StepPoint{
		Position:     pre.Position.Add(pre.Direction.Scale(length)),
		Direction:    pre.Direction,
		EnergyEV:     pre.EnergyEV - deposit,
		GlobalTimeNS: pre.GlobalTimeNS + length/trk.SpeedMMPerNS(),
	}
	post.VolumeName = s.detector.Locate(post.Position)

	return tracking.Step{
		PreStepPoint:      pre,
		PostStepPoint:     post,
		StepLengthMM:      length,
		DepositedEnergyEV: deposit,
		Process:           tracking.ProcTransportation,
		Boundary:          tracking.BoundaryUndefined,
	}
}

// scintillate emits the optical photons for one charged step's deposit. The
// photon count is the deterministic floor of yield times deposit plus a
// Bernoulli draw on the remainder.
func (s *Stepper) scintillate(
	parent *tracking.Track,
	step *tracking.Step,
	mat *materials.Material,
) []*tracking.Track {
	if mat.ScintillationSpectrum.Empty() {
		return nil
	}

	rng := s.config.RNG
	mean := mat.ScintillationYieldPerMEV * step.DepositedEnergyEV / tracking.MEV
	count := int(mean)
	if rng.Float64() < mean-float64(count) {
		count++
	}

	photons := make([]*tracking.Track, 0, count)
	for i := 0; i < count; i++ {
		wavelength := mat.ScintillationSpectrum.SampleWavelength(rng.Float64())
		birthPoint := step.PreStepPoint.Position.Add(
			step.PreStepPoint.Direction.Scale(step.StepLengthMM * rng.Float64()))

		photons = append(photons, &tracking.Track{
			ID:             s.nextTrackID,
			ParentID:       parent.ID,
			Particle:       tracking.ParticleOpticalPhoton,
			CreatorProcess: tracking.ProcScintillation,
			Position:       birthPoint,
			Direction:      isotropicDirection(rng),
			EnergyEV:       tracking.PhotonEnergyEV(wavelength),
			GlobalTimeNS:   step.PreStepPoint.GlobalTimeNS + s.decayTime(mat),
			Status:         tracking.TrackAlive,
			Weight:         1,
		})
		s.nextTrackID++
	}
	return photons
}

// tracePhoton steps an optical photon until a boundary or the bulk absorbs
// it, a hook kills it, or the step cap trips.
func (s *Stepper) tracePhoton(trk *tracking.Track) {
	for i := 0; trk.Status == tracking.TrackAlive && i < s.config.MaxPhotonSteps; i++ {
		step := s.photonStep(trk)
		s.applyStep(trk, &step)

		if step.Process == tracking.ProcBulkAbsorption ||
			step.Boundary == tracking.BoundaryDetection ||
			step.Boundary == tracking.BoundaryAbsorption ||
			step.Boundary == tracking.BoundaryNoRefractiveIndex {
			trk.Status = tracking.TrackStopAndKill
		}

		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosStepPost,
			Item:   StepInfo{Step: &step, Track: trk},
		})
	}

	if trk.Status == tracking.TrackAlive {
		trk.Status = tracking.TrackStopAndKill
	}
}

// photonStep advances an optical photon to its next interaction: bulk
// absorption inside the current volume or an optical decision at the next
// boundary.
func (s *Stepper) photonStep(trk *tracking.Track) tracking.Step {
	rng := s.config.RNG
	pre := s.stepPoint(trk)
	mat := s.detector.MaterialOf(pre.VolumeName)
	wavelength := trk.WavelengthNM()
	speed := photonSpeedMMPerNS(mat, wavelength)

	boundaryDist, normal := s.detector.NextBoundary(trk.Position, trk.Direction)

	absorptionDist := math.Inf(1)
	if length, ok := mat.AbsorptionLengthAt(wavelength); ok && length > 0 {
		absorptionDist = -length * math.Log(1-rng.Float64())
	}

	if absorptionDist < boundaryDist {
		post := tracking.StepPoint{
			Position:     pre.Position.Add(pre.Direction.Scale(absorptionDist)),
			Direction:    pre.Direction,
			VolumeName:   pre.VolumeName,
			EnergyEV:     pre.EnergyEV,
			GlobalTimeNS: pre.GlobalTimeNS + absorptionDist/speed,
		}

		return tracking.Step{
			PreStepPoint:      pre,
			PostStepPoint:     post,
			StepLengthMM:      absorptionDist,
			DepositedEnergyEV: trk.EnergyEV,
			Process:           tracking.ProcBulkAbsorption,
			Boundary:          tracking.BoundaryUndefined,
		}
	}

	boundaryPoint := pre.Position.Add(pre.Direction.Scale(boundaryDist))
	probe := pre.Position.Add(pre.Direction.Scale(boundaryDist + boundaryTolerance))
	postVol := s.detector.Locate(probe)

	status, newDir := s.interactBoundary(trk, pre.VolumeName, postVol, normal, wavelength)

	post := tracking.StepPoint{
		Position:     boundaryPoint,
		Direction:    newDir,
		VolumeName:   postVol,
		EnergyEV:     trk.EnergyEV,
		GlobalTimeNS: pre.GlobalTimeNS + boundaryDist/speed,
	}

	deposit := 0.0
	if status == tracking.BoundaryDetection || status == tracking.BoundaryAbsorption {
		deposit = trk.EnergyEV
	}
	if status.IsReflection() {
		post.VolumeName = pre.VolumeName
	}

	return tracking.Step{
		PreStepPoint:      pre,
		PostStepPoint:     post,
		StepLengthMM:      boundaryDist,
		DepositedEnergyEV: deposit,
		Process:           tracking.ProcTransportation,
		Boundary:          status,
	}
}

// interactBoundary decides what happens to a photon crossing from preVol
// toward postVol and returns the boundary status plus the photon's new
// direction.
func (s *Stepper) interactBoundary(
	trk *tracking.Track,
	preVol, postVol string,
	normal tracking.Vector3,
	wavelengthNM float64,
) (tracking.BoundaryStatus, tracking.Vector3) {
	rng := s.config.RNG
	dir := trk.Direction

	if postVol == geometry.VolPhotocathode {
		if rng.Float64() < s.detector.DetectionEfficiency(wavelengthNM) {
			return tracking.BoundaryDetection, dir
		}
		return tracking.BoundaryAbsorption, dir
	}

	if surface, ok := s.detector.Surface(preVol, postVol); ok {
		if rng.Float64() < surface.Reflectivity.Lookup(wavelengthNM) {
			if surface.Finish == geometry.FinishGround {
				return tracking.BoundaryLambertianReflection,
					lambertianDirection(rng, normal)
			}
			return tracking.BoundarySpikeReflection, reflect(dir, normal)
		}
		return tracking.BoundaryAbsorption, dir
	}

	postMat := s.detector.MaterialOf(postVol)
	if !postMat.HasRefractiveIndex() {
		return tracking.BoundaryNoRefractiveIndex, dir
	}

	preMat := s.detector.MaterialOf(preVol)
	n1 := preMat.RefractiveIndexAt(wavelengthNM)
	n2 := postMat.RefractiveIndexAt(wavelengthNM)
	return fresnel(rng, dir, normal, n1, n2)
}

// applyStep folds a completed step back into the track. The track position
// is nudged off the crossed face so the next point location is unambiguous.
func (s *Stepper) applyStep(trk *tracking.Track, step *tracking.Step) {
	post := step.PostStepPoint

	trk.Position = post.Position.Add(post.Direction.Scale(boundaryTolerance))
	trk.Direction = post.Direction
	trk.EnergyEV = post.EnergyEV
	trk.GlobalTimeNS = post.GlobalTimeNS
	trk.TrackLengthMM += step.StepLengthMM
	trk.StepNumber++
	trk.EndProcess = step.Process

	if !s.world.Contains(trk.Position) {
		trk.Status = tracking.TrackStopAndKill
	}
}

func (s *Stepper) stepPoint(trk *tracking.Track) tracking.StepPoint {
	return tracking.StepPoint{
		Position:     trk.Position,
		Direction:    trk.Direction,
		VolumeName:   s.detector.Locate(trk.Position),
		EnergyEV:     trk.EnergyEV,
		GlobalTimeNS: trk.GlobalTimeNS,
	}
}

// decayTime samples the scintillation emission delay from the material's
// fast or slow component.
func (s *Stepper) decayTime(mat *materials.Material) float64 {
	rng := s.config.RNG

	tau := mat.FastTimeConstantNS
	if rng.Float64() >= mat.FastComponentFraction {
		tau = mat.SlowTimeConstantNS
	}
	if tau <= 0 {
		return 0
	}
	return -tau * math.Log(1-rng.Float64())
}

func photonSpeedMMPerNS(mat *materials.Material, wavelengthNM float64) float64 {
	n := mat.RefractiveIndexAt(wavelengthNM)
	if n <= 0 {
		n = 1
	}
	return tracking.CLight / n
}
