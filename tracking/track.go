package tracking

import "math"

// TrackStatus tells the transport loop whether a track keeps stepping.
type TrackStatus int

const (
	// TrackAlive marks a track that continues to step.
	TrackAlive TrackStatus = iota

	// TrackStopAndKill marks a track that must not take another step. Any
	// step hook may set it.
	TrackStopAndKill
)

// Particle names.
const (
	ParticleAlpha         = "alpha"
	ParticleElectron      = "e-"
	ParticlePositron      = "e+"
	ParticleGamma         = "gamma"
	ParticleOpticalPhoton = "opticalphoton"
)

// Process names, as they appear in track creator and end-process fields.
const (
	ProcScintillation  = "Scintillation"
	ProcCerenkov       = "Cerenkov"
	ProcBulkAbsorption = "OpAbsorption"
	ProcBoundary       = "OpBoundary"
	ProcTransportation = "Transportation"
)

// A Track is one particle in flight. Fields are mutated in place by the
// stepping loop that owns the track; hooks observe it between steps.
type Track struct {
	ID             int
	ParentID       int
	Particle       string
	CreatorProcess string

	Position  Vector3
	Direction Vector3 // unit length

	EnergyEV      float64
	GlobalTimeNS  float64
	TrackLengthMM float64
	StepNumber    int

	Status     TrackStatus
	EndProcess string

	// Weight is reserved for variance-reduction schemes. Always 1 for now.
	Weight float64
}

// IsOpticalPhoton tells if the track is an optical photon.
func (t *Track) IsOpticalPhoton() bool {
	return t.Particle == ParticleOpticalPhoton
}

// WavelengthNM returns the track's photon wavelength in nm.
func (t *Track) WavelengthNM() float64 {
	return WavelengthNM(t.EnergyEV)
}

// RestMassEV returns the rest mass of the named particle. Photons and
// unknown names are treated as massless.
func RestMassEV(particle string) float64 {
	switch particle {
	case ParticleAlpha:
		return 3727.379 * MEV
	case ParticleElectron, ParticlePositron:
		return 0.510999 * MEV
	default:
		return 0
	}
}

// SpeedMMPerNS returns the track's speed from its kinetic energy and rest
// mass. Massless particles move at the vacuum speed of light.
func (t *Track) SpeedMMPerNS() float64 {
	m := RestMassEV(t.Particle)
	if m == 0 {
		return CLight
	}

	gamma := 1 + t.EnergyEV/m
	return CLight * math.Sqrt(1-1/(gamma*gamma))
}

// PDGCode returns the PDG encoding for the particle names this simulation
// produces. Unknown names map to 0, the code optical photons use.
func PDGCode(particle string) int {
	switch particle {
	case ParticleAlpha:
		return 1000020040
	case ParticleElectron:
		return 11
	case ParticlePositron:
		return -11
	case ParticleGamma:
		return 22
	default:
		return 0
	}
}
