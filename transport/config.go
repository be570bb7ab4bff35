package transport

import (
	"math/rand"

	"github.com/sarchlab/phoswich/materials"
)

// Config carries the knobs that one worker's stepping loop and its step
// hooks share. Macro commands mutate it before the run starts; nothing
// mutates it afterwards.
type Config struct {
	// PhotonTracking, when false, kills every optical photon on its first
	// step. The killed photon is still counted.
	PhotonTracking bool

	// Verbosity selects how chatty per-step diagnostics are. 0 is silent.
	Verbosity int

	// MaxPhotonSteps caps the number of steps one photon may take before
	// the loop gives up on it.
	MaxPhotonSteps int

	// ChargedStepMM is the geometric step length for charged particles.
	// Steps are shortened to land on volume boundaries.
	ChargedStepMM float64

	// StoppingPowerMeVPerMM maps material names to the constant stopping
	// power charged particles see there. Materials not listed deposit
	// nothing.
	StoppingPowerMeVPerMM map[string]float64

	// RNG drives every random decision of the owning worker. Each worker
	// seeds its own generator so runs replay deterministically.
	RNG *rand.Rand
}

// DefaultConfig returns a Config with photon tracking on and the stopping
// powers of the standard detector stack. The RNG is left for the caller to
// seed.
func DefaultConfig() *Config {
	return &Config{
		PhotonTracking: true,
		MaxPhotonSteps: 10000,
		ChargedStepMM:  1.0,
		StoppingPowerMeVPerMM: map[string]float64{
			materials.MaterialZnS:   275.0,
			materials.MaterialEJ212: 140.0,
		},
	}
}
