// Package source produces the primary particle that opens each event and
// renders the batch progress display.
package source

import (
	"math"
	"math/rand"

	"github.com/sarchlab/phoswich/tracking"
)

// A Generator builds primary tracks. Macro commands configure its exported
// fields before the run starts; nothing mutates them afterwards.
type Generator struct {
	// Particle is the primary particle name.
	Particle string

	// EnergyEV is the primary kinetic energy.
	EnergyEV float64

	// Position is the emission point.
	Position tracking.Vector3

	// Direction is the emission direction. It does not have to be unit
	// length. Ignored when Isotropic is set.
	Direction tracking.Vector3

	// Isotropic samples a fresh emission direction uniformly over the
	// sphere for every primary.
	Isotropic bool

	rng *rand.Rand
}

// NewGenerator returns a Generator loaded with the default source: a 5.5 MeV
// alpha fired from (-10, 0, 0) mm straight at the detector face.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		panic("generator requires a random source")
	}

	return &Generator{
		Particle:  tracking.ParticleAlpha,
		EnergyEV:  5.5 * tracking.MEV,
		Position:  tracking.Vector3{X: -10 * tracking.MM},
		Direction: tracking.Vector3{X: 1},
		rng:       rng,
	}
}

// GeneratePrimary builds the primary track of one event. The primary always
// carries track ID 1 and starts the event clock at zero.
func (g *Generator) GeneratePrimary() *tracking.Track {
	dir := g.Direction
	if g.Isotropic {
		dir = g.isotropicDirection()
	}

	return &tracking.Track{
		ID:        1,
		ParentID:  0,
		Particle:  g.Particle,
		Position:  g.Position,
		Direction: dir.Normalize(),
		EnergyEV:  g.EnergyEV,
		Status:    tracking.TrackAlive,
		Weight:    1,
	}
}

func (g *Generator) isotropicDirection() tracking.Vector3 {
	cosT := 2*g.rng.Float64() - 1
	sinT := math.Sqrt(1 - cosT*cosT)
	phi := 2 * math.Pi * g.rng.Float64()

	return tracking.Vector3{
		X: sinT * math.Cos(phi),
		Y: sinT * math.Sin(phi),
		Z: cosT,
	}
}
