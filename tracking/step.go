package tracking

import "math"

// A StepPoint is the state of a track at one end of a step.
type StepPoint struct {
	Position     Vector3
	Direction    Vector3
	VolumeName   string
	EnergyEV     float64
	GlobalTimeNS float64
}

// A Step is one leg of a track between two points. The post-step point
// carries the state after the step's interaction has been applied.
type Step struct {
	PreStepPoint  StepPoint
	PostStepPoint StepPoint

	StepLengthMM      float64
	DepositedEnergyEV float64

	// Process names the process that limited the step.
	Process string

	// Boundary is the boundary interaction taken at the post-step point.
	// BoundaryUndefined when the step ended inside a volume.
	Boundary BoundaryStatus
}

// Displacement returns the vector from the pre-step to the post-step
// position.
func (s *Step) Displacement() Vector3 {
	return s.PostStepPoint.Position.Sub(s.PreStepPoint.Position)
}

// IsFirst tells if this is the first step of its track.
func (s *Step) IsFirst(trk *Track) bool {
	return trk.StepNumber == 1
}

// StepAngleDeg returns the angle, in degrees, between the displacement
// from pre to post and the detector stack axis (+X). Zero-length
// displacements return 0.
func StepAngleDeg(pre, post Vector3) float64 {
	d := post.Sub(pre)
	l := d.Length()
	if l == 0 {
		return 0
	}

	cos := d.X / l
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi
}
