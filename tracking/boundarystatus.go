package tracking

// BoundaryStatus tells what happened when a photon reached a volume
// boundary. It mirrors the boundary-process status word of optical transport
// toolkits.
type BoundaryStatus int

const (
	BoundaryUndefined BoundaryStatus = iota
	BoundaryFresnelRefraction
	BoundaryFresnelReflection
	BoundaryTotalInternalReflection
	BoundaryLambertianReflection
	BoundaryLobeReflection
	BoundarySpikeReflection
	BoundaryAbsorption
	BoundaryDetection
	BoundaryNoRefractiveIndex
)

func (s BoundaryStatus) String() string {
	switch s {
	case BoundaryUndefined:
		return "Undefined"
	case BoundaryFresnelRefraction:
		return "FresnelRefraction"
	case BoundaryFresnelReflection:
		return "FresnelReflection"
	case BoundaryTotalInternalReflection:
		return "TotalInternalReflection"
	case BoundaryLambertianReflection:
		return "LambertianReflection"
	case BoundaryLobeReflection:
		return "LobeReflection"
	case BoundarySpikeReflection:
		return "SpikeReflection"
	case BoundaryAbsorption:
		return "Absorption"
	case BoundaryDetection:
		return "Detection"
	case BoundaryNoRefractiveIndex:
		return "NoRINDEX"
	default:
		return "Unknown"
	}
}

// IsReflection tells if the status leaves the photon inside its current
// volume with a new direction.
func (s BoundaryStatus) IsReflection() bool {
	switch s {
	case BoundaryFresnelReflection,
		BoundaryTotalInternalReflection,
		BoundaryLambertianReflection,
		BoundaryLobeReflection,
		BoundarySpikeReflection:
		return true
	default:
		return false
	}
}
