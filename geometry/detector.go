package geometry

import (
	"github.com/sarchlab/phoswich/materials"
	"github.com/sarchlab/phoswich/tracking"
)

// AxisX is the detector stack axis. Creation and detection angles are
// measured against it.
var AxisX = tracking.Vector3{X: 1}

// SurfaceFinish selects the reflection model of a border surface.
type SurfaceFinish int

const (
	// FinishPolished reflects specularly (spike).
	FinishPolished SurfaceFinish = iota

	// FinishGround reflects diffusely (Lambertian).
	FinishGround
)

// A Surface is a named optical border between two volumes. Photons crossing
// it sample the reflectivity table; a miss absorbs the photon at the
// surface.
type Surface struct {
	Name         string
	Finish       SurfaceFinish
	Reflectivity *materials.PropertyTable
}

// A Detector is the built phoswich stack: an ordered volume list plus the
// optical surfaces and the photocathode response.
type Detector struct {
	// volumes are ordered innermost first; Locate returns the first match.
	volumes []*Volume

	surfaces   map[[2]string]*Surface
	materials  *materials.Table
	efficiency *materials.PropertyTable
}

// Locate returns the name of the innermost volume containing p. Points
// outside every volume are in the world.
func (d *Detector) Locate(p tracking.Vector3) string {
	for _, v := range d.volumes {
		if v.Contains(p) {
			return v.Name
		}
	}
	return VolWorld
}

// Volume returns the named volume, or nil.
func (d *Detector) Volume(name string) *Volume {
	for _, v := range d.volumes {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Volumes lists the stack innermost first.
func (d *Detector) Volumes() []*Volume {
	return d.volumes
}

// MaterialOf returns the material filling the named volume.
func (d *Detector) MaterialOf(volumeName string) *materials.Material {
	v := d.Volume(volumeName)
	if v == nil {
		return d.materials.MustGet(materials.MaterialVacuumWorld)
	}
	return d.materials.MustGet(v.Material)
}

// NextBoundary returns the distance from pos along dir to the nearest
// boundary crossing and the unit normal of the crossed face, oriented along
// the direction of travel. The crossing is either the exit of the volume
// containing pos or the entry into a volume nested beside it, whichever
// comes first.
func (d *Detector) NextBoundary(pos, dir tracking.Vector3) (float64, tracking.Vector3) {
	cur := d.Volume(d.Locate(pos))
	if cur == nil {
		cur = d.Volume(VolWorld)
	}
	best, normal := cur.Exit(pos, dir)

	for _, v := range d.volumes {
		if v == cur {
			continue
		}
		if dist, n, ok := v.Entry(pos, dir); ok && dist < best {
			best, normal = dist, n
		}
	}
	return best, normal
}

// Surface returns the border surface crossed from preVol to postVol, if one
// is defined.
func (d *Detector) Surface(preVol, postVol string) (*Surface, bool) {
	s, ok := d.surfaces[[2]string{preVol, postVol}]
	return s, ok
}

// DetectionEfficiency returns the photocathode's effective detection
// efficiency at the given wavelength. Without efficiency data every photon
// fails detection.
func (d *Detector) DetectionEfficiency(wavelengthNM float64) float64 {
	return d.efficiency.Lookup(wavelengthNM)
}
