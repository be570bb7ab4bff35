// Package geometry builds the phoswich detector stack as an ordered set of
// axis-aligned boxes and answers the point-location and boundary-distance
// queries the transport loops ask.
package geometry

import (
	"math"

	"github.com/sarchlab/phoswich/tracking"
)

// Volume names of the detector stack.
const (
	VolWorld        = "World"
	VolHolder       = "Holder"
	VolScintillator = "Scintillator"
	VolZnS          = "ZnS"
	VolLightGuide   = "LightGuide"
	VolCoupling     = "Coupling"
	VolPMTWindow    = "PMTWindow"
	VolPhotocathode = "Photocathode"
)

// A Volume is an axis-aligned box filled with one material.
type Volume struct {
	Name     string
	Min, Max tracking.Vector3
	Material string
}

// Contains tells if p lies inside the volume. Points on the boundary count
// as inside.
func (v *Volume) Contains(p tracking.Vector3) bool {
	return p.X >= v.Min.X && p.X <= v.Max.X &&
		p.Y >= v.Min.Y && p.Y <= v.Max.Y &&
		p.Z >= v.Min.Z && p.Z <= v.Max.Z
}

// ExitDistance returns the distance along dir from pos to the box surface,
// using the slab method. pos is expected inside the volume; dir must not be
// the zero vector.
func (v *Volume) ExitDistance(pos, dir tracking.Vector3) float64 {
	d, _ := v.Exit(pos, dir)
	return d
}

// Exit returns the distance along dir from pos to the box surface and the
// unit normal of the face crossed, oriented along the direction of travel.
func (v *Volume) Exit(pos, dir tracking.Vector3) (float64, tracking.Vector3) {
	exit := math.Inf(1)
	axis := 0

	if t := slabExit(pos.X, dir.X, v.Min.X, v.Max.X); t < exit {
		exit, axis = t, 0
	}
	if t := slabExit(pos.Y, dir.Y, v.Min.Y, v.Max.Y); t < exit {
		exit, axis = t, 1
	}
	if t := slabExit(pos.Z, dir.Z, v.Min.Z, v.Max.Z); t < exit {
		exit, axis = t, 2
	}

	if exit < 0 {
		exit = 0
	}
	return exit, travelNormal(dir, axis)
}

// Entry returns the distance along dir from pos to the first face of the box
// and the unit normal of that face, oriented along the direction of travel.
// ok is false when the ray misses the box or pos is already inside.
func (v *Volume) Entry(pos, dir tracking.Vector3) (dist float64, normal tracking.Vector3, ok bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)
	axis := 0

	slabs := [3][4]float64{
		{pos.X, dir.X, v.Min.X, v.Max.X},
		{pos.Y, dir.Y, v.Min.Y, v.Max.Y},
		{pos.Z, dir.Z, v.Min.Z, v.Max.Z},
	}
	for a, s := range slabs {
		p, d, lo, hi := s[0], s[1], s[2], s[3]
		if d == 0 {
			if p < lo || p > hi {
				return 0, tracking.Vector3{}, false
			}
			continue
		}

		t1 := (lo - p) / d
		t2 := (hi - p) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin, axis = t1, a
		}
		if t2 < tMax {
			tMax = t2
		}
	}

	if tMax < tMin || tMin <= 0 {
		return 0, tracking.Vector3{}, false
	}
	return tMin, travelNormal(dir, axis), true
}

func slabExit(p, d, lo, hi float64) float64 {
	if d == 0 {
		return math.Inf(1)
	}

	t1 := (lo - p) / d
	t2 := (hi - p) / d
	return math.Max(t1, t2)
}

// travelNormal is the unit normal of a face perpendicular to the given
// axis, signed so that it points along the direction of travel.
func travelNormal(dir tracking.Vector3, axis int) tracking.Vector3 {
	switch axis {
	case 0:
		return tracking.Vector3{X: math.Copysign(1, dir.X)}
	case 1:
		return tracking.Vector3{Y: math.Copysign(1, dir.Y)}
	default:
		return tracking.Vector3{Z: math.Copysign(1, dir.Z)}
	}
}
