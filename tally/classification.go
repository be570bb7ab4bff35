// Package tally turns the transport layer's step stream into per-event
// statistics: it classifies the fate of every optical photon, tracks
// charged-particle crossings through the two scintillating layers, and
// freezes everything into flat records the recorders can store.
package tally

import (
	"github.com/sarchlab/phoswich/geometry"
	"github.com/sarchlab/phoswich/tracking"
)

// Classification is the fate assigned to one optical photon step. Terminal
// classes end the photon's track; ClassContinue lets it keep stepping.
type Classification int

const (
	ClassContinue Classification = iota
	ClassDetected
	ClassSurfaceAbsorbed
	ClassBulkAbsorbedZnS
	ClassBulkAbsorbedScintillator
	ClassTransmitted
	ClassEscaped
	ClassKilled
)

// Terminal tells if the classification ends the photon's track.
func (c Classification) Terminal() bool {
	return c != ClassContinue
}

func (c Classification) String() string {
	switch c {
	case ClassContinue:
		return "Continue"
	case ClassDetected:
		return "Detected"
	case ClassSurfaceAbsorbed:
		return "SurfaceAbsorbed"
	case ClassBulkAbsorbedZnS:
		return "BulkAbsorbedZnS"
	case ClassBulkAbsorbedScintillator:
		return "BulkAbsorbedScintillator"
	case ClassTransmitted:
		return "Transmitted"
	case ClassEscaped:
		return "Escaped"
	case ClassKilled:
		return "Killed"
	default:
		return "Unknown"
	}
}

// ClassifyBoundary assigns a fate to a completed photon step. The rules
// apply in order and the first match wins:
//
//  1. A track ended by bulk absorption is BulkAbsorbed, split by the
//     pre-step volume (ZnS or everything else).
//  2. Detection at the photocathode is Detected.
//  3. Absorption with the photocathode ahead is Transmitted: the photon
//     reached the PMT but the quantum efficiency draw failed.
//  4. Any other absorption happened at a wrap or bare surface.
//  5. A boundary without refractive index on the far side is Escaped.
//  6. Everything else, reflections included, continues.
func ClassifyBoundary(
	trk *tracking.Track,
	boundary tracking.BoundaryStatus,
	preVol, postVol string,
) Classification {
	if trk.EndProcess == tracking.ProcBulkAbsorption {
		if preVol == geometry.VolZnS {
			return ClassBulkAbsorbedZnS
		}
		return ClassBulkAbsorbedScintillator
	}

	switch boundary {
	case tracking.BoundaryDetection:
		return ClassDetected
	case tracking.BoundaryAbsorption:
		if postVol == geometry.VolPhotocathode {
			return ClassTransmitted
		}
		return ClassSurfaceAbsorbed
	case tracking.BoundaryNoRefractiveIndex:
		return ClassEscaped
	}

	return ClassContinue
}
