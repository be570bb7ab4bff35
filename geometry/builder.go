package geometry

import (
	"github.com/sarchlab/phoswich/materials"
	"github.com/sarchlab/phoswich/tracking"
)

// Default stack dimensions in mm. The stack grows along +X from the ZnS
// front face at x=0.
const (
	defaultScintHalfSizeMM     = 50.0
	defaultZnSThicknessMM      = 0.5
	defaultLightGuideThickMM   = 10.0
	defaultCouplingThickMM     = 0.1
	defaultWindowThickMM       = 3.0
	defaultPhotocathodeThickMM = 1.0
	defaultWorldHalfXMM        = 1050.0
	defaultWorldHalfYMM        = 7550.0
	defaultWorldHalfZMM        = 1050.0
	worldToHolderClearanceMM   = 25.0
)

// Builder builds a Detector.
type Builder struct {
	matTable *materials.Table

	scintHalfSizeMM     float64
	znsThicknessMM      float64
	lightGuideThickMM   float64
	couplingThickMM     float64
	windowThickMM       float64
	photocathodeThickMM float64
	worldHalfMM         tracking.Vector3

	scintYieldPerMEV float64
	znsYieldPerMEV   float64
}

// MakeBuilder creates a Builder with the default stack dimensions.
func MakeBuilder() Builder {
	return Builder{
		scintHalfSizeMM:     defaultScintHalfSizeMM,
		znsThicknessMM:      defaultZnSThicknessMM,
		lightGuideThickMM:   defaultLightGuideThickMM,
		couplingThickMM:     defaultCouplingThickMM,
		windowThickMM:       defaultWindowThickMM,
		photocathodeThickMM: defaultPhotocathodeThickMM,
		worldHalfMM: tracking.Vector3{
			X: defaultWorldHalfXMM,
			Y: defaultWorldHalfYMM,
			Z: defaultWorldHalfZMM,
		},
	}
}

// WithMaterialTable sets the material table. Required.
func (b Builder) WithMaterialTable(t *materials.Table) Builder {
	b.matTable = t
	return b
}

// WithScintillatorHalfSizeMM sets the scintillator cube half size.
func (b Builder) WithScintillatorHalfSizeMM(half float64) Builder {
	b.scintHalfSizeMM = half
	return b
}

// WithZnSThicknessMM sets the ZnS slab thickness.
func (b Builder) WithZnSThicknessMM(thickness float64) Builder {
	b.znsThicknessMM = thickness
	return b
}

// WithScintillatorYield overrides the scintillator light yield in
// photons/MeV.
func (b Builder) WithScintillatorYield(yield float64) Builder {
	b.scintYieldPerMEV = yield
	return b
}

// WithZnSYield overrides the ZnS light yield in photons/MeV.
func (b Builder) WithZnSYield(yield float64) Builder {
	b.znsYieldPerMEV = yield
	return b
}

// WithWorldHalfSizeMM sets the world half extents.
func (b Builder) WithWorldHalfSizeMM(half tracking.Vector3) Builder {
	b.worldHalfMM = half
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.matTable == nil {
		panic("geometry requires a material table")
	}

	if b.scintHalfSizeMM <= 0 || b.znsThicknessMM <= 0 {
		panic("stack dimensions must be positive")
	}
}

// Build assembles the detector stack.
func (b Builder) Build() *Detector {
	b.parametersMustBeValid()

	b.applyYieldOverrides()

	half := b.scintHalfSizeMM
	x := 0.0

	zns := b.box(VolZnS, x, b.znsThicknessMM, half, materials.MaterialZnS)
	x += b.znsThicknessMM

	scint := b.box(VolScintillator, x, 2*half, half, materials.MaterialEJ212)
	x += 2 * half

	guide := b.box(VolLightGuide, x, b.lightGuideThickMM, half, materials.MaterialPMMA)
	x += b.lightGuideThickMM

	coupling := b.box(VolCoupling, x, b.couplingThickMM, half, materials.MaterialCargille)
	x += b.couplingThickMM

	window := b.box(VolPMTWindow, x, b.windowThickMM, half, materials.MaterialBorosilicate)
	x += b.windowThickMM

	cathode := b.box(VolPhotocathode, x, b.photocathodeThickMM, half, materials.MaterialVacuum)

	holderHalf := b.worldHalfMM.Sub(tracking.Vector3{
		X: worldToHolderClearanceMM,
		Y: worldToHolderClearanceMM,
		Z: worldToHolderClearanceMM,
	})
	holder := &Volume{
		Name:     VolHolder,
		Min:      holderHalf.Scale(-1),
		Max:      holderHalf,
		Material: materials.MaterialVacuum,
	}
	world := &Volume{
		Name:     VolWorld,
		Min:      b.worldHalfMM.Scale(-1),
		Max:      b.worldHalfMM,
		Material: materials.MaterialVacuumWorld,
	}

	d := &Detector{
		volumes: []*Volume{
			zns, scint, guide, coupling, window, cathode, holder, world,
		},
		surfaces:   make(map[[2]string]*Surface),
		materials:  b.matTable,
		efficiency: b.matTable.PhotocathodeEfficiency,
	}

	b.wrapStack(d)

	return d
}

// applyYieldOverrides pushes macro-level light yields into the material
// table before any photons are generated.
func (b Builder) applyYieldOverrides() {
	if b.scintYieldPerMEV > 0 {
		b.matTable.MustGet(materials.MaterialEJ212).
			ScintillationYieldPerMEV = b.scintYieldPerMEV
	}

	if b.znsYieldPerMEV > 0 {
		b.matTable.MustGet(materials.MaterialZnS).
			ScintillationYieldPerMEV = b.znsYieldPerMEV
	}
}

// box builds one slab of the stack starting at startX along +X with the
// given thickness and transverse half size.
func (b Builder) box(
	name string,
	startX, thickness, half float64,
	material string,
) *Volume {
	return &Volume{
		Name:     name,
		Min:      tracking.Vector3{X: startX, Y: -half, Z: -half},
		Max:      tracking.Vector3{X: startX + thickness, Y: half, Z: half},
		Material: material,
	}
}

// wrapStack registers the reflective wrap around the scintillating volumes:
// Teflon tape around the plastic scintillator and the Mylar entrance foil
// over the ZnS layer.
func (b Builder) wrapStack(d *Detector) {
	teflon := b.matTable.MustGet(materials.MaterialTeflon)
	mylar := b.matTable.MustGet(materials.MaterialMylar)

	d.surfaces[[2]string{VolScintillator, VolHolder}] = &Surface{
		Name:         "ScintillatorToHolder",
		Finish:       FinishPolished,
		Reflectivity: teflon.Reflectivity,
	}
	d.surfaces[[2]string{VolZnS, VolHolder}] = &Surface{
		Name:         "ZnSToHolder",
		Finish:       FinishPolished,
		Reflectivity: mylar.Reflectivity,
	}
}
