package tally

import (
	"math/rand"
	"testing"

	"github.com/sarchlab/phoswich/geometry"
	"github.com/sarchlab/phoswich/materials"
	"github.com/sarchlab/phoswich/sim"
	"github.com/sarchlab/phoswich/tracking"
	"github.com/sarchlab/phoswich/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(photonTracking bool) (*Classifier, *EventTally) {
	tally, _ := quietTally()
	tally.BeginEvent()

	cfg := transport.DefaultConfig()
	cfg.PhotonTracking = photonTracking

	return NewClassifier(tally, cfg), tally
}

func TestNewClassifierValidatesArguments(t *testing.T) {
	assert.Panics(t, func() { NewClassifier(nil, transport.DefaultConfig()) })
	assert.Panics(t, func() { NewClassifier(NewEventTally(), nil) })
}

func TestClassifierKilledShortCircuit(t *testing.T) {
	c, tally := newTestClassifier(false)

	trk := &tracking.Track{
		Particle:       tracking.ParticleOpticalPhoton,
		CreatorProcess: tracking.ProcScintillation,
		EnergyEV:       tracking.PhotonEnergyEV(450),
		EndProcess:     tracking.ProcTransportation,
		StepNumber:     1,
		Status:         tracking.TrackAlive,
	}
	step := &tracking.Step{
		PreStepPoint:  tracking.StepPoint{VolumeName: geometry.VolZnS},
		PostStepPoint: tracking.StepPoint{VolumeName: geometry.VolZnS},
		Boundary:      tracking.BoundaryUndefined,
	}

	c.OnStep(step, trk)

	assert.Equal(t, tracking.TrackStopAndKill, trk.Status)
	assert.Empty(t, tally.PhotonBirths())

	rec := tally.FinalizeEvent()
	assert.Equal(t, 1, rec.Killed)
	assert.Equal(t, 0, rec.ScintillationZnS)
	assert.Equal(t, 0, rec.GeneratedTotal)
}

func TestClassifierWorldKillStopsAnyParticle(t *testing.T) {
	c, tally := newTestClassifier(true)

	alpha := &tracking.Track{
		Particle:   tracking.ParticleAlpha,
		EnergyEV:   5.5 * tracking.MEV,
		StepNumber: 12,
		Status:     tracking.TrackAlive,
	}
	step := &tracking.Step{
		PreStepPoint:  tracking.StepPoint{VolumeName: geometry.VolHolder},
		PostStepPoint: tracking.StepPoint{VolumeName: geometry.VolWorld},
	}

	c.OnAnyStep(step, alpha)

	assert.Equal(t, tracking.TrackStopAndKill, alpha.Status)
	assert.Empty(t, tally.ZnS().Records())
	assert.Empty(t, tally.Scintillator().Records())
}

func TestClassifierRecordsInputOnPrimaryFirstStep(t *testing.T) {
	c, tally := newTestClassifier(true)

	alpha := &tracking.Track{
		ID:         1,
		ParentID:   0,
		Particle:   tracking.ParticleAlpha,
		StepNumber: 1,
		Status:     tracking.TrackAlive,
	}
	step := &tracking.Step{
		PreStepPoint: tracking.StepPoint{
			Position:   tracking.Vector3{X: -10},
			Direction:  tracking.Vector3{X: 1},
			VolumeName: geometry.VolHolder,
			EnergyEV:   5.5 * tracking.MEV,
		},
		PostStepPoint: tracking.StepPoint{
			Position:   tracking.Vector3{X: -9},
			Direction:  tracking.Vector3{X: 1},
			VolumeName: geometry.VolHolder,
			EnergyEV:   5.5 * tracking.MEV,
		},
	}

	c.OnAnyStep(step, alpha)

	in, ok := tally.Input()
	require.True(t, ok)
	assert.Equal(t, -10.0, in.X)
	assert.Equal(t, 1.0, in.Xp)
	assert.Equal(t, 0.0, in.Yp)
	assert.Equal(t, 5.5, in.Energy)
	assert.Equal(t, tracking.TrackAlive, alpha.Status)
}

func TestClassifierIgnoresSecondaryFirstStepForInput(t *testing.T) {
	c, tally := newTestClassifier(true)

	photon := &tracking.Track{
		ID:             2,
		ParentID:       1,
		Particle:       tracking.ParticleOpticalPhoton,
		CreatorProcess: tracking.ProcScintillation,
		EnergyEV:       tracking.PhotonEnergyEV(450),
		EndProcess:     tracking.ProcTransportation,
		StepNumber:     1,
		Status:         tracking.TrackAlive,
	}
	step := &tracking.Step{
		PreStepPoint: tracking.StepPoint{
			VolumeName: geometry.VolZnS,
			EnergyEV:   photon.EnergyEV,
		},
		PostStepPoint: tracking.StepPoint{
			Position:   tracking.Vector3{Y: 1},
			VolumeName: geometry.VolZnS,
			EnergyEV:   photon.EnergyEV,
		},
		Boundary: tracking.BoundaryUndefined,
	}

	c.OnAnyStep(step, photon)

	_, ok := tally.Input()
	assert.False(t, ok)
	assert.Len(t, tally.PhotonBirths(), 1)
}

func TestClassifierCountsCreationByPreVolume(t *testing.T) {
	c, tally := newTestClassifier(true)

	birthStep := func(preVol string) *tracking.Step {
		return &tracking.Step{
			PreStepPoint: tracking.StepPoint{VolumeName: preVol},
			PostStepPoint: tracking.StepPoint{
				Position:   tracking.Vector3{Y: 1},
				VolumeName: preVol,
			},
			Boundary: tracking.BoundaryFresnelRefraction,
		}
	}
	photon := func(creator string) *tracking.Track {
		return &tracking.Track{
			ParentID:       1,
			Particle:       tracking.ParticleOpticalPhoton,
			CreatorProcess: creator,
			EnergyEV:       tracking.PhotonEnergyEV(425),
			EndProcess:     tracking.ProcTransportation,
			StepNumber:     1,
			Status:         tracking.TrackAlive,
		}
	}

	c.OnStep(birthStep(geometry.VolScintillator),
		photon(tracking.ProcScintillation))
	c.OnStep(birthStep(geometry.VolZnS), photon(tracking.ProcCerenkov))

	// A later step of the same track records no second birth.
	veteran := photon(tracking.ProcScintillation)
	veteran.StepNumber = 2
	c.OnStep(birthStep(geometry.VolScintillator), veteran)

	births := tally.PhotonBirths()
	require.Len(t, births, 2)
	assert.InDelta(t, 90.0, births[0].AngleCreationDeg, 1e-9)
	assert.InDelta(t, 425.0, births[0].BirthWavelengthNM, 1e-9)

	rec := tally.FinalizeEvent()
	assert.Equal(t, 1, rec.ScintillationSc)
	assert.Equal(t, 1, rec.CerenkovZnS)
	assert.Equal(t, 2, rec.GeneratedTotal)
}

func TestClassifierDetectionAppendsHit(t *testing.T) {
	c, tally := newTestClassifier(true)

	photon := &tracking.Track{
		ParentID:       1,
		Particle:       tracking.ParticleOpticalPhoton,
		CreatorProcess: tracking.ProcScintillation,
		EnergyEV:       tracking.PhotonEnergyEV(425),
		EndProcess:     tracking.ProcTransportation,
		TrackLengthMM:  63.6,
		StepNumber:     5,
		Status:         tracking.TrackAlive,
	}
	step := &tracking.Step{
		PreStepPoint: tracking.StepPoint{
			Position:   tracking.Vector3{X: 110, Y: 1},
			VolumeName: geometry.VolPMTWindow,
		},
		PostStepPoint: tracking.StepPoint{
			Position:     tracking.Vector3{X: 113.6, Y: 1},
			VolumeName:   geometry.VolPhotocathode,
			GlobalTimeNS: 0.4,
		},
		Boundary: tracking.BoundaryDetection,
	}

	c.OnStep(step, photon)

	assert.Equal(t, tracking.TrackStopAndKill, photon.Status)

	hits := tally.PhotonHits()
	require.Len(t, hits, 1)
	assert.Equal(t, 113.6, hits[0].X)
	assert.Equal(t, 1.0, hits[0].Y)
	assert.InDelta(t, 425.0, hits[0].BirthWavelength, 1e-9)
	assert.Equal(t, 0.4, hits[0].TimeNS)
	assert.Equal(t, 63.6, hits[0].TotalLengthMM)
	assert.InDelta(t, 0.0, hits[0].AngleDetectionDeg, 1e-9)

	rec := tally.FinalizeEvent()
	assert.Equal(t, 1, rec.Detected)
}

func TestClassifierChargedCrossingDrivesEpisodes(t *testing.T) {
	c, tally := newTestClassifier(true)

	alpha := &tracking.Track{
		ID:         1,
		Particle:   tracking.ParticleAlpha,
		StepNumber: 12,
		Status:     tracking.TrackAlive,
	}
	step := &tracking.Step{
		PreStepPoint: tracking.StepPoint{
			Position:   tracking.Vector3{X: 0.01},
			VolumeName: geometry.VolZnS,
			EnergyEV:   5.5 * tracking.MEV,
		},
		PostStepPoint: tracking.StepPoint{
			Position:   tracking.Vector3{X: 0.03},
			VolumeName: geometry.VolZnS,
			EnergyEV:   0,
		},
		DepositedEnergyEV: 5.5 * tracking.MEV,
	}

	c.OnAnyStep(step, alpha)

	records := tally.ZnS().Records()
	require.Len(t, records, 1)
	assert.InDelta(t, 5500.0, records[0].DepositedEnergy, 1e-9)
	assert.Equal(t, tracking.PDGCode(tracking.ParticleAlpha),
		records[0].ParticleID)
}

// classifierTestTable mirrors the transport test materials: a single
// refractive index everywhere and an effectively zero ZnS absorption
// length, so every photon dies in the bulk on its first step.
func classifierTestTable() *materials.Table {
	table := materials.NewTable()

	znsSpectrum := &materials.PropertyTable{}
	znsSpectrum.AddSample(450, 1)
	ej212Spectrum := &materials.PropertyTable{}
	ej212Spectrum.AddSample(425, 1)

	table.Add(&materials.Material{
		Name:                     materials.MaterialZnS,
		RefractiveIndex:          materials.ConstantProperty(1.5),
		AbsorptionLengthMM:       materials.ConstantProperty(1e-9),
		ScintillationSpectrum:    znsSpectrum,
		ScintillationYieldPerMEV: 44000,
		FastTimeConstantNS:       200,
		SlowTimeConstantNS:       1000,
		FastComponentFraction:    1,
	})
	table.Add(&materials.Material{
		Name:                     materials.MaterialEJ212,
		RefractiveIndex:          materials.ConstantProperty(1.5),
		ScintillationSpectrum:    ej212Spectrum,
		ScintillationYieldPerMEV: 10000,
		FastTimeConstantNS:       2.1,
		SlowTimeConstantNS:       10,
		FastComponentFraction:    1,
	})

	for _, name := range []string{
		materials.MaterialVacuum,
		materials.MaterialAir,
		materials.MaterialPMMA,
		materials.MaterialCargille,
		materials.MaterialBorosilicate,
	} {
		table.Add(&materials.Material{
			Name:            name,
			RefractiveIndex: materials.ConstantProperty(1.5),
		})
	}
	table.Add(&materials.Material{Name: materials.MaterialVacuumWorld})
	table.Add(&materials.Material{
		Name:         materials.MaterialTeflon,
		Reflectivity: materials.ConstantProperty(1),
	})
	table.Add(&materials.Material{
		Name:         materials.MaterialMylar,
		Reflectivity: materials.ConstantProperty(1),
	})
	table.PhotocathodeEfficiency = materials.ConstantProperty(1)

	return table
}

func TestClassifierWithStepper(t *testing.T) {
	det := geometry.MakeBuilder().
		WithMaterialTable(classifierTestTable()).
		WithZnSYield(10).
		Build()

	cfg := transport.DefaultConfig()
	cfg.RNG = rand.New(rand.NewSource(7))

	tally, _ := quietTally()
	classifier := NewClassifier(tally, cfg)

	stepper := transport.NewStepper(det, cfg)
	stepper.AcceptHook(classifier)

	alpha := &tracking.Track{
		ID:        1,
		Particle:  tracking.ParticleAlpha,
		Position:  tracking.Vector3{X: -10},
		Direction: tracking.Vector3{X: 1},
		EnergyEV:  5.5 * tracking.MEV,
		Status:    tracking.TrackAlive,
		Weight:    1,
	}
	stepper.RunEvent(alpha)

	rec := tally.FinalizeEvent()

	// Yield 10/MeV on a 5.5 MeV deposit gives exactly 55 photons, and the
	// short absorption length sends every one into the ZnS bulk.
	assert.Equal(t, 55, rec.ScintillationZnS)
	assert.Equal(t, 55, rec.GeneratedZnS)
	assert.Equal(t, 55, rec.GeneratedTotal)
	assert.Equal(t, 55, rec.BulkAbsZnS)
	assert.Equal(t, 55, rec.BulkAbsTotal)

	// Every generated photon received exactly one terminal fate.
	total := rec.Absorbed + rec.BulkAbsTotal + rec.Escaped +
		rec.Failed + rec.Detected + rec.Killed
	assert.Equal(t, rec.GeneratedTotal, total)

	assert.InDelta(t, 100.0, rec.FracBulkZnS, 1e-9)
	assert.InDelta(t, 100.0, rec.FracBulkTotal, 1e-9)
	assert.InDelta(t, 0.0, rec.FracEscaped, 1e-9)

	assert.Equal(t, 5.5, rec.IncidentE)
	assert.InDelta(t, 5500.0, rec.DepositZnS, 1e-6)
	assert.InDelta(t, 5500.0, rec.DepositTotal, 1e-6)
	assert.Equal(t, 0.0, rec.DepositSc)

	episodes := tally.ZnS().Records()
	require.Len(t, episodes, 1)
	assert.Equal(t, 0, episodes[0].ParentID)
	assert.InDelta(t, 5.5, episodes[0].Energy, 1e-9)
	assert.InDelta(t, 5500.0, episodes[0].DepositedEnergy, 1e-6)

	require.Len(t, tally.PhotonBirths(), 55)
	assert.InDelta(t, 450.0, tally.PhotonBirths()[0].BirthWavelengthNM, 1e-9)
	assert.Empty(t, tally.PhotonHits())
}

func TestClassifierWithStepperPhotonTrackingOff(t *testing.T) {
	det := geometry.MakeBuilder().
		WithMaterialTable(classifierTestTable()).
		WithZnSYield(10).
		Build()

	cfg := transport.DefaultConfig()
	cfg.PhotonTracking = false
	cfg.RNG = rand.New(rand.NewSource(7))

	tally, warnings := quietTally()
	classifier := NewClassifier(tally, cfg)

	stepper := transport.NewStepper(det, cfg)
	stepper.AcceptHook(classifier)

	alpha := &tracking.Track{
		ID:        1,
		Particle:  tracking.ParticleAlpha,
		Position:  tracking.Vector3{X: -10},
		Direction: tracking.Vector3{X: 1},
		EnergyEV:  5.5 * tracking.MEV,
		Status:    tracking.TrackAlive,
		Weight:    1,
	}
	stepper.RunEvent(alpha)

	rec := tally.FinalizeEvent()
	assert.Equal(t, 55, rec.Killed)
	assert.Equal(t, 0, rec.BulkAbsZnS)
	assert.Equal(t, 0, rec.ScintillationZnS)
	assert.Equal(t, 0, rec.GeneratedTotal)
	assert.Empty(t, tally.PhotonBirths())
	assert.Contains(t, warnings.String(), "no optical photons")
}

func TestClassifierFuncRearmsOnEventBegin(t *testing.T) {
	c, tally := newTestClassifier(true)
	tally.SetInput(1, 0, 0, 0, 0, 0, 5.5*tracking.MEV)

	c.Func(sim.HookCtx{Pos: transport.HookPosEventBegin})

	_, ok := tally.Input()
	assert.False(t, ok)
}
