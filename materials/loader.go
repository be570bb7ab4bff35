package materials

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/phoswich/tracking"
)

// Data files of the detector model, relative to the data directory.
const (
	fileEJ212Spectrum   = "EJ-212.cfg"
	fileEJ212Absorption = "PSTBulkAbsorb_reverse.cfg"
	fileEJ212Index      = "PS_index_geant_reverse.cfg"
	fileZnSSpectrum     = "ZnS_spectrum.dat"
	fileZnSAbsorption   = "LaBr3_absorption_reverse.cfg"
	fileZnSIndex        = "ZnS_index_reverse.cfg"
	fileBSGAbsorption   = "Borosilicate_GlassBulkAbsorb_reverse.cfg"
	fileBSGIndex        = "BSG_ref_index_reverse.dat"
	fileCargilleAbsorb  = "CargilleBulkAbsorb_reverse.cfg"
	filePMMAAbsorption  = "PMMABulkAbsorb_reverse.dat"
	filePMMAIndex       = "PMMA_ref_index_geant_reverse.dat"
	fileTeflonReflect   = "teflon.dat"
	fileMylarReflect    = "mylar.dat"
	filePhotocathodeQE  = "QE_ham_GA0154.txt"
)

const (
	vacuumAbsorptionMM = 10000 * tracking.M
	znsAbsorptionMM    = 0.15 * tracking.MM
	cargilleIndex      = 1.406
	pmmaIndex          = 1.49

	// Hamamatsu quantum efficiency times the PMT collection efficiency.
	quantumEffScale    = 0.64
	collectionEffScale = 0.65

	ej212YieldPerMEV    = 10000.0
	ej212FastConstantNS = 2.1
	ej212SlowConstantNS = 10.0

	znsYieldPerMEV    = 44000.0
	znsFastConstantNS = 200.0
	znsSlowConstantNS = 1000.0
)

// LoadTable reads every property file under dataDir and builds the standard
// material set of the phoswich stack. A missing file degrades to an empty
// property table after one stderr line, never an abort.
func LoadTable(dataDir string) *Table {
	table := NewTable()

	// The EJ-212 spectrum file doubles as the wavelength grid for the
	// constant-property materials.
	ej212Spectrum := readProperty(dataDir, fileEJ212Spectrum)

	table.Add(&Material{
		Name:               MaterialVacuum,
		RefractiveIndex:    constantOnGrid(ej212Spectrum, 1.0),
		AbsorptionLengthMM: constantOnGrid(ej212Spectrum, vacuumAbsorptionMM),
	})

	// The world vacuum carries no refractive index at all. Photons that
	// reach it cannot refract and are tallied as escaped.
	table.Add(&Material{Name: MaterialVacuumWorld})

	table.Add(&Material{
		Name:               MaterialAir,
		RefractiveIndex:    constantOnGrid(ej212Spectrum, 1.0),
		AbsorptionLengthMM: ej212Spectrum,
	})

	table.Add(&Material{
		Name:                     MaterialEJ212,
		ScintillationSpectrum:    ej212Spectrum,
		AbsorptionLengthMM:       scaleValues(readProperty(dataDir, fileEJ212Absorption), tracking.M),
		RefractiveIndex:          readProperty(dataDir, fileEJ212Index),
		ScintillationYieldPerMEV: ej212YieldPerMEV,
		FastTimeConstantNS:       ej212FastConstantNS,
		SlowTimeConstantNS:       ej212SlowConstantNS,
		FastComponentFraction:    1.0,
	})

	table.Add(&Material{
		Name:                     MaterialZnS,
		ScintillationSpectrum:    readProperty(dataDir, fileZnSSpectrum),
		AbsorptionLengthMM:       constantOnGrid(readProperty(dataDir, fileZnSAbsorption), znsAbsorptionMM),
		RefractiveIndex:          readProperty(dataDir, fileZnSIndex),
		ScintillationYieldPerMEV: znsYieldPerMEV,
		FastTimeConstantNS:       znsFastConstantNS,
		SlowTimeConstantNS:       znsSlowConstantNS,
		FastComponentFraction:    1.0,
	})

	table.Add(&Material{
		Name:               MaterialBorosilicate,
		AbsorptionLengthMM: scaleValues(readProperty(dataDir, fileBSGAbsorption), tracking.M),
		RefractiveIndex:    readProperty(dataDir, fileBSGIndex),
	})

	cargilleAbsorb := scaleValues(readProperty(dataDir, fileCargilleAbsorb), tracking.M)
	table.Add(&Material{
		Name:               MaterialCargille,
		AbsorptionLengthMM: cargilleAbsorb,
		RefractiveIndex:    constantOnGrid(cargilleAbsorb, cargilleIndex),
	})

	table.Add(&Material{
		Name:               MaterialPMMA,
		AbsorptionLengthMM: scaleValues(readProperty(dataDir, filePMMAAbsorption), tracking.M),
		RefractiveIndex:    constantOnGrid(readProperty(dataDir, filePMMAIndex), pmmaIndex),
	})

	table.Add(&Material{
		Name:         MaterialMylar,
		Reflectivity: readProperty(dataDir, fileMylarReflect),
	})

	table.Add(&Material{
		Name:         MaterialTeflon,
		Reflectivity: readProperty(dataDir, fileTeflonReflect),
	})

	qe := readProperty(dataDir, filePhotocathodeQE)
	table.PhotocathodeEfficiency = scaleValues(qe, quantumEffScale*collectionEffScale)

	return table
}

// readProperty opens one data file and parses it. A missing or unreadable
// file prints one diagnostic and yields an empty table.
func readProperty(dataDir, name string) *PropertyTable {
	path := filepath.Join(dataDir, name)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %s\n", path)
		return &PropertyTable{}
	}
	defer f.Close()

	return ParseProperty(f)
}

// scaleValues multiplies every sample value, converting the file's unit to
// the simulation's (absorption files carry meters).
func scaleValues(t *PropertyTable, factor float64) *PropertyTable {
	scaled := &PropertyTable{samples: make([]Sample, len(t.samples))}
	for i, s := range t.samples {
		scaled.samples[i] = Sample{WavelengthNM: s.WavelengthNM, Value: s.Value * factor}
	}
	return scaled
}

// constantOnGrid keeps the wavelength grid of t but replaces every value
// with a constant, the way the reference model defines constant-index
// materials. An empty grid falls back to a single-sample constant table.
func constantOnGrid(t *PropertyTable, value float64) *PropertyTable {
	if t.Empty() {
		return ConstantProperty(value)
	}

	c := &PropertyTable{samples: make([]Sample, len(t.samples))}
	for i, s := range t.samples {
		c.samples[i] = Sample{WavelengthNM: s.WavelengthNM, Value: value}
	}
	return c
}
