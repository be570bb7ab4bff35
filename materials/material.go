package materials

// Material names used by the detector stack.
const (
	MaterialVacuum       = "Vacuum"
	MaterialVacuumWorld  = "VacuumWorld"
	MaterialAir          = "Air"
	MaterialEJ212        = "EJ212"
	MaterialZnS          = "ZnS"
	MaterialBorosilicate = "BorosilicateGlass"
	MaterialCargille     = "Cargille"
	MaterialPMMA         = "PMMA"
	MaterialMylar        = "Mylar"
	MaterialTeflon       = "Teflon"
)

// A Material bundles the optical properties one volume needs. Tables may be
// empty when the backing data file is missing; consumers degrade the same
// way the reference detector model does.
type Material struct {
	Name string

	RefractiveIndex       *PropertyTable
	AbsorptionLengthMM    *PropertyTable
	ScintillationSpectrum *PropertyTable

	// Reflectivity is only set on wrap materials (Teflon, Mylar).
	Reflectivity *PropertyTable

	ScintillationYieldPerMEV float64
	FastTimeConstantNS       float64
	SlowTimeConstantNS       float64

	// FastComponentFraction is the share of scintillation photons emitted
	// with the fast time constant. The remainder uses the slow one.
	FastComponentFraction float64
}

// HasRefractiveIndex tells if photons can refract into this material. A
// material without an index table ends optical tracks at its boundary.
func (m *Material) HasRefractiveIndex() bool {
	return !m.RefractiveIndex.Empty()
}

// RefractiveIndexAt returns the refractive index at the given wavelength.
func (m *Material) RefractiveIndexAt(wavelengthNM float64) float64 {
	return m.RefractiveIndex.Lookup(wavelengthNM)
}

// AbsorptionLengthAt returns the bulk absorption length in mm at the given
// wavelength. ok is false when no absorption data exists, which transport
// treats as an infinite absorption length.
func (m *Material) AbsorptionLengthAt(wavelengthNM float64) (length float64, ok bool) {
	if m.AbsorptionLengthMM.Empty() {
		return 0, false
	}
	return m.AbsorptionLengthMM.Lookup(wavelengthNM), true
}

// IsScintillator tells if charged-particle deposits produce optical photons
// in this material.
func (m *Material) IsScintillator() bool {
	return m.ScintillationYieldPerMEV > 0
}
