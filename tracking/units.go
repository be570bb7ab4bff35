package tracking

// Lengths are measured in millimeters, times in nanoseconds, and energies in
// electron-volts throughout the simulation.
const (
	MM = 1.0
	CM = 10.0 * MM
	M  = 1000.0 * MM

	NS = 1.0

	EV  = 1.0
	KEV = 1000.0 * EV
	MEV = 1000.0 * KEV
)

// CLight is the speed of light in mm/ns.
const CLight = 299.792458

// WavelengthNM converts a photon energy in eV to its wavelength in nm.
func WavelengthNM(energyEV float64) float64 {
	return 1240.0 / energyEV
}

// PhotonEnergyEV converts a photon wavelength in nm to its energy in eV.
func PhotonEnergyEV(wavelengthNM float64) float64 {
	return 1240.0 / wavelengthNM
}
