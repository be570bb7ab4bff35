package tally

// The record structs below hold scalar fields only so the data recorder can
// derive table schemas from them directly. EventID and WorkerID are stamped
// by the output writer; the tally leaves them zero.

// An EventRecord is the per-event optical summary. Energies follow the
// reference convention: the incident energy is in MeV, deposits in keV.
// The Frac columns are percentages of GeneratedTotal and read 0 when the
// event generated no photons.
type EventRecord struct {
	EventID  int
	WorkerID int

	IncidentE    float64
	DepositTotal float64
	DepositZnS   float64
	DepositSc    float64

	GeneratedTotal int
	GeneratedZnS   int
	GeneratedSc    int

	ScintillationZnS int
	ScintillationSc  int
	CerenkovZnS      int
	CerenkovSc       int

	BulkAbsTotal int
	BulkAbsZnS   int
	BulkAbsSc    int

	Absorbed int
	Escaped  int
	Failed   int
	Killed   int
	Detected int

	FracAbsorbed  float64
	FracBulkTotal float64
	FracBulkZnS   float64
	FracBulkSc    float64
	FracEscaped   float64
	FracFailed    float64
	FracKilled    float64
}

// A PhotonHit is one detected photon: where it landed on the photocathode,
// when, and the wavelength it was born with.
type PhotonHit struct {
	EventID  int
	WorkerID int

	X float64
	Y float64
	Z float64

	BirthWavelength         float64
	DetectedBirthWavelength float64
	TimeNS                  float64
	TotalLengthMM           float64
	AngleDetectionDeg       float64
}

// A PhotonBirth is one created photon's first-step direction and
// wavelength, recorded whether or not the photon is ever detected.
type PhotonBirth struct {
	EventID  int
	WorkerID int

	AngleCreationDeg  float64
	BirthWavelengthNM float64
}

// An InputRecord is the primary particle's state at its first step:
// position in mm, direction cosines, and kinetic energy in MeV.
type InputRecord struct {
	EventID  int
	WorkerID int

	X  float64
	Xp float64
	Y  float64
	Yp float64
	Z  float64
	Zp float64

	Energy float64
}

// A DetectorRecord is one closed charged-particle episode in a
// scintillating layer: entrance point in mm, track identity, entry kinetic
// energy in MeV, and the episode and whole-event deposits in keV.
type DetectorRecord struct {
	EventID  int
	WorkerID int

	XEntrance float64
	YEntrance float64
	ZEntrance float64

	ParentID   int
	ParticleID int

	Energy               float64
	DepositedEnergy      float64
	DepositedEnergyEvent float64
}
