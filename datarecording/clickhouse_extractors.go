package datarecording

import (
	"fmt"
	"reflect"
)

// The extractors below copy external record structs into the internal
// ClickHouse row types by field name. They are the slow path; InsertData
// tries a direct type assertion first. Matching by name keeps this package
// from importing the packages that define the records.

func structValue(entry any, kind string) reflect.Value {
	v := reflect.ValueOf(entry)
	if v.Kind() != reflect.Struct {
		panic(fmt.Sprintf("expected struct for %s entry, got %T", kind, entry))
	}
	return v
}

func intField(v reflect.Value, name string) int64 {
	if field := v.FieldByName(name); field.IsValid() {
		return field.Int()
	}
	return 0
}

func floatField(v reflect.Value, name string) float64 {
	if field := v.FieldByName(name); field.IsValid() {
		return field.Float()
	}
	return 0
}

func stringField(v reflect.Value, name string) string {
	if field := v.FieldByName(name); field.IsValid() {
		return field.String()
	}
	return ""
}

func extractEventEntry(entry any) eventEntryDB {
	v := structValue(entry, "event")

	return eventEntryDB{
		EventID:  intField(v, "EventID"),
		WorkerID: intField(v, "WorkerID"),

		IncidentE:    floatField(v, "IncidentE"),
		DepositTotal: floatField(v, "DepositTotal"),
		DepositZnS:   floatField(v, "DepositZnS"),
		DepositSc:    floatField(v, "DepositSc"),

		GeneratedTotal: intField(v, "GeneratedTotal"),
		GeneratedZnS:   intField(v, "GeneratedZnS"),
		GeneratedSc:    intField(v, "GeneratedSc"),

		ScintillationZnS: intField(v, "ScintillationZnS"),
		ScintillationSc:  intField(v, "ScintillationSc"),
		CerenkovZnS:      intField(v, "CerenkovZnS"),
		CerenkovSc:       intField(v, "CerenkovSc"),

		BulkAbsTotal: intField(v, "BulkAbsTotal"),
		BulkAbsZnS:   intField(v, "BulkAbsZnS"),
		BulkAbsSc:    intField(v, "BulkAbsSc"),

		Absorbed: intField(v, "Absorbed"),
		Escaped:  intField(v, "Escaped"),
		Failed:   intField(v, "Failed"),
		Killed:   intField(v, "Killed"),
		Detected: intField(v, "Detected"),

		FracAbsorbed:  floatField(v, "FracAbsorbed"),
		FracBulkTotal: floatField(v, "FracBulkTotal"),
		FracBulkZnS:   floatField(v, "FracBulkZnS"),
		FracBulkSc:    floatField(v, "FracBulkSc"),
		FracEscaped:   floatField(v, "FracEscaped"),
		FracFailed:    floatField(v, "FracFailed"),
		FracKilled:    floatField(v, "FracKilled"),
	}
}

func extractPhotonHitEntry(entry any) photonHitEntryDB {
	v := structValue(entry, "photon hit")

	return photonHitEntryDB{
		EventID:  intField(v, "EventID"),
		WorkerID: intField(v, "WorkerID"),

		X: floatField(v, "X"),
		Y: floatField(v, "Y"),
		Z: floatField(v, "Z"),

		BirthWavelength:         floatField(v, "BirthWavelength"),
		DetectedBirthWavelength: floatField(v, "DetectedBirthWavelength"),
		TimeNS:                  floatField(v, "TimeNS"),
		TotalLengthMM:           floatField(v, "TotalLengthMM"),
		AngleDetectionDeg:       floatField(v, "AngleDetectionDeg"),
	}
}

func extractPhotonBirthEntry(entry any) photonBirthEntryDB {
	v := structValue(entry, "photon birth")

	return photonBirthEntryDB{
		EventID:  intField(v, "EventID"),
		WorkerID: intField(v, "WorkerID"),

		AngleCreationDeg:  floatField(v, "AngleCreationDeg"),
		BirthWavelengthNM: floatField(v, "BirthWavelengthNM"),
	}
}

func extractInputEntry(entry any) inputEntryDB {
	v := structValue(entry, "input")

	return inputEntryDB{
		EventID:  intField(v, "EventID"),
		WorkerID: intField(v, "WorkerID"),

		X:  floatField(v, "X"),
		Xp: floatField(v, "Xp"),
		Y:  floatField(v, "Y"),
		Yp: floatField(v, "Yp"),
		Z:  floatField(v, "Z"),
		Zp: floatField(v, "Zp"),

		Energy: floatField(v, "Energy"),
	}
}

func extractDetectorEntry(entry any) detectorEntryDB {
	v := structValue(entry, "detector")

	return detectorEntryDB{
		EventID:  intField(v, "EventID"),
		WorkerID: intField(v, "WorkerID"),

		XEntrance: floatField(v, "XEntrance"),
		YEntrance: floatField(v, "YEntrance"),
		ZEntrance: floatField(v, "ZEntrance"),

		ParentID:   intField(v, "ParentID"),
		ParticleID: intField(v, "ParticleID"),

		Energy:               floatField(v, "Energy"),
		DepositedEnergy:      floatField(v, "DepositedEnergy"),
		DepositedEnergyEvent: floatField(v, "DepositedEnergyEvent"),
	}
}

func extractTrackTraceEntry(entry any) trackTraceEntryDB {
	v := structValue(entry, "track trace")

	return trackTraceEntryDB{
		TrackID:  intField(v, "TrackID"),
		ParentID: intField(v, "ParentID"),

		Particle:       stringField(v, "Particle"),
		CreatorProcess: stringField(v, "CreatorProcess"),
		BirthVolume:    stringField(v, "BirthVolume"),
		Fate:           stringField(v, "Fate"),

		WavelengthNM:  floatField(v, "WavelengthNM"),
		StartTimeNS:   floatField(v, "StartTimeNS"),
		EndTimeNS:     floatField(v, "EndTimeNS"),
		TrackLengthMM: floatField(v, "TrackLengthMM"),
	}
}
