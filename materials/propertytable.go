// Package materials holds the wavelength-dependent optical properties of
// every material in the detector stack, loaded from the delimited data files
// shipped with the detector model.
package materials

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
)

// A Sample is one point of a wavelength-indexed property.
type Sample struct {
	WavelengthNM float64
	Value        float64
}

// A PropertyTable is a piecewise-linear property indexed by wavelength.
type PropertyTable struct {
	samples []Sample
}

// AddSample inserts a sample, keeping the table ordered by wavelength.
func (t *PropertyTable) AddSample(wavelengthNM, value float64) {
	i := sort.Search(len(t.samples), func(i int) bool {
		return t.samples[i].WavelengthNM >= wavelengthNM
	})

	t.samples = append(t.samples, Sample{})
	copy(t.samples[i+1:], t.samples[i:])
	t.samples[i] = Sample{WavelengthNM: wavelengthNM, Value: value}
}

// Empty tells if the table holds no samples.
func (t *PropertyTable) Empty() bool {
	return t == nil || len(t.samples) == 0
}

// Len returns the number of samples.
func (t *PropertyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.samples)
}

// Lookup returns the property value at the given wavelength, interpolating
// linearly between samples and clamping outside the sampled range. Looking
// up an empty table returns 0.
func (t *PropertyTable) Lookup(wavelengthNM float64) float64 {
	if t.Empty() {
		return 0
	}

	s := t.samples
	if wavelengthNM <= s[0].WavelengthNM {
		return s[0].Value
	}
	if wavelengthNM >= s[len(s)-1].WavelengthNM {
		return s[len(s)-1].Value
	}

	i := sort.Search(len(s), func(i int) bool {
		return s[i].WavelengthNM >= wavelengthNM
	})

	lo, hi := s[i-1], s[i]
	if hi.WavelengthNM == lo.WavelengthNM {
		return lo.Value
	}

	f := (wavelengthNM - lo.WavelengthNM) / (hi.WavelengthNM - lo.WavelengthNM)
	return lo.Value + f*(hi.Value-lo.Value)
}

// SampleWavelength draws a wavelength from the table, treating the sample
// values as relative weights. u must be in [0, 1). An empty table returns 0.
func (t *PropertyTable) SampleWavelength(u float64) float64 {
	if t.Empty() {
		return 0
	}

	total := 0.0
	for _, s := range t.samples {
		total += s.Value
	}
	if total <= 0 {
		return t.samples[len(t.samples)/2].WavelengthNM
	}

	target := u * total
	acc := 0.0
	for _, s := range t.samples {
		acc += s.Value
		if acc >= target {
			return s.WavelengthNM
		}
	}

	return t.samples[len(t.samples)-1].WavelengthNM
}

// ParseProperty reads a delimited property file of the form
// "wavelength <filler> value", one sample per line, until EOF. Blank and
// malformed lines are skipped.
func ParseProperty(r io.Reader) *PropertyTable {
	table := &PropertyTable{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		wavelength, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}

		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}

		table.AddSample(wavelength, value)
	}

	return table
}

// ConstantProperty returns a one-sample table that looks up to the same
// value at every wavelength.
func ConstantProperty(value float64) *PropertyTable {
	t := &PropertyTable{}
	t.AddSample(0, value)
	return t
}
