// Phoswich is a Monte Carlo simulation of optical photon transport in a
// ZnS:Ag + plastic scintillator phoswich detector.
package main

import "github.com/sarchlab/phoswich/cmd"

func main() {
	cmd.Execute()
}
