// Package macro parses the batch command file that configures a run. The
// command vocabulary is a small fixed set; anything outside it is an error,
// because a misread batch configuration must abort instead of silently
// running the wrong simulation.
package macro

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/phoswich/tracking"
)

// A Command is one macro line split into its name and arguments.
type Command struct {
	// Line is the 1-based line number the command was read from.
	Line int

	Name string
	Args []string
}

// Commands is a macro file in file order.
type Commands []Command

// Settings collects everything a macro file may configure. Fields the file
// does not mention keep the values the caller seeded.
type Settings struct {
	Particle  string
	EnergyEV  float64
	Position  tracking.Vector3
	Direction tracking.Vector3

	PhotonTracking bool

	// ScintYieldPerMEV and ZnSYieldPerMEV override the material table's
	// scintillation yields. Zero keeps the table value.
	ScintYieldPerMEV float64
	ZnSYieldPerMEV   float64

	Verbosity     int
	PrintProgress int
}

// DefaultSettings returns the default run settings: a 5.5 MeV alpha fired from
// (-10, 0, 0) mm along +X with photon tracking on.
func DefaultSettings() *Settings {
	return &Settings{
		Particle:       tracking.ParticleAlpha,
		EnergyEV:       5.5 * tracking.MEV,
		Position:       tracking.Vector3{X: -10 * tracking.MM},
		Direction:      tracking.Vector3{X: 1},
		PhotonTracking: true,
	}
}

// Parse reads a macro file. Blank lines and lines starting with # are
// skipped; everything else is tokenized into a Command. Validation happens
// in Apply.
func Parse(path string) (Commands, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("macro: %w", err)
	}
	defer f.Close()

	var cmds Commands
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		cmds = append(cmds, Command{
			Line: line,
			Name: fields[0],
			Args: fields[1:],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("macro: reading %v: %w", path, err)
	}

	return cmds, nil
}

// Apply runs every command against the settings, stopping at the first
// unknown command or malformed argument.
func Apply(cmds Commands, s *Settings) error {
	if s == nil {
		return fmt.Errorf("macro: nil settings")
	}

	for _, c := range cmds {
		if err := c.apply(s); err != nil {
			return err
		}
	}

	return nil
}

func (c Command) apply(s *Settings) error {
	switch c.Name {
	case "/gps/particle":
		if err := c.wantArgs(1); err != nil {
			return err
		}
		s.Particle = c.Args[0]

	case "/gps/energy":
		if err := c.wantArgs(2); err != nil {
			return err
		}
		value, err := c.floatArg(0)
		if err != nil {
			return err
		}
		unit, err := c.energyUnit(c.Args[1])
		if err != nil {
			return err
		}
		s.EnergyEV = value * unit

	case "/gps/position":
		if err := c.wantArgs(4); err != nil {
			return err
		}
		v, err := c.vectorArg()
		if err != nil {
			return err
		}
		unit, err := c.lengthUnit(c.Args[3])
		if err != nil {
			return err
		}
		s.Position = v.Scale(unit)

	case "/gps/direction":
		if err := c.wantArgs(3); err != nil {
			return err
		}
		v, err := c.vectorArg()
		if err != nil {
			return err
		}
		if v.Length() == 0 {
			return c.errorf("direction must not be the zero vector")
		}
		s.Direction = v

	case "/phoswich/photonTracking":
		if err := c.wantArgs(1); err != nil {
			return err
		}
		switch c.Args[0] {
		case "on":
			s.PhotonTracking = true
		case "off":
			s.PhotonTracking = false
		default:
			return c.errorf("want on or off, got %q", c.Args[0])
		}

	case "/phoswich/scintYield":
		yield, err := c.yieldArg()
		if err != nil {
			return err
		}
		s.ScintYieldPerMEV = yield

	case "/phoswich/znsYield":
		yield, err := c.yieldArg()
		if err != nil {
			return err
		}
		s.ZnSYieldPerMEV = yield

	case "/phoswich/verbose":
		level, err := c.countArg()
		if err != nil {
			return err
		}
		s.Verbosity = level

	case "/run/printProgress":
		every, err := c.countArg()
		if err != nil {
			return err
		}
		s.PrintProgress = every

	default:
		return c.errorf("unknown command")
	}

	return nil
}

func (c Command) wantArgs(n int) error {
	if len(c.Args) != n {
		return c.errorf("want %d arguments, got %d", n, len(c.Args))
	}
	return nil
}

func (c Command) floatArg(i int) (float64, error) {
	v, err := strconv.ParseFloat(c.Args[i], 64)
	if err != nil {
		return 0, c.errorf("argument %d is not a number: %q", i+1, c.Args[i])
	}
	return v, nil
}

// vectorArg parses the first three arguments as a vector.
func (c Command) vectorArg() (tracking.Vector3, error) {
	var parts [3]float64
	for i := range parts {
		v, err := c.floatArg(i)
		if err != nil {
			return tracking.Vector3{}, err
		}
		parts[i] = v
	}
	return tracking.Vector3{X: parts[0], Y: parts[1], Z: parts[2]}, nil
}

func (c Command) yieldArg() (float64, error) {
	if err := c.wantArgs(1); err != nil {
		return 0, err
	}
	yield, err := c.floatArg(0)
	if err != nil {
		return 0, err
	}
	if yield <= 0 {
		return 0, c.errorf("yield must be positive, got %v", yield)
	}
	return yield, nil
}

func (c Command) countArg() (int, error) {
	if err := c.wantArgs(1); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(c.Args[0])
	if err != nil {
		return 0, c.errorf("argument is not an integer: %q", c.Args[0])
	}
	if n < 0 {
		return 0, c.errorf("argument must not be negative, got %d", n)
	}
	return n, nil
}

func (c Command) energyUnit(name string) (float64, error) {
	switch name {
	case "eV":
		return tracking.EV, nil
	case "keV":
		return tracking.KEV, nil
	case "MeV":
		return tracking.MEV, nil
	}
	return 0, c.errorf("unknown energy unit %q", name)
}

func (c Command) lengthUnit(name string) (float64, error) {
	switch name {
	case "mm":
		return tracking.MM, nil
	case "cm":
		return tracking.CM, nil
	case "m":
		return tracking.M, nil
	}
	return 0, c.errorf("unknown length unit %q", name)
}

func (c Command) errorf(format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return fmt.Errorf("macro line %d: %v: %v", c.Line, c.Name, detail)
}
