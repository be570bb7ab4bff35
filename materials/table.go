package materials

import "fmt"

// A Table is an explicitly constructed material registry. Geometry
// construction receives one by reference; there is no package-level
// singleton.
type Table struct {
	materials map[string]*Material
	order     []string

	// PhotocathodeEfficiency is the effective detection efficiency of the
	// PMT photocathode per wavelength, with the quantum- and
	// collection-efficiency factors already applied.
	PhotocathodeEfficiency *PropertyTable
}

// NewTable creates an empty material table.
func NewTable() *Table {
	return &Table{
		materials: make(map[string]*Material),
	}
}

// Add registers a material. Registering the same name twice panics.
func (t *Table) Add(m *Material) {
	if _, ok := t.materials[m.Name]; ok {
		panic(fmt.Sprintf("material %s already registered", m.Name))
	}

	t.materials[m.Name] = m
	t.order = append(t.order, m.Name)
}

// Get returns the named material.
func (t *Table) Get(name string) (*Material, error) {
	m, ok := t.materials[name]
	if !ok {
		return nil, fmt.Errorf("material %s not found", name)
	}
	return m, nil
}

// MustGet returns the named material and panics if it was never registered.
// Geometry construction uses it for the fixed stack materials.
func (t *Table) MustGet(name string) *Material {
	m, err := t.Get(name)
	if err != nil {
		panic(err)
	}
	return m
}

// Names lists the registered materials in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}
