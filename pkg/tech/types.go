// Package tech defines the technology descriptor data model and the builder
// that assembles a descriptor from vendor characterization data, static
// classification tables, and the technology LEF stackup.
package tech

import (
	"fmt"
	"strings"

	"github.com/siliconsmith/skytech/pkg/corners"
	"github.com/siliconsmith/skytech/pkg/lef"
	"github.com/siliconsmith/skytech/pkg/settings"
)

// Corner tags a library with its characterization corner. NMOS and PMOS
// speeds are recorded separately in the descriptor format, but this
// generator only produces libraries where they are equal (cross-corner
// files are filtered out at parse time).
type Corner struct {
	NMOS        corners.Speed `json:"nmos"`
	PMOS        corners.Speed `json:"pmos"`
	Temperature string        `json:"temperature"`
}

// Supplies is a library's supply-voltage pair.
type Supplies struct {
	VDD string `json:"VDD"`
	GND string `json:"GND"`
}

// Provide is one capability tag of a library ("stdcell", "IO library",
// "technology", or a specific cell identity).
type Provide struct {
	LibType string `json:"lib_type"`
	VT      string `json:"vt,omitempty"`
}

// Library is one named collection of artifact paths tagged with an optional
// corner and supply pair. Libraries are constructed once per vendor file and
// never mutated afterwards.
type Library struct {
	NLDMLibertyFile string    `json:"nldm_liberty_file,omitempty"`
	VerilogSim      string    `json:"verilog_sim,omitempty"`
	LEFFile         string    `json:"lef_file,omitempty"`
	SpiceFile       string    `json:"spice_file,omitempty"`
	GDSFile         string    `json:"gds_file,omitempty"`
	Corner          *Corner   `json:"corner,omitempty"`
	Supplies        *Supplies `json:"supplies,omitempty"`
	Provides        []Provide `json:"provides,omitempty"`
}

// CellType is the closed set of special-cell roles.
type CellType string

const (
	TieHiLoCell CellType = "tiehilocell"
	TieHiCell   CellType = "tiehicell"
	TieLoCell   CellType = "tielocell"
	EndCap      CellType = "endcap"
	TapCell     CellType = "tapcell"
	StdFiller   CellType = "stdfiller"
	Decap       CellType = "decap"
	Driver      CellType = "driver"
	CTSBuffer   CellType = "ctsbuffer"
)

// Valid reports whether c names a recognized special-cell role.
func (c CellType) Valid() bool {
	switch c {
	case TieHiLoCell, TieHiCell, TieLoCell, EndCap, TapCell, StdFiller, Decap, Driver, CTSBuffer:
		return true
	}
	return false
}

// SpecialCell maps one special-cell role to its concrete cell identities.
// Driver-type roles additionally record the input and output port names.
type SpecialCell struct {
	CellType    CellType `json:"cell_type"`
	Name        []string `json:"name"`
	InputPorts  []string `json:"input_ports,omitempty"`
	OutputPorts []string `json:"output_ports,omitempty"`
}

// NewSpecialCell builds a SpecialCell, rejecting unknown role tags at
// construction time rather than letting them fall through at lookup.
func NewSpecialCell(cellType CellType, names []string) (SpecialCell, error) {
	if !cellType.Valid() {
		return SpecialCell{}, fmt.Errorf("unknown special cell type %q", cellType)
	}
	if len(names) == 0 {
		return SpecialCell{}, fmt.Errorf("special cell type %q has no cell names", cellType)
	}
	return SpecialCell{CellType: cellType, Name: names}, nil
}

// PathPrefix maps a symbolic path prefix used in library entries to the
// settings key holding the installed filesystem root.
type PathPrefix struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Stackup is the ordered interconnect description for one stdcell family.
type Stackup struct {
	Name     string      `json:"name"`
	GridUnit string      `json:"grid_unit"`
	Metals   []lef.Metal `json:"metals"`
}

// Site is a placement site definition.
type Site struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// DRCDeck references one DRC rule deck for a verification tool.
type DRCDeck struct {
	ToolName string `json:"tool_name"`
	DeckName string `json:"deck_name"`
	Path     string `json:"path"`
}

// LVSDeck references one LVS rule deck for a verification tool.
type LVSDeck struct {
	ToolName string `json:"tool_name"`
	DeckName string `json:"deck_name"`
	Path     string `json:"path"`
}

// Descriptor is the complete technology description handed to the host for
// serialization and tool invocation. It is rebuilt from scratch on every
// generation call and treated as immutable afterwards.
type Descriptor struct {
	Name              string        `json:"name"`
	GridUnit          string        `json:"grid_unit"`
	Installs          []PathPrefix  `json:"installs"`
	Libraries         []Library     `json:"libraries"`
	GDSMapFile        string        `json:"gds_map_file"`
	PhysicalOnlyCells []string      `json:"physical_only_cells_list"`
	DontUseList       []string      `json:"dont_use_list"`
	DRCDecks          []DRCDeck     `json:"drc_decks"`
	LVSDecks          []LVSDeck     `json:"lvs_decks"`
	Sites             []Site        `json:"sites"`
	Stackups          []Stackup     `json:"stackups"`
	SpecialCells      []SpecialCell `json:"special_cells"`
}

// SpecialCellsByType returns the cells registered for one role, in
// registration order.
func (d *Descriptor) SpecialCellsByType(t CellType) []SpecialCell {
	var out []SpecialCell
	for _, sc := range d.SpecialCells {
		if sc.CellType == t {
			out = append(out, sc)
		}
	}
	return out
}

// ResolvePath expands a symbolic install prefix ("$SKY130A/...") in a library
// artifact path to the installed filesystem root the settings store points
// at. Paths without a registered prefix are returned unchanged; a registered
// prefix whose settings key is undefined is an error.
func (d *Descriptor) ResolvePath(st settings.Store, p string) (string, error) {
	if !strings.HasPrefix(p, "$") {
		return p, nil
	}
	for _, install := range d.Installs {
		if p == install.ID || strings.HasPrefix(p, install.ID+"/") {
			root, err := settings.GetString(st, install.Path)
			if err != nil {
				return "", fmt.Errorf("cannot resolve %s: %w", install.ID, err)
			}
			return root + p[len(install.ID):], nil
		}
	}
	return p, nil
}
