package tech

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/siliconsmith/skytech/pkg/corners"
	"github.com/siliconsmith/skytech/pkg/lef"
	"github.com/siliconsmith/skytech/pkg/settings"
)

const (
	ioLibraryName = "sky130_fd_io"
	efIOLibrary   = "sky130_ef_io"
	wrappedGPIO   = "sky130_ef_io__gpiov2_pad_wrapped"
)

// Builder assembles a Descriptor from the configuration store and the
// installed vendor library trees.
type Builder struct {
	settings settings.Store
	log      *zap.Logger
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(st settings.Store, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{settings: st, log: log}
}

// GenConfig builds the technology descriptor for the configured stdcell
// family. The descriptor is rebuilt from scratch on every call; callers
// must treat the result as immutable.
//
// GenConfig has one documented side effect: selecting the family whose
// stdcell library lacks clock-gating cells disables the downstream
// clock-gating synthesis option in the settings store.
func (b *Builder) GenConfig() (*Descriptor, error) {
	slib, err := settings.GetString(b.settings, KeyStdcellLibrary)
	if err != nil {
		return nil, err
	}
	family, err := ParseFamily(slib)
	if err != nil {
		return nil, err
	}

	// Common tech LEF and IO cell spice netlists.
	libs := []Library{{
		SpiceFile: "$SKY130A/libs.ref/sky130_fd_io/spice/sky130_ef_io__analog.spice",
		Provides:  []Provide{{LibType: "IO library"}},
	}}
	switch family {
	case FamilySkyHD:
		libs = append(libs, Library{
			LEFFile:    "$SKY130A/sky130_fd_sc_hd__nom.tlef",
			VerilogSim: "cache/primitives.v",
			Provides:   []Provide{{LibType: "technology"}},
		})
	case FamilySCL:
		libs = append(libs, Library{
			LEFFile:    "$SKY130_SCL/lef/sky130_scl_9T.tlef",
			VerilogSim: "$SKY130_SCL/verilog/sky130_scl_9T.v",
			Provides:   []Provide{{LibType: "technology"}},
		})
	}

	ioLibs, err := b.genIOLibraries()
	if err != nil {
		return nil, err
	}
	libs = append(libs, ioLibs...)

	var (
		stackups []Stackup
		physOnly []string
		dontUse  []string
		special  []SpecialCell
	)

	switch family {
	case FamilySkyHD:
		physOnly = skyHDPhysicalOnly()
		dontUse = skyHDDontUse()
		special = skyHDSpecialCells()

		stdLibs, err := b.genSkyHDLibraries()
		if err != nil {
			return nil, err
		}
		libs = append(libs, stdLibs...)

		sky130A, err := settings.GetString(b.settings, KeySky130A)
		if err != nil {
			return nil, err
		}
		tlefPath := filepath.Join(sky130A, "libs.ref", SkyHDLibraryName, "techlef", SkyHDLibraryName+"__min.tlef")
		metals, err := lef.GetMetalsFromFile(tlefPath)
		if err != nil {
			return nil, err
		}
		stackups = append(stackups, Stackup{Name: slib, GridUnit: "0.001", Metals: metals})

	case FamilySCL:
		// The commercial stdcell library has no clock-gate cells, so
		// discrete clock gating cannot be used downstream.
		b.settings.Set(KeyClockGatingMode, "")

		physOnly = skyHDPhysicalOnly()
		dontUse = skyHDDontUse()
		special = sclSpecialCells()

		stdLibs, err := b.genSCLLibraries()
		if err != nil {
			return nil, err
		}
		libs = append(libs, stdLibs...)

		scl, err := settings.GetString(b.settings, KeySky130SCL)
		if err != nil {
			return nil, err
		}
		tlefPath := filepath.Join(scl, "lef", SCLLibraryName+"_9T.tlef")
		metals, err := lef.GetMetalsFromFile(tlefPath)
		if err != nil {
			return nil, err
		}
		stackups = append(stackups, Stackup{Name: slib, GridUnit: "0.001", Metals: metals})
	}

	desc := &Descriptor{
		Name:     "Skywater 130nm Library",
		GridUnit: "0.001",
		Installs: []PathPrefix{
			{ID: "$SKY130_NDA", Path: KeySky130NDA},
			{ID: "$SKY130A", Path: KeySky130A},
			{ID: "$SKY130_CDS", Path: KeySky130CDS},
			{ID: "$SKY130_SCL", Path: KeySky130SCL},
		},
		Libraries:         libs,
		GDSMapFile:        "sky130_lefpin.map",
		PhysicalOnlyCells: physOnly,
		DontUseList:       dontUse,
		DRCDecks: []DRCDeck{
			{ToolName: "calibre", DeckName: "calibre_drc", Path: "$SKY130_NDA/s8/V2.0.1/DRC/Calibre/s8_drcRules"},
			{ToolName: "klayout", DeckName: "klayout_drc", Path: "$SKY130A/libs.tech/klayout/drc/sky130A.lydrc"},
			{ToolName: "pegasus", DeckName: "pegasus_drc", Path: "$SKY130_CDS/Sky130_DRC/sky130_rev_0.0_1.0.drc.pvl"},
		},
		LVSDecks: []LVSDeck{
			{ToolName: "calibre", DeckName: "calibre_lvs", Path: "$SKY130_NDA/s8/V2.0.1/LVS/Calibre/lvsRules_s8"},
			{ToolName: "pegasus", DeckName: "pegasus_lvs", Path: "$SKY130_CDS/Sky130_LVS/Sky130_rev_0.0_0.1.lvs.pvl"},
		},
		Sites: []Site{
			{Name: "unithd", X: 0.46, Y: 2.72},
			{Name: "unithddbl", X: 0.46, Y: 5.44},
		},
		Stackups:     stackups,
		SpecialCells: special,
	}

	b.log.Info("generated technology descriptor",
		zap.String("stdcell_library", slib),
		zap.Int("libraries", len(desc.Libraries)))
	return desc, nil
}

// genIOLibraries scans the IO library corner files and emits one Library per
// accepted corner. A missing library directory is fatal; a directory that
// yields zero accepted corners is not.
func (b *Builder) genIOLibraries() ([]Library, error) {
	sky130A, err := settings.GetString(b.settings, KeySky130A)
	if err != nil {
		return nil, err
	}
	libDir := filepath.Join(sky130A, "libs.ref", ioLibraryName, "lib")
	names, err := listDir(libDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list IO library corners: %w", err)
	}

	// Symbolic root used inside the generated descriptor; resolved via the
	// installs table, not here.
	skywaterLibs := path.Join("$SKY130A", "libs.ref", ioLibraryName)

	var libs []Library
	for _, name := range names {
		corner, skip, err := corners.ParseIOLibFilename(name)
		if err != nil {
			return nil, err
		}
		if skip != corners.SkipNone {
			b.log.Debug("skipping IO corner file",
				zap.String("file", name), zap.Stringer("reason", skip))
			continue
		}

		var fileLib, gdsFile, lefFile, spiceFile string
		switch {
		case corner.Cell == wrappedGPIO:
			// The wrapped GPIO pad ships its own GDS.
			fileLib = efIOLibrary
			gdsFile = corner.Cell + ".gds"
			lefFile = "cache/" + efIOLibrary + ".lef"
			spiceFile = path.Join(skywaterLibs, "cdl", fileLib+".cdl")
		case strings.Contains(corner.Cell, efIOLibrary):
			fileLib = efIOLibrary
			gdsFile = fileLib + ".gds"
			lefFile = "cache/" + fileLib + ".lef"
			spiceFile = path.Join(skywaterLibs, "cdl", fileLib+".cdl")
		default:
			fileLib = ioLibraryName
			gdsFile = fileLib + ".gds"
			lefFile = path.Join(skywaterLibs, "lef", fileLib+".lef")
			spiceFile = path.Join(skywaterLibs, "spice", fileLib+".spice")
		}

		libs = append(libs, Library{
			NLDMLibertyFile: path.Join(skywaterLibs, "lib", name),
			VerilogSim:      path.Join(skywaterLibs, "verilog", fileLib+".v"),
			LEFFile:         lefFile,
			SpiceFile:       spiceFile,
			GDSFile:         path.Join(skywaterLibs, "gds", gdsFile),
			Corner: &Corner{
				NMOS:        corner.Speed,
				PMOS:        corner.Speed,
				Temperature: corner.Temperature,
			},
			Supplies: &Supplies{VDD: corner.Voltage, GND: "0 V"},
			Provides: []Provide{{LibType: corner.Cell, VT: "RVT"}},
		})
	}
	return libs, nil
}

// genSkyHDLibraries scans the open-source stdcell corner files.
func (b *Builder) genSkyHDLibraries() ([]Library, error) {
	sky130A, err := settings.GetString(b.settings, KeySky130A)
	if err != nil {
		return nil, err
	}
	libDir := filepath.Join(sky130A, "libs.ref", SkyHDLibraryName, "lib")
	names, err := listDir(libDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list stdcell corners: %w", err)
	}

	skywaterLibs := path.Join("$SKY130A", "libs.ref", SkyHDLibraryName)

	var libs []Library
	for _, lf := range corners.SelectStdcellLibFiles(names) {
		corner, err := corners.ParseStdcellFilename(lf.Base)
		if err != nil {
			return nil, err
		}
		libs = append(libs, Library{
			NLDMLibertyFile: path.Join(skywaterLibs, "lib", lf.Use),
			VerilogSim:      "cache/" + SkyHDLibraryName + ".v",
			LEFFile:         path.Join(skywaterLibs, "lef", SkyHDLibraryName+".lef"),
			SpiceFile:       "cache/" + SkyHDLibraryName + ".cdl",
			GDSFile:         path.Join(skywaterLibs, "gds", SkyHDLibraryName+".gds"),
			Corner: &Corner{
				NMOS:        corner.Speed,
				PMOS:        corner.Speed,
				Temperature: corner.Temperature,
			},
			Supplies: &Supplies{VDD: corner.Voltage, GND: "0 V"},
			Provides: []Provide{{LibType: "stdcell", VT: "RVT"}},
		})
	}
	return libs, nil
}

// genSCLLibraries scans the commercial stdcell corner files. Their filenames
// carry only the speed grade; temperature and voltage come from a fixed
// table since they do not match the open-source characterization points.
func (b *Builder) genSCLLibraries() ([]Library, error) {
	scl, err := settings.GetString(b.settings, KeySky130SCL)
	if err != nil {
		return nil, err
	}
	cds, err := settings.GetString(b.settings, KeySky130CDS)
	if err != nil {
		return nil, err
	}
	libDir := filepath.Join(scl, "lib")
	names, err := listDir(libDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list stdcell corners: %w", err)
	}

	var libs []Library
	for _, lf := range corners.SelectStdcellLibFiles(names) {
		speedCode := sclSpeedCode(lf.Base)
		speed, err := corners.ParseSpeed(speedCode)
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, lf.Base)
		}
		var temp, vdd string
		switch speed {
		case corners.SpeedFast:
			temp, vdd = "-40 C", "1.95 V"
		case corners.SpeedTypical:
			temp, vdd = "25 C", "1.80 V"
		case corners.SpeedSlow:
			temp, vdd = "100 C", "1.60 V"
		}

		libs = append(libs, Library{
			NLDMLibertyFile: path.Join(scl, "lib", lf.Use),
			VerilogSim:      "cache/" + SCLLibraryName + ".v",
			LEFFile:         path.Join(scl, "lef", SCLLibraryName+"_9T.lef"),
			SpiceFile:       "cache/" + SCLLibraryName + ".cdl",
			GDSFile:         path.Join(cds, "gds", SCLLibraryName+"_9T.gds"),
			Corner: &Corner{
				NMOS:        speed,
				PMOS:        speed,
				Temperature: temp,
			},
			Supplies: &Supplies{VDD: vdd, GND: "0 V"},
			Provides: []Provide{{LibType: "stdcell", VT: "RVT"}},
		})
	}
	return libs, nil
}

// sclSpeedCode extracts the speed grade token from a commercial corner
// filename, e.g. "sky130_ff.lib" -> "ff".
func sclSpeedCode(filename string) string {
	name := strings.TrimSuffix(filename, ".lib")
	name = strings.ReplaceAll(name, "sky130_", "")
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[:i]
	}
	return name
}

func skyHDPhysicalOnly() []string {
	return []string{
		"sky130_fd_sc_hd__tap_1", "sky130_fd_sc_hd__tap_2", "sky130_fd_sc_hd__tapvgnd_1", "sky130_fd_sc_hd__tapvpwrvgnd_1",
		"sky130_fd_sc_hd__fill_1", "sky130_fd_sc_hd__fill_2", "sky130_fd_sc_hd__fill_4", "sky130_fd_sc_hd__fill_8",
		"sky130_fd_sc_hd__diode_2",
	}
}

func skyHDDontUse() []string {
	return []string{
		"*sdf*",
		"sky130_fd_sc_hd__probe_p_*",
		"sky130_fd_sc_hd__probec_p_*",
	}
}

func skyHDSpecialCells() []SpecialCell {
	return []SpecialCell{
		{CellType: TieHiLoCell, Name: []string{"sky130_fd_sc_hd__conb_1"}},
		{CellType: TieHiCell, Name: []string{"sky130_fd_sc_hd__conb_1"}, OutputPorts: []string{"HI"}},
		{CellType: TieLoCell, Name: []string{"sky130_fd_sc_hd__conb_1"}, OutputPorts: []string{"LO"}},
		{CellType: EndCap, Name: []string{"sky130_fd_sc_hd__tap_1"}},
		{CellType: TapCell, Name: []string{"sky130_fd_sc_hd__tapvpwrvgnd_1"}},
		{CellType: StdFiller, Name: []string{"sky130_fd_sc_hd__fill_1", "sky130_fd_sc_hd__fill_2", "sky130_fd_sc_hd__fill_4", "sky130_fd_sc_hd__fill_8"}},
		{CellType: Decap, Name: []string{"sky130_fd_sc_hd__decap_3", "sky130_fd_sc_hd__decap_4", "sky130_fd_sc_hd__decap_6", "sky130_fd_sc_hd__decap_8", "sky130_fd_sc_hd__decap_12"}},
		{CellType: Driver, Name: []string{"sky130_fd_sc_hd__buf_4"}, InputPorts: []string{"A"}, OutputPorts: []string{"X"}},
		{CellType: CTSBuffer, Name: []string{"sky130_fd_sc_hd__clkbuf_1"}},
	}
}

func sclSpecialCells() []SpecialCell {
	fillers := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		fillers = append(fillers, fmt.Sprintf("FILL%d", i*i))
	}
	return []SpecialCell{
		{CellType: StdFiller, Name: fillers},
		{CellType: Driver, Name: []string{"TBUF"}, InputPorts: []string{"A"}, OutputPorts: []string{"Y"}},
		{CellType: CTSBuffer, Name: []string{"CLKBUFX2"}},
	}
}

// listDir returns the sorted filenames of dir so that generation ordering is
// stable across runs.
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
