package tech

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/siliconsmith/skytech/pkg/corners"
	"github.com/siliconsmith/skytech/pkg/settings"
)

const testTLEF = `
LAYER li1
  TYPE ROUTING ;
  DIRECTION VERTICAL ;
  PITCH 0.46 ;
  OFFSET 0.23 ;
  WIDTH 0.17 ;
  SPACING 0.17 ;
END li1

LAYER met1
  TYPE ROUTING ;
  DIRECTION HORIZONTAL ;
  PITCH 0.34 ;
  OFFSET 0.17 ;
  WIDTH 0.14 ;
  SPACING 0.14 ;
END met1
`

// writePDKTree lays out a minimal open-source PDK install with IO and
// stdcell corner files.
func writePDKTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	ioLib := filepath.Join(root, "libs.ref", "sky130_fd_io", "lib")
	require.NoError(t, os.MkdirAll(ioLib, 0o755))
	for _, name := range []string{
		"sky130_ef_io__top_power_hvc_ff_ff_n40C_1v95_5v50.lib",
		"sky130_fd_io__top_gpiov2_tt_025C_1v80_3v30.lib",
		// Filtered: low-voltage variant, cross corner, no internal power.
		"sky130_fd_io__top_gpiov2_tt_025C_1v80_1v80.lib",
		"sky130_fd_io__top_gpiov2_ff_ss_n40C_1v95_5v50.lib",
		"sky130_fd_io__top_gpiov2_tt_025C_1v80_3v30_nointpwr.lib",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(ioLib, name), nil, 0o644))
	}

	stdLib := filepath.Join(root, "libs.ref", "sky130_fd_sc_hd", "lib")
	require.NoError(t, os.MkdirAll(stdLib, 0o755))
	for _, name := range []string{
		"sky130_fd_sc_hd__tt_025C_1v80.lib",
		"sky130_fd_sc_hd__tt_025C_1v80_ccsnoise.lib",
		"sky130_fd_sc_hd__ss_100C_1v60.lib",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(stdLib, name), nil, 0o644))
	}

	techlef := filepath.Join(root, "libs.ref", "sky130_fd_sc_hd", "techlef")
	require.NoError(t, os.MkdirAll(techlef, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(techlef, "sky130_fd_sc_hd__min.tlef"), []byte(testTLEF), 0o644))

	return root
}

func newTestStore(root string) *settings.MapStore {
	st := settings.NewMapStore()
	st.Set(KeyStdcellLibrary, SkyHDLibraryName)
	st.Set(KeySky130A, root)
	return st
}

func TestGenConfigSkyHD(t *testing.T) {
	root := writePDKTree(t)
	st := newTestStore(root)

	desc, err := NewBuilder(st, nil).GenConfig()
	require.NoError(t, err)

	require.Equal(t, "Skywater 130nm Library", desc.Name)
	require.Equal(t, "0.001", desc.GridUnit)

	// 1 IO spice + 1 tech LEF + 2 accepted IO corners + 2 stdcell corners.
	require.Len(t, desc.Libraries, 6)

	// The ef_io corner resolves to the cached LEF and shared CDL.
	var efIO *Library
	for i := range desc.Libraries {
		if len(desc.Libraries[i].Provides) > 0 && desc.Libraries[i].Provides[0].LibType == "sky130_ef_io__top_power_hvc" {
			efIO = &desc.Libraries[i]
		}
	}
	require.NotNil(t, efIO, "ef_io corner library missing")
	want := Library{
		NLDMLibertyFile: "$SKY130A/libs.ref/sky130_fd_io/lib/sky130_ef_io__top_power_hvc_ff_ff_n40C_1v95_5v50.lib",
		VerilogSim:      "$SKY130A/libs.ref/sky130_fd_io/verilog/sky130_ef_io.v",
		LEFFile:         "cache/sky130_ef_io.lef",
		SpiceFile:       "$SKY130A/libs.ref/sky130_fd_io/cdl/sky130_ef_io.cdl",
		GDSFile:         "$SKY130A/libs.ref/sky130_fd_io/gds/sky130_ef_io.gds",
		Corner:          &Corner{NMOS: corners.SpeedFast, PMOS: corners.SpeedFast, Temperature: "-40 C"},
		Supplies:        &Supplies{VDD: "1.95 V", GND: "0 V"},
		Provides:        []Provide{{LibType: "sky130_ef_io__top_power_hvc", VT: "RVT"}},
	}
	if diff := cmp.Diff(want, *efIO); diff != "" {
		t.Errorf("ef_io library mismatch (-want +got):\n%s", diff)
	}

	// Stdcell corners prefer the ccsnoise twin when one exists.
	var ttStd *Library
	for i := range desc.Libraries {
		lib := &desc.Libraries[i]
		if len(lib.Provides) > 0 && lib.Provides[0].LibType == "stdcell" && lib.Corner.NMOS == corners.SpeedTypical {
			ttStd = lib
		}
	}
	require.NotNil(t, ttStd, "typical stdcell corner missing")
	require.Equal(t, "$SKY130A/libs.ref/sky130_fd_sc_hd/lib/sky130_fd_sc_hd__tt_025C_1v80_ccsnoise.lib", ttStd.NLDMLibertyFile)
	require.Equal(t, &Supplies{VDD: "1.80 V", GND: "0 V"}, ttStd.Supplies)

	// Stackup from the tech LEF.
	require.Len(t, desc.Stackups, 1)
	require.Equal(t, SkyHDLibraryName, desc.Stackups[0].Name)
	require.Len(t, desc.Stackups[0].Metals, 2)

	// Family classification tables.
	endcaps := desc.SpecialCellsByType(EndCap)
	require.Len(t, endcaps, 1)
	require.Equal(t, []string{"sky130_fd_sc_hd__tap_1"}, endcaps[0].Name)
	require.Contains(t, desc.DontUseList, "*sdf*")
	require.Contains(t, desc.PhysicalOnlyCells, "sky130_fd_sc_hd__diode_2")

	// The open-source family keeps clock gating untouched.
	_, written := st.Get(KeyClockGatingMode)
	require.False(t, written)
}

func TestGenConfigSCL(t *testing.T) {
	root := writePDKTree(t)

	scl := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(scl, "lib"), 0o755))
	for _, name := range []string{"sky130_ff.lib", "sky130_tt.lib", "sky130_ss.lib"} {
		require.NoError(t, os.WriteFile(filepath.Join(scl, "lib", name), nil, 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(scl, "lef"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scl, "lef", "sky130_scl_9T.tlef"), []byte(testTLEF), 0o644))

	st := newTestStore(root)
	st.Set(KeyStdcellLibrary, SCLLibraryName)
	st.Set(KeySky130SCL, scl)
	st.Set(KeySky130CDS, filepath.Join(scl, "cds"))

	desc, err := NewBuilder(st, nil).GenConfig()
	require.NoError(t, err)

	// Corner points come from the fixed table, not the filename.
	var fast *Library
	for i := range desc.Libraries {
		lib := &desc.Libraries[i]
		if len(lib.Provides) > 0 && lib.Provides[0].LibType == "stdcell" && lib.Corner.NMOS == corners.SpeedFast {
			fast = lib
		}
	}
	require.NotNil(t, fast)
	require.Equal(t, "-40 C", fast.Corner.Temperature)
	require.Equal(t, "1.95 V", fast.Supplies.VDD)

	// No clock-gate cells in this family: the synthesis option is
	// disabled as part of generation.
	mode, written := st.Get(KeyClockGatingMode)
	require.True(t, written)
	require.Equal(t, "", mode)

	// No endcap role is defined for this family.
	require.Empty(t, desc.SpecialCellsByType(EndCap))
	fillers := desc.SpecialCellsByType(StdFiller)
	require.Len(t, fillers, 1)
	require.Equal(t, []string{"FILL0", "FILL1", "FILL4", "FILL9", "FILL16", "FILL25", "FILL36"}, fillers[0].Name)
}

func TestGenConfigSCLRejectsUnknownSpeedGrade(t *testing.T) {
	root := writePDKTree(t)

	scl := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(scl, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scl, "lib", "sky130_fs.lib"), nil, 0o644))

	st := newTestStore(root)
	st.Set(KeyStdcellLibrary, SCLLibraryName)
	st.Set(KeySky130SCL, scl)
	st.Set(KeySky130CDS, filepath.Join(scl, "cds"))

	_, err := NewBuilder(st, nil).GenConfig()
	require.ErrorIs(t, err, corners.ErrUnrecognizedCorner)
	require.ErrorContains(t, err, "sky130_fs.lib")
}

func TestGenConfigRejectsUnknownFamily(t *testing.T) {
	st := settings.NewMapStore()
	st.Set(KeyStdcellLibrary, "sky130_fd_sc_hs")
	_, err := NewBuilder(st, nil).GenConfig()
	require.ErrorIs(t, err, ErrUnknownFamily)
}

func TestGenConfigMissingLibraryDirIsFatal(t *testing.T) {
	st := settings.NewMapStore()
	st.Set(KeyStdcellLibrary, SkyHDLibraryName)
	st.Set(KeySky130A, filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := NewBuilder(st, nil).GenConfig()
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolvePath(t *testing.T) {
	root := writePDKTree(t)
	st := newTestStore(root)

	desc, err := NewBuilder(st, nil).GenConfig()
	require.NoError(t, err)

	p, err := desc.ResolvePath(st, "$SKY130A/libs.ref/sky130_fd_io/gds/sky130_ef_io.gds")
	require.NoError(t, err)
	require.Equal(t, filepath.ToSlash(root)+"/libs.ref/sky130_fd_io/gds/sky130_ef_io.gds", filepath.ToSlash(p))

	// Relative cache paths have no prefix and pass through.
	p, err = desc.ResolvePath(st, "cache/sky130_ef_io.lef")
	require.NoError(t, err)
	require.Equal(t, "cache/sky130_ef_io.lef", p)

	// A registered prefix without an installed root is an error.
	_, err = desc.ResolvePath(st, "$SKY130_SCL/lef/sky130_scl_9T.tlef")
	require.Error(t, err)
}

func TestSpecialCellConstructorRejectsUnknownRole(t *testing.T) {
	_, err := NewSpecialCell("welltap", []string{"x"})
	require.Error(t, err)
	var zero SpecialCell
	sc, err := NewSpecialCell(TapCell, []string{"sky130_fd_sc_hd__tapvpwrvgnd_1"})
	require.NoError(t, err)
	require.NotEqual(t, zero, sc)
}
