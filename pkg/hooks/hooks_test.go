package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/sram"
	"github.com/siliconsmith/skytech/pkg/tech"
)

// fakeSession records appended script text and serves canned flow state.
type fakeSession struct {
	appended []string
	mode     HierarchicalMode
	power    []Net
	ground   []Net
	cells    map[tech.CellType][]tech.SpecialCell
	runFile  string
	store    settings.Store
}

func (f *fakeSession) Append(text string) { f.appended = append(f.appended, text) }

func (f *fakeSession) HierarchicalMode() HierarchicalMode { return f.mode }

func (f *fakeSession) PowerNets() []Net { return f.power }

func (f *fakeSession) GroundNets() []Net { return f.ground }

func (f *fakeSession) RunFile() string { return f.runFile }

func (f *fakeSession) Settings() settings.Store { return f.store }

func (f *fakeSession) SpecialCells(t tech.CellType) []tech.SpecialCell {
	return f.cells[t]
}

func (f *fakeSession) script() string { return strings.Join(f.appended, "") }

func hookNames(hooks []Hook) []string {
	names := make([]string, len(hooks))
	for i, h := range hooks {
		names[i] = h.Name
	}
	return names
}

func TestParseTool(t *testing.T) {
	for _, name := range []string{"innovus", "calibre", "pegasus", "klayout"} {
		tool, err := ParseTool(name)
		require.NoError(t, err)
		require.Equal(t, name, tool.String())
	}
	_, err := ParseTool("magic")
	require.Error(t, err)
}

func TestNewRegistryBaseHooks(t *testing.T) {
	st := settings.NewMapStore()
	r, err := NewRegistry(&tech.Descriptor{}, st, nil)
	require.NoError(t, err)

	require.Equal(t, []string{
		"innovus_settings",
		"add_endcaps",
		"connect_nets",
		"connect_nets",
	}, hookNames(r.ForTool(ToolInnovus)))

	innovus := r.ForTool(ToolInnovus)
	require.Equal(t, "init_design", innovus[0].Step)
	require.Equal(t, PostStep, innovus[0].Position)
	require.Equal(t, "place_tap_cells", innovus[1].Step)
	require.Equal(t, PreStep, innovus[1].Position)

	// Without blackboxing or sram22 only the deck rewrite remains.
	require.Equal(t, []string{"setup_calibre_lvs_deck"}, hookNames(r.ForTool(ToolCalibre)))
	require.Empty(t, r.ForTool(ToolPegasus))
	require.Empty(t, r.ForTool(ToolKlayout))
}

func TestNewRegistryBlackboxHooks(t *testing.T) {
	st := settings.NewMapStore()
	st.Set(tech.KeyDRCBlackboxSRAMs, true)
	st.Set(tech.KeyLVSBlackboxSRAMs, true)
	st.Set(tech.KeySRAM22Macros, t.TempDir())

	r, err := NewRegistry(&tech.Descriptor{}, st, nil)
	require.NoError(t, err)

	require.Equal(t, []string{
		"calibre_drc_blackbox_srams",
		"setup_calibre_lvs_deck",
		"sram22_recognize_gates_all",
		"calibre_lvs_blackbox_srams",
	}, hookNames(r.ForTool(ToolCalibre)))
	require.Equal(t, []string{
		"pegasus_drc_blackbox_srams",
		"pegasus_lvs_blackbox_srams",
	}, hookNames(r.ForTool(ToolPegasus)))
}

func TestNewRegistrySRAM22RequiresInstalledPath(t *testing.T) {
	st := settings.NewMapStore()
	st.Set(tech.KeySRAM22Macros, filepath.Join(t.TempDir(), "missing"))
	r, err := NewRegistry(&tech.Descriptor{}, st, nil)
	require.NoError(t, err)
	require.NotContains(t, hookNames(r.ForTool(ToolCalibre)), "sram22_recognize_gates_all")
}

func TestInnovusSettingsSnapsDieForTopModules(t *testing.T) {
	for _, tc := range []struct {
		mode HierarchicalMode
		snap bool
	}{
		{ModeTop, true},
		{ModeFlat, true},
		{ModeLeaf, false},
		{ModeHierarchical, false},
	} {
		s := &fakeSession{mode: tc.mode}
		require.NoError(t, InnovusSettings(s))
		require.Contains(t, s.script(), "set_db place_global_place_io_pins  true")
		if tc.snap {
			require.Contains(t, s.script(), "floorplan_snap_die_grid manufacturing")
		} else {
			require.NotContains(t, s.script(), "floorplan_snap_die_grid")
		}
	}
}

func TestAddEndcaps(t *testing.T) {
	s := &fakeSession{cells: map[tech.CellType][]tech.SpecialCell{
		tech.EndCap: {{CellType: tech.EndCap, Name: []string{"sky130_fd_sc_hd__tap_1"}}},
	}}
	require.NoError(t, AddEndcaps(s))
	require.Contains(t, s.script(), "set_db add_endcaps_left_edge        sky130_fd_sc_hd__tap_1")
	require.Contains(t, s.script(), "add_endcaps\n")
}

func TestAddEndcapsFailsWithoutEndcapCell(t *testing.T) {
	s := &fakeSession{cells: map[tech.CellType][]tech.SpecialCell{}}
	err := AddEndcaps(s)
	require.ErrorIs(t, err, ErrNoSpecialCell)
	require.Empty(t, s.appended)
}

func TestConnectNetsPairsTiedNets(t *testing.T) {
	s := &fakeSession{
		power:  []Net{{Name: "VDD", Tie: "VPWR"}},
		ground: []Net{{Name: "VSS", Tie: "VGND"}, {Name: "VSS_AUX"}},
	}
	require.NoError(t, ConnectNets(s))
	// Two lines per tied net; the untied net is skipped.
	require.Len(t, s.appended, 4)
	require.Contains(t, s.appended[0], "connect_global_net VPWR -type pg_pin -pin_base_name VDD")
	require.Contains(t, s.appended[1], "connect_global_net VPWR -type net    -net_base_name VDD")
	require.NotContains(t, s.script(), "VSS_AUX")
}

func TestEfablessRingIO(t *testing.T) {
	st := settings.NewMapStore()
	st.Set(tech.KeyIOFile, "pads.io")
	s := &fakeSession{
		power:  []Net{{Name: "VDD"}},
		ground: []Net{{Name: "VSS"}},
		store:  st,
	}
	require.NoError(t, EfablessRingIO(s))
	script := s.script()
	require.Contains(t, script, "read_io_file pads.io -no_die_size_adjust")
	require.Contains(t, script, "connect_global_net VDD -type pg_pin -pin_base_name VCCD*")
	require.Contains(t, script, "connect_global_net VSS -type pg_pin -pin_base_name VSSD*")
	require.Contains(t, script, "add_io_fillers -prefix IO_FILLER -io_ring 1 -cells $io_fillers -side left -filler_orient r90")
	require.Contains(t, script, "add_rings -follow io -layer met5 -nets { VDD VSS }")
}

func TestEfablessRingIORequiresSupplyNets(t *testing.T) {
	st := settings.NewMapStore()
	st.Set(tech.KeyIOFile, "pads.io")
	s := &fakeSession{store: st}
	require.Error(t, EfablessRingIO(s))
}

func newRunFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "run_file")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDRCBlackboxActionsAppendExcludes(t *testing.T) {
	names, err := sram.Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	s := &fakeSession{runFile: newRunFile(t, "LAYOUT PATH design.gds\n")}
	require.NoError(t, CalibreDRCBlackboxSRAMs(s))
	data, err := os.ReadFile(s.runFile)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "LAYOUT PATH design.gds\n"))
	for _, name := range names {
		require.Contains(t, string(data), "\nEXCLUDE CELL "+name)
	}

	s = &fakeSession{runFile: newRunFile(t, "")}
	require.NoError(t, PegasusDRCBlackboxSRAMs(s))
	data, err = os.ReadFile(s.runFile)
	require.NoError(t, err)
	for _, name := range names {
		require.Contains(t, string(data), "\nexclude_cell "+name)
	}
}

func TestCalibreLVSBlackboxSRAMs(t *testing.T) {
	names, err := sram.Names()
	require.NoError(t, err)

	s := &fakeSession{runFile: newRunFile(t, "")}
	require.NoError(t, CalibreLVSBlackboxSRAMs(s))
	data, err := os.ReadFile(s.runFile)
	require.NoError(t, err)
	for _, name := range names {
		require.Contains(t, string(data), "\nLVS BOX "+name)
		require.Contains(t, string(data), "\nLVS FILTER "+name+" OPEN ")
	}
}

func TestPegasusLVSBlackboxSRAMs(t *testing.T) {
	names, err := sram.Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ctl := "layout_path design.gds;\n" +
		"schematic_path /pdk/" + names[0] + ".spice spice;\n" +
		"schematic_primary top;\n"
	s := &fakeSession{runFile: newRunFile(t, ctl)}
	require.NoError(t, PegasusLVSBlackboxSRAMs(s))

	data, err := os.ReadFile(s.runFile)
	require.NoError(t, err)
	out := string(data)
	require.NotContains(t, out, "schematic_path /pdk/")
	require.Contains(t, out, "layout_path design.gds;\n")
	require.Contains(t, out, "schematic_primary top;\n")
	for _, name := range names {
		require.Contains(t, out, "\nlvs_black_box "+name+" -gray")
	}
}

func TestSRAM22RecognizeGates(t *testing.T) {
	s := &fakeSession{runFile: newRunFile(t, "HEADER\n")}
	require.NoError(t, SRAM22RecognizeGates(s))
	data, err := os.ReadFile(s.runFile)
	require.NoError(t, err)
	require.Equal(t, "HEADER\nLVS RECOGNIZE GATES ALL", string(data))
}

func TestRunFileActionsRequireRunFile(t *testing.T) {
	s := &fakeSession{}
	require.Error(t, SRAM22RecognizeGates(s))
	require.Error(t, PegasusLVSBlackboxSRAMs(s))
}

func TestSetupCalibreLVSDeck(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "lvsRules_s8")
	deckSrc := "LVS REPORT foo.rpt\n" +
		"VIRTUAL CONNECT REPORT YES\n" +
		"LAYER MET1 68\n" +
		"SOURCE PRIMARY top\n" +
		"ERC MAXIMUM RESULTS 1000\n"
	require.NoError(t, os.WriteFile(source, []byte(deckSrc), 0o644))

	desc := &tech.Descriptor{LVSDecks: []tech.LVSDeck{
		{ToolName: "calibre", DeckName: "calibre_lvs", Path: filepath.Join(dir, "out", "lvsRules_s8")},
		{ToolName: "pegasus", DeckName: "pegasus_lvs", Path: filepath.Join(dir, "unused.pvl")},
	}}
	st := settings.NewMapStore()
	st.Set(tech.KeyLVSDeckSources, []string{source})

	action := SetupCalibreLVSDeck(desc, nil)
	require.NoError(t, action(&fakeSession{store: st}))

	data, err := os.ReadFile(desc.LVSDecks[0].Path)
	require.NoError(t, err)
	out := string(data)
	require.Equal(t, "LAYER MET1 68\n"+lvsDeckInsertLines, out)

	// The pegasus deck is not calibre's to regenerate.
	_, err = os.Stat(desc.LVSDecks[1].Path)
	require.True(t, os.IsNotExist(err))
}

func TestSetupCalibreLVSDeckResolvesInstallPrefix(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "lvsRules_s8")
	require.NoError(t, os.WriteFile(source, []byte("LAYER MET1 68\n"), 0o644))

	nda := filepath.Join(dir, "nda")
	desc := &tech.Descriptor{
		Installs: []tech.PathPrefix{{ID: "$SKY130_NDA", Path: tech.KeySky130NDA}},
		LVSDecks: []tech.LVSDeck{
			{ToolName: "calibre", DeckName: "calibre_lvs", Path: "$SKY130_NDA/s8/LVS/lvsRules_s8"},
		},
	}
	st := settings.NewMapStore()
	st.Set(tech.KeySky130NDA, nda)
	st.Set(tech.KeyLVSDeckSources, []string{source})

	action := SetupCalibreLVSDeck(desc, nil)
	require.NoError(t, action(&fakeSession{store: st}))

	// The deck lands under the installed root, not a literal "$SKY130_NDA".
	data, err := os.ReadFile(filepath.Join(nda, "s8", "LVS", "lvsRules_s8"))
	require.NoError(t, err)
	require.Equal(t, "LAYER MET1 68\n"+lvsDeckInsertLines, string(data))
	_, err = os.Stat(filepath.Join(dir, "$SKY130_NDA"))
	require.True(t, os.IsNotExist(err))
}

func TestSetupCalibreLVSDeckMissingSourceIndex(t *testing.T) {
	dir := t.TempDir()
	desc := &tech.Descriptor{LVSDecks: []tech.LVSDeck{
		{ToolName: "pegasus", DeckName: "pegasus_lvs", Path: filepath.Join(dir, "unused.pvl")},
		{ToolName: "calibre", DeckName: "calibre_lvs", Path: filepath.Join(dir, "lvsRules_s8")},
	}}
	st := settings.NewMapStore()
	st.Set(tech.KeyLVSDeckSources, []string{})

	// A deck with no corresponding source is reported and skipped, not fatal.
	action := SetupCalibreLVSDeck(desc, nil)
	require.NoError(t, action(&fakeSession{store: st}))
	_, err := os.Stat(desc.LVSDecks[1].Path)
	require.True(t, os.IsNotExist(err))
}
