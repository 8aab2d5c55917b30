package tech

// Settings keys consumed (and in one case written) by the technology kit.
const (
	KeyStdcellLibrary   = "technology.sky130.stdcell_library"
	KeySky130A          = "technology.sky130.sky130A"
	KeySky130CDS        = "technology.sky130.sky130_cds"
	KeySky130SCL        = "technology.sky130.sky130_scl"
	KeySky130NDA        = "technology.sky130.sky130_nda"
	KeySRAM22Macros     = "technology.sky130.sram22_sky130_macros"
	KeyDRCBlackboxSRAMs = "technology.sky130.drc_blackbox_srams"
	KeyLVSBlackboxSRAMs = "technology.sky130.lvs_blackbox_srams"
	KeyLVSDeckSources   = "technology.sky130.lvs_deck_sources"
	KeyIOFile           = "technology.sky130.io_file"
	KeyLVSTool          = "vlsi.core.lvs_tool"

	// KeyClockGatingMode is written during descriptor generation when the
	// selected family has no clock-gating cells.
	KeyClockGatingMode = "synthesis.clock_gating_mode"
)
