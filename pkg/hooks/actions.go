package hooks

import (
	"fmt"

	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/tech"
)

// innovusGlobalSettings is applied once per place-and-route invocation.
const innovusGlobalSettings = `

##########################################################
# Placement attributes  [get_db -category place]
##########################################################
#-------------------------------------------------------------------------------
set_db place_global_place_io_pins  true

set_db opt_honor_fences true
set_db place_detail_dpt_flow true
set_db place_detail_color_aware_legal true
set_db place_global_solver_effort high
set_db place_detail_check_cut_spacing true
set_db place_global_cong_effort high

##########################################################
# Optimization attributes  [get_db -category opt]
##########################################################
#-------------------------------------------------------------------------------

set_db opt_fix_fanout_load true
set_db opt_clock_gate_aware false
set_db opt_area_recovery true
set_db opt_post_route_area_reclaim setup_aware
set_db opt_fix_hold_verbose true

##########################################################
# Clock attributes  [get_db -category cts]
##########################################################
#-------------------------------------------------------------------------------
set_db cts_target_skew 0.03
set_db cts_max_fanout 10
#set_db cts_target_max_transition_time .3
set_db opt_setup_target_slack 0.10
set_db opt_hold_target_slack 0.10

##########################################################
# Routing attributes  [get_db -category route]
##########################################################
#-------------------------------------------------------------------------------
set_db route_design_antenna_diode_insertion 1
set_db route_design_antenna_cell_name "sky130_fd_sc_hd__diode_2"

set_db route_design_high_freq_search_repair true
set_db route_design_detail_post_route_spread_wire true
set_db route_design_with_si_driven true
set_db route_design_with_timing_driven true
set_db route_design_concurrent_minimize_via_count_effort high
set_db opt_consider_routing_congestion true
set_db route_design_detail_use_multi_cut_via_effort medium
`

// InnovusSettings inserts the placement, optimization, clock, and routing
// database settings at flow initialization.
func InnovusSettings(s Session) error {
	s.Append(innovusGlobalSettings)
	if mode := s.HierarchicalMode(); mode == ModeTop || mode == ModeFlat {
		s.Append(`
# For top module: snap die to manufacturing grid, not placement grid
set_db floorplan_snap_die_grid manufacturing
`)
	}
	return nil
}

// AddEndcaps inserts boundary end-cap placement before tap cells are placed.
// It fails when the active family's descriptor registers no end-cap cell.
func AddEndcaps(s Session) error {
	endcaps := s.SpecialCells(tech.EndCap)
	if len(endcaps) == 0 || len(endcaps[0].Name) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSpecialCell, tech.EndCap)
	}
	cell := endcaps[0].Name[0]
	s.Append(fmt.Sprintf(`
set_db add_endcaps_boundary_tap     true
set_db add_endcaps_left_edge        %s
set_db add_endcaps_right_edge       %s
add_endcaps
`, cell, cell))
	return nil
}

// ConnectNets pairs each power/ground net with its tied library net. The
// pairing must hold both before power straps are placed and when the
// netlist is written.
func ConnectNets(s Session) error {
	nets := append(s.PowerNets(), s.GroundNets()...)
	for _, net := range nets {
		if net.Tie == "" {
			continue
		}
		s.Append(fmt.Sprintf("connect_global_net %s -type pg_pin -pin_base_name %s -all -auto_tie -netlist_override", net.Tie, net.Name))
		s.Append(fmt.Sprintf("connect_global_net %s -type net    -net_base_name %s -all -netlist_override", net.Tie, net.Name))
	}
	return nil
}

// EfablessRingIO instantiates the efabless caravel-style IO ring: the IO
// placement file, global net connections for the pad supplies, IO fillers on
// all four sides, and the core power ring.
func EfablessRingIO(s Session) error {
	ioFile, err := settings.GetString(s.Settings(), tech.KeyIOFile)
	if err != nil {
		return err
	}
	s.Append(fmt.Sprintf("read_io_file %s -no_die_size_adjust", ioFile))

	power := s.PowerNets()
	ground := s.GroundNets()
	if len(power) == 0 || len(ground) == 0 {
		return fmt.Errorf("IO ring requires at least one power and one ground net")
	}
	p, g := power[0].Name, ground[0].Name

	s.Append(fmt.Sprintf(`
# Global net connections
connect_global_net VDDA -type pg_pin -pin_base_name VDDA -verbose
connect_global_net VDDIO -type pg_pin -pin_base_name VDDIO* -verbose
connect_global_net %[1]s -type pg_pin -pin_base_name VCCD* -verbose
connect_global_net %[1]s -type pg_pin -pin_base_name VCCHIB -verbose
connect_global_net %[1]s -type pg_pin -pin_base_name VSWITCH -verbose
connect_global_net %[2]s -type pg_pin -pin_base_name VSSA -verbose
connect_global_net %[2]s -type pg_pin -pin_base_name VSSIO* -verbose
connect_global_net %[2]s -type pg_pin -pin_base_name VSSD* -verbose
`, p, g))
	s.Append(`
# IO fillers
set io_fillers {sky130_ef_io__connect_vcchib_vccd_and_vswitch_vddio_slice_20um sky130_ef_io__com_bus_slice_10um sky130_ef_io__com_bus_slice_5um sky130_ef_io__com_bus_slice_1um}
add_io_fillers -prefix IO_FILLER -io_ring 1 -cells $io_fillers -side top -filler_orient r0
add_io_fillers -prefix IO_FILLER -io_ring 1 -cells $io_fillers -side right -filler_orient r270
add_io_fillers -prefix IO_FILLER -io_ring 1 -cells $io_fillers -side bottom -filler_orient r180
add_io_fillers -prefix IO_FILLER -io_ring 1 -cells $io_fillers -side left -filler_orient r90
# Fix placement
set io_filler_insts [get_db insts IO_FILLER_*]
set_db $io_filler_insts .place_status fixed
`)
	// A 40um offset keeps the core ring inside the core area; smaller
	// offsets need extra routing to reach the core power stripes.
	s.Append(fmt.Sprintf(`
# Core ring
add_rings -follow io -layer met5 -nets { %[1]s %[2]s } -offset 40 -width 13 -spacing 3
route_special -connect pad_pin -nets { %[1]s %[2]s } -detailed_log
`, p, g))
	s.Append(`
# Prevent buffering on TIE_LO_ESD and TIE_HI_ESD
set_dont_touch [get_db [get_db pins -if {.name == *TIE*ESD}] .net]
`)
	return nil
}
