package patch

import (
	"strings"

	"go.uber.org/zap"
)

// coreClassNets are the supply nets whose pin ports must be declared
// CLASS CORE for the IO clamp cells to place correctly.
var coreClassNets = []string{"VCCD1", "VSSD1"}

// spacerMacros are the connect/disconnect pad slices whose macro class the
// vendor file declares as AREAIO; they are spacers and break the IO ring
// when treated as area-IO cells.
var spacerMacros = []string{
	"sky130_ef_io__connect_vcchib_vccd_and_vswitch_vddio_slice_20um",
	"sky130_ef_io__disconnect_vccd_slice_5um",
	"sky130_ef_io__disconnect_vdda_slice_5um",
}

// macroErratum describes one historically broken macro: a macro that opens
// as Start but is closed by another cell's END line. The fix rewrites the
// stray end line to EndFixed when it occurs before the next macro.
type macroErratum struct {
	Start     string
	EndBroken string
	EndFixed  string
}

// macroErrata is the current errata window. Earlier vendor releases carried
// two broken analog pad macro definitions here; the current release has
// none, and the mechanism must stay tolerant of an empty list.
var macroErrata = []macroErratum{}

// SetupIOLEFs regenerates the IO-cell LEF: every PORT of the VCCD1/VSSD1
// pin definitions gains a CLASS CORE declaration, the pad-spacer macros get
// their class corrected, and any registered macro errata are applied.
func (e *Engine) SetupIOLEFs() error {
	src, err := e.sourceFile("IO LEF", "libs.ref", "sky130_fd_io", "lef", "sky130_ef_io.lef")
	if err != nil {
		return err
	}
	dst, err := e.destFile("sky130_ef_io.lef")
	if err != nil {
		return err
	}
	return e.regenerate("IO LEF", src, dst, func(text string) (string, error) {
		lines := strings.Split(text, "\n")
		for _, net := range coreClassNets {
			lines = insertCoreClass(lines, net)
		}
		e.fixSpacerMacroClasses(lines)
		e.applyMacroErrata(lines)
		return strings.Join(lines, "\n"), nil
	})
}

// insertCoreClass adds a CLASS CORE declaration immediately after each PORT
// keyword inside every pin definition of net. The PORT keyword itself is
// preserved, so the count of PORT occurrences is unchanged.
func insertCoreClass(lines []string, net string) []string {
	var starts, ends []int
	for i, line := range lines {
		if strings.Contains(line, "PIN "+net) {
			starts = append(starts, i)
		}
		if strings.Contains(line, "END "+net) {
			ends = append(ends, i)
		}
	}
	for p := 0; p < len(starts) && p < len(ends); p++ {
		for i := starts[p]; i < ends[p]; i++ {
			if strings.Contains(lines[i], "PORT") {
				lines[i] = strings.ReplaceAll(lines[i], "PORT", "PORT\n      CLASS CORE ;")
			}
		}
	}
	return lines
}

// fixSpacerMacroClasses replaces the incorrect AREAIO class token on the
// line following each spacer macro header. A macro absent from the source is
// an expected outcome (the vendor may drop cells between releases).
func (e *Engine) fixSpacerMacroClasses(lines []string) {
	for _, cell := range spacerMacros {
		found := false
		for i := 0; i < len(lines)-1; i++ {
			if strings.Contains(lines[i], "MACRO "+cell) {
				lines[i+1] = strings.ReplaceAll(lines[i+1], "AREAIO", "SPACER")
				found = true
				break
			}
		}
		if !found {
			e.log.Debug("spacer macro absent from IO LEF", zap.String("macro", cell))
		}
	}
}

// applyMacroErrata rewrites stray macro end lines for the registered errata.
func (e *Engine) applyMacroErrata(lines []string) {
	for _, erratum := range macroErrata {
		for i, line := range lines {
			if strings.TrimRight(line, "\r") != erratum.Start {
				continue
			}
			nextMacro := -1
			endBroken := -1
			for j := i + 1; j < len(lines); j++ {
				if nextMacro < 0 && strings.Contains(lines[j], "MACRO") {
					nextMacro = j
				}
				if endBroken < 0 && strings.Contains(lines[j], erratum.EndBroken) {
					endBroken = j
				}
				if nextMacro >= 0 && endBroken >= 0 {
					break
				}
			}
			if endBroken >= 0 && (nextMacro < 0 || endBroken < nextMacro) {
				lines[endBroken] = erratum.EndFixed
			}
		}
	}
}
