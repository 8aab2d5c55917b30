package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrPatternNotFound reports a required pattern missing from a source file.
// Optional corrective targets (the vendor fixed the defect) are not errors;
// this kind is reserved for patterns the repair cannot proceed without.
var ErrPatternNotFound = errors.New("required pattern not found")

const (
	// timingSentinel opens the timing region containing the known-broken
	// specify block.
	timingSentinel = "`ifndef SKY130_FD_SC_HD__LPFLOW_BLEEDER_1_TIMING_V"
	// brokenArc is the malformed timing-arc expression the vendor's code
	// generator emits inside that region.
	brokenArc = "(SHORT => VPWR) = (0:0:0,0:0:0,0:0:0,0:0:0,0:0:0,0:0:0);"

	brokenEndif = "`endif SKY130_FD_SC_HD__LPFLOW_BLEEDER_FUNCTIONAL_V"
	fixedEndif  = "`endif // SKY130_FD_SC_HD__LPFLOW_BLEEDER_FUNCTIONAL_V"
)

var (
	// delayedNetDecl matches the canonical declaration of a generated
	// delayed net, which partitions the file for harmonization.
	delayedNetDecl = regexp.MustCompile(`^\s*wire SLEEP.*B.*delayed;`)
	// delayedNetRef matches any spelling variant of a delayed net the
	// vendor's code generator produced, including case and suffix drift.
	delayedNetRef = regexp.MustCompile(`(?i)\bsleep\w*?b\w*?delay(?:ed)?\b`)
)

// SetupVerilog regenerates the stdcell logic-simulation model:
//
//   - invalid net declarations ("wire 1") are commented out
//   - a malformed `endif directive is corrected
//   - the known-broken specify block in the bleeder timing region is
//     excised when present
//   - spelling drift in generated delayed-net identifiers is harmonized
func (e *Engine) SetupVerilog() error {
	src, err := e.sourceFile("Verilog", "libs.ref", e.LibraryName, "verilog", e.LibraryName+".v")
	if err != nil {
		return err
	}
	dst, err := e.destFile(e.LibraryName + ".v")
	if err != nil {
		return err
	}

	return e.regenerate("Verilog netlist", src, dst, func(text string) (string, error) {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			line = strings.ReplaceAll(line, "wire 1", "// wire 1")
			line = strings.ReplaceAll(line, brokenEndif, fixedEndif)
			lines[i] = line
		}
		lines, err := e.exciseBrokenSpecify(lines)
		if err != nil {
			return "", err
		}
		lines = e.harmonizeDelayedNets(lines)
		return strings.Join(lines, "\n"), nil
	})
}

// SetupPrimitives regenerates the primitives model with undeclared nets
// defaulting to a wire instead of being errors; open-source simulators treat
// the stricter mode as fatal noise.
func (e *Engine) SetupPrimitives() error {
	src, err := e.sourceFile("Verilog", "libs.ref", e.LibraryName, "verilog", "primitives.v")
	if err != nil {
		return err
	}
	dst, err := e.destFile("primitives.v")
	if err != nil {
		return err
	}
	return e.regenerate("Verilog netlist", src, dst, func(text string) (string, error) {
		return strings.ReplaceAll(text, "`default_nettype none", "`default_nettype wire"), nil
	})
}

// exciseBrokenSpecify removes the specify...endspecify region bounded by the
// timing sentinel and its closing directive, but only when the malformed
// timing arc actually occurs inside that region. The sentinel itself is
// mandatory; the malformed arc is an optional corrective target.
func (e *Engine) exciseBrokenSpecify(lines []string) ([]string, error) {
	sentinelIdx := -1
	for i, line := range lines {
		if strings.Contains(line, timingSentinel) {
			sentinelIdx = i
			break
		}
	}
	if sentinelIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPatternNotFound, timingSentinel)
	}

	brokenIdx := indexContaining(lines, sentinelIdx+1, len(lines), brokenArc)
	if brokenIdx < 0 {
		// Vendor fixed the arc; nothing to excise.
		e.log.Debug("malformed timing arc absent, leaving specify blocks untouched")
		return lines, nil
	}
	endifIdx := indexContaining(lines, sentinelIdx+1, len(lines), "`endif")
	if endifIdx < 0 {
		return nil, fmt.Errorf("%w: `endif after timing sentinel", ErrPatternNotFound)
	}
	if brokenIdx > endifIdx {
		// The arc occurs outside the expected block; excising here would
		// cut healthy timing data.
		e.log.Debug("malformed timing arc outside expected block, leaving specify blocks untouched")
		return lines, nil
	}

	start := indexContaining(lines, sentinelIdx+1, endifIdx, "specify")
	end := indexContaining(lines, sentinelIdx+1, endifIdx, "endspecify")
	if start < 0 || end < 0 {
		return nil, fmt.Errorf("%w: specify/endspecify inside timing region", ErrPatternNotFound)
	}
	e.log.Info("removing incorrectly formed specify block")
	return append(lines[:start], lines[end+1:]...), nil
}

// harmonizeDelayedNets repairs spelling drift in generated delayed-net
// identifiers: between one canonical declaration and the next, every
// differently-spelled reference to the same logical net is rewritten to the
// declared spelling.
func (e *Engine) harmonizeDelayedNets(lines []string) []string {
	type decl struct {
		idx       int
		canonical string
	}
	var decls []decl
	for i, line := range lines {
		if delayedNetDecl.MatchString(line) {
			if canonical := delayedNetRef.FindString(line); canonical != "" {
				decls = append(decls, decl{idx: i, canonical: canonical})
			}
		}
	}

	for d, dc := range decls {
		end := len(lines)
		if d != len(decls)-1 {
			end = decls[d+1].idx
		}
		for i := dc.idx + 1; i < end; i++ {
			for _, ref := range delayedNetRef.FindAllString(lines[i], -1) {
				if ref != dc.canonical {
					lines[i] = strings.ReplaceAll(lines[i], ref, dc.canonical)
					e.log.Debug("rewriting delayed-net reference",
						zap.String("from", ref), zap.String("to", dc.canonical), zap.Int("line", i))
				}
			}
		}
	}
	return lines
}

// indexContaining returns the index of the first line in [start, end) that
// contains substr, or -1.
func indexContaining(lines []string, start, end int, substr string) int {
	for i := start; i < end && i < len(lines); i++ {
		if strings.Contains(lines[i], substr) {
			return i
		}
	}
	return -1
}
