package patch

import (
	"strings"
)

// liconLayer is the cut-layer definition missing from the vendor tech LEF.
// Without it, via generation between local interconnect and metal1 fails.
const liconLayer = `
LAYER licon
  TYPE CUT ;
END licon
`

// SetupTechLEF regenerates the technology LEF with the licon cut-layer
// definition inserted after the well-layer section that precedes it in the
// layer order.
func (e *Engine) SetupTechLEF() error {
	src, err := e.sourceFile("Tech-LEF", "libs.ref", e.LibraryName, "techlef", e.LibraryName+"__nom.tlef")
	if err != nil {
		return err
	}
	dst, err := e.destFile(e.LibraryName + "__nom.tlef")
	if err != nil {
		return err
	}
	return e.regenerate("Technology LEF", src, dst, func(text string) (string, error) {
		var out strings.Builder
		for _, line := range strings.SplitAfter(text, "\n") {
			out.WriteString(line)
			if strings.TrimSpace(line) == "END pwell" {
				out.WriteString(liconLayer)
			}
		}
		return out.String(), nil
	})
}
