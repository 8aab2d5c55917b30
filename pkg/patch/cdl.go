package patch

import (
	"regexp"

	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/tech"
)

// deviceRename is one whole-token device-model substitution. The pattern is
// anchored on word boundaries so identifiers that merely contain the source
// name (e.g. nfet_01v8_lvt) are never partially rewritten.
type deviceRename struct {
	from *regexp.Regexp
	to   string
}

func newDeviceRename(from, to string) deviceRename {
	return deviceRename{
		from: regexp.MustCompile(`\b` + regexp.QuoteMeta(from) + `\b`),
		to:   to,
	}
}

// lvsDeviceNames returns the pfet/nfet model names expected by the
// configured LVS tool's rule decks.
func lvsDeviceNames(st settings.Store) (pmos, nmos string, err error) {
	tool, err := settings.GetString(st, tech.KeyLVSTool)
	if err != nil {
		return "", "", err
	}
	switch tool {
	case "hammer.lvs.calibre":
		return "phighvt", "nshort", nil
	case "hammer.lvs.netgen":
		return "sky130_fd_pr__pfet_01v8_hvt", "sky130_fd_pr__nfet_01v8", nil
	default:
		return "pfet_01v8_hvt", "nfet_01v8", nil
	}
}

// SetupCDL regenerates the stdcell transistor netlist with device-model
// names renamed to match the configured verification tool, and a unit-scale
// declaration prepended.
func (e *Engine) SetupCDL() error {
	src, err := e.sourceFile("CDL", "libs.ref", e.LibraryName, "cdl", e.LibraryName+".cdl")
	if err != nil {
		return err
	}
	dst, err := e.destFile(e.LibraryName + ".cdl")
	if err != nil {
		return err
	}

	pmos, nmos, err := lvsDeviceNames(e.settings)
	if err != nil {
		return err
	}
	renames := []deviceRename{
		newDeviceRename("pfet_01v8_hvt", pmos),
		newDeviceRename("nfet_01v8", nmos),
	}

	return e.regenerate("CDL netlist", src, dst, func(text string) (string, error) {
		for _, r := range renames {
			text = r.from.ReplaceAllString(text, r.to)
		}
		return "*.SCALE MICRON\n" + text, nil
	})
}
