// Package hooks maps downstream tool identities to the ordered actions that
// customize each tool's lifecycle for this technology: TCL settings spliced
// into the place-and-route session, and rewrites of generated DRC/LVS
// run files. The host owns the tool lifecycle; this package only tells it
// what to run, where, and in which order.
package hooks

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/tech"
)

// Tool is the closed set of downstream tools with registered hooks.
type Tool int

const (
	ToolInnovus Tool = iota
	ToolCalibre
	ToolPegasus
	ToolKlayout
)

func (t Tool) String() string {
	switch t {
	case ToolInnovus:
		return "innovus"
	case ToolCalibre:
		return "calibre"
	case ToolPegasus:
		return "pegasus"
	case ToolKlayout:
		return "klayout"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool maps a tool name to a Tool; unknown names are a construction
// error, not a runtime fallthrough.
func ParseTool(name string) (Tool, error) {
	switch name {
	case "innovus":
		return ToolInnovus, nil
	case "calibre":
		return ToolCalibre, nil
	case "pegasus":
		return ToolPegasus, nil
	case "klayout":
		return ToolKlayout, nil
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// Position says whether an action runs before or after its named step.
type Position int

const (
	PreStep Position = iota
	PostStep
)

func (p Position) String() string {
	if p == PreStep {
		return "pre"
	}
	return "post"
}

// Action mutates a live tool session. A returned error is escalated by the
// host; actions are never retried here.
type Action func(Session) error

// Hook binds one action to a tool's lifecycle step.
type Hook struct {
	Tool     Tool
	Step     string
	Position Position
	// Name identifies the action in host logs.
	Name   string
	Action Action
}

// ErrNoSpecialCell reports that a hook needed a special-cell role the active
// family's descriptor does not define.
var ErrNoSpecialCell = errors.New("no special cell registered for role")

// Registry holds the hooks for every tool, in registration order.
type Registry struct {
	hooks []Hook
	log   *zap.Logger
}

// NewRegistry builds the hook registry for a generated descriptor. The
// descriptor must be fully built first: several actions query its
// special-cell table and rule-deck references.
func NewRegistry(desc *tech.Descriptor, st settings.Store, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{log: log}

	// Place-and-route.
	r.add(ToolInnovus, "init_design", PostStep, "innovus_settings", InnovusSettings)
	r.add(ToolInnovus, "place_tap_cells", PreStep, "add_endcaps", AddEndcaps)
	r.add(ToolInnovus, "power_straps", PreStep, "connect_nets", ConnectNets)
	// The net pairing also happens when the netlist is written, but must
	// already hold before power straps are placed.
	r.add(ToolInnovus, "write_design", PreStep, "connect_nets", ConnectNets)

	// DRC.
	blackboxDRC, err := settings.GetBool(st, tech.KeyDRCBlackboxSRAMs)
	if err != nil {
		return nil, err
	}
	if blackboxDRC {
		r.add(ToolCalibre, "generate_drc_run_file", PostStep, "calibre_drc_blackbox_srams", CalibreDRCBlackboxSRAMs)
		r.add(ToolPegasus, "generate_drc_ctl_file", PostStep, "pegasus_drc_blackbox_srams", PegasusDRCBlackboxSRAMs)
	}

	// LVS.
	r.add(ToolCalibre, "generate_lvs_run_file", PostStep, "setup_calibre_lvs_deck", SetupCalibreLVSDeck(desc, log))
	if sram22Installed(st) {
		r.add(ToolCalibre, "generate_lvs_run_file", PostStep, "sram22_recognize_gates_all", SRAM22RecognizeGates)
	}
	blackboxLVS, err := settings.GetBool(st, tech.KeyLVSBlackboxSRAMs)
	if err != nil {
		return nil, err
	}
	if blackboxLVS {
		r.add(ToolCalibre, "generate_lvs_run_file", PostStep, "calibre_lvs_blackbox_srams", CalibreLVSBlackboxSRAMs)
		r.add(ToolPegasus, "generate_lvs_ctl_file", PostStep, "pegasus_lvs_blackbox_srams", PegasusLVSBlackboxSRAMs)
	}

	return r, nil
}

func (r *Registry) add(tool Tool, step string, pos Position, name string, action Action) {
	r.hooks = append(r.hooks, Hook{Tool: tool, Step: step, Position: pos, Name: name, Action: action})
}

// ForTool returns the hooks registered for tool, in registration order,
// each still tagged with its target step and position for the host to
// splice into its own lifecycle.
func (r *Registry) ForTool(tool Tool) []Hook {
	var out []Hook
	for _, h := range r.hooks {
		if h.Tool == tool {
			out = append(out, h)
		}
	}
	return out
}

// sram22Installed reports whether the sram22 macro collection was overridden
// to point at a valid path.
func sram22Installed(st settings.Store) bool {
	path, err := settings.GetString(st, tech.KeySRAM22Macros)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
