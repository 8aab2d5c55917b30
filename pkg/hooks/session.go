package hooks

import (
	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/tech"
)

// HierarchicalMode is the host flow's hierarchy position for the current
// tool invocation.
type HierarchicalMode int

const (
	ModeFlat HierarchicalMode = iota
	ModeLeaf
	ModeHierarchical
	ModeTop
)

// Net is a power or ground net, optionally tied to a library pin name.
type Net struct {
	Name string
	// Tie is the library-level net this net is paired with ("" if none).
	Tie string
}

// Session is the handle to a running downstream tool that actions mutate.
// The host owns the session lifecycle; actions only append script text,
// query flow state, and rewrite the session's generated run file.
type Session interface {
	// Append adds literal script text to the live tool session.
	Append(text string)
	// HierarchicalMode reports the flow's hierarchy position.
	HierarchicalMode() HierarchicalMode
	// PowerNets and GroundNets return the flow's supply nets.
	PowerNets() []Net
	GroundNets() []Net
	// SpecialCells queries the generated descriptor's special-cell table.
	SpecialCells(t tech.CellType) []tech.SpecialCell
	// RunFile is the generated run/control file the current lifecycle
	// stage produced ("" when the stage has none).
	RunFile() string
	// Settings is the host configuration store.
	Settings() settings.Store
}
