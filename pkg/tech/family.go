package tech

import (
	"errors"
	"fmt"
)

// Family is the mutually exclusive choice of standard-cell library.
type Family int

const (
	// FamilySkyHD is the open-source high-density standard-cell library.
	FamilySkyHD Family = iota
	// FamilySCL is the commercial 9-track standard-cell library.
	FamilySCL
)

// ErrUnknownFamily reports a stdcell library selection outside the closed
// set of supported families. It is a fatal configuration error.
var ErrUnknownFamily = errors.New("incorrect standard cell library selection")

// Family library names as they appear in the configuration store.
const (
	SkyHDLibraryName = "sky130_fd_sc_hd"
	SCLLibraryName   = "sky130_scl"
)

// ParseFamily maps the configured stdcell library name to a Family.
func ParseFamily(name string) (Family, error) {
	switch name {
	case SkyHDLibraryName:
		return FamilySkyHD, nil
	case SCLLibraryName:
		return FamilySCL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// LibraryName returns the vendor library name of the family.
func (f Family) LibraryName() string {
	switch f {
	case FamilySkyHD:
		return SkyHDLibraryName
	case FamilySCL:
		return SCLLibraryName
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

func (f Family) String() string {
	return f.LibraryName()
}
